// Package metrics collects per-run measurements and writes them in the
// Prometheus text format for node_exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the metrics of one pipeline run on a private registry.
type Recorder struct {
	registry      *prometheus.Registry
	stageDuration *prometheus.GaugeVec
	artifactSize  *prometheus.GaugeVec
	success       prometheus.Gauge
}

// New creates a Recorder with every metric registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "shipwright_stage_duration_seconds",
			Help: "Wall-clock duration of each pipeline stage.",
		}, []string{"stage"}),
		artifactSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "shipwright_artifact_size_bytes",
			Help: "Size of each built artifact before and after compression.",
		}, []string{"artifact", "state"}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shipwright_pipeline_success",
			Help: "1 if the last pipeline run succeeded, 0 otherwise.",
		}),
	}
	r.registry.MustRegister(r.stageDuration, r.artifactSize, r.success)
	return r
}

func (r *Recorder) ObserveStage(name string, d time.Duration) {
	r.stageDuration.WithLabelValues(name).Set(d.Seconds())
}

func (r *Recorder) ObserveArtifact(name, state string, size int64) {
	r.artifactSize.WithLabelValues(name, state).Set(float64(size))
}

// SetSuccess records the pipeline outcome.
func (r *Recorder) SetSuccess(ok bool) {
	if ok {
		r.success.Set(1)
		return
	}
	r.success.Set(0)
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.registry }

// WriteTextfile atomically writes all metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
