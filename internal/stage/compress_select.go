package stage

import (
	"context"
	"log/slog"
)

// filterByScript narrows candidates with the compress.select predicate. The
// predicate only ever sees host artifacts, so it cannot widen the selection.
// A script error leaves that artifact uncompressed.
func filterByScript(ctx context.Context, script string, candidates []*Artifact, log *slog.Logger) []*Artifact {
	if script == "" {
		return candidates
	}
	var keep []*Artifact
	for _, a := range candidates {
		ok, err := runLuaPredicate(ctx, script, map[string]any{
			"artifact": map[string]any{
				"name": a.Name,
				"os":   a.Platform.OS,
				"arch": a.Platform.Arch,
				"path": a.Path,
				"size": a.Size,
			},
		})
		if err != nil {
			log.Warn("compress.select failed, leaving artifact uncompressed", "artifact", a.Name, "error", err)
			continue
		}
		if !ok {
			log.Info("skipping compression by compress.select", "artifact", a.Name)
			continue
		}
		keep = append(keep, a)
	}
	return keep
}

// compressArtifacts routes each artifact through the compressor and records
// the outcome on it. It never fails.
func compressArtifacts(ctx context.Context, in Envelope, deps Deps, candidates []*Artifact) {
	log := deps.logger()
	cfg := in.Config.Compress
	if !cfg.Enabled || deps.Compressor == nil {
		log.Info("compression disabled")
		return
	}
	for _, a := range filterByScript(ctx, cfg.Select, candidates, log) {
		log.Info("compressing host artifact", "artifact", a.Name)
		out := deps.Compressor.Compress(ctx, a.Path)
		a.Compression = &out
		if deps.Metrics != nil && out.After > 0 {
			deps.Metrics.ObserveArtifact(a.Name, "compressed", out.After)
		}
	}
}
