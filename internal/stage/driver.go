package stage

import (
	"context"
	"fmt"
	"time"
)

// Drive runs stages in order and halts on the first failure. The returned
// Result carries the envelope produced by the last stage that ran.
func Drive(ctx context.Context, stages []string, in Envelope, deps Deps) Result {
	log := deps.logger()
	cur := in
	for _, name := range stages {
		if err := ctx.Err(); err != nil {
			return Result{Out: cur, Failure: &Failure{Stage: name, Kind: KindCancelled, Err: fmt.Errorf("not started: %w", err)}}
		}
		log.Debug("stage start", "stage", name)
		start := time.Now()
		res := Run(ctx, name, cur, deps)
		elapsed := time.Since(start)
		if deps.Metrics != nil {
			deps.Metrics.ObserveStage(name, elapsed)
		}
		if !res.OK() {
			res.Out = cur
			res.Out.Steps = append(append([]Step(nil), cur.Steps...), Step{Stage: name, Duration: elapsed})
			return res
		}
		cur = res.Out
		cur.Steps = append(cur.Steps, Step{Stage: name, Duration: elapsed})
		log.Info("stage done", "stage", name, "elapsed", elapsed.Round(time.Millisecond).String())
	}
	return Ok(cur)
}
