package run

import (
	"context"
	"errors"
	"log/slog"

	"github.com/flarebyte/shipwright/internal/compress"
	"github.com/flarebyte/shipwright/internal/config"
	"github.com/flarebyte/shipwright/internal/metrics"
	"github.com/flarebyte/shipwright/internal/proc"
	"github.com/flarebyte/shipwright/internal/stage"
	"github.com/flarebyte/shipwright/internal/vcs"
)

// preparedStages is the stage list and build mode of one run.
type preparedStages struct {
	stages []string
	mode   stage.BuildMode
}

func prepare(cfg config.Release, skipFrontend bool) (preparedStages, error) {
	mode, err := stage.ParseBuildMode(cfg.Backend.Mode)
	if err != nil {
		return preparedStages{}, err
	}
	var stages []string
	if !skipFrontend {
		stages = append(stages, stage.FrontendBuild, stage.ReplaceAssets)
	}
	if cfg.Backend.Enabled {
		stages = append(stages, stage.BackendBuild)
		if cfg.Manifest.Enabled {
			stages = append(stages, stage.WriteManifest)
		}
	}
	if len(stages) == 0 {
		return preparedStages{}, errors.New("nothing to do: --skip-frontend without a backend build")
	}
	return preparedStages{stages: stages, mode: mode}, nil
}

// executePipeline wires the stage dependencies and drives the prepared stages.
func executePipeline(ctx context.Context, runID string, cfg config.Release, p preparedStages, logger *slog.Logger) stage.Result {
	exec := proc.New(logger)
	src, err := vcs.NewSource(cfg.VCS.Source, cfg.BackendRoot(), exec)
	if err != nil {
		return stage.Fail("prepare", stage.KindConfig, err)
	}
	var rec *metrics.Recorder
	deps := stage.Deps{
		Exec:       exec,
		Logger:     logger,
		VCS:        src,
		Compressor: compress.New(exec, cfg.Compress.Program, logger),
		Host:       stage.HostPlatform(),
	}
	if cfg.Metrics.Textfile != "" {
		rec = metrics.New()
		deps.Metrics = rec
	}

	logger.Info("pipeline start", "stages", p.stages, "mode", p.mode.String())
	in := stage.Envelope{RunID: runID, Config: cfg, Mode: p.mode}
	res := stage.Drive(ctx, p.stages, in, deps)

	if rec != nil {
		rec.SetSuccess(res.OK())
		path := cfg.Path(cfg.Metrics.Textfile)
		if err := rec.WriteTextfile(path); err != nil {
			logger.Warn("metrics textfile not written", "path", path, "error", err)
		}
	}
	if res.OK() {
		logger.Info("pipeline succeeded", "steps", len(res.Out.Steps))
	}
	return res
}
