package stage

import (
	"context"
	"fmt"
	"os"
)

const ReplaceAssets = "replace-assets"

// ReplaceDir empties target and copies the contents of source into it.
// source must be an existing directory; it is checked after the clear so a
// missing bundle still leaves no stale assets behind. Nothing is deleted when
// target is or contains source or one of keep.
func ReplaceDir(source, target string, keep ...string) *Failure {
	if err := checkRemovable(target, append([]string{source}, keep...)...); err != nil {
		return &Failure{Stage: ReplaceAssets, Kind: KindConfig, Err: err}
	}
	if err := ClearDir(target); err != nil {
		return &Failure{Stage: ReplaceAssets, Kind: KindIO, Err: fmt.Errorf("clear %s: %w", target, err)}
	}
	st, err := os.Stat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return &Failure{Stage: ReplaceAssets, Kind: KindNotFound, Err: fmt.Errorf("frontend output %s does not exist", source)}
		}
		return &Failure{Stage: ReplaceAssets, Kind: KindIO, Err: err}
	}
	if !st.IsDir() {
		return &Failure{Stage: ReplaceAssets, Kind: KindNotFound, Err: fmt.Errorf("frontend output %s is not a directory", source)}
	}
	if err := CopyTree(source, target); err != nil {
		return &Failure{Stage: ReplaceAssets, Kind: KindIO, Err: fmt.Errorf("copy %s -> %s: %w", source, target, err)}
	}
	return nil
}

func replaceAssetsRunner(ctx context.Context, in Envelope, deps Deps) Result {
	src, dst := in.Config.DistDir(), in.Config.EmbedDir()
	log := deps.logger()
	log.Info("replacing embedded assets", "from", src, "to", dst)
	cfg := in.Config
	if f := ReplaceDir(src, dst, cfg.BaseDir, cfg.FrontendRoot(), cfg.BackendRoot()); f != nil {
		return Result{Failure: f}
	}
	log.Info("embedded assets replaced", "to", dst)
	return Ok(in)
}

func init() { Register(ReplaceAssets, replaceAssetsRunner) }
