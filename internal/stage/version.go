package stage

import (
	"context"

	"github.com/flarebyte/shipwright/internal/vcs"
)

// ensureVersion resolves the version once per run and stores it in the envelope.
func ensureVersion(ctx context.Context, in *Envelope, deps Deps) vcs.VersionInfo {
	if in.Version != nil {
		return *in.Version
	}
	v := vcs.Resolve(ctx, deps.VCS, deps.now())
	in.Version = &v
	deps.logger().Info("resolved version", "version", v.Version, "commit", v.Build.Commit, "branch", v.Build.Branch)
	return v
}
