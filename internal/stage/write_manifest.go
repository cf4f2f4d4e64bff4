package stage

import (
	"context"
	"fmt"

	"github.com/flarebyte/shipwright/internal/manifest"
)

const WriteManifest = "write-manifest"

// BuildManifest converts the envelope into the manifest record.
func BuildManifest(in Envelope, host Platform) manifest.Manifest {
	m := manifest.Manifest{
		RunID: in.RunID,
		Host:  host.String(),
		Mode:  in.Mode.String(),
	}
	if in.Version != nil {
		m.Version = in.Version.Version
		m.Commit = in.Version.Build.Commit
		m.Branch = in.Version.Build.Branch
		m.BuildTime = in.Version.Build.Time
	}
	for _, a := range in.Artifacts.Sorted() {
		ma := manifest.Artifact{Name: a.Name, Platform: a.Platform.String(), Size: a.Size}
		if c := a.Compression; c != nil {
			ma.Status = string(c.Status)
			ma.Compressed = c.After
			ma.Ratio = c.Ratio
		}
		m.Artifacts = append(m.Artifacts, ma)
	}
	return m
}

func writeManifestRunner(ctx context.Context, in Envelope, deps Deps) Result {
	ensureVersion(ctx, &in, deps)
	dir := in.Config.OutputDir()
	path, err := manifest.Write(dir, BuildManifest(in, deps.host()))
	if err != nil {
		return Fail(WriteManifest, KindIO, fmt.Errorf("write %s: %w", manifest.FileName, err))
	}
	deps.logger().Info("build manifest written", "path", path)
	return Ok(in)
}

func init() { Register(WriteManifest, writeManifestRunner) }
