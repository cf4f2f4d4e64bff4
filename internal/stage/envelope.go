package stage

import (
	"sort"
	"time"

	"github.com/flarebyte/shipwright/internal/compress"
	"github.com/flarebyte/shipwright/internal/config"
	"github.com/flarebyte/shipwright/internal/vcs"
)

// Platform is a target OS/architecture pair.
type Platform struct {
	OS   string `json:"os" yaml:"os"`
	Arch string `json:"arch" yaml:"arch"`
}

func (p Platform) String() string { return p.OS + "/" + p.Arch }

// Artifact is one compiled binary.
type Artifact struct {
	Name        string            `json:"name"`
	Path        string            `json:"path"`
	Platform    Platform          `json:"platform"`
	Size        int64             `json:"size"`
	Compression *compress.Outcome `json:"compression,omitempty"`
}

// ArtifactSet holds the binaries of one build keyed by target platform.
type ArtifactSet map[Platform]*Artifact

// Add stores a, replacing any artifact for the same platform.
func (s ArtifactSet) Add(a *Artifact) { s[a.Platform] = a }

// Sorted returns the artifacts ordered by platform string.
func (s ArtifactSet) Sorted() []*Artifact {
	out := make([]*Artifact, 0, len(s))
	for _, a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Platform.String() < out[j].Platform.String()
	})
	return out
}

// Step records one completed stage.
type Step struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// Envelope is the state handed from stage to stage.
type Envelope struct {
	RunID     string
	Config    config.Release
	Mode      BuildMode
	Version   *vcs.VersionInfo
	Artifacts ArtifactSet
	Steps     []Step
}
