package stage

import (
	"fmt"

	"github.com/flarebyte/shipwright/internal/config"
)

// BuildMode selects how the backend is compiled.
type BuildMode int

const (
	// ModeSingle compiles for the host platform only.
	ModeSingle BuildMode = iota
	// ModeMatrix cross-compiles every configured OS/arch pair.
	ModeMatrix
)

func (m BuildMode) String() string {
	if m == ModeMatrix {
		return config.ModeMatrix
	}
	return config.ModeSingle
}

// ParseBuildMode maps the config/flag spelling to a BuildMode.
func ParseBuildMode(s string) (BuildMode, error) {
	switch s {
	case "", config.ModeSingle:
		return ModeSingle, nil
	case config.ModeMatrix:
		return ModeMatrix, nil
	}
	return ModeSingle, fmt.Errorf("unknown build mode %q (expected %s or %s)", s, config.ModeSingle, config.ModeMatrix)
}
