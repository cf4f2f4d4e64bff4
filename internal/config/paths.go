package config

import (
	"path/filepath"
	"strings"
)

// Within reports whether child is parent or lies below it. Both paths are
// compared lexically after cleaning.
func Within(parent, child string) bool {
	rel, err := filepath.Rel(filepath.Clean(parent), filepath.Clean(child))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

type namedPath struct {
	name string
	path string
}

// checkClearable validates a directory the pipeline empties or recreates. It
// must stay below BaseDir and must not hold any of the protected paths.
func (r Release) checkClearable(field, value string, protected []namedPath) error {
	if strings.TrimSpace(value) == "" {
		return fieldError(field, "must not be empty")
	}
	p := filepath.Clean(r.Path(value))
	base := filepath.Clean(r.BaseDir)
	if p == base {
		return fieldError(field, "must not be the project directory")
	}
	if !Within(base, p) {
		return fieldError(field, "must stay inside the project directory")
	}
	for _, q := range protected {
		if Within(p, filepath.Clean(q.path)) {
			return fieldError(field, "must not contain "+q.name)
		}
	}
	return nil
}
