package stage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const exeSuffix = ".exe"

// OutputTemplate is the cross-compiler output path for app under dir.
func OutputTemplate(dir, app string) string {
	return filepath.Join(dir, app+"_{{.OS}}_{{.Arch}}")
}

func executableName(name, goos string) string {
	if goos == "windows" && !strings.HasSuffix(name, exeSuffix) {
		return name + exeSuffix
	}
	return name
}

// RenameWindows adds the executable suffix to every windows output in dir
// that lacks it and returns the new names.
func RenameWindows(dir, app string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	prefix := app + "_windows"
	var renamed []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) || strings.HasSuffix(name, exeSuffix) {
			continue
		}
		if err := os.Rename(filepath.Join(dir, name), filepath.Join(dir, name+exeSuffix)); err != nil {
			return renamed, fmt.Errorf("rename %s: %w", name, err)
		}
		renamed = append(renamed, name+exeSuffix)
	}
	return renamed, nil
}

// ParseArtifactName extracts the platform from <app>_<os>_<arch>[.exe].
func ParseArtifactName(name, app string) (Platform, bool) {
	rest, ok := strings.CutPrefix(name, app+"_")
	if !ok {
		return Platform{}, false
	}
	rest = strings.TrimSuffix(rest, exeSuffix)
	goos, arch, ok := strings.Cut(rest, "_")
	if !ok || goos == "" || arch == "" {
		return Platform{}, false
	}
	return Platform{OS: goos, Arch: arch}, true
}

// Skip is an output entry excluded from compression.
type Skip struct {
	Name   string
	Reason string
}

const (
	skipOtherPlatform = "other platform"
	skipNotRegular    = "not a regular file"
)

// SelectHost splits the entries of dir into those built for hostOS, which
// may be compressed, and everything else.
func SelectHost(dir, app, hostOS string) ([]string, []Skip, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	prefix := app + "_" + hostOS
	var selected []string
	var skipped []Skip
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			skipped = append(skipped, Skip{Name: name, Reason: skipOtherPlatform})
			continue
		}
		if !e.Type().IsRegular() {
			skipped = append(skipped, Skip{Name: name, Reason: skipNotRegular})
			continue
		}
		selected = append(selected, name)
	}
	sort.Strings(selected)
	return selected, skipped, nil
}

// collectArtifacts lists every recognised output in dir.
func collectArtifacts(dir, app string) (ArtifactSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	set := ArtifactSet{}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		p, ok := ParseArtifactName(e.Name(), app)
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		set.Add(&Artifact{
			Name:     e.Name(),
			Path:     filepath.Join(dir, e.Name()),
			Platform: p,
			Size:     info.Size(),
		})
	}
	return set, nil
}
