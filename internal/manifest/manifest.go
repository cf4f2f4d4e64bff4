// Package manifest writes build-info.yaml, the record of one release build.
package manifest

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// FileName is written inside the build output directory.
const FileName = "build-info.yaml"

// Artifact describes one binary in the manifest.
type Artifact struct {
	Name     string
	Platform string
	Size     int64
	// Compressed is the size after compression; zero when not compressed.
	Compressed int64
	Ratio      float64
	Status     string
}

// Manifest is everything recorded about a run.
type Manifest struct {
	RunID     string
	Version   string
	Commit    string
	Branch    string
	BuildTime string
	Host      string
	Mode      string
	Artifacts []Artifact
}

// Marshal returns canonical YAML bytes: top-level keys in a fixed order,
// artifacts sorted by platform then name, artifact keys sorted.
func Marshal(m Manifest) ([]byte, error) {
	top := &yaml.Node{Kind: yaml.MappingNode}
	for _, kv := range [][2]string{
		{"runId", m.RunID},
		{"version", m.Version},
		{"commit", m.Commit},
		{"branch", m.Branch},
		{"buildTime", m.BuildTime},
		{"host", m.Host},
		{"mode", m.Mode},
	} {
		top.Content = append(top.Content, scalarNode(kv[0]), scalarNode(kv[1]))
	}
	arts := append([]Artifact(nil), m.Artifacts...)
	sort.Slice(arts, func(i, j int) bool {
		if arts[i].Platform != arts[j].Platform {
			return arts[i].Platform < arts[j].Platform
		}
		return arts[i].Name < arts[j].Name
	})
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, a := range arts {
		seq.Content = append(seq.Content, canonicalNode(artifactMap(a)))
	}
	top.Content = append(top.Content, scalarNode("artifacts"), seq)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(top); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")
	out = append(out, '\n')
	return out, nil
}

// Write writes the manifest to dir/FileName, creating dir, and returns the path.
func Write(dir string, m Manifest) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	b, err := Marshal(m)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	return path, os.WriteFile(path, b, 0o644)
}

func artifactMap(a Artifact) map[string]any {
	m := map[string]any{
		"name":     a.Name,
		"platform": a.Platform,
		"size":     a.Size,
	}
	if a.Status != "" {
		m["compression"] = map[string]any{
			"status": a.Status,
			"size":   a.Compressed,
			"ratio":  a.Ratio,
		}
	}
	return m
}

func scalarNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func scalarFrom(v any) *yaml.Node {
	n := &yaml.Node{}
	_ = n.Encode(v)
	return n
}

func canonicalNode(v any) *yaml.Node {
	switch x := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.MappingNode}
	case map[string]any:
		return canonicalMapNode(x)
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, it := range x {
			n.Content = append(n.Content, canonicalNode(it))
		}
		return n
	default:
		return scalarFrom(x)
	}
}

func canonicalMapNode(m map[string]any) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.Content = append(n.Content, scalarNode(k), canonicalNode(m[k]))
	}
	return n
}
