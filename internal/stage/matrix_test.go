package stage

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestRenameWindows(t *testing.T) {
	d := t.TempDir()
	for _, n := range []string{"app_windows_amd64", "app_windows_386.exe", "app_linux_amd64"} {
		writeFile(t, filepath.Join(d, n), "x")
	}
	renamed, err := RenameWindows(d, "app")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if !reflect.DeepEqual(renamed, []string{"app_windows_amd64.exe"}) {
		t.Fatalf("renamed: %v", renamed)
	}
	want := []string{"app_linux_amd64", "app_windows_386.exe", "app_windows_amd64.exe"}
	if got := listTree(t, d); !reflect.DeepEqual(got, want) {
		t.Fatalf("dir: %v", got)
	}
}

func TestSelectHost(t *testing.T) {
	d := t.TempDir()
	for _, n := range []string{"app_windows_amd64.exe", "app_linux_amd64", "app_darwin_amd64"} {
		writeFile(t, filepath.Join(d, n), "x")
	}
	if err := os.Mkdir(filepath.Join(d, "app_linux_debug"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	selected, skipped, err := SelectHost(d, "app", "linux")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !reflect.DeepEqual(selected, []string{"app_linux_amd64"}) {
		t.Fatalf("selected: %v", selected)
	}
	reasons := map[string]string{}
	for _, s := range skipped {
		reasons[s.Name] = s.Reason
	}
	want := map[string]string{
		"app_windows_amd64.exe": skipOtherPlatform,
		"app_darwin_amd64":      skipOtherPlatform,
		"app_linux_debug":       skipNotRegular,
	}
	if !reflect.DeepEqual(reasons, want) {
		t.Fatalf("skipped: %v", reasons)
	}
}

func TestParseArtifactName(t *testing.T) {
	cases := map[string]Platform{
		"app_windows_amd64.exe": {OS: "windows", Arch: "amd64"},
		"app_linux_arm64":       {OS: "linux", Arch: "arm64"},
	}
	for name, want := range cases {
		got, ok := ParseArtifactName(name, "app")
		if !ok || got != want {
			t.Fatalf("%s: got %v %v", name, got, ok)
		}
	}
	for _, name := range []string{"other_linux_amd64", "app_linux", "build-info.yaml"} {
		if _, ok := ParseArtifactName(name, "app"); ok {
			t.Fatalf("%s should not parse", name)
		}
	}
}
