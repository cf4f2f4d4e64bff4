package stage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/flarebyte/shipwright/internal/config"
)

// ClearDir ensures dir exists and removes every direct child. It stops at the
// first removal error.
func ClearDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if e.IsDir() {
			err = os.RemoveAll(p)
		} else {
			err = os.Remove(p)
		}
		if err != nil {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

// CopyTree copies the contents of src into dst, which may already exist.
// Symlinks are followed, including src itself, so dst only ever holds
// regular files and directories. Regular files keep their permission bits.
func CopyTree(src, dst string) error {
	return copyTree(src, dst, map[string]bool{})
}

// copyTree tracks the resolved directories on the current chain to stop at
// symlink cycles.
func copyTree(src, dst string, chain map[string]bool) error {
	root, err := filepath.EvalSymlinks(src)
	if err != nil {
		return err
	}
	if chain[root] {
		return fmt.Errorf("symlink cycle at %s", src)
	}
	chain[root] = true
	defer delete(chain, root)

	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		out := filepath.Join(dst, rel)
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		switch {
		case info.IsDir() && d.Type()&fs.ModeSymlink != 0:
			return copyTree(p, out, chain)
		case info.IsDir():
			return os.MkdirAll(out, info.Mode().Perm()|0o700)
		case info.Mode().IsRegular():
			return copyFile(p, out, info.Mode().Perm())
		default:
			return fmt.Errorf("unsupported file type: %s", p)
		}
	})
}

// checkRemovable refuses to delete target when it is a filesystem root or
// equals or contains one of keep.
func checkRemovable(target string, keep ...string) error {
	t := resolvePath(target)
	if filepath.Dir(t) == t {
		return fmt.Errorf("refusing to delete filesystem root %s", target)
	}
	for _, k := range keep {
		if k == "" {
			continue
		}
		if config.Within(t, resolvePath(k)) {
			return fmt.Errorf("refusing to delete %s: it contains %s", target, k)
		}
	}
	return nil
}

// resolvePath returns the absolute path with symlinks resolved when it exists.
func resolvePath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		return r
	}
	return filepath.Clean(abs)
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, perm)
}
