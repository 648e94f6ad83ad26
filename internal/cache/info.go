package cache

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Info writes a human-readable listing of the cache contents to w.
func Info(w io.Writer) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "cache directory: %s\n", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "cache is empty")
		return nil
	}
	fmt.Fprintln(w, "\ncache contents:")
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			fmt.Fprintf(w, "  %s/  (%.1f MB)\n", entry.Name(), float64(dirSize(path))/(1024*1024))
		} else {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "  %s  (%.1f MB)\n", entry.Name(), float64(info.Size())/(1024*1024))
		}
	}
	return nil
}

// Clean removes cached entries. With prefix empty the whole cache root is
// deleted; otherwise only entries whose name starts with prefix.
func Clean(prefix string) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if prefix == "" {
		return removeAll(dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), prefix) {
			if err := removeAll(filepath.Join(dir, entry.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

// removeAll deletes a tree, clearing read-only bits first. Git object files
// are read-only on some platforms and plain RemoveAll fails on them.
func removeAll(dir string) error {
	if err := os.RemoveAll(dir); err == nil || os.IsNotExist(err) {
		return nil
	}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		_ = os.Chmod(path, 0o700)
		return nil
	})
	return os.RemoveAll(dir)
}

func dirSize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
