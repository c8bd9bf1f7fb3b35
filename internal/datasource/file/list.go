package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ListDir returns the names of the regular files in dir, in directory listing
// order (lexicographic by name). Subdirectories and dot-files are skipped.
//
// When pattern is non-empty only names matching it (filepath.Match syntax,
// e.g. "*.csv") are returned. A malformed pattern is an error.
func ListDir(dir, pattern string) ([]string, error) {
	if pattern != "" {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !e.Type().IsRegular() {
			// Follow symlinks to regular files.
			if e.Type()&os.ModeSymlink == 0 {
				continue
			}
			fi, err := os.Stat(filepath.Join(dir, name))
			if err != nil || !fi.Mode().IsRegular() {
				continue
			}
		}
		if pattern != "" {
			if ok, _ := filepath.Match(pattern, name); !ok {
				continue
			}
		}
		out = append(out, name)
	}
	return out, nil
}
