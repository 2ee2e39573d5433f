// Package scaffold writes the starter files for a new mail-merge directory.
package scaffold

import (
	"embed"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

//go:embed files
var files embed.FS

// starter maps embedded names to the names written on disk
var starter = []struct {
	src, dst string
}{
	{"files/template.txt", "template.txt"},
	{"files/contacts.csv", "contacts.csv"},
	{"files/links.json", "links.json"},
	{"files/env.example", ".env.example"},
}

// FileResult reports what Init did with one starter file
type FileResult struct {
	Path    string
	Created bool
}

// Init writes the starter files into dir, creating it if needed.
// Existing files are never overwritten.
func Init(dir string) ([]FileResult, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve %s", dir)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", abs)
	}

	results := make([]FileResult, 0, len(starter))
	for _, f := range starter {
		dst := filepath.Join(abs, f.dst)
		if _, err := os.Stat(dst); err == nil {
			results = append(results, FileResult{Path: dst})
			continue
		}
		data, err := files.ReadFile(f.src)
		if err != nil {
			return results, errors.Wrapf(err, "missing embedded %s", f.src)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return results, errors.Wrapf(err, "failed to write %s", dst)
		}
		results = append(results, FileResult{Path: dst, Created: true})
	}
	return results, nil
}
