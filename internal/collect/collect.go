// Package collect finds the audio sources inside a sprite folder.
package collect

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/cases"
)

const allFiles = "**/*"

// Collect returns every file under folderPath, at any depth, whose extension
// (case-insensitive, without the dot) is in imports. Paths are absolute and
// sorted. An empty result is not an error.
func Collect(folderPath string, imports map[string]struct{}) ([]string, error) {
	root, err := filepath.Abs(folderPath)
	if err != nil {
		return nil, fmt.Errorf("resolve folder %q: %w", folderPath, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("collect %q: not a directory", root)
	}

	matches, err := doublestar.Glob(os.DirFS(root), allFiles, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", root, err)
	}

	folder := cases.Fold()
	files := make([]string, 0, len(matches))
	for _, match := range matches {
		ext := strings.TrimPrefix(filepath.Ext(match), ".")
		if ext == "" {
			continue
		}
		if _, ok := imports[folder.String(ext)]; !ok {
			continue
		}
		files = append(files, filepath.Join(root, filepath.FromSlash(match)))
	}
	sort.Strings(files)
	return files, nil
}
