package pipeline

import (
	"path/filepath"
	"strings"

	"soundsprite/internal/assettree"
	"soundsprite/internal/fileutil"
)

// OutputPath maps a path under the source root to the output root, removing
// tag blocks from every path segment.
func (p *Pipeline) OutputPath(inputPath string) string {
	rel, err := filepath.Rel(p.sourceRoot, inputPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Join(p.outputRoot, assettree.StripTags(filepath.Base(inputPath)))
	}
	if rel == "." {
		return p.outputRoot
	}
	segments := strings.Split(rel, string(filepath.Separator))
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, p.outputRoot)
	for _, segment := range segments {
		parts = append(parts, assettree.StripTags(segment))
	}
	return filepath.Join(parts...)
}

// TrimOutputPath returns path relative to the output root with forward slashes.
func (p *Pipeline) TrimOutputPath(path string) string {
	rel, err := filepath.Rel(p.outputRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// SaveToOutput writes data to path atomically.
func (p *Pipeline) SaveToOutput(path string, data []byte) error {
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// RemoveOutput deletes path; a missing file is tolerated.
func (p *Pipeline) RemoveOutput(path string) error {
	return fileutil.RemoveIfExists(path)
}

// AddToTree records path as an output of transform under parent.
func (p *Pipeline) AddToTree(parent *assettree.Node, transform, path string) {
	if parent == nil {
		return
	}
	parent.AddOutput(transform, path)
}
