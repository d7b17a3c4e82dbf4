// Package assettree models the source asset hierarchy a build walks, the
// tags encoded in folder names, and the outputs transforms register against
// each node.
package assettree

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// SkipChildren can be returned from a Walk callback to skip a node's descendants.
var SkipChildren = errors.New("skip children")

// Output is a file a transform produced for a node.
type Output struct {
	Transform string `json:"transform"`
	Path      string `json:"path"`
}

// Node is one file or directory of the scanned tree. The structural fields are
// fixed after Scan; outputs may be added concurrently.
type Node struct {
	Path     string
	Name     string
	IsDir    bool
	Tags     []string
	Parent   *Node
	Children []*Node

	mu      sync.Mutex
	outputs []Output
}

// Snapshot is a serializable copy of a node and its descendants.
type Snapshot struct {
	Path     string     `json:"path"`
	Name     string     `json:"name"`
	IsDir    bool       `json:"isDir"`
	Tags     []string   `json:"tags,omitempty"`
	Outputs  []Output   `json:"outputs,omitempty"`
	Children []Snapshot `json:"children,omitempty"`
}

// NewNode builds a detached node for path.
func NewNode(path string, isDir bool) *Node {
	name := filepath.Base(path)
	_, tags := ParseTags(name)
	return &Node{Path: path, Name: name, IsDir: isDir, Tags: tags}
}

// Scan reads root recursively. Children are sorted by name.
func Scan(root string) (*Node, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	node := NewNode(abs, info.IsDir())
	if node.IsDir {
		if err := scanChildren(node); err != nil {
			return nil, err
		}
	}
	return node, nil
}

func scanChildren(parent *Node) error {
	entries, err := os.ReadDir(parent.Path)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", parent.Path, err)
	}
	for _, entry := range entries {
		if entry.Type()&fs.ModeSymlink != 0 {
			continue
		}
		child := NewNode(filepath.Join(parent.Path, entry.Name()), entry.IsDir())
		child.Parent = parent
		if child.IsDir {
			if err := scanChildren(child); err != nil {
				return err
			}
		}
		parent.Children = append(parent.Children, child)
	}
	sort.Slice(parent.Children, func(i, j int) bool {
		return parent.Children[i].Name < parent.Children[j].Name
	})
	return nil
}

// ParseTags splits a name of the form "base{tag1,tag2}[.ext]" into the name
// without the tag block and its tags. Names without a tag block are returned
// unchanged.
func ParseTags(name string) (string, []string) {
	open := strings.LastIndex(name, "{")
	if open < 0 {
		return name, nil
	}
	closing := strings.Index(name[open:], "}")
	if closing < 0 {
		return name, nil
	}
	closing += open

	var tags []string
	for _, tag := range strings.Split(name[open+1:closing], ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return name[:open] + name[closing+1:], tags
}

// StripTags removes the tag block from name.
func StripTags(name string) string {
	base, _ := ParseTags(name)
	return base
}

// HasTag reports whether the node's name carries tag.
func (n *Node) HasTag(tag string) bool {
	for _, candidate := range n.Tags {
		if candidate == tag {
			return true
		}
	}
	return false
}

// AddOutput records a produced file. Re-adding the same output is a no-op.
func (n *Node) AddOutput(transform, path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, existing := range n.outputs {
		if existing.Transform == transform && existing.Path == path {
			return
		}
	}
	n.outputs = append(n.outputs, Output{Transform: transform, Path: path})
}

// Outputs returns the recorded outputs in registration order.
func (n *Node) Outputs() []Output {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Output(nil), n.outputs...)
}

// Walk visits n and its descendants depth first. Returning SkipChildren skips
// the current node's descendants; any other error stops the walk.
func (n *Node) Walk(fn func(*Node) error) error {
	if err := fn(n); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	for _, child := range n.Children {
		if err := child.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot copies the node, its outputs and its descendants.
func (n *Node) Snapshot() Snapshot {
	snap := Snapshot{
		Path:    n.Path,
		Name:    n.Name,
		IsDir:   n.IsDir,
		Tags:    append([]string(nil), n.Tags...),
		Outputs: n.Outputs(),
	}
	for _, child := range n.Children {
		snap.Children = append(snap.Children, child.Snapshot())
	}
	return snap
}
