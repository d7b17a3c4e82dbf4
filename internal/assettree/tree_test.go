package assettree

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestParseTags(t *testing.T) {
	cases := []struct {
		name string
		base string
		tags []string
	}{
		{name: "sfx{audiosprite}", base: "sfx", tags: []string{"audiosprite"}},
		{name: "ui{audiosprite, nocache}", base: "ui", tags: []string{"audiosprite", "nocache"}},
		{name: "click{tag}.wav", base: "click.wav", tags: []string{"tag"}},
		{name: "plain", base: "plain"},
		{name: "broken{tag", base: "broken{tag"},
	}
	for _, tc := range cases {
		base, tags := ParseTags(tc.name)
		if base != tc.base {
			t.Fatalf("ParseTags(%q) base = %q, want %q", tc.name, base, tc.base)
		}
		if len(tags) != len(tc.tags) {
			t.Fatalf("ParseTags(%q) tags = %v, want %v", tc.name, tags, tc.tags)
		}
		for i := range tags {
			if tags[i] != tc.tags[i] {
				t.Fatalf("ParseTags(%q) tags = %v, want %v", tc.name, tags, tc.tags)
			}
		}
	}
}

func TestScanBuildsSortedTree(t *testing.T) {
	root := t.TempDir()
	sfx := filepath.Join(root, "sfx{audiosprite}")
	if err := os.MkdirAll(filepath.Join(sfx, "hits"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"b.wav", "a.wav"} {
		if err := os.WriteFile(filepath.Join(sfx, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	tree, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected one child, got %d", len(tree.Children))
	}
	folder := tree.Children[0]
	if !folder.IsDir || !folder.HasTag("audiosprite") || folder.Parent != tree {
		t.Fatalf("unexpected folder node: %+v", folder)
	}
	var names []string
	for _, child := range folder.Children {
		names = append(names, child.Name)
	}
	if len(names) != 3 || names[0] != "a.wav" || names[1] != "b.wav" || names[2] != "hits" {
		t.Fatalf("unexpected child order: %v", names)
	}
}

func TestWalkSkipChildren(t *testing.T) {
	root := NewNode("/src", true)
	child := NewNode("/src/sfx{audiosprite}", true)
	grandchild := NewNode("/src/sfx{audiosprite}/inner{audiosprite}", true)
	child.Children = []*Node{grandchild}
	root.Children = []*Node{child}

	var visited []string
	err := root.Walk(func(n *Node) error {
		visited = append(visited, n.Name)
		if n.HasTag("audiosprite") {
			return SkipChildren
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}
	if len(visited) != 2 {
		t.Fatalf("expected nested tagged folder to be skipped, visited %v", visited)
	}
}

func TestAddOutputConcurrentAndDeduplicated(t *testing.T) {
	node := NewNode("/src/sfx", true)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			node.AddOutput("audiosprite", "/out/sfx/sfx.json")
			node.AddOutput("audiosprite", "/out/sfx/sfx.ogg")
		}()
	}
	wg.Wait()

	outputs := node.Outputs()
	if len(outputs) != 2 {
		t.Fatalf("expected two unique outputs, got %v", outputs)
	}
	snap := node.Snapshot()
	if len(snap.Outputs) != 2 || snap.Path != "/src/sfx" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
