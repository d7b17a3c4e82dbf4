package emit_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"soundsprite/internal/assettree"
	"soundsprite/internal/buildcache"
	"soundsprite/internal/emit"
	"soundsprite/internal/manifest"
)

type call struct {
	op   string
	path string
}

type recorder struct {
	root    string
	calls   []call
	saved   map[string][]byte
	saveErr error
}

func (r *recorder) SaveToOutput(path string, data []byte) error {
	r.calls = append(r.calls, call{"save", path})
	if r.saveErr != nil {
		return r.saveErr
	}
	if r.saved == nil {
		r.saved = map[string][]byte{}
	}
	r.saved[path] = data
	return nil
}

func (r *recorder) RemoveOutput(path string) error {
	r.calls = append(r.calls, call{"remove", path})
	return nil
}

func (r *recorder) TrimOutputPath(path string) string {
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func (r *recorder) AddToTree(parent *assettree.Node, transform, path string) {
	r.calls = append(r.calls, call{"tree", path})
	parent.AddOutput(transform, path)
}

func reconciled(t *testing.T, opts manifest.Options) manifest.Result {
	t.Helper()
	doc, err := manifest.Parse([]byte(`{"resources":["/out/sfx/sfx.ogg","/out/sfx/sfx.mp3"],"spritemap":{}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res, err := manifest.Reconcile(manifest.Input{
		EncoderOutput: filepath.FromSlash("/out/sfx/sfx"),
		Manifest:      doc,
		Options:       opts,
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	return res
}

func TestEmitWritesRegistersAndCaches(t *testing.T) {
	out := &recorder{root: filepath.FromSlash("/out")}
	cache := buildcache.NewMemory()
	folder := assettree.NewNode(filepath.FromSlash("/src/sfx{audiosprite}"), true)
	emitter := &emit.Emitter{Output: out, Tree: out, Cache: cache}

	res := reconciled(t, manifest.Options{Extension: ".json"})
	entry, err := emitter.Emit(context.Background(), emit.Request{
		FolderPath: folder.Path,
		Folder:     folder,
		Result:     res,
		Signature:  "sig",
	})
	if err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}

	want := []call{
		{"save", filepath.FromSlash("/out/sfx/sfx.json")},
		{"tree", filepath.FromSlash("/out/sfx/sfx.json")},
		{"tree", filepath.FromSlash("/out/sfx/sfx.ogg")},
		{"tree", filepath.FromSlash("/out/sfx/sfx.mp3")},
	}
	if len(out.calls) != len(want) {
		t.Fatalf("unexpected calls: %v", out.calls)
	}
	for i := range want {
		if out.calls[i] != want[i] {
			t.Fatalf("call %d = %v, want %v", i, out.calls[i], want[i])
		}
	}
	if !strings.Contains(string(out.saved[res.ManifestPath]), `"sfx.ogg"`) {
		t.Fatalf("expected bare resources in written manifest: %s", out.saved[res.ManifestPath])
	}

	stored, err := cache.Get(context.Background(), folder.Path)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if stored.Signature != "sig" || stored.TransformData.Type != "audiosprite" {
		t.Fatalf("unexpected stored entry: %+v", stored)
	}
	files := stored.TransformData.Files
	if len(files) != 1 || files[0].Name != "sfx/sfx.json" {
		t.Fatalf("unexpected transform files: %+v", files)
	}
	if strings.Join(files[0].Paths, ",") != "sfx/sfx.json,sfx/sfx.ogg,sfx/sfx.mp3" {
		t.Fatalf("unexpected trimmed paths: %v", files[0].Paths)
	}
	if len(entry.Tree.Outputs) != 3 {
		t.Fatalf("expected snapshot to include registered outputs, got %+v", entry.Tree.Outputs)
	}
}

func TestEmitRemovesRawManifestWhenRenamed(t *testing.T) {
	out := &recorder{root: filepath.FromSlash("/out")}
	folder := assettree.NewNode(filepath.FromSlash("/src/sfx"), true)
	emitter := &emit.Emitter{Output: out, Tree: out, Cache: buildcache.NewMemory()}

	res := reconciled(t, manifest.Options{Extension: ".audiosprite.json"})
	if _, err := emitter.Emit(context.Background(), emit.Request{FolderPath: folder.Path, Folder: folder, Result: res}); err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}
	if out.calls[0] != (call{"save", filepath.FromSlash("/out/sfx/sfx.audiosprite.json")}) {
		t.Fatalf("expected renamed manifest write first, got %v", out.calls[0])
	}
	if out.calls[1] != (call{"remove", filepath.FromSlash("/out/sfx/sfx.json")}) {
		t.Fatalf("expected raw manifest removal second, got %v", out.calls[1])
	}
}

func TestEmitStopsOnWriteFailure(t *testing.T) {
	boom := errors.New("disk full")
	out := &recorder{root: filepath.FromSlash("/out"), saveErr: boom}
	cache := buildcache.NewMemory()
	folder := assettree.NewNode(filepath.FromSlash("/src/sfx"), true)
	emitter := &emit.Emitter{Output: out, Tree: out, Cache: cache}

	_, err := emitter.Emit(context.Background(), emit.Request{FolderPath: folder.Path, Folder: folder, Result: reconciled(t, manifest.Options{})})
	if !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}
	if len(folder.Outputs()) != 0 {
		t.Fatalf("expected no registrations after failed write, got %v", folder.Outputs())
	}
	if _, err := cache.Get(context.Background(), folder.Path); !errors.Is(err, buildcache.ErrNotFound) {
		t.Fatalf("expected no cache entry, got %v", err)
	}
}
