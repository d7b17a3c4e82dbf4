package buildcache_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"soundsprite/internal/assettree"
	"soundsprite/internal/buildcache"
)

func sampleEntry(signature string) buildcache.Entry {
	return buildcache.Entry{
		Tree: assettree.Snapshot{
			Path:    "/src/sfx{audiosprite}",
			Name:    "sfx{audiosprite}",
			IsDir:   true,
			Tags:    []string{"audiosprite"},
			Outputs: []assettree.Output{{Transform: "audiosprite", Path: "/out/sfx/sfx.json"}},
		},
		TransformData: buildcache.TransformData{
			Type: "audiosprite",
			Files: []buildcache.File{{
				Name:  "sfx/sfx.json",
				Paths: []string{"sfx/sfx.json", "sfx/sfx.ogg"},
			}},
		},
		Signature: signature,
	}
}

func openStores(t *testing.T) map[string]buildcache.Cache {
	t.Helper()
	store, err := buildcache.Open(filepath.Join(t.TempDir(), "nested", "cache.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return map[string]buildcache.Cache{
		"sqlite": store,
		"memory": buildcache.NewMemory(),
	}
}

func TestCacheSetGetOverwrite(t *testing.T) {
	ctx := context.Background()
	for name, cache := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := cache.Set(ctx, "/src/sfx", sampleEntry("one")); err != nil {
				t.Fatalf("Set returned error: %v", err)
			}
			if err := cache.Set(ctx, "/src/sfx", sampleEntry("two")); err != nil {
				t.Fatalf("second Set returned error: %v", err)
			}

			entry, err := cache.Get(ctx, "/src/sfx")
			if err != nil {
				t.Fatalf("Get returned error: %v", err)
			}
			if entry.Key != "/src/sfx" || entry.Signature != "two" {
				t.Fatalf("expected overwritten entry, got %+v", entry)
			}
			if entry.UpdatedAt.IsZero() {
				t.Fatal("expected UpdatedAt to be set")
			}
			if got := entry.Paths(); len(got) != 2 || got[1] != "sfx/sfx.ogg" {
				t.Fatalf("unexpected paths: %v", got)
			}
			if len(entry.Tree.Outputs) != 1 || !entry.Tree.IsDir || entry.Tree.Tags[0] != "audiosprite" {
				t.Fatalf("tree did not round trip: %+v", entry.Tree)
			}

			entries, err := cache.List(ctx)
			if err != nil {
				t.Fatalf("List returned error: %v", err)
			}
			if len(entries) != 1 {
				t.Fatalf("expected one entry after overwrite, got %d", len(entries))
			}
		})
	}
}

func TestCacheMissingKey(t *testing.T) {
	ctx := context.Background()
	for name, cache := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := cache.Get(ctx, "/missing"); !errors.Is(err, buildcache.ErrNotFound) {
				t.Fatalf("expected ErrNotFound from Get, got %v", err)
			}
			if err := cache.Delete(ctx, "/missing"); !errors.Is(err, buildcache.ErrNotFound) {
				t.Fatalf("expected ErrNotFound from Delete, got %v", err)
			}
			if err := cache.Set(ctx, "  ", sampleEntry("x")); err == nil {
				t.Fatal("expected error for empty key")
			}
		})
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	for name, cache := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"/src/b", "/src/a", "/src/c"} {
				if err := cache.Set(ctx, key, sampleEntry(key)); err != nil {
					t.Fatalf("Set %s: %v", key, err)
				}
			}
			if err := cache.Delete(ctx, "/src/b"); err != nil {
				t.Fatalf("Delete returned error: %v", err)
			}
			entries, err := cache.List(ctx)
			if err != nil {
				t.Fatalf("List returned error: %v", err)
			}
			if len(entries) != 2 || entries[0].Key != "/src/a" || entries[1].Key != "/src/c" {
				t.Fatalf("unexpected entries: %+v", entries)
			}
			if err := cache.Clear(ctx); err != nil {
				t.Fatalf("Clear returned error: %v", err)
			}
			entries, err = cache.List(ctx)
			if err != nil {
				t.Fatalf("List returned error: %v", err)
			}
			if len(entries) != 0 {
				t.Fatalf("expected empty cache, got %d entries", len(entries))
			}
		})
	}
}

func TestStoreReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	store, err := buildcache.Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := store.Set(ctx, "/src/sfx", sampleEntry("sig")); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := buildcache.Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer reopened.Close()
	entry, err := reopened.Get(ctx, "/src/sfx")
	if err != nil {
		t.Fatalf("Get after reopen returned error: %v", err)
	}
	if entry.Signature != "sig" || entry.TransformData.Type != "audiosprite" {
		t.Fatalf("unexpected entry after reopen: %+v", entry)
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	cache := buildcache.NewMemory()
	if err := cache.Set(ctx, "/src/sfx", sampleEntry("sig")); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	entry, err := cache.Get(ctx, "/src/sfx")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	entry.TransformData.Files[0].Paths[0] = "mutated"

	again, err := cache.Get(ctx, "/src/sfx")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if again.TransformData.Files[0].Paths[0] != "sfx/sfx.json" {
		t.Fatalf("expected stored entry to be isolated, got %v", again.TransformData.Files[0].Paths)
	}
}
