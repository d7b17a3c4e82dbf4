package testsupport

import (
	"testing"

	"soundsprite/internal/buildcache"
	"soundsprite/internal/config"
)

// MustOpenCache opens the build cache configured in cfg and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *buildcache.Store {
	t.Helper()

	store, err := buildcache.Open(cfg.Paths.CachePath)
	if err != nil {
		t.Fatalf("open build cache: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
