package buildcache

import (
	"context"
	"errors"
	"time"

	"soundsprite/internal/assettree"
)

// ErrNotFound reports a key with no cache entry.
var ErrNotFound = errors.New("cache entry not found")

// File groups the outputs a transform produced under one logical name.
type File struct {
	Name  string   `json:"name"`
	Paths []string `json:"paths"`
}

// TransformData describes a transform's outputs in output-root-relative form.
type TransformData struct {
	Type  string `json:"type"`
	Files []File `json:"files"`
}

// Entry is the cache record for one folder.
type Entry struct {
	Key           string             `json:"key"`
	Tree          assettree.Snapshot `json:"tree"`
	TransformData TransformData      `json:"transformData"`
	Signature     string             `json:"signature,omitempty"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// Paths returns every output path recorded in the transform data.
func (e Entry) Paths() []string {
	var paths []string
	for _, file := range e.TransformData.Files {
		paths = append(paths, file.Paths...)
	}
	return paths
}

// Cache is the behaviour shared by the persistent and in-memory stores.
type Cache interface {
	Set(ctx context.Context, key string, entry Entry) error
	Get(ctx context.Context, key string) (Entry, error)
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}
