// Package emit writes a reconciled sprite manifest, registers the sprite's
// artifacts with the asset tree and records the folder in the build cache.
package emit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"soundsprite/internal/assettree"
	"soundsprite/internal/buildcache"
	"soundsprite/internal/logging"
	"soundsprite/internal/manifest"
)

// TransformName identifies sprite outputs in the tree and the cache.
const TransformName = "audiosprite"

// Output is the host's file output surface.
type Output interface {
	SaveToOutput(path string, data []byte) error
	RemoveOutput(path string) error
	TrimOutputPath(path string) string
}

// Tree registers produced files against asset tree nodes.
type Tree interface {
	AddToTree(parent *assettree.Node, transform, path string)
}

// CacheStore records cache entries.
type CacheStore interface {
	Set(ctx context.Context, key string, entry buildcache.Entry) error
}

// Request is one reconciled folder ready to be emitted.
type Request struct {
	// FolderPath is the source folder path and the cache key.
	FolderPath string
	Folder     *assettree.Node
	Result     manifest.Result
	Signature  string
}

// Emitter performs the emit steps against its collaborators.
type Emitter struct {
	Output Output
	Tree   Tree
	Cache  CacheStore
	Logger *slog.Logger
}

// Emit writes the manifest, removes a stale raw manifest, registers every
// artifact and stores the cache entry. It returns the stored entry.
func (e *Emitter) Emit(ctx context.Context, req Request) (buildcache.Entry, error) {
	if e.Output == nil || e.Tree == nil || e.Cache == nil {
		return buildcache.Entry{}, errors.New("emitter requires output, tree and cache")
	}
	if req.Folder == nil {
		return buildcache.Entry{}, errors.New("emit requires a folder node")
	}
	logger := e.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	res := req.Result

	if err := e.Output.SaveToOutput(res.ManifestPath, res.Manifest); err != nil {
		return buildcache.Entry{}, fmt.Errorf("write manifest %s: %w", res.ManifestPath, err)
	}
	if res.Renamed {
		if err := e.Output.RemoveOutput(res.RawManifestPath); err != nil {
			return buildcache.Entry{}, fmt.Errorf("remove raw manifest %s: %w", res.RawManifestPath, err)
		}
	}

	trimmed := make([]string, 0, len(res.Artifacts))
	for _, artifact := range res.Artifacts {
		e.Tree.AddToTree(req.Folder, TransformName, artifact.Path)
		trimmed = append(trimmed, e.Output.TrimOutputPath(artifact.Path))
	}

	entry := buildcache.Entry{
		Key:  req.FolderPath,
		Tree: req.Folder.Snapshot(),
		TransformData: buildcache.TransformData{
			Type: TransformName,
			Files: []buildcache.File{{
				Name:  e.Output.TrimOutputPath(res.ManifestPath),
				Paths: trimmed,
			}},
		},
		Signature: req.Signature,
	}
	if err := e.Cache.Set(ctx, req.FolderPath, entry); err != nil {
		return buildcache.Entry{}, fmt.Errorf("record cache entry: %w", err)
	}

	logger.Debug("sprite emitted",
		logging.String(logging.FieldFolder, req.FolderPath),
		logging.String("manifest", res.ManifestPath),
		logging.Int("artifacts", len(res.Artifacts)),
	)
	return entry, nil
}
