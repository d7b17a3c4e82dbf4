package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"soundsprite/internal/assettree"
	"soundsprite/internal/buildcache"
	"soundsprite/internal/collect"
	"soundsprite/internal/emit"
	"soundsprite/internal/encoder"
	"soundsprite/internal/logging"
	"soundsprite/internal/manifest"
	"soundsprite/internal/options"
)

// Mapper maps a source path to its output path.
type Mapper interface {
	OutputPath(inputPath string) string
}

// Transformer holds everything shared by folder transforms.
type Transformer struct {
	Defaults options.Options
	Options  options.Options
	Encoder  encoder.Encoder
	Emitter  *emit.Emitter
	Mapper   Mapper
	Logger   *slog.Logger
}

// Job is a prepared folder transform.
type Job struct {
	Folder       *assettree.Node
	OutputFolder string
	Config       options.Config
	Files        []string
	// Signature is stored with the cache entry when set.
	Signature string

	t      *Transformer
	logger *slog.Logger
}

// Outcome describes a completed transform.
type Outcome struct {
	Folder string
	Result manifest.Result
	Entry  buildcache.Entry
}

// Prepare resolves options for folder and collects its audio sources.
func (t *Transformer) Prepare(folder *assettree.Node) (*Job, error) {
	if folder == nil {
		return nil, errors.New("transform requires a folder")
	}
	if t.Mapper == nil {
		return nil, errors.New("transform requires an output mapper")
	}
	outputFolder := t.Mapper.OutputPath(folder.Path)
	cfg := options.Resolve(t.Defaults, t.Options, outputFolder)

	files, err := collect.Collect(folder.Path, cfg.Imports)
	if err != nil {
		return nil, fmt.Errorf("collect sources: %w", err)
	}

	logger := t.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Job{
		Folder:       folder,
		OutputFolder: outputFolder,
		Config:       cfg,
		Files:        files,
		t:            t,
		logger:       logger.With(logging.String(logging.FieldFolder, folder.Path)),
	}, nil
}

// Empty reports whether the folder has no audio sources.
func (j *Job) Empty() bool {
	return len(j.Files) == 0
}

// Run encodes, reconciles and emits the sprite. Empty jobs do nothing and
// return a nil outcome.
func (j *Job) Run(ctx context.Context) (*Outcome, error) {
	if j.Empty() {
		j.logger.Debug("no audio sources; skipping folder")
		return nil, nil
	}
	if j.t.Encoder == nil || j.t.Emitter == nil {
		return nil, errors.New("transform requires an encoder and an emitter")
	}
	opts := j.Config.Encoder

	rawManifest := manifest.RawManifestPath(opts.Path, opts.Output)
	if err := os.MkdirAll(filepath.Dir(rawManifest), 0o755); err != nil {
		return nil, fmt.Errorf("create encoder output directory: %w", err)
	}

	j.logger.Info("encoding sprite",
		logging.Int("files", len(j.Files)),
		logging.String("output", opts.Output),
	)
	doc, err := j.t.Encoder.Encode(ctx, j.Files, opts)
	if err != nil {
		return nil, err
	}
	if err := encoder.RequireResources(doc); err != nil {
		return nil, err
	}

	res, err := manifest.Reconcile(manifest.Input{
		EncoderPath:   opts.Path,
		EncoderOutput: opts.Output,
		Manifest:      doc,
		Options:       j.Config.Manifest,
	})
	if err != nil {
		return nil, err
	}

	entry, err := j.t.Emitter.Emit(ctx, emit.Request{
		FolderPath: j.Folder.Path,
		Folder:     j.Folder,
		Result:     res,
		Signature:  j.Signature,
	})
	if err != nil {
		return nil, err
	}

	j.logger.Info("sprite written",
		logging.String("manifest", res.ManifestPath),
		logging.Int("artifacts", len(res.Artifacts)),
	)
	return &Outcome{Folder: j.Folder.Path, Result: res, Entry: entry}, nil
}

// Run prepares and runs the transform for folder.
func (t *Transformer) Run(ctx context.Context, folder *assettree.Node) (*Outcome, error) {
	job, err := t.Prepare(folder)
	if err != nil {
		return nil, err
	}
	return job.Run(ctx)
}
