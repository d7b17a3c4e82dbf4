package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"soundsprite/internal/assettree"
	"soundsprite/internal/buildcache"
	"soundsprite/internal/emit"
	"soundsprite/internal/encoder"
	"soundsprite/internal/fileutil"
	"soundsprite/internal/logging"
	"soundsprite/internal/options"
	"soundsprite/internal/transform"
)

// LockFileName is created in the output root while a build runs.
const LockFileName = ".soundsprite.lock"

// ErrLocked reports another build holding the output root.
var ErrLocked = errors.New("another build is running for this output directory")

// Status is the result of one folder in a run.
type Status string

const (
	StatusBuilt   Status = "built"
	StatusSkipped Status = "skipped"
	StatusEmpty   Status = "empty"
	StatusFailed  Status = "failed"
)

// Settings configures a Pipeline.
type Settings struct {
	SourceRoot  string
	OutputRoot  string
	Defaults    options.Options
	Options     options.Options
	Encoder     encoder.Encoder
	Cache       buildcache.Cache
	Concurrency int
	// Force rebuilds folders even when the cache says they are current.
	Force  bool
	Logger *slog.Logger
}

// FolderResult reports one tagged folder.
type FolderResult struct {
	Folder   string
	Status   Status
	Manifest string
	Files    int
	Duration time.Duration
	Err      error
}

// Report summarises a run.
type Report struct {
	RunID   string
	Folders []FolderResult
}

// Count returns how many folders ended with status.
func (r Report) Count(status Status) int {
	n := 0
	for _, folder := range r.Folders {
		if folder.Status == status {
			n++
		}
	}
	return n
}

// Pipeline runs sprite transforms across a source tree.
type Pipeline struct {
	sourceRoot  string
	outputRoot  string
	cache       buildcache.Cache
	concurrency int
	force       bool
	logger      *slog.Logger
	transformer *transform.Transformer
	tag         string
}

// New validates settings and wires the transformer against the pipeline host.
func New(settings Settings) (*Pipeline, error) {
	if settings.SourceRoot == "" || settings.OutputRoot == "" {
		return nil, errors.New("source and output roots are required")
	}
	if settings.Encoder == nil {
		return nil, errors.New("encoder is required")
	}
	sourceRoot, err := filepath.Abs(settings.SourceRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve source root: %w", err)
	}
	outputRoot, err := filepath.Abs(settings.OutputRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve output root: %w", err)
	}
	cache := settings.Cache
	if cache == nil {
		cache = buildcache.NewMemory()
	}
	concurrency := settings.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	logger := settings.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	p := &Pipeline{
		sourceRoot:  sourceRoot,
		outputRoot:  outputRoot,
		cache:       cache,
		concurrency: concurrency,
		force:       settings.Force,
		logger:      logging.NewComponentLogger(logger, "pipeline"),
		tag:         options.Resolve(settings.Defaults, settings.Options, outputRoot).Tag,
	}
	p.transformer = &transform.Transformer{
		Defaults: settings.Defaults,
		Options:  settings.Options,
		Encoder:  settings.Encoder,
		Emitter: &emit.Emitter{
			Output: p,
			Tree:   p,
			Cache:  cache,
			Logger: logging.NewComponentLogger(logger, "emit"),
		},
		Mapper: p,
		Logger: logging.NewComponentLogger(logger, "transform"),
	}
	return p, nil
}

// Run builds every tagged folder. Per-folder errors are collected into the
// report and joined into the returned error; other folders still run.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	logger := logging.WithRunID(p.logger, report.RunID)

	if err := os.MkdirAll(p.outputRoot, 0o755); err != nil {
		return report, fmt.Errorf("create output root: %w", err)
	}
	lock := flock.New(filepath.Join(p.outputRoot, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return report, fmt.Errorf("acquire build lock: %w", err)
	}
	if !locked {
		return report, ErrLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logging.WarnWithContext(logger, "failed to release build lock", "build_lock_release_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove "+lock.Path()+" if no build is running"),
			)
		}
	}()

	tree, err := assettree.Scan(p.sourceRoot)
	if err != nil {
		return report, fmt.Errorf("scan source tree: %w", err)
	}
	folders := p.taggedFolders(logger, tree)
	logger.Info("build started",
		logging.String("source", p.sourceRoot),
		logging.String("output", p.outputRoot),
		logging.String("tag", p.tag),
		logging.Int("folders", len(folders)),
		logging.Int("concurrency", p.concurrency),
	)
	if len(folders) == 0 {
		return report, nil
	}

	pool, err := ants.NewPool(p.concurrency)
	if err != nil {
		return report, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make([]FolderResult, 0, len(folders))
	)
	for _, folder := range folders {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			result := p.runFolder(ctx, logger, folder)
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			results = append(results, FolderResult{Folder: folder.Path, Status: StatusFailed, Err: fmt.Errorf("schedule folder: %w", submitErr)})
			mu.Unlock()
		}
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Folder < results[j].Folder })
	report.Folders = results

	var errs []error
	for _, result := range results {
		if result.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", result.Folder, result.Err))
		}
	}
	logger.Info("build finished",
		logging.Int("built", report.Count(StatusBuilt)),
		logging.Int("skipped", report.Count(StatusSkipped)),
		logging.Int("empty", report.Count(StatusEmpty)),
		logging.Int("failed", report.Count(StatusFailed)),
	)
	return report, errors.Join(errs...)
}

// taggedFolders returns directories carrying the tag. Tagged folders nested
// inside a tagged folder belong to the outer sprite. The source root maps onto
// the output root itself, so it is never built as a sprite even when tagged.
func (p *Pipeline) taggedFolders(logger *slog.Logger, tree *assettree.Node) []*assettree.Node {
	var folders []*assettree.Node
	_ = tree.Walk(func(node *assettree.Node) error {
		if !node.IsDir {
			return nil
		}
		if node == tree {
			if node.HasTag(p.tag) {
				logging.WarnWithContext(logger, "source root carries the sprite tag; ignoring it", "tagged_source_root",
					logging.String(logging.FieldFolder, node.Path),
					logging.String(logging.FieldErrorHint, "tag a subfolder of the source root instead"),
					logging.String(logging.FieldImpact, "only tagged subfolders are built"),
				)
			}
			return nil
		}
		if node.HasTag(p.tag) {
			folders = append(folders, node)
			return assettree.SkipChildren
		}
		return nil
	})
	return folders
}

func (p *Pipeline) runFolder(ctx context.Context, logger *slog.Logger, folder *assettree.Node) FolderResult {
	start := time.Now()
	result := FolderResult{Folder: folder.Path}
	logger = logger.With(logging.String(logging.FieldFolder, folder.Path))

	if err := ctx.Err(); err != nil {
		result.Status = StatusFailed
		result.Err = err
		return result
	}

	job, err := p.transformer.Prepare(folder)
	if err != nil {
		return p.failed(logger, result, start, err)
	}
	result.Files = len(job.Files)
	if job.Empty() {
		logger.Debug("tagged folder has no audio sources")
		result.Status = StatusEmpty
		result.Duration = time.Since(start)
		return result
	}

	signature, err := Signature(job.Config.Fingerprint(), folder.Path, job.Files)
	if err != nil {
		return p.failed(logger, result, start, err)
	}
	job.Signature = signature

	if !p.force {
		if manifestPath, ok := p.reuse(ctx, logger, folder, signature); ok {
			result.Status = StatusSkipped
			result.Manifest = manifestPath
			result.Duration = time.Since(start)
			return result
		}
	}

	outcome, err := job.Run(ctx)
	if err != nil {
		return p.failed(logger, result, start, err)
	}
	result.Status = StatusBuilt
	if outcome != nil {
		result.Manifest = outcome.Result.ManifestPath
	}
	result.Duration = time.Since(start)
	return result
}

// reuse re-registers a cached folder's outputs when its signature matches and
// every recorded output is still on disk.
func (p *Pipeline) reuse(ctx context.Context, logger *slog.Logger, folder *assettree.Node, signature string) (string, bool) {
	entry, err := p.cache.Get(ctx, folder.Path)
	if err != nil {
		if !errors.Is(err, buildcache.ErrNotFound) {
			logging.WarnWithContext(logger, "build cache lookup failed", "build_cache_lookup_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run soundsprite cache clear if the cache is corrupt"),
				logging.String(logging.FieldImpact, "folder will be rebuilt"),
			)
		}
		return "", false
	}
	if entry.Signature != signature || len(entry.Tree.Outputs) == 0 {
		return "", false
	}

	paths := make([]string, 0, len(entry.Tree.Outputs))
	for _, out := range entry.Tree.Outputs {
		paths = append(paths, out.Path)
	}
	if !fileutil.AllExist(paths...) {
		logger.Debug("cached outputs missing; rebuilding")
		return "", false
	}

	for _, out := range entry.Tree.Outputs {
		p.AddToTree(folder, out.Transform, out.Path)
	}
	logger.Info("folder unchanged; reusing cached sprite", logging.Int("outputs", len(paths)))
	return paths[0], true
}

func (p *Pipeline) failed(logger *slog.Logger, result FolderResult, start time.Time, err error) FolderResult {
	hint := "check the folder contents and encoder configuration"
	if errors.Is(err, encoder.ErrEncoder) {
		hint = "run soundsprite doctor to verify the encoder installation"
	}
	logging.ErrorWithContext(logger, "sprite build failed", "sprite_build_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hint),
		logging.String(logging.FieldImpact, "folder outputs were not updated"),
	)
	result.Status = StatusFailed
	result.Err = err
	result.Duration = time.Since(start)
	return result
}
