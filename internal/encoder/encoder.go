package encoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"soundsprite/internal/logging"
	"soundsprite/internal/manifest"
	"soundsprite/internal/options"
)

var commandContext = exec.CommandContext

var (
	// ErrEncoder marks a failure of the encoder itself: it could not start,
	// exited non-zero, or left no readable manifest.
	ErrEncoder = errors.New("encoder failed")
	// ErrMalformedManifest marks a manifest without a resources list.
	ErrMalformedManifest = manifest.ErrMalformedManifest
)

// DefaultBinary is the encoder executable looked up on PATH.
const DefaultBinary = "audiosprite"

// Encoder turns a set of audio files into a sprite and its manifest.
type Encoder interface {
	Encode(ctx context.Context, files []string, opts options.EncoderOptions) (*manifest.Document, error)
}

// Func adapts a function to the Encoder interface.
type Func func(ctx context.Context, files []string, opts options.EncoderOptions) (*manifest.Document, error)

// Encode calls f.
func (f Func) Encode(ctx context.Context, files []string, opts options.EncoderOptions) (*manifest.Document, error) {
	return f(ctx, files, opts)
}

// Option configures the CLI encoder.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary = strings.TrimSpace(binary); binary != "" {
			c.binary = binary
		}
	}
}

// WithLogger attaches a logger for command diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *CLI) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// CLI wraps the audiosprite command-line encoder.
type CLI struct {
	binary string
	logger *slog.Logger
}

// NewCLI constructs a CLI encoder using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: DefaultBinary, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Binary reports the executable the CLI runs.
func (c *CLI) Binary() string {
	return c.binary
}

// Encode runs the encoder over files and decodes <path>/<output>.json.
func (c *CLI) Encode(ctx context.Context, files []string, opts options.EncoderOptions) (*manifest.Document, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no input files", ErrEncoder)
	}
	if strings.TrimSpace(opts.Output) == "" {
		return nil, fmt.Errorf("%w: output required", ErrEncoder)
	}

	args := append(Args(opts), files...)
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	if opts.Path != "" {
		if err := os.MkdirAll(opts.Path, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create encoder path: %w", ErrEncoder, err)
		}
		cmd.Dir = opts.Path
	}
	c.logger.Debug("running encoder",
		logging.String("binary", c.binary),
		logging.Int("files", len(files)),
		logging.String("output", opts.Output),
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncoder, ctxErr)
		}
		return nil, fmt.Errorf("%w: %s: %w%s", ErrEncoder, c.binary, err, detail(output))
	}

	manifestPath := manifest.RawManifestPath(opts.Path, opts.Output)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest: %w", ErrEncoder, err)
	}
	doc, err := manifest.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode manifest %s: %w", ErrEncoder, manifestPath, err)
	}
	return doc, nil
}

// Args builds the encoder flags for opts. Input files are not included.
func Args(opts options.EncoderOptions) []string {
	args := []string{"--output", opts.Output}
	if opts.Path != "" {
		args = append(args, "--path", opts.Path)
	}
	args = append(args, "--export", opts.Export, "--format", opts.Format)
	if opts.Autoplay != "" {
		args = append(args, "--autoplay", opts.Autoplay)
	}
	for _, name := range opts.Loop {
		args = append(args, "--loop", name)
	}
	args = append(args,
		"--silence", formatFloat(opts.Silence),
		"--gap", formatFloat(opts.Gap),
		"--minlength", formatFloat(opts.MinLength),
		"--bitrate", strconv.Itoa(opts.Bitrate),
		"--vbr", strconv.Itoa(opts.VBR),
		"--vbr:vorbis", strconv.Itoa(opts.VBRVorbis),
		"--samplerate", strconv.Itoa(opts.SampleRate),
		"--channels", strconv.Itoa(opts.Channels),
	)
	if opts.RawParts != "" {
		args = append(args, "--rawparts", opts.RawParts)
	}
	args = append(args, "--ignorerounding", strconv.Itoa(opts.IgnoreRounding))

	keys := make([]string, 0, len(opts.Extra))
	for key := range opts.Extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		args = append(args, "--"+strings.TrimLeft(key, "-"), opts.Extra[key])
	}
	return args
}

// RequireResources rejects a manifest that has no usable resources list.
func RequireResources(doc *manifest.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: no manifest", ErrMalformedManifest)
	}
	_, ok, err := doc.Resources()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedManifest, err)
	}
	if !ok {
		return fmt.Errorf("%w: missing %q", ErrMalformedManifest, manifest.ResourcesKey)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func detail(output []byte) string {
	text := strings.TrimSpace(string(output))
	if text == "" {
		return ""
	}
	const limit = 512
	if len(text) > limit {
		text = "..." + text[len(text)-limit:]
	}
	return ": " + text
}

var _ Encoder = (*CLI)(nil)
