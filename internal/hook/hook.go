// Package hook runs an external program as the manifest transform.
//
// The program receives a JSON request on stdin and must print the replacement
// manifest object on stdout:
//
//	{"manifest": {...}, "manifestPath": "/out/sfx/sfx.json", "originalResources": ["..."]}
package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"soundsprite/internal/logging"
	"soundsprite/internal/manifest"
)

var commandContext = exec.CommandContext

// DefaultTimeout bounds a single hook invocation.
const DefaultTimeout = time.Minute

type request struct {
	Manifest          *manifest.Document `json:"manifest"`
	ManifestPath      string             `json:"manifestPath"`
	OriginalResources []string           `json:"originalResources"`
}

// Command is a configured transform program. The command line is split on
// whitespace; no shell is involved.
type Command struct {
	Args    []string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Parse builds a Command from a configured command line. An empty line yields nil.
func Parse(line string, logger *slog.Logger) *Command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	return &Command{Args: fields, Timeout: DefaultTimeout, Logger: logger}
}

// Func adapts the command to a manifest transform bound to ctx.
func (c *Command) Func(ctx context.Context) manifest.TransformFunc {
	return func(doc *manifest.Document, manifestPath string, originalResources []string) (*manifest.Document, error) {
		return c.Run(ctx, doc, manifestPath, originalResources)
	}
}

// Run invokes the program once and parses its output.
func (c *Command) Run(ctx context.Context, doc *manifest.Document, manifestPath string, originalResources []string) (*manifest.Document, error) {
	if c == nil || len(c.Args) == 0 {
		return nil, errors.New("transform command not configured")
	}
	logger := c.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if originalResources == nil {
		originalResources = []string{}
	}
	payload, err := json.Marshal(request{Manifest: doc, ManifestPath: manifestPath, OriginalResources: originalResources})
	if err != nil {
		return nil, fmt.Errorf("encode hook request: %w", err)
	}

	cmd := commandContext(ctx, c.Args[0], c.Args[1:]...) //nolint:gosec
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("running manifest transform command",
		logging.String("command", c.Args[0]),
		logging.String("manifest", manifestPath),
	)
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", c.Args[0], err, msg)
		}
		return nil, fmt.Errorf("%s: %w", c.Args[0], err)
	}

	result, err := manifest.Parse(bytes.TrimSpace(stdout.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("%s returned invalid manifest: %w", c.Args[0], err)
	}
	return result, nil
}
