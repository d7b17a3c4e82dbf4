package testsupport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"soundsprite/internal/encoder"
	"soundsprite/internal/manifest"
	"soundsprite/internal/options"
)

// FakeEncoder imitates the audiosprite CLI in process: it writes one audio
// file per export format and a manifest at <path>/<output>.json listing them,
// both against the same base, then returns that manifest.
type FakeEncoder struct {
	mu    sync.Mutex
	calls []FakeCall
	// Fail makes Encode return an encoder error for outputs containing the key.
	Fail map[string]error
	// OmitResources writes a manifest without a resources list.
	OmitResources bool
}

// FakeCall records one Encode invocation.
type FakeCall struct {
	Files   []string
	Options options.EncoderOptions
}

// Calls returns a copy of the recorded invocations.
func (f *FakeEncoder) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

// Encode implements encoder.Encoder.
func (f *FakeEncoder) Encode(_ context.Context, files []string, opts options.EncoderOptions) (*manifest.Document, error) {
	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Files: append([]string(nil), files...), Options: opts})
	f.mu.Unlock()

	for key, err := range f.Fail {
		if strings.Contains(opts.Output, key) {
			return nil, fmt.Errorf("%w: %w", encoder.ErrEncoder, err)
		}
	}

	rawManifest := manifest.RawManifestPath(opts.Path, opts.Output)
	base := strings.TrimSuffix(rawManifest, manifest.RawExtension)
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		return nil, err
	}

	payload := map[string]any{"spritemap": spritemap(files)}
	var resources []string
	for _, ext := range strings.Split(opts.Export, ",") {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		path := base + "." + ext
		if err := os.WriteFile(path, []byte("audio:"+strings.Join(files, ",")), 0o644); err != nil {
			return nil, err
		}
		resources = append(resources, path)
	}
	if !f.OmitResources {
		payload["resources"] = resources
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(rawManifest, data, 0o644); err != nil {
		return nil, err
	}
	return manifest.Parse(data)
}

func spritemap(files []string) map[string]any {
	entries := make(map[string]any, len(files))
	for i, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		entries[name] = map[string]any{"start": float64(i) * 2, "end": float64(i)*2 + 1, "loop": false}
	}
	return entries
}

var _ encoder.Encoder = (*FakeEncoder)(nil)
