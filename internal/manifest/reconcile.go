package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// RawExtension is the extension the encoder always gives its manifest.
const RawExtension = ".json"

var (
	// ErrMalformedManifest marks an encoder response without a usable resources list.
	ErrMalformedManifest = errors.New("malformed manifest")
	// ErrTransformCallback marks a failure returned by a user manifest transform.
	ErrTransformCallback = errors.New("manifest transform failed")
)

// TransformFunc rewrites a manifest before it is written. doc already lists
// bare resource filenames; originalResources holds the encoder's paths as
// emitted. The returned document replaces doc.
type TransformFunc func(doc *Document, manifestPath string, originalResources []string) (*Document, error)

// Options controls where and how the final manifest is written.
type Options struct {
	// Path overrides the manifest output directory. Empty keeps the encoder's directory.
	Path string `json:"path,omitempty"`
	// Extension replaces ".json" in the manifest filename.
	Extension string `json:"extension"`
	Minify    bool   `json:"minify"`
	// TransformID names the transform for change detection, such as the hook
	// command line. Transform itself cannot be compared.
	TransformID string        `json:"transform_id,omitempty"`
	Transform   TransformFunc `json:"-"`
}

// ArtifactKind distinguishes the rewritten manifest from pass-through audio files.
type ArtifactKind string

const (
	KindManifest ArtifactKind = "manifest"
	KindAudio    ArtifactKind = "audio"
)

// Artifact is one file produced for a sprite.
type Artifact struct {
	Kind ArtifactKind
	Path string
}

// Input is the encoder output to reconcile.
type Input struct {
	// EncoderPath and EncoderOutput are the "path" and "output" options the
	// encoder was invoked with.
	EncoderPath   string
	EncoderOutput string
	Manifest      *Document
	Options       Options
}

// Result is a reconciled manifest ready to be emitted.
type Result struct {
	RawManifestPath   string
	ManifestPath      string
	Renamed           bool
	Manifest          []byte
	Document          *Document
	OriginalResources []string
	// Artifacts lists the manifest first, then audio files in encoder order.
	Artifacts []Artifact
}

// AudioPaths returns the paths of the audio artifacts.
func (r Result) AudioPaths() []string {
	paths := make([]string, 0, len(r.Artifacts))
	for _, artifact := range r.Artifacts {
		if artifact.Kind == KindAudio {
			paths = append(paths, artifact.Path)
		}
	}
	return paths
}

// RawManifestPath is where the encoder writes its manifest: <path>/<output>.json.
// An absolute output ignores path.
func RawManifestPath(encoderPath, encoderOutput string) string {
	if filepath.IsAbs(encoderOutput) {
		return filepath.Clean(encoderOutput + RawExtension)
	}
	return filepath.Join(encoderPath, encoderOutput+RawExtension)
}

// RawAudioPath locates an encoded audio file from its resources entry.
// Absolute entries are kept, path-qualified entries are relative to the
// encoder path, and bare filenames sit next to the raw manifest.
func RawAudioPath(encoderPath, rawManifestPath, resource string) string {
	switch {
	case filepath.IsAbs(resource):
		return filepath.Clean(resource)
	case strings.ContainsAny(resource, `/\`):
		return filepath.Join(encoderPath, filepath.FromSlash(resource))
	default:
		return filepath.Join(filepath.Dir(rawManifestPath), resource)
	}
}

// FinalManifestPath applies the configured directory and extension to the raw
// manifest path.
func FinalManifestPath(rawManifestPath string, opts Options) string {
	dir := strings.TrimSpace(opts.Path)
	if dir == "" {
		dir = filepath.Dir(rawManifestPath)
	}
	ext := opts.Extension
	if ext == "" {
		ext = RawExtension
	}
	name := strings.TrimSuffix(filepath.Base(rawManifestPath), RawExtension) + ext
	return filepath.Join(dir, name)
}

// BareName strips every directory component, accepting either separator.
func BareName(resource string) string {
	if idx := strings.LastIndexAny(resource, `/\`); idx >= 0 {
		return resource[idx+1:]
	}
	return resource
}

// Reconcile converts raw encoder output into the final manifest and artifact
// list. It does not touch the filesystem.
func Reconcile(in Input) (Result, error) {
	if in.Manifest == nil {
		return Result{}, fmt.Errorf("%w: no manifest returned", ErrMalformedManifest)
	}
	original, ok, err := in.Manifest.Resources()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrMalformedManifest, err)
	}
	if !ok {
		return Result{}, fmt.Errorf("%w: missing %q", ErrMalformedManifest, ResourcesKey)
	}

	rawManifest := RawManifestPath(in.EncoderPath, in.EncoderOutput)
	finalManifest := FinalManifestPath(rawManifest, in.Options)

	artifacts := make([]Artifact, 0, len(original)+1)
	artifacts = append(artifacts, Artifact{Kind: KindManifest, Path: finalManifest})
	bare := make([]string, 0, len(original))
	for _, resource := range original {
		artifacts = append(artifacts, Artifact{Kind: KindAudio, Path: RawAudioPath(in.EncoderPath, rawManifest, resource)})
		bare = append(bare, BareName(resource))
	}

	doc := in.Manifest.Clone()
	if err := doc.SetResources(bare); err != nil {
		return Result{}, err
	}

	if in.Options.Transform != nil {
		transformed, err := in.Options.Transform(doc, finalManifest, append([]string(nil), original...))
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrTransformCallback, err)
		}
		if transformed == nil {
			return Result{}, fmt.Errorf("%w: transform returned no manifest", ErrTransformCallback)
		}
		doc = transformed
	}

	rendered, err := doc.Render(in.Options.Minify)
	if err != nil {
		return Result{}, err
	}

	return Result{
		RawManifestPath:   rawManifest,
		ManifestPath:      finalManifest,
		Renamed:           finalManifest != rawManifest,
		Manifest:          rendered,
		Document:          doc,
		OriginalResources: original,
		Artifacts:         artifacts,
	}, nil
}
