package options

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"soundsprite/internal/manifest"
)

// EncoderOptions is the complete option set passed to the audio encoder.
type EncoderOptions struct {
	Export         string            `json:"export"`
	Format         string            `json:"format"`
	Autoplay       string            `json:"autoplay,omitempty"`
	Loop           []string          `json:"loop,omitempty"`
	Silence        float64           `json:"silence"`
	Gap            float64           `json:"gap"`
	MinLength      float64           `json:"minlength"`
	Bitrate        int               `json:"bitrate"`
	VBR            int               `json:"vbr"`
	VBRVorbis      int               `json:"vbr:vorbis"`
	SampleRate     int               `json:"samplerate"`
	Channels       int               `json:"channels"`
	RawParts       string            `json:"rawparts,omitempty"`
	IgnoreRounding int               `json:"ignorerounding"`
	Output         string            `json:"output"`
	Path           string            `json:"path"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// EncoderOverrides carries caller-supplied encoder options. Nil fields are unset.
// There is no Output field: the output base name is derived from the folder mapping.
type EncoderOverrides struct {
	Export         *string
	Format         *string
	Autoplay       *string
	Loop           []string
	Silence        *float64
	Gap            *float64
	MinLength      *float64
	Bitrate        *int
	VBR            *int
	VBRVorbis      *int
	SampleRate     *int
	Channels       *int
	RawParts       *string
	IgnoreRounding *int
	Path           *string
	Extra          map[string]string
}

// Options is the caller-facing configuration for one transform.
type Options struct {
	Tag        string
	Imports    []string
	Nested     *bool
	OutputJSON *manifest.Options
	Encoder    EncoderOverrides
}

// Config is the fully resolved configuration for one folder transform.
type Config struct {
	Tag      string              `json:"tag"`
	Imports  map[string]struct{} `json:"imports"`
	Nested   bool                `json:"nested"`
	Manifest manifest.Options    `json:"manifest"`
	Encoder  EncoderOptions      `json:"encoder"`
}

// DefaultImports lists the extensions collected when the caller sets none.
var DefaultImports = []string{"aac", "aif", "aiff", "flac", "m4a", "mp3", "ogg", "wav", "webm"}

// Defaults returns the built-in options.
func Defaults() Options {
	nested := true
	return Options{
		Tag:     "audiosprite",
		Imports: append([]string(nil), DefaultImports...),
		Nested:  &nested,
		OutputJSON: &manifest.Options{
			Extension: manifest.RawExtension,
			Minify:    false,
		},
		Encoder: EncoderOverrides{
			Export:         ptr("ogg,m4a,mp3,ac3"),
			Format:         ptr("jukebox"),
			Silence:        ptr(0.0),
			Gap:            ptr(1.0),
			MinLength:      ptr(0.0),
			Bitrate:        ptr(128),
			VBR:            ptr(-1),
			VBRVorbis:      ptr(-1),
			SampleRate:     ptr(44100),
			Channels:       ptr(1),
			IgnoreRounding: ptr(0),
			Path:           ptr(""),
		},
	}
}

// Resolve merges caller over defaults for the folder whose output path is
// outputFolder. It has no side effects.
func Resolve(defaults, caller Options, outputFolder string) Config {
	tag := replaceWhole(defaults.Tag, caller.Tag, caller.Tag != "")
	imports := replaceWhole(defaults.Imports, caller.Imports, caller.Imports != nil)
	nested := replaceWhole(defaults.Nested, caller.Nested, caller.Nested != nil)
	outputJSON := replaceWhole(defaults.OutputJSON, caller.OutputJSON, caller.OutputJSON != nil)

	cfg := Config{
		Tag:     tag,
		Imports: ImportSet(imports),
		Nested:  nested != nil && *nested,
	}
	if outputJSON != nil {
		cfg.Manifest = *outputJSON
	}

	var encoder EncoderOptions
	mergeKeys(&encoder, defaults.Encoder)
	mergeKeys(&encoder, caller.Encoder)
	encoder.Output = encoderOutput(encoder.Path, OutputBase(outputFolder, cfg.Nested))
	cfg.Encoder = encoder

	return cfg
}

// OutputBase is the encoder output base name for a folder: the folder itself,
// or <folder>/<basename(folder)> when sprites are nested in their own directory.
func OutputBase(outputFolder string, nested bool) string {
	outputFolder = filepath.Clean(outputFolder)
	if nested {
		return filepath.Join(outputFolder, filepath.Base(outputFolder))
	}
	return outputFolder
}

// encoderOutput expresses base relative to the encoder path, which the encoder
// joins onto output. Without a path, or when base cannot be expressed relative
// to it, base is returned unchanged.
func encoderOutput(path, base string) string {
	if strings.TrimSpace(path) == "" {
		return base
	}
	rel, err := filepath.Rel(path, base)
	if err != nil {
		return base
	}
	return rel
}

// ImportSet normalizes extensions into a case-folded set without leading dots.
func ImportSet(extensions []string) map[string]struct{} {
	folder := cases.Fold()
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = folder.String(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = struct{}{}
		}
	}
	return set
}

// ImportList returns the import set sorted.
func (c Config) ImportList() []string {
	list := make([]string, 0, len(c.Imports))
	for ext := range c.Imports {
		list = append(list, ext)
	}
	sort.Strings(list)
	return list
}

// Fingerprint is a stable text form of the configuration. The manifest
// transform function is represented only by whether one is set.
func (c Config) Fingerprint() string {
	payload := struct {
		Config
		Imports   []string `json:"imports"`
		Transform bool     `json:"transform"`
	}{Config: c, Imports: c.ImportList(), Transform: c.Manifest.Transform != nil}
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(data)
}

func replaceWhole[T any](def, caller T, set bool) T {
	if set {
		return caller
	}
	return def
}

func mergeKeys(dst *EncoderOptions, src EncoderOverrides) {
	setIf(&dst.Export, src.Export)
	setIf(&dst.Format, src.Format)
	setIf(&dst.Autoplay, src.Autoplay)
	if src.Loop != nil {
		dst.Loop = append([]string(nil), src.Loop...)
	}
	setIf(&dst.Silence, src.Silence)
	setIf(&dst.Gap, src.Gap)
	setIf(&dst.MinLength, src.MinLength)
	setIf(&dst.Bitrate, src.Bitrate)
	setIf(&dst.VBR, src.VBR)
	setIf(&dst.VBRVorbis, src.VBRVorbis)
	setIf(&dst.SampleRate, src.SampleRate)
	setIf(&dst.Channels, src.Channels)
	setIf(&dst.RawParts, src.RawParts)
	setIf(&dst.IgnoreRounding, src.IgnoreRounding)
	setIf(&dst.Path, src.Path)
	for key, value := range src.Extra {
		if dst.Extra == nil {
			dst.Extra = make(map[string]string, len(src.Extra))
		}
		dst.Extra[key] = value
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func ptr[T any](v T) *T {
	return &v
}
