package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"soundsprite/internal/manifest"
	"soundsprite/internal/options"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the source and output roots plus state locations.
type Paths struct {
	SourceDir string `toml:"source_dir"`
	OutputDir string `toml:"output_dir"`
	CachePath string `toml:"cache_path"`
	LogDir    string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Pipeline contains scheduling settings for a build run.
type Pipeline struct {
	// Concurrency bounds how many tagged folders transform at once. Zero means
	// one worker per CPU.
	Concurrency int `toml:"concurrency"`
}

// OutputJSON configures how the sprite manifest is written.
type OutputJSON struct {
	Path             string `toml:"path"`
	Extension        string `toml:"extension"`
	Minify           bool   `toml:"minify"`
	TransformCommand string `toml:"transform_command"`
}

// Sprite holds the folder-level transform settings. Nil or empty fields fall
// back to the built-in defaults.
type Sprite struct {
	Tag        string      `toml:"tag"`
	Imports    []string    `toml:"imports"`
	Nested     *bool       `toml:"nested"`
	OutputJSON *OutputJSON `toml:"output_json"`
}

// Encoder configures the external audiosprite binary and its options. Option
// fields left unset keep the encoder defaults.
type Encoder struct {
	Binary         string            `toml:"binary"`
	Export         *string           `toml:"export"`
	Format         *string           `toml:"format"`
	Autoplay       *string           `toml:"autoplay"`
	Loop           []string          `toml:"loop"`
	Silence        *float64          `toml:"silence"`
	Gap            *float64          `toml:"gap"`
	MinLength      *float64          `toml:"minlength"`
	Bitrate        *int              `toml:"bitrate"`
	VBR            *int              `toml:"vbr"`
	VBRVorbis      *int              `toml:"vbr:vorbis"`
	SampleRate     *int              `toml:"samplerate"`
	Channels       *int              `toml:"channels"`
	RawParts       *string           `toml:"rawparts"`
	IgnoreRounding *int              `toml:"ignorerounding"`
	Path           *string           `toml:"path"`
	Extra          map[string]string `toml:"extra"`
}

// Config encapsulates all configuration values for soundsprite.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Logging  Logging  `toml:"logging"`
	Pipeline Pipeline `toml:"pipeline"`
	Sprite   Sprite   `toml:"sprite"`
	Encoder  Encoder  `toml:"encoder"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/soundsprite/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("soundsprite.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output root and state directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.OutputDir, filepath.Dir(c.Paths.CachePath)}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SpriteOptions converts the sprite and encoder sections into caller options for
// the resolver. The manifest transform hook is not set here; callers wire it
// from OutputJSON.TransformCommand.
func (c *Config) SpriteOptions() options.Options {
	opts := options.Options{
		Tag:     c.Sprite.Tag,
		Imports: c.Sprite.Imports,
		Nested:  c.Sprite.Nested,
		Encoder: options.EncoderOverrides{
			Export:         c.Encoder.Export,
			Format:         c.Encoder.Format,
			Autoplay:       c.Encoder.Autoplay,
			Loop:           c.Encoder.Loop,
			Silence:        c.Encoder.Silence,
			Gap:            c.Encoder.Gap,
			MinLength:      c.Encoder.MinLength,
			Bitrate:        c.Encoder.Bitrate,
			VBR:            c.Encoder.VBR,
			VBRVorbis:      c.Encoder.VBRVorbis,
			SampleRate:     c.Encoder.SampleRate,
			Channels:       c.Encoder.Channels,
			RawParts:       c.Encoder.RawParts,
			IgnoreRounding: c.Encoder.IgnoreRounding,
			Path:           c.Encoder.Path,
			Extra:          c.Encoder.Extra,
		},
	}
	if out := c.Sprite.OutputJSON; out != nil {
		opts.OutputJSON = &manifest.Options{
			Path:        out.Path,
			Extension:   out.Extension,
			Minify:      out.Minify,
			TransformID: strings.TrimSpace(out.TransformCommand),
		}
	}
	return opts
}

// TransformCommand returns the configured manifest transform program, if any.
func (c *Config) TransformCommand() string {
	if c.Sprite.OutputJSON == nil {
		return ""
	}
	return strings.TrimSpace(c.Sprite.OutputJSON.TransformCommand)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
