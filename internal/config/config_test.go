package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"soundsprite/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if !filepath.IsAbs(cfg.Paths.SourceDir) || !strings.HasSuffix(cfg.Paths.SourceDir, "assets") {
		t.Fatalf("unexpected source dir: %q", cfg.Paths.SourceDir)
	}
	wantCache := filepath.Join(tempHome, ".cache", "soundsprite", "cache.db")
	if cfg.Paths.CachePath != wantCache {
		t.Fatalf("unexpected cache path: got %q want %q", cfg.Paths.CachePath, wantCache)
	}
	if cfg.Encoder.Binary != "audiosprite" {
		t.Fatalf("unexpected encoder binary: %q", cfg.Encoder.Binary)
	}
	if cfg.Sprite.Nested != nil || cfg.Sprite.OutputJSON != nil {
		t.Fatal("expected sprite options to stay unset by default")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if info, err := os.Stat(cfg.Paths.OutputDir); err != nil || !info.IsDir() {
		t.Fatalf("expected output dir to exist: %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "soundsprite.toml")

	type payload struct {
		Paths struct {
			SourceDir string `toml:"source_dir"`
			OutputDir string `toml:"output_dir"`
		} `toml:"paths"`
		Sprite struct {
			Tag        string   `toml:"tag"`
			Imports    []string `toml:"imports"`
			Nested     bool     `toml:"nested"`
			OutputJSON struct {
				Path             string `toml:"path"`
				Extension        string `toml:"extension"`
				Minify           bool   `toml:"minify"`
				TransformCommand string `toml:"transform_command"`
			} `toml:"output_json"`
		} `toml:"sprite"`
		Encoder struct {
			Bitrate int               `toml:"bitrate"`
			Path    string            `toml:"path"`
			Extra   map[string]string `toml:"extra"`
		} `toml:"encoder"`
	}
	custom := payload{}
	custom.Paths.SourceDir = filepath.Join(tempDir, "src")
	custom.Paths.OutputDir = filepath.Join(tempDir, "out")
	custom.Sprite.Tag = "sprite"
	custom.Sprite.Imports = []string{".WAV", " mp3 "}
	custom.Sprite.Nested = false
	custom.Sprite.OutputJSON.Path = "manifests"
	custom.Sprite.OutputJSON.Extension = "data.json"
	custom.Sprite.OutputJSON.Minify = true
	custom.Sprite.OutputJSON.TransformCommand = " stamp --version 1 "
	custom.Encoder.Bitrate = 64
	custom.Encoder.Path = "site"
	custom.Encoder.Extra = map[string]string{"log": "debug"}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Sprite.Tag != "sprite" {
		t.Fatalf("unexpected tag: %q", cfg.Sprite.Tag)
	}
	if strings.Join(cfg.Sprite.Imports, ",") != "WAV,mp3" {
		t.Fatalf("unexpected imports: %v", cfg.Sprite.Imports)
	}
	if cfg.Sprite.Nested == nil || *cfg.Sprite.Nested {
		t.Fatalf("expected nested=false to be preserved as an explicit override")
	}
	out := cfg.Sprite.OutputJSON
	if out == nil {
		t.Fatal("expected output_json section")
	}
	if out.Path != filepath.Join(tempDir, "out", "manifests") {
		t.Fatalf("expected relative manifest path anchored at output dir, got %q", out.Path)
	}
	if out.Extension != ".data.json" {
		t.Fatalf("expected extension to gain a leading dot, got %q", out.Extension)
	}

	opts := cfg.SpriteOptions()
	if opts.Encoder.Bitrate == nil || *opts.Encoder.Bitrate != 64 {
		t.Fatalf("expected bitrate override to carry into options")
	}
	if opts.Encoder.Format != nil {
		t.Fatalf("expected unset format to stay nil")
	}
	if opts.OutputJSON == nil || !opts.OutputJSON.Minify {
		t.Fatalf("expected output json options to carry minify")
	}
	if opts.OutputJSON.TransformID != "stamp --version 1" {
		t.Fatalf("expected transform command to identify the transform, got %q", opts.OutputJSON.TransformID)
	}
	if opts.Encoder.Path == nil || *opts.Encoder.Path != filepath.Join(tempDir, "out", "site") {
		t.Fatalf("expected relative encoder path anchored at output dir, got %v", opts.Encoder.Path)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "soundsprite.toml")
	if err := os.WriteFile(configPath, []byte("[sprite]\nbogus = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestEncoderEnvOverride(t *testing.T) {
	t.Setenv("SOUNDSPRITE_ENCODER", "/opt/bin/audiosprite")
	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Encoder.Binary != "/opt/bin/audiosprite" {
		t.Fatalf("expected env override, got %q", cfg.Encoder.Binary)
	}
}

func TestValidateRejectsDerivedExtraKeys(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.SourceDir = "/src"
	cfg.Paths.OutputDir = "/out"
	cfg.Encoder.Extra = map[string]string{"output": "/elsewhere"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected encoder.extra.output to be rejected")
	}
}

func TestValidateRejectsSameSourceAndOutput(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.SourceDir = "/assets"
	cfg.Paths.OutputDir = "/assets/"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected identical source and output to be rejected")
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample config to load, exists=%v err=%v", exists, err)
	}
}
