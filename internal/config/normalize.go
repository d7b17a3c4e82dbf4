package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	if err := c.normalizeSprite(); err != nil {
		return err
	}
	if err := c.normalizeEncoder(); err != nil {
		return err
	}
	if c.Pipeline.Concurrency < 0 {
		c.Pipeline.Concurrency = 0
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.SourceDir, err = expandPath(strings.TrimSpace(c.Paths.SourceDir)); err != nil {
		return fmt.Errorf("paths.source_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CachePath) == "" {
		c.Paths.CachePath = defaultCachePath()
	}
	if c.Paths.CachePath, err = expandPath(strings.TrimSpace(c.Paths.CachePath)); err != nil {
		return fmt.Errorf("paths.cache_path: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "console", "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeSprite() error {
	var err error
	c.Sprite.Tag = strings.TrimSpace(c.Sprite.Tag)
	if c.Sprite.Imports != nil {
		imports := make([]string, 0, len(c.Sprite.Imports))
		for _, ext := range c.Sprite.Imports {
			ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
			if ext != "" {
				imports = append(imports, ext)
			}
		}
		c.Sprite.Imports = imports
	}
	if out := c.Sprite.OutputJSON; out != nil {
		out.Path = strings.TrimSpace(out.Path)
		if out.Path != "" && !strings.HasPrefix(out.Path, "~") && !filepath.IsAbs(out.Path) {
			// Relative manifest directories are anchored at the output root.
			out.Path = filepath.Join(c.Paths.OutputDir, out.Path)
		}
		if out.Path, err = expandPath(out.Path); err != nil {
			return fmt.Errorf("sprite.output_json.path: %w", err)
		}
		out.Extension = strings.TrimSpace(out.Extension)
		if out.Extension == "" {
			out.Extension = ".json"
		}
		if !strings.HasPrefix(out.Extension, ".") {
			out.Extension = "." + out.Extension
		}
		out.TransformCommand = strings.TrimSpace(out.TransformCommand)
	}
	return nil
}

func (c *Config) normalizeEncoder() error {
	if value, ok := os.LookupEnv("SOUNDSPRITE_ENCODER"); ok && strings.TrimSpace(value) != "" {
		c.Encoder.Binary = strings.TrimSpace(value)
	}
	c.Encoder.Binary = strings.TrimSpace(c.Encoder.Binary)
	if c.Encoder.Binary == "" {
		c.Encoder.Binary = defaultEncoderBinary
	}
	if c.Encoder.Path != nil {
		path := strings.TrimSpace(*c.Encoder.Path)
		if path != "" && !strings.HasPrefix(path, "~") && !filepath.IsAbs(path) {
			path = filepath.Join(c.Paths.OutputDir, path)
		}
		expanded, err := expandPath(path)
		if err != nil {
			return fmt.Errorf("encoder.path: %w", err)
		}
		c.Encoder.Path = &expanded
	}
	return nil
}
