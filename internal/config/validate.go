package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	return c.validateSprite()
}

func (c *Config) validatePaths() error {
	if c.Paths.SourceDir == "" {
		return errors.New("paths.source_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if filepath.Clean(c.Paths.SourceDir) == filepath.Clean(c.Paths.OutputDir) {
		return errors.New("paths.output_dir must differ from paths.source_dir")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.Channels != nil && *c.Encoder.Channels <= 0 {
		return errors.New("encoder.channels must be positive")
	}
	if c.Encoder.SampleRate != nil && *c.Encoder.SampleRate <= 0 {
		return errors.New("encoder.samplerate must be positive")
	}
	for key := range c.Encoder.Extra {
		if strings.TrimSpace(key) == "" {
			return errors.New("encoder.extra keys must not be empty")
		}
		switch key {
		case "output", "path":
			return fmt.Errorf("encoder.extra.%s is derived from the output mapping and cannot be set", key)
		}
	}
	return nil
}

func (c *Config) validateSprite() error {
	if c.Sprite.Imports != nil && len(c.Sprite.Imports) == 0 {
		return errors.New("sprite.imports must list at least one extension when set")
	}
	return nil
}
