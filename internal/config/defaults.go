package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultSourceDir     = "assets"
	defaultOutputDir     = "public/assets"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultEncoderBinary = "audiosprite"
)

// Default returns a Config populated with repository defaults. Sprite and
// encoder option fields are left unset so the resolver applies its own defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceDir: defaultSourceDir,
			OutputDir: defaultOutputDir,
			CachePath: defaultCachePath(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Encoder: Encoder{
			Binary: defaultEncoderBinary,
		},
	}
}

func defaultCachePath() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "soundsprite", "cache.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/soundsprite/cache.db"
	}
	return filepath.Join(home, ".cache", "soundsprite", "cache.db")
}
