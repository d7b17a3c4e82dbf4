package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"soundsprite/internal/config"
	"soundsprite/internal/options"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create and check the sprite configuration",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("%s already exists (pass --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			sample, _, _, err := config.Load(target)
			if err != nil {
				return fmt.Errorf("load sample config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			printSettings(out, spriteSettingRows(sample))
			fmt.Fprintf(out, "Tag sprite folders under %s as name{%s}.\n", sample.Paths.SourceDir, resolvedSprite(sample).Tag)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing configuration file")
	return cmd
}

func initTarget(flagValue string) (string, error) {
	target := strings.TrimSpace(flagValue)
	if target == "" {
		defaultPath, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		target = defaultPath
	} else {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		target = expanded
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return target, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and show the resolved sprite settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			source := ctx.configPath
			if !ctx.configSeen {
				source += " (not found, defaults used)"
			}
			rows := append([][]string{{"Config", source}}, spriteSettingRows(cfg)...)

			out := cmd.OutOrStdout()
			printSettings(out, rows)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

// resolvedSprite applies the configured sprite options over the defaults the
// way a build does, using the output root as the folder.
func resolvedSprite(cfg *config.Config) options.Config {
	return options.Resolve(options.Defaults(), cfg.SpriteOptions(), cfg.Paths.OutputDir)
}

func spriteSettingRows(cfg *config.Config) [][]string {
	resolved := resolvedSprite(cfg)
	manifestDir := resolved.Manifest.Path
	if manifestDir == "" {
		manifestDir = "(next to the sprite)"
	}
	transform := cfg.TransformCommand()
	if transform == "" {
		transform = "(none)"
	}
	return [][]string{
		{"Source", cfg.Paths.SourceDir},
		{"Output", cfg.Paths.OutputDir},
		{"Cache", cfg.Paths.CachePath},
		{"Tag", resolved.Tag},
		{"Imports", strings.Join(resolved.ImportList(), ",")},
		{"Nested", yesNo(resolved.Nested)},
		{"Manifest extension", resolved.Manifest.Extension},
		{"Manifest directory", manifestDir},
		{"Minify", yesNo(resolved.Manifest.Minify)},
		{"Transform command", transform},
		{"Encoder", cfg.Encoder.Binary},
		{"Export", resolved.Encoder.Export},
	}
}

func printSettings(out io.Writer, rows [][]string) {
	printRows(out, []string{"Setting", "Value"}, rows, []columnAlignment{alignLeft, alignLeft})
}
