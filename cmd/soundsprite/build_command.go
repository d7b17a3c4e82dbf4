package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"soundsprite/internal/buildcache"
	"soundsprite/internal/config"
	"soundsprite/internal/encoder"
	"soundsprite/internal/hook"
	"soundsprite/internal/logging"
	"soundsprite/internal/options"
	"soundsprite/internal/pipeline"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var (
		sourceFlag  string
		outputFlag  string
		concurrency int
		force       bool
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Encode every tagged folder into an audio sprite",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			sourceRoot, err := flagPath(sourceFlag, cfg.Paths.SourceDir)
			if err != nil {
				return err
			}
			outputRoot, err := flagPath(outputFlag, cfg.Paths.OutputDir)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = cfg.Pipeline.Concurrency
			}

			var cache buildcache.Cache
			if noCache {
				cache = buildcache.NewMemory()
			} else {
				store, err := buildcache.Open(cfg.Paths.CachePath)
				if err != nil {
					return fmt.Errorf("open build cache: %w", err)
				}
				cache = store
			}
			defer cache.Close()

			caller := cfg.SpriteOptions()
			if transform := hook.Parse(cfg.TransformCommand(), logging.NewComponentLogger(logger, "hook")); transform != nil {
				caller.OutputJSON.Transform = transform.Func(cmd.Context())
			}

			p, err := pipeline.New(pipeline.Settings{
				SourceRoot: sourceRoot,
				OutputRoot: outputRoot,
				Defaults:   options.Defaults(),
				Options:    caller,
				Encoder: encoder.NewCLI(
					encoder.WithBinary(cfg.Encoder.Binary),
					encoder.WithLogger(logging.NewComponentLogger(logger, "encoder")),
				),
				Cache:       cache,
				Concurrency: concurrency,
				Force:       force,
				Logger:      logger,
			})
			if err != nil {
				return err
			}

			report, runErr := p.Run(cmd.Context())
			printReport(cmd, sourceRoot, report)
			if errors.Is(runErr, pipeline.ErrLocked) {
				return fmt.Errorf("%w (lock file %s)", runErr, filepath.Join(outputRoot, pipeline.LockFileName))
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "", "Source asset directory (overrides paths.source_dir)")
	cmd.Flags().StringVar(&outputFlag, "output", "", "Output directory (overrides paths.output_dir)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Folders to encode in parallel (default: pipeline.concurrency or CPU count)")
	cmd.Flags().BoolVar(&force, "force", false, "Rebuild folders even when the cache says they are current")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Do not read or write the persistent build cache")
	return cmd
}

func flagPath(flagValue, fallback string) (string, error) {
	if value := strings.TrimSpace(flagValue); value != "" {
		return config.ExpandPath(value)
	}
	return fallback, nil
}

func printReport(cmd *cobra.Command, sourceRoot string, report pipeline.Report) {
	out := cmd.OutOrStdout()
	if len(report.Folders) == 0 {
		fmt.Fprintln(out, "No tagged folders found")
		return
	}

	rows := make([][]string, 0, len(report.Folders))
	for _, folder := range report.Folders {
		name := folder.Folder
		if rel, err := filepath.Rel(sourceRoot, folder.Folder); err == nil {
			name = filepath.ToSlash(rel)
		}
		detail := folder.Manifest
		if folder.Err != nil {
			detail = folder.Err.Error()
		}
		rows = append(rows, []string{
			name,
			string(folder.Status),
			strconv.Itoa(folder.Files),
			folder.Duration.Round(time.Millisecond).String(),
			detail,
		})
	}
	printRows(out, []string{"Folder", "Status", "Files", "Time", "Manifest"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft})
	fmt.Fprintf(out, "Built %d, skipped %d, empty %d, failed %d\n",
		report.Count(pipeline.StatusBuilt),
		report.Count(pipeline.StatusSkipped),
		report.Count(pipeline.StatusEmpty),
		report.Count(pipeline.StatusFailed),
	)
}
