package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"soundsprite/internal/buildcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the build cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))

	return cacheCmd
}

func openCache(ctx *commandContext) (*buildcache.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := buildcache.Open(cfg.Paths.CachePath)
	if err != nil {
		return nil, fmt.Errorf("open build cache: %w", err)
	}
	return store, nil
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached sprite folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				if entries == nil {
					entries = []buildcache.Entry{}
				}
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Build cache is empty")
				return nil
			}
			const stampLayout = "2006-01-02 15:04"
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				manifest := ""
				if len(entry.TransformData.Files) > 0 {
					manifest = entry.TransformData.Files[0].Name
				}
				rows = append(rows, []string{
					entry.Key,
					manifest,
					strconv.Itoa(len(entry.Paths())),
					entry.UpdatedAt.Local().Format(stampLayout),
					shortSignature(entry.Signature),
				})
			}
			printRows(out, []string{"Folder", "Manifest", "Outputs", "Updated", "Signature"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft})
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output entries as JSON")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every build cache entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Build cache cleared")
			return nil
		},
	}
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <folder>",
		Short: "Remove the cache entry for one source folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			key := strings.TrimSpace(args[0])
			if err := store.Delete(cmd.Context(), key); err != nil {
				if errors.Is(err, buildcache.ErrNotFound) {
					return fmt.Errorf("no cache entry for %s", key)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed cache entry for %s\n", key)
			return nil
		},
	}
}

func shortSignature(signature string) string {
	if len(signature) > 12 {
		return signature[:12]
	}
	return signature
}
