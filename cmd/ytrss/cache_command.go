package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ytrss/internal/cache"
	"ytrss/internal/config"
)

func newCacheCommand(opts *rootOptions) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the resolution cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(opts))
	cacheCmd.AddCommand(newCacheRemoveCommand(opts))
	cacheCmd.AddCommand(newCacheClearCommand(opts))

	return cacheCmd
}

func newCacheListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached resolutions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCacheStore(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Cached resolutions: none")
				return nil
			}
			const stampLayout = "2006-01-02 15:04"
			fmt.Fprintln(out, "Cached resolutions:")
			for _, entry := range entries {
				fmt.Fprintf(out, "  - %s -> %s (resolved %s)\n",
					entry.Reference, entry.ID.String(), entry.ResolvedAt.Format(stampLayout))
			}
			return nil
		},
	}
}

func newCacheRemoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <reference>",
		Short: "Remove one cached resolution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCacheStore(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func newCacheClearCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached resolution",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCacheStore(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
			return nil
		},
	}
}

// openCacheStore opens the real cache backend for management commands,
// ignoring the per-run disable flags.
func openCacheStore(cmd *cobra.Command, opts *rootOptions) (cache.Cache, error) {
	cfg, err := config.Load(cmd.Context(), opts.configPath)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(cfg.Cache.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	return cache.NewSQLite(cfg.Cache.Path, cfg.CacheTTL())
}
