package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"ytrss/internal/cache"
	"ytrss/internal/config"
	"ytrss/internal/fetcher"
	"ytrss/internal/filter"
	"ytrss/internal/pipeline"
	"ytrss/internal/render"
	"ytrss/internal/resolver"
)

const version = "1.0.0"

type rootOptions struct {
	configPath string

	channelID string
	limit     int
	output    string
	quiet     bool
	dryRun    bool

	date        string
	after       string
	before      string
	title       string
	minDuration int64
	maxDuration int64

	noCache bool
	refresh bool

	saveURL string
	copyURL bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ytrss [reference]",
		Short: "Resolve a YouTube channel reference and list its recent videos",
		Long: `ytrss resolves a YouTube channel reference (channel ID, @handle, channel,
vanity, or playlist URL) to its canonical identifier, fetches the channel's
public RSS feed, filters the entries, and prints them.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "configuration file path")
	flags.StringVar(&opts.channelID, "channel-id", "", "use this channel or playlist ID directly, skipping resolution")
	flags.IntVarP(&opts.limit, "limit", "n", 5, "maximum number of videos to list")
	flags.StringVarP(&opts.output, "output", "o", "text", "output format: text, json, csv, or table")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress informational messages")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "resolve and print the feed URL without fetching the feed")

	flags.StringVar(&opts.date, "date", "", "keep only videos published on this date (YYYY-MM-DD)")
	flags.StringVar(&opts.after, "after", "", "keep only videos published on or after this date (YYYY-MM-DD)")
	flags.StringVar(&opts.before, "before", "", "keep only videos published on or before this date (YYYY-MM-DD)")
	flags.StringVar(&opts.title, "title", "", "keep only videos whose title contains this substring (case-insensitive)")
	flags.Int64Var(&opts.minDuration, "min-duration", 0, "keep only videos at least this many seconds long")
	flags.Int64Var(&opts.maxDuration, "max-duration", 0, "keep only videos at most this many seconds long")

	flags.BoolVar(&opts.noCache, "no-cache", false, "neither read nor write the resolution cache")
	flags.BoolVar(&opts.refresh, "refresh", false, "re-resolve even if the reference is cached")

	flags.StringVar(&opts.saveURL, "save-url", "", "write the feed URL to this file")
	flags.BoolVar(&opts.copyURL, "copy", false, "copy the feed URL to the clipboard")

	cmd.AddCommand(newCacheCommand(opts))
	cmd.AddCommand(newOPMLCommand(opts))

	return cmd
}

func runRoot(cmd *cobra.Command, args []string, opts *rootOptions) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	log := newLogger(cfg.Log.Level)

	if len(args) == 0 && opts.channelID == "" {
		return errors.New("a channel reference argument or --channel-id is required")
	}
	var reference string
	if len(args) > 0 {
		reference = args[0]
	}

	store, err := openCache(cfg, opts, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	p := newPipeline(cfg, store, log)
	req := pipeline.Request{
		Reference:  reference,
		ExplicitID: opts.channelID,
		Limit:      cfg.Limit,
		Filters: filter.Options{
			Date:               opts.date,
			After:              opts.after,
			Before:             opts.before,
			Title:              opts.title,
			MinDurationSeconds: opts.minDuration,
			MaxDurationSeconds: opts.maxDuration,
		},
		BypassCache:  opts.refresh,
		DisableCache: opts.noCache,
	}

	info := newInfoPrinter(cfg.Quiet, cmd.ErrOrStderr())

	if opts.dryRun {
		id, err := p.Resolve(ctx, req)
		if err != nil {
			return err
		}
		shown := reference
		if shown == "" {
			shown = opts.channelID
		}
		info.Printf("Resolved %s to %s", shown, id.String())
		feedURL := id.FeedURL()
		if err := emitFeedURL(opts, feedURL, info); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), feedURL)
		return nil
	}

	out, err := p.Run(ctx, req)
	if err != nil {
		return err
	}
	info.Printf("Channel ID: %s", out.ID.Value)
	info.Printf("Feed URL: %s", out.FeedURL)
	if out.Attempts > 1 {
		info.Printf("Feed fetched after %d attempts", out.Attempts)
	}
	if err := emitFeedURL(opts, out.FeedURL, info); err != nil {
		return err
	}

	format, err := render.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}
	return render.Render(cmd.OutOrStdout(), out.Records, format)
}

// loadConfig reads the config file and environment, then lets explicitly set
// flags win.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(cmd.Context(), opts.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("limit") {
		cfg.Limit = opts.limit
	}
	if flags.Changed("output") {
		cfg.Output = opts.output
	}
	if flags.Changed("quiet") {
		cfg.Quiet = opts.quiet
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openCache opens the configured cache backend, or a no-op cache when
// caching is off for this run.
func openCache(cfg *config.Config, opts *rootOptions, log *slog.Logger) (cache.Cache, error) {
	if !cfg.Cache.Enabled || opts.noCache {
		return cache.Nop{}, nil
	}
	if dir := filepath.Dir(cfg.Cache.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	store, err := cache.NewSQLite(cfg.Cache.Path, cfg.CacheTTL())
	if err != nil {
		// A broken cache should not block resolution; fall back to no cache.
		log.Warn("open cache", "path", cfg.Cache.Path, "error", err)
		return cache.Nop{}, nil
	}
	return store, nil
}

func newPipeline(cfg *config.Config, store cache.Cache, log *slog.Logger) *pipeline.Pipeline {
	client := &http.Client{Timeout: cfg.FetchTimeout()}
	f := fetcher.New(client, fetcherConfig(cfg), log)
	return pipeline.New(resolver.New(store, f, log), f, log)
}

func fetcherConfig(cfg *config.Config) fetcher.Config {
	return fetcher.Config{
		MaxAttempts: cfg.Fetch.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Fetch.BackoffMS) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.Fetch.MaxBackoffMS) * time.Millisecond,
	}
}

// emitFeedURL sends the feed URL to the optional side channels.
func emitFeedURL(opts *rootOptions, feedURL string, info *infoPrinter) error {
	if opts.saveURL != "" {
		if err := os.WriteFile(opts.saveURL, []byte(feedURL+"\n"), 0o644); err != nil { //nolint:gosec // plain URL
			return fmt.Errorf("save feed url: %w", err)
		}
		info.Printf("Feed URL saved to %s", opts.saveURL)
	}
	if opts.copyURL {
		if err := clipboard.WriteAll(feedURL); err != nil {
			return fmt.Errorf("copy feed url to clipboard: %w", err)
		}
		info.Printf("Feed URL copied to clipboard")
	}
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// infoPrinter writes progress lines to stderr, silenced by --quiet or when
// stderr is not a terminal.
type infoPrinter struct {
	w       io.Writer
	enabled bool
}

func newInfoPrinter(quiet bool, w io.Writer) *infoPrinter {
	return &infoPrinter{w: w, enabled: !quiet && isTerminal(w)}
}

func (p *infoPrinter) Printf(format string, args ...any) {
	if !p.enabled {
		return
	}
	fmt.Fprintf(p.w, format+"\n", args...)
}
