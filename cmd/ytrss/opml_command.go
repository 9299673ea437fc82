package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"ytrss/internal/feed"
	"ytrss/internal/fetcher"
	"ytrss/internal/opml"
	"ytrss/internal/pipeline"
	"ytrss/internal/resolver"
)

func newOPMLCommand(opts *rootOptions) *cobra.Command {
	var outPath string
	var withTitles bool
	var listTitle string

	cmd := &cobra.Command{
		Use:   "opml <reference>...",
		Short: "Build an OPML subscription list from channel references",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			log := newLogger(cfg.Log.Level)

			store, err := openCache(cfg, opts, log)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			client := &http.Client{Timeout: cfg.FetchTimeout()}
			f := fetcher.New(client, fetcherConfig(cfg), log)
			p := pipeline.New(resolver.New(store, f, log), f, log)

			var subs []opml.Subscription
			for _, reference := range args {
				req := pipeline.Request{
					Reference:    reference,
					BypassCache:  opts.refresh,
					DisableCache: opts.noCache,
				}
				id, err := p.Resolve(ctx, req)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", reference, err)
				}
				sub := opml.Subscription{FeedURL: id.FeedURL()}
				if withTitles {
					res, err := f.Fetch(ctx, sub.FeedURL)
					if err != nil {
						return fmt.Errorf("fetch feed title: %w", err)
					}
					sub.Title, err = feed.Title(res.Body)
					if err != nil {
						return fmt.Errorf("read feed title: %w", err)
					}
				}
				subs = append(subs, sub)
			}

			doc, err := opml.Render(listTitle, subs)
			if err != nil {
				return err
			}
			if outPath != "" {
				if err := os.WriteFile(outPath, doc, 0o644); err != nil { //nolint:gosec // plain subscription list
					return fmt.Errorf("write opml: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d subscriptions to %s\n", len(subs), outPath)
				return nil
			}
			_, err = cmd.OutOrStdout().Write(doc)
			return err
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "write the OPML document to this file instead of stdout")
	cmd.Flags().BoolVar(&withTitles, "titles", false, "fetch each feed once to fill in channel titles")
	cmd.Flags().StringVar(&listTitle, "title", "ytrss subscriptions", "document title")

	return cmd
}
