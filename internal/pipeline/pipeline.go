// Package pipeline orchestrates the resolve-fetch-parse-filter sequence for
// one invocation.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"ytrss/internal/feed"
	"ytrss/internal/fetcher"
	"ytrss/internal/filter"
	"ytrss/internal/model"
	"ytrss/internal/resolver"
)

// FeedFetcher retrieves a URL's raw body. Satisfied by *fetcher.Fetcher.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Result, error)
}

// Request carries everything one run needs. ExplicitID, when set, skips
// resolution entirely.
type Request struct {
	Reference  string
	ExplicitID string
	Limit      int
	Filters    filter.Options

	// BypassCache forces re-resolution; DisableCache also suppresses the
	// cache write afterwards.
	BypassCache  bool
	DisableCache bool
}

// Outcome is a completed run.
type Outcome struct {
	ID      model.ResolvedID
	FeedURL string
	Records []model.VideoRecord
	// Attempts is the number of HTTP attempts the feed fetch took.
	Attempts int
}

// Pipeline wires the stages together.
type Pipeline struct {
	resolver *resolver.Resolver
	fetcher  FeedFetcher
	log      *slog.Logger
}

// New creates a Pipeline.
func New(r *resolver.Resolver, f FeedFetcher, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{resolver: r, fetcher: f, log: log}
}

// Resolve produces the canonical identifier for a request without fetching
// the feed. It backs the dry-run and subscription-list paths.
func (p *Pipeline) Resolve(ctx context.Context, req Request) (model.ResolvedID, error) {
	if req.ExplicitID != "" {
		return resolver.ParseExplicitID(req.ExplicitID)
	}
	return p.resolver.Resolve(ctx, req.Reference, resolver.Options{
		BypassCache:  req.BypassCache,
		DisableCache: req.DisableCache,
	})
}

// Run executes the full pipeline. Caller-contract violations (bad limit, bad
// filter values) are reported before any network call; later failures keep
// the kind of the stage that produced them.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Outcome, error) {
	if req.Limit < 1 {
		return nil, fmt.Errorf("%w: got %d", feed.ErrInvalidLimit, req.Limit)
	}
	chain, err := filter.Build(req.Filters)
	if err != nil {
		return nil, err
	}

	id, err := p.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	feedURL := id.FeedURL()
	p.log.Debug("resolved", "id", id.String(), "feed_url", feedURL)

	res, err := p.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	records, err := feed.Parse(res.Body, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	return &Outcome{
		ID:       id,
		FeedURL:  feedURL,
		Records:  chain.Apply(records),
		Attempts: res.Attempts,
	}, nil
}
