// Package resolver turns raw channel references (legacy IDs, handles,
// channel/vanity URLs, playlist URLs) into canonical identifiers.
package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ytrss/internal/cache"
	"ytrss/internal/fetcher"
	"ytrss/internal/model"
)

// Resolution failures.
var (
	// ErrInvalidReference reports an input whose shape is not recognized as
	// any accepted reference form. Never retried.
	ErrInvalidReference = errors.New("unrecognized channel reference")
	// ErrResolutionFailed reports a network-backed resolution that could not
	// produce a channel ID.
	ErrResolutionFailed = errors.New("channel resolution failed")
	// ErrNoChannelID reports a fetched channel page with no channel-ID marker.
	ErrNoChannelID = errors.New("no channel id marker in page")
)

var (
	channelIDRe = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)
	ogURLRe     = regexp.MustCompile(`/channel/(UC[A-Za-z0-9_-]+)`)

	// The page embeds the canonical ID in script JSON under either key.
	scriptMarkerRes = []*regexp.Regexp{
		regexp.MustCompile(`"channelId":"(UC[A-Za-z0-9_-]+)"`),
		regexp.MustCompile(`"channel_id":"(UC[A-Za-z0-9_-]+)"`),
	}
)

var playlistPrefixes = []string{"PL", "UU", "LL", "OL", "FL"}

// PageFetcher retrieves a URL's raw body. Satisfied by *fetcher.Fetcher.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Result, error)
}

// Options control cache behavior for a single resolution.
type Options struct {
	// BypassCache forces the miss path without touching stored entries; a
	// successful resolution still overwrites the entry.
	BypassCache bool
	// DisableCache additionally suppresses the store after resolution.
	DisableCache bool
}

// Resolver resolves references, consulting the cache before any network call.
type Resolver struct {
	cache   cache.Cache
	fetcher PageFetcher
	log     *slog.Logger
}

// New creates a Resolver.
func New(c cache.Cache, f PageFetcher, log *slog.Logger) *Resolver {
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{cache: c, fetcher: f, log: log}
}

// Resolve classifies a reference and produces its canonical identifier.
// Bare channel IDs, /channel/ URLs, and playlist URLs resolve without any
// network call; handles and vanity paths require fetching the channel page.
func (r *Resolver) Resolve(ctx context.Context, reference string, opts Options) (model.ResolvedID, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return model.ResolvedID{}, fmt.Errorf("%w: empty input", ErrInvalidReference)
	}

	if channelIDRe.MatchString(ref) {
		return model.ResolvedID{Kind: model.KindChannel, Value: ref}, nil
	}

	if strings.HasPrefix(ref, "@") {
		return r.resolvePage(ctx, ref, "https://www.youtube.com/"+ref, opts)
	}

	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return model.ResolvedID{}, fmt.Errorf("%w: %q", ErrInvalidReference, reference)
	}

	if list := u.Query().Get("list"); list != "" {
		return model.ResolvedID{Kind: model.KindPlaylist, Value: list}, nil
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch {
	case segments[0] == "channel" && len(segments) > 1 && strings.HasPrefix(segments[1], "UC"):
		return model.ResolvedID{Kind: model.KindChannel, Value: segments[1]}, nil
	case strings.HasPrefix(segments[0], "@"),
		(segments[0] == "user" || segments[0] == "c") && len(segments) > 1:
		return r.resolvePage(ctx, ref, ref, opts)
	}

	return model.ResolvedID{}, fmt.Errorf("%w: %q", ErrInvalidReference, reference)
}

// resolvePage is the network-backed branch: cache lookup, page fetch, marker
// scan, cache store.
func (r *Resolver) resolvePage(ctx context.Context, reference, pageURL string, opts Options) (model.ResolvedID, error) {
	if !opts.BypassCache {
		id, ok, err := r.cache.Lookup(ctx, reference)
		if err != nil {
			r.log.Warn("cache lookup failed", "reference", reference, "error", err)
		} else if ok {
			r.log.Debug("cache hit", "reference", reference, "id", id.Value)
			return id, nil
		}
	}

	res, err := r.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return model.ResolvedID{}, fmt.Errorf("%w: %w", ErrResolutionFailed, err)
	}

	value, ok := extractChannelID(res.Body)
	if !ok {
		return model.ResolvedID{}, fmt.Errorf("%w: %w: %s", ErrResolutionFailed, ErrNoChannelID, pageURL)
	}
	id := model.ResolvedID{Kind: model.KindChannel, Value: value}

	if !opts.DisableCache {
		// A failed write is a warning, not a failure: the resolution result
		// still flows downstream.
		if err := r.cache.Store(ctx, reference, id); err != nil {
			r.log.Warn("cache store failed", "reference", reference, "error", err)
		}
	}
	return id, nil
}

// extractChannelID scans a channel page for the canonical channel-ID marker:
// first the og:url meta tag, then the script bodies.
func extractChannelID(body []byte) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", false
	}

	if content, ok := doc.Find(`meta[property="og:url"]`).Attr("content"); ok {
		if m := ogURLRe.FindStringSubmatch(content); m != nil {
			return m[1], true
		}
	}

	var found string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, re := range scriptMarkerRes {
			if m := re.FindStringSubmatch(s.Text()); m != nil {
				found = m[1]
				return false
			}
		}
		return true
	})
	return found, found != ""
}

// ParseExplicitID constructs an identifier from an explicitly supplied ID,
// skipping resolution entirely. Channel IDs carry the UC prefix; playlist
// IDs one of the playlist prefixes.
func ParseExplicitID(raw string) (model.ResolvedID, error) {
	id := strings.TrimSpace(raw)
	if strings.HasPrefix(id, "UC") && len(id) > 2 {
		return model.ResolvedID{Kind: model.KindChannel, Value: id}, nil
	}
	for _, prefix := range playlistPrefixes {
		if strings.HasPrefix(id, prefix) && len(id) > len(prefix) {
			return model.ResolvedID{Kind: model.KindPlaylist, Value: id}, nil
		}
	}
	return model.ResolvedID{}, fmt.Errorf("%w: %q is not a channel or playlist id", ErrInvalidReference, raw)
}
