// Package model defines the domain types used across the application.
package model

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Kind distinguishes the two identifier families the feed endpoint accepts.
type Kind string

// Supported identifier kinds.
const (
	KindChannel  Kind = "channel"
	KindPlaylist Kind = "playlist"
)

// ResolvedID is a canonical channel or playlist identifier produced by
// resolution. Channel values carry the reserved "UC" prefix; playlist values
// carry one of the playlist prefixes ("PL", "UU", "LL", "OL", "FL").
type ResolvedID struct {
	Kind  Kind
	Value string
}

// feedEndpoint is dictated by the feed provider and must not change.
const feedEndpoint = "https://www.youtube.com/feeds/videos.xml"

// FeedURL returns the public feed endpoint for the identifier.
func (r ResolvedID) FeedURL() string {
	if r.Kind == KindPlaylist {
		return fmt.Sprintf("%s?playlist_id=%s", feedEndpoint, r.Value)
	}
	return fmt.Sprintf("%s?channel_id=%s", feedEndpoint, r.Value)
}

func (r ResolvedID) String() string {
	return string(r.Kind) + ":" + r.Value
}

// VideoRecord is one parsed feed entry. DurationSeconds is nil when the feed
// carries no duration metadata; filters must treat nil as "does not match".
type VideoRecord struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Published       time.Time `json:"published"`
	DurationSeconds *int64    `json:"duration_seconds,omitempty"`
	Link            string    `json:"link"`
}

// NormalizeReference canonicalizes a raw channel reference for use as a cache
// key: surrounding whitespace is trimmed and, when the reference is a URL,
// its scheme and host are lowercased. Equivalent URLs thus share one entry.
func NormalizeReference(ref string) string {
	ref = strings.TrimSpace(ref)

	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ref
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}
