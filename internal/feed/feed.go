// Package feed converts raw YouTube Atom feed content into video records.
package feed

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	"ytrss/internal/model"
)

// ErrInvalidLimit reports a caller-contract violation: the record limit must
// be at least 1.
var ErrInvalidLimit = errors.New("limit must be at least 1")

// ErrMalformedFeed reports a body that cannot be parsed as a feed at all.
// Individual malformed entries inside a valid feed are skipped instead.
var ErrMalformedFeed = errors.New("malformed feed")

// Parse converts a raw feed body into at most limit video records, in the
// order the feed lists them (reverse-chronological). Entries missing a
// parseable published timestamp or a video ID are skipped.
func Parse(body []byte, limit int) ([]model.VideoRecord, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFeed, err)
	}

	var records []model.VideoRecord
	for _, item := range parsed.Items {
		if len(records) == limit {
			break
		}
		rec, ok := toRecord(item)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Title returns the feed-level title, for subscription listings.
func Title(body []byte) (string, error) {
	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedFeed, err)
	}
	return parsed.Title, nil
}

func toRecord(item *gofeed.Item) (model.VideoRecord, bool) {
	if item.PublishedParsed == nil {
		return model.VideoRecord{}, false
	}
	id := videoID(item)
	if id == "" {
		return model.VideoRecord{}, false
	}
	return model.VideoRecord{
		ID:              id,
		Title:           item.Title,
		Published:       item.PublishedParsed.UTC(),
		DurationSeconds: durationSeconds(item),
		Link:            item.Link,
	}, true
}

// videoID prefers the yt:videoId extension and falls back to the trailing
// segment of the Atom entry ID ("yt:video:<id>").
func videoID(item *gofeed.Item) string {
	if vs := item.Extensions["yt"]["videoId"]; len(vs) > 0 && vs[0].Value != "" {
		return vs[0].Value
	}
	if i := strings.LastIndex(item.GUID, ":"); i >= 0 {
		return item.GUID[i+1:]
	}
	return item.GUID
}

// durationSeconds reads the duration attribute of media:group > media:content
// when the feed carries one. YouTube feeds usually omit it; absence is nil,
// not zero.
func durationSeconds(item *gofeed.Item) *int64 {
	for _, group := range item.Extensions["media"]["group"] {
		for _, content := range group.Children["content"] {
			raw := content.Attrs["duration"]
			if raw == "" {
				continue
			}
			if secs, err := ParseDuration(raw); err == nil {
				return &secs
			}
		}
	}
	return nil
}

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDuration converts a feed duration value into whole seconds. Both the
// plain integer form ("615") and the ISO-8601 form ("PT10M15S") occur in the
// wild.
func ParseDuration(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative duration %q", raw)
		}
		return secs, nil
	}

	m := isoDurationRe.FindStringSubmatch(strings.ToUpper(raw))
	if m == nil || (m[1] == "" && m[2] == "" && m[3] == "") {
		return 0, fmt.Errorf("unrecognized duration %q", raw)
	}
	var secs int64
	for i, mult := range []int64{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		v, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("unrecognized duration %q", raw)
		}
		secs += v * mult
	}
	return secs, nil
}
