// Package render serializes video records into the supported output formats.
// Rendering is a pure projection: it never filters or reorders the records
// it is given.
package render

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"ytrss/internal/model"
)

// ErrUnknownFormat reports an output format outside the supported set.
var ErrUnknownFormat = errors.New("unknown output format")

// Format selects an output representation.
type Format string

// Supported formats.
const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatTable Format = "table"
)

// ParseFormat validates a format name supplied by the CLI or config layer.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatCSV, FormatTable:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

const publishedLayout = time.RFC3339

// Render writes the records to w in the requested format. An empty input
// renders an empty-but-valid representation for every format.
func Render(w io.Writer, records []model.VideoRecord, format Format) error {
	switch format {
	case FormatText:
		return renderText(w, records)
	case FormatJSON:
		return renderJSON(w, records)
	case FormatCSV:
		return renderCSV(w, records)
	case FormatTable:
		return renderTable(w, records)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func renderText(w io.Writer, records []model.VideoRecord) error {
	if len(records) == 0 {
		_, err := io.WriteString(w, "No videos matched.\n")
		return err
	}
	for _, rec := range records {
		var b strings.Builder
		fmt.Fprintf(&b, "Title: %s\n", rec.Title)
		fmt.Fprintf(&b, "Published: %s\n", rec.Published.Format(publishedLayout))
		if rec.DurationSeconds != nil {
			fmt.Fprintf(&b, "Duration: %s\n", clockFormat(*rec.DurationSeconds))
		}
		fmt.Fprintf(&b, "Link: %s\n\n", rec.Link)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func renderJSON(w io.Writer, records []model.VideoRecord) error {
	if records == nil {
		records = []model.VideoRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func renderCSV(w io.Writer, records []model.VideoRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "title", "published", "duration_seconds", "link"}); err != nil {
		return err
	}
	for _, rec := range records {
		duration := ""
		if rec.DurationSeconds != nil {
			duration = strconv.FormatInt(*rec.DurationSeconds, 10)
		}
		row := []string{rec.ID, rec.Title, rec.Published.Format(publishedLayout), duration, rec.Link}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// clockFormat renders whole seconds as M:SS or H:MM:SS.
func clockFormat(secs int64) string {
	h, rem := secs/3600, secs%3600
	m, s := rem/60, rem%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
