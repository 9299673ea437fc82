package feed

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ytrss/internal/model"
)

func loadFixture(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test-only fixture loading
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}

func TestParse(t *testing.T) {
	body := loadFixture(t, "../../testdata/youtube_feed.xml")

	records, err := Parse(body, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The fixture has 6 entries; the one without a parseable published
	// timestamp is skipped, the rest keep feed order.
	wantIDs := []string{"vid05pythonX", "vid04filters", "vid02shorts0", "vid01pynoise", "vid00archive"}
	var gotIDs []string
	for _, rec := range records {
		gotIDs = append(gotIDs, rec.ID)
	}
	if diff := cmp.Diff(wantIDs, gotIDs); diff != "" {
		t.Errorf("record IDs mismatch (-want +got):\n%s", diff)
	}

	first := records[0]
	wantFirst := model.VideoRecord{
		ID:              "vid05pythonX",
		Title:           "Python FFT Walkthrough",
		Published:       time.Date(2023, 11, 20, 16, 30, 0, 0, time.UTC),
		DurationSeconds: int64Ptr(615),
		Link:            "https://www.youtube.com/watch?v=vid05pythonX",
	}
	if diff := cmp.Diff(wantFirst, first); diff != "" {
		t.Errorf("first record mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDurationForms(t *testing.T) {
	body := loadFixture(t, "../../testdata/youtube_feed.xml")
	records, err := Parse(body, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byID := map[string]model.VideoRecord{}
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	// Plain integer seconds.
	if got := byID["vid05pythonX"].DurationSeconds; got == nil || *got != 615 {
		t.Errorf("integer duration: want 615, got %v", got)
	}
	// ISO-8601 form.
	if got := byID["vid04filters"].DurationSeconds; got == nil || *got != 3723 {
		t.Errorf("ISO duration: want 3723, got %v", got)
	}
	// No duration metadata stays nil, not zero.
	if got := byID["vid01pynoise"].DurationSeconds; got != nil {
		t.Errorf("absent duration: want nil, got %d", *got)
	}
}

func TestParseTruncatesToLimit(t *testing.T) {
	body := loadFixture(t, "../../testdata/youtube_feed.xml")

	records, err := Parse(body, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantIDs := []string{"vid05pythonX", "vid04filters"}
	var gotIDs []string
	for _, rec := range records {
		gotIDs = append(gotIDs, rec.ID)
	}
	if diff := cmp.Diff(wantIDs, gotIDs); diff != "" {
		t.Errorf("truncated IDs mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInvalidLimit(t *testing.T) {
	body := loadFixture(t, "../../testdata/youtube_feed.xml")

	for _, limit := range []int{0, -1} {
		_, err := Parse(body, limit)
		if !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("limit %d: want ErrInvalidLimit, got %v", limit, err)
		}
	}
}

func TestParseMalformedFeed(t *testing.T) {
	_, err := Parse([]byte("this is not a feed at all"), 5)
	if !errors.Is(err, ErrMalformedFeed) {
		t.Errorf("want ErrMalformedFeed, got %v", err)
	}
}

func TestTitle(t *testing.T) {
	body := loadFixture(t, "../../testdata/youtube_feed.xml")

	title, err := Title(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if title != "Signal Processing Weekly" {
		t.Errorf("title mismatch: got %q", title)
	}
}

func TestParseDurationValues(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "615", want: 615},
		{raw: "0", want: 0},
		{raw: "PT58S", want: 58},
		{raw: "PT10M15S", want: 615},
		{raw: "PT1H2M3S", want: 3723},
		{raw: "PT2H", want: 7200},
		{raw: "pt5m", want: 300},
		{raw: "-3", wantErr: true},
		{raw: "PT", wantErr: true},
		{raw: "ten minutes", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDuration(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %d", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func int64Ptr(v int64) *int64 { return &v }
