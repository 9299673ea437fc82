package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ytrss/internal/model"
)

func record(title, published string, durationSeconds int64) model.VideoRecord {
	t, err := time.Parse(time.RFC3339, published)
	if err != nil {
		panic(err)
	}
	rec := model.VideoRecord{Title: title, Published: t}
	if durationSeconds > 0 {
		rec.DurationSeconds = &durationSeconds
	}
	return rec
}

var fixture = []model.VideoRecord{
	record("Python FFT Walkthrough", "2023-11-20T16:30:00Z", 615),
	record("Designing IIR Filters", "2023-11-05T10:00:00Z", 3723),
	record("Sampling Theorem in 60 Seconds", "2023-10-12T18:45:00Z", 58),
	record("Noise Reduction with Python", "2023-09-28T12:00:00Z", 0),
	record("Channel Trailer", "2023-08-01T09:15:00Z", 92),
}

func titles(records []model.VideoRecord) []string {
	var out []string
	for _, rec := range records {
		out = append(out, rec.Title)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		wantTitles []string
	}{
		{
			name:       "empty chain passes everything unchanged",
			opts:       Options{},
			wantTitles: titles(fixture),
		},
		{
			name:       "exact date",
			opts:       Options{Date: "2023-10-12"},
			wantTitles: []string{"Sampling Theorem in 60 Seconds"},
		},
		{
			name:       "after date inclusive",
			opts:       Options{After: "2023-10-12"},
			wantTitles: []string{"Python FFT Walkthrough", "Designing IIR Filters", "Sampling Theorem in 60 Seconds"},
		},
		{
			name:       "before date inclusive",
			opts:       Options{Before: "2023-09-28"},
			wantTitles: []string{"Noise Reduction with Python", "Channel Trailer"},
		},
		{
			name:       "date range",
			opts:       Options{After: "2023-09-01", Before: "2023-11-01"},
			wantTitles: []string{"Sampling Theorem in 60 Seconds", "Noise Reduction with Python"},
		},
		{
			name:       "title substring is case-insensitive",
			opts:       Options{Title: "python"},
			wantTitles: []string{"Python FFT Walkthrough", "Noise Reduction with Python"},
		},
		{
			name:       "title and date range combine with AND",
			opts:       Options{Title: "Python", After: "2023-10-01"},
			wantTitles: []string{"Python FFT Walkthrough"},
		},
		{
			name:       "min duration drops records without a known duration",
			opts:       Options{MinDurationSeconds: 60},
			wantTitles: []string{"Python FFT Walkthrough", "Designing IIR Filters", "Channel Trailer"},
		},
		{
			name:       "duration range",
			opts:       Options{MinDurationSeconds: 60, MaxDurationSeconds: 700},
			wantTitles: []string{"Python FFT Walkthrough", "Channel Trailer"},
		},
		{
			name:       "no matches",
			opts:       Options{Title: "rustlang"},
			wantTitles: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := Build(tt.opts)
			if err != nil {
				t.Fatalf("build chain: %v", err)
			}
			got := chain.Apply(fixture)
			if diff := cmp.Diff(tt.wantTitles, titles(got)); diff != "" {
				t.Errorf("titles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDurationPredicateAbsentDuration(t *testing.T) {
	noDuration := record("No Duration", "2023-10-01T00:00:00Z", 0)

	min := int64(1)
	p := Predicate{Kind: KindDurationRange, MinSeconds: &min}
	if p.Matches(noDuration) {
		t.Error("record with absent duration must never match a min-duration predicate")
	}

	max := int64(10_000)
	p = Predicate{Kind: KindDurationRange, MaxSeconds: &max}
	if p.Matches(noDuration) {
		t.Error("record with absent duration must never match a max-duration predicate")
	}
}

func TestBuildInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{name: "bad exact date", opts: Options{Date: "yesterday"}},
		{name: "bad after date", opts: Options{After: "2023-13-01"}},
		{name: "bad before date", opts: Options{Before: "01/02/2023"}},
		{name: "inverted date range", opts: Options{After: "2023-11-01", Before: "2023-10-01"}},
		{name: "negative min duration", opts: Options{MinDurationSeconds: -1}},
		{name: "inverted duration range", opts: Options{MinDurationSeconds: 600, MaxDurationSeconds: 60}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.opts)
			if !errors.Is(err, ErrInvalidFilterValue) {
				t.Errorf("want ErrInvalidFilterValue, got %v", err)
			}
		})
	}
}

func TestBuildChainShape(t *testing.T) {
	chain, err := Build(Options{Date: "2023-10-01", Title: "python", MinDurationSeconds: 60})
	if err != nil {
		t.Fatalf("build chain: %v", err)
	}
	if len(chain) != 3 {
		t.Errorf("expected 3 predicates, got %d", len(chain))
	}

	chain, err = Build(Options{})
	if err != nil {
		t.Fatalf("build empty chain: %v", err)
	}
	if len(chain) != 0 {
		t.Errorf("expected empty chain, got %d predicates", len(chain))
	}
}
