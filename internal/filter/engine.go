// Package filter implements the video record matching engine.
package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ytrss/internal/model"
)

// ErrInvalidFilterValue reports a filter option that cannot be compiled into a
// predicate. It is returned before any network call is made.
var ErrInvalidFilterValue = errors.New("invalid filter value")

// Kind defines the type of predicate.
type Kind string

// Supported predicate kinds.
const (
	KindExactDate     Kind = "exact_date"
	KindDateRange     Kind = "date_range"
	KindTitleContains Kind = "title_contains"
	KindDurationRange Kind = "duration_range"
)

// Predicate is a single filtering rule over video records. The parameter
// fields used depend on Kind; unused fields stay zero.
type Predicate struct {
	Kind Kind

	Date   time.Time  // KindExactDate: calendar date, midnight UTC
	After  *time.Time // KindDateRange: inclusive lower bound
	Before *time.Time // KindDateRange: inclusive upper bound

	Substring string // KindTitleContains: matched case-insensitively

	MinSeconds *int64 // KindDurationRange: inclusive lower bound
	MaxSeconds *int64 // KindDurationRange: inclusive upper bound
}

// Matches checks whether a record passes the predicate. It is total: records
// with no known duration fail every duration predicate rather than erroring.
func (p Predicate) Matches(rec model.VideoRecord) bool {
	switch p.Kind {
	case KindExactDate:
		return dateOf(rec.Published).Equal(p.Date)
	case KindDateRange:
		d := dateOf(rec.Published)
		if p.After != nil && d.Before(*p.After) {
			return false
		}
		if p.Before != nil && d.After(*p.Before) {
			return false
		}
		return true
	case KindTitleContains:
		return strings.Contains(strings.ToLower(rec.Title), strings.ToLower(p.Substring))
	case KindDurationRange:
		if rec.DurationSeconds == nil {
			return false
		}
		if p.MinSeconds != nil && *rec.DurationSeconds < *p.MinSeconds {
			return false
		}
		if p.MaxSeconds != nil && *rec.DurationSeconds > *p.MaxSeconds {
			return false
		}
		return true
	}
	return false
}

// Chain is an ordered AND-combination of predicates. An empty chain passes
// every record.
type Chain []Predicate

// Match checks whether a record passes every predicate in the chain.
func (c Chain) Match(rec model.VideoRecord) bool {
	for _, p := range c {
		if !p.Matches(rec) {
			return false
		}
	}
	return true
}

// Apply returns the records that pass the chain, preserving their order.
func (c Chain) Apply(records []model.VideoRecord) []model.VideoRecord {
	if len(c) == 0 {
		return records
	}
	var kept []model.VideoRecord
	for _, rec := range records {
		if c.Match(rec) {
			kept = append(kept, rec)
		}
	}
	return kept
}

// Options holds raw filter values as supplied by the CLI or config layer.
// Dates use the YYYY-MM-DD form; durations are whole seconds with zero
// meaning unset.
type Options struct {
	Date   string
	After  string
	Before string
	Title  string

	MinDurationSeconds int64
	MaxDurationSeconds int64
}

// Build compiles filter options into a chain, validating every value.
// The result is order-independent: predicates combine with AND.
func Build(opts Options) (Chain, error) {
	var chain Chain

	if opts.Date != "" {
		d, err := parseDate(opts.Date)
		if err != nil {
			return nil, err
		}
		chain = append(chain, Predicate{Kind: KindExactDate, Date: d})
	}

	if opts.After != "" || opts.Before != "" {
		p := Predicate{Kind: KindDateRange}
		if opts.After != "" {
			d, err := parseDate(opts.After)
			if err != nil {
				return nil, err
			}
			p.After = &d
		}
		if opts.Before != "" {
			d, err := parseDate(opts.Before)
			if err != nil {
				return nil, err
			}
			p.Before = &d
		}
		if p.After != nil && p.Before != nil && p.After.After(*p.Before) {
			return nil, fmt.Errorf("%w: after date %s is past before date %s",
				ErrInvalidFilterValue, opts.After, opts.Before)
		}
		chain = append(chain, p)
	}

	if opts.Title != "" {
		chain = append(chain, Predicate{Kind: KindTitleContains, Substring: opts.Title})
	}

	if opts.MinDurationSeconds != 0 || opts.MaxDurationSeconds != 0 {
		if opts.MinDurationSeconds < 0 || opts.MaxDurationSeconds < 0 {
			return nil, fmt.Errorf("%w: duration bounds cannot be negative", ErrInvalidFilterValue)
		}
		p := Predicate{Kind: KindDurationRange}
		if opts.MinDurationSeconds > 0 {
			v := opts.MinDurationSeconds
			p.MinSeconds = &v
		}
		if opts.MaxDurationSeconds > 0 {
			v := opts.MaxDurationSeconds
			p.MaxSeconds = &v
		}
		if p.MinSeconds != nil && p.MaxSeconds != nil && *p.MinSeconds > *p.MaxSeconds {
			return nil, fmt.Errorf("%w: min duration %ds exceeds max duration %ds",
				ErrInvalidFilterValue, opts.MinDurationSeconds, opts.MaxDurationSeconds)
		}
		chain = append(chain, p)
	}

	return chain, nil
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidFilterValue, s)
	}
	return d, nil
}

// dateOf truncates a timestamp to its UTC calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
