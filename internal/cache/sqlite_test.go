package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"ytrss/internal/model"
)

func newTestCache(t *testing.T, ttl time.Duration) *SQLite {
	t.Helper()
	c, err := NewSQLite(":memory:", ttl)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestStoreLookupRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 0)

	id := model.ResolvedID{Kind: model.KindChannel, Value: "UCdemo123456789012345678"}
	if err := c.Store(ctx, "https://www.youtube.com/@signalweekly", id); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, ok, err := c.Lookup(ctx, "https://www.youtube.com/@signalweekly")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit, got a miss")
	}
	if diff := cmp.Diff(id, got); diff != "" {
		t.Errorf("identifier mismatch (-want +got):\n%s", diff)
	}
}

func TestLookupNormalizesKey(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 0)

	id := model.ResolvedID{Kind: model.KindChannel, Value: "UCdemo123456789012345678"}
	if err := c.Store(ctx, "HTTPS://WWW.YOUTUBE.COM/@signalweekly", id); err != nil {
		t.Fatalf("store: %v", err)
	}

	_, ok, err := c.Lookup(ctx, "  https://www.youtube.com/@signalweekly ")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !ok {
		t.Error("equivalent URL spellings should share one entry")
	}

	entries, err := c.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}
}

func TestLookupMiss(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 0)

	_, ok, err := c.Lookup(ctx, "https://www.youtube.com/@unknown")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if ok {
		t.Error("expected a miss for an unstored reference")
	}
}

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 30*24*time.Hour)

	base := time.Date(2023, 11, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	id := model.ResolvedID{Kind: model.KindChannel, Value: "UCdemo123456789012345678"}
	if err := c.Store(ctx, "@signalweekly", id); err != nil {
		t.Fatalf("store: %v", err)
	}

	// Within the TTL the entry is served.
	c.now = func() time.Time { return base.Add(29 * 24 * time.Hour) }
	if _, ok, _ := c.Lookup(ctx, "@signalweekly"); !ok {
		t.Error("entry within TTL should be a hit")
	}

	// Past the TTL it reads as a miss but the row is retained.
	c.now = func() time.Time { return base.Add(31 * 24 * time.Hour) }
	if _, ok, _ := c.Lookup(ctx, "@signalweekly"); ok {
		t.Error("entry past TTL should read as a miss")
	}
	entries, err := c.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("stale entry should be retained until overwritten, got %d entries", len(entries))
	}

	// Revalidation overwrites and the entry is fresh again.
	if err := c.Store(ctx, "@signalweekly", id); err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, ok, _ := c.Lookup(ctx, "@signalweekly"); !ok {
		t.Error("revalidated entry should be a hit")
	}
}

func TestStoreOverwrites(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 0)

	first := model.ResolvedID{Kind: model.KindChannel, Value: "UCold0000000000000000000"}
	second := model.ResolvedID{Kind: model.KindChannel, Value: "UCnew0000000000000000000"}
	if err := c.Store(ctx, "@signalweekly", first); err != nil {
		t.Fatalf("store first: %v", err)
	}
	if err := c.Store(ctx, "@signalweekly", second); err != nil {
		t.Fatalf("store second: %v", err)
	}

	got, ok, err := c.Lookup(ctx, "@signalweekly")
	if err != nil || !ok {
		t.Fatalf("lookup: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(second, got); diff != "" {
		t.Errorf("identifier mismatch (-want +got):\n%s", diff)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 0)

	id := model.ResolvedID{Kind: model.KindChannel, Value: "UCdemo123456789012345678"}
	if err := c.Store(ctx, "@signalweekly", id); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := c.Remove(ctx, "@signalweekly"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := c.Lookup(ctx, "@signalweekly"); ok {
		t.Error("removed entry should be a miss")
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 0)

	// Clearing an empty cache is fine.
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear empty: %v", err)
	}

	refs := []string{"@one", "@two", "@three"}
	for _, ref := range refs {
		id := model.ResolvedID{Kind: model.KindChannel, Value: "UCdemo123456789012345678"}
		if err := c.Store(ctx, ref, id); err != nil {
			t.Fatalf("store %s: %v", ref, err)
		}
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	for _, ref := range refs {
		if _, ok, _ := c.Lookup(ctx, ref); ok {
			t.Errorf("reference %s should miss after clear", ref)
		}
	}
}

func TestListOrdered(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, 0)

	id := model.ResolvedID{Kind: model.KindChannel, Value: "UCdemo123456789012345678"}
	for _, ref := range []string{"@charlie", "@alpha", "@bravo"} {
		if err := c.Store(ctx, ref, id); err != nil {
			t.Fatalf("store %s: %v", ref, err)
		}
	}

	entries, err := c.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []Entry{
		{Reference: "@alpha", ID: id},
		{Reference: "@bravo", ID: id},
		{Reference: "@charlie", ID: id},
	}
	if diff := cmp.Diff(want, entries, cmpopts.IgnoreFields(Entry{}, "ResolvedAt")); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}
