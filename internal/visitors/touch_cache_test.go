package visitors

import (
	"fmt"
	"testing"
	"time"
)

func TestTouchCacheStaysWithinLimit(t *testing.T) {
	cache := newTouchCache(time.Minute, 3)
	start := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	for index := range 10 {
		cache.record(fmt.Sprintf("visitor-%d", index), start)
		if size := cache.len(); size > 3 {
			t.Fatalf("expected at most 3 entries, got %d after %d records", size, index+1)
		}
	}
}

func TestTouchCacheSweepsExpiredEntriesFirst(t *testing.T) {
	cache := newTouchCache(time.Minute, 2)
	start := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	cache.record("stale", start)
	cache.record("recent", start.Add(50*time.Second))
	later := start.Add(90 * time.Second)
	cache.record("newcomer", later)

	if cache.fresh("stale", later) {
		t.Fatalf("expected stale entry to be gone")
	}
	if !cache.fresh("recent", later) || !cache.fresh("newcomer", later) {
		t.Fatalf("expected fresh entries to survive the sweep")
	}
	if size := cache.len(); size != 2 {
		t.Fatalf("expected 2 entries, got %d", size)
	}
}

func TestTouchCacheFreshness(t *testing.T) {
	cache := newTouchCache(time.Minute, 10)
	start := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	cache.record("visitor-a", start)

	if !cache.fresh("visitor-a", start.Add(59*time.Second)) {
		t.Fatalf("expected entry to be fresh inside the interval")
	}
	if cache.fresh("visitor-a", start.Add(time.Minute)) {
		t.Fatalf("expected entry to expire at the interval")
	}
	if cache.fresh("visitor-b", start) {
		t.Fatalf("expected unknown visitor not to be fresh")
	}
}
