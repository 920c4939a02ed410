package core

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStorage_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage(0)

	if _, found, err := store.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("expected missing key, got found=%v err=%v", found, err)
	}
	if err := store.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, found, err := store.Get(ctx, "k")
	if err != nil || !found || value != "v2" {
		t.Fatalf("expected v2, got %q found=%v err=%v", value, found, err)
	}
	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty storage, got %d entries", store.Len())
	}
	if err := store.Set(ctx, "  ", "v"); err == nil {
		t.Fatalf("expected empty key to be rejected")
	}
}

func TestMemoryStorage_ExpiresEntriesAfterTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if err := store.Set(ctx, "stale", "v"); err != nil {
		t.Fatalf("set stale: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, found, _ := store.Get(ctx, "stale"); found {
		t.Fatalf("expected stale entry to expire")
	}
	if err := store.Set(ctx, "fresh", "v"); err != nil {
		t.Fatalf("set fresh: %v", err)
	}
	if _, found, _ := store.Get(ctx, "fresh"); !found {
		t.Fatalf("expected fresh entry to remain")
	}
}
