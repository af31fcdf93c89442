package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	if err := store.Save(ctx, sampleRecord("ses-1")); err != nil {
		t.Fatal(err)
	}
	rec, err := store.Load(ctx, "ses-1")
	if err != nil || rec.Source != "<p>b</p>" {
		t.Fatalf("Load = %+v, %v", rec, err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Load(ctx, "ses-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}

	store.Save(ctx, sampleRecord("ses-2"))
	store.Delete(ctx, "ses-2")
	if _, err := store.Load(ctx, "ses-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	store.Save(ctx, sampleRecord("ses-1"))
	now = now.Add(30 * time.Second)
	store.Save(ctx, sampleRecord("ses-2"))

	now = now.Add(45 * time.Second)
	if n := store.Sweep(); n != 1 {
		t.Fatalf("Sweep = %d, want 1", n)
	}
	if len(store.entries) != 1 {
		t.Fatalf("entries = %d", len(store.entries))
	}
	if _, err := store.Load(ctx, "ses-2"); err != nil {
		t.Fatalf("ses-2 should survive: %v", err)
	}
}

func TestStoresSatisfyInterface(t *testing.T) {
	var _ Store = NewMemoryStore(time.Minute)
	var _ Store = (*RedisStore)(nil)
}
