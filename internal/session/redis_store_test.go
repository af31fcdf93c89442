package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"htmleditor/internal/history"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://"+s.Addr(), time.Hour)
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	return store, s
}

func sampleRecord(id string) Record {
	return Record{
		ID:      id,
		Source:  "<p>b</p>",
		History: history.State{Past: []string{"<p>a</p>"}},
		Version: 2,
	}
}

func TestNewRedisStore(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	store, err := NewRedisStore("redis://"+s.Addr(), time.Hour)
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewRedisStoreBadURL(t *testing.T) {
	if _, err := NewRedisStore("not-a-url", time.Hour); err == nil {
		t.Fatal("expected error")
	}
}

func TestRedisSaveAndLoad(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	if err := store.Save(ctx, sampleRecord("ses-1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	rec, err := store.Load(ctx, "ses-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rec.Source != "<p>b</p>" || rec.Version != 2 || len(rec.History.Past) != 1 || rec.History.Past[0] != "<p>a</p>" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if ttl := s.TTL("htmleditor:session:ses-1"); ttl != time.Hour {
		t.Errorf("ttl = %v", ttl)
	}
}

func TestRedisLoadExpired(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	if err := store.Save(ctx, sampleRecord("ses-1")); err != nil {
		t.Fatal(err)
	}
	s.FastForward(2 * time.Hour)
	if _, err := store.Load(ctx, "ses-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisDelete(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	store.Save(ctx, sampleRecord("ses-1"))
	store.Save(ctx, sampleRecord("ses-2"))
	if err := store.Delete(ctx, "ses-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Load(ctx, "ses-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Load(ctx, "ses-2"); err != nil {
		t.Errorf("ses-2 should remain: %v", err)
	}
	if err := store.Delete(ctx, "missing"); err != nil {
		t.Errorf("deleting a missing session failed: %v", err)
	}
}

func TestRedisCorruptRecord(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	s.Set("htmleditor:session:bad", "{not json")
	_, err := store.Load(context.Background(), "bad")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}
