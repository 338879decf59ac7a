package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}

	if err := store.Set(ctx, Key("foods", "list"), []byte("payload"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.Get(ctx, "foods:list")
	if err != nil || string(got) != "payload" {
		t.Fatalf("unexpected get result %q, %v", got, err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_ = store.Set(ctx, "k", []byte("v"), time.Second)
	now = now.Add(2 * time.Second)

	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected expired entry, got %v", err)
	}
}

func TestMemoryStoreDeletePrefix(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Set(ctx, "categories:/api/categories", []byte("a"), 0)
	_ = store.Set(ctx, "categories:/api/categories?page=2", []byte("b"), 0)
	_ = store.Set(ctx, "foods:/api/foods", []byte("c"), 0)

	if err := store.DeletePrefix(ctx, "categories:"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := store.Get(ctx, "categories:/api/categories"); !errors.Is(err, ErrMiss) {
		t.Fatal("expected categories entry to be removed")
	}
	if _, err := store.Get(ctx, "foods:/api/foods"); err != nil {
		t.Fatalf("foods entry should survive: %v", err)
	}
}

func TestMemoryStoreKeepsEntryReplacedDuringExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_ = store.Set(ctx, "k", []byte("old"), time.Second)
	now = now.Add(2 * time.Second)

	// Replace the key between the read of the stale entry and its removal.
	replaced := false
	store.now = func() time.Time {
		if !replaced {
			replaced = true
			_ = store.Set(ctx, "k", []byte("fresh"), 0)
		}
		return now
	}

	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected stale read to miss, got %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil || string(got) != "fresh" {
		t.Fatalf("fresh entry was dropped: %q, %v", got, err)
	}
}
