package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingLister struct {
	names []string
	err   error
	calls int
}

func (l *countingLister) ListModels(ctx context.Context) ([]string, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.names, nil
}

func TestModelCacheServesFreshValue(t *testing.T) {
	lister := &countingLister{names: []string{"llama3.1:8b"}}
	cache := NewModelCache(lister, time.Hour)

	for i := 0; i < 3; i++ {
		names, err := cache.Names(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(names) != 1 || names[0] != "llama3.1:8b" {
			t.Fatalf("unexpected names: %v", names)
		}
	}
	if lister.calls != 1 {
		t.Errorf("fresh cache must not refetch, got %d fetches", lister.calls)
	}
}

func TestModelCacheRefetchesWhenStale(t *testing.T) {
	lister := &countingLister{names: []string{"llama3.1:8b"}}
	cache := NewModelCache(lister, time.Nanosecond)

	if _, err := cache.Names(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := cache.Names(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lister.calls != 2 {
		t.Errorf("stale cache must refetch, got %d fetches", lister.calls)
	}
}

func TestModelCacheKeepsStaleValueOnFailure(t *testing.T) {
	lister := &countingLister{names: []string{"llama3.1:8b"}}
	cache := NewModelCache(lister, time.Nanosecond)

	if _, err := cache.Names(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(time.Millisecond)
	lister.err = errors.New("ollama down")

	// The stale value is served without error, and because the timestamp was
	// not advanced every subsequent call retries the fetch.
	for i := 0; i < 3; i++ {
		names, err := cache.Names(context.Background())
		if err != nil {
			t.Fatalf("expected stale value, got error: %v", err)
		}
		if len(names) != 1 || names[0] != "llama3.1:8b" {
			t.Fatalf("unexpected names: %v", names)
		}
	}
	if lister.calls != 4 {
		t.Errorf("failed fetches must retry immediately, got %d fetches", lister.calls)
	}

	// Recovery picks up the new list.
	lister.err = nil
	lister.names = []string{"llama3.1:8b", "qwen2.5:7b"}
	names, err := cache.Names(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("expected refreshed list, got %v", names)
	}
}

func TestModelCacheErrorsWithoutPriorValue(t *testing.T) {
	lister := &countingLister{err: errors.New("ollama down")}
	cache := NewModelCache(lister, time.Hour)

	if _, err := cache.Names(context.Background()); err == nil {
		t.Fatal("expected error when no previous value exists")
	}
}

func TestModelCacheRefreshForcesFetch(t *testing.T) {
	lister := &countingLister{names: []string{"llama3.1:8b"}}
	cache := NewModelCache(lister, time.Hour)

	if _, err := cache.Names(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lister.calls != 2 {
		t.Errorf("Refresh must bypass freshness, got %d fetches", lister.calls)
	}
}
