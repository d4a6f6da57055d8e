package infra

import (
	"context"
	"testing"
	"time"

	"sunrise-finder/admission/domain"
)

func TestStore_GetSameKeyReturnsSameLimiter(t *testing.T) {
	s := NewStore(10, 1)

	l1 := s.Get(domain.Key("api.sunrise-sunset.org"))
	l2 := s.Get(domain.Key("api.sunrise-sunset.org"))
	if l1 != l2 {
		t.Fatalf("expected same limiter pointer for same key")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.Len())
	}
}

func TestStore_LowBurstDelaysSecondWait(t *testing.T) {
	s := NewStore(0.02, 1)
	lim := s.Get(domain.Key("k"))

	if err := lim.Wait(context.Background()); err != nil {
		t.Fatalf("expected first Wait to pass, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := lim.Wait(ctx); err == nil {
		t.Fatalf("expected second Wait to fail within deadline (burst=1, rps=0.02)")
	}
}

func TestStore_ZeroBurstIsRaisedToOne(t *testing.T) {
	s := NewStore(5, 0)
	if s.Burst() != 1 {
		t.Fatalf("expected burst=1, got %d", s.Burst())
	}
	if s.RPS() != 5 {
		t.Fatalf("expected rps=5, got %v", s.RPS())
	}
}

func TestStore_CleanupRemovesIdleEntries(t *testing.T) {
	now := time.Now()
	s := NewStore(10, 1, WithIdleTTL(time.Minute), WithCleanupEvery(0))
	s.now = func() time.Time { return now }

	before := s.Get(domain.Key("k"))
	now = now.Add(2 * time.Minute)

	s.Cleanup()

	after := s.Get(domain.Key("k"))
	if before == after {
		t.Fatalf("expected limiter to be recreated after cleanup")
	}
}

func TestStore_StartJanitorStopsWithContext(t *testing.T) {
	s := NewStore(10, 1, WithIdleTTL(time.Nanosecond), WithCleanupEvery(time.Millisecond))
	_ = s.Get(domain.Key("k"))

	ctx, cancel := context.WithCancel(context.Background())
	s.StartJanitor(ctx)

	deadline := time.Now().Add(time.Second)
	for s.Len() != 0 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("janitor did not remove idle entry")
		}
		time.Sleep(2 * time.Millisecond)
	}
	cancel()
}
