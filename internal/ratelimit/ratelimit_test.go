package ratelimit

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"
)

func TestZeroIntervalReturnsImmediately(t *testing.T) {
	l := New(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("100 waits with zero interval took %v", elapsed)
	}
}

func TestGlobalSpacing(t *testing.T) {
	const (
		interval = 30 * time.Millisecond
		callers  = 8
	)

	l := New(interval)

	var (
		mu     sync.Mutex
		starts []time.Time
		wg     sync.WaitGroup
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Wait(context.Background()); err != nil {
				t.Errorf("Wait: %v", err)
				return
			}
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(starts) != callers {
		t.Fatalf("expected %d grants, got %d", callers, len(starts))
	}

	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	// Allow a small tolerance for the gap between the timer firing and
	// the timestamp being taken.
	const slack = 5 * time.Millisecond
	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap < interval-slack {
			t.Errorf("grants %d and %d only %v apart, want >= %v", i-1, i, gap, interval)
		}
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l := New(time.Hour)

	// Consume the immediate slot so the next caller must wait.
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.Wait(ctx)
	if err == nil {
		t.Fatal("expected context error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("canceled Wait took %v", elapsed)
	}
}
