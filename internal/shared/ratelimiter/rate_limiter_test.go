package ratelimiter

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestIntervalPacer_FirstCallIsImmediate(t *testing.T) {
	t.Parallel()

	p := NewIntervalPacer(100 * time.Millisecond)

	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("first Wait() took %v, want immediate", elapsed)
	}
}

func TestIntervalPacer_SpacesCalls(t *testing.T) {
	t.Parallel()

	interval := 50 * time.Millisecond
	p := NewIntervalPacer(interval)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	// 3回目の許可は最短でも 2*interval 後
	if elapsed := time.Since(start); elapsed < 2*interval {
		t.Errorf("3 calls finished in %v, want at least %v", elapsed, 2*interval)
	}
}

func TestIntervalPacer_ContextCancel(t *testing.T) {
	t.Parallel()

	p := NewIntervalPacer(10 * time.Second)

	// 1回目で待機枠を消費
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Wait(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("Wait() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestIntervalPacer_ConcurrentCallsSerialize(t *testing.T) {
	t.Parallel()

	interval := 30 * time.Millisecond
	p := NewIntervalPacer(interval)

	const n = 4
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Wait(context.Background()); err != nil {
				t.Errorf("Wait() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if elapsed := time.Since(start); elapsed < (n-1)*interval {
		t.Errorf("%d concurrent calls finished in %v, want at least %v", n, elapsed, (n-1)*interval)
	}
}
