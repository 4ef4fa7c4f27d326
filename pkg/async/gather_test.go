package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGather_CollectsAllResults(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	results := Gather(context.Background(), items, 3, func(ctx context.Context, n int) (int, error) {
		return n * 10, nil
	})

	if len(results) != len(items) {
		t.Fatalf("got %d results, want %d", len(results), len(items))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("item %d: unexpected error %v", i, r.Err)
		}
		if r.Value != items[i]*10 {
			t.Errorf("item %d: value = %d, want %d (order preserved)", i, r.Value, items[i]*10)
		}
	}
}

func TestGather_OneFailureDoesNotCancelSiblings(t *testing.T) {
	var completed atomic.Int32
	boom := errors.New("boom")

	results := Gather(context.Background(), []int{0, 1, 2, 3}, 2, func(ctx context.Context, n int) (int, error) {
		if n == 1 {
			return 0, boom
		}
		completed.Add(1)
		return n, nil
	})

	if completed.Load() != 3 {
		t.Errorf("completed = %d, want 3 siblings unaffected by the failure", completed.Load())
	}
	if results[1].Err == nil {
		t.Error("failed item should carry its error")
	}
	for _, i := range []int{0, 2, 3} {
		if results[i].Err != nil {
			t.Errorf("item %d should have succeeded: %v", i, results[i].Err)
		}
	}
}

func TestGather_BoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	var mu sync.Mutex

	Gather(context.Background(), make([]struct{}, 20), 4, func(ctx context.Context, _ struct{}) (struct{}, error) {
		n := inFlight.Add(1)
		mu.Lock()
		if n > peak.Load() {
			peak.Store(n)
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})

	if p := peak.Load(); p > 4 {
		t.Errorf("peak concurrency = %d, want <= 4", p)
	}
}

func TestGather_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{}, 1)
	go func() {
		<-started
		cancel()
	}()

	results := Gather(ctx, make([]int, 50), 1, func(ctx context.Context, _ int) (int, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		select {
		case <-time.After(5 * time.Millisecond):
			return 0, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	})

	var cancelled int
	for _, r := range results {
		if errors.Is(r.Err, context.Canceled) {
			cancelled++
		}
	}
	if cancelled == 0 {
		t.Error("cancellation should mark unstarted items with ctx.Err()")
	}
}

func TestSuccesses_DropsFailuresWithDiagnostic(t *testing.T) {
	results := []Result[string]{
		{Index: 0, Value: "a"},
		{Index: 1, Err: fmt.Errorf("lookup failed")},
		{Index: 2, Value: "c"},
	}

	var reported []int
	values := Successes(results, func(i int, err error) {
		reported = append(reported, i)
	})

	if len(values) != 2 || values[0] != "a" || values[1] != "c" {
		t.Errorf("values = %v, want [a c] in order", values)
	}
	if len(reported) != 1 || reported[0] != 1 {
		t.Errorf("reported = %v, want the failed index logged", reported)
	}
}
