// Package async provides the structured fan-out primitive used when an
// authorization decision depends on many independent fact lookups.
package async

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Result is the per-item outcome of a Gather. Exactly one of Err or Value is
// meaningful.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// Gather runs fn over every item with at most workers in flight and returns
// one Result per input, in input order. One item's failure never cancels its
// siblings; only cancellation of ctx stops the fan-out early, in which case
// unstarted items report ctx.Err().
func Gather[In, Out any](ctx context.Context, items []In, workers int, fn func(context.Context, In) (Out, error)) []Result[Out] {
	if workers <= 0 {
		workers = 1
	}

	results := make([]Result[Out], len(items))
	sem := semaphore.NewWeighted(int64(workers))

	for i, item := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled: mark this and all remaining items.
			for j := i; j < len(items); j++ {
				results[j] = Result[Out]{Index: j, Err: ctx.Err()}
			}
			break
		}

		go func(i int, item In) {
			defer sem.Release(1)
			value, err := fn(ctx, item)
			results[i] = Result[Out]{Index: i, Value: value, Err: err}
		}(i, item)
	}

	// Drain the semaphore to wait for in-flight workers. Acquire with a
	// fresh context so a cancelled ctx still lets stragglers finish writing
	// their slots.
	_ = sem.Acquire(context.Background(), int64(workers))

	return results
}

// Successes filters a Gather outcome down to the values that succeeded,
// preserving input order. Failed items are reported to onErr (if non-nil)
// and dropped; this is the documented best-effort aggregation, not a hidden
// failure.
func Successes[T any](results []Result[T], onErr func(index int, err error)) []T {
	values := make([]T, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			if onErr != nil {
				onErr(r.Index, r.Err)
			}
			continue
		}
		values = append(values, r.Value)
	}
	return values
}
