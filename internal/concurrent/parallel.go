package concurrent

import (
	"context"
	"sync"
)

// Result represents the result of a parallel operation
type Result[T any] struct {
	Value T
	Error error
	Index int // Original index in the input slice
}

// ParallelMap executes fn on each item in parallel and returns the results in input order
func ParallelMap[T any, R any](ctx context.Context, items []T, fn func(ctx context.Context, item T) (R, error)) []Result[R] {
	return ParallelMapWithLimit(ctx, items, fn, 0)
}

// ParallelMapWithLimit executes fn on each item with at most maxConcurrent calls running at once.
// maxConcurrent <= 0 means no limit.
func ParallelMapWithLimit[T any, R any](ctx context.Context, items []T, fn func(ctx context.Context, item T) (R, error), maxConcurrent int) []Result[R] {
	if maxConcurrent <= 0 {
		maxConcurrent = len(items)
	}

	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxConcurrent)

	for i, item := range items {
		wg.Add(1)
		go func(index int, it T) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			value, err := fn(ctx, it)
			results[index] = Result[R]{
				Value: value,
				Error: err,
				Index: index,
			}
		}(i, item)
	}

	wg.Wait()
	return results
}

// AllErrors returns all errors from results
func AllErrors[T any](results []Result[T]) []error {
	errors := make([]error, 0)
	for _, result := range results {
		if result.Error != nil {
			errors = append(errors, result.Error)
		}
	}
	return errors
}
