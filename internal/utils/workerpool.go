package utils

import (
	"context"
	"sync"
)

// ParallelForEach calls fn for every item using at most workers goroutines.
// Indices are handed out over a channel and each call's error lands in its
// own slot of the returned slice. When ctx is cancelled no further items
// are started; their slots hold ctx.Err().
func ParallelForEach[T any](ctx context.Context, items []T, workers int, fn func(ctx context.Context, index int, item T) error) []error {
	errors := make([]error, len(items))
	if len(items) == 0 {
		return errors
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	started := make([]bool, len(items))
	taskChan := make(chan int)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range taskChan {
				errors[idx] = fn(ctx, idx, items[idx])
			}
		}()
	}

submit:
	for i := range items {
		select {
		case <-ctx.Done():
			break submit
		case taskChan <- i:
			started[i] = true
		}
	}

	close(taskChan)
	wg.Wait()

	for i, ok := range started {
		if !ok {
			errors[i] = ctx.Err()
		}
	}
	return errors
}
