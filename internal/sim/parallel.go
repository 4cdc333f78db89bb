package sim

import (
	"context"
	"sync"
)

// Sweep builds and runs n independent simulators concurrently, one per
// variant index. Each simulator owns its processors, so no state is shared
// between goroutines.
func Sweep(ctx context.Context, n int, cfg Config, build func(i int) (*Simulator, error)) ([]*Result, error) {
	results := make([]*Result, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			s, err := build(idx)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = s.Run(ctx, cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
