package slim

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// forEachParallel calls fn for every index in [0, n) using at most workers
// goroutines. Each call must write only to its own index's slot.
func forEachParallel(n, workers int, fn func(i int)) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers == 1 || n < 2*workers {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}
