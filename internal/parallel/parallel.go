// Package parallel spreads CPU kernel loops across worker goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls how loops are split across goroutines.
type Config struct {
	Enabled      bool // Run loops concurrently when the range is large enough.
	NumWorkers   int  // Upper bound on goroutines per loop.
	MinChunkSize int  // Smallest range worth handing to a goroutine.
}

// DefaultConfig sizes the worker pool to the machine. Single-CPU
// hosts get a sequential config.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// For runs f(i) for every i in [0, n).
//
// Ranges shorter than MinChunkSize, and all ranges under a disabled
// config, run on the calling goroutine. Larger ranges are split into
// contiguous chunks, one goroutine each, and For returns once every
// chunk has finished.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	chunk := (n + cfg.NumWorkers - 1) / cfg.NumWorkers
	if chunk < cfg.MinChunkSize {
		chunk = cfg.MinChunkSize
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForBatch runs f over the (batch, channel) index grid, flattening
// the two loops into one range so chunking can cross batch
// boundaries.
func ForBatch(batch, channels int, f func(b, c int), cfg Config) {
	For(batch*channels, func(k int) {
		f(k/channels, k%channels)
	}, cfg)
}
