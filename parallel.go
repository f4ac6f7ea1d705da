package caravel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// ============================================================================
// Parallel Execution Configuration
// ============================================================================

// ParallelConfig controls parallelization behavior
type ParallelConfig struct {
	// MinRowsForParallel is the minimum elements to justify parallel overhead
	MinRowsForParallel int

	// MorselSize is the number of elements per work unit (default 4096)
	MorselSize int

	// MaxWorkers limits the number of worker goroutines (0 = GOMAXPROCS)
	MaxWorkers int

	// Enabled controls whether parallelism is used at all
	Enabled bool
}

// DefaultParallelConfig returns sensible defaults
func DefaultParallelConfig() *ParallelConfig {
	return &ParallelConfig{
		MinRowsForParallel: 8192, // ~8K elements minimum
		MorselSize:         4096, // ~4K elements per morsel
		MaxWorkers:         0,    // Use all CPUs
		Enabled:            true,
	}
}

// globalConfig is the default configuration
var globalConfig = DefaultParallelConfig()

// SetParallelConfig sets the global parallelization configuration
func SetParallelConfig(cfg *ParallelConfig) {
	if cfg != nil {
		globalConfig = cfg
	}
}

// GetParallelConfig returns the current configuration
func GetParallelConfig() *ParallelConfig {
	return globalConfig
}

// numWorkers returns the number of workers to use
func (cfg *ParallelConfig) numWorkers() int {
	if cfg.MaxWorkers > 0 {
		return cfg.MaxWorkers
	}
	return runtime.GOMAXPROCS(0)
}

// shouldParallelize determines if an operation should be parallelized
func (cfg *ParallelConfig) shouldParallelize(n int) bool {
	return cfg.Enabled && n >= cfg.MinRowsForParallel
}

// ============================================================================
// Morsel-Based Work Distribution
// ============================================================================

// Morsel represents a range of elements to process
type Morsel struct {
	Start int
	End   int
}

// MorselIterator provides work-stealing morsel distribution
type MorselIterator struct {
	total      int
	morselSize int
	nextStart  int64 // atomic counter for work-stealing
}

// NewMorselIterator creates a new morsel iterator
func NewMorselIterator(total, morselSize int) *MorselIterator {
	if morselSize <= 0 {
		morselSize = globalConfig.MorselSize
	}
	return &MorselIterator{
		total:      total,
		morselSize: morselSize,
		nextStart:  0,
	}
}

// Next returns the next morsel, or nil if exhausted.
// This is safe for concurrent use (work-stealing).
func (mi *MorselIterator) Next() *Morsel {
	for {
		start := atomic.LoadInt64(&mi.nextStart)
		if int(start) >= mi.total {
			return nil
		}

		end := int(start) + mi.morselSize
		if end > mi.total {
			end = mi.total
		}

		// Try to claim this morsel
		if atomic.CompareAndSwapInt64(&mi.nextStart, start, int64(end)) {
			return &Morsel{Start: int(start), End: end}
		}
		// Another worker claimed it, try again
	}
}

// ============================================================================
// Unordered Parallel Helpers
// ============================================================================

// ParallelFor executes fn for each morsel in parallel using work-stealing.
// Use this for element-independent work where completion order is
// irrelevant; order-sensitive operations go through forkJoin below.
func ParallelFor(total int, fn func(start, end int)) {
	cfg := globalConfig
	if !cfg.shouldParallelize(total) {
		fn(0, total)
		return
	}

	numWorkers := cfg.numWorkers()
	morselIter := NewMorselIterator(total, cfg.MorselSize)

	var wg sync.WaitGroup
	pc := &panicCarrier{}
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer pc.capture()
			for {
				morsel := morselIter.Next()
				if morsel == nil {
					return
				}
				fn(morsel.Start, morsel.End)
			}
		}()
	}
	wg.Wait()
	pc.rethrow()
}

// ParallelReduceFloat64 reduces a slice with per-morsel partials.
func ParallelReduceFloat64(data []float64, identity float64, combine func(a, b float64) float64) float64 {
	cfg := globalConfig
	if !cfg.shouldParallelize(len(data)) {
		result := identity
		for _, v := range data {
			result = combine(result, v)
		}
		return result
	}
	threshold := forkThreshold(len(data), false)
	return forkJoinReduce(0, len(data), threshold, func(start, end int) float64 {
		result := identity
		for i := start; i < end; i++ {
			result = combine(result, data[i])
		}
		return result
	}, combine)
}

// ParallelReduceInt64 reduces a slice with per-morsel partials.
func ParallelReduceInt64(data []int64, identity int64, combine func(a, b int64) int64) int64 {
	cfg := globalConfig
	if !cfg.shouldParallelize(len(data)) {
		result := identity
		for _, v := range data {
			result = combine(result, v)
		}
		return result
	}
	threshold := forkThreshold(len(data), false)
	return forkJoinReduce(0, len(data), threshold, func(start, end int) int64 {
		result := identity
		for i := start; i < end; i++ {
			result = combine(result, data[i])
		}
		return result
	}, combine)
}

// ============================================================================
// Deterministic Fork/Join Bisection
// ============================================================================
//
// Frame traversal and range materialisation need results that are
// bit-identical between parallel and sequential runs. Work-stealing morsels
// complete in arbitrary order, so those operations use contiguous midpoint
// bisection instead: a segment splits at its midpoint until it falls below
// the threshold, the left half runs on a forked goroutine, the right half
// runs inline, and sibling results merge left-before-right. Completion
// order never affects the merged result.

// forkThreshold derives the leaf size: total work divided by hardware
// concurrency. Sequential callers pass sequential=true and get an
// effectively infinite threshold, guaranteeing one synchronous leaf.
func forkThreshold(total int, sequential bool) int {
	cfg := globalConfig
	if sequential || !cfg.Enabled {
		return int(^uint(0) >> 1)
	}
	t := total / cfg.numWorkers()
	if t < 1 {
		t = 1
	}
	return t
}

// panicCarrier transports the first panic out of forked goroutines back to
// the initiating caller.
type panicCarrier struct {
	once  sync.Once
	value any
	set   atomic.Bool
}

func (pc *panicCarrier) capture() {
	if r := recover(); r != nil {
		pc.once.Do(func() {
			pc.value = r
			pc.set.Store(true)
		})
	}
}

func (pc *panicCarrier) rethrow() {
	if pc.set.Load() {
		panic(pc.value)
	}
}

// forkJoin applies leaf over contiguous sub-segments of [from, to) using
// midpoint bisection. A panic inside any leaf propagates to the caller
// after all forked work settles; completed sibling results are discarded
// by the unwinding itself.
func forkJoin(from, to, threshold int, leaf func(from, to int)) {
	pc := &panicCarrier{}
	forkJoinRecurse(from, to, threshold, leaf, pc)
	pc.rethrow()
}

func forkJoinRecurse(from, to, threshold int, leaf func(from, to int), pc *panicCarrier) {
	if to-from <= threshold {
		func() {
			defer pc.capture()
			leaf(from, to)
		}()
		return
	}
	mid := from + (to-from)/2
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		forkJoinRecurse(from, mid, threshold, leaf, pc)
	}()
	forkJoinRecurse(mid, to, threshold, leaf, pc)
	wg.Wait()
}

// forkJoinReduce is forkJoin with a deterministic left-before-right merge
// of sibling results.
func forkJoinReduce[T any](from, to, threshold int, leaf func(from, to int) T, merge func(left, right T) T) T {
	if to-from <= threshold {
		return leaf(from, to)
	}
	mid := from + (to-from)/2
	var left T
	var wg sync.WaitGroup
	pc := &panicCarrier{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer pc.capture()
		left = forkJoinReduce(from, mid, threshold, leaf, merge)
	}()
	right := forkJoinReduce(mid, to, threshold, leaf, merge)
	wg.Wait()
	pc.rethrow()
	return merge(left, right)
}
