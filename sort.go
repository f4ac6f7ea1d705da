package caravel

import "sync"

// ============================================================================
// Sort Engine
// ============================================================================
//
// The engine sorts through an (IntComparator, Swapper) pair, so any backing
// store - dense array, packed string segments, frame column - is sortable
// by index indirection without the engine knowing its representation. No
// data moves beyond what the concrete swapper performs per swap. The sort
// is not stable.

const (
	// insertionSortThreshold is the partition size below which insertion
	// sort beats quicksort's overhead.
	insertionSortThreshold = 16

	// medianOf9Threshold is the partition size above which pivot selection
	// samples nine elements instead of three.
	medianOf9Threshold = 128

	// parallelSortThreshold is the partition size below which the parallel
	// sort falls back to the sequential path.
	parallelSortThreshold = 8192
)

// IntComparator orders two element positions. Copy returns an instance safe
// for use by a sibling parallel partition; stateless comparators may return
// themselves.
type IntComparator interface {
	Compare(i, j int) int
	Copy() IntComparator
}

// Swapper exchanges two element positions. Swappers are shared across
// parallel partitions and must tolerate concurrent swaps over disjoint
// index ranges, which every array-backed swapper in this package does.
type Swapper interface {
	Swap(i, j int)
}

type comparatorFunc struct {
	fn func(i, j int) int
}

// comparatorOf adapts a compare func to IntComparator.
func comparatorOf(fn func(i, j int) int) IntComparator {
	return comparatorFunc{fn: fn}
}

func (c comparatorFunc) Compare(i, j int) int { return c.fn(i, j) }
func (c comparatorFunc) Copy() IntComparator  { return comparatorFunc{fn: c.fn} }

type swapperFunc struct {
	fn func(i, j int)
}

// swapperOf adapts a swap func to Swapper.
func swapperOf(fn func(i, j int)) Swapper {
	return swapperFunc{fn: fn}
}

func (s swapperFunc) Swap(i, j int) { s.fn(i, j) }

// sortRange sorts [from, to) using the sequential or parallel engine.
func sortRange(comp IntComparator, swap Swapper, from, to int, parallel bool) {
	if parallel {
		QuicksortParallel(comp, swap, from, to)
		return
	}
	Quicksort(comp, swap, from, to)
}

// Quicksort sorts [from, to) with a tuned quicksort: insertion sort below a
// small-partition threshold, median-of-3 pivots, widening to median-of-9 on
// large partitions.
func Quicksort(comp IntComparator, swap Swapper, from, to int) {
	n := to - from
	if n < 2 {
		return
	}
	if n < insertionSortThreshold {
		insertionSort(comp, swap, from, to)
		return
	}
	p := partition(comp, swap, from, to)
	Quicksort(comp, swap, from, p)
	Quicksort(comp, swap, p+1, to)
}

// QuicksortParallel sorts [from, to) forking sibling partitions onto new
// goroutines. Partitions at or below parallelSortThreshold run the
// sequential engine; a lopsided split forks only the half that is still
// worth forking, keeping workers busy.
func QuicksortParallel(comp IntComparator, swap Swapper, from, to int) {
	if to-from <= parallelSortThreshold {
		Quicksort(comp, swap, from, to)
		return
	}
	p := partition(comp, swap, from, to)
	leftLarge := p-from > parallelSortThreshold
	rightLarge := to-(p+1) > parallelSortThreshold
	switch {
	case leftLarge && rightLarge:
		leftComp := comp.Copy()
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			QuicksortParallel(leftComp, swap, from, p)
		}()
		QuicksortParallel(comp, swap, p+1, to)
		wg.Wait()
	case leftLarge:
		Quicksort(comp, swap, p+1, to)
		QuicksortParallel(comp, swap, from, p)
	default:
		Quicksort(comp, swap, from, p)
		QuicksortParallel(comp, swap, p+1, to)
	}
}

func insertionSort(comp IntComparator, swap Swapper, from, to int) {
	for i := from + 1; i < to; i++ {
		for j := i; j > from && comp.Compare(j, j-1) < 0; j-- {
			swap.Swap(j, j-1)
		}
	}
}

// partition moves a sampled pivot to the end of [from, to), partitions
// around it, and returns its final position.
func partition(comp IntComparator, swap Swapper, from, to int) int {
	hi := to - 1
	pivot := selectPivot(comp, from, hi)
	if pivot != hi {
		swap.Swap(pivot, hi)
	}
	i := from
	for j := from; j < hi; j++ {
		if comp.Compare(j, hi) < 0 {
			if i != j {
				swap.Swap(i, j)
			}
			i++
		}
	}
	if i != hi {
		swap.Swap(i, hi)
	}
	return i
}

// selectPivot samples median-of-3 over [lo, hi], widening to median-of-9
// for large partitions.
func selectPivot(comp IntComparator, lo, hi int) int {
	n := hi - lo + 1
	mid := lo + n/2
	if n > medianOf9Threshold {
		s := n / 8
		lo = median3(comp, lo, lo+s, lo+2*s)
		mid = median3(comp, mid-s, mid, mid+s)
		hi = median3(comp, hi-2*s, hi-s, hi)
	}
	return median3(comp, lo, mid, hi)
}

func median3(comp IntComparator, a, b, c int) int {
	if comp.Compare(a, b) < 0 {
		switch {
		case comp.Compare(b, c) < 0:
			return b
		case comp.Compare(a, c) < 0:
			return c
		default:
			return a
		}
	}
	switch {
	case comp.Compare(a, c) < 0:
		return a
	case comp.Compare(b, c) < 0:
		return c
	default:
		return b
	}
}
