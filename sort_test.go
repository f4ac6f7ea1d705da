package caravel

import (
	"math"
	"math/rand"
	"sort"
	"testing"
)

func intSliceSorter(data []int) (IntComparator, Swapper) {
	comp := comparatorOf(func(i, j int) int { return data[i] - data[j] })
	swap := swapperOf(func(i, j int) { data[i], data[j] = data[j], data[i] })
	return comp, swap
}

func TestQuicksort(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	data := make([]int, 500)
	for i := range data {
		data[i] = rng.Intn(100)
	}
	comp, swap := intSliceSorter(data)
	Quicksort(comp, swap, 0, len(data))
	if !sort.IntsAreSorted(data) {
		t.Error("Quicksort left the slice unsorted")
	}
}

func TestQuicksortSubrange(t *testing.T) {
	data := []int{9, 5, 3, 1, 7, 0}
	comp, swap := intSliceSorter(data)
	Quicksort(comp, swap, 1, 5)
	want := []int{9, 1, 3, 5, 7, 0}
	for i, w := range want {
		if data[i] != w {
			t.Errorf("data[%d] = %d, want %d", i, data[i], w)
		}
	}
}

func TestQuicksortSmallAndDegenerate(t *testing.T) {
	for _, data := range [][]int{{}, {1}, {2, 1}, {3, 3, 3, 3}} {
		dup := append([]int{}, data...)
		comp, swap := intSliceSorter(dup)
		Quicksort(comp, swap, 0, len(dup))
		if !sort.IntsAreSorted(dup) {
			t.Errorf("Quicksort(%v) = %v, want sorted", data, dup)
		}
	}
}

func TestQuicksortParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	data := make([]int, 50_000)
	for i := range data {
		data[i] = rng.Intn(1_000_000)
	}
	seq := append([]int{}, data...)
	par := append([]int{}, data...)

	comp, swap := intSliceSorter(seq)
	Quicksort(comp, swap, 0, len(seq))

	comp, swap = intSliceSorter(par)
	QuicksortParallel(comp, swap, 0, len(par))

	for i := range seq {
		if seq[i] != par[i] {
			t.Fatalf("parallel sort diverged at %d: %d vs %d", i, par[i], seq[i])
		}
	}
}

func TestArraySortDescendingReversal(t *testing.T) {
	values := []int64{5, 1, 9, 3, 7}
	asc := ArrayOf(append([]int64{}, values...))
	desc := ArrayOf(append([]int64{}, values...))
	asc.Sort(0, len(values), 1)
	desc.Sort(0, len(values), -1)

	// On unique values descending is the exact reversal of ascending.
	n := len(values)
	for i := 0; i < n; i++ {
		if asc.Value(i) != desc.Value(n-1-i) {
			t.Errorf("asc[%d] = %v, desc[%d] = %v, want mirror images",
				i, asc.Value(i), n-1-i, desc.Value(n-1-i))
		}
	}
}

func TestArraySortDoubleNaNFirst(t *testing.T) {
	a := ArrayOf([]float64{2.0, math.NaN(), 1.0})
	a.Sort(0, 3, 1)
	if !a.IsNull(0) {
		t.Error("IsNull(0) = false, NaN should sort first ascending")
	}
	if a.Value(1) != 1.0 || a.Value(2) != 2.0 {
		t.Errorf("values = [%v %v], want [1 2]", a.Value(1), a.Value(2))
	}
}
