package caravel

import (
	"math"
	"strings"
	"sync"
	"testing"
)

func testFrame(t *testing.T, rows, cols int) *Frame {
	t.Helper()
	columns := make([]Array, cols)
	colKeys := make([]any, cols)
	for c := 0; c < cols; c++ {
		col := NewDoubleArray(rows, math.NaN())
		for r := 0; r < rows; r++ {
			col.SetValue(r, float64(c*rows+r))
		}
		columns[c] = col
		colKeys[c] = "col" + string(rune('A'+c))
	}
	f, err := NewFrame(NewOrdinalAxis(rows), NewAxis(colKeys...), columns)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	return f
}

// ============================================================================
// Construction / Access
// ============================================================================

func TestNewFrameValidation(t *testing.T) {
	cols := NewAxis("a", "b")
	if _, err := NewFrame(NewOrdinalAxis(3), cols, []Array{NewIntArray(3, 0)}); err == nil {
		t.Error("NewFrame with a missing column did not fail")
	}
	if _, err := NewFrame(NewOrdinalAxis(3), cols, []Array{NewIntArray(3, 0), NewIntArray(2, 0)}); err == nil {
		t.Error("NewFrame with a short column did not fail")
	}
	if _, err := NewFrame(NewOrdinalAxis(3), cols, []Array{NewIntArray(3, 0), NewIntArray(3, 0)}); err != nil {
		t.Errorf("NewFrame with matching shapes failed: %v", err)
	}
}

func TestFrameColumnByKey(t *testing.T) {
	f := testFrame(t, 4, 2)
	col, ok := f.ColumnByKey("colB")
	if !ok {
		t.Fatal("ColumnByKey(colB) ok = false")
	}
	if got := col.Value(0); got != 4.0 {
		t.Errorf("colB.Value(0) = %v, want 4", got)
	}
	if _, ok := f.ColumnByKey("missing"); ok {
		t.Error("ColumnByKey(missing) ok = true")
	}
}

func TestCursorPositionColumnMajor(t *testing.T) {
	f := testFrame(t, 5, 3)
	c := f.Cursor()

	// Index rowCount lands on (row 0, col 1).
	c.Position(5)
	if c.Row() != 0 || c.Col() != 1 {
		t.Errorf("Position(5) = (%d, %d), want (0, 1)", c.Row(), c.Col())
	}
	c.Position(7)
	if c.Row() != 2 || c.Col() != 1 {
		t.Errorf("Position(7) = (%d, %d), want (2, 1)", c.Row(), c.Col())
	}
	if got := c.Value(); got != 7.0 {
		t.Errorf("Value() at index 7 = %v, want 7", got)
	}
	if got := c.ColKey(); got != "colB" {
		t.Errorf("ColKey() = %v, want colB", got)
	}
}

// ============================================================================
// Traversal
// ============================================================================

func TestForEachValueVisitsAll(t *testing.T) {
	f := testFrame(t, 10, 3)
	sum := 0.0
	f.ForEachValue(func(c *Cursor) {
		sum += c.Double()
	})
	want := float64(29 * 30 / 2)
	if sum != want {
		t.Errorf("sum over frame = %v, want %v", sum, want)
	}
}

func TestForEachValueParallelMatchesSequential(t *testing.T) {
	original := GetParallelConfig()
	defer SetParallelConfig(original)
	SetParallelConfig(&ParallelConfig{MinRowsForParallel: 10, MorselSize: 64, MaxWorkers: 4, Enabled: true})

	f := testFrame(t, 500, 4)
	seq := f.Sequential()
	par := f.Parallel()

	seqVisits := make([]int32, 2000)
	seq.ForEachValue(func(c *Cursor) {
		seqVisits[c.Col()*500+c.Row()]++
	})

	var mu sync.Mutex
	var parSum float64
	var parCount int
	par.ForEachValue(func(c *Cursor) {
		v := c.Double()
		mu.Lock()
		parSum += v
		parCount++
		mu.Unlock()
	})

	for i, n := range seqVisits {
		if n != 1 {
			t.Fatalf("sequential visited index %d %d times", i, n)
		}
	}
	if parCount != 2000 {
		t.Errorf("parallel visited %d values, want 2000", parCount)
	}
	if want := float64(1999 * 2000 / 2); parSum != want {
		t.Errorf("parallel sum = %v, want %v", parSum, want)
	}
}

func TestApplyDoublesInPlace(t *testing.T) {
	f := testFrame(t, 4, 2)
	f.ApplyDoubles(func(v float64) float64 { return v * 2 })
	if got := f.Column(1).Value(3); got != 14.0 {
		t.Errorf("Value after ApplyDoubles = %v, want 14", got)
	}
}

func TestApplySkipsOtherDTypes(t *testing.T) {
	ints := ArrayOf([]int32{1, 2})
	doubles := ArrayOf([]float64{1.5, 2.5})
	f, err := NewFrame(NewOrdinalAxis(2), NewAxis("i", "d"), []Array{ints, doubles})
	if err != nil {
		t.Fatal(err)
	}

	f.ApplyInts(func(v int32) int32 { return v + 10 })
	if got := ints.Value(1); got != int32(12) {
		t.Errorf("int column = %v, want 12", got)
	}
	if got := doubles.Value(1); got != 2.5 {
		t.Errorf("double column = %v after ApplyInts, want untouched 2.5", got)
	}
}

// ============================================================================
// Min / Max / Bounds
// ============================================================================

func TestFrameMinMax(t *testing.T) {
	f := testFrame(t, 100, 3)
	minC, ok := f.Min(nil2true)
	if !ok {
		t.Fatal("Min ok = false")
	}
	if got := minC.Value(); got != 0.0 {
		t.Errorf("Min().Value() = %v, want 0", got)
	}

	maxC, ok := f.Max(nil2true)
	if !ok {
		t.Fatal("Max ok = false")
	}
	if got := maxC.Value(); got != 299.0 {
		t.Errorf("Max().Value() = %v, want 299", got)
	}
}

func nil2true(c *Cursor) bool { return true }

func TestFrameMinWithPredicate(t *testing.T) {
	f := testFrame(t, 50, 2)
	c, ok := f.Min(func(c *Cursor) bool { return c.Double() > 40 })
	if !ok {
		t.Fatal("Min ok = false")
	}
	if got := c.Value(); got != 41.0 {
		t.Errorf("Min(>40).Value() = %v, want 41", got)
	}
}

func TestFrameMinNoMatch(t *testing.T) {
	f := testFrame(t, 10, 2)
	if _, ok := f.Min(func(c *Cursor) bool { return false }); ok {
		t.Error("Min with an always-false predicate returned ok = true")
	}
}

func TestFrameBoundsParallelMatchesSequential(t *testing.T) {
	original := GetParallelConfig()
	defer SetParallelConfig(original)
	SetParallelConfig(&ParallelConfig{MinRowsForParallel: 10, MorselSize: 64, MaxWorkers: 4, Enabled: true})

	f := testFrame(t, 700, 3)
	pred := func(c *Cursor) bool { return int(c.Double())%7 != 0 }

	sMin, sMax, sOK := f.Sequential().Bounds(pred)
	pMin, pMax, pOK := f.Parallel().Bounds(pred)
	if sOK != pOK {
		t.Fatalf("ok: sequential %v, parallel %v", sOK, pOK)
	}
	if compareValues(sMin.Value(), pMin.Value()) != 0 {
		t.Errorf("min: sequential %v, parallel %v", sMin.Value(), pMin.Value())
	}
	if compareValues(sMax.Value(), pMax.Value()) != 0 {
		t.Errorf("max: sequential %v, parallel %v", sMax.Value(), pMax.Value())
	}
}

// ============================================================================
// Select / Slicing
// ============================================================================

func TestFrameSelectPreservesOrder(t *testing.T) {
	f := testFrame(t, 20, 3)
	sub := f.Select(func(ordinal int, key any) bool { return ordinal%3 == 0 }, nil)
	if sub.RowCount() != 7 {
		t.Fatalf("RowCount() = %d, want 7", sub.RowCount())
	}
	for i := 0; i < sub.RowCount(); i++ {
		if got := sub.Column(0).Value(i); got != float64(3*i) {
			t.Errorf("selected row %d = %v, want %v", i, got, float64(3*i))
		}
	}
}

func TestFrameSelectColumns(t *testing.T) {
	f := testFrame(t, 5, 3)
	sub := f.Select(nil, func(ordinal int, key any) bool { return key == "colC" })
	if sub.ColCount() != 1 {
		t.Fatalf("ColCount() = %d, want 1", sub.ColCount())
	}
	if got := sub.Column(0).Value(0); got != 10.0 {
		t.Errorf("colC.Value(0) = %v, want 10", got)
	}
}

func TestFrameSelectParallelMatchesSequential(t *testing.T) {
	original := GetParallelConfig()
	defer SetParallelConfig(original)
	SetParallelConfig(&ParallelConfig{MinRowsForParallel: 10, MorselSize: 32, MaxWorkers: 4, Enabled: true})

	f := testFrame(t, 1000, 2)
	pred := func(ordinal int, key any) bool { return ordinal%13 == 0 }

	seq := f.Sequential().Select(pred, nil)
	par := f.Parallel().Select(pred, nil)
	if seq.RowCount() != par.RowCount() {
		t.Fatalf("RowCount: sequential %d, parallel %d", seq.RowCount(), par.RowCount())
	}
	for i := 0; i < seq.RowCount(); i++ {
		if compareValues(seq.Column(0).Value(i), par.Column(0).Value(i)) != 0 {
			t.Fatalf("selection diverged at row %d", i)
		}
	}
}

func TestFrameHeadTailSlice(t *testing.T) {
	f := testFrame(t, 10, 2)

	head := f.Head(3)
	if head.RowCount() != 3 || head.Column(0).Value(2) != 2.0 {
		t.Errorf("Head(3) = %d rows ending %v, want 3 rows ending 2", head.RowCount(), head.Column(0).Value(2))
	}

	tail := f.Tail(3)
	if tail.RowCount() != 3 || tail.Column(0).Value(0) != 7.0 {
		t.Errorf("Tail(3) = %d rows starting %v, want 3 rows starting 7", tail.RowCount(), tail.Column(0).Value(0))
	}

	slice := f.Slice(4, 6)
	if slice.RowCount() != 2 || slice.Column(1).Value(0) != 14.0 {
		t.Errorf("Slice(4, 6) col1 row0 = %v, want 14", slice.Column(1).Value(0))
	}

	// Slices are copies, not views.
	slice.Column(0).SetValue(0, 999.0)
	if got := f.Column(0).Value(4); got != 4.0 {
		t.Errorf("source mutated through slice: %v, want 4", got)
	}

	if got := f.Head(99).RowCount(); got != 10 {
		t.Errorf("Head(99).RowCount() = %d, want 10", got)
	}
}

func TestFrameSortColumn(t *testing.T) {
	col := ArrayOf([]int32{3, 1, 2})
	f, err := NewFrame(NewOrdinalAxis(3), NewAxis("x"), []Array{col})
	if err != nil {
		t.Fatal(err)
	}
	f.SortColumn(0, 1)
	for i, w := range []int32{1, 2, 3} {
		if got := col.Value(i); got != w {
			t.Errorf("Value(%d) = %v, want %v", i, got, w)
		}
	}
}

// ============================================================================
// Display
// ============================================================================

func TestFrameString(t *testing.T) {
	f := testFrame(t, 3, 2)
	s := f.String()
	if s == "" {
		t.Fatal("String() = empty")
	}
	if !strings.Contains(s, "colA") || !strings.Contains(s, "colB") {
		t.Errorf("String() missing column keys:\n%s", s)
	}
	if !strings.Contains(s, "shape: (3, 2)") {
		t.Errorf("String() missing shape header:\n%s", s)
	}
}

func TestArrayString(t *testing.T) {
	s := ArrayString(ArrayOf([]int32{1, 2, 3}), GetDisplayConfig())
	if !strings.Contains(s, "1") || !strings.Contains(s, "3") {
		t.Errorf("ArrayString missing values:\n%s", s)
	}
}
