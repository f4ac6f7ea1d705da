package caravel

import (
	"testing"
	"time"
)

// ============================================================================
// Coded Int32 Arrays
// ============================================================================

func TestCodedIntArraySetGet(t *testing.T) {
	a := NewCodedIntArray(NewEnumCoding([]string{"RED", "GREEN", "BLUE"}), 3, nil)
	if a.DType() != CodedInt32 {
		t.Errorf("DType() = %s, want CodedInt32", a.DType())
	}
	for i := 0; i < 3; i++ {
		if !a.IsNull(i) {
			t.Errorf("IsNull(%d) = false, want true for nil default", i)
		}
	}

	a.SetValue(0, "GREEN")
	if got := a.Value(0); got != "GREEN" {
		t.Errorf("Value(0) = %v, want GREEN", got)
	}
	if a.IsNull(0) {
		t.Error("IsNull(0) = true after SetValue")
	}

	a.SetValue(0, nil)
	if !a.IsNull(0) {
		t.Error("IsNull(0) = false after SetValue(nil)")
	}
}

func TestCodedIntArrayNonNullDefault(t *testing.T) {
	a := NewCodedIntArray(NewEnumCoding([]string{"a", "b"}), 2, "b")
	if got := a.Value(0); got != "b" {
		t.Errorf("Value(0) = %v, want b", got)
	}
	// SetValue(nil) resets to the default, not to null.
	a.SetValue(0, "a")
	a.SetValue(0, nil)
	if got := a.Value(0); got != "b" {
		t.Errorf("Value(0) after SetValue(nil) = %v, want b", got)
	}
	a.Expand(4)
	if got := a.Value(3); got != "b" {
		t.Errorf("Value(3) after Expand = %v, want b", got)
	}
}

func TestCodedIntArrayRawCodes(t *testing.T) {
	coding := NewEnumCoding([]string{"x", "y", "z"})
	a := NewCodedIntArray(coding, 2, nil).(*codedIntArray[string])
	a.SetInt(0, coding.Encode("z"))
	if got := a.Value(0); got != "z" {
		t.Errorf("Value(0) = %v, want z after raw SetInt", got)
	}
	if got := a.Int(0); got != 2 {
		t.Errorf("Int(0) = %d, want 2", got)
	}
}

func TestCodedIntArrayUpdatePaths(t *testing.T) {
	coding := NewEnumCoding([]string{"a", "b", "c"})

	// Same concrete type, raw Int32 codes, and boxed values must all land
	// on identical codes.
	src := NewCodedIntArray(coding, 3, nil)
	src.SetValue(0, "c")
	src.SetValue(1, "a")

	rawCodes := ArrayOf([]int32{2, 0, -1})
	boxed := NewObjectArray(3, nil)
	boxed.SetValue(0, "c")
	boxed.SetValue(1, "a")

	fromCoded := NewCodedIntArray(coding, 3, nil)
	fromRaw := NewCodedIntArray(coding, 3, nil)
	fromBoxed := NewCodedIntArray(coding, 3, nil)

	fromCoded.Update(0, src, 0, 3)
	fromRaw.Update(0, rawCodes, 0, 3)
	fromBoxed.Update(0, boxed, 0, 3)

	for i := 0; i < 3; i++ {
		c := fromCoded.(*codedIntArray[string]).codes[i]
		r := fromRaw.(*codedIntArray[string]).codes[i]
		b := fromBoxed.(*codedIntArray[string]).codes[i]
		if c != r || c != b {
			t.Errorf("codes[%d]: coded=%d raw=%d boxed=%d, want all equal", i, c, r, b)
		}
	}
}

func TestCodedIntArraySortByValueOrder(t *testing.T) {
	a := NewCodedIntArray(NewEnumCoding([]string{"pear", "apple", "mango"}), 4, nil)
	a.SetValue(0, "pear")
	a.SetValue(1, "apple")
	a.SetValue(2, "mango")
	// index 3 stays null

	a.Sort(0, 4, 1)
	// Nulls sort first ascending, then lexicographic value order.
	want := []any{nil, "apple", "mango", "pear"}
	for i, w := range want {
		if got := a.Value(i); got != w {
			t.Errorf("Value(%d) = %v, want %v", i, got, w)
		}
	}

	a.Sort(0, 4, -1)
	if got := a.Value(0); got != "pear" {
		t.Errorf("descending Value(0) = %v, want pear", got)
	}
	if got := a.Value(3); got != nil {
		t.Errorf("descending Value(3) = %v, want nil", got)
	}
}

func TestCodedIntArrayDistinct(t *testing.T) {
	a := NewCodedIntArray(NewEnumCoding([]string{"a", "b"}), 5, nil)
	a.SetValue(0, "b")
	a.SetValue(1, "a")
	a.SetValue(2, "b")
	// 3, 4 null

	d := a.Distinct(0)
	if _, ok := d.(*codedIntArray[string]); !ok {
		t.Fatalf("Distinct() = %T, want *codedIntArray[string]", d)
	}
	if d.Len() != 3 {
		t.Errorf("Distinct().Len() = %d, want 3 (b, a, null)", d.Len())
	}
	if got := d.Value(0); got != "b" {
		t.Errorf("Distinct().Value(0) = %v, want b", got)
	}
}

func TestCodedIntArrayCumSumUnsupported(t *testing.T) {
	a := NewCodedIntArray(NewEnumCoding([]string{"a"}), 1, nil)
	defer func() {
		if _, ok := recover().(*UnsupportedError); !ok {
			t.Error("CumSum on a coded array should panic with *UnsupportedError")
		}
	}()
	a.CumSum()
}

// ============================================================================
// Coded Int64 Arrays
// ============================================================================

func TestCodedLongArrayInstantRoundTrip(t *testing.T) {
	a := NewCodedLongArray(NewInstantCoding(), 2, nil)
	if a.DType() != CodedInt64 {
		t.Errorf("DType() = %s, want CodedInt64", a.DType())
	}
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	a.SetValue(0, ts)
	got, ok := a.Value(0).(time.Time)
	if !ok || !got.Equal(ts) {
		t.Errorf("Value(0) = %v, want %v", a.Value(0), ts)
	}
	if !a.IsNull(1) {
		t.Error("IsNull(1) = false, want true")
	}
}

func TestCodedLongArraySortChronological(t *testing.T) {
	a := NewCodedLongArray(NewDateCoding(), 3, nil)
	day := func(n int) time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	}
	a.SetValue(0, day(5))
	a.SetValue(1, day(1))
	a.SetValue(2, day(3))

	a.Sort(0, 3, 1)
	for i, n := range []int{1, 3, 5} {
		if got := a.Value(i).(time.Time); !got.Equal(day(n)) {
			t.Errorf("Value(%d) = %v, want %v", i, got, day(n))
		}
	}
}

func TestCodedLongArrayRawCodeUpdate(t *testing.T) {
	coding := NewTimeOfDayCoding()
	raw := ArrayOf([]int64{int64(time.Hour), int64(2 * time.Hour)})
	a := NewCodedLongArray(coding, 2, nil)
	a.Update(0, raw, 0, 2)
	if got := a.Value(1); got != 2*time.Hour {
		t.Errorf("Value(1) = %v, want 2h0m0s", got)
	}
}
