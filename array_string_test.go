package caravel

import (
	"strings"
	"testing"
)

// ============================================================================
// Packed UTF-8 Arrays
// ============================================================================

func TestUtf8ArrayBasics(t *testing.T) {
	a := NewUtf8Array(3, 8).(*utf8Array)
	for i := 0; i < 3; i++ {
		if !a.IsNull(i) {
			t.Errorf("IsNull(%d) = false, want true for fresh array", i)
		}
	}

	a.SetStr(0, "hello")
	if got, ok := a.Str(0); !ok || got != "hello" {
		t.Errorf("Str(0) = (%q, %v), want (\"hello\", true)", got, ok)
	}
	if got := a.Value(0); got != "hello" {
		t.Errorf("Value(0) = %v, want hello", got)
	}
}

func TestUtf8ArrayEmptyVsNull(t *testing.T) {
	a := NewUtf8Array(2, 8).(*utf8Array)
	a.SetStr(0, "")
	if a.IsNull(0) {
		t.Error("IsNull(0) = true for the empty string")
	}
	if got, ok := a.Str(0); !ok || got != "" {
		t.Errorf("Str(0) = (%q, %v), want (\"\", true)", got, ok)
	}
	if !a.IsNull(1) {
		t.Error("IsNull(1) = false for an unset slot")
	}
	if _, ok := a.Str(1); ok {
		t.Error("Str(1) ok = true for a null slot")
	}
}

func TestUtf8ArrayStrideGrowth(t *testing.T) {
	a := NewUtf8Array(3, 10).(*utf8Array)
	a.SetStr(1, "neighbor")
	// A write longer than the stride re-strides without disturbing the
	// other elements.
	long := strings.Repeat("x", 25)
	a.SetStr(0, long)

	if a.maxWidth < 25 {
		t.Errorf("maxWidth = %d after 25-byte write, want >= 25", a.maxWidth)
	}
	if got, _ := a.Str(0); got != long {
		t.Errorf("Str(0) = %q, want the 25-byte value", got)
	}
	if got, _ := a.Str(1); got != "neighbor" {
		t.Errorf("Str(1) = %q after re-stride, want neighbor", got)
	}
	if !a.IsNull(2) {
		t.Error("IsNull(2) = false after re-stride, want true")
	}
}

func TestUtf8ArraySort(t *testing.T) {
	a := NewUtf8Array(4, 8).(*utf8Array)
	a.SetStr(0, "pear")
	a.SetStr(1, "apple")
	a.SetStr(3, "mango")
	// index 2 null

	a.Sort(0, 4, 1)
	want := []any{nil, "apple", "mango", "pear"}
	for i, w := range want {
		if got := a.Value(i); got != w {
			t.Errorf("ascending Value(%d) = %v, want %v", i, got, w)
		}
	}

	a.Sort(0, 4, -1)
	want = []any{"pear", "mango", "apple", nil}
	for i, w := range want {
		if got := a.Value(i); got != w {
			t.Errorf("descending Value(%d) = %v, want %v", i, got, w)
		}
	}
}

func TestUtf8ArrayDistinct(t *testing.T) {
	a := NewUtf8Array(6, 8).(*utf8Array)
	a.SetStr(0, "b")
	a.SetStr(1, "a")
	a.SetStr(2, "b")
	a.SetStr(4, "")
	// indexes 3, 5 null

	d := a.Distinct(0)
	if d.Len() != 4 {
		t.Fatalf("Distinct().Len() = %d, want 4 (b, a, null, empty)", d.Len())
	}
	if got := d.Value(0); got != "b" {
		t.Errorf("Distinct().Value(0) = %v, want b", got)
	}
	if !d.IsNull(2) {
		t.Error("Distinct().IsNull(2) = false, want the first null preserved")
	}
	if got, ok := d.(*utf8Array).Str(3); !ok || got != "" {
		t.Errorf("Distinct().Str(3) = (%q, %v), want empty string", got, ok)
	}
}

func TestUtf8ArrayCopyIndexes(t *testing.T) {
	a := NewUtf8Array(3, 8).(*utf8Array)
	a.SetStr(0, "zero")
	a.SetStr(2, "two")

	got := a.CopyIndexes([]int{2, 1, 0}).(*utf8Array)
	if s, _ := got.Str(0); s != "two" {
		t.Errorf("Str(0) = %q, want two", s)
	}
	if !got.IsNull(1) {
		t.Error("IsNull(1) = false, want true")
	}
	if s, _ := got.Str(2); s != "zero" {
		t.Errorf("Str(2) = %q, want zero", s)
	}
}

func TestUtf8ArrayUpdateFastPathRestride(t *testing.T) {
	src := NewUtf8Array(1, 32).(*utf8Array)
	src.SetStr(0, strings.Repeat("y", 30))

	dst := NewUtf8Array(1, 8).(*utf8Array)
	dst.Update(0, src, 0, 1)
	if got, _ := dst.Str(0); got != strings.Repeat("y", 30) {
		t.Errorf("Str(0) = %q, want the 30-byte value", got)
	}
}

// ============================================================================
// Packed UTF-16 Arrays
// ============================================================================

func TestUtf8ArrayViewsSurviveRestride(t *testing.T) {
	a := NewUtf8Array(4, 8).(*utf8Array)
	v := a.Parallel().(*utf8Array)
	a.SetStr(1, "hi")
	a.SetStr(0, strings.Repeat("x", 31))

	// The re-stride through the original must be seen by the view.
	if got, ok := v.Str(1); !ok || got != "hi" {
		t.Errorf(`view Str(1) = (%q, %v) after re-stride, want ("hi", true)`, got, ok)
	}
	if got, ok := v.Str(0); !ok || got != strings.Repeat("x", 31) {
		t.Errorf("view Str(0) = (%q, %v), want the re-strided value", got, ok)
	}

	// And the other way: a re-stride through the view is seen by the
	// original.
	v.SetStr(2, strings.Repeat("y", 100))
	if got, ok := a.Str(2); !ok || got != strings.Repeat("y", 100) {
		t.Errorf("Str(2) = (%q, %v) after view re-stride, want 100 bytes", got, ok)
	}
	if got, ok := a.Str(1); !ok || got != "hi" {
		t.Errorf(`Str(1) = (%q, %v) after view re-stride, want ("hi", true)`, got, ok)
	}
}

func TestUtf16ArrayViewsSurviveRestride(t *testing.T) {
	a := NewUtf16Array(3, 4).(*utf16Array)
	v := a.Sequential().(*utf16Array)
	a.SetStr(0, "ab")
	v.SetStr(1, strings.Repeat("z", 40))
	if got, ok := a.Str(1); !ok || got != strings.Repeat("z", 40) {
		t.Errorf("Str(1) = (%q, %v) after view re-stride, want 40 code units", got, ok)
	}
	if got, ok := v.Str(0); !ok || got != "ab" {
		t.Errorf(`view Str(0) = (%q, %v), want ("ab", true)`, got, ok)
	}
}

func TestUtf16ArrayRoundTrip(t *testing.T) {
	a := NewUtf16Array(3, 8).(*utf16Array)
	cases := []string{"plain", "café", "\U0001F600 ok"}
	for i, s := range cases {
		a.SetStr(i, s)
	}
	for i, s := range cases {
		if got, ok := a.Str(i); !ok || got != s {
			t.Errorf("Str(%d) = (%q, %v), want (%q, true)", i, got, ok, s)
		}
	}
	if a.DType() != Utf16 {
		t.Errorf("DType() = %s, want Utf16", a.DType())
	}
}

func TestUtf16ArraySortAndNulls(t *testing.T) {
	a := NewUtf16Array(3, 8).(*utf16Array)
	a.SetStr(0, "bb")
	a.SetStr(2, "aa")

	a.Sort(0, 3, 1)
	want := []any{nil, "aa", "bb"}
	for i, w := range want {
		if got := a.Value(i); got != w {
			t.Errorf("Value(%d) = %v, want %v", i, got, w)
		}
	}
}

func TestUtf16ArrayStrideGrowth(t *testing.T) {
	a := NewUtf16Array(2, 4).(*utf16Array)
	a.SetStr(1, "ab")
	a.SetStr(0, "abcdefghij")
	if got, _ := a.Str(0); got != "abcdefghij" {
		t.Errorf("Str(0) = %q, want abcdefghij", got)
	}
	if got, _ := a.Str(1); got != "ab" {
		t.Errorf("Str(1) = %q after re-stride, want ab", got)
	}
}
