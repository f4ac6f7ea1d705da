package caravel

import (
	"math"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

func arrowRoundTrip(t *testing.T, f *Frame) *Frame {
	t.Helper()
	mem := memory.NewGoAllocator()
	record, err := f.ToArrow(mem)
	if err != nil {
		t.Fatalf("ToArrow: %v", err)
	}
	defer record.Release()

	got, err := FrameFromArrow(record)
	if err != nil {
		t.Fatalf("FrameFromArrow: %v", err)
	}
	return got
}

func TestArrowRoundTripPrimitives(t *testing.T) {
	doubles := NewDoubleArray(4, math.NaN())
	doubles.SetValue(0, 1.5)
	doubles.SetValue(2, -3.0)

	f, err := NewFrame(NewOrdinalAxis(4), NewAxis("b", "i", "l", "d"), []Array{
		ArrayOf([]bool{true, false, true, false}),
		ArrayOf([]int32{1, 2, 3, 4}),
		ArrayOf([]int64{10, 20, 30, 40}),
		doubles,
	})
	if err != nil {
		t.Fatal(err)
	}

	got := arrowRoundTrip(t, f)
	if got.RowCount() != 4 || got.ColCount() != 4 {
		t.Fatalf("shape = (%d, %d), want (4, 4)", got.RowCount(), got.ColCount())
	}
	for c := 0; c < 4; c++ {
		want := f.Column(c)
		col, ok := got.ColumnByKey(f.Cols().Key(c))
		if !ok {
			t.Fatalf("column %v missing after round trip", f.Cols().Key(c))
		}
		for r := 0; r < 4; r++ {
			if compareValues(col.Value(r), want.Value(r)) != 0 {
				t.Errorf("col %d row %d = %v, want %v", c, r, col.Value(r), want.Value(r))
			}
		}
	}
}

func TestArrowRoundTripStrings(t *testing.T) {
	strs := NewUtf8Array(3, 8).(*utf8Array)
	strs.SetStr(0, "alpha")
	strs.SetStr(2, "")

	f, err := NewFrame(NewOrdinalAxis(3), NewAxis("s"), []Array{strs})
	if err != nil {
		t.Fatal(err)
	}
	got := arrowRoundTrip(t, f)
	col := got.Column(0)
	if v, ok := col.(StringAccess).Str(0); !ok || v != "alpha" {
		t.Errorf("Str(0) = (%q, %v), want (\"alpha\", true)", v, ok)
	}
	if !col.IsNull(1) {
		t.Error("IsNull(1) = false after round trip")
	}
	if v, ok := col.(StringAccess).Str(2); !ok || v != "" {
		t.Errorf("Str(2) = (%q, %v), want the empty string non-null", v, ok)
	}
}

func TestArrowRoundTripDictionary(t *testing.T) {
	coded := NewCodedIntArray(NewEnumCoding([]string{"RED", "GREEN", "BLUE"}), 4, nil)
	coded.SetValue(0, "BLUE")
	coded.SetValue(1, "RED")
	coded.SetValue(3, "BLUE")

	f, err := NewFrame(NewOrdinalAxis(4), NewAxis("color"), []Array{coded})
	if err != nil {
		t.Fatal(err)
	}
	got := arrowRoundTrip(t, f)
	col := got.Column(0)
	if col.DType() != CodedInt32 {
		t.Errorf("DType() = %s, want CodedInt32", col.DType())
	}
	want := []any{"BLUE", "RED", nil, "BLUE"}
	for i, w := range want {
		if v := col.Value(i); v != w {
			t.Errorf("Value(%d) = %v, want %v", i, v, w)
		}
	}
}

func TestArrowRoundTripTemporal(t *testing.T) {
	dates := NewCodedLongArray(NewDateCoding(), 2, nil)
	dates.SetValue(0, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))

	instants := NewCodedLongArray(NewInstantCoding(), 2, nil)
	instants.SetValue(1, time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC))

	f, err := NewFrame(NewOrdinalAxis(2), NewAxis("d", "ts"), []Array{dates, instants})
	if err != nil {
		t.Fatal(err)
	}
	got := arrowRoundTrip(t, f)

	d, _ := got.ColumnByKey("d")
	if v := d.Value(0).(time.Time); !v.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v, want 2024-02-29", v)
	}
	if !d.IsNull(1) {
		t.Error("date IsNull(1) = false")
	}

	ts, _ := got.ColumnByKey("ts")
	if v := ts.Value(1).(time.Time); !v.Equal(time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)) {
		t.Errorf("instant = %v, want 2025-01-01T06:00Z", v)
	}
}

func TestArrowRoundTripZoned(t *testing.T) {
	zoned := NewZonedDateTimeArray(2).(*zonedArray)
	zoned.SetTime(0, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))

	f, err := NewFrame(NewOrdinalAxis(2), NewAxis("z"), []Array{zoned})
	if err != nil {
		t.Fatal(err)
	}
	got := arrowRoundTrip(t, f)
	col := got.Column(0)

	v, ok := col.(*zonedArray).Time(0)
	if !ok {
		t.Fatal("Time(0) ok = false after round trip")
	}
	if !v.Equal(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("Time(0) = %v, want the original instant", v)
	}
	if !col.IsNull(1) {
		t.Error("IsNull(1) = false")
	}
}
