package caravel

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"
)

func roundTrip(t *testing.T, a Array) Array {
	t.Helper()
	var buf bytes.Buffer
	if err := a.Write(&buf); err != nil {
		t.Fatalf("%s Write: %v", a.DType(), err)
	}
	got, err := ReadArray(&buf)
	if err != nil {
		t.Fatalf("%s ReadArray: %v", a.DType(), err)
	}
	return got
}

func assertArraysEqual(t *testing.T, got, want Array) {
	t.Helper()
	if got.DType() != want.DType() {
		t.Fatalf("DType = %s, want %s", got.DType(), want.DType())
	}
	if got.Len() != want.Len() {
		t.Fatalf("Len = %d, want %d", got.Len(), want.Len())
	}
	for i := 0; i < want.Len(); i++ {
		if got.IsNull(i) != want.IsNull(i) {
			t.Errorf("IsNull(%d) = %v, want %v", i, got.IsNull(i), want.IsNull(i))
		}
		if compareValues(got.Value(i), want.Value(i)) != 0 {
			t.Errorf("Value(%d) = %v, want %v", i, got.Value(i), want.Value(i))
		}
	}
}

// ============================================================================
// Primitive Round Trips
// ============================================================================

func TestWriteReadPrimitives(t *testing.T) {
	arrays := []Array{
		ArrayOf([]bool{true, false, true, true}),
		ArrayOf([]int32{1, -5, 0, math.MaxInt32}),
		ArrayOf([]int64{9, math.MinInt64 + 1, 42}),
		ArrayOf([]float64{1.5, math.NaN(), -0.0, math.Inf(1)}),
	}
	for _, a := range arrays {
		assertArraysEqual(t, roundTrip(t, a), a)
	}
}

func TestWriteReadPreservesDefault(t *testing.T) {
	a := NewIntArray(3, 7)
	got := roundTrip(t, a)
	if got.DefaultValue() != int32(7) {
		t.Errorf("DefaultValue() = %v, want 7", got.DefaultValue())
	}
	got.Expand(5)
	if got.Value(4) != int32(7) {
		t.Errorf("Value(4) after Expand = %v, want the carried default 7", got.Value(4))
	}
}

func TestWriteReadStrings(t *testing.T) {
	a := NewUtf8Array(4, 8).(*utf8Array)
	a.SetStr(0, "alpha")
	a.SetStr(2, "")
	a.SetStr(3, "a much longer value that forces a re-stride")
	assertArraysEqual(t, roundTrip(t, a), a)

	b := NewUtf16Array(3, 4).(*utf16Array)
	b.SetStr(0, "café")
	b.SetStr(2, "\U0001F600")
	assertArraysEqual(t, roundTrip(t, b), b)
}

func TestWriteReadObject(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 0, 0, 123_456_789, tzone(t, "Asia/Tokyo"))
	a := NewObjectArray(7, nil)
	a.SetValue(0, "text")
	a.SetValue(2, 3.5)
	a.SetValue(3, int64(9_000_000_000))
	a.SetValue(4, int32(-7))
	a.SetValue(5, true)
	a.SetValue(6, ts)

	// Scalars keep their Go type through the round trip.
	got := roundTrip(t, a)
	for i := 0; i < a.Len(); i++ {
		if i == 6 {
			continue
		}
		if got.Value(i) != a.Value(i) {
			t.Errorf("Value(%d) = %v (%T), want %v (%T)",
				i, got.Value(i), got.Value(i), a.Value(i), a.Value(i))
		}
	}
	gt, ok := got.Value(6).(time.Time)
	if !ok || !gt.Equal(ts) || gt.Location().String() != "Asia/Tokyo" {
		t.Errorf("Value(6) = %v, want %v in Asia/Tokyo", got.Value(6), ts)
	}
}

func TestWriteReadObjectJSONFallback(t *testing.T) {
	a := NewObjectArray(1, nil)
	a.SetValue(0, map[string]any{"k": "v"})
	got := roundTrip(t, a)
	m, ok := got.Value(0).(map[string]any)
	if !ok || m["k"] != "v" {
		t.Errorf(`Value(0) = %v, want map with "k": "v"`, got.Value(0))
	}
}

// ============================================================================
// Coded / Zoned Round Trips
// ============================================================================

func TestWriteReadCodedEnum(t *testing.T) {
	a := NewCodedIntArray(NewEnumCoding([]string{"RED", "GREEN", "BLUE"}), 4, "GREEN")
	a.SetValue(0, "BLUE")
	a.SetValue(1, nil)
	got := roundTrip(t, a)
	assertArraysEqual(t, got, a)
	if got.DefaultValue() != "GREEN" {
		t.Errorf("DefaultValue() = %v, want GREEN", got.DefaultValue())
	}
}

func TestWriteReadCodedCurrency(t *testing.T) {
	a := NewCodedIntArray(NewCurrencyCoding(), 3, nil)
	a.SetValue(0, "USD")
	a.SetValue(2, "JPY")
	assertArraysEqual(t, roundTrip(t, a), a)
}

func TestWriteReadCodedTimes(t *testing.T) {
	dates := NewCodedLongArray(NewDateCoding(), 2, nil)
	dates.SetValue(0, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
	assertArraysEqual(t, roundTrip(t, dates), dates)

	instants := NewCodedLongArray(NewInstantCoding(), 2, nil)
	instants.SetValue(1, time.Date(2030, 1, 1, 6, 30, 0, 0, time.UTC))
	assertArraysEqual(t, roundTrip(t, instants), instants)

	tods := NewCodedLongArray(NewTimeOfDayCoding(), 2, nil)
	tods.SetValue(0, 9*time.Hour+15*time.Minute)
	assertArraysEqual(t, roundTrip(t, tods), tods)
}

func TestWriteReadCodedEnumUnserializable(t *testing.T) {
	// An enum over a non-string type has no registered tag and cannot be
	// persisted.
	a := NewCodedIntArray(NewEnumCoding([]int32{10, 20}), 1, nil)
	var buf bytes.Buffer
	err := a.Write(&buf)
	var ioErr *ArrayIOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("Write = %v, want *ArrayIOError", err)
	}
}

func TestWriteReadZoned(t *testing.T) {
	a := NewZonedDateTimeArray(3).(*zonedArray)
	a.SetTime(0, time.Date(2024, 6, 1, 8, 0, 0, 0, tzone(t, "Asia/Tokyo")))
	a.SetTime(2, time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))

	got := roundTrip(t, a).(*zonedArray)
	first, ok := got.Time(0)
	if !ok {
		t.Fatal("Time(0) ok = false after round trip")
	}
	if first.Location().String() != "Asia/Tokyo" {
		t.Errorf("zone = %s, want Asia/Tokyo", first.Location())
	}
	want, _ := a.Time(0)
	if !first.Equal(want) {
		t.Errorf("instant = %v, want %v", first, want)
	}
	if !got.IsNull(1) {
		t.Error("IsNull(1) = false after round trip")
	}
}

// ============================================================================
// Subsets / Compression / Failure Modes
// ============================================================================

func TestWriteArraySubset(t *testing.T) {
	a := ArrayOf([]int64{10, 20, 30, 40})
	var buf bytes.Buffer
	if err := WriteArraySubset(&buf, a, []int{3, 1}); err != nil {
		t.Fatalf("WriteArraySubset: %v", err)
	}
	got, err := ReadArray(&buf)
	if err != nil {
		t.Fatalf("ReadArray: %v", err)
	}
	if got.Len() != 2 || got.Value(0) != int64(40) || got.Value(1) != int64(20) {
		t.Errorf("subset = [%v %v], want [40 20]", got.Value(0), got.Value(1))
	}
}

func TestCompressedRoundTrip(t *testing.T) {
	a := NewIntRange(0, 10_000, 1).ToArray(false)
	var buf bytes.Buffer
	if err := WriteArrayCompressed(&buf, a); err != nil {
		t.Fatalf("WriteArrayCompressed: %v", err)
	}
	got, err := ReadArrayCompressed(&buf)
	if err != nil {
		t.Fatalf("ReadArrayCompressed: %v", err)
	}
	assertArraysEqual(t, got, a)
}

func TestReadTruncatedStream(t *testing.T) {
	a := ArrayOf([]float64{1, 2, 3, 4, 5})
	var buf bytes.Buffer
	if err := a.Write(&buf); err != nil {
		t.Fatal(err)
	}
	truncated := buf.Bytes()[:buf.Len()/2]

	_, err := ReadArray(bytes.NewReader(truncated))
	var ioErr *ArrayIOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("ReadArray(truncated) = %v, want *ArrayIOError", err)
	}
}

func TestReadCorruptCountPrefixes(t *testing.T) {
	// A stream whose stride claims the full segment capacity but whose
	// lanes end immediately must fail, not allocate length*stride bytes.
	var utf8Hdr bytes.Buffer
	utf8Hdr.Write([]byte{byte(Utf8), 1})
	utf8Hdr.Write([]byte{0x10, 0x00, 0x00, 0x00})  // length 16
	utf8Hdr.Write([]byte{0xFF, 0xFF, 0xFF, 0x7F})  // stride MaxInt32
	_, err := ReadArray(bytes.NewReader(utf8Hdr.Bytes()))
	var ioErr *ArrayIOError
	if !errors.As(err, &ioErr) {
		t.Errorf("ReadArray(oversized utf8 stride) = %v, want *ArrayIOError", err)
	}

	// A zoned stream claiming a table beyond the int16 code space is
	// rejected before any name is read.
	var zonedHdr bytes.Buffer
	zonedHdr.Write([]byte{byte(ZonedDateTime), 1})
	zonedHdr.Write([]byte{0x02, 0x00, 0x00, 0x00}) // length 2
	zonedHdr.Write([]byte{0xFF, 0xFF, 0xFF, 0x7F}) // zone count MaxInt32
	_, err = ReadArray(bytes.NewReader(zonedHdr.Bytes()))
	if !errors.As(err, &ioErr) {
		t.Errorf("ReadArray(oversized zone table) = %v, want *ArrayIOError", err)
	}

	// A coded stream claiming a huge string table fails at the stream end.
	var codedHdr bytes.Buffer
	codedHdr.Write([]byte{byte(CodedInt32), 1})
	codedHdr.Write([]byte{0x02, 0x00, 0x00, 0x00}) // length 2
	codedHdr.Write([]byte{byte(CodingStringEnum)})
	codedHdr.Write([]byte{0xFF, 0xFF, 0xFF, 0x7F}) // table count MaxInt32
	_, err = ReadArray(bytes.NewReader(codedHdr.Bytes()))
	if !errors.As(err, &ioErr) {
		t.Errorf("ReadArray(oversized coding table) = %v, want *ArrayIOError", err)
	}
}

func TestReadGarbageDType(t *testing.T) {
	if _, err := ReadArray(bytes.NewReader([]byte{0xFF, 0x01, 0, 0, 0, 0})); err == nil {
		t.Error("ReadArray with an unknown dtype byte did not fail")
	}
}
