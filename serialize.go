package caravel

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/snappy"
)

// ============================================================================
// Binary Persistence
// ============================================================================
//
// Each concrete array writes a common header (dtype tag, format version,
// length) followed by its own metadata (default value, coding table,
// stride) and a flat per-element dump, all little-endian. Readers must
// consume fields in the exact write order; the stream is not self-framing
// beyond the leading counts. The format targets round-trip fidelity within
// this implementation, not cross-language interoperability.

const serialVersion = 1

// ioChunkElems bounds the per-write staging buffer for bulk dumps.
const ioChunkElems = 4096

// ----------------------------------------------------------------------------
// Little-endian stream helpers
// ----------------------------------------------------------------------------

// binWriter carries a sticky error so Write methods read as straight-line
// field dumps.
type binWriter struct {
	w   io.Writer
	buf [8]byte
	err error
}

func (bw *binWriter) write(p []byte) {
	if bw.err != nil {
		return
	}
	_, bw.err = bw.w.Write(p)
}

func (bw *binWriter) u8(v uint8) {
	bw.buf[0] = v
	bw.write(bw.buf[:1])
}

func (bw *binWriter) u32(v uint32) {
	binary.LittleEndian.PutUint32(bw.buf[:4], v)
	bw.write(bw.buf[:4])
}

func (bw *binWriter) i32(v int32) { bw.u32(uint32(v)) }

func (bw *binWriter) u64(v uint64) {
	binary.LittleEndian.PutUint64(bw.buf[:8], v)
	bw.write(bw.buf[:8])
}

func (bw *binWriter) i64(v int64) { bw.u64(uint64(v)) }

func (bw *binWriter) f64(v float64) { bw.u64(math.Float64bits(v)) }

func (bw *binWriter) blob(p []byte) {
	bw.u32(uint32(len(p)))
	bw.write(p)
}

func (bw *binWriter) str(s string) { bw.blob([]byte(s)) }

// header emits the common array prefix.
func (bw *binWriter) header(dtype DType, length int) {
	bw.u8(uint8(dtype))
	bw.u8(serialVersion)
	bw.u32(uint32(length))
}

// int32s dumps a slice through a pooled staging buffer.
func (bw *binWriter) int32s(values []int32) {
	scratch := getByteScratch(ioChunkElems * 4)
	defer scratch.Release()
	for off := 0; off < len(values); off += ioChunkElems {
		chunk := values[off:min(off+ioChunkElems, len(values))]
		for i, v := range chunk {
			binary.LittleEndian.PutUint32(scratch.Data[i*4:], uint32(v))
		}
		bw.write(scratch.Data[:len(chunk)*4])
	}
}

func (bw *binWriter) int64s(values []int64) {
	scratch := getByteScratch(ioChunkElems * 8)
	defer scratch.Release()
	for off := 0; off < len(values); off += ioChunkElems {
		chunk := values[off:min(off+ioChunkElems, len(values))]
		for i, v := range chunk {
			binary.LittleEndian.PutUint64(scratch.Data[i*8:], uint64(v))
		}
		bw.write(scratch.Data[:len(chunk)*8])
	}
}

func (bw *binWriter) float64s(values []float64) {
	scratch := getByteScratch(ioChunkElems * 8)
	defer scratch.Release()
	for off := 0; off < len(values); off += ioChunkElems {
		chunk := values[off:min(off+ioChunkElems, len(values))]
		for i, v := range chunk {
			binary.LittleEndian.PutUint64(scratch.Data[i*8:], math.Float64bits(v))
		}
		bw.write(scratch.Data[:len(chunk)*8])
	}
}

func (bw *binWriter) int16s(values []int16) {
	scratch := getByteScratch(ioChunkElems * 2)
	defer scratch.Release()
	for off := 0; off < len(values); off += ioChunkElems {
		chunk := values[off:min(off+ioChunkElems, len(values))]
		for i, v := range chunk {
			binary.LittleEndian.PutUint16(scratch.Data[i*2:], uint16(v))
		}
		bw.write(scratch.Data[:len(chunk)*2])
	}
}

func (bw *binWriter) bools(values []bool) {
	scratch := getByteScratch(ioChunkElems)
	defer scratch.Release()
	for off := 0; off < len(values); off += ioChunkElems {
		chunk := values[off:min(off+ioChunkElems, len(values))]
		for i, v := range chunk {
			if v {
				scratch.Data[i] = 1
			} else {
				scratch.Data[i] = 0
			}
		}
		bw.write(scratch.Data[:len(chunk)])
	}
}

func (bw *binWriter) uint16s(values []uint16) {
	scratch := getByteScratch(ioChunkElems * 2)
	defer scratch.Release()
	for off := 0; off < len(values); off += ioChunkElems {
		chunk := values[off:min(off+ioChunkElems, len(values))]
		for i, v := range chunk {
			binary.LittleEndian.PutUint16(scratch.Data[i*2:], v)
		}
		bw.write(scratch.Data[:len(chunk)*2])
	}
}

func (bw *binWriter) finish(op string) error {
	if bw.err != nil {
		return ioErrorf(op, bw.err)
	}
	return nil
}

// binReader mirrors binWriter with io.ReadFull semantics, so a truncated
// stream surfaces as io.ErrUnexpectedEOF instead of a short parse.
type binReader struct {
	r   io.Reader
	buf [8]byte
	err error
}

func (br *binReader) read(p []byte) {
	if br.err != nil {
		return
	}
	_, br.err = io.ReadFull(br.r, p)
}

func (br *binReader) u8() uint8 {
	br.read(br.buf[:1])
	return br.buf[0]
}

func (br *binReader) u32() uint32 {
	br.read(br.buf[:4])
	return binary.LittleEndian.Uint32(br.buf[:4])
}

func (br *binReader) i32() int32 { return int32(br.u32()) }

func (br *binReader) u64() uint64 {
	br.read(br.buf[:8])
	return binary.LittleEndian.Uint64(br.buf[:8])
}

func (br *binReader) i64() int64 { return int64(br.u64()) }

func (br *binReader) f64() float64 { return math.Float64frombits(br.u64()) }

// blob reads a length-prefixed byte block, growing the buffer chunk by
// chunk so a corrupt length prefix fails at the stream end instead of
// reserving the claimed size up front.
func (br *binReader) blob() []byte {
	n := int(br.u32())
	if br.err != nil {
		return nil
	}
	p := make([]byte, 0, min(n, ioChunkElems))
	for len(p) < n && br.err == nil {
		chunk := min(n-len(p), ioChunkElems)
		start := len(p)
		p = append(p, make([]byte, chunk)...)
		br.read(p[start:])
	}
	return p
}

func (br *binReader) str() string { return string(br.blob()) }

func (br *binReader) int32s(out []int32) {
	scratch := getByteScratch(ioChunkElems * 4)
	defer scratch.Release()
	for off := 0; off < len(out); off += ioChunkElems {
		chunk := out[off:min(off+ioChunkElems, len(out))]
		br.read(scratch.Data[:len(chunk)*4])
		if br.err != nil {
			return
		}
		for i := range chunk {
			chunk[i] = int32(binary.LittleEndian.Uint32(scratch.Data[i*4:]))
		}
	}
}

// int32sGrow reads n little-endian int32s into a buffer that grows with the
// stream, for lanes whose count comes from an untrusted prefix.
func (br *binReader) int32sGrow(n int) []int32 {
	out := make([]int32, 0, min(n, ioChunkElems))
	for len(out) < n && br.err == nil {
		chunk := min(n-len(out), ioChunkElems)
		start := len(out)
		out = append(out, make([]int32, chunk)...)
		br.int32s(out[start:])
	}
	return out
}

func (br *binReader) int64s(out []int64) {
	scratch := getByteScratch(ioChunkElems * 8)
	defer scratch.Release()
	for off := 0; off < len(out); off += ioChunkElems {
		chunk := out[off:min(off+ioChunkElems, len(out))]
		br.read(scratch.Data[:len(chunk)*8])
		if br.err != nil {
			return
		}
		for i := range chunk {
			chunk[i] = int64(binary.LittleEndian.Uint64(scratch.Data[i*8:]))
		}
	}
}

func (br *binReader) float64s(out []float64) {
	scratch := getByteScratch(ioChunkElems * 8)
	defer scratch.Release()
	for off := 0; off < len(out); off += ioChunkElems {
		chunk := out[off:min(off+ioChunkElems, len(out))]
		br.read(scratch.Data[:len(chunk)*8])
		if br.err != nil {
			return
		}
		for i := range chunk {
			chunk[i] = math.Float64frombits(binary.LittleEndian.Uint64(scratch.Data[i*8:]))
		}
	}
}

func (br *binReader) int16s(out []int16) {
	scratch := getByteScratch(ioChunkElems * 2)
	defer scratch.Release()
	for off := 0; off < len(out); off += ioChunkElems {
		chunk := out[off:min(off+ioChunkElems, len(out))]
		br.read(scratch.Data[:len(chunk)*2])
		if br.err != nil {
			return
		}
		for i := range chunk {
			chunk[i] = int16(binary.LittleEndian.Uint16(scratch.Data[i*2:]))
		}
	}
}

func (br *binReader) bools(out []bool) {
	scratch := getByteScratch(ioChunkElems)
	defer scratch.Release()
	for off := 0; off < len(out); off += ioChunkElems {
		chunk := out[off:min(off+ioChunkElems, len(out))]
		br.read(scratch.Data[:len(chunk)])
		if br.err != nil {
			return
		}
		for i := range chunk {
			chunk[i] = scratch.Data[i] != 0
		}
	}
}

func (br *binReader) uint16s(out []uint16) {
	scratch := getByteScratch(ioChunkElems * 2)
	defer scratch.Release()
	for off := 0; off < len(out); off += ioChunkElems {
		chunk := out[off:min(off+ioChunkElems, len(out))]
		br.read(scratch.Data[:len(chunk)*2])
		if br.err != nil {
			return
		}
		for i := range chunk {
			chunk[i] = binary.LittleEndian.Uint16(scratch.Data[i*2:])
		}
	}
}

func (br *binReader) finish(op string) error {
	if br.err != nil {
		return ioErrorf(op, br.err)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Per-type writers
// ----------------------------------------------------------------------------

func (a *boolArray) Write(w io.Writer) error {
	bw := &binWriter{w: w}
	bw.header(Bool, len(a.values))
	if a.defaultValue {
		bw.u8(1)
	} else {
		bw.u8(0)
	}
	bw.bools(a.values)
	return bw.finish("write bool array")
}

func (a *intArray) Write(w io.Writer) error {
	bw := &binWriter{w: w}
	bw.header(Int32, len(a.values))
	bw.i32(a.defaultValue)
	bw.int32s(a.values)
	return bw.finish("write int array")
}

func (a *longArray) Write(w io.Writer) error {
	bw := &binWriter{w: w}
	bw.header(Int64, len(a.values))
	bw.i64(a.defaultValue)
	bw.int64s(a.values)
	return bw.finish("write long array")
}

func (a *doubleArray) Write(w io.Writer) error {
	bw := &binWriter{w: w}
	bw.header(Float64, len(a.values))
	bw.f64(a.defaultValue)
	bw.float64s(a.values)
	return bw.finish("write double array")
}

// Object cell tags. The scalar types the library models round-trip with
// their Go type; everything else falls back to a JSON payload and decodes
// per JSON semantics (numbers come back as float64).
const (
	objCellNull     = uint8(0)
	objCellBool     = uint8(1)
	objCellInt32    = uint8(2)
	objCellInt64    = uint8(3)
	objCellFloat64  = uint8(4)
	objCellString   = uint8(5)
	objCellTime     = uint8(6)
	objCellDuration = uint8(7)
	objCellJSON     = uint8(8)
)

func (bw *binWriter) objectCell(v any) error {
	switch x := v.(type) {
	case nil:
		bw.u8(objCellNull)
	case bool:
		bw.u8(objCellBool)
		if x {
			bw.u8(1)
		} else {
			bw.u8(0)
		}
	case int32:
		bw.u8(objCellInt32)
		bw.i32(x)
	case int64:
		bw.u8(objCellInt64)
		bw.i64(x)
	case float64:
		bw.u8(objCellFloat64)
		bw.f64(x)
	case string:
		bw.u8(objCellString)
		bw.str(x)
	case time.Time:
		bw.u8(objCellTime)
		bw.i64(x.UnixNano())
		bw.str(x.Location().String())
	case time.Duration:
		bw.u8(objCellDuration)
		bw.i64(int64(x))
	default:
		body, err := json.Marshal(v)
		if err != nil {
			return err
		}
		bw.u8(objCellJSON)
		bw.blob(body)
	}
	return nil
}

func (br *binReader) objectCell() (any, error) {
	switch tag := br.u8(); tag {
	case objCellNull:
		return nil, nil
	case objCellBool:
		return br.u8() != 0, nil
	case objCellInt32:
		return br.i32(), nil
	case objCellInt64:
		return br.i64(), nil
	case objCellFloat64:
		return br.f64(), nil
	case objCellString:
		return br.str(), nil
	case objCellTime:
		nanos := br.i64()
		name := br.str()
		loc, err := loadZone(name)
		if err != nil {
			loc = time.UTC
		}
		return time.Unix(0, nanos).In(loc), nil
	case objCellDuration:
		return time.Duration(br.i64()), nil
	case objCellJSON:
		blob := br.blob()
		if br.err != nil {
			return nil, nil
		}
		var v any
		if err := json.Unmarshal(blob, &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		if br.err != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("unknown object cell tag %d", tag)
	}
}

// Write persists boxed values as tagged cells.
func (a *objectArray) Write(w io.Writer) error {
	bw := &binWriter{w: w}
	bw.header(Object, len(a.values))
	if err := bw.objectCell(a.defaultValue); err != nil {
		return ioErrorf("write object array default", err)
	}
	for i, v := range a.values {
		if bw.err != nil {
			break
		}
		if err := bw.objectCell(v); err != nil {
			return ioErrorf(fmt.Sprintf("write object array element %d", i), err)
		}
	}
	return bw.finish("write object array")
}

func (a *utf8Array) Write(w io.Writer) error {
	bw := &binWriter{w: w}
	bw.header(Utf8, len(a.widths))
	bw.u32(uint32(a.maxWidth))
	bw.int32s(a.widths)
	for i, width := range a.widths {
		if width < 0 {
			continue
		}
		bw.write(a.span(i))
	}
	return bw.finish("write utf8 array")
}

func (a *utf16Array) Write(w io.Writer) error {
	bw := &binWriter{w: w}
	bw.header(Utf16, len(a.widths))
	bw.u32(uint32(a.maxWidth))
	bw.int32s(a.widths)
	for i, width := range a.widths {
		if width < 0 {
			continue
		}
		bw.uint16s(a.span(i))
	}
	return bw.finish("write utf16 array")
}

// codingTable extracts the string table of a table-backed coding.
func codingTable[T comparable](coding any) ([]string, bool) {
	tc, ok := coding.(interface{ table() []T })
	if !ok {
		return nil, false
	}
	strs, ok := any(tc.table()).([]string)
	return strs, ok
}

func (a *codedIntArray[T]) Write(w io.Writer) error {
	tag := a.coding.Tag()
	if tag == CodingNone {
		return ioErrorf("write coded int array", fmt.Errorf("coding over %T has no serializable tag", *new(T)))
	}
	table, ok := codingTable[T](a.coding)
	if !ok {
		return ioErrorf("write coded int array", fmt.Errorf("coding tag %d has no string table", tag))
	}
	bw := &binWriter{w: w}
	bw.header(CodedInt32, len(a.codes))
	bw.u8(uint8(tag))
	bw.u32(uint32(len(table)))
	for _, s := range table {
		bw.str(s)
	}
	bw.i32(a.defaultCode)
	bw.int32s(a.codes)
	return bw.finish("write coded int array")
}

func (a *codedLongArray[T]) Write(w io.Writer) error {
	tag := a.coding.Tag()
	if tag != CodingDate && tag != CodingInstant && tag != CodingTimeOfDay {
		return ioErrorf("write coded long array", fmt.Errorf("coding tag %d is not serializable", tag))
	}
	bw := &binWriter{w: w}
	bw.header(CodedInt64, len(a.codes))
	bw.u8(uint8(tag))
	bw.i64(a.defaultCode)
	bw.int64s(a.codes)
	return bw.finish("write coded long array")
}

func (a *zonedArray) Write(w io.Writer) error {
	initZoneTable()
	zoneMu.RLock()
	names := append([]string{}, zoneNames...)
	zoneMu.RUnlock()
	bw := &binWriter{w: w}
	bw.header(ZonedDateTime, len(a.millis))
	bw.u32(uint32(len(names)))
	for _, name := range names {
		bw.str(name)
	}
	bw.int64s(a.millis)
	bw.int16s(a.zones)
	return bw.finish("write zoned array")
}

// ----------------------------------------------------------------------------
// Reader
// ----------------------------------------------------------------------------

// ReadArray reconstructs an array written by Write. The concrete type is
// selected by the leading dtype tag; coded arrays rebuild their coding
// from a closed registry keyed by the coding tag.
func ReadArray(r io.Reader) (Array, error) {
	br := &binReader{r: r}
	dtype := DType(br.u8())
	version := br.u8()
	length := int(br.u32())
	if err := br.finish("read array header"); err != nil {
		return nil, err
	}
	if version != serialVersion {
		return nil, ioErrorf("read array header", fmt.Errorf("format version %d, expected %d", version, serialVersion))
	}
	if length < 0 {
		return nil, ioErrorf("read array header", fmt.Errorf("negative length %d", length))
	}

	switch dtype {
	case Bool:
		def := br.u8()
		a := NewBoolArray(length, def != 0).(*boolArray)
		br.bools(a.values)
		return finishRead(a, br, "read bool array")
	case Int32:
		def := br.i32()
		a := NewIntArray(length, def).(*intArray)
		br.int32s(a.values)
		return finishRead(a, br, "read int array")
	case Int64:
		def := br.i64()
		a := NewLongArray(length, def).(*longArray)
		br.int64s(a.values)
		return finishRead(a, br, "read long array")
	case Float64:
		def := br.f64()
		a := NewDoubleArray(length, def).(*doubleArray)
		br.float64s(a.values)
		return finishRead(a, br, "read double array")
	case Object:
		return readObjectArray(br, length)
	case Utf8:
		return readUtf8Array(br, length)
	case Utf16:
		return readUtf16Array(br, length)
	case CodedInt32:
		return readCodedIntArray(br, length)
	case CodedInt64:
		return readCodedLongArray(br, length)
	case ZonedDateTime:
		return readZonedArray(br, length)
	default:
		return nil, ioErrorf("read array", fmt.Errorf("unknown dtype tag %d", uint8(dtype)))
	}
}

func finishRead(a Array, br *binReader, op string) (Array, error) {
	if err := br.finish(op); err != nil {
		return nil, err
	}
	return a, nil
}

func readObjectArray(br *binReader, length int) (Array, error) {
	def, err := br.objectCell()
	if err != nil {
		return nil, ioErrorf("read object array default", err)
	}
	values := make([]any, 0, min(length, ioChunkElems))
	for i := 0; i < length && br.err == nil; i++ {
		v, err := br.objectCell()
		if err != nil {
			return nil, ioErrorf("read object array values", err)
		}
		values = append(values, v)
	}
	if err := br.finish("read object array"); err != nil {
		return nil, err
	}
	a := NewObjectArray(0, def).(*objectArray)
	a.values = values
	return a, nil
}

func readUtf8Array(br *binReader, length int) (Array, error) {
	maxWidth := int(br.u32())
	if err := br.finish("read utf8 array"); err != nil {
		return nil, err
	}
	if maxWidth <= 0 || int64(maxWidth) > segmentCapacity {
		return nil, ioErrorf("read utf8 array", fmt.Errorf("stride %d outside (0, %d]", maxWidth, segmentCapacity))
	}
	widths := br.int32sGrow(length)
	if err := br.finish("read utf8 array"); err != nil {
		return nil, err
	}
	// Size the segments by the widest element actually present, not by the
	// stream's claimed stride, so a corrupt header cannot force an
	// oversized allocation.
	width := 1
	for i, w := range widths {
		if int(w) > maxWidth {
			return nil, ioErrorf("read utf8 array", fmt.Errorf("element %d width %d exceeds stride %d", i, w, maxWidth))
		}
		if int(w) > width {
			width = int(w)
		}
	}
	a := NewUtf8Array(length, width).(*utf8Array)
	copy(a.widths, widths)
	for i, w := range widths {
		if br.err != nil {
			break
		}
		if w < 0 {
			continue
		}
		br.read(a.span(i))
	}
	return finishRead(a, br, "read utf8 array")
}

func readUtf16Array(br *binReader, length int) (Array, error) {
	maxWidth := int(br.u32())
	if err := br.finish("read utf16 array"); err != nil {
		return nil, err
	}
	if maxWidth <= 0 || int64(maxWidth) > segmentCapacity {
		return nil, ioErrorf("read utf16 array", fmt.Errorf("stride %d outside (0, %d]", maxWidth, segmentCapacity))
	}
	widths := br.int32sGrow(length)
	if err := br.finish("read utf16 array"); err != nil {
		return nil, err
	}
	width := 1
	for i, w := range widths {
		if int(w) > maxWidth {
			return nil, ioErrorf("read utf16 array", fmt.Errorf("element %d width %d exceeds stride %d", i, w, maxWidth))
		}
		if int(w) > width {
			width = int(w)
		}
	}
	a := NewUtf16Array(length, width).(*utf16Array)
	copy(a.widths, widths)
	for i, w := range widths {
		if br.err != nil {
			break
		}
		if w < 0 {
			continue
		}
		br.uint16s(a.span(i))
	}
	return finishRead(a, br, "read utf16 array")
}

func readCodedIntArray(br *binReader, length int) (Array, error) {
	tag := CodingTag(br.u8())
	count := int(br.u32())
	if err := br.finish("read coded int array"); err != nil {
		return nil, err
	}
	// The table grows with the stream, so a corrupt count fails at the
	// stream end instead of allocating the claimed size.
	table := make([]string, 0, min(count, ioChunkElems))
	for i := 0; i < count && br.err == nil; i++ {
		table = append(table, br.str())
	}
	defaultCode := br.i32()
	if err := br.finish("read coded int array"); err != nil {
		return nil, err
	}

	var coding IntCoding[string]
	switch tag {
	case CodingStringEnum:
		coding = NewEnumCoding(table)
	case CodingCurrency:
		coding = newTableCoding(table, CodingCurrency)
	case CodingZone:
		coding = NewZoneCoding(table)
	default:
		return nil, ioErrorf("read coded int array", fmt.Errorf("unknown coding tag %d", uint8(tag)))
	}

	a := &codedIntArray[string]{
		baseArray:     baseArray{dtype: CodedInt32},
		codedIntStore: &codedIntStore{codes: make([]int32, length)},
		coding:        coding,
		defaultCode:   defaultCode,
	}
	if defaultCode != coding.NullCode() {
		a.defaultValue = coding.Decode(defaultCode)
	}
	br.int32s(a.codes)
	return finishRead(a, br, "read coded int array")
}

func readCodedLongArray(br *binReader, length int) (Array, error) {
	tag := CodingTag(br.u8())
	defaultCode := br.i64()
	if err := br.finish("read coded long array"); err != nil {
		return nil, err
	}

	switch tag {
	case CodingDate, CodingInstant:
		var coding LongCoding[time.Time]
		if tag == CodingDate {
			coding = NewDateCoding()
		} else {
			coding = NewInstantCoding()
		}
		a := &codedLongArray[time.Time]{
			baseArray:      baseArray{dtype: CodedInt64},
			codedLongStore: &codedLongStore{codes: make([]int64, length)},
			coding:         coding,
			defaultCode:    defaultCode,
		}
		if defaultCode != coding.NullCode() {
			a.defaultValue = coding.Decode(defaultCode)
		}
		br.int64s(a.codes)
		return finishRead(a, br, "read coded long array")
	case CodingTimeOfDay:
		coding := NewTimeOfDayCoding()
		a := &codedLongArray[time.Duration]{
			baseArray:      baseArray{dtype: CodedInt64},
			codedLongStore: &codedLongStore{codes: make([]int64, length)},
			coding:         coding,
			defaultCode:    defaultCode,
		}
		if defaultCode != coding.NullCode() {
			a.defaultValue = coding.Decode(defaultCode)
		}
		br.int64s(a.codes)
		return finishRead(a, br, "read coded long array")
	default:
		return nil, ioErrorf("read coded long array", fmt.Errorf("unknown coding tag %d", uint8(tag)))
	}
}

func readZonedArray(br *binReader, length int) (Array, error) {
	count := int(br.u32())
	if err := br.finish("read zoned array"); err != nil {
		return nil, err
	}
	if count > math.MaxInt16+1 {
		return nil, ioErrorf("read zoned array", fmt.Errorf("zone table size %d exceeds the int16 code space", count))
	}
	names := make([]string, 0, count)
	for i := 0; i < count && br.err == nil; i++ {
		names = append(names, br.str())
	}
	if err := br.finish("read zoned array"); err != nil {
		return nil, err
	}

	// Remap stream zone codes into this process's interned table.
	remap := make([]int16, count)
	for i, name := range names {
		code, err := internZone(name)
		if err != nil {
			return nil, ioErrorf("read zoned array", fmt.Errorf("zone %q is not a loadable location: %w", name, err))
		}
		remap[i] = code
	}

	a := NewZonedDateTimeArray(length).(*zonedArray)
	br.int64s(a.millis)
	br.int16s(a.zones)
	if err := br.finish("read zoned array"); err != nil {
		return nil, err
	}
	for i, z := range a.zones {
		if int(z) < 0 || int(z) >= count {
			return nil, ioErrorf("read zoned array", fmt.Errorf("element %d zone code %d outside the name table", i, z))
		}
		a.zones[i] = remap[z]
	}
	return a, nil
}

// ----------------------------------------------------------------------------
// Subset / compressed forms
// ----------------------------------------------------------------------------

// WriteArraySubset writes only the elements at the given indexes, as an
// array of that shorter length.
func WriteArraySubset(w io.Writer, a Array, indexes []int) error {
	return a.CopyIndexes(indexes).Write(w)
}

// WriteArrayCompressed writes the array through a snappy-framed stream.
func WriteArrayCompressed(w io.Writer, a Array) error {
	sw := snappy.NewBufferedWriter(w)
	if err := a.Write(sw); err != nil {
		sw.Close()
		return err
	}
	if err := sw.Close(); err != nil {
		return ioErrorf("write compressed array", err)
	}
	return nil
}

// ReadArrayCompressed reads an array written by WriteArrayCompressed.
func ReadArrayCompressed(r io.Reader) (Array, error) {
	return ReadArray(snappy.NewReader(r))
}
