package caravel

import (
	"bytes"
	"math"

	"github.com/cespare/xxhash/v2"
)

// defaultStringWidth is the initial per-element stride of a packed string
// array when the caller does not pre-size.
const defaultStringWidth = 16

// segmentCapacity caps the logical byte span addressed by one segment.
// Element offsets are computed as 64-bit logical positions folded into a
// (segment, offset) pair at this boundary.
const segmentCapacity = int64(math.MaxInt32)

// utf8Array stores variable-length text packed into fixed-stride byte
// segments: element i lives at offset (i*maxWidth) % segmentCapacity of
// segment (i*maxWidth) / segmentCapacity, occupying widths[i] bytes.
// widths[i] == -1 marks null; 0 marks the empty string (a distinct state).
//
// Writing a value longer than the current stride re-strides the whole
// array: every segment is reallocated at the doubled width and every live
// element is copied to its new offset. This is the most expensive mutation
// in the library; repeated appends of growing strings are quadratic unless
// the caller pre-sizes the width.
type utf8Array struct {
	baseArray
	*utf8Store
	defaultValue any
}

// utf8Store is the segment set shared by every view of one array. Parallel
// and Sequential clone only the view struct and keep the store pointer, so
// a re-stride or Expand through one view is seen by all.
type utf8Store struct {
	widths     []int32
	data       [][]byte
	maxWidth   int
	maxWidth64 int64
}

// NewUtf8Array creates a packed UTF-8 string array of the given length and
// initial per-element width capacity. All slots start null.
func NewUtf8Array(length, width int) Array {
	if width <= 0 {
		width = defaultStringWidth
	}
	a := &utf8Array{
		baseArray: baseArray{dtype: Utf8},
		utf8Store: &utf8Store{
			widths:     make([]int32, length),
			maxWidth:   width,
			maxWidth64: int64(width),
		},
	}
	for i := range a.widths {
		a.widths[i] = -1
	}
	a.data = allocByteSegments(length, width)
	return a
}

// allocByteSegments sizes the segment set for length elements at the given
// stride.
func allocByteSegments(length, width int) [][]byte {
	total := int64(length) * int64(width)
	numSegments := int(total/segmentCapacity) + 1
	segments := make([][]byte, numSegments)
	for k := range segments {
		size := total - int64(k)*segmentCapacity
		if size > segmentCapacity {
			size = segmentCapacity
		}
		if size < 0 {
			size = 0
		}
		segments[k] = make([]byte, size)
	}
	return segments
}

func (a *utf8Array) segmentOf(index int) []byte {
	return a.data[(int64(index)*a.maxWidth64)/segmentCapacity]
}

func (a *utf8Array) startOf(index int) int {
	return int((int64(index) * a.maxWidth64) % segmentCapacity)
}

// span returns the live bytes of element index; nil width yields nil.
func (a *utf8Array) span(index int) []byte {
	w := a.widths[index]
	if w < 0 {
		return nil
	}
	start := a.startOf(index)
	return a.segmentOf(index)[start : start+int(w)]
}

func (a *utf8Array) Len() int          { return len(a.widths) }
func (a *utf8Array) DefaultValue() any { return a.defaultValue }

func (a *utf8Array) IsNull(index int) bool {
	boundsCheck(index, len(a.widths))
	return a.widths[index] < 0
}

// Str returns the element and whether it is non-null.
func (a *utf8Array) Str(index int) (string, bool) {
	boundsCheck(index, len(a.widths))
	if a.widths[index] < 0 {
		return "", false
	}
	return string(a.span(index)), true
}

// SetStr stores a string, re-striding first if it exceeds the current
// width capacity.
func (a *utf8Array) SetStr(index int, value string) {
	boundsCheck(index, len(a.widths))
	if len(value) > a.maxWidth {
		a.resize(len(value))
	}
	a.widths[index] = int32(len(value))
	start := a.startOf(index)
	copy(a.segmentOf(index)[start:start+len(value)], value)
}

func (a *utf8Array) setNull(index int) {
	boundsCheck(index, len(a.widths))
	a.widths[index] = -1
}

// resize re-strides every segment to a doubled width that fits required
// and copies each live element to its new offset. O(n * maxWidth).
func (a *utf8Array) resize(required int) {
	newWidth := a.maxWidth
	for newWidth < required {
		newWidth *= 2
	}
	newData := allocByteSegments(len(a.widths), newWidth)
	newWidth64 := int64(newWidth)
	for i, w := range a.widths {
		if w < 0 {
			continue
		}
		src := a.span(i)
		pos := int64(i) * newWidth64
		seg := newData[pos/segmentCapacity]
		start := int(pos % segmentCapacity)
		copy(seg[start:start+int(w)], src)
	}
	a.data = newData
	a.maxWidth = newWidth
	a.maxWidth64 = newWidth64
}

func (a *utf8Array) Value(index int) any {
	s, ok := a.Str(index)
	if !ok {
		return nil
	}
	return s
}

func (a *utf8Array) SetValue(index int, value any) {
	if value == nil {
		if a.defaultValue == nil {
			a.setNull(index)
		} else {
			a.SetStr(index, a.defaultValue.(string))
		}
		return
	}
	a.SetStr(index, value.(string))
}

func (a *utf8Array) Fill(value any, start, end int) {
	rangeCheck(start, end, len(a.widths))
	for i := start; i < end; i++ {
		a.SetValue(i, value)
	}
}

func (a *utf8Array) Expand(newLength int) {
	if newLength <= len(a.widths) {
		return
	}
	oldLength := len(a.widths)
	grownWidths := make([]int32, newLength)
	copy(grownWidths, a.widths)
	grownData := allocByteSegments(newLength, a.maxWidth)
	for k := range a.data {
		copy(grownData[k], a.data[k])
	}
	a.widths = grownWidths
	a.data = grownData
	for i := oldLength; i < newLength; i++ {
		a.widths[i] = -1
		if a.defaultValue != nil {
			a.SetStr(i, a.defaultValue.(string))
		}
	}
}

func (a *utf8Array) Copy() Array {
	return a.CopySlice(0, len(a.widths))
}

func (a *utf8Array) CopySlice(start, end int) Array {
	rangeCheck(start, end, len(a.widths))
	out := NewUtf8Array(end-start, a.maxWidth).(*utf8Array)
	out.parallel = a.parallel
	out.defaultValue = a.defaultValue
	for i := start; i < end; i++ {
		if w := a.widths[i]; w >= 0 {
			out.widths[i-start] = w
			dst := out.startOf(i - start)
			copy(out.segmentOf(i-start)[dst:dst+int(w)], a.span(i))
		}
	}
	return out
}

func (a *utf8Array) CopyIndexes(indexes []int) Array {
	out := NewUtf8Array(len(indexes), a.maxWidth).(*utf8Array)
	out.parallel = a.parallel
	out.defaultValue = a.defaultValue
	for k, idx := range indexes {
		boundsCheck(idx, len(a.widths))
		if w := a.widths[idx]; w >= 0 {
			out.widths[k] = w
			dst := out.startOf(k)
			copy(out.segmentOf(k)[dst:dst+int(w)], a.span(idx))
		}
	}
	return out
}

// Update copies raw byte spans when the source is the same concrete type;
// otherwise values round-trip through string.
func (a *utf8Array) Update(toIndex int, from Array, fromIndex, length int) {
	a.Expand(toIndex + length)
	if src, ok := from.(*utf8Array); ok {
		rangeCheck(fromIndex, fromIndex+length, len(src.widths))
		for k := 0; k < length; k++ {
			a.copyRaw(toIndex+k, src, fromIndex+k)
		}
		return
	}
	for k := 0; k < length; k++ {
		a.SetValue(toIndex+k, from.Value(fromIndex+k))
	}
}

func (a *utf8Array) UpdateIndexes(from Array, fromIndexes, toIndexes []int) {
	checkIndexPair(fromIndexes, toIndexes)
	if src, ok := from.(*utf8Array); ok {
		for k := range fromIndexes {
			boundsCheck(fromIndexes[k], len(src.widths))
			boundsCheck(toIndexes[k], len(a.widths))
			a.copyRaw(toIndexes[k], src, fromIndexes[k])
		}
		return
	}
	for k := range fromIndexes {
		a.SetValue(toIndexes[k], from.Value(fromIndexes[k]))
	}
}

func (a *utf8Array) copyRaw(toIndex int, src *utf8Array, fromIndex int) {
	w := src.widths[fromIndex]
	if w < 0 {
		a.widths[toIndex] = -1
		return
	}
	if int(w) > a.maxWidth {
		a.resize(int(w))
	}
	a.widths[toIndex] = w
	start := a.startOf(toIndex)
	copy(a.segmentOf(toIndex)[start:start+int(w)], src.span(fromIndex))
}

// compare orders elements lexicographically over the raw segment bytes,
// without materialising strings. Null sorts before everything.
func (a *utf8Array) compare(i, j int) int {
	wi, wj := a.widths[i], a.widths[j]
	switch {
	case wi < 0 && wj < 0:
		return 0
	case wi < 0:
		return -1
	case wj < 0:
		return 1
	}
	return bytes.Compare(a.span(i), a.span(j))
}

// swap exchanges two elements in place within the stride. Both elements
// already fit in maxWidth by construction.
func (a *utf8Array) swap(i, j int) {
	wi, wj := a.widths[i], a.widths[j]
	n := int(max(wi, wj))
	si, sj := a.segmentOf(i), a.segmentOf(j)
	oi, oj := a.startOf(i), a.startOf(j)
	for k := 0; k < n; k++ {
		si[oi+k], sj[oj+k] = sj[oj+k], si[oi+k]
	}
	a.widths[i], a.widths[j] = wj, wi
}

func (a *utf8Array) Sort(start, end, multiplier int) {
	rangeCheck(start, end, len(a.widths))
	comp := comparatorOf(func(i, j int) int {
		return multiplier * a.compare(i, j)
	})
	sortRange(comp, swapperOf(a.swap), start, end, a.parallel)
}

// Distinct hashes raw spans with xxhash so candidate probing never
// materialises a string; equal hashes are verified byte-wise.
func (a *utf8Array) Distinct(limit int) Array {
	candidates := make(map[uint64][]int)
	firstSeen := make([]int, 0, 16)
	seenNull := false
outer:
	for i := range a.widths {
		if a.widths[i] < 0 {
			if !seenNull {
				seenNull = true
				firstSeen = append(firstSeen, i)
			}
		} else {
			span := a.span(i)
			h := xxhash.Sum64(span)
			for _, prev := range candidates[h] {
				if bytes.Equal(span, a.span(prev)) {
					continue outer
				}
			}
			candidates[h] = append(candidates[h], i)
			firstSeen = append(firstSeen, i)
		}
		if limit > 0 && len(firstSeen) >= limit {
			break
		}
	}
	out := NewUtf8Array(len(firstSeen), a.maxWidth).(*utf8Array)
	out.defaultValue = a.defaultValue
	for k, idx := range firstSeen {
		out.copyRaw(k, a, idx)
	}
	return out
}

func (a *utf8Array) CumSum() Array {
	unsupported("CumSum", Utf8)
	return nil
}

func (a *utf8Array) Parallel() Array {
	clone := *a
	clone.parallel = true
	return &clone
}

func (a *utf8Array) Sequential() Array {
	clone := *a
	clone.parallel = false
	return &clone
}

