package caravel

import (
	"unicode/utf16"
)

// utf16Array is the UTF-16 sibling of utf8Array: the same stride-addressed
// segment layout, with widths measured in 16-bit code units. It trades
// space against utf8Array for text dominated by BMP code points outside
// ASCII, where UTF-8 costs up to three bytes per rune.
type utf16Array struct {
	baseArray
	*utf16Store
	defaultValue any
}

// utf16Store is the segment set shared by every view of one array, mirroring
// utf8Store.
type utf16Store struct {
	widths     []int32
	data       [][]uint16
	maxWidth   int
	maxWidth64 int64
}

// NewUtf16Array creates a packed UTF-16 string array of the given length
// and initial per-element width capacity (in code units). All slots start
// null.
func NewUtf16Array(length, width int) Array {
	if width <= 0 {
		width = defaultStringWidth
	}
	a := &utf16Array{
		baseArray: baseArray{dtype: Utf16},
		utf16Store: &utf16Store{
			widths:     make([]int32, length),
			maxWidth:   width,
			maxWidth64: int64(width),
		},
	}
	for i := range a.widths {
		a.widths[i] = -1
	}
	a.data = allocUint16Segments(length, width)
	return a
}

func allocUint16Segments(length, width int) [][]uint16 {
	total := int64(length) * int64(width)
	numSegments := int(total/segmentCapacity) + 1
	segments := make([][]uint16, numSegments)
	for k := range segments {
		size := total - int64(k)*segmentCapacity
		if size > segmentCapacity {
			size = segmentCapacity
		}
		if size < 0 {
			size = 0
		}
		segments[k] = make([]uint16, size)
	}
	return segments
}

func (a *utf16Array) segmentOf(index int) []uint16 {
	return a.data[(int64(index)*a.maxWidth64)/segmentCapacity]
}

func (a *utf16Array) startOf(index int) int {
	return int((int64(index) * a.maxWidth64) % segmentCapacity)
}

func (a *utf16Array) span(index int) []uint16 {
	w := a.widths[index]
	if w < 0 {
		return nil
	}
	start := a.startOf(index)
	return a.segmentOf(index)[start : start+int(w)]
}

func (a *utf16Array) Len() int          { return len(a.widths) }
func (a *utf16Array) DefaultValue() any { return a.defaultValue }

func (a *utf16Array) IsNull(index int) bool {
	boundsCheck(index, len(a.widths))
	return a.widths[index] < 0
}

// Str returns the element and whether it is non-null.
func (a *utf16Array) Str(index int) (string, bool) {
	boundsCheck(index, len(a.widths))
	if a.widths[index] < 0 {
		return "", false
	}
	return string(utf16.Decode(a.span(index))), true
}

// SetStr stores a string, re-striding first if its code-unit count exceeds
// the current width capacity.
func (a *utf16Array) SetStr(index int, value string) {
	boundsCheck(index, len(a.widths))
	units := utf16.Encode([]rune(value))
	if len(units) > a.maxWidth {
		a.resize(len(units))
	}
	a.widths[index] = int32(len(units))
	start := a.startOf(index)
	copy(a.segmentOf(index)[start:start+len(units)], units)
}

func (a *utf16Array) setNull(index int) {
	boundsCheck(index, len(a.widths))
	a.widths[index] = -1
}

func (a *utf16Array) resize(required int) {
	newWidth := a.maxWidth
	for newWidth < required {
		newWidth *= 2
	}
	newData := allocUint16Segments(len(a.widths), newWidth)
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

func (a *utf16Array) Value(index int) any {
	s, ok := a.Str(index)
	if !ok {
		return nil
	}
	return s
}

func (a *utf16Array) SetValue(index int, value any) {
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

func (a *utf16Array) Fill(value any, start, end int) {
	rangeCheck(start, end, len(a.widths))
	for i := start; i < end; i++ {
		a.SetValue(i, value)
	}
}

func (a *utf16Array) Expand(newLength int) {
	if newLength <= len(a.widths) {
		return
	}
	oldLength := len(a.widths)
	grownWidths := make([]int32, newLength)
	copy(grownWidths, a.widths)
	grownData := allocUint16Segments(newLength, a.maxWidth)
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

func (a *utf16Array) Copy() Array {
	return a.CopySlice(0, len(a.widths))
}

func (a *utf16Array) CopySlice(start, end int) Array {
	rangeCheck(start, end, len(a.widths))
	out := NewUtf16Array(end-start, a.maxWidth).(*utf16Array)
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

func (a *utf16Array) CopyIndexes(indexes []int) Array {
	out := NewUtf16Array(len(indexes), a.maxWidth).(*utf16Array)
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

func (a *utf16Array) Update(toIndex int, from Array, fromIndex, length int) {
	a.Expand(toIndex + length)
	if src, ok := from.(*utf16Array); ok {
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

func (a *utf16Array) UpdateIndexes(from Array, fromIndexes, toIndexes []int) {
	checkIndexPair(fromIndexes, toIndexes)
	if src, ok := from.(*utf16Array); ok {
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

func (a *utf16Array) copyRaw(toIndex int, src *utf16Array, fromIndex int) {
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

// compare orders elements by code-unit value over the raw segments, falling
// back to width on a tied prefix. Null sorts before everything.
func (a *utf16Array) compare(i, j int) int {
	wi, wj := a.widths[i], a.widths[j]
	switch {
	case wi < 0 && wj < 0:
		return 0
	case wi < 0:
		return -1
	case wj < 0:
		return 1
	}
	si, sj := a.span(i), a.span(j)
	n := min(len(si), len(sj))
	for k := 0; k < n; k++ {
		if si[k] != sj[k] {
			if si[k] < sj[k] {
				return -1
			}
			return 1
		}
	}
	return len(si) - len(sj)
}

func (a *utf16Array) swap(i, j int) {
	wi, wj := a.widths[i], a.widths[j]
	n := int(max(wi, wj))
	si, sj := a.segmentOf(i), a.segmentOf(j)
	oi, oj := a.startOf(i), a.startOf(j)
	for k := 0; k < n; k++ {
		si[oi+k], sj[oj+k] = sj[oj+k], si[oi+k]
	}
	a.widths[i], a.widths[j] = wj, wi
}

func (a *utf16Array) Sort(start, end, multiplier int) {
	rangeCheck(start, end, len(a.widths))
	comp := comparatorOf(func(i, j int) int {
		return multiplier * a.compare(i, j)
	})
	sortRange(comp, swapperOf(a.swap), start, end, a.parallel)
}

func (a *utf16Array) Distinct(limit int) Array {
	seen := make(map[string]struct{})
	firstSeen := make([]int, 0, 16)
	seenNull := false
	for i := range a.widths {
		if a.widths[i] < 0 {
			if seenNull {
				continue
			}
			seenNull = true
			firstSeen = append(firstSeen, i)
		} else {
			s, _ := a.Str(i)
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			firstSeen = append(firstSeen, i)
		}
		if limit > 0 && len(firstSeen) >= limit {
			break
		}
	}
	out := NewUtf16Array(len(firstSeen), a.maxWidth).(*utf16Array)
	out.defaultValue = a.defaultValue
	for k, idx := range firstSeen {
		out.copyRaw(k, a, idx)
	}
	return out
}

func (a *utf16Array) CumSum() Array {
	unsupported("CumSum", Utf16)
	return nil
}

func (a *utf16Array) Parallel() Array {
	clone := *a
	clone.parallel = true
	return &clone
}

func (a *utf16Array) Sequential() Array {
	clone := *a
	clone.parallel = false
	return &clone
}
