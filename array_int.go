package caravel

// intArray is dense int32 storage with no null channel. Nullable integer
// columns are modelled with a coded or object array instead.
type intArray struct {
	baseArray
	*intStore
	defaultValue int32
}

// intStore is the buffer shared by every view of one array. Parallel and
// Sequential clone only the view struct and keep the store pointer, so an
// Expand through one view is seen by all.
type intStore struct {
	values []int32
}

// NewIntArray creates a dense Int32 array of the given length with every
// slot initialised to defaultValue.
func NewIntArray(length int, defaultValue int32) Array {
	a := &intArray{
		baseArray:    baseArray{dtype: Int32},
		intStore:     &intStore{values: make([]int32, length)},
		defaultValue: defaultValue,
	}
	if defaultValue != 0 {
		for i := range a.values {
			a.values[i] = defaultValue
		}
	}
	return a
}

func (a *intArray) Len() int          { return len(a.values) }
func (a *intArray) DefaultValue() any { return a.defaultValue }

func (a *intArray) IsNull(index int) bool {
	boundsCheck(index, len(a.values))
	return false
}

func (a *intArray) Int(index int) int32 {
	boundsCheck(index, len(a.values))
	return a.values[index]
}

func (a *intArray) SetInt(index int, value int32) {
	boundsCheck(index, len(a.values))
	a.values[index] = value
}

func (a *intArray) Value(index int) any {
	return a.Int(index)
}

func (a *intArray) SetValue(index int, value any) {
	if value == nil {
		a.SetInt(index, a.defaultValue)
		return
	}
	a.SetInt(index, toInt32(value))
}

func (a *intArray) Fill(value any, start, end int) {
	rangeCheck(start, end, len(a.values))
	v := a.defaultValue
	if value != nil {
		v = toInt32(value)
	}
	for i := start; i < end; i++ {
		a.values[i] = v
	}
}

func (a *intArray) Expand(newLength int) {
	if newLength <= len(a.values) {
		return
	}
	grown := make([]int32, newLength)
	copy(grown, a.values)
	for i := len(a.values); i < newLength; i++ {
		grown[i] = a.defaultValue
	}
	a.values = grown
}

func (a *intArray) Copy() Array {
	clone := *a
	clone.intStore = &intStore{values: append([]int32{}, a.values...)}
	return &clone
}

func (a *intArray) CopySlice(start, end int) Array {
	rangeCheck(start, end, len(a.values))
	clone := *a
	clone.intStore = &intStore{values: append([]int32{}, a.values[start:end]...)}
	return &clone
}

func (a *intArray) CopyIndexes(indexes []int) Array {
	clone := *a
	clone.intStore = &intStore{values: make([]int32, len(indexes))}
	for k, idx := range indexes {
		boundsCheck(idx, len(a.values))
		clone.values[k] = a.values[idx]
	}
	return &clone
}

func (a *intArray) Update(toIndex int, from Array, fromIndex, length int) {
	a.Expand(toIndex + length)
	if src, ok := from.(*intArray); ok {
		rangeCheck(fromIndex, fromIndex+length, len(src.values))
		copy(a.values[toIndex:toIndex+length], src.values[fromIndex:fromIndex+length])
		return
	}
	for k := 0; k < length; k++ {
		a.SetValue(toIndex+k, from.Value(fromIndex+k))
	}
}

func (a *intArray) UpdateIndexes(from Array, fromIndexes, toIndexes []int) {
	checkIndexPair(fromIndexes, toIndexes)
	if src, ok := from.(*intArray); ok {
		for k := range fromIndexes {
			boundsCheck(fromIndexes[k], len(src.values))
			a.SetInt(toIndexes[k], src.values[fromIndexes[k]])
		}
		return
	}
	for k := range fromIndexes {
		a.SetValue(toIndexes[k], from.Value(fromIndexes[k]))
	}
}

func (a *intArray) Sort(start, end, multiplier int) {
	rangeCheck(start, end, len(a.values))
	comp := comparatorOf(func(i, j int) int {
		return multiplier * compareOrdered(a.values[i], a.values[j])
	})
	sortRange(comp, swapperOf(func(i, j int) {
		a.values[i], a.values[j] = a.values[j], a.values[i]
	}), start, end, a.parallel)
}

func (a *intArray) Distinct(limit int) Array {
	seen := make(map[int32]struct{})
	out := make([]int32, 0, 16)
	for _, v := range a.values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return ArrayOf(out)
}

func (a *intArray) CumSum() Array {
	out := NewIntArray(len(a.values), a.defaultValue).(*intArray)
	var sum int32
	for i, v := range a.values {
		sum += v
		out.values[i] = sum
	}
	return out
}

func (a *intArray) Parallel() Array {
	clone := *a
	clone.parallel = true
	return &clone
}

func (a *intArray) Sequential() Array {
	clone := *a
	clone.parallel = false
	return &clone
}

// toInt32 widens the boxed numeric forms a caller may plausibly hand to an
// Int32 column.
func toInt32(value any) int32 {
	switch v := value.(type) {
	case int32:
		return v
	case int:
		return int32(v)
	case int64:
		return int32(v)
	case float64:
		return int32(v)
	default:
		panic(&UnsupportedError{Op: "SetValue(non-numeric)", DType: Int32})
	}
}
