package caravel

// longArray is dense int64 storage with no null channel.
type longArray struct {
	baseArray
	*longStore
	defaultValue int64
}

// longStore is the buffer shared by every view of one array.
type longStore struct {
	values []int64
}

// NewLongArray creates a dense Int64 array of the given length with every
// slot initialised to defaultValue.
func NewLongArray(length int, defaultValue int64) Array {
	a := &longArray{
		baseArray:    baseArray{dtype: Int64},
		longStore:    &longStore{values: make([]int64, length)},
		defaultValue: defaultValue,
	}
	if defaultValue != 0 {
		for i := range a.values {
			a.values[i] = defaultValue
		}
	}
	return a
}

func (a *longArray) Len() int          { return len(a.values) }
func (a *longArray) DefaultValue() any { return a.defaultValue }

func (a *longArray) IsNull(index int) bool {
	boundsCheck(index, len(a.values))
	return false
}

func (a *longArray) Long(index int) int64 {
	boundsCheck(index, len(a.values))
	return a.values[index]
}

func (a *longArray) SetLong(index int, value int64) {
	boundsCheck(index, len(a.values))
	a.values[index] = value
}

func (a *longArray) Value(index int) any {
	return a.Long(index)
}

func (a *longArray) SetValue(index int, value any) {
	if value == nil {
		a.SetLong(index, a.defaultValue)
		return
	}
	a.SetLong(index, toInt64(value))
}

func (a *longArray) Fill(value any, start, end int) {
	rangeCheck(start, end, len(a.values))
	v := a.defaultValue
	if value != nil {
		v = toInt64(value)
	}
	for i := start; i < end; i++ {
		a.values[i] = v
	}
}

func (a *longArray) Expand(newLength int) {
	if newLength <= len(a.values) {
		return
	}
	grown := make([]int64, newLength)
	copy(grown, a.values)
	for i := len(a.values); i < newLength; i++ {
		grown[i] = a.defaultValue
	}
	a.values = grown
}

func (a *longArray) Copy() Array {
	clone := *a
	clone.longStore = &longStore{values: append([]int64{}, a.values...)}
	return &clone
}

func (a *longArray) CopySlice(start, end int) Array {
	rangeCheck(start, end, len(a.values))
	clone := *a
	clone.longStore = &longStore{values: append([]int64{}, a.values[start:end]...)}
	return &clone
}

func (a *longArray) CopyIndexes(indexes []int) Array {
	clone := *a
	clone.longStore = &longStore{values: make([]int64, len(indexes))}
	for k, idx := range indexes {
		boundsCheck(idx, len(a.values))
		clone.values[k] = a.values[idx]
	}
	return &clone
}

func (a *longArray) Update(toIndex int, from Array, fromIndex, length int) {
	a.Expand(toIndex + length)
	if src, ok := from.(*longArray); ok {
		rangeCheck(fromIndex, fromIndex+length, len(src.values))
		copy(a.values[toIndex:toIndex+length], src.values[fromIndex:fromIndex+length])
		return
	}
	for k := 0; k < length; k++ {
		a.SetValue(toIndex+k, from.Value(fromIndex+k))
	}
}

func (a *longArray) UpdateIndexes(from Array, fromIndexes, toIndexes []int) {
	checkIndexPair(fromIndexes, toIndexes)
	if src, ok := from.(*longArray); ok {
		for k := range fromIndexes {
			boundsCheck(fromIndexes[k], len(src.values))
			a.SetLong(toIndexes[k], src.values[fromIndexes[k]])
		}
		return
	}
	for k := range fromIndexes {
		a.SetValue(toIndexes[k], from.Value(fromIndexes[k]))
	}
}

func (a *longArray) Sort(start, end, multiplier int) {
	rangeCheck(start, end, len(a.values))
	comp := comparatorOf(func(i, j int) int {
		return multiplier * compareOrdered(a.values[i], a.values[j])
	})
	sortRange(comp, swapperOf(func(i, j int) {
		a.values[i], a.values[j] = a.values[j], a.values[i]
	}), start, end, a.parallel)
}

func (a *longArray) Distinct(limit int) Array {
	seen := make(map[int64]struct{})
	out := make([]int64, 0, 16)
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

func (a *longArray) CumSum() Array {
	unsupported("CumSum", Int64)
	return nil
}

func (a *longArray) Parallel() Array {
	clone := *a
	clone.parallel = true
	return &clone
}

func (a *longArray) Sequential() Array {
	clone := *a
	clone.parallel = false
	return &clone
}

// toInt64 widens the boxed numeric forms a caller may plausibly hand to an
// Int64 column.
func toInt64(value any) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	default:
		panic(&UnsupportedError{Op: "SetValue(non-numeric)", DType: Int64})
	}
}
