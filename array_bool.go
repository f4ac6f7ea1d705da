package caravel

// boolArray is dense bool storage. Bool has no null channel: IsNull is
// always false and a nil SetValue stores the default value.
type boolArray struct {
	baseArray
	*boolStore
	defaultValue bool
}

// boolStore is the buffer shared by every view of one array.
type boolStore struct {
	values []bool
}

// NewBoolArray creates a dense Bool array of the given length with every
// slot initialised to defaultValue.
func NewBoolArray(length int, defaultValue bool) Array {
	a := &boolArray{
		baseArray:    baseArray{dtype: Bool},
		boolStore:    &boolStore{values: make([]bool, length)},
		defaultValue: defaultValue,
	}
	if defaultValue {
		for i := range a.values {
			a.values[i] = true
		}
	}
	return a
}

func (a *boolArray) Len() int           { return len(a.values) }
func (a *boolArray) DefaultValue() any  { return a.defaultValue }
func (a *boolArray) IsNull(index int) bool {
	boundsCheck(index, len(a.values))
	return false
}

func (a *boolArray) Bool(index int) bool {
	boundsCheck(index, len(a.values))
	return a.values[index]
}

func (a *boolArray) SetBool(index int, value bool) {
	boundsCheck(index, len(a.values))
	a.values[index] = value
}

func (a *boolArray) Value(index int) any {
	return a.Bool(index)
}

func (a *boolArray) SetValue(index int, value any) {
	if value == nil {
		a.SetBool(index, a.defaultValue)
		return
	}
	a.SetBool(index, value.(bool))
}

func (a *boolArray) Fill(value any, start, end int) {
	rangeCheck(start, end, len(a.values))
	v := a.defaultValue
	if value != nil {
		v = value.(bool)
	}
	for i := start; i < end; i++ {
		a.values[i] = v
	}
}

func (a *boolArray) Expand(newLength int) {
	if newLength <= len(a.values) {
		return
	}
	grown := make([]bool, newLength)
	copy(grown, a.values)
	if a.defaultValue {
		for i := len(a.values); i < newLength; i++ {
			grown[i] = true
		}
	}
	a.values = grown
}

func (a *boolArray) Copy() Array {
	clone := *a
	clone.boolStore = &boolStore{values: append([]bool{}, a.values...)}
	return &clone
}

func (a *boolArray) CopySlice(start, end int) Array {
	rangeCheck(start, end, len(a.values))
	clone := *a
	clone.boolStore = &boolStore{values: append([]bool{}, a.values[start:end]...)}
	return &clone
}

func (a *boolArray) CopyIndexes(indexes []int) Array {
	clone := *a
	clone.boolStore = &boolStore{values: make([]bool, len(indexes))}
	for k, idx := range indexes {
		boundsCheck(idx, len(a.values))
		clone.values[k] = a.values[idx]
	}
	return &clone
}

func (a *boolArray) Update(toIndex int, from Array, fromIndex, length int) {
	a.Expand(toIndex + length)
	if src, ok := from.(*boolArray); ok {
		rangeCheck(fromIndex, fromIndex+length, len(src.values))
		copy(a.values[toIndex:toIndex+length], src.values[fromIndex:fromIndex+length])
		return
	}
	for k := 0; k < length; k++ {
		a.SetValue(toIndex+k, from.Value(fromIndex+k))
	}
}

func (a *boolArray) UpdateIndexes(from Array, fromIndexes, toIndexes []int) {
	checkIndexPair(fromIndexes, toIndexes)
	for k := range fromIndexes {
		a.SetValue(toIndexes[k], from.Value(fromIndexes[k]))
	}
}

func (a *boolArray) Sort(start, end, multiplier int) {
	rangeCheck(start, end, len(a.values))
	comp := comparatorOf(func(i, j int) int {
		return multiplier * compareValues(a.values[i], a.values[j])
	})
	sortRange(comp, swapperOf(func(i, j int) {
		a.values[i], a.values[j] = a.values[j], a.values[i]
	}), start, end, a.parallel)
}

func (a *boolArray) Distinct(limit int) Array {
	var seenFalse, seenTrue bool
	out := make([]bool, 0, 2)
	for _, v := range a.values {
		if v && !seenTrue {
			seenTrue = true
			out = append(out, true)
		} else if !v && !seenFalse {
			seenFalse = true
			out = append(out, false)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		if seenTrue && seenFalse {
			break
		}
	}
	return ArrayOf(out)
}

func (a *boolArray) CumSum() Array {
	unsupported("CumSum", Bool)
	return nil
}

func (a *boolArray) Parallel() Array {
	clone := *a
	clone.parallel = true
	return &clone
}

func (a *boolArray) Sequential() Array {
	clone := *a
	clone.parallel = false
	return &clone
}

// checkIndexPair validates the from/to index slices of a bulk update.
func checkIndexPair(fromIndexes, toIndexes []int) {
	if len(fromIndexes) != len(toIndexes) {
		panic(boundsErrorf("index slice lengths differ: %d vs %d", len(fromIndexes), len(toIndexes)))
	}
}
