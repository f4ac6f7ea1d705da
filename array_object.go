package caravel

// objectArray is the boxed fallback for element types that have no dense
// variant. Every entry is nullable. Unlike the primitive variants, Expand
// grows the backing buffer geometrically (1.5x) so repeated expansion
// amortises without an ArrayBuilder in front.
type objectArray struct {
	baseArray
	*objectStore
	defaultValue any
}

// objectStore is the buffer shared by every view of one array.
type objectStore struct {
	values []any
}

// NewObjectArray creates a boxed array of the given length with every slot
// initialised to defaultValue (which may be nil).
func NewObjectArray(length int, defaultValue any) Array {
	a := &objectArray{
		baseArray:    baseArray{dtype: Object},
		objectStore:  &objectStore{values: make([]any, length)},
		defaultValue: defaultValue,
	}
	if defaultValue != nil {
		for i := range a.values {
			a.values[i] = defaultValue
		}
	}
	return a
}

func (a *objectArray) Len() int          { return len(a.values) }
func (a *objectArray) DefaultValue() any { return a.defaultValue }

func (a *objectArray) IsNull(index int) bool {
	boundsCheck(index, len(a.values))
	return a.values[index] == nil
}

func (a *objectArray) Value(index int) any {
	boundsCheck(index, len(a.values))
	return a.values[index]
}

func (a *objectArray) SetValue(index int, value any) {
	boundsCheck(index, len(a.values))
	if value == nil {
		a.values[index] = a.defaultValue
		return
	}
	a.values[index] = value
}

func (a *objectArray) Fill(value any, start, end int) {
	rangeCheck(start, end, len(a.values))
	v := value
	if v == nil {
		v = a.defaultValue
	}
	for i := start; i < end; i++ {
		a.values[i] = v
	}
}

func (a *objectArray) Expand(newLength int) {
	if newLength <= len(a.values) {
		return
	}
	oldLength := len(a.values)
	if cap(a.values) >= newLength {
		a.values = a.values[:newLength]
	} else {
		grownCap := cap(a.values) + cap(a.values)/2
		if grownCap < newLength {
			grownCap = newLength
		}
		grown := make([]any, newLength, grownCap)
		copy(grown, a.values)
		a.values = grown
	}
	if a.defaultValue != nil {
		for i := oldLength; i < newLength; i++ {
			a.values[i] = a.defaultValue
		}
	}
}

func (a *objectArray) Copy() Array {
	clone := *a
	clone.objectStore = &objectStore{values: append([]any{}, a.values...)}
	return &clone
}

func (a *objectArray) CopySlice(start, end int) Array {
	rangeCheck(start, end, len(a.values))
	clone := *a
	clone.objectStore = &objectStore{values: append([]any{}, a.values[start:end]...)}
	return &clone
}

func (a *objectArray) CopyIndexes(indexes []int) Array {
	clone := *a
	clone.objectStore = &objectStore{values: make([]any, len(indexes))}
	for k, idx := range indexes {
		boundsCheck(idx, len(a.values))
		clone.values[k] = a.values[idx]
	}
	return &clone
}

func (a *objectArray) Update(toIndex int, from Array, fromIndex, length int) {
	a.Expand(toIndex + length)
	if src, ok := from.(*objectArray); ok {
		rangeCheck(fromIndex, fromIndex+length, len(src.values))
		copy(a.values[toIndex:toIndex+length], src.values[fromIndex:fromIndex+length])
		return
	}
	for k := 0; k < length; k++ {
		a.SetValue(toIndex+k, from.Value(fromIndex+k))
	}
}

func (a *objectArray) UpdateIndexes(from Array, fromIndexes, toIndexes []int) {
	checkIndexPair(fromIndexes, toIndexes)
	for k := range fromIndexes {
		a.SetValue(toIndexes[k], from.Value(fromIndexes[k]))
	}
}

func (a *objectArray) Sort(start, end, multiplier int) {
	rangeCheck(start, end, len(a.values))
	comp := comparatorOf(func(i, j int) int {
		return multiplier * compareValues(a.values[i], a.values[j])
	})
	sortRange(comp, swapperOf(func(i, j int) {
		a.values[i], a.values[j] = a.values[j], a.values[i]
	}), start, end, a.parallel)
}

func (a *objectArray) Distinct(limit int) Array {
	seen := make(map[any]struct{})
	out := make([]any, 0, 16)
	seenNil := false
	for _, v := range a.values {
		if v == nil {
			if seenNil {
				continue
			}
			seenNil = true
		} else {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
		}
		out = append(out, v)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return ArrayOf(out)
}

func (a *objectArray) CumSum() Array {
	unsupported("CumSum", Object)
	return nil
}

func (a *objectArray) Parallel() Array {
	clone := *a
	clone.parallel = true
	return &clone
}

func (a *objectArray) Sequential() Array {
	clone := *a
	clone.parallel = false
	return &clone
}
