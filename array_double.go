package caravel

import "math"

// doubleArray is dense float64 storage. NaN doubles as the null channel:
// IsNull(i) is true iff the stored value is NaN, so a genuine NaN payload
// is indistinguishable from an absent value. Call sites such as CumSum
// depend on this conflation.
type doubleArray struct {
	baseArray
	*doubleStore
	defaultValue float64
}

// doubleStore is the buffer shared by every view of one array.
type doubleStore struct {
	values []float64
}

// NewDoubleArray creates a dense Float64 array of the given length with
// every slot initialised to defaultValue. Pass math.NaN() for a nullable
// column with null defaults.
func NewDoubleArray(length int, defaultValue float64) Array {
	a := &doubleArray{
		baseArray:    baseArray{dtype: Float64},
		doubleStore:  &doubleStore{values: make([]float64, length)},
		defaultValue: defaultValue,
	}
	if defaultValue != 0 || math.IsNaN(defaultValue) {
		for i := range a.values {
			a.values[i] = defaultValue
		}
	}
	return a
}

func (a *doubleArray) Len() int { return len(a.values) }

func (a *doubleArray) DefaultValue() any {
	if math.IsNaN(a.defaultValue) {
		return nil
	}
	return a.defaultValue
}

func (a *doubleArray) IsNull(index int) bool {
	boundsCheck(index, len(a.values))
	return math.IsNaN(a.values[index])
}

func (a *doubleArray) Double(index int) float64 {
	boundsCheck(index, len(a.values))
	return a.values[index]
}

func (a *doubleArray) SetDouble(index int, value float64) {
	boundsCheck(index, len(a.values))
	a.values[index] = value
}

func (a *doubleArray) Value(index int) any {
	v := a.Double(index)
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func (a *doubleArray) SetValue(index int, value any) {
	if value == nil {
		a.SetDouble(index, a.defaultValue)
		return
	}
	a.SetDouble(index, toFloat64(value))
}

func (a *doubleArray) Fill(value any, start, end int) {
	rangeCheck(start, end, len(a.values))
	v := a.defaultValue
	if value != nil {
		v = toFloat64(value)
	}
	for i := start; i < end; i++ {
		a.values[i] = v
	}
}

func (a *doubleArray) Expand(newLength int) {
	if newLength <= len(a.values) {
		return
	}
	grown := make([]float64, newLength)
	copy(grown, a.values)
	for i := len(a.values); i < newLength; i++ {
		grown[i] = a.defaultValue
	}
	a.values = grown
}

func (a *doubleArray) Copy() Array {
	clone := *a
	clone.doubleStore = &doubleStore{values: append([]float64{}, a.values...)}
	return &clone
}

func (a *doubleArray) CopySlice(start, end int) Array {
	rangeCheck(start, end, len(a.values))
	clone := *a
	clone.doubleStore = &doubleStore{values: append([]float64{}, a.values[start:end]...)}
	return &clone
}

func (a *doubleArray) CopyIndexes(indexes []int) Array {
	clone := *a
	clone.doubleStore = &doubleStore{values: make([]float64, len(indexes))}
	for k, idx := range indexes {
		boundsCheck(idx, len(a.values))
		clone.values[k] = a.values[idx]
	}
	return &clone
}

func (a *doubleArray) Update(toIndex int, from Array, fromIndex, length int) {
	a.Expand(toIndex + length)
	if src, ok := from.(*doubleArray); ok {
		rangeCheck(fromIndex, fromIndex+length, len(src.values))
		copy(a.values[toIndex:toIndex+length], src.values[fromIndex:fromIndex+length])
		return
	}
	for k := 0; k < length; k++ {
		a.SetValue(toIndex+k, from.Value(fromIndex+k))
	}
}

func (a *doubleArray) UpdateIndexes(from Array, fromIndexes, toIndexes []int) {
	checkIndexPair(fromIndexes, toIndexes)
	if src, ok := from.(*doubleArray); ok {
		for k := range fromIndexes {
			boundsCheck(fromIndexes[k], len(src.values))
			a.SetDouble(toIndexes[k], src.values[fromIndexes[k]])
		}
		return
	}
	for k := range fromIndexes {
		a.SetValue(toIndexes[k], from.Value(fromIndexes[k]))
	}
}

func (a *doubleArray) Sort(start, end, multiplier int) {
	rangeCheck(start, end, len(a.values))
	comp := comparatorOf(func(i, j int) int {
		return multiplier * compareFloat(a.values[i], a.values[j])
	})
	sortRange(comp, swapperOf(func(i, j int) {
		a.values[i], a.values[j] = a.values[j], a.values[i]
	}), start, end, a.parallel)
}

func (a *doubleArray) Distinct(limit int) Array {
	seen := make(map[float64]struct{})
	out := make([]float64, 0, 16)
	seenNaN := false
	for _, v := range a.values {
		if math.IsNaN(v) {
			if seenNaN {
				continue
			}
			seenNaN = true
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

// CumSum returns the running sum. A NaN operand carries the last non-NaN
// cumulative value forward rather than propagating NaN; elements before the
// first non-NaN operand are NaN.
func (a *doubleArray) CumSum() Array {
	out := NewDoubleArray(len(a.values), a.defaultValue).(*doubleArray)
	sum := math.NaN()
	for i, v := range a.values {
		if !math.IsNaN(v) {
			if math.IsNaN(sum) {
				sum = v
			} else {
				sum += v
			}
		}
		out.values[i] = sum
	}
	return out
}

func (a *doubleArray) Parallel() Array {
	clone := *a
	clone.parallel = true
	return &clone
}

func (a *doubleArray) Sequential() Array {
	clone := *a
	clone.parallel = false
	return &clone
}

// toFloat64 widens the boxed numeric forms a caller may plausibly hand to a
// Float64 column.
func toFloat64(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	default:
		panic(&UnsupportedError{Op: "SetValue(non-numeric)", DType: Float64})
	}
}
