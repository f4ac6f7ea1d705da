package caravel

// Coded dense arrays store one primitive code per element and round-trip
// boxed access through a shared Coding. The invariant codes[i] ==
// coding.Encode(value at i) holds after every mutation; null is represented
// by the coding's null sentinel and never reaches Encode/Decode.

// codedIntArray is the int32-coded variant.
type codedIntArray[T comparable] struct {
	baseArray
	*codedIntStore
	coding       IntCoding[T]
	defaultValue any
	defaultCode  int32
}

// codedIntStore is the code buffer shared by every view of one array.
type codedIntStore struct {
	codes []int32
}

// NewCodedIntArray creates a coded array of the given length over coding.
// defaultValue may be nil (null default) or a T in the coding's domain.
func NewCodedIntArray[T comparable](coding IntCoding[T], length int, defaultValue any) Array {
	defaultCode := coding.NullCode()
	if defaultValue != nil {
		defaultCode = coding.Encode(defaultValue.(T))
	}
	a := &codedIntArray[T]{
		baseArray:     baseArray{dtype: CodedInt32},
		codedIntStore: &codedIntStore{codes: make([]int32, length)},
		coding:        coding,
		defaultValue:  defaultValue,
		defaultCode:   defaultCode,
	}
	if defaultCode != 0 {
		for i := range a.codes {
			a.codes[i] = defaultCode
		}
	}
	return a
}

func (a *codedIntArray[T]) Len() int          { return len(a.codes) }
func (a *codedIntArray[T]) DefaultValue() any { return a.defaultValue }

func (a *codedIntArray[T]) IsNull(index int) bool {
	boundsCheck(index, len(a.codes))
	return a.codes[index] == a.coding.NullCode()
}

// Int exposes the raw code at index; used by bulk update fast paths.
func (a *codedIntArray[T]) Int(index int) int32 {
	boundsCheck(index, len(a.codes))
	return a.codes[index]
}

// SetInt stores a raw code directly, bypassing Encode.
func (a *codedIntArray[T]) SetInt(index int, code int32) {
	boundsCheck(index, len(a.codes))
	a.codes[index] = code
}

func (a *codedIntArray[T]) Value(index int) any {
	boundsCheck(index, len(a.codes))
	code := a.codes[index]
	if code == a.coding.NullCode() {
		return nil
	}
	return a.coding.Decode(code)
}

func (a *codedIntArray[T]) SetValue(index int, value any) {
	boundsCheck(index, len(a.codes))
	if value == nil {
		a.codes[index] = a.defaultCode
		return
	}
	a.codes[index] = a.coding.Encode(value.(T))
}

func (a *codedIntArray[T]) Fill(value any, start, end int) {
	rangeCheck(start, end, len(a.codes))
	code := a.defaultCode
	if value != nil {
		code = a.coding.Encode(value.(T))
	}
	for i := start; i < end; i++ {
		a.codes[i] = code
	}
}

func (a *codedIntArray[T]) Expand(newLength int) {
	if newLength <= len(a.codes) {
		return
	}
	grown := make([]int32, newLength)
	copy(grown, a.codes)
	for i := len(a.codes); i < newLength; i++ {
		grown[i] = a.defaultCode
	}
	a.codes = grown
}

func (a *codedIntArray[T]) Copy() Array {
	clone := *a
	clone.codedIntStore = &codedIntStore{codes: append([]int32{}, a.codes...)}
	return &clone
}

func (a *codedIntArray[T]) CopySlice(start, end int) Array {
	rangeCheck(start, end, len(a.codes))
	clone := *a
	clone.codedIntStore = &codedIntStore{codes: append([]int32{}, a.codes[start:end]...)}
	return &clone
}

func (a *codedIntArray[T]) CopyIndexes(indexes []int) Array {
	clone := *a
	clone.codedIntStore = &codedIntStore{codes: make([]int32, len(indexes))}
	for k, idx := range indexes {
		boundsCheck(idx, len(a.codes))
		clone.codes[k] = a.codes[idx]
	}
	return &clone
}

// Update copies codes directly when the source is the same concrete coded
// type or a raw Int32 array of pre-encoded codes; otherwise it round-trips
// through decode/encode.
func (a *codedIntArray[T]) Update(toIndex int, from Array, fromIndex, length int) {
	a.Expand(toIndex + length)
	switch src := from.(type) {
	case *codedIntArray[T]:
		rangeCheck(fromIndex, fromIndex+length, len(src.codes))
		copy(a.codes[toIndex:toIndex+length], src.codes[fromIndex:fromIndex+length])
	case *intArray:
		rangeCheck(fromIndex, fromIndex+length, len(src.values))
		copy(a.codes[toIndex:toIndex+length], src.values[fromIndex:fromIndex+length])
	default:
		for k := 0; k < length; k++ {
			a.SetValue(toIndex+k, from.Value(fromIndex+k))
		}
	}
}

func (a *codedIntArray[T]) UpdateIndexes(from Array, fromIndexes, toIndexes []int) {
	checkIndexPair(fromIndexes, toIndexes)
	switch src := from.(type) {
	case *codedIntArray[T]:
		for k := range fromIndexes {
			boundsCheck(fromIndexes[k], len(src.codes))
			a.SetInt(toIndexes[k], src.codes[fromIndexes[k]])
		}
	case *intArray:
		for k := range fromIndexes {
			boundsCheck(fromIndexes[k], len(src.values))
			a.SetInt(toIndexes[k], src.values[fromIndexes[k]])
		}
	default:
		for k := range fromIndexes {
			a.SetValue(toIndexes[k], from.Value(fromIndexes[k]))
		}
	}
}

// Sort orders by code. Every built-in coding assigns codes in value order,
// so code order and value order agree; nulls (code -1) sort first ascending.
func (a *codedIntArray[T]) Sort(start, end, multiplier int) {
	rangeCheck(start, end, len(a.codes))
	comp := comparatorOf(func(i, j int) int {
		return multiplier * compareOrdered(a.codes[i], a.codes[j])
	})
	sortRange(comp, swapperOf(func(i, j int) {
		a.codes[i], a.codes[j] = a.codes[j], a.codes[i]
	}), start, end, a.parallel)
}

func (a *codedIntArray[T]) Distinct(limit int) Array {
	seen := make(map[int32]struct{})
	out := &codedIntArray[T]{
		baseArray:     baseArray{dtype: CodedInt32},
		codedIntStore: &codedIntStore{},
		coding:        a.coding,
		defaultValue:  a.defaultValue,
		defaultCode:   a.defaultCode,
	}
	for _, code := range a.codes {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out.codes = append(out.codes, code)
		if limit > 0 && len(out.codes) >= limit {
			break
		}
	}
	return out
}

func (a *codedIntArray[T]) CumSum() Array {
	unsupported("CumSum", CodedInt32)
	return nil
}

func (a *codedIntArray[T]) Parallel() Array {
	clone := *a
	clone.parallel = true
	return &clone
}

func (a *codedIntArray[T]) Sequential() Array {
	clone := *a
	clone.parallel = false
	return &clone
}

// codedLongArray is the int64-coded variant, used for temporal codings
// whose domains exceed 32 bits.
type codedLongArray[T comparable] struct {
	baseArray
	*codedLongStore
	coding       LongCoding[T]
	defaultValue any
	defaultCode  int64
}

// codedLongStore is the code buffer shared by every view of one array.
type codedLongStore struct {
	codes []int64
}

// NewCodedLongArray creates a long-coded array of the given length over
// coding. defaultValue may be nil (null default) or a T in the domain.
func NewCodedLongArray[T comparable](coding LongCoding[T], length int, defaultValue any) Array {
	defaultCode := coding.NullCode()
	if defaultValue != nil {
		defaultCode = coding.Encode(defaultValue.(T))
	}
	a := &codedLongArray[T]{
		baseArray:      baseArray{dtype: CodedInt64},
		codedLongStore: &codedLongStore{codes: make([]int64, length)},
		coding:         coding,
		defaultValue:   defaultValue,
		defaultCode:    defaultCode,
	}
	if defaultCode != 0 {
		for i := range a.codes {
			a.codes[i] = defaultCode
		}
	}
	return a
}

func (a *codedLongArray[T]) Len() int          { return len(a.codes) }
func (a *codedLongArray[T]) DefaultValue() any { return a.defaultValue }

func (a *codedLongArray[T]) IsNull(index int) bool {
	boundsCheck(index, len(a.codes))
	return a.codes[index] == a.coding.NullCode()
}

// Long exposes the raw code at index; used by bulk update fast paths.
func (a *codedLongArray[T]) Long(index int) int64 {
	boundsCheck(index, len(a.codes))
	return a.codes[index]
}

// SetLong stores a raw code directly, bypassing Encode.
func (a *codedLongArray[T]) SetLong(index int, code int64) {
	boundsCheck(index, len(a.codes))
	a.codes[index] = code
}

func (a *codedLongArray[T]) Value(index int) any {
	boundsCheck(index, len(a.codes))
	code := a.codes[index]
	if code == a.coding.NullCode() {
		return nil
	}
	return a.coding.Decode(code)
}

func (a *codedLongArray[T]) SetValue(index int, value any) {
	boundsCheck(index, len(a.codes))
	if value == nil {
		a.codes[index] = a.defaultCode
		return
	}
	a.codes[index] = a.coding.Encode(value.(T))
}

func (a *codedLongArray[T]) Fill(value any, start, end int) {
	rangeCheck(start, end, len(a.codes))
	code := a.defaultCode
	if value != nil {
		code = a.coding.Encode(value.(T))
	}
	for i := start; i < end; i++ {
		a.codes[i] = code
	}
}

func (a *codedLongArray[T]) Expand(newLength int) {
	if newLength <= len(a.codes) {
		return
	}
	grown := make([]int64, newLength)
	copy(grown, a.codes)
	for i := len(a.codes); i < newLength; i++ {
		grown[i] = a.defaultCode
	}
	a.codes = grown
}

func (a *codedLongArray[T]) Copy() Array {
	clone := *a
	clone.codedLongStore = &codedLongStore{codes: append([]int64{}, a.codes...)}
	return &clone
}

func (a *codedLongArray[T]) CopySlice(start, end int) Array {
	rangeCheck(start, end, len(a.codes))
	clone := *a
	clone.codedLongStore = &codedLongStore{codes: append([]int64{}, a.codes[start:end]...)}
	return &clone
}

func (a *codedLongArray[T]) CopyIndexes(indexes []int) Array {
	clone := *a
	clone.codedLongStore = &codedLongStore{codes: make([]int64, len(indexes))}
	for k, idx := range indexes {
		boundsCheck(idx, len(a.codes))
		clone.codes[k] = a.codes[idx]
	}
	return &clone
}

func (a *codedLongArray[T]) Update(toIndex int, from Array, fromIndex, length int) {
	a.Expand(toIndex + length)
	switch src := from.(type) {
	case *codedLongArray[T]:
		rangeCheck(fromIndex, fromIndex+length, len(src.codes))
		copy(a.codes[toIndex:toIndex+length], src.codes[fromIndex:fromIndex+length])
	case *longArray:
		rangeCheck(fromIndex, fromIndex+length, len(src.values))
		copy(a.codes[toIndex:toIndex+length], src.values[fromIndex:fromIndex+length])
	default:
		for k := 0; k < length; k++ {
			a.SetValue(toIndex+k, from.Value(fromIndex+k))
		}
	}
}

func (a *codedLongArray[T]) UpdateIndexes(from Array, fromIndexes, toIndexes []int) {
	checkIndexPair(fromIndexes, toIndexes)
	switch src := from.(type) {
	case *codedLongArray[T]:
		for k := range fromIndexes {
			boundsCheck(fromIndexes[k], len(src.codes))
			a.SetLong(toIndexes[k], src.codes[fromIndexes[k]])
		}
	case *longArray:
		for k := range fromIndexes {
			boundsCheck(fromIndexes[k], len(src.values))
			a.SetLong(toIndexes[k], src.values[fromIndexes[k]])
		}
	default:
		for k := range fromIndexes {
			a.SetValue(toIndexes[k], from.Value(fromIndexes[k]))
		}
	}
}

func (a *codedLongArray[T]) Sort(start, end, multiplier int) {
	rangeCheck(start, end, len(a.codes))
	comp := comparatorOf(func(i, j int) int {
		return multiplier * compareOrdered(a.codes[i], a.codes[j])
	})
	sortRange(comp, swapperOf(func(i, j int) {
		a.codes[i], a.codes[j] = a.codes[j], a.codes[i]
	}), start, end, a.parallel)
}

func (a *codedLongArray[T]) Distinct(limit int) Array {
	seen := make(map[int64]struct{})
	out := &codedLongArray[T]{
		baseArray:      baseArray{dtype: CodedInt64},
		codedLongStore: &codedLongStore{},
		coding:         a.coding,
		defaultValue:   a.defaultValue,
		defaultCode:    a.defaultCode,
	}
	for _, code := range a.codes {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out.codes = append(out.codes, code)
		if limit > 0 && len(out.codes) >= limit {
			break
		}
	}
	return out
}

func (a *codedLongArray[T]) CumSum() Array {
	unsupported("CumSum", CodedInt64)
	return nil
}

func (a *codedLongArray[T]) Parallel() Array {
	clone := *a
	clone.parallel = true
	return &clone
}

func (a *codedLongArray[T]) Sequential() Array {
	clone := *a
	clone.parallel = false
	return &clone
}
