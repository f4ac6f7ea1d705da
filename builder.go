package caravel

// ArrayBuilder accumulates values into a dense array without the caller
// knowing the concrete storage class. The builder owns capacity
// amortisation (geometric growth) so the exact-length Expand of the
// primitive variants stays cheap for one-shot growers. Source adapters
// (Arrow, Parquet) stream columns through this contract.
type ArrayBuilder struct {
	array  Array
	length int
}

// NewArrayBuilder creates a builder for the given dtype, pre-sized to
// capacity elements.
func NewArrayBuilder(dtype DType, capacity int) *ArrayBuilder {
	if capacity < 1 {
		capacity = 16
	}
	return &ArrayBuilder{array: NewArray(dtype, capacity)}
}

// NewArrayBuilderOf creates a builder accumulating into the given target
// array shape; the array's existing elements are discarded.
func NewArrayBuilderOf(target Array) *ArrayBuilder {
	return &ArrayBuilder{array: target}
}

// Len returns the number of values appended so far.
func (b *ArrayBuilder) Len() int {
	return b.length
}

func (b *ArrayBuilder) ensure(n int) int {
	if b.length+n > b.array.Len() {
		grown := b.array.Len() + b.array.Len()/2
		if grown < b.length+n {
			grown = b.length + n
		}
		b.array.Expand(grown)
	}
	index := b.length
	b.length += n
	return index
}

// AddBool appends a bool.
func (b *ArrayBuilder) AddBool(value bool) *ArrayBuilder {
	i := b.ensure(1)
	if acc, ok := b.array.(BoolAccess); ok {
		acc.SetBool(i, value)
	} else {
		b.array.SetValue(i, value)
	}
	return b
}

// AddInt appends an int32.
func (b *ArrayBuilder) AddInt(value int32) *ArrayBuilder {
	i := b.ensure(1)
	if acc, ok := b.array.(IntAccess); ok {
		acc.SetInt(i, value)
	} else {
		b.array.SetValue(i, value)
	}
	return b
}

// AddLong appends an int64.
func (b *ArrayBuilder) AddLong(value int64) *ArrayBuilder {
	i := b.ensure(1)
	if acc, ok := b.array.(LongAccess); ok {
		acc.SetLong(i, value)
	} else {
		b.array.SetValue(i, value)
	}
	return b
}

// AddDouble appends a float64.
func (b *ArrayBuilder) AddDouble(value float64) *ArrayBuilder {
	i := b.ensure(1)
	if acc, ok := b.array.(DoubleAccess); ok {
		acc.SetDouble(i, value)
	} else {
		b.array.SetValue(i, value)
	}
	return b
}

// AddString appends a string.
func (b *ArrayBuilder) AddString(value string) *ArrayBuilder {
	i := b.ensure(1)
	if acc, ok := b.array.(StringAccess); ok {
		acc.SetStr(i, value)
	} else {
		b.array.SetValue(i, value)
	}
	return b
}

// Add appends a boxed value; nil appends the array's default.
func (b *ArrayBuilder) Add(value any) *ArrayBuilder {
	i := b.ensure(1)
	b.array.SetValue(i, value)
	return b
}

// AddAll appends every element of the source array in order.
func (b *ArrayBuilder) AddAll(from Array) *ArrayBuilder {
	i := b.ensure(from.Len())
	b.array.Update(i, from, 0, from.Len())
	return b
}

// ToArray finalises the builder, returning an array trimmed to the
// appended length. The builder must not be reused afterwards.
func (b *ArrayBuilder) ToArray() Array {
	if b.length == b.array.Len() {
		return b.array
	}
	return b.array.CopySlice(0, b.length)
}
