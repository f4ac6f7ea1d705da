package caravel

import (
	"fmt"
	"io"
	"math"
	"time"
)

// Array is an ordered, fixed-length (but expandable), mutable sequence of a
// single declared element type. Index access is valid only for indexes in
// [0, Len()); out-of-range access panics with *BoundsError.
//
// Copy and its variants produce fully independent deep clones. Parallel and
// Sequential produce shallow views over the same backing buffer that differ
// only in the execution strategy used by bulk operations; mutating one view
// mutates the other.
type Array interface {
	// Len returns the current element count.
	Len() int

	// DType returns the declared storage variant.
	DType() DType

	// DefaultValue returns the value substituted for nil entries.
	DefaultValue() any

	// Value returns the boxed element at index, or nil when the element is
	// null for dtypes that have a null channel.
	Value(index int) any

	// SetValue stores a boxed element at index. A nil value stores the
	// array's default value.
	SetValue(index int, value any)

	// IsNull reports whether the element at index is null. Bool, Int32 and
	// Int64 arrays have no null channel and always report false; Float64
	// arrays report true iff the stored value is NaN.
	IsNull(index int) bool

	// Fill overwrites [start, end) with value, substituting the default
	// value when value is nil.
	Fill(value any, start, end int)

	// Expand grows the array to newLength, filling new slots with the
	// default value. Expand never shrinks.
	Expand(newLength int)

	// Copy returns an independent deep clone.
	Copy() Array

	// CopySlice returns a deep clone of [start, end).
	CopySlice(start, end int) Array

	// CopyIndexes gathers the given indexes into a new array.
	CopyIndexes(indexes []int) Array

	// Update copies length elements from the source starting at fromIndex
	// into the receiver starting at toIndex, expanding if necessary.
	// Same-concrete-type sources take a raw buffer fast path.
	Update(toIndex int, from Array, fromIndex, length int)

	// UpdateIndexes copies from[fromIndexes[k]] into the receiver at
	// toIndexes[k] for every k. The two index slices must have equal length.
	UpdateIndexes(from Array, fromIndexes, toIndexes []int)

	// Sort orders [start, end) in place. A multiplier of +1 sorts ascending,
	// -1 descending.
	Sort(start, end, multiplier int)

	// Distinct returns the distinct values in first-seen order, stopping
	// once limit values have been found (limit <= 0 means no limit).
	Distinct(limit int) Array

	// CumSum returns the running sum as a new array. Supported for Int32
	// and Float64 only; other dtypes panic with *UnsupportedError. A NaN
	// operand in a Float64 array carries the previous cumulative value
	// forward instead of propagating; elements before the first non-NaN
	// operand are NaN.
	CumSum() Array

	// Parallel returns a shallow view whose bulk operations use the
	// multi-threaded execution strategy.
	Parallel() Array

	// Sequential returns a shallow view whose bulk operations run on the
	// calling goroutine.
	Sequential() Array

	// IsParallel reports the view's execution strategy.
	IsParallel() bool

	// Write serializes the array to w in the caravel binary format.
	Write(w io.Writer) error
}

// Typed access side-interfaces. Concrete arrays implement the ones that
// match their storage; callers assert as needed to avoid boxing.

type BoolAccess interface {
	Bool(index int) bool
	SetBool(index int, value bool)
}

type IntAccess interface {
	Int(index int) int32
	SetInt(index int, value int32)
}

type LongAccess interface {
	Long(index int) int64
	SetLong(index int, value int64)
}

type DoubleAccess interface {
	Double(index int) float64
	SetDouble(index int, value float64)
}

type StringAccess interface {
	Str(index int) (string, bool)
	SetStr(index int, value string)
}

// baseArray carries the state shared by every dense variant.
type baseArray struct {
	dtype    DType
	parallel bool
}

func (b *baseArray) DType() DType     { return b.dtype }
func (b *baseArray) IsParallel() bool { return b.parallel }

// ============================================================================
// Factory
// ============================================================================

// NewArray creates a dense array of the given dtype sized to length, with
// the dtype's natural default (false, 0, NaN, null). Coded dtypes require a
// coding and must be created through NewCodedIntArray / NewCodedLongArray.
func NewArray(dtype DType, length int) Array {
	switch dtype {
	case Bool:
		return NewBoolArray(length, false)
	case Int32:
		return NewIntArray(length, 0)
	case Int64:
		return NewLongArray(length, 0)
	case Float64:
		return NewDoubleArray(length, math.NaN())
	case Utf8:
		return NewUtf8Array(length, defaultStringWidth)
	case Utf16:
		return NewUtf16Array(length, defaultStringWidth)
	case ZonedDateTime:
		return NewZonedDateTimeArray(length)
	case Object:
		return NewObjectArray(length, nil)
	default:
		unsupported("NewArray", dtype)
		return nil
	}
}

// ArrayOf builds an array from a Go slice, choosing the storage variant
// from the element type.
func ArrayOf(values any) Array {
	switch vs := values.(type) {
	case []bool:
		a := NewBoolArray(len(vs), false).(*boolArray)
		copy(a.values, vs)
		return a
	case []int32:
		a := NewIntArray(len(vs), 0).(*intArray)
		copy(a.values, vs)
		return a
	case []int64:
		a := NewLongArray(len(vs), 0).(*longArray)
		copy(a.values, vs)
		return a
	case []float64:
		a := NewDoubleArray(len(vs), math.NaN()).(*doubleArray)
		copy(a.values, vs)
		return a
	case []string:
		a := NewUtf8Array(len(vs), defaultStringWidth)
		sa := a.(*utf8Array)
		for i, s := range vs {
			sa.SetStr(i, s)
		}
		return a
	case []time.Time:
		a := NewZonedDateTimeArray(len(vs))
		za := a.(*zonedArray)
		for i, t := range vs {
			za.SetTime(i, t)
		}
		return a
	case []any:
		a := NewObjectArray(len(vs), nil).(*objectArray)
		copy(a.values, vs)
		return a
	default:
		panic(&UnsupportedError{Op: fmt.Sprintf("ArrayOf(%T)", values), DType: Object})
	}
}

// ============================================================================
// Shared Helpers
// ============================================================================

// compareValues imposes a total order over the boxed value domain of a
// single column. nil sorts before everything.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case int32:
		return compareOrdered(av, b.(int32))
	case int64:
		return compareOrdered(av, b.(int64))
	case float64:
		return compareFloat(av, b.(float64))
	case string:
		return compareOrdered(av, b.(string))
	case time.Time:
		bv := b.(time.Time)
		switch {
		case av.Before(bv):
			return -1
		case av.After(bv):
			return 1
		default:
			return 0
		}
	case time.Duration:
		return compareOrdered(av, b.(time.Duration))
	default:
		panic(&UnsupportedError{Op: fmt.Sprintf("compare(%T)", a), DType: Object})
	}
}

func compareOrdered[T interface {
	~int32 | ~int64 | ~string
}](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareFloat orders NaN before every real value so that nulls cluster at
// one end of a sort.
func compareFloat(a, b float64) int {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
