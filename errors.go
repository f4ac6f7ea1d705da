package caravel

import "fmt"

// ============================================================================
// Error Taxonomy
// ============================================================================
//
// Contract violations (bad index, mismatched bulk-update index lengths,
// unsupported operation for a dtype, out-of-domain coding values) are
// programmer errors and panic with a typed error. Serialization failures
// are expected runtime conditions and return an *ArrayIOError wrapping
// the cause. Nothing in this package retries or degrades; every failure
// surfaces synchronously to the caller.

// BoundsError reports an index or argument outside its valid range.
type BoundsError struct {
	Msg string
}

func (e *BoundsError) Error() string { return e.Msg }

func boundsErrorf(format string, args ...any) *BoundsError {
	return &BoundsError{Msg: fmt.Sprintf(format, args...)}
}

// boundsCheck panics with *BoundsError unless 0 <= index < length.
func boundsCheck(index, length int) {
	if index < 0 || index >= length {
		panic(boundsErrorf("index %d out of range [0, %d)", index, length))
	}
}

// rangeCheck panics with *BoundsError unless 0 <= start <= end <= length.
func rangeCheck(start, end, length int) {
	if start < 0 || end < start || end > length {
		panic(boundsErrorf("range [%d, %d) out of range [0, %d)", start, end, length))
	}
}

// UnsupportedError reports an operation called on a dtype that does not
// implement it.
type UnsupportedError struct {
	Op    string
	DType DType
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s is not supported for dtype %s", e.Op, e.DType)
}

// unsupported panics with *UnsupportedError.
func unsupported(op string, dtype DType) {
	panic(&UnsupportedError{Op: op, DType: dtype})
}

// CodingError reports a value outside a coding's domain or a code outside
// its table.
type CodingError struct {
	Msg string
}

func (e *CodingError) Error() string { return e.Msg }

func codingErrorf(format string, args ...any) *CodingError {
	return &CodingError{Msg: fmt.Sprintf(format, args...)}
}

// ArrayIOError wraps a failure while writing or reading the binary array
// format. The original cause is available through Unwrap.
type ArrayIOError struct {
	Op    string
	Cause error
}

func (e *ArrayIOError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("array io: %s", e.Op)
	}
	return fmt.Sprintf("array io: %s: %v", e.Op, e.Cause)
}

func (e *ArrayIOError) Unwrap() error { return e.Cause }

func ioErrorf(op string, cause error) *ArrayIOError {
	return &ArrayIOError{Op: op, Cause: cause}
}
