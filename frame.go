package caravel

import (
	"fmt"
)

// ============================================================================
// Frame: 2-D Traversal Engine
// ============================================================================
//
// A Frame binds a row axis and a column axis to one dense array per
// column. Traversal treats the value space as a single linear index range
// [0, rows*cols) in column-major order, since most workloads iterate
// within a column. Parallel traversal bisects that range at midpoints
// until segments fall below total/numWorkers, then walks each leaf with
// its own cursor.

// Axis resolves ordinals to keys along one frame dimension.
type Axis interface {
	Len() int
	Key(ordinal int) any
}

type keyAxis struct {
	keys []any
}

// NewAxis creates an axis over the given keys in ordinal order.
func NewAxis(keys ...any) Axis {
	return &keyAxis{keys: keys}
}

func (a *keyAxis) Len() int { return len(a.keys) }

func (a *keyAxis) Key(ordinal int) any {
	boundsCheck(ordinal, len(a.keys))
	return a.keys[ordinal]
}

// ordinalAxis is an axis whose keys are the ordinals themselves.
type ordinalAxis int

// NewOrdinalAxis creates an axis of the given length whose keys are the
// int ordinals 0..length-1.
func NewOrdinalAxis(length int) Axis { return ordinalAxis(length) }

func (a ordinalAxis) Len() int { return int(a) }
func (a ordinalAxis) Key(ordinal int) any {
	boundsCheck(ordinal, int(a))
	return ordinal
}

// Frame is a rows x cols container of typed dense columns.
type Frame struct {
	rows     Axis
	cols     Axis
	columns  []Array
	parallel bool
}

// NewFrame creates a frame binding the axes to the given columns. Every
// column's length must match the row axis.
func NewFrame(rows, cols Axis, columns []Array) (*Frame, error) {
	if cols.Len() != len(columns) {
		return nil, fmt.Errorf("frame: column axis has %d keys but %d columns given", cols.Len(), len(columns))
	}
	for i, col := range columns {
		if col.Len() != rows.Len() {
			return nil, fmt.Errorf("frame: column %d has length %d, row axis has %d", i, col.Len(), rows.Len())
		}
	}
	return &Frame{rows: rows, cols: cols, columns: columns}, nil
}

// RowCount returns the row axis length.
func (f *Frame) RowCount() int { return f.rows.Len() }

// ColCount returns the column axis length.
func (f *Frame) ColCount() int { return f.cols.Len() }

// Rows returns the row axis.
func (f *Frame) Rows() Axis { return f.rows }

// Cols returns the column axis.
func (f *Frame) Cols() Axis { return f.cols }

// Column returns the column array at the given ordinal.
func (f *Frame) Column(ordinal int) Array {
	boundsCheck(ordinal, len(f.columns))
	return f.columns[ordinal]
}

// ColumnByKey returns the column whose axis key equals key.
func (f *Frame) ColumnByKey(key any) (Array, bool) {
	for c := 0; c < f.cols.Len(); c++ {
		if compareValues(f.cols.Key(c), key) == 0 {
			return f.columns[c], true
		}
	}
	return nil, false
}

// Parallel returns a view over the same columns that traverses in
// parallel. The backing buffers are shared, not copied.
func (f *Frame) Parallel() *Frame {
	if f.parallel {
		return f
	}
	g := *f
	g.parallel = true
	return &g
}

// Sequential returns a view over the same columns that traverses
// sequentially.
func (f *Frame) Sequential() *Frame {
	if !f.parallel {
		return f
	}
	g := *f
	g.parallel = false
	return &g
}

// IsParallel reports the traversal mode of this view.
func (f *Frame) IsParallel() bool { return f.parallel }

// valueCount returns the linear traversal extent rows*cols.
func (f *Frame) valueCount() int {
	return f.rows.Len() * f.cols.Len()
}

// threshold derives the leaf segment size for this view's traversal mode.
func (f *Frame) threshold() int {
	return forkThreshold(f.valueCount(), !f.parallel)
}

// ============================================================================
// Cursor
// ============================================================================

// Cursor is a mutable position within a frame's value space. Traversal
// reuses one cursor per leaf segment, so callers that retain a position
// beyond a callback must take a copy with Clone.
type Cursor struct {
	frame *Frame
	row   int
	col   int
}

// Cursor returns a cursor positioned at (0, 0).
func (f *Frame) Cursor() *Cursor {
	return &Cursor{frame: f}
}

// Position moves the cursor to the given linear index, decomposed
// column-major: row = index % rowCount, col = index / rowCount.
func (c *Cursor) Position(index int64) *Cursor {
	rows := int64(c.frame.rows.Len())
	c.row = int(index % rows)
	c.col = int(index / rows)
	return c
}

// At moves the cursor to the given row and column ordinals.
func (c *Cursor) At(row, col int) *Cursor {
	boundsCheck(row, c.frame.rows.Len())
	boundsCheck(col, c.frame.cols.Len())
	c.row, c.col = row, col
	return c
}

// Clone returns an independent copy of the cursor at the same position.
func (c *Cursor) Clone() *Cursor {
	d := *c
	return &d
}

// Row returns the row ordinal.
func (c *Cursor) Row() int { return c.row }

// Col returns the column ordinal.
func (c *Cursor) Col() int { return c.col }

// RowKey resolves the row ordinal through the row axis.
func (c *Cursor) RowKey() any { return c.frame.rows.Key(c.row) }

// ColKey resolves the column ordinal through the column axis.
func (c *Cursor) ColKey() any { return c.frame.cols.Key(c.col) }

// Value returns the boxed value at the cursor position.
func (c *Cursor) Value() any { return c.frame.columns[c.col].Value(c.row) }

// SetValue stores a boxed value at the cursor position.
func (c *Cursor) SetValue(value any) { c.frame.columns[c.col].SetValue(c.row, value) }

// IsNull reports whether the value at the cursor position is null.
func (c *Cursor) IsNull() bool { return c.frame.columns[c.col].IsNull(c.row) }

// DType returns the dtype of the cursor's column.
func (c *Cursor) DType() DType { return c.frame.columns[c.col].DType() }

// Bool returns the raw bool at the cursor position.
func (c *Cursor) Bool() bool { return c.frame.columns[c.col].(BoolAccess).Bool(c.row) }

// Int returns the raw int32 at the cursor position.
func (c *Cursor) Int() int32 { return c.frame.columns[c.col].(IntAccess).Int(c.row) }

// Long returns the raw int64 at the cursor position.
func (c *Cursor) Long() int64 { return c.frame.columns[c.col].(LongAccess).Long(c.row) }

// Double returns the raw float64 at the cursor position.
func (c *Cursor) Double() float64 { return c.frame.columns[c.col].(DoubleAccess).Double(c.row) }

// Str returns the string at the cursor position and whether it is
// non-null.
func (c *Cursor) Str() (string, bool) { return c.frame.columns[c.col].(StringAccess).Str(c.row) }

// ============================================================================
// Traversal
// ============================================================================

// ForEachValue visits every frame value in column-major order, reusing one
// cursor per leaf segment. With a parallel view, segments run concurrently
// and consumer must tolerate concurrent invocation; within a segment the
// visit order is ascending.
func (f *Frame) ForEachValue(consumer func(c *Cursor)) {
	total := f.valueCount()
	if total == 0 {
		return
	}
	forkJoin(0, total, f.threshold(), func(from, to int) {
		cursor := f.Cursor()
		for i := from; i < to; i++ {
			consumer(cursor.Position(int64(i)))
		}
	})
}

// ApplyBools rewrites every bool value in place through the mapper.
// Non-bool columns are skipped.
func (f *Frame) ApplyBools(mapper func(v bool) bool) {
	f.applyTyped(Bool, func(col Array, row int) {
		acc := col.(BoolAccess)
		acc.SetBool(row, mapper(acc.Bool(row)))
	})
}

// ApplyInts rewrites every int32 value in place through the mapper.
func (f *Frame) ApplyInts(mapper func(v int32) int32) {
	f.applyTyped(Int32, func(col Array, row int) {
		acc := col.(IntAccess)
		acc.SetInt(row, mapper(acc.Int(row)))
	})
}

// ApplyLongs rewrites every int64 value in place through the mapper.
func (f *Frame) ApplyLongs(mapper func(v int64) int64) {
	f.applyTyped(Int64, func(col Array, row int) {
		acc := col.(LongAccess)
		acc.SetLong(row, mapper(acc.Long(row)))
	})
}

// ApplyDoubles rewrites every float64 value in place through the mapper.
func (f *Frame) ApplyDoubles(mapper func(v float64) float64) {
	f.applyTyped(Float64, func(col Array, row int) {
		acc := col.(DoubleAccess)
		acc.SetDouble(row, mapper(acc.Double(row)))
	})
}

// ApplyValues rewrites every value in place through the boxed mapper,
// regardless of column dtype.
func (f *Frame) ApplyValues(mapper func(v any) any) {
	total := f.valueCount()
	if total == 0 {
		return
	}
	forkJoin(0, total, f.threshold(), func(from, to int) {
		cursor := f.Cursor()
		for i := from; i < to; i++ {
			cursor.Position(int64(i))
			cursor.SetValue(mapper(cursor.Value()))
		}
	})
}

func (f *Frame) applyTyped(dtype DType, apply func(col Array, row int)) {
	total := f.valueCount()
	if total == 0 {
		return
	}
	rows := f.rows.Len()
	forkJoin(0, total, f.threshold(), func(from, to int) {
		for i := from; i < to; i++ {
			col := f.columns[i/rows]
			if col.DType() != dtype {
				// skip to the next column boundary
				i += rows - i%rows - 1
				continue
			}
			apply(col, i%rows)
		}
	})
}

// ============================================================================
// Min / Max / Bounds
// ============================================================================

// extremum carries a leaf's best candidate; nil cursor means the predicate
// matched nothing in that segment.
type extremum struct {
	cursor *Cursor
}

// Min returns a cursor at the smallest value satisfying the predicate, or
// false when nothing matches. Each leaf scans from its start for a seed
// matching the predicate, sweeps the remainder against it, and sibling
// results merge left-before-right by direct value comparison.
func (f *Frame) Min(predicate func(c *Cursor) bool) (*Cursor, bool) {
	return f.extremumOf(predicate, -1)
}

// Max returns a cursor at the largest value satisfying the predicate, or
// false when nothing matches.
func (f *Frame) Max(predicate func(c *Cursor) bool) (*Cursor, bool) {
	return f.extremumOf(predicate, 1)
}

func (f *Frame) extremumOf(predicate func(c *Cursor) bool, multiplier int) (*Cursor, bool) {
	total := f.valueCount()
	if total == 0 {
		return nil, false
	}
	result := forkJoinReduce(0, total, f.threshold(), func(from, to int) extremum {
		cursor := f.Cursor()
		var best *Cursor
		i := from
		// seed scan, the predicate may reject the first candidates
		for ; i < to; i++ {
			if predicate(cursor.Position(int64(i))) {
				best = cursor.Clone()
				i++
				break
			}
		}
		for ; i < to; i++ {
			if !predicate(cursor.Position(int64(i))) {
				continue
			}
			if multiplier*compareValues(cursor.Value(), best.Value()) > 0 {
				best = cursor.Clone()
			}
		}
		return extremum{cursor: best}
	}, func(left, right extremum) extremum {
		return extremum{cursor: pickExtremum(left.cursor, right.cursor, multiplier)}
	})
	if result.cursor == nil {
		return nil, false
	}
	return result.cursor, true
}

func pickExtremum(left, right *Cursor, multiplier int) *Cursor {
	switch {
	case left == nil:
		return right
	case right == nil:
		return left
	case multiplier*compareValues(right.Value(), left.Value()) > 0:
		return right
	default:
		return left
	}
}

// Bounds returns cursors at the smallest and largest values satisfying the
// predicate in one traversal, or false when nothing matches.
func (f *Frame) Bounds(predicate func(c *Cursor) bool) (min, max *Cursor, ok bool) {
	total := f.valueCount()
	if total == 0 {
		return nil, nil, false
	}
	type bounds struct {
		min *Cursor
		max *Cursor
	}
	result := forkJoinReduce(0, total, f.threshold(), func(from, to int) bounds {
		cursor := f.Cursor()
		var b bounds
		i := from
		for ; i < to; i++ {
			if predicate(cursor.Position(int64(i))) {
				seed := cursor.Clone()
				b.min, b.max = seed, seed
				i++
				break
			}
		}
		for ; i < to; i++ {
			if !predicate(cursor.Position(int64(i))) {
				continue
			}
			if compareValues(cursor.Value(), b.min.Value()) < 0 {
				b.min = cursor.Clone()
			} else if compareValues(cursor.Value(), b.max.Value()) > 0 {
				b.max = cursor.Clone()
			}
		}
		return b
	}, func(left, right bounds) bounds {
		return bounds{
			min: pickExtremum(left.min, right.min, -1),
			max: pickExtremum(left.max, right.max, 1),
		}
	})
	if result.min == nil {
		return nil, nil, false
	}
	return result.min, result.max, true
}

// ============================================================================
// Select / Slicing
// ============================================================================

// Select returns a sub-frame of the rows and columns whose keys satisfy
// the given predicates. A nil predicate keeps every ordinal. Row and
// column scans run as independent parallel tasks; matched ordinals
// concatenate left-before-right, so the sub-frame preserves the original
// ordinal order.
func (f *Frame) Select(rowPredicate, colPredicate func(ordinal int, key any) bool) *Frame {
	rowOrds := f.selectOrdinals(f.rows, rowPredicate)
	colOrds := f.selectOrdinals(f.cols, colPredicate)

	rowKeys := make([]any, len(rowOrds))
	for i, r := range rowOrds {
		rowKeys[i] = f.rows.Key(r)
	}
	colKeys := make([]any, len(colOrds))
	columns := make([]Array, len(colOrds))
	for i, c := range colOrds {
		colKeys[i] = f.cols.Key(c)
		columns[i] = f.columns[c].CopyIndexes(rowOrds)
	}
	return &Frame{
		rows:     NewAxis(rowKeys...),
		cols:     NewAxis(colKeys...),
		columns:  columns,
		parallel: f.parallel,
	}
}

func (f *Frame) selectOrdinals(axis Axis, predicate func(ordinal int, key any) bool) []int {
	n := axis.Len()
	if predicate == nil {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	threshold := forkThreshold(n, !f.parallel)
	return forkJoinReduce(0, n, threshold, func(from, to int) []int {
		scratch := getIntScratch(to - from)
		matched := scratch.Data[:0]
		for i := from; i < to; i++ {
			if predicate(i, axis.Key(i)) {
				matched = append(matched, i)
			}
		}
		out := make([]int, len(matched))
		copy(out, matched)
		scratch.Release()
		return out
	}, func(left, right []int) []int {
		return append(left, right...)
	})
}

// Head returns a view-copy of the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n > f.rows.Len() {
		n = f.rows.Len()
	}
	return f.Slice(0, n)
}

// Tail returns a view-copy of the last n rows.
func (f *Frame) Tail(n int) *Frame {
	if n > f.rows.Len() {
		n = f.rows.Len()
	}
	return f.Slice(f.rows.Len()-n, f.rows.Len())
}

// Slice returns a copy of rows [from, to) across all columns.
func (f *Frame) Slice(from, to int) *Frame {
	rangeCheck(from, to, f.rows.Len())
	rowKeys := make([]any, to-from)
	for i := range rowKeys {
		rowKeys[i] = f.rows.Key(from + i)
	}
	columns := make([]Array, len(f.columns))
	for i, col := range f.columns {
		columns[i] = col.CopySlice(from, to)
	}
	g := *f
	g.rows = NewAxis(rowKeys...)
	g.columns = columns
	return &g
}

// SortColumn sorts the column at the given ordinal in place, following
// this frame's traversal mode rather than the array's own parallel flag;
// multiplier +1 ascending, -1 descending.
func (f *Frame) SortColumn(ordinal int, multiplier int) {
	col := f.Column(ordinal)
	if f.parallel {
		col.Parallel().Sort(0, col.Len(), multiplier)
	} else {
		col.Sequential().Sort(0, col.Len(), multiplier)
	}
}
