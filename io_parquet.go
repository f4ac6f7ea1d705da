package caravel

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"
)

// ============================================================================
// Parquet Import / Export
// ============================================================================
//
// The Parquet edge maps columns to dense primitives: booleans, int32,
// int64, doubles (nulls as NaN), and byte-array strings. String-coded
// columns export decoded; temporal codings and zoned timestamps export
// their int64 codes. The coding itself does not survive a Parquet round
// trip; use the binary array format when it must.

// ParquetReadOptions configures Parquet reading behavior
type ParquetReadOptions struct {
	Columns []string // Only read these columns (nil = all)
	MaxRows int      // Max rows to read (0 = unlimited)
}

// DefaultParquetReadOptions returns default Parquet reading options
func DefaultParquetReadOptions() ParquetReadOptions {
	return ParquetReadOptions{}
}

// ReadParquet reads a Parquet file into a frame
func ReadParquet(path string, opts ...ParquetReadOptions) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return ReadParquetFromReader(f, stat.Size(), opts...)
}

// newParquetColumnBuilder creates a builder whose target array carries the
// null convention for the dtype (NaN defaults for doubles, null strings).
func newParquetColumnBuilder(dtype DType, capacity int) *ArrayBuilder {
	switch dtype {
	case Float64:
		target := NewDoubleArray(capacity, math.NaN())
		return NewArrayBuilderOf(target)
	default:
		return NewArrayBuilder(dtype, capacity)
	}
}

// ReadParquetFromReader reads Parquet data from an io.ReaderAt into a frame
func ReadParquetFromReader(r io.ReaderAt, size int64, opts ...ParquetReadOptions) (*Frame, error) {
	opt := DefaultParquetReadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	schema := pf.Schema()

	// Determine columns to read
	var colNames []string
	if len(opt.Columns) > 0 {
		colNames = opt.Columns
	} else {
		fields := schema.Fields()
		colNames = make([]string, len(fields))
		for i, f := range fields {
			colNames[i] = f.Name()
		}
	}

	// Build column index map
	colIndexMap := make(map[string]int)
	for i, col := range schema.Columns() {
		if len(col) > 0 {
			colIndexMap[col[0]] = i
		}
	}

	colIndices := make([]int, len(colNames))
	dtypes := make([]DType, len(colNames))
	for i, name := range colNames {
		idx, ok := colIndexMap[name]
		if !ok {
			return nil, fmt.Errorf("column %q not found in parquet file", name)
		}
		colIndices[i] = idx
		dtypes[i] = parquetLeafToDType(schema, schema.Columns()[idx])
	}

	rowGroups := pf.RowGroups()
	cfg := globalConfig

	// For parallel reading, we read each row group separately then combine
	if cfg.shouldParallelize(int(pf.NumRows())) && len(rowGroups) > 1 {
		return readParquetParallel(rowGroups, colNames, colIndices, dtypes, opt)
	}

	builders := make([]*ArrayBuilder, len(colNames))
	for i := range builders {
		builders[i] = newParquetColumnBuilder(dtypes[i], int(pf.NumRows()))
	}

	rowCount := 0
	for _, rg := range rowGroups {
		if opt.MaxRows > 0 && rowCount >= opt.MaxRows {
			break
		}
		n, err := readRowGroup(rg, colIndices, dtypes, builders, opt.MaxRows-rowCount)
		if err != nil {
			return nil, err
		}
		rowCount += n
	}

	return frameFromBuilders(colNames, builders)
}

// readRowGroup streams one row group into the builders; maxRows <= 0 with
// opt.MaxRows unset means unlimited.
func readRowGroup(rg parquet.RowGroup, colIndices []int, dtypes []DType, builders []*ArrayBuilder, maxRows int) (int, error) {
	rows := rg.Rows()
	defer rows.Close()

	limited := maxRows > 0
	rowCount := 0
	rowBuf := make([]parquet.Row, 1000)
	for {
		n, err := rows.ReadRows(rowBuf)
		if err != nil && err != io.EOF {
			return rowCount, fmt.Errorf("failed to read rows: %w", err)
		}
		if n == 0 {
			return rowCount, nil
		}

		for _, row := range rowBuf[:n] {
			if limited && rowCount >= maxRows {
				return rowCount, nil
			}
			for i, colIdx := range colIndices {
				if colIdx < len(row) {
					appendParquetValue(builders[i], dtypes[i], row[colIdx])
				} else {
					builders[i].Add(nil)
				}
			}
			rowCount++
		}
	}
}

// readParquetParallel reads row groups in parallel
func readParquetParallel(rowGroups []parquet.RowGroup, colNames []string, colIndices []int, dtypes []DType, opt ParquetReadOptions) (*Frame, error) {
	numRGs := len(rowGroups)

	// Each row group gets its own set of builders
	rgBuilders := make([][]*ArrayBuilder, numRGs)
	rgErrors := make([]error, numRGs)

	var wg sync.WaitGroup
	for rgIdx := range rowGroups {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			builders := make([]*ArrayBuilder, len(colNames))
			for i := range builders {
				builders[i] = newParquetColumnBuilder(dtypes[i], int(rowGroups[idx].NumRows()))
			}
			if _, err := readRowGroup(rowGroups[idx], colIndices, dtypes, builders, 0); err != nil {
				rgErrors[idx] = err
				return
			}
			rgBuilders[idx] = builders
		}(rgIdx)
	}
	wg.Wait()

	for i, err := range rgErrors {
		if err != nil {
			return nil, fmt.Errorf("row group %d: %w", i, err)
		}
	}

	// Merge per-row-group columns in row group order
	merged := make([]*ArrayBuilder, len(colNames))
	for i := range merged {
		merged[i] = newParquetColumnBuilder(dtypes[i], 0)
		for _, rgB := range rgBuilders {
			merged[i].AddAll(rgB[i].ToArray())
		}
	}

	// Apply MaxRows limit if needed
	if opt.MaxRows > 0 && merged[0] != nil && merged[0].Len() > opt.MaxRows {
		columns := make([]Array, len(colNames))
		colKeys := make([]any, len(colNames))
		for i, name := range colNames {
			colKeys[i] = name
			columns[i] = merged[i].ToArray().CopySlice(0, opt.MaxRows)
		}
		return NewFrame(NewOrdinalAxis(opt.MaxRows), NewAxis(colKeys...), columns)
	}

	return frameFromBuilders(colNames, merged)
}

func frameFromBuilders(colNames []string, builders []*ArrayBuilder) (*Frame, error) {
	columns := make([]Array, len(builders))
	colKeys := make([]any, len(builders))
	height := 0
	for i, b := range builders {
		colKeys[i] = colNames[i]
		columns[i] = b.ToArray()
		height = columns[i].Len()
	}
	return NewFrame(NewOrdinalAxis(height), NewAxis(colKeys...), columns)
}

func parquetLeafToDType(schema *parquet.Schema, leaf []string) DType {
	if len(leaf) == 0 {
		return Utf8
	}

	// Find the column definition
	for _, col := range schema.Fields() {
		if col.Name() == leaf[0] {
			t := col.Type()
			if t == nil {
				return Utf8
			}
			switch t.Kind() {
			case parquet.Boolean:
				return Bool
			case parquet.Int32:
				return Int32
			case parquet.Int64:
				return Int64
			case parquet.Float, parquet.Double:
				return Float64
			case parquet.ByteArray, parquet.FixedLenByteArray:
				return Utf8
			default:
				return Utf8
			}
		}
	}
	return Utf8
}

func appendParquetValue(b *ArrayBuilder, dtype DType, val parquet.Value) {
	if val.IsNull() {
		b.Add(nil)
		return
	}

	switch dtype {
	case Bool:
		b.AddBool(val.Boolean())
	case Int32:
		b.AddInt(val.Int32())
	case Int64:
		b.AddLong(val.Int64())
	case Float64:
		b.AddDouble(val.Double())
	default:
		b.AddString(string(val.ByteArray()))
	}
}

// ParquetWriteOptions configures Parquet writing behavior
type ParquetWriteOptions struct {
	Compression  string // "snappy", "gzip", "zstd", "none" (default "snappy")
	RowGroupSize int    // Rows per row group (default 1000000)
}

// DefaultParquetWriteOptions returns default Parquet writing options
func DefaultParquetWriteOptions() ParquetWriteOptions {
	return ParquetWriteOptions{
		Compression:  "snappy",
		RowGroupSize: 1000000,
	}
}

// WriteParquet writes a frame to a Parquet file
func (f *Frame) WriteParquet(path string, opts ...ParquetWriteOptions) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return f.WriteParquetToWriter(file, opts...)
}

// WriteParquetToWriter writes a frame to an io.Writer
func (f *Frame) WriteParquetToWriter(w io.Writer, opts ...ParquetWriteOptions) error {
	opt := DefaultParquetWriteOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	if len(f.columns) == 0 || f.RowCount() == 0 {
		return nil
	}

	// Build schema as a group of named columns
	group := make(parquet.Group)
	for i, col := range f.columns {
		group[fmt.Sprint(f.cols.Key(i))] = parquet.Optional(dtypeToParquetNode(col.DType()))
	}

	schema := parquet.NewSchema("frame", group)

	var writerOpts []parquet.WriterOption
	writerOpts = append(writerOpts, schema)
	switch opt.Compression {
	case "snappy":
		writerOpts = append(writerOpts, parquet.Compression(&parquet.Snappy))
	case "gzip":
		writerOpts = append(writerOpts, parquet.Compression(&parquet.Gzip))
	case "zstd":
		writerOpts = append(writerOpts, parquet.Compression(&parquet.Zstd))
	}

	pw := parquet.NewWriter(w, writerOpts...)
	defer pw.Close()

	// The schema group sorts field names, so values must be emitted in the
	// schema's column order, not the frame's.
	fieldOrder := make([]int, len(schema.Fields()))
	for pos, field := range schema.Fields() {
		for c := 0; c < f.ColCount(); c++ {
			if fmt.Sprint(f.cols.Key(c)) == field.Name() {
				fieldOrder[pos] = c
				break
			}
		}
	}

	height := f.RowCount()
	batchSize := 1000

	rows := make([]parquet.Row, 0, batchSize)
	for i := 0; i < height; i++ {
		row := make(parquet.Row, len(fieldOrder))
		for pos, c := range fieldOrder {
			row[pos] = toParquetValue(f.columns[c], i, pos)
		}
		rows = append(rows, row)

		if len(rows) >= batchSize {
			if _, err := pw.WriteRows(rows); err != nil {
				return fmt.Errorf("failed to write rows at %d: %w", i-len(rows)+1, err)
			}
			rows = rows[:0]
		}
	}

	if len(rows) > 0 {
		if _, err := pw.WriteRows(rows); err != nil {
			return fmt.Errorf("failed to write final rows: %w", err)
		}
	}

	return pw.Close()
}

func dtypeToParquetNode(dtype DType) parquet.Node {
	switch dtype {
	case Bool:
		return parquet.Leaf(parquet.BooleanType)
	case Int32:
		return parquet.Leaf(parquet.Int32Type)
	case Int64, CodedInt64, ZonedDateTime:
		return parquet.Leaf(parquet.Int64Type)
	case Float64:
		return parquet.Leaf(parquet.DoubleType)
	default:
		return parquet.Leaf(parquet.ByteArrayType)
	}
}

// toParquetValue fetches element row of col as a parquet value at the
// given column position within the row.
func toParquetValue(col Array, row, pos int) parquet.Value {
	var v parquet.Value
	switch a := col.(type) {
	case *boolArray:
		v = parquet.BooleanValue(a.values[row])
	case *intArray:
		v = parquet.Int32Value(a.values[row])
	case *longArray:
		v = parquet.Int64Value(a.values[row])
	case *doubleArray:
		if math.IsNaN(a.values[row]) {
			v = parquet.NullValue()
		} else {
			v = parquet.DoubleValue(a.values[row])
		}
	case *codedLongArray[time.Time]:
		if a.codes[row] == a.coding.NullCode() {
			v = parquet.NullValue()
		} else {
			v = parquet.Int64Value(a.codes[row])
		}
	case *codedLongArray[time.Duration]:
		if a.codes[row] == a.coding.NullCode() {
			v = parquet.NullValue()
		} else {
			v = parquet.Int64Value(a.codes[row])
		}
	case *zonedArray:
		if a.millis[row] == zonedMillisNull {
			v = parquet.NullValue()
		} else {
			v = parquet.Int64Value(a.millis[row])
		}
	default:
		if sa, ok := col.(StringAccess); ok {
			if s, present := sa.Str(row); present {
				v = parquet.ByteArrayValue([]byte(s))
			} else {
				v = parquet.NullValue()
			}
		} else if val := col.Value(row); val != nil {
			v = parquet.ByteArrayValue([]byte(fmt.Sprintf("%v", val)))
		} else {
			v = parquet.NullValue()
		}
	}
	return v.Level(0, boolToInt(!v.IsNull()), pos)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
