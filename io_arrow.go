package caravel

import (
	"fmt"
	"math"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ============================================================================
// Arrow Export
// ============================================================================
//
// Dense columns map to their natural Arrow types; string-coded columns
// export as dictionary arrays, temporal codings as Date32/Timestamp/Time64
// so the codes cross without decoding. Float64 columns keep NaN in the
// payload rather than a validity bitmap, matching the in-memory null
// convention. Object columns do not export.

// ToArrow exports a frame to an Arrow Record. Column keys become field
// names via fmt.Sprint. The caller is responsible for calling Release()
// on the returned Record.
func (f *Frame) ToArrow(mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	fields := make([]arrow.Field, len(f.columns))
	arrays := make([]arrow.Array, len(f.columns))
	for i, col := range f.columns {
		name := fmt.Sprint(f.cols.Key(i))
		arr, err := arrayToArrow(col, mem)
		if err != nil {
			for j := 0; j < i; j++ {
				arrays[j].Release()
			}
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		arrays[i] = arr
		fields[i] = arrow.Field{Name: name, Type: arr.DataType(), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	record := array.NewRecord(schema, arrays, int64(f.RowCount()))

	// Release arrays (Record retains them)
	for _, arr := range arrays {
		arr.Release()
	}

	return record, nil
}

// ToArrowTable exports a frame to an Arrow Table. The caller is
// responsible for calling Release() on the returned Table.
func (f *Frame) ToArrowTable(mem memory.Allocator) (arrow.Table, error) {
	record, err := f.ToArrow(mem)
	if err != nil {
		return nil, err
	}
	defer record.Release()

	return array.NewTableFromRecords(record.Schema(), []arrow.Record{record}), nil
}

// arrayToArrow converts one column to an Arrow array.
func arrayToArrow(a Array, mem memory.Allocator) (arrow.Array, error) {
	switch v := a.(type) {
	case *boolArray:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		for _, x := range v.values {
			builder.Append(x)
		}
		return builder.NewArray(), nil

	case *intArray:
		builder := array.NewInt32Builder(mem)
		defer builder.Release()
		builder.AppendValues(v.values, nil)
		return builder.NewArray(), nil

	case *longArray:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v.values, nil)
		return builder.NewArray(), nil

	case *doubleArray:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v.values, nil)
		return builder.NewArray(), nil

	case *utf8Array:
		return stringsToArrow(v, mem)

	case *utf16Array:
		return stringsToArrow(v, mem)

	case *codedIntArray[string]:
		return codedStringsToArrow(v, mem)

	case *codedLongArray[time.Time]:
		return codedTimesToArrow(v, mem)

	case *codedLongArray[time.Duration]:
		builder := array.NewTime64Builder(mem, arrow.FixedWidthTypes.Time64ns.(*arrow.Time64Type))
		defer builder.Release()
		for _, code := range v.codes {
			if code == v.coding.NullCode() {
				builder.AppendNull()
			} else {
				builder.Append(arrow.Time64(code))
			}
		}
		return builder.NewArray(), nil

	case *zonedArray:
		dtype := &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}
		builder := array.NewTimestampBuilder(mem, dtype)
		defer builder.Release()
		for _, millis := range v.millis {
			if millis == zonedMillisNull {
				builder.AppendNull()
			} else {
				builder.Append(arrow.Timestamp(millis))
			}
		}
		return builder.NewArray(), nil

	default:
		return nil, fmt.Errorf("unsupported dtype for Arrow export: %s", a.DType())
	}
}

func stringsToArrow(a StringAccess, mem memory.Allocator) (arrow.Array, error) {
	length := a.(Array).Len()
	builder := array.NewStringBuilder(mem)
	defer builder.Release()
	for i := 0; i < length; i++ {
		if s, ok := a.Str(i); ok {
			builder.Append(s)
		} else {
			builder.AppendNull()
		}
	}
	return builder.NewArray(), nil
}

func codedStringsToArrow(a *codedIntArray[string], mem memory.Allocator) (arrow.Array, error) {
	dictType := &arrow.DictionaryType{
		IndexType: arrow.PrimitiveTypes.Int32,
		ValueType: arrow.BinaryTypes.String,
	}
	builder := array.NewDictionaryBuilder(mem, dictType)
	defer builder.Release()

	dictBuilder := builder.(*array.BinaryDictionaryBuilder)
	nullCode := a.coding.NullCode()
	for _, code := range a.codes {
		if code == nullCode {
			dictBuilder.AppendNull()
			continue
		}
		if err := dictBuilder.AppendString(a.coding.Decode(code)); err != nil {
			return nil, err
		}
	}
	return builder.NewArray(), nil
}

func codedTimesToArrow(a *codedLongArray[time.Time], mem memory.Allocator) (arrow.Array, error) {
	nullCode := a.coding.NullCode()
	switch a.coding.Tag() {
	case CodingDate:
		builder := array.NewDate32Builder(mem)
		defer builder.Release()
		for _, code := range a.codes {
			if code == nullCode {
				builder.AppendNull()
			} else {
				builder.Append(arrow.Date32(code))
			}
		}
		return builder.NewArray(), nil
	case CodingInstant:
		dtype := &arrow.TimestampType{Unit: arrow.Millisecond}
		builder := array.NewTimestampBuilder(mem, dtype)
		defer builder.Release()
		for _, code := range a.codes {
			if code == nullCode {
				builder.AppendNull()
			} else {
				builder.Append(arrow.Timestamp(code))
			}
		}
		return builder.NewArray(), nil
	default:
		return nil, fmt.Errorf("unsupported time coding tag %d for Arrow export", a.coding.Tag())
	}
}

// ============================================================================
// Arrow Import
// ============================================================================

// FrameFromArrow creates a frame from an Arrow Record. Field names become
// the column axis keys; the row axis is ordinal.
func FrameFromArrow(record arrow.Record) (*Frame, error) {
	if record == nil {
		return nil, fmt.Errorf("record is nil")
	}

	schema := record.Schema()
	numCols := int(record.NumCols())
	colKeys := make([]any, numCols)
	columns := make([]Array, numCols)

	for i := 0; i < numCols; i++ {
		field := schema.Field(i)
		col, err := arrowToArray(record.Column(i))
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", field.Name, err)
		}
		colKeys[i] = field.Name
		columns[i] = col
	}

	return NewFrame(NewOrdinalAxis(int(record.NumRows())), NewAxis(colKeys...), columns)
}

// arrowToArray converts an Arrow array to a dense column.
func arrowToArray(arr arrow.Array) (Array, error) {
	switch a := arr.(type) {
	case *array.Boolean:
		out := NewBoolArray(a.Len(), false).(*boolArray)
		for i := range out.values {
			out.values[i] = a.Value(i)
		}
		return out, nil

	case *array.Int32:
		out := NewIntArray(a.Len(), 0).(*intArray)
		copy(out.values, a.Int32Values())
		return out, nil

	case *array.Int64:
		out := NewLongArray(a.Len(), 0).(*longArray)
		copy(out.values, a.Int64Values())
		return out, nil

	case *array.Float64:
		out := NewDoubleArray(a.Len(), 0).(*doubleArray)
		copy(out.values, a.Float64Values())
		for i := range out.values {
			if a.IsNull(i) {
				out.values[i] = math.NaN()
			}
		}
		return out, nil

	case *array.String:
		width := defaultStringWidth
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) && len(a.Value(i)) > width {
				width = len(a.Value(i))
			}
		}
		out := NewUtf8Array(a.Len(), width).(*utf8Array)
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				out.SetStr(i, a.Value(i))
			}
		}
		return out, nil

	case *array.Dictionary:
		return arrowDictionaryToArray(a)

	case *array.Date32:
		coding := NewDateCoding()
		out := NewCodedLongArray(coding, a.Len(), nil).(*codedLongArray[time.Time])
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				out.codes[i] = int64(a.Value(i))
			}
		}
		return out, nil

	case *array.Time64:
		coding := NewTimeOfDayCoding()
		out := NewCodedLongArray(coding, a.Len(), nil).(*codedLongArray[time.Duration])
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				out.codes[i] = int64(a.Value(i))
			}
		}
		return out, nil

	case *array.Timestamp:
		return arrowTimestampToArray(a)

	default:
		return nil, fmt.Errorf("unsupported Arrow array type: %T", arr)
	}
}

func arrowDictionaryToArray(a *array.Dictionary) (Array, error) {
	dict, ok := a.Dictionary().(*array.String)
	if !ok {
		return nil, fmt.Errorf("unsupported dictionary value type: %T", a.Dictionary())
	}
	table := make([]string, dict.Len())
	for i := range table {
		table[i] = dict.Value(i)
	}

	coding := NewEnumCoding(table)
	out := NewCodedIntArray(coding, a.Len(), nil).(*codedIntArray[string])
	for i := 0; i < a.Len(); i++ {
		if a.IsNull(i) {
			continue
		}
		// Re-encode: the enum coding sorts its table, so the dictionary's
		// own index order does not carry over.
		out.codes[i] = coding.Encode(table[a.GetValueIndex(i)])
	}
	return out, nil
}

func arrowTimestampToArray(a *array.Timestamp) (Array, error) {
	t, ok := a.DataType().(*arrow.TimestampType)
	if !ok {
		return nil, fmt.Errorf("timestamp array with data type %T", a.DataType())
	}
	toMillis := func(v arrow.Timestamp) int64 {
		switch t.Unit {
		case arrow.Second:
			return int64(v) * 1000
		case arrow.Millisecond:
			return int64(v)
		case arrow.Microsecond:
			return int64(v) / 1000
		default:
			return int64(v) / 1_000_000
		}
	}

	if t.TimeZone == "" {
		coding := NewInstantCoding()
		out := NewCodedLongArray(coding, a.Len(), nil).(*codedLongArray[time.Time])
		for i := 0; i < a.Len(); i++ {
			if !a.IsNull(i) {
				out.codes[i] = toMillis(a.Value(i))
			}
		}
		return out, nil
	}

	zone, err := internZone(t.TimeZone)
	if err != nil {
		zone, _ = internZone("UTC")
	}
	out := NewZonedDateTimeArray(a.Len()).(*zonedArray)
	for i := 0; i < a.Len(); i++ {
		if !a.IsNull(i) {
			out.millis[i] = toMillis(a.Value(i))
			out.zones[i] = zone
		}
	}
	return out, nil
}
