package caravel

import "fmt"

// DType identifies the physical storage variant of an Array.
type DType uint8

const (
	// Dense primitive storage
	Bool DType = iota
	Int32
	Int64
	Float64

	// Packed variable-width text storage
	Utf8
	Utf16

	// Code-mapped object storage
	CodedInt32
	CodedInt64

	// Hybrid epoch-millis + interned zone storage
	ZonedDateTime

	// Boxed fallback
	Object
)

// String returns the string representation of the DType.
func (d DType) String() string {
	switch d {
	case Bool:
		return "Bool"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case Float64:
		return "Float64"
	case Utf8:
		return "Utf8"
	case Utf16:
		return "Utf16"
	case CodedInt32:
		return "CodedInt32"
	case CodedInt64:
		return "CodedInt64"
	case ZonedDateTime:
		return "ZonedDateTime"
	case Object:
		return "Object"
	default:
		return fmt.Sprintf("Unknown(%d)", d)
	}
}

// IsNumeric returns true if the dtype stores a primitive numeric channel.
func (d DType) IsNumeric() bool {
	switch d {
	case Int32, Int64, Float64:
		return true
	default:
		return false
	}
}

// IsString returns true for the packed text variants.
func (d DType) IsString() bool {
	return d == Utf8 || d == Utf16
}

// IsCoded returns true if values round-trip through a Coding.
func (d DType) IsCoded() bool {
	return d == CodedInt32 || d == CodedInt64
}

// Size returns the per-element storage size in bytes, or -1 for
// variable-size storage.
func (d DType) Size() int {
	switch d {
	case Bool:
		return 1
	case Int32, CodedInt32:
		return 4
	case Int64, Float64, CodedInt64:
		return 8
	case ZonedDateTime:
		return 10 // 8 bytes epoch-millis + 2 bytes zone code
	default:
		return -1
	}
}

// Schema describes the column layout of a Frame: ordered names and dtypes.
type Schema struct {
	names  []string
	dtypes []DType
}

// NewSchema creates a schema from column names and types.
func NewSchema(names []string, dtypes []DType) (*Schema, error) {
	if len(names) != len(dtypes) {
		return nil, fmt.Errorf("names and dtypes must have same length: %d != %d", len(names), len(dtypes))
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("duplicate column name: %s", name)
		}
		seen[name] = true
	}

	return &Schema{
		names:  append([]string{}, names...),
		dtypes: append([]DType{}, dtypes...),
	}, nil
}

// Len returns the number of columns in the schema.
func (s *Schema) Len() int {
	return len(s.names)
}

// Names returns the column names.
func (s *Schema) Names() []string {
	return append([]string{}, s.names...)
}

// DTypes returns the column data types.
func (s *Schema) DTypes() []DType {
	return append([]DType{}, s.dtypes...)
}

// GetDType returns the dtype for a column name.
func (s *Schema) GetDType(name string) (DType, bool) {
	for i, n := range s.names {
		if n == name {
			return s.dtypes[i], true
		}
	}
	return Object, false
}

// GetIndex returns the index of a column name.
func (s *Schema) GetIndex(name string) (int, bool) {
	for i, n := range s.names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// String returns a string representation of the schema.
func (s *Schema) String() string {
	result := "Schema{\n"
	for i, name := range s.names {
		result += fmt.Sprintf("  %s: %s\n", name, s.dtypes[i])
	}
	result += "}"
	return result
}
