package caravel

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// DisplayConfig controls how frames and arrays are formatted when printed.
type DisplayConfig struct {
	// MaxRows is the maximum number of rows to display.
	// If the frame has more rows, it shows head and tail rows with "..." in between.
	// Default: 10 (5 head + 5 tail)
	MaxRows int

	// MaxCols is the maximum number of columns to display.
	// If the frame has more columns, middle columns are replaced with "...".
	// Default: 10
	MaxCols int

	// MaxColWidth is the maximum width for column content.
	// Values longer than this are truncated with "...".
	// Default: 25
	MaxColWidth int

	// MinColWidth is the minimum column width for alignment.
	// Default: 8
	MinColWidth int

	// FloatPrecision is the number of decimal places for float values.
	// Default: 4
	FloatPrecision int

	// ShowDTypes controls whether to display data types under column keys.
	// Default: true
	ShowDTypes bool

	// ShowShape controls whether to display the shape (rows × columns) header.
	// Default: true
	ShowShape bool

	// TableStyle controls the table border style.
	// Options: "rounded", "sharp", "ascii", "minimal"
	// Default: "rounded"
	TableStyle string
}

// Table style characters
type tableChars struct {
	topLeft, topRight, bottomLeft, bottomRight string
	horizontal, vertical                       string
	topT, bottomT, leftT, rightT, cross        string
}

var tableStyles = map[string]tableChars{
	"rounded": {
		topLeft: "╭", topRight: "╮", bottomLeft: "╰", bottomRight: "╯",
		horizontal: "─", vertical: "│",
		topT: "┬", bottomT: "┴", leftT: "├", rightT: "┤", cross: "┼",
	},
	"sharp": {
		topLeft: "┌", topRight: "┐", bottomLeft: "└", bottomRight: "┘",
		horizontal: "─", vertical: "│",
		topT: "┬", bottomT: "┴", leftT: "├", rightT: "┤", cross: "┼",
	},
	"ascii": {
		topLeft: "+", topRight: "+", bottomLeft: "+", bottomRight: "+",
		horizontal: "-", vertical: "|",
		topT: "+", bottomT: "+", leftT: "+", rightT: "+", cross: "+",
	},
	"minimal": {
		topLeft: " ", topRight: " ", bottomLeft: " ", bottomRight: " ",
		horizontal: "─", vertical: " ",
		topT: " ", bottomT: " ", leftT: " ", rightT: " ", cross: " ",
	},
}

// DefaultDisplayConfig returns the default display configuration.
func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		MaxRows:        10,
		MaxCols:        10,
		MaxColWidth:    25,
		MinColWidth:    8,
		FloatPrecision: 4,
		ShowDTypes:     true,
		ShowShape:      true,
		TableStyle:     "rounded",
	}
}

// Global display configuration with mutex for thread safety
var (
	globalDisplayConfig = DefaultDisplayConfig()
	displayConfigMu     sync.RWMutex
)

// SetDisplayConfig sets the global display configuration.
func SetDisplayConfig(cfg DisplayConfig) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	globalDisplayConfig = cfg
}

// GetDisplayConfig returns the current global display configuration.
func GetDisplayConfig() DisplayConfig {
	displayConfigMu.RLock()
	defer displayConfigMu.RUnlock()
	return globalDisplayConfig
}

// SetMaxDisplayRows sets the maximum number of rows to display.
func SetMaxDisplayRows(n int) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	globalDisplayConfig.MaxRows = n
}

// SetMaxDisplayCols sets the maximum number of columns to display.
func SetMaxDisplayCols(n int) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	globalDisplayConfig.MaxCols = n
}

// SetFloatPrecision sets the decimal precision for float display.
func SetFloatPrecision(n int) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	globalDisplayConfig.FloatPrecision = n
}

// SetTableStyle sets the table border style.
// Options: "rounded", "sharp", "ascii", "minimal"
func SetTableStyle(style string) {
	displayConfigMu.Lock()
	defer displayConfigMu.Unlock()
	if _, ok := tableStyles[style]; ok {
		globalDisplayConfig.TableStyle = style
	}
}

// formatDisplayValue formats a value for display with the given configuration.
func formatDisplayValue(val any, cfg DisplayConfig) string {
	var s string
	switch v := val.(type) {
	case nil:
		s = "null"
	case float64:
		format := fmt.Sprintf("%%.%df", cfg.FloatPrecision)
		s = fmt.Sprintf(format, v)
	case string:
		s = v
	case bool:
		if v {
			s = "true"
		} else {
			s = "false"
		}
	case time.Time:
		s = v.Format(time.RFC3339)
	default:
		s = fmt.Sprintf("%v", v)
	}

	// Truncate if too long
	if len(s) > cfg.MaxColWidth {
		s = s[:cfg.MaxColWidth-3] + "..."
	}
	return s
}

// calculateColumnWidths computes optimal width for each column.
func calculateColumnWidths(f *Frame, cfg DisplayConfig, rowIndices []int) []int {
	widths := make([]int, len(f.columns))

	for i, col := range f.columns {
		// Start with column key width
		widths[i] = len(fmt.Sprint(f.cols.Key(i)))

		// Check data type width
		if cfg.ShowDTypes {
			dtypeLen := len(col.DType().String())
			if dtypeLen > widths[i] {
				widths[i] = dtypeLen
			}
		}

		// Check sample values
		for _, rowIdx := range rowIndices {
			valStr := formatDisplayValue(col.Value(rowIdx), cfg)
			if len(valStr) > widths[i] {
				widths[i] = len(valStr)
			}
		}

		// Apply min/max constraints
		if widths[i] < cfg.MinColWidth {
			widths[i] = cfg.MinColWidth
		}
		if widths[i] > cfg.MaxColWidth {
			widths[i] = cfg.MaxColWidth
		}
	}

	return widths
}

// String formats the frame using the global display configuration.
func (f *Frame) String() string {
	return f.StringWithConfig(GetDisplayConfig())
}

// StringWithConfig formats the frame using the provided configuration.
func (f *Frame) StringWithConfig(cfg DisplayConfig) string {
	if f.RowCount() == 0 || len(f.columns) == 0 {
		return "Frame(empty)"
	}

	chars, ok := tableStyles[cfg.TableStyle]
	if !ok {
		chars = tableStyles["rounded"]
	}

	var sb strings.Builder

	// Shape header
	if cfg.ShowShape {
		sb.WriteString(fmt.Sprintf("shape: (%d, %d)\n", f.RowCount(), len(f.columns)))
	}

	// Determine which columns to show
	numCols := len(f.columns)
	showAllCols := numCols <= cfg.MaxCols
	var colIndices []int
	if showAllCols {
		colIndices = make([]int, numCols)
		for i := range colIndices {
			colIndices[i] = i
		}
	} else {
		// Show first half and last half with "..." in middle
		headCols := cfg.MaxCols / 2
		tailCols := cfg.MaxCols - headCols
		colIndices = make([]int, 0, cfg.MaxCols)
		for i := 0; i < headCols; i++ {
			colIndices = append(colIndices, i)
		}
		colIndices = append(colIndices, -1) // marker for "..."
		for i := numCols - tailCols; i < numCols; i++ {
			colIndices = append(colIndices, i)
		}
	}

	// Determine which rows to show
	height := f.RowCount()
	showAllRows := height <= cfg.MaxRows
	var rowIndices []int
	if showAllRows {
		rowIndices = make([]int, height)
		for i := range rowIndices {
			rowIndices[i] = i
		}
	} else {
		// Show head and tail with "..." in middle
		headRows := cfg.MaxRows / 2
		tailRows := cfg.MaxRows - headRows
		rowIndices = make([]int, 0, cfg.MaxRows)
		for i := 0; i < headRows; i++ {
			rowIndices = append(rowIndices, i)
		}
		rowIndices = append(rowIndices, -1) // marker for "..."
		for i := height - tailRows; i < height; i++ {
			rowIndices = append(rowIndices, i)
		}
	}

	// Calculate column widths (only for visible columns)
	allWidths := calculateColumnWidths(f, cfg, filterPositive(rowIndices))
	colWidths := make([]int, len(colIndices))
	for i, colIdx := range colIndices {
		if colIdx == -1 {
			colWidths[i] = 3 // "..."
		} else {
			colWidths[i] = allWidths[colIdx]
		}
	}

	// Build the table
	// Top border
	sb.WriteString(chars.topLeft)
	for i, w := range colWidths {
		if i > 0 {
			sb.WriteString(chars.topT)
		}
		sb.WriteString(strings.Repeat(chars.horizontal, w+2))
	}
	sb.WriteString(chars.topRight)
	sb.WriteString("\n")

	// Column keys
	sb.WriteString(chars.vertical)
	for i, colIdx := range colIndices {
		if colIdx == -1 {
			sb.WriteString(fmt.Sprintf(" %*s ", colWidths[i], "…"))
		} else {
			name := fmt.Sprint(f.cols.Key(colIdx))
			if len(name) > colWidths[i] {
				name = name[:colWidths[i]-3] + "..."
			}
			sb.WriteString(fmt.Sprintf(" %-*s ", colWidths[i], name))
		}
		sb.WriteString(chars.vertical)
	}
	sb.WriteString("\n")

	// Data types row
	if cfg.ShowDTypes {
		sb.WriteString(chars.vertical)
		for i, colIdx := range colIndices {
			if colIdx == -1 {
				sb.WriteString(fmt.Sprintf(" %*s ", colWidths[i], "---"))
			} else {
				dtype := f.columns[colIdx].DType().String()
				if len(dtype) > colWidths[i] {
					dtype = dtype[:colWidths[i]-3] + "..."
				}
				sb.WriteString(fmt.Sprintf(" %-*s ", colWidths[i], dtype))
			}
			sb.WriteString(chars.vertical)
		}
		sb.WriteString("\n")
	}

	// Separator after header
	sb.WriteString(chars.leftT)
	for i, w := range colWidths {
		if i > 0 {
			sb.WriteString(chars.cross)
		}
		sb.WriteString(strings.Repeat(chars.horizontal, w+2))
	}
	sb.WriteString(chars.rightT)
	sb.WriteString("\n")

	// Data rows
	for _, rowIdx := range rowIndices {
		sb.WriteString(chars.vertical)
		if rowIdx == -1 {
			// Ellipsis row
			for _, w := range colWidths {
				sb.WriteString(fmt.Sprintf(" %*s ", w, "…"))
				sb.WriteString(chars.vertical)
			}
		} else {
			for i, colIdx := range colIndices {
				if colIdx == -1 {
					sb.WriteString(fmt.Sprintf(" %*s ", colWidths[i], "…"))
				} else {
					val := f.columns[colIdx].Value(rowIdx)
					valStr := formatDisplayValue(val, cfg)
					sb.WriteString(fmt.Sprintf(" %*s ", colWidths[i], valStr))
				}
				sb.WriteString(chars.vertical)
			}
		}
		sb.WriteString("\n")
	}

	// Bottom border
	sb.WriteString(chars.bottomLeft)
	for i, w := range colWidths {
		if i > 0 {
			sb.WriteString(chars.bottomT)
		}
		sb.WriteString(strings.Repeat(chars.horizontal, w+2))
	}
	sb.WriteString(chars.bottomRight)

	return sb.String()
}

// filterPositive returns only positive indices (filters out -1 markers).
func filterPositive(indices []int) []int {
	result := make([]int, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 {
			result = append(result, idx)
		}
	}
	return result
}

// ArrayString formats a single array using the provided configuration.
func ArrayString(a Array, cfg DisplayConfig) string {
	if a.Len() == 0 {
		return fmt.Sprintf("Array (%s)\nlength: 0\n[]", a.DType())
	}

	chars, ok := tableStyles[cfg.TableStyle]
	if !ok {
		chars = tableStyles["rounded"]
	}

	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("Array (%s)\n", a.DType()))
	sb.WriteString(fmt.Sprintf("length: %d\n", a.Len()))

	// Determine which rows to show
	showAllRows := a.Len() <= cfg.MaxRows
	var rowIndices []int
	if showAllRows {
		rowIndices = make([]int, a.Len())
		for i := range rowIndices {
			rowIndices[i] = i
		}
	} else {
		headRows := cfg.MaxRows / 2
		tailRows := cfg.MaxRows - headRows
		rowIndices = make([]int, 0, cfg.MaxRows+1)
		for i := 0; i < headRows; i++ {
			rowIndices = append(rowIndices, i)
		}
		rowIndices = append(rowIndices, -1) // marker for "..."
		for i := a.Len() - tailRows; i < a.Len(); i++ {
			rowIndices = append(rowIndices, i)
		}
	}

	// Calculate column widths
	indexWidth := len(fmt.Sprintf("%d", a.Len()-1))
	if indexWidth < 3 {
		indexWidth = 3
	}

	valueWidth := cfg.MinColWidth
	for _, idx := range rowIndices {
		if idx >= 0 {
			valStr := formatDisplayValue(a.Value(idx), cfg)
			if len(valStr) > valueWidth {
				valueWidth = len(valStr)
			}
		}
	}
	if valueWidth > cfg.MaxColWidth {
		valueWidth = cfg.MaxColWidth
	}

	// Top border
	sb.WriteString(chars.topLeft)
	sb.WriteString(strings.Repeat(chars.horizontal, indexWidth+2))
	sb.WriteString(chars.topT)
	sb.WriteString(strings.Repeat(chars.horizontal, valueWidth+2))
	sb.WriteString(chars.topRight)
	sb.WriteString("\n")

	// Data rows
	for _, idx := range rowIndices {
		sb.WriteString(chars.vertical)
		if idx == -1 {
			sb.WriteString(fmt.Sprintf(" %*s ", indexWidth, "…"))
			sb.WriteString(chars.vertical)
			sb.WriteString(fmt.Sprintf(" %*s ", valueWidth, "…"))
		} else {
			sb.WriteString(fmt.Sprintf(" %*d ", indexWidth, idx))
			sb.WriteString(chars.vertical)
			valStr := formatDisplayValue(a.Value(idx), cfg)
			if len(valStr) > valueWidth {
				valStr = valStr[:valueWidth-3] + "..."
			}
			sb.WriteString(fmt.Sprintf(" %*s ", valueWidth, valStr))
		}
		sb.WriteString(chars.vertical)
		sb.WriteString("\n")
	}

	// Bottom border
	sb.WriteString(chars.bottomLeft)
	sb.WriteString(strings.Repeat(chars.horizontal, indexWidth+2))
	sb.WriteString(chars.bottomT)
	sb.WriteString(strings.Repeat(chars.horizontal, valueWidth+2))
	sb.WriteString(chars.bottomRight)

	return sb.String()
}
