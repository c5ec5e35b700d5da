package excel

// RawRowData represents a row of raw spreadsheet data keyed by lowercase header
type RawRowData map[string]string

// SheetData represents a whole sheet
type SheetData struct {
	Headers    []string     // Column headers
	Rows       []RawRowData // Data rows
	RowNumbers []int        // 1-based sheet row of each entry in Rows
}

// rowNumber returns the sheet row of Rows[i], assuming no skipped rows when unknown
func (d *SheetData) rowNumber(i int) int {
	if i < len(d.RowNumbers) {
		return d.RowNumbers[i]
	}
	return i + 2
}

// Block sheet columns
const (
	ColumnID        = "id"
	ColumnSource    = "source"
	ColumnTier      = "tier"
	ColumnCategory  = "category"
	ColumnText      = "text"
	ColumnModality  = "modality"
	ColumnScope     = "scope"
	ColumnExports   = "exports"
	ColumnImports   = "imports"
	ColumnLineStart = "line_start"
	ColumnLineEnd   = "line_end"
)

// BlockColumns lists the block sheet header in export order
var BlockColumns = []string{
	ColumnID, ColumnSource, ColumnTier, ColumnCategory, ColumnModality,
	ColumnScope, ColumnExports, ColumnImports, ColumnLineStart, ColumnLineEnd, ColumnText,
}

// requiredColumns must be present in every imported block sheet
var requiredColumns = []string{ColumnID, ColumnTier, ColumnCategory, ColumnText, ColumnModality}
