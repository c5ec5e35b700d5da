package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"arbiter/domain/block"
	"arbiter/internal"
)

// DataReader reads block corpora from XLSX or CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string // empty means the first sheet
	logger   *internal.Logger
}

// NewDataReader creates a reader; the file type follows the extension
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, logger: internal.DefaultLogger.With("DataReader")}
}

// WithSheet selects a worksheet by name (XLSX only)
func (r *DataReader) WithSheet(name string) *DataReader {
	r.sheet = name
	return r
}

// ReadBlocks reads and converts every data row into a block.
// Blocks are not validated here; the pipeline does that.
func (r *DataReader) ReadBlocks() ([]block.Block, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	return RowsToBlocks(data)
}

// ReadData reads the raw sheet
func (r *DataReader) ReadData() (*SheetData, error) {
	r.logger.Debug("reading %s file %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

func (r *DataReader) readExcelData() (*SheetData, error) {
	start := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	r.logger.Debug("sheet %s read in %v (%d rows)", sheet, time.Since(start), len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %q must have a header row and at least one block row", sheet)
	}
	return processRows(rows), nil
}

func (r *DataReader) readCSVData() (*SheetData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV file must have a header row and at least one block row")
	}
	return processRows(rows), nil
}

// processRows converts raw string rows into SheetData with lowercase headers
func processRows(rows [][]string) *SheetData {
	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(header))
	}

	data := &SheetData{Headers: headers}
	for i, row := range rows[1:] {
		rowData := make(RawRowData)
		empty := true
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
				if rowData[headers[j]] != "" {
					empty = false
				}
			}
		}
		if !empty {
			data.Rows = append(data.Rows, rowData)
			data.RowNumbers = append(data.RowNumbers, i+2)
		}
	}
	return data
}

// RowsToBlocks maps sheet rows onto blocks
func RowsToBlocks(data *SheetData) ([]block.Block, error) {
	present := make(map[string]bool, len(data.Headers))
	for _, h := range data.Headers {
		present[h] = true
	}
	for _, col := range requiredColumns {
		if !present[col] {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	blocks := make([]block.Block, 0, len(data.Rows))
	for i, row := range data.Rows {
		b := block.Block{
			ID:       row[ColumnID],
			Source:   row[ColumnSource],
			Tier:     block.Tier(row[ColumnTier]),
			Category: block.Category(row[ColumnCategory]),
			Text:     row[ColumnText],
			Modality: block.Modality(row[ColumnModality]),
			Scope:    splitList(row[ColumnScope]),
			Exports:  splitList(row[ColumnExports]),
			Imports:  splitList(row[ColumnImports]),
		}
		var err error
		if b.LineStart, err = parseLine(row[ColumnLineStart]); err != nil {
			return nil, fmt.Errorf("row %d: line_start: %w", data.rowNumber(i), err)
		}
		if b.LineEnd, err = parseLine(row[ColumnLineEnd]); err != nil {
			return nil, fmt.Errorf("row %d: line_end: %w", data.rowNumber(i), err)
		}
		if len(b.Scope) == 0 {
			b.Scope = []string{block.NoScope}
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// splitList splits "a; b, c" into tags
func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' })
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func parseLine(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
