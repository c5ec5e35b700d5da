package excel

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"arbiter/domain/block"
	"arbiter/domain/tensor"
)

// Sheet names used by the tensor workbook
const (
	SheetSummary = "Summary"
	SheetEntries = "Entries"
	SheetBlocks  = "Blocks"
)

var entryColumns = []string{"block_a", "block_b", "rule", "severity", "score", "weighted_score", "explanation"}

// WriteTensor writes a workbook with a summary sheet, the retained entries
// ordered by weighted score, and optionally the block corpus
func WriteTensor(w io.Writer, t *tensor.InterferenceTensor, blocks []block.Block) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	if err := writeSummary(f, t); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	if err := writeEntries(f, t); err != nil {
		return fmt.Errorf("entries sheet: %w", err)
	}
	if len(blocks) > 0 {
		if err := writeBlocks(f, blocks); err != nil {
			return fmt.Errorf("blocks sheet: %w", err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func writeSummary(f *excelize.File, t *tensor.InterferenceTensor) error {
	shape := t.Shape()
	stats := t.Stats()
	rows := [][]interface{}{
		{"blocks", shape[0]},
		{"rules", shape[2]},
		{"entries", t.Len()},
		{"summary_score", t.SummaryScore()},
		{"density", t.Density()},
		{"max", stats.Max},
		{"mean", stats.Mean},
		{"median", stats.Median},
		{"p90", stats.P90},
		{"weighted_mean", stats.WeightedMean},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeEntries(f *excelize.File, t *tensor.InterferenceTensor) error {
	if _, err := f.NewSheet(SheetEntries); err != nil {
		return err
	}
	if err := setHeader(f, SheetEntries, entryColumns); err != nil {
		return err
	}

	weights := tensor.DefaultSeverityWeights()
	for i, e := range t.TopN(t.Len()) {
		row := []interface{}{e.BlockA, e.BlockB, e.Rule, string(e.Severity), e.Score, weights.Weighted(e), e.Explanation}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetEntries, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeBlocks(f *excelize.File, blocks []block.Block) error {
	if _, err := f.NewSheet(SheetBlocks); err != nil {
		return err
	}
	if err := setHeader(f, SheetBlocks, BlockColumns); err != nil {
		return err
	}

	for i, b := range blocks {
		row := []interface{}{
			b.ID, b.Source, string(b.Tier), string(b.Category), string(b.Modality),
			strings.Join(b.Scope, "; "), strings.Join(b.Exports, "; "), strings.Join(b.Imports, "; "),
			lineCell(b.LineStart), lineCell(b.LineEnd), b.Text,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetBlocks, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func setHeader(f *excelize.File, sheet string, columns []string) error {
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	return f.SetSheetRow(sheet, "A1", &header)
}

func lineCell(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
