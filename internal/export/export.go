// Package export lays out line collections as CSV or XLSX columns, or as
// copyable text.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
)

// Sheet names used for workbook exports.
const (
	SheetDomains = "Domains"
	SheetLines   = "Unique Lines"
)

// WriteColumnsCSV writes one column per header; shorter columns are padded
// with empty cells.
func WriteColumnsCSV(w io.Writer, headers []string, columns [][]string) error {
	if len(headers) != len(columns) {
		return fmt.Errorf("headers (%d) and columns (%d) differ in length", len(headers), len(columns))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < maxLen(columns); i++ {
		row := lo.Map(columns, func(col []string, _ int) string {
			return cell(col, i)
		})
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile creates path (and its parent directory) and writes CSV into it.
func WriteFile(path string, headers []string, columns [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := WriteColumnsCSV(f, headers, columns); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteColumnsXLSX writes a single-sheet workbook with headers in the first
// row and one column per header. Ragged columns leave trailing cells empty.
func WriteColumnsXLSX(w io.Writer, sheet string, headers []string, columns [][]string) error {
	f, err := columnsWorkbook(sheet, headers, columns)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteXLSXFile creates path (and its parent directory) and writes a workbook into it.
func WriteXLSXFile(path, sheet string, headers []string, columns [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	f, err := columnsWorkbook(sheet, headers, columns)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func columnsWorkbook(sheet string, headers []string, columns [][]string) (*excelize.File, error) {
	if len(headers) != len(columns) {
		return nil, fmt.Errorf("headers (%d) and columns (%d) differ in length", len(headers), len(columns))
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	for c, header := range headers {
		if err := setCell(f, sheet, c+1, 1, header); err != nil {
			_ = f.Close()
			return nil, err
		}
		for r, v := range columns[c] {
			if err := setCell(f, sheet, c+1, r+2, v); err != nil {
				_ = f.Close()
				return nil, err
			}
		}
	}
	return f, nil
}

func setCell(f *excelize.File, sheet string, col, row int, value string) error {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellStr(sheet, name, value); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	return nil
}

// FlattenRows reads columns row by row, skipping empty cells, one value per line.
func FlattenRows(columns [][]string) string {
	var b strings.Builder
	for i := 0; i < maxLen(columns); i++ {
		for _, col := range columns {
			if v := cell(col, i); v != "" {
				b.WriteString(v)
				b.WriteByte('\n')
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func maxLen(columns [][]string) int {
	if len(columns) == 0 {
		return 0
	}
	return lo.Max(lo.Map(columns, func(col []string, _ int) int { return len(col) }))
}

func cell(col []string, i int) string {
	if i < len(col) {
		return col[i]
	}
	return ""
}
