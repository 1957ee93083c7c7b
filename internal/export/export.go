// Package export writes harvested records to a spreadsheet and reads them back.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"cnkicrawl/internal/paper"
)

// ErrNoRecords is returned when there is nothing to export. No file is written.
var ErrNoRecords = errors.New("no records to export")

const (
	sheetName = "Papers"
	colWidth  = 32
)

// utf8BOM lets spreadsheet applications detect the encoding of Chinese CSV text.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Write exports records to path. The format follows the extension: .xlsx
// or .csv. Parent directories are created as needed.
func Write(path string, records []paper.Record) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".csv" {
		return fmt.Errorf("unsupported export format %q (use .xlsx or .csv)", ext)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if ext == ".csv" {
		return writeCSV(path, records)
	}
	return writeXLSX(path, records)
}

func writeXLSX(path string, records []paper.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := setRow(f, 1, paper.Columns); err != nil {
		return err
	}
	for i, r := range records {
		if err := setRow(f, i+2, r.Values()); err != nil {
			return err
		}
	}

	for i := 1; i <= len(paper.Columns); i++ {
		col, _ := excelize.ColumnNumberToName(i)
		_ = f.SetColWidth(sheetName, col, col, colWidth)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []string) error {
	for c, v := range values {
		cell, err := excelize.CoordinatesToCellName(c+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheetName, cell, v); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}

func writeCSV(path string, records []paper.Record) error {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	_ = w.Write(paper.Columns)
	for _, r := range records {
		if err := w.Write(r.Values()); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// Read loads records from a file produced by Write.
func Read(path string) ([]paper.Record, error) {
	var rows [][]string
	var err error
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		rows, err = readCSV(path)
	} else {
		rows, err = readXLSX(path)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}
	if len(rows[0]) == 0 || rows[0][0] != paper.Columns[0] {
		return nil, fmt.Errorf("%s: unexpected header %v", path, rows[0])
	}

	records := make([]paper.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, paper.FromValues(row))
	}
	return records, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return rows, nil
}

// FileName builds the conventional output path for an author search.
func FileName(dir, author, institution string) string {
	name := sanitize(author)
	if institution != "" {
		name += "_" + sanitize(institution)
	}
	return filepath.Join(dir, name+"_papers.xlsx")
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
}
