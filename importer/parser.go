/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyWorkbook     = errors.New("workbook has no worksheets")
	ErrMissingColumns    = errors.New("row is missing required columns")
)

// Row is one data row of a tabular file. Line is the 1-based line (or
// spreadsheet row) it came from.
type Row struct {
	Line  int
	Cells []string
}

// Cell returns the trimmed text of column i (0-based), or "" when the row is
// shorter than that.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[i])
}

// Blank reports whether every cell is empty.
func (r Row) Blank() bool {
	for i := range r.Cells {
		if r.Cell(i) != "" {
			return false
		}
	}
	return true
}

// RowError ties a row-level problem to its line.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Parser turns an uploaded file into data rows. The first row of the file
// holds column headings and is not returned.
type Parser interface {
	Parse(r io.Reader) ([]Row, error)
}

// ParserFor picks a parser from the file extension.
func ParserFor(filename string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return XLSXParser{}, nil
	case ".csv":
		return CSVParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// XLSXParser reads the first worksheet of an Office Open XML workbook, or
// the worksheet named Sheet when set.
type XLSXParser struct {
	Sheet string
}

func (p XLSXParser) Parse(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := p.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyWorkbook
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return dataRows(rows), nil
}

// CSVParser reads comma separated values. Rows may have differing widths.
type CSVParser struct{}

func (CSVParser) Parse(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return dataRows(records), nil
}

func dataRows(records [][]string) []Row {
	if len(records) <= 1 {
		return []Row{}
	}
	rows := make([]Row, 0, len(records)-1)
	for i, cells := range records[1:] {
		rows = append(rows, Row{Line: i + 2, Cells: cells})
	}
	return rows
}
