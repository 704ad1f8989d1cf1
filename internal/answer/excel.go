// File: internal/answer/excel.go
package answer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// ErrNoSheet is returned for workbooks without any worksheet.
var ErrNoSheet = errors.New("workbook has no sheets")

// ParseExcel reads the first worksheet of an xlsx workbook. The first row is the header.
func ParseExcel(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}

	t := &Table{Columns: normalizeHeader(rows[0])}
	for _, row := range rows[1:] {
		if isBlankRecord(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ParseXLS reads the first worksheet of a legacy BIFF workbook. The first row is the header.
func ParseXLS(data []byte) (*Table, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if wb == nil {
		return nil, errors.New("open workbook: no workbook stream")
	}
	if wb.NumSheets() == 0 {
		return nil, ErrNoSheet
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrNoSheet
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		rows = append(rows, xlsRow(sheet, i))
	}
	for len(rows) > 0 && isBlankRecord(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}

	t := &Table{Columns: normalizeHeader(rows[0])}
	for _, row := range rows[1:] {
		if isBlankRecord(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// xlsRow returns the cells of row i with trailing blanks dropped. The reader panics on
// rows that hold no cells, which read as empty.
func xlsRow(sheet *xls.WorkSheet, i int) (cells []string) {
	defer func() {
		if recover() != nil {
			cells = nil
		}
	}()
	row := sheet.Row(i)
	if row == nil {
		return nil
	}
	for j := 0; j <= row.LastCol(); j++ {
		cells = append(cells, strings.TrimSpace(row.Col(j)))
	}
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}
