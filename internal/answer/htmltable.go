// File: internal/answer/htmltable.go
package answer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoTable is returned when the markup holds no <table>.
var ErrNoTable = errors.New("no table found")

// ParseHTMLTable reads the first <table> in markup. Its first row is the header.
func ParseHTMLTable(markup string) (*Table, error) {
	if !strings.Contains(strings.ToLower(markup), "<table") {
		return nil, ErrNoTable
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrNoTable
	}

	var header []string
	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		// Rows of nested tables belong to their own table.
		if tr.Closest("table").Get(0) != table.Get(0) {
			return
		}
		var cells []string
		tr.Children().Filter("th,td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.Join(strings.Fields(cell.Text()), " "))
		})
		if len(cells) == 0 {
			return
		}
		if header == nil {
			header = cells
			return
		}
		rows = append(rows, cells)
	})

	if header == nil {
		return &Table{}, nil
	}
	return &Table{Columns: normalizeHeader(header), Rows: rows}, nil
}
