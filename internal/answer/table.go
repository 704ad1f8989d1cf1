// File: internal/answer/table.go
package answer

import (
	"math"
	"strconv"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/quizwalk/internal/action"
)

// Table is a header row plus string cells. Rows may be ragged.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Empty reports whether the table has no data rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

func (t *Table) cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}

// Values returns the numeric cells of a column; non-numeric cells are dropped.
func (t *Table) Values(col int) []float64 {
	out := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if v, ok := toNumber(t.cell(row, col)); ok {
			out = append(out, v)
		}
	}
	return out
}

// numericColumns lists the columns whose non-blank cells all parse as numbers.
// A column with only blank cells is not numeric.
func (t *Table) numericColumns() []int {
	var cols []int
	for i := range t.Columns {
		seen := false
		numeric := true
		for _, row := range t.Rows {
			c := strings.TrimSpace(t.cell(row, i))
			if c == "" {
				continue
			}
			seen = true
			if _, ok := toNumber(c); !ok {
				numeric = false
				break
			}
		}
		if seen && numeric {
			cols = append(cols, i)
		}
	}
	return cols
}

// SelectColumn resolves the column an aggregate should read. The order is: exact
// name, normalized name, the longest leading run of the requested words that names
// a column, the sole numeric column, then the fallback names.
func (t *Table) SelectColumn(requested string, fallbacks []string) (int, bool) {
	if requested != "" {
		if i, ok := t.lookup(requested); ok {
			return i, true
		}
		words := strings.FieldsFunc(normalizeName(requested, true), func(r rune) bool { return r == '_' })
		for n := len(words) - 1; n > 0; n-- {
			if i, ok := t.lookup(strings.Join(words[:n], "_")); ok {
				return i, true
			}
		}
	}
	if numeric := t.numericColumns(); len(numeric) == 1 {
		return numeric[0], true
	}
	for _, name := range fallbacks {
		if i, ok := t.lookup(name); ok {
			return i, true
		}
	}
	return -1, false
}

func (t *Table) lookup(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	want := normalizeName(name, false)
	for i, c := range t.Columns {
		if normalizeName(c, false) == want {
			return i, true
		}
	}
	return -1, false
}

// normalizeName lower-cases s and drops separators. With keepWords the separators
// become single underscores instead.
func normalizeName(s string, keepWords bool) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case '_', ' ', '-':
			if keepWords {
				b.WriteRune('_')
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Records encodes the first n rows as a JSON array of objects keyed by column name,
// preserving column order. Numeric cells become numbers and blank cells null.
func (t *Table) Records(n int) string {
	stream := json.ConfigDefault.BorrowStream(nil)
	defer json.ConfigDefault.ReturnStream(stream)

	rows := t.Rows
	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}
	stream.WriteArrayStart()
	for ri, row := range rows {
		if ri > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectStart()
		for ci, col := range t.Columns {
			if ci > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(col)
			c := strings.TrimSpace(t.cell(row, ci))
			if c == "" {
				stream.WriteNil()
			} else if v, ok := toNumber(c); ok {
				stream.WriteFloat64(v)
			} else {
				stream.WriteString(c)
			}
		}
		stream.WriteObjectEnd()
	}
	stream.WriteArrayEnd()
	return string(stream.Buffer())
}

// toNumber coerces a cell, accepting thousands separators. NaN and infinities are rejected.
func toNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := action.ParseNumber(s)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// normalizeHeader fills blank or duplicate header names the way spreadsheet readers do.
func normalizeHeader(cols []string) []string {
	out := make([]string, len(cols))
	seen := make(map[string]int, len(cols))
	for i, c := range cols {
		c = strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
		if c == "" {
			c = "Unnamed: " + strconv.Itoa(i)
		}
		if n := seen[c]; n > 0 {
			seen[c] = n + 1
			c = c + "." + strconv.Itoa(n)
		} else {
			seen[c] = 1
		}
		out[i] = c
	}
	return out
}
