// File: internal/answer/chart.go
package answer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	snapshotMargin     = 10
	snapshotLineHeight = 15
)

// Charter renders tables as PNG images.
type Charter struct {
	Width, Height int
	PreviewRows   int
}

// TableChart draws the first numeric column against the row index. A table without a
// numeric column is drawn as a plain text snapshot of its first rows.
func (c Charter) TableChart(t *Table) (string, error) {
	numeric := t.numericColumns()
	if len(numeric) == 0 {
		return c.snapshotURI(t.textLines(c.PreviewRows))
	}
	col := numeric[0]
	values := t.Values(col)
	if len(values) < 2 {
		return c.snapshotURI(t.textLines(c.PreviewRows))
	}
	return c.lineChart(t.Columns[col], values)
}

func (c Charter) lineChart(title string, ys []float64) (string, error) {
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}

	graph := chart.Chart{
		Title:  title,
		Width:  c.Width,
		Height: c.Height,
		Series: []chart.Series{
			chart.ContinuousSeries{Name: title, XValues: xs, YValues: ys},
		},
	}
	if lo, hi := minMax(ys); lo == hi {
		graph.YAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return "", fmt.Errorf("render chart: %w", err)
	}
	return DataURI("image/png", buf.Bytes()), nil
}

// snapshotURI draws monospaced lines of text on a white canvas.
func (c Charter) snapshotURI(lines []string) (string, error) {
	face := basicfont.Face7x13
	widest := 0
	for _, l := range lines {
		if w := font.MeasureString(face, l).Ceil(); w > widest {
			widest = w
		}
	}
	width := max(c.Width, widest+2*snapshotMargin)
	height := max(c.Height, len(lines)*snapshotLineHeight+2*snapshotMargin)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	d := &font.Drawer{Dst: img, Src: image.NewUniform(color.Black), Face: face}
	for i, l := range lines {
		d.Dot = fixed.P(snapshotMargin, snapshotMargin+(i+1)*snapshotLineHeight-3)
		d.DrawString(l)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return DataURI("image/png", buf.Bytes()), nil
}

// textLines lays out the header and the first n rows as tab-free text.
func (t *Table) textLines(n int) []string {
	rows := t.Rows
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = len(c)
	}
	for _, row := range rows {
		for i := range t.Columns {
			if l := len(t.cell(row, i)); l > widths[i] {
				widths[i] = l
			}
		}
	}

	format := func(cells func(i int) string) string {
		parts := make([]string, len(t.Columns))
		for i := range t.Columns {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cells(i))
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	lines := []string{format(func(i int) string { return t.Columns[i] })}
	for _, row := range rows {
		lines = append(lines, format(func(i int) string { return t.cell(row, i) }))
	}
	return lines
}

func minMax(vs []float64) (lo, hi float64) {
	lo, hi = vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}
