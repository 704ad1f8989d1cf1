// File: internal/answer/pdf.go
package answer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNoPages is returned when a document parses but holds no pages.
var ErrNoPages = errors.New("pdf has no pages")

var (
	numberPattern    = regexp.MustCompile(`[-+]?(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?`)
	pdfStringPattern = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)
)

// PDFText returns the text of the requested page. page defaults to 1 and is clamped
// to at least 1; a page beyond the end yields every page joined by newlines. When the
// document cannot be parsed at all, the raw bytes decoded as text are returned, cut to limit.
func PDFText(data []byte, page *int, limit int) string {
	pages, err := readPages(data)
	if err != nil || len(pages) == 0 {
		return truncateRunes(strings.ToValidUTF8(string(data), ""), limit)
	}

	n := 1
	if page != nil && *page > 1 {
		n = *page
	}
	if n > len(pages) {
		return strings.Join(pages, "\n")
	}
	return pages[n-1]
}

// ExtractNumbers finds every number in text. Thousands separators are accepted.
func ExtractNumbers(text string) []float64 {
	var out []float64
	for _, m := range numberPattern.FindAllString(text, -1) {
		if v, ok := toNumber(m); ok {
			out = append(out, v)
		}
	}
	return out
}

// readPages extracts plain text per page, falling back to a content stream scan
// when the primary reader rejects the document.
func readPages(data []byte) ([]string, error) {
	pages, err := readPagesPlain(data)
	if err == nil {
		return pages, nil
	}
	fallback, ferr := readPagesContent(data)
	if ferr != nil {
		return nil, fmt.Errorf("read pdf: %w (content stream scan: %v)", err, ferr)
	}
	return fallback, nil
}

func readPagesPlain(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	total := r.NumPage()
	if total == 0 {
		return nil, ErrNoPages
	}
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func readPagesContent(data []byte) ([]string, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, err
	}
	if ctx.PageCount == 0 {
		return nil, ErrNoPages
	}
	pages := make([]string, 0, ctx.PageCount)
	for i := 1; i <= ctx.PageCount; i++ {
		r, err := pdfcpu.ExtractPageContent(ctx, i)
		if err != nil || r == nil {
			pages = append(pages, "")
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, streamText(content))
	}
	return pages, nil
}

// streamText collects the string operands of text showing operators (Tj, TJ, ').
// Positioning operators become whitespace.
func streamText(content []byte) string {
	var b strings.Builder
	for _, line := range bytes.Split(content, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringPattern.FindAllSubmatch(line, -1) {
				b.WriteString(unescapePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			b.WriteByte('\n')
			for _, m := range pdfStringPattern.FindAllSubmatch(line, -1) {
				b.WriteString(unescapePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			b.WriteByte(' ')
		case bytes.Equal(line, []byte("T*")), bytes.Equal(line, []byte("ET")):
			b.WriteByte('\n')
		}
	}
	return strings.TrimSpace(b.String())
}

func unescapePDFString(raw []byte) string {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 >= len(raw) {
			b.WriteByte(c)
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				v := 0
				for j := 0; j < 3 && i < len(raw) && raw[i] >= '0' && raw[i] <= '7'; j++ {
					v = v*8 + int(raw[i]-'0')
					i++
				}
				i--
				b.WriteByte(byte(v))
			} else {
				b.WriteByte(raw[i])
			}
		}
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
