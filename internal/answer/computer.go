// File: internal/answer/computer.go
// Package answer turns a resolved action and the artifacts of a page into the value
// that gets submitted.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/quizwalk/api/schemas"
	"github.com/xkilldash9x/quizwalk/internal/action"
	"github.com/xkilldash9x/quizwalk/internal/artifact"
	"github.com/xkilldash9x/quizwalk/internal/config"
)

// Input is everything gathered for one page.
type Input struct {
	Spec action.Spec
	// PageText is the rendered body text of the page.
	PageText   string
	SecretCode string
	Transcript string
	File       *artifact.File
}

// Computer applies the answer strategies in priority order.
type Computer struct {
	cfg     config.AnswerConfig
	charter Charter
	logger  *zap.Logger
}

// NewComputer creates a computer. Zero limits in cfg take their default values.
func NewComputer(cfg config.AnswerConfig, logger *zap.Logger) *Computer {
	def := config.NewDefaultConfig().Answer()
	fill := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	fill(&cfg.TextSnippet, def.TextSnippet)
	fill(&cfg.ErrorSnippet, def.ErrorSnippet)
	fill(&cfg.PDFTextLimit, def.PDFTextLimit)
	fill(&cfg.JSONTextLimit, def.JSONTextLimit)
	fill(&cfg.TablePreviewRows, def.TablePreviewRows)
	fill(&cfg.ChartWidth, def.ChartWidth)
	fill(&cfg.ChartHeight, def.ChartHeight)
	if cfg.FallbackColumns == nil {
		cfg.FallbackColumns = def.FallbackColumns
	}

	return &Computer{
		cfg:     cfg,
		charter: Charter{Width: cfg.ChartWidth, Height: cfg.ChartHeight, PreviewRows: cfg.TablePreviewRows},
		logger:  logger.Named("answer"),
	}
}

// Compute never fails: errors and panics in a strategy yield the leading text of the page.
func (c *Computer) Compute(ctx context.Context, in Input) (ans schemas.Answer) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Answer computation panicked.", zap.Any("panic", r), zap.String("action", in.Spec.String()), zap.Stack("stack"))
			ans = c.fallback(in.PageText)
		}
	}()

	ans, err := c.compute(ctx, in)
	if err != nil {
		c.logger.Warn("Answer computation failed; submitting page text.", zap.Error(err), zap.String("action", in.Spec.String()))
		return c.fallback(in.PageText)
	}
	return ans
}

func (c *Computer) compute(ctx context.Context, in Input) (schemas.Answer, error) {
	if in.SecretCode != "" {
		return schemas.TextAnswer(in.SecretCode), nil
	}
	if t := strings.TrimSpace(in.Transcript); t != "" {
		return schemas.TextAnswer(t), nil
	}
	if err := ctx.Err(); err != nil {
		return schemas.Answer{}, err
	}
	if in.File != nil && in.File.Ext != "" {
		return c.fromFile(in.File, in.Spec)
	}
	return c.fromPageText(in.PageText, in.Spec)
}

func (c *Computer) fromFile(f *artifact.File, spec action.Spec) (schemas.Answer, error) {
	switch f.Ext {
	case "csv":
		t, err := ParseCSV(f.Data)
		if err != nil {
			return schemas.Answer{}, err
		}
		return c.FromTable(t, spec)
	case "xlsx":
		t, err := ParseExcel(f.Data)
		if err != nil {
			return schemas.Answer{}, err
		}
		return c.FromTable(t, spec)
	case "xls":
		t, err := ParseXLS(f.Data)
		if err != nil {
			return schemas.Answer{}, err
		}
		return c.FromTable(t, spec)
	case "pdf":
		text := PDFText(f.Data, spec.Page, c.cfg.PDFTextLimit)
		if spec.IsAggregate() {
			return Aggregate(ExtractNumbers(text), spec.Action(), spec.Cutoff), nil
		}
		return schemas.TextAnswer(truncateRunes(strings.TrimSpace(text), c.cfg.PDFTextLimit)), nil
	case "json":
		return JSONDocument(f.Data, c.cfg.JSONTextLimit), nil
	default:
		return FileDataURI(f.Data, f.ContentType, f.Ext), nil
	}
}

// FromTable applies the tabular procedure. Aggregates read the selected column; a chart
// draws the table; anything else previews the leading rows as JSON records.
func (c *Computer) FromTable(t *Table, spec action.Spec) (schemas.Answer, error) {
	if t.Empty() {
		return schemas.TextAnswer("empty"), nil
	}

	switch {
	case spec.IsAggregate():
		col, ok := t.SelectColumn(spec.Column, c.cfg.FallbackColumns)
		if !ok {
			if spec.Kind == action.Count && spec.Column == "" && spec.Cutoff == nil {
				return schemas.NumberAnswer(float64(len(t.Rows))), nil
			}
			return schemas.TextAnswer("no-column"), nil
		}
		return Aggregate(t.Values(col), spec.Action(), spec.Cutoff), nil
	case spec.Kind == action.Chart:
		return c.chart(t)
	default:
		return schemas.TextAnswer(t.Records(c.cfg.TablePreviewRows)), nil
	}
}

func (c *Computer) fromPageText(text string, spec action.Spec) (schemas.Answer, error) {
	switch spec.Kind {
	case action.Count:
		n := 0
		for _, line := range strings.Split(text, "\n") {
			if strings.TrimSpace(line) != "" {
				n++
			}
		}
		return schemas.NumberAnswer(float64(n)), nil
	case action.Chart:
		t, err := ParseHTMLTable(text)
		if err != nil {
			if !errors.Is(err, ErrNoTable) {
				c.logger.Debug("Could not parse a table from the page.", zap.Error(err))
			}
			return schemas.TextAnswer("no-table"), nil
		}
		return c.chart(t)
	default:
		return schemas.TextAnswer(truncateRunes(strings.TrimSpace(text), c.cfg.TextSnippet)), nil
	}
}

// chart falls back to a text snapshot when the line chart cannot be rendered.
func (c *Computer) chart(t *Table) (schemas.Answer, error) {
	uri, err := c.charter.TableChart(t)
	if err == nil {
		return schemas.DataURIAnswer(uri), nil
	}
	c.logger.Debug("Line chart failed; drawing a text snapshot.", zap.Error(err))
	uri, serr := c.charter.snapshotURI(t.textLines(c.cfg.TablePreviewRows))
	if serr != nil {
		return schemas.Answer{}, fmt.Errorf("chart: %w", errors.Join(err, serr))
	}
	return schemas.DataURIAnswer(uri), nil
}

func (c *Computer) fallback(pageText string) schemas.Answer {
	return schemas.TextAnswer(truncateRunes(strings.TrimSpace(pageText), c.cfg.ErrorSnippet))
}
