// File: internal/action/resolver.go
package action

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/xkilldash9x/quizwalk/api/schemas"
	"go.uber.org/zap"
)

// Oracle gives a structured opinion about a page the heuristics could not classify.
// A nil Override with a nil error means the oracle had no opinion.
type Oracle interface {
	Resolve(ctx context.Context, pageText, instructionText string) (*Override, error)
}

var (
	countRule     = regexp.MustCompile(`\b(?:count|how many)\b.*\b(?:rows|entries|lines)\b`)
	aggregateRule = regexp.MustCompile(`(sum|total|mean|average|max|min|median)\s+of\s+([a-z0-9_ \-]+)`)
	cutoffRule    = regexp.MustCompile(`(?:greater than|>|\bmore than\b)\s*([0-9,.]+)`)
	chartRule     = regexp.MustCompile(`\b(?:chart|plot|graph)\b`)
	pageRule      = regexp.MustCompile(`page\s+(\d+)`)
)

// Heuristic classifies text with the ordered rules. The first of count, aggregate and
// chart that matches decides Kind; cutoff and page are always extracted.
func Heuristic(text string) Spec {
	txt := strings.ToLower(text)
	var spec Spec

	switch {
	case countRule.MatchString(txt):
		spec.Kind = Count
	case aggregateRule.MatchString(txt):
		m := aggregateRule.FindStringSubmatch(txt)
		_, verb, _ := ParseAction(m[1])
		spec.Kind = Aggregate
		spec.Verb = verb
		spec.Column = strings.ReplaceAll(strings.TrimSpace(m[2]), " ", "_")
	case chartRule.MatchString(txt):
		spec.Kind = Chart
	default:
		spec.Kind = ReturnText
	}

	if m := cutoffRule.FindStringSubmatch(txt); m != nil {
		if v, err := ParseNumber(m[1]); err == nil {
			spec.Cutoff = &v
		}
	}
	if m := pageRule.FindStringSubmatch(txt); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			spec.Page = &n
		}
	}
	return spec
}

// ParseNumber parses a decimal number that may carry thousands separators or a
// trailing full stop.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	s = strings.TrimRight(s, ".")
	return strconv.ParseFloat(s, 64)
}

// Resolver combines the heuristics with an optional oracle.
type Resolver struct {
	oracle Oracle
	logger *zap.Logger
}

// NewResolver creates a resolver. oracle may be nil, in which case only the heuristics run.
func NewResolver(oracle Oracle, logger *zap.Logger) *Resolver {
	return &Resolver{oracle: oracle, logger: logger.Named("action")}
}

// Resolve classifies a page. The oracle is consulted only when the heuristics fall
// through to ReturnText, and its failure never changes the heuristic result.
func (r *Resolver) Resolve(ctx context.Context, snap schemas.PageSnapshot) Spec {
	spec := Heuristic(snap.Combined())
	if spec.Kind != ReturnText || r.oracle == nil {
		return spec
	}

	override, err := r.oracle.Resolve(ctx, snap.BodyText, snap.PreformattedText)
	if err != nil {
		r.logger.Warn("Oracle failed; keeping heuristic spec.", zap.Error(err), zap.Stringer("spec", spec))
		return spec
	}
	if override == nil {
		r.logger.Debug("Oracle had no opinion.")
		return spec
	}

	merged := spec.Merge(override)
	r.logger.Debug("Merged oracle opinion.", zap.Stringer("heuristic", spec), zap.Stringer("merged", merged))
	return merged
}
