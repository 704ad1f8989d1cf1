// File: internal/action/spec.go
// Package action classifies what a challenge page is asking for.
package action

import (
	"fmt"
	"strings"
)

// Kind is the closed set of computations a page can ask for.
type Kind int

const (
	ReturnText Kind = iota
	Count
	Aggregate
	Chart
	PdfRead
)

func (k Kind) String() string {
	switch k {
	case Count:
		return "count"
	case Aggregate:
		return "aggregate"
	case Chart:
		return "chart"
	case PdfRead:
		return "pdf_read"
	default:
		return "return_text"
	}
}

// Verb is the statistic computed by an Aggregate spec.
type Verb string

const (
	Sum    Verb = "sum"
	Mean   Verb = "mean"
	Max    Verb = "max"
	Min    Verb = "min"
	Median Verb = "median"
)

// Spec is the resolved intent of a page. Cutoff and Page are independent of Kind.
type Spec struct {
	Kind Kind
	// Verb is only meaningful when Kind is Aggregate.
	Verb   Verb
	Column string
	Cutoff *float64
	Page   *int
}

// Action renders the spec as one of count, sum, mean, max, min, median, chart,
// return_text or pdf_read.
func (s Spec) Action() string {
	if s.Kind == Aggregate {
		return string(s.Verb)
	}
	return s.Kind.String()
}

// IsAggregate reports whether the spec reduces a series of numbers to one value.
func (s Spec) IsAggregate() bool {
	return s.Kind == Aggregate || s.Kind == Count
}

func (s Spec) String() string {
	var b strings.Builder
	b.WriteString(s.Action())
	if s.Column != "" {
		fmt.Fprintf(&b, " column=%s", s.Column)
	}
	if s.Cutoff != nil {
		fmt.Fprintf(&b, " cutoff=%g", *s.Cutoff)
	}
	if s.Page != nil {
		fmt.Fprintf(&b, " page=%d", *s.Page)
	}
	return b.String()
}

// ParseAction maps an action name onto Kind and Verb. Synonyms used in page
// text (total, average) are accepted.
func ParseAction(name string) (Kind, Verb, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "count":
		return Count, "", true
	case "sum", "total":
		return Aggregate, Sum, true
	case "mean", "average", "avg":
		return Aggregate, Mean, true
	case "max", "maximum":
		return Aggregate, Max, true
	case "min", "minimum":
		return Aggregate, Min, true
	case "median":
		return Aggregate, Median, true
	case "chart", "plot", "graph":
		return Chart, "", true
	case "return_text", "text":
		return ReturnText, "", true
	case "pdf_read", "pdf":
		return PdfRead, "", true
	default:
		return ReturnText, "", false
	}
}

// Override is an oracle opinion. Nil fields mean the oracle had no opinion.
type Override struct {
	Action *string
	Column *string
	Cutoff *float64
	Page   *int
}

// Merge overwrites s field by field with the values present in o.
// An action name that ParseAction does not know leaves Kind and Verb untouched.
func (s Spec) Merge(o *Override) Spec {
	if o == nil {
		return s
	}
	if o.Action != nil {
		if kind, verb, ok := ParseAction(*o.Action); ok {
			s.Kind, s.Verb = kind, verb
		}
	}
	if o.Column != nil {
		s.Column = *o.Column
	}
	if o.Cutoff != nil {
		c := *o.Cutoff
		s.Cutoff = &c
	}
	if o.Page != nil {
		p := *o.Page
		s.Page = &p
	}
	return s
}
