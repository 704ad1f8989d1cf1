// File: internal/action/resolver_test.go
package action

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/quizwalk/api/schemas"
	"go.uber.org/zap/zaptest"
)

type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) Resolve(ctx context.Context, pageText, instructionText string) (*Override, error) {
	args := m.Called(ctx, pageText, instructionText)
	o, _ := args.Get(0).(*Override)
	return o, args.Error(1)
}

func strPtr(s string) *string { return &s }

func TestHeuristic(t *testing.T) {
	t.Run("count", func(t *testing.T) {
		spec := Heuristic("How many rows are in the file?")
		assert.Equal(t, Count, spec.Kind)
		assert.Equal(t, "count", spec.Action())
	})

	t.Run("count requires one line", func(t *testing.T) {
		spec := Heuristic("count\nthe rows")
		assert.Equal(t, ReturnText, spec.Kind)
	})

	t.Run("aggregate with column", func(t *testing.T) {
		spec := Heuristic("What is the Total of Ticket Sales")
		assert.Equal(t, Aggregate, spec.Kind)
		assert.Equal(t, Sum, spec.Verb)
		assert.Equal(t, "ticket_sales", spec.Column)
		assert.Equal(t, "sum", spec.Action())
	})

	t.Run("verb synonyms", func(t *testing.T) {
		assert.Equal(t, Mean, Heuristic("average of price").Verb)
		assert.Equal(t, Median, Heuristic("median of x").Verb)
		assert.Equal(t, Min, Heuristic("min of x").Verb)
		assert.Equal(t, Max, Heuristic("max of x").Verb)
	})

	t.Run("cutoff is extracted alongside an aggregate", func(t *testing.T) {
		spec := Heuristic("sum of value\nonly rows greater than 1,500")
		assert.Equal(t, Aggregate, spec.Kind)
		require.NotNil(t, spec.Cutoff)
		assert.Equal(t, 1500.0, *spec.Cutoff)
	})

	t.Run("cutoff with symbol and trailing stop", func(t *testing.T) {
		spec := Heuristic("Keep values > 15.")
		require.NotNil(t, spec.Cutoff)
		assert.Equal(t, 15.0, *spec.Cutoff)
	})

	t.Run("count wins over chart", func(t *testing.T) {
		spec := Heuristic("count the rows and draw a chart")
		assert.Equal(t, Count, spec.Kind)
	})

	t.Run("chart", func(t *testing.T) {
		spec := Heuristic("Plot the series below")
		assert.Equal(t, Chart, spec.Kind)
	})

	t.Run("page is independent", func(t *testing.T) {
		spec := Heuristic("Read page 3 of the report and return the text")
		assert.Equal(t, ReturnText, spec.Kind)
		require.NotNil(t, spec.Page)
		assert.Equal(t, 3, *spec.Page)
	})

	t.Run("default", func(t *testing.T) {
		spec := Heuristic("Hello there")
		assert.Equal(t, ReturnText, spec.Kind)
		assert.Nil(t, spec.Cutoff)
		assert.Nil(t, spec.Page)
	})
}

func TestSpecMerge(t *testing.T) {
	cutoff := 10.0
	base := Spec{Kind: ReturnText, Column: "a", Cutoff: &cutoff}

	page := 2
	merged := base.Merge(&Override{Action: strPtr("median"), Page: &page})
	assert.Equal(t, Aggregate, merged.Kind)
	assert.Equal(t, Median, merged.Verb)
	assert.Equal(t, "a", merged.Column, "heuristic field survives where oracle is silent")
	assert.Equal(t, 10.0, *merged.Cutoff)
	assert.Equal(t, 2, *merged.Page)

	unknown := base.Merge(&Override{Action: strPtr("summon"), Column: strPtr("b")})
	assert.Equal(t, ReturnText, unknown.Kind)
	assert.Equal(t, "b", unknown.Column)

	assert.Equal(t, base, base.Merge(nil))
}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("oracle not consulted when heuristics decide", func(t *testing.T) {
		oracle := new(mockOracle)
		r := NewResolver(oracle, zaptest.NewLogger(t))

		spec := r.Resolve(ctx, schemas.PageSnapshot{BodyText: "sum of x"})
		assert.Equal(t, Aggregate, spec.Kind)
		oracle.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("oracle opinion merged on return text", func(t *testing.T) {
		oracle := new(mockOracle)
		oracle.On("Resolve", mock.Anything, "what should we do", "pre block").
			Return(&Override{Action: strPtr("count")}, nil).Once()
		r := NewResolver(oracle, zaptest.NewLogger(t))

		spec := r.Resolve(ctx, schemas.PageSnapshot{BodyText: "what should we do", PreformattedText: "pre block"})
		assert.Equal(t, Count, spec.Kind)
		oracle.AssertExpectations(t)
	})

	t.Run("oracle failure keeps heuristic", func(t *testing.T) {
		oracle := new(mockOracle)
		oracle.On("Resolve", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("deadline exceeded")).Once()
		r := NewResolver(oracle, zaptest.NewLogger(t))

		spec := r.Resolve(ctx, schemas.PageSnapshot{BodyText: "see page 4"})
		assert.Equal(t, ReturnText, spec.Kind)
		require.NotNil(t, spec.Page)
		assert.Equal(t, 4, *spec.Page)
	})

	t.Run("nil oracle", func(t *testing.T) {
		r := NewResolver(nil, zaptest.NewLogger(t))
		assert.Equal(t, ReturnText, r.Resolve(ctx, schemas.PageSnapshot{BodyText: "?"}).Kind)
	})
}
