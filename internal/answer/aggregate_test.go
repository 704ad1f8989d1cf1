// File: internal/answer/aggregate_test.go
package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/quizwalk/api/schemas"
)

func ptr[T any](v T) *T { return &v }

func TestAggregate(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		op     string
		cutoff *float64
		want   schemas.Answer
	}{
		{"sum with cutoff", []float64{10, 20, 30}, "sum", ptr(15.0), schemas.NumberAnswer(50)},
		{"cutoff is strict", []float64{15, 16}, "sum", ptr(15.0), schemas.NumberAnswer(16)},
		{"empty sum is zero", nil, "sum", nil, schemas.NumberAnswer(0)},
		{"empty mean is null", nil, "mean", nil, schemas.NullAnswer()},
		{"filtered to empty max is null", []float64{1, 2}, "max", ptr(5.0), schemas.NullAnswer()},
		{"empty count is null", nil, "count", nil, schemas.NullAnswer()},
		{"mean", []float64{1, 2, 3, 4}, "mean", nil, schemas.NumberAnswer(2.5)},
		{"max", []float64{3, -1, 7}, "max", nil, schemas.NumberAnswer(7)},
		{"min", []float64{3, -1, 7}, "min", nil, schemas.NumberAnswer(-1)},
		{"median even", []float64{4, 1, 3, 2}, "median", nil, schemas.NumberAnswer(2.5)},
		{"median odd", []float64{3, 1, 2}, "median", nil, schemas.NumberAnswer(2)},
		{"count", []float64{5, 6, 7}, "count", ptr(5.0), schemas.NumberAnswer(2)},
		{"unknown op", []float64{1}, "mode", nil, schemas.NullAnswer()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.values, tt.op, tt.cutoff))
		})
	}
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	values := []float64{30, 10, 20}
	Aggregate(values, "median", ptr(5.0))
	assert.Equal(t, []float64{30, 10, 20}, values)
}
