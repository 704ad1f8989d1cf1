// File: internal/answer/aggregate.go
package answer

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/xkilldash9x/quizwalk/api/schemas"
	"github.com/xkilldash9x/quizwalk/internal/action"
)

// Aggregate reduces values with op ("count" or one of the aggregate verbs). When cutoff
// is set only values strictly greater than it are kept. An empty series sums to 0;
// every other statistic of an empty series is null.
func Aggregate(values []float64, op string, cutoff *float64) schemas.Answer {
	if cutoff != nil {
		kept := values[:0:0]
		for _, v := range values {
			if v > *cutoff {
				kept = append(kept, v)
			}
		}
		values = kept
	}

	if len(values) == 0 {
		if op == string(action.Sum) {
			return schemas.NumberAnswer(0)
		}
		return schemas.NullAnswer()
	}

	switch op {
	case string(action.Sum):
		return schemas.NumberAnswer(floats.Sum(values))
	case string(action.Mean):
		return schemas.NumberAnswer(stat.Mean(values, nil))
	case string(action.Max):
		return schemas.NumberAnswer(floats.Max(values))
	case string(action.Min):
		return schemas.NumberAnswer(floats.Min(values))
	case string(action.Median):
		return schemas.NumberAnswer(median(values))
	case "count":
		return schemas.NumberAnswer(float64(len(values)))
	default:
		return schemas.NullAnswer()
	}
}

// median averages the two middle values of an even-length series.
func median(values []float64) float64 {
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}
