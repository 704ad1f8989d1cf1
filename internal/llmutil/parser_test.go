// internal/llmutil/parser_test.go
package llmutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type actionReply struct {
	Action string `json:"action"`
	Column string `json:"column"`
}

func TestParseJSONResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"plain object", `{"action":"sum","column":"sales"}`},
		{"fenced json", "```json\n{\"action\":\"sum\",\"column\":\"sales\"}\n```"},
		{"fenced without tag", "```\n{\"action\":\"sum\",\"column\":\"sales\"}\n```"},
		{"prose around object", "Sure! Here you go: {\"action\": \"sum\", \"column\": \"sales\"} Hope that helps."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSONResponse[actionReply](tt.response)
			require.NoError(t, err)
			assert.Equal(t, "sum", got.Action)
			assert.Equal(t, "sales", got.Column)
		})
	}
}

func TestParseJSONResponseArray(t *testing.T) {
	got, err := ParseJSONResponse[[]int]("numbers: [1, 2, 3]")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, *got)
}

func TestParseJSONResponseInvalid(t *testing.T) {
	_, err := ParseJSONResponse[actionReply]("I cannot help with that.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal LLM JSON response")
}
