package schemas

import (
	"strings"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerMarshalJSON(t *testing.T) {
	tests := []struct {
		name   string
		answer Answer
		want   string
	}{
		{"null", NullAnswer(), `null`},
		{"integer number", NumberAnswer(4200), `4200`},
		{"fractional number", NumberAnswer(2.5), `2.5`},
		{"text", TextAnswer("AB12"), `"AB12"`},
		{"data uri", DataURIAnswer("data:image/png;base64,AAA="), `"data:image/png;base64,AAA="`},
		{"raw json", JSONAnswer(json.RawMessage(`{"a":[1,2]}`)), `{"a":[1,2]}`},
		{"empty raw json", JSONAnswer(nil), `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.answer)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
		})
	}
}

func TestSubmissionPayloadEncoding(t *testing.T) {
	p := SubmissionPayload{Email: "a@b.c", Secret: "s", URL: "https://x/q1", Answer: NumberAnswer(50)}
	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@b.c","secret":"s","url":"https://x/q1","answer":50}`, string(b))
}

func TestAnswerTruncate(t *testing.T) {
	long := TextAnswer(strings.Repeat("é", 10))
	cut := long.Truncate(4)
	assert.Equal(t, "éééé", cut.Text)

	n := NumberAnswer(7).Truncate(0)
	assert.Equal(t, NumberAnswer(7), n)

	short := TextAnswer("abc").Truncate(10)
	assert.Equal(t, "abc", short.Text)
}

func TestPageSnapshotCombined(t *testing.T) {
	p := PageSnapshot{BodyText: "body", PreformattedText: "pre"}
	assert.Equal(t, "pre\nbody", p.Combined())
}
