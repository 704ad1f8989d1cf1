// File: internal/directive/detector_test.go
package directive

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/xkilldash9x/quizwalk/api/schemas"
)

const page = "https://quiz.example.com/q/1"

func TestDetectSubmit(t *testing.T) {
	tests := []struct {
		name string
		body string
		pre  string
		want string
	}{
		{
			name: "absolute submit url",
			body: "POST your answer to https://quiz.example.com/submit?id=7.",
			want: "https://quiz.example.com/submit?id=7",
		},
		{
			name: "absolute submit wins over answer endpoint",
			body: "Try https://a.example.com/answer first, or https://b.example.com/submit",
			want: "https://b.example.com/submit",
		},
		{
			name: "answer endpoint when no submit",
			body: "Send JSON to https://a.example.com/api/answer",
			want: "https://a.example.com/api/answer",
		},
		{
			name: "relative submit path",
			body: "Submit answers to /submit-here",
			want: "https://quiz.example.com/submit-here",
		},
		{
			name: "relative path glued to a letter is ignored",
			body: "Please do not resubmit/submit twice",
			want: "",
		},
		{
			name: "post back to relative path",
			body: "When done, post back to /api/v2/result.",
			want: "https://quiz.example.com/api/v2/result",
		},
		{
			name: "found in preformatted block",
			pre:  `{"endpoint": "/submit"}`,
			want: "https://quiz.example.com/submit",
		},
		{
			name: "absent",
			body: "There is nothing to do here.",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.body, tt.pre, page)
			assert.Equal(t, tt.want, got.SubmitURL)
		})
	}
}

func TestDetectArtifacts(t *testing.T) {
	body := `Download https://cdn.example.com/files/data.csv and listen to https://cdn.example.com/clip.ogg.
Then scrape /secret-page, and answer at /submit`

	got := Detect(body, "", page)
	want := schemas.DirectiveSet{
		SubmitURL: "https://quiz.example.com/submit",
		FileURL:   "https://cdn.example.com/files/data.csv",
		ScrapeURL: "https://quiz.example.com/secret-page",
		AudioURL:  "https://cdn.example.com/clip.ogg",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Detect() mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectAudioDoublesAsFile(t *testing.T) {
	got := Detect("Transcribe https://cdn.example.com/a/question.MP3 now", "", page)
	assert.Equal(t, "https://cdn.example.com/a/question.MP3", got.FileURL)
	assert.Equal(t, "https://cdn.example.com/a/question.MP3", got.AudioURL)
}

func TestDetectSpreadsheetExtension(t *testing.T) {
	got := Detect("Sheet: https://cdn.example.com/report.xlsx", "", page)
	assert.Equal(t, "https://cdn.example.com/report.xlsx", got.FileURL)
	assert.Empty(t, got.AudioURL)
}

func TestDetectIsPure(t *testing.T) {
	body := "scrape /x then post back to /y; file https://h.example.com/f.pdf"
	first := Detect(body, "pre", page)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Detect(body, "pre", page))
	}
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "https://quiz.example.com/submit", Resolve(page, "/submit"))
	assert.Equal(t, "/submit", Resolve("", "/submit"))
	assert.Equal(t, "https://other.example.com/x", Resolve(page, "https://other.example.com/x"))
}
