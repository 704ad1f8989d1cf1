// internal/llmutil/parser.go
package llmutil

import (
	"fmt"
	"regexp"
	"strings"

	json "github.com/json-iterator/go"
)

// fencedBlock captures the body of a markdown code fence. \x60 is a backtick.
var fencedBlock = regexp.MustCompile("(?s)\x60\x60\x60(?:json|JSON)?\\s*(.*?)\\s*\x60\x60\x60")

// ExtractJSON returns the JSON document embedded in an LLM response. Markdown fences are
// stripped, and when the response is prose with an object in it the outermost braces win.
func ExtractJSON(response string) string {
	response = strings.TrimSpace(response)

	if m := fencedBlock.FindStringSubmatch(response); len(m) > 1 {
		response = strings.TrimSpace(m[1])
	}
	if strings.HasPrefix(response, "{") || strings.HasPrefix(response, "[") {
		return response
	}

	if first, last := strings.Index(response, "{"), strings.LastIndex(response, "}"); first != -1 && last > first {
		return response[first : last+1]
	}
	if first, last := strings.Index(response, "["), strings.LastIndex(response, "]"); first != -1 && last > first {
		return response[first : last+1]
	}
	return response
}

// ParseJSONResponse decodes an LLM response into T, tolerating markdown wrapping and
// conversational text around the JSON.
func ParseJSONResponse[T any](response string) (*T, error) {
	doc := ExtractJSON(response)

	var result T
	if err := json.Unmarshal([]byte(doc), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal LLM JSON response: %w. Extracted JSON (truncated): %s", err, truncate(doc, 500))
	}
	return &result, nil
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
