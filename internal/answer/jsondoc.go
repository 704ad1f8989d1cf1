// File: internal/answer/jsondoc.go
package answer

import (
	"bytes"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/quizwalk/api/schemas"
)

// JSONDocument submits a downloaded JSON document as-is. Invalid documents fall back to
// the first limit characters of their text.
func JSONDocument(data []byte, limit int) schemas.Answer {
	doc := bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	if len(doc) > 0 && json.Valid(doc) {
		return schemas.JSONAnswer(append([]byte(nil), doc...))
	}
	return schemas.TextAnswer(truncateRunes(string(data), limit))
}
