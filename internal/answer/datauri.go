// File: internal/answer/datauri.go
package answer

import (
	"encoding/base64"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/xkilldash9x/quizwalk/api/schemas"
)

const octetStream = "application/octet-stream"

// DataURI encodes data as a base64 data URI.
func DataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// FileDataURI wraps a downloaded file. The media type is sniffed from the content;
// when sniffing is inconclusive the server's Content-Type is used, then application/<ext>.
func FileDataURI(data []byte, contentType, ext string) schemas.Answer {
	return schemas.DataURIAnswer(DataURI(mediaTypeOf(data, contentType, ext), data))
}

func mediaTypeOf(data []byte, contentType, ext string) string {
	if detected := baseType(mimetype.Detect(data).String()); detected != "" && detected != octetStream {
		return detected
	}
	if ct := baseType(contentType); ct != "" && ct != octetStream {
		return ct
	}
	if ext != "" {
		return "application/" + ext
	}
	return octetStream
}

func baseType(s string) string {
	if s == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(s); err == nil {
		return mt
	}
	return strings.TrimSpace(strings.SplitN(s, ";", 2)[0])
}
