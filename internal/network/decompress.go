// File: internal/network/decompress.go
package network

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// closeWrapper closes both the decoding reader and the original body.
type closeWrapper struct {
	io.Reader
	decoder      io.Closer
	originalBody io.ReadCloser
}

func (w *closeWrapper) Close() error {
	var err1 error
	if w.decoder != nil {
		err1 = w.decoder.Close()
	}
	err2 := w.originalBody.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// DecompressBody returns a reader that decodes resp.Body according to its
// Content-Encoding. Unknown or absent encodings return the body unchanged.
func DecompressBody(resp *http.Response) (io.ReadCloser, error) {
	if resp == nil || resp.Body == nil {
		return nil, nil
	}

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip", "x-gzip":
		r, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return &closeWrapper{Reader: r, decoder: r, originalBody: resp.Body}, nil
	case "deflate":
		// Servers disagree on whether deflate means zlib-wrapped or raw; peek at the header.
		br := bufio.NewReader(resp.Body)
		if header, err := br.Peek(2); err == nil && isZlibHeader(header) {
			r, err := zlib.NewReader(br)
			if err != nil {
				return nil, fmt.Errorf("zlib reader: %w", err)
			}
			return &closeWrapper{Reader: r, decoder: r, originalBody: resp.Body}, nil
		}
		r := flate.NewReader(br)
		return &closeWrapper{Reader: r, decoder: r, originalBody: resp.Body}, nil
	case "br":
		return &closeWrapper{Reader: brotli.NewReader(resp.Body), originalBody: resp.Body}, nil
	default:
		return resp.Body, nil
	}
}

func isZlibHeader(h []byte) bool {
	return h[0]&0x0f == 8 && (uint16(h[0])<<8|uint16(h[1]))%31 == 0
}

// ReadBody decodes and reads at most limit bytes of the response body. It reports
// ErrBodyTooLarge when the body is longer than limit.
func ReadBody(resp *http.Response, limit int64) ([]byte, error) {
	body, err := DecompressBody(resp)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > limit {
		return data[:limit], ErrBodyTooLarge
	}
	return data, nil
}

// ErrBodyTooLarge is returned by ReadBody when the body exceeds the limit.
var ErrBodyTooLarge = errors.New("response body exceeds limit")
