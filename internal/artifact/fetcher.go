// File: internal/artifact/fetcher.go
// Package artifact downloads the data files and audio clips a page refers to.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/quizwalk/internal/network"
)

// ErrStatus is wrapped when the server answers with a non-2xx status.
var ErrStatus = errors.New("unexpected status")

// File is a downloaded artifact.
type File struct {
	URL string
	// Ext is the lower-cased extension of the URL path, without the dot.
	Ext         string
	Data        []byte
	ContentType string
}

// Fetcher performs bounded downloads.
type Fetcher struct {
	client   *network.Client
	maxBytes int64
	logger   *zap.Logger
}

// NewFetcher creates a fetcher that refuses bodies larger than maxBytes.
func NewFetcher(client *network.Client, maxBytes int64, logger *zap.Logger) *Fetcher {
	return &Fetcher{client: client, maxBytes: maxBytes, logger: logger.Named("artifact")}
}

// Fetch downloads rawURL within timeout.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (*File, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("download %s: %w %d", rawURL, ErrStatus, resp.StatusCode)
	}

	data, err := network.ReadBody(resp, f.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}

	file := &File{
		URL:         rawURL,
		Ext:         Extension(rawURL),
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}
	f.logger.Debug("Downloaded artifact.",
		zap.String("url", rawURL),
		zap.String("ext", file.Ext),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)),
	)
	return file, nil
}

// Extension returns the lower-cased extension of the URL path without the dot.
// Query strings and fragments are ignored.
func Extension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	return strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
}
