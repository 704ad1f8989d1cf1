// File: internal/submit/client_test.go
package submit

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/quizwalk/api/schemas"
	"github.com/xkilldash9x/quizwalk/internal/config"
	"github.com/xkilldash9x/quizwalk/internal/network"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	logger := zaptest.NewLogger(t)
	httpClient := network.NewClient(network.NewClientConfig(config.NetworkConfig{}, logger))
	return NewClient(httpClient, config.SubmitConfig{Timeout: 5 * time.Second, MaxPayloadBytes: 900_000, TruncateChars: 200_000}, logger)
}

func TestEncodeCapsStringAnswers(t *testing.T) {
	c := newTestClient(t)

	t.Run("oversized string is truncated to exactly the limit", func(t *testing.T) {
		p := schemas.SubmissionPayload{Email: "e", Secret: "s", URL: "u", Answer: schemas.TextAnswer(strings.Repeat("a", 1_000_000))}
		body, capped, err := c.Encode(p)
		require.NoError(t, err)
		assert.Equal(t, 200_000, utf8.RuneCountInString(capped.Answer.Text))

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &decoded))
		assert.Len(t, decoded["answer"], 200_000)
	})

	t.Run("oversized data uri is truncated", func(t *testing.T) {
		p := schemas.SubmissionPayload{Answer: schemas.DataURIAnswer("data:application/octet-stream;base64," + strings.Repeat("A", 950_000))}
		_, capped, err := c.Encode(p)
		require.NoError(t, err)
		assert.Equal(t, 200_000, utf8.RuneCountInString(capped.Answer.Text))
	})

	t.Run("small string untouched", func(t *testing.T) {
		p := schemas.SubmissionPayload{Answer: schemas.TextAnswer(strings.Repeat("b", 300_000))}
		_, capped, err := c.Encode(p)
		require.NoError(t, err)
		assert.Equal(t, 300_000, len(capped.Answer.Text))
	})

	t.Run("non-string answers are never modified", func(t *testing.T) {
		raw := `["` + strings.Repeat("c", 950_000) + `"]`
		p := schemas.SubmissionPayload{Answer: schemas.JSONAnswer([]byte(raw))}
		body, capped, err := c.Encode(p)
		require.NoError(t, err)
		assert.Equal(t, raw, string(capped.Answer.Raw))
		assert.Greater(t, len(body), 900_000)
	})
}

func TestSubmit(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		switch r.URL.Path {
		case "/submit":
			_, _ = w.Write([]byte(`{"correct": true, "url": "/quiz/2"}`))
		case "/wrong":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"correct": false, "url": "https://next.example.com/q3"}`))
		case "/numeric":
			_, _ = w.Write([]byte(`{"url": 42}`))
		default:
			_, _ = w.Write([]byte(`not json`))
		}
	}))
	defer srv.Close()

	c := newTestClient(t)
	ctx := context.Background()
	payload := schemas.SubmissionPayload{Email: "me@example.com", Secret: "s3", URL: srv.URL + "/quiz/1", Answer: schemas.NumberAnswer(4200)}

	t.Run("next url resolved", func(t *testing.T) {
		res, err := c.Submit(ctx, srv.URL+"/submit", payload)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.HTTPStatus)
		assert.Equal(t, srv.URL+"/quiz/2", res.NextURL)
		assert.Equal(t, 4200.0, received["answer"])
		assert.Equal(t, "me@example.com", received["email"])
	})

	t.Run("non-2xx still yields next url", func(t *testing.T) {
		res, err := c.Submit(ctx, srv.URL+"/wrong", payload)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, res.HTTPStatus)
		assert.Equal(t, "https://next.example.com/q3", res.NextURL)
	})

	t.Run("non-string url ignored", func(t *testing.T) {
		res, err := c.Submit(ctx, srv.URL+"/numeric", payload)
		require.NoError(t, err)
		assert.Empty(t, res.NextURL)
	})

	t.Run("invalid json means no next hop", func(t *testing.T) {
		res, err := c.Submit(ctx, srv.URL+"/plain", payload)
		require.NoError(t, err)
		assert.Empty(t, res.NextURL)
	})

	t.Run("transport failure", func(t *testing.T) {
		_, err := c.Submit(ctx, "http://127.0.0.1:1/submit", payload)
		assert.Error(t, err)
	})
}
