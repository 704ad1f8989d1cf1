// File: internal/transcribe/transcriber_test.go
package transcribe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/quizwalk/internal/config"
)

func TestTranscribe(t *testing.T) {
	var gotPath, gotFile, gotModel string
	var gotAudio []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		gotModel = r.FormValue("model")
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		gotFile = hdr.Filename
		gotAudio, _ = io.ReadAll(f)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": "  the answer is forty two  "}`))
	}))
	defer srv.Close()

	tr := New(config.TranscriberConfig{Enabled: true, APIKey: "k", BaseURL: srv.URL + "/v1/"}, zaptest.NewLogger(t))
	require.NotNil(t, tr)

	text, err := tr.Transcribe(context.Background(), "https://cdn.example.com/q/clip.wav?sig=abc", []byte("RIFF...."))
	require.NoError(t, err)

	assert.Equal(t, "the answer is forty two", text)
	assert.Equal(t, "/v1/audio/transcriptions", gotPath)
	assert.Equal(t, "whisper-1", gotModel)
	assert.Equal(t, "clip.wav", gotFile)
	assert.Equal(t, []byte("RIFF...."), gotAudio)
}

func TestTranscribeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	tr := New(config.TranscriberConfig{Enabled: true, APIKey: "k", BaseURL: srv.URL}, zaptest.NewLogger(t))

	_, err := tr.Transcribe(context.Background(), "clip.mp3", []byte("ID3"))
	assert.Error(t, err)

	_, err = tr.Transcribe(context.Background(), "clip.mp3", nil)
	assert.ErrorIs(t, err, ErrEmptyAudio)
}

func TestNewDisabled(t *testing.T) {
	assert.Nil(t, New(config.TranscriberConfig{Enabled: false, APIKey: "k"}, zaptest.NewLogger(t)))
	assert.Nil(t, New(config.TranscriberConfig{Enabled: true}, zaptest.NewLogger(t)))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "clip.ogg", fileName("https://h/x/clip.ogg#t=1"))
	assert.Equal(t, "audio.mp3", fileName(""))
	assert.Equal(t, "stream.mp3", fileName("https://h/stream"))
}
