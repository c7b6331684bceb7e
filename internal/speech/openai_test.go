package speech

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewOpenAI(Config{APIKey: "test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)
	return c
}

func TestTranscribe(t *testing.T) {
	var gotModel, gotFile string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/audio/transcriptions"), r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		gotModel = r.FormValue("model")
		if _, hdr, err := r.FormFile("file"); assert.NoError(t, err) {
			gotFile = hdr.Filename
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":"  one half plus one half  "}`)
	})

	text, err := c.Transcribe(t.Context(), []byte("fake-audio"))
	require.NoError(t, err)
	assert.Equal(t, "one half plus one half", text)
	assert.Equal(t, "whisper-1", gotModel)
	assert.Equal(t, "audio.webm", gotFile)
}

func TestTranscribe_Empty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":"   "}`)
	})

	_, err := c.Transcribe(t.Context(), []byte("silence"))
	assert.True(t, errors.Is(err, ErrEmptyTranscript))

	_, err = c.Transcribe(t.Context(), nil)
	assert.True(t, errors.Is(err, ErrEmptyTranscript))
}

func TestTranscribe_ServiceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
	})

	_, err := c.Transcribe(t.Context(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcribe")
}

func TestSynthesize(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/audio/speech"), r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"voice":"alloy"`)
		assert.Contains(t, string(body), `"model":"tts-1"`)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-mp3-bytes"))
	})

	audio, err := c.Synthesize(t.Context(), "Great job!")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3-mp3-bytes"), audio)
}

func TestNewOpenAI_RequiresKey(t *testing.T) {
	_, err := NewOpenAI(Config{})
	assert.Error(t, err)
}
