package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatCompletionBody = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "test-model",
	"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "  headphones\n"}}]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, MaxRetries: 0})
}

func TestClient_Chat(t *testing.T) {
	t.Run("sends system and user messages and trims reply", func(t *testing.T) {
		var body map[string]any

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, chatCompletionBody)
		})

		reply, err := client.Chat(context.Background(), ChatRequest{
			Model:       "test-model",
			System:      "be brief",
			Prompt:      "find headphones",
			MaxTokens:   10,
			Temperature: 0.5,
		})
		require.NoError(t, err)
		assert.Equal(t, "headphones", reply)

		assert.Equal(t, "test-model", body["model"])
		assert.EqualValues(t, 10, body["max_tokens"])

		messages, ok := body["messages"].([]any)
		require.True(t, ok)
		require.Len(t, messages, 2)
		assert.Equal(t, "system", messages[0].(map[string]any)["role"])
		assert.Equal(t, "user", messages[1].(map[string]any)["role"])
	})

	t.Run("image is sent as content part", func(t *testing.T) {
		var raw string

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			raw = string(b)

			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, chatCompletionBody)
		})

		_, err := client.Chat(context.Background(), ChatRequest{
			Model:    "vision",
			Prompt:   "what is this",
			ImageURL: "data:image/png;base64,AAAA",
		})
		require.NoError(t, err)
		assert.Contains(t, raw, `"image_url"`)
		assert.Contains(t, raw, "data:image/png;base64,AAAA")
	})

	t.Run("empty prompt", func(t *testing.T) {
		var calls atomic.Int32

		client := newTestClient(t, func(http.ResponseWriter, *http.Request) { calls.Add(1) })

		_, err := client.Chat(context.Background(), ChatRequest{Prompt: "  "})
		assert.ErrorIs(t, err, ErrEmptyInput)
		assert.Zero(t, calls.Load())
	})

	t.Run("no choices", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
		})

		_, err := client.Chat(context.Background(), ChatRequest{Prompt: "hi"})
		assert.ErrorIs(t, err, ErrNoChoices)
	})

	t.Run("provider error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
		})

		_, err := client.Chat(context.Background(), ChatRequest{Prompt: "hi"})
		assert.Error(t, err)
	})
}

func TestClient_Transcribe(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/audio/transcriptions"))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		assert.Equal(t, "whisper-test", r.FormValue("model"))
		assert.Equal(t, "en", r.FormValue("language"))

		f, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()

		data, _ := io.ReadAll(f)
		assert.Equal(t, "voice.webm", header.Filename)
		assert.Equal(t, "audio-bytes", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":" show me laptops "}`)
	})

	text, err := client.Transcribe(context.Background(), "whisper-test", strings.NewReader("audio-bytes"), "voice.webm", "audio/webm")
	require.NoError(t, err)
	assert.Equal(t, "show me laptops", text)

	_, err = client.Transcribe(context.Background(), "whisper-test", nil, "x", "audio/webm")
	assert.ErrorIs(t, err, ErrEmptyInput)
}
