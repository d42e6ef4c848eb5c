package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/storefront/internal/openai"
)

type mockLLMClient struct {
	chatFunc       func(ctx context.Context, req openai.ChatRequest) (string, error)
	transcribeFunc func(ctx context.Context, model string, audio io.Reader, filename, contentType string) (string, error)
	lastChat       openai.ChatRequest
}

func (m *mockLLMClient) Chat(ctx context.Context, req openai.ChatRequest) (string, error) {
	m.lastChat = req

	if m.chatFunc != nil {
		return m.chatFunc(ctx, req)
	}

	return "laptop", nil
}

func (m *mockLLMClient) Transcribe(
	ctx context.Context, model string, audio io.Reader, filename, contentType string,
) (string, error) {
	if m.transcribeFunc != nil {
		return m.transcribeFunc(ctx, model, audio, filename, contentType)
	}

	return "find me a laptop", nil
}

var testKeywordModels = KeywordModels{Chat: "chat", Keyword: "kw", Vision: "vision", Transcription: "whisper"}

func TestKeywordService_FromVoice(t *testing.T) {
	t.Run("transcript is embedded in keyword prompt", func(t *testing.T) {
		client := &mockLLMClient{
			transcribeFunc: func(_ context.Context, model string, audio io.Reader, filename, _ string) (string, error) {
				assert.Equal(t, "whisper", model)
				assert.Equal(t, "voice.webm", filename)

				b, _ := io.ReadAll(audio)
				assert.Equal(t, "pcm", string(b))

				return "show me headphones", nil
			},
			chatFunc: func(context.Context, openai.ChatRequest) (string, error) { return ` "Headphones". `, nil },
		}
		svc := NewKeywordService(client, testKeywordModels)

		kw, err := svc.FromVoice(context.Background(), Upload{Data: []byte("pcm")})
		require.NoError(t, err)
		assert.Equal(t, "Headphones", kw)

		assert.Equal(t, "kw", client.lastChat.Model)
		assert.Contains(t, client.lastChat.Prompt, `"show me headphones"`)
		assert.EqualValues(t, 10, client.lastChat.MaxTokens)
		assert.InDelta(t, 0.5, client.lastChat.Temperature, 1e-9)
	})

	t.Run("empty transcript", func(t *testing.T) {
		client := &mockLLMClient{
			transcribeFunc: func(context.Context, string, io.Reader, string, string) (string, error) { return "", nil },
		}

		_, err := NewKeywordService(client, testKeywordModels).FromVoice(context.Background(), Upload{Data: []byte("x")})
		assert.ErrorIs(t, err, ErrNoKeyword)
	})

	t.Run("transcription failure", func(t *testing.T) {
		client := &mockLLMClient{
			transcribeFunc: func(context.Context, string, io.Reader, string, string) (string, error) {
				return "", errors.New("upstream")
			},
		}

		_, err := NewKeywordService(client, testKeywordModels).FromVoice(context.Background(), Upload{Data: []byte("x")})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoKeyword)
	})
}

func TestKeywordService_FromImage(t *testing.T) {
	client := &mockLLMClient{}
	svc := NewKeywordService(client, testKeywordModels)

	kw, err := svc.FromImage(context.Background(), Upload{ContentType: "image/png", Data: []byte{0x01, 0x02}})
	require.NoError(t, err)
	assert.Equal(t, "laptop", kw)
	assert.Equal(t, "vision", client.lastChat.Model)
	assert.Equal(t, "data:image/png;base64,AQI=", client.lastChat.ImageURL)

	client.chatFunc = func(context.Context, openai.ChatRequest) (string, error) { return "  ", nil }

	_, err = svc.FromImage(context.Background(), Upload{Data: []byte{0x01}})
	assert.ErrorIs(t, err, ErrNoKeyword)
	assert.True(t, strings.HasPrefix(client.lastChat.ImageURL, "data:application/octet-stream;base64,"))
}

func TestKeywordService_Chat(t *testing.T) {
	client := &mockLLMClient{
		chatFunc: func(_ context.Context, req openai.ChatRequest) (string, error) {
			assert.NotEmpty(t, req.System)
			assert.Equal(t, "where is my order?", req.Prompt)

			return "Check your orders page.", nil
		},
	}

	reply, err := NewKeywordService(client, testKeywordModels).Chat(context.Background(), "where is my order?")
	require.NoError(t, err)
	assert.Equal(t, "Check your orders page.", reply)
}
