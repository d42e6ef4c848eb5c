// Package openai wraps the official OpenAI Go SDK for chat, vision and
// transcription calls against any OpenAI-compatible provider.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
)

var (
	// ErrEmptyInput is returned when a call has no prompt or no audio.
	ErrEmptyInput = errors.New("openai: input is empty")
	// ErrNoChoices is returned when a chat completion has no choices.
	ErrNoChoices = errors.New("openai: no choices in response")
)

const transcriptionLanguage = "en"

// Config configures the Client.
type Config struct {
	APIKey  string
	BaseURL string
	// Timeout bounds each HTTP attempt.
	Timeout    time.Duration
	MaxRetries int
}

// Client calls chat completions and audio transcriptions.
type Client struct {
	sdk openaisdk.Client
}

// NewClient creates a Client. Retries are handled by a retryablehttp
// transport; the SDK's own retry loop is disabled.
func NewClient(cfg Config) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.Logger = nil

	if cfg.Timeout > 0 {
		retryClient.HTTPClient.Timeout = cfg.Timeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(retryClient.StandardClient()),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{sdk: openaisdk.NewClient(opts...)}
}

// ChatRequest is one single-turn completion.
type ChatRequest struct {
	Model  string
	System string
	Prompt string
	// ImageURL, when set, is sent as an image part after the prompt (data: URLs allowed).
	ImageURL    string
	MaxTokens   int64
	Temperature float64
}

// Chat returns the trimmed content of the first choice.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", ErrEmptyInput
	}

	var messages []openaisdk.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openaisdk.SystemMessage(req.System))
	}

	if req.ImageURL != "" {
		messages = append(messages, openaisdk.UserMessage([]openaisdk.ChatCompletionContentPartUnionParam{
			openaisdk.TextContentPart(req.Prompt),
			openaisdk.ImageContentPart(openaisdk.ChatCompletionContentPartImageImageURLParam{URL: req.ImageURL}),
		}))
	} else {
		messages = append(messages, openaisdk.UserMessage(req.Prompt))
	}

	params := openaisdk.ChatCompletionNewParams{
		Messages: messages,
		Model:    openaisdk.ChatModel(req.Model),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = param.NewOpt(req.MaxTokens)
	}

	if req.Temperature > 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}

	resp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Transcribe returns the English transcription of an audio upload.
func (c *Client) Transcribe(ctx context.Context, model string, audio io.Reader, filename, contentType string) (string, error) {
	if audio == nil {
		return "", ErrEmptyInput
	}

	resp, err := c.sdk.Audio.Transcriptions.New(ctx, openaisdk.AudioTranscriptionNewParams{
		File:     openaisdk.File(audio, filename, contentType),
		Model:    openaisdk.AudioModel(model),
		Language: param.NewOpt(transcriptionLanguage),
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}
