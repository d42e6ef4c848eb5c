package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/formbricks/storefront/internal/openai"
)

// ErrNoKeyword is returned when the model produced no usable keyword.
var ErrNoKeyword = errors.New("no valid keyword extracted")

const (
	keywordMaxTokens   = 10
	keywordTemperature = 0.5

	voiceKeywordPrompt = `You are a keyword extraction system for a product search engine. ` +
		`Given a user query, extract a single, relevant keyword that best represents the product or category ` +
		`the user is searching for. Ignore words like "search", "for", "find", or other non-product-related terms. ` +
		`The keyword should be a single word or a short compound word (e.g., "laptop", "smartphone", "headphones").

User query: %q
Output only the keyword.`

	imageKeywordPrompt = `You are a keyword extraction system for a product search engine. ` +
		`Analyze the provided image and identify the primary product or object in it. ` +
		`Extract a single, relevant keyword that best represents the product or category for a search query. ` +
		`The keyword should be a single word or a short compound word (e.g., "laptop", "smartphone", "headphones"). ` +
		`Avoid generic or non-product-related terms.

Output only the keyword.`

	chatbotSystemPrompt = `You are a helpful e-commerce shopping assistant. You help customers find products, ` +
		`answer questions about orders, shipping, returns, and provide general shopping advice. ` +
		`Keep responses concise and helpful. If asked about specific products, suggest they browse ` +
		`the product catalog or use the search feature.`
)

// LLMClient is the subset of the AI provider used by KeywordService.
type LLMClient interface {
	Chat(ctx context.Context, req openai.ChatRequest) (string, error)
	Transcribe(ctx context.Context, model string, audio io.Reader, filename, contentType string) (string, error)
}

// KeywordModels names the provider models per task.
type KeywordModels struct {
	Chat          string
	Keyword       string
	Vision        string
	Transcription string
}

// Upload is an in-memory multipart file.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// KeywordService turns voice and image uploads into search keywords and
// answers chatbot messages.
type KeywordService struct {
	client LLMClient
	models KeywordModels
}

// NewKeywordService creates a KeywordService.
func NewKeywordService(client LLMClient, models KeywordModels) *KeywordService {
	return &KeywordService{client: client, models: models}
}

// FromVoice transcribes the recording and extracts one keyword from the transcript.
func (s *KeywordService) FromVoice(ctx context.Context, audio Upload) (string, error) {
	filename := audio.Filename
	if filename == "" {
		filename = "voice.webm"
	}

	transcript, err := s.client.Transcribe(ctx, s.models.Transcription, bytes.NewReader(audio.Data), filename, audio.ContentType)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}

	if transcript == "" {
		return "", ErrNoKeyword
	}

	return s.keyword(ctx, openai.ChatRequest{
		Model:  s.models.Keyword,
		Prompt: fmt.Sprintf(voiceKeywordPrompt, transcript),
	})
}

// FromImage asks the vision model for one keyword describing the pictured product.
func (s *KeywordService) FromImage(ctx context.Context, image Upload) (string, error) {
	contentType := image.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image.Data)

	return s.keyword(ctx, openai.ChatRequest{
		Model:    s.models.Vision,
		Prompt:   imageKeywordPrompt,
		ImageURL: dataURL,
	})
}

func (s *KeywordService) keyword(ctx context.Context, req openai.ChatRequest) (string, error) {
	req.MaxTokens = keywordMaxTokens
	req.Temperature = keywordTemperature

	reply, err := s.client.Chat(ctx, req)
	if err != nil {
		return "", fmt.Errorf("extract keyword: %w", err)
	}

	keyword := strings.Trim(strings.TrimSpace(reply), `"'.`)
	if keyword == "" {
		return "", ErrNoKeyword
	}

	return keyword, nil
}

// Chat answers a shopper's message as the storefront assistant.
func (s *KeywordService) Chat(ctx context.Context, message string) (string, error) {
	reply, err := s.client.Chat(ctx, openai.ChatRequest{
		Model:  s.models.Chat,
		System: chatbotSystemPrompt,
		Prompt: message,
	})
	if err != nil {
		return "", fmt.Errorf("chatbot: %w", err)
	}

	return reply, nil
}

