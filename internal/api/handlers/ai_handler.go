package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/formbricks/storefront/internal/api/response"
	"github.com/formbricks/storefront/internal/api/validation"
	"github.com/formbricks/storefront/internal/models"
	"github.com/formbricks/storefront/internal/service"
)

// KeywordService extracts search keywords from media and answers chat messages.
type KeywordService interface {
	FromVoice(ctx context.Context, audio service.Upload) (string, error)
	FromImage(ctx context.Context, image service.Upload) (string, error)
	Chat(ctx context.Context, message string) (string, error)
}

// AIHandler serves the provider-backed endpoints. Uploads are read into
// memory, bounded by maxUploadBytes, and never written to disk.
type AIHandler struct {
	service        KeywordService
	maxUploadBytes int64
}

// NewAIHandler creates a new AI handler.
func NewAIHandler(service KeywordService, maxUploadBytes int64) *AIHandler {
	return &AIHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// VoiceSearch handles POST /v1/products/voice-search (multipart field "audio").
func (h *AIHandler) VoiceSearch(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.readUpload(w, r, "audio")
	if !ok {
		return
	}

	keyword, err := h.service.FromVoice(r.Context(), upload)
	h.respondKeyword(w, r, keyword, err, "Failed voice search")
}

// ImageSearch handles POST /v1/products/image-search (multipart field "image").
func (h *AIHandler) ImageSearch(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.readUpload(w, r, "image")
	if !ok {
		return
	}

	keyword, err := h.service.FromImage(r.Context(), upload)
	h.respondKeyword(w, r, keyword, err, "Failed image search")
}

// Chat handles POST /v1/chatbot.
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		validation.RespondDecodeError(w, err)

		return
	}

	reply, err := h.service.Chat(r.Context(), req.Message)
	if err != nil {
		slog.ErrorContext(r.Context(), "chatbot failed", "error", err)
		response.RespondInternalServerError(w, "Failed to process message")

		return
	}

	response.RespondJSON(w, http.StatusOK, models.ChatResponse{Response: reply})
}

func (h *AIHandler) respondKeyword(w http.ResponseWriter, r *http.Request, keyword string, err error, failure string) {
	if err != nil {
		if errors.Is(err, service.ErrNoKeyword) {
			response.RespondBadRequest(w, "No valid keyword extracted")

			return
		}

		slog.ErrorContext(r.Context(), failure, "error", err)
		response.RespondInternalServerError(w, failure)

		return
	}

	response.RespondJSON(w, http.StatusOK, models.KeywordResponse{Keyword: keyword})
}

func (h *AIHandler) readUpload(w http.ResponseWriter, r *http.Request, field string) (service.Upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
				"upload exceeds maximum allowed size")

			return service.Upload{}, false
		}

		response.RespondBadRequest(w, "Expected multipart/form-data body")

		return service.Upload{}, false
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.WarnContext(r.Context(), "failed to release multipart form", "error", err)
		}
	}()

	file, header, err := r.FormFile(field)
	if err != nil {
		response.RespondBadRequest(w, "No "+field+" file provided")

		return service.Upload{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		response.RespondBadRequest(w, "No "+field+" file provided")

		return service.Upload{}, false
	}

	return service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, true
}
