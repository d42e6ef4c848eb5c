package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/formbricks/storefront/internal/api/response"
)

// BodyTooLargeRecorder is notified for every request answered with 413.
type BodyTooLargeRecorder interface {
	RecordRequestBodyTooLarge(ctx context.Context)
}

// BodyLimits bounds request bodies by kind. Multipart uploads (voice and image
// search) get Upload, everything else gets JSON. Zero or negative disables a bound.
type BodyLimits struct {
	JSON   int64
	Upload int64
}

func (l BodyLimits) forRequest(r *http.Request) int64 {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err == nil && mediaType == "multipart/form-data" {
		return l.Upload
	}

	return l.JSON
}

// MaxBody caps request bodies according to limits. Handlers see the overflow
// as a read error; whatever they answer is replaced by a 413 problem response.
// Only POST, PUT and PATCH responses are held back, other methods stream.
func MaxBody(limits BodyLimits, recorder BodyTooLargeRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := limits.forRequest(r)
			if limit <= 0 || r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)

				return
			}

			body := &limitedBody{ReadCloser: http.MaxBytesReader(w, r.Body, limit)}
			r.Body = body

			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
			default:
				next.ServeHTTP(w, r)

				return
			}

			held := &heldResponse{ResponseWriter: w}
			next.ServeHTTP(held, r)

			if !body.overflowed {
				held.release()

				return
			}

			if recorder != nil {
				recorder.RecordRequestBodyTooLarge(r.Context())
			}

			response.RespondError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
				fmt.Sprintf("request body exceeds %d bytes", limit))
		})
	}
}

// limitedBody remembers whether the MaxBytesReader underneath ever tripped.
type limitedBody struct {
	io.ReadCloser

	overflowed bool
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err == nil {
		return n, nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		b.overflowed = true
	}

	if errors.Is(err, io.EOF) {
		return n, io.EOF
	}

	return n, fmt.Errorf("read body: %w", err)
}

// heldResponse buffers the handler's answer until we know the body fit.
type heldResponse struct {
	http.ResponseWriter

	status int
	body   bytes.Buffer
}

func (h *heldResponse) WriteHeader(code int) {
	if h.status == 0 {
		h.status = code
	}
}

func (h *heldResponse) Write(p []byte) (int, error) {
	if h.status == 0 {
		h.status = http.StatusOK
	}

	n, err := h.body.Write(p)
	if err != nil {
		return n, fmt.Errorf("buffer response: %w", err)
	}

	return n, nil
}

func (h *heldResponse) release() {
	if h.status != 0 {
		h.ResponseWriter.WriteHeader(h.status)
	}

	_, _ = h.body.WriteTo(h.ResponseWriter)
}
