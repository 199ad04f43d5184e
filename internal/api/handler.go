// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	practicesession "github.com/keisan-drill/backend/internal/domain/practice_session"
	"github.com/keisan-drill/backend/internal/report"
	"github.com/keisan-drill/backend/internal/service"
	"github.com/keisan-drill/backend/internal/store"
)

// Reports is the part of the reporting service the handlers use.
type Reports interface {
	Submit(ctx context.Context, p report.Payload) (*store.Upload, error)
	RetryPending(ctx context.Context) (service.RetryStats, error)
}

// Uploads is the read side of the outbox.
type Uploads interface {
	GetUpload(ctx context.Context, id string) (*store.Upload, error)
	ListUploads(ctx context.Context, status store.UploadStatus) ([]*store.Upload, error)
}

// Handler holds all dependencies needed by HTTP handlers.
type Handler struct {
	quiz    practicesession.Source
	reports Reports
	uploads Uploads
	logger  *slog.Logger
}

func NewHandler(quiz practicesession.Source, reports Reports, uploads Uploads, logger *slog.Logger) *Handler {
	return &Handler{
		quiz:    quiz,
		reports: reports,
		uploads: uploads,
		logger:  logger,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, ErrorResponse{Error: msg})
}

const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// handleStoreError checks for common store errors and writes the appropriate
// HTTP response. Returns true if an error was handled (caller should return).
func (h *Handler) handleStoreError(w http.ResponseWriter, err error, entity string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, entity+" not found")
		return true
	}
	h.logger.Error("store error", "error", err, "entity", entity)
	respondError(w, http.StatusInternalServerError, "internal error")
	return true
}
