package api

import (
	"net/http"
	"time"

	"github.com/keisan-drill/backend/internal/domain/question"
	"github.com/keisan-drill/backend/internal/store"
)

type UploadResponse struct {
	ID                string             `json:"id"`
	CreatedAt         time.Time          `json:"created_at"`
	QuestionType      question.Type      `json:"question_type"`
	Status            store.UploadStatus `json:"status"`
	Attempts          int                `json:"attempts"`
	LastError         string             `json:"last_error,omitempty"`
	QuestionCount     int                `json:"question_count"`
	UploadedQuestions int                `json:"uploaded_questions"`
	SummaryPageID     string             `json:"summary_page_id,omitempty"`
}

func toUploadResponse(u *store.Upload) UploadResponse {
	return UploadResponse{
		ID:                u.ID,
		CreatedAt:         u.CreatedAt,
		QuestionType:      u.QuestionType,
		Status:            u.Status,
		Attempts:          u.Attempts,
		LastError:         u.LastError,
		QuestionCount:     len(u.Results),
		UploadedQuestions: len(u.UploadedDetails),
		SummaryPageID:     u.SummaryPageID,
	}
}

// listUploads lists stored sessions and their upload state.
// @Summary      List uploads
// @Description  Submitted sessions, newest first, optionally filtered by status.
// @Tags         Uploads
// @Produce      json
// @Param        status  query     string  false  "pending, done, failed or rejected"
// @Success      200     {array}   UploadResponse
// @Failure      400     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /uploads [get]
func (h *Handler) listUploads(w http.ResponseWriter, r *http.Request) {
	status := store.UploadStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		respondError(w, http.StatusBadRequest, "status must be pending, done, failed or rejected")
		return
	}

	uploads, err := h.uploads.ListUploads(r.Context(), status)
	if h.handleStoreError(w, err, "uploads") {
		return
	}

	resp := make([]UploadResponse, 0, len(uploads))
	for _, u := range uploads {
		resp = append(resp, toUploadResponse(u))
	}
	respondJSON(w, http.StatusOK, resp)
}

// getUpload returns one stored session.
// @Summary      Get an upload
// @Tags         Uploads
// @Produce      json
// @Param        uploadID  path      string  true  "Upload ID"
// @Success      200       {object}  UploadResponse
// @Failure      404       {object}  ErrorResponse
// @Failure      500       {object}  ErrorResponse
// @Router       /uploads/{uploadID} [get]
func (h *Handler) getUpload(w http.ResponseWriter, r *http.Request) {
	u, err := h.uploads.GetUpload(r.Context(), r.PathValue("uploadID"))
	if h.handleStoreError(w, err, "upload") {
		return
	}
	respondJSON(w, http.StatusOK, toUploadResponse(u))
}

// retryUploads drains pending uploads now instead of waiting for the timer.
// @Summary      Retry pending uploads
// @Tags         Uploads
// @Produce      json
// @Success      200  {object}  service.RetryStats
// @Failure      500  {object}  ErrorResponse
// @Router       /uploads/retry [post]
func (h *Handler) retryUploads(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.RetryPending(r.Context())
	if err != nil {
		h.logger.Error("retry uploads", "error", err)
		respondError(w, http.StatusInternalServerError, "retry failed")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
