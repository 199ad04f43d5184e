package api

import (
	"errors"
	"net/http"

	"github.com/keisan-drill/backend/internal/report"
	"github.com/keisan-drill/backend/internal/service"
)

type SubmitSessionResponse struct {
	Success  bool   `json:"success"`
	UploadID string `json:"upload_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// submitSession stores a finished session and schedules its Notion upload.
// success=true means the session is stored; the upload itself may still
// fail and is retried by the server.
// @Summary      Submit a finished session
// @Description  Accepts the full record set of one session and queues it for upload to Notion.
// @Tags         Quiz
// @Accept       json
// @Produce      json
// @Param        body  body      report.Payload  true  "Session results"
// @Success      200   {object}  SubmitSessionResponse
// @Failure      400   {object}  SubmitSessionResponse
// @Failure      500   {object}  SubmitSessionResponse
// @Router       /submit_session [post]
func (h *Handler) submitSession(w http.ResponseWriter, r *http.Request) {
	var p report.Payload
	if err := decodeBody(w, r, &p); err != nil {
		respondJSON(w, http.StatusBadRequest, SubmitSessionResponse{Error: "invalid JSON body"})
		return
	}

	u, err := h.reports.Submit(r.Context(), p)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSubmission) {
			respondJSON(w, http.StatusBadRequest, SubmitSessionResponse{Error: err.Error()})
			return
		}
		h.logger.Error("submit session", "error", err)
		respondJSON(w, http.StatusInternalServerError, SubmitSessionResponse{Error: "failed to store session"})
		return
	}

	h.logger.Info("session submitted",
		"upload_id", u.ID,
		"question_type", u.QuestionType,
		"questions", len(u.Results),
	)
	respondJSON(w, http.StatusOK, SubmitSessionResponse{Success: true, UploadID: u.ID})
}
