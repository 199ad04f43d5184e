package api

import (
	"errors"
	"io"
	"net/http"

	practicesession "github.com/keisan-drill/backend/internal/domain/practice_session"
	"github.com/keisan-drill/backend/internal/domain/question"
	"github.com/keisan-drill/backend/internal/service"
)

// getConfig returns the quiz configuration from the current settings.
// @Summary      Get quiz configuration
// @Description  Question type, number of questions and the mistake hint, read from the settings file.
// @Tags         Quiz
// @Produce      json
// @Success      200  {object}  practicesession.Configuration
// @Failure      500  {object}  ErrorResponse
// @Router       /config [get]
func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.quiz.Configuration(r.Context())
	if err != nil {
		h.logger.Error("load configuration", "error", err)
		respondError(w, http.StatusInternalServerError, "configuration unavailable")
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// GenerateQuestionRequest pins the question to a session's configuration.
// Omitted fields use the current settings.
type GenerateQuestionRequest struct {
	QuestionType question.Type `json:"question_type,omitempty" example:"multiplication"`
	NumDigits    int           `json:"num_digits,omitempty" example:"3"`
}

// generateQuestion hands out one new question.
// @Summary      Generate a question
// @Description  Builds a multiplication or division question. The body may carry the session's question type and digit count; without it the current settings apply.
// @Tags         Quiz
// @Accept       json
// @Produce      json
// @Param        body  body      GenerateQuestionRequest  false  "Session configuration"
// @Success      200   {object}  question.Question
// @Failure      400   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /generate_question [post]
func (h *Handler) generateQuestion(w http.ResponseWriter, r *http.Request) {
	var req GenerateQuestionRequest
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	q, err := h.quiz.NextQuestion(r.Context(), practicesession.Configuration{
		QuestionType: req.QuestionType,
		NumDigits:    req.NumDigits,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidQuestionRequest) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("generate question", "error", err)
		respondError(w, http.StatusInternalServerError, "question unavailable")
		return
	}
	respondJSON(w, http.StatusOK, q)
}
