package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	practicesession "github.com/keisan-drill/backend/internal/domain/practice_session"
	"github.com/keisan-drill/backend/internal/domain/question"
	"github.com/keisan-drill/backend/internal/infrastructure/config"
	"github.com/keisan-drill/backend/internal/metrics"
	"github.com/keisan-drill/backend/internal/report"
)

var ErrInvalidQuestionRequest = errors.New("invalid question request")

type SettingsProvider interface {
	Current() config.QuizSettings
}

// QuizService answers /config and /generate_question from the current
// settings. It is safe for concurrent use and also serves as an
// in-process question source.
type QuizService struct {
	settings SettingsProvider

	mu  sync.Mutex
	gen *question.Generator
}

var _ practicesession.Source = (*QuizService)(nil)

func NewQuizService(settings SettingsProvider, gen *question.Generator) *QuizService {
	if gen == nil {
		gen = question.NewGenerator()
	}
	return &QuizService{settings: settings, gen: gen}
}

func (qs *QuizService) Configuration(context.Context) (practicesession.Configuration, error) {
	s := qs.settings.Current()
	return practicesession.Configuration{
		QuestionType:          s.Type,
		NumQuestions:          s.NumQuestions,
		AddQuestionsOnMistake: s.AddQuestionsOnMistake,
		NumDigits:             s.NumDigits,
	}, nil
}

// NextQuestion generates a question of the session's type and size.
// Fields left empty in cfg fall back to the current settings.
func (qs *QuizService) NextQuestion(_ context.Context, cfg practicesession.Configuration) (question.Question, error) {
	s := qs.settings.Current()

	t := cfg.QuestionType
	if t == "" {
		t = s.Type
	}
	if !t.Valid() {
		return question.Question{}, fmt.Errorf("%w: unknown question_type %q", ErrInvalidQuestionRequest, t)
	}

	digits := cfg.NumDigits
	if digits == 0 {
		digits = s.NumDigits
	}
	if cfg.NumDigits < 0 || cfg.NumDigits > 9 {
		return question.Question{}, fmt.Errorf("%w: num_digits must be between 1 and 9", ErrInvalidQuestionRequest)
	}

	qs.mu.Lock()
	q, err := qs.gen.Next(t, digits)
	qs.mu.Unlock()
	if err != nil {
		return question.Question{}, err
	}

	metrics.QuestionsGenerated.WithLabelValues(string(t)).Inc()
	return q, nil
}

var _ report.Sink = (*ReportService)(nil)

// SubmitSession lets the service stand in for the reporting endpoint.
// Invalid payloads answer ok=false, storage failures are errors.
func (rs *ReportService) SubmitSession(ctx context.Context, p report.Payload) (bool, error) {
	if _, err := rs.Submit(ctx, p); err != nil {
		if errors.Is(err, ErrInvalidSubmission) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
