package practicesession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/keisan-drill/backend/internal/domain/question"
	"github.com/keisan-drill/backend/internal/grader"
)

var (
	ErrConfigUnavailable   = errors.New("configuration unavailable")
	ErrQuestionUnavailable = errors.New("question unavailable")
	ErrInvalidState        = errors.New("operation not valid in current state")
)

// State is where a session is in the question → result → summary cycle.
type State int

const (
	StateAwaitingConfig State = iota
	StatePresenting
	StateJudged
	StateSummarizing
)

func (s State) String() string {
	switch s {
	case StateAwaitingConfig:
		return "awaiting_config"
	case StatePresenting:
		return "presenting"
	case StateJudged:
		return "judged"
	case StateSummarizing:
		return "summarizing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Source supplies configuration and questions, usually over HTTP.
// NextQuestion is given the session's configuration so questions keep
// the type and size the session started with.
type Source interface {
	Configuration(ctx context.Context) (Configuration, error)
	NextQuestion(ctx context.Context, cfg Configuration) (question.Question, error)
}

// Result is one judged question. It is appended once and never changed.
type Result struct {
	question.Question
	Time           float64        `json:"time"`
	UserAnswer     int            `json:"user_answer,omitempty"`
	UserQuotient   int            `json:"user_quotient,omitempty"`
	UserRemainder  int            `json:"user_remainder,omitempty"`
	Judge          grader.Verdict `json:"judge"`
	QuestionNumber int            `json:"question_number"`
}

// Session is one run from configuration load to summary. It is not
// safe for concurrent use; every transition happens on a user action.
type Session struct {
	ID string

	source    Source
	evaluator grader.Evaluator
	now       func() time.Time

	state       State
	config      *Configuration
	current     question.Question
	presentedAt time.Time
	count       int
	results     []Result
	lastJudged  grader.Judgement
}

type Option func(*Session)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithEvaluator(e grader.Evaluator) Option {
	return func(s *Session) { s.evaluator = e }
}

func New(source Source, opts ...Option) *Session {
	s := &Session{
		ID:     uuid.NewString(),
		source: source,
		now:    time.Now,
		state:  StateAwaitingConfig,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadConfiguration fetches the configuration. Failure is not retried.
func (s *Session) LoadConfiguration(ctx context.Context) error {
	if s.state != StateAwaitingConfig || s.config != nil {
		return ErrInvalidState
	}
	cfg, err := s.source.Configuration(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
	}
	s.config = &cfg
	return nil
}

// Advance presents the next question, or moves to the summary once every
// question has been judged. A failed question fetch leaves the state as
// it was.
func (s *Session) Advance(ctx context.Context) (State, error) {
	switch s.state {
	case StateAwaitingConfig:
		if s.config == nil {
			return s.state, ErrInvalidState
		}
	case StateJudged:
	default:
		return s.state, ErrInvalidState
	}

	if s.count >= s.config.NumQuestions {
		s.state = StateSummarizing
		return s.state, nil
	}

	q, err := s.source.NextQuestion(ctx, *s.config)
	if err != nil {
		return s.state, fmt.Errorf("%w: %v", ErrQuestionUnavailable, err)
	}

	s.count++
	s.current = q
	s.presentedAt = s.now()
	s.state = StatePresenting
	return s.state, nil
}

// Submit judges the raw answer for the question on screen.
func (s *Session) Submit(raw string) (Result, error) {
	if s.state != StatePresenting {
		return Result{}, ErrInvalidState
	}

	elapsed := s.now().Sub(s.presentedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	j := s.evaluator.Judge(s.config.QuestionType, raw, s.current)
	res := Result{
		Question:       s.current,
		Time:           elapsed,
		Judge:          j.Verdict,
		QuestionNumber: s.count,
	}
	if s.config.QuestionType == question.Division {
		res.UserQuotient = j.Answer.Quotient
		res.UserRemainder = j.Answer.Remainder
	} else {
		res.UserAnswer = j.Answer.Value
	}

	s.results = append(s.results, res)
	s.lastJudged = j
	s.state = StateJudged
	return res, nil
}

// Restart clears the session so the next LoadConfiguration starts over.
func (s *Session) Restart() error {
	if s.state != StateJudged && s.state != StateSummarizing {
		return ErrInvalidState
	}
	s.state = StateAwaitingConfig
	s.config = nil
	s.current = question.Question{}
	s.count = 0
	s.results = nil
	s.lastJudged = grader.Judgement{}
	return nil
}

func (s *Session) State() State { return s.state }

// Config returns the loaded configuration; ok is false before it is loaded.
func (s *Session) Config() (cfg Configuration, ok bool) {
	if s.config == nil {
		return Configuration{}, false
	}
	return *s.config, true
}

func (s *Session) Current() question.Question { return s.current }

// QuestionNumber is the 1-based number of the question last presented.
func (s *Session) QuestionNumber() int { return s.count }

// LastJudgement is the evaluator output for the latest Submit.
func (s *Session) LastJudgement() grader.Judgement { return s.lastJudged }

func (s *Session) Results() []Result {
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return out
}
