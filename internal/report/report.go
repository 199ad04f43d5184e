// Package report scores a finished session and hands the record set to
// the reporting endpoint.
package report

import (
	"context"
	"errors"
	"fmt"

	practicesession "github.com/keisan-drill/backend/internal/domain/practice_session"
	"github.com/keisan-drill/backend/internal/domain/question"
	"github.com/keisan-drill/backend/internal/grader"
)

var (
	ErrNoResults          = errors.New("no results to summarize")
	ErrReportUploadFailed = errors.New("report upload failed")
)

// Summary is derived from the results and never stored.
type Summary struct {
	Total        int     `json:"total"`
	CorrectCount int     `json:"correct_count"`
	Accuracy     float64 `json:"accuracy"`     // percent, 0..100
	AverageTime  float64 `json:"average_time"` // seconds
	TotalTime    float64 `json:"total_time"`   // seconds
}

func Summarize(results []practicesession.Result) (Summary, error) {
	if len(results) == 0 {
		return Summary{}, ErrNoResults
	}

	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Judge == grader.Correct {
			s.CorrectCount++
		}
		s.TotalTime += r.Time
	}
	s.Accuracy = float64(s.CorrectCount) / float64(s.Total) * 100
	s.AverageTime = s.TotalTime / float64(s.Total)
	return s, nil
}

// Payload is the body of POST /submit_session.
type Payload struct {
	QuestionType question.Type            `json:"question_type"`
	Questions    []practicesession.Result `json:"questions"`
}

// Sink delivers a payload. ok is the server's success flag.
type Sink interface {
	SubmitSession(ctx context.Context, p Payload) (ok bool, err error)
}

// ErrSinkUnreachable is wrapped into the report error when the sink could
// not be reached at all, as opposed to answering success=false.
var ErrSinkUnreachable = errors.New("reporting endpoint unreachable")

type Reporter struct {
	sink Sink
}

func NewReporter(sink Sink) *Reporter {
	return &Reporter{sink: sink}
}

// Report sends the full result set exactly once.
func (r *Reporter) Report(ctx context.Context, qt question.Type, results []practicesession.Result) error {
	p := Payload{QuestionType: qt, Questions: results}
	if p.Questions == nil {
		p.Questions = []practicesession.Result{}
	}

	ok, err := r.sink.SubmitSession(ctx, p)
	if err != nil {
		return fmt.Errorf("%w: %w: %v", ErrReportUploadFailed, ErrSinkUnreachable, err)
	}
	if !ok {
		return fmt.Errorf("%w: server reported failure", ErrReportUploadFailed)
	}
	return nil
}

// Note turns the outcome of Report into the line shown under the summary.
func Note(err error) string {
	switch {
	case err == nil:
		return "結果をアップロードしました (upload scheduled)"
	case errors.Is(err, ErrSinkUnreachable):
		return "サーバーに接続できませんでした (could not reach the server)"
	default:
		return "アップロードに失敗しました。サーバー側で再試行されます (upload failed, the server keeps the data and retries)"
	}
}
