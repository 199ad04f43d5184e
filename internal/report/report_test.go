package report_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	practicesession "github.com/keisan-drill/backend/internal/domain/practice_session"
	"github.com/keisan-drill/backend/internal/domain/question"
	"github.com/keisan-drill/backend/internal/grader"
	"github.com/keisan-drill/backend/internal/report"
)

func results(verdicts []grader.Verdict, times []float64) []practicesession.Result {
	out := make([]practicesession.Result, len(verdicts))
	for i := range verdicts {
		out[i] = practicesession.Result{Judge: verdicts[i], Time: times[i], QuestionNumber: i + 1}
	}
	return out
}

func TestSummarize(t *testing.T) {
	rs := results(
		[]grader.Verdict{grader.Correct, grader.Incorrect, grader.Correct, grader.Correct},
		[]float64{1.5, 2.5, 3, 1},
	)

	s, err := report.Summarize(rs)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s.Total != 4 || s.CorrectCount != 3 {
		t.Errorf("expected 3/4, got %d/%d", s.CorrectCount, s.Total)
	}
	if s.Accuracy != 75 {
		t.Errorf("expected accuracy 75, got %v", s.Accuracy)
	}
	if s.TotalTime != 8 || s.AverageTime != 2 {
		t.Errorf("expected total 8 and average 2, got %v and %v", s.TotalTime, s.AverageTime)
	}

	again, _ := report.Summarize(rs)
	if again != s {
		t.Errorf("expected identical summary, got %+v and %+v", s, again)
	}
}

func TestSummarize_Fractional(t *testing.T) {
	rs := results(
		[]grader.Verdict{grader.Correct, grader.Incorrect, grader.Incorrect},
		[]float64{1, 1, 1},
	)
	s, _ := report.Summarize(rs)
	if math.Abs(s.Accuracy-100.0/3) > 1e-9 {
		t.Errorf("expected 33.33.., got %v", s.Accuracy)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if _, err := report.Summarize(nil); !errors.Is(err, report.ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}
}

type fakeSink struct {
	ok    bool
	err   error
	calls int
	got   report.Payload
}

func (f *fakeSink) SubmitSession(_ context.Context, p report.Payload) (bool, error) {
	f.calls++
	f.got = p
	return f.ok, f.err
}

func TestReporter_Success(t *testing.T) {
	sink := &fakeSink{ok: true}
	rs := results([]grader.Verdict{grader.Correct}, []float64{2})

	err := report.NewReporter(sink).Report(context.Background(), question.Division, rs)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if sink.calls != 1 {
		t.Errorf("expected 1 call, got %d", sink.calls)
	}
	if sink.got.QuestionType != question.Division || len(sink.got.Questions) != 1 {
		t.Errorf("unexpected payload %+v", sink.got)
	}
	if !strings.Contains(report.Note(err), "upload scheduled") {
		t.Errorf("unexpected note %q", report.Note(err))
	}
}

func TestReporter_ServerFailure(t *testing.T) {
	sink := &fakeSink{ok: false}
	err := report.NewReporter(sink).Report(context.Background(), question.Multiplication, nil)

	if !errors.Is(err, report.ErrReportUploadFailed) {
		t.Fatalf("expected ErrReportUploadFailed, got %v", err)
	}
	if errors.Is(err, report.ErrSinkUnreachable) {
		t.Error("success=false must not count as unreachable")
	}
	if sink.calls != 1 {
		t.Errorf("expected exactly one attempt, got %d", sink.calls)
	}
	if sink.got.Questions == nil {
		t.Error("expected empty questions slice, got nil")
	}
	if !strings.Contains(report.Note(err), "retries") {
		t.Errorf("unexpected note %q", report.Note(err))
	}
}

func TestReporter_Unreachable(t *testing.T) {
	sink := &fakeSink{err: errors.New("dial tcp: connection refused")}
	err := report.NewReporter(sink).Report(context.Background(), question.Multiplication, nil)

	if !errors.Is(err, report.ErrReportUploadFailed) || !errors.Is(err, report.ErrSinkUnreachable) {
		t.Fatalf("expected upload failure wrapping unreachable, got %v", err)
	}
	if sink.calls != 1 {
		t.Errorf("expected exactly one attempt, got %d", sink.calls)
	}
	if !strings.Contains(report.Note(err), "could not reach") {
		t.Errorf("unexpected note %q", report.Note(err))
	}
}
