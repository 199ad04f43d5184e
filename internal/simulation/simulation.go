// simulation/simulation.go
package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"

	practicesession "github.com/keisan-drill/backend/internal/domain/practice_session"
	"github.com/keisan-drill/backend/internal/domain/question"
	"github.com/keisan-drill/backend/internal/grader"
	"github.com/keisan-drill/backend/internal/report"
	"github.com/keisan-drill/backend/internal/worker"
)

// Options control a simulated run. Accuracy is the chance, 0..1, that a
// simulated player answers a question correctly.
type Options struct {
	Sessions int
	Workers  int
	Accuracy float64
}

// Outcome is what one simulated session produced.
type Outcome struct {
	SessionID string
	Summary   report.Summary
	Err       error // session could not complete
	ReportErr error // session completed but the report failed
}

// Run plays opts.Sessions complete sessions concurrently against source
// and reports each one to sink, the same way the terminal client does.
func Run(ctx context.Context, source practicesession.Source, sink report.Sink, opts Options) []Outcome {
	if opts.Sessions < 1 {
		return nil
	}
	pool := worker.NewPool[Outcome](opts.Workers, opts.Sessions)
	defer pool.Close()

	reporter := report.NewReporter(sink)
	for i := 0; i < opts.Sessions; i++ {
		pool.Submit(strconv.Itoa(i), func() Outcome {
			return playSession(ctx, source, reporter, opts.Accuracy)
		})
	}

	outcomes := make([]Outcome, 0, opts.Sessions)
	for i := 0; i < opts.Sessions; i++ {
		res := <-pool.Results()
		outcomes = append(outcomes, res.Output)
	}
	return outcomes
}

func playSession(ctx context.Context, source practicesession.Source, reporter *report.Reporter, accuracy float64) Outcome {
	s := practicesession.New(source)
	out := Outcome{SessionID: s.ID}

	if err := s.LoadConfiguration(ctx); err != nil {
		out.Err = err
		return out
	}
	cfg, _ := s.Config()

	for {
		state, err := s.Advance(ctx)
		if err != nil {
			out.Err = err
			return out
		}
		if state == practicesession.StateSummarizing {
			break
		}
		if _, err := s.Submit(Answer(cfg.QuestionType, s.Current(), rand.Float64() < accuracy)); err != nil {
			out.Err = err
			return out
		}
	}

	results := s.Results()
	summary, err := report.Summarize(results)
	if err != nil {
		out.Err = err
		return out
	}
	out.Summary = summary
	out.ReportErr = reporter.Report(ctx, cfg.QuestionType, results)
	return out
}

// Answer types what a player would enter: the right answer, or one that
// is off by one.
func Answer(t question.Type, q question.Question, correct bool) string {
	miss := 0
	if !correct {
		miss = 1
	}
	if t == question.Division {
		return fmt.Sprintf("%d%s%d", q.CorrectQuotient+miss, grader.RemainderToken, q.CorrectRemainder)
	}
	return strconv.Itoa(q.CorrectAnswer + miss)
}
