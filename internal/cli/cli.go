// Package cli is the terminal front-end of the drill. Input follows the
// keypad of the web page: digits, "r" (or 余り) for the remainder key and
// "<" for backspace.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	practicesession "github.com/keisan-drill/backend/internal/domain/practice_session"
	"github.com/keisan-drill/backend/internal/grader"
	"github.com/keisan-drill/backend/internal/report"
)

const restartCommand = "restart"

type Runner struct {
	Source  practicesession.Source
	Sink    report.Sink
	Options []practicesession.Option
}

// Run plays sessions until the user declines a restart or input ends.
// Configuration and question failures end the run with the error.
func (r *Runner) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	reporter := report.NewReporter(r.Sink)
	s := practicesession.New(r.Source, r.Options...)

	for {
		if err := s.LoadConfiguration(ctx); err != nil {
			return err
		}
		cfg, _ := s.Config()
		fmt.Fprintf(out, "%sドリル (全%d問)\n", cfg.QuestionType.Label(), cfg.NumQuestions)

		finished, err := playQuestions(ctx, s, reader, out)
		if err != nil {
			return err
		}
		if !finished {
			return nil
		}

		results := s.Results()
		summary, err := report.Summarize(results)
		if err != nil {
			return err
		}
		printSummary(out, summary)
		fmt.Fprintln(out, report.Note(reporter.Report(ctx, cfg.QuestionType, results)))

		fmt.Fprintf(out, "もう一度挑戦するには %s と入力してください: ", restartCommand)
		line, err := readLine(reader)
		if err != nil || strings.TrimSpace(line) != restartCommand {
			return nil
		}
		if err := s.Restart(); err != nil {
			return err
		}
	}
}

// playQuestions returns false when input ends before the summary.
func playQuestions(ctx context.Context, s *practicesession.Session, reader *bufio.Reader, out io.Writer) (bool, error) {
	cfg, _ := s.Config()
	for {
		state, err := s.Advance(ctx)
		if err != nil {
			return false, err
		}
		if state == practicesession.StateSummarizing {
			return true, nil
		}

		fmt.Fprintf(out, "第%d問 / 全%d問: %s\n> ", s.QuestionNumber(), cfg.NumQuestions, s.Current().Prompt)
		line, err := readLine(reader)
		if err != nil {
			fmt.Fprintln(out)
			return false, nil
		}

		if _, err := s.Submit(KeypadInput(line)); err != nil {
			return false, err
		}
		printJudgement(out, s.LastJudgement(), cfg.AddQuestionsOnMistake)
	}
}

func printJudgement(out io.Writer, j grader.Judgement, addOnMistake int) {
	if j.Verdict == grader.Correct {
		fmt.Fprintln(out, "正解！")
		return
	}
	fmt.Fprintf(out, "不正解... 正解は %s です", j.CorrectText)
	if addOnMistake > 0 {
		fmt.Fprintf(out, " (%d問追加)", addOnMistake)
	}
	fmt.Fprintln(out)
}

func printSummary(out io.Writer, s report.Summary) {
	fmt.Fprintf(out, "全%d問中、%d問正解でした。\n", s.Total, s.CorrectCount)
	fmt.Fprintf(out, "正答率: %.1f%%\n", s.Accuracy)
	fmt.Fprintf(out, "平均解答時間: %.2f秒\n", s.AverageTime)
}

// KeypadInput replays a typed line as keypad presses.
func KeypadInput(line string) string {
	line = strings.TrimSpace(line)
	line = strings.ReplaceAll(line, grader.RemainderToken, "r")

	var buf []rune
	for _, c := range line {
		switch c {
		case '<':
			if len(buf) > 0 {
				buf = buf[:len(buf)-1]
			}
		case 'r', 'R':
			buf = append(buf, []rune(grader.RemainderToken)...)
		case ' ', '\t':
		default:
			buf = append(buf, c)
		}
	}
	return string(buf)
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return line, nil
		}
		return "", err
	}
	return line, nil
}
