package grader

import (
	"strconv"
	"strings"

	"github.com/keisan-drill/backend/internal/domain/question"
)

// RemainderToken separates quotient and remainder in a division answer,
// e.g. "12余り3".
const RemainderToken = "余り"

// Verdict is the outcome of judging one answer.
type Verdict string

const (
	Correct   Verdict = "correct"
	Incorrect Verdict = "incorrect"
)

// Label returns the select option name used in Notion.
func (v Verdict) Label() string {
	if v == Correct {
		return "正解"
	}
	return "誤解"
}

// Answer is the user's parsed answer. Multiplication uses Value,
// division uses Quotient and Remainder.
type Answer struct {
	Value     int
	Quotient  int
	Remainder int
}

// Judgement is what Judge returns for one submitted answer.
type Judgement struct {
	Verdict     Verdict
	CorrectText string
	Answer      Answer
}

// Evaluator judges raw keypad input against a question. It never fails:
// input that does not parse counts as 0.
//
// In lenient mode (the zero value) a segment is read like a browser's
// parseInt, so "12abc" is 12. Strict mode only accepts segments made of
// digits alone; anything else is 0.
type Evaluator struct {
	Strict bool
}

func (e Evaluator) Judge(t question.Type, raw string, q question.Question) Judgement {
	if t == question.Division {
		return e.judgeDivision(raw, q)
	}

	value := e.parse(raw)
	verdict := Incorrect
	if value == q.CorrectAnswer {
		verdict = Correct
	}
	return Judgement{
		Verdict:     verdict,
		CorrectText: strconv.Itoa(q.CorrectAnswer),
		Answer:      Answer{Value: value},
	}
}

func (e Evaluator) judgeDivision(raw string, q question.Question) Judgement {
	quotientText, remainderText, _ := strings.Cut(raw, RemainderToken)
	quotient := e.parse(quotientText)
	remainder := e.parse(remainderText)

	verdict := Incorrect
	if quotient == q.CorrectQuotient && remainder == q.CorrectRemainder {
		verdict = Correct
	}
	return Judgement{
		Verdict:     verdict,
		CorrectText: DivisionText(q.CorrectQuotient, q.CorrectRemainder),
		Answer:      Answer{Quotient: quotient, Remainder: remainder},
	}
}

// DivisionText renders a quotient/remainder pair the way results show it.
func DivisionText(quotient, remainder int) string {
	return strconv.Itoa(quotient) + " " + RemainderToken + " " + strconv.Itoa(remainder)
}

func (e Evaluator) parse(s string) int {
	if e.Strict {
		return parseDigits(s)
	}
	return parseLeadingInt(s)
}

func parseDigits(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func parseLeadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
