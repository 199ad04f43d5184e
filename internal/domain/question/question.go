package question

import (
	"fmt"
	"strings"
)

// Type is the arithmetic drill a session runs.
type Type string

const (
	Multiplication Type = "multiplication"
	Division       Type = "division"
)

// ParseType accepts the English names and the labels written by the
// settings editor (掛け算 / 割り算).
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "multiplication", "掛け算":
		return Multiplication, nil
	case "division", "割り算":
		return Division, nil
	}
	return "", fmt.Errorf("unknown question type %q", s)
}

// Label returns the Japanese name used in Notion pages.
func (t Type) Label() string {
	if t == Division {
		return "割り算"
	}
	return "掛け算"
}

func (t Type) Valid() bool {
	return t == Multiplication || t == Division
}

// Question is one generated problem. Multiplication questions carry
// CorrectAnswer; division questions carry CorrectQuotient and
// CorrectRemainder.
type Question struct {
	Prompt           string `json:"display_question" example:"123 × 456 + 78 = ?"`
	CorrectAnswer    int    `json:"correct_answer,omitempty" example:"56166"`
	CorrectQuotient  int    `json:"correct_quotient,omitempty"`
	CorrectRemainder int    `json:"correct_remainder,omitempty"`
}
