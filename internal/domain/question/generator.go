package question

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Generator builds questions of the form X × Y + R, where X and Y have
// the requested number of digits (each digit 1-9) and 1 <= R < X.
// Division questions ask for (X×Y+R) ÷ X, whose answer is Y remainder R.
type Generator struct {
	rnd *rand.Rand
}

func NewGenerator() *Generator {
	seed := uint64(time.Now().UnixNano())
	return &Generator{rnd: rand.New(rand.NewPCG(seed, seed>>1))}
}

// NewGeneratorWithRand is used by tests that need a fixed sequence.
func NewGeneratorWithRand(rnd *rand.Rand) *Generator {
	return &Generator{rnd: rnd}
}

func (g *Generator) Next(t Type, digits int) (Question, error) {
	if digits < 1 || digits > 9 {
		return Question{}, fmt.Errorf("digits must be between 1 and 9, got %d", digits)
	}

	x := g.number(digits)
	y := g.number(digits)
	r := 0
	if x > 1 {
		r = 1 + g.rnd.IntN(x-1)
	}
	z := x*y + r

	switch t {
	case Multiplication:
		return Question{
			Prompt:        fmt.Sprintf("%d × %d + %d = ?", x, y, r),
			CorrectAnswer: z,
		}, nil
	case Division:
		return Question{
			Prompt:           fmt.Sprintf("%d ÷ %d = ? 余り ?", z, x),
			CorrectQuotient:  y,
			CorrectRemainder: r,
		}, nil
	}
	return Question{}, fmt.Errorf("unknown question type %q", t)
}

func (g *Generator) number(digits int) int {
	n := 0
	for i := 0; i < digits; i++ {
		n = n*10 + 1 + g.rnd.IntN(9)
	}
	return n
}
