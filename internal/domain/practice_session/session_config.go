package practicesession

import (
	"errors"
	"fmt"

	"github.com/keisan-drill/backend/internal/domain/question"
)

// Configuration is fetched once per session and never changes after that.
type Configuration struct {
	QuestionType          question.Type `json:"question_type" example:"multiplication"`
	NumQuestions          int           `json:"num_questions" example:"10"`
	AddQuestionsOnMistake int           `json:"add_questions_on_mistake" example:"1"` // display hint only
	NumDigits             int           `json:"num_digits,omitempty" example:"3"`
}

// DefaultConfig mirrors the defaults of the settings file.
func DefaultConfig() Configuration {
	return Configuration{
		QuestionType:          question.Multiplication,
		NumQuestions:          10,
		AddQuestionsOnMistake: 1,
		NumDigits:             3,
	}
}

func (c Configuration) Validate() error {
	if !c.QuestionType.Valid() {
		return fmt.Errorf("invalid question_type %q", c.QuestionType)
	}
	if c.NumQuestions < 1 {
		return errors.New("num_questions must be positive")
	}
	if c.AddQuestionsOnMistake < 0 {
		return errors.New("add_questions_on_mistake must not be negative")
	}
	return nil
}
