package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/keisan-drill/backend/internal/domain/question"
)

// QuizSettings is what the settings file controls. It is the JSON file
// the config editor writes: TYPE, NUM_DIGITS, ADD_QUESTIONS_ON_MISTAKE,
// NUM_QUESTIONS, MAX_QUESTIONS and DEBUG.
type QuizSettings struct {
	Type                  question.Type
	NumDigits             int
	AddQuestionsOnMistake int
	NumQuestions          int
	MaxQuestions          int
	Debug                 bool
}

// Settings holds the current QuizSettings and reloads them when the
// file changes. Readers always see a complete snapshot.
type Settings struct {
	v      *viper.Viper
	exists bool

	mu      sync.RWMutex
	current QuizSettings
}

// LoadSettings reads the JSON settings file at path. A missing file
// yields the defaults. Every key can be overridden with DRILL_<KEY>.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetDefault("type", question.Multiplication.Label())
	v.SetDefault("num_digits", 3)
	v.SetDefault("add_questions_on_mistake", 1)
	v.SetDefault("num_questions", 10)
	v.SetDefault("max_questions", 100)
	v.SetDefault("debug", false)

	v.SetEnvPrefix("DRILL")
	v.AutomaticEnv()

	s := &Settings{v: v}
	if err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) read() error {
	err := s.v.ReadInConfig()
	switch {
	case err == nil:
		s.exists = true
	case errors.Is(err, fs.ErrNotExist):
		s.exists = false
	default:
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error loading settings file: %w", err)
		}
		s.exists = false
	}

	qs, err := decode(s.v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = qs
	s.mu.Unlock()
	return nil
}

// Reload re-reads the file. On error the previous settings stay in force.
func (s *Settings) Reload() error {
	return s.read()
}

// Watch applies file changes to subsequent Current calls.
func (s *Settings) Watch(logger *slog.Logger) {
	if !s.exists {
		logger.Info("settings file not found, using defaults", "path", s.v.ConfigFileUsed())
		return
	}
	s.v.OnConfigChange(func(e fsnotify.Event) {
		qs, err := decode(s.v)
		if err != nil {
			logger.Error("settings reload rejected", "path", e.Name, "error", err)
			return
		}
		s.mu.Lock()
		s.current = qs
		s.mu.Unlock()
		logger.Info("settings reloaded",
			"type", qs.Type,
			"num_questions", qs.NumQuestions,
			"num_digits", qs.NumDigits,
		)
	})
	s.v.WatchConfig()
}

func (s *Settings) Current() QuizSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func decode(v *viper.Viper) (QuizSettings, error) {
	t, err := question.ParseType(v.GetString("type"))
	if err != nil {
		return QuizSettings{}, fmt.Errorf("settings: %w", err)
	}

	qs := QuizSettings{
		Type:                  t,
		NumDigits:             v.GetInt("num_digits"),
		AddQuestionsOnMistake: v.GetInt("add_questions_on_mistake"),
		NumQuestions:          v.GetInt("num_questions"),
		MaxQuestions:          v.GetInt("max_questions"),
		Debug:                 v.GetBool("debug"),
	}

	if qs.NumDigits < 1 || qs.NumDigits > 9 {
		return QuizSettings{}, fmt.Errorf("settings: NUM_DIGITS must be between 1 and 9, got %d", qs.NumDigits)
	}
	if qs.NumQuestions < 1 {
		return QuizSettings{}, fmt.Errorf("settings: NUM_QUESTIONS must be positive, got %d", qs.NumQuestions)
	}
	if qs.AddQuestionsOnMistake < 0 {
		qs.AddQuestionsOnMistake = 0
	}
	if qs.MaxQuestions > 0 && qs.NumQuestions > qs.MaxQuestions {
		qs.NumQuestions = qs.MaxQuestions
	}
	return qs, nil
}
