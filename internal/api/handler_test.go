package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/keisan-drill/backend/internal/api"
	"github.com/keisan-drill/backend/internal/domain/question"
	"github.com/keisan-drill/backend/internal/infrastructure/config"
	"github.com/keisan-drill/backend/internal/service"
	"github.com/keisan-drill/backend/internal/store"
)

type fixedSettings config.QuizSettings

func (f fixedSettings) Current() config.QuizSettings { return config.QuizSettings(f) }

type testServer struct {
	handler http.Handler
	store   store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	quiz := service.NewQuizService(fixedSettings{
		Type:                  question.Division,
		NumDigits:             2,
		AddQuestionsOnMistake: 1,
		NumQuestions:          5,
	}, nil)
	reports := service.NewReportService(st, nil, service.ReportOptions{}, logger)
	t.Cleanup(reports.Close)

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, api.NewHandler(quiz, reports, st, logger))
	return &testServer{
		handler: api.Logging(logger)(api.CORS(nil)(mux)),
		store:   st,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestGetConfig(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, "/config", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decode[map[string]any](t, rec)
	if got["question_type"] != "division" || got["num_questions"] != float64(5) || got["add_questions_on_mistake"] != float64(1) {
		t.Errorf("unexpected config %v", got)
	}
}

func TestGenerateQuestion(t *testing.T) {
	srv := newTestServer(t)

	if rec := srv.do(t, http.MethodGet, "/generate_question", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", rec.Code)
	}

	rec := srv.do(t, http.MethodPost, "/generate_question", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	q := decode[question.Question](t, rec)
	if q.Prompt == "" || q.CorrectQuotient < 11 {
		t.Errorf("expected a two-digit division question, got %+v", q)
	}
}

func TestGenerateQuestion_UsesSessionConfiguration(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/generate_question", `{"question_type":"multiplication","num_digits":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	q := decode[question.Question](t, rec)
	if !strings.Contains(q.Prompt, "×") || q.CorrectAnswer < 1 || q.CorrectAnswer > 89 {
		t.Errorf("expected a one-digit multiplication question despite division settings, got %+v", q)
	}
}

func TestGenerateQuestion_BadRequests(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []string{
		`{"question_type":`,
		`{"question_type":"subtraction"}`,
		`{"num_digits":12}`,
	} {
		if rec := srv.do(t, http.MethodPost, "/generate_question", body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

const validSubmission = `{
	"question_type": "multiplication",
	"questions": [
		{"display_question": "7 × 8 + 0 = ?", "correct_answer": 56, "time": 2.5,
		 "user_answer": 56, "judge": "correct", "question_number": 1}
	]
}`

func TestSubmitSession(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodPost, "/submit_session", validSubmission)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[api.SubmitSessionResponse](t, rec)
	if !resp.Success || resp.UploadID == "" {
		t.Fatalf("unexpected response %+v", resp)
	}

	rec = srv.do(t, http.MethodGet, "/uploads/"+resp.UploadID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	u := decode[api.UploadResponse](t, rec)
	if u.Status != store.StatusPending || u.QuestionCount != 1 || u.QuestionType != question.Multiplication {
		t.Errorf("unexpected upload %+v", u)
	}
}

func TestSubmitSession_BadRequests(t *testing.T) {
	srv := newTestServer(t)
	cases := map[string]string{
		"malformed":    `{"question_type":`,
		"unknown type": `{"question_type": "addition", "questions": [{"time": 1}]}`,
		"empty":        `{"question_type": "division", "questions": []}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/submit_session", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			resp := decode[api.SubmitSessionResponse](t, rec)
			if resp.Success || resp.Error == "" {
				t.Errorf("expected failure with message, got %+v", resp)
			}
		})
	}
}

func TestListUploads(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodPost, "/submit_session", validSubmission)
	srv.do(t, http.MethodPost, "/submit_session", validSubmission)

	rec := srv.do(t, http.MethodGet, "/uploads?status=pending", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decode[[]api.UploadResponse](t, rec); len(got) != 2 {
		t.Errorf("expected 2 pending uploads, got %d", len(got))
	}

	rec = srv.do(t, http.MethodGet, "/uploads?status=done", "")
	if got := decode[[]api.UploadResponse](t, rec); len(got) != 0 {
		t.Errorf("expected no done uploads, got %d", len(got))
	}

	if rec := srv.do(t, http.MethodGet, "/uploads?status=weird", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown status, got %d", rec.Code)
	}
}

func TestGetUpload_NotFound(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, "/uploads/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestRetryUploads_Disabled(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodPost, "/uploads/retry", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decode[service.RetryStats](t, rec); got.Attempted != 0 {
		t.Errorf("expected no attempts while upload is disabled, got %+v", got)
	}
}

func TestHealthAndCORS(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard CORS origin, got %q", got)
	}
}
