package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	practicesession "github.com/keisan-drill/backend/internal/domain/practice_session"
	"github.com/keisan-drill/backend/internal/domain/question"
	"github.com/keisan-drill/backend/internal/grader"
	"github.com/keisan-drill/backend/internal/report"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func unreachableClient() *HTTPClient {
	return NewHTTPClient("http://example.test", &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial error")
		}),
	})
}

func TestDoJSONReturnsServiceUnavailable(t *testing.T) {
	err := unreachableClient().doJSON(context.Background(), http.MethodGet, "/config", nil, nil)
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable wrapper, got %v", err)
	}
}

func TestDoJSONReturnsAPIErrorMessageFromBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: "settings unreadable"})
	}))
	defer server.Close()

	err := NewHTTPClient(server.URL, server.Client()).doJSON(context.Background(), http.MethodGet, "/config", nil, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status code = %d, want %d", apiErr.StatusCode, http.StatusInternalServerError)
	}
	if apiErr.Message != "settings unreadable" {
		t.Fatalf("message = %q, want %q", apiErr.Message, "settings unreadable")
	}
}

func TestConfigurationParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/config" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"question_type":"division","num_questions":5,"add_questions_on_mistake":2,"num_digits":1}`))
	}))
	defer server.Close()

	cfg, err := NewHTTPClient(server.URL, server.Client()).Configuration(context.Background())
	if err != nil {
		t.Fatalf("configuration: %v", err)
	}
	want := practicesession.Configuration{
		QuestionType:          question.Division,
		NumQuestions:          5,
		AddQuestionsOnMistake: 2,
		NumDigits:             1,
	}
	if cfg != want {
		t.Fatalf("config = %+v, want %+v", cfg, want)
	}
}

func TestNextQuestionPostsAndParses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/generate_question" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body questionRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.QuestionType != question.Division || body.NumDigits != 1 {
			t.Fatalf("request body = %+v, want division/1", body)
		}
		_, _ = w.Write([]byte(`{"display_question":"27 ÷ 5 = ? 余り ?","correct_quotient":5,"correct_remainder":2}`))
	}))
	defer server.Close()

	cfg := practicesession.Configuration{QuestionType: question.Division, NumQuestions: 5, NumDigits: 1}
	q, err := NewHTTPClient(server.URL, server.Client()).NextQuestion(context.Background(), cfg)
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if q.Prompt != "27 ÷ 5 = ? 余り ?" || q.CorrectQuotient != 5 || q.CorrectRemainder != 2 {
		t.Fatalf("unexpected question %+v", q)
	}
}

func TestNextQuestionRejectsEmptyPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	if _, err := NewHTTPClient(server.URL, server.Client()).NextQuestion(context.Background(), practicesession.DefaultConfig()); err == nil {
		t.Fatal("expected error for empty question")
	}
}

func TestSubmitSessionSendsPayload(t *testing.T) {
	var got report.Payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/submit_session" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	payload := report.Payload{
		QuestionType: question.Multiplication,
		Questions: []practicesession.Result{{
			Question:       question.Question{Prompt: "7 × 8 + 0 = ?", CorrectAnswer: 56},
			Time:           2.5,
			UserAnswer:     56,
			Judge:          grader.Correct,
			QuestionNumber: 1,
		}},
	}

	ok, err := NewHTTPClient(server.URL, server.Client()).SubmitSession(context.Background(), payload)
	if err != nil || !ok {
		t.Fatalf("submit = %v, %v", ok, err)
	}
	if got.QuestionType != question.Multiplication || len(got.Questions) != 1 {
		t.Fatalf("unexpected payload %+v", got)
	}
	if got.Questions[0] != payload.Questions[0] {
		t.Fatalf("result = %+v, want %+v", got.Questions[0], payload.Questions[0])
	}
}

func TestSubmitSessionServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"error":"bad payload"}`))
	}))
	defer server.Close()

	ok, err := NewHTTPClient(server.URL, server.Client()).SubmitSession(context.Background(), report.Payload{})
	if err != nil || ok {
		t.Fatalf("submit = %v, %v; want false, nil", ok, err)
	}
}

func TestSubmitSessionUnreachable(t *testing.T) {
	ok, err := unreachableClient().SubmitSession(context.Background(), report.Payload{})
	if ok || !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("submit = %v, %v; want ErrServiceUnavailable", ok, err)
	}
}

func TestSubmitSessionMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer server.Close()

	ok, err := NewHTTPClient(server.URL, server.Client()).SubmitSession(context.Background(), report.Payload{})
	if err != nil || ok {
		t.Fatalf("submit = %v, %v; want false, nil", ok, err)
	}
}

func TestConfigurationMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"question_type":`))
	}))
	defer server.Close()

	_, err := NewHTTPClient(server.URL, server.Client()).Configuration(context.Background())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}
