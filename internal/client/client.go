// Package client talks to the question server on behalf of a quiz session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	practicesession "github.com/keisan-drill/backend/internal/domain/practice_session"
	"github.com/keisan-drill/backend/internal/domain/question"
	"github.com/keisan-drill/backend/internal/report"
)

// DefaultBaseURL is used when NewHTTPClient is given an empty URL.
const DefaultBaseURL = "http://127.0.0.1:5000"

var (
	ErrServiceUnavailable = errors.New("question server unavailable")
	ErrMalformedResponse  = errors.New("malformed response")
)

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// HTTPClient implements practicesession.Source and report.Sink.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var (
	_ practicesession.Source = (*HTTPClient)(nil)
	_ report.Sink            = (*HTTPClient)(nil)
)

type errorResponse struct {
	Error string `json:"error"`
}

type questionRequest struct {
	QuestionType question.Type `json:"question_type,omitempty"`
	NumDigits    int           `json:"num_digits,omitempty"`
}

type submitResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *HTTPClient) Configuration(ctx context.Context) (practicesession.Configuration, error) {
	var cfg practicesession.Configuration
	if err := c.doJSON(ctx, http.MethodGet, "/config", nil, &cfg); err != nil {
		return practicesession.Configuration{}, err
	}
	return cfg, nil
}

// NextQuestion asks for a question of the session's type and size, so a
// settings change on the server does not affect a running session.
func (c *HTTPClient) NextQuestion(ctx context.Context, cfg practicesession.Configuration) (question.Question, error) {
	req := questionRequest{QuestionType: cfg.QuestionType, NumDigits: cfg.NumDigits}
	var q question.Question
	if err := c.doJSON(ctx, http.MethodPost, "/generate_question", req, &q); err != nil {
		return question.Question{}, err
	}
	if strings.TrimSpace(q.Prompt) == "" {
		return question.Question{}, errors.New("server returned an empty question")
	}
	return q, nil
}

// SubmitSession posts the full record set. A non-2xx reply or a body
// that does not decode is reported as ok=false rather than an error.
func (c *HTTPClient) SubmitSession(ctx context.Context, p report.Payload) (bool, error) {
	var resp submitResponse
	err := c.doJSON(ctx, http.MethodPost, "/submit_session", p, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) || errors.Is(err, ErrMalformedResponse) {
			return false, nil
		}
		return false, err
	}
	return resp.Success, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
			apiErr.Message = payload.Error
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return &apiErr
	}

	if responseBody == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(responseBody); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, path, err)
	}
	return nil
}
