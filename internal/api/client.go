package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"interviewcoach/internal/models"
)

// ServerError carries a non-2xx response from the backend. The message is
// the server-provided error text when present, or a generic fallback.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Client talks to the interview backend. Session credentials are cookie
// based and carried automatically by the client's cookie jar.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a backend client with its own cookie jar
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		logger: logger,
	}, nil
}

// StartQuestionResponse is returned by the start/next-question endpoint
type StartQuestionResponse struct {
	TestID     string `json:"testId"`
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
}

// AnswerResponse is the backend's per-answer evaluation
type AnswerResponse struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// VoiceResponse is the backend's evaluation of an uploaded recording
type VoiceResponse struct {
	Transcript   string  `json:"transcript"`
	ContentScore float64 `json:"contentScore"`
	GrammarScore float64 `json:"grammarScore"`
	FluencyScore float64 `json:"fluencyScore"`
	KeywordScore float64 `json:"keywordScore"`
	ClarityScore float64 `json:"clarityScore"`
	OverallScore float64 `json:"overallScore"`
	Feedback     string  `json:"feedback"`
}

// completedQuestion mirrors one answered question in the completion payload
type completedQuestion struct {
	Question   string  `json:"question"`
	UserAnswer string  `json:"userAnswer"`
	Score      float64 `json:"score"`
	Feedback   string  `json:"feedback"`
	TimeSpent  int     `json:"timeSpent"`
}

// StartQuestion requests the first or next question for a topic/difficulty
func (c *Client) StartQuestion(ctx context.Context, topic string, difficulty models.Difficulty) (*StartQuestionResponse, error) {
	body := map[string]string{
		"topic":      topic,
		"difficulty": string(difficulty),
	}

	var resp StartQuestionResponse
	if err := c.postJSON(ctx, "/api/interview/start", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch question: %w", err)
	}

	return &resp, nil
}

// SubmitAnswer submits a text (or voice-derived) answer for scoring
func (c *Client) SubmitAnswer(ctx context.Context, questionID, answer, testID string, questionNumber int) (*AnswerResponse, error) {
	body := map[string]interface{}{
		"questionId":     questionID,
		"answer":         answer,
		"testId":         testID,
		"questionNumber": questionNumber,
	}

	var resp AnswerResponse
	if err := c.postJSON(ctx, "/api/interview/answer", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to submit answer: %w", err)
	}

	return &resp, nil
}

// SubmitVoice uploads a recorded answer as multipart form data and returns
// the backend's voice evaluation
func (c *Client) SubmitVoice(ctx context.Context, audio []byte, questionID, testID string, questionNumber int) (*VoiceResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "voice.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to write audio payload: %w", err)
	}

	fields := map[string]string{
		"questionId":     questionID,
		"testId":         testID,
		"questionNumber": strconv.Itoa(questionNumber),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/interview/voice", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp VoiceResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("failed to submit voice answer: %w", err)
	}

	return &resp, nil
}

// CompleteSession persists the session summary on the backend
func (c *Client) CompleteSession(ctx context.Context, summary models.SessionSummary) error {
	questions := make([]completedQuestion, len(summary.Records))
	for i, r := range summary.Records {
		questions[i] = completedQuestion{
			Question:   r.Question.Text,
			UserAnswer: r.SubmittedText,
			Score:      r.Score,
			Feedback:   r.Feedback,
			TimeSpent:  r.ElapsedSeconds,
		}
	}

	body := map[string]interface{}{
		"topic":        summary.Topic,
		"difficulty":   string(summary.Difficulty),
		"averageScore": summary.AverageScore,
		"totalTime":    summary.TotalElapsedSeconds,
		"questions":    questions,
	}

	if err := c.postJSON(ctx, "/api/interview/complete", body, nil); err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}

	return nil
}

// Login authenticates against the backend, which responds by setting the
// session cookie on this client's jar
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	if err := c.postJSON(ctx, "/api/auth/login", body, nil); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	return nil
}

// Logout clears the backend session
func (c *Client) Logout(ctx context.Context) error {
	if err := c.postJSON(ctx, "/api/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	return nil
}

// SessionCookie returns the raw session cookie value held in the jar for
// the backend host, or an empty string when none is present
func (c *Client) SessionCookie(name string) string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}

	for _, cookie := range c.httpClient.Jar.Cookies(u) {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

// postJSON sends a JSON POST and decodes the response into out (when non-nil)
func (c *Client) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// do executes a request, maps non-2xx responses to ServerError and decodes
// successful JSON bodies into out (when non-nil)
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("backend request failed",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode))
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    extractErrorMessage(data),
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// extractErrorMessage pulls the server-provided message out of an error
// payload, falling back to a generic message
func extractErrorMessage(data []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return "request failed"
}
