package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scholardesk/scholardesk-backend/internal/pkg/apierr"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

// Request carries one question to the answering backend. History holds the
// recent turns of the session, oldest first.
type Request struct {
	DocumentID  uuid.UUID     `json:"document_id"`
	Question    string        `json:"question"`
	Mode        string        `json:"mode,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxSources  int           `json:"max_sources,omitempty"`
	History     []HistoryTurn `json:"history,omitempty"`
}

type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Source struct {
	Type       string  `json:"type"`
	Title      string  `json:"title"`
	URL        string  `json:"url,omitempty"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
	DocumentID string  `json:"document_id,omitempty"`
}

type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

type Result struct {
	Answer     string     `json:"answer"`
	Confidence float64    `json:"confidence"`
	SourceType string     `json:"source_type"`
	Sources    []Source   `json:"sources"`
	TokenUsage TokenUsage `json:"token_usage"`
}

// Client produces answers for document questions. Errors are returned as
// typed apierr values so the gateway can decide between failing and falling
// back.
type Client interface {
	AnswerQuestion(ctx context.Context, req Request) (Result, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	baseURL := strings.TrimSpace(os.Getenv("ANSWER_BASE_URL"))
	if baseURL == "" {
		return nil, fmt.Errorf("missing ANSWER_BASE_URL")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &client{
		log:     log.With("service", "AnswerClient"),
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(os.Getenv("ANSWER_API_KEY")),
		// The per-question deadline comes in on ctx; this timeout is only a
		// backstop against a missing deadline.
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

func (c *client) AnswerQuestion(ctx context.Context, req Request) (Result, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return Result{}, apierr.Unavailable(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/answer", &buf)
	if err != nil {
		return Result{}, apierr.Unavailable(err)
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, apierr.Timeout(err)
		}
		return Result{}, apierr.Unavailable(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, apierr.Unavailable(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, apierr.Unavailable(fmt.Errorf("answer backend http %d: %s", resp.StatusCode, string(raw)))
	}

	var out Result
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result{}, apierr.Unavailable(fmt.Errorf("answer backend decode error: %w", err))
	}
	return out, nil
}
