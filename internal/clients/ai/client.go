package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/scholardesk/scholardesk-backend/internal/pkg/httpx"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
)

// ExtractResult is the output of the text extraction stage.
type ExtractResult struct {
	Text       string  `json:"text"`
	WordCount  int     `json:"word_count"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// SummaryResult mirrors the structured summary payload the backend returns.
type SummaryResult struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Abstract    string   `json:"abstract"`
	KeyFindings []string `json:"key_findings"`
	Methodology string   `json:"methodology"`
	Conclusions string   `json:"conclusions"`
	Keywords    []string `json:"keywords"`
	Confidence  float64  `json:"confidence"`
}

// CitationRecord is one raw citation as returned by the extraction backend,
// before normalization.
type CitationRecord struct {
	Type       string   `json:"type"`
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	Year       *int     `json:"year"`
	Journal    string   `json:"journal"`
	Volume     string   `json:"volume"`
	Issue      string   `json:"issue"`
	Pages      string   `json:"pages"`
	Publisher  string   `json:"publisher"`
	DOI        string   `json:"doi"`
	URL        string   `json:"url"`
	ISBN       string   `json:"isbn"`
	Abstract   string   `json:"abstract"`
	Confidence float64  `json:"confidence"`
	Context    string   `json:"context"`
}

type KeywordsResult struct {
	Keywords   []string `json:"keywords"`
	Topics     []string `json:"topics"`
	Confidence float64  `json:"confidence"`
}

// Client talks to the document AI backend used by the processing pipeline.
type Client interface {
	ExtractText(ctx context.Context, fileName, mimeType string, content []byte) (ExtractResult, error)
	Summarize(ctx context.Context, text string, maxLength int) (SummaryResult, error)
	ExtractCitations(ctx context.Context, text string) ([]CitationRecord, error)
	ExtractKeywords(ctx context.Context, text string, topN int) (KeywordsResult, error)
	Health(ctx context.Context) error
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	httpClient *http.Client

	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	baseURL := strings.TrimSpace(os.Getenv("AI_BASE_URL"))
	if baseURL == "" {
		return nil, fmt.Errorf("missing AI_BASE_URL")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	apiKey := strings.TrimSpace(os.Getenv("AI_API_KEY"))

	timeoutSec := 120
	if v := os.Getenv("AI_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 3
	if v := os.Getenv("AI_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:        log.With("service", "AIClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type aiHTTPError struct {
	StatusCode int
	Body       string
}

func (e *aiHTTPError) Error() string {
	return fmt.Sprintf("ai backend http %d: %s", e.StatusCode, e.Body)
}

func (e *aiHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &aiHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("ai backend decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}

		if !httpx.IsRetryableError(err) {
			return err
		}
		if attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("AI backend request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

type extractRequest struct {
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	Content  []byte `json:"content"`
}

func (c *client) ExtractText(ctx context.Context, fileName, mimeType string, content []byte) (ExtractResult, error) {
	var out ExtractResult
	err := c.do(ctx, "POST", "/v1/extract", extractRequest{
		FileName: fileName,
		MimeType: mimeType,
		Content:  content,
	}, &out)
	return out, err
}

type summarizeRequest struct {
	Text      string `json:"text"`
	MaxLength int    `json:"max_length,omitempty"`
}

func (c *client) Summarize(ctx context.Context, text string, maxLength int) (SummaryResult, error) {
	var out SummaryResult
	err := c.do(ctx, "POST", "/v1/summarize", summarizeRequest{Text: text, MaxLength: maxLength}, &out)
	return out, err
}

type citationsRequest struct {
	Text string `json:"text"`
}

type citationsResponse struct {
	Citations []CitationRecord `json:"citations"`
}

func (c *client) ExtractCitations(ctx context.Context, text string) ([]CitationRecord, error) {
	var out citationsResponse
	if err := c.do(ctx, "POST", "/v1/citations", citationsRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return out.Citations, nil
}

type keywordsRequest struct {
	Text string `json:"text"`
	TopN int    `json:"top_n,omitempty"`
}

func (c *client) ExtractKeywords(ctx context.Context, text string, topN int) (KeywordsResult, error) {
	var out KeywordsResult
	err := c.do(ctx, "POST", "/v1/keywords", keywordsRequest{Text: text, TopN: topN}, &out)
	return out, err
}

func (c *client) Health(ctx context.Context) error {
	_, _, err := c.doOnce(ctx, "GET", "/v1/health", nil)
	return err
}
