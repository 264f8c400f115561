package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/dto"
)

// Vehicle identifies the car a report is about.
type Vehicle struct {
	Year    int
	Make    string
	Model   string
	Mileage int
}

func (v Vehicle) String() string {
	return fmt.Sprintf("%d %s %s (%d miles)", v.Year, v.Make, v.Model, v.Mileage)
}

// ReportGenerator produces the full, untiered report for a vehicle.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, v Vehicle) (*dto.ReportResponse, error)
}

const reportSystemPrompt = `You are an automotive reliability analyst. Reply with JSON only, matching:
{"overallScore": 0-100,
 "categories": {"engine": 0-100, "transmission": 0-100, "electricalSystem": 0-100, "brakes": 0-100, "suspension": 0-100, "fuelSystem": 0-100},
 "commonIssues": [{"description": "", "costToFix": "", "occurrence": "", "mileage": ""}],
 "aiAnalysis": "two or three paragraphs"}`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// retryableError marks failures worth another attempt: transport errors,
// 429 and 5xx.
type retryableError struct{ err error }

func (e retryableError) Error() string { return e.err.Error() }
func (e retryableError) Unwrap() error { return e.err }

// ChatCompletionClient calls an OpenAI compatible chat completions endpoint.
type ChatCompletionClient struct {
	cfg        *config.Config
	httpClient *http.Client
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewChatCompletionClient(cfg *config.Config) *ChatCompletionClient {
	timeout := cfg.AITimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChatCompletionClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		sleep:      sleepContext,
	}
}

// GenerateReport makes up to 1+AIMaxRetries attempts with exponential,
// jittered backoff between them.
func (c *ChatCompletionClient) GenerateReport(ctx context.Context, v Vehicle) (*dto.ReportResponse, error) {
	if strings.TrimSpace(c.cfg.OpenAIAPIKey) == "" {
		return nil, fmt.Errorf("%w: AI provider not configured", ErrExternalService)
	}

	attempts := 1 + c.cfg.AIMaxRetries
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := backoff(c.cfg.AIRetryBackoff, attempt)
			slog.Warn("retrying AI report request", "attempt", attempt+1, "wait", wait, "error", lastErr)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
			}
		}

		report, err := c.complete(ctx, v)
		if err == nil {
			return report, nil
		}
		lastErr = err

		var retryable retryableError
		if !errors.As(err, &retryable) {
			break
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrExternalService, lastErr)
}

func (c *ChatCompletionClient) complete(ctx context.Context, v Vehicle) (*dto.ReportResponse, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.OpenAIModel,
		Messages: []chatMessage{
			{Role: "system", Content: reportSystemPrompt},
			{Role: "user", Content: "Vehicle: " + v.String()},
		},
		Temperature:    0.4,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OpenAIAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retryableError{err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, retryableError{err}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, retryableError{fmt.Errorf("AI API error: status %d", resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("AI API error: status %d", resp.StatusCode)
	}

	var completion chatResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("no response from AI")
	}

	return parseReport(completion.Choices[0].Message.Content)
}

// parseReport accepts bare JSON, fenced JSON or JSON embedded in prose.
func parseReport(content string) (*dto.ReportResponse, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var report dto.ReportResponse
	if err := json.Unmarshal([]byte(content), &report); err != nil {
		start := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("failed to parse report: %w", err)
		}
		if err := json.Unmarshal([]byte(content[start:end+1]), &report); err != nil {
			return nil, fmt.Errorf("failed to parse report: %w", err)
		}
	}

	report.OverallScore = clamp(report.OverallScore, 0, 100)
	for _, score := range []*int{
		report.Categories.Engine, report.Categories.Transmission, report.Categories.ElectricalSystem,
		report.Categories.Brakes, report.Categories.Suspension, report.Categories.FuelSystem,
	} {
		if score != nil {
			*score = clamp(*score, 0, 100)
		}
	}
	if report.CommonIssues == nil {
		report.CommonIssues = []dto.CommonIssue{}
	}
	return &report, nil
}

func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	d := base << (attempt - 1)
	return d + time.Duration(rand.Int64N(int64(base)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func clamp(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
