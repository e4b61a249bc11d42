package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/makereel/api/internal/config"
	"github.com/makereel/api/internal/model"
)

// AnalysisClient handles communication with the video analysis service that
// proposes candidate clips for a scene. The service is an opaque LLM-backed
// boundary; this client only validates the shape of what comes back.
type AnalysisClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	maxAttempts int
	backoffBase time.Duration
	validate    *validator.Validate
}

// AnalyzeRequest is the request body for a candidate-generation call.
type AnalyzeRequest struct {
	Scene          analyzeScene `json:"scene"`
	Video          analyzeVideo `json:"video"`
	Mode           string       `json:"mode"`
	TargetDuration float64      `json:"target_duration"`
	Notes          string       `json:"notes,omitempty"`
	Feedback       string       `json:"feedback,omitempty"`
}

type analyzeScene struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Purpose string `json:"purpose,omitempty"`
	Script  string `json:"script,omitempty"`
}

type analyzeVideo struct {
	ID       string  `json:"id"`
	Filename string  `json:"filename"`
	Duration float64 `json:"duration"`
}

// AnalyzeResponse is the response from the analysis service.
type AnalyzeResponse struct {
	Candidates []model.RawCandidate `json:"candidates" validate:"required,dive"`
}

// NewAnalysisClient creates a new analysis service client.
func NewAnalysisClient(cfg *config.AnalysisConfig) *AnalysisClient {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	backoffBase := time.Duration(cfg.BackoffBaseMS) * time.Millisecond
	if backoffBase <= 0 {
		backoffBase = time.Second
	}
	return &AnalysisClient{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		validate:    validator.New(),
	}
}

// GenerateCandidates asks the analysis service for candidate clips for one
// (scene, video) job. Feedback carries the rejection text from a previous
// attempt so the model can self-correct. Requests hitting 429 are retried
// with exponential backoff (1s, 2s, 4s, then capped at 8s) up to the attempt cap;
// any other failure propagates immediately.
func (c *AnalysisClient) GenerateCandidates(ctx context.Context, job model.MatchJob, feedback string) ([]model.RawCandidate, error) {
	reqBody := AnalyzeRequest{
		Scene: analyzeScene{
			ID:      job.SceneID,
			Title:   job.Scene.Title,
			Purpose: job.Scene.Purpose,
			Script:  job.Scene.Script,
		},
		Video: analyzeVideo{
			ID:       job.VideoID,
			Filename: job.VideoMeta.Filename,
			Duration: job.VideoMeta.Duration,
		},
		Mode:           string(job.Mode),
		TargetDuration: job.TargetDuration,
		Notes:          job.Notes,
		Feedback:       feedback,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	backoff := c.backoffBase
	for attempt := 1; ; attempt++ {
		candidates, retryable, err := c.doAnalyze(ctx, bodyBytes)
		if err == nil {
			return candidates, nil
		}
		if !retryable || attempt >= c.maxAttempts {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if max := 8 * c.backoffBase; backoff > max {
			backoff = max
		}
	}
}

// doAnalyze performs one HTTP round trip. The second return value reports
// whether the failure is retryable (rate limiting only).
func (c *AnalysisClient) doAnalyze(ctx context.Context, body []byte) ([]model.RawCandidate, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("analysis API rate limited (status 429)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("analysis API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var analyzeResp AnalyzeResponse
	if err := json.Unmarshal(respBody, &analyzeResp); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if err := c.validate.Struct(&analyzeResp); err != nil {
		return nil, false, fmt.Errorf("analysis response failed schema validation: %w", err)
	}

	return analyzeResp.Candidates, false, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *AnalysisClient) IsConfigured() bool {
	return c.baseURL != ""
}
