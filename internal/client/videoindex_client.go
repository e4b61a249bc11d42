package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/makereel/api/internal/config"
	"github.com/makereel/api/internal/model"
)

// VideoIndexClient looks up library videos in the index service. A missing id
// is an error, never a silent skip.
type VideoIndexClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewVideoIndexClient creates a new video index client.
func NewVideoIndexClient(cfg *config.VideoIndexConfig) *VideoIndexClient {
	return &VideoIndexClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

// Lookup resolves one video id to its duration and filename.
func (c *VideoIndexClient) Lookup(ctx context.Context, videoID string) (model.VideoMeta, error) {
	var meta model.VideoMeta
	path := c.baseURL + "/videos/" + url.PathEscape(videoID)
	status, body, err := c.get(ctx, path)
	if err != nil {
		return meta, err
	}
	if status == http.StatusNotFound {
		return meta, fmt.Errorf("video %s not found in index", videoID)
	}
	if status != http.StatusOK {
		return meta, fmt.Errorf("video index error (status %d): %s", status, string(body))
	}
	if err := json.Unmarshal(body, &meta); err != nil {
		return meta, fmt.Errorf("failed to unmarshal video metadata: %w", err)
	}
	return meta, nil
}

// List returns every library video available to the company.
func (c *VideoIndexClient) List(ctx context.Context, companyID string) ([]model.VideoRef, error) {
	path := c.baseURL + "/videos"
	if companyID != "" {
		path += "?company=" + url.QueryEscape(companyID)
	}
	status, body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("video index error (status %d): %s", status, string(body))
	}

	var result struct {
		Videos []struct {
			ID       string  `json:"id"`
			Duration float64 `json:"duration"`
			Filename string  `json:"filename"`
		} `json:"videos"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal video list: %w", err)
	}

	videos := make([]model.VideoRef, 0, len(result.Videos))
	for _, v := range result.Videos {
		videos = append(videos, model.VideoRef{
			ID:   v.ID,
			Meta: model.VideoMeta{Duration: v.Duration, Filename: v.Filename},
		})
	}
	return videos, nil
}

func (c *VideoIndexClient) get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *VideoIndexClient) IsConfigured() bool {
	return c.baseURL != ""
}
