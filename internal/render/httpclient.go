package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// FarmError represents an error response from the render farm.
type FarmError struct {
	StatusCode int
	Body       string
}

func (e *FarmError) Error() string {
	return fmt.Sprintf("render farm request failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx) and network errors.
// Client errors (4xx) are considered permanent.
func (e *FarmError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// HTTPRenderer talks to a real render farm over HTTP. The start call issues
// a render job; the progress call is polled until a terminal answer.
type HTTPRenderer struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPRenderer(baseURL, token string, logger *slog.Logger) *HTTPRenderer {
	return &HTTPRenderer{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

type startRequest struct {
	CompositionID string      `json:"compositionId"`
	InputProps    Composition `json:"inputProps"`
}

type progressRequest struct {
	ID         string `json:"id"`
	BucketName string `json:"bucketName,omitempty"`
}

func (r *HTTPRenderer) Start(ctx context.Context, compositionID string, input Composition) (*StartResult, error) {
	var result StartResult
	if err := r.post(ctx, "/api/render", startRequest{CompositionID: compositionID, InputProps: input}, &result); err != nil {
		return nil, err
	}
	if result.RenderJobID == "" {
		return nil, fmt.Errorf("render farm returned no render id")
	}

	r.logger.Info("render job issued",
		"composition_id", compositionID,
		"render_id", result.RenderJobID,
		"overlay_count", len(input.Overlays),
	)
	return &result, nil
}

func (r *HTTPRenderer) Progress(ctx context.Context, renderJobID, bucketName string) (*ProgressResult, error) {
	var result ProgressResult
	if err := r.post(ctx, "/api/render/progress", progressRequest{ID: renderJobID, BucketName: bucketName}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *HTTPRenderer) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.token)
	req.Header.Set("X-Clipframe-Request-Id", uuid.NewString())

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &FarmError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
