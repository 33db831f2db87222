// Package render drives an external render farm through a narrow two-method
// contract: start a render job, then poll its progress until a terminal
// result arrives.
package render

import (
	"context"

	"github.com/clipframe/clipframe-agent/internal/timeline"
)

// Composition is the payload handed to the render farm. It is validated
// against an embedded JSON Schema before the start call.
type Composition struct {
	Overlays         []*timeline.Overlay `json:"overlays"`
	DurationInFrames int                 `json:"durationInFrames"`
	Width            int                 `json:"width"`
	Height           int                 `json:"height"`
	FPS              int                 `json:"fps"`
	Src              string              `json:"src"`
}

// StartResult is the farm's answer to a start call: an opaque job id plus an
// optional storage-bucket hint the progress endpoint wants echoed back.
type StartResult struct {
	RenderJobID string `json:"renderId"`
	BucketName  string `json:"bucketName,omitempty"`
}

// Progress result types.
const (
	ProgressTypeError    = "error"
	ProgressTypeProgress = "progress"
	ProgressTypeDone     = "done"
)

// ProgressResult is one poll answer: a fatal error, a fractional progress
// update, or the finished output.
type ProgressResult struct {
	Type      string  `json:"type"`
	Message   string  `json:"message,omitempty"`
	Progress  float64 `json:"progress,omitempty"`
	URL       string  `json:"url,omitempty"`
	SizeBytes int64   `json:"size,omitempty"`
}

// Renderer is the external render farm contract. Implementations must be
// safe for use from the orchestrator's polling goroutine.
type Renderer interface {
	Start(ctx context.Context, compositionID string, input Composition) (*StartResult, error)
	Progress(ctx context.Context, renderJobID, bucketName string) (*ProgressResult, error)
}
