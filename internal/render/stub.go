package render

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// StubRenderer stands in for the render farm when none is configured. It
// issues a fake job id and completes immediately with a placeholder URL so
// local development can exercise the full orchestration path.
type StubRenderer struct {
	logger *slog.Logger
}

func NewStubRenderer(logger *slog.Logger) *StubRenderer {
	return &StubRenderer{logger: logger}
}

func (s *StubRenderer) Start(ctx context.Context, compositionID string, input Composition) (*StartResult, error) {
	id := "stub-" + uuid.NewString()
	s.logger.Info("render stub: start requested",
		"composition_id", compositionID,
		"render_id", id,
		"overlay_count", len(input.Overlays),
	)
	return &StartResult{RenderJobID: id}, nil
}

func (s *StubRenderer) Progress(ctx context.Context, renderJobID, bucketName string) (*ProgressResult, error) {
	s.logger.Info("render stub: progress requested", "render_id", renderJobID)
	return &ProgressResult{
		Type: ProgressTypeDone,
		URL:  "stub://renders/" + renderJobID + ".mp4",
	}, nil
}
