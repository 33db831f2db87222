package api

import (
	"time"

	"github.com/clipframe/clipframe-agent/internal/session"
	"github.com/clipframe/clipframe-agent/internal/timeline"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	UptimeS   int64  `json:"uptime_s"`
	ProjectID string `json:"project_id"`
}

type AddOverlayRequest struct {
	Overlay timeline.Overlay `json:"overlay"`
}

type AddAssetRequest struct {
	Kind            string  `json:"kind"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	Src             string  `json:"src,omitempty"`
	Content         string  `json:"content,omitempty"`
}

type OverlayCreatedResponse struct {
	ID int `json:"id"`
}

type PatchOverlayRequest struct {
	Patch timeline.Patch `json:"patch"`
}

type SplitRequest struct {
	Frame int `json:"frame"`
}

type SplitResponse struct {
	// RestID is 0 when the cut frame was outside the overlay and nothing
	// changed; Project is the resulting snapshot either way.
	RestID  int                     `json:"restId"`
	Project session.ProjectSnapshot `json:"project"`
}

type DuplicateResponse struct {
	ID int `json:"id"`
}

type SelectionRequest struct {
	IDs []int `json:"ids"`
}

type AspectRatioRequest struct {
	AspectRatio string `json:"aspectRatio"`
}

type PlaybackRequest struct {
	Frame   int     `json:"frame"`
	Playing bool    `json:"playing"`
	Rate    float64 `json:"rate"`
}

type BackgroundRequest struct {
	Color string `json:"color"`
}

type RenderStartedResponse struct {
	Accepted bool `json:"accepted"`
}

type AutosaveSummary struct {
	ID           string `json:"id"`
	ProjectID    string `json:"projectId"`
	CreatedAt    string `json:"createdAt"`
	OverlayCount int    `json:"overlayCount"`
	AspectRatio  string `json:"aspectRatio"`
}

type AutosavesResponse struct {
	Autosaves []AutosaveSummary `json:"autosaves"`
}

func AutosaveToSummary(rec *session.AutosaveRecord) AutosaveSummary {
	return AutosaveSummary{
		ID:           rec.ID,
		ProjectID:    rec.ProjectID,
		CreatedAt:    rec.CreatedAt.Format(time.RFC3339),
		OverlayCount: len(rec.State.Overlays),
		AspectRatio:  string(rec.State.AspectRatio),
	}
}
