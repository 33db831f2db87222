// Package session composes the overlay store, the canvas transform and the
// render orchestrator into one editor session, and persists periodic
// autosave snapshots of it.
package session

import (
	"time"

	"github.com/clipframe/clipframe-agent/internal/timeline"
)

// PlaybackState mirrors the playback surface: current frame, play/pause and
// playback rate.
type PlaybackState struct {
	Frame   int     `json:"frame"`
	Playing bool    `json:"playing"`
	Rate    float64 `json:"rate"`
}

// EditorState is the serialized shape of a session at one instant.
type EditorState struct {
	Overlays        []*timeline.Overlay  `json:"overlays"`
	AspectRatio     timeline.AspectRatio `json:"aspectRatio"`
	PlaybackRate    float64              `json:"playbackRate"`
	BackgroundColor string               `json:"backgroundColor"`
	FPS             int                  `json:"fps"`
	SelectedIDs     []int                `json:"selectedIds,omitempty"`
}

// AutosaveRecord is one persisted snapshot, keyed by project.
type AutosaveRecord struct {
	ID        string      `json:"id"`
	ProjectID string      `json:"projectId"`
	CreatedAt time.Time   `json:"createdAt"`
	State     EditorState `json:"editorState"`
}

// AssetDescriptor is what the file-drop/selection boundary hands the core:
// enough to place an overlay, never the media bytes themselves.
type AssetDescriptor struct {
	Kind            timeline.Kind `json:"kind"`
	DurationSeconds float64       `json:"durationSeconds,omitempty"`
	Src             string        `json:"src,omitempty"`
	Content         string        `json:"content,omitempty"`
}
