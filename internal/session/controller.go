package session

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clipframe/clipframe-agent/internal/render"
	"github.com/clipframe/clipframe-agent/internal/timeline"
)

const (
	defaultBackgroundColor = "#000000"
	defaultAssetFrames     = 90

	textDefaultWidth  = 600
	textDefaultHeight = 120
)

// ControllerConfig wires the controller's collaborators.
type ControllerConfig struct {
	ProjectID        string
	FPS              int
	AspectRatio      timeline.AspectRatio
	CompositionID    string
	SiteSrc          string
	AutosaveInterval time.Duration
	Orchestrator     *render.Orchestrator
	Repository       Repository
	Logger           *slog.Logger

	// RenderContext bounds background render loops. It must live for the
	// whole process, not per request. Defaults to context.Background().
	RenderContext context.Context
}

// Controller is the single entry point UI code talks to. One mutex
// serializes every mutation, standing in for the browser's single UI
// thread, so structural operations never interleave mid-computation.
type Controller struct {
	mu sync.Mutex

	store *timeline.Store
	orch  *render.Orchestrator
	repo  Repository

	renderCtx context.Context

	logger *slog.Logger

	projectID       string
	compositionID   string
	siteSrc         string
	aspectRatio     timeline.AspectRatio
	backgroundColor string
	playback        PlaybackState

	autosaveInterval time.Duration
	lastSaveAt       time.Time
	lastSaveError    string
}

// ProjectSnapshot is the read model handed to the API layer.
type ProjectSnapshot struct {
	ProjectID        string               `json:"projectId"`
	Overlays         []*timeline.Overlay  `json:"overlays"`
	SelectedIDs      []int                `json:"selectedIds"`
	SelectedID       int                  `json:"selectedId"`
	AspectRatio      timeline.AspectRatio `json:"aspectRatio"`
	Canvas           timeline.Canvas      `json:"canvas"`
	BackgroundColor  string               `json:"backgroundColor"`
	Playback         PlaybackState        `json:"playback"`
	DurationInFrames int                  `json:"durationInFrames"`
	FPS              int                  `json:"fps"`
	Render           render.Snapshot      `json:"render"`
	LastSaveAt       *time.Time           `json:"lastSaveAt,omitempty"`
	LastSaveError    string               `json:"lastSaveError,omitempty"`
}

func NewController(cfg ControllerConfig) *Controller {
	ratio := cfg.AspectRatio
	if _, ok := timeline.Dimensions(ratio); !ok {
		ratio = timeline.AspectWidescreen
	}
	renderCtx := cfg.RenderContext
	if renderCtx == nil {
		renderCtx = context.Background()
	}
	return &Controller{
		store:            timeline.NewStore(cfg.FPS),
		orch:             cfg.Orchestrator,
		repo:             cfg.Repository,
		renderCtx:        renderCtx,
		logger:           cfg.Logger,
		projectID:        cfg.ProjectID,
		compositionID:    cfg.CompositionID,
		siteSrc:          cfg.SiteSrc,
		aspectRatio:      ratio,
		backgroundColor:  defaultBackgroundColor,
		playback:         PlaybackState{Rate: 1},
		autosaveInterval: cfg.AutosaveInterval,
	}
}

// Snapshot returns a consistent deep copy of the session.
func (c *Controller) Snapshot() ProjectSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() ProjectSnapshot {
	canvas, _ := timeline.Dimensions(c.aspectRatio)
	snap := ProjectSnapshot{
		ProjectID:        c.projectID,
		Overlays:         c.store.Snapshot(),
		SelectedIDs:      c.store.SelectedIDs(),
		SelectedID:       c.store.SelectedID(),
		AspectRatio:      c.aspectRatio,
		Canvas:           canvas,
		BackgroundColor:  c.backgroundColor,
		Playback:         c.playback,
		DurationInFrames: c.store.DurationInFrames(),
		FPS:              c.store.FPS(),
	}
	if c.orch != nil {
		snap.Render = c.orch.Snapshot()
	}
	if !c.lastSaveAt.IsZero() {
		at := c.lastSaveAt
		snap.LastSaveAt = &at
	}
	snap.LastSaveError = c.lastSaveError
	return snap
}

// AddOverlay appends a fully specified overlay and returns its id.
func (c *Controller) AddOverlay(o *timeline.Overlay) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Add(o)
}

// AddAsset turns a dropped-file descriptor into an overlay placed at the
// playhead on the first row with room for it.
func (c *Controller) AddAsset(desc AssetDescriptor) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	canvas, _ := timeline.Dimensions(c.aspectRatio)
	fps := c.store.FPS()

	duration := defaultAssetFrames
	if desc.DurationSeconds > 0 {
		duration = int(math.Round(desc.DurationSeconds * float64(fps)))
		if duration < 1 {
			duration = 1
		}
	}

	from := c.playback.Frame
	o := &timeline.Overlay{
		Kind:                  desc.Kind,
		From:                  from,
		DurationInFrames:      duration,
		Row:                   c.store.FirstFreeRow(from, duration),
		Src:                   desc.Src,
		Content:               desc.Content,
		SourceDurationSeconds: desc.DurationSeconds,
	}

	switch desc.Kind {
	case timeline.KindClip, timeline.KindImage:
		o.Width = canvas.Width
		o.Height = canvas.Height
	case timeline.KindText, timeline.KindCaption:
		o.Width = textDefaultWidth
		o.Height = textDefaultHeight
		o.Left = (canvas.Width - o.Width) / 2
		o.Top = (canvas.Height - o.Height) / 2
	case timeline.KindShape, timeline.KindSticker:
		o.Width = canvas.Width / 4
		o.Height = canvas.Width / 4
		o.Left = (canvas.Width - o.Width) / 2
		o.Top = (canvas.Height - o.Height) / 2
	}
	// Sound overlays keep zero geometry; they have no visual box.

	return c.store.Add(o)
}

func (c *Controller) DeleteOverlay(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Delete(id)
}

func (c *Controller) ClearRow(row int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.DeleteRow(row)
}

func (c *Controller) PatchOverlay(id int, p timeline.Patch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Apply(id, p)
}

// Duplicate copies the overlay onto a conflict-free slot on its row.
// Returns 0 for an absent id.
func (c *Controller) Duplicate(id int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Duplicate(id)
}

// Split cuts the overlay at the given timeline frame. Returns 0 when the
// frame is not strictly inside the overlay.
func (c *Controller) Split(id, atFrame int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.SplitAt(id, atFrame)
}

func (c *Controller) Select(ids []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Select(ids...)
}

// SetAspectRatio changes the output geometry and rescales every overlay
// from the old canvas to the new one in one atomic step.
func (c *Controller) SetAspectRatio(ratio timeline.AspectRatio) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	newCanvas, ok := timeline.Dimensions(ratio)
	if !ok {
		return fmt.Errorf("unknown aspect ratio: %s", ratio)
	}
	oldCanvas, _ := timeline.Dimensions(c.aspectRatio)

	resized := timeline.ResizeOverlays(c.store.Snapshot(), oldCanvas, newCanvas)
	selected := c.store.SelectedIDs()
	c.store.Load(resized)
	c.store.Select(selected...)
	c.aspectRatio = ratio

	if c.logger != nil {
		c.logger.Info("aspect ratio changed",
			"ratio", string(ratio),
			"canvas", fmt.Sprintf("%dx%d", newCanvas.Width, newCanvas.Height),
		)
	}
	return nil
}

func (c *Controller) SetPlayback(p PlaybackState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.Rate <= 0 {
		p.Rate = 1
	}
	if p.Frame < 0 {
		p.Frame = 0
	}
	c.playback = p
}

func (c *Controller) SetBackgroundColor(color string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.backgroundColor = color
}

// StartRender hands the current composition to the orchestrator. The render
// loop runs on the controller's lifecycle context, never a caller's: an API
// request context dies with the response, and the poll loop has to outlive
// it. Returns false when a render is already in flight.
func (c *Controller) StartRender() bool {
	c.mu.Lock()
	canvas, _ := timeline.Dimensions(c.aspectRatio)
	comp := render.Composition{
		Overlays:         c.store.Snapshot(),
		DurationInFrames: c.store.DurationInFrames(),
		Width:            canvas.Width,
		Height:           canvas.Height,
		FPS:              c.store.FPS(),
		Src:              c.siteSrc,
	}
	compositionID := c.compositionID
	c.mu.Unlock()

	return c.orch.RenderMedia(c.renderCtx, compositionID, comp)
}

func (c *Controller) RenderStatus() render.Snapshot {
	return c.orch.Snapshot()
}

func (c *Controller) ResetRender() {
	c.orch.Undo()
}

// Autosave serializes the session and writes one record. Failures are
// recorded on the session status and returned, never fatal.
func (c *Controller) Autosave(ctx context.Context) error {
	c.mu.Lock()
	rec := &AutosaveRecord{
		ID:        uuid.NewString(),
		ProjectID: c.projectID,
		CreatedAt: time.Now().UTC(),
		State: EditorState{
			Overlays:        c.store.Snapshot(),
			AspectRatio:     c.aspectRatio,
			PlaybackRate:    c.playback.Rate,
			BackgroundColor: c.backgroundColor,
			FPS:             c.store.FPS(),
			SelectedIDs:     c.store.SelectedIDs(),
		},
	}
	c.mu.Unlock()

	err := c.repo.InsertAutosave(ctx, rec)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.lastSaveError = err.Error()
		if c.logger != nil {
			c.logger.Error("autosave failed", "project_id", c.projectID, "error", err)
		}
		return err
	}
	c.lastSaveAt = rec.CreatedAt
	c.lastSaveError = ""
	return nil
}

// RunAutosave ticks Autosave on its own timer until the context ends. It
// runs independently of rendering and edits; a failed tick only marks the
// session status and the next tick retries.
func (c *Controller) RunAutosave(ctx context.Context) {
	if c.autosaveInterval <= 0 || c.repo == nil {
		return
	}

	if c.logger != nil {
		c.logger.Info("autosave loop started", "interval", c.autosaveInterval)
	}

	ticker := time.NewTicker(c.autosaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if c.logger != nil {
				c.logger.Info("autosave loop stopping")
			}
			return
		case <-ticker.C:
			saveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			_ = c.Autosave(saveCtx)
			cancel()
		}
	}
}

// Restore loads an autosave record back into the live session. The aspect
// ratio is applied without the canvas transform: persisted overlays are
// already correct for their saved ratio.
func (c *Controller) Restore(ctx context.Context, recordID string) error {
	rec, err := c.repo.GetAutosave(ctx, recordID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Load(rec.State.Overlays)
	if _, ok := timeline.Dimensions(rec.State.AspectRatio); ok {
		c.aspectRatio = rec.State.AspectRatio
	}
	if rec.State.PlaybackRate > 0 {
		c.playback.Rate = rec.State.PlaybackRate
	}
	if rec.State.BackgroundColor != "" {
		c.backgroundColor = rec.State.BackgroundColor
	}

	if c.logger != nil {
		c.logger.Info("session restored",
			"autosave_id", rec.ID,
			"overlay_count", len(rec.State.Overlays),
		)
	}
	return nil
}

// Autosaves lists this project's saved snapshots, newest first.
func (c *Controller) Autosaves(ctx context.Context, limit int) ([]*AutosaveRecord, error) {
	return c.repo.ListAutosaves(ctx, c.projectID, limit)
}

func (c *Controller) GetAutosave(ctx context.Context, id string) (*AutosaveRecord, error) {
	return c.repo.GetAutosave(ctx, id)
}

func (c *Controller) DeleteAutosave(ctx context.Context, id string) error {
	return c.repo.DeleteAutosave(ctx, id)
}

func (c *Controller) ClearAutosaves(ctx context.Context) error {
	return c.repo.DeleteAutosaves(ctx, c.projectID)
}

// ProjectID returns the project this session belongs to.
func (c *Controller) ProjectID() string {
	return c.projectID
}
