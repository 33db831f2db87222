package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/clipframe/clipframe-agent/internal/render"
	"github.com/clipframe/clipframe-agent/internal/timeline"
)

func testController(t *testing.T, repo Repository) *Controller {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	orch := render.NewOrchestrator(render.NewStubRenderer(logger), logger, render.Options{
		PollInterval: time.Millisecond,
	})

	return NewController(ControllerConfig{
		ProjectID:        "test-project",
		FPS:              30,
		AspectRatio:      timeline.AspectWidescreen,
		CompositionID:    "TimelineComposition",
		SiteSrc:          "clipframe-editor",
		AutosaveInterval: time.Hour,
		Orchestrator:     orch,
		Repository:       repo,
		Logger:           logger,
	})
}

func TestController_AddAsset_ClipFillsCanvas(t *testing.T) {
	c := testController(t, nil)

	id := c.AddAsset(AssetDescriptor{
		Kind:            timeline.KindClip,
		Src:             "clip.mp4",
		DurationSeconds: 4,
	})
	if id == 0 {
		t.Fatal("AddAsset() returned 0")
	}

	snap := c.Snapshot()
	if len(snap.Overlays) != 1 {
		t.Fatalf("overlay count = %d, want 1", len(snap.Overlays))
	}

	o := snap.Overlays[0]
	if o.DurationInFrames != 120 {
		t.Errorf("duration = %d frames, want 120 (4s at 30fps)", o.DurationInFrames)
	}
	if o.Width != 1280 || o.Height != 720 {
		t.Errorf("geometry = %dx%d, want full 1280x720 canvas", o.Width, o.Height)
	}
	if snap.SelectedID != id {
		t.Errorf("selected id = %d, want %d", snap.SelectedID, id)
	}
}

func TestController_AddAsset_PlacesOnFreeRow(t *testing.T) {
	c := testController(t, nil)

	c.AddAsset(AssetDescriptor{Kind: timeline.KindClip, Src: "a.mp4", DurationSeconds: 3})
	c.AddAsset(AssetDescriptor{Kind: timeline.KindClip, Src: "b.mp4", DurationSeconds: 3})

	snap := c.Snapshot()
	if snap.Overlays[0].Row == snap.Overlays[1].Row {
		t.Errorf("both clips on row %d, want distinct rows", snap.Overlays[0].Row)
	}
}

func TestController_AddAsset_UnknownDurationGetsDefault(t *testing.T) {
	c := testController(t, nil)

	c.AddAsset(AssetDescriptor{Kind: timeline.KindImage, Src: "photo.png"})

	snap := c.Snapshot()
	if snap.Overlays[0].DurationInFrames != 90 {
		t.Errorf("duration = %d, want default 90", snap.Overlays[0].DurationInFrames)
	}
}

func TestController_SetAspectRatio_RescalesAtomically(t *testing.T) {
	c := testController(t, nil)

	id := c.AddOverlay(&timeline.Overlay{
		Kind:             timeline.KindImage,
		From:             0,
		DurationInFrames: 60,
		Left:             640,
		Top:              360,
		Width:            100,
		Height:           50,
	})
	c.Select([]int{id})

	if err := c.SetAspectRatio(timeline.AspectPortraitLong); err != nil {
		t.Fatalf("SetAspectRatio() error = %v", err)
	}

	snap := c.Snapshot()
	if snap.AspectRatio != timeline.AspectPortraitLong {
		t.Errorf("aspect ratio = %q, want 9:16", snap.AspectRatio)
	}
	if snap.Canvas.Width != 1080 || snap.Canvas.Height != 1920 {
		t.Errorf("canvas = %dx%d, want 1080x1920", snap.Canvas.Width, snap.Canvas.Height)
	}

	o := snap.Overlays[0]
	if o.Left != 540 || o.Top != 960 || o.Width != 84 || o.Height != 133 {
		t.Errorf("bounds = {%d %d %d %d}, want {540 960 84 133}", o.Left, o.Top, o.Width, o.Height)
	}
	if o.From != 0 || o.DurationInFrames != 60 {
		t.Errorf("timing changed: from=%d duration=%d", o.From, o.DurationInFrames)
	}
	if snap.SelectedID != id {
		t.Errorf("selection lost across transform: selected = %d, want %d", snap.SelectedID, id)
	}
}

func TestController_SetAspectRatio_Unknown(t *testing.T) {
	c := testController(t, nil)

	if err := c.SetAspectRatio("21:9"); err == nil {
		t.Error("expected error for unknown aspect ratio")
	}
	if snap := c.Snapshot(); snap.AspectRatio != timeline.AspectWidescreen {
		t.Errorf("aspect ratio changed to %q on failed set", snap.AspectRatio)
	}
}

func TestController_SplitAndDuplicate(t *testing.T) {
	c := testController(t, nil)

	id := c.AddOverlay(&timeline.Overlay{
		Kind:             timeline.KindClip,
		From:             0,
		DurationInFrames: 90,
		Src:              "clip.mp4",
	})

	restID := c.Split(id, 30)
	if restID == 0 {
		t.Fatal("Split() returned 0")
	}

	dupID := c.Duplicate(id)
	if dupID == 0 {
		t.Fatal("Duplicate() returned 0")
	}

	snap := c.Snapshot()
	if len(snap.Overlays) != 3 {
		t.Fatalf("overlay count = %d, want 3", len(snap.Overlays))
	}
	if snap.DurationInFrames != 120 {
		t.Errorf("timeline duration = %d, want 120", snap.DurationInFrames)
	}
}

func TestController_SetPlayback_Sanitizes(t *testing.T) {
	c := testController(t, nil)

	c.SetPlayback(PlaybackState{Frame: -5, Playing: true, Rate: 0})

	snap := c.Snapshot()
	if snap.Playback.Frame != 0 {
		t.Errorf("frame = %d, want clamped to 0", snap.Playback.Frame)
	}
	if snap.Playback.Rate != 1 {
		t.Errorf("rate = %v, want default 1", snap.Playback.Rate)
	}
	if !snap.Playback.Playing {
		t.Error("playing flag dropped")
	}
}

func TestController_StartRender_Lifecycle(t *testing.T) {
	c := testController(t, nil)

	c.AddOverlay(&timeline.Overlay{
		Kind:             timeline.KindText,
		DurationInFrames: 60,
		Content:          "title",
	})

	if !c.StartRender() {
		t.Fatal("first StartRender() rejected")
	}

	select {
	case <-c.orch.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("render did not finish")
	}

	status := c.RenderStatus()
	if status.State != render.StateDone {
		t.Fatalf("state = %s, want done (error: %s)", status.State, status.Error)
	}
	if status.OutputURL == "" {
		t.Error("done render has no output url")
	}

	c.ResetRender()
	if c.RenderStatus().State != render.StateInit {
		t.Error("ResetRender() did not return to init")
	}
}

// ctxRenderer fails as soon as its context is done, the way a real farm
// client would.
type ctxRenderer struct{}

func (ctxRenderer) Start(ctx context.Context, compositionID string, input render.Composition) (*render.StartResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &render.StartResult{RenderJobID: "job-1"}, nil
}

func (ctxRenderer) Progress(ctx context.Context, renderJobID, bucketName string) (*render.ProgressResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &render.ProgressResult{Type: render.ProgressTypeDone, URL: "stub://renders/" + renderJobID + ".mp4"}, nil
}

func TestController_StartRender_UsesLifecycleContext(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	orch := render.NewOrchestrator(ctxRenderer{}, logger, render.Options{
		PollInterval: time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	c := NewController(ControllerConfig{
		ProjectID:     "test-project",
		FPS:           30,
		AspectRatio:   timeline.AspectWidescreen,
		CompositionID: "TimelineComposition",
		SiteSrc:       "clipframe-editor",
		Orchestrator:  orch,
		Logger:        logger,
		RenderContext: ctx,
	})
	c.AddOverlay(&timeline.Overlay{Kind: timeline.KindText, DurationInFrames: 60, Content: "title"})

	// A render started after the lifecycle context ends must not hang; it
	// surfaces the cancellation as a terminal error.
	cancel()
	if !c.StartRender() {
		t.Fatal("StartRender() rejected")
	}

	select {
	case <-orch.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("render did not reach a terminal state")
	}
	if st := c.RenderStatus(); st.State != render.StateError {
		t.Errorf("state = %s, want error after lifecycle context end", st.State)
	}
}

func TestController_AutosaveAndRestore(t *testing.T) {
	repo := setupTestRepo(t)
	c := testController(t, repo)
	ctx := context.Background()

	c.AddAsset(AssetDescriptor{Kind: timeline.KindText, Content: "hello"})
	c.SetBackgroundColor("#112233")
	if err := c.SetAspectRatio(timeline.AspectSquare); err != nil {
		t.Fatalf("SetAspectRatio() error = %v", err)
	}

	if err := c.Autosave(ctx); err != nil {
		t.Fatalf("Autosave() error = %v", err)
	}

	records, err := c.Autosaves(ctx, 0)
	if err != nil {
		t.Fatalf("Autosaves() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("autosave count = %d, want 1", len(records))
	}

	saved := c.Snapshot()

	// Wreck the live session, then restore.
	c.ClearRow(0)
	c.SetBackgroundColor("#000000")
	if err := c.SetAspectRatio(timeline.AspectWidescreen); err != nil {
		t.Fatalf("SetAspectRatio() error = %v", err)
	}

	if err := c.Restore(ctx, records[0].ID); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	snap := c.Snapshot()
	if snap.AspectRatio != timeline.AspectSquare {
		t.Errorf("aspect ratio = %q, want 1:1", snap.AspectRatio)
	}
	if snap.BackgroundColor != "#112233" {
		t.Errorf("background = %q, want #112233", snap.BackgroundColor)
	}
	if len(snap.Overlays) != 1 {
		t.Fatalf("overlay count = %d, want 1", len(snap.Overlays))
	}

	// Restore must not re-run the canvas transform: the overlay comes back
	// exactly as saved.
	got, want := snap.Overlays[0], saved.Overlays[0]
	if got.Left != want.Left || got.Top != want.Top || got.Width != want.Width || got.Height != want.Height {
		t.Errorf("restored bounds = {%d %d %d %d}, want {%d %d %d %d}",
			got.Left, got.Top, got.Width, got.Height,
			want.Left, want.Top, want.Width, want.Height)
	}
	if snap.LastSaveAt == nil {
		t.Error("expected last save timestamp after autosave")
	}
}

func TestController_Restore_Missing(t *testing.T) {
	repo := setupTestRepo(t)
	c := testController(t, repo)

	if err := c.Restore(context.Background(), "nope"); err == nil {
		t.Error("expected error restoring missing autosave")
	}
}

func TestController_RunAutosave_SavesOnTick(t *testing.T) {
	repo := setupTestRepo(t)
	c := testController(t, repo)
	c.autosaveInterval = 10 * time.Millisecond

	c.AddAsset(AssetDescriptor{Kind: timeline.KindText, Content: "tick"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.RunAutosave(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		records, err := c.Autosaves(context.Background(), 0)
		if err != nil {
			t.Fatalf("Autosaves() error = %v", err)
		}
		if len(records) > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("no autosave written within deadline")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunAutosave did not stop on context cancel")
	}
}

func TestController_ClearAutosaves(t *testing.T) {
	repo := setupTestRepo(t)
	c := testController(t, repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := c.Autosave(ctx); err != nil {
			t.Fatalf("Autosave() error = %v", err)
		}
	}

	if err := c.ClearAutosaves(ctx); err != nil {
		t.Fatalf("ClearAutosaves() error = %v", err)
	}

	records, err := c.Autosaves(ctx, 0)
	if err != nil {
		t.Fatalf("Autosaves() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records after clear = %d, want 0", len(records))
	}
}
