package render

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clipframe/clipframe-agent/internal/timeline"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// immediateClock fires every wait instantly so tests run without delays.
type immediateClock struct{}

func (immediateClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

// scriptRenderer plays back a fixed sequence of progress results.
type scriptRenderer struct {
	startCalls atomic.Int32
	startErr   error
	startBlock chan struct{} // if set, Start waits until closed
	script     []*ProgressResult
	pos        atomic.Int32
}

func (r *scriptRenderer) Start(ctx context.Context, compositionID string, input Composition) (*StartResult, error) {
	r.startCalls.Add(1)
	if r.startBlock != nil {
		<-r.startBlock
	}
	if r.startErr != nil {
		return nil, r.startErr
	}
	return &StartResult{RenderJobID: "job-1", BucketName: "bucket-a"}, nil
}

func (r *scriptRenderer) Progress(ctx context.Context, renderJobID, bucketName string) (*ProgressResult, error) {
	i := int(r.pos.Add(1)) - 1
	if i >= len(r.script) {
		return nil, errors.New("script exhausted")
	}
	return r.script[i], nil
}

func validComposition() Composition {
	return Composition{
		Overlays: []*timeline.Overlay{
			{ID: 1, Kind: timeline.KindClip, From: 0, DurationInFrames: 90, Row: 0},
		},
		DurationInFrames: 90,
		Width:            1280,
		Height:           720,
		FPS:              30,
		Src:              "clipframe-editor",
	}
}

func newTestOrchestrator(r Renderer) *Orchestrator {
	return NewOrchestrator(r, testLogger(), Options{Clock: immediateClock{}})
}

func TestOrchestrator_InitialState(t *testing.T) {
	o := newTestOrchestrator(&scriptRenderer{})

	snap := o.Snapshot()
	if snap.State != StateInit {
		t.Errorf("state = %s, want init", snap.State)
	}
}

func TestOrchestrator_ProgressThenDone(t *testing.T) {
	r := &scriptRenderer{script: []*ProgressResult{
		{Type: ProgressTypeProgress, Progress: 0.25},
		{Type: ProgressTypeProgress, Progress: 0.75},
		{Type: ProgressTypeDone, URL: "https://farm.example/out.mp4", SizeBytes: 1 << 20},
	}}
	o := newTestOrchestrator(r)

	if !o.RenderMedia(context.Background(), "TimelineComposition", validComposition()) {
		t.Fatal("RenderMedia rejected")
	}
	<-o.Done()

	snap := o.Snapshot()
	if snap.State != StateDone {
		t.Fatalf("state = %s, want done (error: %s)", snap.State, snap.Error)
	}
	if snap.Progress != 1 {
		t.Errorf("progress = %v, want 1", snap.Progress)
	}
	if snap.OutputURL != "https://farm.example/out.mp4" {
		t.Errorf("url = %q", snap.OutputURL)
	}
	if snap.OutputSizeBytes != 1<<20 {
		t.Errorf("size = %d, want %d", snap.OutputSizeBytes, 1<<20)
	}
	if snap.RenderJobID != "job-1" {
		t.Errorf("render id = %q, want job-1", snap.RenderJobID)
	}
}

func TestOrchestrator_ProgressResultError(t *testing.T) {
	r := &scriptRenderer{script: []*ProgressResult{
		{Type: ProgressTypeProgress, Progress: 0.5},
		{Type: ProgressTypeError, Message: "encoder crashed"},
	}}
	o := newTestOrchestrator(r)

	o.RenderMedia(context.Background(), "TimelineComposition", validComposition())
	<-o.Done()

	snap := o.Snapshot()
	if snap.State != StateError {
		t.Fatalf("state = %s, want error", snap.State)
	}
	if snap.Error != "encoder crashed" {
		t.Errorf("error = %q", snap.Error)
	}
	if snap.RenderJobID != "job-1" {
		t.Errorf("render id = %q, want job-1 carried into the error", snap.RenderJobID)
	}
}

func TestOrchestrator_StartFailure_NoJobID(t *testing.T) {
	r := &scriptRenderer{startErr: errors.New("farm unreachable")}
	o := newTestOrchestrator(r)

	o.RenderMedia(context.Background(), "TimelineComposition", validComposition())
	<-o.Done()

	snap := o.Snapshot()
	if snap.State != StateError {
		t.Fatalf("state = %s, want error", snap.State)
	}
	if snap.RenderJobID != "" {
		t.Errorf("render id = %q, want empty (failed before issue)", snap.RenderJobID)
	}
}

func TestOrchestrator_ReentrancyGuard(t *testing.T) {
	block := make(chan struct{})
	r := &scriptRenderer{
		startBlock: block,
		script:     []*ProgressResult{{Type: ProgressTypeDone, URL: "u"}},
	}
	o := newTestOrchestrator(r)

	if !o.RenderMedia(context.Background(), "TimelineComposition", validComposition()) {
		t.Fatal("first RenderMedia rejected")
	}
	if o.RenderMedia(context.Background(), "TimelineComposition", validComposition()) {
		t.Error("second RenderMedia accepted while invoking")
	}

	close(block)
	<-o.Done()

	if calls := r.startCalls.Load(); calls != 1 {
		t.Errorf("start calls = %d, want 1", calls)
	}
}

func TestOrchestrator_UndoResetsAfterTerminal(t *testing.T) {
	r := &scriptRenderer{script: []*ProgressResult{{Type: ProgressTypeDone, URL: "u", SizeBytes: 10}}}
	o := newTestOrchestrator(r)

	o.RenderMedia(context.Background(), "TimelineComposition", validComposition())
	<-o.Done()
	o.Undo()

	snap := o.Snapshot()
	if snap.State != StateInit {
		t.Errorf("state = %s, want init", snap.State)
	}
	if snap.OutputURL != "" || snap.RenderJobID != "" || snap.Error != "" {
		t.Errorf("residual state after Undo: %+v", snap)
	}
}

func TestOrchestrator_UndoAllowsFreshRender(t *testing.T) {
	first := &scriptRenderer{script: []*ProgressResult{{Type: ProgressTypeError, Message: "boom"}}}
	o := newTestOrchestrator(first)

	o.RenderMedia(context.Background(), "TimelineComposition", validComposition())
	<-o.Done()
	o.Undo()

	if !o.RenderMedia(context.Background(), "TimelineComposition", validComposition()) {
		t.Fatal("RenderMedia after Undo rejected")
	}
	<-o.Done()
}

func TestOrchestrator_StaleLoopCannotClobberAfterUndo(t *testing.T) {
	block := make(chan struct{})
	r := &scriptRenderer{
		startBlock: block,
		script:     []*ProgressResult{{Type: ProgressTypeDone, URL: "stale"}},
	}
	o := newTestOrchestrator(r)

	o.RenderMedia(context.Background(), "TimelineComposition", validComposition())
	done := o.Done()
	o.Undo()
	close(block)
	<-done

	snap := o.Snapshot()
	if snap.State != StateInit {
		t.Errorf("state = %s, want init (stale loop must not write)", snap.State)
	}
	if snap.OutputURL != "" {
		t.Errorf("url = %q, want empty", snap.OutputURL)
	}
}

func TestOrchestrator_InvalidCompositionFails(t *testing.T) {
	r := &scriptRenderer{script: []*ProgressResult{{Type: ProgressTypeDone}}}
	o := newTestOrchestrator(r)

	comp := validComposition()
	comp.Src = ""

	o.RenderMedia(context.Background(), "TimelineComposition", comp)
	<-o.Done()

	snap := o.Snapshot()
	if snap.State != StateError {
		t.Fatalf("state = %s, want error", snap.State)
	}
	if calls := r.startCalls.Load(); calls != 0 {
		t.Errorf("start calls = %d, want 0 (schema rejects before start)", calls)
	}
}
