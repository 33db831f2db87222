package render

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// State is the orchestrator's position in the render lifecycle.
type State string

const (
	StateInit      State = "init"
	StateInvoking  State = "invoking"
	StateRendering State = "rendering"
	StateDone      State = "done"
	StateError     State = "error"
)

const (
	DefaultPollInterval = time.Second
)

// Snapshot is a consistent read of the orchestrator's state.
type Snapshot struct {
	State           State   `json:"state"`
	Progress        float64 `json:"progress"`
	RenderJobID     string  `json:"renderId,omitempty"`
	BucketName      string  `json:"bucketName,omitempty"`
	OutputURL       string  `json:"url,omitempty"`
	OutputSizeBytes int64   `json:"size,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// Options tunes the polling loop. Zero values fall back to defaults.
type Options struct {
	Clock        Clock
	PollInterval time.Duration
	InitialDelay time.Duration
}

// Orchestrator runs at most one render at a time: init -> invoking ->
// rendering -> done|error. A RenderMedia call while a render is in flight is
// ignored. There is no automatic retry; Undo resets to init so the caller
// can start fresh.
//
// Each accepted render bumps a generation counter; state writes from an
// abandoned loop (after Undo) are discarded, so a stale poll can never
// clobber a newer render.
type Orchestrator struct {
	renderer     Renderer
	clock        Clock
	pollInterval time.Duration
	initialDelay time.Duration
	logger       *slog.Logger

	mu         sync.Mutex
	gen        int
	state      State
	progress   float64
	jobID      string
	bucket     string
	outputURL  string
	outputSize int64
	errMsg     string
	waitCh     chan struct{}
}

func NewOrchestrator(renderer Renderer, logger *slog.Logger, opts Options) *Orchestrator {
	clock := opts.Clock
	if clock == nil {
		clock = NewRealClock()
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Orchestrator{
		renderer:     renderer,
		clock:        clock,
		pollInterval: interval,
		initialDelay: opts.InitialDelay,
		logger:       logger,
		state:        StateInit,
	}
}

// RenderMedia starts a render. Returns false without side effects when a
// render is already invoking or rendering.
func (o *Orchestrator) RenderMedia(ctx context.Context, compositionID string, comp Composition) bool {
	o.mu.Lock()
	if o.state == StateInvoking || o.state == StateRendering {
		o.mu.Unlock()
		return false
	}
	o.gen++
	gen := o.gen
	o.state = StateInvoking
	o.progress = 0
	o.jobID = ""
	o.bucket = ""
	o.outputURL = ""
	o.outputSize = 0
	o.errMsg = ""
	o.waitCh = make(chan struct{})
	done := o.waitCh
	o.mu.Unlock()

	go o.run(ctx, gen, compositionID, comp, done)
	return true
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		State:           o.state,
		Progress:        o.progress,
		RenderJobID:     o.jobID,
		BucketName:      o.bucket,
		OutputURL:       o.outputURL,
		OutputSizeBytes: o.outputSize,
		Error:           o.errMsg,
	}
}

// Done returns a channel closed when the most recently accepted render
// reaches a terminal state. Before any render it returns a closed channel.
func (o *Orchestrator) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.waitCh == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return o.waitCh
}

// Undo resets the orchestrator to init from any state so a fresh render can
// be started. An in-flight loop is orphaned: its job keeps running on the
// farm, but its state writes are discarded.
func (o *Orchestrator) Undo() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gen++
	o.state = StateInit
	o.progress = 0
	o.jobID = ""
	o.bucket = ""
	o.outputURL = ""
	o.outputSize = 0
	o.errMsg = ""
	o.waitCh = nil
}

func (o *Orchestrator) run(ctx context.Context, gen int, compositionID string, comp Composition, done chan struct{}) {
	defer close(done)

	if err := ValidateComposition(comp); err != nil {
		o.fail(gen, "", err)
		return
	}

	res, err := o.renderer.Start(ctx, compositionID, comp)
	if err != nil {
		o.fail(gen, "", err)
		return
	}

	if !o.advanceToRendering(gen, res) {
		return
	}
	if o.logger != nil {
		o.logger.Info("render started", "render_id", res.RenderJobID, "bucket", res.BucketName)
	}

	if o.initialDelay > 0 {
		select {
		case <-ctx.Done():
			o.fail(gen, res.RenderJobID, ctx.Err())
			return
		case <-o.clock.After(o.initialDelay):
		}
	}

	for {
		pr, err := o.renderer.Progress(ctx, res.RenderJobID, res.BucketName)
		if err != nil {
			o.fail(gen, res.RenderJobID, err)
			return
		}

		switch pr.Type {
		case ProgressTypeError:
			o.fail(gen, res.RenderJobID, errors.New(pr.Message))
			return
		case ProgressTypeDone:
			o.complete(gen, res.RenderJobID, pr)
			return
		case ProgressTypeProgress:
			if !o.setProgress(gen, pr.Progress) {
				return
			}
		default:
			o.fail(gen, res.RenderJobID, errors.New("unknown progress type: "+string(pr.Type)))
			return
		}

		select {
		case <-ctx.Done():
			o.fail(gen, res.RenderJobID, ctx.Err())
			return
		case <-o.clock.After(o.pollInterval):
		}
	}
}

func (o *Orchestrator) advanceToRendering(gen int, res *StartResult) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gen != gen {
		return false
	}
	o.state = StateRendering
	o.jobID = res.RenderJobID
	o.bucket = res.BucketName
	return true
}

func (o *Orchestrator) setProgress(gen int, progress float64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gen != gen {
		return false
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	o.progress = progress
	return true
}

func (o *Orchestrator) complete(gen int, jobID string, pr *ProgressResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gen != gen {
		return
	}
	o.state = StateDone
	o.progress = 1
	o.outputURL = pr.URL
	o.outputSize = pr.SizeBytes
	if o.logger != nil {
		o.logger.Info("render completed", "render_id", jobID, "url", pr.URL, "size", pr.SizeBytes)
	}
}

func (o *Orchestrator) fail(gen int, jobID string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gen != gen {
		return
	}
	o.state = StateError
	o.jobID = jobID
	o.errMsg = err.Error()
	if o.logger != nil {
		o.logger.Error("render failed", "render_id", jobID, "error", err)
	}
}
