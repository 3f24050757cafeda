// Package overlay positions UI content anchored to a geographic
// coordinate on an interactive map and keeps it synchronized as the
// camera moves. Layout is two-phase: the mounted content is measured
// first, then the anchor coordinate is projected to screen space, and
// the final top-left origin is computed from both. Stale results from
// rapid camera movement are discarded by generation-token comparison.
package overlay

import (
	"context"
	"sync"

	"github.com/kass/go-map-overlay/pkg/models"
)

// Renderable is the caller-supplied content unit. The engine only
// measures its rendered form; painting stays with the host.
type Renderable interface {
	View() string
}

// Projector resolves a geographic coordinate to a screen point in
// logical pixels. Implementations must tolerate overlapping concurrent
// requests; the engine discards superseded results itself.
type Projector interface {
	Project(ctx context.Context, loc models.Location) (models.ScreenPoint, error)
}

// FrameScheduler runs a one-shot task after the next frame commit.
// Anchoring defers its first layout pass through this hook so that
// measurement sees real, not stale or zero, dimensions.
type FrameScheduler interface {
	OnNextFrame(fn func())
}

// SchedulerFunc adapts a plain function to the FrameScheduler interface.
type SchedulerFunc func(fn func())

func (f SchedulerFunc) OnNextFrame(fn func()) { f(fn) }

// ChangeFunc is invoked after each successful layout pass with the
// computed origin and the measured content box.
type ChangeFunc func(top, left, width, height float64)

// AnchorSpec is the {content, coordinate, offset} triple defining what
// to position and relative to what. It is immutable once set and wholly
// replaced by each Anchor call.
type AnchorSpec struct {
	Content  Renderable
	Coord    models.Location
	OffsetPx float64
}

// Engine holds the per-overlay state and runs layout passes. Each
// overlay is independent; there is no shared global state.
type Engine struct {
	mu sync.Mutex

	projector Projector
	scheduler FrameScheduler
	surface   *Surface
	onChange  ChangeFunc

	spec    *AnchorSpec
	box     models.Box
	hasBox  bool
	pos     models.Position
	hasPos  bool
	visible bool

	// gen is the generation token. Every trigger (anchor, camera move,
	// show, dispose) advances it; a projection completion carrying an
	// older token is discarded.
	gen       uint64
	scheduled bool
	inflight  bool
	rerun     bool
	disposed  bool

	// commitSeq numbers committed passes; notifyMu serializes onChange
	// delivery so a superseded position never arrives after a newer one.
	commitSeq    uint64
	notifyMu     sync.Mutex
	deliveredSeq uint64

	lastErr error
}

// NewEngine creates an engine bound to one surface and one projector.
// onChange may be nil.
func NewEngine(projector Projector, scheduler FrameScheduler, surface *Surface, onChange ChangeFunc) *Engine {
	return &Engine{
		projector: projector,
		scheduler: scheduler,
		surface:   surface,
		onChange:  onChange,
	}
}

// Anchor replaces the anchor spec and schedules a layout pass after the
// next frame commit. Rapid repeated calls before the frame boundary
// coalesce: only the latest spec is laid out.
func (e *Engine) Anchor(content Renderable, coord models.Location, offsetPx float64) error {
	if content == nil {
		return ErrNotReady
	}
	if err := coord.Validate(); err != nil {
		return err
	}
	if offsetPx < 0 {
		return errNegativeOffset(offsetPx)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return nil
	}

	e.spec = &AnchorSpec{Content: content, Coord: coord, OffsetPx: offsetPx}
	if e.surface != nil {
		e.surface.Mount(content)
	}
	e.gen++ // supersede any in-flight pass

	if !e.scheduled && e.scheduler != nil {
		e.scheduled = true
		e.scheduler.OnNextFrame(e.frameTask)
	}
	return nil
}

// CameraMoved triggers a fresh layout pass for a visible overlay. It is
// safe to call on every camera frame: at most one projection request is
// outstanding, and a signal arriving mid-flight supersedes the pending
// one instead of queueing behind it.
func (e *Engine) CameraMoved() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed || !e.visible || e.spec == nil {
		return
	}
	e.gen++
	e.requestLocked()
}

// Show makes the overlay visible and forces a layout recompute. This
// covers anchoring while hidden, where a position was never computed.
func (e *Engine) Show() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.visible = true
	if e.hasPos && e.surface != nil {
		e.surface.SetVisible(true)
	}
	e.gen++
	e.requestLocked()
}

// Hide makes the overlay invisible immediately. The stored anchor spec,
// measured box, and position survive; a later Show repositions without
// re-anchoring.
func (e *Engine) Hide() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.visible = false
	if e.surface != nil {
		e.surface.SetVisible(false)
	}
}

// Dispose releases the anchor, the change hook, and the collaborator
// references. Any in-flight layout pass becomes a no-op on completion,
// and every later call on the engine is a safe no-op.
func (e *Engine) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.disposed = true
	e.gen++ // terminal token
	e.spec = nil
	e.onChange = nil
	e.projector = nil
	e.scheduler = nil
	e.rerun = false
	if e.surface != nil {
		e.surface.Unmount()
		e.surface = nil
	}
}

// Visible reports the current visibility state.
func (e *Engine) Visible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible
}

// Position returns the last computed screen origin, if any pass has
// completed successfully.
func (e *Engine) Position() (models.Position, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pos, e.hasPos
}

// MeasuredBox returns the content box from the last layout pass.
func (e *Engine) MeasuredBox() (models.Box, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.box, e.hasBox
}

// LastError returns the most recently absorbed layout condition, or nil
// after a successful pass. Diagnostics only; conditions never propagate.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// frameTask is the one-shot deferred callback enqueued by Anchor.
func (e *Engine) frameTask() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scheduled = false
	if e.disposed {
		return
	}
	e.requestLocked()
}

// requestLocked starts a layout pass, or marks a rerun if one is already
// in flight. The rerun executes when the superseded completion arrives.
func (e *Engine) requestLocked() {
	if e.inflight {
		e.rerun = true
		return
	}
	e.startPassLocked()
}

// startPassLocked performs the synchronous half of a layout pass:
// validate inputs, measure the mounted content, and issue the
// asynchronous projection request tagged with the current generation.
func (e *Engine) startPassLocked() {
	if e.disposed || e.spec == nil || e.surface == nil || e.projector == nil {
		e.lastErr = ErrNotReady
		return
	}
	box, ok := e.surface.ContentBox()
	if !ok {
		// Content not committed yet; the next trigger retries.
		e.lastErr = ErrMeasurementUnavailable
		return
	}
	e.box, e.hasBox = box, true

	gen := e.gen
	spec := e.spec
	projector := e.projector
	e.inflight = true

	go func() {
		pt, err := projector.Project(context.Background(), spec.Coord)
		e.finishPass(gen, spec.OffsetPx, box, pt, err)
	}()
}

// finishPass runs when a projection resolves. The result is applied only
// if its generation is still current; otherwise it is discarded and any
// pending rerun starts against the latest state.
func (e *Engine) finishPass(gen uint64, offsetPx float64, box models.Box, pt models.ScreenPoint, err error) {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.inflight = false
	rerun := e.rerun
	e.rerun = false

	if gen != e.gen {
		e.lastErr = ErrStale
		if rerun {
			e.startPassLocked()
		}
		e.mu.Unlock()
		return
	}
	if err != nil {
		// Keep the prior visible position rather than flicker invisible.
		e.lastErr = err
		if rerun {
			e.startPassLocked()
		}
		e.mu.Unlock()
		return
	}

	pos := models.Position{
		Left: pt.X - box.Width/2,
		Top:  pt.Y - (offsetPx + box.Height),
	}
	e.pos, e.hasPos = pos, true
	e.visible = true
	e.lastErr = nil
	if e.surface != nil {
		e.surface.SetPlacement(pos)
		e.surface.SetVisible(true)
	}
	notify := e.onChange
	e.commitSeq++
	seq := e.commitSeq
	if rerun {
		e.startPassLocked()
	}
	e.mu.Unlock()

	if notify != nil {
		// Deliveries run one at a time in commit order; a completion
		// goroutine that lost the race to a newer pass is dropped here.
		// notifyMu is never taken while holding e.mu, so a callback may
		// call back into the engine.
		e.notifyMu.Lock()
		if seq > e.deliveredSeq {
			e.deliveredSeq = seq
			notify(pos.Top, pos.Left, box.Width, box.Height)
		}
		e.notifyMu.Unlock()
	}
}
