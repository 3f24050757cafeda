package overlay

import (
	"sync"

	"github.com/kass/go-map-overlay/pkg/models"
)

// Controller is the public control surface between the host application
// and the engine. It is a thin facade: every operation routes to one
// engine instance, and every operation invoked after Dispose is a safe
// no-op, never a fault.
type Controller struct {
	mu     sync.Mutex
	engine *Engine
}

// NewController wraps an engine.
func NewController(engine *Engine) *Controller {
	return &Controller{engine: engine}
}

func (c *Controller) get() *Engine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine
}

// Anchor positions content relative to the given coordinate, lifted by
// offsetPx logical pixels above it.
func (c *Controller) Anchor(content Renderable, coord models.Location, offsetPx float64) error {
	e := c.get()
	if e == nil {
		return nil
	}
	return e.Anchor(content, coord, offsetPx)
}

// Show makes the overlay visible, recomputing its position.
func (c *Controller) Show() {
	if e := c.get(); e != nil {
		e.Show()
	}
}

// Hide makes the overlay invisible without discarding its anchor.
func (c *Controller) Hide() {
	if e := c.get(); e != nil {
		e.Hide()
	}
}

// CameraMoved must be invoked by the host on every viewport change.
func (c *Controller) CameraMoved() {
	if e := c.get(); e != nil {
		e.CameraMoved()
	}
}

// Dispose tears down the engine and drops the reference to it.
func (c *Controller) Dispose() {
	c.mu.Lock()
	e := c.engine
	c.engine = nil
	c.mu.Unlock()
	if e != nil {
		e.Dispose()
	}
}
