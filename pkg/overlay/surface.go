package overlay

import (
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/kass/go-map-overlay/pkg/models"
)

// Surface is the render target for one overlay: it holds the mounted
// content and the placement the engine computed for it. Its output is a
// pure function of (visibility, position, content); measuring content
// never calls back into the engine, so no layout feedback loop exists.
type Surface struct {
	mu      sync.Mutex
	content Renderable
	pos     models.Position
	placed  bool
	visible bool
}

// NewSurface creates an empty, hidden surface.
func NewSurface() *Surface {
	return &Surface{}
}

// Mount commits content to the surface, replacing any prior content.
// The existing placement is kept until the next layout pass so that a
// re-anchor does not flicker through an unpositioned state.
func (s *Surface) Mount(content Renderable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = content
}

// Unmount releases the content and hides the surface.
func (s *Surface) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = nil
	s.placed = false
	s.visible = false
}

// ContentBox measures the mounted content's rendered form in logical
// pixels (terminal cells for text content). It reports false while no
// content is mounted or the content renders empty; a zero-size box is
// "not ready", never a measurement.
func (s *Surface) ContentBox() (models.Box, bool) {
	s.mu.Lock()
	content := s.content
	s.mu.Unlock()

	if content == nil {
		return models.Box{}, false
	}
	view := content.View()
	if view == "" {
		return models.Box{}, false
	}
	w := float64(lipgloss.Width(view))
	h := float64(lipgloss.Height(view))
	if w <= 0 || h <= 0 {
		return models.Box{}, false
	}
	return models.Box{Width: w, Height: h}, true
}

// SetPlacement records the screen origin computed by a layout pass.
func (s *Surface) SetPlacement(pos models.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = pos
	s.placed = true
}

// SetVisible toggles the visibility gate. Content and placement survive
// a hide so a later show renders immediately.
func (s *Surface) SetVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = visible
}

// Place returns the content's rendered view and its top-left origin.
// It reports false unless the surface is visible, positioned, and has
// mounted content; a partially computed position is never rendered.
func (s *Surface) Place() (string, models.Position, bool) {
	s.mu.Lock()
	content, pos := s.content, s.pos
	ready := s.visible && s.placed && s.content != nil
	s.mu.Unlock()

	if !ready {
		return "", models.Position{}, false
	}
	return content.View(), pos, true
}
