package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kass/go-map-overlay/pkg/models"
)

func TestSurfaceContentBox(t *testing.T) {
	s := NewSurface()

	// Nothing mounted
	_, ok := s.ContentBox()
	assert.False(t, ok)

	// Empty render is "not ready", not a zero-size box
	s.Mount(&staticContent{view: ""})
	_, ok = s.ContentBox()
	assert.False(t, ok)

	s.Mount(contentOfSize(15, 4))
	box, ok := s.ContentBox()
	require.True(t, ok)
	assert.Equal(t, models.Box{Width: 15, Height: 4}, box)

	// Ragged lines measure as the widest line
	s.Mount(&staticContent{view: "ab\nabcde\nabc"})
	box, ok = s.ContentBox()
	require.True(t, ok)
	assert.Equal(t, models.Box{Width: 5, Height: 3}, box)
}

func TestSurfacePlaceGating(t *testing.T) {
	s := NewSurface()
	pos := models.Position{Top: 12, Left: 34}

	// No content, no placement
	_, _, ok := s.Place()
	assert.False(t, ok)

	s.Mount(&staticContent{view: "popup"})
	_, _, ok = s.Place()
	assert.False(t, ok)

	// Placement without visibility stays hidden
	s.SetPlacement(pos)
	_, _, ok = s.Place()
	assert.False(t, ok)

	s.SetVisible(true)
	view, got, ok := s.Place()
	require.True(t, ok)
	assert.Equal(t, "popup", view)
	assert.Equal(t, pos, got)

	// Hiding keeps content and placement for the next show
	s.SetVisible(false)
	_, _, ok = s.Place()
	assert.False(t, ok)
	s.SetVisible(true)
	_, got, ok = s.Place()
	require.True(t, ok)
	assert.Equal(t, pos, got)

	s.Unmount()
	_, _, ok = s.Place()
	assert.False(t, ok)
}
