package mercator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kass/go-map-overlay/pkg/models"
)

// ErrNotReady is returned by ScreenCoordinate before a viewport is set.
var ErrNotReady = errors.New("mercator: map viewport not ready")

// Camera is a map viewport over the Web-Mercator world. It implements
// the MapController and RenderingContext collaborator contracts consumed
// by the overlay engine: ScreenCoordinate resolves a location to
// physical pixels, DevicePixelRatio reports the surface density.
type Camera struct {
	mu      sync.RWMutex
	center  models.Location
	zoom    int
	width   float64 // viewport size, logical pixels
	height  float64
	ratio   float64
	latency time.Duration
	ready   bool
}

// NewCamera creates a camera centered on the given location. The pixel
// ratio defaults to 1.0 (a logical-pixel surface such as a terminal).
func NewCamera(center models.Location, zoom int) *Camera {
	return &Camera{center: center, zoom: zoom, ratio: 1.0}
}

// SetViewport sets the viewport size in logical pixels and marks the
// camera ready to serve projections.
func (c *Camera) SetViewport(width, height float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width = width
	c.height = height
	c.ready = width > 0 && height > 0
}

// SetPixelRatio switches the camera to a surface with the given pixel
// density. Callers must re-query the ratio per projection.
func (c *Camera) SetPixelRatio(ratio float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ratio = ratio
}

// SetLatency adds a simulated round-trip delay to ScreenCoordinate.
func (c *Camera) SetLatency(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latency = d
}

// Center returns the current camera center.
func (c *Camera) Center() models.Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.center
}

// Zoom returns the current zoom level.
func (c *Camera) Zoom() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.zoom
}

// SetCenter moves the camera to the given location.
func (c *Camera) SetCenter(center models.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.center = center
}

// Pan moves the camera center by the given deltas, clamped to the
// mercator latitude domain.
func (c *Camera) Pan(dLat, dLon float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.center.Lat = clamp(c.center.Lat+dLat, -MaxLatitude, MaxLatitude)
	c.center.Lon = clamp(c.center.Lon+dLon, -180, 180)
}

// SetZoom sets the zoom level, clamped to the supported range.
func (c *Camera) SetZoom(zoom int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if zoom < 0 {
		zoom = 0
	}
	if zoom > MaxZoom {
		zoom = MaxZoom
	}
	c.zoom = zoom
}

// Locate synchronously projects a location to viewport coordinates in
// logical pixels, origin at the viewport's top-left.
func (c *Camera) Locate(loc models.Location) (models.ScreenPoint, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.locateLocked(loc)
}

func (c *Camera) locateLocked(loc models.Location) (models.ScreenPoint, error) {
	if !c.ready {
		return models.ScreenPoint{}, ErrNotReady
	}
	pt, err := Project(loc, c.zoom)
	if err != nil {
		return models.ScreenPoint{}, err
	}
	ctr, err := Project(c.center, c.zoom)
	if err != nil {
		return models.ScreenPoint{}, err
	}
	return models.ScreenPoint{
		X: pt.X - ctr.X + c.width/2,
		Y: pt.Y - ctr.Y + c.height/2,
	}, nil
}

// ScreenCoordinate resolves a location to physical pixel coordinates.
// The call is an asynchronous round trip to the map subsystem; the
// configured latency, if any, is applied before the camera state is
// read, so a pan issued mid-flight is reflected in the result.
func (c *Camera) ScreenCoordinate(ctx context.Context, loc models.Location) (models.ScreenPoint, error) {
	c.mu.RLock()
	latency := c.latency
	c.mu.RUnlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return models.ScreenPoint{}, ctx.Err()
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	pt, err := c.locateLocked(loc)
	if err != nil {
		return models.ScreenPoint{}, err
	}
	return models.ScreenPoint{X: pt.X * c.ratio, Y: pt.Y * c.ratio}, nil
}

// DevicePixelRatio reports the density of the camera's rendering surface.
func (c *Camera) DevicePixelRatio() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ratio
}

// ViewportBounds returns the geographic bounding box currently covered
// by the viewport.
func (c *Camera) ViewportBounds() (models.BoundingBox, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ready {
		return models.BoundingBox{}, ErrNotReady
	}

	ctr, err := Project(c.center, c.zoom)
	if err != nil {
		return models.BoundingBox{}, err
	}

	topLeft, err := Unproject(models.ScreenPoint{X: ctr.X - c.width/2, Y: ctr.Y - c.height/2}, c.zoom)
	if err != nil {
		return models.BoundingBox{}, err
	}
	bottomRight, err := Unproject(models.ScreenPoint{X: ctr.X + c.width/2, Y: ctr.Y + c.height/2}, c.zoom)
	if err != nil {
		return models.BoundingBox{}, err
	}

	return models.BoundingBox{
		BottomLeft: models.Location{Lat: bottomRight.Lat, Lon: topLeft.Lon},
		TopRight:   models.Location{Lat: topLeft.Lat, Lon: bottomRight.Lon},
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
