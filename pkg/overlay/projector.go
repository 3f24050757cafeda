package overlay

import (
	"context"
	"fmt"

	"github.com/kass/go-map-overlay/pkg/models"
)

// MapController is the map subsystem's geo-to-screen projection API.
// The returned point is in device-dependent pixel units.
type MapController interface {
	ScreenCoordinate(ctx context.Context, loc models.Location) (models.ScreenPoint, error)
}

// RenderingContext exposes the pixel density of the active rendering
// surface. Terminal-like surfaces report 1.0; raster surfaces report
// the physical-to-logical ratio.
type RenderingContext interface {
	DevicePixelRatio() float64
}

// MapProjector adapts a MapController to the Projector contract,
// converting device-dependent pixels to logical pixels. The pixel ratio
// is queried per call and never cached: the active rendering context
// can change between frames.
type MapProjector struct {
	controller MapController
	rctx       RenderingContext
}

// NewMapProjector creates a projector over the given map controller and
// rendering context.
func NewMapProjector(controller MapController, rctx RenderingContext) *MapProjector {
	return &MapProjector{controller: controller, rctx: rctx}
}

// Project resolves the coordinate through the map controller and scales
// the result into logical pixels. All failures are wrapped in a
// ProjectionError.
func (p *MapProjector) Project(ctx context.Context, loc models.Location) (models.ScreenPoint, error) {
	if err := loc.Validate(); err != nil {
		return models.ScreenPoint{}, &ProjectionError{Coord: loc, Err: err}
	}

	pt, err := p.controller.ScreenCoordinate(ctx, loc)
	if err != nil {
		return models.ScreenPoint{}, &ProjectionError{Coord: loc, Err: err}
	}

	ratio := p.rctx.DevicePixelRatio()
	if ratio <= 0 {
		return models.ScreenPoint{}, &ProjectionError{Coord: loc, Err: fmt.Errorf("invalid device pixel ratio %.2f", ratio)}
	}

	return models.ScreenPoint{X: pt.X / ratio, Y: pt.Y / ratio}, nil
}
