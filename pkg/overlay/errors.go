package overlay

import (
	"errors"
	"fmt"

	"github.com/kass/go-map-overlay/pkg/models"
)

// Absorbed layout conditions. None of these propagate to the host; they
// are recorded for diagnostics and the pass is skipped, retried on the
// next trigger, or discarded.
var (
	// ErrNotReady means the anchor spec or the mount point is missing.
	ErrNotReady = errors.New("overlay: required inputs incomplete")

	// ErrMeasurementUnavailable means the mounted content has no usable
	// dimensions yet. The engine never substitutes a default size.
	ErrMeasurementUnavailable = errors.New("overlay: content not yet measurable")

	// ErrStale means a completed projection was superseded by a newer
	// anchor or camera event, or by disposal.
	ErrStale = errors.New("overlay: result superseded")
)

// ProjectionError reports that the map subsystem could not resolve a
// coordinate to screen space. The prior visible position is preserved.
type ProjectionError struct {
	Coord models.Location
	Err   error
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("overlay: projection of (%.4f, %.4f) failed: %v", e.Coord.Lat, e.Coord.Lon, e.Err)
}

func (e *ProjectionError) Unwrap() error {
	return e.Err
}

func errNegativeOffset(v float64) error {
	return fmt.Errorf("overlay: vertical offset must be >= 0, got %.2f", v)
}
