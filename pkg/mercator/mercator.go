// Package mercator implements the Web-Mercator projection and a map
// camera that resolves geographic coordinates to screen pixels.
package mercator

import (
	"fmt"
	"math"

	"github.com/kass/go-map-overlay/pkg/models"
)

const (
	// TileSize is the side length of one map tile in pixels.
	TileSize = 256.0

	// MaxLatitude is the latitude limit of the Web-Mercator projection.
	MaxLatitude = 85.05112878

	// MaxZoom is the deepest zoom level the projection supports.
	MaxZoom = 22
)

// WorldSize returns the side length of the world in pixels at a zoom level.
func WorldSize(zoom int) float64 {
	return TileSize * math.Exp2(float64(zoom))
}

// Project converts a geographic location to world pixel coordinates at
// the given zoom level. The origin is the top-left of the world.
func Project(loc models.Location, zoom int) (models.ScreenPoint, error) {
	if zoom < 0 || zoom > MaxZoom {
		return models.ScreenPoint{}, fmt.Errorf("zoom %d out of range [0, %d]", zoom, MaxZoom)
	}
	if err := loc.Validate(); err != nil {
		return models.ScreenPoint{}, err
	}
	if loc.Lat < -MaxLatitude || loc.Lat > MaxLatitude {
		return models.ScreenPoint{}, fmt.Errorf("latitude %.4f outside mercator domain [%.4f, %.4f]",
			loc.Lat, -MaxLatitude, MaxLatitude)
	}

	size := WorldSize(zoom)
	x := (loc.Lon + 180.0) / 360.0 * size

	latRad := loc.Lat * math.Pi / 180.0
	y := (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * size

	return models.ScreenPoint{X: x, Y: y}, nil
}

// Unproject converts world pixel coordinates back to a geographic
// location at the given zoom level.
func Unproject(pt models.ScreenPoint, zoom int) (models.Location, error) {
	if zoom < 0 || zoom > MaxZoom {
		return models.Location{}, fmt.Errorf("zoom %d out of range [0, %d]", zoom, MaxZoom)
	}

	size := WorldSize(zoom)
	lon := pt.X/size*360.0 - 180.0

	n := math.Pi - 2*math.Pi*pt.Y/size
	lat := 180.0 / math.Pi * math.Atan(math.Sinh(n))

	return models.Location{Lat: lat, Lon: lon}, nil
}
