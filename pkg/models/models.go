package models

import "fmt"

// Location represents a geographic location with latitude and longitude
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the location is a usable lat/lon pair
func (l Location) Validate() error {
	if l.Lat < -90 || l.Lat > 90 {
		return fmt.Errorf("latitude %.4f out of range [-90, 90]", l.Lat)
	}
	if l.Lon < -180 || l.Lon > 180 {
		return fmt.Errorf("longitude %.4f out of range [-180, 180]", l.Lon)
	}
	return nil
}

// Marker represents a named map marker at a geographic location
type Marker struct {
	ID       string    `json:"id"`
	Label    string    `json:"label,omitempty"`
	Location *Location `json:"location"`
}

// BoundingBox represents a rectangular area defined by two corners
type BoundingBox struct {
	BottomLeft Location
	TopRight   Location
}

// Contains reports whether the location falls inside the box
func (b BoundingBox) Contains(l Location) bool {
	return l.Lat >= b.BottomLeft.Lat && l.Lat <= b.TopRight.Lat &&
		l.Lon >= b.BottomLeft.Lon && l.Lon <= b.TopRight.Lon
}

// ScreenPoint is a point in screen pixel space. Depending on the
// rendering context the units are physical or logical pixels.
type ScreenPoint struct {
	X float64
	Y float64
}

// Box is a measured content size in logical pixels
type Box struct {
	Width  float64
	Height float64
}

// Position is a top-left screen origin in logical pixels
type Position struct {
	Top  float64
	Left float64
}
