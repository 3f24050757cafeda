package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocationValidate(t *testing.T) {
	testCases := []struct {
		name    string
		loc     Location
		wantErr bool
	}{
		{"valid", Location{Lat: 37.7749, Lon: -122.4194}, false},
		{"lat north pole", Location{Lat: 90, Lon: 0}, false},
		{"lat south pole", Location{Lat: -90, Lon: 0}, false},
		{"lon date line", Location{Lat: 0, Lon: 180}, false},
		{"lat too high", Location{Lat: 90.1, Lon: 0}, true},
		{"lat too low", Location{Lat: -90.1, Lon: 0}, true},
		{"lon too high", Location{Lat: 0, Lon: 180.1}, true},
		{"lon too low", Location{Lat: 0, Lon: -180.1}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.loc.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBoundingBoxContains(t *testing.T) {
	box := BoundingBox{
		BottomLeft: Location{Lat: 32.0, Lon: -125.0},
		TopRight:   Location{Lat: 42.0, Lon: -114.0},
	}

	assert.True(t, box.Contains(Location{Lat: 37.7749, Lon: -122.4194}))
	assert.True(t, box.Contains(Location{Lat: 32.0, Lon: -125.0})) // corner inclusive
	assert.False(t, box.Contains(Location{Lat: 40.7128, Lon: -74.0060}))
	assert.False(t, box.Contains(Location{Lat: 45.0, Lon: -120.0}))
}
