package markers

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kass/go-map-overlay/pkg/models"
)

func TestNewIndex(t *testing.T) {
	ix := NewIndex()
	assert.NotNil(t, ix)
	assert.Equal(t, int64(0), ix.Count())
}

func TestAdd(t *testing.T) {
	ix := NewIndex()

	items := []*models.Marker{
		{ID: "1", Label: "San Francisco", Location: &models.Location{Lat: 37.7749, Lon: -122.4194}},
		{ID: "2", Label: "Los Angeles", Location: &models.Location{Lat: 34.0522, Lon: -118.2437}},
		{ID: "3", Label: "New York", Location: &models.Location{Lat: 40.7128, Lon: -74.0060}},
		{ID: "4"}, // marker without location
	}

	ix.Add(items)
	assert.Equal(t, int64(3), ix.Count()) // only 3 markers have locations
}

func TestInViewport(t *testing.T) {
	ix := NewIndex()

	items := []*models.Marker{
		{ID: "SF", Location: &models.Location{Lat: 37.7749, Lon: -122.4194}},
		{ID: "LA", Location: &models.Location{Lat: 34.0522, Lon: -118.2437}},
		{ID: "SD", Location: &models.Location{Lat: 32.7157, Lon: -117.1611}},
		{ID: "NYC", Location: &models.Location{Lat: 40.7128, Lon: -74.0060}}, // outside
		{ID: "CHI", Location: &models.Location{Lat: 41.8781, Lon: -87.6298}}, // outside
	}

	ix.Add(items)

	// Viewport covering California
	box := models.BoundingBox{
		BottomLeft: models.Location{Lat: 32.0, Lon: -125.0},
		TopRight:   models.Location{Lat: 42.0, Lon: -114.0},
	}

	results, err := ix.InViewport(box)
	assert.NoError(t, err)
	assert.Len(t, results, 3) // SF, LA, SD

	resultIDs := make(map[string]bool)
	for _, m := range results {
		resultIDs[m.ID] = true
	}

	assert.True(t, resultIDs["SF"])
	assert.True(t, resultIDs["LA"])
	assert.True(t, resultIDs["SD"])
	assert.False(t, resultIDs["NYC"])
	assert.False(t, resultIDs["CHI"])
}

func TestWithinRadius(t *testing.T) {
	ix := NewIndex()

	sfLat, sfLon := 37.7749, -122.4194
	items := []*models.Marker{
		{ID: "SF", Location: &models.Location{Lat: sfLat, Lon: sfLon}},
		{ID: "Oakland", Location: &models.Location{Lat: 37.8044, Lon: -122.2712}},    // ~13km
		{ID: "San Jose", Location: &models.Location{Lat: 37.3382, Lon: -121.8863}},   // ~48km
		{ID: "Sacramento", Location: &models.Location{Lat: 38.5816, Lon: -121.4944}}, // ~120km
		{ID: "LA", Location: &models.Location{Lat: 34.0522, Lon: -118.2437}},         // ~560km
	}

	ix.Add(items)

	testCases := []struct {
		name     string
		radius   float64
		expected []string
	}{
		{"10km radius", 10, []string{"SF"}},
		{"20km radius", 20, []string{"SF", "Oakland"}},
		{"80km radius", 80, []string{"SF", "Oakland", "San Jose"}},
		{"150km radius", 150, []string{"SF", "Oakland", "San Jose", "Sacramento"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			center := models.Location{Lat: sfLat, Lon: sfLon}
			results, err := ix.WithinRadius(center, tc.radius)
			assert.NoError(t, err)
			assert.Len(t, results, len(tc.expected))

			resultIDs := make(map[string]bool)
			for _, m := range results {
				resultIDs[m.ID] = true
			}

			for _, expectedID := range tc.expected {
				assert.True(t, resultIDs[expectedID], "Expected %s in results", expectedID)
			}
		})
	}
}

func TestNearest(t *testing.T) {
	ix := NewIndex()

	items := []*models.Marker{
		{ID: "1", Location: &models.Location{Lat: 37.7749, Lon: -122.4194}},
		{ID: "2", Location: &models.Location{Lat: 37.7849, Lon: -122.4094}},
		{ID: "3", Location: &models.Location{Lat: 37.7649, Lon: -122.4294}},
		{ID: "4", Location: &models.Location{Lat: 37.8049, Lon: -122.3994}},
		{ID: "5", Location: &models.Location{Lat: 37.7549, Lon: -122.4394}},
	}

	ix.Add(items)

	center := models.Location{Lat: 37.7749, Lon: -122.4194}
	results := ix.Nearest(center, 3)

	assert.Len(t, results, 3)
	// First result should be the query point itself
	assert.Equal(t, "1", results[0].ID)
}

func TestPersistence(t *testing.T) {
	ix1 := NewIndex()
	ix1.Add(generateRandomMarkers(100))

	tempFile := filepath.Join(t.TempDir(), "markers.gob")
	err := ix1.SaveToFile(tempFile)
	require.NoError(t, err)

	ix2 := NewIndex()
	err = ix2.LoadFromFile(tempFile)
	require.NoError(t, err)

	assert.Equal(t, ix1.Count(), ix2.Count())

	box := models.BoundingBox{
		BottomLeft: models.Location{Lat: 30, Lon: -120},
		TopRight:   models.Location{Lat: 40, Lon: -110},
	}

	results1, err := ix1.InViewport(box)
	require.NoError(t, err)

	results2, err := ix2.InViewport(box)
	require.NoError(t, err)

	assert.Equal(t, len(results1), len(results2))
}

func TestClear(t *testing.T) {
	ix := NewIndex()
	ix.Add(generateRandomMarkers(50))
	require.Equal(t, int64(50), ix.Count())

	ix.Clear()
	assert.Equal(t, int64(0), ix.Count())

	results, err := ix.InViewport(models.BoundingBox{
		BottomLeft: models.Location{Lat: -90, Lon: -180},
		TopRight:   models.Location{Lat: 90, Lon: 180},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestConcurrentQueries(t *testing.T) {
	ix := NewIndex()
	ix.Add(generateRandomMarkers(10000))

	done := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		go func() {
			defer func() { done <- true }()

			switch rand.Intn(3) {
			case 0:
				box := models.BoundingBox{
					BottomLeft: models.Location{Lat: rand.Float64()*10 + 30, Lon: rand.Float64()*10 - 120},
					TopRight:   models.Location{Lat: rand.Float64()*10 + 40, Lon: rand.Float64()*10 - 110},
				}
				_, err := ix.InViewport(box)
				assert.NoError(t, err)

			case 1:
				center := models.Location{Lat: rand.Float64()*20 + 30, Lon: rand.Float64()*40 - 120}
				_, err := ix.WithinRadius(center, rand.Float64()*100+10)
				assert.NoError(t, err)

			case 2:
				center := models.Location{Lat: rand.Float64()*20 + 30, Lon: rand.Float64()*40 - 120}
				results := ix.Nearest(center, rand.Intn(50)+1)
				assert.NotNil(t, results)
			}
		}()
	}

	for i := 0; i < 100; i++ {
		<-done
	}
}

func TestDistance(t *testing.T) {
	testCases := []struct {
		name     string
		lat1     float64
		lon1     float64
		lat2     float64
		lon2     float64
		expected float64
		delta    float64
	}{
		{
			name: "Same point",
			lat1: 37.7749, lon1: -122.4194,
			lat2: 37.7749, lon2: -122.4194,
			expected: 0,
			delta:    0.01,
		},
		{
			name: "SF to Oakland",
			lat1: 37.7749, lon1: -122.4194,
			lat2: 37.8044, lon2: -122.2712,
			expected: 13.0,
			delta:    1.0,
		},
		{
			name: "SF to LA",
			lat1: 37.7749, lon1: -122.4194,
			lat2: 34.0522, lon2: -118.2437,
			expected: 559.0,
			delta:    5.0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dist := Distance(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			assert.InDelta(t, tc.expected, dist, tc.delta)
		})
	}
}

// Helper function to generate random markers
func generateRandomMarkers(n int) []*models.Marker {
	items := make([]*models.Marker, n)
	for i := 0; i < n; i++ {
		items[i] = &models.Marker{
			ID: fmt.Sprintf("marker_%d", i),
			Location: &models.Location{
				Lat: rand.Float64()*20 + 30,  // 30-50
				Lon: rand.Float64()*40 - 120, // -120 to -80
			},
		}
	}
	return items
}

// Benchmarks
func BenchmarkAdd(b *testing.B) {
	sizes := []int{1000, 10000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("%d_markers", size), func(b *testing.B) {
			items := generateRandomMarkers(size)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				ix := NewIndex()
				ix.Add(items)
			}
		})
	}
}

func BenchmarkInViewport(b *testing.B) {
	ix := NewIndex()
	ix.Add(generateRandomMarkers(100000))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		box := models.BoundingBox{
			BottomLeft: models.Location{Lat: 35, Lon: -115},
			TopRight:   models.Location{Lat: 40, Lon: -110},
		}
		_, _ = ix.InViewport(box)
	}
}

func BenchmarkNearest(b *testing.B) {
	ix := NewIndex()
	ix.Add(generateRandomMarkers(100000))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		center := models.Location{Lat: 37.5, Lon: -112.5}
		_ = ix.Nearest(center, 10)
	}
}
