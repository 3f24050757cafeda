// Package markers maintains a thread-safe R-Tree index of map markers
// for viewport queries and nearest-marker lookup.
package markers

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/dhconnelly/rtreego"

	"github.com/kass/go-map-overlay/pkg/models"
)

const (
	tolerance   = 0.01
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
	earthRadius = 6371.0 // km
)

// spatialMarker wraps a Marker for R-Tree indexing
type spatialMarker struct {
	*models.Marker
	rect *rtreego.Rect
}

func (sm *spatialMarker) Bounds() *rtreego.Rect {
	return sm.rect
}

// Index is a thread-safe R-Tree based marker index
type Index struct {
	tree      *rtreego.Rtree
	mu        sync.RWMutex
	itemCount atomic.Int64
}

// NewIndex creates an empty marker index
func NewIndex() *Index {
	return &Index{
		tree: rtreego.NewTree(dimensions, minChildren, maxChildren),
	}
}

// Add indexes a batch of markers, preparing rectangles in parallel
func (ix *Index) Add(items []*models.Marker) {
	if len(items) == 0 {
		return
	}

	numCPU := runtime.NumCPU()
	spatialItems := make([]rtreego.Spatial, len(items))
	var wg sync.WaitGroup

	batchSize := len(items) / numCPU
	if batchSize < 1 {
		batchSize = 1
		numCPU = len(items)
	}

	for i := 0; i < numCPU && i*batchSize < len(items); i++ {
		wg.Add(1)
		start := i * batchSize
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}

		go func(start, end int) {
			defer wg.Done()
			for j := start; j < end; j++ {
				marker := items[j]
				if marker == nil || marker.Location == nil {
					continue
				}
				pt := rtreego.Point{marker.Location.Lat, marker.Location.Lon}
				rect := pt.ToRect(tolerance)
				spatialItems[j] = &spatialMarker{marker, rect}
			}
		}(start, end)
	}

	wg.Wait()

	// Insertion into the shared tree must be synchronized
	ix.mu.Lock()
	defer ix.mu.Unlock()

	count := int64(0)
	for _, item := range spatialItems {
		if item != nil {
			ix.tree.Insert(item)
			count++
		}
	}
	ix.itemCount.Add(count)
}

// InViewport returns all markers inside the given bounding box
func (ix *Index) InViewport(box models.BoundingBox) ([]*models.Marker, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	bottomLeft := rtreego.Point{box.BottomLeft.Lat, box.BottomLeft.Lon}
	rectSize := []float64{
		box.TopRight.Lat - box.BottomLeft.Lat,
		box.TopRight.Lon - box.BottomLeft.Lon,
	}

	bounds, err := rtreego.NewRect(bottomLeft, rectSize)
	if err != nil {
		return nil, fmt.Errorf("invalid viewport box: %w", err)
	}

	results := ix.tree.SearchIntersect(bounds)

	// Tolerance-padded rectangles can intersect without the marker
	// itself being inside; filter strictly.
	found := make([]*models.Marker, 0, len(results))
	for _, result := range results {
		item, ok := result.(*spatialMarker)
		if !ok || item.Marker == nil || item.Location == nil {
			continue
		}
		if box.Contains(*item.Location) {
			found = append(found, item.Marker)
		}
	}

	return found, nil
}

// WithinRadius returns all markers within radiusKm of the center
func (ix *Index) WithinRadius(center models.Location, radiusKm float64) ([]*models.Marker, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	// Convert radius to degrees (approximation)
	deg := (radiusKm / earthRadius) * (180 / math.Pi)

	bounds, err := rtreego.NewRect(
		rtreego.Point{center.Lat - deg, center.Lon - deg},
		[]float64{2 * deg, 2 * deg},
	)
	if err != nil {
		return nil, fmt.Errorf("invalid radius search: %w", err)
	}

	results := ix.tree.SearchIntersect(bounds)

	found := make([]*models.Marker, 0, len(results))
	for _, result := range results {
		item, ok := result.(*spatialMarker)
		if !ok || item.Marker == nil || item.Location == nil {
			continue
		}
		dist := Distance(center.Lat, center.Lon, item.Location.Lat, item.Location.Lon)
		if dist <= radiusKm {
			found = append(found, item.Marker)
		}
	}

	return found, nil
}

// Nearest returns the n markers closest to the given location
func (ix *Index) Nearest(loc models.Location, n int) []*models.Marker {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	queryPoint := rtreego.Point{loc.Lat, loc.Lon}
	results := ix.tree.NearestNeighbors(n, queryPoint)

	found := make([]*models.Marker, 0, len(results))
	for _, result := range results {
		if item, ok := result.(*spatialMarker); ok {
			found = append(found, item.Marker)
		}
	}

	return found
}

// Count returns the number of indexed markers
func (ix *Index) Count() int64 {
	return ix.itemCount.Load()
}

// Clear removes all markers from the index
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.tree = rtreego.NewTree(dimensions, minChildren, maxChildren)
	ix.itemCount.Store(0)
}

// Distance calculates the Haversine distance between two points in kilometers
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadius * c
}
