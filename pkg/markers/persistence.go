package markers

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/kass/go-map-overlay/pkg/models"
)

// IndexData is the serializable form of the marker index
type IndexData struct {
	Markers []*models.Marker `json:"markers"`
	Count   int64            `json:"count"`
}

// SaveToFile saves the index to a binary file
func (ix *Index) SaveToFile(filename string) error {
	// rtreego has no iterator, so extract everything with a
	// world-covering bounding box
	world := models.BoundingBox{
		BottomLeft: models.Location{Lat: -90, Lon: -180},
		TopRight:   models.Location{Lat: 90, Lon: 180},
	}

	items, err := ix.InViewport(world)
	if err != nil {
		return fmt.Errorf("failed to extract markers: %w", err)
	}

	data := IndexData{
		Markers: items,
		Count:   ix.itemCount.Load(),
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	return nil
}

// LoadFromFile loads the index from a binary file
func (ix *Index) LoadFromFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var data IndexData
	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&data); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}

	ix.Clear()
	ix.Add(data.Markers)

	return nil
}
