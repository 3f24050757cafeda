package main

import (
	"fmt"
	"log"
	"time"

	"github.com/kass/go-map-overlay/pkg/markers"
	"github.com/kass/go-map-overlay/pkg/mercator"
	"github.com/kass/go-map-overlay/pkg/models"
	"github.com/kass/go-map-overlay/pkg/overlay"
)

// infoCard is a minimal renderable unit for the example
type infoCard struct {
	label string
}

func (c infoCard) View() string {
	bar := "+----------------+"
	return fmt.Sprintf("%s\n| %-14s |\n%s", bar, c.label, bar)
}

func main() {
	// Index some major US cities as markers
	index := markers.NewIndex()
	cities := []*models.Marker{
		{ID: "NYC", Label: "New York", Location: &models.Location{Lat: 40.7128, Lon: -74.0060}},
		{ID: "LAX", Label: "Los Angeles", Location: &models.Location{Lat: 34.0522, Lon: -118.2437}},
		{ID: "CHI", Label: "Chicago", Location: &models.Location{Lat: 41.8781, Lon: -87.6298}},
		{ID: "SFO", Label: "San Francisco", Location: &models.Location{Lat: 37.7749, Lon: -122.4194}},
		{ID: "SEA", Label: "Seattle", Location: &models.Location{Lat: 47.6062, Lon: -122.3321}},
		{ID: "DEN", Label: "Denver", Location: &models.Location{Lat: 39.7392, Lon: -104.9903}},
	}
	index.Add(cities)
	fmt.Printf("Indexed %d city markers\n\n", index.Count())

	// A camera over San Francisco serves as the map subsystem
	center := models.Location{Lat: 37.7749, Lon: -122.4194}
	camera := mercator.NewCamera(center, 10)
	camera.SetViewport(1280, 800)
	camera.SetLatency(5 * time.Millisecond)

	// Manual frame loop: tasks deferred by the engine run at each commit
	var deferred []func()
	scheduler := overlay.SchedulerFunc(func(fn func()) {
		deferred = append(deferred, fn)
	})
	commit := func() {
		tasks := deferred
		deferred = nil
		for _, fn := range tasks {
			fn()
		}
	}

	surface := overlay.NewSurface()
	engine := overlay.NewEngine(
		overlay.NewMapProjector(camera, camera),
		scheduler,
		surface,
		func(top, left, width, height float64) {
			fmt.Printf("overlay moved: top=%.1f left=%.1f box=%.0fx%.0f\n", top, left, width, height)
		},
	)
	ctl := overlay.NewController(engine)
	defer ctl.Dispose()

	// Anchor a card to the marker nearest the camera center
	nearest := index.Nearest(center, 1)[0]
	fmt.Printf("Anchoring to %s\n", nearest.Label)
	if err := ctl.Anchor(infoCard{label: nearest.Label}, *nearest.Location, 2); err != nil {
		log.Fatal(err)
	}

	// First layout pass runs after the frame commits
	commit()
	time.Sleep(50 * time.Millisecond)

	// Pan the camera; each move recomputes the overlay position
	fmt.Println("\nPanning east...")
	for i := 0; i < 5; i++ {
		camera.Pan(0, 0.01)
		ctl.CameraMoved()
		time.Sleep(30 * time.Millisecond)
	}

	// Hiding keeps the anchor; showing repositions without re-anchoring
	ctl.Hide()
	fmt.Println("\nOverlay hidden; panning is now a no-op for the engine")
	camera.Pan(0, 0.05)
	ctl.CameraMoved()

	ctl.Show()
	time.Sleep(50 * time.Millisecond)

	if pos, ok := engine.Position(); ok {
		fmt.Printf("\nFinal position: top=%.1f left=%.1f\n", pos.Top, pos.Left)
	}
}
