package main

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/kass/go-map-overlay/pkg/models"
)

// Config structure for YAML configuration
type Config struct {
	Demo struct {
		Markers    int     `yaml:"markers"`
		Zoom       int     `yaml:"zoom"`
		StartLat   float64 `yaml:"start_lat"`
		StartLon   float64 `yaml:"start_lon"`
		LatencyMs  int     `yaml:"latency_ms"`
		PixelRatio float64 `yaml:"pixel_ratio"`
	} `yaml:"demo"`
}

// LoadConfig reads the YAML config, falling back to defaults when the
// file is absent.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	cfg.Demo.Markers = 5000
	cfg.Demo.Zoom = 6
	cfg.Demo.StartLat = 37.7749
	cfg.Demo.StartLon = -122.4194
	cfg.Demo.LatencyMs = 10
	cfg.Demo.PixelRatio = 1.0

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

var popupStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	Padding(0, 1)

// popup is the renderable unit anchored above a marker. The border is
// plain box-drawing text so the map compositor can splice it by rune.
type popup struct {
	label string
	loc   models.Location
}

func (p popup) View() string {
	return popupStyle.Render(fmt.Sprintf("%s\n%.4f, %.4f", p.label, p.loc.Lat, p.loc.Lon))
}

// renderMap draws the viewport grid, plots visible markers, composites
// the overlay at its engine-computed origin, and appends the status bar.
func (m model) renderMap() string {
	w := m.width
	h := m.height - 2
	if w < 10 || h < 4 {
		return "terminal too small"
	}

	grid := make([][]rune, h)
	for y := range grid {
		grid[y] = make([]rune, w)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}

	// Plot markers inside the viewport
	if bounds, err := m.camera.ViewportBounds(); err == nil {
		visible, err := m.index.InViewport(bounds)
		if err == nil {
			for _, mk := range visible {
				pt, err := m.camera.Locate(*mk.Location)
				if err != nil {
					continue
				}
				x, y := int(pt.X), int(pt.Y)
				if x >= 0 && x < w && y >= 0 && y < h {
					grid[y][x] = '•'
				}
			}
		}
	}

	// Center crosshair
	grid[h/2][w/2] = '+'

	// Composite the positioned overlay; clipping at the edges
	if view, pos, ok := m.surface.Place(); ok {
		lines := strings.Split(view, "\n")
		for i, line := range lines {
			y := int(pos.Top) + i
			if y < 0 || y >= h {
				continue
			}
			x := int(pos.Left)
			for _, r := range line {
				if x >= 0 && x < w {
					grid[y][x] = r
				}
				x++
			}
		}
	}

	var b strings.Builder
	for _, row := range grid {
		b.WriteString(string(row))
		b.WriteString("\n")
	}

	b.WriteString(m.statusBar())
	return b.String()
}

func (m model) statusBar() string {
	center := m.camera.Center()
	left := titleStyle.Render("map-overlay") + " " + statusStyle.Render(
		fmt.Sprintf("center %.4f, %.4f  zoom %d  markers %d",
			center.Lat, center.Lon, m.camera.Zoom(), m.index.Count()))

	var pos string
	if m.hasChange {
		pos = successStyle.Render(fmt.Sprintf("  overlay top=%.0f left=%.0f %vx%v",
			m.lastChange[0], m.lastChange[1], m.lastChange[2], m.lastChange[3]))
	}

	help := dimStyle.Render("arrows pan · +/- zoom · enter anchor · v show/hide · q quit")
	status := left + pos
	if m.message != "" {
		status += "  " + dimStyle.Render(m.message)
	}
	return status + "\n" + help
}

// randomMarkers generates markers clustered around population centers
func randomMarkers(n int) []*models.Marker {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	items := make([]*models.Marker, n)

	for i := 0; i < n; i++ {
		var lat, lon float64

		switch r.Intn(5) {
		case 0: // North America
			lat = r.Float64()*30 + 30
			lon = r.Float64()*60 - 120
		case 1: // Europe
			lat = r.Float64()*20 + 40
			lon = r.Float64()*40 - 10
		case 2: // Asia
			lat = r.Float64()*40 + 20
			lon = r.Float64()*80 + 60
		case 3: // South America
			lat = r.Float64()*40 - 50
			lon = r.Float64()*30 - 80
		default: // Random
			lat = r.Float64()*170 - 85
			lon = r.Float64()*360 - 180
		}

		items[i] = &models.Marker{
			ID: fmt.Sprintf("marker_%d", i),
			Location: &models.Location{
				Lat: lat,
				Lon: lon,
			},
		}
	}

	return items
}
