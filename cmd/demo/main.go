package main

import (
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kass/go-map-overlay/pkg/markers"
	"github.com/kass/go-map-overlay/pkg/mercator"
	"github.com/kass/go-map-overlay/pkg/models"
	"github.com/kass/go-map-overlay/pkg/overlay"
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF79C6")).
			Background(lipgloss.Color("#282A36")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8BE9FD"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B"))
)

type stage int

const (
	stageLoading stage = iota
	stageReady
)

type model struct {
	stage   stage
	spinner spinner.Model
	width   int
	height  int

	cfg     Config
	camera  *mercator.Camera
	index   *markers.Index
	surface *overlay.Surface
	engine  *overlay.Engine
	ctl     *overlay.Controller

	anchored   string
	lastChange [4]float64
	hasChange  bool
	message    string
}

type markersLoadedMsg struct {
	count int64
}

// frameTaskMsg carries a deferred layout task through the program's
// message loop, so it runs after the in-flight render commits
type frameTaskMsg struct {
	fn func()
}

type changeMsg struct {
	top, left, width, height float64
}

var program *tea.Program

// teaScheduler defers layout tasks through the bubbletea event loop
type teaScheduler struct{}

func (teaScheduler) OnNextFrame(fn func()) {
	go program.Send(frameTaskMsg{fn: fn})
}

func initialModel(cfg Config) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF79C6"))

	camera := mercator.NewCamera(models.Location{Lat: cfg.Demo.StartLat, Lon: cfg.Demo.StartLon}, cfg.Demo.Zoom)
	camera.SetPixelRatio(cfg.Demo.PixelRatio)
	camera.SetLatency(time.Duration(cfg.Demo.LatencyMs) * time.Millisecond)

	surface := overlay.NewSurface()
	engine := overlay.NewEngine(
		overlay.NewMapProjector(camera, camera),
		teaScheduler{},
		surface,
		func(top, left, width, height float64) {
			go program.Send(changeMsg{top: top, left: left, width: width, height: height})
		},
	)

	return model{
		stage:   stageLoading,
		spinner: s,
		cfg:     cfg,
		camera:  camera,
		index:   markers.NewIndex(),
		surface: surface,
		engine:  engine,
		ctl:     overlay.NewController(engine),
		width:   80,
		height:  24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		loadMarkers(m.index, m.cfg.Demo.Markers),
	)
}

func loadMarkers(index *markers.Index, n int) tea.Cmd {
	return func() tea.Msg {
		index.Add(randomMarkers(n))
		return markersLoadedMsg{count: index.Count()}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.camera.SetViewport(float64(msg.Width), float64(msg.Height-2))
		m.ctl.CameraMoved()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case markersLoadedMsg:
		m.stage = stageReady
		m.message = fmt.Sprintf("%d markers loaded · enter anchors a popup", msg.count)
		return m, nil

	case frameTaskMsg:
		msg.fn()
		return m, nil

	case changeMsg:
		m.lastChange = [4]float64{msg.top, msg.left, msg.width, msg.height}
		m.hasChange = true
		return m, nil
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.stage != stageReady {
		if s := msg.String(); s == "q" || s == "ctrl+c" {
			m.ctl.Dispose()
			return m, tea.Quit
		}
		return m, nil
	}

	// Degrees per terminal cell at the current zoom
	step := 360.0 / mercator.WorldSize(m.camera.Zoom())

	switch msg.String() {
	case "q", "ctrl+c":
		m.ctl.Dispose()
		return m, tea.Quit

	case "up":
		m.camera.Pan(2*step, 0)
		m.ctl.CameraMoved()
	case "down":
		m.camera.Pan(-2*step, 0)
		m.ctl.CameraMoved()
	case "left":
		m.camera.Pan(0, -4*step)
		m.ctl.CameraMoved()
	case "right":
		m.camera.Pan(0, 4*step)
		m.ctl.CameraMoved()

	case "+", "=":
		m.camera.SetZoom(m.camera.Zoom() + 1)
		m.ctl.CameraMoved()
	case "-":
		m.camera.SetZoom(m.camera.Zoom() - 1)
		m.ctl.CameraMoved()

	case "enter":
		nearest := m.index.Nearest(m.camera.Center(), 1)
		if len(nearest) == 0 {
			m.message = "no markers to anchor to"
			return m, nil
		}
		target := nearest[0]
		label := target.Label
		if label == "" {
			label = target.ID
		}
		if err := m.ctl.Anchor(popup{label: label, loc: *target.Location}, *target.Location, 1); err != nil {
			m.message = fmt.Sprintf("anchor failed: %v", err)
			return m, nil
		}
		m.anchored = label
		m.message = fmt.Sprintf("anchored to %s", label)

	case "v":
		if m.engine.Visible() {
			m.ctl.Hide()
			m.message = "overlay hidden"
		} else {
			m.ctl.Show()
			m.message = "overlay shown"
		}
	}

	return m, nil
}

func (m model) View() string {
	if m.stage == stageLoading {
		return fmt.Sprintf("\n %s Loading %d markers...\n\n %s\n",
			m.spinner.View(), m.cfg.Demo.Markers, dimStyle.Render("press q to quit"))
	}
	return m.renderMap()
}

func main() {
	cfg, err := LoadConfig("config.yaml")
	if err != nil {
		log.Fatal(err)
	}

	program = tea.NewProgram(initialModel(cfg), tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		log.Fatal(err)
	}
}
