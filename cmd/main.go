package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kass/go-map-overlay/pkg/markers"
	"github.com/kass/go-map-overlay/pkg/mercator"
	"github.com/kass/go-map-overlay/pkg/models"
	"github.com/kass/go-map-overlay/pkg/overlay"
	"github.com/kass/go-map-overlay/pkg/postgis"
)

var (
	markerFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "map-overlay",
	Short: "Geo-anchored overlay positioning for interactive maps",
	Long:  `Positions UI content anchored to geographic coordinates and keeps it synchronized with camera movement, with marker indexing and a scripted camera simulator.`,
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Generate markers and persist them",
	Long:  `Generate random geographic markers, index them, and save the index to disk. Optionally mirror them into a PostGIS catalog.`,
	Run:   runLoad,
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a scripted camera path against an anchored overlay",
	Long:  `Anchor an overlay to the marker nearest the start position and pan the camera along a scripted path, printing each recomputed overlay position.`,
	Run:   runSimulate,
}

var (
	numMarkers int
	numWorkers int

	usePostgis bool
	pgHost     string
	pgPort     int
	pgUser     string
	pgPassword string
	pgDatabase string

	simSteps   int
	simFPS     int
	simLatency int
	simRatio   float64
	simZoom    int
	simLat     float64
	simLon     float64
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&markerFile, "file", "f", "markers.gob", "Marker index file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	loadCmd.Flags().IntVarP(&numMarkers, "markers", "m", 100000, "Number of markers to generate")
	loadCmd.Flags().IntVarP(&numWorkers, "workers", "w", runtime.NumCPU(), "Number of worker goroutines")
	loadCmd.Flags().BoolVar(&usePostgis, "postgis", false, "Also load markers into PostGIS")
	loadCmd.Flags().StringVar(&pgHost, "pg-host", "localhost", "PostGIS host")
	loadCmd.Flags().IntVar(&pgPort, "pg-port", 5432, "PostGIS port")
	loadCmd.Flags().StringVar(&pgUser, "pg-user", "postgres", "PostGIS user")
	loadCmd.Flags().StringVar(&pgPassword, "pg-password", "postgres", "PostGIS password")
	loadCmd.Flags().StringVar(&pgDatabase, "pg-database", "geodb", "PostGIS database")

	simulateCmd.Flags().IntVarP(&simSteps, "steps", "s", 60, "Number of camera steps")
	simulateCmd.Flags().IntVar(&simFPS, "fps", 30, "Camera frames per second")
	simulateCmd.Flags().IntVar(&simLatency, "latency-ms", 5, "Simulated projection latency in milliseconds")
	simulateCmd.Flags().Float64Var(&simRatio, "pixel-ratio", 1.0, "Device pixel ratio of the rendering surface")
	simulateCmd.Flags().IntVar(&simZoom, "zoom", 12, "Camera zoom level")
	simulateCmd.Flags().Float64Var(&simLat, "lat", 37.7749, "Camera start latitude")
	simulateCmd.Flags().Float64Var(&simLon, "lon", -122.4194, "Camera start longitude")

	rootCmd.AddCommand(loadCmd, simulateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runLoad(cmd *cobra.Command, args []string) {
	fmt.Printf("Generating %d markers with %d workers...\n", numMarkers, numWorkers)

	items := generateRandomMarkers(numMarkers)

	index := markers.NewIndex()
	start := time.Now()

	batchSize := numMarkers / numWorkers
	if batchSize < 1 {
		batchSize = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		startIdx := i * batchSize
		endIdx := startIdx + batchSize
		if i == numWorkers-1 {
			endIdx = numMarkers
		}

		go func(batch []*models.Marker) {
			defer wg.Done()
			index.Add(batch)
		}(items[startIdx:endIdx])
	}

	wg.Wait()
	loadTime := time.Since(start)

	fmt.Printf("Indexed %d markers in %v\n", index.Count(), loadTime)
	fmt.Printf("Markers per second: %.0f\n", float64(numMarkers)/loadTime.Seconds())

	if err := index.SaveToFile(markerFile); err != nil {
		log.Fatalf("Failed to save index: %v", err)
	}
	fmt.Printf("Index saved to %s\n", markerFile)

	if usePostgis {
		fmt.Printf("Mirroring markers into PostGIS at %s:%d...\n", pgHost, pgPort)
		catalog, err := postgis.NewCatalog(pgHost, pgUser, pgPassword, pgDatabase, pgPort)
		if err != nil {
			log.Fatalf("Failed to connect to PostGIS: %v", err)
		}
		defer catalog.Close()

		if err := catalog.InitSchema(); err != nil {
			log.Fatalf("Failed to init schema: %v", err)
		}

		start = time.Now()
		if err := catalog.BulkInsert(items); err != nil {
			log.Fatalf("Failed to insert markers: %v", err)
		}
		count, _ := catalog.Count()
		fmt.Printf("Inserted %d markers into PostGIS in %v\n", count, time.Since(start))
	}
}

// simPopup is the renderable unit anchored during simulation
type simPopup struct {
	label string
}

func (p simPopup) View() string {
	return fmt.Sprintf("+----------------+\n| %-14s |\n+----------------+", p.label)
}

// frameLoop is a FrameScheduler driven by the simulator's frame ticks
type frameLoop struct {
	mu    sync.Mutex
	tasks []func()
}

func (l *frameLoop) OnNextFrame(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tasks = append(l.tasks, fn)
}

// commit runs the tasks deferred to the frame boundary
func (l *frameLoop) commit() {
	l.mu.Lock()
	tasks := l.tasks
	l.tasks = nil
	l.mu.Unlock()
	for _, fn := range tasks {
		fn()
	}
}

func runSimulate(cmd *cobra.Command, args []string) {
	colorGreen, colorYellow, colorCyan, colorReset := "\033[32m", "\033[33m", "\033[36m", "\033[0m"
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		colorGreen, colorYellow, colorCyan, colorReset = "", "", "", ""
	}

	index := markers.NewIndex()
	if err := index.LoadFromFile(markerFile); err != nil {
		fmt.Printf("%sNo marker file at %s, generating 10000 markers%s\n", colorYellow, markerFile, colorReset)
		index.Add(generateRandomMarkers(10000))
	}
	fmt.Printf("Loaded %d markers\n", index.Count())

	start := models.Location{Lat: simLat, Lon: simLon}
	camera := mercator.NewCamera(start, simZoom)
	camera.SetViewport(1280, 800)
	camera.SetPixelRatio(simRatio)
	camera.SetLatency(time.Duration(simLatency) * time.Millisecond)

	nearest := index.Nearest(start, 1)
	if len(nearest) == 0 {
		log.Fatal("No markers available to anchor to")
	}
	target := nearest[0]
	fmt.Printf("Anchoring to marker %s at (%.4f, %.4f)\n", target.ID, target.Location.Lat, target.Location.Lon)

	loop := &frameLoop{}
	surface := overlay.NewSurface()
	var changes atomic.Int64
	engine := overlay.NewEngine(
		overlay.NewMapProjector(camera, camera),
		loop,
		surface,
		func(top, left, width, height float64) {
			changes.Add(1)
			fmt.Printf("%sposition%s top=%.1f left=%.1f box=%.0fx%.0f\n", colorGreen, colorReset, top, left, width, height)
		},
	)
	ctl := overlay.NewController(engine)
	defer ctl.Dispose()

	label := target.Label
	if label == "" {
		label = target.ID
	}
	if err := ctl.Anchor(simPopup{label: label}, *target.Location, 2); err != nil {
		log.Fatalf("Failed to anchor: %v", err)
	}

	frame := time.Second / time.Duration(simFPS)
	// Pan roughly four pixels per frame regardless of zoom
	dLon := 4.0 * 360.0 / mercator.WorldSize(simZoom)

	fmt.Printf("%sPanning %d steps at %d fps (latency %dms, ratio %.1f)%s\n",
		colorCyan, simSteps, simFPS, simLatency, simRatio, colorReset)

	for i := 0; i < simSteps; i++ {
		// Frame boundary: deferred layout tasks see committed content
		loop.commit()

		camera.Pan(0, dLon)
		ctl.CameraMoved()

		if verbose {
			if pos, ok := engine.Position(); ok {
				fmt.Printf("step %d: center=(%.4f, %.4f) overlay=(%.1f, %.1f)\n",
					i, camera.Center().Lat, camera.Center().Lon, pos.Top, pos.Left)
			}
		}

		time.Sleep(frame)
	}

	// Let the last in-flight projection settle
	time.Sleep(time.Duration(simLatency)*time.Millisecond + 50*time.Millisecond)

	fmt.Printf("\n%sSimulation complete:%s %d camera steps coalesced into %d position updates\n",
		colorGreen, colorReset, simSteps, changes.Load())
}

func generateRandomMarkers(n int) []*models.Marker {
	items := make([]*models.Marker, n)

	numWorkers := runtime.NumCPU()
	batchSize := n / numWorkers
	if batchSize < 1 {
		batchSize = 1
		numWorkers = n
	}
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		startIdx := w * batchSize
		endIdx := startIdx + batchSize
		if w == numWorkers-1 {
			endIdx = n
		}

		go func(start, end int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(start)))

			for i := start; i < end; i++ {
				// Concentrate around major population centers
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
		}(startIdx, endIdx)
	}

	wg.Wait()
	return items
}
