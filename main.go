package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/df07/go-acoustic-raytracer/internal/discovery"
	"github.com/df07/go-acoustic-raytracer/internal/ui"
	"github.com/df07/go-acoustic-raytracer/pkg/analysis"
	"github.com/df07/go-acoustic-raytracer/pkg/core"
	"github.com/df07/go-acoustic-raytracer/pkg/integrator"
	"github.com/df07/go-acoustic-raytracer/pkg/material"
	"github.com/df07/go-acoustic-raytracer/pkg/scene"
	"github.com/df07/go-acoustic-raytracer/pkg/simulation"
	"github.com/df07/go-acoustic-raytracer/pkg/sink"
	"github.com/df07/go-acoustic-raytracer/web/server"
)

type cli struct {
	Trace    TraceCmd    `cmd:"" default:"withargs" help:"Trace a scene and write ray events to CSV"`
	Scenes   ScenesCmd   `cmd:"" help:"List built-in and JSON scenes"`
	Serve    ServeCmd    `cmd:"" help:"Start the web server"`
	Discover DiscoverCmd `cmd:"" help:"Find simulation servers on the local network"`
}

// TraceCmd runs a simulation from the command line. Zero-valued overrides keep the scene's settings.
type TraceCmd struct {
	Scene     string `arg:"" optional:"" default:"acoustic-lab" help:"Scene ID, json:<name> or path to a .json scene"`
	ScenesDir string `name:"scenes-dir" help:"Directory of JSON scene files"`
	OutputDir string `name:"output-dir" default:"output" help:"Base directory for results"`
	Output    string `short:"o" help:"CSV file for ray events (default <output-dir>/<scene>/events_<timestamp>.csv)"`

	Rays           int     `help:"Rays per source/receiver pair"`
	MaxReflections int     `name:"max-reflections" help:"Bounce budget per path"`
	Workers        int     `help:"Worker goroutines (0 = scene setting)"`
	BatchSize      int     `name:"batch-size" help:"Rays per worker task"`
	SpeedOfSound   float64 `name:"speed-of-sound" help:"Metres per second"`
	EnergyFloor    float64 `name:"energy-floor" default:"-1" help:"Stop paths below this energy (-1 = scene setting)"`
	Seed           int64   `help:"Random seed (0 = scene setting)"`
	Policy         string  `help:"Absorption policy: single, three-band or six-octave"`
	Model          string  `help:"Energy model: exponential or linear"`
	NoClassify     bool    `name:"no-classify" help:"Trace every pair with an empty room label"`

	RoomPairs    bool   `name:"room-pairs" help:"Only trace sources and receivers that share a room"`
	Legacy       bool   `help:"Write energies with two decimals"`
	Header       bool   `help:"Write a header line to the CSV"`
	EDC          bool   `name:"edc" help:"Write energy decay curves per room"`
	ReceiverOnly bool   `name:"receiver-only" help:"Only use receiver hits for decay analysis"`
	TUI          bool   `name:"tui" negatable:"" default:"true" help:"Show a progress display"`
	LogFile      string `name:"log-file" help:"Log file while the progress display is shown (default <output-dir>/<scene>/trace.log)"`
}

// traceConfig applies the command line overrides on top of base
func (c *TraceCmd) traceConfig(base simulation.TraceConfig) (simulation.TraceConfig, error) {
	tc := base
	if c.Rays > 0 {
		tc.NumberOfRays = c.Rays
	}
	if c.MaxReflections > 0 {
		tc.MaxReflections = c.MaxReflections
	}
	if c.Workers > 0 {
		tc.NumWorkers = c.Workers
	}
	if c.BatchSize > 0 {
		tc.BatchSize = c.BatchSize
	}
	if c.SpeedOfSound > 0 {
		tc.SpeedOfSound = c.SpeedOfSound
	}
	if c.EnergyFloor >= 0 {
		tc.EnergyFloor = c.EnergyFloor
	}
	if c.Seed != 0 {
		tc.Seed = c.Seed
	}
	if c.Policy != "" {
		policy, err := material.ParseAbsorptionPolicy(c.Policy)
		if err != nil {
			return tc, err
		}
		tc.AbsorptionPolicy = policy
	}
	if c.Model != "" {
		model, err := material.ParseEnergyModel(c.Model)
		if err != nil {
			return tc, err
		}
		tc.EnergyModel = model
	}
	if c.NoClassify {
		tc.ClassifyRooms = false
	}
	return tc, tc.Validate()
}

// energyDecimals returns the energy precision of the CSV records
func (c *TraceCmd) energyDecimals(model material.EnergyModel) int {
	if c.Legacy || model == material.Linear {
		return sink.LegacyEnergyDecimals
	}
	return sink.EnergyDecimals
}

func (c *TraceCmd) Run() error {
	sceneObj, err := scene.Load(c.Scene, c.ScenesDir)
	if err != nil {
		return err
	}
	config, err := c.traceConfig(sceneObj.Trace)
	if err != nil {
		return err
	}

	pairs := sceneObj.Pairs()
	if c.RoomPairs {
		pairs = sceneObj.RoomPairs()
	}

	outputDir := createOutputDir(c.OutputDir, c.Scene)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	// The progress display owns the terminal, so log lines go to a file
	if c.TUI {
		logPath := c.LogFile
		if logPath == "" {
			logPath = filepath.Join(outputDir, "trace.log")
		}
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer logFile.Close()
		log.SetOutput(logFile)
		defer log.SetOutput(os.Stderr)
	}

	csvPath := c.Output
	if csvPath == "" {
		csvPath = filepath.Join(outputDir, fmt.Sprintf("events_%s.csv", time.Now().Format("20060102_150405")))
	}
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("creating CSV file: %w", err)
	}
	csvSink := sink.NewCSVSink(file, c.energyDecimals(config.EnergyModel))
	if c.Header {
		if err := csvSink.WriteHeader(); err != nil {
			csvSink.Close()
			return err
		}
	}
	async := sink.NewAsyncSink(csvSink, 4096)

	var collector *analysis.Collector
	var collectorSink integrator.EventSink
	if c.ReceiverOnly {
		rc := analysis.NewReceiverCollector(analysis.DefaultBinWidth, func(e integrator.RayEvent) bool {
			return sceneObj.IsReceiver(e.SurfaceID)
		})
		collector, collectorSink = rc.Collector, rc
	} else {
		collector = analysis.NewCollector(analysis.DefaultBinWidth)
		collectorSink = collector
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sim := simulation.NewSimulator(sceneObj, sceneObj, config, core.NewDefaultLogger())
	stats, runErr := c.simulate(ctx, sim, sceneObj.Name, pairs, sink.MultiSink{async, collectorSink}, collector)

	if err := async.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if err := csvSink.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return runErr
	}

	fmt.Printf("Traced %d rays in %v (%.0f rays/s), %d events written to %s\n",
		stats.RaysTraced, stats.Duration.Round(time.Millisecond), stats.RaysPerSecond(), csvSink.Lines(), csvPath)
	printDecay(os.Stdout, collector)

	if c.EDC {
		paths, err := writeEDCFiles(outputDir, collector)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Printf("Decay curve saved as %s\n", p)
		}
	}
	return nil
}

// simulate runs the simulator, behind the progress display when enabled
func (c *TraceCmd) simulate(ctx context.Context, sim *simulation.Simulator, name string, pairs []simulation.SourceReceiverPair, eventSink integrator.EventSink, collector *analysis.Collector) (simulation.RunStats, error) {
	if !c.TUI {
		return sim.Run(ctx, pairs, eventSink)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tui := ui.NewProgressTUI(name, len(pairs), tea.WithAltScreen())
	sim.SetProgressCallback(tui.Progress)

	type result struct {
		stats simulation.RunStats
		err   error
	}
	done := make(chan result, 1)
	go func() {
		stats, err := sim.Run(ctx, pairs, eventSink)
		tui.Finish(stats, collector.Estimates(), err)
		done <- result{stats, err}
	}()
	go func() {
		select {
		case <-tui.QuitChan():
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := tui.Run(); err != nil {
		cancel()
		<-done
		return simulation.RunStats{}, fmt.Errorf("progress display: %w", err)
	}
	cancel()
	r := <-done
	return r.stats, r.err
}

// createOutputDir returns <base>/<scene name> for a scene ID or file path
func createOutputDir(base, sceneID string) string {
	name := strings.TrimPrefix(sceneID, "json:")
	if strings.HasSuffix(name, ".json") {
		name = strings.TrimSuffix(filepath.Base(name), ".json")
	}
	if name == "" {
		name = "scene"
	}
	return filepath.Join(base, name)
}

// slug turns a room label into a file name component
func slug(label string) string {
	if label == "" {
		return "unlabelled"
	}
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(label), " ", "-"))
}

// writeEDCFiles writes edc_<room>.csv for every room the collector has seen
func writeEDCFiles(dir string, collector *analysis.Collector) ([]string, error) {
	var paths []string
	for _, room := range collector.Rooms() {
		echogram, _ := collector.Echogram(room)
		path := filepath.Join(dir, fmt.Sprintf("edc_%s.csv", slug(room)))
		f, err := os.Create(path)
		if err != nil {
			return paths, err
		}
		err = analysis.WriteEDC(f, analysis.EDC(echogram.Normalized()))
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func printDecay(w io.Writer, collector *analysis.Collector) {
	estimates := collector.Estimates()
	for _, label := range collector.Rooms() {
		est := estimates[label]
		if label == "" {
			label = "(unlabelled)"
		}
		fmt.Fprintf(w, "  %-22s EDT %s  T20 %s  T30 %s\n", label, fitString(est.EDT), fitString(est.T20), fitString(est.T30))
	}
}

func fitString(fit analysis.DecayFit) string {
	if !fit.OK {
		return "n/a"
	}
	return fmt.Sprintf("%.2fs", fit.Seconds)
}

// ScenesCmd lists the available scenes
type ScenesCmd struct {
	ScenesDir string `name:"scenes-dir" help:"Directory of JSON scene files"`
}

func (c *ScenesCmd) Run() error {
	response, err := scene.ListAllScenes(c.ScenesDir)
	if err != nil {
		return err
	}
	for _, group := range response.Groups {
		fmt.Printf("%s:\n", group.Name)
		for _, info := range group.Scenes {
			fmt.Printf("  %-24s %s\n", info.ID, info.Description)
		}
	}
	return nil
}

// ServeCmd starts the web server
type ServeCmd struct {
	Port      int    `default:"8080" help:"Port to serve on"`
	ScenesDir string `name:"scenes-dir" help:"Directory of JSON scene files"`
	MDNS      bool   `name:"mdns" help:"Advertise the server on the local network"`
	Name      string `help:"mDNS service name (default: host name)"`
}

func (c *ServeCmd) Run() error {
	webServer := server.NewServer(c.Port, c.ScenesDir)

	if c.MDNS {
		name := c.Name
		if name == "" {
			name, _ = os.Hostname()
		}
		mgr := discovery.NewManager(discovery.Config{
			ServiceName: name,
			Port:        c.Port,
			Info:        []string{fmt.Sprintf("scenes=%d", len(scene.BuiltinScenes()))},
		})
		if err := mgr.Advertise(); err != nil {
			return err
		}
		defer mgr.Stop()
	}

	return webServer.Start()
}

// DiscoverCmd browses for servers started with serve --mdns
type DiscoverCmd struct {
	Timeout time.Duration `default:"3s" help:"How long to wait for answers"`
}

func (c *DiscoverCmd) Run() error {
	servers, err := discovery.Browse(c.Timeout)
	if err != nil {
		return err
	}
	if len(servers) == 0 {
		fmt.Println("No servers found")
		return nil
	}
	for _, s := range servers {
		fmt.Printf("%-24s http://%s\n", s.Name, s.Address())
	}
	return nil
}

func main() {
	var CLI cli
	ctx := kong.Parse(&CLI,
		kong.Name("acoustic-raytracer"),
		kong.Description("Stochastic acoustic ray tracer"),
		kong.UsageOnError(),
	)
	if err := ctx.Run(); err != nil {
		log.Fatal(err)
	}
}
