package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/df07/go-acoustic-raytracer/pkg/core"
	"github.com/df07/go-acoustic-raytracer/pkg/material"
	"github.com/df07/go-acoustic-raytracer/pkg/scene"
	"github.com/df07/go-acoustic-raytracer/pkg/simulation"
)

// DefaultScene is used when a request names no scene
const DefaultScene = "acoustic-lab"

// Pair selection modes for the pairs query parameter
const (
	PairsAll  = "all"  // every source with every receiver
	PairsRoom = "room" // only pairs sharing a room
)

type intLimit struct{ min, max int }
type floatLimit struct{ min, max float64 }

// Request parameter bounds, shared by parsing and /api/scene-config
var (
	raysLimit           = intLimit{1, 100000}
	maxReflectionsLimit = intLimit{1, 1000}
	workersLimit        = intLimit{0, 256}
	batchSizeLimit      = intLimit{1, 10000}
	rayLengthLimit      = floatLimit{0.1, 10000}
	speedOfSoundLimit   = floatLimit{1, 10000}
	energyFloorLimit    = floatLimit{0, 1}
)

// Server handles web requests for the acoustic simulator
type Server struct {
	port      int
	scenesDir string
	upgrader  websocket.Upgrader
}

// NewServer creates a new web server. An empty scenesDir searches the
// default scenes locations.
func NewServer(port int, scenesDir string) *Server {
	return &Server{
		port:      port,
		scenesDir: scenesDir,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Intended for trusted local networks
				return true
			},
		},
	}
}

// SimulateRequest represents a simulation request from the client
type SimulateRequest struct {
	Scene  string                 `json:"scene"`  // Scene ID (e.g., "acoustic-lab")
	Pairs  string                 `json:"pairs"`  // "all" or "room"
	Events bool                   `json:"events"` // Stream individual ray events
	Trace  simulation.TraceConfig `json:"trace"`
}

// Handler returns the HTTP handler with every API route registered
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Serve static files
	mux.Handle("/", http.FileServer(http.Dir("static/")))

	// API endpoints
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("/api/simulate", s.handleSimulate)
	mux.HandleFunc("/api/stream", s.handleStream)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in and file based scenes
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := scene.ListAllScenes(s.scenesDir)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// handleSceneConfig returns the default configuration for a scene
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	sceneName := r.URL.Query().Get("scene")
	if sceneName == "" {
		sceneName = DefaultScene
	}

	sceneObj, err := scene.Load(sceneName, s.scenesDir)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	response := map[string]interface{}{
		"scene":     sceneName,
		"name":      sceneObj.Name,
		"defaults":  sceneObj.Trace,
		"sources":   sceneObj.Sources,
		"receivers": sceneObj.Receivers,
		"pairs":     len(sceneObj.Pairs()),
		"roomPairs": len(sceneObj.RoomPairs()),
		"materials": sceneObj.Catalog.Assignments(),
		"limits": map[string]interface{}{
			"rays":           map[string]int{"min": raysLimit.min, "max": raysLimit.max},
			"maxReflections": map[string]int{"min": maxReflectionsLimit.min, "max": maxReflectionsLimit.max},
			"workers":        map[string]int{"min": workersLimit.min, "max": workersLimit.max},
			"batchSize":      map[string]int{"min": batchSizeLimit.min, "max": batchSizeLimit.max},
			"rayLength":      map[string]float64{"min": rayLengthLimit.min, "max": rayLengthLimit.max},
			"speedOfSound":   map[string]float64{"min": speedOfSoundLimit.min, "max": speedOfSoundLimit.max},
			"energyFloor":    map[string]float64{"min": energyFloorLimit.min, "max": energyFloorLimit.max},
		},
		"policies": []string{material.SingleBand.String(), material.ThreeBandByBounce.String(), material.SixOctaveRandom.String()},
		"models":   []string{material.Exponential.String(), material.Linear.String()},
	}
	writeJSON(w, http.StatusOK, response)
}

// parseSimulateRequest parses request parameters on top of the scene's own trace defaults
func parseSimulateRequest(values url.Values, defaults simulation.TraceConfig) (*SimulateRequest, error) {
	req := &SimulateRequest{Scene: values.Get("scene"), Pairs: PairsAll, Trace: defaults}
	if req.Scene == "" {
		req.Scene = DefaultScene
	}

	if pairs := values.Get("pairs"); pairs != "" {
		if pairs != PairsAll && pairs != PairsRoom {
			return nil, fmt.Errorf("invalid pairs: %s", pairs)
		}
		req.Pairs = pairs
	}
	if events := values.Get("events"); events != "" {
		parsed, err := strconv.ParseBool(events)
		if err != nil {
			return nil, fmt.Errorf("invalid events: %s", events)
		}
		req.Events = parsed
	}

	tc := &req.Trace
	var err error
	if tc.NumberOfRays, err = parseIntParam(values, "rays", tc.NumberOfRays, raysLimit.min, raysLimit.max); err != nil {
		return nil, err
	}
	if tc.MaxReflections, err = parseIntParam(values, "maxReflections", tc.MaxReflections, maxReflectionsLimit.min, maxReflectionsLimit.max); err != nil {
		return nil, err
	}
	if tc.NumWorkers, err = parseIntParam(values, "workers", tc.NumWorkers, workersLimit.min, workersLimit.max); err != nil {
		return nil, err
	}
	if tc.BatchSize, err = parseIntParam(values, "batchSize", tc.BatchSize, batchSizeLimit.min, batchSizeLimit.max); err != nil {
		return nil, err
	}
	if tc.RayLength, err = parseFloatParam(values, "rayLength", tc.RayLength, rayLengthLimit.min, rayLengthLimit.max); err != nil {
		return nil, err
	}
	if tc.SpeedOfSound, err = parseFloatParam(values, "speedOfSound", tc.SpeedOfSound, speedOfSoundLimit.min, speedOfSoundLimit.max); err != nil {
		return nil, err
	}
	if tc.EnergyFloor, err = parseFloatParam(values, "energyFloor", tc.EnergyFloor, energyFloorLimit.min, energyFloorLimit.max); err != nil {
		return nil, err
	}
	if seed := values.Get("seed"); seed != "" {
		if tc.Seed, err = strconv.ParseInt(seed, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid seed: %s", seed)
		}
	}
	if policy := values.Get("policy"); policy != "" {
		if tc.AbsorptionPolicy, err = material.ParseAbsorptionPolicy(policy); err != nil {
			return nil, err
		}
	}
	if model := values.Get("model"); model != "" {
		if tc.EnergyModel, err = material.ParseEnergyModel(model); err != nil {
			return nil, err
		}
	}
	if classify := values.Get("classify"); classify != "" {
		if tc.ClassifyRooms, err = strconv.ParseBool(strings.TrimSpace(classify)); err != nil {
			return nil, fmt.Errorf("invalid classify: %s", classify)
		}
	}

	if err := tc.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if !(parsed >= min && parsed <= max) {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// simulationRun contains the configured scene and simulator for one request
type simulationRun struct {
	Request   *SimulateRequest
	Scene     *scene.Scene
	Pairs     []simulation.SourceReceiverPair
	Simulator *simulation.Simulator
}

// setupSimulation loads the requested scene and builds a simulator for it
func (s *Server) setupSimulation(values url.Values, logger core.Logger) (*simulationRun, error) {
	sceneName := values.Get("scene")
	if sceneName == "" {
		sceneName = DefaultScene
	}
	sceneObj, err := scene.Load(sceneName, s.scenesDir)
	if err != nil {
		return nil, err
	}

	req, err := parseSimulateRequest(values, sceneObj.Trace)
	if err != nil {
		return nil, fmt.Errorf("Invalid request: %v", err)
	}

	pairs := sceneObj.Pairs()
	if req.Pairs == PairsRoom {
		pairs = sceneObj.RoomPairs()
	}

	return &simulationRun{
		Request:   req,
		Scene:     sceneObj,
		Pairs:     pairs,
		Simulator: simulation.NewSimulator(sceneObj, sceneObj, req.Trace, logger),
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
