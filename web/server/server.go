package server

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/loaders"
	"github.com/df07/go-recursive-raytracer/pkg/renderer"
	"github.com/df07/go-recursive-raytracer/pkg/scene"
)

// Request limits shared by the render, stream and inspect endpoints
const (
	minWidth   = 16
	maxWidth   = 2000
	maxSamples = 10000
	maxDepth   = 500
	minGamma   = 0.1
	maxGamma   = 5.0

	defaultScene = "default"
	defaultGamma = 2.0
)

// Server handles web requests for the raytracer
type Server struct {
	port      int
	scenesDir string
	logger    *slog.Logger
	mux       *http.ServeMux
}

// NewServer creates a new web server. Scene files are discovered in scenesDir.
func NewServer(port int, scenesDir string) *Server {
	s := &Server{
		port:      port,
		scenesDir: scenesDir,
		logger:    core.Logger().With("component", "server"),
		mux:       http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/scenes", s.handleScenes)
	s.mux.HandleFunc("GET /api/scene-config", s.handleSceneConfig)
	s.mux.HandleFunc("GET /api/render", s.handleRender)
	s.mux.HandleFunc("GET /api/render/stream", s.handleRenderStream)
	s.mux.HandleFunc("GET /api/inspect", s.handleInspect)

	return s
}

// Handler returns the HTTP handler serving every API endpoint
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", "addr", "http://localhost"+srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down web server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// logRequests logs every request with its status and duration
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps SSE streaming working through the recorder
func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in presets and discovered scene files
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := loaders.ListAllScenes(s.scenesDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// RenderRequest represents a render request from the client.
// Zero or nil values keep the scene's own settings; depth and seed may be an explicit 0.
type RenderRequest struct {
	Scene   string  `json:"scene"`
	Width   int     `json:"width"`
	Samples int     `json:"samples"`
	Depth   *int    `json:"depth,omitempty"`
	Seed    *int64  `json:"seed,omitempty"`
	Workers int     `json:"workers"`
	Gamma   float64 `json:"gamma"`
}

// parseRenderRequest parses request parameters
func parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{Scene: defaultScene}

	if name := query.Get("scene"); name != "" {
		req.Scene = name
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 0, minWidth, maxWidth); err != nil {
		return nil, err
	}
	if req.Samples, err = parseIntParam(query, "samples", 0, 1, maxSamples); err != nil {
		return nil, err
	}
	if query.Get("depth") != "" {
		depth, err := parseIntParam(query, "depth", 0, 0, maxDepth)
		if err != nil {
			return nil, err
		}
		req.Depth = &depth
	}
	if value := query.Get("seed"); value != "" {
		seed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed: %s", value)
		}
		req.Seed = &seed
	}
	if req.Workers, err = parseIntParam(query, "workers", 0, 1, 256); err != nil {
		return nil, err
	}
	if req.Gamma, err = parseFloatParam(query, "gamma", defaultGamma, minGamma, maxGamma); err != nil {
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
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// resolveScene loads a built-in preset or a discovered "file:" scene.
// Raw paths are refused so clients cannot read arbitrary files.
func (s *Server) resolveScene(name string) (*scene.Preset, error) {
	if strings.HasPrefix(name, "file:") {
		return loaders.Resolve(name, s.scenesDir)
	}
	return scene.Builtin(name)
}

// createRaytracer resolves the requested scene and applies the request overrides
func (s *Server) createRaytracer(req *RenderRequest) (*scene.Preset, *renderer.Raytracer, error) {
	preset, err := s.resolveScene(req.Scene)
	if err != nil {
		return nil, nil, err
	}

	preset.Camera = renderer.MergeCameraConfig(preset.Camera, renderer.CameraConfig{Width: req.Width})
	preset.Sampling = renderer.MergeSamplingConfig(preset.Sampling, renderer.SamplingConfig{
		SamplesPerPixel: req.Samples,
		NumWorkers:      req.Workers,
	})
	if req.Depth != nil {
		preset.Sampling.MaxDepth = *req.Depth
	}
	if req.Seed != nil {
		preset.Sampling.Seed = *req.Seed
	}

	return preset, preset.NewRaytracer(), nil
}

// sceneErrorStatus maps scene resolution errors to HTTP status codes
func sceneErrorStatus(err error) int {
	switch {
	case errors.Is(err, scene.ErrUnknownScene):
		return http.StatusNotFound
	case errors.Is(err, loaders.ErrInvalidScene), errors.Is(err, loaders.ErrUnknownFormat):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// handleSceneConfig returns the default configuration for a scene
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	sceneName := cmp.Or(r.URL.Query().Get("scene"), defaultScene)

	preset, err := s.resolveScene(sceneName)
	if err != nil {
		writeError(w, sceneErrorStatus(err), err.Error())
		return
	}

	camera := renderer.NewCamera(preset.Camera)
	response := map[string]any{
		"scene":       sceneName,
		"name":        preset.Name,
		"description": preset.Description,
		"objects":     preset.World.Len(),
		"defaults": map[string]any{
			"width":           camera.Width(),
			"height":          camera.Height(),
			"samplesPerPixel": preset.Sampling.SamplesPerPixel,
			"maxDepth":        preset.Sampling.MaxDepth,
			"seed":            preset.Sampling.Seed,
			"gamma":           defaultGamma,
		},
		"limits": map[string]any{
			"width":   map[string]int{"min": minWidth, "max": maxWidth},
			"samples": map[string]int{"min": 1, "max": maxSamples},
			"depth":   map[string]int{"min": 0, "max": maxDepth},
			"seed":    map[string]int64{"min": math.MinInt64, "max": math.MaxInt64},
			"gamma":   map[string]float64{"min": minGamma, "max": maxGamma},
		},
	}

	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
