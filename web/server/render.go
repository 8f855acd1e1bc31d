package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/df07/go-recursive-raytracer/pkg/imageio"
	"github.com/df07/go-recursive-raytracer/pkg/renderer"
)

// Stats represents render statistics
type Stats struct {
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	TotalPixels      int     `json:"totalPixels"`
	TotalSamples     int     `json:"totalSamples"`
	SamplesPerPixel  int     `json:"samplesPerPixel"`
	MaxDepth         int     `json:"maxDepth"`
	Workers          int     `json:"workers"`
	ElapsedMs        int64   `json:"elapsedMs"`
	SamplesPerSecond float64 `json:"samplesPerSecond"`
}

// ProgressUpdate reports finished rows during a streamed render
type ProgressUpdate struct {
	RowsDone  int   `json:"rowsDone"`
	TotalRows int   `json:"totalRows"`
	Percent   int   `json:"percent"`
	ElapsedMs int64 `json:"elapsedMs"`
}

// CompleteUpdate carries the final image of a streamed render
type CompleteUpdate struct {
	Scene     string `json:"scene"`
	ImageData string `json:"imageData"` // Base64 encoded PNG
	Stats     Stats  `json:"stats"`
}

func newStats(stats renderer.RenderStats) Stats {
	return Stats{
		Width:            stats.Width,
		Height:           stats.Height,
		TotalPixels:      stats.TotalPixels,
		TotalSamples:     stats.TotalSamples,
		SamplesPerPixel:  stats.SamplesPerPixel,
		MaxDepth:         stats.MaxDepth,
		Workers:          stats.Workers,
		ElapsedMs:        stats.Duration.Milliseconds(),
		SamplesPerSecond: stats.SamplesPerSecond(),
	}
}

// handleRender renders a scene in one go and returns it as a PNG
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	_, raytracer, err := s.createRaytracer(req)
	if err != nil {
		writeError(w, sceneErrorStatus(err), err.Error())
		return
	}

	fb, stats, err := raytracer.Render(r.Context(), renderer.RenderOptions{})
	if err != nil {
		// Client disconnected or the render was cancelled
		s.logger.Warn("render aborted", "scene", req.Scene, "error", err)
		writeError(w, http.StatusServiceUnavailable, "Render error: "+err.Error())
		return
	}

	var buf bytes.Buffer
	if err := imageio.Encode(&buf, fb, imageio.FormatPNG, imageio.Options{Gamma: req.Gamma}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode image: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Render-Duration-Ms", fmt.Sprint(stats.Duration.Milliseconds()))
	w.Header().Set("X-Render-Samples", fmt.Sprint(stats.TotalSamples))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleRenderStream renders a scene and streams progress, console and the final image via SSE
func (s *Server) handleRenderStream(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	setSSEHeaders(w)

	req, err := parseRenderRequest(r)
	if err != nil {
		sendSSEEvent(w, "error", fmt.Sprintf("Invalid request: %v", err))
		return
	}

	_, raytracer, err := s.createRaytracer(req)
	if err != nil {
		sendSSEEvent(w, "error", err.Error())
		return
	}

	// Render logs go to this client's console; the render runs on this goroutine,
	// so draining between progress events keeps every write on one goroutine
	consoleChan := make(chan ConsoleMessage, 64)
	logger := slog.New(NewConsoleHandler(consoleChan, slog.LevelInfo)).With("scene", req.Scene)

	startTime := time.Now()
	lastPercent := -1

	fb, stats, err := raytracer.Render(r.Context(), renderer.RenderOptions{
		Logger: logger,
		Progress: func(done, total int) {
			streamConsoleMessages(w, consoleChan)

			percent := done * 100 / total
			if percent == lastPercent {
				return
			}
			lastPercent = percent
			sendSSEJSON(w, "progress", ProgressUpdate{
				RowsDone:  done,
				TotalRows: total,
				Percent:   percent,
				ElapsedMs: time.Since(startTime).Milliseconds(),
			})
		},
	})
	streamConsoleMessages(w, consoleChan)

	if err != nil {
		s.logger.Warn("streamed render aborted", "scene", req.Scene, "error", err)
		sendSSEEvent(w, "error", fmt.Sprintf("Render error: %v", err))
		return
	}

	imageData, err := imageToBase64PNG(fb, req.Gamma)
	if err != nil {
		sendSSEEvent(w, "error", fmt.Sprintf("failed to encode image: %v", err))
		return
	}

	sendSSEJSON(w, "complete", CompleteUpdate{
		Scene:     req.Scene,
		ImageData: imageData,
		Stats:     newStats(stats),
	})
}

// streamConsoleMessages forwards every queued console message as an SSE event
func streamConsoleMessages(w http.ResponseWriter, consoleChan chan ConsoleMessage) {
	for {
		select {
		case msg := <-consoleChan:
			sendSSEJSON(w, "console", msg)
		default:
			return
		}
	}
}

// imageToBase64PNG converts a framebuffer to base64-encoded PNG
func imageToBase64PNG(fb *renderer.Framebuffer, gamma float64) (string, error) {
	var buf bytes.Buffer
	if err := imageio.Encode(&buf, fb, imageio.FormatPNG, imageio.Options{Gamma: gamma}); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// sendSSEJSON sends v as the JSON payload of an SSE event
func sendSSEJSON(w http.ResponseWriter, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return sendSSEEvent(w, event, string(data))
}

// sendSSEEvent sends a generic SSE event
func sendSSEEvent(w http.ResponseWriter, event, data string) error {
	if flusher, ok := w.(http.Flusher); ok {
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
		return nil
	}
	return fmt.Errorf("streaming not supported")
}
