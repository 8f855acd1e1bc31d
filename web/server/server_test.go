package server

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/loaders"
	"github.com/df07/go-recursive-raytracer/pkg/material"
)

const testScenesDir = "../../scenes"

func get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	NewServer(0, testScenesDir).Handler().ServeHTTP(rec, req)
	return rec
}

type sseEvent struct {
	name string
	data string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var current sseEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			events = append(events, current)
			current = sseEvent{}
		}
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestHealth(t *testing.T) {
	rec := get(t, "/api/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestScenes_ListsBuiltinsAndFiles(t *testing.T) {
	rec := get(t, "/api/scenes")
	require.Equal(t, http.StatusOK, rec.Code)

	var response loaders.ScenesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.NotEmpty(t, response.Groups)
	assert.Equal(t, "Built-in Scenes", response.Groups[0].Name)

	var ids []string
	for _, group := range response.Groups {
		for _, info := range group.Scenes {
			ids = append(ids, info.ID)
		}
	}
	assert.Contains(t, ids, "default")
	assert.Contains(t, ids, "file:two-spheres")
}

func TestSceneConfig(t *testing.T) {
	rec := get(t, "/api/scene-config?scene=checker")
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Scene    string `json:"scene"`
		Objects  int    `json:"objects"`
		Defaults struct {
			Width           int `json:"width"`
			Height          int `json:"height"`
			SamplesPerPixel int `json:"samplesPerPixel"`
		} `json:"defaults"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "checker", response.Scene)
	assert.Equal(t, 4, response.Objects)
	assert.Equal(t, 400, response.Defaults.Width)
	assert.Equal(t, 225, response.Defaults.Height)
	assert.Equal(t, 100, response.Defaults.SamplesPerPixel)
}

func TestSceneConfig_UnknownScene(t *testing.T) {
	rec := get(t, "/api/scene-config?scene=nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRender_PNG(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"builtin", "scene=default&width=16&samples=1&depth=3"},
		{"empty scene", "scene=empty&width=16"},
		{"scene file", "scene=file:two-spheres&width=16&samples=1&depth=2&gamma=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, "/api/render?"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

			img, err := png.Decode(rec.Body)
			require.NoError(t, err)
			assert.Equal(t, 16, img.Bounds().Dx())
			assert.Equal(t, 9, img.Bounds().Dy())
		})
	}
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"unknown scene", "scene=nope", http.StatusNotFound},
		{"missing scene file", "scene=file:nope", http.StatusNotFound},
		{"raw path refused", "scene=" + url.QueryEscape("../../scenes/two-spheres.yaml"), http.StatusNotFound},
		{"width too small", "width=5", http.StatusBadRequest},
		{"bad samples", "samples=lots", http.StatusBadRequest},
		{"gamma out of range", "gamma=9", http.StatusBadRequest},
		{"negative depth", "depth=-1", http.StatusBadRequest},
		{"bad seed", "seed=abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, "/api/render?"+tt.query)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestRender_ZeroDepthIsBlack(t *testing.T) {
	rec := get(t, "/api/render?scene=default&width=16&samples=1&depth=0&seed=0")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			require.Zero(t, r+g+b, "pixel (%d,%d)", x, y)
		}
	}
}

func TestParseRenderRequest_DepthAndSeed(t *testing.T) {
	parse := func(t *testing.T, query string) *RenderRequest {
		t.Helper()
		req, err := parseRenderRequest(httptest.NewRequest(http.MethodGet, "/api/render?"+query, nil))
		require.NoError(t, err)
		return req
	}

	req := parse(t, "scene=default")
	assert.Nil(t, req.Depth, "absent depth keeps the scene value")
	assert.Nil(t, req.Seed, "absent seed keeps the scene value")

	req = parse(t, "depth=0&seed=0")
	require.NotNil(t, req.Depth)
	require.NotNil(t, req.Seed)
	assert.Equal(t, 0, *req.Depth)
	assert.Equal(t, int64(0), *req.Seed)

	req = parse(t, "seed=-12")
	require.NotNil(t, req.Seed)
	assert.Equal(t, int64(-12), *req.Seed)

	preset, _, err := NewServer(0, testScenesDir).createRaytracer(&RenderRequest{Scene: "default", Depth: req.Depth, Seed: req.Seed})
	require.NoError(t, err)
	assert.Equal(t, int64(-12), preset.Sampling.Seed)
	assert.Equal(t, 50, preset.Sampling.MaxDepth)
}

func TestRender_MethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/render", nil)
	rec := httptest.NewRecorder()
	NewServer(0, testScenesDir).Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRenderStream(t *testing.T) {
	rec := get(t, "/api/render/stream?scene=default&width=16&samples=1&depth=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := parseSSE(t, rec.Body.String())
	require.NotEmpty(t, events)

	counts := map[string]int{}
	for _, e := range events {
		counts[e.name]++
	}
	assert.Positive(t, counts["progress"])
	assert.Positive(t, counts["console"])
	assert.Zero(t, counts["error"])

	last := events[len(events)-1]
	require.Equal(t, "complete", last.name)

	var complete CompleteUpdate
	require.NoError(t, json.Unmarshal([]byte(last.data), &complete))
	assert.Equal(t, "default", complete.Scene)
	assert.Equal(t, 16*9, complete.Stats.TotalPixels)
	assert.Equal(t, 16*9, complete.Stats.TotalSamples)

	data, err := base64.StdEncoding.DecodeString(complete.ImageData)
	require.NoError(t, err)
	img, err := png.Decode(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())

	// Progress must end at 100%
	var lastProgress ProgressUpdate
	for _, e := range events {
		if e.name == "progress" {
			require.NoError(t, json.Unmarshal([]byte(e.data), &lastProgress))
		}
	}
	assert.Equal(t, 100, lastProgress.Percent)
	assert.Equal(t, 9, lastProgress.TotalRows)
}

func TestRenderStream_UnknownScene(t *testing.T) {
	rec := get(t, "/api/render/stream?scene=nope")

	events := parseSSE(t, rec.Body.String())
	require.Len(t, events, 1)
	assert.Equal(t, "error", events[0].name)
	assert.Contains(t, events[0].data, "unknown scene")
}

func TestInspect_HitsCenterSphere(t *testing.T) {
	rec := get(t, "/api/inspect?scene=default&width=16&x=8&y=4")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response InspectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Hit)
	assert.Equal(t, "lambertian", response.MaterialType)
	assert.Equal(t, "sphere", response.GeometryType)
	assert.True(t, response.FrontFace)
	assert.Greater(t, response.Distance, 0.0)

	geometry, ok := response.Properties["geometry"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 0.5, geometry["radius"], 1e-9)
}

func TestInspect_CheckerPlane(t *testing.T) {
	// Bottom row of the checker scene looks down at the ground plane
	rec := get(t, "/api/inspect?scene=checker&width=16&x=8&y=8")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response InspectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Hit)
	assert.Equal(t, "checker", response.MaterialType)
	assert.Equal(t, "plane", response.GeometryType)
	assert.InDelta(t, -0.5, response.Point[1], 1e-9)
}

func TestInspect_Miss(t *testing.T) {
	rec := get(t, "/api/inspect?scene=empty&width=16&x=0&y=0")
	require.Equal(t, http.StatusOK, rec.Code)

	var response InspectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.False(t, response.Hit)
}

func TestExtractMaterialInfo_GlassAndMix(t *testing.T) {
	materialType, props := extractMaterialInfo(material.NewTintedDielectric(1.33, core.NewVec3(1, 1, 1)))
	assert.Equal(t, "dielectric", materialType)
	assert.Equal(t, 1.33, props["refractiveIndex"])
	assert.Equal(t, "#ffffff", props["tint"])

	mix := material.NewMix(material.NewDielectric(1.5), material.NewMetal(core.NewVec3(0, 0, 0), 0.2), 0.25)
	materialType, props = extractMaterialInfo(mix)
	assert.Equal(t, "mix", materialType)
	assert.Equal(t, 0.25, props["ratio"])

	second, ok := props["material2"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "metal", second["type"])
	first, ok := props["material1"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "dielectric", first["type"])
}

func TestInspect_InvalidCoordinates(t *testing.T) {
	for _, query := range []string{"x=16&y=0", "x=0&y=9", "y=0", "x=a&y=0"} {
		rec := get(t, "/api/inspect?scene=default&width=16&"+query)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestParseIntParam(t *testing.T) {
	values := url.Values{"n": {"12"}, "bad": {"x"}}

	got, err := parseIntParam(values, "n", 1, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, 12, got)

	got, err = parseIntParam(values, "missing", 7, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	_, err = parseIntParam(values, "n", 1, 0, 10)
	assert.Error(t, err)

	_, err = parseIntParam(values, "bad", 1, 0, 10)
	assert.Error(t, err)
}

func TestParseFloatParam(t *testing.T) {
	values := url.Values{"g": {"2.2"}}

	got, err := parseFloatParam(values, "g", 1, 0.1, 5)
	require.NoError(t, err)
	assert.InDelta(t, 2.2, got, 1e-12)

	_, err = parseFloatParam(values, "g", 1, 0.1, 2)
	assert.Error(t, err)
}
