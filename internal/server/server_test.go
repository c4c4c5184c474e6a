package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvocr/dvocr/internal/config"
	"github.com/dvocr/dvocr/internal/detector"
	"github.com/dvocr/dvocr/internal/dictionary"
	"github.com/dvocr/dvocr/internal/mocksession"
	"github.com/dvocr/dvocr/internal/models"
	"github.com/dvocr/dvocr/internal/ocr"
	"github.com/dvocr/dvocr/internal/onnxsession"
	"github.com/dvocr/dvocr/internal/recognizer"
)

func testDictionary(t *testing.T) *dictionary.Dictionary {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dict.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o600))
	dict, err := dictionary.Load(path)
	require.NoError(t, err)
	return dict
}

func recognizeAllAs(dict *dictionary.Dictionary, classIdx int) onnxsession.Session {
	v := dict.Size()
	return mocksession.New([]string{"x"}, []string{"logits"},
		func(inputs []onnxsession.TensorInput) ([]onnxsession.TensorView, error) {
			n := int(inputs[0].Shape[0])
			view := mocksession.GreedyPathLogits([]int{classIdx}, v, false, 10, -10)
			data := make([]float32, n*len(view.Data))
			for i := 0; i < n; i++ {
				copy(data[i*len(view.Data):], view.Data)
			}
			return []onnxsession.TensorView{{Data: data, Shape: []int64{int64(n), view.Shape[1], view.Shape[2]}}}, nil
		})
}

func buildTestProcessor(t *testing.T, detectorScore float64) *ocr.Processor {
	t.Helper()
	dict := testDictionary(t)
	detSession := mocksession.NewFixed([]string{"x"}, []string{"prob"}, []onnxsession.TensorView{mocksession.UniformMap(64, 64, float32(detectorScore))})
	detCfg := detector.DefaultConfig()
	detCfg.MaxImageSize = 128
	detCfg.MinPixels = 1
	detCfg.MinSidePx = 1
	det := detector.NewWithSession(detCfg, detSession)

	rec := recognizer.NewWithSession(recognizer.Config{}, dict, recognizeAllAs(dict, 1))
	return ocr.NewWithComponents(ocr.Config{}, det, nil, rec)
}

func buildTestServer(t *testing.T, detectorScore float64) *Server {
	t.Helper()
	proc := buildTestProcessor(t, detectorScore)
	status := models.Status{IsReady: true, Version: "test-version"}
	return New(config.ServerConfig{}, proc, status)
}

func multipartImageRequest(t *testing.T, method, path string, img image.Image) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(formKeyImage, "test.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, img))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func whiteImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func TestHealthHandlerReportsReadiness(t *testing.T) {
	srv := buildTestServer(t, 0.95)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.True(t, body.Ready)
	assert.Equal(t, "test-version", body.Version)
}

func TestHealthHandlerRejectsNonGet(t *testing.T) {
	srv := buildTestServer(t, 0.95)
	req := httptest.NewRequest(http.MethodPost, "/healthz", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDetectHandlerReturnsRegions(t *testing.T) {
	srv := buildTestServer(t, 0.95)
	req := multipartImageRequest(t, http.MethodPost, "/api/v1/detect", whiteImage(64, 64))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body DetectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Regions, 1)
	assert.Equal(t, "a", body.Regions[0].Text)
}

func TestDetectHandlerRejectsMissingImageField(t *testing.T) {
	srv := buildTestServer(t, 0.95)
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/detect", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHasTextHandlerReportsHit(t *testing.T) {
	srv := buildTestServer(t, 0.95)
	req := multipartImageRequest(t, http.MethodPost, "/api/v1/has-text", whiteImage(64, 64))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body HasTextResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.HasText)
	assert.True(t, body.DetectorHit)
}

func TestHasTextHandlerReportsMiss(t *testing.T) {
	srv := buildTestServer(t, 0.02)
	req := multipartImageRequest(t, http.MethodPost, "/api/v1/has-text", whiteImage(64, 64))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body HasTextResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.HasText)
}

func TestCORSMiddlewareSetsHeadersAndShortCircuitsOptions(t *testing.T) {
	proc := buildTestProcessor(t, 0.95)
	srv := New(config.ServerConfig{CORSOrigin: "https://example.com"}, proc, models.Status{IsReady: true})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/detect", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpointDisabledByDefault(t *testing.T) {
	srv := buildTestServer(t, 0.95)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpointEnabled(t *testing.T) {
	proc := buildTestProcessor(t, 0.95)
	srv := New(config.ServerConfig{MetricsEnabled: true}, proc, models.Status{IsReady: true})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
