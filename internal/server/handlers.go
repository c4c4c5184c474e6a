package server

import (
	"bytes"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/dvocr/dvocr/internal/imagesource"
	"github.com/dvocr/dvocr/internal/ocr"
)

const formKeyImage = "image"

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Ready:   s.modelStatus.IsReady,
		Version: s.modelStatus.Version,
	})
}

// detectHandler implements the detectText public operation over HTTP: a
// multipart upload field named "image", returning the regions
// Processor.ProcessImage returns. No per-request options are read; the
// confidence filter follows the server's pipeline configuration.
func (s *Server) detectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	img, err := s.readUploadedImage(w, r)
	if err != nil {
		return
	}

	start := time.Now()
	results, err := s.processor.ProcessImage(r.Context(), img)
	ocrProcessingDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())
	if err != nil {
		ocrRequestsTotal.WithLabelValues("image", "error").Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ocrRequestsTotal.WithLabelValues("image", "ok").Inc()
	ocrRegionsDetected.WithLabelValues("image").Observe(float64(len(results)))

	writeJSON(w, http.StatusOK, DetectResponse{
		Regions: toRegionDTOs(results),
		Count:   len(results),
	})
}

// hasTextHandler implements the hasText public operation over HTTP.
func (s *Server) hasTextHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	img, err := s.readUploadedImage(w, r)
	if err != nil {
		return
	}

	start := time.Now()
	result, err := s.processor.HasHighConfidenceText(r.Context(), img)
	ocrProcessingDuration.WithLabelValues("has_text").Observe(time.Since(start).Seconds())
	if err != nil {
		ocrRequestsTotal.WithLabelValues("has_text", "error").Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ocrRequestsTotal.WithLabelValues("has_text", "ok").Inc()

	writeJSON(w, http.StatusOK, HasTextResponse{
		HasText:             result.HasText,
		DetectorHit:         result.DetectorHit,
		CandidatesExamined:  result.CandidatesExamined,
		CandidatesEvaluated: result.CandidatesEvaluated,
		BestScore:           result.BestScore,
	})
}

func (s *Server) readUploadedImage(w http.ResponseWriter, r *http.Request) (image.Image, error) {
	maxBytes := int64(25 * 1024 * 1024)
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form data")
		return nil, err
	}
	file, _, err := r.FormFile(formKeyImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "no image file provided")
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read image data")
		return nil, err
	}
	img, _, err := imagesource.Decode(bytes.NewReader(data))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid image format")
		return nil, err
	}
	return img, nil
}

func toRegionDTOs(results []ocr.ProcessResult) []RegionDTO {
	out := make([]RegionDTO, len(results))
	for i, r := range results {
		boxes := make([]CharacterBoxDTO, len(r.CharacterBoxes))
		for j, cb := range r.CharacterBoxes {
			boxes[j] = CharacterBoxDTO{
				Text:       cb.Text,
				Confidence: cb.Confidence,
				Points:     pointsToDTO(cb.Points),
			}
		}
		out[i] = RegionDTO{
			Text:           r.Text,
			Confidence:     r.Confidence,
			Points:         pointsToDTO(r.Box.Points),
			BoundingBox:    boundingBoxToDTO(r.Box.ToRect()),
			CharacterBoxes: boxes,
		}
	}
	return out
}
