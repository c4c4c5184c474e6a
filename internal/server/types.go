// Package server exposes the OCR pipeline over HTTP: a synchronous
// multipart-upload endpoint, a streaming WebSocket endpoint for live frame
// submission, a Prometheus metrics endpoint, and a health check.
package server

import (
	"github.com/dvocr/dvocr/internal/geometry"
)

// PointDTO is the wire representation of geometry.Point.
type PointDTO struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBoxDTO is the axis-aligned wire representation of a TextBox.
type BoundingBoxDTO struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// CharacterBoxDTO is the wire representation of ocr.CharacterBox.
type CharacterBoxDTO struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Points     [4]PointDTO `json:"points"`
}

// RegionDTO is the wire representation of one recognized OCR region, per
// spec.md §6's "recognized region" serialization contract.
type RegionDTO struct {
	Text           string            `json:"text"`
	Confidence     float64           `json:"confidence"`
	Points         [4]PointDTO       `json:"points"`
	BoundingBox    BoundingBoxDTO    `json:"boundingBox"`
	CharacterBoxes []CharacterBoxDTO `json:"characterBoxes"`
}

// DetectResponse is the response body for POST /api/v1/detect.
type DetectResponse struct {
	Regions []RegionDTO `json:"regions"`
	Count   int         `json:"count"`
}

// HasTextResponse is the response body for POST /api/v1/has-text.
type HasTextResponse struct {
	HasText             bool    `json:"hasText"`
	DetectorHit         bool    `json:"detectorHit"`
	CandidatesExamined  int     `json:"candidatesExamined"`
	CandidatesEvaluated int     `json:"candidatesEvaluated"`
	BestScore           float64 `json:"bestScore"`
}

// HealthResponse is the response body for GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
}

// ErrorResponse is the standard error envelope returned by every handler.
type ErrorResponse struct {
	Error string `json:"error"`
}

func pointsToDTO(pts [4]geometry.Point) [4]PointDTO {
	var out [4]PointDTO
	for i, p := range pts {
		out[i] = PointDTO{X: p.X, Y: p.Y}
	}
	return out
}

func boundingBoxToDTO(r geometry.Rect) BoundingBoxDTO {
	return BoundingBoxDTO{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: r.Bottom}
}
