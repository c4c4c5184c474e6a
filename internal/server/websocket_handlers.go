package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dvocr/dvocr/internal/imagesource"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocketFrame is one inbound frame: a raw encoded image (JPEG/PNG/BMP),
// sent as a binary WebSocket message, submitted for immediate OCR.
type WebSocketFrame struct {
	RequestID string `json:"requestId,omitempty"`
}

// WebSocketResult is the response sent back for each processed frame.
type WebSocketResult struct {
	RequestID string          `json:"requestId,omitempty"`
	Status    string          `json:"status"` // "ok" or "error"
	Result    *DetectResponse `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// ocrWebSocketHandler streams OCR results back over a WebSocket connection:
// the caller pushes one binary image message per frame and receives one
// WebSocketResult JSON text message per frame processed, letting a live
// camera feed get incremental recognition without a request per frame.
func (s *Server) ocrWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()
		if msgType != websocket.BinaryMessage {
			continue
		}

		result := s.processFrame(r, data)
		payload, err := json.Marshal(result)
		if err != nil {
			slog.Error("marshal websocket result", "error", err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
		websocketMessagesTotal.WithLabelValues("sent").Inc()
	}
}

func (s *Server) processFrame(r *http.Request, data []byte) WebSocketResult {
	img, _, err := imagesource.Decode(bytes.NewReader(data))
	if err != nil {
		return WebSocketResult{Status: "error", Error: "invalid image format"}
	}

	start := time.Now()
	results, err := s.processor.ProcessImage(r.Context(), img)
	ocrProcessingDuration.WithLabelValues("websocket").Observe(time.Since(start).Seconds())
	if err != nil {
		ocrRequestsTotal.WithLabelValues("websocket", "error").Inc()
		return WebSocketResult{Status: "error", Error: err.Error()}
	}
	ocrRequestsTotal.WithLabelValues("websocket", "ok").Inc()
	ocrRegionsDetected.WithLabelValues("websocket").Observe(float64(len(results)))

	return WebSocketResult{
		Status: "ok",
		Result: &DetectResponse{Regions: toRegionDTOs(results), Count: len(results)},
	}
}
