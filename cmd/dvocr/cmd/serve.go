package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dvocr/dvocr/internal/models"
	"github.com/dvocr/dvocr/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP/WebSocket OCR server",
	Long: `Start an HTTP server exposing the OCR pipeline:

  POST /api/v1/detect    - multipart image upload, full detection+recognition
  POST /api/v1/has-text  - multipart image upload, quick-check only
  GET  /ws/ocr           - WebSocket streaming, one binary frame per image
  GET  /healthz          - health and model-readiness check
  GET  /metrics          - Prometheus metrics (if enabled)

Examples:
  dvocr serve
  dvocr serve --port 8080 --cors-origin https://example.com`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		if host, _ := cmd.Flags().GetString("host"); cmd.Flags().Changed("host") {
			cfg.Server.Host = host
		}
		if port, _ := cmd.Flags().GetInt("port"); cmd.Flags().Changed("port") {
			cfg.Server.Port = port
		}
		if origin, _ := cmd.Flags().GetString("cors-origin"); cmd.Flags().Changed("cors-origin") {
			cfg.Server.CORSOrigin = origin
		}

		status := models.PrepareModels(cfg.ModelsDir)
		if !status.IsReady {
			return fmt.Errorf("models directory %s is not ready: missing %v", status.ModelsDir, status.Missing)
		}

		proc, err := newProcessor(cfg)
		if err != nil {
			return fmt.Errorf("initialize pipeline: %w", err)
		}
		defer proc.Close()

		srv := server.New(cfg.Server, proc, status)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		slog.Info("starting dvocr server", "addr", addr, "models_version", status.Version)
		return srv.Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("host", "", "bind host (overrides config)")
	serveCmd.Flags().Int("port", 0, "bind port (overrides config)")
	serveCmd.Flags().String("cors-origin", "", "allowed CORS origin (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
