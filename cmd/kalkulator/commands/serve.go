package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/logger"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/mcp"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/server"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve extraction, validation and prediction over HTTP.

Endpoints:
  GET  /health
  GET  /api/v1/model
  POST /api/v1/extract   {"text": "..."}
  POST /api/v1/validate  {"Wiek": 28, "Płeć": "K", "5 km Tempo": 4.75}
  POST /api/v1/predict   {"text": "..."} or {"profile": {...}}
  POST /api/v1/compare   {"profile": {...}, "seconds": 6300}`,
	RunE: runServe,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP tool server on stdio",
	Long: `Expose extract_profile, validate_profile, predict_time and model_info
as Model Context Protocol tools over stdin and stdout.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	calc, err := newCalculator(cfg)
	if err != nil {
		logError("%v", err)
		return err
	}

	logger.Info("starting server",
		"version", version.String(),
		"extractor", calc.Extractor(),
		"provider", calc.Provider(),
		"predictor", calc.CanPredict())

	server.SetMode(cfg.Debug)
	return server.New(calc).Run(ctx, cfg.Server.Addr)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	calc, err := newCalculator(cfg)
	if err != nil {
		logError("%v", err)
		return err
	}
	return mcp.ServeStdio(mcp.NewServer(mcp.ServerConfig{
		Calculator: calc,
		Version:    version.String(),
	}))
}
