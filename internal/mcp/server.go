// Package mcp provides a Model Context Protocol server for the calculator.
//
// It exposes profile extraction, validation and finish-time prediction as
// MCP tools over stdio, so agent clients can call them directly.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/logger"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/extractor"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/kalkulator"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/pace"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Calculator *kalkulator.Calculator
	Version    string // version string for MCP server info
}

// NewServer creates an MCP server with all calculator tools.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"Kalkulator dla biegaczy",
		ver,
		server.WithToolCapabilities(false),
	)

	registerExtractTool(s, cfg.Calculator)
	registerValidateTool(s, cfg.Calculator)
	registerPredictTool(s, cfg.Calculator)
	registerModelInfoTool(s, cfg.Calculator)

	return s
}

// ServeStdio runs s on stdin and stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	logger.Info("mcp server starting", "transport", "stdio")
	return server.ServeStdio(s)
}

// --- Tools ---

func registerExtractTool(s *server.MCPServer, calc *kalkulator.Calculator) {
	tool := mcp.NewTool("extract_profile",
		mcp.WithDescription("Read a runner's age, gender (M or K) and 5 km pace from free Polish text. Returns the validated profile and which extractor produced it."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Free text, e.g. 'Mam 28 lat, jestem kobietą, tempo 4:45'"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}

		res, err := calc.Extract(ctx, text)
		if err != nil {
			return mcp.NewToolResultError(extractionMessage(err)), nil
		}

		return jsonResult(map[string]any{
			"source":  res.Source,
			"profile": res.Profile,
		})
	})
}

func registerValidateTool(s *server.MCPServer, calc *kalkulator.Calculator) {
	tool := mcp.NewTool("validate_profile",
		mcp.WithDescription("Check a runner profile against the accepted ranges. Returns valid=true or the list of problems, in Polish."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("age", mcp.Description("Age in years")),
		mcp.WithString("gender", mcp.Description("M or K")),
		mcp.WithString("pace", mcp.Description("5 km pace in min/km, as '4:45' or '4.75'")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rec, err := recordFromArgs(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(calc.Validate(rec))
	})
}

func registerPredictTool(s *server.MCPServer, calc *kalkulator.Calculator) {
	tool := mcp.NewTool("predict_time",
		mcp.WithDescription("Predict a half-marathon finish time. Pass either free text or age, gender and pace. When reference data is available the result also compares the time with past finishers."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("text", mcp.Description("Free text describing the runner")),
		mcp.WithNumber("age", mcp.Description("Age in years")),
		mcp.WithString("gender", mcp.Description("M or K")),
		mcp.WithString("pace", mcp.Description("5 km pace in min/km, as '4:45' or '4.75'")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var p profile.Profile
		if text, err := req.RequireString("text"); err == nil && strings.TrimSpace(text) != "" {
			res, err := calc.Extract(ctx, text)
			if err != nil {
				return mcp.NewToolResultError(extractionMessage(err)), nil
			}
			p = res.Profile
		} else {
			rec, err := recordFromArgs(req)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			var res profile.Result
			p, res = calc.FromRecord(rec)
			if !res.Valid {
				return mcp.NewToolResultError(res.Error()), nil
			}
		}

		est, err := calc.Estimate(ctx, p)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("prediction failed: %v", err)), nil
		}
		return jsonResult(est)
	})
}

func registerModelInfoTool(s *server.MCPServer, calc *kalkulator.Calculator) {
	tool := mcp.NewTool("model_info",
		mcp.WithDescription("Describe the prediction model and its evaluation figures."),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(calc.ModelInfo())
	})
}

// recordFromArgs builds a record from whichever of age, gender and pace
// were passed. Absent arguments stay absent so validation reports them.
func recordFromArgs(req mcp.CallToolRequest) (profile.Record, error) {
	rec := profile.Record{}
	if age, err := req.RequireFloat("age"); err == nil {
		rec[profile.KeyAge] = age
	}
	if g, err := req.RequireString("gender"); err == nil {
		rec[profile.KeyGender] = strings.ToUpper(strings.TrimSpace(g))
	}
	if raw, err := req.RequireString("pace"); err == nil {
		v, err := pace.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid pace %q: %w", raw, err)
		}
		rec[profile.KeyPace] = v
	}
	return rec, nil
}

func extractionMessage(err error) string {
	if problems := extractor.Problems(err); len(problems) > 0 {
		return strings.Join(problems, "; ")
	}
	return err.Error()
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
