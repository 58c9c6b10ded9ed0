package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/kalkulator"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/predict"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
)

type stubPredictor struct{ seconds float64 }

func (s stubPredictor) Name() string { return "stub" }

func (s stubPredictor) Predict(context.Context, profile.Profile) (*predict.Prediction, error) {
	return predict.NewPrediction(s.seconds, "stub-model")
}

type toolResult struct {
	Text    string
	IsError bool
}

func newTestServer(t *testing.T, opts ...kalkulator.Option) *server.MCPServer {
	t.Helper()
	calc, err := kalkulator.New(opts...)
	require.NoError(t, err)
	return NewServer(ServerConfig{Calculator: calc, Version: "test"})
}

// callTool invokes a tool through the JSON-RPC entry point.
func callTool(t *testing.T, srv *server.MCPServer, name string, args map[string]any) toolResult {
	t.Helper()

	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      name,
			"arguments": args,
		},
	})
	require.NoError(t, err)

	raw, err := json.Marshal(srv.HandleMessage(context.Background(), msg))
	require.NoError(t, err)

	var resp struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp), string(raw))
	require.Nil(t, resp.Error, string(raw))
	require.NotEmpty(t, resp.Result.Content, string(raw))

	return toolResult{Text: resp.Result.Content[0].Text, IsError: resp.Result.IsError}
}

func TestNewServer(t *testing.T) {
	assert.NotNil(t, newTestServer(t))
}

// --- extract_profile ---

func TestExtractTool(t *testing.T) {
	srv := newTestServer(t)
	res := callTool(t, srv, "extract_profile", map[string]any{"text": "Mam 28 lat, jestem kobietą, tempo 4:45"})
	require.False(t, res.IsError, res.Text)

	var body struct {
		Source  string          `json:"source"`
		Profile profile.Profile `json:"profile"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Text), &body))
	assert.Equal(t, "regex", body.Source)
	assert.Equal(t, 28, body.Profile.Age)
	assert.Equal(t, profile.Female, body.Profile.Gender)
}

func TestExtractTool_Errors(t *testing.T) {
	srv := newTestServer(t)

	res := callTool(t, srv, "extract_profile", map[string]any{})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "text is required")

	res = callTool(t, srv, "extract_profile", map[string]any{"text": "mam 5 lat, jestem facetem, tempo 4:30"})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "Wiek powinien")
}

// --- validate_profile ---

func TestValidateTool(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		name      string
		args      map[string]any
		wantValid bool
		wantErrs  int
	}{
		{"valid clock pace", map[string]any{"age": 30, "gender": "m", "pace": "4:45"}, true, 0},
		{"valid decimal pace", map[string]any{"age": 30, "gender": "K", "pace": "5,5"}, true, 0},
		{"out of range", map[string]any{"age": 120, "gender": "X", "pace": "12"}, false, 3},
		{"missing fields", map[string]any{"age": 30}, false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, srv, "validate_profile", tt.args)
			require.False(t, res.IsError, res.Text)

			var got profile.Result
			require.NoError(t, json.Unmarshal([]byte(res.Text), &got))
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.Len(t, got.Errors, tt.wantErrs)
		})
	}
}

func TestValidateTool_BadPace(t *testing.T) {
	srv := newTestServer(t)
	res := callTool(t, srv, "validate_profile", map[string]any{"age": 30, "gender": "M", "pace": "szybko"})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "invalid pace")
}

// --- predict_time ---

func TestPredictTool(t *testing.T) {
	srv := newTestServer(t, kalkulator.WithPredictor(stubPredictor{seconds: 6300}))

	for name, args := range map[string]map[string]any{
		"from text":   {"text": "Mam 28 lat, jestem kobietą, tempo 4:45"},
		"from fields": {"age": 28, "gender": "K", "pace": "4:45"},
	} {
		t.Run(name, func(t *testing.T) {
			res := callTool(t, srv, "predict_time", args)
			require.False(t, res.IsError, res.Text)

			var est kalkulator.Estimate
			require.NoError(t, json.Unmarshal([]byte(res.Text), &est))
			require.NotNil(t, est.Prediction)
			assert.Equal(t, "1:45:00", est.Prediction.Formatted)
			assert.Equal(t, 28, est.Profile.Age)
		})
	}
}

func TestPredictTool_Errors(t *testing.T) {
	res := callTool(t, newTestServer(t), "predict_time", map[string]any{"text": "Mam 28 lat, jestem kobietą, tempo 4:45"})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text, "prediction failed")

	srv := newTestServer(t, kalkulator.WithPredictor(stubPredictor{seconds: 6300}))
	res = callTool(t, srv, "predict_time", map[string]any{"age": 28})
	assert.True(t, res.IsError)
	assert.True(t, strings.Contains(res.Text, "Brak pola: Płeć"), res.Text)
}

// --- model_info ---

func TestModelInfoTool(t *testing.T) {
	res := callTool(t, newTestServer(t), "model_info", map[string]any{})
	require.False(t, res.IsError)

	var info predict.ModelInfo
	require.NoError(t, json.Unmarshal([]byte(res.Text), &info))
	assert.Equal(t, predict.DefaultModelName, info.Name)
}
