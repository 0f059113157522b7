// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/SohamS7S/Smart-factory-ai/core"
	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
)

// NewMCPServer initializes and configures the factory MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager, arts *core.Artifacts) *server.MCPServer {
	s := server.NewMCPServer(
		"Factory Anomaly Detection Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		arts:    arts,
	}

	// --- 1. Tool: score_reading ---
	s.AddTool(mcp.NewTool("score_reading",
		mcp.WithDescription("Score a single sensor reading against the trained autoencoder and report whether it is anomalous."),
		mcp.WithNumber("vibration", mcp.Description("Vibration reading."), mcp.Required()),
		mcp.WithNumber("temperature", mcp.Description("Temperature reading."), mcp.Required()),
		mcp.WithNumber("pressure", mcp.Description("Pressure reading."), mcp.Required()),
		mcp.WithNumber("threshold", mcp.Description("Reconstruction error above which the reading is anomalous. Defaults to the serving threshold.")),
	), h.handleScoreReading)

	// --- 2. Tool: evaluate_feed ---
	s.AddTool(mcp.NewTool("evaluate_feed",
		mcp.WithDescription("Evaluate every window of a recorded sensor feed and summarize the anomalies found."),
		mcp.WithString("feed_path", mcp.Description("Path to the feed CSV (defaults to the configured feed).")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of verdicts returned.")),
		mcp.WithBoolean("anomalies_only", mcp.Description("Return only anomalous verdicts.")),
	), h.handleEvaluateFeed)

	return s
}

// StartMCPServer loads the scaler and model, then serves MCP over stdio.
func StartMCPServer(ctx context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	arts, err := core.LoadArtifacts(ctx, baseCfg)
	if err != nil {
		return err
	}
	s := NewMCPServer(baseCfg, mgr, arts)
	return server.ServeStdio(s)
}
