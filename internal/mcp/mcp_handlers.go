package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/SohamS7S/Smart-factory-ai/core"
	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
	arts    *core.Artifacts
}

// feedSummary is the evaluate_feed result.
type feedSummary struct {
	FeedPath        string                 `json:"feed_path"`
	Readings        int                    `json:"readings"`
	Windows         int                    `json:"windows"`
	Skipped         int                    `json:"skipped"`
	Anomalies       int                    `json:"anomalies"`
	Threshold       float64                `json:"threshold"`
	ThresholdSource schema.ThresholdSource `json:"threshold_source"`
	Confusion       *confusionSummary      `json:"confusion,omitempty"`
	Verdicts        []schema.Verdict       `json:"verdicts"`
}

type confusionSummary struct {
	schema.Confusion
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Accuracy  float64 `json:"accuracy"`
}

func (h *toolHandler) handleScoreReading(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var raw schema.Vector
	for i, name := range []string{"vibration", "temperature", "pressure"} {
		v, err := request.RequireFloat(name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid reading: %v", err)), nil
		}
		raw[i] = v
	}

	threshold := request.GetFloat("threshold", h.baseCfg.ServeThreshold)
	if threshold <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("threshold must be greater than 0 (received %g)", threshold)), nil
	}

	res, err := core.PredictReading(ctx, h.arts, h.baseCfg.WindowSize, threshold, raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleEvaluateFeed(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("feed_path", ""); p != "" {
		cfg.FeedPath = p
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = l
	}
	anomaliesOnly := request.GetBool("anomalies_only", false)

	result, err := core.DetectFeed(core.WithSuppressHeader(ctx), cfg, h.mgr, h.arts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("evaluation failed: %v", err)), nil
	}

	summary := summarize(cfg, result, anomaliesOnly)
	jsonData, _ := json.MarshalIndent(summary, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

// summarize keeps at most cfg.ResultLimit verdicts, in reading order.
func summarize(cfg *contract.Config, result *schema.EvaluationResult, anomaliesOnly bool) feedSummary {
	verdicts := result.Verdicts
	if anomaliesOnly {
		verdicts = result.AnomalousVerdicts()
	}
	if cfg.ResultLimit > 0 && len(verdicts) > cfg.ResultLimit {
		verdicts = verdicts[:cfg.ResultLimit]
	}
	if verdicts == nil {
		verdicts = []schema.Verdict{}
	}

	s := feedSummary{
		FeedPath:        cfg.FeedPath,
		Readings:        result.Readings,
		Windows:         len(result.Verdicts),
		Skipped:         result.Skipped,
		Anomalies:       result.Anomalies(),
		Threshold:       result.Threshold,
		ThresholdSource: result.ThresholdSource,
		Verdicts:        verdicts,
	}
	if c := result.Confusion; c.Total() > 0 {
		s.Confusion = &confusionSummary{
			Confusion: c,
			Precision: c.Precision(),
			Recall:    c.Recall(),
			F1:        c.F1(),
			Accuracy:  c.Accuracy(),
		}
	}
	return s
}
