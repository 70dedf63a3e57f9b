package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSiteTools() {
	// ── get_metrics ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_metrics",
		mcp.WithDescription("Get the daily visitor metrics for today or the last seven days"),
		mcp.WithString("range",
			mcp.Description("today or week (default today)"),
			mcp.Enum("today", "week"),
		),
	), s.handleGetMetrics)

	// ── set_site_config ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_site_config",
		mcp.WithDescription("Set a site configuration value such as site_title or tagline"),
		mcp.WithString("key", mcp.Description("Config key"), mcp.Required()),
		mcp.WithString("value", mcp.Description("New value"), mcp.Required()),
		mcp.WithString("description", mcp.Description("What the key controls (optional)")),
	), s.handleSetSiteConfig)
}

func (s *Server) handleGetMetrics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	switch r := req.GetString("range", "today"); r {
	case "today":
		m, err := s.svc.Analytics.TodayMetrics(ctx)
		if err != nil {
			return nil, fmt.Errorf("today metrics: %w", err)
		}
		return jsonResult(m)
	case "week":
		list, err := s.svc.Analytics.WeeklyMetrics(ctx)
		if err != nil {
			return nil, fmt.Errorf("weekly metrics: %w", err)
		}
		return jsonResult(list)
	default:
		return nil, fmt.Errorf("unknown range %q (use today or week)", r)
	}
}

func (s *Server) handleSetSiteConfig(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	key, err := requireString(args, "key")
	if err != nil {
		return nil, err
	}
	value, _ := args["value"].(string)
	entry, err := s.svc.SiteConfig.Set(ctx, key, value, req.GetString("description", ""))
	if err != nil {
		return nil, fmt.Errorf("set site config: %w", err)
	}
	s.emitChanged(ctx, "site_config", key)
	return jsonResult(entry)
}
