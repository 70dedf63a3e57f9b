package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("build_landing_page",
		mcp.WithPromptDescription("Guide through building a landing page with the visual editor tools"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("What the page promotes"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("slug",
			mcp.ArgumentDescription("URL path of the page, e.g. /promo"),
			mcp.RequiredArgument(),
		),
	), s.handleLandingPagePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("weekly_report",
		mcp.WithPromptDescription("Summarize the last seven days of visitor metrics"),
	), s.handleWeeklyReportPrompt)
}

func (s *Server) handleLandingPagePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	slug := req.Params.Arguments["slug"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Build a landing page for: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a landing page about "%s" at %s. Follow these steps:

1. Use list_pages to check whether %s exists; if not, create it with create_page.
2. Use get_page_content to see what is already saved.
3. Add a heading, a paragraph and a call-to-action button with editor_add_element, then set their text with editor_update_element.
4. If a change looks wrong, use editor_undo.
5. Finish with editor_save so the page goes live.

Write the copy in Spanish, in the same tone as the existing service pages.`, topic, slug, slug),
				},
			},
		},
	}, nil
}

func (s *Server) handleWeeklyReportPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Weekly visitor report",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: `Call get_metrics with range "week" and write a short report: total visits, unique visitors, page views, conversions and edits, the average session duration and the bounce rate trend. Point out the best and the worst day.`,
				},
			},
		},
	}, nil
}
