package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"sitecms/internal/domain"
)

func (s *Server) registerPageTools() {
	// ── list_pages ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List all pages with their slug and status"),
	), s.handleListPages)

	// ── create_page ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_page",
		mcp.WithDescription("Create a page. New pages are drafts unless status is published."),
		mcp.WithString("name", mcp.Description("Page name"), mcp.Required()),
		mcp.WithString("slug", mcp.Description("URL path, e.g. /promo"), mcp.Required()),
		mcp.WithString("status",
			mcp.Description("draft or published (default draft)"),
			mcp.Enum(string(domain.PageStatusDraft), string(domain.PageStatusPublished)),
		),
	), s.handleCreatePage)

	// ── get_page_content ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_page_content",
		mcp.WithDescription("Get a page and its saved editor content by slug"),
		mcp.WithString("slug", mcp.Description("Page slug, e.g. /ads"), mcp.Required()),
	), s.handleGetPageContent)
}

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pages, err := s.svc.Pages.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return jsonResult(pages)
}

func (s *Server) handleCreatePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, err := requireString(args, "name")
	if err != nil {
		return nil, err
	}
	slug, err := requireString(args, "slug")
	if err != nil {
		return nil, err
	}
	patch := domain.PagePatch{Name: &name, Slug: &slug}
	if status := req.GetString("status", ""); status != "" {
		st := domain.PageStatus(status)
		patch.Status = &st
	}
	page, err := s.svc.Pages.Create(ctx, patch)
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	s.emitChanged(ctx, "page", page.ID)
	return jsonResult(page)
}

func (s *Server) handleGetPageContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := requireString(req.GetArguments(), "slug")
	if err != nil {
		return nil, err
	}
	page, err := s.svc.Pages.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get page %s: %w", slug, err)
	}
	content, err := s.svc.Pages.ListContent(ctx, page.ID)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	return jsonResult(domain.PageState{Page: *page, Content: content})
}
