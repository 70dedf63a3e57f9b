package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	pagesURI       = "sitecms://pages"
	pageContentURI = "sitecms://page/{slug}/content"
	pageURIPrefix  = "sitecms://page/"
	pageURISuffix  = "/content"
)

func (s *Server) registerResources() {
	// ── sitecms://pages ────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		pagesURI,
		"All Pages",
		mcp.WithMIMEType("application/json"),
	), s.handlePagesResource)

	// ── sitecms://page/{slug}/content ──────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			pageContentURI,
			"Saved Content of a Page",
		),
		s.handlePageContentResource,
	)
}

type pageSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Status   string `json:"status"`
	IsSystem bool   `json:"is_system_page"`
}

func (s *Server) handlePagesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	pages, err := s.svc.Pages.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]pageSummary, len(pages))
	for i, p := range pages {
		summaries[i] = pageSummary{ID: p.ID, Name: p.Name, Slug: p.Slug, Status: string(p.Status), IsSystem: p.IsSystemPage}
	}
	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      pagesURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handlePageContentResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	slug := slugFromURI(uri)
	if slug == "" {
		return nil, fmt.Errorf("could not extract slug from URI: %s", uri)
	}
	page, err := s.svc.Pages.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	content, err := s.svc.Pages.ListContent(ctx, page.ID)
	if err != nil {
		return nil, err
	}
	data, _ := json.MarshalIndent(content, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// slugFromURI extracts the slug from "sitecms://page/{slug}/content".
// Nested slugs keep their slashes: sitecms://page/promo/2026/content -> /promo/2026.
func slugFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, pageURIPrefix)
	if !ok {
		return ""
	}
	rest, ok = strings.CutSuffix(rest, pageURISuffix)
	if !ok || rest == "" {
		return ""
	}
	return "/" + strings.Trim(rest, "/")
}
