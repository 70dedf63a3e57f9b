package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"sitecms/internal/domain"
)

func (s *Server) registerButtonTools() {
	// ── list_buttons ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_buttons",
		mcp.WithDescription("List the home page call-to-action buttons in display order"),
		mcp.WithBoolean("activeOnly", mcp.Description("Only return buttons shown on the site")),
	), s.handleListButtons)

	// ── create_button ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_button",
		mcp.WithDescription("Append a button to the home page. Omitted fields use the defaults."),
		mcp.WithString("text", mcp.Description("Button label")),
		mcp.WithString("href", mcp.Description("Link target, a path like /ads or an absolute URL")),
		mcp.WithString("icon", mcp.Description("Icon name")),
		mcp.WithString("color", mcp.Description("Tailwind color classes")),
		mcp.WithBoolean("isActive", mcp.Description("Whether the button is shown (default true)")),
	), s.handleCreateButton)

	// ── update_button ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_button",
		mcp.WithDescription("Update fields of a button; omitted fields are unchanged"),
		mcp.WithString("buttonId", mcp.Description("Button ID"), mcp.Required()),
		mcp.WithString("text", mcp.Description("Button label")),
		mcp.WithString("href", mcp.Description("Link target")),
		mcp.WithString("icon", mcp.Description("Icon name")),
		mcp.WithString("color", mcp.Description("Tailwind color classes")),
		mcp.WithBoolean("isActive", mcp.Description("Whether the button is shown")),
	), s.handleUpdateButton)

	// ── delete_button (destructive) ────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_button",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a button from the home page"),
		mcp.WithString("buttonId", mcp.Description("Button ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteButton)

	// ── reorder_buttons ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("reorder_buttons",
		mcp.WithDescription("Set the display order of the buttons. Every button ID must be listed exactly once."),
		mcp.WithArray("buttonIds",
			mcp.Description("Button IDs in their new order"),
			mcp.Required(),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), s.handleReorderButtons)
}

func buttonPatch(args map[string]any) domain.ButtonPatch {
	return domain.ButtonPatch{
		Text:     optString(args, "text"),
		Href:     optString(args, "href"),
		Icon:     optString(args, "icon"),
		Color:    optString(args, "color"),
		IsActive: optBool(args, "isActive"),
	}
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListButtons(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := s.svc.Buttons.List
	if active, _ := req.GetArguments()["activeOnly"].(bool); active {
		list = s.svc.Buttons.ListActive
	}
	buttons, err := list(ctx)
	if err != nil {
		return nil, fmt.Errorf("list buttons: %w", err)
	}
	return jsonResult(buttons)
}

func (s *Server) handleCreateButton(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := s.svc.Buttons.Create(ctx, buttonPatch(req.GetArguments()))
	if err != nil {
		return nil, fmt.Errorf("create button: %w", err)
	}
	s.emitChanged(ctx, "button", b.ID)
	return jsonResult(b)
}

func (s *Server) handleUpdateButton(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "buttonId")
	if err != nil {
		return nil, err
	}
	b, err := s.svc.Buttons.Update(ctx, id, buttonPatch(args))
	if err != nil {
		return nil, fmt.Errorf("update button: %w", err)
	}
	s.emitChanged(ctx, "button", b.ID)
	return jsonResult(b)
}

func (s *Server) handleDeleteButton(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req.GetArguments(), "buttonId")
	if err != nil {
		return nil, err
	}
	if err := s.svc.Buttons.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete button: %w", err)
	}
	s.emitChanged(ctx, "button", id)
	return textResult(fmt.Sprintf("Deleted button %s", id)), nil
}

func (s *Server) handleReorderButtons(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := stringList(req.GetArguments(), "buttonIds")
	if len(ids) == 0 {
		return nil, domain.Invalid("buttonIds", "is required")
	}
	buttons, err := s.svc.Buttons.Reorder(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("reorder buttons: %w", err)
	}
	s.emitChanged(ctx, "buttons", "")
	return jsonResult(buttons)
}
