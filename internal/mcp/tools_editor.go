package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"sitecms/internal/editor"
)

// editorSessionID attributes agent saves in the edit analytics.
const editorSessionID = "mcp"

func (s *Server) registerEditorTools() {
	slugArg := mcp.WithString("slug", mcp.Description("Page slug, e.g. /ads"), mcp.Required())

	// ── editor_add_element ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("editor_add_element",
		mcp.WithDescription("Append an element to the page being edited. Changes are not public until editor_save."),
		slugArg,
		mcp.WithString("type",
			mcp.Description("Element type"),
			mcp.Required(),
			mcp.Enum(elementTypes()...),
		),
		mcp.WithString("content", mcp.Description("Initial text content (optional)")),
	), s.handleEditorAddElement)

	// ── editor_update_element ──────────────────────────
	s.mcp.AddTool(mcp.NewTool("editor_update_element",
		mcp.WithDescription("Update an element's content, class name, style or attributes"),
		slugArg,
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithString("content", mcp.Description("New text content")),
		mcp.WithString("className", mcp.Description("New CSS class list")),
		mcp.WithObject("style", mcp.Description("CSS properties to set; an empty value removes one")),
		mcp.WithObject("attrs", mcp.Description("Attributes such as src, href or alt")),
	), s.handleEditorUpdateElement)

	// ── editor_undo / editor_redo ──────────────────────
	s.mcp.AddTool(mcp.NewTool("editor_undo",
		mcp.WithDescription("Undo the last editor change on a page"),
		slugArg,
	), s.handleEditorUndo)
	s.mcp.AddTool(mcp.NewTool("editor_redo",
		mcp.WithDescription("Redo the last undone editor change on a page"),
		slugArg,
	), s.handleEditorRedo)

	// ── editor_save ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("editor_save",
		mcp.WithDescription("Save the edited elements as the page's public content"),
		slugArg,
	), s.handleEditorSave)
}

func elementTypes() []string {
	defs := editor.Palette()
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Type
	}
	return out
}

// editorResult wraps the state returned by an editor call.
func (s *Server) editorResult(st any, err error, action string) (*mcp.CallToolResult, error) {
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	return jsonResult(st)
}

func (s *Server) handleEditorAddElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	slug, err := requireString(args, "slug")
	if err != nil {
		return nil, err
	}
	elementType, err := requireString(args, "type")
	if err != nil {
		return nil, err
	}
	st, err := s.svc.Editor.AddElement(ctx, slug, elementType)
	if err != nil {
		return nil, fmt.Errorf("add element: %w", err)
	}
	if content := optString(args, "content"); content != nil && len(st.Elements) > 0 {
		added := st.Elements[len(st.Elements)-1].ID
		st, err = s.svc.Editor.UpdateElement(ctx, slug, added, editor.Patch{Content: content})
	}
	return s.editorResult(st, err, "add element")
}

func (s *Server) handleEditorUpdateElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	slug, err := requireString(args, "slug")
	if err != nil {
		return nil, err
	}
	id, err := requireString(args, "elementId")
	if err != nil {
		return nil, err
	}
	patch := editor.Patch{
		Content:   optString(args, "content"),
		ClassName: optString(args, "className"),
		Style:     stringMap(args, "style"),
		Attrs:     stringMap(args, "attrs"),
	}
	st, err := s.svc.Editor.UpdateElement(ctx, slug, id, patch)
	return s.editorResult(st, err, "update element")
}

func (s *Server) handleEditorUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := requireString(req.GetArguments(), "slug")
	if err != nil {
		return nil, err
	}
	st, err := s.svc.Editor.Undo(ctx, slug)
	return s.editorResult(st, err, "undo")
}

func (s *Server) handleEditorRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := requireString(req.GetArguments(), "slug")
	if err != nil {
		return nil, err
	}
	st, err := s.svc.Editor.Redo(ctx, slug)
	return s.editorResult(st, err, "redo")
}

func (s *Server) handleEditorSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := requireString(req.GetArguments(), "slug")
	if err != nil {
		return nil, err
	}
	st, err := s.svc.Editor.Save(ctx, slug, editorSessionID)
	if err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	s.emitChanged(ctx, "page", st.PageID)
	return jsonResult(st)
}
