package pipeline

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/karjudev/dbgm/kit"
	"github.com/karjudev/dbgm/searchindex"
)

// RegisterMCP registers the read-side tools on an MCP server. Upload
// goes through HTTP only; agents search, inspect and reconcile.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerSearch(srv)
	s.registerGetOrdinance(srv)
	s.registerCount(srv)
	s.registerReconcile(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (s *Service) registerSearch(srv *mcp.Server) {
	type req struct {
		Text        string   `json:"text"`
		Institution string   `json:"institution"`
		Courts      []string `json:"courts"`
		Keywords    []string `json:"keywords"`
		DateFrom    string   `json:"date_from"`
		DateTo      string   `json:"date_to"`
		Limit       int      `json:"limit"`
	}

	tool := &mcp.Tool{
		Name:        "dbgm_search",
		Description: "Search anonymized ordinances by full text, institution, court, keywords and publication date range",
		InputSchema: inputSchema(map[string]any{
			"text":        map[string]any{"type": "string", "description": "Full-text query over anonymized content"},
			"institution": map[string]any{"type": "string", "description": "Institution kind (Tribunale di Sorveglianza, Ufficio di Sorveglianza)"},
			"courts":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Court names"},
			"keywords":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Juridic keywords, all required"},
			"date_from":   map[string]any{"type": "string", "description": "Publication date lower bound, YYYY-MM-DD"},
			"date_to":     map[string]any{"type": "string", "description": "Publication date upper bound, YYYY-MM-DD"},
			"limit":       map[string]any{"type": "integer", "description": "Maximum results (default 20)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return s.index.Search(ctx, searchindex.Query{
			Text:        p.Text,
			Institution: p.Institution,
			Courts:      p.Courts,
			Keywords:    p.Keywords,
			DateFrom:    p.DateFrom,
			DateTo:      p.DateTo,
			Limit:       p.Limit,
		})
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &p}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (s *Service) registerGetOrdinance(srv *mcp.Server) {
	type req struct {
		ID string `json:"id"`
	}

	tool := &mcp.Tool{
		Name:        "dbgm_get_ordinance",
		Description: "Fetch one published ordinance by ID, with measures and keywords",
		InputSchema: inputSchema(map[string]any{
			"id": map[string]any{"type": "string", "description": "Ordinance ID"},
		}, []string{"id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return s.index.Get(ctx, p.ID)
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &p}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (s *Service) registerCount(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "dbgm_count",
		Description: "Count published ordinances and distinct courts",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return s.index.Count(ctx)
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: struct{}{}}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (s *Service) registerReconcile(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "dbgm_reconcile",
		Description: "Sweep leftovers of interrupted pipeline runs from both indices",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return s.Reconcile(ctx)
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: struct{}{}}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
