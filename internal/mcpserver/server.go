// Package mcpserver exposes phenotype lookups as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/kamusis/phenopick/internal/phenodata"
	"github.com/kamusis/phenopick/internal/picker"
)

const (
	defaultLimit = 20
	statusURI    = "phenopick://status"
)

// Server adapts the bundle cache to MCP.
type Server struct {
	mcpServer *server.MCPServer
	cache     *phenodata.Cache
	log       *zap.Logger
}

// New registers the phenopick tools and resources.
func New(cache *phenodata.Cache, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		mcpServer: server.NewMCPServer("phenopick", version),
		cache:     cache,
		log:       log,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// Serve runs the server on stdio until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"search_phenotypes",
		mcp.WithDescription("Fuzzy-search zebrafish phenotype (ZP) terms by label. Results are ranked by match quality, then by ZFIN usage."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text, e.g. 'pectoral fin absent'")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.handleSearch)

	s.mcpServer.AddTool(mcp.NewTool(
		"phenotypes_for_anatomy",
		mcp.WithDescription("List phenotype terms associated with a zebrafish anatomy (ZFA) term, most used first."),
		mcp.WithString("anatomy_uri", mcp.Required(), mcp.Description("ZFA term URI, e.g. http://purl.obolibrary.org/obo/ZFA_0000108")),
		mcp.WithString("filter", mcp.Description("Optional fuzzy filter applied to the list")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.handlePhenotypesForAnatomy)

	s.mcpServer.AddTool(mcp.NewTool(
		"anatomy_children",
		mcp.WithDescription("List the direct is_a children of an anatomy term with their phenotype counts. Omit uri for the root."),
		mcp.WithString("uri", mcp.Description("ZFA term URI")),
	), s.handleAnatomyChildren)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(
		statusURI,
		"Phenopick load status",
		mcp.WithResourceDescription("Whether the ontologies are loaded, with term counts"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadStatus)
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := mcp.ParseString(request, "query", "")
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	limit := parseLimit(request)

	b, err := s.cache.Get(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ontologies unavailable: %v", err)), nil
	}
	c := picker.New(b, picker.Options{})
	c.SetQuery(query)
	results := c.Results()
	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No phenotypes match %q.", query)), nil
	}
	return mcp.NewToolResultText(formatMatches(c.Label(), results, limit)), nil
}

func (s *Server) handlePhenotypesForAnatomy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uri := strings.TrimSpace(mcp.ParseString(request, "anatomy_uri", ""))
	if uri == "" {
		return mcp.NewToolResultError("anatomy_uri is required"), nil
	}
	limit := parseLimit(request)

	b, err := s.cache.Get(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ontologies unavailable: %v", err)), nil
	}
	c := picker.New(b, picker.Options{})
	if err := c.SelectAnatomy(uri); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c.SetFilter(mcp.ParseString(request, "filter", ""))
	if len(c.Displayed()) == 0 {
		return mcp.NewToolResultText(c.Label() + "\n" + c.Summary()), nil
	}
	return mcp.NewToolResultText(formatMatches(c.Label(), c.Displayed(), limit)), nil
}

func (s *Server) handleAnatomyChildren(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := s.cache.Get(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ontologies unavailable: %v", err)), nil
	}
	uri := strings.TrimSpace(mcp.ParseString(request, "uri", ""))
	if uri == "" {
		uri = b.Anatomy.Root.URI
	}
	n, ok := b.Anatomy.Get(uri)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("%v: %s", picker.ErrUnknownAnatomy, uri)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s), %d phenotypes\n", n.DisplayLabel(), n.LocalID(), b.Index.Count(n.URI))
	children := b.Anatomy.Children(uri)
	if len(children) == 0 {
		sb.WriteString("No child terms.\n")
	}
	for _, c := range children {
		fmt.Fprintf(&sb, "- %s (%s) %s, %d phenotypes", c.DisplayLabel(), c.LocalID(), c.URI, b.Index.Count(c.URI))
		if b.Anatomy.HasChildren(c.URI) {
			sb.WriteString(", has children")
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleReadStatus(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	status := map[string]any{"state": "loading"}
	if st, ok := s.cache.Peek().(phenodata.Loaded); ok {
		status = map[string]any{
			"state":           "loaded",
			"generation":      st.Bundle.Generation,
			"anatomy_root":    st.Bundle.Anatomy.Root.URI,
			"anatomy_terms":   st.Bundle.Anatomy.Len(),
			"phenotype_terms": len(st.Bundle.Phenotypes),
		}
	}
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("cannot marshal status: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func parseLimit(request mcp.CallToolRequest) int {
	limit := int(mcp.ParseFloat64(request, "limit", defaultLimit))
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}

func formatMatches(heading string, ms []picker.Match, limit int) string {
	var sb strings.Builder
	sb.WriteString(heading + "\n")
	for i, m := range ms {
		if i == limit {
			fmt.Fprintf(&sb, "... %d more\n", len(ms)-limit)
			break
		}
		fmt.Fprintf(&sb, "%d. %s (%s) %s usage=%d\n", i+1, m.Label(), m.Node.LocalID(), m.URI(), m.Usage)
	}
	return sb.String()
}
