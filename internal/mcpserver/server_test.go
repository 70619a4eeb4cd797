package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kamusis/phenopick/internal/phenodata/phenotest"
)

func callTool(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]interface{}) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
	result, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("%s returned no content", name)
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("%s: expected TextContent, got %T", name, result.Content[0])
	}
	return text.Text, result.IsError
}

func TestSearchPhenotypes(t *testing.T) {
	s := New(phenotest.NewCache(false), "test", nil)

	text, isErr := callTool(t, s.handleSearch, "search_phenotypes", map[string]interface{}{"query": "eye small", "limit": 3})
	if isErr {
		t.Fatalf("unexpected error result: %s", text)
	}
	if !strings.HasPrefix(text, `Search results for "eye small"`) {
		t.Errorf("unexpected heading: %q", text)
	}
	if !strings.Contains(text, "1. eye small (ZP_0000004) "+phenotest.EyeSmall+" usage=25") {
		t.Errorf("best match missing: %q", text)
	}

	text, _ = callTool(t, s.handleSearch, "search_phenotypes", map[string]interface{}{"query": "qqqq"})
	if !strings.Contains(text, "No phenotypes match") {
		t.Errorf("expected no-match text, got %q", text)
	}

	if _, isErr := callTool(t, s.handleSearch, "search_phenotypes", map[string]interface{}{}); !isErr {
		t.Errorf("missing query should be an error result")
	}
}

func TestPhenotypesForAnatomy(t *testing.T) {
	s := New(phenotest.NewCache(false), "test", nil)

	text, isErr := callTool(t, s.handlePhenotypesForAnatomy, "phenotypes_for_anatomy", map[string]interface{}{
		"anatomy_uri": phenotest.Fin,
		"limit":       2,
	})
	if isErr {
		t.Fatalf("unexpected error result: %s", text)
	}
	lines := strings.Split(strings.TrimSpace(text), "\n")
	want := []string{
		"Phenotypes for fin",
		"1. pectoral fin absent (ZP_0000001) " + phenotest.FinAbsent + " usage=10",
		"2. caudal fin kinked (ZP_0000003) " + phenotest.FinKinked + " usage=10",
		"... 1 more",
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Errorf("unexpected listing:\n%s", text)
	}

	text, _ = callTool(t, s.handlePhenotypesForAnatomy, "phenotypes_for_anatomy", map[string]interface{}{"anatomy_uri": phenotest.Heart})
	if !strings.HasPrefix(text, "No phenotypes for heart") {
		t.Errorf("unexpected empty listing: %q", text)
	}

	if _, isErr := callTool(t, s.handlePhenotypesForAnatomy, "phenotypes_for_anatomy", map[string]interface{}{"anatomy_uri": "http://x/nope"}); !isErr {
		t.Errorf("unknown anatomy should be an error result")
	}
}

func TestAnatomyChildren(t *testing.T) {
	s := New(phenotest.NewCache(false), "test", nil)

	text, isErr := callTool(t, s.handleAnatomyChildren, "anatomy_children", map[string]interface{}{})
	if isErr {
		t.Fatalf("unexpected error result: %s", text)
	}
	for _, want := range []string{"anatomical system", "- eye (ZFA_0000002)", ", has children", "- fin (ZFA_0000001) " + phenotest.Fin + ", 3 phenotypes"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}

	text, _ = callTool(t, s.handleAnatomyChildren, "anatomy_children", map[string]interface{}{"uri": phenotest.Retina})
	if !strings.Contains(text, "No child terms.") {
		t.Errorf("expected leaf text, got %q", text)
	}
}

func TestReadStatus(t *testing.T) {
	cache := phenotest.NewCache(false)
	s := New(cache, "test", nil)

	read := func() map[string]interface{} {
		t.Helper()
		result, err := s.handleReadStatus(context.Background(), mcp.ReadResourceRequest{
			Params: mcp.ReadResourceParams{URI: statusURI},
		})
		if err != nil {
			t.Fatalf("handleReadStatus failed: %v", err)
		}
		content, ok := result[0].(mcp.TextResourceContents)
		if !ok {
			t.Fatalf("Expected TextResourceContents")
		}
		var status map[string]interface{}
		if err := json.Unmarshal([]byte(content.Text), &status); err != nil {
			t.Fatalf("invalid status JSON: %v", err)
		}
		return status
	}

	if got := read()["state"]; got != "loading" {
		t.Errorf("state = %v, want loading", got)
	}
	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := read()["state"]; got != "loaded" {
		t.Errorf("state = %v, want loaded", got)
	}
}
