package obograph

import (
	"encoding/json"
	"fmt"
	"io"
)

// internPool avoids duplicate string allocations for repeated values such as
// predicates, which repeat on nearly every edge.
type internPool struct {
	m map[string]string
}

func newInternPool() *internPool {
	return &internPool{m: make(map[string]string, 64)}
}

func (p *internPool) get(s string) string {
	if v, ok := p.m[s]; ok {
		return v
	}
	p.m[s] = s
	return s
}

// Graph is an immutable, indexed view over one or more OBO graphs.
type Graph struct {
	nodes    map[string]*Node
	order    []*Node
	children map[string][]string // parent URI -> child URIs via is_a, in edge order
	parents  map[string][]string
}

// Decode parses an OBO Graphs JSON document. All graphs in the document are
// merged; the first occurrence of a node id wins.
func Decode(r io.Reader) (*Graph, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("cannot decode OBO graph JSON: %w", err)
	}
	return Build(&doc), nil
}

// Build indexes an already-decoded document.
func Build(doc *Document) *Graph {
	g := &Graph{
		nodes:    make(map[string]*Node),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
	pool := newInternPool()

	for _, gd := range doc.Graphs {
		for _, nd := range gd.Nodes {
			if nd.ID == "" {
				continue
			}
			if _, dup := g.nodes[nd.ID]; dup {
				continue
			}
			n := &Node{
				URI:   nd.ID,
				Label: nd.Label,
				Type:  pool.get(nd.Type),
				Meta:  nd.Meta,
			}
			g.nodes[n.URI] = n
			g.order = append(g.order, n)
		}
	}

	for _, gd := range doc.Graphs {
		for _, e := range gd.Edges {
			sub, ok := g.nodes[e.Sub]
			if !ok {
				continue
			}
			e.Pred = pool.get(e.Pred)
			sub.Edges = append(sub.Edges, e)
			if e.Pred == IsA {
				g.children[e.Obj] = append(g.children[e.Obj], e.Sub)
				g.parents[e.Sub] = append(g.parents[e.Sub], e.Obj)
			}
		}
	}
	return g
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// GetItem returns the node with the given URI.
func (g *Graph) GetItem(uri string) (*Node, error) {
	n, ok := g.nodes[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, uri)
	}
	return n, nil
}

// FindAllChildren returns every transitive is_a descendant of node, excluding
// node itself. Each descendant appears once, in depth-first discovery order.
func (g *Graph) FindAllChildren(node *Node) []*Node {
	if node == nil {
		return nil
	}
	seen := map[string]bool{node.URI: true}
	var out []*Node
	var walk func(uri string)
	walk = func(uri string) {
		for _, c := range g.children[uri] {
			if seen[c] {
				continue
			}
			seen[c] = true
			if n, ok := g.nodes[c]; ok {
				out = append(out, n)
			}
			walk(c)
		}
	}
	walk(node.URI)
	return out
}

// GetHierarchy builds the is_a tree rooted at rootURI.
func (g *Graph) GetHierarchy(rootURI string) (*Hierarchy, error) {
	root, err := g.GetItem(rootURI)
	if err != nil {
		return nil, fmt.Errorf("cannot build hierarchy: %w", err)
	}
	return newHierarchy(g, root), nil
}
