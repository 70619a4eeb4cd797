package obograph

import (
	"sort"
	"strings"
)

// Hierarchy is a rooted is_a tree over a subset of a Graph.
type Hierarchy struct {
	Root     *Node
	items    []*Node
	index    map[string]*Node
	children map[string][]*Node
	parents  map[string][]*Node
}

func newHierarchy(g *Graph, root *Node) *Hierarchy {
	desc := g.FindAllChildren(root)
	h := &Hierarchy{
		Root:     root,
		items:    make([]*Node, 0, len(desc)+1),
		index:    make(map[string]*Node, len(desc)+1),
		children: make(map[string][]*Node),
		parents:  make(map[string][]*Node),
	}
	h.items = append(h.items, root)
	h.items = append(h.items, desc...)
	for _, n := range h.items {
		h.index[n.URI] = n
	}

	for _, n := range h.items {
		for _, c := range g.children[n.URI] {
			child, ok := h.index[c]
			if !ok {
				continue
			}
			h.children[n.URI] = append(h.children[n.URI], child)
			h.parents[c] = append(h.parents[c], n)
		}
	}
	for uri, kids := range h.children {
		sortByLabel(kids)
		h.children[uri] = kids
	}
	return h
}

// Items returns the root followed by every descendant, in discovery order.
func (h *Hierarchy) Items() []*Node {
	out := make([]*Node, len(h.items))
	copy(out, h.items)
	return out
}

// Len returns the number of nodes in the hierarchy, root included.
func (h *Hierarchy) Len() int { return len(h.items) }

// Contains reports whether uri is part of the hierarchy.
func (h *Hierarchy) Contains(uri string) bool {
	_, ok := h.index[uri]
	return ok
}

// Get returns the hierarchy node with the given URI.
func (h *Hierarchy) Get(uri string) (*Node, bool) {
	n, ok := h.index[uri]
	return n, ok
}

// Children returns the direct children of uri sorted by label.
func (h *Hierarchy) Children(uri string) []*Node {
	return h.children[uri]
}

// HasChildren reports whether uri has at least one child in the hierarchy.
func (h *Hierarchy) HasChildren(uri string) bool {
	return len(h.children[uri]) > 0
}

// Parents returns the direct parents of uri within the hierarchy.
func (h *Hierarchy) Parents(uri string) []*Node {
	return h.parents[uri]
}

func sortByLabel(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		li, lj := strings.ToLower(nodes[i].Label), strings.ToLower(nodes[j].Label)
		if li == lj {
			return nodes[i].URI < nodes[j].URI
		}
		return li < lj
	})
}
