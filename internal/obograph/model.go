// Package obograph decodes OBO Graphs JSON documents and exposes the small
// graph and hierarchy surface the picker needs: node lookup, transitive is_a
// descendants and rooted trees.
package obograph

// IsA is the predicate OBO Graphs uses for rdfs:subClassOf edges.
const IsA = "is_a"

// Document is the top-level OBO Graphs JSON object.
type Document struct {
	Graphs []GraphDoc `json:"graphs"`
}

// GraphDoc is one entry of Document.Graphs.
type GraphDoc struct {
	ID    string    `json:"id,omitempty"`
	Nodes []NodeDoc `json:"nodes"`
	Edges []Edge    `json:"edges"`
	Meta  *Meta     `json:"meta,omitempty"`
}

// NodeDoc is a node as serialized in the document.
type NodeDoc struct {
	ID    string `json:"id"`
	Label string `json:"lbl,omitempty"`
	Type  string `json:"type,omitempty"`
	Meta  *Meta  `json:"meta,omitempty"`
}

// Meta carries node or annotation metadata.
type Meta struct {
	Definition          *Definition     `json:"definition,omitempty"`
	Synonyms            []Synonym       `json:"synonyms,omitempty"`
	Xrefs               []Xref          `json:"xrefs,omitempty"`
	BasicPropertyValues []PropertyValue `json:"basicPropertyValues,omitempty"`
	Deprecated          bool            `json:"deprecated,omitempty"`
}

// Definition is a textual definition with supporting xrefs.
type Definition struct {
	Val   string   `json:"val"`
	Xrefs []string `json:"xrefs,omitempty"`
}

// Synonym is a labelled alternative name.
type Synonym struct {
	Pred string `json:"pred,omitempty"` // hasExactSynonym, hasBroadSynonym, ...
	Val  string `json:"val"`
}

// Xref is a database cross-reference.
type Xref struct {
	Val string `json:"val"`
}

// PropertyValue is a predicate/value annotation. Meta holds annotations on
// the annotation itself.
type PropertyValue struct {
	Pred string `json:"pred"`
	Val  string `json:"val"`
	Meta *Meta  `json:"meta,omitempty"`
}

// Edge is a typed directed edge between two node URIs.
type Edge struct {
	Sub  string `json:"sub"`
	Pred string `json:"pred"`
	Obj  string `json:"obj"`
}

// Node is a decoded ontology term with its outgoing edges attached.
// Nodes are immutable once the Graph that owns them is built.
type Node struct {
	URI   string
	Label string
	Type  string
	Meta  *Meta
	Edges []Edge
}

// PropertyValues returns the node's basicPropertyValues, or nil.
func (n *Node) PropertyValues() []PropertyValue {
	if n == nil || n.Meta == nil {
		return nil
	}
	return n.Meta.BasicPropertyValues
}

// Definition returns the node's textual definition, or "".
func (n *Node) Definition() string {
	if n == nil || n.Meta == nil || n.Meta.Definition == nil {
		return ""
	}
	return n.Meta.Definition.Val
}

// LocalID returns the last path segment of the URI, e.g. "ZP_0000001".
func (n *Node) LocalID() string {
	return LocalID(n.URI)
}

// LocalID returns the last path segment of uri.
func LocalID(uri string) string {
	for i := len(uri) - 1; i >= 0; i-- {
		if uri[i] == '/' {
			return uri[i+1:]
		}
	}
	return uri
}

// DisplayLabel returns the label, falling back to the local id.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.LocalID()
}
