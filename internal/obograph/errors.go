package obograph

import "errors"

// ErrNodeNotFound indicates a URI that is not a node of the graph.
var ErrNodeNotFound = errors.New("node not found")
