package server

// Term is an anatomy or phenotype term in API responses.
type Term struct {
	URI        string `json:"uri"`
	ID         string `json:"id"`
	Label      string `json:"label"`
	Usage      int    `json:"usage,omitempty"`
	Definition string `json:"definition,omitempty"`
	// Phenotypes is the number of phenotypes associated with an anatomy term.
	Phenotypes int `json:"phenotypes,omitempty"`
	Children   int `json:"children,omitempty"`
}

// AnatomyResponse describes one anatomy term and its neighbours.
type AnatomyResponse struct {
	Term     Term   `json:"term"`
	Parents  []Term `json:"parents,omitempty"`
	Children []Term `json:"children,omitempty"`
}

// ResultsResponse is a page of phenotypes.
type ResultsResponse struct {
	Anatomy    string `json:"anatomy,omitempty"`
	Label      string `json:"label"`
	Summary    string `json:"summary,omitempty"`
	Total      int    `json:"total"`
	Phenotypes []Term `json:"phenotypes"`
}

// StatusResponse reports the cache state.
type StatusResponse struct {
	State          string `json:"state"`
	Generation     uint64 `json:"generation"`
	LoadedAt       string `json:"loaded_at,omitempty"`
	AnatomyRoot    string `json:"anatomy_root,omitempty"`
	AnatomyTerms   int    `json:"anatomy_terms,omitempty"`
	PhenotypeRoot  string `json:"phenotype_root,omitempty"`
	PhenotypeTerms int    `json:"phenotype_terms,omitempty"`
	IndexedTerms   int    `json:"indexed_anatomy_terms,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
