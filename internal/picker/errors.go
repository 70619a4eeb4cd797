package picker

import "errors"

var (
	// ErrSearchActive is returned by SelectAnatomy while a global search
	// query is set; the anatomy facet is disabled until it is cleared.
	ErrSearchActive = errors.New("anatomy selection is disabled while a search is active")
	// ErrUnknownAnatomy indicates a URI outside the anatomy hierarchy.
	ErrUnknownAnatomy = errors.New("unknown anatomy term")
	// ErrUnknownPhenotype indicates a URI outside the phenotype hierarchy.
	ErrUnknownPhenotype = errors.New("unknown phenotype term")
	// ErrEmptySelection is returned by CopyAll when nothing is selected.
	ErrEmptySelection = errors.New("no phenotypes selected")
)
