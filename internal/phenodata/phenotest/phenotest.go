// Package phenotest provides small in-memory ontologies for tests.
package phenotest

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kamusis/phenopick/internal/config"
	"github.com/kamusis/phenopick/internal/phenodata"
	"github.com/kamusis/phenopick/internal/source"
)

// Document URIs served by Fetcher.
const (
	AnatomySource   = "mem://zfa.json"
	PhenotypeSource = "mem://zp.json"
)

// Term URIs used by the fixture.
const (
	Fin    = "http://purl.obolibrary.org/obo/ZFA_0000001"
	Eye    = "http://purl.obolibrary.org/obo/ZFA_0000002"
	Heart  = "http://purl.obolibrary.org/obo/ZFA_0000003"
	Retina = "http://purl.obolibrary.org/obo/ZFA_0000004"

	FinAbsent  = "http://purl.obolibrary.org/obo/ZP_0000001"
	FinSmall   = "http://purl.obolibrary.org/obo/ZP_0000002"
	FinKinked  = "http://purl.obolibrary.org/obo/ZP_0000003"
	EyeSmall   = "http://purl.obolibrary.org/obo/ZP_0000004"
	EyeAbsent  = "http://purl.obolibrary.org/obo/ZP_0000005"
	RetinaThin = "http://purl.obolibrary.org/obo/ZP_0000006"
)

type term struct {
	uri, label, usage string
	parent            string
	anatomy           []string
}

var anatomyTerms = []term{
	{uri: config.DefaultAnatomyRoot, label: "anatomical system"},
	{uri: Fin, label: "fin", parent: config.DefaultAnatomyRoot},
	{uri: Eye, label: "eye", parent: config.DefaultAnatomyRoot},
	{uri: Heart, label: "heart", parent: config.DefaultAnatomyRoot},
	{uri: Retina, label: "retina", parent: Eye},
}

var phenotypeTerms = []term{
	{uri: config.DefaultPhenotypeRoot, label: "phenotype"},
	{uri: FinAbsent, label: "pectoral fin absent", usage: "10", parent: config.DefaultPhenotypeRoot, anatomy: []string{Fin}},
	{uri: FinSmall, label: "pectoral fin small", usage: "3", parent: config.DefaultPhenotypeRoot, anatomy: []string{Fin}},
	{uri: FinKinked, label: "caudal fin kinked", usage: "10", parent: config.DefaultPhenotypeRoot, anatomy: []string{Fin}},
	{uri: EyeSmall, label: "eye small", usage: "25", parent: config.DefaultPhenotypeRoot, anatomy: []string{Eye}},
	{uri: EyeAbsent, label: "eye absent", parent: config.DefaultPhenotypeRoot, anatomy: []string{Eye}},
	{uri: RetinaThin, label: "retina thin", usage: "7", parent: EyeSmall, anatomy: []string{Retina}},
}

func render(terms []term) string {
	var nodes, edges []string
	for _, t := range terms {
		meta := ""
		if t.usage != "" {
			meta = fmt.Sprintf(`, "meta": {"basicPropertyValues": [{"pred": %q, "val": %q, "meta": {"basicPropertyValues": [{"pred": %q, "val": %q}]}}]}`,
				config.DefaultIsReferencedBy, config.DefaultUsageSource, config.DefaultReferenceCount, t.usage)
		}
		nodes = append(nodes, fmt.Sprintf(`{"id": %q, "lbl": %q, "type": "CLASS"%s}`, t.uri, t.label, meta))
		if t.parent != "" {
			edges = append(edges, fmt.Sprintf(`{"sub": %q, "pred": "is_a", "obj": %q}`, t.uri, t.parent))
		}
		for _, a := range t.anatomy {
			edges = append(edges, fmt.Sprintf(`{"sub": %q, "pred": %q, "obj": %q}`, t.uri, config.DefaultAssociatedWith, a))
		}
	}
	return `{"graphs": [{"nodes": [` + strings.Join(nodes, ", ") + `], "edges": [` + strings.Join(edges, ", ") + `]}]}`
}

// AnatomyDocument returns the anatomy ontology as OBO Graphs JSON.
func AnatomyDocument() string { return render(anatomyTerms) }

// PhenotypeDocument returns the phenotype ontology as OBO Graphs JSON.
func PhenotypeDocument() string { return render(phenotypeTerms) }

// Fetcher serves AnatomySource and PhenotypeSource from memory.
func Fetcher() source.Fetcher {
	docs := map[string]string{
		AnatomySource:   AnatomyDocument(),
		PhenotypeSource: PhenotypeDocument(),
	}
	return source.FetcherFunc(func(ctx context.Context, uri string) (io.ReadCloser, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, ok := docs[uri]
		if !ok {
			return nil, fmt.Errorf("no document %s", uri)
		}
		return io.NopCloser(strings.NewReader(doc)), nil
	})
}

// Options returns loader options reading the fixture through Fetcher.
func Options() phenodata.Options {
	return phenodata.Options{
		AnatomySource:   AnatomySource,
		PhenotypeSource: PhenotypeSource,
		Fetcher:         Fetcher(),
	}
}

// NewCache returns an empty cache over the fixture.
func NewCache(allowReload bool) *phenodata.Cache {
	return phenodata.NewCache(phenodata.NewLoader(Options()), phenodata.CacheOptions{AllowReload: allowReload})
}

// Bundle loads the fixture directly.
func Bundle() (*phenodata.Bundle, error) {
	return phenodata.NewLoader(Options()).Load(context.Background())
}
