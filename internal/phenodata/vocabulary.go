// Package phenodata loads the anatomy and phenotype ontologies, scores
// phenotypes by usage and indexes them by associated anatomy term.
package phenodata

import (
	"strconv"
	"strings"

	"github.com/kamusis/phenopick/internal/config"
	"github.com/kamusis/phenopick/internal/obograph"
)

// Vocabulary names the annotation predicates UsageScore looks for.
type Vocabulary struct {
	IsReferencedBy string
	UsageSource    string
	ReferenceCount string
}

// DefaultVocabulary returns the ZFIN reference-count annotation chain.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		IsReferencedBy: config.DefaultIsReferencedBy,
		UsageSource:    config.DefaultUsageSource,
		ReferenceCount: config.DefaultReferenceCount,
	}
}

// UsageScore returns how often n is referenced by the usage source. The count
// is read from the reference-count annotation nested under the node's
// is-referenced-by annotation. Missing annotations and values that are not a
// non-negative base-10 integer score 0.
func (v Vocabulary) UsageScore(n *obograph.Node) int {
	var ref *obograph.PropertyValue
	pvs := n.PropertyValues()
	for i := range pvs {
		if pvs[i].Pred == v.IsReferencedBy && pvs[i].Val == v.UsageSource {
			ref = &pvs[i]
			break
		}
	}
	if ref == nil || ref.Meta == nil {
		return 0
	}
	for _, pv := range ref.Meta.BasicPropertyValues {
		if pv.Pred != v.ReferenceCount {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(pv.Val))
		if err != nil || count < 0 {
			return 0
		}
		return count
	}
	return 0
}

// UsageScore scores n with DefaultVocabulary.
func UsageScore(n *obograph.Node) int {
	return DefaultVocabulary().UsageScore(n)
}
