package phenodata

import (
	"testing"

	"github.com/kamusis/phenopick/internal/config"
	"github.com/kamusis/phenopick/internal/obograph"
)

func nodeWith(pvs ...obograph.PropertyValue) *obograph.Node {
	return &obograph.Node{URI: "http://x/P", Meta: &obograph.Meta{BasicPropertyValues: pvs}}
}

func zfinRef(nested ...obograph.PropertyValue) obograph.PropertyValue {
	pv := obograph.PropertyValue{Pred: config.DefaultIsReferencedBy, Val: config.DefaultUsageSource}
	if nested != nil {
		pv.Meta = &obograph.Meta{BasicPropertyValues: nested}
	}
	return pv
}

func count(val string) obograph.PropertyValue {
	return obograph.PropertyValue{Pred: config.DefaultReferenceCount, Val: val}
}

func TestUsageScore(t *testing.T) {
	cases := []struct {
		name string
		node *obograph.Node
		want int
	}{
		{"no meta", &obograph.Node{URI: "http://x/P"}, 0},
		{"no reference", nodeWith(obograph.PropertyValue{Pred: "p", Val: "v"}), 0},
		{"other source", nodeWith(obograph.PropertyValue{
			Pred: config.DefaultIsReferencedBy, Val: "http://purl.obolibrary.org/obo/infores_mgi",
			Meta: &obograph.Meta{BasicPropertyValues: []obograph.PropertyValue{count("9")}},
		}), 0},
		{"reference without nested meta", nodeWith(zfinRef()), 0},
		{"reference without count", nodeWith(zfinRef(obograph.PropertyValue{Pred: "p", Val: "4"})), 0},
		{"count", nodeWith(zfinRef(count("42"))), 42},
		{"count with whitespace", nodeWith(zfinRef(count(" 7\n"))), 7},
		{"zero", nodeWith(zfinRef(count("0"))), 0},
		{"not a number", nodeWith(zfinRef(count("many"))), 0},
		{"fraction", nodeWith(zfinRef(count("1.5"))), 0},
		{"negative", nodeWith(zfinRef(count("-3"))), 0},
		{"first reference wins", nodeWith(zfinRef(count("5")), zfinRef(count("8"))), 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := UsageScore(tc.node); got != tc.want {
				t.Fatalf("UsageScore = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestVocabulary_CustomPredicates(t *testing.T) {
	v := Vocabulary{IsReferencedBy: "ref", UsageSource: "src", ReferenceCount: "n"}
	n := nodeWith(obograph.PropertyValue{
		Pred: "ref", Val: "src",
		Meta: &obograph.Meta{BasicPropertyValues: []obograph.PropertyValue{{Pred: "n", Val: "12"}}},
	})
	if got := v.UsageScore(n); got != 12 {
		t.Fatalf("custom vocabulary score = %d, want 12", got)
	}
	if got := UsageScore(n); got != 0 {
		t.Fatalf("default vocabulary should not match custom predicates, got %d", got)
	}
}
