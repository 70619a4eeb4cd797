package phenodata

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kamusis/phenopick/internal/obograph"
)

func TestBuildIndex_SortsByUsageKeepingDiscoveryOrder(t *testing.T) {
	assoc := "assoc"
	mk := func(id string, usage int, objs ...string) Phenotype {
		n := &obograph.Node{URI: "http://x/" + id}
		for _, o := range objs {
			n.Edges = append(n.Edges, obograph.Edge{Sub: n.URI, Pred: assoc, Obj: o})
		}
		n.Edges = append(n.Edges, obograph.Edge{Sub: n.URI, Pred: "is_a", Obj: "http://x/ROOT"})
		return Phenotype{Node: n, Usage: usage}
	}
	idx := BuildIndex([]Phenotype{
		mk("P1", 10, "A0"),
		mk("P2", 3, "A0", "A0", "A1"),
		mk("P3", 10, "A0"),
	}, assoc)

	if diff := cmp.Diff([]string{"P1", "P3", "P2"}, labels(idx.Lookup("A0"))); diff != "" {
		t.Fatalf("A0 bucket mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"P2"}, labels(idx.Lookup("A1"))); diff != "" {
		t.Fatalf("A1 bucket mismatch (-want +got):\n%s", diff)
	}
	if got := idx.Lookup("ROOT"); len(got) != 0 {
		t.Fatalf("is_a edges must not be indexed, got %v", labels(got))
	}
	if got := idx.Lookup("A9"); len(got) != 0 {
		t.Fatalf("unknown anatomy should be empty, got %v", labels(got))
	}
	if diff := cmp.Diff([]string{"A0", "A1"}, idx.Anatomies()); diff != "" {
		t.Fatalf("Anatomies mismatch (-want +got):\n%s", diff)
	}
	if idx.Len() != 2 || idx.Count("A0") != 3 {
		t.Fatalf("Len=%d Count(A0)=%d", idx.Len(), idx.Count("A0"))
	}
}

func TestIndex_LookupReturnsCopy(t *testing.T) {
	n := &obograph.Node{URI: "http://x/P", Edges: []obograph.Edge{{Pred: "assoc", Obj: "A"}}}
	idx := BuildIndex([]Phenotype{{Node: n, Usage: 1}}, "assoc")

	got := idx.Lookup("A")
	got[0] = Phenotype{}
	if idx.Lookup("A")[0].Node != n {
		t.Fatalf("mutating a lookup result changed the index")
	}
}

func TestBuildIndex_StableUnderRepeatedBuilds(t *testing.T) {
	ps := make([]Phenotype, 0, 20)
	for i := 0; i < 20; i++ {
		n := &obograph.Node{
			URI:   "http://x/" + string(rune('a'+i)),
			Edges: []obograph.Edge{{Pred: "assoc", Obj: "A"}},
		}
		ps = append(ps, Phenotype{Node: n, Usage: i % 3})
	}
	first := labels(BuildIndex(ps, "assoc").Lookup("A"))
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, labels(BuildIndex(ps, "assoc").Lookup("A"))); diff != "" {
			t.Fatalf("index order not deterministic (-first +got):\n%s", diff)
		}
	}
}
