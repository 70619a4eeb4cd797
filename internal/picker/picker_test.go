package picker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/phenopick/internal/config"
	"github.com/kamusis/phenopick/internal/obograph"
	"github.com/kamusis/phenopick/internal/phenodata"
)

const (
	zfa = "http://purl.obolibrary.org/obo/ZFA_"
	zp  = "http://purl.obolibrary.org/obo/ZP_"

	fin   = zfa + "0000001"
	eye   = zfa + "0000002"
	heart = zfa + "0000003"
	many  = zfa + "0000004"
)

type term struct {
	id      string
	label   string
	usage   string
	anatomy []string
}

var phenotypes = []term{
	{"0000001", "pectoral fin absent", "10", []string{fin}},
	{"0000002", "pectoral fin small", "3", []string{fin}},
	{"0000003", "caudal fin kinked", "10", []string{fin}},
	{"0000004", "eye small", "25", []string{eye}},
	{"0000005", "eye absent", "", []string{eye}},
	{"0000006", "retina degenerate", "7", nil},
}

func buildBundle(t *testing.T, extra int) *phenodata.Bundle {
	t.Helper()
	var nodes, edges []string
	node := func(uri, label, usage string) {
		meta := ""
		if usage != "" {
			meta = fmt.Sprintf(`, "meta": {"basicPropertyValues": [{"pred": %q, "val": %q,
			  "meta": {"basicPropertyValues": [{"pred": %q, "val": %q}]}}]}`,
				config.DefaultIsReferencedBy, config.DefaultUsageSource, config.DefaultReferenceCount, usage)
		}
		nodes = append(nodes, fmt.Sprintf(`{"id": %q, "lbl": %q%s}`, uri, label, meta))
	}
	edge := func(sub, pred, obj string) {
		edges = append(edges, fmt.Sprintf(`{"sub": %q, "pred": %q, "obj": %q}`, sub, pred, obj))
	}

	node(config.DefaultPhenotypeRoot, "phenotype", "")
	for _, p := range phenotypes {
		node(zp+p.id, p.label, p.usage)
		edge(zp+p.id, obograph.IsA, config.DefaultPhenotypeRoot)
		for _, a := range p.anatomy {
			edge(zp+p.id, config.DefaultAssociatedWith, a)
		}
	}
	for i := 0; i < extra; i++ {
		uri := fmt.Sprintf("%s1%06d", zp, i)
		node(uri, fmt.Sprintf("segment defect %03d", i), fmt.Sprint(i%4))
		edge(uri, obograph.IsA, config.DefaultPhenotypeRoot)
		edge(uri, config.DefaultAssociatedWith, many)
	}
	zpDoc := `{"graphs": [{"nodes": [` + strings.Join(nodes, ",") + `], "edges": [` + strings.Join(edges, ",") + `]}]}`

	zfaDoc := `{"graphs": [{"nodes": [
	  {"id": "` + config.DefaultAnatomyRoot + `", "lbl": "anatomical system"},
	  {"id": "` + fin + `", "lbl": "fin"},
	  {"id": "` + eye + `", "lbl": "eye"},
	  {"id": "` + heart + `", "lbl": "heart"},
	  {"id": "` + many + `", "lbl": "somite"}
	], "edges": [
	  {"sub": "` + fin + `", "pred": "is_a", "obj": "` + config.DefaultAnatomyRoot + `"},
	  {"sub": "` + eye + `", "pred": "is_a", "obj": "` + config.DefaultAnatomyRoot + `"},
	  {"sub": "` + heart + `", "pred": "is_a", "obj": "` + config.DefaultAnatomyRoot + `"},
	  {"sub": "` + many + `", "pred": "is_a", "obj": "` + config.DefaultAnatomyRoot + `"}
	]}]}`

	anatomy, err := obograph.Decode(strings.NewReader(zfaDoc))
	require.NoError(t, err)
	phenotype, err := obograph.Decode(strings.NewReader(zpDoc))
	require.NoError(t, err)
	b, err := phenodata.Assemble(anatomy, phenotype, phenodata.Options{})
	require.NoError(t, err)
	return b
}

func ids(ms []Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Node.LocalID()
	}
	return out
}

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

func TestController_StartsEmpty(t *testing.T) {
	c := New(buildBundle(t, 0), Options{})
	require.Equal(t, ModeEmpty, c.Mode())
	require.Equal(t, "Phenotype Results", c.Label())
	require.Empty(t, c.Results())
	require.Empty(t, c.Visible())
	require.Equal(t, config.DefaultPageSize, c.Limit())
}

func TestController_SelectAnatomy(t *testing.T) {
	c := New(buildBundle(t, 0), Options{})

	require.NoError(t, c.SelectAnatomy(fin))
	require.Equal(t, ModeAnatomy, c.Mode())
	require.Equal(t, "Phenotypes for fin", c.Label())
	if diff := cmp.Diff([]string{"ZP_0000001", "ZP_0000003", "ZP_0000002"}, ids(c.Visible())); diff != "" {
		t.Fatalf("fin phenotypes (-want +got):\n%s", diff)
	}

	require.NoError(t, c.SelectAnatomy(heart))
	require.Equal(t, "No phenotypes for heart", c.Label())
	require.Empty(t, c.Visible())

	err := c.SelectAnatomy(zfa + "9999999")
	require.ErrorIs(t, err, ErrUnknownAnatomy)
	require.Equal(t, heart, c.SelectedAnatomy().URI, "failed selection keeps the previous term")
}

func TestController_SelectAnatomyClearsHighlightAndFilter(t *testing.T) {
	c := New(buildBundle(t, 0), Options{})
	require.NoError(t, c.SelectAnatomy(fin))
	require.NoError(t, c.Highlight(zp+"0000002"))
	c.SetFilter("caudal")
	require.Len(t, c.Displayed(), 1)

	require.NoError(t, c.SelectAnatomy(eye))
	_, ok := c.Highlighted()
	require.False(t, ok)
	require.Equal(t, "", c.Filter())
	if diff := cmp.Diff([]string{"ZP_0000004", "ZP_0000005"}, ids(c.Displayed())); diff != "" {
		t.Fatalf("eye phenotypes (-want +got):\n%s", diff)
	}
}

func TestController_SearchTakesPriorityAndDisablesAnatomy(t *testing.T) {
	c := New(buildBundle(t, 0), Options{})
	require.NoError(t, c.SelectAnatomy(fin))

	c.SetQuery("eye")
	require.Equal(t, ModeSearch, c.Mode())
	require.Equal(t, `Search results for "eye"`, c.Label())
	require.Subset(t, ids(c.Results()), []string{"ZP_0000004", "ZP_0000005"})
	require.NotContains(t, ids(c.Results()), "ZP_0000001")

	require.ErrorIs(t, c.SelectAnatomy(eye), ErrSearchActive)
	require.Equal(t, fin, c.SelectedAnatomy().URI)

	c.SetQuery("   ")
	require.Equal(t, ModeAnatomy, c.Mode(), "blank query is not a search")
	require.NoError(t, c.SelectAnatomy(eye))
}

func TestSearch_RanksByScoreThenUsage(t *testing.T) {
	b := buildBundle(t, 0)
	got := Search(b.Phenotypes, "fin")
	require.NotEmpty(t, got)
	for _, m := range got {
		require.Contains(t, m.Label(), "fin")
		require.Len(t, m.Indexes, 3)
	}
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if prev.Score == cur.Score {
			require.GreaterOrEqual(t, prev.Usage, cur.Usage)
		} else {
			require.Greater(t, prev.Score, cur.Score)
		}
	}

	require.Empty(t, Search(b.Phenotypes, "  "))
	require.Empty(t, Search(b.Phenotypes, "zzzz"))
}

func TestSearch_NormalizesQuery(t *testing.T) {
	n := &obograph.Node{URI: "http://x/P", Label: "café shaped fin"}
	items := []phenodata.Phenotype{{Node: n}}
	got := Search(items, "cafe\u0301")
	require.Len(t, got, 1)
}

func TestSearch_FallsBackToLocalID(t *testing.T) {
	n := &obograph.Node{URI: "http://purl.obolibrary.org/obo/ZP_0001234"}
	got := Search([]phenodata.Phenotype{{Node: n}}, "ZP_0001234")
	require.Len(t, got, 1)
}

func TestController_FilterWithinResults(t *testing.T) {
	c := New(buildBundle(t, 0), Options{})
	require.NoError(t, c.SelectAnatomy(fin))

	c.SetFilter("pectoral")
	require.ElementsMatch(t, []string{"ZP_0000001", "ZP_0000002"}, ids(c.Displayed()))
	require.Len(t, c.Results(), 3, "filter leaves results untouched")
	require.Equal(t, `2 phenotypes matching "pectoral"`, c.Summary())

	c.SetFilter("heart")
	require.Empty(t, c.Displayed())
	require.Equal(t, `No phenotypes match "heart"`, c.Summary())

	c.SetFilter("")
	require.Len(t, c.Displayed(), 3)
	require.Equal(t, "3 phenotypes", c.Summary())
}

func TestController_DisplayedSortsSearchResultsByUsage(t *testing.T) {
	c := New(buildBundle(t, 0), Options{})
	c.SetQuery("small")
	require.Equal(t, []string{"ZP_0000004", "ZP_0000002"}, ids(c.Displayed()))
}

func TestController_Pagination(t *testing.T) {
	c := New(buildBundle(t, 120), Options{})
	require.NoError(t, c.SelectAnatomy(many))

	require.Len(t, c.Results(), 120)
	require.Len(t, c.Visible(), 50)
	require.True(t, c.HasMore())
	require.Equal(t, 70, c.Remaining())
	require.Equal(t, "Showing 50 of 120 phenotypes", c.Summary())

	c.ShowMore()
	require.Len(t, c.Visible(), 100)
	c.ShowMore()
	require.Len(t, c.Visible(), 120)
	require.False(t, c.HasMore())
	require.Equal(t, 0, c.Remaining())
	c.ShowMore()
	require.Equal(t, 150, c.Limit())

	c.SetFilter("defect 01")
	require.Equal(t, 50, c.Limit(), "filter change resets the limit")

	c.ShowMore()
	c.SetFilter("")
	require.Equal(t, 50, c.Limit())

	c.ShowMore()
	require.NoError(t, c.SelectAnatomy(many))
	require.Equal(t, 50, c.Limit(), "list change resets the limit")

	for i := 1; i < len(c.Displayed()); i++ {
		require.GreaterOrEqual(t, c.Displayed()[i-1].Usage, c.Displayed()[i].Usage)
	}
}

func TestController_CustomPageSize(t *testing.T) {
	c := New(buildBundle(t, 12), Options{PageSize: 5})
	require.NoError(t, c.SelectAnatomy(many))
	require.Len(t, c.Visible(), 5)
	require.Equal(t, 7, c.Remaining())
}

func TestController_HighlightCallsOnSelect(t *testing.T) {
	var got []string
	c := New(buildBundle(t, 0), Options{OnSelect: func(p phenodata.Phenotype) { got = append(got, p.URI()) }})

	require.NoError(t, c.Highlight(zp+"0000004"))
	p, ok := c.Highlighted()
	require.True(t, ok)
	require.Equal(t, 25, p.Usage)
	require.Equal(t, []string{zp + "0000004"}, got)

	require.ErrorIs(t, c.Highlight("http://x/unknown"), ErrUnknownPhenotype)
	require.Len(t, got, 1)
}

func TestController_SelectionIsDuplicateFree(t *testing.T) {
	c := New(buildBundle(t, 0), Options{})
	require.NoError(t, c.Add(zp+"0000001"))
	require.NoError(t, c.Add(zp+"0000004"))
	require.NoError(t, c.Add(zp+"0000001"))
	require.Len(t, c.Selection(), 2)

	p, _ := c.Bundle().PhenotypeByURI(zp + "0000004")
	require.False(t, c.AddPhenotype(p))
	require.True(t, c.IsSelected(zp+"0000004"))

	require.True(t, c.Remove(zp+"0000001"))
	require.False(t, c.Remove(zp+"0000001"))
	require.Equal(t, []string{zp + "0000004"}, c.selection.URIs())

	require.ErrorIs(t, c.Add("http://x/unknown"), ErrUnknownPhenotype)

	c.Clear()
	require.Empty(t, c.Selection())
}

func TestController_SelectionSurvivesModeChanges(t *testing.T) {
	c := New(buildBundle(t, 0), Options{})
	require.NoError(t, c.Add(zp+"0000006"))
	require.NoError(t, c.SelectAnatomy(fin))
	c.SetQuery("eye")
	c.SetFilter("absent")
	c.SetQuery("")
	require.Equal(t, []string{zp + "0000006"}, c.selection.URIs())
}

func TestController_Copy(t *testing.T) {
	cb := &fakeClipboard{}
	c := New(buildBundle(t, 0), Options{Clipboard: cb})

	require.ErrorIs(t, c.CopyAll(), ErrEmptySelection)

	require.NoError(t, c.CopyURI(zp+"0000003"))
	require.Equal(t, zp+"0000003", cb.text)

	require.NoError(t, c.Add(zp+"0000002"))
	require.NoError(t, c.Add(zp+"0000005"))
	require.NoError(t, c.CopyAll())
	require.Equal(t, zp+"0000002\n"+zp+"0000005", cb.text)

	cb.err = errors.New("no display")
	require.ErrorContains(t, c.CopyAll(), "no display")

	require.ErrorIs(t, New(c.Bundle(), Options{}).CopyURI(zp+"0000001"), ErrNoClipboard)
}
