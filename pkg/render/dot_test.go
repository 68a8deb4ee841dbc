package render

import (
	"strings"
	"testing"

	"github.com/matzehuels/runorder/pkg/component"
)

func sampleDecls() []component.Declaration {
	return []component.Declaration{
		component.New("A", component.WithPriority(10)),
		component.New("B", component.WithAfter("A", "ghost")),
		component.New("C", component.WithPriority(5), component.WithBefore("B"), component.WithVersion("1.2.0")),
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleDecls(), Options{})

	for _, want := range []string{
		"digraph runorder {",
		`"A" [label="A"];`,
		`"A" -> "B";`,
		`"C" -> "B";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "ghost") {
		t.Error("absent references should not be drawn unless ShowAbsent is set")
	}
	if !strings.HasSuffix(dot, "}\n") {
		t.Error("ToDOT() should close the graph")
	}
}

func TestToDOTDetailedWithOrder(t *testing.T) {
	dot := ToDOT(sampleDecls(), Options{Detailed: true, Order: []string{"C", "A", "B"}})

	if !strings.Contains(dot, `"C" [label="C\nstep: 1\npriority: 5\nversion: 1.2.0"];`) {
		t.Errorf("detailed label for C missing:\n%s", dot)
	}
	// Nodes follow the resolved order.
	ci, ai, bi := strings.Index(dot, `"C" [`), strings.Index(dot, `"A" [`), strings.Index(dot, `"B" [`)
	if !(ci < ai && ai < bi) {
		t.Errorf("nodes not in resolved order: C=%d A=%d B=%d", ci, ai, bi)
	}
}

func TestToDOTShowAbsent(t *testing.T) {
	dot := ToDOT(sampleDecls(), Options{ShowAbsent: true})

	if !strings.Contains(dot, `"ghost" [style="rounded,filled,dashed"`) {
		t.Errorf("absent node missing:\n%s", dot)
	}
	if !strings.Contains(dot, `"ghost" -> "B" [style=dashed, color=grey];`) {
		t.Errorf("absent edge missing:\n%s", dot)
	}
}

func TestToDOTEmpty(t *testing.T) {
	dot := ToDOT(nil, Options{})
	if !strings.HasPrefix(dot, "digraph runorder {") {
		t.Errorf("ToDOT(nil) = %q", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 116.00" width="62" height="116"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}

	plain := []byte("<svg><g/></svg>")
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox should be unchanged")
	}
}
