package codegen

import (
	"testing"

	"github.com/maciejhirsz/logos/graph"
	"github.com/maciejhirsz/logos/leaf"
	"github.com/maciejhirsz/logos/mir"
)

func build(t *testing.T, patterns map[leaf.ID]string, priorities map[leaf.ID]int) *graph.Graph {
	t.Helper()
	inputs := make([]graph.PatternInput, 0, len(patterns))
	for id, pat := range patterns {
		n, err := mir.LowerRegex(pat, mir.Flags{})
		if err != nil {
			t.Fatalf("LowerRegex(%q): %v", pat, err)
		}
		n = mir.ExpandBounded(n)
		l := &leaf.Leaf{ID: id, Priority: priorities[id]}
		inputs = append(inputs, graph.PatternInput{MIR: n, Leaf: l})
	}
	g, err := graph.Build(inputs)
	if err != nil {
		t.Fatalf("graph.Build: %v", err)
	}
	return g
}

func runBoth(t *testing.T, g *graph.Graph, input string) (dispatch, tail struct {
	id  leaf.ID
	pos int
	ok  bool
}) {
	t.Helper()
	dp, err := Compile(g, DispatchLoop)
	if err != nil {
		t.Fatalf("Compile(DispatchLoop): %v", err)
	}
	tp, err := Compile(g, TailCall)
	if err != nil {
		t.Fatalf("Compile(TailCall): %v", err)
	}
	id1, pos1, ok1 := dp.Run([]byte(input), 0)
	id2, pos2, ok2 := tp.Run([]byte(input), 0)
	dispatch.id, dispatch.pos, dispatch.ok = id1, pos1, ok1
	tail.id, tail.pos, tail.ok = id2, pos2, ok2
	return
}

func TestBackendsAgreeLongestMatch(t *testing.T) {
	g := build(t,
		map[leaf.ID]string{1: "a", 2: "ab"},
		map[leaf.ID]int{1: 2, 2: 4},
	)
	d, tl := runBoth(t, g, "ab")
	if !d.ok || d.id != 2 || d.pos != 2 {
		t.Fatalf("dispatch-loop: got id=%d pos=%d ok=%v, want id=2 pos=2 ok=true", d.id, d.pos, d.ok)
	}
	if d != tl {
		t.Fatalf("backends disagree: dispatch=%+v tail=%+v", d, tl)
	}
}

func TestBackendsAgreeShortestAlternativeFallback(t *testing.T) {
	g := build(t,
		map[leaf.ID]string{1: "a", 2: "ab"},
		map[leaf.ID]int{1: 2, 2: 4},
	)
	d, tl := runBoth(t, g, "ac")
	if !d.ok || d.id != 1 || d.pos != 1 {
		t.Fatalf("dispatch-loop: got id=%d pos=%d ok=%v, want id=1 pos=1 ok=true", d.id, d.pos, d.ok)
	}
	if d != tl {
		t.Fatalf("backends disagree: dispatch=%+v tail=%+v", d, tl)
	}
}

func TestBackendsAgreeNoMatch(t *testing.T) {
	g := build(t,
		map[leaf.ID]string{1: "[a-z]+"},
		map[leaf.ID]int{1: 1},
	)
	d, tl := runBoth(t, g, "123")
	if d.ok {
		t.Fatalf("expected no match, got id=%d pos=%d", d.id, d.pos)
	}
	if d != tl {
		t.Fatalf("backends disagree: dispatch=%+v tail=%+v", d, tl)
	}
}

func TestLiteralClusterAccelerationMatchesPlainDispatch(t *testing.T) {
	keywords := map[leaf.ID]string{
		1: "if", 2: "else", 3: "for", 4: "while", 5: "break",
		6: "continue", 7: "return", 8: "switch", 9: "case", 10: "default",
	}
	priorities := map[leaf.ID]int{}
	for id, kw := range keywords {
		priorities[id] = 2 * len(kw)
	}
	g := build(t, keywords, priorities)

	dp, err := Compile(g, DispatchLoop)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	found := false
	for _, s := range g.States() {
		if s.Kind == graph.ForkKind && len(s.Transitions) >= accelThreshold {
			found = true
		}
	}
	if !found {
		t.Skip("merged graph did not converge into one wide fork for this keyword set")
	}

	id, pos, ok := dp.Run([]byte("switch"), 0)
	if !ok || pos != len("switch") {
		t.Fatalf("Run(\"switch\") = id=%d pos=%d ok=%v", id, pos, ok)
	}
	if g.Leaves[id].Priority != priorities[id] {
		t.Fatalf("resolved to leaf with wrong priority")
	}
}

func TestRopeCollapsedLiteralMatches(t *testing.T) {
	g := build(t, map[leaf.ID]string{1: "fast"}, map[leaf.ID]int{1: 8})

	sawRope := false
	for _, s := range g.States() {
		if s.Kind == graph.RopeKind {
			sawRope = true
		}
	}
	if !sawRope {
		t.Fatalf("expected a literal of length 4 to collapse into a Rope state")
	}

	d, tl := runBoth(t, g, "fast")
	if !d.ok || d.id != 1 || d.pos != 4 {
		t.Fatalf("got %+v", d)
	}
	if d != tl {
		t.Fatalf("backends disagree: dispatch=%+v tail=%+v", d, tl)
	}
}
