package graph

import (
	"errors"
	"testing"

	"github.com/maciejhirsz/logos/leaf"
	"github.com/maciejhirsz/logos/mir"
)

func mustLower(t *testing.T, pattern string) *mir.Node {
	t.Helper()
	n, err := mir.LowerRegex(pattern, mir.Flags{})
	if err != nil {
		t.Fatalf("LowerRegex(%q): %v", pattern, err)
	}
	return mir.ExpandBounded(n)
}

func mustLit(t *testing.T, text string) *mir.Node {
	t.Helper()
	n, err := mir.LowerLiteral(text, mir.Flags{})
	if err != nil {
		t.Fatalf("LowerLiteral(%q): %v", text, err)
	}
	return n
}

func newLeaf(id leaf.ID, n *mir.Node, explicit bool) *leaf.Leaf {
	return &leaf.Leaf{ID: id, Priority: priorityOf(n), ExplicitPriority: explicit}
}

// priorityOf avoids importing package leaf's Derive here to keep this test
// decoupled; it replicates only what's needed for these fixtures.
func priorityOf(n *mir.Node) int {
	switch n.Kind {
	case mir.Concat:
		total := 0
		for _, c := range n.Children {
			total += priorityOf(c)
		}
		return total
	case mir.ByteRange:
		if n.Lo == n.Hi {
			return 2
		}
		return 1
	case mir.Alt:
		min := priorityOf(n.Children[0])
		for _, c := range n.Children[1:] {
			if v := priorityOf(c); v < min {
				min = v
			}
		}
		return min
	default:
		return 0
	}
}

// scan runs a compiled graph's maximal-munch scan over input, returning the
// leaf id of the longest accepted match and how many bytes it consumed, or
// ok=false if nothing matched at all. This exercises the graph the same
// way package runtime's Lexer will, without depending on that package.
func scan(g *Graph, input []byte) (id leaf.ID, length int, ok bool) {
	state := g.Root
	pos := 0
	for {
		s := g.State(state)
		if leafID, accepted := s.IsAccepting(); accepted {
			id, length, ok = leafID, pos, true
		}
		if pos >= len(input) {
			return
		}
		switch s.Kind {
		case ForkKind:
			target := StateID(InvalidState)
			b := input[pos]
			for _, t := range s.Transitions {
				if b >= t.Lo && b <= t.Hi {
					target = t.Target
					break
				}
			}
			if target == InvalidState {
				return
			}
			state = target
			pos++
		case RopeKind:
			if pos+len(s.Bytes) > len(input) {
				return
			}
			for i, want := range s.Bytes {
				if input[pos+i] != want {
					return
				}
			}
			pos += len(s.Bytes)
			state = s.Then
		case LeafKind:
			return
		}
	}
}

func TestBuildSingleLiteral(t *testing.T) {
	l := newLeaf(1, mustLit(t, "fast"), false)
	g, err := Build([]PatternInput{{MIR: mustLit(t, "fast"), Leaf: l}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	id, n, ok := scan(g, []byte("fast"))
	if !ok || id != 1 || n != 4 {
		t.Fatalf("scan(fast) = (%d,%d,%v), want (1,4,true)", id, n, ok)
	}
}

func TestBuildLiteralCollapsesIntoRope(t *testing.T) {
	l := newLeaf(1, mustLit(t, "fast"), false)
	g, err := Build([]PatternInput{{MIR: mustLit(t, "fast"), Leaf: l}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	foundRope := false
	for _, s := range g.States() {
		if s.Kind == RopeKind && string(s.Bytes) == "fast" {
			foundRope = true
		}
	}
	if !foundRope {
		t.Fatalf("expected a single Rope state spelling \"fast\", got states: %#v", g.States())
	}
}

func TestBuildPriorityResolvesKeywordOverIdentifier(t *testing.T) {
	fastMIR := mustLit(t, "fast")
	textMIR := mustLower(t, "[a-zA-Z]+")

	fast := newLeaf(1, fastMIR, false)
	text := newLeaf(2, textMIR, false)

	g, err := Build([]PatternInput{
		{MIR: fastMIR, Leaf: fast},
		{MIR: textMIR, Leaf: text},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// "fast" should win at length 4 (both match, "fast" has higher
	// priority: 8 vs 1).
	id, n, ok := scan(g, []byte("fast"))
	if !ok || id != 1 || n != 4 {
		t.Fatalf("scan(fast) = (%d,%d,%v), want (1,4,true)", id, n, ok)
	}

	// "faster" only matches Text, for the full 6 bytes (maximal munch:
	// priority never overrides a strictly longer match).
	id, n, ok = scan(g, []byte("faster"))
	if !ok || id != 2 || n != 6 {
		t.Fatalf("scan(faster) = (%d,%d,%v), want (2,6,true)", id, n, ok)
	}
}

func TestBuildAmbiguousPriorityIsError(t *testing.T) {
	aMIR := mustLit(t, "a")
	bMIR := mustLit(t, "a")

	a := newLeaf(1, aMIR, false)
	b := newLeaf(2, bMIR, false)

	_, err := Build([]PatternInput{
		{MIR: aMIR, Leaf: a},
		{MIR: bMIR, Leaf: b},
	})
	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("expected *BuildError, got %v", err)
	}
	if len(buildErr.Ambiguities) != 1 {
		t.Fatalf("expected exactly one ambiguity, got %d", len(buildErr.Ambiguities))
	}
	if !errors.Is(err, ErrAmbiguousPriority) {
		t.Fatalf("expected ErrAmbiguousPriority, got %v", err)
	}
}

func TestBuildExplicitPriorityCollisionIsDuplicateExplicit(t *testing.T) {
	aMIR := mustLit(t, "a")
	bMIR := mustLit(t, "a")

	a := newLeaf(1, aMIR, true)
	b := newLeaf(2, bMIR, true)
	a.Priority, b.Priority = 5, 5

	_, err := Build([]PatternInput{
		{MIR: aMIR, Leaf: a},
		{MIR: bMIR, Leaf: b},
	})
	if !errors.Is(err, ErrDuplicateExplicitPriority) {
		t.Fatalf("expected ErrDuplicateExplicitPriority, got %v", err)
	}
}

func TestBuildUnboundedRepeatLoops(t *testing.T) {
	n := mustLower(t, "a+")
	l := newLeaf(1, n, false)
	g, err := Build([]PatternInput{{MIR: n, Leaf: l}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, in := range [][]byte{[]byte("a"), []byte("aaaa"), []byte("aaaaaaaaaa")} {
		id, length, ok := scan(g, in)
		if !ok || id != 1 || length != len(in) {
			t.Fatalf("scan(%q) = (%d,%d,%v), want (1,%d,true)", in, id, length, ok, len(in))
		}
	}
}

func TestBuildEarlyLeafNotMarkedWhenLongerSiblingExtends(t *testing.T) {
	// "ab" and "abc" share a prefix; after consuming "ab", leaf 1 (the
	// shorter pattern) already accepts, but since "abc" can still extend
	// the match, the "ab"-accept state must NOT be marked early (reading
	// 'c' changes the winning leaf).
	ab := mustLit(t, "ab")
	abc := mustLit(t, "abc")
	lab := newLeaf(1, ab, false)
	labc := newLeaf(2, abc, false)

	g, err := Build([]PatternInput{
		{MIR: ab, Leaf: lab},
		{MIR: abc, Leaf: labc},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, s := range g.States() {
		if s.Kind == ForkKind && s.Miss.HasLeaf && s.Miss.LeafID == lab.ID {
			if s.Early {
				t.Fatalf("state accepting the shorter literal must not be early when a longer sibling extends it: %#v", s)
			}
		}
	}
}

func TestBuildUnboundedRepeatLoopHeadNotEarly(t *testing.T) {
	// a+'s loop head is a Fork whose only transition targets itself
	// (graph.build's mir.Repeat case overwrites the loop head in place via
	// unionInto). Once it accepts, it trivially "agrees with itself" one
	// hop away, but the self-loop is proof a longer match through the same
	// leaf is still reachable, so it must never be marked early.
	n := mustLower(t, "a+")
	l := newLeaf(1, n, false)
	g, err := Build([]PatternInput{{MIR: n, Leaf: l}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	found := false
	for _, s := range g.States() {
		if s.Kind != ForkKind || !s.Miss.HasLeaf {
			continue
		}
		found = true
		if s.Early {
			t.Fatalf("loop-head state must not be marked early: %#v", s)
		}
	}
	if !found {
		t.Fatalf("expected at least one accepting Fork state in a+'s graph")
	}
}

func TestBuildEmptyPatternsRejected(t *testing.T) {
	if _, err := Build(nil); !errors.Is(err, ErrEmptyGraph) {
		t.Fatalf("expected ErrEmptyGraph, got %v", err)
	}
}
