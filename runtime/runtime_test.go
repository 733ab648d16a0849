package runtime

import (
	"errors"
	"testing"

	"github.com/maciejhirsz/logos/codegen"
	"github.com/maciejhirsz/logos/graph"
	"github.com/maciejhirsz/logos/leaf"
	"github.com/maciejhirsz/logos/mir"
)

// fakeProgram lets tests drive Lexer.Next without building a real graph.
type fakeProgram struct {
	steps []step
	i     int
}

type step struct {
	id  leaf.ID
	pos int
	ok  bool
}

func (p *fakeProgram) Run(data []byte, pos int) (leaf.ID, int, bool) {
	s := p.steps[p.i]
	p.i++
	return s.id, s.pos, s.ok
}

func buildReal(t *testing.T, pattern string, shape leaf.CallbackShape) (codegen.Program, map[leaf.ID]*leaf.Leaf) {
	t.Helper()
	n, err := mir.LowerRegex(pattern, mir.Flags{})
	if err != nil {
		t.Fatalf("LowerRegex: %v", err)
	}
	n = mir.ExpandBounded(n)
	l := &leaf.Leaf{ID: 1, Priority: 1, CallbackShape: shape}
	g, err := graph.Build([]graph.PatternInput{{MIR: n, Leaf: l}})
	if err != nil {
		t.Fatalf("graph.Build: %v", err)
	}
	p, err := codegen.Compile(g, codegen.DispatchLoop)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return p, g.Leaves
}

func TestNextCoversInputWithNoGaps(t *testing.T) {
	program, leaves := buildReal(t, "[a-z]+", leaf.None)
	l := New([]byte("abc def"), Config{Program: program, Leaves: leaves})

	var spans []Span
	for {
		r := l.Next()
		if r.Done {
			break
		}
		spans = append(spans, r.Span)
	}
	if len(spans) == 0 {
		t.Fatal("expected at least one span")
	}
	if spans[0].Start != 0 {
		t.Fatalf("first span must start at 0, got %d", spans[0].Start)
	}
	for i := 1; i < len(spans); i++ {
		if spans[i-1].End != spans[i].Start {
			t.Fatalf("gap or overlap between spans %v and %v", spans[i-1], spans[i])
		}
	}
	if spans[len(spans)-1].End != len("abc def") {
		t.Fatalf("last span must reach end of input, got %d", spans[len(spans)-1].End)
	}
}

func TestErrorRecoveryScenario6(t *testing.T) {
	program, leaves := buildReal(t, "[a-z]+", leaf.None)
	l := New([]byte("abc!def"), Config{Program: program, Leaves: leaves})

	r1 := l.Next()
	if r1.Err != nil || string(l.data[r1.Span.Start:r1.Span.End]) != "abc" {
		t.Fatalf("token 1: %+v", r1)
	}

	r2 := l.Next()
	if r2.Err == nil {
		t.Fatalf("token 2: expected an error token for '!'")
	}
	if r2.Span.Start != 3 || r2.Span.End != 4 {
		t.Fatalf("error span = %v, want [3,4)", r2.Span)
	}
	if !errors.Is(r2.Err, ErrNoMatch) {
		t.Fatalf("error should wrap ErrNoMatch, got %v", r2.Err)
	}

	r3 := l.Next()
	if r3.Err != nil || string(l.data[r3.Span.Start:r3.Span.End]) != "def" {
		t.Fatalf("token 3: %+v", r3)
	}

	r4 := l.Next()
	if !r4.Done {
		t.Fatalf("expected Done after consuming whole input, got %+v", r4)
	}
}

func TestSkipLeafIsNotEmitted(t *testing.T) {
	program, leaves := buildReal(t, "[ \t]+", leaf.Skip)
	l := New([]byte("  "), Config{Program: program, Leaves: leaves})

	r := l.Next()
	if !r.Done {
		t.Fatalf("expected skip-only input to finish with Done, got %+v", r)
	}
}

func TestSliceMatchesSourceSubrange(t *testing.T) {
	program, leaves := buildReal(t, "[a-z]+", leaf.None)
	data := []byte("hello")
	l := New(data, Config{Program: program, Leaves: leaves})
	r := l.Next()
	if string(l.Slice()) != string(data[r.Span.Start:r.Span.End]) {
		t.Fatalf("Slice() = %q, want %q", l.Slice(), data[r.Span.Start:r.Span.End])
	}
}

func TestMorphPreservesPositionAndExtras(t *testing.T) {
	program, leaves := buildReal(t, "[a-z]+", leaf.None)
	l := New([]byte("ab cd"), Config{Program: program, Leaves: leaves})
	l.SetExtras(42)
	l.Next() // consume "ab"
	l.Bump(1) // skip the space

	program2, leaves2 := buildReal(t, "[a-z]+", leaf.None)
	m := l.Morph(Config{Program: program2, Leaves: leaves2})

	if m.Pos() != l.Pos() {
		t.Fatalf("Morph did not preserve position: %d vs %d", m.Pos(), l.Pos())
	}
	if m.Extras() != 42 {
		t.Fatalf("Morph did not preserve extras: %v", m.Extras())
	}
	r := m.Next()
	if string(m.Slice()) != "cd" {
		t.Fatalf("morphed lexer did not resume correctly: slice=%q span=%v", m.Slice(), r.Span)
	}
}

func TestDispatcherRejectProducesError(t *testing.T) {
	program, leaves := buildReal(t, "[a-z]+", leaf.Bool)
	l := New([]byte("nope"), Config{
		Program: program,
		Leaves:  leaves,
		Dispatcher: rejectAll{},
	})
	r := l.Next()
	if r.Err == nil {
		t.Fatalf("expected Reject to surface as an error")
	}
}

type rejectAll struct{}

func (rejectAll) Dispatch(id leaf.ID, shape leaf.CallbackShape, slice []byte) (Action, error) {
	return Reject, nil
}

func TestEmptyErrorAdvancesByOneUnit(t *testing.T) {
	p := &fakeProgram{steps: []step{{ok: false}}}
	l := New([]byte("x"), Config{Program: p, Leaves: map[leaf.ID]*leaf.Leaf{}})
	r := l.Next()
	if r.Span.Start != 0 || r.Span.End != 1 {
		t.Fatalf("error span = %v, want [0,1) to guarantee progress", r.Span)
	}
}
