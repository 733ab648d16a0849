package graph

import (
	"fmt"
	"sort"

	"github.com/maciejhirsz/logos/leaf"
	"github.com/maciejhirsz/logos/mir"
)

// Graph is the merged, priority-resolved recognition graph for a whole
// token set: one DAG-with-back-edges rooted at Root, shared across all of
// the set's patterns (spec §3 "Graph").
type Graph struct {
	states []State
	Root   StateID
	Leaves map[leaf.ID]*leaf.Leaf
}

// State returns a pointer into the graph's state table. Callers must treat
// it as read-only once Build has returned; package graph's own optimize
// pass is the only code allowed to mutate states after construction.
func (g *Graph) State(id StateID) *State { return &g.states[id] }

// NumStates reports how many states the graph currently holds.
func (g *Graph) NumStates() int { return len(g.states) }

// States iterates every live state in ascending ID order.
func (g *Graph) States() []State { return g.states }

// PatternInput is one token variant's already-lowered, already-bounded-
// expanded MIR paired with its leaf record (spec §3 "Pattern descriptor"
// after lowering: MIR + Leaf, ready to be merged).
type PatternInput struct {
	MIR  *mir.Node
	Leaf *leaf.Leaf
}

// builder constructs per-pattern subgraphs and merges them, interning
// acyclic Fork/Leaf states by structural content as it goes (sharing,
// spec §4.4 "tail sharing"), the same technique as dfa/lazy.Cache /
// ComputeStateKey: a state's identity is a hash of its own shape plus its
// already-finalized children's identities.
//
// Loop-head states (the Fork that closes an unbounded repeat's back-edge)
// are allocated directly into the state table without going through the
// intern map: correctly hash-consing a state whose own hash depends on a
// target that doesn't exist yet requires a signature-refinement pass this
// build does not perform. Sharing is a memory optimization
// here, not a correctness requirement — every loop still behaves
// correctly, it simply isn't deduplicated against an identical loop
// elsewhere in the graph.
type builder struct {
	states []State
	intern map[string]StateID
	errs   []*AmbiguityError
	leaves map[leaf.ID]*leaf.Leaf
}

func newBuilder() *builder {
	return &builder{intern: make(map[string]StateID), leaves: make(map[leaf.ID]*leaf.Leaf)}
}

func (b *builder) alloc(s State) StateID {
	id := StateID(len(b.states))
	s.ID = id
	b.states = append(b.states, s)
	return id
}

func (b *builder) get(id StateID) *State { return &b.states[id] }

func (b *builder) allocPlaceholder() StateID {
	return b.alloc(State{Kind: ForkKind})
}

// leafState returns the (interned) terminal state for a leaf.
func (b *builder) leafState(id leaf.ID) StateID {
	key := fmt.Sprintf("L%d", id)
	if sid, ok := b.intern[key]; ok {
		return sid
	}
	sid := b.alloc(State{Kind: LeafKind, LeafID: id})
	b.intern[key] = sid
	return sid
}

// internFork returns an existing Fork state with identical transitions and
// miss action, or allocates a new one. Only valid once every transition's
// Target is finalized (no pending placeholder among them).
func (b *builder) internFork(transitions []Transition, miss Accept) StateID {
	if len(transitions) == 0 && !miss.HasLeaf {
		// A dead end: no way forward, nothing accepts. Callers should
		// avoid producing this, but make it an explicit, shared state
		// rather than silently misbehaving.
	}
	key := forkKey(transitions, miss)
	if id, ok := b.intern[key]; ok {
		return id
	}
	id := b.alloc(State{Kind: ForkKind, Transitions: transitions, Miss: miss})
	b.intern[key] = id
	return id
}

func forkKey(transitions []Transition, miss Accept) string {
	s := fmt.Sprintf("F%v;", miss)
	for _, t := range transitions {
		s += fmt.Sprintf("%02x-%02x>%d;", t.Lo, t.Hi, t.Target)
	}
	return s
}

// buildPattern compiles one pattern's MIR into a subgraph terminating at
// the leaf's terminal state, returning the subgraph's start state.
func (b *builder) buildPattern(n *mir.Node, l *leaf.Leaf) StateID {
	b.leaves[l.ID] = l
	cont := b.leafState(l.ID)
	return b.build(n, cont)
}

// build compiles n so that, once n has matched, control continues at cont.
// It never introduces ambiguity (every state produced here accepts only
// the single leaf that cont itself resolves to): ambiguity can only arise
// later, when unionStates merges subgraphs belonging to different leaves.
func (b *builder) build(n *mir.Node, cont StateID) StateID {
	switch n.Kind {
	case mir.Empty:
		return cont

	case mir.ByteRange:
		return b.internFork([]Transition{{Lo: n.Lo, Hi: n.Hi, Target: cont}}, NoAccept)

	case mir.Concat:
		state := cont
		for i := len(n.Children) - 1; i >= 0; i-- {
			state = b.build(n.Children[i], state)
		}
		return state

	case mir.Alt:
		merged := InvalidState
		for _, c := range n.Children {
			s := b.build(c, cont)
			merged = b.unionStates(merged, s, sameLeafResolver)
		}
		return merged

	case mir.Repeat:
		if n.Max == mir.Unbounded {
			// n.Min == 0 is guaranteed here: mir.NewRepeat folds any
			// nonzero minimum into mandatory Concat copies before an
			// unbounded Repeat node is ever constructed.
			loopHead := b.allocPlaceholder()
			bodyStart := b.build(n.Sub, loopHead)
			merged := b.unionInto(loopHead, bodyStart, cont, sameLeafResolver)
			return merged
		}
		// Only Min=0,Max=1 ("?") survives mir.ExpandBounded; anything
		// else bounded has already been folded into Concat by the time
		// the builder sees it.
		taken := b.build(n.Sub, cont)
		return b.unionStates(cont, taken, sameLeafResolver)

	default:
		return cont
	}
}

// leafResolver decides which of two colliding leaves wins when two
// subgraphs are unioned at the same state, and whether the collision is an
// error. sameLeafResolver (used while building one pattern's own
// alternation/optional branches) asserts the two ids are always equal,
// since every branch of an Alt or Repeat feeds the same cont/leaf.
type leafResolver func(a, b leaf.ID) (winner leaf.ID, ambiguous bool, explicit bool)

func sameLeafResolver(a, b leaf.ID) (leaf.ID, bool, bool) {
	if a != b {
		panic("graph: same-pattern merge saw two different leaves")
	}
	return a, false, false
}

// unionStates returns a state accepting the union of the languages
// accepted by a and b, resolving collisions with resolve. Allocates fresh
// states for any newly-computed combination.
func (b *builder) unionStates(a, bID StateID, resolve leafResolver) StateID {
	if a == InvalidState {
		return bID
	}
	if bID == InvalidState {
		return a
	}
	if a == bID {
		return a
	}

	byteA := b.expandToBytes(a)
	byteB := b.expandToBytes(bID)
	missA, missB := b.missOf(a), b.missOf(bID)

	merged, ambiguous := b.mergeMiss(missA, missB, resolve)
	if ambiguous {
		return InvalidState // caller already recorded the error
	}

	var out [256]StateID
	for i := 0; i < 256; i++ {
		out[i] = b.unionByte(byteA[i], byteB[i], resolve)
	}
	transitions := compressBytes(out)
	return b.internFork(transitions, merged)
}

// unionInto is like unionStates, but writes the result in place into the
// existing state id `into` instead of allocating a new one, so that any
// back-edge already pointing at `into` (the loop head) keeps pointing at
// the correct, now-finalized state.
func (b *builder) unionInto(into, a, bID StateID, resolve leafResolver) StateID {
	byteA := b.expandToBytes(a)
	byteB := b.expandToBytes(bID)
	missA, missB := b.missOf(a), b.missOf(bID)
	merged, ambiguous := b.mergeMiss(missA, missB, resolve)
	if ambiguous {
		return InvalidState
	}

	var out [256]StateID
	for i := 0; i < 256; i++ {
		out[i] = b.unionByte(byteA[i], byteB[i], resolve)
	}
	transitions := compressBytes(out)
	*b.get(into) = State{ID: into, Kind: ForkKind, Transitions: transitions, Miss: merged}
	return into
}

func (b *builder) unionByte(a, bID StateID, resolve leafResolver) StateID {
	if a == InvalidState {
		return bID
	}
	if bID == InvalidState {
		return a
	}
	if a == bID {
		return a
	}
	return b.unionStates(a, bID, resolve)
}

// missOf returns the accept action a state contributes when no further
// byte is read: a Leaf's own leaf, or a Fork's Miss.
func (b *builder) missOf(id StateID) Accept {
	if id == InvalidState {
		return NoAccept
	}
	s := b.get(id)
	switch s.Kind {
	case LeafKind:
		return AcceptLeaf(s.LeafID)
	default:
		return s.Miss
	}
}

func (b *builder) mergeMiss(x, y Accept, resolve leafResolver) (Accept, bool) {
	if !x.HasLeaf {
		return y, false
	}
	if !y.HasLeaf {
		return x, false
	}
	if x.LeafID == y.LeafID {
		return x, false
	}
	winner, ambiguous, explicit := resolve(x.LeafID, y.LeafID)
	if ambiguous {
		a, bb := x.LeafID, y.LeafID
		if a > bb {
			a, bb = bb, a
		}
		b.errs = append(b.errs, &AmbiguityError{A: a, B: bb, Explicit: explicit})
		return NoAccept, true
	}
	return AcceptLeaf(winner), false
}

// expandToBytes materializes a state's per-byte transition table, the
// same 256-entry technique as nfa/alphabet.go's ByteClassSet, used here as
// a scratch form for merging two Forks' transitions byte by byte.
func (b *builder) expandToBytes(id StateID) [256]StateID {
	var out [256]StateID
	for i := range out {
		out[i] = InvalidState
	}
	if id == InvalidState {
		return out
	}
	s := b.get(id)
	if s.Kind != ForkKind {
		return out
	}
	for _, t := range s.Transitions {
		for i := int(t.Lo); i <= int(t.Hi); i++ {
			out[i] = t.Target
		}
	}
	return out
}

// compressBytes coalesces a 256-entry per-byte target table into the
// minimal sorted list of disjoint Transitions with identical targets
// merged into contiguous ranges (spec §4.4 "range coalescing", applied
// here too so the builder never emits needlessly fragmented forks).
func compressBytes(table [256]StateID) []Transition {
	var out []Transition
	i := 0
	for i < 256 {
		if table[i] == InvalidState {
			i++
			continue
		}
		lo := i
		target := table[i]
		for i < 256 && table[i] == target {
			i++
		}
		out = append(out, Transition{Lo: byte(lo), Hi: byte(i - 1), Target: target})
	}
	return out
}

// Build merges every pattern's subgraph into one root state, resolving
// priority collisions as it goes, and returns the finished Graph. Returns
// a *BuildError (via errors.Join-compatible Unwrap) if any collisions
// could not be resolved.
func Build(patterns []PatternInput) (*Graph, error) {
	if len(patterns) == 0 {
		return nil, ErrEmptyGraph
	}
	b := newBuilder()

	starts := make([]StateID, len(patterns))
	for i, p := range patterns {
		starts[i] = b.buildPattern(p.MIR, p.Leaf)
	}

	resolve := b.priorityResolver()
	root := InvalidState
	for _, s := range starts {
		root = b.unionStates(root, s, resolve)
	}

	if len(b.errs) > 0 {
		sort.Slice(b.errs, func(i, j int) bool {
			if b.errs[i].A != b.errs[j].A {
				return b.errs[i].A < b.errs[j].A
			}
			return b.errs[i].B < b.errs[j].B
		})
		return nil, &BuildError{Ambiguities: b.errs}
	}

	if len(b.states) > maxStates {
		return nil, fmt.Errorf("%w: %d states", ErrTooManyStates, len(b.states))
	}

	g := &Graph{states: b.states, Root: root, Leaves: b.leaves}
	markEarlyLeaves(g)
	g = compact(g)
	return g, nil
}

// maxStates guards against a pathologically large merged graph, the role
// lazy.Config.MaxStates plays for the teacher's on-demand DFA construction
// (dfa/lazy/builder.go). Checked once Build finishes merging rather than
// during construction, since unionStates has no error-propagating path of
// its own and a graph this large is already a configuration mistake to
// report, not a resource limit to enforce mid-build.
const maxStates = 1 << 20

// priorityResolver implements spec §4.2's disambiguation rule for leaves
// colliding at the same state: higher Priority wins; equal priority is an
// error, distinguishing the "both explicit" and "at least one structural"
// cases per ErrDuplicateExplicitPriority / ErrAmbiguousPriority.
func (b *builder) priorityResolver() leafResolver {
	return func(a, bID leaf.ID) (leaf.ID, bool, bool) {
		la, lb := b.leaves[a], b.leaves[bID]
		if la.Priority > lb.Priority {
			return a, false, false
		}
		if lb.Priority > la.Priority {
			return bID, false, false
		}
		return a, true, la.ExplicitPriority && lb.ExplicitPriority
	}
}
