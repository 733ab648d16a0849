// Package codegen turns a finished recognition graph (package graph) into
// an executable program (spec §4.5). Go has no user-accessible facility for
// emitting and compiling new Go source at build time the way a proc-macro
// would, so "codegen" here means in-process construction of a runtime
// dispatch structure — the same idiom the teacher package uses for its own
// "compiled form" (dfa/lazy.Builder.Build constructs a *DFA value from an
// NFA at run time; it never emits Go source). See SPEC_FULL.md's REDESIGN
// section for the rationale.
//
// Both backends described by spec §4.5 are implemented here and consume
// the exact same lowered representation (lower, below), differing only in how
// they drive it: Dispatch (dispatchloop.go) runs one loop with a switch
// over a state tag; TailCall (tailcall.go) builds one closure per state
// and trampolines over the closures it returns.
package codegen

import (
	"fmt"

	"github.com/maciejhirsz/logos/accel"
	"github.com/maciejhirsz/logos/graph"
	"github.com/maciejhirsz/logos/leaf"
)

// Backend selects which of the two behaviorally-identical state-machine
// drivers Compile produces (spec §4.5, §6 "backend ∈ {dispatch-loop,
// tail-call}").
type Backend uint8

const (
	// DispatchLoop builds a table-indexed state machine driven by one
	// loop and a switch over the current state's kind.
	DispatchLoop Backend = iota
	// TailCall builds one closure per state, each returning the next
	// closure to invoke instead of calling it directly (Go has no
	// guaranteed tail-call elimination).
	TailCall
)

func (b Backend) String() string {
	switch b {
	case DispatchLoop:
		return "dispatch-loop"
	case TailCall:
		return "tail-call"
	default:
		return fmt.Sprintf("Backend(%d)", uint8(b))
	}
}

// Program is the compiled form of a graph.Graph: something that can run
// the longest-match-with-priority scan (spec §4.3) starting at a given
// position. Both backends implement it; runtime.Lexer only depends on
// this interface, never on which backend produced it.
type Program interface {
	// Run scans data starting at pos and returns the leaf accepted by the
	// longest, highest-priority match of any pattern starting at pos, and
	// the position immediately past it. ok is false if no leaf was ever
	// accepted (spec §7's "no pattern matched" case) — the caller (package
	// runtime) is responsible for the error-span and recovery policy.
	Run(data []byte, pos int) (id leaf.ID, newPos int, ok bool)
}

// accelThreshold is the minimum number of pure-literal alternatives
// converging on one Fork before it's worth building a dedicated
// Aho-Corasick automaton for it instead of a plain range/table dispatch
// (spec §4.4's "dense literal cluster" optimization, SPEC_FULL.md's
// [DOMAIN] wiring of github.com/coregx/ahocorasick, grounded on
// meta/compile.go's identical ">32 patterns" style threshold — lowered
// here since a lexer's keyword table is commonly smaller than a general
// regex engine's literal alternation set).
const accelThreshold = 8

// lowerKind mirrors graph.Kind plus the accelerated literal-cluster form
// that lower can introduce; both backends switch on this.
type lowerKind uint8

const (
	lowerFork lowerKind = iota
	lowerRope
	lowerLeaf
	lowerAccel
)

// compiledRange is a single inclusive byte range inside a Fork's linear
// dispatch chain (used when the density heuristic picks "chain" over
// "table", spec §4.4 "range coalescing").
type compiledRange struct {
	Lo, Hi byte
	Target int32
}

// compiledState is the backend-agnostic lowered form of one graph.State.
// Both dispatchloop.go and tailcall.go are built from a []compiledState;
// neither mutates it.
type compiledState struct {
	Kind lowerKind

	// lowerFork
	UseTable bool
	Table    [256]int32 // -1 = no transition; only valid when UseTable
	Ranges   []compiledRange
	Miss     graph.Accept
	Early    bool

	// lowerRope
	Bytes []byte
	Then  int32

	// lowerLeaf
	LeafID leaf.ID

	// lowerAccel
	Accel     *accel.LiteralSet
	AccelMiss graph.Accept
}

// noTarget is the Table sentinel for "no transition on this byte".
const noTarget int32 = -1

// lowerDensityTableBytes / lowerDensityTableRanges implement spec §4.4's
// density heuristic: "lookup table when covered bytes >= 64 or when there
// are >= 4 distinct ranges", grounded on nfa/alphabet.go's ByteClassSet
// boundary-tracking, generalized here into a simple threshold test since
// the merged graph's Fork already stores pre-coalesced ranges.
const (
	lowerDensityTableBytes  = 64
	lowerDensityTableRanges = 4
)

// lower converts a finished graph.Graph into the shared []compiledState
// representation, detecting literal-cluster Forks worth accelerating along
// the way. Returns the compiled states and the index of the root state.
func lower(g *graph.Graph) ([]compiledState, int32, error) {
	out := make([]compiledState, g.NumStates())
	for i, s := range g.States() {
		cs, err := lowerOne(g, &s)
		if err != nil {
			return nil, 0, err
		}
		out[i] = cs
	}
	return out, int32(g.Root), nil
}

func lowerOne(g *graph.Graph, s *graph.State) (compiledState, error) {
	switch s.Kind {
	case graph.LeafKind:
		return compiledState{Kind: lowerLeaf, LeafID: s.LeafID}, nil

	case graph.RopeKind:
		return compiledState{Kind: lowerRope, Bytes: append([]byte(nil), s.Bytes...), Then: int32(s.Then)}, nil

	case graph.ForkKind:
		if entries := literalClusterEntries(g, s); len(entries) >= accelThreshold {
			set, err := accel.NewLiteralSet(entries)
			if err == nil {
				return compiledState{Kind: lowerAccel, Accel: set, AccelMiss: s.Miss}, nil
			}
			// Duplicate-literal collisions can't happen on a graph this
			// builder produced (identical ropes are already shared), but
			// fall back to the plain dispatch rather than fail the build
			// if accel construction ever refuses for another reason.
		}
		return compiledState{
			Kind:     lowerFork,
			UseTable: useTable(s.Transitions),
			Table:    buildTable(s.Transitions),
			Ranges:   buildRanges(s.Transitions),
			Miss:     s.Miss,
			Early:    s.Early,
		}, nil

	default:
		return compiledState{}, fmt.Errorf("codegen: unknown state kind %v", s.Kind)
	}
}

// literalClusterEntries reports the literal bytes + leaf for every
// transition of s that leads, through an optional Rope, directly to a
// Leaf with no further branching — i.e. a pure keyword alternative. A
// Fork with enough of these is a "dense literal cluster" (spec §4.4).
func literalClusterEntries(g *graph.Graph, s *graph.State) []accel.Entry {
	if len(s.Transitions) < accelThreshold {
		return nil
	}
	entries := make([]accel.Entry, 0, len(s.Transitions))
	for _, t := range s.Transitions {
		if t.Lo != t.Hi {
			return nil
		}
		bytes, leafID, ok := literalChain(g, t.Target, []byte{t.Lo})
		if !ok {
			return nil
		}
		entries = append(entries, accel.Entry{Bytes: bytes, Leaf: leafID})
	}
	return entries
}

func literalChain(g *graph.Graph, id graph.StateID, prefix []byte) ([]byte, leaf.ID, bool) {
	s := g.State(id)
	switch s.Kind {
	case graph.LeafKind:
		return prefix, s.LeafID, true
	case graph.RopeKind:
		if s.Miss.HasLeaf {
			return nil, 0, false
		}
		return literalChain(g, s.Then, append(prefix, s.Bytes...))
	case graph.ForkKind:
		if len(s.Transitions) != 1 || s.Miss.HasLeaf {
			return nil, 0, false
		}
		t := s.Transitions[0]
		if t.Lo != t.Hi {
			return nil, 0, false
		}
		return literalChain(g, t.Target, append(prefix, t.Lo))
	default:
		return nil, 0, false
	}
}

func useTable(transitions []graph.Transition) bool {
	covered := 0
	for _, t := range transitions {
		covered += int(t.Hi) - int(t.Lo) + 1
	}
	return covered >= lowerDensityTableBytes || len(transitions) >= lowerDensityTableRanges
}

func buildTable(transitions []graph.Transition) [256]int32 {
	var table [256]int32
	for i := range table {
		table[i] = noTarget
	}
	for _, t := range transitions {
		for b := int(t.Lo); b <= int(t.Hi); b++ {
			table[b] = int32(t.Target)
		}
	}
	return table
}

func buildRanges(transitions []graph.Transition) []compiledRange {
	ranges := make([]compiledRange, len(transitions))
	for i, t := range transitions {
		ranges[i] = compiledRange{Lo: t.Lo, Hi: t.Hi, Target: int32(t.Target)}
	}
	return ranges
}

func (cs *compiledState) targetFor(b byte) (int32, bool) {
	if cs.UseTable {
		target := cs.Table[b]
		return target, target != noTarget
	}
	for _, r := range cs.Ranges {
		if b >= r.Lo && b <= r.Hi {
			return r.Target, true
		}
	}
	return 0, false
}

// Compile lowers g into an executable Program using the requested backend
// (spec §4.5).
func Compile(g *graph.Graph, backend Backend) (Program, error) {
	states, root, err := lower(g)
	if err != nil {
		return nil, err
	}
	switch backend {
	case DispatchLoop:
		return newDispatchProgram(states, root), nil
	case TailCall:
		return newTailCallProgram(states, root), nil
	default:
		return nil, fmt.Errorf("codegen: unknown backend %v", backend)
	}
}
