// Package graph builds the single deterministic, priority-annotated
// recognition graph that all of a token set's patterns are merged into
// (spec §3 "State node", §4.3, §4.4).
//
// State is a tagged variant over Fork, Rope and Leaf, grounded on
// nfa.State's identical shape (coregx-coregex/nfa/nfa.go): one struct, one
// Kind enum, only the fields for that Kind populated.
package graph

import (
	"fmt"

	"github.com/maciejhirsz/logos/leaf"
)

// StateID uniquely identifies a state within a Graph.
type StateID uint32

// InvalidState marks the absence of a transition target.
const InvalidState StateID = 0xFFFFFFFF

// Kind identifies which variant a State holds.
type Kind uint8

const (
	// ForkKind: a set of disjoint byte-range transitions plus an optional
	// accept leaf reached if the input byte at this position doesn't
	// match any transition (spec §3 "Fork").
	ForkKind Kind = iota
	// RopeKind: a required run of bytes, introduced by optimize.go's rope
	// collapsing pass (spec §4.4), followed by a Fork or Leaf state.
	RopeKind
	// LeafKind: a terminal referencing a leaf.Leaf record.
	LeafKind
)

func (k Kind) String() string {
	switch k {
	case ForkKind:
		return "Fork"
	case RopeKind:
		return "Rope"
	case LeafKind:
		return "Leaf"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Transition maps an inclusive byte range to a target state. Transitions
// within one Fork's Transitions slice are always sorted and pairwise
// disjoint (spec §3 graph invariant: "Deterministic: for any state and any
// input byte, at most one outgoing transition applies").
type Transition struct {
	Lo, Hi byte
	Target StateID
}

// Accept records the leaf matched by reaching a state, used both as a
// Fork's "miss" action and to mark early/late acceptance.
type Accept struct {
	HasLeaf bool
	LeafID  leaf.ID
}

// NoAccept is the zero Accept value: no leaf accepts here.
var NoAccept = Accept{}

// AcceptLeaf constructs an Accept for the given leaf.
func AcceptLeaf(id leaf.ID) Accept { return Accept{HasLeaf: true, LeafID: id} }

// State is one node of the recognition graph.
type State struct {
	ID   StateID
	Kind Kind

	// ForkKind
	Transitions []Transition
	Miss        Accept
	// Early is true if, once this Fork is reached, no further byte read
	// can change the outcome: every transition leads to a state that
	// itself accepts Miss.LeafID, so codegen may return immediately
	// instead of attempting to extend the match (spec §4.3 "early leaf").
	// Only meaningful when Miss.HasLeaf is true.
	Early bool

	// RopeKind
	Bytes []byte
	Then  StateID

	// LeafKind
	LeafID leaf.ID
}

// IsAccepting reports whether reaching this state (without reading
// further) yields a leaf, and if so, which one.
func (s *State) IsAccepting() (leaf.ID, bool) {
	switch s.Kind {
	case LeafKind:
		return s.LeafID, true
	case ForkKind:
		if s.Miss.HasLeaf {
			return s.Miss.LeafID, true
		}
	}
	return 0, false
}

// String renders a state for diagnostics (package diag).
func (s *State) String() string {
	switch s.Kind {
	case LeafKind:
		return fmt.Sprintf("state#%d = Leaf(leaf#%d)", s.ID, s.LeafID)
	case RopeKind:
		return fmt.Sprintf("state#%d = Rope(%q -> state#%d)", s.ID, s.Bytes, s.Then)
	default:
		miss := "error"
		if s.Miss.HasLeaf {
			miss = fmt.Sprintf("leaf#%d", s.Miss.LeafID)
		}
		early := ""
		if s.Early {
			early = " early"
		}
		return fmt.Sprintf("state#%d = Fork(%d transitions, miss=%s%s)", s.ID, len(s.Transitions), miss, early)
	}
}
