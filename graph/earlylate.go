package graph

import "github.com/maciejhirsz/logos/leaf"

// markEarlyLeaves runs the early-accept pass (spec §4.3 "early vs late
// leaf"): a Fork state that already accepts a leaf as its miss action is
// marked Early when the entire subgraph reachable through its outgoing
// transitions is acyclic and every state in it accepts that exact same
// leaf. Once a scan reaches an Early state, codegen may stop immediately —
// no further byte read can ever resolve to a different leaf, and the
// acyclic requirement rules out the one case where a different *length* of
// the same leaf's match remains reachable: a loop.
//
// Grounded on logos-codegen/src/graph/mod.rs's early-accept-state loop,
// which computes this as "all children share one accept leaf". A one-hop
// version of that check (checking only each direct transition target, not
// the full transitive closure) is unsound: it also passes for a state that
// is its own loop head, the shape graph.build's mir.Repeat case produces
// for every unbounded repeat (unionInto overwrites the loop head in place,
// so the state's only transition target is itself). Once that state's Miss
// is set, it trivially "agrees with itself" one hop away and would be
// marked early — but the self-loop is exactly the proof that a strictly
// longer match through the same leaf is still reachable, which is the
// opposite of what Early is supposed to certify. Walking the full
// transition closure and failing on any state revisited while still on the
// current path (a back-edge, not merely shared/interned structure reached
// by two different branches) rejects that case along with any other cycle,
// direct or indirect.
func markEarlyLeaves(g *Graph) {
	for i := range g.states {
		s := &g.states[i]
		if s.Kind != ForkKind || !s.Miss.HasLeaf || len(s.Transitions) == 0 {
			continue
		}
		visiting := map[StateID]bool{s.ID: true}
		s.Early = allTransitionsAgree(g, s, s.Miss.LeafID, visiting)
	}
}

// allTransitionsAgree reports whether every state reached by one of s's
// outgoing transitions — transitively — accepts exactly wantLeaf, with no
// cycle anywhere in the reachable subgraph.
func allTransitionsAgree(g *Graph, s *State, wantLeaf leaf.ID, visiting map[StateID]bool) bool {
	for _, t := range s.Transitions {
		if !stateAgrees(g, t.Target, wantLeaf, visiting) {
			return false
		}
	}
	return true
}

// stateAgrees reports whether id, and everything reachable from it, only
// ever accepts wantLeaf. visiting holds the states on the current
// depth-first path; revisiting one of them is a cycle and always fails the
// check, regardless of what leaf it would otherwise agree on.
func stateAgrees(g *Graph, id StateID, wantLeaf leaf.ID, visiting map[StateID]bool) bool {
	if visiting[id] {
		return false
	}
	s := g.State(id)
	if leafID, accepts := s.IsAccepting(); accepts && leafID != wantLeaf {
		return false
	}

	switch s.Kind {
	case LeafKind:
		return true
	case RopeKind:
		visiting[id] = true
		defer delete(visiting, id)
		return stateAgrees(g, s.Then, wantLeaf, visiting)
	case ForkKind:
		if len(s.Transitions) == 0 {
			return true
		}
		visiting[id] = true
		defer delete(visiting, id)
		return allTransitionsAgree(g, s, wantLeaf, visiting)
	default:
		return true
	}
}
