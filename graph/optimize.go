package graph

// compact performs two passes over the merged graph in one traversal
// (spec §4.4 "tail sharing" and "rope collapsing"):
//
//   - unreachable-state removal: only states reachable from Root are
//     copied into the result, so priority pruning and union merges that
//     left dead Fork states behind don't bloat the generated lexer;
//   - rope collapsing: a chain of single-byte, non-accepting Forks that
//     nothing else points into (e.g. the four states spelling out the
//     literal "fast") is folded into one RopeKind state carrying the
//     whole byte run, so codegen can emit one comparison instead of one
//     per byte.
//
// Grounded on nfa/alphabet.go's ByteClasses-style single forward pass
// building a new, compacted representation instead of mutating in place.
func compact(g *Graph) *Graph {
	refs := incomingRefcount(g)
	c := &compactor{old: g, memo: make(map[StateID]StateID, len(g.states)), refs: refs}
	root := c.compile(g.Root)
	return &Graph{states: c.out, Root: root, Leaves: g.Leaves}
}

type compactor struct {
	old  *Graph
	memo map[StateID]StateID
	refs map[StateID]int
	out  []State
}

func (c *compactor) alloc(s State) StateID {
	id := StateID(len(c.out))
	s.ID = id
	c.out = append(c.out, s)
	return id
}

func (c *compactor) get(id StateID) *State { return &c.out[id] }

func (c *compactor) compile(id StateID) StateID {
	if id == InvalidState {
		return InvalidState
	}
	if nid, ok := c.memo[id]; ok {
		return nid
	}
	old := c.old.State(id)
	switch old.Kind {
	case LeafKind:
		nid := c.alloc(State{Kind: LeafKind, LeafID: old.LeafID})
		c.memo[id] = nid
		return nid

	case ForkKind:
		if ropeable(old) {
			bytes := []byte{old.Transitions[0].Lo}
			cur := old.Transitions[0].Target
			for {
				next := c.old.State(cur)
				if !ropeable(next) || c.refs[cur] != 1 {
					break
				}
				bytes = append(bytes, next.Transitions[0].Lo)
				cur = next.Transitions[0].Target
			}
			if len(bytes) >= 2 {
				then := c.compile(cur)
				nid := c.alloc(State{Kind: RopeKind, Bytes: bytes, Then: then})
				c.memo[id] = nid
				return nid
			}
		}

		// Reserve the id before recursing so a back-edge (unbounded
		// repeat loop) that points back at this very state resolves to
		// the correct, stable id instead of triggering infinite
		// recursion.
		placeholder := c.alloc(State{Kind: ForkKind})
		c.memo[id] = placeholder
		transitions := make([]Transition, len(old.Transitions))
		for i, t := range old.Transitions {
			transitions[i] = Transition{Lo: t.Lo, Hi: t.Hi, Target: c.compile(t.Target)}
		}
		*c.get(placeholder) = State{
			ID:          placeholder,
			Kind:        ForkKind,
			Transitions: transitions,
			Miss:        old.Miss,
			Early:       old.Early,
		}
		return placeholder

	default:
		return InvalidState
	}
}

// ropeable reports whether a Fork is a single mandatory byte with no
// fallback accept action: the only shape that's safe to fold into a Rope.
// A Fork that accepts (Miss.HasLeaf) must stay addressable on its own,
// since a scan could stop exactly there.
func ropeable(s *State) bool {
	return s.Kind == ForkKind && len(s.Transitions) == 1 &&
		s.Transitions[0].Lo == s.Transitions[0].Hi && !s.Miss.HasLeaf
}

func incomingRefcount(g *Graph) map[StateID]int {
	refs := make(map[StateID]int, len(g.states))
	for i := range g.states {
		for _, t := range g.states[i].Transitions {
			refs[t.Target]++
		}
	}
	return refs
}
