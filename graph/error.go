package graph

import (
	"errors"
	"fmt"

	"github.com/maciejhirsz/logos/leaf"
)

// ErrAmbiguousPriority is returned when two leaves with equal priority
// accept at the same graph state and at least one of them has a derived
// (non-explicit) priority (spec §4.2). Grounded on
// logos-codegen/src/graph/mod.rs's DisambiguationError: priority only ever
// disambiguates leaves that accept at the *same* state (same consumed
// length) — it never overrides the plain longest-match scan.
var ErrAmbiguousPriority = errors.New("graph: ambiguous priority between leaves accepting the same input")

// ErrDuplicateExplicitPriority is returned when two leaves both carry an
// explicit, user-assigned priority and that priority collides at the same
// state. Distinguished from ErrAmbiguousPriority because the user opted
// into disambiguation and still lost: the fix is different (pick distinct
// explicit priorities) from the structural-tie case (add one).
var ErrDuplicateExplicitPriority = errors.New("graph: two explicitly-prioritized leaves collide")

// ErrEmptyGraph is returned by Build when given zero patterns.
var ErrEmptyGraph = errors.New("graph: no patterns to build")

// ErrTooManyStates is returned by Build when the merged graph exceeds
// maxStates, the same pathological-input guard role lazy.Config.MaxStates
// plays for the teacher's on-demand DFA construction.
var ErrTooManyStates = errors.New("graph: state count exceeds the build guard")

// AmbiguityError names the two leaves that collided and whether the
// collision was a duplicate explicit priority or a structural tie.
type AmbiguityError struct {
	A, B     leaf.ID
	Explicit bool
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("leaf#%d and leaf#%d accept the same input at equal priority", e.A, e.B)
}

func (e *AmbiguityError) Unwrap() error {
	if e.Explicit {
		return ErrDuplicateExplicitPriority
	}
	return ErrAmbiguousPriority
}

// BuildError collects every ambiguity found while merging patterns into one
// graph; Build returns it instead of stopping at the first collision so a
// user fixing priorities sees every conflict in one pass, mirroring how
// nfa/error.go's CompileError aggregates over a whole pattern.
type BuildError struct {
	Ambiguities []*AmbiguityError
}

func (e *BuildError) Error() string {
	if len(e.Ambiguities) == 1 {
		return e.Ambiguities[0].Error()
	}
	return fmt.Sprintf("graph: %d ambiguities found", len(e.Ambiguities))
}

func (e *BuildError) Unwrap() []error {
	errs := make([]error, len(e.Ambiguities))
	for i, a := range e.Ambiguities {
		errs[i] = a
	}
	return errs
}
