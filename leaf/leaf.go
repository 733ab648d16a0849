// Package leaf defines the terminal nodes of the recognition graph: one
// Leaf per token variant, carrying its priority, callback shape, and
// diagnostic source span (spec §3 "Leaf").
//
// CallbackShape is a tagged enum, not an interface, in the same spirit as
// nfa.StateKind (coregx-coregex/nfa/nfa.go): codegen selects the adapter
// for each shape with a plain switch, so "no open polymorphism is
// required" (spec §9 design notes).
package leaf

import "fmt"

// ID uniquely identifies a Leaf within one built graph.
type ID uint32

// CallbackShape enumerates how a token's user callback communicates its
// result back to the generated lexer loop. This is the exhaustive list
// from spec §3's data model.
type CallbackShape uint8

const (
	// None: the variant has no callback; a plain token is emitted.
	None CallbackShape = iota
	// Unit: the callback runs for its side effect and returns nothing.
	Unit
	// Bool: the callback returns true to emit the token, false to reject
	// the match as if it had not happened (the lexer reports an error at
	// this position instead).
	Bool
	// Value: the callback returns a value of the token's payload type T.
	Value
	// Option: the callback returns Option[T]; None rejects the match the
	// same way Bool's false does.
	Option
	// Result: the callback returns Result[T, E]; Err(e) propagates as a
	// lexer error carrying e.
	Result
	// Filter: the callback returns FilterResult[T] (Emit(T) / Skip /
	// Error(E)), combining Result and Skip in one shape.
	Filter
	// Skip: the leaf is a skip leaf with a side-effecting callback; after
	// it runs, the lexer resets token-start and re-enters the root state
	// without yielding a token.
	Skip
	// SkipResult: like Skip, but the callback can fail, propagating an
	// error instead of skipping.
	SkipResult
)

// String implements fmt.Stringer for diagnostics, in the same register as
// nfa.StateKind.String().
func (s CallbackShape) String() string {
	switch s {
	case None:
		return "None"
	case Unit:
		return "Unit"
	case Bool:
		return "Bool"
	case Value:
		return "Value"
	case Option:
		return "Option"
	case Result:
		return "Result"
	case Filter:
		return "Filter"
	case Skip:
		return "Skip"
	case SkipResult:
		return "SkipResult"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(s))
	}
}

// IsSkip reports whether a leaf of this shape never yields a token.
func (s CallbackShape) IsSkip() bool {
	return s == Skip || s == SkipResult
}

// CanFail reports whether the callback shape can propagate a runtime
// error independent of "no pattern matched".
func (s CallbackShape) CanFail() bool {
	return s == Result || s == Filter || s == SkipResult
}

// CanReject reports whether the callback shape can decline to emit the
// token despite the pattern having matched (Bool(false), Option(None),
// Filter(Skip)).
func (s CallbackShape) CanReject() bool {
	return s == Bool || s == Option || s == Filter
}

// SourceSpan locates a pattern's declaration for diagnostics, mirroring
// the span info package diag renders alongside leaves and states.
type SourceSpan struct {
	File string
	Line int
}

// Leaf is one terminal of the recognition graph.
type Leaf struct {
	ID ID

	// Priority is the disambiguation value: higher wins (spec §4.2).
	Priority int
	// ExplicitPriority records whether Priority was supplied by the user
	// (true) or derived structurally from the MIR (false); needed to
	// distinguish ErrAmbiguousPriority from ErrDuplicateExplicitPriority
	// during merge (see package graph).
	ExplicitPriority bool

	CallbackShape CallbackShape

	// IgnoreCase and sourced from the pattern descriptor; carried through
	// for diagnostics even though it has already been baked into the MIR
	// by the time the leaf reaches the graph builder.
	IgnoreCase bool

	Span SourceSpan
}

// String renders a leaf for diagnostics and error messages.
func (l *Leaf) String() string {
	return fmt.Sprintf("leaf#%d(priority=%d%s, shape=%s)", l.ID, l.Priority, explicitSuffix(l.ExplicitPriority), l.CallbackShape)
}

func explicitSuffix(explicit bool) string {
	if explicit {
		return "!"
	}
	return ""
}
