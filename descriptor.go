package lexgen

import "github.com/maciejhirsz/logos/leaf"

// PatternKind selects how PatternDescriptor.Pattern is interpreted (spec
// §3 "Pattern descriptor ... kind ∈ {literal, regex}").
type PatternKind uint8

const (
	// Literal lowers Pattern as an exact byte sequence (§4.1).
	Literal PatternKind = iota
	// Regex lowers Pattern as a regular expression (§4.1).
	Regex
	// RawByteRanges lowers RawRanges directly to MIR ByteRange/Alt nodes
	// with no rune/UTF-8 encoding step, the only way a token set can
	// match a byte sequence invalid under UTF-8 (spec §4.1(iii)). Build
	// rejects this kind unless the Config's SourceKind is RawBytes.
	RawByteRanges
)

// SourceSpan locates a pattern's declaration in the host binding's own
// source, carried through for diagnostics only (spec §3 "Leaf ...
// source-span (for diagnostics)").
type SourceSpan struct {
	File string
	Line int
}

// PatternDescriptor is one token variant's declaration, as created by the
// external front-end (spec §3 "Pattern descriptor"). It is immutable once
// passed to Build.
type PatternDescriptor struct {
	Kind    PatternKind
	Pattern string

	// RawRanges is used only when Kind == RawByteRanges: a set of
	// inclusive byte ranges, alternatives of each other.
	RawRanges [][2]byte

	// Priority overrides the structurally-derived priority (spec §4.2)
	// when non-nil.
	Priority *int

	// IgnoreCase expands Literal/Regex matches to also accept the other
	// case (spec §3 "flags").
	IgnoreCase bool
	// Skip marks this leaf as a skip leaf with no callback, equivalent to
	// CallbackShape == leaf.Skip. If CallbackShape is already Skip or
	// SkipResult, Skip is redundant and ignored.
	Skip bool
	// AllowGreedyDot opts this pattern out of the greedy-dot guard (spec
	// §4.4) even when Config.AllowGreedyDot is false; it cannot re-enable
	// the guard when Config.AllowGreedyDot is true.
	AllowGreedyDot bool

	// CallbackShape declares how this token's (externally-invoked)
	// callback communicates its result (spec §3).
	CallbackShape leaf.CallbackShape

	// Subpatterns expands `(?&name)` references within Pattern before
	// parsing (spec §4.1); only meaningful for Kind == Regex.
	Subpatterns map[string]string

	Span SourceSpan
}

func (d *PatternDescriptor) effectiveShape() leaf.CallbackShape {
	if d.Skip && d.CallbackShape == leaf.None {
		return leaf.Skip
	}
	return d.CallbackShape
}
