package mir

import (
	"unicode"
	"unicode/utf8"
)

// Flags carries the per-token lowering options from the pattern
// descriptor (spec §3's "flags (ignore-case, skip)" plus the Unicode-mode
// toggle exposed by `(?flags:...)` groups, spec §4.1).
type Flags struct {
	// IgnoreCase expands literal/class matches to also accept the other
	// case.
	IgnoreCase bool
	// Unicode controls whether case-folding and character classes are
	// computed over the full Unicode range (true) or ASCII only (false).
	Unicode bool
	// AllowGreedyDot opts out of the unbounded-greedy-"any"-repetition
	// guard (spec §4.4 "greedy dot guard"). Left false, a pattern like
	// `a.*b` fails the build with ErrUnboundedGreedyDot instead of
	// silently compiling into a state that re-scans on every miss.
	AllowGreedyDot bool
}

// LowerLiteral lowers a literal token's exact text into MIR: a Concat of
// exact byte matches, or — under IgnoreCase — a Concat of per-rune Alt
// nodes over the case variants (spec §4.1: "with ignore-case it expands to
// alternations over case variants").
func LowerLiteral(text string, flags Flags) (*Node, error) {
	if text == "" {
		return nil, ErrEmptyMatch
	}
	children := make([]*Node, 0, len(text))
	for _, r := range text {
		node, err := lowerLiteralRune(r, flags)
		if err != nil {
			return nil, err
		}
		children = append(children, node)
	}
	out := NewConcat(children...)
	if out.IsEmptyMatch() {
		return nil, ErrEmptyMatch
	}
	return out, nil
}

func lowerLiteralRune(r rune, flags Flags) (*Node, error) {
	if !flags.IgnoreCase {
		return runeLiteral(r)
	}

	variants := caseVariants(r, flags.Unicode)
	alts := make([]*Node, 0, len(variants))
	for _, v := range variants {
		n, err := runeLiteral(v)
		if err != nil {
			return nil, err
		}
		alts = append(alts, n)
	}
	return NewAlt(alts...), nil
}

// caseVariants returns the distinct runes case-equivalent to r. In ASCII
// mode, only the ASCII upper/lower pair is considered; in Unicode mode the
// full orbit reachable via unicode.SimpleFold is used, matching the spec's
// "ASCII and, when Unicode-mode is on, full case-fold" rule.
func caseVariants(r rune, unicodeMode bool) []rune {
	if !unicodeMode {
		if r >= 'a' && r <= 'z' {
			return []rune{r, r - ('a' - 'A')}
		}
		if r >= 'A' && r <= 'Z' {
			return []rune{r, r + ('a' - 'A')}
		}
		return []rune{r}
	}

	variants := []rune{r}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		variants = append(variants, f)
	}
	return variants
}

// runeLiteral lowers a single rune to a Concat of its UTF-8 bytes (one
// ByteRange per byte, Lo == Hi). Multi-byte runes become multi-byte
// Concats, so a rune lowered here only ever matches its well-formed UTF-8
// encoding (spec §4.1(iii)).
func runeLiteral(r rune) (*Node, error) {
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	children := make([]*Node, n)
	for i := 0; i < n; i++ {
		children[i] = NewByte(buf[i])
	}
	return NewConcat(children...), nil
}
