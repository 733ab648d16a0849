package mir

import (
	"fmt"
	"regexp/syntax"
)

// maxClassExpansion bounds how many individual runes a non-ASCII character
// class is allowed to expand into when compiled to per-rune UTF-8 byte
// alternations (see compileUnicodeClass below). Grounded directly on
// nfa.Compiler.compileUnicodeClass's identical 256-entry guard
// (coregx-coregex/nfa/compile.go), raised here because token character
// classes in a lexer ("identifier start" etc.) are commonly larger than
// what a single sub-expression needs in a general-purpose regex engine.
const maxClassExpansion = 4096

// maxRecursionDepth guards against pathological nesting, the same role
// nfa.CompilerConfig.MaxRecursionDepth plays for the teacher's compiler.
const maxRecursionDepth = 200

// LowerRegex parses pattern as a regular expression and lowers it to MIR.
//
// Grounded on nfa.Compiler.CompileRegexp (coregx-coregex/nfa/compile.go):
// parse with the standard library's regexp/syntax, then walk the resulting
// tree. Named subpatterns must already have been expanded by
// ExpandSubpatterns before this is called.
func LowerRegex(pattern string, flags Flags) (*Node, error) {
	parseFlags := syntax.Perl
	if flags.IgnoreCase {
		parseFlags |= syntax.FoldCase
	}

	re, err := syntax.Parse(pattern, parseFlags)
	if err != nil {
		return nil, &LowerError{Pattern: pattern, Err: fmt.Errorf("%w: %v", ErrUnsupportedConstruct, err)}
	}
	re = re.Simplify()

	l := &lowerer{flags: flags}
	node, err := l.lower(re)
	if err != nil {
		return nil, &LowerError{Pattern: pattern, Err: err}
	}
	if node.IsEmptyMatch() {
		return nil, &LowerError{Pattern: pattern, Err: ErrEmptyMatch}
	}
	return node, nil
}

type lowerer struct {
	flags Flags
	depth int
}

func (l *lowerer) lower(re *syntax.Regexp) (*Node, error) {
	l.depth++
	defer func() { l.depth-- }()
	if l.depth > maxRecursionDepth {
		return nil, fmt.Errorf("%w: pattern nesting too deep", ErrUnsupportedConstruct)
	}

	if re.Flags&syntax.NonGreedy != 0 {
		return nil, fmt.Errorf("%w: non-greedy repetition is not expressible under longest-match semantics", ErrUnsupportedConstruct)
	}

	switch re.Op {
	case syntax.OpEmptyMatch:
		return NewEmpty(), nil

	case syntax.OpLiteral:
		return l.lowerLiteralRunes(re.Rune, re.Flags&syntax.FoldCase != 0)

	case syntax.OpCharClass:
		return l.lowerCharClass(re.Rune)

	case syntax.OpAnyCharNotNL:
		return l.lowerCharClass([]rune{0, '\n' - 1, '\n' + 1, maxRune(l.flags.Unicode)})

	case syntax.OpAnyChar:
		return l.lowerCharClass([]rune{0, maxRune(l.flags.Unicode)})

	case syntax.OpConcat:
		children := make([]*Node, len(re.Sub))
		for i, sub := range re.Sub {
			n, err := l.lower(sub)
			if err != nil {
				return nil, err
			}
			children[i] = n
		}
		return NewConcat(children...), nil

	case syntax.OpAlternate:
		children := make([]*Node, len(re.Sub))
		for i, sub := range re.Sub {
			n, err := l.lower(sub)
			if err != nil {
				return nil, err
			}
			children[i] = n
		}
		return NewAlt(children...), nil

	case syntax.OpStar:
		if err := l.guardGreedyDot(re.Sub[0]); err != nil {
			return nil, err
		}
		sub, err := l.lower(re.Sub[0])
		if err != nil {
			return nil, err
		}
		return NewRepeat(sub, 0, Unbounded, true), nil

	case syntax.OpPlus:
		if err := l.guardGreedyDot(re.Sub[0]); err != nil {
			return nil, err
		}
		sub, err := l.lower(re.Sub[0])
		if err != nil {
			return nil, err
		}
		return NewRepeat(sub, 1, Unbounded, true), nil

	case syntax.OpQuest:
		sub, err := l.lower(re.Sub[0])
		if err != nil {
			return nil, err
		}
		return NewRepeat(sub, 0, 1, true), nil

	case syntax.OpRepeat:
		max := re.Max
		if max < 0 {
			max = Unbounded
			if err := l.guardGreedyDot(re.Sub[0]); err != nil {
				return nil, err
			}
		}
		sub, err := l.lower(re.Sub[0])
		if err != nil {
			return nil, err
		}
		return NewRepeat(sub, re.Min, max, true), nil

	case syntax.OpCapture:
		// Capturing groups are silently demoted to non-capturing (spec §4.1).
		return l.lower(re.Sub[0])

	case syntax.OpBeginLine, syntax.OpBeginText:
		// Every pattern is implicitly anchored at the start already
		// (spec §4.1): a leading ^ is a redundant no-op.
		return NewEmpty(), nil

	case syntax.OpEndLine, syntax.OpEndText:
		return nil, fmt.Errorf("%w: end-of-input anchor requires DFA extensions the merged graph does not support", ErrUnsupportedConstruct)

	case syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return nil, fmt.Errorf("%w: word boundary is not expressible as range transitions", ErrUnsupportedConstruct)

	default:
		return nil, fmt.Errorf("%w: regex operation %v", ErrUnsupportedConstruct, re.Op)
	}
}

// guardGreedyDot implements spec §4.4's "greedy dot guard": an unbounded
// repetition whose body matches any single code point re-scans from every
// position on a miss, an O(n²) cost the spec requires an explicit opt-in
// for. sub is the repetition's body, still in regexp/syntax form (checked
// before lowering, since MIR's ByteRange has already lost the distinction
// between "any code point" and "a coincidentally full-width class").
func (l *lowerer) guardGreedyDot(sub *syntax.Regexp) error {
	if l.flags.AllowGreedyDot {
		return nil
	}
	if !isAnyChar(sub) {
		return nil
	}
	return fmt.Errorf("%w: unbounded greedy repetition over \"any\" can force an O(n^2) re-scan; set AllowGreedyDot to opt in", ErrUnboundedGreedyDot)
}

func isAnyChar(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpAnyChar:
		return true
	case syntax.OpAnyCharNotNL:
		return true
	case syntax.OpCharClass:
		return len(re.Rune) == 2 && re.Rune[0] == 0 && re.Rune[1] >= 0x10FFFF
	default:
		return false
	}
}

func (l *lowerer) lowerLiteralRunes(runes []rune, fold bool) (*Node, error) {
	children := make([]*Node, 0, len(runes))
	for _, r := range runes {
		if r > 0x7F && !l.flags.Unicode {
			return nil, fmt.Errorf("%w: pattern matches non-ASCII code points without unicode mode enabled", ErrUnsupportedConstruct)
		}
		n, err := lowerLiteralRune(r, Flags{IgnoreCase: fold, Unicode: l.flags.Unicode})
		if err != nil {
			return nil, err
		}
		children = append(children, n)
	}
	return NewConcat(children...), nil
}

// lowerCharClass lowers a regexp/syntax rune-range list (pairs of
// lo,hi inclusive rune bounds) into MIR.
//
// ASCII-only ranges become a flat Alt of ByteRange nodes (cheap, one state
// per contiguous run). Ranges that include bytes above 0x7F are expanded
// per rune into UTF-8 byte-sequence alternatives, the same pragmatic
// approach nfa.Compiler.compileUnicodeClass takes rather than compiling a
// true UTF-8 byte-range trie (out of scope: the spec's graph model does not
// require a minimal Unicode class compiler, only a correct one).
func (l *lowerer) lowerCharClass(ranges []rune) (*Node, error) {
	if len(ranges) == 0 {
		return NewEmpty(), nil
	}

	allASCII := true
	for i := 0; i < len(ranges); i += 2 {
		if ranges[i+1] > 0x7F {
			allASCII = false
			break
		}
	}

	if allASCII {
		alts := make([]*Node, 0, len(ranges)/2)
		for i := 0; i < len(ranges); i += 2 {
			alts = append(alts, NewByteRange(byte(ranges[i]), byte(ranges[i+1])))
		}
		return NewAlt(alts...), nil
	}

	if !l.flags.Unicode {
		return nil, fmt.Errorf("%w: pattern matches non-ASCII code points without unicode mode enabled", ErrUnsupportedConstruct)
	}

	count := 0
	alts := make([]*Node, 0, 64)
	for i := 0; i < len(ranges); i += 2 {
		lo, hi := ranges[i], ranges[i+1]
		for r := lo; r <= hi; r++ {
			count++
			if count > maxClassExpansion {
				return nil, fmt.Errorf("%w: character class too large (>%d code points)", ErrUnsupportedConstruct, maxClassExpansion)
			}
			n, err := runeLiteral(r)
			if err != nil {
				return nil, err
			}
			alts = append(alts, n)
		}
	}
	return NewAlt(alts...), nil
}

func maxRune(unicodeMode bool) rune {
	if unicodeMode {
		return 0x10FFFF
	}
	return 0x7F
}
