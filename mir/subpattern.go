package mir

import (
	"regexp"
)

// subpatternRef matches `(?&name)` references. Named subpatterns are
// expanded by textual substitution before the pattern ever reaches the
// regexp/syntax parser (spec §4.1).
var subpatternRef = regexp.MustCompile(`\(\?&([A-Za-z_][A-Za-z0-9_]*)\)`)

// ExpandSubpatterns textually substitutes every `(?&name)` reference in
// pattern with `(?:<subpatterns[name]>)`, recursively, failing the build on
// an unknown name or a reference cycle.
//
// There is no teacher analogue for this (coregx-coregex's patterns have no
// named-subpattern syntax); it is built in the teacher's idiom of a small,
// explicit recursion-stack cycle check, the same shape as
// nfa.Compiler's depth/MaxRecursionDepth guard.
func ExpandSubpatterns(pattern string, subpatterns map[string]string) (string, error) {
	return expand(pattern, subpatterns, nil)
}

func expand(pattern string, subpatterns map[string]string, stack []string) (string, error) {
	var expandErr error
	expanded := subpatternRef.ReplaceAllStringFunc(pattern, func(ref string) string {
		if expandErr != nil {
			return ref
		}
		m := subpatternRef.FindStringSubmatch(ref)
		name := m[1]

		for _, seen := range stack {
			if seen == name {
				chain := append(append([]string{}, stack...), name)
				expandErr = &SubpatternError{Name: name, Chain: chain, Err: ErrSubpatternCycle}
				return ref
			}
		}

		body, ok := subpatterns[name]
		if !ok {
			expandErr = &SubpatternError{Name: name, Err: ErrUnknownSubpattern}
			return ref
		}

		sub, err := expand(body, subpatterns, append(stack, name))
		if err != nil {
			expandErr = err
			return ref
		}
		return "(?:" + sub + ")"
	})
	if expandErr != nil {
		return "", expandErr
	}
	return expanded, nil
}
