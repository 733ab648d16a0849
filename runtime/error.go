package runtime

import "errors"

// ErrNoMatch is the one runtime error kind the spec defines: "no pattern
// matched at this position" (spec §7).
var ErrNoMatch = errors.New("runtime: no pattern matched at this position")
