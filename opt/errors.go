package opt

import (
	"fmt"

	"github.com/unrollir/loopunroll/ir"
)

// RejectionKind is spec.md §7's recoverable-failure taxonomy. Every
// kind means "skip the loop, no graph mutation."
type RejectionKind int8

const (
	// ShapeRejected: header not unique, multiple exits, step not
	// recognized, base not pure, bound not invariant.
	ShapeRejected RejectionKind = iota
	// SizeRejected: loop exceeds the size budget.
	SizeRejected
	// CountRejected: static iteration count is zero/negative or no
	// useful factor found.
	CountRejected
	// ModeRejected: integer constraints for switch-fixup not met
	// (falls back to loop-fixup or skip).
	ModeRejected
)

func (k RejectionKind) String() string {
	switch k {
	case ShapeRejected:
		return "ShapeRejected"
	case SizeRejected:
		return "SizeRejected"
	case CountRejected:
		return "CountRejected"
	case ModeRejected:
		return "ModeRejected"
	default:
		return "UnknownRejection"
	}
}

// Rejection is returned for every recoverable classification in
// spec.md §7; the caller skips the loop and moves on. It is never
// returned once a transformation step has begun mutating the graph —
// at that point spec.md §4.10 treats failure as a bug (see
// Func.Fatalf / panic call sites in opt's later-stage files).
type Rejection struct {
	Kind    RejectionKind
	Loop    *ir.Loop
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}
