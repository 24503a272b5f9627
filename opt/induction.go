package opt

import "github.com/unrollir/loopunroll/ir"

// Unrollability is the IV analyzer's verdict, a bitmask matching
// loop_unrolling.c's duff_unrollability enum.
type Unrollability uint8

const (
	None Unrollability = 0
	LoopFixup Unrollability = 1 << iota
	SwitchFixup
	All = LoopFixup | SwitchFixup
)

// LinearUnrollInfo is the classified loop, spec.md §3's
// LinearUnrollInfo. Op is one of ir.OpAdd, ir.OpSub, ir.OpMul.
type LinearUnrollInfo struct {
	Loop   *ir.Loop
	Header *ir.Block
	Cmp    *ir.Value
	Rel    ir.Relation
	Phi    *ir.Value
	Incr   *ir.Value // the step node (binop)
	Base   *ir.Value // the step's loop-invariant operand
	Bound  *ir.Value // the cmp's other operand
	Op     ir.Op
}

type aliasCandidate struct {
	addr *ir.Value
	size int64
}

// AnalyzeLoop implements spec.md §4.2: walks the header's candidate Cmp
// and decides whether loop has exactly one linear induction phi with a
// recognizable ADD/SUB/MUL step, a valid loop-invariant bound, and no
// aliasing store that may clobber dependencies of the step.
func AnalyzeLoop(f *ir.Func, loop *ir.Loop) (Unrollability, *LinearUnrollInfo) {
	var memberCount int
	loop.WalkBlocks(func(*ir.Block) { memberCount++ })
	if memberCount < 2 {
		return None, nil
	}

	header := FindHeader(f, loop)
	if header == nil {
		return None, nil
	}
	if f.LoopOf(header) != loop {
		return None, nil
	}

	inLoopPreds := 0
	for _, e := range header.Preds {
		if f.BlockInLoop(e.Block(), loop) {
			inLoopPreds++
		}
	}
	if inLoopPreds != 1 {
		return None, nil
	}

	if countLoopExits(f, loop) != 1 {
		return None, nil
	}

	if header.Cond == nil || len(header.Cond.Args) == 0 {
		return None, nil
	}
	cmp := header.Cond.Args[0]
	if !cmp.IsCmp() || len(cmp.Args) != 2 {
		return None, nil
	}
	switch cmp.Rel {
	case ir.Less, ir.LessEqual, ir.Greater, ir.GreaterEqual:
	default:
		return None, nil
	}

	left, right := cmp.Args[0], cmp.Args[1]
	var phi, bound *ir.Value
	switch {
	case isHeaderPhi(left, header):
		phi, bound = left, right
	case isHeaderPhi(right, header):
		phi, bound = right, left
	default:
		return None, nil
	}

	if len(phi.Args) < 2 {
		return None, nil
	}

	candidates := gatherAliasCandidates(loop)
	if !validBase(bound, loop, f, candidates, map[*ir.Value]bool{}) {
		return None, nil
	}

	stepCount, inLoopCount := 0, 0
	var incr, base *ir.Value
	var op ir.Op
	for _, arg := range phi.Args {
		if f.BlockInLoop(arg.Block(), loop) {
			inLoopCount++
		}
		if sop, isBin := stepOp(arg); isBin {
			b, ok := isValidIncr(arg, phi, loop, f, candidates)
			if ok {
				stepCount++
				incr, base, op = arg, b, sop
			}
		}
	}
	if stepCount != 1 || inLoopCount > 1 {
		return None, nil
	}

	info := &LinearUnrollInfo{
		Loop: loop, Header: header, Cmp: cmp, Rel: cmp.Rel,
		Phi: phi, Incr: incr, Base: base, Bound: bound, Op: op,
	}

	result := All
	if op == ir.OpMul {
		result &^= SwitchFixup
	}
	if !phi.Type.IsInteger() {
		result &^= SwitchFixup
	}
	return result, info
}

// countLoopExits counts the distinct blocks outside loop that receive a
// control edge from a block inside it. A well-formed candidate has
// exactly one such edge (spec.md §4.2 "loop has more than one exit").
func countLoopExits(f *ir.Func, loop *ir.Loop) int {
	exits := map[*ir.Block]bool{}
	loop.WalkBlocks(func(b *ir.Block) {
		for _, e := range b.Succs {
			t := e.Block()
			if !f.BlockInLoop(t, loop) {
				exits[t] = true
			}
		}
	})
	if len(exits) == 0 {
		return 0
	}
	return len(exits)
}

func isHeaderPhi(v *ir.Value, header *ir.Block) bool {
	return v.IsPhi() && v.Block() == header
}

func stepOp(v *ir.Value) (ir.Op, bool) {
	switch v.Op {
	case ir.OpAdd, ir.OpSub, ir.OpMul:
		return v.Op, true
	}
	return ir.OpInvalid, false
}

// skipTrivialPhis follows a chain of single-input Phis to their
// ultimate source, the LCSSA artifact spec.md §9 calls out
// ("skip_trivial_phis ... necessary because LCSSA inserts such phis").
func skipTrivialPhis(v *ir.Value) *ir.Value {
	seen := map[*ir.Value]bool{}
	for v.IsPhi() && len(v.Args) == 1 && !seen[v] {
		seen[v] = true
		v = v.Args[0]
	}
	return v
}

// reachesPhi reports whether v is (after skipping trivial phis) the
// induction phi itself, or reaches it through a cycle of phis — ported
// from phi_cycle_dfs/check_cycle_and_find_exit.
func reachesPhi(v, phi *ir.Value, visited map[*ir.Value]bool) bool {
	v = skipTrivialPhis(v)
	if v == phi {
		return true
	}
	if visited[v] {
		return false
	}
	visited[v] = true
	if !v.IsPhi() {
		return false
	}
	for _, a := range v.Args {
		if reachesPhi(a, phi, visited) {
			return true
		}
	}
	return false
}

// isValidIncr checks whether step is a binary ADD/SUB/MUL whose
// operands are (after skipping trivial phis / cycles) the induction phi
// and a valid-base operand, returning that base operand. For SUB the
// phi must be the left operand (a - c, never c - a); for MUL the base
// must additionally be a constant (spec.md §4.2).
func isValidIncr(step, phi *ir.Value, loop *ir.Loop, f *ir.Func, candidates []aliasCandidate) (*ir.Value, bool) {
	op, ok := stepOp(step)
	if !ok || len(step.Args) != 2 {
		return nil, false
	}
	a, b := step.Args[0], step.Args[1]

	tryBase := func(base *ir.Value) (*ir.Value, bool) {
		if op == ir.OpMul && !base.IsConst() {
			return nil, false
		}
		if !validBase(base, loop, f, candidates, map[*ir.Value]bool{}) {
			return nil, false
		}
		return base, true
	}

	if reachesPhi(a, phi, map[*ir.Value]bool{}) {
		return tryBase(b)
	}
	if op != ir.OpSub && reachesPhi(b, phi, map[*ir.Value]bool{}) {
		return tryBase(a)
	}
	return nil, false
}

// validBase implements spec.md §4.2's "valid base" predicate, applying
// the "at most one phi predecessor inside the loop" rule uniformly at
// every recursive Phi site (Open Question #3, see DESIGN.md) rather than
// only at the induction phi's own top-level check.
func validBase(v *ir.Value, loop *ir.Loop, f *ir.Func, candidates []aliasCandidate, visited map[*ir.Value]bool) bool {
	if visited[v] {
		return false
	}
	visited[v] = true

	if v.IsConst() {
		return true
	}
	if loop != nil && !f.BlockInLoop(v.Block(), loop) {
		return true
	}

	switch v.Op {
	case ir.OpLoad:
		if !v.Pure {
			return false
		}
		return !isAliased(v, candidates)
	case ir.OpCall:
		if !v.Pure {
			return false
		}
		for _, a := range v.Args {
			if !validBase(a, loop, f, candidates, visited) {
				return false
			}
		}
		return !isAliased(v, candidates)
	case ir.OpPhi:
		inLoop := 0
		for _, a := range v.Args {
			if f.BlockInLoop(a.Block(), loop) {
				inLoop++
			}
			if !validBase(a, loop, f, candidates, visited) {
				return false
			}
		}
		return inLoop <= 1
	case ir.OpConv:
		if len(v.Args) != 1 {
			return false
		}
		return validBase(v.Args[0], loop, f, candidates, visited)
	default:
		return false
	}
}

// gatherAliasCandidates collects every Store's (address, size) and every
// non-pure Call's address inside loop, recursively into inner loops
// (ported from get_all_stores/check_for_store). Calls into unknown
// callees are conservatively treated as potentially aliasing anything
// they touch, since this module has no interprocedural call graph to
// walk (loop_unrolling.c's walk_call_for_aliases equivalent).
func gatherAliasCandidates(loop *ir.Loop) []aliasCandidate {
	var out []aliasCandidate
	loop.WalkBlocks(func(b *ir.Block) {
		for _, v := range b.Values {
			switch {
			case v.IsStore():
				out = append(out, aliasCandidate{addr: v.Addr, size: v.Size})
			case v.IsCall() && !v.Pure:
				out = append(out, aliasCandidate{addr: v.Addr, size: v.Size})
			}
		}
	})
	return out
}

func isAliased(v *ir.Value, candidates []aliasCandidate) bool {
	if v.Addr == nil {
		return len(candidates) > 0
	}
	for _, c := range candidates {
		if ir.Alias(v.Addr, v.Size, c.addr, c.size) == ir.MayAlias {
			return true
		}
	}
	return false
}
