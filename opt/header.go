// Package opt implements the loop-unrolling transformation: induction
// analysis, body duplication, excess-header elimination, bound rewriting
// and Duff's-device fixup construction over an ir.Func.
package opt

import "github.com/unrollir/loopunroll/ir"

// FindHeader returns the unique block in loop that dominates every other
// member block, or nil if no such block exists.
//
// Ported from get_loop_header in loop_unrolling.c: pick any member block,
// walk up the dominator tree while the immediate dominator is still a
// loop member, and accept the fixpoint only if it dominates every block
// transitively contained in the loop (including nested loops).
func FindHeader(f *ir.Func, loop *ir.Loop) *ir.Block {
	var header *ir.Block
	for _, e := range loop.Elements() {
		if e.IsBlock() {
			header = e.Block
			break
		}
	}
	if header == nil {
		return nil
	}

	for idom := header.Idom(); idom != nil && f.BlockInLoop(idom, loop); idom = header.Idom() {
		header = idom
	}

	if !blockDominatesLoop(f, header, loop) {
		return nil
	}
	return header
}

func blockDominatesLoop(f *ir.Func, block *ir.Block, loop *ir.Loop) bool {
	for _, e := range loop.Elements() {
		if e.IsBlock() {
			if !f.Dominates(block, e.Block) {
				return false
			}
		} else if !blockDominatesLoop(f, block, e.Loop) {
			return false
		}
	}
	return true
}

// Targets classifies a header's two control-flow successors: InLoop is
// the projection whose target block is a member of the loop (or one of
// its inner loops); OutOfLoop is the projection whose target is not. A
// well-formed candidate loop has exactly one of each.
type Targets struct {
	InLoop    *ir.Value
	OutOfLoop *ir.Value
}

// InLoopOutOfLoopTargets classifies header's Cond-Proj successors,
// ported from get_false_and_true_targets. Only Proj values attached to a
// Cond whose selector is a Cmp participate; any other successor block is
// ignored. Successor index i (header.Succs[i]) corresponds to the Proj
// recorded with AuxInt == i, the convention irtest.Builder.Cond sets up.
func InLoopOutOfLoopTargets(f *ir.Func, header *ir.Block, loop *ir.Loop) Targets {
	var t Targets
	if header.Cond == nil {
		return t
	}
	cond := header.Cond
	if len(cond.Args) == 0 || !cond.Args[0].IsCmp() {
		return t
	}
	for i, e := range header.Succs {
		target := e.Block()
		var proj *ir.Value
		for _, v := range header.Values {
			if v.IsProj() && len(v.Args) > 0 && v.Args[0] == cond && int(v.AuxInt) == i {
				proj = v
				break
			}
		}
		if proj == nil {
			continue
		}
		if f.BlockInLoop(target, loop) {
			t.InLoop = proj
		} else {
			t.OutOfLoop = proj
		}
	}
	return t
}
