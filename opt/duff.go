package opt

import "github.com/unrollir/loopunroll/ir"

// CreateFixupSwitch is spec.md §4.7's Duff Switch Synthesizer: for a
// symbolic trip count with an ADD/SUB integer step, builds a preamble
// before header that computes the residual iteration count
// r = |N-I| + (|c|-1) and jumps into one of factor-1 partial-iteration
// tail copies of the loop body, falling through to the post-loop block
// when the residual is zero.
//
// Ported from create_fixup_switch/create_fixup_loop/
// duplicate_original_loop/rewire_duplicated_*. preheader is the block
// that currently branches into header from outside the loop; it is
// rewired to branch into the switch chain instead.
func CreateFixupSwitch(f *ir.Func, info *LinearUnrollInfo, preheader *ir.Block, factor uint, post *ir.Block) {
	if factor < 2 {
		return
	}

	tails := duplicateTailCopies(f, info, factor-1)

	c := copyPureIntoHeader(f, preheader, info.Base)
	absC := createAbs(f, preheader, c)
	diff := createAbsDiff(f, preheader, info.Bound, info.Phi)
	r := f.NewValue(preheader, ir.OpAdd, diff.Type, diff, offsetByOne(f, preheader, absC, -1))
	if !info.Rel.IsStrict() {
		one := f.NewValue(preheader, ir.OpConst, r.Type)
		one.AuxInt = 1
		r = f.NewValue(preheader, ir.OpAdd, r.Type, r, one)
	}

	detachEdge(preheader, info.Header) // preheader no longer jumps straight to header

	step := magnitudeOrOne(info.Base)
	from := preheader
	for i := uint(0); i < factor-1; i++ {
		cmpBlock := f.NewBlock(ir.BlockIf)
		threshold := f.NewValue(cmpBlock, ir.OpConst, r.Type)
		threshold.AuxInt = int64(factor-1-i) * step
		cmp := f.NewValue(cmpBlock, ir.OpCmp, ir.TypeCtrl, r, threshold)
		cmp.Rel = ir.GreaterEqual
		cond := f.NewValue(cmpBlock, ir.OpCond, ir.TypeCtrl, cmp)
		cmpBlock.Cond = cond

		start := tailStartIndex(f, cmpBlock, info, threshold)
		ir.AddEdge(from, cmpBlock)
		ir.AddEdge(cmpBlock, tails[i].entry)
		if phi := entryInductionPhi(tails[i].entry); phi != nil {
			phi.AddArg(start)
		}

		if i+1 < factor-1 {
			from = cmpBlock
		} else {
			ir.AddEdge(cmpBlock, info.Header)
		}
	}

	for _, t := range tails {
		stitchTailExits(f, t, post)
	}
}

// tailStartIndex computes the induction value a tail copy's entry phi
// sees when control jumps in from the compare chain: bound minus (for
// an ascending ADD step) or plus (for a descending SUB step) the
// residual threshold that guarded this tail, so the tail's own header
// test runs out exactly threshold/step iterations later at bound.
func tailStartIndex(f *ir.Func, b *ir.Block, info *LinearUnrollInfo, threshold *ir.Value) *ir.Value {
	if info.Op == ir.OpSub {
		return f.NewValue(b, ir.OpAdd, info.Bound.Type, info.Bound, threshold)
	}
	return f.NewValue(b, ir.OpSub, info.Bound.Type, info.Bound, threshold)
}

// entryInductionPhi returns the single Phi in a tail copy's entry block
// — its clone of the loop's induction variable.
func entryInductionPhi(entry *ir.Block) *ir.Value {
	for _, v := range entry.Values {
		if v.IsPhi() {
			return v
		}
	}
	return nil
}

func magnitudeOrOne(v *ir.Value) int64 {
	if v.IsConst() && v.AuxInt != 0 {
		if v.AuxInt < 0 {
			return -v.AuxInt
		}
		return v.AuxInt
	}
	return 1
}

func offsetByOne(f *ir.Func, b *ir.Block, v *ir.Value, delta int64) *ir.Value {
	k := f.NewValue(b, ir.OpConst, v.Type)
	k.AuxInt = delta
	return f.NewValue(b, ir.OpAdd, v.Type, v, k)
}

func createAbsDiff(f *ir.Func, b *ir.Block, bound, phi *ir.Value) *ir.Value {
	sub := f.NewValue(b, ir.OpSub, bound.Type, bound, phi)
	return createAbs(f, b, sub)
}

// detachEdge removes the control edge from -> target, used when a
// block's single successor is about to be replaced by new wiring.
func detachEdge(from, target *ir.Block) {
	for i := len(target.Preds) - 1; i >= 0; i-- {
		if target.Preds[i].Block() == from {
			ir.RemovePred(target, i)
			break
		}
	}
	for i := len(from.Succs) - 1; i >= 0; i-- {
		if from.Succs[i].Block() == target {
			from.Succs = append(from.Succs[:i], from.Succs[i+1:]...)
			break
		}
	}
}

// tailCopy is one of the factor-1 partial-iteration clones of the loop
// body that CreateFixupSwitch's compare chain can jump into.
type tailCopy struct {
	entry  *ir.Block
	exits  []*ir.Block
	clones map[*ir.Value]*ir.Value // original loop value -> this copy's clone
}

// duplicateTailCopies builds n independent full clones of the loop body
// (not chained to each other, unlike the classic duplicator's rounds),
// each a standalone "run the remaining iterations starting here" copy.
// Ported from duplicate_original_loop.
func duplicateTailCopies(f *ir.Func, info *LinearUnrollInfo, n uint) []tailCopy {
	loop := info.Loop
	members := loop.Blocks()
	var tails []tailCopy

	for i := uint(0); i < n; i++ {
		f.ClearLinks()
		for _, b := range members {
			nb := f.NewBlock(b.Kind)
			b.SetLink(nb)
			nb.SetLink(b)
		}
		for _, b := range members {
			nb := b.Link()
			for _, v := range append([]*ir.Value(nil), b.Values...) {
				duplicateValue(f, v, nb)
			}
		}
		for _, b := range members {
			for _, v := range b.Values {
				rewireValueInputs(v)
			}
			rewireIntraCopyEdges(b)
		}

		var exits []*ir.Block
		clones := map[*ir.Value]*ir.Value{}
		for _, b := range members {
			for _, v := range b.Values {
				clones[v] = v.Link()
			}
			for _, e := range b.Succs {
				if !loopMember(members, e.Block()) {
					exits = append(exits, b.Link())
				}
			}
		}
		tails = append(tails, tailCopy{entry: info.Header.Link(), exits: exits, clones: clones})
	}
	return tails
}

func loopMember(members []*ir.Block, b *ir.Block) bool {
	for _, m := range members {
		if m == b {
			return true
		}
	}
	return false
}

// rewireIntraCopyEdges reconnects a single standalone clone's internal
// control edges (every predecessor that was itself cloned this round
// becomes the clone's predecessor), without the classic duplicator's
// header-splice step, since tail copies are not chained into one
// another.
func rewireIntraCopyEdges(b *ir.Block) {
	nb := b.Link()
	for i, e := range b.Preds {
		pred := e.Block()
		newPred := pred.Link()
		if newPred == nil {
			continue
		}
		ir.AddEdge(newPred, nb)
		for _, phi := range nb.Values {
			if phi.IsPhi() {
				appendPhiArgForPred(phi, i)
			}
		}
	}
}

// stitchTailExits implements spec.md §4.7's final paragraph: a tail
// copy's out-of-loop successor's Phis gain the tail's definitions as a
// new argument. post's Phi already has an LCSSA-established argument
// tracing back to the original loop value (its Args[0]); that identity
// is used to find this tail's clone of the same value, falling back to
// the original when the tail never cloned it (a loop-invariant value).
func stitchTailExits(f *ir.Func, t tailCopy, post *ir.Block) {
	for _, exitBlock := range t.exits {
		for _, phi := range post.Values {
			if !phi.IsPhi() || len(phi.Args) == 0 {
				continue
			}
			orig := phi.Args[0]
			if clone, ok := t.clones[orig]; ok {
				phi.AddArg(clone)
			} else {
				phi.AddArg(orig)
			}
		}
		ir.AddEdge(exitBlock, post)
	}
}
