package opt

import "github.com/unrollir/loopunroll/ir"

// DuplicationResult carries out of RewireLoop everything the excess-header
// eliminator needs: every cloned block, and specifically the cloned
// header of each round (spec.md §4.4 step 5, "Track the cloned header
// (unrolled_headers) and every cloned block (unrolled_nodes)").
type DuplicationResult struct {
	ClonedBlocks  []*ir.Block
	ClonedHeaders []*ir.Block
}

// RewireLoop is spec.md §4.4's Body Duplicator: given loop, header, and
// a factor k, clones the loop's blocks and non-block nodes k-1 extra
// times using the link-slot convention, chains the i-th copy's control
// flow into the (i+1)-th, and keeps every header Phi's backedge argument
// tracking the freshest copy's loop-carried value.
//
// Ported from rewire_loop/duplicate_block/rewire_node/duplicate_node.
// Assumes f is already in LCSSA form (ir.Func.AssureLCSSA), so every use
// of a loop value from outside the loop is a Phi in an exit block or an
// End keep-alive — RewireLoop does not need to chase arbitrary external
// uses, only those two shapes.
//
// Callers must have reserved the link-slot (f.ReserveLinks) before
// calling and release it after; the whole unroll owns the link-slot for
// its duration, not each individual duplication round (spec.md §5).
func RewireLoop(f *ir.Func, loop *ir.Loop, header *ir.Block, factor uint) DuplicationResult {
	var result DuplicationResult
	if factor < 2 {
		return result
	}

	members := loop.Blocks()
	originalTail := inLoopPred(f, header, loop)
	if originalTail == nil {
		return result
	}
	tailIndex := indexOfPred(header, originalTail)
	if tailIndex < 0 {
		return result
	}

	// backedgeOriginal[phi] is the fixed, never-changing member value
	// that flows into header's phi on the backedge (e.g. the step
	// node); its Link() is refreshed every round since it belongs to
	// `members`. carried[phi] is whichever copy of that value the
	// *current* tail block actually produces, advanced once per round.
	backedgeOriginal := map[*ir.Value]*ir.Value{}
	carried := map[*ir.Value]*ir.Value{}
	for _, phi := range header.Values {
		if phi.IsPhi() {
			v := phi.Args[tailIndex]
			backedgeOriginal[phi] = v
			carried[phi] = v
		}
	}

	currentTail := originalTail
	for round := uint(0); round < factor-1; round++ {
		f.ClearLinks()

		for _, b := range members {
			nb := f.NewBlock(b.Kind)
			b.SetLink(nb)
			nb.SetLink(b)
			result.ClonedBlocks = append(result.ClonedBlocks, nb)
		}
		for _, b := range members {
			nb := b.Link()
			for _, v := range append([]*ir.Value(nil), b.Values...) {
				duplicateValue(f, v, nb)
			}
		}

		newHeader := header.Link()
		newTail := originalTail.Link()
		result.ClonedHeaders = append(result.ClonedHeaders, newHeader)

		for _, b := range members {
			if b != header {
				rewirePlainBlock(b)
			}
		}
		rewireHeaderSplice(header, newHeader, currentTail, newTail, backedgeOriginal, carried)

		for _, b := range members {
			for _, v := range b.Values {
				rewireValueInputs(v)
				if b != header {
					rewireExternalUses(f, v)
				}
			}
		}

		currentTail = newTail
	}

	return result
}

// inLoopPred returns header's unique predecessor block that lies inside
// loop — the block the back-edge runs from, and the splice point each
// round's clone is threaded through.
func inLoopPred(f *ir.Func, header *ir.Block, loop *ir.Loop) *ir.Block {
	member := map[*ir.Block]bool{}
	loop.WalkBlocks(func(b *ir.Block) { member[b] = true })
	for _, e := range header.Preds {
		if member[e.Block()] {
			return e.Block()
		}
	}
	return nil
}

func indexOfPred(b, pred *ir.Block) int {
	for i, e := range b.Preds {
		if e.Block() == pred {
			return i
		}
	}
	return -1
}

// duplicateValue clones v into newBlock, wiring the original<->clone
// link-slot pair (overwriting any link left from an earlier round).
// Phi values are cloned with no arguments: their count must track their
// owning block's predecessor count exactly, and newBlock starts with
// none — rewirePlainBlock/rewireHeaderSplice add them one at a time as
// the matching predecessor edge is created. Ported from duplicate_node.
func duplicateValue(f *ir.Func, v *ir.Value, newBlock *ir.Block) *ir.Value {
	nv := f.Duplicate(v)
	if !v.IsPhi() {
		nv.SetArgs(append([]*ir.Value(nil), v.Args...))
	}
	nv.SetBlock(newBlock)
	v.SetLink(nv)
	nv.SetLink(v)
	if v.Block().Cond == v {
		newBlock.Cond = nv
	}
	return nv
}

// rewirePlainBlock reconnects a non-header cloned block's predecessor
// edges: for every predecessor of the original that was itself cloned
// this round, the clone's corresponding predecessor is the cloned
// predecessor (an intra-copy edge), and matching Phi arguments follow
// the same predecessor. Ported from the body of rewire_block applied to
// a non-header block.
func rewirePlainBlock(b *ir.Block) {
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

// appendPhiArgForPred gives a just-cloned Phi the argument that
// corresponds to its original's i-th predecessor, following the link if
// that argument was itself cloned this round.
func appendPhiArgForPred(clonedPhi *ir.Value, predIndex int) {
	origPhi := clonedPhi.Link()
	if origPhi == nil {
		return
	}
	arg := origPhi.Args[predIndex]
	if linked := arg.Link(); linked != nil {
		clonedPhi.AddArg(linked)
	} else {
		clonedPhi.AddArg(arg)
	}
}

// rewireHeaderSplice implements spec.md §4.4 step 3: header keeps its
// out-of-loop predecessor untouched. Its in-loop predecessor edge
// (currently sourced from currentTail) is detached and replaced with
// one more link in the chain: currentTail now feeds newHeader, and
// header's new in-loop predecessor becomes newTail, the clone produced
// this round.
//
// Every header Phi's backedge argument is carried forward explicitly:
// newHeader's cloned Phi receives the value currentTail actually
// produces (carried[phi], not yet advanced), and header's own Phi is
// updated in place to the freshest copy of the original backedge value
// (backedgeOriginal[phi].Link()) — header's Phi is never re-identified,
// only its argument at the backedge slot changes, so every outside
// consumer of it (an LCSSA exit Phi, say) observes the right value
// without itself needing to change. Ported from the `node == header`
// branch of rewire_node.
func rewireHeaderSplice(header, newHeader, currentTail, newTail *ir.Block, backedgeOriginal, carried map[*ir.Value]*ir.Value) {
	detachEdge(currentTail, header)

	for _, phi := range header.Values {
		if !phi.IsPhi() {
			continue
		}
		if newPhi := phi.Link(); newPhi != nil {
			newPhi.AddArg(carried[phi])
		}
	}

	ir.AddEdge(currentTail, newHeader)
	ir.AddEdge(newTail, header)

	tailIndex := indexOfPred(header, newTail)
	if tailIndex < 0 {
		return
	}
	for _, phi := range header.Values {
		if !phi.IsPhi() {
			continue
		}
		orig := backedgeOriginal[phi]
		if linked := orig.Link(); linked != nil {
			carried[phi] = linked
			phi.SetArg(tailIndex, linked)
		}
	}
}

// rewireValueInputs points a cloned value's data/control inputs at
// whichever operand was itself cloned this round, leaving
// loop-invariant operands shared (spec.md §4.4 step 2). Phi clones are
// skipped: their arguments are added already resolved, one per
// predecessor edge, by appendPhiArgForPred and rewireHeaderSplice.
func rewireValueInputs(v *ir.Value) {
	nv := v.Link()
	if nv == nil || nv.IsPhi() {
		return
	}
	for i, a := range nv.Args {
		if linked := a.Link(); linked != nil {
			nv.SetArg(i, linked)
		}
	}
}

// rewireExternalUses implements spec.md §4.4 step 4 for the two shapes
// LCSSA form guarantees can consume a loop value from outside the loop:
// an exit-block Phi or End's keep-alive set. Both cases replace the
// outside reference in place rather than appending a new one — the
// exit block's predecessor count never grows as rounds are chained, so
// each round simply re-points the existing reference at the freshest
// copy; after the last round it ends up pointing at the value the
// loop's final pass through the body actually produces.
func rewireExternalUses(f *ir.Func, v *ir.Value) {
	nv := v.Link()
	if nv == nil {
		return
	}
	for _, user := range append([]*ir.Value(nil), v.Uses()...) {
		switch {
		case user.IsEnd():
			f.RemoveKeepAlive(v)
			f.AddKeepAlive(nv)
		case user.IsPhi() && user.Link() == nil:
			for i, a := range user.Args {
				if a == v {
					user.SetArg(i, nv)
				}
			}
		}
	}
}
