package opt

import "github.com/unrollir/loopunroll/ir"

// RemoveExcessHeaders is spec.md §4.5: after k-1 extra header copies
// exist (duplicate.go's ClonedHeaders), only the first (original) header
// remains a real control-flow header; every clone is elided so the
// duplicated bodies form one straight line that loops back to it.
//
// Ported from remove_excess_headers/prune_block/
// rewire_memory_of_excess_header.
func RemoveExcessHeaders(f *ir.Func, header *ir.Block, clonedHeaders []*ir.Block) {
	for _, h := range clonedHeaders {
		pruneExcessHeader(f, header, h)
	}
}

// pruneExcessHeader removes a single excess header clone h', splicing
// its sole successor directly onto h''s predecessors and collapsing any
// Phi it owns to its loop-variant predecessor value. Every use of such a
// Phi is exchanged for that value, including uses outside the unrolled
// region; no use or edge is dropped.
func pruneExcessHeader(f *ir.Func, header, excess *ir.Block) {
	if excess == header || len(excess.Succs) == 0 {
		return
	}

	memoryPhi := findMemoryPhi(excess)
	inLoopTarget := excess.Succs[0].Block()
	if len(excess.Succs) > 1 {
		// the first successor other than header itself is taken as the
		// continuation.
		for _, e := range excess.Succs {
			if e.Block() != header {
				inLoopTarget = e.Block()
				break
			}
		}
	}

	if memoryPhi != nil {
		rewireMemoryOfExcessHeader(memoryPhi, inLoopTarget)
	}

	for _, phi := range append([]*ir.Value(nil), excess.Values...) {
		if phi.IsPhi() {
			prunePhi(f, phi)
		}
	}

	spliceControl(excess, inLoopTarget)
}

func findMemoryPhi(b *ir.Block) *ir.Value {
	for _, v := range b.Values {
		if v.IsPhi() && v.Type.IsMemory() {
			return v
		}
	}
	return nil
}

// rewireMemoryOfExcessHeader redirects target's memory Phi to read
// directly from the excess header's memory Phi's own inputs, so the
// memory chain does not observe the removed header as an intermediate
// step. Ported from rewire_memory_of_excess_header.
func rewireMemoryOfExcessHeader(excessMemPhi *ir.Value, target *ir.Block) {
	targetMemPhi := findMemoryPhi(target)
	if targetMemPhi == nil || len(excessMemPhi.Args) == 0 {
		return
	}
	loopVariant := excessMemPhi.Args[len(excessMemPhi.Args)-1]
	for i, a := range targetMemPhi.Args {
		if a == excessMemPhi {
			targetMemPhi.SetArg(i, loopVariant)
		}
	}
}

// prunePhi implements spec.md §4.5 step 2: collapse an excess header's
// Phi to its single loop-variant predecessor value and exchange all
// uses, including a keep-alive reference, for that value. Func.Exchange
// already carries the keep-alive swap, so this is a thin wrapper.
func prunePhi(f *ir.Func, phi *ir.Value) {
	if len(phi.Args) == 0 {
		return
	}
	loopVariant := phi.Args[len(phi.Args)-1]
	f.Exchange(phi, loopVariant)
}

// spliceControl implements spec.md §4.5 step 3: redirect every
// predecessor of excess to target directly, removing excess from the
// graph's control flow.
func spliceControl(excess, target *ir.Block) {
	for _, e := range append([]ir.Edge(nil), excess.Preds...) {
		pred := e.Block()
		detachEdge(pred, excess)
		ir.AddEdge(pred, target)
	}
}
