package ir

// AssureLCSSA rebuilds loop-closed SSA form for f before the unroller
// runs (spec.md §4.8's assure_lcssa(graph) call): every Value defined
// inside a loop that a non-Phi Value in a block outside that loop uses
// is rerouted through a Phi placed in the using block. When that block
// is an immediate exit of the loop this is the exit-block Phi LCSSA
// asks for; a use further from the loop gets its Phi in its own block
// all the same, not in an exit block. Uses by Phis outside the loop are
// left as they are.
//
// This is a minimal single-pass builder, not a general SSA-construction
// pass: spec.md §1 treats LCSSA construction as an external collaborator
// ("Construction of LCSSA itself (we call it)"); this function is the
// stand-in the rest of the module calls into, grounded on the same
// call site in loop_unrolling.c (`assure_lcssa(irg)`).
func (f *Func) AssureLCSSA() {
	ln := f.Loopnest()
	for _, loop := range ln.Loops() {
		fixLoopLCSSA(f, loop)
	}
}

func fixLoopLCSSA(f *Func, loop *Loop) {
	memberBlocks := map[*Block]bool{}
	loop.WalkBlocks(func(b *Block) { memberBlocks[b] = true })

	// exit-block -> (defining value -> phi)
	exitPhis := map[*Block]map[*Value]*Value{}

	for b := range memberBlocks {
		for _, v := range append([]*Value(nil), b.Values...) {
			if v.Op == OpEnd {
				continue
			}
			for _, user := range append([]*Value(nil), v.uses...) {
				ub := user.Block()
				if ub == nil || memberBlocks[ub] {
					continue
				}
				if user.IsPhi() {
					// Phi users outside the loop keep their input as it
					// is, whichever block they live in.
					continue
				}
				phiBlock := ub
				phis := exitPhis[phiBlock]
				if phis == nil {
					phis = map[*Value]*Value{}
					exitPhis[phiBlock] = phis
				}
				phi := phis[v]
				if phi == nil {
					phi = f.NewValue(phiBlock, OpPhi, v.Type)
					for range phiBlock.Preds {
						phi.AddArg(v)
					}
					phis[v] = phi
				}
				for i, a := range user.Args {
					if a == v {
						user.SetArg(i, phi)
					}
				}
			}
		}
	}
}
