package opt

import (
	"sort"

	"github.com/unrollir/loopunroll/internal/config"
	"github.com/unrollir/loopunroll/internal/obslog"
	"github.com/unrollir/loopunroll/ir"
)

// UnrollLoops is spec.md §4.8's driver: assure LCSSA, reserve the
// link-slot for the whole pass, then visit every loop innermost-first,
// classifying and transforming each independently.
//
// Ported from the top-level loop_unrolling(irg) entry point. Failures
// that are detected before any graph mutation begins (AnalyzeLoop,
// DetermineUnrollFactor) are recoverable: the loop is skipped and the
// next one is tried. Once RewireLoop has started mutating the graph for
// a loop, anything that goes wrong is a bug, not a rejection — spec.md
// §4.10's distinction — and the helpers below call f.Fatalf rather than
// returning an error in that regime.
func UnrollLoops(f *ir.Func, cfg config.UnrollConfig) {
	f.AssureLCSSA()
	f.ReserveLinks()
	defer f.ReleaseLinks()

	for _, loop := range innermostFirst(f.Loopnest().Loops()) {
		unrollOneLoop(f, cfg, loop)
	}
}

// innermostFirst orders loops so nested loops are always transformed
// before the loop that contains them, matching spec.md §4.8's "process
// loops innermost-first" traversal: an outer loop's size and shape can
// depend on what its inner loops look like after they've already been
// unrolled.
func innermostFirst(loops []*ir.Loop) []*ir.Loop {
	out := append([]*ir.Loop(nil), loops...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Depth() > out[j].Depth()
	})
	return out
}

// unrollOneLoop classifies loop and, if it qualifies, dispatches to the
// classic or Duff transformation path. Every return out of the
// classification stage is a skip, never a panic.
func unrollOneLoop(f *ir.Func, cfg config.UnrollConfig, loop *ir.Loop) {
	ability, info := AnalyzeLoop(f, loop)
	if ability == None {
		obslog.L().Debug().Msg("loop shape not recognized, skipping")
		return
	}

	factor, duff, rej := DetermineUnrollFactor(cfg, ability, info, cfg.MaxSize)
	if rej != nil {
		obslog.L().Debug().Str("reason", rej.Kind.String()).Msg(rej.Message)
		return
	}

	header := info.Header
	preheader := outOfLoopPred(header, loop)
	post := outOfLoopSucc(f, header, loop)
	if preheader == nil || post == nil {
		f.Fatalf("opt: loop header %v passed classification without a unique preheader/post pair", header)
	}

	if duff {
		unrollDuff(f, info, preheader, post, factor)
	} else {
		unrollClassic(f, info, factor)
	}

	mode := "classic"
	if duff {
		mode = "duff"
	}
	obslog.L().Info().
		Str("header", header.String()).
		Uint("factor", factor).
		Str("mode", mode).
		Msg("unrolled loop")
}

// unrollClassic is spec.md §4.8's classic-unroll dispatch: duplicate,
// eliminate excess headers, rewrite the bound. When the trip count is
// known exactly and equals factor, UpdateHeaderCondition's adjusted
// bound still does the right thing: the single remaining header test
// simply evaluates false the first time it runs after the unrolled
// chain, so no separate "fully unrolled" graph surgery is needed.
func unrollClassic(f *ir.Func, info *LinearUnrollInfo, factor uint) {
	dup := RewireLoop(f, info.Loop, info.Header, factor)
	if len(dup.ClonedBlocks) == 0 {
		f.Fatalf("opt: classic unroll produced no clones for header %v at factor %d", info.Header, factor)
	}
	RemoveExcessHeaders(f, info.Header, dup.ClonedHeaders)
	UpdateHeaderCondition(f, info, factor)
}

// unrollDuff is spec.md §4.8's Duff-unroll dispatch: the fixup switch is
// synthesized first (it needs the original, not-yet-duplicated loop
// shape to compute the residual count), then the main body is duplicated
// and its bound widened exactly as the classic path does.
func unrollDuff(f *ir.Func, info *LinearUnrollInfo, preheader, post *ir.Block, factor uint) {
	CreateFixupSwitch(f, info, preheader, factor, post)
	dup := RewireLoop(f, info.Loop, info.Header, factor)
	if len(dup.ClonedBlocks) == 0 {
		f.Fatalf("opt: duff unroll produced no clones for header %v at factor %d", info.Header, factor)
	}
	RemoveExcessHeaders(f, info.Header, dup.ClonedHeaders)
	UpdateHeaderCondition(f, info, factor)
}

// outOfLoopPred returns header's unique predecessor lying outside loop —
// the preheader the Duff switch is spliced into.
func outOfLoopPred(header *ir.Block, loop *ir.Loop) *ir.Block {
	var out *ir.Block
	count := 0
	for _, e := range header.Preds {
		if header.Func.BlockInLoop(e.Block(), loop) {
			continue
		}
		out = e.Block()
		count++
	}
	if count != 1 {
		return nil
	}
	return out
}

// outOfLoopSucc returns the block header branches to when leaving loop,
// using InLoopOutOfLoopTargets to identify the right Proj and mapping it
// back to its successor block.
func outOfLoopSucc(f *ir.Func, header *ir.Block, loop *ir.Loop) *ir.Block {
	targets := InLoopOutOfLoopTargets(f, header, loop)
	if targets.OutOfLoop == nil {
		return nil
	}
	for i, e := range header.Succs {
		if int(targets.OutOfLoop.AuxInt) == i {
			return e.Block()
		}
	}
	return nil
}
