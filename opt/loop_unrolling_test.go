package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unrollir/loopunroll/internal/config"
	"github.com/unrollir/loopunroll/ir"
)

func TestUnrollLoopsClassicStaticFactor(t *testing.T) {
	b := buildCountingLoop(t)
	f := b.Func()
	cfg := config.Defaults()
	cfg.EnableClassicFactorSearch = true

	UnrollLoops(f, cfg)

	// The header's bound got rewritten away from the original constant.
	require.Equal(t, ir.OpSub, b.V("cmp").Args[1].Op)

	// Every excess header clone's Phi was exchanged away: nothing still
	// references it (pruning doesn't delete the orphaned Phi value, only
	// collapses its uses, so the check is on use-count, not presence).
	for _, blk := range f.Blocks {
		if blk == b.B("header") || blk.Kind != ir.BlockIf {
			continue
		}
		for _, v := range blk.Values {
			if v.IsPhi() {
				assert.Empty(t, v.Uses(), "excess header phi in block %v should have no remaining uses", blk)
			}
		}
	}
}

func TestUnrollLoopsDuffPreambleForSymbolicBound(t *testing.T) {
	b := buildSymbolicBoundLoop(t)
	f := b.Func()
	cfg := config.Defaults()

	before := len(f.Blocks)
	UnrollLoops(f, cfg)
	after := len(f.Blocks)

	assert.Greater(t, after, before, "duff unrolling should add compare and tail-copy blocks")

	// preheader no longer branches straight to header.
	for _, e := range b.B("preheader").Succs {
		assert.NotSame(t, b.B("header"), e.Block())
	}
}

func TestUnrollLoopsSkipsLoopWithMultipleExits(t *testing.T) {
	b := buildCountingLoop(t)
	f := b.Func()

	// Give body a second, distinct out-of-loop successor in addition to
	// its existing backedge to header, which AnalyzeLoop rejects.
	b.Block("sideExit", ir.BlockPlain)
	body := b.B("body")
	body.Kind = ir.BlockIf
	cond := f.NewValue(body, ir.OpCond, ir.TypeCtrl, b.V("cmp"))
	body.Cond = cond
	tproj := f.NewValue(body, ir.OpProj, ir.TypeCtrl, cond)
	tproj.AuxInt = 0
	fproj := f.NewValue(body, ir.OpProj, ir.TypeCtrl, cond)
	fproj.AuxInt = 1
	ir.AddEdge(body, b.B("sideExit"))

	cfg := config.Defaults()
	cfg.EnableClassicFactorSearch = true
	before := len(f.Blocks)

	UnrollLoops(f, cfg)

	assert.Equal(t, before, len(f.Blocks), "a loop with more than one exit must be left untouched")
}

func TestUnrollLoopsSkipsOversizedLoop(t *testing.T) {
	b := buildCountingLoop(t)
	f := b.Func()
	cfg := config.Defaults()
	cfg.EnableClassicFactorSearch = true
	cfg.MaxSize = 0

	before := len(f.Blocks)
	UnrollLoops(f, cfg)
	assert.Equal(t, before, len(f.Blocks))
}

func TestOutOfLoopPredRejectsMultiplePreheaders(t *testing.T) {
	b := buildCountingLoop(t)
	f := b.Func()
	loops := f.Loopnest().Loops()
	require.Len(t, loops, 1)

	b.Block("otherEntry", ir.BlockPlain)
	ir.AddEdge(b.B("otherEntry"), b.B("header"))

	assert.Nil(t, outOfLoopPred(b.B("header"), loops[0]))
}
