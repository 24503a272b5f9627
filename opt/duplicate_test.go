package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unrollir/loopunroll/ir"
)

func TestRewireLoopDuplicatesBodyAndChainsBackedge(t *testing.T) {
	b := buildCountingLoop(t)
	f := b.Func()
	loops := f.Loopnest().Loops()
	require.Len(t, loops, 1)
	header := b.B("header")

	f.ReserveLinks()
	defer f.ReleaseLinks()

	result := RewireLoop(f, loops[0], header, 4)
	require.Len(t, result.ClonedHeaders, 3)
	// 2 members (header, body) cloned 3 extra times.
	require.Len(t, result.ClonedBlocks, 6)

	// The header's in-loop predecessor after duplication is the final
	// round's cloned body, not the original.
	var inLoopPredBlock *ir.Block
	for _, e := range header.Preds {
		if e.Block() != b.B("preheader") {
			inLoopPredBlock = e.Block()
		}
	}
	require.NotNil(t, inLoopPredBlock)
	assert.NotSame(t, b.B("body"), inLoopPredBlock)

	// Each cloned header has exactly one real predecessor (the block
	// that feeds it in the chain), so its phi carries exactly one arg:
	// the value that predecessor produces.
	for _, ch := range result.ClonedHeaders {
		var phi *ir.Value
		for _, v := range ch.Values {
			if v.IsPhi() {
				phi = v
			}
		}
		require.NotNil(t, phi)
		assert.Len(t, ch.Preds, 1)
		assert.Len(t, phi.Args, 1)
	}
}

func TestRewireLoopNoopBelowFactorTwo(t *testing.T) {
	b := buildCountingLoop(t)
	f := b.Func()
	loops := f.Loopnest().Loops()
	require.Len(t, loops, 1)

	result := RewireLoop(f, loops[0], b.B("header"), 1)
	assert.Empty(t, result.ClonedBlocks)
	assert.Empty(t, result.ClonedHeaders)
}

func TestDuplicateValuePreservesLinkSlotPairing(t *testing.T) {
	b := buildCountingLoop(t)
	f := b.Func()
	f.ReserveLinks()
	defer f.ReleaseLinks()

	nb := f.NewBlock(ir.BlockPlain)
	nv := duplicateValue(f, b.V("one"), nb)

	assert.Same(t, nv, b.V("one").Link())
	assert.Same(t, b.V("one"), nv.Link())
	assert.Same(t, nb, nv.Block())
	assert.Equal(t, b.V("one").AuxInt, nv.AuxInt)
}
