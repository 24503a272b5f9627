package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unrollir/loopunroll/ir"
)

func TestUpdateHeaderConditionAddRewritesBoundStructurally(t *testing.T) {
	info := countingLoopInfo(t)
	originalBound := info.Cmp.Args[1]

	UpdateHeaderCondition(info.Header.Func, info, 4)

	newBound := info.Cmp.Args[1]
	require.NotSame(t, originalBound, newBound)
	require.Equal(t, ir.OpSub, newBound.Op)
	assert.Same(t, originalBound, newBound.Args[0])

	delta := newBound.Args[1]
	require.Equal(t, ir.OpMul, delta.Op)
	require.True(t, delta.Args[1].IsConst())
	assert.Equal(t, int64(3), delta.Args[1].AuxInt) // factor-1
	assert.Same(t, info.Header, newBound.Block())
}

func TestCopyPureIntoHeaderIsIdempotentForHeaderOwnedValues(t *testing.T) {
	info := countingLoopInfo(t)
	already := info.Header.Func.NewValue(info.Header, ir.OpConst, ir.TypeInt)
	already.AuxInt = 42

	got := copyPureIntoHeader(info.Header.Func, info.Header, already)
	assert.Same(t, already, got)
}

func TestCreateAbsFoldsConstants(t *testing.T) {
	info := countingLoopInfo(t)
	neg := info.Header.Func.NewValue(info.Header, ir.OpConst, ir.TypeInt)
	neg.AuxInt = -5

	abs := createAbs(info.Header.Func, info.Header, neg)
	require.True(t, abs.IsConst())
	assert.Equal(t, int64(5), abs.AuxInt)
}

func TestCreateRPowFoldsConstants(t *testing.T) {
	info := countingLoopInfo(t)
	two := info.Header.Func.NewValue(info.Header, ir.OpConst, ir.TypeInt)
	two.AuxInt = 2

	pow := createRPow(info.Header.Func, info.Header, two, 3)
	require.True(t, pow.IsConst())
	assert.Equal(t, int64(8), pow.AuxInt)
}

func multiplicativeLoopInfo(t *testing.T) *LinearUnrollInfo {
	t.Helper()
	b := buildMultiplicativeLoop(t)
	f := b.Func()
	loops := f.Loopnest().Loops()
	require.Len(t, loops, 1)
	_, info := AnalyzeLoop(f, loops[0])
	require.NotNil(t, info)
	require.Equal(t, ir.OpMul, info.Op)
	return info
}

func TestUpdateHeaderConditionMulRewritesBoundStructurally(t *testing.T) {
	info := multiplicativeLoopInfo(t)
	originalBound := info.Cmp.Args[1]

	UpdateHeaderCondition(info.Header.Func, info, 4)

	newBound := info.Cmp.Args[1]
	require.NotSame(t, originalBound, newBound)
	require.Equal(t, ir.OpMul, newBound.Op)
	assert.Same(t, info.Header, newBound.Block())

	// c^k folds to a constant since the step's base (2) is constant:
	// bound' = c * (bound / c^k) = 2 * (64 / 16).
	div := newBound.Args[1]
	require.Equal(t, ir.OpConst, div.Op)
	assert.Equal(t, int64(4), div.AuxInt)
}
