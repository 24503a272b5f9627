package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unrollir/loopunroll/internal/config"
)

func countingLoopInfo(t *testing.T) *LinearUnrollInfo {
	t.Helper()
	b := buildCountingLoop(t)
	f := b.Func()
	loops := f.Loopnest().Loops()
	require.Len(t, loops, 1)
	_, info := AnalyzeLoop(f, loops[0])
	require.NotNil(t, info)
	return info
}

func TestNormalizeStaticTripCount(t *testing.T) {
	info := countingLoopInfo(t)
	trip, ok := NormalizeStaticTripCount(info)
	require.True(t, ok)
	assert.Equal(t, int64(0), trip.Init)
	assert.Equal(t, int64(1), trip.Step)
	assert.Equal(t, int64(8), trip.Iterations)
}

func TestFindSuitableFactorDisabledByDefault(t *testing.T) {
	cfg := config.Defaults()
	assert.False(t, cfg.EnableClassicFactorSearch)
	assert.Equal(t, uint(0), FindSuitableFactor(cfg, 8, cfg.MaxFactor))
}

func TestFindSuitableFactorEnabled(t *testing.T) {
	cfg := config.Defaults()
	cfg.EnableClassicFactorSearch = true
	assert.Equal(t, uint(4), FindSuitableFactor(cfg, 8, 4))
	assert.Equal(t, uint(8), FindSuitableFactor(cfg, 8, 8))
}

func TestFindOptimalFactorNoDivisor(t *testing.T) {
	// 7 is prime: no divisor besides itself fits under max=4.
	assert.Equal(t, uint(0), findOptimalFactor(7, 4))
}

func TestDuffFactorFallsBackToDefault(t *testing.T) {
	assert.Equal(t, uint(config.DefaultDuffFactor), DuffFactor(config.UnrollConfig{}))
	assert.Equal(t, uint(6), DuffFactor(config.UnrollConfig{DuffFactor: 6}))
}

func TestDetermineUnrollFactorRejectsWhenClassicSearchDisabled(t *testing.T) {
	info := countingLoopInfo(t)
	cfg := config.Defaults()

	factor, duff, rej := DetermineUnrollFactor(cfg, All, info, cfg.MaxSize)
	require.NotNil(t, rej)
	assert.Equal(t, CountRejected, rej.Kind)
	assert.Equal(t, uint(0), factor)
	assert.False(t, duff)
}

func TestDetermineUnrollFactorUsesClassicSearchWhenEnabled(t *testing.T) {
	info := countingLoopInfo(t)
	cfg := config.Defaults()
	cfg.EnableClassicFactorSearch = true

	factor, duff, rej := DetermineUnrollFactor(cfg, All, info, cfg.MaxSize)
	require.Nil(t, rej)
	assert.Equal(t, uint(8), factor)
	assert.False(t, duff)
}

func TestDetermineUnrollFactorRejectsOversizedLoop(t *testing.T) {
	info := countingLoopInfo(t)
	cfg := config.Defaults()

	factor, _, rej := DetermineUnrollFactor(cfg, All, info, 0)
	require.NotNil(t, rej)
	assert.Equal(t, SizeRejected, rej.Kind)
	assert.Equal(t, uint(0), factor)
}

func TestLoopSizeCountsMemberUses(t *testing.T) {
	info := countingLoopInfo(t)
	assert.Greater(t, LoopSize(info.Loop), 0)
}
