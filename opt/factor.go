package opt

import (
	"github.com/unrollir/loopunroll/internal/config"
	"github.com/unrollir/loopunroll/internal/obslog"
	"github.com/unrollir/loopunroll/ir"
)

// StaticTripCount is the classic path's result: the loop's iteration
// count is known at unroll time.
type StaticTripCount struct {
	Init       int64
	Step       int64 // normalized: always the per-iteration magnitude in the "counting up" direction
	Iterations int64
}

// NormalizeStaticTripCount reads the Cmp's constant init/step/limit and
// produces a normalized, always-counting-up StaticTripCount, ported from
// spec.md §4.3's classic path: swap sides for `<`/`≤` forms, invert the
// step for `>`/`≥`, and subtract one for strict inequality before
// dividing. Returns ok=false if init, step, or bound are not compile-time
// constants — the analysis then falls back to the symbolic (Duff) path.
func NormalizeStaticTripCount(info *LinearUnrollInfo) (StaticTripCount, bool) {
	var initConst, boundConst *ir.Value
	for _, a := range info.Phi.Args {
		if a.IsConst() {
			initConst = a
		}
	}
	boundConst = skipTrivialPhis(info.Bound)
	if !boundConst.IsConst() {
		return StaticTripCount{}, false
	}
	if initConst == nil {
		return StaticTripCount{}, false
	}
	if info.Op == ir.OpMul {
		return StaticTripCount{}, false
	}
	if !info.Base.IsConst() {
		return StaticTripCount{}, false
	}

	init := initConst.AuxInt
	step := info.Base.AuxInt
	limit := boundConst.AuxInt
	if info.Op == ir.OpSub {
		step = -step
	}

	rel := info.Rel
	phiOnLeft := info.Cmp.Args[0] == info.Phi
	if !phiOnLeft {
		rel = rel.Invert()
	}

	strict := rel.IsStrict()
	less := rel.IsLessFamily()
	if !less {
		step = -step
		init, limit = limit, init
	}
	if step <= 0 {
		return StaticTripCount{}, false
	}
	if strict {
		limit -= sign(step)
	}

	iterations := (limit-init)/step + 1
	if iterations <= 0 {
		return StaticTripCount{}, false
	}
	return StaticTripCount{Init: init, Step: step, Iterations: iterations}, true
}

func sign(x int64) int64 {
	if x < 0 {
		return -1
	}
	return 1
}

// FindSuitableFactor is the entry point for spec.md §4.3's static path,
// ported from find_suitable_factor. The original contains an
// unconditional early `return 0` before its divisor search (DESIGN.md's
// Open Question #1); cfg.EnableClassicFactorSearch exposes that choice
// instead of silently reinstating or silently preserving the disabled
// branch.
func FindSuitableFactor(cfg config.UnrollConfig, iterations int64, max uint) uint {
	if !cfg.EnableClassicFactorSearch {
		return 0
	}
	return findOptimalFactor(uint64(iterations), max)
}

// findOptimalFactor is the divisor search ported from find_optimal_factor:
// if the whole trip count fits under max, unroll completely; otherwise
// find the largest power-of-two divisor of number that is itself ≤ max.
func findOptimalFactor(number uint64, max uint) uint {
	if number <= uint64(max) {
		return uint(number)
	}
	for i := uint64(2); i <= number/2; i++ {
		if number%i != 0 {
			continue
		}
		candidate := number / i
		if candidate > uint64(max) {
			continue
		}
		if candidate != 0 && candidate&(candidate-1) == 0 {
			return uint(candidate)
		}
	}
	return 0
}

// DuffFactor is the symbolic path's factor, taken from configuration
// (spec.md §4.3's "factor is taken from configuration (default 4,
// overridable through DUFF_FACTOR)").
func DuffFactor(cfg config.UnrollConfig) uint {
	if cfg.DuffFactor == 0 {
		return config.DefaultDuffFactor
	}
	return cfg.DuffFactor
}

// LoopSize counts out-edges summed over every member node, recursively
// into inner loops (spec.md §4.3's size budget: "count out-edges summed
// over all member nodes").
func LoopSize(loop *ir.Loop) int {
	size := 0
	loop.WalkBlocks(func(b *ir.Block) {
		for _, v := range b.Values {
			size += len(v.Uses())
		}
		size += len(b.Succs)
	})
	return size
}

// DetermineUnrollFactor picks between the classic and Duff paths for a
// classified loop, rejecting if the loop exceeds maxSize (spec.md §4.3,
// §4.8's "if size(L) > maxsize: skip").
func DetermineUnrollFactor(cfg config.UnrollConfig, ability Unrollability, info *LinearUnrollInfo, maxSize uint) (factor uint, duff bool, rej *Rejection) {
	size := LoopSize(info.Loop)
	if uint(size) > maxSize {
		obslog.L().Debug().Str("header", info.Header.String()).Int("size", size).Uint("max_size", maxSize).Msg("loop exceeds size budget")
		return 0, false, &Rejection{Kind: SizeRejected, Loop: info.Loop, Message: "loop exceeds size budget"}
	}

	if trip, ok := NormalizeStaticTripCount(info); ok {
		f := FindSuitableFactor(cfg, trip.Iterations, cfg.MaxFactor)
		if f < 2 {
			obslog.L().Debug().Str("header", info.Header.String()).Msg("no useful static factor found")
			return 0, false, &Rejection{Kind: CountRejected, Loop: info.Loop, Message: "no useful static factor found"}
		}
		return f, false, nil
	}

	if ability&SwitchFixup != 0 {
		return DuffFactor(cfg), true, nil
	}
	if ability&LoopFixup != 0 {
		return 2, false, nil
	}
	return 0, false, &Rejection{Kind: ModeRejected, Loop: info.Loop, Message: "no fixup path applicable"}
}
