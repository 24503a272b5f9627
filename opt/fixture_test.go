package opt

import (
	"testing"

	"github.com/unrollir/loopunroll/ir"
	"github.com/unrollir/loopunroll/ir/irtest"
)

// buildCountingLoop builds the spec.md §8 scenario-1 shape:
//
//	for (i = 0; i < 8; i++) { ... }
//
// entry -> preheader -> header(phi i, cmp i<8) -> body(iNext=i+1) -> header
// (backedge), header -(false)-> exit(phi iFinal=i).
func buildCountingLoop(t *testing.T) *irtest.Builder {
	t.Helper()
	b := irtest.New("counting")
	b.Block("entry", ir.BlockPlain)
	b.Block("preheader", ir.BlockPlain)
	b.Block("header", ir.BlockIf)
	b.Block("body", ir.BlockPlain)
	b.Block("exit", ir.BlockPlain)

	b.Edge("entry", "preheader")
	b.Edge("preheader", "header")
	b.Edge("body", "header")

	b.Const("i0", "preheader", 0)
	b.Const("bound", "entry", 8)
	b.Const("one", "entry", 1)

	// The phi/iNext pair is mutually recursive, so the phi is created
	// with only its preheader-side argument first and backpatched with
	// iNext once iNext exists.
	b.Phi("i", "header", ir.TypeInt, "i0")
	b.Value("iNext", "body", ir.OpAdd, ir.TypeInt, "i", "one")
	b.V("i").AddArg(b.V("iNext"))

	b.Cmp("cmp", "header", ir.Less, "i", "bound")
	b.Cond("header", "cmp", "body", "exit")

	b.Phi("iFinal", "exit", ir.TypeInt, "i")

	return b
}

// buildSymbolicBoundLoop builds spec.md §8 scenario-2's shape: the same
// counting loop, but the bound is a Param rather than a compile-time
// constant, so factor selection must fall back to the Duff preamble
// instead of the classic static-divisor search.
//
//	for (i = 0; i < n; i++) { ... }
func buildSymbolicBoundLoop(t *testing.T) *irtest.Builder {
	t.Helper()
	b := irtest.New("symbolic")
	b.Block("entry", ir.BlockPlain)
	b.Block("preheader", ir.BlockPlain)
	b.Block("header", ir.BlockIf)
	b.Block("body", ir.BlockPlain)
	b.Block("exit", ir.BlockPlain)

	b.Edge("entry", "preheader")
	b.Edge("preheader", "header")
	b.Edge("body", "header")

	b.Const("i0", "preheader", 0)
	b.Value("n", "entry", ir.OpParam, ir.TypeInt)
	b.Const("one", "entry", 1)

	b.Phi("i", "header", ir.TypeInt, "i0")
	b.Value("iNext", "body", ir.OpAdd, ir.TypeInt, "i", "one")
	b.V("i").AddArg(b.V("iNext"))

	b.Cmp("cmp", "header", ir.Less, "i", "n")
	b.Cond("header", "cmp", "body", "exit")

	b.Phi("iFinal", "exit", ir.TypeInt, "i")

	return b
}

// buildMultiplicativeLoop builds a MUL-step counting loop exercising
// updateHeaderConditionMul's path:
//
//	for (i = 1; i < 64; i *= 2) { ... }
func buildMultiplicativeLoop(t *testing.T) *irtest.Builder {
	t.Helper()
	b := irtest.New("multiplicative")
	b.Block("entry", ir.BlockPlain)
	b.Block("preheader", ir.BlockPlain)
	b.Block("header", ir.BlockIf)
	b.Block("body", ir.BlockPlain)
	b.Block("exit", ir.BlockPlain)

	b.Edge("entry", "preheader")
	b.Edge("preheader", "header")
	b.Edge("body", "header")

	b.Const("i0", "preheader", 1)
	b.Const("bound", "entry", 64)
	b.Const("two", "entry", 2)

	b.Phi("i", "header", ir.TypeInt, "i0")
	b.Value("iNext", "body", ir.OpMul, ir.TypeInt, "i", "two")
	b.V("i").AddArg(b.V("iNext"))

	b.Cmp("cmp", "header", ir.Less, "i", "bound")
	b.Cond("header", "cmp", "body", "exit")

	b.Phi("iFinal", "exit", ir.TypeInt, "i")

	return b
}
