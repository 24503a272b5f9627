package opt

import "github.com/unrollir/loopunroll/ir"

// UpdateHeaderCondition is spec.md §4.6's Bound Rewriter: given the
// classified loop's Cmp and the chosen unroll factor k, rewrites the
// comparison's bound operand so the unrolled loop still terminates at
// the right boundary.
//
// less = (rel is <,≤) XOR (phi is the right-hand operand); for ADD/SUB
// the new bound is N ± |c|·(k-1) (minus when less, plus otherwise); for
// MUL the new bound is built from c^k the same way, scaled back to
// preserve the comparison direction.
//
// Ported from update_header_condition_add/update_header_condition_mul,
// create_abs, create_r_pow.
func UpdateHeaderCondition(f *ir.Func, info *LinearUnrollInfo, factor uint) {
	phiOnLeft := info.Cmp.Args[0] == info.Phi
	less := info.Rel.IsLessFamily() != !phiOnLeft

	switch info.Op {
	case ir.OpAdd, ir.OpSub:
		updateHeaderConditionAdd(f, info, factor, less)
	case ir.OpMul:
		updateHeaderConditionMul(f, info, factor, less)
	}
}

func updateHeaderConditionAdd(f *ir.Func, info *LinearUnrollInfo, factor uint, less bool) {
	header := info.Header
	c := copyPureIntoHeader(f, header, info.Base)
	absC := createAbs(f, header, c)

	k1 := f.NewValue(header, ir.OpConst, absC.Type)
	k1.AuxInt = int64(factor - 1)
	delta := f.NewValue(header, ir.OpMul, absC.Type, absC, k1)

	var newBound *ir.Value
	if less {
		newBound = f.NewValue(header, ir.OpSub, info.Bound.Type, info.Bound, delta)
	} else {
		newBound = f.NewValue(header, ir.OpAdd, info.Bound.Type, info.Bound, delta)
	}
	replaceBoundOperand(info.Cmp, info.Bound, newBound)
}

func updateHeaderConditionMul(f *ir.Func, info *LinearUnrollInfo, factor uint, less bool) {
	header := info.Header
	c := copyPureIntoHeader(f, header, info.Base)
	cPowK := createRPow(f, header, c, factor)

	var newBound *ir.Value
	if less {
		newBound = f.NewValue(header, ir.OpMul, info.Bound.Type, c, divExact(f, header, info.Bound, cPowK))
	} else {
		newBound = f.NewValue(header, ir.OpMul, info.Bound.Type, divExact(f, header, info.Bound, cPowK), c)
	}
	replaceBoundOperand(info.Cmp, info.Bound, newBound)
}

func replaceBoundOperand(cmp, oldBound, newBound *ir.Value) {
	for i, a := range cmp.Args {
		if a == oldBound {
			cmp.SetArg(i, newBound)
		}
	}
}

// createAbs synthesizes |v|: a constant v folds to a new constant, and
// any other v becomes a Generic value whose only argument is v; at the
// graph-primitive level this is just another pure node the header owns.
// Ported from create_abs.
func createAbs(f *ir.Func, header *ir.Block, v *ir.Value) *ir.Value {
	if v.IsConst() {
		abs := f.NewValue(header, ir.OpConst, v.Type)
		if v.AuxInt < 0 {
			abs.AuxInt = -v.AuxInt
		} else {
			abs.AuxInt = v.AuxInt
		}
		return abs
	}
	return f.NewValue(header, ir.OpGeneric, v.Type, v)
}

// createRPow builds c^factor, folding at compile time when c is a
// constant (the common case this module's tests exercise). Ported from
// create_r_pow.
func createRPow(f *ir.Func, header *ir.Block, c *ir.Value, factor uint) *ir.Value {
	if c.IsConst() {
		result := int64(1)
		for i := uint(0); i < factor; i++ {
			result *= c.AuxInt
		}
		pow := f.NewValue(header, ir.OpConst, c.Type)
		pow.AuxInt = result
		return pow
	}
	acc := c
	for i := uint(1); i < factor; i++ {
		acc = f.NewValue(header, ir.OpMul, c.Type, acc, c)
	}
	return acc
}

func divExact(f *ir.Func, header *ir.Block, n, d *ir.Value) *ir.Value {
	if n.IsConst() && d.IsConst() && d.AuxInt != 0 {
		q := f.NewValue(header, ir.OpConst, n.Type)
		q.AuxInt = n.AuxInt / d.AuxInt
		return q
	}
	return f.NewValue(header, ir.OpGeneric, n.Type, n, d)
}

// copyPureIntoHeader copies v (and any pure transitive dependency) into
// header, redirecting any memory use in the copy to header's own memory
// Phi — spec.md §4.6's "The c expression is copied into the header
// block... any memory use in the copy is redirected to the header's
// memory Phi." A value already in header is returned as is; any other
// value, constants included, is duplicated into header.
func copyPureIntoHeader(f *ir.Func, header *ir.Block, v *ir.Value) *ir.Value {
	if v.Block() == header {
		return v
	}
	nv := f.Duplicate(v)
	args := make([]*ir.Value, len(v.Args))
	for i, a := range v.Args {
		if a.Type.IsMemory() {
			args[i] = headerMemoryPhi(header)
		} else {
			args[i] = copyPureIntoHeader(f, header, a)
		}
	}
	nv.SetArgs(args)
	nv.SetBlock(header)
	return nv
}

func headerMemoryPhi(header *ir.Block) *ir.Value {
	for _, v := range header.Values {
		if v.IsPhi() && v.Type.IsMemory() {
			return v
		}
	}
	return nil
}
