// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

// ID numbers Values and Blocks within a Func, in allocation order.
// Ported from cmd/compile/internal/ssa's ir.ID convention, as reflected
// by fkuehnel-golang-cfg/go-code's use of b.ID throughout dom.go/scc.go.
type ID int32

// relation mirrors spec.md's Cmp relation set: the four ordered
// comparisons the induction-variable analyzer is allowed to recognize.
type Relation int8

const (
	Less Relation = iota
	LessEqual
	Greater
	GreaterEqual
)

func (r Relation) String() string {
	switch r {
	case Less:
		return "<"
	case LessEqual:
		return "<="
	case Greater:
		return ">"
	case GreaterEqual:
		return ">="
	default:
		return "?"
	}
}

// Invert returns the relation obtained by swapping the two operands
// (a < b  <=>  b > a). Used by opt's NormalizeStaticTripCount when the
// induction Phi is the compare's right-hand operand (spec.md §4.3).
func (r Relation) Invert() Relation {
	switch r {
	case Less:
		return Greater
	case LessEqual:
		return GreaterEqual
	case Greater:
		return Less
	case GreaterEqual:
		return LessEqual
	default:
		return r
	}
}

func (r Relation) IsStrict() bool {
	return r == Less || r == Greater
}

func (r Relation) IsLessFamily() bool {
	return r == Less || r == LessEqual
}
