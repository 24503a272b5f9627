// Package irtest provides a small fluent builder for hand-assembling
// ir.Func graphs in tests, in the spirit of
// fkuehnel-golang-cfg/go-code/scc_test.go's Fun/Bloc/Valu/Goto DSL
// (cmd/compile/internal/ssa's testing helpers), adapted to this
// package's lighter Func/Block/Value shapes.
package irtest

import "github.com/unrollir/loopunroll/ir"

// Builder accumulates named blocks and values, resolving references by
// name so test graphs read like the loop shapes from spec.md §8's
// end-to-end scenarios (e.g. "for (i=0;i<8;i++) a[i]=i*i;").
type Builder struct {
	f      *ir.Func
	blocks map[string]*ir.Block
	values map[string]*ir.Value
	order  []string
}

func New(name string) *Builder {
	return &Builder{
		f:      ir.NewFunc(name),
		blocks: map[string]*ir.Block{},
		values: map[string]*ir.Value{},
	}
}

// Block creates a named block. The first block created becomes the
// Func's entry block.
func (b *Builder) Block(name string, kind ir.BlockKind) *Builder {
	blk := b.f.NewBlock(kind)
	b.blocks[name] = blk
	b.order = append(b.order, name)
	if b.f.Entry == nil {
		b.f.Entry = blk
	}
	return b
}

// Edge records a control-flow edge from one named block to another.
func (b *Builder) Edge(from, to string) *Builder {
	ir.AddEdge(b.B(from), b.B(to))
	return b
}

// Value creates a named value in the named block, resolving arg names
// to previously created values.
func (b *Builder) Value(name, block string, op ir.Op, typ ir.Type, args ...string) *Builder {
	var argv []*ir.Value
	for _, a := range args {
		argv = append(argv, b.V(a))
	}
	v := b.f.NewValue(b.B(block), op, typ, argv...)
	b.values[name] = v
	return b
}

// Const creates an integer constant value carrying val as AuxInt.
func (b *Builder) Const(name, block string, val int64) *Builder {
	b.Value(name, block, ir.OpConst, ir.TypeInt)
	b.V(name).AuxInt = val
	return b
}

// Cmp creates a Cmp value with the given relation between two named
// operands.
func (b *Builder) Cmp(name, block string, rel ir.Relation, left, right string) *Builder {
	b.Value(name, block, ir.OpCmp, ir.TypeCtrl, left, right)
	b.V(name).Rel = rel
	return b
}

// Cond wires block's Kind to BlockIf driven by the named Cmp, and
// creates the True/False Proj control values flowing to trueBlk/falseBlk.
// Each Proj's AuxInt is the index of the matching entry in blk.Succs
// (0 = trueBlk, 1 = falseBlk), the convention opt.InLoopOutOfLoopTargets
// relies on to pair a Cond's successors with their driving Proj.
func (b *Builder) Cond(block, cmpName, trueBlk, falseBlk string) *Builder {
	blk := b.B(block)
	blk.Kind = ir.BlockIf
	cond := b.f.NewValue(blk, ir.OpCond, ir.TypeCtrl, b.V(cmpName))
	blk.Cond = cond
	tproj := b.f.NewValue(blk, ir.OpProj, ir.TypeCtrl, cond)
	tproj.AuxInt = 0
	fproj := b.f.NewValue(blk, ir.OpProj, ir.TypeCtrl, cond)
	fproj.AuxInt = 1
	ir.AddEdge(blk, b.B(trueBlk))
	ir.AddEdge(blk, b.B(falseBlk))
	return b
}

// Phi creates a Phi in the named block with args aligned to the block's
// current predecessor order.
func (b *Builder) Phi(name, block string, typ ir.Type, args ...string) *Builder {
	return b.Value(name, block, ir.OpPhi, typ, args...)
}

func (b *Builder) B(name string) *ir.Block {
	blk, ok := b.blocks[name]
	if !ok {
		panic("irtest: unknown block " + name)
	}
	return blk
}

func (b *Builder) V(name string) *ir.Value {
	v, ok := b.values[name]
	if !ok {
		panic("irtest: unknown value " + name)
	}
	return v
}

func (b *Builder) Func() *ir.Func { return b.f }
