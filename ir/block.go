package ir

// BlockKind mirrors cmd/compile/internal/ssa's Block.Kind: a block either
// falls through unconditionally (BlockPlain) or ends in a two-way branch
// driven by a Cond (BlockIf), which is all spec.md's loop-header shape
// needs (spec.md §4.1: "exactly one in-loop and one out-of-loop target").
// BlockExit tags a function's exit block; nothing treats it differently
// from BlockPlain.
type BlockKind int8

const (
	BlockPlain BlockKind = iota
	BlockIf
	BlockExit
)

// Edge is a predecessor/successor edge, following the teacher's
// (b *Block, i int) pair from fkuehnel-golang-cfg/go-code/dom.go
// (blockAndIndex) and cmd/compile/internal/ssa's Edge type: i is the
// index of the reverse edge in the other block's own Preds/Succs slice,
// kept consistent by AddEdge/RemovePred.
type Edge struct {
	b *Block
	i int
}

func (e Edge) Block() *Block { return e.b }
func (e Edge) Index() int    { return e.i }

type Block struct {
	ID    ID
	Kind  BlockKind
	Func  *Func
	Loop  *Loop // innermost containing loop, set by Func.computeLoopnest; spec's loop_of(block)

	Values []*Value // member nodes, in creation order
	Succs  []Edge
	Preds  []Edge

	Cond *Value // set when Kind == BlockIf: the Cond value whose selector is a Cmp

	idom  *Block // immediate dominator, cached by ir.Dom
	scratch *Block
}

// Idom is spec.md's idom(block).
func (b *Block) Idom() *Block {
	b.Func.computeIdom()
	return b.idom
}

// Link is the block-level link-slot, used identically to Value's during
// body duplication (spec.md §4.4: "blocks, then non-block nodes").
func (b *Block) Link() *Block     { return b.scratch }
func (b *Block) SetLink(c *Block) { b.scratch = c }

func (b *Block) removeValue(v *Value) {
	for i, w := range b.Values {
		if w == v {
			b.Values = append(b.Values[:i], b.Values[i+1:]...)
			return
		}
	}
}

// AddEdge wires b -> c as the next successor/predecessor pair, keeping
// the reverse index valid on both sides.
func AddEdge(b, c *Block) {
	si := len(b.Succs)
	pi := len(c.Preds)
	b.Succs = append(b.Succs, Edge{c, pi})
	c.Preds = append(c.Preds, Edge{b, si})
	if b.Func != nil {
		b.Func.invalidateCFG()
	}
}

// RemovePred deletes predecessor i of b, fixing up the reverse index
// recorded in the remaining predecessors' source blocks.
func RemovePred(b *Block, i int) {
	e := b.Preds[i]
	b.Preds = append(b.Preds[:i], b.Preds[i+1:]...)
	// fix up the successor-side index for everything that shifted
	for _, pe := range b.Preds[i:] {
		src := pe.b
		for j := range src.Succs {
			if src.Succs[j].b == b && src.Succs[j].i > i {
				src.Succs[j].i--
			}
		}
	}
	_ = e
	if b.Func != nil {
		b.Func.invalidateCFG()
	}
}
