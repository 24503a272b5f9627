package ir

// LoopElement is a tagged union of child block / child loop, matching
// libfirm's loop_element / get_loop_element(loop,i) (spec.md §3 "ordered
// list of (block or sub-loop) elements") and ported into the same
// tree shape fkuehnel-golang-cfg/go-code/likelyadjust.go builds via its
// own (unexported) *loop type.
type LoopElement struct {
	Block *Block // non-nil for a k_ir_node element
	Loop  *Loop  // non-nil for a k_ir_loop element
}

func (e LoopElement) IsBlock() bool { return e.Block != nil }
func (e LoopElement) IsLoop() bool  { return e.Loop != nil }

// Loop is spec.md's Loop entity.
type Loop struct {
	header   *Block
	outer    *Loop
	elements []LoopElement
	depth    int16
	isInner  bool
}

func (l *Loop) Header() *Block           { return l.header }
func (l *Loop) Outer() *Loop             { return l.outer }
func (l *Loop) Elements() []LoopElement  { return l.elements }
func (l *Loop) Depth() int16             { return l.depth }
func (l *Loop) IsInnermost() bool        { return l.isInner }

func (l *Loop) addBlock(b *Block) {
	l.elements = append(l.elements, LoopElement{Block: b})
}

func (l *Loop) addSubLoop(sub *Loop) {
	l.elements = append(l.elements, LoopElement{Loop: sub})
}

// NumElements is spec.md's get_loop_n_elements(loop).
func (l *Loop) NumElements() int { return len(l.elements) }

// Blocks returns only the direct (non-nested) member blocks of l, in
// the order they were recorded. Nested loops' blocks are not included;
// callers needing the full recursive set use WalkBlocks.
func (l *Loop) Blocks() []*Block {
	var out []*Block
	for _, e := range l.elements {
		if e.IsBlock() {
			out = append(out, e.Block)
		}
	}
	return out
}

// WalkBlocks visits every block transitively contained in l, including
// blocks of nested loops — spec.md's recursive "member nodes" walks
// (used by get_all_stores / count_nodes in the original).
func (l *Loop) WalkBlocks(visit func(*Block)) {
	for _, e := range l.elements {
		if e.IsBlock() {
			visit(e.Block)
		} else {
			e.Loop.WalkBlocks(visit)
		}
	}
}

// Loopnest is the whole-function loop tree cache (spec.md §2 item 2).
type Loopnest struct {
	f              *Func
	blockToLoop    []*Loop // indexed by Block.ID
	loops          []*Loop
	hasIrreducible bool
}

// LoopOf is spec.md's loop_of(n) (for a block n).
func (ln *Loopnest) LoopOf(b *Block) *Loop {
	if int(b.ID) >= len(ln.blockToLoop) {
		return nil
	}
	return ln.blockToLoop[b.ID]
}

func (ln *Loopnest) Loops() []*Loop { return ln.loops }

func (ln *Loopnest) HasIrreducible() bool { return ln.hasIrreducible }

// Loopnest computes (or returns the cached) loop tree for f, following
// the lazy-cache-and-invalidate convention of
// fkuehnel-golang-cfg/go-code/func.go's sccs()/cachedSCCs pairing.
func (f *Func) Loopnest() *Loopnest {
	if f.cachedLoopnest == nil {
		f.cachedLoopnest = loopnestFor(f)
	}
	return f.cachedLoopnest
}

// LoopOf is spec.md's loop_of(n), convenience-forwarded from Func.
func (f *Func) LoopOf(b *Block) *Loop { return f.Loopnest().LoopOf(b) }

// BlockInLoop is spec.md's block_in_loop(b, loop): b is a member of
// loop, or of any loop nested inside it.
func (f *Func) BlockInLoop(b *Block, loop *Loop) bool {
	if loop == nil {
		return false
	}
	bl := f.LoopOf(b)
	for bl != nil {
		if bl == loop {
			return true
		}
		bl = bl.outer
	}
	return false
}

// Dominates is spec.md's dominates(a,b): a dominates b iff walking up
// b's idom chain reaches a.
func (f *Func) Dominates(a, b *Block) bool {
	if a == b {
		return true
	}
	f.computeIdom()
	for c := b.idom; c != nil; c = c.idom {
		if c == a {
			return true
		}
	}
	return false
}
