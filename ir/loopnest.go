package ir

// loopnestFor computes loop nest information using Bourdoncle's
// algorithm, ported from fkuehnel-golang-cfg/go-code/likelyadjust.go's
// loopnestfor/processLoop/computeLoopDepths.
//
// The algorithm:
//  1. Compute SCCs of the CFG (cached on Func).
//  2. Each non-trivial, reducible SCC is a loop; its header is the SCC's
//     unique dominating block.
//  3. Remove the header and recursively partition the remainder to find
//     nested loops.
//  4. Build the loop tree from containment.
func loopnestFor(f *Func) *Loopnest {
	blockToLoop := make([]*Loop, f.NumBlocks())
	var loops []*Loop
	sawIrred := false

	for _, blocks := range f.SCCs() {
		scc := &SCC{Blocks: blocks}
		if !scc.IsLoop() {
			continue
		}
		if !scc.IsReducible() {
			sawIrred = true
			continue
		}
		processLoop(f, scc, nil, blockToLoop, &loops, &sawIrred)
	}

	computeLoopDepths(loops)

	return &Loopnest{
		f:              f,
		blockToLoop:    blockToLoop,
		loops:          loops,
		hasIrreducible: sawIrred,
	}
}

// processLoop recursively processes an SCC using Bourdoncle's
// decomposition: carve out the header as its own Loop node, then
// recompute SCCs over the SCC minus the header to discover nested loops.
func processLoop(f *Func, scc *SCC, outer *Loop, blockToLoop []*Loop, loops *[]*Loop, sawIrred *bool) {
	if len(scc.Blocks) == 0 {
		return
	}
	header := scc.Header()
	if header == nil {
		*sawIrred = true
		return
	}

	l := &Loop{header: header, outer: outer, isInner: true}
	*loops = append(*loops, l)
	blockToLoop[header.ID] = l
	l.addBlock(header)
	if outer != nil {
		outer.isInner = false
	}

	var remaining []*Block
	for _, b := range scc.Blocks {
		if b != header {
			remaining = append(remaining, b)
		}
	}
	if len(remaining) == 0 {
		return
	}

	subSCCs := sccSubgraph(remaining, header)
	for _, sub := range subSCCs {
		if sub.IsLoop() {
			if !sub.IsReducible() {
				*sawIrred = true
			}
			processLoop(f, sub, l, blockToLoop, loops, sawIrred)
		} else {
			for _, b := range sub.Blocks {
				if blockToLoop[b.ID] == nil {
					blockToLoop[b.ID] = l
					l.addBlock(b)
				}
			}
		}
	}
	// Nested loops are recorded as sub-loop elements of l in discovery
	// order alongside the plain blocks gathered above; re-derive the
	// element list's loop entries now that recursion has finished so
	// elements() preserves the libfirm "mixed list" contract.
	for _, sub := range subSCCs {
		if sub.IsLoop() && sub.IsReducible() {
			if child := blockToLoop[sub.Header().ID]; child != nil && child.outer == l {
				l.addSubLoop(child)
			}
		}
	}
}

// sccSubgraph computes the SCCs of the subgraph induced by blocks,
// treating header as removed (edges into header from inside blocks are
// ignored, the way libfirm's sccSubgraph/sccPartition work on the
// header-pruned remainder).
func sccSubgraph(blocks []*Block, header *Block) []*SCC {
	member := make(map[*Block]bool, len(blocks))
	for _, b := range blocks {
		member[b] = true
	}

	// plain Kosaraju-Sharir restricted to `member`, ignoring header.
	seen := make(map[*Block]bool, len(blocks))
	var order []*Block
	var dfs func(*Block)
	dfs = func(b *Block) {
		seen[b] = true
		for _, e := range b.Succs {
			s := e.b
			if s == header || !member[s] || seen[s] {
				continue
			}
			dfs(s)
		}
		order = append(order, b)
	}
	for _, b := range blocks {
		if !seen[b] {
			dfs(b)
		}
	}

	assigned := make(map[*Block]bool, len(blocks))
	var sccs []*SCC
	for i := len(order) - 1; i >= 0; i-- {
		leader := order[i]
		if assigned[leader] {
			continue
		}
		var comp []*Block
		queue := []*Block{leader}
		assigned[leader] = true
		for len(queue) > 0 {
			b := queue[0]
			queue = queue[1:]
			comp = append(comp, b)
			for _, e := range b.Preds {
				p := e.b
				if p == header || !member[p] || assigned[p] {
					continue
				}
				assigned[p] = true
				queue = append(queue, p)
			}
		}
		sccs = append(sccs, &SCC{Blocks: comp})
	}
	return sccs
}

// computeLoopDepths calculates the nesting depth (1 = outermost) for
// every loop, ported from likelyadjust.go's computeLoopDepths.
func computeLoopDepths(loops []*Loop) {
	for _, l := range loops {
		if l.depth != 0 {
			continue
		}
		d := int16(0)
		for x := l; x != nil; x = x.outer {
			if x.depth != 0 {
				d += x.depth
				break
			}
			d++
		}
		for x := l; x != nil; x = x.outer {
			if x.depth != 0 {
				break
			}
			x.depth = d
			d--
		}
	}
}
