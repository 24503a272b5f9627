// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

// This file implements strongly connected component (SCC) detection for
// control-flow graphs using the Kosaraju-Sharir algorithm, ported from
// fkuehnel-golang-cfg/go-code/scc.go.
//
// Kosaraju-Sharir was chosen over Tarjan's single-pass algorithm because
// it is straightforward to implement iteratively and needs no auxiliary
// per-node data beyond a postorder numbering the pass already computes
// for dominance. Each SCC corresponds to a loop (or a trivial
// single-block component) in f, exactly as spec.md §2 item 2 requires
// for building the loop tree on top of it.
//
// Properties:
//   - The first SCC contains only the entry block.
//   - Unreachable blocks are excluded from the result.
//   - Block order within each SCC is unspecified.

// SCC is a strongly connected component of f's control-flow graph: a
// non-trivial SCC is a (possibly irreducible) loop candidate.
type SCC struct {
	Blocks []*Block
}

// IsLoop reports whether this SCC is non-trivial (more than one block,
// or a single block with a self-edge) — libfirm's scc->IsLoop().
func (s *SCC) IsLoop() bool {
	if len(s.Blocks) > 1 {
		return true
	}
	if len(s.Blocks) == 1 {
		b := s.Blocks[0]
		for _, e := range b.Preds {
			if e.b == b {
				return true
			}
		}
	}
	return false
}

// Header returns the unique block in s that dominates every other block
// in s, or nil if no such block exists (an irreducible loop). Ported
// from the dominance-walk half of loop_unrolling.c's get_loop_header,
// specialized to operate on a raw SCC before a Loop has been built.
func (s *SCC) Header() *Block {
	if len(s.Blocks) == 0 {
		return nil
	}
	f := s.Blocks[0].Func
	inSCC := f.Cache.AllocBoolSlice(f.NumBlocks())
	defer f.Cache.FreeBoolSlice(inSCC)
	for _, b := range s.Blocks {
		inSCC[b.ID] = true
	}
	var header *Block
	for _, b := range s.Blocks {
		dominatesAll := true
		for _, c := range s.Blocks {
			if !f.Dominates(b, c) {
				dominatesAll = false
				break
			}
		}
		if dominatesAll {
			header = b
			break
		}
	}
	return header
}

// IsReducible reports whether s has a unique header whose removal
// leaves every remaining block reachable only through that header
// (i.e., no entry edges bypass it). Bourdoncle's algorithm only
// recurses into reducible components (processLoop below).
func (s *SCC) IsReducible() bool {
	h := s.Header()
	if h == nil {
		return false
	}
	inSCC := make(map[*Block]bool, len(s.Blocks))
	for _, b := range s.Blocks {
		inSCC[b] = true
	}
	for _, b := range s.Blocks {
		if b == h {
			continue
		}
		for _, e := range b.Preds {
			if inSCC[e.b] {
				continue
			}
			// an edge into b from outside the SCC that isn't the header
			// means some other block is also an entry point: irreducible.
			return false
		}
	}
	return true
}

// SCCs returns the strongly connected components of f's control-flow
// graph, in an order where the kernel DAG is topologically sorted
// (the first SCC contains only the entry block).
func (f *Func) SCCs() [][]*Block {
	if f.cachedSCCs != nil {
		return f.cachedSCCs
	}
	po := f.Postorder()

	seen := make([]bool, f.NumBlocks())
	reachable := make([]bool, f.NumBlocks())
	for _, b := range po {
		reachable[b.ID] = true
	}

	var result [][]*Block
	queue := make([]*Block, 0, len(po))

	for i := len(po) - 1; i >= 0; i-- {
		leader := po[i]
		if seen[leader.ID] {
			continue
		}
		var scc []*Block
		queue = append(queue, leader)
		seen[leader.ID] = true
		for len(queue) > 0 {
			b := queue[0]
			queue = queue[1:]
			scc = append(scc, b)
			for _, e := range b.Preds {
				pred := e.b
				if reachable[pred.ID] && !seen[pred.ID] {
					seen[pred.ID] = true
					queue = append(queue, pred)
				}
			}
		}
		result = append(result, scc)
	}
	f.cachedSCCs = result
	return result
}
