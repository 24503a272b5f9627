// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

// This file contains code to compute the dominator tree of a
// control-flow graph. Ported from fkuehnel-golang-cfg/go-code/dom.go
// (itself cmd/compile/internal/ssa's dom.go), adapted to this package's
// Func/Block/Edge shapes.

// Postorder computes a postorder traversal ordering for the blocks in
// f, caching the result until the CFG changes. Unreachable blocks do
// not appear.
func (f *Func) Postorder() []*Block {
	if f.cachedPostorder == nil {
		f.cachedPostorder = postorder(f)
	}
	return f.cachedPostorder
}

func postorder(f *Func) []*Block {
	return postorderWithNumbering(f, nil)
}

type blockAndIndex struct {
	b     *Block
	index int // number of successor edges of b already explored
}

// postorderWithNumbering provides a DFS postordering, optionally
// recording each block's position into ponums (indexed by Block.ID).
func postorderWithNumbering(f *Func, ponums []int32) []*Block {
	valid := f.Cache.AllocBoolSlice(f.NumBlocks())
	defer f.Cache.FreeBoolSlice(valid)
	for i := range valid {
		valid[i] = true
	}
	return poWithNumberingForValidBlocks(f.Entry, valid, ponums)
}

func poWithNumberingForValidBlocks(entry *Block, valid []bool, ponums []int32) []*Block {
	f := entry.Func
	if len(valid) != f.NumBlocks() {
		f.Fatalf("length of valid blocks is expected to be %d", f.NumBlocks())
	}
	seen := f.Cache.AllocBoolSlice(f.NumBlocks())
	defer f.Cache.FreeBoolSlice(seen)

	order := make([]*Block, 0, len(f.Blocks))

	s := make([]blockAndIndex, 0, 32)
	s = append(s, blockAndIndex{b: entry})
	seen[entry.ID] = true
	for len(s) > 0 {
		tos := len(s) - 1
		x := s[tos]
		b := x.b
		if i := x.index; i < len(b.Succs) {
			s[tos].index++
			bb := b.Succs[i].Block()
			if valid[bb.ID] && !seen[bb.ID] {
				seen[bb.ID] = true
				s = append(s, blockAndIndex{b: bb})
			}
			continue
		}
		s = s[:tos]
		if ponums != nil {
			ponums[b.ID] = int32(len(order))
		}
		order = append(order, b)
	}
	return order
}

// intersect finds the closest common dominator of b and c, given a
// postorder numbering of all blocks.
func intersect(b, c *Block, postnum []int, idom []*Block) *Block {
	for b != c {
		if postnum[b.ID] < postnum[c.ID] {
			b = idom[b.ID]
		} else {
			c = idom[c.ID]
		}
	}
	return b
}

// computeIdom computes the immediate dominator of every reachable
// block, using the Cooper/Harvey/Kennedy iterative algorithm, and
// records it onto each Block's idom field.
func (f *Func) computeIdom() {
	if f.cachedIdom != nil {
		return
	}
	po := f.Postorder()
	postnum := make([]int, f.NumBlocks())
	for i, b := range po {
		postnum[b.ID] = i
	}
	idom := make([]*Block, f.NumBlocks())
	idom[f.Entry.ID] = f.Entry

	changed := true
	for changed {
		changed = false
		// reverse postorder, skipping the entry block
		for i := len(po) - 2; i >= 0; i-- {
			b := po[i]
			var newIdom *Block
			for _, e := range b.Preds {
				p := e.b
				if idom[p.ID] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
				} else {
					newIdom = intersect(newIdom, p, postnum, idom)
				}
			}
			if newIdom != idom[b.ID] {
				idom[b.ID] = newIdom
				changed = true
			}
		}
	}
	idom[f.Entry.ID] = nil
	for _, b := range po {
		b.idom = idom[b.ID]
	}
	f.cachedIdom = idom
}
