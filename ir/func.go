package ir

import "fmt"

// Func is the spec's graph: it owns all Value/Block allocation and the
// cached CFG-derived properties (postorder, dominator tree, loop nest),
// following fkuehnel-golang-cfg/go-code/func.go's invalidateCFG
// convention (cachedPostorder/cachedIdom/cachedLoopnest/cachedSCCs all
// live here and are dropped together whenever the CFG changes).
type Func struct {
	Name string

	Entry  *Block
	Blocks []*Block

	End *Value // OpEnd sentinel; End.Args is literally spec.md's keep-alive set

	nextValueID ID
	nextBlockID ID

	Cache *Cache

	cachedPostorder []*Block
	cachedIdom      []*Block
	cachedLoopnest  *Loopnest
	cachedSCCs      [][]*Block

	keepAliveRefs map[*Value]int // Open Question #2: net-zero keep-alive ledger (DESIGN.md)

	linksReserved bool
}

// NewFunc allocates an empty Func with its End sentinel wired up.
func NewFunc(name string) *Func {
	f := &Func{
		Name:          name,
		Cache:         newCache(),
		keepAliveRefs: map[*Value]int{},
	}
	f.End = &Value{ID: f.allocValueID(), Op: OpEnd, Type: TypeCtrl}
	return f
}

func (f *Func) allocValueID() ID {
	id := f.nextValueID
	f.nextValueID++
	return id
}

func (f *Func) allocBlockID() ID {
	id := f.nextBlockID
	f.nextBlockID++
	return id
}

// NumBlocks is spec.md's sizing helper for Cache-backed bool slices,
// ported verbatim in spirit from fkuehnel-golang-cfg/go-code/dom.go's
// use of f.NumBlocks().
func (f *Func) NumBlocks() int { return int(f.nextBlockID) }

// NewBlock allocates a block owned by f. The caller wires Succs/Preds
// with AddEdge and, for the entry block, sets f.Entry.
func (f *Func) NewBlock(kind BlockKind) *Block {
	b := &Block{ID: f.allocBlockID(), Kind: kind, Func: f}
	f.Blocks = append(f.Blocks, b)
	f.invalidateCFG()
	return b
}

// NewValue allocates a Value owned by block b.
func (f *Func) NewValue(b *Block, op Op, typ Type, args ...*Value) *Value {
	v := &Value{ID: f.allocValueID(), Op: op, Type: typ}
	for _, a := range args {
		v.AddArg(a)
	}
	v.SetBlock(b)
	return v
}

// Duplicate creates a shallow copy of v preserving Op/Type/AuxInt/Rel/
// Pure/Size, with no block and no args — exactly spec.md's
// duplicate(n) -> n' contract ("shallow copy preserving opcode and
// mode"). Callers are responsible for SetBlock and rewiring Args.
func (f *Func) Duplicate(v *Value) *Value {
	nv := &Value{
		ID:     f.allocValueID(),
		Op:     v.Op,
		Type:   v.Type,
		AuxInt: v.AuxInt,
		Rel:    v.Rel,
		Pure:   v.Pure,
		Size:   v.Size,
	}
	return nv
}

// Exchange replaces every use of old with new, the way spec.md's
// exchange(old,new) does: it walks old's use-list (not the whole graph)
// and rewrites each user's matching Args slot.
func (f *Func) Exchange(old, new *Value) {
	for _, user := range append([]*Value(nil), old.uses...) {
		if user == f.End && f.isKeptAlive(old) {
			continue // moved through the keep-alive ledger below
		}
		for i, a := range user.Args {
			if a == old {
				user.SetArg(i, new)
			}
		}
	}
	if f.isKeptAlive(old) {
		f.RemoveKeepAlive(old)
		f.AddKeepAlive(new)
	}
}

// AddKeepAlive/RemoveKeepAlive implement spec.md's add_keepalive/
// remove_keepalive against f.End's Args, while keeping a reference count
// so double-adds and unmatched removes (spec.md §9's "must guarantee the
// net zero") are caught rather than silently corrupting End's arg list.
func (f *Func) AddKeepAlive(v *Value) {
	if f.keepAliveRefs[v] == 0 {
		f.End.AddArg(v)
	}
	f.keepAliveRefs[v]++
}

func (f *Func) RemoveKeepAlive(v *Value) {
	n := f.keepAliveRefs[v]
	if n <= 0 {
		panic("ir: RemoveKeepAlive without matching AddKeepAlive (keep-alive ledger went negative)")
	}
	n--
	f.keepAliveRefs[v] = n
	if n == 0 {
		delete(f.keepAliveRefs, v)
		for i, a := range f.End.Args {
			if a == v {
				f.End.RemoveArg(i)
				break
			}
		}
	}
}

func (f *Func) isKeptAlive(v *Value) bool { return f.keepAliveRefs[v] > 0 }

// KeepAliveBalanced reports whether the keep-alive ledger is empty:
// every AddKeepAlive ever made on f, including ones made before the
// pass ran, has a matching RemoveKeepAlive.
func (f *Func) KeepAliveBalanced() bool { return len(f.keepAliveRefs) == 0 }

// RemoveEndBadsAndDoublets is spec.md's
// remove_end_bads_and_doublets(end): drop duplicate keep-alive entries
// (the ledger above already prevents duplicates, so this is a defensive
// pass over End.Args for entries introduced outside AddKeepAlive, e.g.
// by direct graph surgery in tests).
func (f *Func) RemoveEndBadsAndDoublets() {
	seen := make(map[*Value]bool, len(f.End.Args))
	kept := f.End.Args[:0]
	for _, a := range f.End.Args {
		if a == nil || seen[a] {
			continue
		}
		seen[a] = true
		kept = append(kept, a)
	}
	f.End.Args = kept
}

// ReserveLinks/ReleaseLinks/ClearLinks implement the link-slot exclusive
// resource from spec.md §5: "the pass reserves it at entry... and
// releases it at exit."
func (f *Func) ReserveLinks() {
	if f.linksReserved {
		panic("ir: link-slot reserved twice (nested pass using the same scratch slot)")
	}
	f.linksReserved = true
	f.ClearLinks()
}

func (f *Func) ReleaseLinks() {
	if !f.linksReserved {
		panic("ir: link-slot released without being reserved")
	}
	f.ClearLinks()
	f.linksReserved = false
}

func (f *Func) ClearLinks() {
	for _, b := range f.Blocks {
		b.scratch = nil
		for _, v := range b.Values {
			v.scratch = nil
		}
	}
}

// invalidateCFG drops every cached CFG-derived property. Ported
// verbatim (in spirit) from fkuehnel-golang-cfg/go-code/func.go.
func (f *Func) invalidateCFG() {
	f.cachedPostorder = nil
	f.cachedIdom = nil
	f.cachedLoopnest = nil
	f.cachedSCCs = nil
}

func (f *Func) Fatalf(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}
