package ir

// AuxInt carries small scalar payloads (constant values, projection
// indices) the way cmd/compile/internal/ssa's
// Value.AuxInt does, rather than growing a dozen opcode-specific
// struct fields.
type Value struct {
	ID    ID
	Op    Op
	Type  Type
	block *Block

	Args []*Value
	uses []*Value // computed out-edges (spec.md's out(n,i)); kept in sync by AddArg/RemoveArg/SetArg

	AuxInt int64     // constant payload, projection index
	Rel    Relation  // valid when Op == OpCmp
	Pure   bool      // true for Load/Call proven free of relevant side effects (spec.md "pure Load / pure Call")
	Addr   *Value    // address operand, for Load/Store/Call aliasing (spec.md's "addr")
	Size   int64     // access size in bytes, paired with Addr for alias()

	scratch *Value // the spec's "link-slot": original<->clone identity during one duplication round
}

// Block returns the Value's owning block (spec.md's block(n)).
func (v *Value) Block() *Block { return v.block }

// SetBlock reassigns ownership without touching Args or uses
// (spec.md's set_block(n,b)).
func (v *Value) SetBlock(b *Block) {
	if v.block == b {
		return
	}
	if v.block != nil {
		v.block.removeValue(v)
	}
	v.block = b
	if b != nil {
		b.Values = append(b.Values, v)
	}
}

func (v *Value) IsPhi() bool    { return v.Op == OpPhi }
func (v *Value) IsCmp() bool    { return v.Op == OpCmp }
func (v *Value) IsCond() bool   { return v.Op == OpCond }
func (v *Value) IsProj() bool   { return v.Op == OpProj }
func (v *Value) IsLoad() bool   { return v.Op == OpLoad }
func (v *Value) IsStore() bool  { return v.Op == OpStore }
func (v *Value) IsCall() bool   { return v.Op == OpCall }
func (v *Value) IsConst() bool  { return v.Op == OpConst }
func (v *Value) IsEnd() bool    { return v.Op == OpEnd }
func (v *Value) IsMemOp() bool  { return v.IsLoad() || v.IsStore() || v.IsCall() }

// Arity is spec.md's arity(n).
func (v *Value) Arity() int { return len(v.Args) }

// Arg is spec.md's input(n,i).
func (v *Value) Arg(i int) *Value { return v.Args[i] }

// Uses is spec.md's outs(n): every Value (or Block, via control edges
// modeled as Values) that takes v as an input.
func (v *Value) Uses() []*Value { return v.uses }

func (v *Value) addUse(user *Value) {
	v.uses = append(v.uses, user)
}

func (v *Value) removeUse(user *Value) {
	for i, u := range v.uses {
		if u == user {
			v.uses[i] = v.uses[len(v.uses)-1]
			v.uses = v.uses[:len(v.uses)-1]
			return
		}
	}
}

// SetArg replaces input i, maintaining use-lists on both the old and
// new operand. spec.md's set_input(n,i,v).
func (v *Value) SetArg(i int, w *Value) {
	old := v.Args[i]
	if old == w {
		return
	}
	if old != nil {
		old.removeUse(v)
	}
	v.Args[i] = w
	if w != nil {
		w.addUse(v)
	}
}

// SetArgs replaces the whole input list. spec.md's set_inputs(n,arr).
func (v *Value) SetArgs(args []*Value) {
	for _, old := range v.Args {
		if old != nil {
			old.removeUse(v)
		}
	}
	v.Args = append([]*Value(nil), args...)
	for _, w := range v.Args {
		if w != nil {
			w.addUse(v)
		}
	}
}

// AddArg appends an input. spec.md's add_input(n,v).
func (v *Value) AddArg(w *Value) {
	v.Args = append(v.Args, w)
	if w != nil {
		w.addUse(v)
	}
}

// PrependArg inserts an input at position 0. Ported from
// loop_unrolling.c's prepend_edge; the header rewiring in opt appends
// and sets arguments instead and does not call it.
func (v *Value) PrependArg(w *Value) {
	v.Args = append(v.Args, nil)
	copy(v.Args[1:], v.Args[:len(v.Args)-1])
	v.Args[0] = w
	if w != nil {
		w.addUse(v)
	}
}

// RemoveArg deletes input i, shifting later inputs down.
// spec.md's remove_input(n,i).
func (v *Value) RemoveArg(i int) {
	old := v.Args[i]
	if old != nil {
		old.removeUse(v)
	}
	v.Args = append(v.Args[:i], v.Args[i+1:]...)
}

// Link is the spec's link-slot getter/setter: link_slot(n) get/set.
func (v *Value) Link() *Value     { return v.scratch }
func (v *Value) SetLink(w *Value) { v.scratch = w }
