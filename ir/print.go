package ir

import "fmt"

// String gives Values the compact "%N" rendering the original's DB()
// debug logging relies on (loop_unrolling.c: "%+F", "%N"), adapted to
// Go's fmt.Stringer convention so %v/%s in obslog calls read naturally.
func (v *Value) String() string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("v%d(%s)", v.ID, v.Op)
}

func (b *Block) String() string {
	if b == nil {
		return "<nil>"
	}
	return fmt.Sprintf("b%d", b.ID)
}

func (l *Loop) String() string {
	if l == nil {
		return "<nil>"
	}
	return fmt.Sprintf("loop(header=%s, depth=%d)", l.header, l.depth)
}
