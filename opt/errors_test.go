package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRejectionKindString(t *testing.T) {
	cases := map[RejectionKind]string{
		ShapeRejected: "ShapeRejected",
		SizeRejected:  "SizeRejected",
		CountRejected: "CountRejected",
		ModeRejected:  "ModeRejected",
		RejectionKind(99): "UnknownRejection",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}

func TestRejectionError(t *testing.T) {
	r := &Rejection{Kind: SizeRejected, Message: "loop body exceeds budget"}
	assert.Equal(t, "SizeRejected: loop body exceeds budget", r.Error())
}
