package irtext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unrollir/loopunroll/ir"
)

// countingLoopSrc is spec.md §8 scenario-1's shape in the text format:
//
//	for (i = 0; i < 8; i++) { ... }
const countingLoopSrc = `
block entry plain
block preheader plain
block header if
block body plain
block exit plain

entry entry

edge entry preheader
edge preheader header
edge header body
edge header exit
edge body header

value bound entry const int auxint=8
value one entry const int auxint=1
value i0 preheader const int auxint=0

value i header phi int i0 iNext
value iNext body add int i one
value cmp header cmp int i bound rel=lt
cond header cmp

value iFinal exit phi int i
end iFinal
`

func TestParseRoundTripsCountingLoopShape(t *testing.T) {
	f, err := Parse(strings.NewReader(countingLoopSrc))
	require.NoError(t, err)
	require.NotNil(t, f)

	require.Len(t, f.Blocks, 5)
	require.NotNil(t, f.Entry)
	assert.Equal(t, ir.BlockPlain, f.Entry.Kind)

	var header, body, exit *ir.Block
	for _, b := range f.Blocks {
		if b.Kind == ir.BlockIf {
			header = b
		}
	}
	require.NotNil(t, header)
	require.NotNil(t, header.Cond)
	assert.True(t, header.Cond.IsCmp())
	assert.Equal(t, ir.Less, header.Cond.Rel)

	var phi, iNext, iFinal *ir.Value
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			switch {
			case v.IsPhi() && v.Block() == header:
				phi = v
			case v.Op == ir.OpAdd:
				iNext = v
				body = v.Block()
			case v.IsPhi() && v.Block() != header:
				iFinal = v
				exit = v.Block()
			}
		}
	}
	require.NotNil(t, phi)
	require.NotNil(t, iNext)
	require.NotNil(t, iFinal)
	require.Len(t, phi.Args, 2)
	assert.Same(t, iNext, phi.Args[1])
	require.Len(t, header.Cond.Args, 2)
	assert.Same(t, phi, header.Cond.Args[0])
	assert.Equal(t, int64(8), header.Cond.Args[1].AuxInt)

	require.NotNil(t, body)
	require.NotNil(t, exit)
	assert.Len(t, body.Preds, 1)
	assert.Same(t, header, body.Preds[0].Block())

	require.Contains(t, f.End.Args, iFinal)
}

func TestParseRejectsMalformedBlockLine(t *testing.T) {
	_, err := Parse(strings.NewReader("block onlyname\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "block wants")
}

func TestParseRejectsUnknownBlockKind(t *testing.T) {
	_, err := Parse(strings.NewReader("block b weird\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown block kind")
}

func TestParseRejectsDuplicateBlockName(t *testing.T) {
	_, err := Parse(strings.NewReader("block b plain\nblock b plain\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared twice")
}

func TestParseRejectsMalformedEdgeLine(t *testing.T) {
	_, err := Parse(strings.NewReader("block a plain\nedge a\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "edge wants")
}

func TestParseRejectsEdgeUndeclaredSource(t *testing.T) {
	_, err := Parse(strings.NewReader("block b plain\nentry b\nedge missing b\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `undeclared block "missing"`)
}

func TestParseRejectsEdgeUndeclaredTarget(t *testing.T) {
	_, err := Parse(strings.NewReader("block a plain\nentry a\nedge a missing\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `undeclared block "missing"`)
}

func TestParseRejectsMalformedEntryLine(t *testing.T) {
	_, err := Parse(strings.NewReader("entry\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry wants")
}

func TestParseRejectsMissingEntry(t *testing.T) {
	_, err := Parse(strings.NewReader("block a plain\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing entry block")
}

func TestParseRejectsUndeclaredEntryBlock(t *testing.T) {
	_, err := Parse(strings.NewReader("block a plain\nentry missing\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry block \"missing\" not declared")
}

func TestParseRejectsMalformedValueLine(t *testing.T) {
	_, err := Parse(strings.NewReader("block a plain\nentry a\nvalue v a const\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "value wants")
}

func TestParseRejectsUnknownOp(t *testing.T) {
	_, err := Parse(strings.NewReader("block a plain\nentry a\nvalue v a bogus int\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown op")
}

func TestParseRejectsUnknownType(t *testing.T) {
	_, err := Parse(strings.NewReader("block a plain\nentry a\nvalue v a const bogus\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
}

func TestParseRejectsValueUndeclaredBlock(t *testing.T) {
	_, err := Parse(strings.NewReader("block a plain\nentry a\nvalue v missing const int\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared block")
}

func TestParseRejectsDuplicateValueName(t *testing.T) {
	src := "block a plain\nentry a\nvalue v a const int\nvalue v a const int\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared twice")
}

func TestParseRejectsValueUndeclaredArg(t *testing.T) {
	src := "block a plain\nentry a\nvalue v a add int missing\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared value")
}

func TestParseRejectsBadAuxInt(t *testing.T) {
	src := "block a plain\nentry a\nvalue v a const int auxint=notanumber\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad auxint")
}

func TestParseRejectsUnknownRelation(t *testing.T) {
	src := "block a plain\nentry a\nvalue x a const int\nvalue y a const int\n" +
		"value v a cmp int x y rel=ne\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown relation")
}

func TestParseRejectsBadSize(t *testing.T) {
	src := "block a plain\nentry a\nvalue v a load int size=notanumber\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad size")
}

func TestParseRejectsValueUndeclaredAddr(t *testing.T) {
	src := "block a plain\nentry a\nvalue v a load int addr=missing\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared addr")
}

func TestParseRejectsMalformedCondLine(t *testing.T) {
	src := "block a plain\nentry a\ncond a\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cond wants")
}

func TestParseRejectsCondUndeclaredBlock(t *testing.T) {
	src := "block a plain\nentry a\nvalue v a const int\ncond missing v\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cond references undeclared block")
}

func TestParseRejectsCondUndeclaredValue(t *testing.T) {
	src := "block a plain\nentry a\ncond a missing\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cond references undeclared value")
}

func TestParseRejectsEndUndeclaredValue(t *testing.T) {
	src := "block a plain\nentry a\nend missing\n"
	_, err := Parse(strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end references undeclared value")
}

func TestParseRejectsUnknownDirective(t *testing.T) {
	_, err := Parse(strings.NewReader("bogus line here\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown directive")
}

func TestParseIgnoresBlankAndCommentLines(t *testing.T) {
	src := "# a comment\n\nblock a plain\nentry a\n\n# trailing\n"
	f, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, f.Blocks, 1)
}
