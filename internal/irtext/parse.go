// Package irtext reads the tiny line-oriented IR text format
// cmd/unroll accepts, so the command line driver has something to feed
// opt.UnrollLoops without pulling in a real compiler front end.
//
// Grammar, one directive per line (blank lines and lines starting with
// '#' are ignored):
//
//	block <name> <kind>              kind: plain | if | exit
//	edge <from> <to>
//	entry <name>
//	value <name> <block> <op> <type> [arg ...] [attr=val ...]
//	cond <block> <value>
//	end <value ...>
//
// op is one of: const param phi add sub mul conv cmp cond proj load
// store call copy. type is one of: int float ptr mem ctrl tuple. Known
// attrs: auxint=<int>, rel=<lt|le|gt|ge>, pure=true, addr=<value>,
// size=<int>. Values may reference arguments and attrs (addr=) defined
// later in the file — a back-edge Phi routinely needs to — so parsing
// happens in two passes: first every block and value name is reserved,
// then every edge/arg/attr is resolved against the now-complete name
// tables.
package irtext

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/unrollir/loopunroll/ir"
)

type rawValue struct {
	name  string
	block string
	op    string
	typ   string
	args  []string
	attrs map[string]string
}

// Parse reads the text format from r and builds an *ir.Func.
func Parse(r io.Reader) (*ir.Func, error) {
	f := ir.NewFunc("main")

	blockKinds := map[string]ir.BlockKind{}
	var blockOrder []string
	var edges [][2]string
	var entryName string
	var rawValues []rawValue
	var condLines [][2]string
	var endNames []string

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "block":
			if len(fields) != 3 {
				return nil, fmt.Errorf("irtext:%d: block wants <name> <kind>", lineNo)
			}
			kind, err := parseKind(fields[2])
			if err != nil {
				return nil, fmt.Errorf("irtext:%d: %w", lineNo, err)
			}
			if _, dup := blockKinds[fields[1]]; dup {
				return nil, fmt.Errorf("irtext:%d: block %q declared twice", lineNo, fields[1])
			}
			blockKinds[fields[1]] = kind
			blockOrder = append(blockOrder, fields[1])
		case "edge":
			if len(fields) != 3 {
				return nil, fmt.Errorf("irtext:%d: edge wants <from> <to>", lineNo)
			}
			edges = append(edges, [2]string{fields[1], fields[2]})
		case "entry":
			if len(fields) != 2 {
				return nil, fmt.Errorf("irtext:%d: entry wants <name>", lineNo)
			}
			entryName = fields[1]
		case "value":
			if len(fields) < 5 {
				return nil, fmt.Errorf("irtext:%d: value wants <name> <block> <op> <type> [...]", lineNo)
			}
			rv := rawValue{name: fields[1], block: fields[2], op: fields[3], typ: fields[4], attrs: map[string]string{}}
			for _, tok := range fields[5:] {
				if k, v, ok := strings.Cut(tok, "="); ok {
					rv.attrs[k] = v
				} else {
					rv.args = append(rv.args, tok)
				}
			}
			rawValues = append(rawValues, rv)
		case "cond":
			if len(fields) != 3 {
				return nil, fmt.Errorf("irtext:%d: cond wants <block> <value>", lineNo)
			}
			condLines = append(condLines, [2]string{fields[1], fields[2]})
		case "end":
			endNames = append(endNames, fields[1:]...)
		default:
			return nil, fmt.Errorf("irtext:%d: unknown directive %q", lineNo, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	blocks := make(map[string]*ir.Block, len(blockOrder))
	for _, name := range blockOrder {
		blocks[name] = f.NewBlock(blockKinds[name])
	}
	if entryName == "" {
		return nil, fmt.Errorf("irtext: missing entry block")
	}
	entry, ok := blocks[entryName]
	if !ok {
		return nil, fmt.Errorf("irtext: entry block %q not declared", entryName)
	}
	f.Entry = entry

	for _, e := range edges {
		from, ok := blocks[e[0]]
		if !ok {
			return nil, fmt.Errorf("irtext: edge references undeclared block %q", e[0])
		}
		to, ok := blocks[e[1]]
		if !ok {
			return nil, fmt.Errorf("irtext: edge references undeclared block %q", e[1])
		}
		ir.AddEdge(from, to)
	}

	values := make(map[string]*ir.Value, len(rawValues))
	for _, rv := range rawValues {
		op, err := parseOp(rv.op)
		if err != nil {
			return nil, fmt.Errorf("irtext: value %q: %w", rv.name, err)
		}
		typ, err := parseType(rv.typ)
		if err != nil {
			return nil, fmt.Errorf("irtext: value %q: %w", rv.name, err)
		}
		b, ok := blocks[rv.block]
		if !ok {
			return nil, fmt.Errorf("irtext: value %q references undeclared block %q", rv.name, rv.block)
		}
		if _, dup := values[rv.name]; dup {
			return nil, fmt.Errorf("irtext: value %q declared twice", rv.name)
		}
		values[rv.name] = f.NewValue(b, op, typ)
	}

	for _, rv := range rawValues {
		v := values[rv.name]
		for _, argName := range rv.args {
			arg, ok := values[argName]
			if !ok {
				return nil, fmt.Errorf("irtext: value %q references undeclared value %q", rv.name, argName)
			}
			v.AddArg(arg)
		}
		if s, ok := rv.attrs["auxint"]; ok {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("irtext: value %q: bad auxint %q: %w", rv.name, s, err)
			}
			v.AuxInt = n
		}
		if s, ok := rv.attrs["rel"]; ok {
			rel, err := parseRel(s)
			if err != nil {
				return nil, fmt.Errorf("irtext: value %q: %w", rv.name, err)
			}
			v.Rel = rel
		}
		if s, ok := rv.attrs["pure"]; ok {
			v.Pure = s == "true"
		}
		if s, ok := rv.attrs["size"]; ok {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("irtext: value %q: bad size %q: %w", rv.name, s, err)
			}
			v.Size = n
		}
		if s, ok := rv.attrs["addr"]; ok {
			addr, ok := values[s]
			if !ok {
				return nil, fmt.Errorf("irtext: value %q references undeclared addr %q", rv.name, s)
			}
			v.Addr = addr
		}
	}

	for _, c := range condLines {
		b, ok := blocks[c[0]]
		if !ok {
			return nil, fmt.Errorf("irtext: cond references undeclared block %q", c[0])
		}
		v, ok := values[c[1]]
		if !ok {
			return nil, fmt.Errorf("irtext: cond references undeclared value %q", c[1])
		}
		b.Cond = v
	}

	for _, name := range endNames {
		v, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("irtext: end references undeclared value %q", name)
		}
		f.AddKeepAlive(v)
	}

	return f, nil
}

func parseKind(s string) (ir.BlockKind, error) {
	switch s {
	case "plain":
		return ir.BlockPlain, nil
	case "if":
		return ir.BlockIf, nil
	case "exit":
		return ir.BlockExit, nil
	default:
		return 0, fmt.Errorf("unknown block kind %q", s)
	}
}

func parseOp(s string) (ir.Op, error) {
	switch s {
	case "const":
		return ir.OpConst, nil
	case "param":
		return ir.OpParam, nil
	case "phi":
		return ir.OpPhi, nil
	case "add":
		return ir.OpAdd, nil
	case "sub":
		return ir.OpSub, nil
	case "mul":
		return ir.OpMul, nil
	case "conv":
		return ir.OpConv, nil
	case "cmp":
		return ir.OpCmp, nil
	case "cond":
		return ir.OpCond, nil
	case "proj":
		return ir.OpProj, nil
	case "load":
		return ir.OpLoad, nil
	case "store":
		return ir.OpStore, nil
	case "call":
		return ir.OpCall, nil
	case "copy":
		return ir.OpCopy, nil
	default:
		return 0, fmt.Errorf("unknown op %q", s)
	}
}

func parseType(s string) (ir.Type, error) {
	switch s {
	case "int":
		return ir.TypeInt, nil
	case "float":
		return ir.TypeFloat, nil
	case "ptr":
		return ir.TypePtr, nil
	case "mem":
		return ir.TypeMem, nil
	case "ctrl":
		return ir.TypeCtrl, nil
	case "tuple":
		return ir.TypeTuple, nil
	default:
		return 0, fmt.Errorf("unknown type %q", s)
	}
}

func parseRel(s string) (ir.Relation, error) {
	switch s {
	case "lt":
		return ir.Less, nil
	case "le":
		return ir.LessEqual, nil
	case "gt":
		return ir.Greater, nil
	case "ge":
		return ir.GreaterEqual, nil
	default:
		return 0, fmt.Errorf("unknown relation %q", s)
	}
}
