// Copyright 2026 The repkg Authors
// SPDX-License-Identifier: MIT

package decompile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JohnPeel/repkg/internal/lua40"
)

// UnsupportedOpcodeError reports a node the generator has no rendering for.
// It is recoverable per node: callers may skip the statement or emit a
// placeholder, but must not invent semantics for it.
type UnsupportedOpcodeError struct {
	Op   lua40.OpCode
	Node *Node
}

func (e *UnsupportedOpcodeError) Error() string {
	if n := e.Node; n != nil && len(n.Children) > 0 {
		return fmt.Sprintf("decompile: unsupported opcode %v (%d children)", e.Op, len(n.Children))
	}
	return fmt.Sprintf("decompile: unsupported opcode %v", e.Op)
}

// Decompile builds and renders f's entire body,
// one statement per line.
// It fails on the first statement it cannot render;
// callers that want per-statement degradation should use
// [BuildForest] and [Render] directly.
func Decompile(f *lua40.Function) (string, error) {
	forest, err := BuildForest(f.Code)
	if err != nil {
		return "", err
	}
	var lines []string
	for _, node := range forest {
		text, err := Render(f, node)
		if err != nil {
			return "", err
		}
		if text != "" {
			lines = append(lines, text)
		}
	}
	if len(lines) == 0 {
		return "", nil
	}
	return strings.Join(lines, "\n") + "\n", nil
}

// Render generates pseudo-Lua text for one statement node of f,
// depth-first, children before the node.
// Multi-line constructs (if blocks, closures) embed newlines;
// the result never ends with one.
func Render(f *lua40.Function, node *Node) (string, error) {
	return renderer{f: f}.node(node)
}

type renderer struct {
	f *lua40.Function
}

func (r renderer) node(n *Node) (string, error) {
	children := make([]string, len(n.Children))
	for i, c := range n.Children {
		var err error
		if children[i], err = r.node(c); err != nil {
			return "", err
		}
	}

	inst := n.Instruction
	op := inst.OpCode()
	if len(children) < minOperands[op] {
		return "", &UnsupportedOpcodeError{Op: op, Node: n}
	}
	switch op {
	case lua40.OpEnd:
		return "", nil

	case lua40.OpReturn:
		if len(children) == 0 {
			return "return", nil
		}
		return "return " + joinReversed(children, ", "), nil

	case lua40.OpCall:
		callee := children[len(children)-1]
		args := joinReversed(children[:len(children)-1], ", ")
		return callee + "(" + args + ")", nil

	case lua40.OpPushNil:
		nils := make([]string, inst.U())
		for i := range nils {
			nils[i] = "nil"
		}
		return strings.Join(nils, ", "), nil

	case lua40.OpPushInt:
		return strconv.Itoa(inst.S()), nil

	case lua40.OpPushString:
		s, err := r.str(inst.U())
		if err != nil {
			return "", err
		}
		return quote(s), nil

	case lua40.OpPushNumber:
		v, err := r.num(inst.U())
		if err != nil {
			return "", err
		}
		return formatNumber(v), nil

	case lua40.OpPushNegativeNumber:
		v, err := r.num(inst.U())
		if err != nil {
			return "", err
		}
		return formatNumber(-v), nil

	case lua40.OpPushUpValue:
		// Upvalue names are not recorded in 4.0 chunks.
		return fmt.Sprintf("%%upvalue_%d", inst.U()), nil

	case lua40.OpGetLocal:
		return r.localName(inst.U()), nil

	case lua40.OpGetGlobal:
		return r.str(inst.U())

	case lua40.OpGetTable:
		return children[1] + "[" + children[0] + "]", nil

	case lua40.OpGetDotted:
		field, err := r.str(inst.U())
		if err != nil {
			return "", err
		}
		return children[0] + "." + field, nil

	case lua40.OpGetIndexed:
		return children[0] + "[" + r.localName(inst.U()) + "]", nil

	case lua40.OpPushSelf:
		method, err := r.str(inst.U())
		if err != nil {
			return "", err
		}
		return children[0] + ":" + method, nil

	case lua40.OpCreateTable:
		if u := inst.U(); u > 0 {
			return fmt.Sprintf("{n=%d}", u), nil
		}
		return "{}", nil

	case lua40.OpSetLocal:
		return r.localName(inst.U()) + " = " + children[0], nil

	case lua40.OpSetGlobal:
		name, err := r.str(inst.U())
		if err != nil {
			return "", err
		}
		return name + " = " + children[0], nil

	case lua40.OpSetTable:
		// Only the single-assignment form (three consumed values) is modeled;
		// deeper forms belong to multi-assignment, a declared gap.
		if len(children) != 3 {
			return "", &UnsupportedOpcodeError{Op: op, Node: n}
		}
		return children[2] + "[" + children[1] + "] = " + children[0], nil

	case lua40.OpAdd:
		return children[1] + " + " + children[0], nil
	case lua40.OpAddInt:
		return children[0] + " + " + strconv.Itoa(inst.S()), nil
	case lua40.OpSubtract:
		return children[1] + " - " + children[0], nil
	case lua40.OpMultiply:
		return children[1] + " * " + children[0], nil
	case lua40.OpDivide:
		return children[1] + " / " + children[0], nil
	case lua40.OpPower:
		return children[1] + " ^ " + children[0], nil

	case lua40.OpConcat:
		return joinReversed(children, " .. "), nil

	case lua40.OpMinus:
		return "-" + children[0], nil
	case lua40.OpNot:
		return "not " + children[0], nil

	case lua40.OpJumpNotEqual, lua40.OpJumpEqual,
		lua40.OpJumpLessThan, lua40.OpJumpLessThanEqual,
		lua40.OpJumpGreaterThan, lua40.OpJumpGreaterThanEqual:
		// The jump fires on the negated condition to skip the guarded
		// block, so the source operator is the inversion of the jump.
		cond := children[1] + " " + invertedComparison[op] + " " + children[0]
		return ifBlock(cond, children[2:]), nil

	case lua40.OpJumpIfTrue:
		return ifBlock("not "+children[0], children[1:]), nil
	case lua40.OpJumpIfFalse:
		return ifBlock(children[0], children[1:]), nil

	case lua40.OpClosure:
		return r.closure(n, children)

	default:
		return "", &UnsupportedOpcodeError{Op: op, Node: n}
	}
}

// minOperands is the least number of consumed children each rendering
// rule indexes into. A node built from a stack-effect overshoot
// (one producer covering a multi-value pop) can arrive with fewer;
// those shapes are not modeled.
var minOperands = map[lua40.OpCode]int{
	lua40.OpCall:                 1,
	lua40.OpGetTable:             2,
	lua40.OpGetDotted:            1,
	lua40.OpGetIndexed:           1,
	lua40.OpPushSelf:             1,
	lua40.OpSetLocal:             1,
	lua40.OpSetGlobal:            1,
	lua40.OpAdd:                  2,
	lua40.OpAddInt:               1,
	lua40.OpSubtract:             2,
	lua40.OpMultiply:             2,
	lua40.OpDivide:               2,
	lua40.OpPower:                2,
	lua40.OpMinus:                1,
	lua40.OpNot:                  1,
	lua40.OpJumpNotEqual:         2,
	lua40.OpJumpEqual:            2,
	lua40.OpJumpLessThan:         2,
	lua40.OpJumpLessThanEqual:    2,
	lua40.OpJumpGreaterThan:      2,
	lua40.OpJumpGreaterThanEqual: 2,
	lua40.OpJumpIfTrue:           1,
	lua40.OpJumpIfFalse:          1,
}

var invertedComparison = map[lua40.OpCode]string{
	lua40.OpJumpNotEqual:         "==",
	lua40.OpJumpEqual:            "~=",
	lua40.OpJumpLessThan:         ">=",
	lua40.OpJumpLessThanEqual:    ">",
	lua40.OpJumpGreaterThan:      "<=",
	lua40.OpJumpGreaterThanEqual: "<",
}

// closure renders a CLOSURE instruction as a function literal,
// decompiling the referenced nested prototype for the body.
// The consumed children are the closure's upvalue expressions;
// they are captured values, not body statements, and are omitted
// from the output.
func (r renderer) closure(n *Node, children []string) (string, error) {
	protos := r.f.Constants.Functions
	index := n.Instruction.A()
	if index < 0 || index >= len(protos) {
		return "", &lua40.MalformedChunkError{Offset: index, Msg: "prototype constant out of range"}
	}
	proto := protos[index]
	inner := renderer{f: proto}

	params := make([]string, proto.NumParams)
	for i := range params {
		params[i] = inner.localName(i)
	}

	forest, err := BuildForest(proto.Code)
	if err != nil {
		return "", err
	}
	var body []string
	for _, stmt := range forest {
		text, err := inner.node(stmt)
		if err != nil {
			return "", err
		}
		if text != "" {
			body = append(body, text)
		}
	}

	header := "function(" + strings.Join(params, ", ") + ")"
	if len(body) == 0 {
		return header + " end", nil
	}
	return header + "\n" + indent(body) + "\nend", nil
}

func (r renderer) localName(slot int) string {
	if name, ok := r.f.LocalName(slot); ok {
		return name
	}
	return fmt.Sprintf("local_%d", slot)
}

func (r renderer) str(index int) (string, error) {
	pool := r.f.Constants.Strings
	if index < 0 || index >= len(pool) {
		return "", &lua40.MalformedChunkError{Offset: index, Msg: "string constant out of range"}
	}
	return pool[index], nil
}

func (r renderer) num(index int) (float64, error) {
	pool := r.f.Constants.Numbers
	if index < 0 || index >= len(pool) {
		return 0, &lua40.MalformedChunkError{Offset: index, Msg: "number constant out of range"}
	}
	return pool[index], nil
}

// joinReversed joins rendered values back into program order:
// children are stored most recently pushed first.
func joinReversed(values []string, sep string) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	}
	var sb strings.Builder
	for i := len(values) - 1; i >= 0; i-- {
		if i < len(values)-1 {
			sb.WriteString(sep)
		}
		sb.WriteString(values[i])
	}
	return sb.String()
}

func ifBlock(cond string, body []string) string {
	header := "if (" + cond + ") then"
	var lines []string
	for _, stmt := range body {
		if stmt != "" {
			lines = append(lines, stmt)
		}
	}
	if len(lines) == 0 {
		return header + " end"
	}
	return header + "\n" + indent(lines) + "\nend"
}

// indent prefixes every line of every statement with two spaces,
// re-splitting statements that already span lines.
func indent(stmts []string) string {
	var sb strings.Builder
	first := true
	for _, stmt := range stmts {
		for _, line := range strings.Split(stmt, "\n") {
			if !first {
				sb.WriteByte('\n')
			}
			first = false
			sb.WriteString("  ")
			sb.WriteString(line)
		}
	}
	return sb.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// quote returns a double-quoted Lua string literal for s,
// escaping non-printable bytes with Lua's decimal escapes.
func quote(s string) string {
	sb := new(strings.Builder)
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' || c == '"':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c < 0x20 || c == 0x7f:
			fmt.Fprintf(sb, `\%d`, c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
