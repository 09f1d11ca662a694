// Copyright 2026 The repkg Authors
// SPDX-License-Identifier: MIT

/*
Package decompile reconstructs statement trees from the flat
stack-machine code of a parsed [lua40.Function]
and renders them as pseudo-Lua source.

The output is best-effort: operations the renderer does not model
fail with [UnsupportedOpcodeError] rather than guessing,
and loop constructs are left as raw jump nodes.
*/
package decompile

import (
	"fmt"

	"github.com/JohnPeel/repkg/internal/lua40"
)

// Node is one reconstructed syntax element:
// an instruction together with the already-reconstructed
// sub-trees for the stack values it consumes.
//
// Children are stored in consumption order,
// most recently pushed value first.
// For an expanded forward jump, the guarded block's statements
// follow the consumed values in program order.
type Node struct {
	Instruction lua40.Instruction
	Children    []*Node
}

// InstructionCount returns the number of instructions
// folded into the node, itself included.
func (n *Node) InstructionCount() int {
	total := 1
	for _, c := range n.Children {
		total += c.InstructionCount()
	}
	return total
}

// BuildForest reconstructs the ordered top-level statement nodes
// for one function body by simulating the operand stack.
//
// Each instruction consumes pending value-producing nodes
// until their push counts cover its pop requirement
// (a single requirement may span several producers,
// as with a variadic call).
// A jump with a strictly positive signed offset additionally
// folds the jumped-over instructions in as a recursively built block,
// so conditional bodies nest instead of dangling after the jump.
//
// An unsatisfiable pop requirement, or pending values left over
// once every instruction is processed,
// is reported as a [lua40.MalformedChunkError]:
// either the chunk is corrupt or its stack effects
// do not match the model.
func BuildForest(code []lua40.Instruction) ([]*Node, error) {
	return buildForest(code, 0)
}

// buildForest is reentrant: jump bodies recurse over owned sub-slices
// with no shared cursor. base is the sub-slice's offset
// within the function's code, for diagnostics only.
func buildForest(code []lua40.Instruction, base int) ([]*Node, error) {
	var unused []*Node
	var terminated []*Node

	for i := 0; i < len(code); i++ {
		inst := code[i]
		op := inst.OpCode()
		pop, ok := inst.PopCount()
		if !ok {
			return nil, &UnsupportedOpcodeError{Op: op, Node: &Node{Instruction: inst}}
		}

		node := &Node{Instruction: inst}
		for needed := pop; needed > 0; {
			if len(unused) == 0 {
				return nil, &lua40.MalformedChunkError{
					Offset: base + i,
					Msg:    fmt.Sprintf("instruction %d (%v) consumes %d more values than produced", base+i, inst, needed),
				}
			}
			producer := unused[len(unused)-1]
			unused = unused[:len(unused)-1]
			needed -= producer.Instruction.PushCount()
			node.Children = append(node.Children, producer)
		}

		if op.IsJump() {
			if offset := inst.S(); offset > 0 {
				if i+offset >= len(code) {
					return nil, &lua40.MalformedChunkError{
						Offset: base + i,
						Msg:    fmt.Sprintf("instruction %d (%v) jumps past end of block", base+i, inst),
					}
				}
				body, err := buildForest(code[i+1:i+1+offset], base+i+1)
				if err != nil {
					return nil, err
				}
				node.Children = append(node.Children, body...)
				i += offset
			}
		}

		if inst.PushCount() > 0 {
			unused = append(unused, node)
		} else {
			terminated = append(terminated, node)
		}
	}

	if len(unused) > 0 {
		return nil, &lua40.MalformedChunkError{
			Offset: base + len(code),
			Msg:    fmt.Sprintf("%d unconsumed values left on the stack", len(unused)),
		}
	}
	return terminated, nil
}
