// Copyright 2026 The repkg Authors
// SPDX-License-Identifier: MIT

//go:generate stringer -type=OpCode,OpMode -linecomment -output=instruction_string.go

package lua40

import (
	"encoding/json"
	"fmt"
)

// Instruction is a single decoded virtual machine instruction word.
// It carries the field widths from the chunk header,
// since Lua 4.0 instruction layout is configured per chunk.
type Instruction struct {
	word   uint64
	bits   uint8
	opBits uint8
	bBits  uint8
}

// NewInstruction interprets word using h's field widths.
// The opcode field is not validated;
// [Instruction.OpCode] on an out-of-range word
// returns an [OpCode] for which [OpCode.IsValid] is false.
func NewInstruction(h Header, word uint64) Instruction {
	return Instruction{
		word:   word,
		bits:   h.InstructionBits,
		opBits: h.OpCodeBits,
		bBits:  h.BBits,
	}
}

// UInstruction packs op and an unsigned operand using h's field widths.
// It panics if op's addressing mode is not [OpModeUnsigned].
func UInstruction(h Header, op OpCode, u int) Instruction {
	if op.Mode() != OpModeUnsigned {
		panic("UInstruction with invalid OpCode")
	}
	return NewInstruction(h, uint64(op)|uint64(u)<<h.OpCodeBits)
}

// SInstruction packs op and a signed operand using h's field widths.
// It panics if op's addressing mode is not [OpModeSigned].
func SInstruction(h Header, op OpCode, s int) Instruction {
	if op.Mode() != OpModeSigned {
		panic("SInstruction with invalid OpCode")
	}
	bias := int(((uint64(1) << (h.InstructionBits - h.OpCodeBits)) - 1) >> 1)
	return NewInstruction(h, uint64(op)|uint64(s+bias)<<h.OpCodeBits)
}

// ABInstruction packs op and the A and B operands using h's field widths.
// It panics if op's addressing mode is not [OpModeAB].
func ABInstruction(h Header, op OpCode, a, b int) Instruction {
	if op.Mode() != OpModeAB {
		panic("ABInstruction with invalid OpCode")
	}
	return NewInstruction(h, uint64(op)|uint64(b)<<h.OpCodeBits|uint64(a)<<(h.OpCodeBits+h.BBits))
}

// NoArgInstruction packs an operand-less op.
// It panics if op's addressing mode is not [OpModeNone].
func NoArgInstruction(h Header, op OpCode) Instruction {
	if op.Mode() != OpModeNone {
		panic("NoArgInstruction with invalid OpCode")
	}
	return NewInstruction(h, uint64(op))
}

// OpCode returns the instruction's operation,
// masked from the low opcode-width bits of the word.
func (i Instruction) OpCode() OpCode {
	return OpCode(i.word & (1<<i.opBits - 1))
}

// U returns the operand of an [OpModeUnsigned] instruction:
// the word shifted past the opcode field.
func (i Instruction) U() int {
	return int(i.word >> i.opBits)
}

// S returns the operand of an [OpModeSigned] instruction.
// Lua 4.0 stores signed immediates excess-biased around
// the midpoint of the operand range.
func (i Instruction) S() int {
	bias := ((uint64(1) << (i.bits - i.opBits)) - 1) >> 1
	return int(int64(i.word>>i.opBits) - int64(bias))
}

// A returns the first operand of an [OpModeAB] instruction:
// the bits above the opcode and B fields.
func (i Instruction) A() int {
	return int(i.word >> (i.opBits + i.bBits))
}

// B returns the second operand of an [OpModeAB] instruction.
func (i Instruction) B() int {
	return int((i.word >> i.opBits) & (1<<i.bBits - 1))
}

// PushCount returns the number of values the instruction
// pushes onto the virtual stack,
// resolving operand-dependent effects from the decoded word.
func (i Instruction) PushCount() int {
	switch e := i.OpCode().pushEffect(); e {
	case effectDelta:
		switch i.OpCode() {
		case OpPushNil:
			return i.U()
		case OpCall:
			return i.B()
		default:
			panic("unhandled push delta")
		}
	default:
		return int(e)
	}
}

// PopCount returns the number of values the instruction
// consumes from the virtual stack,
// resolving operand-dependent effects from the decoded word.
// ok is false for the operations whose stack effect is not modeled
// (SetList, SetMap, and TailCall).
func (i Instruction) PopCount() (_ int, ok bool) {
	switch e := i.OpCode().popEffect(); e {
	case effectDelta:
		switch i.OpCode() {
		case OpPop, OpConcat, OpReturn:
			return i.U(), true
		case OpSetTable, OpClosure:
			return i.B(), true
		case OpCall:
			// A arguments plus the called value.
			return i.A() + 1, true
		default:
			return 0, false
		}
	default:
		return int(e), true
	}
}

// String formats the instruction like a luac 4.0 listing:
// the mnemonic followed by its decoded operands.
func (i Instruction) String() string {
	op := i.OpCode()
	switch op.Mode() {
	case OpModeUnsigned:
		return fmt.Sprintf("%s %d", op, i.U())
	case OpModeSigned:
		return fmt.Sprintf("%s %d", op, i.S())
	case OpModeAB:
		return fmt.Sprintf("%s %d %d", op, i.A(), i.B())
	default:
		return op.String()
	}
}

// MarshalJSON emits the decoded operation and operands
// rather than the opaque word,
// so serialized prototypes stay readable across chunk encodings.
func (i Instruction) MarshalJSON() ([]byte, error) {
	op := i.OpCode()
	var v any
	switch op.Mode() {
	case OpModeUnsigned:
		v = struct {
			Op string `json:"op"`
			U  int    `json:"u"`
		}{op.String(), i.U()}
	case OpModeSigned:
		v = struct {
			Op string `json:"op"`
			S  int    `json:"s"`
		}{op.String(), i.S()}
	case OpModeAB:
		v = struct {
			Op string `json:"op"`
			A  int    `json:"a"`
			B  int    `json:"b"`
		}{op.String(), i.A(), i.B()}
	default:
		v = struct {
			Op string `json:"op"`
		}{op.String()}
	}
	return json.Marshal(v)
}

// OpCode is the closed enumeration of Lua 4.0 operations.
type OpCode uint8

// Defined [OpCode] values, in chunk encoding order.
const (
	OpEnd                  OpCode = iota // END
	OpReturn                             // RETURN
	OpCall                               // CALL
	OpTailCall                           // TAILCALL
	OpPushNil                            // PUSHNIL
	OpPop                                // POP
	OpPushInt                            // PUSHINT
	OpPushString                         // PUSHSTRING
	OpPushNumber                         // PUSHNUM
	OpPushNegativeNumber                 // PUSHNEGNUM
	OpPushUpValue                        // PUSHUPVALUE
	OpGetLocal                           // GETLOCAL
	OpGetGlobal                          // GETGLOBAL
	OpGetTable                           // GETTABLE
	OpGetDotted                          // GETDOTTED
	OpGetIndexed                         // GETINDEXED
	OpPushSelf                           // PUSHSELF
	OpCreateTable                        // CREATETABLE
	OpSetLocal                           // SETLOCAL
	OpSetGlobal                          // SETGLOBAL
	OpSetTable                           // SETTABLE
	OpSetList                            // SETLIST
	OpSetMap                             // SETMAP
	OpAdd                                // ADD
	OpAddInt                             // ADDI
	OpSubtract                           // SUB
	OpMultiply                           // MULT
	OpDivide                             // DIV
	OpPower                              // POW
	OpConcat                             // CONCAT
	OpMinus                              // MINUS
	OpNot                                // NOT
	OpJumpNotEqual                       // JMPNE
	OpJumpEqual                          // JMPEQ
	OpJumpLessThan                       // JMPLT
	OpJumpLessThanEqual                  // JMPLE
	OpJumpGreaterThan                    // JMPGT
	OpJumpGreaterThanEqual               // JMPGE
	OpJumpIfTrue                         // JMPT
	OpJumpIfFalse                        // JMPF
	OpJumpOnTrue                         // JMPONT
	OpJumpOnFalse                        // JMPONF
	OpJump                               // JMP
	OpPushNilJump                        // PUSHNILJMP
	OpForPrep                            // FORPREP
	OpForLoop                            // FORLOOP
	OpLForPrep                           // LFORPREP
	OpLForLoop                           // LFORLOOP
	OpClosure                            // CLOSURE

	maxOpCode = OpClosure
)

// IsValid reports whether the opcode names a known operation.
func (op OpCode) IsValid() bool {
	return op <= maxOpCode
}

// IsJump reports whether the instruction transfers control
// by a signed offset.
// The jump operations form a contiguous range in the opcode ordering;
// the for-loop operations are not part of it.
func (op OpCode) IsJump() bool {
	return OpJumpNotEqual <= op && op <= OpJump
}

// Mode returns the addressing mode of an instruction using the opcode.
func (op OpCode) Mode() OpMode {
	return op.props().mode
}

func (op OpCode) pushEffect() stackEffect {
	return op.props().push
}

func (op OpCode) popEffect() stackEffect {
	return op.props().pop
}

func (op OpCode) props() opInfo {
	if !op.IsValid() {
		return opInfo{}
	}
	return opProps[op]
}

// stackEffect encodes one side of an operation's stack effect:
// a non-negative value is a constant count,
// and effectDelta means the count depends on the decoded operands.
type stackEffect int8

const effectDelta stackEffect = -1

type opInfo struct {
	mode OpMode
	push stackEffect
	pop  stackEffect
}

var opProps = [...]opInfo{
	OpEnd:                  {mode: OpModeNone},
	OpReturn:               {mode: OpModeUnsigned, pop: effectDelta},
	OpCall:                 {mode: OpModeAB, push: effectDelta, pop: effectDelta},
	OpTailCall:             {mode: OpModeAB, pop: effectDelta},
	OpPushNil:              {mode: OpModeUnsigned, push: effectDelta},
	OpPop:                  {mode: OpModeUnsigned, pop: effectDelta},
	OpPushInt:              {mode: OpModeSigned, push: 1},
	OpPushString:           {mode: OpModeUnsigned, push: 1},
	OpPushNumber:           {mode: OpModeUnsigned, push: 1},
	OpPushNegativeNumber:   {mode: OpModeUnsigned, push: 1},
	OpPushUpValue:          {mode: OpModeUnsigned, push: 1},
	OpGetLocal:             {mode: OpModeUnsigned, push: 1},
	OpGetGlobal:            {mode: OpModeUnsigned, push: 1},
	OpGetTable:             {mode: OpModeNone, push: 1, pop: 2},
	OpGetDotted:            {mode: OpModeUnsigned, push: 1, pop: 1},
	OpGetIndexed:           {mode: OpModeUnsigned, push: 1, pop: 1},
	OpPushSelf:             {mode: OpModeUnsigned, push: 2, pop: 1},
	OpCreateTable:          {mode: OpModeUnsigned, push: 1},
	OpSetLocal:             {mode: OpModeUnsigned, pop: 1},
	OpSetGlobal:            {mode: OpModeUnsigned, pop: 1},
	OpSetTable:             {mode: OpModeAB, pop: effectDelta},
	OpSetList:              {mode: OpModeAB, pop: effectDelta},
	OpSetMap:               {mode: OpModeUnsigned, pop: effectDelta},
	OpAdd:                  {mode: OpModeNone, push: 1, pop: 2},
	OpAddInt:               {mode: OpModeSigned, push: 1, pop: 1},
	OpSubtract:             {mode: OpModeNone, push: 1, pop: 2},
	OpMultiply:             {mode: OpModeNone, push: 1, pop: 2},
	OpDivide:               {mode: OpModeNone, push: 1, pop: 2},
	OpPower:                {mode: OpModeNone, push: 1, pop: 2},
	OpConcat:               {mode: OpModeUnsigned, push: 1, pop: effectDelta},
	OpMinus:                {mode: OpModeNone, push: 1, pop: 1},
	OpNot:                  {mode: OpModeNone, push: 1, pop: 1},
	OpJumpNotEqual:         {mode: OpModeSigned, pop: 2},
	OpJumpEqual:            {mode: OpModeSigned, pop: 2},
	OpJumpLessThan:         {mode: OpModeSigned, pop: 2},
	OpJumpLessThanEqual:    {mode: OpModeSigned, pop: 2},
	OpJumpGreaterThan:      {mode: OpModeSigned, pop: 2},
	OpJumpGreaterThanEqual: {mode: OpModeSigned, pop: 2},
	OpJumpIfTrue:           {mode: OpModeSigned, pop: 1},
	OpJumpIfFalse:          {mode: OpModeSigned, pop: 1},
	OpJumpOnTrue:           {mode: OpModeSigned, pop: 1},
	OpJumpOnFalse:          {mode: OpModeSigned, pop: 1},
	OpJump:                 {mode: OpModeSigned},
	OpPushNilJump:          {mode: OpModeNone},
	OpForPrep:              {mode: OpModeSigned},
	OpForLoop:              {mode: OpModeSigned, pop: 3},
	OpLForPrep:             {mode: OpModeSigned, push: 2},
	OpLForLoop:             {mode: OpModeSigned, pop: 3},
	OpClosure:              {mode: OpModeAB, push: 1, pop: effectDelta},
}

// OpMode is an enumeration of instruction addressing modes:
// how the bits above the opcode field are interpreted.
type OpMode uint8

// Addressing modes.
const (
	OpModeNone     OpMode = iota // None
	OpModeUnsigned               // Unsigned
	OpModeSigned                 // Signed
	OpModeAB                     // AB
)
