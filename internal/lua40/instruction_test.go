// Copyright 2026 The repkg Authors
// SPDX-License-Identifier: MIT

package lua40

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInstructionFields(t *testing.T) {
	for _, config := range headerConfigs {
		t.Run(config.name, func(t *testing.T) {
			h := config.h

			if got := UInstruction(h, OpGetGlobal, 7); got.OpCode() != OpGetGlobal || got.U() != 7 {
				t.Errorf("UInstruction(h, OpGetGlobal, 7) = %v %d; want GETGLOBAL 7", got.OpCode(), got.U())
			}
			for _, s := range []int{0, 1, -1, 42, -300} {
				if got := SInstruction(h, OpPushInt, s); got.OpCode() != OpPushInt || got.S() != s {
					t.Errorf("SInstruction(h, OpPushInt, %d) = %v %d; want PUSHINT %d", s, got.OpCode(), got.S(), s)
				}
			}
			if got := ABInstruction(h, OpCall, 3, 17); got.OpCode() != OpCall || got.A() != 3 || got.B() != 17 {
				t.Errorf("ABInstruction(h, OpCall, 3, 17) = %v %d %d; want CALL 3 17", got.OpCode(), got.A(), got.B())
			}
			if got := NoArgInstruction(h, OpEnd); got.OpCode() != OpEnd {
				t.Errorf("NoArgInstruction(h, OpEnd) = %v; want END", got.OpCode())
			}
		})
	}
}

// TestSignedBias pins down the excess encoding of signed operands:
// the stored value is the operand plus half the operand range.
func TestSignedBias(t *testing.T) {
	h := StandardHeader() // 32-bit instructions, 6 opcode bits
	const bias = (1<<26 - 1) >> 1

	tests := []struct {
		word uint64
		want int
	}{
		{uint64(OpJump) | bias<<6, 0},
		{uint64(OpJump) | (bias+2)<<6, 2},
		{uint64(OpJump) | (bias-5)<<6, -5},
		{uint64(OpJump), -bias},
	}
	for _, test := range tests {
		i := NewInstruction(h, test.word)
		if got := i.S(); got != test.want {
			t.Errorf("NewInstruction(h, %#x).S() = %d; want %d", test.word, got, test.want)
		}
	}
}

func TestPushCount(t *testing.T) {
	h := StandardHeader()
	tests := []struct {
		i    Instruction
		want int
	}{
		{NoArgInstruction(h, OpEnd), 0},
		{SInstruction(h, OpPushInt, 5), 1},
		{UInstruction(h, OpPushNil, 3), 3},
		{UInstruction(h, OpPushSelf, 0), 2},
		{ABInstruction(h, OpCall, 1, 0), 0},
		{ABInstruction(h, OpCall, 1, 2), 2},
		{SInstruction(h, OpLForPrep, 4), 2},
		{ABInstruction(h, OpClosure, 0, 1), 1},
		{SInstruction(h, OpJumpEqual, 2), 0},
	}
	for _, test := range tests {
		if got := test.i.PushCount(); got != test.want {
			t.Errorf("(%v).PushCount() = %d; want %d", test.i, got, test.want)
		}
	}
}

func TestPopCount(t *testing.T) {
	h := StandardHeader()
	tests := []struct {
		i    Instruction
		want int
		ok   bool
	}{
		{NoArgInstruction(h, OpEnd), 0, true},
		{SInstruction(h, OpPushInt, 5), 0, true},
		{UInstruction(h, OpPop, 2), 2, true},
		{UInstruction(h, OpReturn, 1), 1, true},
		{UInstruction(h, OpConcat, 3), 3, true},
		{ABInstruction(h, OpSetTable, 1, 3), 3, true},
		{ABInstruction(h, OpClosure, 0, 2), 2, true},
		// A arguments plus the called value.
		{ABInstruction(h, OpCall, 2, 1), 3, true},
		{ABInstruction(h, OpCall, 0, 0), 1, true},
		{SInstruction(h, OpForLoop, -2), 3, true},
		{NoArgInstruction(h, OpGetTable), 2, true},

		{ABInstruction(h, OpSetList, 0, 4), 0, false},
		{UInstruction(h, OpSetMap, 2), 0, false},
		{ABInstruction(h, OpTailCall, 1, 0), 0, false},
	}
	for _, test := range tests {
		got, ok := test.i.PopCount()
		if got != test.want || ok != test.ok {
			t.Errorf("(%v).PopCount() = %d, %t; want %d, %t", test.i, got, ok, test.want, test.ok)
		}
	}
}

func TestIsJump(t *testing.T) {
	jumps := map[OpCode]bool{
		OpJumpNotEqual:         true,
		OpJumpEqual:            true,
		OpJumpLessThan:         true,
		OpJumpLessThanEqual:    true,
		OpJumpGreaterThan:      true,
		OpJumpGreaterThanEqual: true,
		OpJumpIfTrue:           true,
		OpJumpIfFalse:          true,
		OpJumpOnTrue:           true,
		OpJumpOnFalse:          true,
		OpJump:                 true,
	}
	for op := OpEnd; op <= maxOpCode; op++ {
		if got := op.IsJump(); got != jumps[op] {
			t.Errorf("%v.IsJump() = %t; want %t", op, got, jumps[op])
		}
	}
	// PUSHNILJMP and the for-loop preparations transfer control
	// but do not carry a jump offset operand.
	for _, op := range []OpCode{OpPushNilJump, OpForPrep, OpForLoop, OpLForPrep, OpLForLoop} {
		if op.IsJump() {
			t.Errorf("%v.IsJump() = true; want false", op)
		}
	}
}

func TestOpCodeIsValid(t *testing.T) {
	for op := OpEnd; op <= maxOpCode; op++ {
		if !op.IsValid() {
			t.Errorf("%v.IsValid() = false; want true", op)
		}
	}
	for _, op := range []OpCode{maxOpCode + 1, 63, 255} {
		if op.IsValid() {
			t.Errorf("OpCode(%d).IsValid() = true; want false", uint8(op))
		}
	}
}

func TestInstructionString(t *testing.T) {
	h := StandardHeader()
	tests := []struct {
		i    Instruction
		want string
	}{
		{NoArgInstruction(h, OpEnd), "END"},
		{UInstruction(h, OpGetGlobal, 2), "GETGLOBAL 2"},
		{SInstruction(h, OpPushInt, -7), "PUSHINT -7"},
		{ABInstruction(h, OpCall, 1, 0), "CALL 1 0"},
		{NewInstruction(h, 63), "OpCode(63)"},
	}
	for _, test := range tests {
		if got := test.i.String(); got != test.want {
			t.Errorf("Instruction.String() = %q; want %q", got, test.want)
		}
	}
}

func TestInstructionMarshalJSON(t *testing.T) {
	h := StandardHeader()
	tests := []struct {
		i    Instruction
		want string
	}{
		{NoArgInstruction(h, OpEnd), `{"op":"END"}`},
		{UInstruction(h, OpPushString, 3), `{"op":"PUSHSTRING","u":3}`},
		{SInstruction(h, OpPushInt, -1), `{"op":"PUSHINT","s":-1}`},
		{ABInstruction(h, OpCall, 2, 1), `{"op":"CALL","a":2,"b":1}`},
	}
	for _, test := range tests {
		got, err := test.i.MarshalJSON()
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(test.want, string(got)); diff != "" {
			t.Errorf("MarshalJSON() (-want +got):\n%s", diff)
		}
	}
}
