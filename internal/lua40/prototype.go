// Copyright 2026 The repkg Authors
// SPDX-License-Identifier: MIT

package lua40

import "fmt"

// Local is a named stack slot with the instruction range
// over which it is live.
type Local struct {
	Name    string `json:"name"`
	StartPC int    `json:"startPC"`
	EndPC   int    `json:"endPC"`
}

// Constants is a function's constant pool.
// Instructions reference entries by index.
// Nested prototypes are owned by the pool that declares them;
// the prototype graph is a tree with no back-edges.
type Constants struct {
	Strings   []string    `json:"strings,omitempty"`
	Numbers   []float64   `json:"numbers,omitempty"`
	Functions []*Function `json:"functions,omitempty"`
}

// Function is one parsed function prototype.
type Function struct {
	Source       string        `json:"source,omitempty"`
	Line         int           `json:"line"`
	NumParams    int           `json:"numParams"`
	IsVararg     bool          `json:"isVararg,omitempty"`
	MaxStackSize int           `json:"maxStackSize"`
	Locals       []Local       `json:"locals,omitempty"`
	Lines        []int         `json:"lines,omitempty"`
	Constants    Constants     `json:"constants"`
	Code         []Instruction `json:"code"`
}

// LocalName returns the declared name of the given stack slot,
// or false if the slot is not covered by the locals table
// (parameters always are; temporaries usually are not).
func (f *Function) LocalName(slot int) (string, bool) {
	if slot < 0 || slot >= len(f.Locals) {
		return "", false
	}
	return f.Locals[slot].Name, true
}

// Decode parses a complete Lua 4.0 chunk:
// the header followed by the top-level function prototype.
// The input must contain exactly one chunk;
// trailing bytes are a [MalformedChunkError].
func Decode(data []byte) (*Function, error) {
	f, _, err := DecodeHeader(data)
	return f, err
}

// DecodeHeader is [Decode], additionally returning the chunk's
// decoded encoding parameters.
func DecodeHeader(data []byte) (*Function, Header, error) {
	r, err := newChunkReader(data)
	if err != nil {
		return nil, Header{}, err
	}
	f := new(Function)
	if err := r.function(f); err != nil {
		return nil, r.h, err
	}
	if len(r.s) != 0 {
		return nil, r.h, &MalformedChunkError{Offset: r.off, Msg: fmt.Sprintf("%d trailing bytes after top-level prototype", len(r.s))}
	}
	return f, r.h, nil
}

func (r *chunkReader) function(f *Function) error {
	var err error
	if f.Source, err = r.readString(); err != nil {
		return fmt.Errorf("function: source: %w", err)
	}
	if f.Line, err = r.readInt("line"); err != nil {
		return fmt.Errorf("function: %w", err)
	}
	if f.NumParams, err = r.readInt("parameter count"); err != nil {
		return fmt.Errorf("function: %w", err)
	}
	vararg, err := r.readByte("vararg flag")
	if err != nil {
		return fmt.Errorf("function: %w", err)
	}
	f.IsVararg = vararg != 0
	if f.MaxStackSize, err = r.readInt("max stack size"); err != nil {
		return fmt.Errorf("function: %w", err)
	}

	n, err := r.readCount("local")
	if err != nil {
		return fmt.Errorf("function: locals: %w", err)
	}
	f.Locals = make([]Local, n)
	for i := range f.Locals {
		if f.Locals[i].Name, err = r.readString(); err != nil {
			return fmt.Errorf("function: locals [%d]: name: %w", i, err)
		}
		if f.Locals[i].StartPC, err = r.readInt("local start"); err != nil {
			return fmt.Errorf("function: locals [%d]: %w", i, err)
		}
		if f.Locals[i].EndPC, err = r.readInt("local end"); err != nil {
			return fmt.Errorf("function: locals [%d]: %w", i, err)
		}
	}

	n, err = r.readCount("line")
	if err != nil {
		return fmt.Errorf("function: lines: %w", err)
	}
	f.Lines = make([]int, n)
	for i := range f.Lines {
		if f.Lines[i], err = r.readInt("line entry"); err != nil {
			return fmt.Errorf("function: lines [%d]: %w", i, err)
		}
	}

	if err := r.constants(&f.Constants); err != nil {
		return fmt.Errorf("function: %w", err)
	}

	n, err = r.readCount("instruction")
	if err != nil {
		return fmt.Errorf("function: code: %w", err)
	}
	endOffset := r.off
	f.Code = make([]Instruction, n)
	for i := range f.Code {
		endOffset = r.off
		if f.Code[i], err = r.readInstruction(); err != nil {
			return fmt.Errorf("function: code [%d]: %w", i, err)
		}
	}
	if n == 0 || f.Code[n-1].OpCode() != OpEnd {
		return &MalformedChunkError{Offset: endOffset, Msg: "function code does not end with END"}
	}

	return nil
}

func (r *chunkReader) constants(c *Constants) error {
	n, err := r.readCount("string constant")
	if err != nil {
		return fmt.Errorf("constants: strings: %w", err)
	}
	c.Strings = make([]string, n)
	for i := range c.Strings {
		if c.Strings[i], err = r.readString(); err != nil {
			return fmt.Errorf("constants: strings [%d]: %w", i, err)
		}
	}

	n, err = r.readCount("number constant")
	if err != nil {
		return fmt.Errorf("constants: numbers: %w", err)
	}
	c.Numbers = make([]float64, n)
	for i := range c.Numbers {
		if c.Numbers[i], err = r.readNumber("number constant"); err != nil {
			return fmt.Errorf("constants: numbers [%d]: %w", i, err)
		}
	}

	n, err = r.readCount("prototype")
	if err != nil {
		return fmt.Errorf("constants: prototypes: %w", err)
	}
	c.Functions = make([]*Function, n)
	for i := range c.Functions {
		fi := new(Function)
		if err := r.function(fi); err != nil {
			return fmt.Errorf("constants: prototypes [%d]: %w", i, err)
		}
		c.Functions[i] = fi
	}

	return nil
}
