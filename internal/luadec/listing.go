// Copyright 2026 The repkg Authors
// SPDX-License-Identifier: MIT

package luadec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JohnPeel/repkg/internal/lua40"
)

// listFunction writes a luac-style listing of f and,
// recursively, of every nested prototype.
func listFunction(out *strings.Builder, f *lua40.Function, functionNames map[*lua40.Function]string, full bool) error {
	source := f.Source
	if source == "" {
		source = "(string)"
	}
	plural := func(n int, unit string, unitPlural string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %s", n, unitPlural)
	}
	vararg := ""
	if f.IsVararg {
		vararg = "+"
	}

	fmt.Fprintf(out, "\n%s <%s:%d> (%s for %s)\n",
		mainOrFunction(functionNames[f]),
		source,
		f.Line,
		plural(len(f.Code), "instruction", "instructions"),
		functionNames[f],
	)
	fmt.Fprintf(out, "%d%s params, %s, %s, %s\n",
		f.NumParams,
		vararg,
		plural(f.MaxStackSize, "slot", "slots"),
		plural(len(f.Locals), "local", "locals"),
		plural(len(f.Constants.Strings)+len(f.Constants.Numbers)+len(f.Constants.Functions), "constant", "constants"),
	)

	for pc, i := range f.Code {
		fmt.Fprintf(out, "\t%d\t", pc+1)
		if pc < len(f.Lines) {
			fmt.Fprintf(out, "[%d]\t", f.Lines[pc])
		} else {
			out.WriteString("[-]\t")
		}
		out.WriteString(i.String())

		// Contextual comments.
		switch i.OpCode() {
		case lua40.OpPushString, lua40.OpGetGlobal, lua40.OpSetGlobal,
			lua40.OpGetDotted, lua40.OpPushSelf:
			if u := i.U(); u < len(f.Constants.Strings) {
				fmt.Fprintf(out, "\t; %s", strconv.Quote(f.Constants.Strings[u]))
			}
		case lua40.OpPushNumber, lua40.OpPushNegativeNumber:
			if u := i.U(); u < len(f.Constants.Numbers) {
				fmt.Fprintf(out, "\t; %v", f.Constants.Numbers[u])
			}
		case lua40.OpGetLocal, lua40.OpSetLocal, lua40.OpGetIndexed:
			if u := i.U(); u < len(f.Locals) {
				fmt.Fprintf(out, "\t; %s", f.Locals[u].Name)
			}
		case lua40.OpClosure:
			if a := i.A(); a < len(f.Constants.Functions) {
				fmt.Fprintf(out, "\t; %s", functionNames[f.Constants.Functions[a]])
			}
		default:
			if i.OpCode().IsJump() {
				fmt.Fprintf(out, "\t; to %d", pc+2+i.S())
			}
		}
		out.WriteByte('\n')
	}

	if full {
		fmt.Fprintf(out, "constants (%d) for %s\n", len(f.Constants.Strings)+len(f.Constants.Numbers)+len(f.Constants.Functions), functionNames[f])
		for i, s := range f.Constants.Strings {
			fmt.Fprintf(out, "\tS%d\t%s\n", i, strconv.Quote(s))
		}
		for i, n := range f.Constants.Numbers {
			fmt.Fprintf(out, "\tN%d\t%v\n", i, n)
		}
		for i, p := range f.Constants.Functions {
			fmt.Fprintf(out, "\tF%d\t%s\n", i, functionNames[p])
		}

		fmt.Fprintf(out, "locals (%d) for %s\n", len(f.Locals), functionNames[f])
		for i, v := range f.Locals {
			fmt.Fprintf(out, "\t%d\t%s\t%d\t%d\n", i, v.Name, v.StartPC+1, v.EndPC+1)
		}
	}

	for _, p := range f.Constants.Functions {
		if err := listFunction(out, p, functionNames, full); err != nil {
			return err
		}
	}
	return nil
}

func mainOrFunction(name string) string {
	if name == "main" {
		return "main"
	}
	return "function"
}

// nameFunctions assigns every prototype in the tree a stable,
// listing-friendly name: main, F[0], F[0][2], and so on.
func nameFunctions(names map[*lua40.Function]string, f *lua40.Function) {
	base := names[f]
	isTop := base == ""
	if isTop {
		base = "main"
		names[f] = base
	}

	for i, p := range f.Constants.Functions {
		var name string
		if isTop {
			name = fmt.Sprintf("F[%d]", i)
		} else {
			name = fmt.Sprintf("%s[%d]", base, i)
		}
		names[p] = name
		nameFunctions(names, p)
	}
}
