// Copyright 2026 The repkg Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/JohnPeel/repkg/internal/luadec"
)

func main() {
	rootCommand := luadec.New()
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "luadec:", err)
		os.Exit(1)
	}
}
