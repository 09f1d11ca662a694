// Copyright 2026 The repkg Authors
// SPDX-License-Identifier: MIT

// Package luadec provides a Cobra command that decompiles
// compiled Lua 4.0 chunks into pseudo-source.
// Each input file is decoded independently;
// nothing is shared between files, so they run concurrently.
package luadec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"zombiezen.com/go/log"

	"github.com/JohnPeel/repkg/internal/decompile"
	"github.com/JohnPeel/repkg/internal/lua40"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type options struct {
	inputFilenames []string
	outputFilename string
	list           int
	jsonTree       bool
	verbose        bool
}

// New returns a new luadec command.
func New() *cobra.Command {
	c := &cobra.Command{
		Use:                   "luadec FILE [FILE...]",
		Short:                 "decompile Lua 4.0 bytecode",
		Args:                  cobra.MinimumNArgs(1),
		DisableFlagsInUseLine: true,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := new(options)
	c.Flags().CountVarP(&opts.list, "list", "l", "print a listing of the bytecode instead of decompiling (twice for constants and locals)")
	c.Flags().StringVarP(&opts.outputFilename, "output", "o", "", "output to `filename` (\"-\" for stdout; single input only)")
	c.Flags().BoolVar(&opts.jsonTree, "json", false, "emit the parsed function tree as JSON instead of pseudo-source")
	c.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.inputFilenames = args
		initLogging(opts.verbose)
		return run(cmd.Context(), opts)
	}
	return c
}

func initLogging(verbose bool) {
	minLogLevel := log.Warn
	if verbose {
		minLogLevel = log.Debug
	}
	log.SetDefault(&log.LevelFilter{
		Min:    minLogLevel,
		Output: log.New(os.Stderr, "luadec: ", log.StdFlags, nil),
	})
}

func run(ctx context.Context, opts *options) error {
	if opts.outputFilename != "" && len(opts.inputFilenames) > 1 {
		return fmt.Errorf("cannot use --output with %d inputs", len(opts.inputFilenames))
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range opts.inputFilenames {
		name := name
		g.Go(func() error {
			if err := processFile(ctx, name, opts); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func processFile(ctx context.Context, name string, opts *options) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	f, header, err := lua40.DecodeHeader(data)
	if err != nil {
		return err
	}
	log.Debugf(ctx, "%s: %v-endian chunk, %d-byte instructions, %d/%d/%d bit fields",
		name, endianName(header), header.InstructionSize,
		header.InstructionBits, header.OpCodeBits, header.BBits)

	var out strings.Builder
	switch {
	case opts.jsonTree:
		tree, err := json.MarshalIndent(f, "", "  ")
		if err != nil {
			return err
		}
		out.Write(tree)
		out.WriteByte('\n')
	case opts.list > 0:
		functionNames := make(map[*lua40.Function]string)
		nameFunctions(functionNames, f)
		if err := listFunction(&out, f, functionNames, opts.list > 1); err != nil {
			return err
		}
	default:
		if err := writeSource(ctx, &out, name, f); err != nil {
			return err
		}
	}

	outputName := opts.outputFilename
	if outputName == "" {
		outputName = luaFilename(name)
	}
	if outputName == "-" {
		_, err := os.Stdout.WriteString(out.String())
		return err
	}
	return os.WriteFile(outputName, []byte(out.String()), 0o666)
}

// writeSource renders f statement by statement.
// A statement the generator cannot model degrades to a placeholder
// comment instead of failing the whole file;
// parse and tree-builder failures are fatal per chunk.
func writeSource(ctx context.Context, out *strings.Builder, name string, f *lua40.Function) error {
	forest, err := decompile.BuildForest(f.Code)
	if err != nil {
		return err
	}
	for _, node := range forest {
		text, err := decompile.Render(f, node)
		if err != nil {
			var unsupported *decompile.UnsupportedOpcodeError
			if !errors.As(err, &unsupported) {
				return err
			}
			log.Warnf(ctx, "%s: %v", name, err)
			text = fmt.Sprintf("--[[ unsupported: %v ]]", node.Instruction)
		}
		if text == "" {
			continue
		}
		log.Debugf(ctx, "%s: %v -> %d instruction(s)", name, node.Instruction, node.InstructionCount())
		out.WriteString(text)
		out.WriteByte('\n')
	}
	return nil
}

// luaFilename places the generated source next to the input,
// replacing the input's extension.
func luaFilename(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".lua"
}

func endianName(h lua40.Header) string {
	if h.ByteOrder.String() == "LittleEndian" {
		return "little"
	}
	return "big"
}
