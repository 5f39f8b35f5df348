// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ezrec/vica/asm"
	"github.com/ezrec/vica/cpu"
	"github.com/ezrec/vica/emulator"
)

// options shared by all subcommands.
type options struct {
	memory      uint
	steps       int
	compatStore bool
	verbose     bool
	output      string
	listing     bool
	historyFile string
}

// validate checks the option ranges.
func (opts *options) validate() (err error) {
	if opts.memory < cpu.MIN_MEMORY_SIZE || uint64(opts.memory) > cpu.MAX_MEMORY_SIZE {
		err = fmt.Errorf("--memory %v: must be between %v and %v", opts.memory, cpu.MIN_MEMORY_SIZE, uint64(cpu.MAX_MEMORY_SIZE))
		return
	}
	if opts.steps < 0 {
		err = fmt.Errorf("--steps %v: must not be negative", opts.steps)
		return
	}
	return
}

// newEmulator creates an emulator configured by opts.
func (opts *options) newEmulator() (emu *emulator.Emulator) {
	emu = emulator.NewEmulator(opts.memory)
	emu.Verbose = opts.verbose
	emu.Cpu.StoreAdvancesSp = opts.compatStore
	return
}

// load reads a program into emu. Files ending in .hex are loaded as
// images, anything else is assembled.
func (opts *options) load(emu *emulator.Emulator, path string) (err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	if strings.EqualFold(filepath.Ext(path), ".hex") {
		var text []byte
		text, err = io.ReadAll(inf)
		if err != nil {
			return
		}
		var image []byte
		image, err = cpu.DecodeHex(string(text))
		if err != nil {
			return
		}
		emu.Program = &asm.Program{Statements: []asm.Statement{{Data: image}}}
	} else {
		emu.Program, err = opts.assemble(emu, inf)
		if err != nil {
			return
		}
	}

	err = emu.Reset()

	return
}

// newAssembler creates an assembler with the emulator defines visible as
// equates.
func (opts *options) newAssembler(emu *emulator.Emulator) (assembler *asm.Assembler) {
	assembler = &asm.Assembler{Verbose: opts.verbose}
	assembler.PredefineAll(emu.Defines())
	return
}

func (opts *options) assemble(emu *emulator.Emulator, input io.Reader) (prog *asm.Program, err error) {
	prog, err = opts.newAssembler(emu).Parse(input)
	return
}

func main() {
	opts := &options{}

	var rootCmd = &cobra.Command{
		Use:          "vica",
		Short:        "vica machine assembler and emulator",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.validate()
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().UintVar(&opts.memory, "memory", emulator.MEMORY_SIZE, "Memory size in bytes")
	rootCmd.PersistentFlags().IntVar(&opts.steps, "steps", 1000000, "Step budget for a run (0 is unlimited)")
	rootCmd.PersistentFlags().BoolVar(&opts.compatStore, "compat-store", false, "store leaves pp unchanged and advances sp")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose mode")

	var asmCmd = &cobra.Command{
		Use:   "asm FILE",
		Short: "Assemble a source file into a hex image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			emu := opts.newEmulator()

			inf, err := os.Open(args[0])
			if err != nil {
				return
			}
			defer inf.Close()

			assembler := opts.newAssembler(emu)
			prog, err := assembler.Parse(inf)
			if err != nil {
				return fmt.Errorf("%v: %w", args[0], err)
			}

			if opts.listing {
				fmt.Fprint(cmd.ErrOrStderr(), listing(args[0], prog, assembler.Label))
			}

			ouf := cmd.OutOrStdout()
			if opts.output != "-" {
				var file *os.File
				file, err = os.Create(opts.output)
				if err != nil {
					return
				}
				defer file.Close()
				ouf = file
			}

			_, err = fmt.Fprintln(ouf, prog.Hex())
			return
		},
	}
	asmCmd.Flags().StringVarP(&opts.output, "output", "o", "-", "Hex image output")
	asmCmd.Flags().BoolVarP(&opts.listing, "listing", "l", false, "Print a listing to stderr")

	var runCmd = &cobra.Command{
		Use:   "run FILE",
		Short: "Run a hex image or source file until it halts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			emu := opts.newEmulator()
			err = opts.load(emu, args[0])
			if err != nil {
				return fmt.Errorf("%v: %w", args[0], err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			steps, err := emu.Run(ctx, opts.steps)
			fmt.Fprint(cmd.OutOrStdout(), emu.Cpu.String())
			if opts.verbose {
				log.Printf("%v: %v steps", args[0], steps)
			}
			if err != nil {
				return fmt.Errorf("%v: %w", args[0], err)
			}

			return
		},
	}

	var debugCmd = &cobra.Command{
		Use:   "debug FILE",
		Short: "Interactively step through a hex image or source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			emu := opts.newEmulator()
			err = opts.load(emu, args[0])
			if err != nil {
				return fmt.Errorf("%v: %w", args[0], err)
			}

			con := &console{
				Emulator: emu,
				Steps:    opts.steps,
				Output:   cmd.OutOrStdout(),
			}

			return con.Interact(opts.historyFile)
		},
	}
	debugCmd.Flags().StringVar(&opts.historyFile, "history", filepath.Join(os.TempDir(), "vica_history.txt"), "Console history file")

	rootCmd.AddCommand(asmCmd, runCmd, debugCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
