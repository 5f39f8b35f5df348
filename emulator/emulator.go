// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/vica/asm"
	"github.com/ezrec/vica/cpu"
	"github.com/ezrec/vica/internal"
	"github.com/ezrec/vica/isa"
)

// MEMORY_SIZE is the default machine memory size, in bytes.
const MEMORY_SIZE = 65536

// Emulator state. CPU + program listing.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *asm.Program // Reference to the currently running program listing.
}

// NewEmulator creates a new emulator with memorySize bytes of memory.
func NewEmulator(memorySize uint) (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(memorySize),
		Program: &asm.Program{},
	}

	return
}

// Defines returns an iterator over all of the defines, suitable for
// asm.Assembler.PredefineAll.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	machine := map[string]string{
		"MEMORY_SIZE": fmt.Sprintf("%v", emu.Cpu.Memory.Size()),
		"STACK_TOP":   fmt.Sprintf("%v", emu.Cpu.StackTop()),
	}

	return internal.IterSeq2Concat(maps.All(machine),
		isa.Defines(),
		emu.Cpu.Defines(),
	)
}

// Reset the machine, and load the program image.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	emu.Cpu.Reset()

	image := emu.Program.Binary()
	if emu.Verbose {
		log.Print(f("emulator: loading %v bytes", len(image)))
	}

	err = emu.Cpu.Load(image)

	return
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Pp returns current program pointer.
func (emu *Emulator) Pp() uint32 {
	return emu.Cpu.Registers.Pp()
}

// Code returns the current instruction code, as listed in the program.
func (emu *Emulator) Code() (code cpu.Instruction, ok bool) {
	pp := emu.Pp()
	for addr, in := range emu.Program.Codes() {
		if addr == pp {
			return in, true
		}
	}

	return
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	return emu.Program.LineNo(emu.Pp())
}

// Tick performs a single step of the emulator.
// done is set when a jump landed on itself. Any other instruction that
// leaves pp unchanged (a store with StoreAdvancesSp, or a write to pp)
// would repeat forever and is reported as ErrStalled.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	pp := emu.Pp()
	in, _ := cpu.Decode(emu.Cpu.Memory, pp)

	err = emu.Cpu.Step()
	if err != nil {
		return
	}

	if emu.Pp() != pp {
		return
	}

	if !in.Op.Jump() {
		err = &ErrStall{Pp: pp, Instruction: in}
		return
	}

	done = true

	return
}

// Run ticks the emulator until it halts, faults, ctx is cancelled, or
// maxSteps instructions have been executed. A maxSteps of 0 is unlimited.
// steps is the number of instructions retired.
func (emu *Emulator) Run(ctx context.Context, maxSteps int) (steps int, err error) {
	start := emu.Cpu.Ticks
	defer func() {
		steps = emu.Cpu.Ticks - start
	}()

	for n := 0; maxSteps == 0 || n < maxSteps; n++ {
		err = ctx.Err()
		if err != nil {
			return
		}

		var done bool
		done, err = emu.Tick()
		if err != nil {
			return
		}

		if done {
			if emu.Verbose {
				log.Print(f("emulator: halted at pp 0x%04x", emu.Pp()))
			}
			return
		}
	}

	err = &ErrStepLimit{Steps: emu.Cpu.Ticks - start, LineNo: emu.LineNo()}

	return
}
