// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"iter"
	"log"
	"maps"
	"math"

	"github.com/ezrec/vica/isa"
)

// STACK_SLOT is the distance push and pop move the stack pointer.
const STACK_SLOT = 4

const (
	MIN_MEMORY_SIZE = STACK_SLOT     // Room for one stack slot.
	MAX_MEMORY_SIZE = math.MaxUint32 // Every address fits in a register.
)

var _cpu_defines = map[string]string{
	"WORD_BYTES": fmt.Sprintf("%v", WORD_BYTES),
	"STACK_SLOT": fmt.Sprintf("%v", STACK_SLOT),
}

// Cpu is the simulation context of a vica machine.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	// StoreAdvancesSp selects the legacy store behavior: pp is left
	// unchanged and sp is advanced by WORD_BYTES.
	StoreAdvancesSp bool

	Memory    *Memory      // Main memory.
	Registers RegisterFile // Register bank.

	Ticks int // Instructions retired since reset.
}

// NewCpu creates a new CPU with memorySize bytes of memory, and resets it.
// memorySize is clamped to MIN_MEMORY_SIZE..MAX_MEMORY_SIZE.
func NewCpu(memorySize uint) (cpu *Cpu) {
	memorySize = min(max(memorySize, MIN_MEMORY_SIZE), MAX_MEMORY_SIZE)

	cpu = &Cpu{
		Memory: NewMemory(memorySize),
	}

	cpu.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// StackTop is the reset value of sp.
func (cpu *Cpu) StackTop() uint32 {
	return cpu.Memory.Size() - STACK_SLOT
}

// Reset the CPU state.
// - Zeros memory and all registers.
// - Zeros the tick counter.
// - Points sp at the top stack slot.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Print(f("cpu: reset"))
	}

	cpu.Memory.Reset()
	cpu.Registers.Reset()
	cpu.Registers.SetSp(cpu.StackTop())
	cpu.Ticks = 0
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	for reg, val := range cpu.Registers.All() {
		text += fmt.Sprintf("% 5s: %04X_%04X\n", reg.String(), val>>16, val&0xffff)
	}

	var flags string
	for n := range 7 {
		fl := isa.Flag(n)
		if cpu.Registers.Flag(fl) {
			flags += " " + fl.String()
		}
	}
	if len(flags) == 0 {
		flags = " -"
	}
	text += fmt.Sprintf("% 5s:%v\n", "flags", flags)

	return
}

// Step performs a single decode and execute cycle.
//
// On failure the machine state is unchanged and the returned error is an
// *ErrFault wrapping one of the Err* faults.
func (cpu *Cpu) Step() (err error) {
	pp := cpu.Registers.Pp()

	in, err := Decode(cpu.Memory, pp)
	defer func() {
		if err != nil {
			err = &ErrFault{Pp: pp, Instruction: in, Err: err}
		}
	}()
	if err != nil {
		return
	}

	if cpu.Verbose {
		log.Printf("%04x: %v", pp, in)
	}

	width := in.Op.Width()
	if width > in.Avail {
		err = MemoryFault{Addr: pp + in.Avail, Size: cpu.Memory.Size()}
		return
	}

	err = cpu.Execute(in)
	if err != nil {
		return
	}

	cpu.Ticks++

	return
}

// operands validates every register the instruction will touch.
func (cpu *Cpu) operands(info isa.OpcodeInfo, in Instruction) (err error) {
	regs := []isa.Reg{in.Rd}
	switch info.Format {
	case isa.FORMAT_RR, isa.FORMAT_RRS:
		regs = append(regs, in.Ra)
	case isa.FORMAT_RRR:
		regs = append(regs, in.Ra, in.Rb)
	}

	// div also writes the remainder to rd+1.
	if in.Op == isa.OP_DIV {
		regs = append(regs, in.Rd+1)
	}

	for _, reg := range regs {
		err = cpu.Registers.check(reg)
		if err != nil {
			return
		}
	}

	return
}

// Execute executes a single decoded instruction at the current pp.
// All checks are done before any state is changed.
func (cpu *Cpu) Execute(in Instruction) (err error) {
	info, ok := in.Op.Info()
	if !ok {
		err = IllegalInstruction(in.Op)
		return
	}

	err = cpu.operands(info, in)
	if err != nil {
		return
	}

	rf := &cpu.Registers
	reg := &rf.value
	mem := cpu.Memory

	// Non-jumps advance pp after the result is written, so a write to
	// pp is offset by the instruction width.
	advance := info.Width

	switch in.Op {
	case isa.OP_ADD:
		reg[in.Rd] = reg[in.Ra] + reg[in.Rb]
	case isa.OP_SUB:
		reg[in.Rd] = reg[in.Ra] - reg[in.Rb]
	case isa.OP_AND:
		reg[in.Rd] = reg[in.Ra] & reg[in.Rb]
	case isa.OP_OR:
		reg[in.Rd] = reg[in.Ra] | reg[in.Rb]
	case isa.OP_NOT:
		reg[in.Rd] = ^reg[in.Ra]
	case isa.OP_MV:
		reg[in.Rd] = reg[in.Ra]
	case isa.OP_SHL:
		reg[in.Rd] = reg[in.Ra] << (in.Shift() & 0x1f)
	case isa.OP_SHR:
		reg[in.Rd] = reg[in.Ra] >> (in.Shift() & 0x1f)
	case isa.OP_SHRA:
		reg[in.Rd] = uint32(int32(reg[in.Ra]) >> (in.Shift() & 0x1f))
	case isa.OP_CMP:
		// Treat as signed.
		a := int32(reg[in.Rd])
		b := int32(reg[in.Ra])
		rf.SetFlag(isa.FLAG_LESS, a < b)
		rf.SetFlag(isa.FLAG_EQUAL, a == b)
	case isa.OP_MUL:
		reg[in.Rd] += reg[in.Ra] * reg[in.Rb]
	case isa.OP_DIV:
		if reg[in.Rb] == 0 {
			err = ErrArithmetic
			return
		}
		a := int32(reg[in.Ra])
		b := int32(reg[in.Rb])
		quo, rem := a/b, a%b
		reg[in.Rd] = uint32(quo)
		reg[in.Rd+1] = uint32(rem)
	case isa.OP_LI:
		reg[in.Rd] = in.Immediate
	case isa.OP_LOAD:
		var value uint32
		value, err = mem.ReadWord(reg[in.Ra])
		if err != nil {
			return
		}
		reg[in.Rd] = value
	case isa.OP_STORE:
		err = mem.WriteWord(reg[in.Rd], reg[in.Ra])
		if err != nil {
			return
		}
		if cpu.StoreAdvancesSp {
			reg[isa.REG_SP] += WORD_BYTES
			advance = 0
		}
	case isa.OP_PUSH:
		sp := reg[isa.REG_SP] - STACK_SLOT
		value := reg[in.Rd]
		if in.Rd == isa.REG_SP {
			value = sp
		}
		err = mem.WriteWord(sp, value)
		if err != nil {
			return
		}
		reg[isa.REG_SP] = sp
	case isa.OP_POP:
		var value uint32
		value, err = mem.ReadWord(reg[isa.REG_SP])
		if err != nil {
			return
		}
		reg[in.Rd] = value
		reg[isa.REG_SP] += STACK_SLOT
	case isa.OP_JMP, isa.OP_JEQ, isa.OP_JNQ, isa.OP_JLT, isa.OP_JGE, isa.OP_JGT, isa.OP_JLE:
		if cpu.taken(in.Op) {
			reg[isa.REG_PP] = reg[in.Rd]
			advance = 0
		}
	}

	reg[isa.REG_PP] += advance

	return
}

// taken evaluates a jump predicate against fl.
func (cpu *Cpu) taken(op isa.Opcode) bool {
	less := cpu.Registers.Flag(isa.FLAG_LESS)
	equal := cpu.Registers.Flag(isa.FLAG_EQUAL)

	switch op {
	case isa.OP_JMP:
		return true
	case isa.OP_JEQ:
		return equal
	case isa.OP_JNQ:
		return !equal
	case isa.OP_JLT:
		return less
	case isa.OP_JGE:
		return !less
	case isa.OP_JGT:
		return !less && !equal
	case isa.OP_JLE:
		return less || equal
	}

	return false
}
