package cpu

import (
	"fmt"

	"github.com/ezrec/vica/isa"
)

// Instruction is a decoded instruction.
//
// The field layout is fixed: byte 0 opcode, byte 1 rd, byte 2 ra, byte 3 rb
// (or the shift amount), and bytes 2 to 5 the big-endian immediate.
type Instruction struct {
	Op        isa.Opcode
	Rd        isa.Reg
	Ra        isa.Reg
	Rb        isa.Reg // Also the shift amount.
	Immediate uint32
	Avail     uint32 // Number of bytes present in memory, at most isa.MAX_WIDTH.
}

// Shift returns the raw shift amount of a shift instruction.
func (in Instruction) Shift() uint32 {
	return uint32(in.Rb)
}

// Decode the instruction at pp. Decoding never changes machine state.
//
// Only an out of range pp is an error; bytes past the end of memory read as
// zero and are not counted in Avail.
func Decode(mem *Memory, pp uint32) (in Instruction, err error) {
	err = mem.check(pp, 1)
	if err != nil {
		return
	}

	var raw [isa.MAX_WIDTH]byte
	for n := range uint32(isa.MAX_WIDTH) {
		addr := uint64(pp) + uint64(n)
		if addr >= uint64(len(mem.data)) {
			break
		}
		raw[n] = mem.data[addr]
		in.Avail++
	}

	in.Op = isa.Opcode(raw[0])
	in.Rd = isa.Reg(raw[1])
	in.Ra = isa.Reg(raw[2])
	in.Rb = isa.Reg(raw[3])
	for _, b := range raw[2:6] {
		in.Immediate = (in.Immediate << 8) | uint32(b)
	}

	return
}

// MakeR creates a single register instruction (push, pop, jumps).
func MakeR(op isa.Opcode, rd isa.Reg) Instruction {
	return Instruction{Op: op, Rd: rd}
}

// MakeRR creates a two register instruction.
func MakeRR(op isa.Opcode, rd, ra isa.Reg) Instruction {
	return Instruction{Op: op, Rd: rd, Ra: ra}
}

// MakeRRR creates a three register instruction.
func MakeRRR(op isa.Opcode, rd, ra, rb isa.Reg) Instruction {
	return Instruction{Op: op, Rd: rd, Ra: ra, Rb: rb}
}

// MakeShift creates a shift instruction.
func MakeShift(op isa.Opcode, rd, ra isa.Reg, shift byte) Instruction {
	return Instruction{Op: op, Rd: rd, Ra: ra, Rb: isa.Reg(shift)}
}

// MakeLi creates a load immediate instruction.
func MakeLi(rd isa.Reg, imm uint32) Instruction {
	return Instruction{
		Op:        isa.OP_LI,
		Rd:        rd,
		Ra:        isa.Reg(imm >> 24),
		Rb:        isa.Reg(imm >> 16),
		Immediate: imm,
	}
}

// Encode returns the machine code bytes of the instruction.
// Undefined opcodes encode as the single opcode byte.
func (in Instruction) Encode() []byte {
	info, ok := in.Op.Info()
	if !ok {
		return []byte{byte(in.Op)}
	}

	if info.Format == isa.FORMAT_RIMM {
		imm := in.Immediate
		return []byte{byte(in.Op), byte(in.Rd),
			byte(imm >> 24), byte(imm >> 16), byte(imm >> 8), byte(imm)}
	}

	raw := []byte{byte(in.Op), byte(in.Rd), byte(in.Ra), byte(in.Rb)}
	return raw[:info.Width]
}

// String returns the assembly language form of the instruction.
func (in Instruction) String() string {
	info, ok := in.Op.Info()
	if !ok {
		return fmt.Sprintf(".byte %#02x", byte(in.Op))
	}

	switch info.Format {
	case isa.FORMAT_R:
		return fmt.Sprintf("%v %v", info.Name, in.Rd)
	case isa.FORMAT_RR:
		return fmt.Sprintf("%v %v, %v", info.Name, in.Rd, in.Ra)
	case isa.FORMAT_RRS:
		return fmt.Sprintf("%v %v, %v, %d", info.Name, in.Rd, in.Ra, in.Shift())
	case isa.FORMAT_RIMM:
		return fmt.Sprintf("%v %v, %#x", info.Name, in.Rd, in.Immediate)
	default:
		return fmt.Sprintf("%v %v, %v, %v", info.Name, in.Rd, in.Ra, in.Rb)
	}
}
