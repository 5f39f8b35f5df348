package isa

import (
	"fmt"
)

// Opcode is the numeric code in byte 0 of every instruction.
type Opcode byte

const (
	OP_ADD   = Opcode(0)  // add
	OP_AND   = Opcode(1)  // and
	OP_CMP   = Opcode(2)  // cmp
	OP_DIV   = Opcode(3)  // div
	OP_JEQ   = Opcode(4)  // jeq
	OP_JGE   = Opcode(5)  // jge
	OP_JGT   = Opcode(6)  // jgt
	OP_JLE   = Opcode(7)  // jle
	OP_JLT   = Opcode(8)  // jlt
	OP_JMP   = Opcode(9)  // jmp
	OP_JNQ   = Opcode(10) // jnq
	OP_LI    = Opcode(11) // li
	OP_LOAD  = Opcode(12) // load
	OP_MUL   = Opcode(13) // mul
	OP_MV    = Opcode(14) // mv
	OP_NOT   = Opcode(15) // not
	OP_OR    = Opcode(16) // or
	OP_POP   = Opcode(17) // pop
	OP_PUSH  = Opcode(18) // push
	OP_SHL   = Opcode(19) // shl
	OP_SHR   = Opcode(20) // shr
	OP_SHRA  = Opcode(21) // shra
	OP_STORE = Opcode(22) // store
	OP_SUB   = Opcode(23) // sub
)

// Format is the operand layout of an instruction.
type Format int

const (
	FORMAT_R    = Format(0) // rd
	FORMAT_RR   = Format(1) // rd, ra
	FORMAT_RRR  = Format(2) // rd, ra, rb
	FORMAT_RRS  = Format(3) // rd, ra, shift
	FORMAT_RIMM = Format(4) // rd, imm32
)

// Operands returns the number of assembler operands of the format.
func (fm Format) Operands() int {
	switch fm {
	case FORMAT_R:
		return 1
	case FORMAT_RR, FORMAT_RIMM:
		return 2
	default:
		return 3
	}
}

// OpcodeInfo is one row of the opcode table.
type OpcodeInfo struct {
	Name   string // Assembler mnemonic.
	Code   Opcode // Encoded value.
	Width  uint32 // Encoded length in bytes.
	Format Format // Operand layout.
}

// Opcodes is the opcode table, ordered by code.
var Opcodes = []OpcodeInfo{
	{"add", OP_ADD, 4, FORMAT_RRR},
	{"and", OP_AND, 4, FORMAT_RRR},
	{"cmp", OP_CMP, 3, FORMAT_RR},
	{"div", OP_DIV, 4, FORMAT_RRR},
	{"jeq", OP_JEQ, 2, FORMAT_R},
	{"jge", OP_JGE, 2, FORMAT_R},
	{"jgt", OP_JGT, 2, FORMAT_R},
	{"jle", OP_JLE, 2, FORMAT_R},
	{"jlt", OP_JLT, 2, FORMAT_R},
	{"jmp", OP_JMP, 2, FORMAT_R},
	{"jnq", OP_JNQ, 2, FORMAT_R},
	{"li", OP_LI, 6, FORMAT_RIMM},
	{"load", OP_LOAD, 3, FORMAT_RR},
	{"mul", OP_MUL, 4, FORMAT_RRR},
	{"mv", OP_MV, 3, FORMAT_RR},
	{"not", OP_NOT, 3, FORMAT_RR},
	{"or", OP_OR, 4, FORMAT_RRR},
	{"pop", OP_POP, 2, FORMAT_R},
	{"push", OP_PUSH, 2, FORMAT_R},
	{"shl", OP_SHL, 4, FORMAT_RRS},
	{"shr", OP_SHR, 4, FORMAT_RRS},
	{"shra", OP_SHRA, 4, FORMAT_RRS},
	{"store", OP_STORE, 3, FORMAT_RR},
	{"sub", OP_SUB, 4, FORMAT_RRR},
}

// MAX_WIDTH is the longest encoded instruction.
const MAX_WIDTH = 6

var opcodeByName = func() map[string]Opcode {
	names := make(map[string]Opcode, len(Opcodes))
	for _, info := range Opcodes {
		names[info.Name] = info.Code
	}
	return names
}()

// OpcodeByName looks up a mnemonic.
func OpcodeByName(name string) (op Opcode, ok bool) {
	op, ok = opcodeByName[name]
	return
}

// Info returns the table row for the opcode.
func (op Opcode) Info() (info OpcodeInfo, ok bool) {
	if int(op) >= len(Opcodes) {
		return
	}

	return Opcodes[op], true
}

// Valid returns true if the opcode has a defined transition.
func (op Opcode) Valid() bool {
	return int(op) < len(Opcodes)
}

// Width returns the encoded length, or 0 for an undefined opcode.
func (op Opcode) Width() uint32 {
	info, _ := op.Info()
	return info.Width
}

// Jump is true for jmp and the conditional jumps.
func (op Opcode) Jump() bool {
	switch op {
	case OP_JMP, OP_JEQ, OP_JNQ, OP_JLT, OP_JGE, OP_JGT, OP_JLE:
		return true
	}
	return false
}

func (op Opcode) String() string {
	info, ok := op.Info()
	if !ok {
		return fmt.Sprintf("op(%#02x)", byte(op))
	}
	return info.Name
}
