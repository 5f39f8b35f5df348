package isa

import (
	"fmt"
)

// Reg is a register index as encoded in the rd/ra/rb bytes.
type Reg byte

const (
	REG_R0  = Reg(0)  // r0
	REG_R1  = Reg(1)  // r1
	REG_R2  = Reg(2)  // r2
	REG_R3  = Reg(3)  // r3
	REG_R4  = Reg(4)  // r4
	REG_R5  = Reg(5)  // r5
	REG_R6  = Reg(6)  // r6
	REG_R7  = Reg(7)  // r7
	REG_R8  = Reg(8)  // r8
	REG_R9  = Reg(9)  // r9
	REG_R10 = Reg(10) // r10
	REG_R11 = Reg(11) // r11
	REG_R12 = Reg(12) // r12
	REG_R13 = Reg(13) // r13
	REG_R14 = Reg(14) // r14
	REG_PP  = Reg(15) // pp
	REG_SP  = Reg(16) // sp
	REG_FL  = Reg(17) // fl
)

// REGISTER_COUNT is the size of the register file.
const REGISTER_COUNT = 18

// RegisterInfo is one row of the register table.
type RegisterInfo struct {
	Name     string
	Index    Reg
	Reserved bool // Control register (pp, sp, fl).
}

// Registers is the register table, ordered by index.
var Registers = [REGISTER_COUNT]RegisterInfo{
	{"r0", REG_R0, false},
	{"r1", REG_R1, false},
	{"r2", REG_R2, false},
	{"r3", REG_R3, false},
	{"r4", REG_R4, false},
	{"r5", REG_R5, false},
	{"r6", REG_R6, false},
	{"r7", REG_R7, false},
	{"r8", REG_R8, false},
	{"r9", REG_R9, false},
	{"r10", REG_R10, false},
	{"r11", REG_R11, false},
	{"r12", REG_R12, false},
	{"r13", REG_R13, false},
	{"r14", REG_R14, false},
	{"pp", REG_PP, true},
	{"sp", REG_SP, true},
	{"fl", REG_FL, true},
}

var regByName = func() map[string]Reg {
	names := make(map[string]Reg, len(Registers))
	for _, info := range Registers {
		names[info.Name] = info.Index
	}
	return names
}()

// RegByName looks up a register name.
func RegByName(name string) (reg Reg, ok bool) {
	reg, ok = regByName[name]
	return
}

// Valid returns true if the index names a register.
func (reg Reg) Valid() bool {
	return reg < REGISTER_COUNT
}

// Reserved returns true for the control registers.
func (reg Reg) Reserved() bool {
	return reg.Valid() && Registers[reg].Reserved
}

func (reg Reg) String() string {
	if !reg.Valid() {
		return fmt.Sprintf("reg(%d)", byte(reg))
	}
	return Registers[reg].Name
}
