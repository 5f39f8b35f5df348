package cpu

import (
	"iter"

	"github.com/ezrec/vica/isa"
)

// RegisterFile is the bank of 18 machine words.
type RegisterFile struct {
	value [isa.REGISTER_COUNT]uint32
}

// Reset zeros every register.
func (rf *RegisterFile) Reset() {
	clear(rf.value[:])
}

// check validates a register index.
func (rf *RegisterFile) check(reg isa.Reg) (err error) {
	if !reg.Valid() {
		err = InvalidRegister(reg)
	}
	return
}

// Get reads a register.
func (rf *RegisterFile) Get(reg isa.Reg) (value uint32, err error) {
	err = rf.check(reg)
	if err != nil {
		return
	}

	value = rf.value[reg]
	return
}

// Set writes a register.
func (rf *RegisterFile) Set(reg isa.Reg, value uint32) (err error) {
	err = rf.check(reg)
	if err != nil {
		return
	}

	rf.value[reg] = value
	return
}

// All enumerates every register and its value, in index order.
func (rf *RegisterFile) All() iter.Seq2[isa.Reg, uint32] {
	return func(yield func(reg isa.Reg, value uint32) bool) {
		for n, value := range rf.value {
			if !yield(isa.Reg(n), value) {
				return
			}
		}
	}
}

// Pp is the program pointer.
func (rf *RegisterFile) Pp() uint32 { return rf.value[isa.REG_PP] }

// Sp is the stack pointer.
func (rf *RegisterFile) Sp() uint32 { return rf.value[isa.REG_SP] }

// Fl is the flags register.
func (rf *RegisterFile) Fl() uint32 { return rf.value[isa.REG_FL] }

// SetPp moves the program pointer.
func (rf *RegisterFile) SetPp(value uint32) { rf.value[isa.REG_PP] = value }

// SetSp moves the stack pointer.
func (rf *RegisterFile) SetSp(value uint32) { rf.value[isa.REG_SP] = value }

// Flag tests a bit in fl.
func (rf *RegisterFile) Flag(fl isa.Flag) bool {
	return rf.value[isa.REG_FL]&fl.Mask() != 0
}

// SetFlag sets or clears a bit in fl.
func (rf *RegisterFile) SetFlag(fl isa.Flag, on bool) {
	if on {
		rf.value[isa.REG_FL] |= fl.Mask()
	} else {
		rf.value[isa.REG_FL] &^= fl.Mask()
	}
}
