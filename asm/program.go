package asm

import (
	"encoding/hex"
	"iter"

	"github.com/ezrec/vica/cpu"
)

// Statement is a line of assembled code with its source location and
// generated instructions or data.
type Statement struct {
	LineNo    int
	Addr      uint32
	Words     []string
	Codes     []cpu.Instruction
	Data      []byte
	LinkLabel string // Label to link into the immediate of Codes[0].
}

// Size returns the number of bytes the statement occupies.
func (st *Statement) Size() (size uint32) {
	for _, code := range st.Codes {
		size += code.Op.Width()
	}
	size += uint32(len(st.Data))
	return
}

// Bytes returns the encoded statement.
func (st *Statement) Bytes() (raw []byte) {
	for _, code := range st.Codes {
		raw = append(raw, code.Encode()...)
	}
	raw = append(raw, st.Data...)
	return
}

// Program is an assembled listing.
type Program struct {
	Statements []Statement
}

// Debug locates an address in the listing.
type Debug struct {
	*Statement
	Index int // Index into Codes, or -1 for data.
}

// Debug returns the statement containing addr. Statement is nil if addr
// is not part of the listing.
func (prog *Program) Debug(addr uint32) (dbg Debug) {
	for n := range prog.Statements {
		st := &prog.Statements[n]
		if addr < st.Addr || addr >= st.Addr+st.Size() {
			continue
		}
		dbg = Debug{Statement: st, Index: -1}
		at := st.Addr
		for index, code := range st.Codes {
			if addr >= at && addr < at+code.Op.Width() {
				dbg.Index = index
				break
			}
			at += code.Op.Width()
		}
		break
	}

	return
}

// LineNo returns the source line of the statement holding addr, or 0.
func (prog *Program) LineNo(addr uint32) int {
	dbg := prog.Debug(addr)
	if dbg.Statement == nil {
		return 0
	}
	return dbg.LineNo
}

// Binary returns the memory image of the program, starting at address 0.
func (prog *Program) Binary() (image []byte) {
	for _, st := range prog.Statements {
		end := st.Addr + st.Size()
		if uint32(len(image)) < end {
			image = append(image, make([]byte, int(end)-len(image))...)
		}
		copy(image[st.Addr:], st.Bytes())
	}

	return
}

// Hex returns the program image in the format accepted by cpu.LoadHex.
func (prog *Program) Hex() string {
	return hex.EncodeToString(prog.Binary())
}

// Codes iterates over the instructions of the program and their addresses.
func (prog *Program) Codes() iter.Seq2[uint32, cpu.Instruction] {
	return func(yield func(addr uint32, code cpu.Instruction) bool) {
		for _, st := range prog.Statements {
			addr := st.Addr
			for _, code := range st.Codes {
				if !yield(addr, code) {
					return
				}
				addr += code.Op.Width()
			}
		}
	}
}
