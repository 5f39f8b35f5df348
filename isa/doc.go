// Package isa describes the vica instruction set contract shared by the
// emulator and the assembler.
//
// The tables in this package are plain data: stable opcode numbers, register
// indices and flag bit positions. The execution engine dispatches on the
// numeric values and never on mnemonic strings, so the tables may be
// consulted by tools (assemblers, disassemblers, debuggers) without pulling
// in any execution semantics.
package isa

// ContractVersion identifies the revision of the opcode and register tables.
// Any renumbering of an existing entry must bump it.
const ContractVersion = 1
