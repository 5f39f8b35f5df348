// Package cpu implements the execution engine for the vica instruction set.
//
// The machine has a fixed size byte addressed memory and a file of 18 32-bit
// registers, three of which are reserved: the program pointer (pp), the
// stack pointer (sp) and the flags (fl). Each call to Cpu.Step decodes the
// instruction at pp and executes it.
//
// Registers are 32 bits wide. Memory words moved by load, store, push and pop
// are 24 bits (three bytes, big-endian); stores and pushes keep the low 24
// bits of the register and loads and pops zero-extend. Stack slots are four
// bytes apart and the stack grows down from the last slot in memory.
//
// Every fault (memory, register, arithmetic, illegal instruction) aborts the
// step before any state is changed.
package cpu
