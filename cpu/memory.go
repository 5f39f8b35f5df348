package cpu

import (
	"slices"
)

// WORD_BYTES is the width of a memory word moved by load, store, push and pop.
const WORD_BYTES = 3

// WORD_MASK selects the part of a register that survives a trip through memory.
const WORD_MASK = uint32(1<<(8*WORD_BYTES) - 1)

// Memory is a fixed size, byte addressed memory.
type Memory struct {
	data []byte
}

// NewMemory allocates a zeroed memory of size bytes.
func NewMemory(size uint) *Memory {
	return &Memory{data: make([]byte, size)}
}

// Size returns the memory size in bytes.
func (mem *Memory) Size() uint32 {
	return uint32(len(mem.data))
}

// Reset zeros all of memory.
func (mem *Memory) Reset() {
	clear(mem.data)
}

// Bytes returns a copy of the memory contents.
func (mem *Memory) Bytes() []byte {
	return slices.Clone(mem.data)
}

// check validates the span [addr, addr+count).
func (mem *Memory) check(addr uint32, count uint32) (err error) {
	size := uint64(len(mem.data))
	if uint64(addr) >= size {
		return MemoryFault{Addr: addr, Size: uint32(size)}
	}
	if uint64(addr)+uint64(count) > size {
		return MemoryFault{Addr: uint32(size), Size: uint32(size)}
	}
	return
}

// Read a single byte.
func (mem *Memory) Read(addr uint32) (value byte, err error) {
	err = mem.check(addr, 1)
	if err != nil {
		return
	}

	value = mem.data[addr]
	return
}

// Write a single byte.
func (mem *Memory) Write(addr uint32, value byte) (err error) {
	err = mem.check(addr, 1)
	if err != nil {
		return
	}

	mem.data[addr] = value
	return
}

// ReadWord reads a big-endian memory word.
func (mem *Memory) ReadWord(addr uint32) (value uint32, err error) {
	err = mem.check(addr, WORD_BYTES)
	if err != nil {
		return
	}

	for n := range uint32(WORD_BYTES) {
		value = (value << 8) | uint32(mem.data[addr+n])
	}
	return
}

// WriteWord writes the low WORD_BYTES of value, big-endian.
// Nothing is written if any byte of the word is out of range.
func (mem *Memory) WriteWord(addr uint32, value uint32) (err error) {
	err = mem.check(addr, WORD_BYTES)
	if err != nil {
		return
	}

	for n := range uint32(WORD_BYTES) {
		shift := 8 * (WORD_BYTES - 1 - n)
		mem.data[addr+n] = byte(value >> shift)
	}
	return
}

// load copies image to address 0.
func (mem *Memory) load(image []byte) (err error) {
	if len(image) == 0 {
		return
	}
	err = mem.check(0, uint32(len(image)))
	if err != nil {
		return
	}

	copy(mem.data, image)
	return
}
