package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemory(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory(16)
	assert.Equal(uint32(16), mem.Size())

	assert.NoError(mem.Write(0, 0xaa))
	assert.NoError(mem.Write(15, 0x55))

	val, err := mem.Read(0)
	assert.NoError(err)
	assert.Equal(byte(0xaa), val)
	val, err = mem.Read(15)
	assert.NoError(err)
	assert.Equal(byte(0x55), val)

	_, err = mem.Read(16)
	assert.True(errors.Is(err, ErrMemoryFault))
	assert.Equal(MemoryFault{Addr: 16, Size: 16}, err)

	err = mem.Write(16, 1)
	assert.True(errors.Is(err, ErrMemoryFault))

	mem.Reset()
	assert.Equal(make([]byte, 16), mem.Bytes())
}

func TestMemoryBytesIsCopy(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory(4)
	data := mem.Bytes()
	data[0] = 0xff

	val, err := mem.Read(0)
	assert.NoError(err)
	assert.Equal(byte(0), val)
}

func TestMemoryWord(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory(8)

	assert.NoError(mem.WriteWord(2, 0xfe123456))
	assert.Equal([]byte{0, 0, 0x12, 0x34, 0x56, 0, 0, 0}, mem.Bytes())

	val, err := mem.ReadWord(2)
	assert.NoError(err)
	assert.Equal(uint32(0x123456), val)

	// Last word that fits.
	assert.NoError(mem.WriteWord(5, 0xabcdef))
	val, err = mem.ReadWord(5)
	assert.NoError(err)
	assert.Equal(uint32(0xabcdef), val)

	// Straddling the end writes nothing.
	before := mem.Bytes()
	err = mem.WriteWord(6, 0x111111)
	assert.Equal(MemoryFault{Addr: 8, Size: 8}, err)
	assert.Equal(before, mem.Bytes())

	_, err = mem.ReadWord(7)
	assert.True(errors.Is(err, ErrMemoryFault))

	_, err = mem.ReadWord(0xfffffffe)
	assert.Equal(MemoryFault{Addr: 0xfffffffe, Size: 8}, err)
}
