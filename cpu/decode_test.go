package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/vica/isa"
)

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory(16)
	for n, b := range []byte{byte(isa.OP_ADD), 1, 2, 3, 4, 5, 6} {
		assert.NoError(mem.Write(uint32(n), b))
	}

	in, err := Decode(mem, 0)
	assert.NoError(err)
	assert.Equal(isa.OP_ADD, in.Op)
	assert.Equal(isa.REG_R1, in.Rd)
	assert.Equal(isa.REG_R2, in.Ra)
	assert.Equal(isa.REG_R3, in.Rb)
	assert.Equal(uint32(3), in.Shift())
	assert.Equal(uint32(0x02030405), in.Immediate)
	assert.Equal(uint32(isa.MAX_WIDTH), in.Avail)

	// Decoding does not touch memory.
	assert.Equal([]byte{0, 1, 2, 3, 4, 5, 6, 0, 0, 0, 0, 0, 0, 0, 0, 0}, mem.Bytes())
}

func TestDecodeEndOfMemory(t *testing.T) {
	assert := assert.New(t)

	mem := NewMemory(8)
	assert.NoError(mem.Write(6, byte(isa.OP_LI)))
	assert.NoError(mem.Write(7, byte(isa.REG_R4)))

	in, err := Decode(mem, 6)
	assert.NoError(err)
	assert.Equal(isa.OP_LI, in.Op)
	assert.Equal(isa.REG_R4, in.Rd)
	assert.Equal(uint32(0), in.Immediate)
	assert.Equal(uint32(2), in.Avail)

	_, err = Decode(mem, 8)
	assert.True(errors.Is(err, ErrMemoryFault))
}

func TestEncode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		in   Instruction
		code []byte
		text string
	}){
		{MakeRRR(isa.OP_SUB, isa.REG_R1, isa.REG_R2, isa.REG_R3), []byte{23, 1, 2, 3}, "sub r1, r2, r3"},
		{MakeRR(isa.OP_CMP, isa.REG_R4, isa.REG_R14), []byte{2, 4, 14}, "cmp r4, r14"},
		{MakeR(isa.OP_PUSH, isa.REG_FL), []byte{18, 17}, "push fl"},
		{MakeShift(isa.OP_SHRA, isa.REG_R1, isa.REG_R1, 7), []byte{21, 1, 1, 7}, "shra r1, r1, 7"},
		{MakeLi(isa.REG_SP, 0x01020304), []byte{11, 16, 1, 2, 3, 4}, "li sp, 0x1020304"},
		{Instruction{Op: 0xee}, []byte{0xee}, ".byte 0xee"},
	}

	for _, entry := range table {
		assert.Equal(entry.code, entry.in.Encode(), entry.text)
		assert.Equal(entry.text, entry.in.String())

		if !entry.in.Op.Valid() {
			continue
		}

		// Round trip through memory.
		mem := NewMemory(isa.MAX_WIDTH)
		for n, b := range entry.code {
			assert.NoError(mem.Write(uint32(n), b))
		}
		in, err := Decode(mem, 0)
		assert.NoError(err)
		assert.Equal(entry.text, in.String())
	}
}
