package asm

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/vica/cpu"
	"github.com/ezrec/vica/isa"
)

func parse(t *testing.T, program ...string) *Program {
	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	return prog
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Statements))
	assert.Equal(0, len(prog.Binary()))

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal("1", asm.Equate["ISA_VERSION"])
	assert.Equal("0x2", asm.Equate["FLAG_LESS"])
	assert.Equal("0x4", asm.Equate["FLAG_EQUAL"])
}

func TestAssemblerEncoding(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		line string
		code []byte
	}){
		{"add r1, r2, r3", []byte{0x00, 0x01, 0x02, 0x03}},
		{"sub r14 r0 r7", []byte{0x17, 0x0e, 0x00, 0x07}},
		{"cmp r4, r5", []byte{0x02, 0x04, 0x05}},
		{"not r1, r1", []byte{0x0f, 0x01, 0x01}},
		{"load r1, r2", []byte{0x0c, 0x01, 0x02}},
		{"store r2, r1", []byte{0x16, 0x02, 0x01}},
		{"push sp", []byte{0x12, 0x10}},
		{"pop fl", []byte{0x11, 0x11}},
		{"jmp r3", []byte{0x09, 0x03}},
		{"shl r1, r2, 4", []byte{0x13, 0x01, 0x02, 0x04}},
		{"shra r1, r2, 0x1f", []byte{0x15, 0x01, 0x02, 0x1f}},
		{"li r1, 0x12345678", []byte{0x0b, 0x01, 0x12, 0x34, 0x56, 0x78}},
		{"li r2, -1", []byte{0x0b, 0x02, 0xff, 0xff, 0xff, 0xff}},
		{"li r2, ~0", []byte{0x0b, 0x02, 0xff, 0xff, 0xff, 0xff}},
		{"li r3, 'A'", []byte{0x0b, 0x03, 0x00, 0x00, 0x00, 0x41}},
		{"li r3, '\\n'", []byte{0x0b, 0x03, 0x00, 0x00, 0x00, 0x0a}},
		{"jeq r5, 0x40", []byte{0x0b, 0x05, 0x00, 0x00, 0x00, 0x40, 0x04, 0x05}},
		{"halt r0", []byte{0x0b, 0x00, 0x00, 0x00, 0x00, 0x06, 0x09, 0x00}},
		{".byte 1 2 0xff", []byte{0x01, 0x02, 0xff}},
		{".word 0x123456, 7", []byte{0x12, 0x34, 0x56, 0x00, 0x00, 0x07}},
		{".word -1", []byte{0xff, 0xff, 0xff}},
		{".word -0x800000", []byte{0x80, 0x00, 0x00}},
		{".byte -128 -1", []byte{0x80, 0xff}},
	}

	for _, entry := range table {
		prog := parse(t, entry.line)
		assert.Equal(entry.code, prog.Binary(), entry.line)
	}
}

func TestAssemblerLabels(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"start:  li r2, 5        ; 0",
		"        li r3, 1        ; 6",
		"loop:   add r1, r1, r3  ; 12",
		"        cmp r1, r2      ; 16",
		"        jlt r4, loop    ; 19",
		"        li r5, end      ; 27",
		"end:    halt r4         ; 33",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	assert.Equal(uint32(0), asm.Label["start"])
	assert.Equal(uint32(12), asm.Label["loop"])
	assert.Equal(uint32(33), asm.Label["end"])

	assert.Equal(7, len(prog.Statements))
	assert.Equal(uint32(19), prog.Statements[4].Addr)
	assert.Equal(cpu.MakeLi(isa.REG_R4, 12), prog.Statements[4].Codes[0])
	assert.Equal(cpu.MakeR(isa.OP_JLT, isa.REG_R4), prog.Statements[4].Codes[1])

	// Forward reference is linked.
	assert.Equal("end", prog.Statements[5].LinkLabel)
	assert.Equal(cpu.MakeLi(isa.REG_R5, 33), prog.Statements[5].Codes[0])

	// halt jumps to itself.
	assert.Equal(cpu.MakeLi(isa.REG_R4, 39), prog.Statements[6].Codes[0])

	image := prog.Binary()
	assert.Equal(41, len(image))
	assert.Equal(prog.Hex()[:12], "0b0200000005")
}

func TestAssemblerEquates(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("MEMORY_SIZE", "0x100")

	program := []string{
		".equ COUNT 5",
		".equ TMP r9",
		"li TMP, $(COUNT * 2 + 1)",
		"li r1, $(MEMORY_SIZE - 4)",
		"li r2, $(FLAG_LESS | FLAG_EQUAL)",
		"li r3, LINENO",
		"here:",
		"li r4, $(here + 6)",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	codes := []cpu.Instruction{}
	for _, code := range prog.Codes() {
		codes = append(codes, code)
	}
	assert.Equal([]cpu.Instruction{
		cpu.MakeLi(isa.REG_R9, 11),
		cpu.MakeLi(isa.REG_R1, 0xfc),
		cpu.MakeLi(isa.REG_R2, 6),
		cpu.MakeLi(isa.REG_R3, 6),
		cpu.MakeLi(isa.REG_R4, 30),
	}, codes)
}

func TestAssemblerMacro(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		".macro inc REG",
		"        li r14, 1",
		"        add REG, REG, r14",
		".endm",
		".macro spin REG",
		"@top:   jmp REG, @top",
		".endm",
		"        inc r1",
		"        inc r2",
		"        spin r3",
		"        spin r4",
	}

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	assert.Equal(6, len(prog.Statements))
	assert.Equal(cpu.MakeRRR(isa.OP_ADD, isa.REG_R1, isa.REG_R1, isa.REG_R14), prog.Statements[1].Codes[0])
	assert.Equal(cpu.MakeRRR(isa.OP_ADD, isa.REG_R2, isa.REG_R2, isa.REG_R14), prog.Statements[3].Codes[0])
	assert.Equal(uint32(20), prog.Statements[4].Addr)
	assert.Equal(cpu.MakeLi(isa.REG_R3, 20), prog.Statements[4].Codes[0])

	// Each expansion gets its own local labels.
	assert.Equal(uint32(28), prog.Statements[5].Addr)
	assert.Equal(cpu.MakeLi(isa.REG_R4, 28), prog.Statements[5].Codes[0])
	assert.Equal(uint32(20), asm.Label["spin_3_6_top"])
	assert.Equal(uint32(28), asm.Label["spin_4_6_top"])

	// The expansion count restarts with each parse.
	_, err = asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	assert.Equal(uint32(20), asm.Label["spin_3_6_top"])
}

func TestAssemblerLink(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{Label: map[string]uint32{"there": 0x40}}
	asm.Statement = []Statement{
		{LineNo: 1, Codes: []cpu.Instruction{cpu.MakeLi(isa.REG_R1, 0)}, LinkLabel: "there"},
		{LineNo: 2, Codes: []cpu.Instruction{cpu.MakeR(isa.OP_PUSH, isa.REG_R1)}, LinkLabel: "there"},
	}

	// Only an li can take a linked address.
	st, err := asm.link()
	assert.True(errors.Is(err, ErrLabelLink))
	if assert.NotNil(st) {
		assert.Equal(2, st.LineNo)
	}
	assert.Equal(cpu.MakeLi(isa.REG_R1, 0x40), asm.Statement[0].Codes[0])

	asm.Statement = asm.Statement[:1]
	st, err = asm.link()
	assert.NoError(err)
	assert.Nil(st)
}

func TestAssemblerOrg(t *testing.T) {
	assert := assert.New(t)

	prog := parse(t,
		"        li r1, data",
		"        .org 0x10",
		"data:   .byte 0xaa",
	)

	image := prog.Binary()
	assert.Equal(0x11, len(image))
	assert.Equal(byte(0xaa), image[0x10])
	assert.Equal([]byte{0x0b, 0x01, 0x00, 0x00, 0x00, 0x10}, image[:6])
	assert.Equal(make([]byte, 10), image[6:0x10])
}

func TestAssemblerErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		program []string
		err     error
		lineno  int
	}){
		{"invalid", []string{"nop"}, ErrInstructionInvalid, 1},
		{"register", []string{"", "mv r1, r15"}, ErrRegisterInvalid, 2},
		{"extra", []string{"push r1 r2"}, ErrOpcodeExtraArgs, 1},
		{"missing", []string{"add r1, r2"}, ErrOpcodeValueMissing, 1},
		{"shift", []string{"shl r1, r2, 256"}, ErrShiftRange, 1},
		{"label", []string{"li r1, nowhere", "li r2, 0"}, ErrLabelMissing("nowhere"), 1},
		{"dup_label", []string{"a: li r1, 0", "a: li r1, 0"}, ErrLabelDuplicate, 2},
		{"dup_equ", []string{".equ A 1", ".equ A 2"}, ErrEquateDuplicate, 2},
		{"equ", []string{".equ A"}, ErrEquateSyntax, 1},
		{"endm", []string{".endm"}, ErrMacroLonelyEndm, 1},
		{"macro", []string{".macro x", "li r1, 0"}, ErrMacroLonely, 2},
		{"nesting", []string{".macro x", ".macro y"}, ErrMacroNesting, 2},
		{"org", []string{"li r1, 0", ".org 2"}, ErrOrgBackwards, 2},
		{"byte", []string{".byte 256"}, ErrParseNumber("256"), 1},
		{"byte_negative", []string{".byte -129"}, ErrParseNumber("-129"), 1},
		{"word_negative", []string{".word -0x800001"}, ErrParseNumber("-0x800001"), 1},
		{"number", []string{"li r1, 0x1ffffffff"}, ErrParseNumber("0x1ffffffff"), 1},
	}

	for _, entry := range table {
		asm := &Assembler{}
		_, err := asm.Parse(strings.NewReader(strings.Join(entry.program, "\n")))
		assert.True(errors.Is(err, entry.err), "%v: %v", entry.name, err)

		var syntax *ErrSyntax
		if assert.True(errors.As(err, &syntax), entry.name) {
			assert.Equal(entry.lineno, syntax.LineNo, entry.name)
		}
	}
}

func TestAssemblerMacroError(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader(strings.Join([]string{
		".macro bad",
		"mv r1, r99",
		".endm",
		"bad",
	}, "\n")))

	assert.True(errors.Is(err, ErrRegisterInvalid))
	var macro *ErrMacro
	assert.True(errors.As(err, &macro))
	assert.Equal("bad", macro.Macro)
	assert.Equal(2, macro.Line)
}
