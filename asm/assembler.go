// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/vica/cpu"
	"github.com/ezrec/vica/isa"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = func() map[string]string {
	equ := maps.Collect(isa.Defines())
	equ["LINENO"] = "0"
	equ["ISA_VERSION"] = fmt.Sprintf("%v", isa.ContractVersion)
	return equ
}()

var (
	reCharacter  = regexp.MustCompile(`'\\?[^']'`)
	reExpression = regexp.MustCompile(`\$\([^\$]*\)`)
	reLabel      = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)
)

// Assembler is a single pass macro assembler for vica.
type Assembler struct {
	Verbose   bool        // If set, verbosely logs the assembler actions.
	Statement []Statement // List of generated statements.

	predefine map[string]string   // Predefines
	Label     map[string]uint32   // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	addr      uint32 // Address of the next statement.
	expansion int    // Count of macro expansions, for local labels.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// PredefineAll predefines every equate in defines.
func (asm *Assembler) PredefineAll(defines iter.Seq2[string, string]) {
	for equ, value := range defines {
		asm.Predefine(equ, value)
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint32, err error) {
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}
	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if len(word) > 1 && word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(word[1 : len(word)-1])
		return
	}
	v64, err := strconv.ParseInt(word, 0, 33)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if v64 > 0xffffffff || v64 < -int64(0x80000000) {
		err = ErrParseNumber(word)
		return
	}
	if v64 < 0 {
		value = uint32(0xffffffff + (v64 + 1))
	} else {
		value = uint32(v64)
	}

	if invert {
		value = ^value
	}

	return
}

// register returns the register named by word.
func (asm *Assembler) register(word string) (reg isa.Reg, err error) {
	reg, ok := isa.RegByName(word)
	if !ok {
		err = fmt.Errorf("%w: %v", ErrRegisterInvalid, word)
	}
	return
}

// immediate returns the value of word. Labels that are not yet defined
// are returned for linking.
func (asm *Assembler) immediate(word string) (value uint32, link string, err error) {
	value, err = asm.valueOf(word)
	if err == nil {
		return
	}

	if !reLabel.MatchString(word) {
		return
	}

	err = nil
	value, ok := asm.Label[word]
	if !ok {
		link = word
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value32 uint32
		value32, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt64(int64(value32))
	}
	for label, addr := range asm.Label {
		pred[label] = starlark.MakeInt64(int64(addr))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint32(st_int64)
	return
}

// splitWords splits a line on spaces, tabs and commas.
func splitWords(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
}

// parseLine parses a single line into words, handling equates, labels and
// macro expansion.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reExpression.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	words = splitWords(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]uint32, 16)
		}
		asm.Label[label] = asm.addr
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		asm.expansion++
		expansion := asm.expansion

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", fmt.Sprintf("%v_%v_%v_", name, expansion, lineno))
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Statement = asm.Statement[:0]
	asm.addr = 0
	asm.expansion = 0
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := splitWords(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	st, err := asm.link()
	if err != nil {
		lineno = st.LineNo
		line = strings.Join(st.Words, " ")
		return
	}

	prog = &Program{
		Statements: slices.Clone(asm.Statement),
	}

	return
}

// link patches the li of every statement with a forward label reference.
// On failure, st is the statement that could not be linked.
func (asm *Assembler) link() (st *Statement, err error) {
	for n := range asm.Statement {
		st = &asm.Statement[n]

		if len(st.LinkLabel) == 0 {
			continue
		}
		label := st.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			err = ErrLabelMissing(label)
			return
		}
		if len(st.Codes) < 1 || st.Codes[0].Op != isa.OP_LI {
			err = fmt.Errorf("%w: %v", ErrLabelLink, label)
			return
		}
		st.Codes[0] = cpu.MakeLi(st.Codes[0].Rd, addr)
	}

	st = nil
	return
}

// parseData evaluates .byte and .word arguments.
func (asm *Assembler) parseData(width int, args []string) (data []byte, err error) {
	if len(args) == 0 {
		err = ErrOpcodeValueMissing
		return
	}
	for _, arg := range args {
		var value uint32
		value, err = asm.valueOf(arg)
		if err != nil {
			return
		}
		if width < 4 {
			limit := uint32(1) << (8 * width)
			if strings.HasPrefix(arg, "-") {
				// Negative values wrap to the directive width.
				if int64(int32(value)) < -int64(limit/2) {
					err = ErrParseNumber(arg)
					return
				}
				value &= limit - 1
			} else if value >= limit {
				err = ErrParseNumber(arg)
				return
			}
		}
		for n := width - 1; n >= 0; n-- {
			data = append(data, byte(value>>(8*n)))
		}
	}
	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []cpu.Instruction
	var data []byte
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if err != nil || (len(codes) == 0 && len(data) == 0) {
			return
		}
		st := Statement{LineNo: lineno, Addr: asm.addr, Words: initial_words, Codes: codes, Data: data, LinkLabel: label}
		asm.Statement = append(asm.Statement, st)
		asm.addr += st.Size()
	}()

	args := words[1:]

	switch words[0] {
	case ".org":
		if len(args) != 1 {
			err = ErrOpcodeValueMissing
			return
		}
		var value uint32
		value, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		if value < asm.addr {
			err = ErrOrgBackwards
			return
		}
		asm.addr = value
		return
	case ".byte":
		data, err = asm.parseData(1, args)
		return
	case ".word":
		data, err = asm.parseData(cpu.WORD_BYTES, args)
		return
	case "halt":
		// halt REG => li REG, here+6 ; jmp REG
		if len(args) != 1 {
			err = ErrOpcodeValueMissing
			return
		}
		var reg isa.Reg
		reg, err = asm.register(args[0])
		if err != nil {
			return
		}
		here := asm.addr + isa.OP_LI.Width()
		codes = append(codes, cpu.MakeLi(reg, here), cpu.MakeR(isa.OP_JMP, reg))
		return
	}

	op, ok := isa.OpcodeByName(words[0])
	if !ok {
		err = ErrInstructionInvalid
		return
	}
	info, _ := op.Info()

	need := info.Format.Operands()
	if op.Jump() && len(args) == 2 {
		// jXX REG, TARGET => li REG, TARGET ; jXX REG
		need = 2
	}
	if len(args) < need {
		err = ErrOpcodeValueMissing
		return
	}
	if len(args) > need {
		err = ErrOpcodeExtraArgs
		return
	}

	regs := make([]isa.Reg, 0, 3)
	for n, arg := range args {
		if info.Format == isa.FORMAT_RRS && n == 2 {
			break
		}
		if (info.Format == isa.FORMAT_RIMM || op.Jump()) && n == 1 {
			break
		}
		var reg isa.Reg
		reg, err = asm.register(arg)
		if err != nil {
			return
		}
		regs = append(regs, reg)
	}

	switch info.Format {
	case isa.FORMAT_R:
		if len(args) == 2 {
			var value uint32
			value, label, err = asm.immediate(args[1])
			if err != nil {
				return
			}
			codes = append(codes, cpu.MakeLi(regs[0], value))
		}
		codes = append(codes, cpu.MakeR(op, regs[0]))
	case isa.FORMAT_RR:
		codes = append(codes, cpu.MakeRR(op, regs[0], regs[1]))
	case isa.FORMAT_RRR:
		codes = append(codes, cpu.MakeRRR(op, regs[0], regs[1], regs[2]))
	case isa.FORMAT_RRS:
		var shift uint32
		shift, err = asm.valueOf(args[2])
		if err != nil {
			return
		}
		if shift > 0xff {
			err = ErrShiftRange
			return
		}
		codes = append(codes, cpu.MakeShift(op, regs[0], regs[1], byte(shift)))
	case isa.FORMAT_RIMM:
		var value uint32
		value, label, err = asm.immediate(args[1])
		if err != nil {
			return
		}
		codes = append(codes, cpu.MakeLi(regs[0], value))
	}

	return
}
