package isa

import (
	"fmt"
	"iter"
	"strings"
)

// Flag is a bit position in the fl register.
type Flag uint

// Only FLAG_LESS and FLAG_EQUAL are produced by the instruction set; the
// remaining positions are reserved.
const (
	FLAG_OVERFLOW = Flag(0) // overflow
	FLAG_LESS     = Flag(1) // less
	FLAG_EQUAL    = Flag(2) // equal
	FLAG_CIAE     = Flag(3) // ciae
	FLAG_CIBE     = Flag(4) // cibe
	FLAG_EIAE     = Flag(5) // eiae
	FLAG_EIBE     = Flag(6) // eibe
)

var flagNames = [...]string{"overflow", "less", "equal", "ciae", "cibe", "eiae", "eibe"}

// Mask returns the fl bit for the flag.
func (fl Flag) Mask() uint32 {
	return 1 << fl
}

func (fl Flag) String() string {
	if int(fl) >= len(flagNames) {
		return fmt.Sprintf("flag(%d)", uint(fl))
	}
	return flagNames[fl]
}

// Defines yields the FLAG_* masks as assembler equates.
func Defines() iter.Seq2[string, string] {
	return func(yield func(name, value string) bool) {
		for n := range flagNames {
			fl := Flag(n)
			name := "FLAG_" + strings.ToUpper(flagNames[n])
			if !yield(name, fmt.Sprintf("0x%x", fl.Mask())) {
				return
			}
		}
	}
}
