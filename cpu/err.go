package cpu

import (
	"errors"

	"github.com/ezrec/vica/isa"
	"github.com/ezrec/vica/translate"
)

var f = translate.From

var (
	// Execution faults
	ErrMemoryFault        = errors.New(f("memory fault"))
	ErrInvalidRegister    = errors.New(f("invalid register"))
	ErrArithmetic         = errors.New(f("arithmetic fault"))
	ErrIllegalInstruction = errors.New(f("illegal instruction"))

	// Loader errors
	ErrMalformedImage = errors.New(f("malformed image"))
)

// MemoryFault is an access outside of memory.
type MemoryFault struct {
	Addr uint32 // First offending address.
	Size uint32 // Memory size.
}

func (err MemoryFault) Error() string {
	return f("memory fault at 0x%x (size 0x%x)", err.Addr, err.Size)
}

func (err MemoryFault) Is(target error) bool {
	return target == ErrMemoryFault
}

// InvalidRegister is a decoded register index outside of the register file.
type InvalidRegister isa.Reg

func (err InvalidRegister) Error() string {
	return f("invalid register %d", byte(err))
}

func (err InvalidRegister) Is(target error) bool {
	return target == ErrInvalidRegister
}

// IllegalInstruction is an opcode with no defined transition.
type IllegalInstruction isa.Opcode

func (err IllegalInstruction) Error() string {
	return f("illegal instruction 0x%02x", byte(err))
}

func (err IllegalInstruction) Is(target error) bool {
	return target == ErrIllegalInstruction
}

// MalformedImage describes why a hex program image was rejected.
type MalformedImage struct {
	Offset int    // Character offset in the image text.
	Reason string // Human readable reason.
}

func (err MalformedImage) Error() string {
	return f("malformed image at offset %v: %v", err.Offset, err.Reason)
}

func (err MalformedImage) Is(target error) bool {
	return target == ErrMalformedImage
}

// ErrFault locates a failed step.
type ErrFault struct {
	Pp          uint32      // Program pointer of the faulting instruction.
	Instruction Instruction // Decoded instruction, if decoding succeeded.
	Err         error
}

func (err *ErrFault) Error() string {
	if err.Instruction.Avail == 0 {
		return f("pp 0x%04x: %v", err.Pp, err.Err)
	}
	return f("pp 0x%04x %v: %v", err.Pp, err.Instruction, err.Err)
}

func (err *ErrFault) Unwrap() error {
	return err.Err
}
