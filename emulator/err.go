package emulator

import (
	"errors"

	"github.com/ezrec/vica/cpu"
	"github.com/ezrec/vica/translate"
)

var f = translate.From

var (
	ErrStepLimitReached = errors.New(f("step limit reached"))
	ErrStalled          = errors.New(f("program stalled"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %d %v", err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrStepLimit is returned by Run when the step budget is exhausted
// before the program halts.
type ErrStepLimit struct {
	Steps  int
	LineNo int
}

func (err *ErrStepLimit) Error() string {
	return f("line %d: stopped after %v steps", err.LineNo, err.Steps)
}

func (err *ErrStepLimit) Is(target error) bool {
	return target == ErrStepLimitReached
}

// ErrStall is an instruction, other than a jump, that did not move pp.
type ErrStall struct {
	Pp          uint32
	Instruction cpu.Instruction
}

func (err *ErrStall) Error() string {
	return f("pp 0x%04x %v: program stalled", err.Pp, err.Instruction)
}

func (err *ErrStall) Is(target error) bool {
	return target == ErrStalled
}
