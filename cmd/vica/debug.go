package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ezrec/vica/cpu"
	"github.com/ezrec/vica/emulator"
)

var (
	errUnknownCommand = errors.New("unknown command")
	errUsage          = errors.New("usage")
)

// console is the interactive debugger.
type console struct {
	*emulator.Emulator
	Steps  int       // Budget for 'continue'.
	Output io.Writer // Command output.
}

var consoleHelp = `step [n]           execute n instructions (default 1)
continue           run until halt, fault or the step budget
regs               show the registers
mem ADDR [LEN]     dump memory
reset              reload the program
quit               leave the debugger
`

// where prints the next instruction to execute, as listed by the
// assembler, or as decoded from memory when pp is outside the listing.
func (con *console) where() {
	pp := con.Pp()
	in, ok := con.Code()
	if !ok {
		var err error
		in, err = cpu.Decode(con.Cpu.Memory, pp)
		if err != nil {
			fmt.Fprintf(con.Output, "%04x: %v\n", pp, err)
			return
		}
	}

	lineno := con.LineNo()
	if lineno == 0 {
		fmt.Fprintf(con.Output, "%04x: %v\n", pp, in)
	} else {
		fmt.Fprintf(con.Output, "%04x: %v\t; line %d\n", pp, in, lineno)
	}
}

func parseNumber(word string) (value uint32, err error) {
	val, err := strconv.ParseUint(word, 0, 32)
	if err != nil {
		return
	}
	value = uint32(val)
	return
}

// Exec runs a single console command.
func (con *console) Exec(ctx context.Context, line string) (quit bool, err error) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return
	}

	switch words[0] {
	case "quit", "exit", "q":
		quit = true
	case "help", "?":
		fmt.Fprint(con.Output, consoleHelp)
	case "step", "s":
		count := uint32(1)
		if len(words) > 1 {
			count, err = parseNumber(words[1])
			if err != nil {
				return
			}
		}
		for range count {
			var done bool
			done, err = con.Tick()
			if err != nil {
				return
			}
			if done {
				fmt.Fprintln(con.Output, "halted")
				break
			}
		}
		con.where()
	case "continue", "c":
		var steps int
		steps, err = con.Run(ctx, con.Steps)
		fmt.Fprintf(con.Output, "%v steps\n", steps)
		if err != nil {
			return
		}
		con.where()
	case "regs", "r":
		fmt.Fprint(con.Output, con.Cpu.String())
	case "mem", "m":
		if len(words) < 2 || len(words) > 3 {
			err = fmt.Errorf("%w: mem ADDR [LEN]", errUsage)
			return
		}
		var addr uint32
		length := uint32(16)
		addr, err = parseNumber(words[1])
		if err != nil {
			return
		}
		if len(words) > 2 {
			length, err = parseNumber(words[2])
			if err != nil {
				return
			}
		}
		data := con.Cpu.Memory.Bytes()
		size := uint32(len(data))
		if addr >= size {
			err = fmt.Errorf("%w: mem ADDR [LEN]", errUsage)
			return
		}
		end := min(uint64(addr)+uint64(length), uint64(size))
		fmt.Fprint(con.Output, hex.Dump(data[addr:end]))
	case "reset":
		err = con.Reset()
		if err != nil {
			return
		}
		con.where()
	default:
		err = fmt.Errorf("%w: %v", errUnknownCommand, words[0])
	}

	return
}

// Interact runs the console on the terminal until quit or end of input.
func (con *console) Interact(historyFile string) (err error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "(vica) ",
		HistoryFile: historyFile,
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("step"),
			readline.PcItem("continue"),
			readline.PcItem("regs"),
			readline.PcItem("mem"),
			readline.PcItem("reset"),
			readline.PcItem("help"),
			readline.PcItem("quit"),
		),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return
	}
	defer rl.Close()

	con.Output = rl.Stdout()
	con.where()

	for {
		var line string
		line, err = rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			err = nil
			return
		}
		if err != nil {
			return
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		quit, cmd_err := con.Exec(ctx, line)
		stop()
		if cmd_err != nil {
			fmt.Fprintln(con.Output, cmd_err)
		}
		if quit {
			return
		}
	}
}
