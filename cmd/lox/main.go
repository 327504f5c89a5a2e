package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"golang.org/x/term"

	"github.com/rmay/loxvm/pkg/lang"
	"github.com/rmay/loxvm/pkg/vm"
)

const (
	exitUsage        = 64
	exitCompileError = 65
	exitRuntimeError = 70
	exitReadError    = 74
)

var (
	traceFlag    = flag.Bool("trace", false, "Trace scanning, compiling, VM dispatch and GC to stderr")
	stressGCFlag = flag.Bool("stress-gc", false, "Collect garbage before every allocation")
	replRawFlag  = flag.Bool("repl-raw", false, "Read REPL input in raw terminal mode instead of line-buffered")
)

func main() {
	flag.Parse()

	args := flag.Args()
	switch {
	case len(args) == 0:
		runREPL()
	case len(args) == 1:
		runFile(args[0])
	default:
		fmt.Fprintln(os.Stderr, "Usage: lox [script]")
		os.Exit(exitUsage)
	}
}

func newMachine() *vm.VM {
	machine := vm.NewVM()
	machine.SetTrace(*traceFlag)
	machine.SetStressGC(*stressGCFlag)
	return machine
}

func runFile(path string) {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not read file \"%s\".\n", path)
		os.Exit(exitReadError)
	}

	machine := newMachine()
	switch lang.Interpret(machine, string(source), *traceFlag) {
	case vm.InterpretCompileError:
		os.Exit(exitCompileError)
	case vm.InterpretRuntimeError:
		os.Exit(exitRuntimeError)
	}
}

// lastValueWriter tees print output to the underlying writer while
// remembering the final non-empty line written, for the REPL's :copy
// meta-command.
type lastValueWriter struct {
	io.Writer
	last string
}

func (w *lastValueWriter) Write(p []byte) (int, error) {
	if line := strings.TrimRight(string(p), "\n"); line != "" {
		w.last = line
	}
	return w.Writer.Write(p)
}

func runREPL() {
	fmt.Println("lox REPL — type :help for commands, :exit to quit")

	machine := newMachine()
	out := &lastValueWriter{Writer: os.Stdout}
	machine.Stdout = out

	if *replRawFlag && term.IsTerminal(int(os.Stdin.Fd())) {
		runRawREPL(machine, out)
		return
	}
	runLineREPL(machine, out)
}

func runLineREPL(machine *vm.VM, out *lastValueWriter) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := scanner.Text()
		if handled, exit := handleMeta(line, out); handled {
			if exit {
				return
			}
			continue
		}
		lang.Interpret(machine, line, *traceFlag)
	}
}

// runRawREPL reads one line at a time in terminal raw mode, offering
// backspace editing and Ctrl-D to end input, then restores the
// terminal's previous mode before returning.
func runRawREPL(machine *vm.VM, out *lastValueWriter) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		runLineREPL(machine, out)
		return
	}
	defer term.Restore(fd, oldState)

	reader := bufio.NewReader(os.Stdin)
	var line []byte
	fmt.Print("\r\n> ")
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return
		}
		switch b {
		case 4: // Ctrl-D
			return
		case '\r', '\n':
			fmt.Print("\r\n")
			text := string(line)
			line = line[:0]
			if handled, exit := handleMeta(text, out); handled {
				if exit {
					return
				}
				fmt.Print("> ")
				continue
			}
			lang.Interpret(machine, text, *traceFlag)
			fmt.Print("\r\n> ")
		case 127, 8: // backspace
			if len(line) > 0 {
				line = line[:len(line)-1]
				fmt.Print("\b \b")
			}
		default:
			line = append(line, b)
			fmt.Printf("%c", b)
		}
	}
}

// handleMeta processes a ":"-prefixed REPL command. handled reports whether
// line was a meta-command at all; exit reports whether the REPL should stop,
// left to the caller so that deferred cleanup (raw-mode terminal restore)
// still runs instead of calling os.Exit from inside the input loop.
func handleMeta(line string, out *lastValueWriter) (handled, exit bool) {
	switch strings.TrimSpace(line) {
	case ":exit", ":quit":
		return true, true
	case ":help":
		fmt.Println("  :help         show this message")
		fmt.Println("  :copy         copy the last printed value to the clipboard")
		fmt.Println("  :exit, :quit  leave the REPL")
	case ":copy":
		if out.last == "" {
			fmt.Println("nothing printed yet")
		} else if err := clipboard.WriteAll(out.last); err != nil {
			fmt.Printf("clipboard error: %v\n", err)
		} else {
			fmt.Printf("copied: %s\n", out.last)
		}
	default:
		return false, false
	}
	return true, false
}
