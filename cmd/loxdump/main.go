package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rmay/loxvm/pkg/lang"
	"github.com/rmay/loxvm/pkg/vm"
)

func main() {
	flag.Parse()

	if len(flag.Args()) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: loxdump <file.lox>")
		os.Exit(64)
	}

	path := flag.Args()[0]
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not read file \"%s\".\n", path)
		os.Exit(74)
	}

	machine := vm.NewVM()
	fn, err := lang.Compile(string(source), machine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(65)
	}

	dump(fn, path)
}

func dump(fn *vm.ObjFunction, name string) {
	vm.Disassemble(os.Stdout, fn.Chunk, name)
	for _, c := range fn.Chunk.Constants {
		if c.IsFunction() {
			inner := c.AsFunction()
			name := "<script>"
			if inner.Name != nil {
				name = inner.Name.Chars
			}
			dump(inner, name)
		}
	}
}
