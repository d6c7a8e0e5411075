// cmd/benzl/main.go
package main

import (
	"fmt"
	"os"

	"benzl/internal/repl"
)

const version = "0.1.0"

func main() {
	args := os.Args[1:]

	if len(args) == 0 {
		os.Exit(repl.Start())
	}

	switch args[0] {
	case "--version", "-v", "version":
		fmt.Println("benzl", version)
		return
	case "--help", "-h", "help":
		showUsage()
		return
	}

	os.Exit(repl.RunFile(args[0], args[1:]))
}

func showUsage() {
	fmt.Println(`benzl - an S-expression interpreter

Usage:
  benzl                   start the REPL
  benzl file.benzl [args]  load and evaluate file.benzl, binding launch-args to [args]
  benzl --version         print the version
  benzl --help            show this message`)
}
