// main.go - Command-line entry point for the scheduler emulator.
//
// Grounded on main.go's shape: a banner print, then hand off to an
// interactive front end reading from stdin. The original front end is a
// raw-keystroke GUI/terminal host wired to a CPU; this front end is the
// line-oriented shell in internal/shellio wired to the scheduler.
//
// License: GPLv3 or later

package main

import (
	"fmt"
	"os"

	"github.com/csopesy-lab/osemu/internal/shellio"
)

func banner() {
	fmt.Println("CSOPESY OS Emulator")
	fmt.Println("Type 'initialize <config-path>' to begin, 'exit' to quit.")
}

func main() {
	banner()
	sh := shellio.New(os.Stdin, os.Stdout)
	os.Exit(sh.Run())
}
