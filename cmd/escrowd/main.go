package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// commands is a register of all available commands that can be executed by
// this program. The name is used to match with the first argument given.
//
// A command function is an independent runnable that is taking input and
// output being stdin and stdout. Given args are the command line arguments,
// without the program name and the command name, that should be parsed
// using the flag package.
//
// Commands that build a transaction write it in binary form to the output,
// so that they can be combined in a pipeline:
//
//   $ escrowd initialize-escrow -initializer ... -amount 500 \
//       | escrowd sign -key alice.key \
//       | escrowd submit
//
var commands = map[string]func(input io.Reader, output io.Writer, args []string) error{
	"cancel":            cmdCancel,
	"exchange":          cmdExchange,
	"init":              cmdInit,
	"initialize-escrow": cmdInitializeEscrow,
	"keyaddr":           cmdKeyaddr,
	"keygen":            cmdKeygen,
	"query":             cmdQuery,
	"serve":             cmdServe,
	"sign":              cmdSign,
	"state":             cmdState,
	"submit":            cmdSubmit,
	"transfer":          cmdTransfer,
	"version":           cmdVersion,
	"view":              cmdView,
}

func main() {
	if len(os.Args) == 1 {
		fmt.Fprintf(os.Stderr, "%s runs the escrow application on a local store.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: %s <command> [<flags>]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		fmt.Fprintf(os.Stderr, "Run '%s <command> -help' to learn more about each command.\n", os.Args[0])
		os.Exit(2)
	}
	run, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "\nAvailable commands are:\n\t%s\n", strings.Join(availableCmds(), "\n\t"))
		os.Exit(2)
	}

	if err := run(os.Stdin, os.Stdout, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func availableCmds() []string {
	available := make([]string, 0, len(commands))
	for name := range commands {
		available = append(available, name)
	}
	sort.Strings(available)
	return available
}

func cmdVersion(in io.Reader, out io.Writer, args []string) error {
	fmt.Fprintln(out, gitHash)
	return nil
}

// gitHash is set during the compilation time.
var gitHash = "dev"
