// Command javac8lsp runs the editor diagnostics server standalone, for
// editors that launch a dedicated LSP binary rather than a subcommand of
// the compiler driver (`javac8 lsp` does the same thing in-process).
//
// Grounded on _examples/tangzhangming-nova/cmd/solals/main.go.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/aoki-yuta/javac8/internal/langserver"
)

const version = "0.1.0"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	showHelp := flag.Bool("help", false, "print usage and exit")
	logPath := flag.String("log", "", "protocol trace file (unset disables logging)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("javac8lsp %s\n", version)
		return
	}
	if *showHelp {
		printUsage()
		return
	}

	srv := langserver.NewServer(*logPath)
	if err := srv.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "javac8lsp: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("javac8lsp - javac8's editor diagnostics server")
	fmt.Println()
	fmt.Println("usage:")
	fmt.Println("  javac8lsp [-log FILE]")
	fmt.Println()
	fmt.Println("Communicates over stdio using Content-Length-framed JSON-RPC,")
	fmt.Println("the same transport any LSP-capable editor already speaks.")
}
