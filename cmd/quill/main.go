package main

import (
	"fmt"
	"os"
)

var version = "dev"

const usageText = `quill is a terminal client for your vault assistant.

Usage:
  quill <command> [flags]

Commands:
  chat     open an assistant chat for a vault
  vaults   list vaults known to the daemon
  tasks    list or toggle vault checklist tasks
  config   print effective configuration
  version  print the client version
  help     show help

Flags:
  -h, --help   show help

Examples:
  quill chat --vault notes
  quill chat --resume
  quill tasks --vault notes
  quill tasks --vault notes --toggle inbox.md:3
`

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return
	}

	wiring := defaultCommandWiring(os.Stdout, os.Stderr)
	commands := buildCommands(wiring)

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	}

	runner, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
	if err := runner.Run(args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
