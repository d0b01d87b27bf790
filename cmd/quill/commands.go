package main

import (
	"io"
	"os"

	"quill/internal/client"
)

type commandRunner interface {
	Run(args []string) error
}

type clientFactory func() (*client.Client, error)

type commandWiring struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
	version   string
}

func defaultCommandWiring(stdout, stderr io.Writer) commandWiring {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdout:    stdout,
		stderr:    stderr,
		newClient: client.New,
		version:   version,
	}
}

func buildCommands(wiring commandWiring) map[string]commandRunner {
	return map[string]commandRunner{
		"chat":    NewChatCommand(wiring.stderr, wiring.newClient),
		"vaults":  NewVaultsCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"tasks":   NewTasksCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"config":  NewConfigCommand(wiring.stdout, wiring.stderr),
		"version": NewVersionCommand(wiring.stdout, wiring.version),
	}
}
