package main

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"

	"quill/internal/config"
	"quill/internal/logging"
	"quill/internal/store"
	"quill/internal/tui"
)

type ChatCommand struct {
	stderr    io.Writer
	newClient clientFactory
}

func NewChatCommand(stderr io.Writer, newClient clientFactory) *ChatCommand {
	return &ChatCommand{stderr: stderr, newClient: newClient}
}

func (c *ChatCommand) Run(args []string) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	vaultFlag := fs.String("vault", "", "vault to chat about (defaults to config, then last used)")
	resume := fs.Bool("resume", false, "resume the last session instead of starting fresh")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dbPath, err := config.StateDBPath()
	if err != nil {
		return err
	}
	stateStore, err := store.OpenAppStateStore(dbPath)
	if err != nil {
		return err
	}
	defer stateStore.Close()

	state, err := stateStore.Load()
	if err != nil {
		return err
	}

	vault := *vaultFlag
	if vault == "" {
		vault = cfg.DefaultVault()
	}
	if vault == "" {
		vault = state.SelectedVault
	}
	if vault == "" {
		return errors.New("no vault selected; pass --vault or set vault.default in config")
	}

	resumeSessionID := ""
	if *resume && state.SelectedVault == vault {
		resumeSessionID = state.LastSessionID
	}

	logger, closeLog := newUILogger(cfg)
	defer closeLog()

	api, err := c.newClient()
	if err != nil {
		return err
	}
	return tui.Run(api, stateStore, vault, resumeSessionID, logger)
}

// newUILogger logs to a file: the terminal belongs to the TUI.
func newUILogger(cfg config.Config) (logging.Logger, func()) {
	path, err := config.UILogPath()
	if err != nil {
		return logging.Nop(), func() {}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return logging.Nop(), func() {}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return logging.Nop(), func() {}
	}
	level := logging.ParseLevel(cfg.LogLevel())
	if cfg.StreamDebugEnabled() {
		level = logging.Debug
	}
	return logging.New(file, level), func() { _ = file.Close() }
}
