package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
)

type VaultsCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewVaultsCommand(stdout, stderr io.Writer, newClient clientFactory) *VaultsCommand {
	return &VaultsCommand{stdout: stdout, stderr: stderr, newClient: newClient}
}

func (c *VaultsCommand) Run(args []string) error {
	fs := flag.NewFlagSet("vaults", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	api, err := c.newClient()
	if err != nil {
		return err
	}
	vaults, err := api.ListVaults(context.Background())
	if err != nil {
		return err
	}
	if len(vaults) == 0 {
		fmt.Fprintln(c.stdout, "no vaults")
		return nil
	}

	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tNOTES\tPATH")
	for _, vault := range vaults {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", vault.Name, vault.NoteCount, vault.Path)
	}
	return tw.Flush()
}

type VersionCommand struct {
	stdout  io.Writer
	version string
}

func NewVersionCommand(stdout io.Writer, version string) *VersionCommand {
	return &VersionCommand{stdout: stdout, version: version}
}

func (c *VersionCommand) Run(args []string) error {
	fmt.Fprintln(c.stdout, c.version)
	return nil
}
