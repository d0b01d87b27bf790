package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"quill/internal/client"
	"quill/internal/tasks"
)

type TasksCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewTasksCommand(stdout, stderr io.Writer, newClient clientFactory) *TasksCommand {
	return &TasksCommand{stdout: stdout, stderr: stderr, newClient: newClient}
}

func (c *TasksCommand) Run(args []string) error {
	fs := flag.NewFlagSet("tasks", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	vault := fs.String("vault", "", "vault to list tasks from")
	toggle := fs.String("toggle", "", "toggle one task, as file.md:line")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*vault) == "" {
		return errors.New("--vault is required")
	}

	api, err := c.newClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if *toggle != "" {
		return c.toggleTask(ctx, api, *vault, *toggle)
	}

	items, err := api.ListTasks(ctx, *vault)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(c.stdout, "no tasks")
		return nil
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATE\tTASK\tLOCATION")
	for _, item := range items {
		fmt.Fprintf(tw, "[%s]\t%s\t%s:%d\n", item.State, item.Text, item.FilePath, item.LineNumber)
	}
	return tw.Flush()
}

func (c *TasksCommand) toggleTask(ctx context.Context, api *client.Client, vault, target string) error {
	filePath, lineNumber, err := parseTaskTarget(target)
	if err != nil {
		return err
	}
	items, err := api.ListTasks(ctx, vault)
	if err != nil {
		return err
	}
	current := ""
	found := false
	for _, item := range items {
		if item.FilePath == filePath && item.LineNumber == lineNumber {
			current = item.State
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("no task at %s:%d", filePath, lineNumber)
	}

	tracker := tasks.NewTracker()
	next, req := tracker.Toggle(filePath, lineNumber, current)
	_, err = api.UpdateTask(ctx, vault, client.UpdateTaskRequest{
		FilePath:   req.FilePath,
		LineNumber: req.LineNumber,
		State:      req.State,
	})
	if err != nil {
		if original, ok := tracker.Rollback(filePath, lineNumber); ok {
			fmt.Fprintf(c.stderr, "update failed, task stays [%s]\n", original)
		}
		return err
	}
	tracker.Confirm(filePath, lineNumber)
	fmt.Fprintf(c.stdout, "%s:%d [%s] -> [%s]\n", filePath, lineNumber, current, next)
	return nil
}

func parseTaskTarget(target string) (string, int, error) {
	idx := strings.LastIndexByte(target, ':')
	if idx <= 0 || idx == len(target)-1 {
		return "", 0, fmt.Errorf("invalid task target %q, expected file.md:line", target)
	}
	line, err := strconv.Atoi(target[idx+1:])
	if err != nil || line <= 0 {
		return "", 0, fmt.Errorf("invalid line number in %q", target)
	}
	return target[:idx], line, nil
}
