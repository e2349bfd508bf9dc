package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"
)

type ExportCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
	now       func() time.Time
}

func NewExportCommand(stdout, stderr io.Writer, newClient clientFactory) *ExportCommand {
	return &ExportCommand{stdout: stdout, stderr: stderr, newClient: newClient, now: time.Now}
}

func (c *ExportCommand) Run(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	output := fs.String("o", "", "output path, '-' for stdout (default cases-YYYYMMDD.xlsx)")
	var filters stringList
	fs.Var(&filters, "filter", "filter key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	parsed, err := parseFilters(filters)
	if err != nil {
		return err
	}

	ctx := context.Background()
	lc, err := c.newClient()
	if err != nil {
		return err
	}
	if err := lc.EnsureServer(ctx); err != nil {
		return err
	}
	if *output == "-" {
		return lc.ExportCases(ctx, parsed, c.stdout).Err()
	}
	target := *output
	if target == "" {
		target = "cases-" + c.now().Format("20060102") + ".xlsx"
	}
	file, err := os.Create(target)
	if err != nil {
		return err
	}
	env := lc.ExportCases(ctx, parsed, file)
	closeErr := file.Close()
	if err := env.Err(); err != nil {
		_ = os.Remove(target)
		return err
	}
	if closeErr != nil {
		return closeErr
	}
	fmt.Fprintf(c.stdout, "%s (%d bytes)\n", target, env.Data)
	return nil
}
