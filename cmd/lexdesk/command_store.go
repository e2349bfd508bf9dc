package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"go.uber.org/multierr"

	"lexdesk/internal/config"
	"lexdesk/internal/store"
)

type StoreCommand struct {
	stdout     io.Writer
	stderr     io.Writer
	loadConfig func() (config.CoreConfig, error)
	open       func(backend, path string) (store.Repository, error)
}

func NewStoreCommand(stdout, stderr io.Writer, loadConfig func() (config.CoreConfig, error)) *StoreCommand {
	return &StoreCommand{stdout: stdout, stderr: stderr, loadConfig: loadConfig, open: store.OpenRepository}
}

// Run seeds the configured repository from another backend. Collections that
// already hold records are left alone. The server must be stopped first when
// the target is bbolt, which allows a single process.
func (c *StoreCommand) Run(args []string) (err error) {
	if len(args) == 0 || args[0] != "seed" {
		return errors.New("usage: lexdesk store seed --from BACKEND --path PATH")
	}
	fs := flag.NewFlagSet("store seed", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	from := fs.String("from", store.RepositoryBackendFile, "source backend: file|bbolt|sqlite")
	path := fs.String("path", "", "source directory or database file")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if strings.TrimSpace(*path) == "" {
		return errors.New("--path is required")
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	dstPath, err := cfg.StoragePath()
	if err != nil {
		return err
	}
	if cfg.StorageBackend() == strings.ToLower(strings.TrimSpace(*from)) && dstPath == *path {
		return errors.New("source and destination are the same")
	}
	src, err := c.open(*from, *path)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() { err = multierr.Append(err, src.Close()) }()
	dst, err := c.open(cfg.StorageBackend(), dstPath)
	if err != nil {
		return fmt.Errorf("open destination: %w", err)
	}
	defer func() { err = multierr.Append(err, dst.Close()) }()

	report, err := store.SeedRepository(context.Background(), dst, src)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(report))
	for name := range report {
		names = append(names, name)
	}
	sort.Strings(names)
	writer := tabwriter.NewWriter(c.stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "COLLECTION\tCOPIED")
	for _, name := range names {
		fmt.Fprintf(writer, "%s\t%d\n", name, report[name])
	}
	return writer.Flush()
}
