package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"lexdesk/internal/client"
)

type UploadCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewUploadCommand(stdout, stderr io.Writer, newClient clientFactory) *UploadCommand {
	return &UploadCommand{stdout: stdout, stderr: stderr, newClient: newClient}
}

func (c *UploadCommand) Run(args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	caseID := fs.String("case", "", "case id the document belongs to")
	title := fs.String("title", "", "document title (defaults to the file name)")
	category := fs.String("category", "", "document category")
	uploadedBy := fs.String("by", "", "uploader name or email")
	asJSON := fs.Bool("json", false, "print the document record as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := requireArg(fs.Args(), "file path")
	if err != nil {
		return err
	}
	if *caseID == "" {
		return errors.New("--case is required")
	}
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	ctx := context.Background()
	lc, err := c.newClient()
	if err != nil {
		return err
	}
	if err := lc.EnsureServer(ctx); err != nil {
		return err
	}
	env := lc.UploadDocument(ctx, client.UploadRequest{
		FileName:   filepath.Base(path),
		Content:    file,
		Title:      *title,
		Category:   *category,
		CaseID:     *caseID,
		UploadedBy: *uploadedBy,
	})
	if err := env.Err(); err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(c.stdout, env.Data)
	}
	fmt.Fprintln(c.stdout, env.Data.ID)
	return nil
}

type DownloadCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
}

func NewDownloadCommand(stdout, stderr io.Writer, newClient clientFactory) *DownloadCommand {
	return &DownloadCommand{stdout: stdout, stderr: stderr, newClient: newClient}
}

func (c *DownloadCommand) Run(args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	output := fs.String("o", "", "output path, '-' for stdout (defaults to the stored file name)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireArg(fs.Args(), "document id")
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
		return lc.DownloadDocument(ctx, id, c.stdout).Err()
	}

	// The stored file name is only known once the response arrives, so the
	// payload lands in a temp file first.
	dir := "."
	if *output != "" {
		dir = filepath.Dir(*output)
	}
	tmp, err := os.CreateTemp(dir, ".lexdesk-download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	env := lc.DownloadDocument(ctx, id, tmp)
	if closeErr := tmp.Close(); closeErr != nil && env.Success {
		return closeErr
	}
	if err := env.Err(); err != nil {
		return err
	}
	target := *output
	if target == "" {
		target = filepath.Base(env.Data.FileName)
		if target == "" || target == "." || target == string(filepath.Separator) {
			target = id
		}
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "%s (%d bytes)\n", target, env.Data.Bytes)
	return nil
}
