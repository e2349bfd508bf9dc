package main

import (
	"io"
	"os"

	"lexdesk/internal/config"
	"lexdesk/internal/state"
	"lexdesk/internal/types"
)

type commandRunner interface {
	Run(args []string) error
}

type commandWiring struct {
	stdout             io.Writer
	stderr             io.Writer
	stdin              io.Reader
	newClient          clientFactory
	loadConfig         func() (config.CoreConfig, error)
	runServer          func(background bool) error
	killServer         func() error
	configureUILogging func()
	version            string
}

func defaultCommandWiring(stdout, stderr io.Writer) commandWiring {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdout:     stdout,
		stderr:     stderr,
		stdin:      os.Stdin,
		newClient:  newLexdeskClient,
		loadConfig: config.LoadCoreConfig,
		runServer:  runServerProcess,
		killServer: func() error {
			return killServerWithFactory(newLexdeskClient)
		},
		configureUILogging: configureUILogging,
		version:            buildVersion(),
	}
}

func buildCommands(wiring commandWiring) map[string]commandRunner {
	return map[string]commandRunner{
		"serve":     NewServeCommand(wiring.stderr, wiring.runServer, wiring.killServer),
		"config":    NewConfigCommand(wiring.stdout, wiring.stderr, wiring.loadConfig),
		"cases":     newCaseCommand(wiring),
		"clients":   newClientCommand(wiring),
		"documents": newDocumentCommand(wiring),
		"tasks":     newTaskCommand(wiring),
		"upload":    NewUploadCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"download":  NewDownloadCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"export":    NewExportCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"meet":      NewMeetCommand(wiring.stdout, wiring.stderr, wiring.newClient),
		"calendar":  NewCalendarCommand(wiring.stdout, wiring.stderr, wiring.stdin, wiring.loadConfig),
		"store":     NewStoreCommand(wiring.stdout, wiring.stderr, wiring.loadConfig),
		"ui":        NewUICommand(wiring.stderr, wiring.newClient, wiring.loadConfig, wiring.configureUILogging),
	}
}

func newCaseCommand(w commandWiring) *EntityCommand[*types.Case] {
	return &EntityCommand[*types.Case]{
		name:      "cases",
		stdout:    w.stdout,
		stderr:    w.stderr,
		newClient: w.newClient,
		gateway:   func(c commandClient) state.Gateway[*types.Case] { return c.Gateways().Cases },
		newDraft:  func() *types.Case { return &types.Case{} },
		header:    "ID\tNUMBER\tTITLE\tCLIENT\tSTATUS\tPRIORITY",
		row: func(c *types.Case) []any {
			return []any{c.ID, dash(c.CaseNumber), c.Title, dash(c.ClientName), c.Status, c.Priority}
		},
	}
}

func newClientCommand(w commandWiring) *EntityCommand[*types.Client] {
	return &EntityCommand[*types.Client]{
		name:      "clients",
		stdout:    w.stdout,
		stderr:    w.stderr,
		newClient: w.newClient,
		gateway:   func(c commandClient) state.Gateway[*types.Client] { return c.Gateways().Clients },
		newDraft:  func() *types.Client { return &types.Client{} },
		header:    "ID\tNAME\tEMAIL\tCOMPANY\tSTATUS",
		row: func(c *types.Client) []any {
			return []any{c.ID, c.Name, c.Email, dash(c.Company), c.Status}
		},
	}
}

func newDocumentCommand(w commandWiring) *EntityCommand[*types.Document] {
	return &EntityCommand[*types.Document]{
		name:      "documents",
		stdout:    w.stdout,
		stderr:    w.stderr,
		newClient: w.newClient,
		gateway:   func(c commandClient) state.Gateway[*types.Document] { return c.Gateways().Documents },
		newDraft:  func() *types.Document { return &types.Document{} },
		header:    "ID\tTITLE\tFILE\tCASE\tSIZE",
		row: func(d *types.Document) []any {
			return []any{d.ID, d.Title, dash(d.FileName), dash(d.CaseTitle), d.Size}
		},
	}
}

func newTaskCommand(w commandWiring) *EntityCommand[*types.Task] {
	return &EntityCommand[*types.Task]{
		name:      "tasks",
		stdout:    w.stdout,
		stderr:    w.stderr,
		newClient: w.newClient,
		gateway:   func(c commandClient) state.Gateway[*types.Task] { return c.Gateways().Tasks },
		newDraft:  func() *types.Task { return &types.Task{} },
		header:    "ID\tTITLE\tCASE\tASSIGNEE\tSTATUS",
		row: func(t *types.Task) []any {
			return []any{t.ID, t.Title, dash(t.CaseTitle), dash(t.Assignee), t.Status}
		},
	}
}
