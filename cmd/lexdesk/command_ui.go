package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"lexdesk/internal/config"
	"lexdesk/internal/types"
)

var errClientEmail = errors.New("the client role needs an email (--email or [ui] email)")

type UICommand struct {
	stderr             io.Writer
	newClient          clientFactory
	loadConfig         func() (config.CoreConfig, error)
	configureUILogging func()
}

func NewUICommand(stderr io.Writer, newClient clientFactory, loadConfig func() (config.CoreConfig, error), configureUILogging func()) *UICommand {
	return &UICommand{
		stderr:             stderr,
		newClient:          newClient,
		loadConfig:         loadConfig,
		configureUILogging: configureUILogging,
	}
}

func (c *UICommand) Run(args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	restart := fs.Bool("restart-server", false, "restart the server if its API version is incompatible")
	role := fs.String("role", "", "dashboard role: attorney|assistant|client")
	email := fs.String("email", "", "signed-in email (required for the client role)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	profile, err := resolveProfile(cfg.Profile(), *role, *email)
	if err != nil {
		return err
	}
	if c.configureUILogging != nil {
		c.configureUILogging()
	}

	client, err := c.newClient()
	if err != nil {
		return err
	}
	if err := client.EnsureServerCompatible(context.Background(), *restart); err != nil {
		return err
	}
	return client.RunUI(profile, cfg.RefreshInterval())
}

// resolveProfile applies --role and --email over the configured profile.
func resolveProfile(base types.Profile, role, email string) (types.Profile, error) {
	profile := base
	if role != "" {
		parsed, ok := types.ParseRole(role)
		if !ok {
			return profile, fmt.Errorf("invalid role %q", role)
		}
		profile.Role = parsed
	}
	if email != "" {
		profile.Email = email
	}
	profile.Email = types.NormalizeEmail(profile.Email)
	if profile.Role == types.RoleClient && profile.Email == "" {
		return profile, errClientEmail
	}
	return profile, nil
}

// configureUILogging keeps log output off the dashboard's screen.
func configureUILogging() {
	redirectStdLog("ui")
}

// redirectStdLog points the standard logger at the named log file and
// returns it, or nil when it cannot be opened.
func redirectStdLog(name string) *os.File {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	file, err := config.OpenLogFile(name)
	if err != nil {
		return nil
	}
	log.SetOutput(file)
	return file
}
