package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"lexdesk/internal/calendar"
	"lexdesk/internal/config"
)

type CalendarCommand struct {
	stdout     io.Writer
	stderr     io.Writer
	stdin      io.Reader
	loadConfig func() (config.CoreConfig, error)
}

func NewCalendarCommand(stdout, stderr io.Writer, stdin io.Reader, loadConfig func() (config.CoreConfig, error)) *CalendarCommand {
	return &CalendarCommand{stdout: stdout, stderr: stderr, stdin: stdin, loadConfig: loadConfig}
}

func (c *CalendarCommand) Run(args []string) error {
	if len(args) == 0 || args[0] != "auth" {
		return errors.New("usage: lexdesk calendar auth [--code CODE]")
	}
	fs := flag.NewFlagSet("calendar auth", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	code := fs.String("code", "", "authorization code (prompted when empty)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	credsPath, err := cfg.CalendarCredentialsPath()
	if err != nil {
		return err
	}
	tokenPath, err := cfg.CalendarTokenPath()
	if err != nil {
		return err
	}
	oauthCfg, err := calendar.LoadOAuthConfig(credsPath)
	if err != nil {
		return err
	}

	authCode := strings.TrimSpace(*code)
	if authCode == "" {
		stateToken, err := randomState()
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Open this URL, grant access, then paste the code:\n\n  %s\n\ncode: ", calendar.AuthURL(oauthCfg, stateToken))
		line, err := bufio.NewReader(c.stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		authCode = strings.TrimSpace(line)
	}
	tokens := calendar.NewTokenFile(tokenPath)
	if _, err := calendar.Exchange(context.Background(), oauthCfg, tokens, authCode); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "calendar token saved to %s; restart the server to enable meetings\n", tokens.Path())
	return nil
}

func randomState() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
