package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
	"go.uber.org/multierr"
)

const (
	copiedViaSystem   = "system"
	copiedViaTerminal = "terminal"
)

// copier is one way of getting text onto the user's clipboard.
type copier struct {
	via   string
	write func(string) error
}

// copiers are tried in order; the first that succeeds wins.
var copiers = []copier{
	{via: copiedViaSystem, write: clipboard.WriteAll},
	{via: copiedViaTerminal, write: writeTerminalClipboard},
}

// copyText reports which copier took the text. When all fail the error
// lists each attempt.
func copyText(text string) (string, error) {
	var failed error
	for _, c := range copiers {
		err := c.write(text)
		if err == nil {
			return c.via, nil
		}
		failed = multierr.Append(failed, fmt.Errorf("%s clipboard: %s", c.via, describeCopyError(err)))
	}
	if failed == nil {
		failed = errors.New("no clipboard available")
	}
	return "", failed
}

// writeTerminalClipboard sends an OSC52 escape to the controlling terminal,
// wrapped for tmux or screen when running inside one.
func writeTerminalClipboard(text string) error {
	if osc52Disabled() {
		return errors.New("terminal copy disabled")
	}
	tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer tty.Close()
	return emitOSC52(tty, text, os.Getenv("TERM"), os.Getenv("TMUX") != "")
}

func emitOSC52(w io.Writer, text, term string, inTmux bool) error {
	seq := osc52.New(text)
	if inTmux {
		seq = seq.Tmux()
	} else if strings.HasPrefix(strings.ToLower(term), "screen") {
		seq = seq.Screen()
	}
	_, err := seq.WriteTo(w)
	return err
}

func osc52Disabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LEXDESK_DISABLE_OSC52"))) {
	case "1", "true", "yes", "on":
		return true
	}
	term := strings.TrimSpace(os.Getenv("TERM"))
	return term == "" || strings.EqualFold(term, "dumb")
}

func describeCopyError(err error) string {
	msg := strings.TrimSpace(err.Error())
	headless := os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == ""
	if headless && strings.HasPrefix(msg, "exit status") {
		return "no display server"
	}
	return msg
}

// CopyToClipboard copies text the same way the dashboard's copy key does.
func CopyToClipboard(text string) error {
	_, err := copyText(text)
	return err
}
