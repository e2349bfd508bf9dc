package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"syscall"
	"time"

	"lexdesk/internal/config"
	"lexdesk/internal/logging"
)

const (
	healthPoll     = 150 * time.Millisecond
	stopTimeout    = 2 * time.Second
	startupTimeout = 4 * time.Second
	errNotHealthy  = "server not healthy after start"
)

// EnsureServer starts a background server when none answers on the
// configured address.
func (c *Client) EnsureServer(ctx context.Context) error {
	return c.ensureServer(ctx, false)
}

// EnsureServerCompatible is EnsureServer followed by an API version check.
// With restart set, an incompatible server is stopped and replaced.
func (c *Client) EnsureServerCompatible(ctx context.Context, restart bool) error {
	return c.ensureServer(ctx, restart)
}

func (c *Client) ensureServer(ctx context.Context, restart bool) error {
	if resp, err := c.Health(ctx); err == nil && resp.OK {
		compatErr := CheckCompatibility(resp.APIVersion)
		if compatErr == nil {
			return nil
		}
		if !restart {
			return compatErr
		}
		c.log().Info("server_restart", logging.F("api_version", resp.APIVersion), logging.F("pid", resp.PID))
		if err := c.stopServer(ctx, resp.PID); err != nil {
			return err
		}
	}

	start := c.startServer
	if start == nil {
		start = StartBackgroundServer
	}
	if err := start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	c.log().Info("server_autostart", logging.F("url", c.baseURL))

	var lastErr error
	err := pollUntil(ctx, startupTimeout, func() bool {
		resp, err := c.Health(ctx)
		if err != nil {
			lastErr = err
			return false
		}
		lastErr = CheckCompatibility(resp.APIVersion)
		return resp.OK && lastErr == nil
	})
	if err == nil {
		_ = c.loadToken()
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New(errNotHealthy)
	}
	return lastErr
}

// stopServer asks the running server to shut down, falling back to a signal
// when it predates the shutdown endpoint, then waits for it to stop answering.
func (c *Client) stopServer(ctx context.Context, pid int) error {
	if err := c.ShutdownServer(ctx); err != nil {
		apiErr := asAPIError(err)
		if apiErr == nil || apiErr.StatusCode != http.StatusNotFound || pid <= 0 {
			return err
		}
		if killErr := killProcess(pid); killErr != nil {
			return fmt.Errorf("stop stale server (pid %d): %w", pid, killErr)
		}
	}
	_ = pollUntil(ctx, stopTimeout, func() bool {
		_, err := c.Health(ctx)
		return err != nil
	})
	return nil
}

// pollUntil calls done every healthPoll until it reports true, the timeout
// passes, or ctx ends.
func pollUntil(ctx context.Context, timeout time.Duration, done func() bool) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(healthPoll)
	defer tick.Stop()
	for {
		if done() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return context.DeadlineExceeded
		case <-tick.C:
		}
	}
}

// StartBackgroundServer re-executes the current binary as a detached server
// with its output appended to server.log.
func StartBackgroundServer() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.Command(exe, "serve", "--background")
	detach(cmd)

	if file, err := config.OpenLogFile("server"); err == nil {
		defer file.Close()
		cmd.Stdout = file
		cmd.Stderr = file
	}
	return cmd.Start()
}

var killProcess = terminateProcess

func terminateProcess(pid int) error {
	if pid <= 0 {
		return errors.New("invalid pid")
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if runtime.GOOS == "windows" {
		return proc.Kill()
	}
	return proc.Signal(syscall.SIGTERM)
}
