package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lexdesk/internal/blob"
	"lexdesk/internal/calendar"
	lexclient "lexdesk/internal/client"
	"lexdesk/internal/config"
	"lexdesk/internal/logging"
	"lexdesk/internal/server"
	"lexdesk/internal/store"
)

type ServeCommand struct {
	stderr     io.Writer
	runServer  func(background bool) error
	killServer func() error
}

func NewServeCommand(stderr io.Writer, runServer func(background bool) error, killServer func() error) *ServeCommand {
	return &ServeCommand{
		stderr:     stderr,
		runServer:  runServer,
		killServer: killServer,
	}
}

func (c *ServeCommand) Run(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	background := fs.Bool("background", false, "run in background (logs to file)")
	kill := fs.Bool("kill", false, "stop any running server and exit")
	force := fs.Bool("force", false, "stop any running server before starting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *kill {
		return c.killServer()
	}
	if *force {
		if err := c.killServer(); err != nil {
			return err
		}
	}
	return c.runServer(*background)
}

func runServerProcess(background bool) error {
	logOut := io.Writer(os.Stderr)
	if background {
		if file := configureBackgroundLogging(); file != nil {
			defer file.Close()
			logOut = file
		}
	}

	cfg, err := config.LoadCoreConfig()
	if err != nil {
		return err
	}
	logger := logging.New(logOut, logging.ParseLevel(cfg.LogLevel()))

	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return err
	}
	tokenPath, err := config.TokenPath()
	if err != nil {
		return err
	}
	token, err := server.LoadOrCreateToken(tokenPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storagePath, err := cfg.StoragePath()
	if err != nil {
		return err
	}
	repo, err := store.OpenRepository(cfg.StorageBackend(), storagePath)
	if err != nil {
		return err
	}
	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		_ = repo.Close()
		return err
	}
	var metrics *server.Metrics
	if cfg.MetricsEnabled() {
		metrics = server.NewMetrics()
	}

	srv, err := server.New(server.Options{
		Addr:      cfg.ServerAddress(),
		Token:     token,
		Version:   buildVersion(),
		Repo:      repo,
		Blobs:     blobs,
		Scheduler: openScheduler(ctx, cfg, logger),
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		_ = blobs.Close()
		_ = repo.Close()
		return err
	}
	return srv.Run(ctx)
}

func openBlobStore(ctx context.Context, cfg config.CoreConfig) (blob.Store, error) {
	root, err := cfg.BlobRoot()
	if err != nil {
		return nil, err
	}
	return blob.Open(ctx, blob.Config{
		Driver: cfg.BlobDriver(),
		Root:   root,
		S3: blob.S3Config{
			Bucket:    cfg.Blob.S3.Bucket,
			Region:    cfg.Blob.S3.Region,
			Endpoint:  cfg.Blob.S3.Endpoint,
			PathStyle: cfg.Blob.S3.PathStyle,
			Prefix:    cfg.Blob.S3.Prefix,
		},
		GCS: blob.GCSConfig{
			Bucket:          cfg.Blob.GCS.Bucket,
			CredentialsPath: cfg.Blob.GCS.CredentialsPath,
			Prefix:          cfg.Blob.GCS.Prefix,
		},
	})
}

// openScheduler never fails: any configuration problem becomes the
// unavailable reason reported by /v1/meetings/status.
func openScheduler(ctx context.Context, cfg config.CoreConfig, logger logging.Logger) calendar.Scheduler {
	if !cfg.Calendar.Enabled {
		return calendar.Unavailable{Reason: "calendar disabled"}
	}
	creds, err := cfg.CalendarCredentialsPath()
	if err != nil {
		return calendar.Unavailable{Reason: err.Error()}
	}
	tokenPath, err := cfg.CalendarTokenPath()
	if err != nil {
		return calendar.Unavailable{Reason: err.Error()}
	}
	scheduler := calendar.Open(ctx, calendar.GoogleConfig{
		CredentialsPath: creds,
		TokenPath:       tokenPath,
		CalendarID:      cfg.CalendarID(),
		Location:        cfg.CalendarLocation(),
		DefaultDuration: cfg.MeetingDuration(),
		Logger:          logger,
	})
	if !scheduler.Available() {
		logger.Warn("calendar_unavailable", logging.F("reason", scheduler.Status()))
	}
	return scheduler
}

func killServerWithFactory(newClient clientFactory) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := newClient()
	if err != nil {
		return err
	}
	if err := client.ShutdownServer(ctx); err == nil {
		return nil
	} else {
		var apiErr *lexclient.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil
		}
		if isServerUnavailable(err) {
			return nil
		}
	}
	resp, err := client.Health(ctx)
	if err != nil {
		if isServerUnavailable(err) {
			return nil
		}
		return err
	}
	if resp == nil || resp.PID <= 0 {
		return nil
	}
	return terminatePID(resp.PID)
}

func terminatePID(pid int) error {
	if pid <= 0 {
		return errors.New("invalid pid")
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(syscall.SIGTERM)
}

func isServerUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, lexclient.ErrNoToken) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

// configureBackgroundLogging sends the standard logger to server.log and
// returns the open file for the structured logger to share.
func configureBackgroundLogging() *os.File {
	return redirectStdLog("server")
}
