package main

import (
	"context"
	"io"
	"log"
	"time"

	"lexdesk/internal/app"
	"lexdesk/internal/client"
	"lexdesk/internal/config"
	"lexdesk/internal/logging"
	"lexdesk/internal/state"
	"lexdesk/internal/types"
)

type clientFactory func() (commandClient, error)

type commandClient interface {
	EnsureServer(ctx context.Context) error
	EnsureServerCompatible(ctx context.Context, restart bool) error
	Health(ctx context.Context) (*client.HealthResponse, error)
	ShutdownServer(ctx context.Context) error
	Gateways() state.Gateways
	UploadDocument(ctx context.Context, req client.UploadRequest) client.Envelope[*types.Document]
	DownloadDocument(ctx context.Context, id string, w io.Writer) client.Envelope[client.DownloadInfo]
	ExportCases(ctx context.Context, filters map[string]string, w io.Writer) client.Envelope[int64]
	CreateMeeting(ctx context.Context, req types.MeetingRequest) client.Envelope[types.Meeting]
	MeetingStatus(ctx context.Context) client.Envelope[client.MeetingStatus]
	RunUI(profile types.Profile, refresh time.Duration) error
}

type lexdeskClientAdapter struct {
	client *client.Client
}

func newLexdeskClient() (commandClient, error) {
	cfg, err := config.LoadCoreConfig()
	if err != nil {
		return nil, err
	}
	c, err := client.New(cfg)
	if err != nil {
		return nil, err
	}
	// log.Writer is ui.log once the dashboard has redirected the standard logger.
	c.SetLogger(logging.New(log.Writer(), logging.ParseLevel(cfg.LogLevel())).With(logging.F("component", "client")))
	return &lexdeskClientAdapter{client: c}, nil
}

func (c *lexdeskClientAdapter) EnsureServer(ctx context.Context) error {
	return c.client.EnsureServer(ctx)
}

func (c *lexdeskClientAdapter) EnsureServerCompatible(ctx context.Context, restart bool) error {
	return c.client.EnsureServerCompatible(ctx, restart)
}

func (c *lexdeskClientAdapter) Health(ctx context.Context) (*client.HealthResponse, error) {
	return c.client.Health(ctx)
}

func (c *lexdeskClientAdapter) ShutdownServer(ctx context.Context) error {
	return c.client.ShutdownServer(ctx)
}

func (c *lexdeskClientAdapter) Gateways() state.Gateways {
	return state.GatewaysFromClient(c.client)
}

func (c *lexdeskClientAdapter) UploadDocument(ctx context.Context, req client.UploadRequest) client.Envelope[*types.Document] {
	return c.client.UploadDocument(ctx, req)
}

func (c *lexdeskClientAdapter) DownloadDocument(ctx context.Context, id string, w io.Writer) client.Envelope[client.DownloadInfo] {
	return c.client.DownloadDocument(ctx, id, w)
}

func (c *lexdeskClientAdapter) ExportCases(ctx context.Context, filters map[string]string, w io.Writer) client.Envelope[int64] {
	return c.client.ExportCases(ctx, filters, w)
}

func (c *lexdeskClientAdapter) CreateMeeting(ctx context.Context, req types.MeetingRequest) client.Envelope[types.Meeting] {
	return c.client.CreateMeeting(ctx, req)
}

func (c *lexdeskClientAdapter) MeetingStatus(ctx context.Context) client.Envelope[client.MeetingStatus] {
	return c.client.MeetingStatus(ctx)
}

func (c *lexdeskClientAdapter) RunUI(profile types.Profile, refresh time.Duration) error {
	return app.Run(app.Options{
		Store:   state.NewStore(c.Gateways()),
		Feed:    c.client,
		Profile: profile,
		Refresh: refresh,
	})
}
