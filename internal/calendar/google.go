package calendar

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"lexdesk/internal/logging"
	"lexdesk/internal/types"
)

const meetConferenceType = "hangoutsMeet"

type GoogleConfig struct {
	CredentialsPath string
	TokenPath       string
	CalendarID      string
	Location        *time.Location
	DefaultDuration time.Duration
	Logger          logging.Logger
}

// Google books Calendar events with an attached Meet conference.
type Google struct {
	service         *gcal.Service
	calendarID      string
	location        *time.Location
	defaultDuration time.Duration
	logger          logging.Logger
}

// Open returns a Google scheduler when credentials and a stored token are
// present, otherwise an Unavailable scheduler carrying the reason.
func Open(ctx context.Context, cfg GoogleConfig) Scheduler {
	if strings.TrimSpace(cfg.CredentialsPath) == "" {
		return Unavailable{Reason: "calendar credentials_path is not configured"}
	}
	oauthCfg, err := LoadOAuthConfig(cfg.CredentialsPath)
	if err != nil {
		return Unavailable{Reason: err.Error()}
	}
	tokens := NewTokenFile(cfg.TokenPath)
	tok, err := tokens.Load()
	if errors.Is(err, ErrNotAuthorized) {
		return Unavailable{Reason: "calendar not authorized; run `lexdesk calendar auth`"}
	}
	if err != nil {
		return Unavailable{Reason: err.Error()}
	}
	source := &savingTokenSource{
		base:  oauthCfg.TokenSource(ctx, tok),
		file:  tokens,
		token: tok.AccessToken,
	}
	httpClient := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, source))
	svc, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return Unavailable{Reason: err.Error()}
	}
	return NewGoogle(svc, cfg)
}

func NewGoogle(service *gcal.Service, cfg GoogleConfig) *Google {
	calendarID := strings.TrimSpace(cfg.CalendarID)
	if calendarID == "" {
		calendarID = "primary"
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	duration := cfg.DefaultDuration
	if duration <= 0 {
		duration = 30 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Google{
		service:         service,
		calendarID:      calendarID,
		location:        loc,
		defaultDuration: duration,
		logger:          logger.With(logging.F("component", "calendar")),
	}
}

func (g *Google) Available() bool { return g != nil && g.service != nil }

func (g *Google) Status() string {
	return "google calendar " + g.calendarID
}

func (g *Google) CreateMeeting(ctx context.Context, req types.MeetingRequest) (types.Meeting, error) {
	if !g.Available() {
		return types.Meeting{}, ErrUnavailable
	}
	if err := types.Validate(&req); err != nil {
		return types.Meeting{}, err
	}
	event, err := buildEvent(req, g.location, g.defaultDuration)
	if err != nil {
		return types.Meeting{}, err
	}
	created, err := g.service.Events.Insert(g.calendarID, event).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		g.logger.Warn("calendar_event_failed", logging.F("client_email", req.ClientEmail), logging.Err(err))
		return types.Meeting{}, fmt.Errorf("create calendar event: %w", err)
	}
	meeting := types.Meeting{
		EventID:      created.Id,
		MeetingLink:  created.HangoutLink,
		CalendarLink: created.HtmlLink,
	}
	if meeting.MeetingLink == "" && created.ConferenceData != nil {
		for _, ep := range created.ConferenceData.EntryPoints {
			if ep != nil && ep.EntryPointType == "video" {
				meeting.MeetingLink = ep.Uri
				break
			}
		}
	}
	g.logger.Info("calendar_event_created", logging.F("event_id", meeting.EventID))
	return meeting, nil
}

func buildEvent(req types.MeetingRequest, loc *time.Location, defaultDuration time.Duration) (*gcal.Event, error) {
	start, err := time.ParseInLocation("2006-01-02 15:04", req.AppointmentDate+" "+req.AppointmentTime, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid appointment date/time: %w", err)
	}
	duration := defaultDuration
	if req.Duration > 0 {
		duration = time.Duration(req.Duration) * time.Minute
	}
	end := start.Add(duration)

	summary := "Consultation with " + req.ClientName
	if title := strings.TrimSpace(req.CaseTitle); title != "" {
		summary = "Consultation: " + title
	}
	var desc strings.Builder
	desc.WriteString("Client: " + req.ClientName + " <" + req.ClientEmail + ">\n")
	desc.WriteString("Attorney: " + req.AttorneyEmail + "\n")
	if title := strings.TrimSpace(req.CaseTitle); title != "" {
		desc.WriteString("Case: " + title + "\n")
	}

	requestID, err := conferenceRequestID()
	if err != nil {
		return nil, err
	}
	return &gcal.Event{
		Summary:     summary,
		Description: desc.String(),
		Start:       &gcal.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: loc.String()},
		End:         &gcal.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: loc.String()},
		Attendees: []*gcal.EventAttendee{
			{Email: req.ClientEmail, DisplayName: req.ClientName},
			{Email: req.AttorneyEmail},
		},
		ConferenceData: &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{
				RequestId:             requestID,
				ConferenceSolutionKey: &gcal.ConferenceSolutionKey{Type: meetConferenceType},
			},
		},
	}, nil
}

func conferenceRequestID() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
