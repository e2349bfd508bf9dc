package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"lexdesk/internal/app"
	"lexdesk/internal/state"
	"lexdesk/internal/types"
)

type MeetCommand struct {
	stdout    io.Writer
	stderr    io.Writer
	newClient clientFactory
	copyLink  func(string) error
}

func NewMeetCommand(stdout, stderr io.Writer, newClient clientFactory) *MeetCommand {
	return &MeetCommand{stdout: stdout, stderr: stderr, newClient: newClient, copyLink: app.CopyToClipboard}
}

func (c *MeetCommand) Run(args []string) error {
	fs := flag.NewFlagSet("meet", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	status := fs.Bool("status", false, "only report whether meetings can be booked")
	caseID := fs.String("case", "", "case id; fills client, attorney and title from the case")
	clientName := fs.String("client-name", "", "client name")
	clientEmail := fs.String("client-email", "", "client email")
	attorneyEmail := fs.String("attorney-email", "", "attorney email")
	date := fs.String("date", "", "appointment date YYYY-MM-DD")
	at := fs.String("time", "", "appointment time HH:MM")
	duration := fs.Int("duration", 0, "duration in minutes")
	title := fs.String("title", "", "case title shown in the invite")
	copyLink := fs.Bool("copy", false, "copy the meeting link to the clipboard")
	if err := fs.Parse(args); err != nil {
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
	if *status {
		env := lc.MeetingStatus(ctx)
		if err := env.Err(); err != nil {
			return err
		}
		label := "unavailable"
		if env.Data.Available {
			label = "available"
		}
		fmt.Fprintf(c.stdout, "%s: %s\n", label, env.Data.Status)
		return nil
	}

	req := types.MeetingRequest{
		CaseID:          *caseID,
		ClientName:      *clientName,
		ClientEmail:     *clientEmail,
		AttorneyEmail:   *attorneyEmail,
		AppointmentDate: *date,
		AppointmentTime: *at,
		Duration:        *duration,
		CaseTitle:       *title,
	}
	if *caseID != "" {
		if err := fillMeetingFromCase(ctx, lc.Gateways(), *caseID, &req); err != nil {
			return err
		}
	}
	if err := types.Validate(&req); err != nil {
		return err
	}
	env := lc.CreateMeeting(ctx, req)
	if err := env.Err(); err != nil {
		return err
	}
	meeting := env.Data
	fmt.Fprintf(c.stdout, "event:    %s\nmeeting:  %s\ncalendar: %s\n", meeting.EventID, dash(meeting.MeetingLink), dash(meeting.CalendarLink))
	if *copyLink && meeting.MeetingLink != "" && c.copyLink != nil {
		if err := c.copyLink(meeting.MeetingLink); err != nil {
			fmt.Fprintf(c.stderr, "copy link: %v\n", err)
		}
	}
	return nil
}

// fillMeetingFromCase fills blank request fields from the case and its client.
func fillMeetingFromCase(ctx context.Context, gateways state.Gateways, caseID string, req *types.MeetingRequest) error {
	cases := state.NewRepository[*types.Case]("cases", gateways.Cases)
	out := cases.FetchByID(ctx, caseID)
	if err := outcomeErr(out); err != nil {
		return err
	}
	c := out.Item
	if c == nil {
		return errors.New("case not found")
	}
	if req.CaseTitle == "" {
		req.CaseTitle = c.Title
	}
	if req.AttorneyEmail == "" {
		req.AttorneyEmail = c.AttorneyEmail
	}
	if c.ClientID == "" || (req.ClientName != "" && req.ClientEmail != "") {
		return nil
	}
	clients := state.NewRepository[*types.Client]("clients", gateways.Clients)
	co := clients.FetchByID(ctx, c.ClientID)
	if err := outcomeErr(co); err != nil {
		return err
	}
	if co.Item == nil {
		return nil
	}
	if req.ClientName == "" {
		req.ClientName = co.Item.Name
	}
	if req.ClientEmail == "" {
		req.ClientEmail = co.Item.Email
	}
	return nil
}
