package server

import (
	"context"
	"errors"
	"strings"

	"lexdesk/internal/calendar"
	"lexdesk/internal/logging"
	"lexdesk/internal/types"
)

type MeetingService struct {
	services  *Services
	scheduler calendar.Scheduler
	logger    logging.Logger
}

func (m *MeetingService) Available() bool {
	return m.scheduler.Available()
}

func (m *MeetingService) Status() string {
	return m.scheduler.Status()
}

// Create books a meeting. A request naming a case borrows the case title and
// its client's contact details for fields the caller left empty.
func (m *MeetingService) Create(ctx context.Context, req types.MeetingRequest) (types.Meeting, error) {
	if !m.scheduler.Available() {
		return types.Meeting{}, unavailableError(m.scheduler.Status(), calendar.ErrUnavailable)
	}
	if err := m.fillFromCase(ctx, &req); err != nil {
		return types.Meeting{}, err
	}
	meeting, err := m.scheduler.CreateMeeting(ctx, req)
	if err != nil {
		var verr *types.ValidationError
		switch {
		case errors.As(err, &verr):
			return types.Meeting{}, invalidError(verr.Error(), err)
		case errors.Is(err, calendar.ErrUnavailable):
			return types.Meeting{}, unavailableError(m.scheduler.Status(), err)
		case strings.HasPrefix(err.Error(), "invalid appointment"):
			return types.Meeting{}, invalidError(err.Error(), err)
		default:
			logging.FromContext(ctx, m.logger).Warn("meeting_create_failed", logging.Err(err))
			return types.Meeting{}, unavailableError("calendar request failed", err)
		}
	}
	return meeting, nil
}

func (m *MeetingService) fillFromCase(ctx context.Context, req *types.MeetingRequest) error {
	caseID := strings.TrimSpace(req.CaseID)
	if caseID == "" {
		return nil
	}
	c, ok, err := m.services.repo.Cases().Get(ctx, caseID)
	if err != nil {
		return storeError(err)
	}
	if !ok {
		return invalidError("case not found", nil)
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
	client, ok, err := m.services.repo.Clients().Get(ctx, c.ClientID)
	if err != nil {
		return storeError(err)
	}
	if !ok {
		return nil
	}
	if req.ClientName == "" {
		req.ClientName = client.Name
	}
	if req.ClientEmail == "" {
		req.ClientEmail = client.Email
	}
	return nil
}
