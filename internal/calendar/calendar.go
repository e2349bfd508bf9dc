// Package calendar exposes meeting scheduling as an optional capability.
package calendar

import (
	"context"
	"errors"
	"strings"

	"lexdesk/internal/types"
)

var ErrUnavailable = errors.New("calendar integration unavailable")

// Scheduler creates video meetings on an external calendar. Callers check
// Available before offering the capability; CreateMeeting on an unavailable
// scheduler fails with ErrUnavailable.
type Scheduler interface {
	Available() bool
	Status() string
	CreateMeeting(ctx context.Context, req types.MeetingRequest) (types.Meeting, error)
}

type Unavailable struct {
	Reason string
}

func (u Unavailable) Available() bool { return false }

func (u Unavailable) Status() string {
	if strings.TrimSpace(u.Reason) == "" {
		return "calendar integration is not configured"
	}
	return u.Reason
}

func (u Unavailable) CreateMeeting(ctx context.Context, req types.MeetingRequest) (types.Meeting, error) {
	return types.Meeting{}, ErrUnavailable
}
