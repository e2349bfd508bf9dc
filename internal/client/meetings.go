package client

import (
	"context"
	"net/http"

	"lexdesk/internal/types"
)

func (c *Client) CreateMeeting(ctx context.Context, req types.MeetingRequest) Envelope[types.Meeting] {
	var resp meetingResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/meetings", req, true, &resp); err != nil {
		return fail[types.Meeting](err)
	}
	return ok(resp.Meeting, http.StatusCreated)
}

// MeetingStatus reports whether the server can book meetings.
func (c *Client) MeetingStatus(ctx context.Context) Envelope[MeetingStatus] {
	var resp MeetingStatus
	if err := c.doJSON(ctx, http.MethodGet, "/v1/meetings/status", nil, true, &resp); err != nil {
		return fail[MeetingStatus](err)
	}
	return ok(resp, http.StatusOK)
}
