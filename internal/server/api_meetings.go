package server

import (
	"net/http"

	"lexdesk/internal/types"
)

func (a *API) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req types.MeetingRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	meeting, err := a.Services.Meetings.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "meeting", meeting)
}

func (a *API) MeetingStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"available": a.Services.Meetings.Available(),
		"status":    a.Services.Meetings.Status(),
	})
}
