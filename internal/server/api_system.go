package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"lexdesk/internal/types"
)

const shutdownGrace = 5 * time.Second

type healthPayload struct {
	OK         bool   `json:"ok"`
	Success    bool   `json:"success"`
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
	PID        int    `json:"pid"`
	Calendar   bool   `json:"calendar"`
	Storage    string `json:"storage,omitempty"`
	Blob       string `json:"blob,omitempty"`
}

// Health is unauthenticated. Clients use it to find a running server and
// check API compatibility before loading the token.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	payload := healthPayload{
		OK:         true,
		Success:    true,
		Version:    a.Version,
		APIVersion: types.APIVersion,
		PID:        os.Getpid(),
		Calendar:   a.Services.Meetings.Available(),
	}
	if repo := a.Services.repo; repo != nil {
		payload.Storage = repo.Backend()
	}
	if blobs := a.Services.blobs; blobs != nil {
		payload.Blob = string(blobs.Driver())
	}
	writeJSON(w, http.StatusOK, payload)
}

// ShutdownServer acknowledges first and stops the listener afterwards so the
// caller gets its response. Only the first request triggers the shutdown.
func (a *API) ShutdownServer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if a.Shutdown == nil {
		writeFailure(w, http.StatusServiceUnavailable, "shutdown not available")
		return
	}
	if !a.shuttingDown.CompareAndSwap(false, true) {
		writeFailure(w, http.StatusConflict, "shutdown in progress")
		return
	}
	a.logger(r).Info("shutdown_requested")
	writeSuccess(w, http.StatusAccepted, "", nil)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = a.Shutdown(ctx)
	}()
}
