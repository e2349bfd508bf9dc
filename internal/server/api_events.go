package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const eventsKeepAlive = 25 * time.Second

// Events streams committed writes as server-sent events. ?collection=
// narrows the feed to one collection.
func (a *API) Events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeFailure(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	collection := strings.TrimSpace(r.URL.Query().Get("collection"))
	events, cancel := a.Services.events.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ":\n\n")
	flusher.Flush()

	ticker := time.NewTicker(eventsKeepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			_, _ = fmt.Fprint(w, ":\n\n")
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			if collection != "" && ev.Collection != collection {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
