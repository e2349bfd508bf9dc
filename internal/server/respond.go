package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const maxJSONBody = 1 << 20

// Every response body is a JSON object with a success flag. Failures carry
// the message under both "message" and "error" for older clients.

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, key string, value any) {
	body := map[string]any{"success": true}
	if key != "" {
		body[key] = value
	}
	writeJSON(w, status, body)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message, "error": message})
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeFailure(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	status, message := errorResponse(err)
	writeFailure(w, status, message)
}

// decodeJSONBody reads at most maxJSONBody bytes of JSON into out. An empty
// body is invalid.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, out any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(r.Body).Decode(out)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return invalidError("request body required", err)
	case errors.As(err, &tooLarge):
		return invalidError("request body too large", err)
	}
	return invalidError("invalid json body", err)
}
