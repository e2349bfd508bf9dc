package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lexdesk/internal/store"
)

func TestStoreErrorClassifies(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"missing", fmt.Errorf("get case_9: %w", store.ErrNotFound), http.StatusNotFound},
		{"conflict-kept", conflictError("stale", nil), http.StatusConflict},
		{"disk", errors.New("disk full"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := errorResponse(storeError(tc.err))
			if status != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, status)
			}
		})
	}
	if storeError(nil) != nil {
		t.Fatalf("nil error should stay nil")
	}
}

func TestServiceErrorMessageHidesCause(t *testing.T) {
	err := unavailableError("storage unavailable", errors.New("open /var/db: permission denied"))
	if !strings.Contains(err.Error(), "permission denied") {
		t.Fatalf("Error should include cause: %q", err.Error())
	}
	rec := httptest.NewRecorder()
	writeServiceError(rec, err)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "permission denied") {
		t.Fatalf("response leaked cause: %s", rec.Body.String())
	}
}

func TestDecodeJSONBodyRejectsEmptyAndOversized(t *testing.T) {
	var out map[string]any
	req := httptest.NewRequest(http.MethodPost, "/v1/cases", strings.NewReader(""))
	err := decodeJSONBody(httptest.NewRecorder(), req, &out)
	if err == nil || !strings.Contains(err.Error(), "request body required") {
		t.Fatalf("expected empty body error, got %v", err)
	}

	big := `{"title":"` + strings.Repeat("x", maxJSONBody) + `"}`
	req = httptest.NewRequest(http.MethodPost, "/v1/cases", strings.NewReader(big))
	err = decodeJSONBody(httptest.NewRecorder(), req, &out)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("expected size error, got %v", err)
	}
}
