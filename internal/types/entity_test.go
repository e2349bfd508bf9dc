package types

import (
	"errors"
	"strings"
	"testing"
)

func TestMatchesSearchTermCaseInsensitive(t *testing.T) {
	c := &Case{ID: "c1", Title: "Acme v. Globex", CaseNumber: "CV-2024-001", ClientName: "Acme Corp"}
	cases := []struct {
		term string
		want bool
	}{
		{"", true},
		{"acme", true},
		{"GLOBEX", true},
		{"cv-2024", true},
		{"initech", false},
	}
	for _, tc := range cases {
		if got := Matches(c, tc.term, nil); got != tc.want {
			t.Fatalf("Matches(%q) = %v, want %v", tc.term, got, tc.want)
		}
	}
}

func TestMatchesFiltersExactAndAll(t *testing.T) {
	active := &Case{ID: "c1", Title: "One", Status: CaseStatusActive, Category: "Civil"}
	closed := &Case{ID: "c2", Title: "Two", Status: CaseStatusClosed, Category: "Civil"}

	filters := map[string]string{"status": "Active", "category": "All"}
	if !Matches(active, "", filters) {
		t.Fatalf("expected active case to match")
	}
	if Matches(closed, "", filters) {
		t.Fatalf("expected closed case to be filtered out")
	}
	if Matches(active, "", map[string]string{"status": "active"}) {
		t.Fatalf("filter values compare exactly")
	}
	if Matches(active, "", map[string]string{"venue": "north"}) {
		t.Fatalf("unknown filter field should not match")
	}
	if !Matches(active, "", map[string]string{"venue": "all"}) {
		t.Fatalf("all places no constraint even on unknown fields")
	}
}

func TestMatchesRejectsNilEntity(t *testing.T) {
	var c *Case
	if Matches(c, "", nil) {
		t.Fatalf("expected nil entity not to match")
	}
}

func TestDocumentCaseFilterAlias(t *testing.T) {
	doc := &Document{ID: "d1", Title: "Complaint", CaseID: "c1"}
	if !Matches(doc, "", map[string]string{"case": "c1"}) {
		t.Fatalf("expected case alias to match case_id")
	}
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	err := Validate(&Client{Name: "", Email: "not-an-email"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Fields["name"] != "required" {
		t.Fatalf("expected name required, got %#v", verr.Fields)
	}
	if verr.Fields["email"] != "email" {
		t.Fatalf("expected email rule, got %#v", verr.Fields)
	}
	if !strings.Contains(err.Error(), "name is required") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestValidateTaskStatusWithSpaces(t *testing.T) {
	if err := Validate(&Task{Title: "File motion", Status: TaskStatusInProgress}); err != nil {
		t.Fatalf("expected in-progress status to validate: %v", err)
	}
	if err := Validate(&Task{Title: "File motion", Status: "Blocked"}); err == nil {
		t.Fatalf("expected unsupported status to fail")
	}
}

func TestValidateMeetingRequestFormats(t *testing.T) {
	req := &MeetingRequest{
		ClientName:      "Dana",
		ClientEmail:     "dana@example.com",
		AttorneyEmail:   "counsel@example.com",
		AppointmentDate: "2026-03-04",
		AppointmentTime: "14:30",
		Duration:        30,
	}
	if err := Validate(req); err != nil {
		t.Fatalf("expected valid meeting request: %v", err)
	}
	req.AppointmentTime = "2pm"
	if err := Validate(req); err == nil {
		t.Fatalf("expected invalid time to fail")
	}
}

func TestParseRole(t *testing.T) {
	if role, ok := ParseRole(" Attorney "); !ok || role != RoleAttorney {
		t.Fatalf("unexpected role: %q %v", role, ok)
	}
	if role, ok := ParseRole("legal_assistant"); !ok || role != RoleAssistant {
		t.Fatalf("unexpected role: %q %v", role, ok)
	}
	if _, ok := ParseRole("judge"); ok {
		t.Fatalf("expected unknown role to fail")
	}
}
