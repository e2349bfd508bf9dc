package types

// MeetingRequest books a consultation. With CaseID set, the server fills
// empty client and case fields from the stored case.
type MeetingRequest struct {
	CaseID          string `json:"case_id,omitempty"`
	ClientName      string `json:"client_name" validate:"required"`
	ClientEmail     string `json:"client_email" validate:"required,email"`
	AttorneyEmail   string `json:"attorney_email" validate:"required,email"`
	AppointmentDate string `json:"appointment_date" validate:"required,datetime=2006-01-02"`
	AppointmentTime string `json:"appointment_time" validate:"required,datetime=15:04"`
	Duration        int    `json:"duration" validate:"omitempty,min=5,max=480"`
	CaseTitle       string `json:"case_title,omitempty"`
}

type Meeting struct {
	EventID      string `json:"event_id"`
	MeetingLink  string `json:"meeting_link,omitempty"`
	CalendarLink string `json:"calendar_link,omitempty"`
}
