package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type CaseStatus string

const (
	CaseStatusActive  CaseStatus = "Active"
	CaseStatusPending CaseStatus = "Pending"
	CaseStatusClosed  CaseStatus = "Closed"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

type Case struct {
	ID            string          `json:"id"`
	CaseNumber    string          `json:"case_number,omitempty" validate:"max=64"`
	Title         string          `json:"title" validate:"required,max=200"`
	Description   string          `json:"description,omitempty"`
	ClientID      string          `json:"client_id,omitempty"`
	ClientName    string          `json:"client_name,omitempty"`
	AttorneyEmail string          `json:"attorney_email,omitempty" validate:"omitempty,email"`
	Status        CaseStatus      `json:"status,omitempty" validate:"omitempty,oneof=Active Pending Closed"`
	Category      string          `json:"category,omitempty"`
	Priority      Priority        `json:"priority,omitempty" validate:"omitempty,oneof=Low Medium High"`
	Court         string          `json:"court,omitempty"`
	FilingDate    *time.Time      `json:"filing_date,omitempty"`
	NextHearing   *time.Time      `json:"next_hearing,omitempty"`
	Retainer      decimal.Decimal `json:"retainer"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (c *Case) EntityID() string {
	if c == nil {
		return ""
	}
	return c.ID
}

func (c *Case) SearchFields() []string {
	if c == nil {
		return nil
	}
	return []string{c.Title, c.CaseNumber, c.ClientName}
}

func (c *Case) FieldValue(name string) (string, bool) {
	if c == nil {
		return "", false
	}
	switch name {
	case "status":
		return string(c.Status), true
	case "category":
		return c.Category, true
	case "priority":
		return string(c.Priority), true
	case "client_id", "client":
		return c.ClientID, true
	case "attorney_email":
		return c.AttorneyEmail, true
	default:
		return "", false
	}
}

func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := *c
	if c.FilingDate != nil {
		filed := *c.FilingDate
		out.FilingDate = &filed
	}
	if c.NextHearing != nil {
		hearing := *c.NextHearing
		out.NextHearing = &hearing
	}
	return &out
}
