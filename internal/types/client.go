package types

import "time"

type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "Active"
	ClientStatusInactive ClientStatus = "Inactive"
)

type Client struct {
	ID        string       `json:"id"`
	Name      string       `json:"name" validate:"required,max=200"`
	Email     string       `json:"email" validate:"required,email"`
	Phone     string       `json:"phone,omitempty"`
	Company   string       `json:"company,omitempty"`
	Address   string       `json:"address,omitempty"`
	Status    ClientStatus `json:"status,omitempty" validate:"omitempty,oneof=Active Inactive"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (c *Client) EntityID() string {
	if c == nil {
		return ""
	}
	return c.ID
}

func (c *Client) SearchFields() []string {
	if c == nil {
		return nil
	}
	return []string{c.Name, c.Email, c.Company}
}

func (c *Client) FieldValue(name string) (string, bool) {
	if c == nil {
		return "", false
	}
	switch name {
	case "status":
		return string(c.Status), true
	case "email":
		return c.Email, true
	default:
		return "", false
	}
}

func (c *Client) Clone() *Client {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}
