package types

import "strings"

type Role string

const (
	RoleAttorney  Role = "attorney"
	RoleAssistant Role = "assistant"
	RoleClient    Role = "client"
)

func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAttorney:
		return RoleAttorney, true
	case RoleAssistant, "legal_assistant", "legal-assistant":
		return RoleAssistant, true
	case RoleClient:
		return RoleClient, true
	default:
		return "", false
	}
}

// Profile is the user identity persisted alongside the bearer token.
type Profile struct {
	Name  string `json:"name,omitempty" toml:"name"`
	Email string `json:"email,omitempty" toml:"email"`
	Role  Role   `json:"role" toml:"role"`
}

// NormalizeEmail is the stored form of an email address: trimmed and
// lowercased. Client lookups by email compare in this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
