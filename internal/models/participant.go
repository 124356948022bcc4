package models

import "strings"

// Role identifies which side of the marketplace a participant is on.
type Role string

const (
	RoleDriver   Role = "driver"
	RoleEmployer Role = "employer"
)

// Participant is a conversation participant summary as returned by the
// server. It is a projection of the full profile, not the profile itself.
type Participant struct {
	// ID is the participant's user identifier.
	ID string `json:"id"`

	// FirstName and LastName are the display name parts.
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	// AvatarURL is an optional profile image URL.
	AvatarURL string `json:"avatarUrl,omitempty"`

	// Company is the organization name, set for employer accounts.
	Company string `json:"company,omitempty"`

	// Role tags the participant as driver or employer.
	Role Role `json:"role,omitempty"`
}

// DisplayName returns the participant's name for rendering, falling back
// to the company name and then the raw id.
func (p Participant) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	if name != "" {
		return name
	}
	if company := strings.TrimSpace(p.Company); company != "" {
		return company
	}
	return p.ID
}
