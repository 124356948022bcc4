// Package identity centralizes user-identity comparison. Sender refs
// arrive either as bare ids or embedded objects, and the session's own id
// can come from more than one field depending on how the session was
// established. Every ownership decision in the client goes through this
// package; ad-hoc comparisons at render sites are how messages end up on
// the wrong side of a conversation.
package identity

import (
	"strings"

	"github.com/crewlink/crewlink/internal/models"
)

// Session holds the authenticated user's identity as reported by the
// server. Token-established sessions populate UserID; profile-established
// sessions populate ID. Both may be set; UserID wins.
type Session struct {
	UserID string `json:"userId,omitempty"`
	ID     string `json:"id,omitempty"`
}

// SelfID resolves the session's canonical user id. Field precedence is
// UserID, then ID. Empty when the session carries neither.
func SelfID(s Session) string {
	if id := strings.TrimSpace(s.UserID); id != "" {
		return id
	}
	return strings.TrimSpace(s.ID)
}

// Canonical normalizes a user ref into its canonical identifier: the
// embedded object id when present, otherwise the bare string form.
func Canonical(ref models.UserRef) string {
	if id := strings.TrimSpace(ref.ID); id != "" {
		return id
	}
	return strings.TrimSpace(ref.Raw)
}

// IsSelf reports whether ref identifies the user with canonical id
// selfID. Comparison is over string-normalized forms, never reference or
// raw-field equality.
func IsSelf(ref models.UserRef, selfID string) bool {
	id := Canonical(ref)
	if id == "" {
		return false
	}
	return id == strings.TrimSpace(selfID)
}

// Equal reports whether two refs identify the same user.
func Equal(a, b models.UserRef) bool {
	ca := Canonical(a)
	return ca != "" && ca == Canonical(b)
}
