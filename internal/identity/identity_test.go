package identity

import (
	"testing"

	"github.com/crewlink/crewlink/internal/models"
)

func TestCanonical(t *testing.T) {
	cases := []struct {
		name string
		ref  models.UserRef
		want string
	}{
		{"bare id", models.UserRef{Raw: "user-1"}, "user-1"},
		{"embedded object", models.UserRef{ID: "user-1", FirstName: "Mari"}, "user-1"},
		{"object id wins over raw", models.UserRef{ID: "user-1", Raw: "stale"}, "user-1"},
		{"whitespace trimmed", models.UserRef{Raw: "  user-1 "}, "user-1"},
		{"empty", models.UserRef{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Canonical(tc.ref); got != tc.want {
				t.Fatalf("Canonical() = %q, want %q", got, tc.want)
			}
		})
	}
}

// Identity symmetry: every representation of the same underlying id is
// self, and every representation of any other id is not.
func TestIsSelf_AllRepresentations(t *testing.T) {
	self := "user-42"
	same := []models.UserRef{
		{Raw: "user-42"},
		{ID: "user-42"},
		{ID: "user-42", FirstName: "Jonas", LastName: "Berg"},
		{Raw: " user-42 "},
	}
	other := []models.UserRef{
		{Raw: "user-43"},
		{ID: "user-43", FirstName: "Mari"},
		{},
	}

	for _, ref := range same {
		if !IsSelf(ref, self) {
			t.Fatalf("IsSelf(%+v, %q) = false, want true", ref, self)
		}
	}
	for _, ref := range other {
		if IsSelf(ref, self) {
			t.Fatalf("IsSelf(%+v, %q) = true, want false", ref, self)
		}
	}
}

func TestIsSelf_EmptySelfNeverMatches(t *testing.T) {
	if IsSelf(models.UserRef{}, "") {
		t.Fatal("empty ref and empty self must not match")
	}
	if IsSelf(models.UserRef{Raw: ""}, "") {
		t.Fatal("blank ids must not be treated as the same user")
	}
}

func TestSelfID_FieldPrecedence(t *testing.T) {
	if got := SelfID(Session{UserID: "user-1", ID: "user-2"}); got != "user-1" {
		t.Fatalf("UserID must win, got %q", got)
	}
	if got := SelfID(Session{ID: "user-2"}); got != "user-2" {
		t.Fatalf("ID fallback, got %q", got)
	}
	if got := SelfID(Session{}); got != "" {
		t.Fatalf("empty session, got %q", got)
	}
}

func TestEqual(t *testing.T) {
	a := models.UserRef{Raw: "user-1"}
	b := models.UserRef{ID: "user-1", FirstName: "Mari"}
	if !Equal(a, b) {
		t.Fatal("different representations of the same id must be equal")
	}
	if Equal(models.UserRef{}, models.UserRef{}) {
		t.Fatal("two empty refs must not be equal")
	}
}
