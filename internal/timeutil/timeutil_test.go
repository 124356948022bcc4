package timeutil

import (
	"testing"
	"time"

	"github.com/crewlink/crewlink/internal/models"
)

var testNow = time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)

func TestRelative(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		want string
	}{
		{"seconds", testNow.Add(-30 * time.Second), "just now"},
		{"one minute", testNow.Add(-90 * time.Second), "1 minute ago"},
		{"minutes", testNow.Add(-3 * time.Minute), "3 minutes ago"},
		{"one hour", testNow.Add(-time.Hour), "1 hour ago"},
		{"hours", testNow.Add(-5 * time.Hour), "5 hours ago"},
		{"yesterday", testNow.Add(-30 * time.Hour), "yesterday"},
		{"days", testNow.Add(-3 * 24 * time.Hour), "3 days ago"},
		{"absolute beyond a week", testNow.Add(-10 * 24 * time.Hour), "Aug 18, 2026"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Relative(tc.t, testNow); got != tc.want {
				t.Fatalf("Relative() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDayLabel(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		want string
	}{
		{"today", testNow.Add(-2 * time.Hour), "Today"},
		{"yesterday", testNow.AddDate(0, 0, -1), "Yesterday"},
		{"weekday", testNow.AddDate(0, 0, -3), "Tuesday"},
		{"absolute", testNow.AddDate(0, 0, -20), "Aug 8, 2026"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DayLabel(tc.t, testNow); got != tc.want {
				t.Fatalf("DayLabel() = %q, want %q", got, tc.want)
			}
		})
	}
}

func msgAt(id string, at time.Time) models.Message {
	return models.Message{ID: id, CreatedAt: at}
}

func TestGroupByDay(t *testing.T) {
	msgs := []models.Message{
		msgAt("m1", testNow.AddDate(0, 0, -1).Add(-2*time.Hour)),
		msgAt("m2", testNow.AddDate(0, 0, -1)),
		msgAt("m3", testNow.Add(-time.Hour)),
		msgAt("m4", testNow.Add(-time.Minute)),
	}

	groups := GroupByDay(msgs, testNow)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Label != "Yesterday" || len(groups[0].Messages) != 2 {
		t.Fatalf("group 0: %q with %d messages", groups[0].Label, len(groups[0].Messages))
	}
	if groups[1].Label != "Today" || len(groups[1].Messages) != 2 {
		t.Fatalf("group 1: %q with %d messages", groups[1].Label, len(groups[1].Messages))
	}
	if groups[1].Messages[0].ID != "m3" || groups[1].Messages[1].ID != "m4" {
		t.Fatal("order within a group must be preserved")
	}
}

func TestGroupByDay_Empty(t *testing.T) {
	if groups := GroupByDay(nil, testNow); groups != nil {
		t.Fatalf("expected nil groups, got %v", groups)
	}
}
