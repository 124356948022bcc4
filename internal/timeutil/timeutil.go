// Package timeutil provides the timestamp formatting and day-bucketing
// helpers used by the transcript and conversation list views.
package timeutil

import (
	"fmt"
	"time"

	"github.com/crewlink/crewlink/internal/models"
)

const relativeCutoff = 7 * 24 * time.Hour

// Relative formats t relative to now: "just now", "3 minutes ago" and so
// on, switching to an absolute date beyond seven days.
func Relative(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < 2*time.Minute:
		return "1 minute ago"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 2*time.Hour:
		return "1 hour ago"
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "yesterday"
	case d < relativeCutoff:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	default:
		return Absolute(t)
	}
}

// Absolute formats t as a short absolute date.
func Absolute(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// Clock formats t as a wall-clock time for message rows.
func Clock(t time.Time) string {
	return t.Format("15:04")
}

// DayLabel names the calendar day of t for a separator row: "Today",
// "Yesterday", a weekday within the last week, otherwise an absolute
// date.
func DayLabel(t, now time.Time) string {
	day := truncateToDay(t)
	today := truncateToDay(now)
	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	case today.Sub(day) < relativeCutoff:
		return t.Format("Monday")
	default:
		return Absolute(t)
	}
}

// DayGroup is one calendar day's worth of messages.
type DayGroup struct {
	// Day is the start of the calendar day in the messages' location.
	Day time.Time

	// Label is the separator text for the group.
	Label string

	// Messages are the group's messages in their original order.
	Messages []models.Message
}

// GroupByDay buckets an ordered message sequence into day groups,
// preserving order within and across groups. Messages are assumed sorted
// by CreatedAt; an unsorted input produces one group per contiguous run.
func GroupByDay(msgs []models.Message, now time.Time) []DayGroup {
	var groups []DayGroup
	for _, msg := range msgs {
		day := truncateToDay(msg.CreatedAt)
		if n := len(groups); n > 0 && groups[n-1].Day.Equal(day) {
			groups[n-1].Messages = append(groups[n-1].Messages, msg)
			continue
		}
		groups = append(groups, DayGroup{
			Day:      day,
			Label:    DayLabel(msg.CreatedAt, now),
			Messages: []models.Message{msg},
		})
	}
	return groups
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
