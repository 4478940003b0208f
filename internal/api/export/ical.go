package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/wanderbudget/go-trip-budget/internal/types"
)

// icalTimeLayout is the local date-time form of RFC 5545.
const icalTimeLayout = "20060102T150405"

// renderICal serializes the trip's timed items as an iCalendar document.
// Items without a start time have no calendar position and are skipped.
// Events without an explicit end default to one hour.
func renderICal(t *types.Trip, days []types.DayItinerary, now time.Time) []byte {
	var b strings.Builder
	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "PRODID:-//WanderBudget//Trip Export//EN")
	writeLine(&b, "CALSCALE:GREGORIAN")
	writeLine(&b, "X-WR-CALNAME:"+escapeText(t.Name))

	stamp := now.Format(icalTimeLayout) + "Z"
	for _, day := range days {
		date := t.StartDate.AddDate(0, 0, day.DayNumber-1)
		for _, item := range day.Items {
			if item.TimeSlot == nil || item.TimeSlot.StartTime == "" {
				continue
			}
			start, err := atTime(date, item.TimeSlot.StartTime)
			if err != nil {
				continue
			}
			end := start.Add(time.Hour)
			if item.TimeSlot.EndTime != "" {
				if e, err := atTime(date, item.TimeSlot.EndTime); err == nil && e.After(start) {
					end = e
				}
			}

			writeLine(&b, "BEGIN:VEVENT")
			writeLine(&b, "UID:"+item.ID.String()+"@wanderbudget")
			writeLine(&b, "DTSTAMP:"+stamp)
			writeLine(&b, "DTSTART:"+start.Format(icalTimeLayout))
			writeLine(&b, "DTEND:"+end.Format(icalTimeLayout))
			writeLine(&b, "SUMMARY:"+escapeText(item.Name))
			if item.Location != nil && item.Location.Address != "" {
				writeLine(&b, "LOCATION:"+escapeText(item.Location.Address))
			}
			writeLine(&b, fmt.Sprintf("CATEGORIES:%s", strings.ToUpper(string(item.Category))))
			writeLine(&b, "END:VEVENT")
		}
	}
	writeLine(&b, "END:VCALENDAR")
	return []byte(b.String())
}

// atTime combines a calendar date with an "HH:MM" clock value.
func atTime(date time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, date.Location()), nil
}

// writeLine appends a content line folded at 75 octets per RFC 5545.
func writeLine(b *strings.Builder, line string) {
	const limit = 75
	for len(line) > limit {
		b.WriteString(line[:limit])
		b.WriteString("\r\n ")
		line = line[limit:]
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

// escapeText escapes the characters RFC 5545 reserves in TEXT values.
func escapeText(s string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\n", "\\n",
	)
	return r.Replace(s)
}
