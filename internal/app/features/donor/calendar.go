package donor

import (
	"time"

	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

const (
	calendarEndpoint = "https://www.google.com/calendar/render"
	calendarDetails  = "Remember to bring ID and drink plenty of water!"
	calendarStamp    = "20060102T150405"
)

// CalendarLink builds a Google Calendar "add event" link for a one hour
// appointment starting 09:00 on date (YYYY-MM-DD). Times carry no zone so
// the calendar shows them in the donor's own timezone. A blank location is
// left out of the link. Returns "" when the date does not parse.
func CalendarLink(title, date, location string) string {
	day, ok := models.ParseDate(date)
	if !ok {
		return ""
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	return urlutil.AddOrSetQueryParams(calendarEndpoint, map[string]string{
		"action":   "TEMPLATE",
		"text":     title,
		"dates":    start.Format(calendarStamp) + "/" + end.Format(calendarStamp),
		"location": location,
		"details":  calendarDetails,
	})
}
