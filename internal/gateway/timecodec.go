package gateway

import (
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/oselz/projecthub-api/internal/models"
)

const dateLayout = "2006-01-02"

// encodeStart converts an event's start to the provider wire shape. An
// all-day event carries a bare date with no time-of-day and no offset so
// the date cannot drift under timezone conversion.
func encodeStart(event *models.CalendarEvent) *calendar.EventDateTime {
	if event.AllDay {
		return &calendar.EventDateTime{Date: event.StartTime.Format(dateLayout)}
	}
	return &calendar.EventDateTime{
		DateTime: event.StartTime.Format(time.RFC3339),
		TimeZone: event.StartTime.Location().String(),
	}
}

// encodeEnd converts an event's end. The provider treats all-day end
// dates as exclusive, so the wire value is the day after the stored one.
func encodeEnd(event *models.CalendarEvent) *calendar.EventDateTime {
	if event.AllDay {
		return &calendar.EventDateTime{Date: event.EndTime.AddDate(0, 0, 1).Format(dateLayout)}
	}
	return &calendar.EventDateTime{
		DateTime: event.EndTime.Format(time.RFC3339),
		TimeZone: event.EndTime.Location().String(),
	}
}

// decodeWire converts a provider start/end pair back into instants plus
// the all-day flag, collapsing the exclusive all-day end date.
func decodeWire(start, end *calendar.EventDateTime) (time.Time, time.Time, bool, error) {
	if start != nil && start.Date != "" {
		startDate, err := time.ParseInLocation(dateLayout, start.Date, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, false, err
		}
		endDate := startDate
		if end != nil && end.Date != "" {
			parsed, err := time.ParseInLocation(dateLayout, end.Date, time.UTC)
			if err != nil {
				return time.Time{}, time.Time{}, false, err
			}
			endDate = parsed.AddDate(0, 0, -1)
		}
		if endDate.Before(startDate) {
			endDate = startDate
		}
		return startDate, endDate, true, nil
	}

	var startTime, endTime time.Time
	if start != nil && start.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, start.DateTime)
		if err != nil {
			return time.Time{}, time.Time{}, false, err
		}
		startTime = parsed
	}
	endTime = startTime
	if end != nil && end.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, end.DateTime)
		if err != nil {
			return time.Time{}, time.Time{}, false, err
		}
		endTime = parsed
	}
	return startTime, endTime, false, nil
}
