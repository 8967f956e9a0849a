package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"

	"github.com/oselz/projecthub-api/internal/models"
)

func TestEncodeAllDayEmitsBareDates(t *testing.T) {
	event := &models.CalendarEvent{
		StartTime: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		AllDay:    true,
	}

	start := encodeStart(event)
	end := encodeEnd(event)

	assert.Equal(t, "2024-01-10", start.Date)
	assert.Empty(t, start.DateTime)
	// all-day end dates are exclusive on the wire
	assert.Equal(t, "2024-01-11", end.Date)
}

func TestEncodeTimedCarriesOffset(t *testing.T) {
	loc := time.FixedZone("CET", 60*60)
	event := &models.CalendarEvent{
		StartTime: time.Date(2024, 3, 1, 9, 0, 0, 0, loc),
		EndTime:   time.Date(2024, 3, 1, 9, 30, 0, 0, loc),
	}

	start := encodeStart(event)
	end := encodeEnd(event)

	assert.Equal(t, "2024-03-01T09:00:00+01:00", start.DateTime)
	assert.Equal(t, "2024-03-01T09:30:00+01:00", end.DateTime)
	assert.Empty(t, start.Date)
}

func TestAllDayDateRoundTrip(t *testing.T) {
	event := &models.CalendarEvent{
		StartTime: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		AllDay:    true,
	}

	start, end, allDay, err := decodeWire(encodeStart(event), encodeEnd(event))
	require.NoError(t, err)
	require.True(t, allDay)
	assert.Equal(t, event.StartTime, start)
	assert.Equal(t, event.EndTime, end)
}

func TestAllDayRoundTripIgnoresServerZone(t *testing.T) {
	// the stored instants may carry a non-UTC server zone; the date on
	// the wire must still be the calendar date, not a shifted one
	loc := time.FixedZone("UTC-11", -11*60*60)
	event := &models.CalendarEvent{
		StartTime: time.Date(2024, 1, 10, 0, 0, 0, 0, loc),
		EndTime:   time.Date(2024, 1, 10, 0, 0, 0, 0, loc),
		AllDay:    true,
	}

	start := encodeStart(event)
	assert.Equal(t, "2024-01-10", start.Date)

	decodedStart, decodedEnd, allDay, err := decodeWire(start, encodeEnd(event))
	require.NoError(t, err)
	require.True(t, allDay)
	assert.Equal(t, "2024-01-10", decodedStart.Format(dateLayout))
	assert.Equal(t, "2024-01-10", decodedEnd.Format(dateLayout))
}

func TestTimedRoundTripPreservesInstant(t *testing.T) {
	loc := time.FixedZone("WIB", 7*60*60)
	event := &models.CalendarEvent{
		StartTime: time.Date(2024, 6, 1, 14, 0, 0, 0, loc),
		EndTime:   time.Date(2024, 6, 1, 15, 0, 0, 0, loc),
	}

	start, end, allDay, err := decodeWire(encodeStart(event), encodeEnd(event))
	require.NoError(t, err)
	require.False(t, allDay)
	assert.True(t, event.StartTime.Equal(start))
	assert.True(t, event.EndTime.Equal(end))
}

func TestDecodeSingleDayAllDay(t *testing.T) {
	start, end, allDay, err := decodeWire(
		&calendar.EventDateTime{Date: "2024-02-05"},
		&calendar.EventDateTime{Date: "2024-02-06"},
	)
	require.NoError(t, err)
	require.True(t, allDay)
	assert.Equal(t, start, end)
	assert.Equal(t, "2024-02-05", start.Format(dateLayout))
}

func TestDecodeGarbageDateFails(t *testing.T) {
	_, _, _, err := decodeWire(&calendar.EventDateTime{Date: "05/02/2024"}, nil)
	assert.Error(t, err)
}
