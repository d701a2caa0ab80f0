package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotKey(t *testing.T) {
	b := &Booking{Date: "2026-03-01", Time: "09:00"}
	assert.Equal(t, "2026-03-01 09:00", b.SlotKey())
}

func TestStartTime(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	b := &Booking{Date: "2026-03-01", Time: "09:00"}
	start, err := b.StartTime(loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, loc), start)
}

func TestStartTimeRejectsGarbage(t *testing.T) {
	b := &Booking{Date: "soon", Time: "morning"}
	_, err := b.StartTime(time.UTC)
	assert.Error(t, err)
}

func TestOccupies(t *testing.T) {
	assert.True(t, (&Booking{Status: StatusPending}).Occupies())
	assert.True(t, (&Booking{Status: StatusConfirmed}).Occupies())
	assert.False(t, (&Booking{Status: StatusCancelled}).Occupies())
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusConfirmed, StatusCancelled} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus("archived"))
	assert.False(t, ValidStatus(""))
}

func TestValidMeetingType(t *testing.T) {
	for _, m := range []string{MeetingRemote, MeetingInPerson, MeetingPhone} {
		assert.True(t, ValidMeetingType(m), m)
	}
	assert.False(t, ValidMeetingType("telegram"))
}
