package models

import (
	"fmt"
	"time"
)

// Contact holds the free-form client details attached to a booking.
// Fields are sanitized at the boundary before they reach the engine.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Booking is the sole persisted entity. Date and Time are kept in their
// wire form ("2006-01-02" / "15:04") because together they are the slot
// key; StartTime resolves them against the configured location.
type Booking struct {
	ID          string    `json:"id"`
	Contact     Contact   `json:"contact"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	MeetingType string    `json:"meeting_type"`
	Notes       string    `json:"notes,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// SlotKey identifies the one-hour window a booking claims.
func (b *Booking) SlotKey() string {
	return b.Date + " " + b.Time
}

// StartTime resolves the booking's slot start in the given location.
func (b *Booking) StartTime(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(SlotTimeLayout, b.SlotKey(), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse slot %q: %w", b.SlotKey(), err)
	}
	return t, nil
}

// Occupies reports whether the booking holds its slot for conflict and
// availability purposes. Cancelled bookings are history, not occupancy.
func (b *Booking) Occupies() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// BusyInterval is a one-hour occupied window emitted by availability queries.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
