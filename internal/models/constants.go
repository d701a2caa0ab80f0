package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const (
	MeetingRemote   = "remote"
	MeetingInPerson = "in-person"
	MeetingPhone    = "phone"
)

const (
	// DateLayout is the wire format for booking dates.
	DateLayout = "2006-01-02"

	// TimeLayout is the wire format for booking times.
	TimeLayout = "15:04"

	// SlotTimeLayout combines date and time into a parseable slot key.
	SlotTimeLayout = "2006-01-02 15:04"

	// SlotDurationMinutes is the fixed width of one booking window.
	SlotDurationMinutes = 60
)

const (
	// DefaultHorizonDays is the availability window when the caller does not ask for one.
	DefaultHorizonDays = 14

	// DefaultMaxAdvanceDays bounds how far ahead a slot may be proposed.
	DefaultMaxAdvanceDays = 365

	// MaxNameLen, MaxPhoneLen and MaxNotesLen clamp free-text fields during sanitizing.
	MaxNameLen  = 120
	MaxPhoneLen = 32
	MaxNotesLen = 2000
)

// ValidStatus reports whether s belongs to the closed status set.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// ValidMeetingType reports whether s belongs to the closed meeting-type set.
func ValidMeetingType(s string) bool {
	switch s {
	case MeetingRemote, MeetingInPerson, MeetingPhone:
		return true
	}
	return false
}
