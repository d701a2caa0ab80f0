package engine

import "errors"

var (
	// ErrSlotTaken is returned when a non-cancelled booking already holds
	// the requested (date, time). No write is performed.
	ErrSlotTaken = errors.New("slot is already booked")

	// ErrNotFound marks an unknown booking id.
	ErrNotFound = errors.New("booking not found")

	// ErrPastSlot rejects proposals whose slot starts strictly before now.
	// A slot starting exactly at now is accepted.
	ErrPastSlot = errors.New("slot is in the past")

	// ErrTooFarAhead bounds how far into the future a slot may be proposed.
	ErrTooFarAhead = errors.New("slot is too far in the future")

	// ErrCancelledTerminal rejects status changes out of cancelled.
	ErrCancelledTerminal = errors.New("cancelled bookings cannot change status")
)
