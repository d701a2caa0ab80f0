package access

import (
	"errors"
	"strings"

	"slotnik/internal/models"
)

// ErrDenied marks a caller lacking the required role or ownership. It is
// checked before any store access.
var ErrDenied = errors.New("access denied")

const (
	RoleOperator = "operator"
	RoleClient   = "client"
)

// Operation names the engine calls the gate guards.
type Operation string

const (
	OpPropose      Operation = "propose"
	OpListActive   Operation = "list_active"
	OpGetBooking   Operation = "get_booking"
	OpSetStatus    Operation = "set_status"
	OpCancel       Operation = "cancel"
	OpAvailability Operation = "availability"
	OpExport       Operation = "export"
)

// Identity is the verified (role, id) pair supplied by the identity
// provider in front of this service. The gate trusts it and never
// re-derives it. A zero Identity is an anonymous caller.
type Identity struct {
	ID    string
	Name  string
	Role  string
	Email string
}

// Gate is a stateless allow/deny predicate per operation.
type Gate struct{}

func NewGate() *Gate {
	return &Gate{}
}

// Allow checks whether the identity may perform op. Propose and
// availability are public; everything else needs the operator role.
// Client self-cancel goes through CanCancel instead.
func (g *Gate) Allow(id Identity, op Operation) error {
	switch op {
	case OpPropose, OpAvailability:
		return nil
	case OpListActive, OpGetBooking, OpSetStatus, OpCancel, OpExport:
		if id.Role == RoleOperator {
			return nil
		}
		return ErrDenied
	}
	return ErrDenied
}

// CanCancel allows operators to cancel any booking and clients to cancel
// a booking whose contact email matches their verified identity.
func (g *Gate) CanCancel(id Identity, booking *models.Booking) error {
	if id.Role == RoleOperator {
		return nil
	}
	if id.Email != "" && strings.EqualFold(id.Email, booking.Contact.Email) {
		return nil
	}
	return ErrDenied
}
