package access

import (
	"testing"

	"slotnik/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAllowPublicOperations(t *testing.T) {
	gate := NewGate()
	anonymous := Identity{}

	assert.NoError(t, gate.Allow(anonymous, OpPropose))
	assert.NoError(t, gate.Allow(anonymous, OpAvailability))
}

func TestAllowOperatorOperations(t *testing.T) {
	gate := NewGate()
	operator := Identity{ID: "k1", Role: RoleOperator}
	client := Identity{ID: "k2", Role: RoleClient}
	anonymous := Identity{}

	for _, op := range []Operation{OpListActive, OpGetBooking, OpSetStatus, OpCancel, OpExport} {
		assert.NoError(t, gate.Allow(operator, op), "operator %s", op)
		assert.ErrorIs(t, gate.Allow(client, op), ErrDenied, "client %s", op)
		assert.ErrorIs(t, gate.Allow(anonymous, op), ErrDenied, "anonymous %s", op)
	}
}

func TestAllowUnknownOperation(t *testing.T) {
	gate := NewGate()
	assert.ErrorIs(t, gate.Allow(Identity{Role: RoleOperator}, Operation("reboot")), ErrDenied)
}

func TestCanCancelOwnership(t *testing.T) {
	gate := NewGate()
	booking := &models.Booking{
		ID:      "b-1",
		Contact: models.Contact{Email: "ada@example.com"},
	}

	t.Run("OperatorCancelsAnything", func(t *testing.T) {
		assert.NoError(t, gate.CanCancel(Identity{Role: RoleOperator}, booking))
	})

	t.Run("OwnerMatchIsCaseInsensitive", func(t *testing.T) {
		owner := Identity{Role: RoleClient, Email: "Ada@Example.com"}
		assert.NoError(t, gate.CanCancel(owner, booking))
	})

	t.Run("StrangerDenied", func(t *testing.T) {
		stranger := Identity{Role: RoleClient, Email: "mallory@example.com"}
		assert.ErrorIs(t, gate.CanCancel(stranger, booking), ErrDenied)
	})

	t.Run("EmptyEmailDenied", func(t *testing.T) {
		assert.ErrorIs(t, gate.CanCancel(Identity{Role: RoleClient}, booking), ErrDenied)
	})
}
