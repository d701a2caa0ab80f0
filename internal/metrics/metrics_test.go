package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	Register()

	before := testutil.ToFloat64(bookingsCreated)
	IncCreated()
	assert.Equal(t, before+1, testutil.ToFloat64(bookingsCreated))

	before = testutil.ToFloat64(bookingConflicts)
	IncConflict()
	assert.Equal(t, before+1, testutil.ToFloat64(bookingConflicts))

	before = testutil.ToFloat64(notifyFailures)
	IncNotifyFailure()
	assert.Equal(t, before+1, testutil.ToFloat64(notifyFailures))

	before = testutil.ToFloat64(httpRequests.WithLabelValues("/healthz"))
	IncHTTP("/healthz")
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("/healthz")))
}
