package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDownstream = errors.New("downstream unavailable")

func failing() error { return errDownstream }
func succeeding() error { return nil }

func TestTripsAfterConsecutiveFailures(t *testing.T) {
	cb := New(Settings{Name: "test", MaxFailures: 3, Timeout: time.Minute})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(failing), errDownstream)
	}
	assert.Equal(t, StateOpen, cb.State())

	// Calls are rejected without reaching the downstream.
	assert.ErrorIs(t, cb.Execute(succeeding), ErrOpen)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New(Settings{MaxFailures: 2, Timeout: time.Minute})

	require.Error(t, cb.Execute(failing))
	require.NoError(t, cb.Execute(succeeding))
	require.Error(t, cb.Execute(failing))

	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenProbe(t *testing.T) {
	cb := New(Settings{MaxFailures: 1, Timeout: 10 * time.Millisecond})

	require.Error(t, cb.Execute(failing))
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	// Probe succeeds, breaker closes.
	require.NoError(t, cb.Execute(succeeding))
	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenProbeFailureReopens(t *testing.T) {
	cb := New(Settings{MaxFailures: 1, Timeout: 10 * time.Millisecond})

	require.Error(t, cb.Execute(failing))
	time.Sleep(20 * time.Millisecond)

	require.ErrorIs(t, cb.Execute(failing), errDownstream)
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(succeeding), ErrOpen)
}
