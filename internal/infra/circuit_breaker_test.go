package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRegistryDown = errors.New("registry down")

func testCB(openTimeout time.Duration) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      openTimeout,
	})
}

func TestBreakerTripsAfterFailureStreak(t *testing.T) {
	cb := testCB(time.Hour)

	for i := 0; i < 3; i++ {
		assert.Equal(t, CBClosed, cb.State())
		err := cb.Execute(func() error { return errRegistryDown })
		assert.ErrorIs(t, err, errRegistryDown)
	}
	assert.Equal(t, CBOpen, cb.State())

	// Open fast-fails without running fn
	ran := false
	err := cb.Execute(func() error { ran = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, ran)
}

func TestBreakerSuccessResetsStreak(t *testing.T) {
	cb := testCB(time.Hour)

	require.Error(t, cb.Execute(func() error { return errRegistryDown }))
	require.Error(t, cb.Execute(func() error { return errRegistryDown }))
	require.NoError(t, cb.Execute(func() error { return nil }))
	require.Error(t, cb.Execute(func() error { return errRegistryDown }))
	require.Error(t, cb.Execute(func() error { return errRegistryDown }))

	// Four failures total, but never three in a row
	assert.Equal(t, CBClosed, cb.State())
}

func TestBreakerProbesAndClosesAfterOpenTimeout(t *testing.T) {
	cb := testCB(10 * time.Millisecond)

	for i := 0; i < 3; i++ {
		require.Error(t, cb.Execute(func() error { return errRegistryDown }))
	}
	require.Equal(t, CBOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, CBHalfOpen, cb.State())

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBClosed, cb.State())
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	cb := testCB(10 * time.Millisecond)

	for i := 0; i < 3; i++ {
		require.Error(t, cb.Execute(func() error { return errRegistryDown }))
	}
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, CBHalfOpen, cb.State())

	err := cb.Execute(func() error { return errRegistryDown })
	assert.ErrorIs(t, err, errRegistryDown)
	assert.Equal(t, CBOpen, cb.State())
}

func TestBreakerHalfOpenAdmitsSingleProbe(t *testing.T) {
	cb := testCB(10 * time.Millisecond)

	for i := 0; i < 3; i++ {
		require.Error(t, cb.Execute(func() error { return errRegistryDown }))
	}
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, CBHalfOpen, cb.State())

	release := make(chan struct{})
	probeStarted := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Execute(func() error {
			close(probeStarted)
			<-release
			return nil
		})
	}()
	<-probeStarted

	// Second caller is rejected while the probe is in flight
	err := cb.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, CBClosed, cb.State())
}
