package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCircuitBreakerOpensAtThresholdAndHalfOpensAfterTimeout(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("omdb", 2, time.Minute, 0, nil, zap.NewNop())
	cb.now = func() time.Time { return clock }

	cb.RecordFailure(0)
	assert.True(t, cb.CanExecute())

	cb.RecordFailure(0)
	assert.False(t, cb.CanExecute())
	status := cb.GetStatus()
	assert.Equal(t, CircuitStateOpen, status.State)
	if assert.NotNil(t, status.NextRetryTime) {
		assert.Equal(t, clock.Add(time.Minute), *status.NextRetryTime)
	}

	clock = clock.Add(2 * time.Minute)
	assert.Equal(t, CircuitStateHalfOpen, cb.GetState())

	cb.RecordSuccess()
	assert.Equal(t, CircuitStateClosed, cb.GetState())
	assert.Zero(t, cb.GetStatus().FailureCount)
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("omdb", 1, time.Minute, 0, nil, zap.NewNop())
	cb.now = func() time.Time { return clock }

	cb.RecordFailure(0)
	clock = clock.Add(time.Hour)
	assert.Equal(t, CircuitStateHalfOpen, cb.GetState())

	cb.RecordFailure(10 * time.Minute)
	assert.Equal(t, CircuitStateOpen, cb.GetState())

	cb.Reset()
	assert.True(t, cb.CanExecute())
}
