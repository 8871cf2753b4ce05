package util

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// CircuitState represents the state of the circuit breaker
type CircuitState string

const (
	CircuitStateClosed   CircuitState = "CLOSED"    // 정상 작동
	CircuitStateOpen     CircuitState = "OPEN"      // 요청 차단
	CircuitStateHalfOpen CircuitState = "HALF_OPEN" // 복구 시도 중
)

func (s CircuitState) String() string {
	return string(s)
}

// HealthCheckFunction is a function that checks if the service is healthy
type HealthCheckFunction func() bool

// CircuitBreaker stops calls to a failing dependency for a cooldown period.
type CircuitBreaker struct {
	name                string
	state               CircuitState
	failureCount        int
	failureThreshold    int
	resetTimeout        time.Duration
	nextRetryTime       time.Time
	nextHealthCheckTime time.Time
	healthCheckInterval time.Duration
	isHealthChecking    bool
	healthCheckFn       HealthCheckFunction
	now                 func() time.Time
	logger              *zap.Logger
	mu                  sync.Mutex
}

// NewCircuitBreaker creates a circuit breaker. healthCheckFn may be nil, in which
// case the circuit half-opens once the reset timeout has passed.
func NewCircuitBreaker(
	name string,
	failureThreshold int,
	resetTimeout time.Duration,
	healthCheckInterval time.Duration,
	healthCheckFn HealthCheckFunction,
	logger *zap.Logger,
) *CircuitBreaker {
	return &CircuitBreaker{
		name:                name,
		state:               CircuitStateClosed,
		failureThreshold:    failureThreshold,
		resetTimeout:        resetTimeout,
		healthCheckInterval: healthCheckInterval,
		healthCheckFn:       healthCheckFn,
		now:                 time.Now,
		logger:              logger.With(zap.String("circuit", name)),
	}
}

// GetState returns the current circuit state
func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitStateOpen {
		now := cb.now()

		if cb.healthCheckFn != nil && now.After(cb.nextHealthCheckTime) && !cb.isHealthChecking {
			go cb.tryHealthCheck()
		} else if cb.healthCheckFn == nil && now.After(cb.nextRetryTime) {
			cb.transitionTo(CircuitStateHalfOpen)
		}
	}

	return cb.state
}

// CanExecute checks if requests can be executed
func (cb *CircuitBreaker) CanExecute() bool {
	return cb.GetState() != CircuitStateOpen
}

// RecordSuccess records a successful request
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitStateHalfOpen {
		cb.logger.Info("Circuit Breaker: Service recovered, transitioning to CLOSED")
		cb.transitionTo(CircuitStateClosed)
	}
	cb.failureCount = 0
}

// RecordFailure records a failed request. A positive customTimeout overrides the
// default reset timeout for this failure.
func (cb *CircuitBreaker) RecordFailure(customTimeout time.Duration) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++

	timeout := cb.resetTimeout
	if customTimeout > 0 {
		timeout = customTimeout
	}

	cb.logger.Warn("Circuit Breaker: Failure recorded",
		zap.Int("count", cb.failureCount),
		zap.Int("threshold", cb.failureThreshold),
		zap.Duration("timeout", timeout),
	)

	// HALF_OPEN 상태에서 실패하면 즉시 OPEN
	if cb.state == CircuitStateHalfOpen || cb.failureCount >= cb.failureThreshold {
		cb.open(timeout)
	}
}

func (cb *CircuitBreaker) open(timeout time.Duration) {
	cb.nextRetryTime = cb.now().Add(timeout)
	if cb.healthCheckFn != nil {
		cb.nextHealthCheckTime = cb.now().Add(cb.healthCheckInterval)
	}
	cb.transitionTo(CircuitStateOpen)
}

func (cb *CircuitBreaker) tryHealthCheck() {
	cb.mu.Lock()
	if cb.healthCheckFn == nil || cb.isHealthChecking {
		cb.mu.Unlock()
		return
	}
	cb.isHealthChecking = true
	cb.mu.Unlock()

	isHealthy := cb.healthCheckFn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.isHealthChecking = false

	if isHealthy {
		cb.logger.Info("Circuit Breaker: Health check passed")
		cb.transitionTo(CircuitStateHalfOpen)
	} else {
		cb.logger.Warn("Circuit Breaker: Health check failed")
		cb.nextHealthCheckTime = cb.now().Add(cb.healthCheckInterval)
	}
}

// transitionTo must be called with the lock held.
func (cb *CircuitBreaker) transitionTo(newState CircuitState) {
	oldState := cb.state
	cb.state = newState
	if newState == CircuitStateClosed {
		cb.failureCount = 0
	}

	nextRetry := "n/a"
	if newState == CircuitStateOpen {
		nextRetry = cb.nextRetryTime.Format(time.RFC3339)
	}

	cb.logger.Info("Circuit Breaker: State transition",
		zap.String("from", oldState.String()),
		zap.String("to", newState.String()),
		zap.String("next_retry", nextRetry),
	)
}

// Reset manually resets the circuit breaker
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = CircuitStateClosed
	cb.failureCount = 0
	cb.nextRetryTime = time.Time{}
}

// GetStatus returns the current status
func (cb *CircuitBreaker) GetStatus() CircuitBreakerStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	status := CircuitBreakerStatus{
		State:        cb.state,
		FailureCount: cb.failureCount,
	}

	if cb.state == CircuitStateOpen {
		next := cb.nextRetryTime
		status.NextRetryTime = &next
	}

	return status
}

// CircuitBreakerStatus represents the circuit breaker status
type CircuitBreakerStatus struct {
	State         CircuitState
	FailureCount  int
	NextRetryTime *time.Time
}
