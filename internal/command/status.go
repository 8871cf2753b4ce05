package command

import (
	"sync"
	"time"

	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
)

// StatusThrottle forwards progress messages to a room, at most one per
// interval. The first message of a run is always sent.
type StatusThrottle struct {
	interval time.Duration
	now      func() time.Time
}

func NewStatusThrottle(interval time.Duration) *StatusThrottle {
	return &StatusThrottle{interval: interval, now: time.Now}
}

// For returns a StatusFunc that delivers through send. Send errors are dropped.
func (t *StatusThrottle) For(send func(message string) error) domain.StatusFunc {
	var mu sync.Mutex
	var last time.Time

	return func(message string) {
		mu.Lock()
		now := t.now()
		if !last.IsZero() && now.Sub(last) < t.interval {
			mu.Unlock()
			return
		}
		last = now
		mu.Unlock()

		_ = send("⏳ " + message)
	}
}
