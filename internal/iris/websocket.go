package iris

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kapu/cinematch-kakao-bot-go/internal/util"
)

// MessageHandler receives every decoded chat event. It is called from the
// read loop, so it must not block for long.
type MessageHandler func(message *Message)

type StateHandler func(state StreamState)

// Stream consumes the Iris websocket feed and reconnects after read failures.
type Stream struct {
	wsURL                string
	maxReconnectAttempts int
	reconnectDelay       time.Duration
	logger               *zap.Logger

	mu      sync.RWMutex
	conn    *websocket.Conn
	state   StreamState
	onState StateHandler
}

func NewStream(wsURL string, maxReconnectAttempts int, reconnectDelay time.Duration, logger *zap.Logger) *Stream {
	return &Stream{
		wsURL:                wsURL,
		maxReconnectAttempts: maxReconnectAttempts,
		reconnectDelay:       reconnectDelay,
		logger:               logger,
		state:                StateStopped,
	}
}

// OnStateChange registers a single state observer.
func (s *Stream) OnStateChange(handler StateHandler) {
	s.mu.Lock()
	s.onState = handler
	s.mu.Unlock()
}

func (s *Stream) State() StreamState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Stream) IsConnected() bool {
	return s.State() == StateConnected
}

// Run connects and delivers messages to handler until ctx is cancelled or the
// reconnect attempts are exhausted. A successful connection resets the attempt
// counter.
func (s *Stream) Run(ctx context.Context, handler MessageHandler) error {
	attempts := 0
	for {
		s.setState(StateConnecting)
		conn, err := s.dial(ctx)
		if err == nil {
			attempts = 0
			s.setState(StateConnected)
			s.logger.Info("WebSocket connected", zap.String("url", s.wsURL))
			err = s.readLoop(ctx, conn, handler)
		}

		if ctx.Err() != nil {
			s.setState(StateStopped)
			return nil
		}

		attempts++
		if attempts > s.maxReconnectAttempts {
			s.logger.Error("Max reconnect attempts reached", zap.Int("attempts", attempts), zap.Error(err))
			s.setState(StateFailed)
			return err
		}

		s.setState(StateReconnecting)
		s.logger.Warn("WebSocket disconnected, scheduling reconnect",
			zap.Error(err),
			zap.Int("attempt", attempts),
			zap.Int("max", s.maxReconnectAttempts),
			zap.Duration("delay", s.reconnectDelay),
		)

		select {
		case <-ctx.Done():
			s.setState(StateStopped)
			return nil
		case <-time.After(s.reconnectDelay):
		}
	}
}

// Close drops the current connection. Run returns once its context is done.
func (s *Stream) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (s *Stream) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	return conn, nil
}

func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn, handler MessageHandler) error {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer func() {
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if message, ok := s.decode(data); ok {
			handler(message)
		}
	}
}

func (s *Stream) decode(data []byte) (*Message, bool) {
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		s.logger.Error("Failed to parse message",
			zap.Error(err),
			zap.String("data", util.TruncateString(string(data), 200)),
		)
		return nil, false
	}
	return &message, true
}

func (s *Stream) setState(next StreamState) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	observer := s.onState
	s.mu.Unlock()

	if prev == next {
		return
	}
	s.logger.Debug("WebSocket state changed",
		zap.String("from", prev.String()),
		zap.String("to", next.String()),
	)
	if observer != nil {
		observer(next)
	}
}
