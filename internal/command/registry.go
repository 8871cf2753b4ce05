package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
)

// ErrUnknownCommand is returned when a command dispatch is attempted for an
// unregistered key.
var ErrUnknownCommand = errors.New("unknown command")

// Registry stores command handlers keyed by their lowercase names.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Command
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Command)}
}

// Register adds handlers, replacing any previous handler of the same name.
func (r *Registry) Register(handlers ...Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		r.handlers[strings.ToLower(handler.Name())] = handler
	}
}

func (r *Registry) Execute(ctx context.Context, cmdCtx *domain.CommandContext, key string, params map[string]any) error {
	if r == nil {
		return fmt.Errorf("command registry is nil")
	}

	r.mu.RLock()
	handler := r.handlers[strings.ToLower(key)]
	r.mu.RUnlock()

	if handler == nil {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, key)
	}
	return handler.Execute(ctx, cmdCtx, params)
}

// Names returns the registered command names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Count() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
