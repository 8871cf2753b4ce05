package command

import (
	"context"
	"maps"

	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
)

// CommandEvent is one command to run for a chat message.
type CommandEvent struct {
	Type   domain.CommandType
	Params map[string]any
}

type Dispatcher interface {
	Publish(ctx context.Context, cmdCtx *domain.CommandContext, events ...CommandEvent) (int, error)
}

// NormalizeFunc converts a domain command type plus params into the registry key
// and normalized parameter map used for execution.
type NormalizeFunc func(domain.CommandType, map[string]any) (string, map[string]any)

// DefaultNormalize uses the command type as the registry key.
func DefaultNormalize(cmdType domain.CommandType, params map[string]any) (string, map[string]any) {
	return cmdType.String(), params
}

type sequentialDispatcher struct {
	registry  *Registry
	normalize NormalizeFunc
}

// NewSequentialDispatcher creates a dispatcher that executes command events in
// the order they are received.
func NewSequentialDispatcher(registry *Registry, normalize NormalizeFunc) Dispatcher {
	if normalize == nil {
		normalize = DefaultNormalize
	}
	return &sequentialDispatcher{registry: registry, normalize: normalize}
}

func (d *sequentialDispatcher) Publish(ctx context.Context, cmdCtx *domain.CommandContext, events ...CommandEvent) (int, error) {
	if d == nil || d.registry == nil {
		return 0, nil
	}

	executed := 0
	for _, event := range events {
		if event.Type == domain.CommandUnknown {
			continue
		}

		key, params := d.normalize(event.Type, cloneParams(event.Params))
		if err := d.registry.Execute(ctx, cmdCtx, key, params); err != nil {
			return executed, err
		}
		executed++
	}
	return executed, nil
}

func cloneParams(src map[string]any) map[string]any {
	if len(src) == 0 {
		return map[string]any{}
	}
	return maps.Clone(src)
}
