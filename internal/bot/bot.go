// Package bot connects the Iris message stream to the command registry.
package bot

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/cinematch-kakao-bot-go/internal/adapter"
	"github.com/kapu/cinematch-kakao-bot-go/internal/command"
	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"github.com/kapu/cinematch-kakao-bot-go/internal/iris"
	"github.com/kapu/cinematch-kakao-bot-go/internal/service/recommend"
)

const sendTimeout = 10 * time.Second

// Sender delivers replies to a chat room.
type Sender interface {
	SendMessage(ctx context.Context, room, message string) error
	SendImageURL(ctx context.Context, room, imageURL string) error
}

// MessageStream delivers incoming chat messages until its context ends.
type MessageStream interface {
	Run(ctx context.Context, handler iris.MessageHandler) error
	Close() error
}

type Options struct {
	Prefix         string
	Rooms          []string
	Workers        int
	StatusInterval time.Duration
}

type Dependencies struct {
	Options        Options
	Logger         *zap.Logger
	Sender         Sender
	Stream         MessageStream
	MessageAdapter *adapter.MessageAdapter
	Formatter      *adapter.ResponseFormatter
	Movies         command.MovieService
	Pager          *recommend.Pager
	Parser         command.PreferenceParser
	Posters        command.PosterResolver
	Trailers       command.TrailerFinder
}

type Bot struct {
	deps       *Dependencies
	logger     *zap.Logger
	registry   *command.Registry
	dispatcher command.Dispatcher
	throttle   *command.StatusThrottle

	mu          sync.Mutex
	workers     *pool.Pool
	dispatching sync.WaitGroup
	stopped     bool
}

func NewBot(deps *Dependencies) (*Bot, error) {
	if deps == nil {
		return nil, fmt.Errorf("bot dependencies must not be nil")
	}
	if deps.Sender == nil || deps.Stream == nil {
		return nil, fmt.Errorf("iris sender and stream are required")
	}
	if deps.MessageAdapter == nil || deps.Formatter == nil || deps.Movies == nil {
		return nil, fmt.Errorf("adapter, formatter and movie service are required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Options.Workers <= 0 {
		deps.Options.Workers = 1
	}

	b := &Bot{
		deps:     deps,
		logger:   deps.Logger,
		registry: command.NewRegistry(),
		throttle: command.NewStatusThrottle(deps.Options.StatusInterval),
		workers:  pool.New().WithMaxGoroutines(deps.Options.Workers),
	}

	cmdDeps := &command.Dependencies{
		Movies:      deps.Movies,
		Pager:       deps.Pager,
		Parser:      deps.Parser,
		Posters:     deps.Posters,
		Trailers:    deps.Trailers,
		Formatter:   deps.Formatter,
		SendMessage: b.sendMessage,
		SendError: func(room, message string) error {
			return b.sendMessage(room, deps.Formatter.FormatError(message))
		},
		SendImage: b.sendImage,
		NewStatus: func(room string) domain.StatusFunc {
			return b.throttle.For(func(message string) error { return b.sendMessage(room, message) })
		},
		Logger: deps.Logger,
	}
	b.dispatcher = command.NewSequentialDispatcher(b.registry, command.DefaultNormalize)
	cmdDeps.ExecuteCommand = func(ctx context.Context, cmdCtx *domain.CommandContext, cmdType domain.CommandType, params map[string]any) error {
		_, err := b.dispatcher.Publish(ctx, cmdCtx, command.CommandEvent{Type: cmdType, Params: params})
		return err
	}

	b.registry.Register(
		command.NewRecommendCommand(cmdDeps),
		command.NewMoreCommand(cmdDeps),
		command.NewSearchCommand(cmdDeps),
		command.NewAddCommand(cmdDeps),
		command.NewListCommand(cmdDeps),
		command.NewGenresCommand(cmdDeps),
		command.NewInfoCommand(cmdDeps),
		command.NewTrailerCommand(cmdDeps),
		command.NewSetKeyCommand(cmdDeps),
		command.NewClearCacheCommand(cmdDeps),
		command.NewAskCommand(cmdDeps),
		command.NewHelpCommand(cmdDeps),
	)

	b.logger.Info("Commands registered",
		zap.Int("count", b.registry.Count()),
		zap.Strings("commands", b.registry.Names()),
	)
	return b, nil
}

// Start consumes the message stream until ctx is cancelled. Each command runs
// on the worker pool, so a slow recommendation does not block other rooms.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Bot starting",
		zap.Strings("rooms", b.deps.Options.Rooms),
		zap.Int("workers", b.deps.Options.Workers),
	)
	return b.deps.Stream.Run(ctx, func(message *iris.Message) {
		b.handleMessage(ctx, message)
	})
}

// Shutdown closes the stream and waits for running commands.
func (b *Bot) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil
	}
	b.stopped = true
	b.mu.Unlock()

	if err := b.deps.Stream.Close(); err != nil {
		b.logger.Warn("Failed to close message stream", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		b.dispatching.Wait()
		b.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("All commands finished")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for commands: %w", ctx.Err())
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *iris.Message) {
	if message == nil || !b.roomAllowed(message) {
		return
	}

	parsed := b.deps.MessageAdapter.ParseMessage(message)
	if parsed.Type == domain.CommandUnknown {
		return
	}

	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.dispatching.Add(1)
	b.mu.Unlock()

	// Go blocks while every worker is busy; the lock must not be held here.
	defer b.dispatching.Done()
	b.workers.Go(func() {
		b.execute(ctx, message, parsed)
	})
}

func (b *Bot) execute(ctx context.Context, message *iris.Message, parsed *adapter.ParsedCommand) {
	cmdCtx := domain.NewCommandContext(message.Room, message.Room, message.SenderName(), message.Msg, true)
	logger := b.logger.With(
		zap.String("room", message.Room),
		zap.String("command", parsed.Type.String()),
	)
	logger.Debug("Executing command", zap.String("sender", cmdCtx.Sender))

	started := time.Now()
	if _, err := b.dispatcher.Publish(ctx, cmdCtx, command.CommandEvent{Type: parsed.Type, Params: parsed.Params}); err != nil {
		logger.Error("Command execution failed", zap.Error(err))
		_ = b.sendMessage(message.Room, b.deps.Formatter.FormatError("명령을 처리하지 못했습니다."))
		return
	}
	logger.Debug("Command finished", zap.Duration("elapsed", time.Since(started)))
}

// roomAllowed checks the room name and the chat id against the allow-list.
// An empty allow-list accepts every room.
func (b *Bot) roomAllowed(message *iris.Message) bool {
	rooms := b.deps.Options.Rooms
	if len(rooms) == 0 {
		return true
	}
	if slices.Contains(rooms, message.Room) {
		return true
	}
	return message.JSON != nil && message.JSON.ChatID != "" && slices.Contains(rooms, message.JSON.ChatID)
}

func (b *Bot) sendMessage(room, message string) error {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	return b.deps.Sender.SendMessage(ctx, room, message)
}

func (b *Bot) sendImage(room, imageURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	return b.deps.Sender.SendImageURL(ctx, room, imageURL)
}
