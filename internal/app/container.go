package app

import (
	"context"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/kapu/cinematch-kakao-bot-go/internal/adapter"
	"github.com/kapu/cinematch-kakao-bot-go/internal/bot"
	"github.com/kapu/cinematch-kakao-bot-go/internal/config"
	"github.com/kapu/cinematch-kakao-bot-go/internal/constants"
	"github.com/kapu/cinematch-kakao-bot-go/internal/iris"
	"github.com/kapu/cinematch-kakao-bot-go/internal/omdb"
	"github.com/kapu/cinematch-kakao-bot-go/internal/prompt"
	"github.com/kapu/cinematch-kakao-bot-go/internal/service/ai"
	"github.com/kapu/cinematch-kakao-bot-go/internal/service/pool"
	"github.com/kapu/cinematch-kakao-bot-go/internal/service/poster"
	"github.com/kapu/cinematch-kakao-bot-go/internal/service/recommend"
	"github.com/kapu/cinematch-kakao-bot-go/internal/service/trailer"
	"github.com/kapu/cinematch-kakao-bot-go/internal/service/warmer"
	"github.com/kapu/cinematch-kakao-bot-go/internal/store"
)

// Container bundles assembled services for constructing runtime components like Bot.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	botDeps *bot.Dependencies
	closers []func()
}

// NewBot instantiates a bot using the pre-built dependency graph.
func (c *Container) NewBot() (*bot.Bot, error) {
	if c == nil || c.botDeps == nil {
		return nil, fmt.Errorf("bot dependencies not initialized")
	}
	return bot.NewBot(c.botDeps)
}

// Close releases the store and other resources in reverse creation order.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build assembles all infrastructure services and returns a container capable of
// creating fully-wired bots. Optional integrations (AI, trailers) are skipped
// with a log line when their keys are missing.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// Messaging primitives
	irisClient := iris.NewClient(cfg.Iris.BaseURL, logger)
	irisStream := iris.NewStream(cfg.Iris.WSURL,
		constants.WebSocketConfig.MaxReconnectAttempts,
		constants.WebSocketConfig.ReconnectDelay,
		logger,
	)
	messageAdapter := adapter.NewMessageAdapter(cfg.Bot.Prefix)
	formatter := adapter.NewResponseFormatter(cfg.Bot.Prefix)

	// Persistence
	kv, err := store.New(cfg.StoreOptions(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	closers = append(closers, func() {
		if closeErr := kv.Close(); closeErr != nil {
			logger.Warn("Failed to close store", zap.Error(closeErr))
		}
	})
	library := store.NewLibrary(kv, logger)

	if err := seedAPIKey(ctx, library, cfg.OMDb.APIKey, logger); err != nil {
		return nil, err
	}

	// Recommendation pipeline
	omdbClient := omdb.NewClient(omdb.Config{
		BaseURL:           cfg.OMDb.BaseURL,
		Timeout:           cfg.OMDb.Timeout,
		RequestsPerSecond: cfg.OMDb.RequestsPerSecond,
		Burst:             cfg.OMDb.Burst,
	}, logger)

	poolCfg := pool.DefaultConfig()
	poolCfg.PoolCap = cfg.Discovery.PoolCap
	poolCfg.MaxNewDetails = cfg.Discovery.MaxNewDetails
	poolCfg.PagesPerTerm = cfg.Discovery.PagesPerTerm

	cacheWarmer := warmer.New(omdbClient, library, logger)
	builder := pool.New(omdbClient, library, poolCfg, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), logger)
	movies := recommend.NewService(library, omdbClient, cacheWarmer, builder, poolCfg.PoolCap, logger)

	deps := &bot.Dependencies{
		Options: bot.Options{
			Prefix:         cfg.Bot.Prefix,
			Rooms:          cfg.Kakao.Rooms,
			Workers:        cfg.Bot.Workers,
			StatusInterval: cfg.Bot.StatusInterval,
		},
		Logger:         logger,
		Sender:         irisClient,
		Stream:         irisStream,
		MessageAdapter: messageAdapter,
		Formatter:      formatter,
		Movies:         movies,
		Pager:          recommend.NewPager(cfg.Bot.PageSize, cfg.Bot.SessionTTL),
		Posters:        poster.NewResolver(library, cfg.OMDb.IMDbTitleURL, logger),
	}

	// AI stack
	if cfg.AIEnabled() {
		modelManager, aiErr := ai.NewModelManager(ctx, ai.ModelManagerConfig{
			GeminiAPIKey:       cfg.Gemini.APIKey,
			OpenAIAPIKey:       cfg.OpenAI.APIKey,
			DefaultGeminiModel: cfg.Gemini.Model,
			DefaultOpenAIModel: cfg.OpenAI.Model,
			EnableFallback:     cfg.OpenAI.EnableFallback,
		}, logger)
		if aiErr != nil {
			return nil, fmt.Errorf("failed to create model manager: %w", aiErr)
		}
		deps.Parser = ai.NewPreferenceParser(
			modelManager,
			prompt.DefaultPromptBuilder(),
			ai.NewParseCache(constants.AIInputLimits.ParseCacheTTL),
			logger,
		)
	} else {
		logger.Info("GEMINI_API_KEY not set, natural-language requests disabled")
	}

	if cfg.YouTube.APIKey != "" {
		finder, ytErr := trailer.NewFinder(ctx, cfg.YouTube.APIKey, logger)
		if ytErr != nil {
			logger.Warn("Failed to initialize YouTube trailer search (optional feature)", zap.Error(ytErr))
		} else {
			deps.Trailers = finder
		}
	} else {
		logger.Info("YOUTUBE_API_KEY not set, trailer search disabled")
	}

	return &Container{
		Config:  cfg,
		Logger:  logger,
		botDeps: deps,
		closers: closers,
	}, nil
}

// seedAPIKey stores the configured OMDb key unless one was already saved from chat.
func seedAPIKey(ctx context.Context, library *store.Library, key string, logger *zap.Logger) error {
	if key == "" {
		return nil
	}
	existing, err := library.APIKey(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stored api key: %w", err)
	}
	if existing != "" {
		return nil
	}
	if err := library.SetAPIKey(ctx, key); err != nil {
		return fmt.Errorf("failed to store api key: %w", err)
	}
	logger.Info("OMDb API key seeded from environment")
	return nil
}
