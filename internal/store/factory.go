package store

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Options selects and configures a backend for New.
type Options struct {
	Backend  string
	Redis    RedisConfig
	Postgres PostgresConfig
}

// New opens the configured backend.
func New(opts Options, logger *zap.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendRedis, "":
		return NewRedisStore(opts.Redis, logger)
	case BackendPostgres:
		return NewPostgresStore(opts.Postgres, logger)
	case BackendMemory:
		logger.Warn("Using in-memory store, state is lost on restart")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
