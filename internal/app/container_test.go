package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/cinematch-kakao-bot-go/internal/config"
	"github.com/kapu/cinematch-kakao-bot-go/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Iris:      config.IrisConfig{BaseURL: "http://localhost:3000", WSURL: "ws://localhost:3000/ws"},
		OMDb:      config.OMDbConfig{APIKey: "env-key", Timeout: time.Second, RequestsPerSecond: 5, Burst: 1},
		Store:     config.StoreConfig{Backend: store.BackendMemory},
		Discovery: config.DiscoveryConfig{PoolCap: 50, MaxNewDetails: 10, PagesPerTerm: 1},
		Bot:       config.BotConfig{Prefix: "!", Workers: 2, PageSize: 12, SessionTTL: time.Minute},
	}
}

func TestBuildWiresBotWithoutOptionalServices(t *testing.T) {
	container, err := Build(context.Background(), testConfig(), zap.NewNop())
	require.NoError(t, err)
	defer container.Close()

	assert.Nil(t, container.botDeps.Parser)
	assert.Nil(t, container.botDeps.Trailers)
	assert.NotNil(t, container.botDeps.Posters)

	kakaoBot, err := container.NewBot()
	require.NoError(t, err)
	assert.NotNil(t, kakaoBot)
}

func TestBuildRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Store.Backend = "sqlite"

	_, err := Build(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "unknown store backend")
}

func TestSeedAPIKeyKeepsChatKey(t *testing.T) {
	ctx := context.Background()
	library := store.NewLibrary(store.NewMemoryStore(), zap.NewNop())

	require.NoError(t, seedAPIKey(ctx, library, "env-key", zap.NewNop()))
	key, err := library.APIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "env-key", key)

	require.NoError(t, library.SetAPIKey(ctx, "chat-key"))
	require.NoError(t, seedAPIKey(ctx, library, "env-key", zap.NewNop()))
	key, err = library.APIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "chat-key", key)
}
