package pool

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"github.com/kapu/cinematch-kakao-bot-go/internal/omdb/omdbtest"
	"github.com/kapu/cinematch-kakao-bot-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	builder *Builder
	catalog *omdbtest.Catalog
	library *store.Library
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	catalog := omdbtest.NewCatalog()
	library := store.NewLibrary(store.NewMemoryStore(), zap.NewNop())
	if cfg.Keywords == nil {
		cfg.Keywords = map[string][]string{"DRAMA": {"love", "life"}}
	}
	if cfg.StarterIDs == nil {
		cfg.StarterIDs = []string{}
	}
	rng := rand.New(rand.NewPCG(1, 2))
	return &fixture{
		builder: New(catalog, library, cfg, rng, zap.NewNop()),
		catalog: catalog,
		library: library,
	}
}

func movie(id, genre string) *domain.MovieRecord {
	return &domain.MovieRecord{ImdbID: id, Title: id, Genre: genre, Type: "movie"}
}

func assertUnique(t *testing.T, ids []string) {
	t.Helper()
	seen := make(map[string]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestBuildWithoutGenresUsesStarterAndUserList(t *testing.T) {
	f := newFixture(t, Config{PoolCap: 10, MaxNewDetails: 5, PagesPerTerm: 1, StarterIDs: []string{"tt1", "tt2"}})
	ctx := context.Background()
	_, err := f.library.AddUserID(ctx, "room", "tt2")
	require.NoError(t, err)
	_, err = f.library.AddUserID(ctx, "room", "tt9")
	require.NoError(t, err)

	result, err := f.builder.Build(ctx, "key", "room", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"tt1", "tt2", "tt9"}, result.IDs)
	assert.Zero(t, f.catalog.FetchCount())
	assert.Empty(t, f.catalog.SearchCalls)
}

func TestBuildWithoutGenresTruncatesToCap(t *testing.T) {
	f := newFixture(t, Config{PoolCap: 2, MaxNewDetails: 5, PagesPerTerm: 1, StarterIDs: []string{"tt1", "tt2"}})
	ctx := context.Background()
	_, err := f.library.AddUserID(ctx, "room", "tt9")
	require.NoError(t, err)

	result, err := f.builder.Build(ctx, "key", "room", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"tt1", "tt2"}, result.IDs)
}

func TestBuildDiscoversAndVerifiesGenres(t *testing.T) {
	f := newFixture(t, Config{PoolCap: 10, MaxNewDetails: 10, PagesPerTerm: 1})
	f.catalog.Add(movie("tt1", "Drama"), movie("tt2", "Comedy"), movie("tt3", "Crime, Drama"), movie("tt4", "Drama"))
	f.catalog.Pages["love"] = [][]domain.SearchHit{omdbtest.Hits("tt1", "tt2", "tt3")}
	f.catalog.Pages["life"] = [][]domain.SearchHit{omdbtest.Hits("tt3", "tt4")}

	result, err := f.builder.Build(context.Background(), "key", "room", []string{"drama"}, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"tt1", "tt3", "tt4"}, result.IDs)
	assert.Equal(t, 4, result.BudgetUsed, "the comedy hit is fetched and still costs budget")
	assert.Equal(t, 4, f.catalog.FetchCount(), "tt3 appears twice but is fetched once")

	index, err := f.library.Discovered(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tt1", "tt3", "tt4"}, index["DRAMA"])
	assert.NotContains(t, index, "CRIME", "only selected genres are indexed")

	cache, err := f.library.Details(context.Background())
	require.NoError(t, err)
	assert.True(t, cache.Has("tt2"), "non-matching records are cached too")
}

func TestBuildRespectsCapAndBudget(t *testing.T) {
	f := newFixture(t, Config{PoolCap: 5, MaxNewDetails: 3, PagesPerTerm: 2})
	var page1, page2 []string
	for i := 0; i < 10; i++ {
		page1 = append(page1, fmt.Sprintf("tt1%02d", i))
		page2 = append(page2, fmt.Sprintf("tt2%02d", i))
	}
	for _, id := range append(append([]string{}, page1...), page2...) {
		f.catalog.Add(movie(id, "Drama"))
	}
	f.catalog.Pages["love"] = [][]domain.SearchHit{omdbtest.Hits(page1...), omdbtest.Hits(page2...)}

	result, err := f.builder.Build(context.Background(), "key", "room", []string{"DRAMA"}, nil)
	require.NoError(t, err)
	assert.Len(t, result.IDs, 3)
	assert.Equal(t, 3, f.catalog.FetchCount())
	assertUnique(t, result.IDs)

	f2 := newFixture(t, Config{PoolCap: 4, MaxNewDetails: 40, PagesPerTerm: 2})
	for _, id := range append(append([]string{}, page1...), page2...) {
		f2.catalog.Add(movie(id, "Drama"))
	}
	f2.catalog.Pages["love"] = [][]domain.SearchHit{omdbtest.Hits(page1...), omdbtest.Hits(page2...)}

	result, err = f2.builder.Build(context.Background(), "key", "room", []string{"DRAMA"}, nil)
	require.NoError(t, err)
	assert.Len(t, result.IDs, 4)
	assert.LessOrEqual(t, f2.catalog.FetchCount(), 4)
	assertUnique(t, result.IDs)
}

func TestBuildFailedSearchCostsNoBudget(t *testing.T) {
	f := newFixture(t, Config{PoolCap: 10, MaxNewDetails: 5, PagesPerTerm: 1})
	f.catalog.Add(movie("tt4", "Drama"))
	f.catalog.FailSearch["love"] = true
	f.catalog.Pages["life"] = [][]domain.SearchHit{omdbtest.Hits("tt4")}

	result, err := f.builder.Build(context.Background(), "key", "room", []string{"DRAMA"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"tt4"}, result.IDs)
	assert.Equal(t, 1, result.Report.SearchFailures)
}

func TestBuildFailedFetchSpendsBudget(t *testing.T) {
	f := newFixture(t, Config{PoolCap: 10, MaxNewDetails: 2, PagesPerTerm: 1})
	f.catalog.Add(movie("tt3", "Drama"))
	f.catalog.Pages["love"] = [][]domain.SearchHit{omdbtest.Hits("tt-missing-1", "tt-missing-2", "tt3")}
	f.catalog.Pages["life"] = [][]domain.SearchHit{omdbtest.Hits("tt-missing-1", "tt-missing-2", "tt3")}

	result, err := f.builder.Build(context.Background(), "key", "room", []string{"DRAMA"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, f.catalog.FetchCount())
	assert.Equal(t, 2, result.Report.Count(domain.FetchStatusSkipped))
}

func TestBuildReusesDiscoveredIndexAndCachedStarters(t *testing.T) {
	f := newFixture(t, Config{PoolCap: 3, MaxNewDetails: 10, PagesPerTerm: 1, StarterIDs: []string{"tt50", "tt51", "tt52"}})
	ctx := context.Background()
	require.NoError(t, f.library.SaveDiscovered(ctx, domain.DiscoveredIndex{"DRAMA": {"tt1", "tt2"}}))
	require.NoError(t, f.library.SaveDetails(ctx, domain.DetailsCache{
		"tt50": movie("tt50", "Comedy"),
		"tt51": movie("tt51", "Drama, Romance"),
	}))

	result, err := f.builder.Build(ctx, "key", "room", []string{"DRAMA"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"tt1", "tt2", "tt51"}, result.IDs)
	assert.Zero(t, f.catalog.FetchCount())
	assert.Empty(t, f.catalog.SearchCalls, "a full pool skips discovery")
}

func TestBuildPlanOrderIsReproducibleWithSeed(t *testing.T) {
	cfg := Config{PoolCap: 100, MaxNewDetails: 10, PagesPerTerm: 2, Keywords: map[string][]string{
		"DRAMA": {"love", "life", "family", "war"},
	}}
	a := newFixture(t, cfg)
	b := newFixture(t, cfg)

	_, err := a.builder.Build(context.Background(), "key", "room", []string{"DRAMA"}, nil)
	require.NoError(t, err)
	_, err = b.builder.Build(context.Background(), "key", "room", []string{"DRAMA"}, nil)
	require.NoError(t, err)

	assert.Len(t, a.catalog.SearchCalls, 8)
	assert.Equal(t, a.catalog.SearchCalls, b.catalog.SearchCalls)
}

func TestBuildReportsProgress(t *testing.T) {
	f := newFixture(t, Config{PoolCap: 10, MaxNewDetails: 10, PagesPerTerm: 1})
	var messages []string

	_, err := f.builder.Build(context.Background(), "key", "room", []string{"DRAMA"}, func(msg string) {
		messages = append(messages, msg)
	})
	require.NoError(t, err)
	require.NotEmpty(t, messages)
	assert.Equal(t, "후보 목록 확장 중… (0/10)", messages[0])
}
