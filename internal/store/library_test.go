package store

import (
	"context"
	"testing"

	"github.com/kapu/cinematch-kakao-bot-go/internal/constants"
	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	apperrors "github.com/kapu/cinematch-kakao-bot-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLibraryAddUserIDDedupes(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary(NewMemoryStore(), zap.NewNop())

	added, err := lib.AddUserID(ctx, "room-1", "tt0133093")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = lib.AddUserID(ctx, "room-1", "tt0133093")
	require.NoError(t, err)
	assert.False(t, added)

	_, err = lib.AddUserID(ctx, "room-1", "tt0111161")
	require.NoError(t, err)

	ids, err := lib.UserIDs(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"tt0133093", "tt0111161"}, ids)

	other, err := lib.UserIDs(ctx, "room-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestLibraryMalformedJSONReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	require.NoError(t, mem.Set(ctx, constants.StoreKeys.DetailsCache, "{not json"))
	require.NoError(t, mem.Set(ctx, constants.StoreKeys.Discovered, "[1,2"))
	require.NoError(t, mem.Set(ctx, constants.StoreKeys.UserIDsPrefix+"room", "oops"))

	lib := NewLibrary(mem, zap.NewNop())

	cache, err := lib.Details(ctx)
	require.NoError(t, err)
	assert.NotNil(t, cache)
	assert.Empty(t, cache)

	index, err := lib.Discovered(ctx)
	require.NoError(t, err)
	assert.NotNil(t, index)
	assert.Empty(t, index)

	ids, err := lib.UserIDs(ctx, "room")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLibraryWrongJSONTypeReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	require.NoError(t, mem.Set(ctx, constants.StoreKeys.Discovered, `{"DRAMA":["tt1"],"COMEDY":"tt2"}`))
	require.NoError(t, mem.Set(ctx, constants.StoreKeys.UserIDsPrefix+"room", `["tt9", 5]`))
	require.NoError(t, mem.Set(ctx, constants.StoreKeys.DetailsCache, `{"tt1":{"imdbID":"tt1","Title":7}}`))

	lib := NewLibrary(mem, zap.NewNop())

	index, err := lib.Discovered(ctx)
	require.NoError(t, err)
	assert.NotNil(t, index)
	assert.Empty(t, index)

	ids, err := lib.UserIDs(ctx, "room")
	require.NoError(t, err)
	assert.Empty(t, ids)

	cache, err := lib.Details(ctx)
	require.NoError(t, err)
	assert.NotNil(t, cache)
	assert.Empty(t, cache)
}

func TestLibraryDetailsRoundTripAndClear(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary(NewMemoryStore(), zap.NewNop())

	cache := domain.DetailsCache{
		"tt1": {ImdbID: "tt1", Title: "One", Genre: "Drama"},
	}
	require.NoError(t, lib.SaveDetails(ctx, cache))

	loaded, err := lib.Details(ctx)
	require.NoError(t, err)
	require.True(t, loaded.Has("tt1"))
	assert.Equal(t, "One", loaded["tt1"].Title)

	require.NoError(t, lib.ClearDetails(ctx))
	loaded, err = lib.Details(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLibraryCachedGenres(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary(NewMemoryStore(), zap.NewNop())

	genres, err := lib.CachedGenres(ctx)
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultGenres, genres)

	require.NoError(t, lib.SaveDetails(ctx, domain.DetailsCache{
		"tt1": {ImdbID: "tt1", Genre: "Drama, Crime"},
		"tt2": {ImdbID: "tt2", Genre: "Comedy, Drama"},
	}))
	genres, err = lib.CachedGenres(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"COMEDY", "CRIME", "DRAMA"}, genres)
}

func TestLibraryAPIKey(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary(NewMemoryStore(), zap.NewNop())

	key, err := lib.APIKey(ctx)
	require.NoError(t, err)
	assert.Empty(t, key)

	err = lib.SetAPIKey(ctx, "   ")
	var validationErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	require.NoError(t, lib.SetAPIKey(ctx, " abc123 "))
	key, err = lib.APIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc123", key)
}

func TestLibraryPosterCache(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary(NewMemoryStore(), zap.NewNop())

	_, found, err := lib.Poster(ctx, "tt1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, lib.SavePoster(ctx, "tt1", "https://img/1.jpg"))
	url, found, err := lib.Poster(ctx, "tt1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "https://img/1.jpg", url)
}
