package store

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"strings"

	"github.com/kapu/cinematch-kakao-bot-go/internal/constants"
	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	apperrors "github.com/kapu/cinematch-kakao-bot-go/pkg/errors"
	"go.uber.org/zap"
)

// Library gives typed access to the logical keys the bot persists. Malformed
// JSON is logged and read as the empty default.
type Library struct {
	store  Store
	logger *zap.Logger
}

func NewLibrary(store Store, logger *zap.Logger) *Library {
	return &Library{store: store, logger: logger}
}

func (l *Library) APIKey(ctx context.Context) (string, error) {
	value, _, err := l.store.Get(ctx, constants.StoreKeys.APIKey)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func (l *Library) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return apperrors.NewValidationError("api key must not be empty", "api_key", key)
	}
	return l.store.Set(ctx, constants.StoreKeys.APIKey, key)
}

// UserIDs returns the identifiers a room added to its movie list, in insertion order.
func (l *Library) UserIDs(ctx context.Context, room string) ([]string, error) {
	var ids []string
	if err := l.loadJSON(ctx, userIDsKey(room), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// AddUserID appends id to the room's list. It reports false when id was already present.
func (l *Library) AddUserID(ctx context.Context, room, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, apperrors.NewValidationError("movie id must not be empty", "id", id)
	}

	ids, err := l.UserIDs(ctx, room)
	if err != nil {
		return false, err
	}
	for _, existing := range ids {
		if existing == id {
			return false, nil
		}
	}

	ids = append(ids, id)
	if err := l.saveJSON(ctx, userIDsKey(room), ids); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Library) Details(ctx context.Context) (domain.DetailsCache, error) {
	cache := domain.DetailsCache{}
	if err := l.loadJSON(ctx, constants.StoreKeys.DetailsCache, &cache); err != nil {
		return nil, err
	}
	if cache == nil {
		cache = domain.DetailsCache{}
	}
	return cache, nil
}

func (l *Library) SaveDetails(ctx context.Context, cache domain.DetailsCache) error {
	if cache == nil {
		cache = domain.DetailsCache{}
	}
	return l.saveJSON(ctx, constants.StoreKeys.DetailsCache, cache)
}

// ClearDetails drops every cached record. The discovered index is kept.
func (l *Library) ClearDetails(ctx context.Context) error {
	return l.store.Delete(ctx, constants.StoreKeys.DetailsCache)
}

func (l *Library) Discovered(ctx context.Context) (domain.DiscoveredIndex, error) {
	index := domain.DiscoveredIndex{}
	if err := l.loadJSON(ctx, constants.StoreKeys.Discovered, &index); err != nil {
		return nil, err
	}
	if index == nil {
		index = domain.DiscoveredIndex{}
	}
	return index, nil
}

func (l *Library) SaveDiscovered(ctx context.Context, index domain.DiscoveredIndex) error {
	if index == nil {
		index = domain.DiscoveredIndex{}
	}
	return l.saveJSON(ctx, constants.StoreKeys.Discovered, index)
}

// CachedGenres lists every genre seen in the details cache, sorted. It falls
// back to the default genre list when the cache holds none.
func (l *Library) CachedGenres(ctx context.Context) ([]string, error) {
	cache, err := l.Details(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, record := range cache {
		for _, genre := range record.Genres() {
			seen[genre] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return append([]string(nil), constants.DefaultGenres...), nil
	}

	genres := make([]string, 0, len(seen))
	for genre := range seen {
		genres = append(genres, genre)
	}
	sort.Strings(genres)
	return genres, nil
}

// Poster returns a previously resolved poster URL for id.
func (l *Library) Poster(ctx context.Context, id string) (string, bool, error) {
	return l.store.Get(ctx, constants.StoreKeys.PosterPrefix+id)
}

func (l *Library) SavePoster(ctx context.Context, id, url string) error {
	return l.store.Set(ctx, constants.StoreKeys.PosterPrefix+id, url)
}

func (l *Library) loadJSON(ctx context.Context, key string, dest any) error {
	raw, found, err := l.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if !found || strings.TrimSpace(raw) == "" {
		return nil
	}
	// json.Unmarshal keeps filling dest after a type mismatch, so decode into a
	// fresh value and only publish it on success.
	target := reflect.ValueOf(dest).Elem()
	fresh := reflect.New(target.Type())
	if err := json.Unmarshal([]byte(raw), fresh.Interface()); err != nil {
		l.logger.Warn("Malformed stored value, using empty default",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil
	}
	target.Set(fresh.Elem())
	return nil
}

func (l *Library) saveJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewStoreError("marshal failed", "set", key, err)
	}
	return l.store.Set(ctx, key, string(data))
}

func userIDsKey(room string) string {
	return constants.StoreKeys.UserIDsPrefix + room
}
