// Package recommend runs the recommendation pipeline and the list-management
// operations around it.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"github.com/kapu/cinematch-kakao-bot-go/internal/omdb"
	"github.com/kapu/cinematch-kakao-bot-go/internal/service/pool"
	"github.com/kapu/cinematch-kakao-bot-go/internal/service/scoring"
	"github.com/kapu/cinematch-kakao-bot-go/internal/service/warmer"
	"github.com/kapu/cinematch-kakao-bot-go/internal/store"
	"github.com/kapu/cinematch-kakao-bot-go/pkg/errors"
	"go.uber.org/zap"
)

type Service struct {
	library *store.Library
	client  omdb.MetadataClient
	warmer  *warmer.Warmer
	builder *pool.Builder
	poolCap int
	logger  *zap.Logger

	runsMu sync.Mutex
	runs   map[string]string
	now    func() time.Time
}

func NewService(
	library *store.Library,
	client omdb.MetadataClient,
	warmer *warmer.Warmer,
	builder *pool.Builder,
	poolCap int,
	logger *zap.Logger,
) *Service {
	return &Service{
		library: library,
		client:  client,
		warmer:  warmer,
		builder: builder,
		poolCap: poolCap,
		logger:  logger,
		runs:    make(map[string]string),
		now:     time.Now,
	}
}

// Recommend builds the pool for prefs, makes sure every pooled movie and every
// movie on the room's list is cached, then returns the matching movies sorted
// by score. A room runs one recommendation at a time.
func (s *Service) Recommend(ctx context.Context, room string, prefs domain.Preferences, status domain.StatusFunc) (*domain.Recommendation, error) {
	key, err := s.requireKey(ctx)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	if !s.beginRun(room, runID) {
		return nil, errors.ErrRunInProgress
	}
	defer s.endRun(room)

	logger := s.logger.With(zap.String("run_id", runID), zap.String("room", room))
	report := &domain.RunReport{RunID: runID, StartedAt: s.now()}

	if prefs.HasGenreFilter() {
		status.Report(fmt.Sprintf("%s 장르로 최대 %d편의 후보를 모으는 중…", strings.Join(prefs.Genres(), ", "), s.poolCap))
	} else {
		status.Report("장르를 지정하지 않아 기본 후보에서 찾습니다. (장르를 지정하면 더 잘 맞아요)")
	}

	built, err := s.builder.Build(ctx, key, room, prefs.Genres(), status)
	if err != nil {
		return nil, err
	}
	report.Merge(built.Report)

	_, warmReport, err := s.warmer.Warm(ctx, key, built.IDs, status)
	if err != nil {
		return nil, err
	}
	report.Merge(warmReport)

	userIDs, err := s.library.UserIDs(ctx, room)
	if err != nil {
		return nil, err
	}
	if len(userIDs) > 0 {
		_, userReport, err := s.warmer.Warm(ctx, key, userIDs, status)
		if err != nil {
			return nil, err
		}
		report.Merge(userReport)
	}

	cache, err := s.library.Details(ctx)
	if err != nil {
		return nil, err
	}

	userMovies := make([]*domain.MovieRecord, 0, len(userIDs))
	for _, id := range userIDs {
		if record := cache[id]; record != nil {
			userMovies = append(userMovies, record)
		}
	}
	profile := scoring.BuildProfile(userMovies)

	entries := Rank(built.IDs, cache, prefs, profile)

	logger.Info("Recommendation finished",
		zap.Strings("genres", prefs.Genres()),
		zap.Int("pool", len(built.IDs)),
		zap.Int("matches", len(entries)),
		zap.Int("fetched", report.Count(domain.FetchStatusFetched)),
		zap.Int("skipped", report.Count(domain.FetchStatusSkipped)),
		zap.Bool("taste_profile", profile != nil),
		zap.Duration("elapsed", s.now().Sub(report.StartedAt)),
	)

	return &domain.Recommendation{
		Entries:  entries,
		PoolSize: len(built.IDs),
		Report:   report,
	}, nil
}

// Rank scores the cached movies of ids and returns the included ones, best first.
// Uncached ids and non-movie types are skipped.
func Rank(ids []string, cache domain.DetailsCache, prefs domain.Preferences, profile *domain.TasteProfile) []domain.ScoredEntry {
	entries := make([]domain.ScoredEntry, 0, len(ids))
	for _, id := range ids {
		record := cache[id]
		if record == nil || !record.IsMovie() {
			continue
		}
		result := scoring.Score(record, prefs, profile)
		if !result.Included {
			continue
		}
		entries = append(entries, domain.ScoredEntry{
			Movie:     record,
			Score:     result.Value,
			Breakdown: result.Breakdown,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

// Search looks up movies by title. Catalog errors are returned unchanged.
func (s *Service) Search(ctx context.Context, query string) ([]domain.SearchHit, error) {
	key, err := s.requireKey(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.NewValidationError("search query is empty", "query", query)
	}
	return s.client.SearchByTitle(ctx, key, query)
}

// AddToList appends id to the room's list and caches its details. added is
// false when the movie was already on the list.
func (s *Service) AddToList(ctx context.Context, room, id string) (record *domain.MovieRecord, added bool, err error) {
	key, err := s.requireKey(ctx)
	if err != nil {
		return nil, false, err
	}

	added, err = s.library.AddUserID(ctx, room, id)
	if err != nil {
		return nil, false, err
	}

	cache, _, err := s.warmer.Warm(ctx, key, []string{strings.TrimSpace(id)}, nil)
	if err != nil {
		return nil, added, err
	}
	return cache[strings.TrimSpace(id)], added, nil
}

// ListMovies returns the cached records of the room's list in insertion order,
// fetching missing ones first. Identifiers that still cannot be loaded are left out.
func (s *Service) ListMovies(ctx context.Context, room string, status domain.StatusFunc) ([]*domain.MovieRecord, error) {
	ids, err := s.library.UserIDs(ctx, room)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cache, err := s.library.Details(ctx)
	if err != nil {
		return nil, err
	}

	if key, _ := s.library.APIKey(ctx); key != "" {
		cache, _, err = s.warmer.Warm(ctx, key, ids, status)
		if err != nil {
			return nil, err
		}
	}

	movies := make([]*domain.MovieRecord, 0, len(ids))
	for _, id := range ids {
		if record := cache[id]; record != nil {
			movies = append(movies, record)
		}
	}
	return movies, nil
}

// Movie returns the details of id, from the cache when possible.
func (s *Service) Movie(ctx context.Context, id string) (*domain.MovieRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.NewValidationError("movie id is empty", "id", id)
	}

	cache, err := s.library.Details(ctx)
	if err != nil {
		return nil, err
	}
	if record := cache[id]; record != nil {
		return record, nil
	}

	key, err := s.requireKey(ctx)
	if err != nil {
		return nil, err
	}
	record, err := s.client.FetchByID(ctx, key, id)
	if err != nil {
		return nil, err
	}
	cache[id] = record
	if err := s.library.SaveDetails(ctx, cache); err != nil {
		return nil, err
	}
	return record, nil
}

// Genres lists the genres found in the details cache.
func (s *Service) Genres(ctx context.Context) ([]string, error) {
	return s.library.CachedGenres(ctx)
}

func (s *Service) SetAPIKey(ctx context.Context, key string) error {
	return s.library.SetAPIKey(ctx, key)
}

// ClearCache drops the details cache. Room lists and the discovered index survive.
func (s *Service) ClearCache(ctx context.Context) error {
	if err := s.library.ClearDetails(ctx); err != nil {
		return err
	}
	s.logger.Info("Details cache cleared")
	return nil
}

func (s *Service) requireKey(ctx context.Context) (string, error) {
	key, err := s.library.APIKey(ctx)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", errors.ErrMissingAPIKey
	}
	return key, nil
}

func (s *Service) beginRun(room, runID string) bool {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()
	if _, running := s.runs[room]; running {
		return false
	}
	s.runs[room] = runID
	return true
}

func (s *Service) endRun(room string) {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()
	delete(s.runs, room)
}
