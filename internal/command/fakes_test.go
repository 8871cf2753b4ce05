package command

import (
	"context"
	"sync"
	"time"

	"github.com/kapu/cinematch-kakao-bot-go/internal/adapter"
	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"github.com/kapu/cinematch-kakao-bot-go/internal/service/ai"
	"github.com/kapu/cinematch-kakao-bot-go/internal/service/recommend"
	"github.com/kapu/cinematch-kakao-bot-go/internal/service/trailer"
	"go.uber.org/zap"
)

type fakeMovies struct {
	recommendation *domain.Recommendation
	recommendErr   error
	lastPrefs      domain.Preferences
	statusMessages []string

	hits     []domain.SearchHit
	records  map[string]*domain.MovieRecord
	movieErr error
	genres   []string
	keys     []string
	cleared  int
	added    []string
}

func (f *fakeMovies) Recommend(_ context.Context, _ string, prefs domain.Preferences, status domain.StatusFunc) (*domain.Recommendation, error) {
	f.lastPrefs = prefs
	for _, message := range f.statusMessages {
		status.Report(message)
	}
	return f.recommendation, f.recommendErr
}

func (f *fakeMovies) Search(_ context.Context, _ string) ([]domain.SearchHit, error) {
	return f.hits, nil
}

func (f *fakeMovies) AddToList(_ context.Context, _ string, id string) (*domain.MovieRecord, bool, error) {
	f.added = append(f.added, id)
	return f.records[id], true, nil
}

func (f *fakeMovies) ListMovies(_ context.Context, _ string, _ domain.StatusFunc) ([]*domain.MovieRecord, error) {
	movies := make([]*domain.MovieRecord, 0, len(f.added))
	for _, id := range f.added {
		if record := f.records[id]; record != nil {
			movies = append(movies, record)
		}
	}
	return movies, nil
}

func (f *fakeMovies) Movie(_ context.Context, id string) (*domain.MovieRecord, error) {
	if f.movieErr != nil {
		return nil, f.movieErr
	}
	return f.records[id], nil
}

func (f *fakeMovies) Genres(_ context.Context) ([]string, error) {
	return f.genres, nil
}

func (f *fakeMovies) SetAPIKey(_ context.Context, key string) error {
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakeMovies) ClearCache(_ context.Context) error {
	f.cleared++
	return nil
}

type fakeParser struct {
	query    *domain.PreferenceQuery
	metadata *ai.GenerateMetadata
	err      error
	calls    []string
	genres   []string
}

func (f *fakeParser) Parse(_ context.Context, query string, knownGenres []string) (*domain.PreferenceQuery, *ai.GenerateMetadata, error) {
	f.calls = append(f.calls, query)
	f.genres = knownGenres
	return f.query, f.metadata, f.err
}

type fakePosters struct {
	url string
}

func (f *fakePosters) Resolve(_ context.Context, _ *domain.MovieRecord) string {
	return f.url
}

type fakeTrailers struct {
	trailers []trailer.Trailer
	err      error
	queries  []string
}

func (f *fakeTrailers) Find(_ context.Context, title, year string) ([]trailer.Trailer, error) {
	f.queries = append(f.queries, title+"|"+year)
	return f.trailers, f.err
}

type chatRecorder struct {
	mu       sync.Mutex
	messages []string
	errors   []string
	images   []string
}

func (r *chatRecorder) send(_, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

func (r *chatRecorder) sendError(_, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
	return nil
}

func (r *chatRecorder) sendImage(_, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images = append(r.images, url)
	return nil
}

func newTestDeps(movies *fakeMovies, chat *chatRecorder) *Dependencies {
	throttle := NewStatusThrottle(time.Hour)
	return &Dependencies{
		Movies:      movies,
		Pager:       recommend.NewPager(2, time.Hour),
		Formatter:   adapter.NewResponseFormatter("!"),
		SendMessage: chat.send,
		SendError:   chat.sendError,
		SendImage:   chat.sendImage,
		NewStatus: func(room string) domain.StatusFunc {
			return throttle.For(func(message string) error { return chat.send(room, message) })
		},
		Logger: zap.NewNop(),
	}
}

func testContext(message string) *domain.CommandContext {
	return domain.NewCommandContext("room", "room", "user", message, true)
}

func movieRecord(id, title string, rating string) *domain.MovieRecord {
	return &domain.MovieRecord{
		ImdbID:     id,
		Title:      title,
		Year:       "2001",
		Genre:      "Drama",
		Rated:      "PG-13",
		Runtime:    "120 min",
		ImdbRating: rating,
		Type:       "movie",
	}
}
