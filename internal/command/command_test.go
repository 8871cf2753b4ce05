package command

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kapu/cinematch-kakao-bot-go/internal/adapter"
	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"github.com/kapu/cinematch-kakao-bot-go/internal/service/trailer"
	"github.com/kapu/cinematch-kakao-bot-go/pkg/errors"
)

func scored(n int) []domain.ScoredEntry {
	entries := make([]domain.ScoredEntry, n)
	for i := range entries {
		entries[i] = domain.ScoredEntry{
			Movie: movieRecord(fmt.Sprintf("tt%07d", i), fmt.Sprintf("Movie %d", i), "7.0"),
			Score: float64(20 - i),
		}
	}
	return entries
}

func TestRecommendCommandSendsFirstPageAndMorePages(t *testing.T) {
	movies := &fakeMovies{
		recommendation: &domain.Recommendation{Entries: scored(3), PoolSize: 40},
		statusMessages: []string{"후보 목록 확장 중… (1/100)", "후보 목록 확장 중… (2/100)"},
	}
	chat := &chatRecorder{}
	deps := newTestDeps(movies, chat)

	params := adapter.ParseRecommendOptions([]string{"장르=드라마", "평점=7"})
	if err := NewRecommendCommand(deps).Execute(context.Background(), testContext("!추천"), params); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !movies.lastPrefs.Selects("DRAMA") || movies.lastPrefs.MinRating != 7 {
		t.Fatalf("unexpected preferences: %+v", movies.lastPrefs)
	}

	// one throttled status message, the summary and the first page
	if len(chat.messages) != 3 {
		t.Fatalf("expected 3 messages, got %d: %v", len(chat.messages), chat.messages)
	}
	if !strings.HasPrefix(chat.messages[0], "⏳ 후보 목록 확장 중… (1/100)") {
		t.Fatalf("unexpected status message: %s", chat.messages[0])
	}
	if !strings.Contains(chat.messages[1], "후보 40편 중 3편") {
		t.Fatalf("unexpected summary: %s", chat.messages[1])
	}
	if !strings.Contains(chat.messages[2], "1. Movie 0") || !strings.Contains(chat.messages[2], "1편 남음") {
		t.Fatalf("unexpected first page: %s", chat.messages[2])
	}

	more := NewMoreCommand(deps)
	if err := more.Execute(context.Background(), testContext("!더보기"), nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	last := chat.messages[len(chat.messages)-1]
	if !strings.Contains(last, "3. Movie 2") || !strings.Contains(last, "마지막 페이지") {
		t.Fatalf("unexpected second page: %s", last)
	}

	if err := more.Execute(context.Background(), testContext("!더보기"), nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(chat.messages[len(chat.messages)-1], "더 보여드릴 추천이 없습니다") {
		t.Fatalf("expected no-more message, got %s", chat.messages[len(chat.messages)-1])
	}
}

func TestRecommendCommandNoMatches(t *testing.T) {
	movies := &fakeMovies{recommendation: &domain.Recommendation{PoolSize: 12}}
	chat := &chatRecorder{}
	deps := newTestDeps(movies, chat)

	if err := NewRecommendCommand(deps).Execute(context.Background(), testContext("!추천"), map[string]any{}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(chat.messages) != 1 || !strings.Contains(chat.messages[0], "후보 12편 중 조건에 맞는 영화가 없습니다") {
		t.Fatalf("unexpected messages: %v", chat.messages)
	}
}

func TestRecommendCommandRejectsInvalidOptions(t *testing.T) {
	movies := &fakeMovies{}
	chat := &chatRecorder{}
	deps := newTestDeps(movies, chat)

	params := adapter.ParseRecommendOptions([]string{"평점=높음"})
	if err := NewRecommendCommand(deps).Execute(context.Background(), testContext("!추천"), params); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(chat.errors) != 1 || !strings.Contains(chat.errors[0], "평점=높음") {
		t.Fatalf("unexpected error replies: %v", chat.errors)
	}
}

func TestRecommendCommandMapsServiceErrors(t *testing.T) {
	cases := []struct {
		err      error
		asError  bool
		contains string
	}{
		{err: errors.ErrMissingAPIKey, contains: "OMDb API 키가 없습니다"},
		{err: errors.ErrRunInProgress, contains: "이미 추천을 찾는 중"},
		{err: errors.NewStoreError("load failed", "get", "k", stderrors.New("down")), asError: true, contains: "요청을 처리하지 못했습니다"},
		{err: errors.NewTransportError("bad gateway", 502, nil), asError: true, contains: "연결하지 못했습니다"},
	}

	for _, tc := range cases {
		chat := &chatRecorder{}
		deps := newTestDeps(&fakeMovies{recommendErr: tc.err}, chat)

		if err := NewRecommendCommand(deps).Execute(context.Background(), testContext("!추천"), map[string]any{}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		replies := chat.messages
		if tc.asError {
			replies = chat.errors
		}
		if len(replies) != 1 || !strings.Contains(replies[0], tc.contains) {
			t.Fatalf("%v: unexpected replies %v / %v", tc.err, chat.messages, chat.errors)
		}
	}
}

func TestInfoCommandSendsCardAndPoster(t *testing.T) {
	movies := &fakeMovies{records: map[string]*domain.MovieRecord{
		"tt0133093": movieRecord("tt0133093", "The Matrix", "8.7"),
	}}
	chat := &chatRecorder{}
	deps := newTestDeps(movies, chat)
	deps.Posters = &fakePosters{url: "https://img.example/matrix.jpg"}

	if err := NewInfoCommand(deps).Execute(context.Background(), testContext("!정보"), map[string]any{
		adapter.ParamID: "tt0133093",
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(chat.messages) != 1 || !strings.Contains(chat.messages[0], "The Matrix (2001)") {
		t.Fatalf("unexpected card: %v", chat.messages)
	}
	if len(chat.images) != 1 || chat.images[0] != "https://img.example/matrix.jpg" {
		t.Fatalf("expected poster to be sent, got %v", chat.images)
	}
}

func TestInfoCommandNotFound(t *testing.T) {
	chat := &chatRecorder{}
	deps := newTestDeps(&fakeMovies{movieErr: errors.NewNotFoundError("Incorrect IMDb ID.", "tt0000000")}, chat)

	if err := NewInfoCommand(deps).Execute(context.Background(), testContext("!정보"), map[string]any{
		adapter.ParamID: "tt0000000",
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(chat.errors) != 1 || !strings.Contains(chat.errors[0], "tt0000000") {
		t.Fatalf("unexpected error replies: %v", chat.errors)
	}
	if len(chat.images) != 0 {
		t.Fatalf("expected no poster, got %v", chat.images)
	}
}

func TestTrailerCommandResolvesIDToTitle(t *testing.T) {
	movies := &fakeMovies{records: map[string]*domain.MovieRecord{
		"tt0133093": movieRecord("tt0133093", "The Matrix", "8.7"),
	}}
	trailers := &fakeTrailers{trailers: []trailer.Trailer{{VideoID: "abc", Title: "Official Trailer", Channel: "WB"}}}
	chat := &chatRecorder{}
	deps := newTestDeps(movies, chat)
	deps.Trailers = trailers

	if err := NewTrailerCommand(deps).Execute(context.Background(), testContext("!예고편"), map[string]any{
		adapter.ParamQuery: "tt0133093",
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(trailers.queries) != 1 || trailers.queries[0] != "The Matrix|2001" {
		t.Fatalf("unexpected trailer queries: %v", trailers.queries)
	}
	if len(chat.messages) != 1 || !strings.Contains(chat.messages[0], "youtube.com/watch?v=abc") {
		t.Fatalf("unexpected trailer reply: %v", chat.messages)
	}
}

func TestTrailerCommandQuotaExceeded(t *testing.T) {
	chat := &chatRecorder{}
	deps := newTestDeps(&fakeMovies{}, chat)
	deps.Trailers = &fakeTrailers{err: &trailer.QuotaExceededError{ResetTime: time.Now().Add(time.Hour)}}

	if err := NewTrailerCommand(deps).Execute(context.Background(), testContext("!예고편"), map[string]any{
		adapter.ParamQuery: "Heat",
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(chat.errors) != 1 || !strings.Contains(chat.errors[0], "한도") {
		t.Fatalf("unexpected error replies: %v", chat.errors)
	}
}

func TestListAddKeyAndClearCache(t *testing.T) {
	movies := &fakeMovies{records: map[string]*domain.MovieRecord{
		"tt1": movieRecord("tt1", "First", "7.1"),
	}}
	chat := &chatRecorder{}
	deps := newTestDeps(movies, chat)
	ctx := context.Background()

	if err := NewAddCommand(deps).Execute(ctx, testContext("!추가"), map[string]any{adapter.ParamID: "tt1"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := NewListCommand(deps).Execute(ctx, testContext("!목록"), nil); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if err := NewSetKeyCommand(deps).Execute(ctx, testContext("!키"), map[string]any{adapter.ParamKey: "secret"}); err != nil {
		t.Fatalf("key failed: %v", err)
	}
	if err := NewClearCacheCommand(deps).Execute(ctx, testContext("!캐시삭제"), nil); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	if len(chat.messages) != 4 {
		t.Fatalf("expected 4 replies, got %v", chat.messages)
	}
	if !strings.Contains(chat.messages[0], "First (2001) 을(를) 목록에 추가했습니다") {
		t.Fatalf("unexpected add reply: %s", chat.messages[0])
	}
	if !strings.Contains(chat.messages[1], "1. First (2001)") {
		t.Fatalf("unexpected list reply: %s", chat.messages[1])
	}
	if len(movies.keys) != 1 || movies.keys[0] != "secret" || movies.cleared != 1 {
		t.Fatalf("unexpected service calls: keys=%v cleared=%d", movies.keys, movies.cleared)
	}
}

func TestCommandsShowUsageWithoutArguments(t *testing.T) {
	chat := &chatRecorder{}
	deps := newTestDeps(&fakeMovies{}, chat)
	ctx := context.Background()

	for _, cmd := range []Command{NewSearchCommand(deps), NewAddCommand(deps), NewInfoCommand(deps), NewSetKeyCommand(deps)} {
		if err := cmd.Execute(ctx, testContext("!"+cmd.Name()), map[string]any{}); err != nil {
			t.Fatalf("%s: expected no error, got %v", cmd.Name(), err)
		}
	}
	for _, message := range chat.messages {
		if !strings.HasPrefix(message, "💡 사용법") {
			t.Fatalf("expected usage reply, got %s", message)
		}
	}
	if len(chat.messages) != 4 {
		t.Fatalf("expected 4 usage replies, got %d", len(chat.messages))
	}
}

func TestRegistryAndDispatcher(t *testing.T) {
	chat := &chatRecorder{}
	deps := newTestDeps(&fakeMovies{genres: []string{"DRAMA"}}, chat)

	registry := NewRegistry()
	registry.Register(NewHelpCommand(deps), NewGenresCommand(deps), nil)
	if registry.Count() != 2 {
		t.Fatalf("expected 2 handlers, got %d", registry.Count())
	}
	if names := registry.Names(); len(names) != 2 || names[0] != "genres" || names[1] != "help" {
		t.Fatalf("unexpected names: %v", names)
	}

	dispatcher := NewSequentialDispatcher(registry, nil)
	executed, err := dispatcher.Publish(context.Background(), testContext("!장르"),
		CommandEvent{Type: domain.CommandUnknown},
		CommandEvent{Type: domain.CommandGenres, Params: map[string]any{"x": 1}},
	)
	if err != nil || executed != 1 {
		t.Fatalf("expected one executed command, got %d (%v)", executed, err)
	}

	_, err = dispatcher.Publish(context.Background(), testContext("!목록"), CommandEvent{Type: domain.CommandList})
	if !stderrors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestStatusThrottle(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	throttle := NewStatusThrottle(10 * time.Second)
	throttle.now = func() time.Time { return clock }

	var sent []string
	status := throttle.For(func(message string) error {
		sent = append(sent, message)
		return nil
	})

	status("a")
	clock = clock.Add(5 * time.Second)
	status("b")
	clock = clock.Add(6 * time.Second)
	status("c")

	if len(sent) != 2 || sent[0] != "⏳ a" || sent[1] != "⏳ c" {
		t.Fatalf("unexpected status messages: %v", sent)
	}
}
