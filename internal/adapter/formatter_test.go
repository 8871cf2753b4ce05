package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
)

func movie(id, title string) *domain.MovieRecord {
	return &domain.MovieRecord{
		ImdbID:     id,
		Title:      title,
		Year:       "1999",
		Genre:      "Action, Sci-Fi",
		Rated:      "R",
		Runtime:    "136 min",
		ImdbRating: "8.7",
		Director:   "Lana Wachowski",
		Actors:     "Keanu Reeves",
		Plot:       "A hacker learns the truth.",
		Type:       "movie",
	}
}

func TestFormatRecommendationPage(t *testing.T) {
	f := NewResponseFormatter("!")
	out := f.FormatRecommendationPage(PageView{
		Entries: []domain.ScoredEntry{
			{Movie: movie("tt1", "The Matrix"), Score: 17.42},
			{Movie: movie("tt2", "Dark City"), Score: 12},
		},
		Start:     12,
		Total:     30,
		Remaining: 16,
		PoolSize:  100,
		Skipped:   2,
	})

	assert.Contains(t, out, "🎬 추천 결과 (14/30편, 후보 100편 중)")
	assert.Contains(t, out, "13. The Matrix (1999)")
	assert.Contains(t, out, "14. Dark City (1999)")
	assert.Contains(t, out, "⭐ 8.7 · 136분 · R · 점수 17.4")
	assert.Contains(t, out, "🎭 ACTION, SCI-FI")
	assert.Contains(t, out, "2편은 정보를 불러오지 못해")
	assert.Contains(t, out, "👉 16편 남음 · !더보기")
}

func TestFormatRecommendationLastPage(t *testing.T) {
	f := NewResponseFormatter("!")
	out := f.FormatRecommendationPage(PageView{
		Entries:  []domain.ScoredEntry{{Movie: movie("tt1", "The Matrix"), Score: 10}},
		Total:    1,
		PoolSize: 5,
	})

	assert.Contains(t, out, "✅ 마지막 페이지입니다.")
	assert.NotContains(t, out, "남음")
	assert.NotContains(t, out, "⚠️")
}

func TestFormatNoMatchesHints(t *testing.T) {
	f := NewResponseFormatter("!")
	prefs := domain.NewPreferences([]string{"horror"}, 8, "PG", 90, 999)

	out := f.FormatNoMatches(40, prefs)

	assert.Contains(t, out, "후보 40편 중")
	assert.Contains(t, out, "최소 평점 낮추기 (현재 8)")
	assert.Contains(t, out, "관람 등급 제한 풀기 (현재 PG)")
	assert.Contains(t, out, "최대 상영시간 늘리기 (현재 90분)")
	assert.Contains(t, out, "장르 바꾸기 (현재 HORROR)")

	loose := f.FormatNoMatches(3, domain.NewPreferences(nil, 0, "", 0, 999))
	assert.NotContains(t, loose, "현재")
}

func TestFormatMovieCardAndList(t *testing.T) {
	f := NewResponseFormatter("!")
	card := f.FormatMovieCard(movie("tt0133093", "The Matrix"))

	assert.Contains(t, card, "🎬 The Matrix (1999)")
	assert.Contains(t, card, "🎥 Lana Wachowski")
	assert.Contains(t, card, "https://www.imdb.com/title/tt0133093/")
	assert.Contains(t, f.FormatMovieCard(nil), "❌")

	list := f.FormatList([]*domain.MovieRecord{movie("tt1", "The Matrix")})
	assert.Contains(t, list, "📋 내 목록 (1편)")
	assert.Contains(t, list, "1. The Matrix (1999) ⭐ 8.7")
	assert.Contains(t, f.FormatList(nil), "목록이 비어 있습니다")
}

func TestFormatSearchAndTrailers(t *testing.T) {
	f := NewResponseFormatter("/")
	out := f.FormatSearchResults("matrix", []domain.SearchHit{{ImdbID: "tt0133093", Title: "The Matrix", Year: "1999"}})

	assert.Contains(t, out, "1. The Matrix (1999)")
	assert.Contains(t, out, "🆔 tt0133093")
	assert.Contains(t, out, "/추가 [ID]")
	assert.Contains(t, f.FormatSearchResults("zzz", nil), "검색 결과가 없습니다")

	trailers := f.FormatTrailers("The Matrix", []TrailerEntry{{Title: "Official Trailer", Channel: "WB", URL: "https://www.youtube.com/watch?v=abc"}})
	assert.Contains(t, trailers, "https://www.youtube.com/watch?v=abc")
	assert.Contains(t, trailers, "📺 WB")
}

func TestFormatInterpretation(t *testing.T) {
	f := NewResponseFormatter("!")

	out := f.FormatInterpretation(&domain.PreferenceQuery{Genres: []string{"HORROR"}, MinRating: 6.5, AgeRating: "R", MaxRuntime: 120, Reasoning: "무서운 영화"})
	assert.Contains(t, out, "!추천 장르=HORROR 평점=6.5 등급=R 시간=120")
	assert.Contains(t, out, "무서운 영화")

	assert.Equal(t, "🤖 조건 없이 추천합니다.", f.FormatInterpretation(&domain.PreferenceQuery{}))
}

func TestFormatHelpUsesPrefix(t *testing.T) {
	out := NewResponseFormatter("#").FormatHelp()

	assert.Contains(t, out, "#추천 [장르=드라마,SF]")
	assert.Contains(t, out, "#더보기 - 다음 12편")
	assert.NotContains(t, out, "❌")
}

func TestFormatGenres(t *testing.T) {
	out := NewResponseFormatter("!").FormatGenres([]string{"DRAMA", "HORROR", "WAR"})

	assert.Contains(t, out, "DRAMA, HORROR, WAR")
	assert.Contains(t, out, "!추천 장르=DRAMA,HORROR")
}
