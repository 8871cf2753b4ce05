package adapter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kapu/cinematch-kakao-bot-go/internal/constants"
	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"github.com/kapu/cinematch-kakao-bot-go/internal/util"
)

// PageView is one page of a recommendation as shown in chat.
type PageView struct {
	Entries   []domain.ScoredEntry
	Start     int
	Total     int
	Remaining int
	PoolSize  int
	Skipped   int
}

// TrailerEntry represents a single trailer item for formatting.
type TrailerEntry struct {
	Title   string
	Channel string
	URL     string
}

type entryView struct {
	Title    string
	Year     string
	Rating   string
	Runtime  string
	Rated    string
	Score    string
	Genres   string
	Director string
}

type recommendationView struct {
	Entries   []entryView
	Start     int
	Shown     int
	Total     int
	Remaining int
	PoolSize  int
	Skipped   int
	Prefix    string
}

// ResponseFormatter formats bot responses
type ResponseFormatter struct {
	prefix string
}

func NewResponseFormatter(prefix string) *ResponseFormatter {
	if strings.TrimSpace(prefix) == "" {
		prefix = "!"
	}
	return &ResponseFormatter{prefix: prefix}
}

// FormatRecommendationPage renders a page of scored movies with a footer
// telling how many remain.
func (f *ResponseFormatter) FormatRecommendationPage(page PageView) string {
	view := recommendationView{
		Entries:   make([]entryView, 0, len(page.Entries)),
		Start:     page.Start,
		Shown:     page.Start + len(page.Entries),
		Total:     page.Total,
		Remaining: page.Remaining,
		PoolSize:  page.PoolSize,
		Skipped:   page.Skipped,
		Prefix:    f.prefix,
	}
	for _, entry := range page.Entries {
		view.Entries = append(view.Entries, f.entryView(entry))
	}

	rendered, err := executeFormatterTemplate("recommendation", view)
	if err != nil {
		return f.FormatError("추천 결과를 표시하지 못했습니다.")
	}
	return rendered
}

// FormatNoMatches explains an empty result and hints at looser filters.
func (f *ResponseFormatter) FormatNoMatches(poolSize int, prefs domain.Preferences) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("😢 후보 %d편 중 조건에 맞는 영화가 없습니다.\n\n", poolSize))
	sb.WriteString("💡 조건을 완화해 보세요.\n")
	if prefs.MinRating > 0 {
		sb.WriteString(fmt.Sprintf("  - 최소 평점 낮추기 (현재 %s)\n", formatFloat(prefs.MinRating)))
	}
	if prefs.AgeRating != domain.AgeRatingAny {
		sb.WriteString(fmt.Sprintf("  - 관람 등급 제한 풀기 (현재 %s)\n", prefs.AgeRating))
	}
	if prefs.MaxRuntime < constants.DefaultMaxRuntime {
		sb.WriteString(fmt.Sprintf("  - 최대 상영시간 늘리기 (현재 %d분)\n", prefs.MaxRuntime))
	}
	if prefs.HasGenreFilter() {
		sb.WriteString(fmt.Sprintf("  - 장르 바꾸기 (현재 %s)\n", strings.Join(prefs.Genres(), ", ")))
	}
	sb.WriteString(fmt.Sprintf("\n%s장르 로 선택 가능한 장르를 볼 수 있습니다.", f.prefix))
	return sb.String()
}

// FormatSummary is the status line sent before the first page.
func (f *ResponseFormatter) FormatSummary(matches, poolSize int) string {
	return fmt.Sprintf("🔍 후보 %d편 중 %d편을 찾았습니다.", poolSize, matches)
}

func (f *ResponseFormatter) FormatNoMorePages() string {
	return fmt.Sprintf("ℹ️ 더 보여드릴 추천이 없습니다. %s추천 으로 새로 찾아보세요.", f.prefix)
}

func (f *ResponseFormatter) FormatSearchResults(query string, hits []domain.SearchHit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("🔎 '%s' 검색 결과가 없습니다.", query)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔎 '%s' 검색 결과 (%d편)\n", query, len(hits)))
	for i, hit := range hits {
		sb.WriteString(fmt.Sprintf("\n%d. %s", i+1, util.TruncateString(hit.Title, constants.StringLimits.Title)))
		if hit.Year != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", hit.Year))
		}
		sb.WriteString(fmt.Sprintf("\n   🆔 %s", hit.ImdbID))
	}
	sb.WriteString(fmt.Sprintf("\n\n💡 %s추가 [ID] 로 내 목록에 담기", f.prefix))
	return sb.String()
}

func (f *ResponseFormatter) FormatAdded(record *domain.MovieRecord, id string, added bool) string {
	name := id
	if record != nil && record.Title != "" {
		name = fmt.Sprintf("%s (%s)", record.Title, record.Year)
	}
	if !added {
		return fmt.Sprintf("ℹ️ %s 은(는) 이미 목록에 있습니다.", name)
	}
	if record == nil {
		return fmt.Sprintf("✅ %s 을(를) 목록에 추가했습니다.\n⚠️ 영화 정보를 불러오지 못했습니다. 다음 추천 때 다시 시도합니다.", name)
	}
	return fmt.Sprintf("✅ %s 을(를) 목록에 추가했습니다.\n다음 추천부터 취향에 반영됩니다.", name)
}

func (f *ResponseFormatter) FormatList(movies []*domain.MovieRecord) string {
	if len(movies) == 0 {
		return fmt.Sprintf("📋 목록이 비어 있습니다.\n\n💡 %s검색 [제목] 후 %s추가 [ID] 로 담아 보세요.", f.prefix, f.prefix)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 내 목록 (%d편)\n", len(movies)))
	for i, movie := range movies {
		sb.WriteString(fmt.Sprintf("\n%d. %s (%s) ⭐ %s", i+1,
			util.TruncateString(movie.Title, constants.StringLimits.Title), movie.Year, orDash(movie.ImdbRating)))
	}
	return sb.String()
}

func (f *ResponseFormatter) FormatGenres(genres []string) string {
	return fmt.Sprintf("🎭 선택 가능한 장르\n%s\n\n예) %s추천 장르=%s",
		strings.Join(genres, ", "), f.prefix, strings.Join(genres[:util.Min(2, len(genres))], ","))
}

// FormatMovieCard renders the detail card of one movie.
func (f *ResponseFormatter) FormatMovieCard(record *domain.MovieRecord) string {
	if record == nil {
		return f.FormatError("영화 정보를 찾을 수 없습니다.")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎬 %s (%s)\n", record.Title, record.Year))
	sb.WriteString(fmt.Sprintf("⭐ %s · %s · %s\n", orDash(record.ImdbRating), runtimeLabel(record), domain.NormalizeRated(record.Rated)))
	if genres := record.Genres(); len(genres) > 0 {
		sb.WriteString(fmt.Sprintf("🎭 %s\n", strings.Join(genres, ", ")))
	}
	if directors := record.Directors(); len(directors) > 0 {
		sb.WriteString(fmt.Sprintf("🎥 %s\n", strings.Join(directors, ", ")))
	}
	if actors := record.ActorNames(); len(actors) > 0 {
		sb.WriteString(fmt.Sprintf("👥 %s\n", util.TruncateString(strings.Join(actors, ", "), constants.StringLimits.Actors)))
	}
	if plot := strings.TrimSpace(record.Plot); plot != "" && plot != "N/A" {
		sb.WriteString(fmt.Sprintf("\n%s\n", util.TruncateString(plot, constants.StringLimits.Plot)))
	}
	sb.WriteString(fmt.Sprintf("\n🔗 %s%s/", constants.APIConfig.IMDbTitleURL, record.ImdbID))
	return sb.String()
}

func (f *ResponseFormatter) FormatTrailers(title string, trailers []TrailerEntry) string {
	if len(trailers) == 0 {
		return fmt.Sprintf("🎞️ '%s' 예고편을 찾지 못했습니다.", title)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎞️ '%s' 예고편\n", title))
	for i, trailer := range trailers {
		sb.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, util.TruncateString(trailer.Title, constants.StringLimits.Title)))
		if trailer.Channel != "" {
			sb.WriteString(fmt.Sprintf("   📺 %s\n", trailer.Channel))
		}
		sb.WriteString(fmt.Sprintf("   %s", trailer.URL))
	}
	return sb.String()
}

// FormatInterpretation tells the user how a natural-language request was read.
func (f *ResponseFormatter) FormatInterpretation(query *domain.PreferenceQuery) string {
	if query == nil {
		return ""
	}
	parts := make([]string, 0, 4)
	if len(query.Genres) > 0 {
		parts = append(parts, "장르="+strings.Join(query.Genres, ","))
	}
	if query.MinRating > 0 {
		parts = append(parts, "평점="+formatFloat(query.MinRating))
	}
	if query.AgeRating != "" && query.AgeRating != domain.AgeRatingAny {
		parts = append(parts, "등급="+query.AgeRating)
	}
	if query.MaxRuntime > 0 {
		parts = append(parts, "시간="+strconv.Itoa(query.MaxRuntime))
	}
	if len(parts) == 0 {
		return "🤖 조건 없이 추천합니다."
	}

	message := fmt.Sprintf("🤖 %s추천 %s 으로 찾아볼게요.", f.prefix, strings.Join(parts, " "))
	if reasoning := strings.TrimSpace(query.Reasoning); reasoning != "" {
		message += "\n" + reasoning
	}
	return message
}

func (f *ResponseFormatter) FormatKeySaved() string {
	return "🔑 OMDb API 키를 저장했습니다."
}

func (f *ResponseFormatter) FormatCacheCleared() string {
	return "🧹 영화 정보 캐시를 비웠습니다. 목록은 그대로 유지됩니다."
}

func (f *ResponseFormatter) FormatMissingKey() string {
	return f.FormatError(fmt.Sprintf("OMDb API 키가 없습니다. %s키 [API 키] 로 먼저 등록해 주세요.", f.prefix))
}

func (f *ResponseFormatter) FormatRunInProgress() string {
	return "⏳ 이미 추천을 찾는 중입니다. 잠시만 기다려 주세요."
}

func (f *ResponseFormatter) FormatInvalidOptions(invalid []string) string {
	return f.FormatError(fmt.Sprintf("옵션을 이해하지 못했습니다: %s\n예) %s추천 장르=드라마 평점=7 등급=PG-13 시간=150",
		strings.Join(invalid, " "), f.prefix))
}

func (f *ResponseFormatter) FormatUsage(usage string) string {
	return fmt.Sprintf("💡 사용법: %s%s", f.prefix, usage)
}

func (f *ResponseFormatter) FormatHelp() string {
	rendered, err := executeFormatterTemplate("help", map[string]any{
		"P":        f.prefix,
		"PageSize": constants.PaginationConfig.ItemsPerPage,
	})
	if err != nil {
		return f.FormatError("도움말을 불러오지 못했습니다.")
	}
	return rendered
}

func (f *ResponseFormatter) FormatError(message string) string {
	return fmt.Sprintf("❌ %s", message)
}

func (f *ResponseFormatter) entryView(entry domain.ScoredEntry) entryView {
	movie := entry.Movie
	return entryView{
		Title:    util.TruncateString(movie.Title, constants.StringLimits.Title),
		Year:     movie.Year,
		Rating:   orDash(movie.ImdbRating),
		Runtime:  runtimeLabel(movie),
		Rated:    domain.NormalizeRated(movie.Rated),
		Score:    strconv.FormatFloat(entry.Score, 'f', 1, 64),
		Genres:   strings.Join(movie.Genres(), ", "),
		Director: strings.Join(movie.Directors(), ", "),
	}
}

func runtimeLabel(record *domain.MovieRecord) string {
	if minutes, ok := record.RuntimeMinutes(); ok {
		return fmt.Sprintf("%d분", minutes)
	}
	return "상영시간 미상"
}

func orDash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || value == "N/A" {
		return "-"
	}
	return value
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
