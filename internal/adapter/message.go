package adapter

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kapu/cinematch-kakao-bot-go/internal/constants"
	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"github.com/kapu/cinematch-kakao-bot-go/internal/iris"
	"github.com/kapu/cinematch-kakao-bot-go/internal/util"
)

var (
	controlCharsPattern = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
	imdbIDPattern       = regexp.MustCompile(`(?i)\btt\d{7,10}\b`)
)

// Param keys of ParsedCommand.Params.
const (
	ParamGenres     = "genres"
	ParamMinRating  = "min_rating"
	ParamAgeRating  = "age_rating"
	ParamMaxRuntime = "max_runtime"
	ParamInvalid    = "invalid"
	ParamQuery      = "query"
	ParamID         = "id"
	ParamKey        = "key"
	ParamQuestion   = "question"
)

var commandAliases = map[string]domain.CommandType{
	"추천": domain.CommandRecommend, "recommend": domain.CommandRecommend, "rec": domain.CommandRecommend,
	"더보기": domain.CommandMore, "다음": domain.CommandMore, "more": domain.CommandMore, "next": domain.CommandMore,
	"검색": domain.CommandSearch, "search": domain.CommandSearch, "찾기": domain.CommandSearch,
	"추가": domain.CommandAdd, "add": domain.CommandAdd,
	"목록": domain.CommandList, "list": domain.CommandList, "내목록": domain.CommandList,
	"장르": domain.CommandGenres, "genres": domain.CommandGenres, "genre": domain.CommandGenres,
	"정보": domain.CommandInfo, "info": domain.CommandInfo, "상세": domain.CommandInfo,
	"예고편": domain.CommandTrailer, "trailer": domain.CommandTrailer,
	"키": domain.CommandSetKey, "key": domain.CommandSetKey, "apikey": domain.CommandSetKey,
	"캐시삭제": domain.CommandClearCache, "clearcache": domain.CommandClearCache,
	"질문": domain.CommandAsk, "ask": domain.CommandAsk,
	"도움말": domain.CommandHelp, "도움": domain.CommandHelp, "help": domain.CommandHelp, "명령어": domain.CommandHelp,
}

// Option names accepted by the recommend command, as in 장르=드라마,SF 평점=7.
var optionAliases = map[string]string{
	"장르": ParamGenres, "genre": ParamGenres, "genres": ParamGenres, "g": ParamGenres,
	"평점": ParamMinRating, "rating": ParamMinRating, "r": ParamMinRating,
	"등급": ParamAgeRating, "rated": ParamAgeRating, "age": ParamAgeRating,
	"시간": ParamMaxRuntime, "runtime": ParamMaxRuntime, "t": ParamMaxRuntime,
}

// genreAliases maps Korean genre names to catalog tokens.
var genreAliases = map[string]string{
	"액션": "ACTION", "모험": "ADVENTURE", "애니메이션": "ANIMATION", "애니": "ANIMATION",
	"전기": "BIOGRAPHY", "코미디": "COMEDY", "범죄": "CRIME", "드라마": "DRAMA",
	"가족": "FAMILY", "판타지": "FANTASY", "역사": "HISTORY", "공포": "HORROR", "호러": "HORROR",
	"미스터리": "MYSTERY", "로맨스": "ROMANCE", "멜로": "ROMANCE", "SF": "SCI-FI", "에스에프": "SCI-FI",
	"스릴러": "THRILLER", "전쟁": "WAR", "서부": "WESTERN", "음악": "MUSIC", "뮤지컬": "MUSICAL",
	"스포츠": "SPORT", "다큐": "DOCUMENTARY", "다큐멘터리": "DOCUMENTARY",
}

// MessageAdapter converts KakaoTalk messages to bot commands
type MessageAdapter struct {
	prefix string
}

func NewMessageAdapter(prefix string) *MessageAdapter {
	if strings.TrimSpace(prefix) == "" {
		prefix = "!"
	}
	return &MessageAdapter{prefix: prefix}
}

// ParsedCommand represents a parsed command
type ParsedCommand struct {
	Type       domain.CommandType
	Params     map[string]any
	RawMessage string
}

// ParseMessage parses a KakaoTalk message into a command. Text after the prefix
// that names no command is treated as a natural-language request.
func (ma *MessageAdapter) ParseMessage(message *iris.Message) *ParsedCommand {
	if message == nil || message.Msg == "" {
		return ma.createUnknownCommand("")
	}

	text := strings.TrimSpace(message.Msg)
	if !strings.HasPrefix(text, ma.prefix) {
		return ma.createUnknownCommand(text)
	}

	commandText := strings.TrimSpace(text[len(ma.prefix):])
	parts := strings.Fields(commandText)
	if len(parts) == 0 {
		return ma.createUnknownCommand(text)
	}

	args := parts[1:]
	rest := strings.TrimSpace(strings.Join(args, " "))

	cmdType, ok := commandAliases[strings.ToLower(parts[0])]
	if !ok {
		question := ma.sanitizeForAI(commandText)
		if question == "" {
			return ma.createUnknownCommand(text)
		}
		return ma.command(domain.CommandAsk, map[string]any{ParamQuestion: question}, text)
	}

	switch cmdType {
	case domain.CommandRecommend:
		return ma.command(cmdType, ParseRecommendOptions(args), text)
	case domain.CommandSearch, domain.CommandTrailer:
		return ma.command(cmdType, optional(ParamQuery, rest), text)
	case domain.CommandAdd, domain.CommandInfo:
		return ma.command(cmdType, optional(ParamID, ExtractID(rest)), text)
	case domain.CommandSetKey:
		return ma.command(cmdType, optional(ParamKey, rest), text)
	case domain.CommandAsk:
		question := ma.sanitizeForAI(rest)
		if question == "" {
			return ma.command(domain.CommandHelp, map[string]any{}, text)
		}
		return ma.command(cmdType, map[string]any{ParamQuestion: question}, text)
	default:
		return ma.command(cmdType, map[string]any{}, text)
	}
}

// ParseRecommendOptions reads key=value options. Bare words are taken as
// genres. Values that cannot be parsed are collected under ParamInvalid.
func ParseRecommendOptions(args []string) map[string]any {
	params := make(map[string]any)
	var genres, invalid []string

	for _, arg := range args {
		name, value, hasValue := strings.Cut(arg, "=")
		if !hasValue {
			genres = append(genres, splitGenres(arg)...)
			continue
		}

		switch optionAliases[strings.ToLower(strings.TrimSpace(name))] {
		case ParamGenres:
			genres = append(genres, splitGenres(value)...)
		case ParamMinRating:
			rating, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil || math.IsNaN(rating) || math.IsInf(rating, 0) || rating < 0 || rating > 10 {
				invalid = append(invalid, arg)
				continue
			}
			params[ParamMinRating] = rating
		case ParamAgeRating:
			if strings.TrimSpace(value) == "" {
				invalid = append(invalid, arg)
				continue
			}
			params[ParamAgeRating] = domain.NormalizeAgePreference(value)
		case ParamMaxRuntime:
			minutes, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(value), "분"))
			if err != nil || minutes <= 0 {
				invalid = append(invalid, arg)
				continue
			}
			params[ParamMaxRuntime] = minutes
		default:
			invalid = append(invalid, arg)
		}
	}

	if genres = util.UniqueStrings(genres); len(genres) > 0 {
		params[ParamGenres] = genres
	}
	if len(invalid) > 0 {
		params[ParamInvalid] = invalid
	}
	return params
}

// PreferencesFromParams converts parsed recommend options into preferences.
func PreferencesFromParams(params map[string]any) domain.Preferences {
	genres, _ := params[ParamGenres].([]string)
	minRating, _ := params[ParamMinRating].(float64)
	ageRating, _ := params[ParamAgeRating].(string)
	maxRuntime, _ := params[ParamMaxRuntime].(int)
	return domain.NewPreferences(genres, minRating, ageRating, maxRuntime, constants.DefaultMaxRuntime)
}

// NormalizeGenre maps a Korean or English genre name to its catalog token.
func NormalizeGenre(name string) string {
	trimmed := strings.TrimSpace(name)
	if token, ok := genreAliases[strings.ToUpper(trimmed)]; ok {
		return token
	}
	return strings.ToUpper(trimmed)
}

func splitGenres(value string) []string {
	parts := util.SplitCommaSeparated(value)
	genres := make([]string, 0, len(parts))
	for _, part := range parts {
		genres = append(genres, NormalizeGenre(part))
	}
	return genres
}

// HasID reports whether text contains an IMDb identifier.
func HasID(text string) bool {
	return imdbIDPattern.MatchString(text)
}

// ExtractID pulls an IMDb identifier out of free text or a title URL.
func ExtractID(text string) string {
	if match := imdbIDPattern.FindString(text); match != "" {
		return strings.ToLower(match)
	}
	return strings.TrimSpace(text)
}

func optional(key, value string) map[string]any {
	params := make(map[string]any)
	if value != "" {
		params[key] = value
	}
	return params
}

func (ma *MessageAdapter) command(cmdType domain.CommandType, params map[string]any, raw string) *ParsedCommand {
	return &ParsedCommand{Type: cmdType, Params: params, RawMessage: raw}
}

func (ma *MessageAdapter) createUnknownCommand(text string) *ParsedCommand {
	return &ParsedCommand{
		Type:       domain.CommandUnknown,
		Params:     make(map[string]any),
		RawMessage: text,
	}
}

func (ma *MessageAdapter) sanitizeForAI(input string) string {
	withoutControl := controlCharsPattern.ReplaceAllString(input, " ")
	normalized := strings.TrimSpace(whitespacePattern.ReplaceAllString(withoutControl, " "))
	if normalized == "" {
		return ""
	}

	runes := []rune(normalized)
	if len(runes) > constants.AIInputLimits.MaxQueryLength {
		return string(runes[:constants.AIInputLimits.MaxQueryLength])
	}
	return normalized
}
