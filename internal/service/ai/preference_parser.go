package ai

import (
	"context"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/kapu/cinematch-kakao-bot-go/internal/constants"
	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"github.com/kapu/cinematch-kakao-bot-go/internal/prompt"
	"github.com/kapu/cinematch-kakao-bot-go/internal/util"
	"github.com/kapu/cinematch-kakao-bot-go/pkg/errors"
	"go.uber.org/zap"
)

// JSONGenerator is satisfied by ModelManager.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, preset ModelPreset, dest any, opts *GenerateOptions) (*GenerateMetadata, error)
}

// PreferenceParser turns free-text requests into preference filters.
type PreferenceParser struct {
	generator JSONGenerator
	builder   *prompt.PromptBuilder
	cache     *ParseCache
	logger    *zap.Logger
}

func NewPreferenceParser(generator JSONGenerator, builder *prompt.PromptBuilder, cache *ParseCache, logger *zap.Logger) *PreferenceParser {
	if builder == nil {
		builder = prompt.DefaultPromptBuilder()
	}
	if cache == nil {
		cache = NewParseCache(constants.AIInputLimits.ParseCacheTTL)
	}
	return &PreferenceParser{
		generator: generator,
		builder:   builder,
		cache:     cache,
		logger:    logger,
	}
}

// Parse maps query to a PreferenceQuery restricted to knownGenres. Unknown
// genres are dropped and out-of-range numbers are clamped.
func (p *PreferenceParser) Parse(ctx context.Context, query string, knownGenres []string) (*domain.PreferenceQuery, *GenerateMetadata, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil, errors.NewValidationError("질문 내용이 비어 있습니다", "query", query)
	}
	if utf8.RuneCountInString(query) > constants.AIInputLimits.MaxQueryLength {
		return nil, nil, errors.NewValidationError("질문이 너무 깁니다", "query", util.TruncateString(query, 20))
	}

	cacheKey := util.Normalize(query)
	if entry, ok := p.cache.Get(cacheKey); ok {
		p.logger.Debug("Preference parse cache hit", zap.String("query", query))
		return entry.Query, entry.Metadata, nil
	}

	text, err := p.builder.BuildPreferencePrompt(prompt.PreferencePromptVars{
		Genres:            knownGenres,
		TheatricalRatings: constants.TheatricalRatings,
		TelevisionRatings: constants.TelevisionRatings,
		UserQuery:         query,
	})
	if err != nil {
		return nil, nil, err
	}

	var parsed domain.PreferenceQuery
	metadata, err := p.generator.GenerateJSON(ctx, text, PresetPrecise, &parsed, nil)
	if err != nil {
		return nil, nil, err
	}

	sanitized := sanitize(parsed, knownGenres)
	p.cache.Set(cacheKey, sanitized, metadata)

	p.logger.Info("Preference query parsed",
		zap.Strings("genres", sanitized.Genres),
		zap.Float64("min_rating", sanitized.MinRating),
		zap.String("age_rating", sanitized.AgeRating),
		zap.Int("max_runtime", sanitized.MaxRuntime),
		zap.String("provider", metadata.Provider),
	)
	return sanitized, metadata, nil
}

func sanitize(parsed domain.PreferenceQuery, knownGenres []string) *domain.PreferenceQuery {
	result := &domain.PreferenceQuery{
		MinRating:  util.Clamp(0, 10, parsed.MinRating),
		AgeRating:  domain.NormalizeAgePreference(parsed.AgeRating),
		MaxRuntime: max(parsed.MaxRuntime, 0),
		Reasoning:  strings.TrimSpace(parsed.Reasoning),
	}

	for _, genre := range parsed.Genres {
		token := strings.ToUpper(strings.TrimSpace(genre))
		if slices.Contains(knownGenres, token) && !slices.Contains(result.Genres, token) {
			result.Genres = append(result.Genres, token)
		}
	}
	return result
}
