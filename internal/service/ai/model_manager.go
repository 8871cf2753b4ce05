package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kapu/cinematch-kakao-bot-go/internal/constants"
	"github.com/kapu/cinematch-kakao-bot-go/internal/util"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var (
	serverStatusPattern = regexp.MustCompile(`\b(5\d{2})\b`)
	geminiCodePattern   = regexp.MustCompile(`"code":(\d{3})`)
	openaiCodePattern   = regexp.MustCompile(`^(\d{3})\s`)
)

// ModelManager sends prompts to the primary provider and falls back to the
// secondary one on failure. Repeated service failures open a circuit breaker.
type ModelManager struct {
	primary        JSONProvider
	fallback       JSONProvider
	logger         *zap.Logger
	circuitBreaker *util.CircuitBreaker
}

type ModelManagerConfig struct {
	GeminiAPIKey       string
	OpenAIAPIKey       string
	DefaultGeminiModel string
	DefaultOpenAIModel string
	EnableFallback     bool
}

func NewModelManager(ctx context.Context, cfg ModelManagerConfig, logger *zap.Logger) (*ModelManager, error) {
	geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	defaultGemini := cfg.DefaultGeminiModel
	if defaultGemini == "" {
		defaultGemini = "gemini-2.5-flash"
	}
	defaultOpenAI := cfg.DefaultOpenAIModel
	if defaultOpenAI == "" {
		defaultOpenAI = "gpt-5-mini"
	}

	var fallback JSONProvider
	if cfg.EnableFallback {
		if provider := NewOpenAIProvider(cfg.OpenAIAPIKey, defaultOpenAI, logger); provider != nil {
			fallback = provider
			logger.Info("OpenAI fallback enabled", zap.String("model", defaultOpenAI))
		}
	}
	if fallback == nil {
		logger.Info("OpenAI fallback disabled")
	}

	return NewModelManagerWithProviders(NewGeminiProvider(geminiClient, defaultGemini, logger), fallback, logger), nil
}

// NewModelManagerWithProviders wires explicit providers. fallback may be nil.
func NewModelManagerWithProviders(primary, fallback JSONProvider, logger *zap.Logger) *ModelManager {
	mm := &ModelManager{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
	mm.circuitBreaker = util.NewCircuitBreaker(
		"ai",
		constants.CircuitBreakerConfig.FailureThreshold,
		constants.CircuitBreakerConfig.ResetTimeout,
		constants.CircuitBreakerConfig.HealthCheckInterval,
		mm.healthCheckPing,
		logger,
	)
	return mm
}

// GenerateJSON asks for a JSON answer and decodes it into dest.
func (mm *ModelManager) GenerateJSON(ctx context.Context, prompt string, preset ModelPreset, dest any, opts *GenerateOptions) (*GenerateMetadata, error) {
	if !mm.circuitBreaker.CanExecute() {
		status := mm.circuitBreaker.GetStatus()
		nextRetry := "알 수 없음"
		if status.NextRetryTime != nil {
			nextRetry = status.NextRetryTime.Format("15:04")
		}
		mm.logger.Error("AI service unavailable (Circuit OPEN)",
			zap.Int("failure_count", status.FailureCount),
			zap.String("next_retry", nextRetry),
		)
		return nil, fmt.Errorf("⚠️ AI 서비스 장애로 잠시 사용할 수 없습니다. (%s 이후 재시도)", nextRetry)
	}

	var options GenerateOptions
	if opts != nil {
		options = *opts
	}
	options.JSONMode = true

	result, primaryErr := mm.invoke(ctx, mm.primary, prompt, preset, &options)
	if primaryErr == nil {
		mm.circuitBreaker.RecordSuccess()
		return mm.decodeJSON(result.Text, &GenerateMetadata{Provider: mm.primary.Name(), Model: result.Model}, dest)
	}

	if mm.fallback != nil {
		result, fallbackErr := mm.invoke(ctx, mm.fallback, prompt, preset, &options)
		if fallbackErr == nil {
			mm.circuitBreaker.RecordSuccess()
			return mm.decodeJSON(result.Text, &GenerateMetadata{
				Provider:     mm.fallback.Name(),
				Model:        result.Model,
				UsedFallback: true,
			}, dest)
		}

		mm.recordFailure(primaryErr)
		mm.recordFailure(fallbackErr)
		if isServiceFailure(primaryErr) || isServiceFailure(fallbackErr) {
			return nil, fmt.Errorf("AI 서비스에 일시적인 문제가 발생했습니다. 잠시 후 다시 시도해주세요")
		}
		return nil, fallbackErr
	}

	mm.recordFailure(primaryErr)
	if isServiceFailure(primaryErr) {
		return nil, fmt.Errorf("AI 서비스에 일시적인 문제가 발생했습니다. 잠시 후 다시 시도해주세요")
	}
	return nil, primaryErr
}

func (mm *ModelManager) invoke(ctx context.Context, provider JSONProvider, prompt string, preset ModelPreset, opts *GenerateOptions) (ProviderResult, error) {
	if provider == nil {
		return ProviderResult{}, fmt.Errorf("model provider is not configured")
	}
	return provider.Generate(ctx, prompt, preset, opts)
}

func (mm *ModelManager) decodeJSON(text string, metadata *GenerateMetadata, dest any) (*GenerateMetadata, error) {
	cleaned := stripCodeFence(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%s API returned empty response", metadata.Provider)
	}

	if err := json.Unmarshal([]byte(cleaned), dest); err != nil {
		mm.logger.Error("Failed to unmarshal JSON response",
			zap.String("provider", metadata.Provider),
			zap.Error(err),
			zap.String("response_preview", util.TruncateString(cleaned, 200)),
		)
		return nil, fmt.Errorf("invalid JSON from %s: %w", metadata.Provider, err)
	}
	return metadata, nil
}

func stripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

func (mm *ModelManager) recordFailure(err error) {
	if !isServiceFailure(err) {
		return
	}
	timeout := constants.CircuitBreakerConfig.ResetTimeout
	if isRateLimitError(err) {
		timeout = constants.CircuitBreakerConfig.RateLimitTimeout
	}
	mm.circuitBreaker.RecordFailure(timeout)
}

func (mm *ModelManager) healthCheckPing() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	primaryOK := mm.primary != nil && mm.primary.Ping(ctx)
	fallbackOK := mm.fallback != nil && mm.fallback.Ping(ctx)

	mm.logger.Info("Health Check: Result",
		zap.Bool("primary", primaryOK),
		zap.Bool("fallback", fallbackOK),
	)
	return primaryOK || fallbackOK
}

func (mm *ModelManager) GetCircuitStatus() util.CircuitBreakerStatus {
	return mm.circuitBreaker.GetStatus()
}

func isServiceFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()

	if strings.Contains(msg, "timeout") || strings.Contains(msg, "ETIMEDOUT") || isRateLimitError(err) {
		return true
	}
	if serverStatusPattern.MatchString(msg) {
		return true
	}
	code, ok := statusCode(msg)
	return ok && code >= 500 && code < 600
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()

	if strings.Contains(msg, "429") || strings.Contains(msg, "Rate limit") || strings.Contains(msg, "quota") {
		return true
	}
	code, ok := statusCode(msg)
	return ok && code == 429
}

func statusCode(msg string) (int, bool) {
	for _, pattern := range []*regexp.Regexp{geminiCodePattern, openaiCodePattern} {
		if matches := pattern.FindStringSubmatch(msg); len(matches) > 1 {
			if code, err := strconv.Atoi(matches[1]); err == nil {
				return code, true
			}
		}
	}
	return 0, false
}
