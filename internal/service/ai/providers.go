package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// JSONProvider is one LLM backend able to answer a prompt.
type JSONProvider interface {
	Name() string
	Generate(ctx context.Context, prompt string, preset ModelPreset, opts *GenerateOptions) (ProviderResult, error)
	Ping(ctx context.Context) bool
}

type ProviderResult struct {
	Text  string
	Model string
}

type GeminiProvider struct {
	client       *genai.Client
	defaultModel string
	logger       *zap.Logger
}

func NewGeminiProvider(client *genai.Client, defaultModel string, logger *zap.Logger) *GeminiProvider {
	return &GeminiProvider{
		client:       client,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

func (g *GeminiProvider) Name() string {
	return "Gemini"
}

func (g *GeminiProvider) Generate(ctx context.Context, prompt string, preset ModelPreset, opts *GenerateOptions) (ProviderResult, error) {
	if g.client == nil {
		return ProviderResult{}, fmt.Errorf("gemini client not initialized")
	}

	modelName := pickModel(opts, g.defaultModel)
	config := GetPresetConfig(preset)
	if opts != nil && opts.Overrides != nil {
		if opts.Overrides.Temperature > 0 {
			config.Temperature = opts.Overrides.Temperature
		}
		if opts.Overrides.MaxOutputTokens > 0 {
			config.MaxOutputTokens = opts.Overrides.MaxOutputTokens
		}
	}
	if opts != nil && opts.JSONMode {
		config.ResponseMimeType = "application/json"
	}

	topK := float32(config.TopK)
	genConfig := &genai.GenerateContentConfig{
		Temperature:      &config.Temperature,
		TopP:             &config.TopP,
		TopK:             &topK,
		MaxOutputTokens:  int32(config.MaxOutputTokens),
		ResponseMIMEType: config.ResponseMimeType,
	}

	g.logger.Debug("Generating with Gemini",
		zap.String("model", modelName),
		zap.String("preset", string(preset)),
	)

	resp, err := g.client.Models.GenerateContent(ctx, modelName, []*genai.Content{
		{Parts: []*genai.Part{{Text: prompt}}},
	}, genConfig)
	if err != nil {
		g.logger.Error("Gemini generation failed", zap.Error(err))
		return ProviderResult{}, err
	}

	text := extractTextFromGeminiResponse(resp)
	if text == "" {
		return ProviderResult{}, fmt.Errorf("empty response from Gemini")
	}
	return ProviderResult{Text: text, Model: modelName}, nil
}

func (g *GeminiProvider) Ping(ctx context.Context) bool {
	if g.client == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	temp := float32(0)
	resp, err := g.client.Models.GenerateContent(ctx, g.defaultModel, []*genai.Content{
		{Parts: []*genai.Part{{Text: "ping"}}},
	}, &genai.GenerateContentConfig{Temperature: &temp, MaxOutputTokens: 10})
	if err != nil {
		g.logger.Debug("Gemini ping failed", zap.Error(err))
		return false
	}
	return extractTextFromGeminiResponse(resp) != ""
}

// OpenAIProvider is the fallback backend.
type OpenAIProvider struct {
	client       *openai.Client
	defaultModel string
	logger       *zap.Logger
}

// NewOpenAIProvider returns nil when apiKey is empty.
func NewOpenAIProvider(apiKey, defaultModel string, logger *zap.Logger) *OpenAIProvider {
	if apiKey == "" {
		return nil
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		client:       &client,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

func (o *OpenAIProvider) Name() string {
	return "OpenAI"
}

func (o *OpenAIProvider) Generate(ctx context.Context, prompt string, preset ModelPreset, opts *GenerateOptions) (ProviderResult, error) {
	if o.client == nil {
		return ProviderResult{}, fmt.Errorf("OpenAI client not initialized")
	}

	modelName := pickModel(opts, o.defaultModel)
	config := GetOpenAIPresetConfig(preset)

	messages := []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)}
	if opts != nil && opts.JSONMode {
		messages = []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You must respond with valid JSON only. Do not include any text outside the JSON object."),
			openai.UserMessage(prompt),
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(modelName),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(config.MaxTokens)),
	}
	// gpt-5 계열은 temperature/top_p 미지원
	if !strings.HasPrefix(modelName, "gpt-5") {
		params.Temperature = openai.Float(float64(config.Temperature))
		params.TopP = openai.Float(float64(config.TopP))
	}

	o.logger.Info("Fallback: Generating with OpenAI",
		zap.String("model", modelName),
		zap.String("preset", string(preset)),
	)

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		o.logger.Error("OpenAI generation failed", zap.Error(err))
		return ProviderResult{}, err
	}
	if len(resp.Choices) == 0 {
		return ProviderResult{}, fmt.Errorf("no choices in OpenAI response")
	}

	o.logger.Debug("OpenAI response received",
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)
	return ProviderResult{Text: resp.Choices[0].Message.Content, Model: modelName}, nil
}

func (o *OpenAIProvider) Ping(ctx context.Context) bool {
	if o.client == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(o.defaultModel),
		Messages:            []openai.ChatCompletionMessageParamUnion{openai.UserMessage("ping")},
		MaxCompletionTokens: openai.Int(10),
	})
	if err != nil {
		o.logger.Debug("OpenAI ping failed", zap.Error(err))
		return false
	}
	return len(resp.Choices) > 0
}

func pickModel(opts *GenerateOptions, fallback string) string {
	if opts != nil && opts.Model != "" {
		return opts.Model
	}
	return fallback
}

func extractTextFromGeminiResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
