package ai

// ModelPreset selects sampling parameters for a generation.
type ModelPreset string

const (
	PresetPrecise  ModelPreset = "precise"  // 필터 추출
	PresetBalanced ModelPreset = "balanced" // 일반 응답
)

type ModelConfig struct {
	Temperature      float32
	TopP             float32
	TopK             int
	MaxOutputTokens  int
	ResponseMimeType string
}

type OpenAIConfig struct {
	Temperature float32
	MaxTokens   int
	TopP        float32
}

// GenerateMetadata records which provider answered.
type GenerateMetadata struct {
	Provider     string
	Model        string
	UsedFallback bool
}

type GenerateOptions struct {
	Model     string
	JSONMode  bool
	Overrides *ModelConfig
}

func GetPresetConfig(preset ModelPreset) ModelConfig {
	switch preset {
	case PresetPrecise:
		return ModelConfig{
			Temperature:     0.1,
			TopP:            0.9,
			TopK:            20,
			MaxOutputTokens: 512,
		}
	default:
		return ModelConfig{
			Temperature:     0.3,
			TopP:            0.95,
			TopK:            40,
			MaxOutputTokens: 2048,
		}
	}
}

func GetOpenAIPresetConfig(preset ModelPreset) OpenAIConfig {
	switch preset {
	case PresetPrecise:
		return OpenAIConfig{
			Temperature: 0.1,
			MaxTokens:   512,
			TopP:        0.9,
		}
	default:
		return OpenAIConfig{
			Temperature: 0.3,
			MaxTokens:   2048,
			TopP:        0.95,
		}
	}
}
