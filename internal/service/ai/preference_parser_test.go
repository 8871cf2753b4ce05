package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"github.com/kapu/cinematch-kakao-bot-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProvider struct {
	name  string
	reply string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(_ context.Context, _ string, _ ModelPreset, _ *GenerateOptions) (ProviderResult, error) {
	f.calls++
	if f.err != nil {
		return ProviderResult{}, f.err
	}
	return ProviderResult{Text: f.reply, Model: f.name + "-model"}, nil
}

func (f *fakeProvider) Ping(context.Context) bool { return f.err == nil }

func reply(t *testing.T, q domain.PreferenceQuery) string {
	t.Helper()
	data, err := json.Marshal(q)
	require.NoError(t, err)
	return "```json\n" + string(data) + "\n```"
}

func TestPreferenceParserSanitizesAndCaches(t *testing.T) {
	primary := &fakeProvider{name: "Gemini", reply: reply(t, domain.PreferenceQuery{
		Genres:     []string{"horror", "NOIRISH", "Horror", "thriller"},
		MinRating:  12,
		AgeRating:  "r",
		MaxRuntime: -5,
		Reasoning:  " 무서운 영화 ",
	})}
	parser := NewPreferenceParser(NewModelManagerWithProviders(primary, nil, zap.NewNop()), nil, nil, zap.NewNop())
	known := []string{"DRAMA", "HORROR", "THRILLER"}

	query, metadata, err := parser.Parse(context.Background(), "밤에 볼 무서운 영화", known)
	require.NoError(t, err)
	assert.Equal(t, []string{"HORROR", "THRILLER"}, query.Genres)
	assert.Equal(t, 10.0, query.MinRating)
	assert.Equal(t, "R", query.AgeRating)
	assert.Zero(t, query.MaxRuntime)
	assert.Equal(t, "무서운 영화", query.Reasoning)
	assert.Equal(t, "Gemini", metadata.Provider)

	_, _, err = parser.Parse(context.Background(), "  밤에 볼 무서운 영화 ", known)
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
}

func TestPreferenceParserRejectsEmptyQuery(t *testing.T) {
	parser := NewPreferenceParser(NewModelManagerWithProviders(&fakeProvider{name: "Gemini"}, nil, zap.NewNop()), nil, nil, zap.NewNop())

	_, _, err := parser.Parse(context.Background(), "  ", nil)
	var validation *errors.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestModelManagerFallsBack(t *testing.T) {
	primary := &fakeProvider{name: "Gemini", err: fmt.Errorf("503 Service Unavailable")}
	fallback := &fakeProvider{name: "OpenAI", reply: `{"genres":["DRAMA"],"minRating":7}`}
	mm := NewModelManagerWithProviders(primary, fallback, zap.NewNop())

	var out domain.PreferenceQuery
	metadata, err := mm.GenerateJSON(context.Background(), "prompt", PresetPrecise, &out, nil)
	require.NoError(t, err)
	assert.True(t, metadata.UsedFallback)
	assert.Equal(t, "OpenAI", metadata.Provider)
	assert.Equal(t, []string{"DRAMA"}, out.Genres)
}

func TestModelManagerInvalidJSON(t *testing.T) {
	mm := NewModelManagerWithProviders(&fakeProvider{name: "Gemini", reply: "not json"}, nil, zap.NewNop())

	var out domain.PreferenceQuery
	_, err := mm.GenerateJSON(context.Background(), "prompt", PresetPrecise, &out, nil)
	assert.ErrorContains(t, err, "invalid JSON from Gemini")
}

func TestServiceFailureClassification(t *testing.T) {
	assert.True(t, isServiceFailure(fmt.Errorf("request timeout")))
	assert.True(t, isServiceFailure(fmt.Errorf(`{"error":{"code":500}}`)))
	assert.True(t, isRateLimitError(fmt.Errorf("429 Too Many Requests")))
	assert.False(t, isServiceFailure(fmt.Errorf("400 Bad Request")))
	assert.False(t, isServiceFailure(nil))
}
