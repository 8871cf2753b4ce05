package command

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/kapu/cinematch-kakao-bot-go/internal/adapter"
	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"github.com/kapu/cinematch-kakao-bot-go/pkg/errors"
	"go.uber.org/zap"
)

// AskCommand turns a free-text request into recommend options and runs the
// recommend command with them.
type AskCommand struct {
	deps *Dependencies
}

func NewAskCommand(deps *Dependencies) *AskCommand {
	return &AskCommand{deps: deps}
}

func (c *AskCommand) Name() string {
	return domain.CommandAsk.String()
}

func (c *AskCommand) Description() string {
	return "자연어 추천 요청 처리"
}

func (c *AskCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	if err := c.deps.validate(c.Name()); err != nil {
		return err
	}
	if cmdCtx == nil {
		return fmt.Errorf("command context is nil")
	}
	if c.deps.Parser == nil || c.deps.ExecuteCommand == nil {
		return c.deps.SendError(cmdCtx.Room, "AI 서비스가 준비되지 않았습니다. 조건을 직접 지정해 !추천 을 사용해주세요.")
	}

	rawQuestion, _ := params[adapter.ParamQuestion].(string)
	question := strings.TrimSpace(rawQuestion)
	if question == "" {
		return c.deps.SendError(cmdCtx.Room, "질문을 이해하지 못했습니다. 다시 입력해주세요.")
	}

	genres, err := c.deps.Movies.Genres(ctx)
	if err != nil {
		return c.deps.replyError(cmdCtx.Room, err)
	}

	c.deps.Logger.Info("Processing natural language request", zap.String("question", question))

	query, metadata, err := c.deps.Parser.Parse(ctx, question, genres)
	if err != nil {
		var validation *errors.ValidationError
		if stderrors.As(err, &validation) {
			return c.deps.SendError(cmdCtx.Room, validation.Message)
		}
		c.deps.Logger.Warn("Preference parsing failed", zap.String("question", question), zap.Error(err))
		return c.deps.SendError(cmdCtx.Room, "요청을 이해하지 못했습니다. !도움말 을 참고해주세요.")
	}

	if metadata != nil {
		c.deps.Logger.Debug("Preference parsed",
			zap.String("provider", metadata.Provider),
			zap.String("model", metadata.Model),
			zap.Bool("fallback", metadata.UsedFallback),
		)
	}

	if err := c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatInterpretation(query)); err != nil {
		return err
	}
	return c.deps.ExecuteCommand(ctx, cmdCtx, domain.CommandRecommend, recommendParams(query))
}

func recommendParams(query *domain.PreferenceQuery) map[string]any {
	params := make(map[string]any)
	if query == nil {
		return params
	}
	if len(query.Genres) > 0 {
		params[adapter.ParamGenres] = append([]string(nil), query.Genres...)
	}
	if query.MinRating > 0 {
		params[adapter.ParamMinRating] = query.MinRating
	}
	if query.AgeRating != "" {
		params[adapter.ParamAgeRating] = query.AgeRating
	}
	if query.MaxRuntime > 0 {
		params[adapter.ParamMaxRuntime] = query.MaxRuntime
	}
	return params
}
