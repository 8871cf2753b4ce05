package command

import (
	"context"

	"github.com/kapu/cinematch-kakao-bot-go/internal/adapter"
	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"go.uber.org/zap"
)

type SetKeyCommand struct {
	deps *Dependencies
}

func NewSetKeyCommand(deps *Dependencies) *SetKeyCommand {
	return &SetKeyCommand{deps: deps}
}

func (c *SetKeyCommand) Name() string        { return domain.CommandSetKey.String() }
func (c *SetKeyCommand) Description() string { return "OMDb API 키를 저장합니다" }

func (c *SetKeyCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	if err := c.deps.validate(c.Name()); err != nil {
		return err
	}

	key, _ := params[adapter.ParamKey].(string)
	if key == "" {
		return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatUsage("키 [OMDb API 키]"))
	}

	if err := c.deps.Movies.SetAPIKey(ctx, key); err != nil {
		return c.deps.replyError(cmdCtx.Room, err)
	}

	c.deps.Logger.Info("OMDb API key updated", zap.String("room", cmdCtx.Room), zap.String("sender", cmdCtx.Sender))
	return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatKeySaved())
}

type ClearCacheCommand struct {
	deps *Dependencies
}

func NewClearCacheCommand(deps *Dependencies) *ClearCacheCommand {
	return &ClearCacheCommand{deps: deps}
}

func (c *ClearCacheCommand) Name() string        { return domain.CommandClearCache.String() }
func (c *ClearCacheCommand) Description() string { return "영화 정보 캐시를 비웁니다" }

func (c *ClearCacheCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, _ map[string]any) error {
	if err := c.deps.validate(c.Name()); err != nil {
		return err
	}

	if err := c.deps.Movies.ClearCache(ctx); err != nil {
		return c.deps.replyError(cmdCtx.Room, err)
	}
	return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatCacheCleared())
}
