package command

import (
	"context"

	"github.com/kapu/cinematch-kakao-bot-go/internal/adapter"
	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"github.com/kapu/cinematch-kakao-bot-go/internal/service/recommend"
	"go.uber.org/zap"
)

type RecommendCommand struct {
	deps *Dependencies
}

func NewRecommendCommand(deps *Dependencies) *RecommendCommand {
	return &RecommendCommand{deps: deps}
}

func (c *RecommendCommand) Name() string {
	return domain.CommandRecommend.String()
}

func (c *RecommendCommand) Description() string {
	return "조건에 맞는 영화를 추천합니다"
}

func (c *RecommendCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	if err := c.deps.validate(c.Name()); err != nil {
		return err
	}
	if c.deps.Pager == nil {
		return c.deps.SendError(cmdCtx.Room, "추천 기능이 준비되지 않았습니다.")
	}

	if invalid, ok := params[adapter.ParamInvalid].([]string); ok && len(invalid) > 0 {
		return c.deps.SendError(cmdCtx.Room, c.deps.Formatter.FormatInvalidOptions(invalid))
	}

	prefs := adapter.PreferencesFromParams(params)
	rec, err := c.deps.Movies.Recommend(ctx, cmdCtx.Room, prefs, c.deps.status(cmdCtx.Room))
	if err != nil {
		return c.deps.replyError(cmdCtx.Room, err)
	}

	c.deps.Logger.Debug("Recommendation ready",
		zap.String("room", cmdCtx.Room),
		zap.Int("matches", len(rec.Entries)),
		zap.Int("pool", rec.PoolSize),
	)

	if len(rec.Entries) == 0 {
		c.deps.Pager.Start(cmdCtx.Room, nil)
		return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatNoMatches(rec.PoolSize, prefs))
	}

	if err := c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatSummary(len(rec.Entries), rec.PoolSize)); err != nil {
		return err
	}

	page := c.deps.Pager.Start(cmdCtx.Room, rec)
	return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatRecommendationPage(pageView(page)))
}

type MoreCommand struct {
	deps *Dependencies
}

func NewMoreCommand(deps *Dependencies) *MoreCommand {
	return &MoreCommand{deps: deps}
}

func (c *MoreCommand) Name() string {
	return domain.CommandMore.String()
}

func (c *MoreCommand) Description() string {
	return "추천 결과의 다음 페이지"
}

func (c *MoreCommand) Execute(_ context.Context, cmdCtx *domain.CommandContext, _ map[string]any) error {
	if err := c.deps.validate(c.Name()); err != nil {
		return err
	}
	if c.deps.Pager == nil {
		return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatNoMorePages())
	}

	page, ok := c.deps.Pager.Next(cmdCtx.Room)
	if !ok {
		return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatNoMorePages())
	}
	return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatRecommendationPage(pageView(page)))
}

func pageView(page recommend.Page) adapter.PageView {
	return adapter.PageView{
		Entries:   page.Entries,
		Start:     page.Start,
		Total:     page.Total,
		Remaining: page.Remaining,
		PoolSize:  page.PoolSize,
		Skipped:   page.Skipped,
	}
}
