package command

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/kapu/cinematch-kakao-bot-go/internal/adapter"
	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"github.com/kapu/cinematch-kakao-bot-go/internal/service/trailer"
	"go.uber.org/zap"
)

type SearchCommand struct {
	deps *Dependencies
}

func NewSearchCommand(deps *Dependencies) *SearchCommand {
	return &SearchCommand{deps: deps}
}

func (c *SearchCommand) Name() string        { return domain.CommandSearch.String() }
func (c *SearchCommand) Description() string { return "제목으로 영화를 검색합니다" }

func (c *SearchCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	if err := c.deps.validate(c.Name()); err != nil {
		return err
	}

	query, _ := params[adapter.ParamQuery].(string)
	if strings.TrimSpace(query) == "" {
		return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatUsage("검색 [제목]"))
	}

	hits, err := c.deps.Movies.Search(ctx, query)
	if err != nil {
		return c.deps.replyError(cmdCtx.Room, err)
	}
	return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatSearchResults(query, hits))
}

type AddCommand struct {
	deps *Dependencies
}

func NewAddCommand(deps *Dependencies) *AddCommand {
	return &AddCommand{deps: deps}
}

func (c *AddCommand) Name() string        { return domain.CommandAdd.String() }
func (c *AddCommand) Description() string { return "내 목록에 영화를 추가합니다" }

func (c *AddCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	if err := c.deps.validate(c.Name()); err != nil {
		return err
	}

	id, _ := params[adapter.ParamID].(string)
	if id == "" {
		return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatUsage("추가 [IMDb ID]"))
	}

	record, added, err := c.deps.Movies.AddToList(ctx, cmdCtx.Room, id)
	if err != nil {
		return c.deps.replyError(cmdCtx.Room, err)
	}
	return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatAdded(record, id, added))
}

type ListCommand struct {
	deps *Dependencies
}

func NewListCommand(deps *Dependencies) *ListCommand {
	return &ListCommand{deps: deps}
}

func (c *ListCommand) Name() string        { return domain.CommandList.String() }
func (c *ListCommand) Description() string { return "내 목록을 보여줍니다" }

func (c *ListCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, _ map[string]any) error {
	if err := c.deps.validate(c.Name()); err != nil {
		return err
	}

	movies, err := c.deps.Movies.ListMovies(ctx, cmdCtx.Room, c.deps.status(cmdCtx.Room))
	if err != nil {
		return c.deps.replyError(cmdCtx.Room, err)
	}
	return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatList(movies))
}

type GenresCommand struct {
	deps *Dependencies
}

func NewGenresCommand(deps *Dependencies) *GenresCommand {
	return &GenresCommand{deps: deps}
}

func (c *GenresCommand) Name() string        { return domain.CommandGenres.String() }
func (c *GenresCommand) Description() string { return "선택 가능한 장르" }

func (c *GenresCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, _ map[string]any) error {
	if err := c.deps.validate(c.Name()); err != nil {
		return err
	}

	genres, err := c.deps.Movies.Genres(ctx)
	if err != nil {
		return c.deps.replyError(cmdCtx.Room, err)
	}
	return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatGenres(genres))
}

type InfoCommand struct {
	deps *Dependencies
}

func NewInfoCommand(deps *Dependencies) *InfoCommand {
	return &InfoCommand{deps: deps}
}

func (c *InfoCommand) Name() string        { return domain.CommandInfo.String() }
func (c *InfoCommand) Description() string { return "영화 상세 정보와 포스터" }

func (c *InfoCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	if err := c.deps.validate(c.Name()); err != nil {
		return err
	}

	id, _ := params[adapter.ParamID].(string)
	if id == "" {
		return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatUsage("정보 [IMDb ID]"))
	}

	record, err := c.deps.Movies.Movie(ctx, id)
	if err != nil {
		return c.deps.replyError(cmdCtx.Room, err)
	}
	if err := c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatMovieCard(record)); err != nil {
		return err
	}

	if c.deps.Posters == nil || c.deps.SendImage == nil {
		return nil
	}
	posterURL := c.deps.Posters.Resolve(ctx, record)
	if posterURL == "" {
		return nil
	}
	// a missing poster never fails the command
	if err := c.deps.SendImage(cmdCtx.Room, posterURL); err != nil {
		c.deps.Logger.Warn("Failed to send poster", zap.String("id", record.ImdbID), zap.Error(err))
	}
	return nil
}

type TrailerCommand struct {
	deps *Dependencies
}

func NewTrailerCommand(deps *Dependencies) *TrailerCommand {
	return &TrailerCommand{deps: deps}
}

func (c *TrailerCommand) Name() string        { return domain.CommandTrailer.String() }
func (c *TrailerCommand) Description() string { return "유튜브 예고편을 찾습니다" }

func (c *TrailerCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	if err := c.deps.validate(c.Name()); err != nil {
		return err
	}
	if c.deps.Trailers == nil {
		return c.deps.SendError(cmdCtx.Room, "예고편 검색이 설정되지 않았습니다.")
	}

	query, _ := params[adapter.ParamQuery].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatUsage("예고편 [제목 또는 IMDb ID]"))
	}

	title, year := query, ""
	if adapter.HasID(query) {
		record, err := c.deps.Movies.Movie(ctx, adapter.ExtractID(query))
		if err != nil {
			return c.deps.replyError(cmdCtx.Room, err)
		}
		title, year = record.Title, record.Year
	}

	trailers, err := c.deps.Trailers.Find(ctx, title, year)
	if err != nil {
		var quota *trailer.QuotaExceededError
		if stderrors.As(err, &quota) {
			return c.deps.SendError(cmdCtx.Room, "오늘의 예고편 검색 한도를 모두 사용했습니다. 내일 다시 시도해주세요.")
		}
		c.deps.Logger.Warn("Trailer search failed", zap.String("title", title), zap.Error(err))
		return c.deps.SendError(cmdCtx.Room, "예고편을 검색하지 못했습니다.")
	}

	entries := make([]adapter.TrailerEntry, 0, len(trailers))
	for _, t := range trailers {
		entries = append(entries, adapter.TrailerEntry{Title: t.Title, Channel: t.Channel, URL: t.URL()})
	}
	return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatTrailers(title, entries))
}
