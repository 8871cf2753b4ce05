package command

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/kapu/cinematch-kakao-bot-go/internal/adapter"
	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"github.com/kapu/cinematch-kakao-bot-go/internal/service/ai"
	"github.com/kapu/cinematch-kakao-bot-go/internal/service/recommend"
	"github.com/kapu/cinematch-kakao-bot-go/internal/service/trailer"
	"github.com/kapu/cinematch-kakao-bot-go/pkg/errors"
	"go.uber.org/zap"
)

type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error
}

// MovieService is the recommendation pipeline and the list operations around it.
type MovieService interface {
	Recommend(ctx context.Context, room string, prefs domain.Preferences, status domain.StatusFunc) (*domain.Recommendation, error)
	Search(ctx context.Context, query string) ([]domain.SearchHit, error)
	AddToList(ctx context.Context, room, id string) (*domain.MovieRecord, bool, error)
	ListMovies(ctx context.Context, room string, status domain.StatusFunc) ([]*domain.MovieRecord, error)
	Movie(ctx context.Context, id string) (*domain.MovieRecord, error)
	Genres(ctx context.Context) ([]string, error)
	SetAPIKey(ctx context.Context, key string) error
	ClearCache(ctx context.Context) error
}

type PreferenceParser interface {
	Parse(ctx context.Context, query string, knownGenres []string) (*domain.PreferenceQuery, *ai.GenerateMetadata, error)
}

type PosterResolver interface {
	Resolve(ctx context.Context, record *domain.MovieRecord) string
}

type TrailerFinder interface {
	Find(ctx context.Context, title, year string) ([]trailer.Trailer, error)
}

// Dependencies are shared by every command. Parser, Posters and Trailers are
// optional and nil when their API keys are not configured.
type Dependencies struct {
	Movies         MovieService
	Pager          *recommend.Pager
	Parser         PreferenceParser
	Posters        PosterResolver
	Trailers       TrailerFinder
	Formatter      *adapter.ResponseFormatter
	SendMessage    func(room, message string) error
	SendError      func(room, message string) error
	SendImage      func(room, imageURL string) error
	NewStatus      func(room string) domain.StatusFunc
	ExecuteCommand func(ctx context.Context, cmdCtx *domain.CommandContext, cmdType domain.CommandType, params map[string]any) error
	Logger         *zap.Logger
}

func (d *Dependencies) validate(name string) error {
	if d == nil {
		return fmt.Errorf("%s command dependencies not configured", name)
	}
	if d.SendMessage == nil || d.SendError == nil {
		return fmt.Errorf("message callbacks not configured")
	}
	if d.Movies == nil || d.Formatter == nil {
		return fmt.Errorf("%s command services not configured", name)
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return nil
}

func (d *Dependencies) status(room string) domain.StatusFunc {
	if d.NewStatus == nil {
		return nil
	}
	return d.NewStatus(room)
}

// replyError turns a service error into a chat reply. Only failures to send
// the reply are returned.
func (d *Dependencies) replyError(room string, err error) error {
	var validation *errors.ValidationError
	var notFound *errors.NotFoundError

	switch {
	case stderrors.Is(err, errors.ErrMissingAPIKey):
		return d.SendMessage(room, d.Formatter.FormatMissingKey())
	case stderrors.Is(err, errors.ErrRunInProgress):
		return d.SendMessage(room, d.Formatter.FormatRunInProgress())
	case stderrors.As(err, &validation):
		return d.SendError(room, validation.Message)
	case stderrors.As(err, &notFound):
		return d.SendError(room, fmt.Sprintf("'%s' 영화를 찾을 수 없습니다.", notFound.ID))
	case errors.IsTransport(err):
		d.Logger.Warn("Catalog request failed", zap.String("room", room), zap.Error(err))
		return d.SendError(room, "영화 정보 서버에 연결하지 못했습니다. 잠시 후 다시 시도해주세요.")
	default:
		d.Logger.Error("Command failed", zap.String("room", room), zap.Error(err))
		return d.SendError(room, "요청을 처리하지 못했습니다. 잠시 후 다시 시도해주세요.")
	}
}
