package command

import (
	"context"

	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
)

type HelpCommand struct {
	deps *Dependencies
}

func NewHelpCommand(deps *Dependencies) *HelpCommand {
	return &HelpCommand{deps: deps}
}

func (c *HelpCommand) Name() string {
	return domain.CommandHelp.String()
}

func (c *HelpCommand) Description() string {
	return "도움말을 표시합니다"
}

func (c *HelpCommand) Execute(_ context.Context, cmdCtx *domain.CommandContext, _ map[string]any) error {
	if c.deps == nil || c.deps.Formatter == nil || c.deps.SendMessage == nil {
		return nil
	}
	return c.deps.SendMessage(cmdCtx.Room, c.deps.Formatter.FormatHelp())
}
