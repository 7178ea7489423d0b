package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	cmd := msg.Command()

	b.logger.Debug("Processing command",
		zap.Int64("chat_id", chatID),
		zap.String("command", cmd))

	switch cmd {
	case "start":
		b.HandleStart(ctx, chatID)
	case "cancel", "nueva":
		b.HandleRestart(ctx, chatID)
	case "help", "ayuda":
		b.sendMessage(tgbotapi.NewMessage(chatID, helpText))
	case "stats", "export", "status":
		b.handleAdminCommand(ctx, chatID, cmd, strings.Fields(msg.CommandArguments()))
	default:
		b.sendError(chatID, textUnknownCommand)
	}
}

// HandleStart opens the conversation, or repeats the pending question when
// one is already running.
func (b *Bot) HandleStart(ctx context.Context, chatID int64) {
	r := b.runner(ctx, chatID)
	if res := r.Start(ctx); !res.Accepted {
		b.resendPrompt(ctx, r)
		return
	}
	b.flush(ctx, r)
}

// HandleRestart drops the current quotation and starts over.
func (b *Bot) HandleRestart(ctx context.Context, chatID int64) {
	r := b.runner(ctx, chatID)
	if res := r.Restart(ctx); !res.Accepted {
		b.logger.Debug("Restart ignored while a transition is running",
			zap.Int64("chat_id", chatID))
		return
	}
	b.flush(ctx, r)
}
