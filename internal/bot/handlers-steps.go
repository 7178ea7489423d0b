package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"saave-bot/internal/chat"
	"saave-bot/internal/quote"
)

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	b.logger.Debug("Processing message",
		zap.Int64("chat_id", chatID),
		zap.String("text", msg.Text))

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	r := b.runner(ctx, chatID)
	session := r.Session()
	step := session.Step()

	if step == chat.StepGreeting {
		b.HandleStart(ctx, chatID)
		return
	}

	text := msg.Text
	if msg.Contact != nil && step == chat.StepUserPhone {
		text = msg.Contact.PhoneNumber
	}

	var res chat.Result
	if step.AcceptsText() {
		res = r.Submit(ctx, text)
	} else if opt, ok := matchOption(session.Offered(), text); ok {
		res = r.Select(ctx, opt.Value)
	} else {
		b.sendMessage(tgbotapi.NewMessage(chatID, textChooseOption))
	}

	if !res.Accepted {
		if !res.Ignored {
			b.resendPrompt(ctx, r)
		}
		return
	}
	b.flush(ctx, r)
}

func (b *Bot) processCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID

	b.logger.Debug("Processing callback",
		zap.Int64("chat_id", chatID),
		zap.String("data", callback.Data))

	r := b.runner(ctx, chatID)
	res := r.Select(ctx, callback.Data)

	answer := tgbotapi.NewCallback(callback.ID, "")
	if !res.Accepted {
		answer.Text = textOptionUnavailable
	}
	if _, err := b.bot.Request(answer); err != nil {
		b.logger.Warn("Failed to answer callback",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}

	if !res.Accepted {
		return
	}
	b.clearKeyboard(chatID, callback.Message.MessageID)
	b.flush(ctx, r)
}

// clearKeyboard removes the buttons of an answered question.
func (b *Bot) clearKeyboard(chatID int64, messageID int) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	if _, err := b.bot.Request(edit); err != nil {
		b.logger.Debug("Failed to clear keyboard",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}

// matchOption resolves a typed answer to one of the offered options. The
// letter, the value and the label are accepted.
func matchOption(offered []quote.Option, text string) (quote.Option, bool) {
	t := strings.TrimSpace(text)
	if t == "" {
		return quote.Option{}, false
	}
	letter := strings.TrimRight(t, ").")

	for _, opt := range offered {
		switch {
		case opt.Letter != "" && strings.EqualFold(letter, opt.Letter),
			strings.EqualFold(t, opt.Value),
			strings.EqualFold(t, opt.Label),
			strings.EqualFold(t, optionCaption(opt)):
			return opt, true
		}
	}
	return quote.Option{}, false
}
