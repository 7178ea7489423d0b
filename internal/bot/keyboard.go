package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"saave-bot/internal/chat"
	"saave-bot/internal/quote"
)

// BOT KEYBOARDS

func optionCaption(opt quote.Option) string {
	if opt.Letter == "" {
		return opt.Label
	}
	return opt.Letter + ") " + opt.Label
}

// optionsKeyboard puts one option per row. The callback data is the option
// value the session expects.
func optionsKeyboard(options []quote.Option) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options))
	for _, opt := range options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(optionCaption(opt), opt.Value),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func createContactRequestKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact("📱 Compartir mi número"),
		),
	)
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	return kb
}

func renderMessage(chatID int64, m chat.Message) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, m.Text)
	if m.HasOptions() {
		msg.ReplyMarkup = optionsKeyboard(m.Options)
	}
	return msg
}

// decoratePrompt attaches the reply keyboard a free-text step needs.
func decoratePrompt(msg *tgbotapi.MessageConfig, step chat.Step) {
	switch step {
	case chat.StepUserPhone:
		msg.ReplyMarkup = createContactRequestKeyboard()
	case chat.StepUserEmail:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}
}
