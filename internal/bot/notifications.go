package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"saave-bot/internal/quote"
)

// NotifyNewQuotation posts a short summary of a completed quotation to the
// admin channel.
func (b *Bot) NotifyNewQuotation(ctx context.Context, chatID int64, q quote.Quotation) {
	if b.cfg.Admin.ChannelID == 0 {
		b.logger.Debug("Channel notifications disabled - no channel ID configured")
		return
	}

	msg := tgbotapi.NewMessage(b.cfg.Admin.ChannelID, FormatQuotationNotification(chatID, q))
	if _, err := b.bot.Send(msg); err != nil {
		b.logger.Error("Failed to send channel notification",
			zap.String("quotation_id", q.ID),
			zap.Error(err))
	}
}

func FormatQuotationNotification(chatID int64, q quote.Quotation) string {
	return fmt.Sprintf(
		"🏠 Nueva cotización %s\n"+
			"Cliente: %s\n"+
			"Teléfono: %s\n"+
			"Correo: %s\n"+
			"Área: %s m²\n"+
			"Total diseño: $%s\n"+
			"Construcción (%s): $%s\n"+
			"Chat: %d",
		q.ID,
		q.Client.Name,
		q.Client.Phone,
		q.Client.Email,
		quote.FormatArea(q.Area.Total),
		quote.FormatCurrency(q.Total),
		q.Construction.Grade, quote.FormatCurrency(q.Construction.Cost),
		chatID,
	)
}
