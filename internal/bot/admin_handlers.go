package bot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"saave-bot/internal/quote"
	"saave-bot/internal/storage"
)

var statusLabels = map[string]string{
	storage.StatusNew:       "Nueva",
	storage.StatusContacted: "Contactado",
	storage.StatusWon:       "Ganada",
	storage.StatusLost:      "Perdida",
}

func (b *Bot) isAdmin(chatID int64) bool {
	return slices.Contains(b.cfg.Admin.IDs, chatID)
}

func (b *Bot) handleAdminCommand(ctx context.Context, chatID int64, cmd string, args []string) {
	if !b.isAdmin(chatID) {
		b.sendError(chatID, textUnknownCommand)
		return
	}
	if b.ledger == nil {
		b.sendError(chatID, "El registro de cotizaciones no está disponible")
		return
	}

	switch cmd {
	case "export":
		if len(args) == 0 {
			b.handleExportAllQuotations(ctx, chatID)
		} else {
			b.handleExportSingleQuotation(ctx, chatID, args[0])
		}
	case "stats":
		b.handleQuotationStats(ctx, chatID)
	case "status":
		if len(args) < 2 {
			b.sendError(chatID, "Uso: /status <ID_cotización> <new|contacted|won|lost>")
			return
		}
		b.handleStatusUpdate(ctx, chatID, args[0], args[1])
	}
}

func (b *Bot) handleStatusUpdate(ctx context.Context, chatID int64, id, status string) {
	if !storage.ValidStatus(status) {
		b.sendError(chatID, "Estado no válido. Valores permitidos: new, contacted, won, lost")
		return
	}

	err := b.ledger.UpdateQuotationStatus(ctx, id, status)
	if errors.Is(err, storage.ErrQuotationNotFound) {
		b.sendError(chatID, "Cotización no encontrada")
		return
	}
	if err != nil {
		b.logger.Error("Failed to update quotation status",
			zap.String("quotation_id", id),
			zap.String("status", status),
			zap.Error(err))
		b.sendError(chatID, "Error al actualizar el estado")
		return
	}

	b.sendMessage(tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"✅ La cotización %s ahora está: %s", id, statusLabels[status])))
}

func (b *Bot) handleQuotationStats(ctx context.Context, chatID int64) {
	stats, err := b.ledger.GetQuotationStatistics(ctx)
	if err != nil {
		b.logger.Error("Failed to get quotation statistics", zap.Error(err))
		b.sendError(chatID, "Error al obtener las estadísticas")
		return
	}

	b.sendMessage(tgbotapi.NewMessage(chatID, FormatStatistics(stats)))
}

func FormatStatistics(stats *storage.QuotationStatistics) string {
	return fmt.Sprintf(
		"📊 Estadísticas de cotizaciones\n\n"+
			"📌 Total: %d ($%s)\n"+
			"📅 Hoy: %d ($%s)\n"+
			"📅 Últimos 7 días: %d ($%s)\n"+
			"📅 Últimos 30 días: %d ($%s)\n"+
			"📐 Área promedio: %s m²\n\n"+
			"📌 Por estado:\n"+
			"🆕 Nuevas: %d\n"+
			"📞 Contactadas: %d\n"+
			"✅ Ganadas: %d\n"+
			"❌ Perdidas: %d",
		stats.TotalCount, quote.FormatCurrency(stats.TotalAmount),
		stats.TodayCount, quote.FormatCurrency(stats.TodayAmount),
		stats.WeekCount, quote.FormatCurrency(stats.WeekAmount),
		stats.MonthCount, quote.FormatCurrency(stats.MonthAmount),
		quote.FormatArea(stats.AverageArea),
		stats.StatusCounts[storage.StatusNew],
		stats.StatusCounts[storage.StatusContacted],
		stats.StatusCounts[storage.StatusWon],
		stats.StatusCounts[storage.StatusLost],
	)
}

func (b *Bot) handleExportAllQuotations(ctx context.Context, chatID int64) {
	data, err := b.ledger.ExportQuotationsToExcel(ctx)
	if err != nil {
		b.logger.Error("Failed to export quotations", zap.Error(err))
		b.sendError(chatID, "Error al exportar las cotizaciones")
		return
	}

	filename := fmt.Sprintf("cotizaciones_%s.xlsx", time.Now().Format("20060102"))
	b.sendSpreadsheet(chatID, filename, data, "📊 Todas las cotizaciones")
}

func (b *Bot) handleExportSingleQuotation(ctx context.Context, chatID int64, id string) {
	data, err := b.ledger.ExportQuotationToExcel(ctx, id)
	if errors.Is(err, storage.ErrQuotationNotFound) {
		b.sendError(chatID, "Cotización no encontrada")
		return
	}
	if err != nil {
		b.logger.Error("Failed to export quotation",
			zap.String("quotation_id", id),
			zap.Error(err))
		b.sendError(chatID, "Error al exportar la cotización")
		return
	}

	b.sendSpreadsheet(chatID, fmt.Sprintf("cotizacion_%s.xlsx", id), data,
		fmt.Sprintf("📊 Cotización %s", id))
}

func (b *Bot) sendSpreadsheet(chatID int64, filename string, data []byte, caption string) {
	msg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	msg.Caption = caption

	if _, err := b.bot.Send(msg); err != nil {
		b.logger.Error("Failed to send Excel file", zap.Error(err))
		b.sendError(chatID, "No se pudo enviar el archivo")
	}
}
