package bot

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"saave-bot/internal/chat"
	"saave-bot/internal/quote"
)

// quotationStore keeps the last quotation of a chat and appends it to the
// sales ledger. Only the per-chat record decides whether saving failed.
type quotationStore struct {
	records chat.Store
	ledger  Ledger
	notify  func(ctx context.Context, chatID int64, q quote.Quotation)
	logger  *zap.Logger
}

func (s *quotationStore) SaveRecord(ctx context.Context, chatID int64, record quote.Record) error {
	if err := s.records.SaveRecord(ctx, chatID, record); err != nil {
		s.logger.Error("Failed to save quotation record",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return errors.New(textStorageDown)
	}

	if s.ledger != nil {
		if err := s.ledger.SaveQuotation(ctx, chatID, record.Quotation); err != nil {
			s.logger.Error("Failed to append quotation to ledger",
				zap.Int64("chat_id", chatID),
				zap.String("quotation_id", record.Quotation.ID),
				zap.Error(err))
		}
	}

	if s.notify != nil {
		s.notify(ctx, chatID, record.Quotation)
	}
	return nil
}

func (s *quotationStore) ClearRecord(ctx context.Context, chatID int64) error {
	return s.records.ClearRecord(ctx, chatID)
}
