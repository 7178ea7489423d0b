package bot

import (
	"context"
	"time"

	"saave-bot/internal/chat"
	"saave-bot/internal/quote"
	"saave-bot/internal/storage"
	"saave-bot/pkg/api"
)

// DialogStore keeps the conversation of each chat between updates and restarts.
type DialogStore interface {
	SaveDialog(ctx context.Context, chatID int64, state chat.State) error
	LoadDialog(ctx context.Context, chatID int64) (*chat.State, error)
}

type Ledger interface {
	SaveQuotation(ctx context.Context, chatID int64, q quote.Quotation) error
	UpdateQuotationStatus(ctx context.Context, id, status string) error
	GetQuotationStatistics(ctx context.Context) (*storage.QuotationStatistics, error)
	ExportQuotationsToExcel(ctx context.Context) ([]byte, error)
	ExportQuotationToExcel(ctx context.Context, id string) ([]byte, error)
	RateLimiter
}

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, userID int64, action string, limit int64, window time.Duration) (bool, error)
}

type DocumentService interface {
	GenerateDocument(ctx context.Context, req api.DocumentRequest) (*api.Document, error)
}
