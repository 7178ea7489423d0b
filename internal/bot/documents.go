package bot

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"saave-bot/internal/chat"
	"saave-bot/internal/quote"
	"saave-bot/pkg/api"
)

const documentFormat = "pdf"

// NewDocumentRequest maps a quotation to the payload of the document service.
func NewDocumentRequest(catalog *quote.Catalog, q quote.Quotation) api.DocumentRequest {
	s := catalog.Summaries(q)

	return api.DocumentRequest{
		Format: documentFormat,

		Name:  q.Client.Name,
		Phone: q.Client.Phone,
		Email: q.Client.Email,

		Architectural: quote.FormatCurrency(q.Stage1.Architectural),
		Structural:    quote.FormatCurrency(q.Stage1.Structural),
		Accompaniment: quote.FormatCurrency(q.Stage1.Accompaniment),
		Stage1:        quote.FormatCurrency(q.Stage1.Subtotal),
		Electrical:    quote.FormatCurrency(q.Stage2.Electrical),
		Hydraulic:     quote.FormatCurrency(q.Stage2.Hydraulic),
		Budgeting:     quote.FormatCurrency(q.Stage2.Budgeting),
		Stage2:        quote.FormatCurrency(q.Stage2.Subtotal),

		ConstructionCost: quote.FormatCurrency(q.Construction.Cost),
		Subtotal:         quote.FormatCurrency(q.Subtotal),
		Tax:              quote.FormatCurrency(q.Tax),
		Total:            quote.FormatCurrency(q.Total),
		TotalInWords:     q.TotalInWords,
		MaterialGrade:    q.Construction.Grade,
		Date:             quote.SpanishDate(q.IssuedAt),

		BaseAreasSummary:       s.BaseAreas,
		PrincipalRoomSummary:   s.PrincipalRoom,
		AdditionalRoomsSummary: s.AdditionalRooms,
		ExtraSpacesSummary:     s.ExtraSpaces,
		MaterialGradeSummary:   s.MaterialGrade,
		AreaFormatted:          s.Area,
		AreaTotal:              q.Area.Total,
	}
}

// documentGenerator renders quotations through the document service, at most
// limit times per window and chat.
type documentGenerator struct {
	service DocumentService
	limiter RateLimiter
	catalog *quote.Catalog
	limit   int64
	window  time.Duration
	logger  *zap.Logger
}

func (g *documentGenerator) GenerateDocument(ctx context.Context, chatID int64, q quote.Quotation) (*chat.Document, error) {
	if g.limiter != nil && g.limit > 0 {
		limited, err := g.limiter.CheckRateLimit(ctx, chatID, actionDocument, g.limit, g.window)
		if err != nil {
			g.logger.Warn("Rate limit check failed",
				zap.Int64("chat_id", chatID),
				zap.Error(err))
		} else if limited {
			return nil, errors.New(textDocumentLimited)
		}
	}

	doc, err := g.service.GenerateDocument(ctx, NewDocumentRequest(g.catalog, q))
	if err != nil {
		if api.IsServiceError(err) {
			return nil, err
		}
		g.logger.Error("Document service unreachable",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return nil, errors.New(textServiceDown)
	}

	return &chat.Document{
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		Content:     doc.Content,
	}, nil
}
