package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"saave-bot/internal/config"
	"saave-bot/internal/quote"
	"saave-bot/pkg/redis"
)

const statsCacheKey = "quotation_stats"

const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusWon       = "won"
	StatusLost      = "lost"
)

var ErrQuotationNotFound = errors.New("quotation not found")

type PostgresStorage struct {
	db     *sqlx.DB
	redis  *redis.Client
	logger *zap.Logger
}

// Quotation is one completed quotation in the sales ledger.
type Quotation struct {
	ID               string    `db:"id"`
	ChatID           int64     `db:"chat_id"`
	ClientName       string    `db:"client_name"`
	ClientPhone      string    `db:"client_phone"`
	ClientEmail      string    `db:"client_email"`
	MaterialGrade    string    `db:"material_grade"`
	AreaTotal        float64   `db:"area_total"`
	Stage1Subtotal   float64   `db:"stage1_subtotal"`
	Stage2Subtotal   float64   `db:"stage2_subtotal"`
	Subtotal         float64   `db:"subtotal"`
	Tax              float64   `db:"tax"`
	Total            float64   `db:"total"`
	ConstructionCost float64   `db:"construction_cost"`
	Responses        []byte    `db:"responses"`
	Status           string    `db:"status"`
	CreatedAt        time.Time `db:"created_at"`
}

const quotationColumns = `id, chat_id, client_name, client_phone, client_email,
	material_grade, area_total, stage1_subtotal, stage2_subtotal, subtotal,
	tax, total, construction_cost, responses, status, created_at`

// NewQuotation flattens a computed quotation into a ledger row.
func NewQuotation(chatID int64, q quote.Quotation) (Quotation, error) {
	responses, err := json.Marshal(q.Responses.Flatten())
	if err != nil {
		return Quotation{}, fmt.Errorf("marshal responses: %w", err)
	}
	return Quotation{
		ID:               q.ID,
		ChatID:           chatID,
		ClientName:       q.Client.Name,
		ClientPhone:      q.Client.Phone,
		ClientEmail:      q.Client.Email,
		MaterialGrade:    q.Construction.Grade,
		AreaTotal:        q.Area.Total,
		Stage1Subtotal:   q.Stage1.Subtotal,
		Stage2Subtotal:   q.Stage2.Subtotal,
		Subtotal:         q.Subtotal,
		Tax:              q.Tax,
		Total:            q.Total,
		ConstructionCost: q.Construction.Cost,
		Responses:        responses,
		Status:           StatusNew,
		CreatedAt:        q.IssuedAt,
	}, nil
}

func NewPostgresStorage(ctx context.Context, cfg config.Database, redisClient *redis.Client, logger *zap.Logger) (*PostgresStorage, error) {
	const operation = "storage.NewPostgresStorage"

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	var db *sqlx.DB
	var err error

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Minute
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to PostgreSQL...")

	err = backoff.RetryNotify(
		func() error {
			db, err = sqlx.ConnectContext(ctx, "postgres", connStr)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}

			if err = db.PingContext(ctx); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			return nil
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, duration time.Duration) {
			logger.Warn("PostgreSQL connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)

	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("Successfully connected to PostgreSQL")
	return NewWithDB(db, redisClient, logger), nil
}

// NewWithDB wraps an already opened connection.
func NewWithDB(db *sqlx.DB, redisClient *redis.Client, logger *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:     db,
		redis:  redisClient,
		logger: logger,
	}
}

func (s *PostgresStorage) DB() *sql.DB {
	return s.db.DB
}

// SaveQuotation appends a completed quotation to the ledger. Saving the same
// quotation twice keeps the first row.
func (s *PostgresStorage) SaveQuotation(ctx context.Context, chatID int64, q quote.Quotation) error {
	const operation = "storage.SaveQuotation"

	row, err := NewQuotation(chatID, q)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	const query = `
        INSERT INTO quotations (
            id, chat_id, client_name, client_phone, client_email,
            material_grade, area_total, stage1_subtotal, stage2_subtotal, subtotal,
            tax, total, construction_cost, responses, status, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        ON CONFLICT (id) DO NOTHING
    `

	_, err = s.db.ExecContext(ctx, query,
		row.ID,
		row.ChatID,
		row.ClientName,
		row.ClientPhone,
		row.ClientEmail,
		row.MaterialGrade,
		row.AreaTotal,
		row.Stage1Subtotal,
		row.Stage2Subtotal,
		row.Subtotal,
		row.Tax,
		row.Total,
		row.ConstructionCost,
		row.Responses,
		row.Status,
		row.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to save quotation: %w", operation, err)
	}

	s.invalidateStats(ctx)
	return nil
}

func (s *PostgresStorage) GetQuotationByID(ctx context.Context, id string) (*Quotation, error) {
	const operation = "storage.GetQuotationByID"

	query := `SELECT ` + quotationColumns + ` FROM quotations WHERE id = $1`

	var q Quotation
	if err := s.db.GetContext(ctx, &q, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuotationNotFound
		}
		return nil, fmt.Errorf("%s: failed to get quotation: %w", operation, err)
	}
	return &q, nil
}

// ListQuotations returns the ledger, newest first.
func (s *PostgresStorage) ListQuotations(ctx context.Context) ([]Quotation, error) {
	query := `SELECT ` + quotationColumns + ` FROM quotations ORDER BY created_at DESC`

	var quotations []Quotation
	if err := s.db.SelectContext(ctx, &quotations, query); err != nil {
		return nil, fmt.Errorf("storage.ListQuotations: %w", err)
	}
	return quotations, nil
}

func ValidStatus(status string) bool {
	switch status {
	case StatusNew, StatusContacted, StatusWon, StatusLost:
		return true
	}
	return false
}

func (s *PostgresStorage) UpdateQuotationStatus(ctx context.Context, id, status string) error {
	const operation = "storage.UpdateQuotationStatus"

	if !ValidStatus(status) {
		return fmt.Errorf("%s: unknown status %q", operation, status)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE quotations SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", operation, err)
	}
	if affected == 0 {
		return ErrQuotationNotFound
	}

	s.invalidateStats(ctx)
	return nil
}

type QuotationStatistics struct {
	TotalCount  int     `db:"total_count" json:"total_count"`
	TotalAmount float64 `db:"total_amount" json:"total_amount"`
	TodayCount  int     `db:"today_count" json:"today_count"`
	TodayAmount float64 `db:"today_amount" json:"today_amount"`
	WeekCount   int     `db:"week_count" json:"week_count"`
	WeekAmount  float64 `db:"week_amount" json:"week_amount"`
	MonthCount  int     `db:"month_count" json:"month_count"`
	MonthAmount float64 `db:"month_amount" json:"month_amount"`
	AverageArea float64 `db:"average_area" json:"average_area"`

	StatusCounts map[string]int `db:"-" json:"status_counts"`
}

func (s *PostgresStorage) GetQuotationStatistics(ctx context.Context) (*QuotationStatistics, error) {
	const operation = "storage.GetQuotationStatistics"

	// Try Redis first
	if cached, err := s.redis.Get(ctx, statsCacheKey); err == nil {
		var stats QuotationStatistics
		if err := json.Unmarshal(cached, &stats); err == nil {
			return &stats, nil
		}
	}

	stats := &QuotationStatistics{}
	err := s.db.GetContext(ctx, stats, `
        SELECT
            COUNT(*) AS total_count,
            COALESCE(SUM(total), 0) AS total_amount,
            COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE) AS today_count,
            COALESCE(SUM(total) FILTER (WHERE created_at >= CURRENT_DATE), 0) AS today_amount,
            COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE - INTERVAL '7 days') AS week_count,
            COALESCE(SUM(total) FILTER (WHERE created_at >= CURRENT_DATE - INTERVAL '7 days'), 0) AS week_amount,
            COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE - INTERVAL '30 days') AS month_count,
            COALESCE(SUM(total) FILTER (WHERE created_at >= CURRENT_DATE - INTERVAL '30 days'), 0) AS month_amount,
            COALESCE(AVG(area_total), 0) AS average_area
        FROM quotations
    `)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	stats.StatusCounts = make(map[string]int)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) AS count FROM quotations GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get status counts: %w", operation, err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%s: failed to scan status count: %w", operation, err)
		}
		stats.StatusCounts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	if data, err := json.Marshal(stats); err == nil {
		if err := s.redis.Set(ctx, statsCacheKey, data, time.Hour); err != nil {
			s.logger.Warn("Failed to cache statistics", zap.Error(err))
		}
	}

	return stats, nil
}

func (s *PostgresStorage) invalidateStats(ctx context.Context) {
	if err := s.redis.Del(ctx, statsCacheKey); err != nil {
		s.logger.Warn("Failed to invalidate statistics cache", zap.Error(err))
	}
}

// CheckRateLimit counts one action for the user and reports whether the
// limit for the current window is exceeded.
func (s *PostgresStorage) CheckRateLimit(ctx context.Context, userID int64, action string, limit int64, window time.Duration) (bool, error) {
	key := fmt.Sprintf("ratelimit:%d:%s", userID, action)

	count, err := s.redis.Incr(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	// Set expiry if this is the first increment
	if count == 1 {
		if _, err := s.redis.Expire(ctx, key, window); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count > limit, nil
}

func (s *PostgresStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
