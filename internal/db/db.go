// Package db owns the persistent store: the shops identity records and
// the immutable review documents.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omarsaleem/taqyeem/internal/models"
)

// Queries wraps database operations.
type Queries struct {
	pool *pgxpool.Pool
}

// New creates a new Queries instance.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// Connect establishes a database connection pool. A non-empty database
// name overrides the one in the URI.
func Connect(ctx context.Context, uri, database string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(uri)
	if err != nil {
		return nil, fmt.Errorf("parse store uri: %w", err)
	}
	if database != "" {
		cfg.ConnConfig.Database = database
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Shop operations

func (q *Queries) GetShop(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	var s models.Shop
	err := q.pool.QueryRow(ctx, `
		SELECT id, email, shop_name, shop_type, push_token, telegram_chat_id, is_active, created_at, updated_at
		FROM shops WHERE id = $1
	`, id).Scan(&s.ID, &s.Email, &s.ShopName, &s.ShopType, &s.PushToken, &s.TelegramChatID, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrShopNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shop: %w", err)
	}
	return &s, nil
}

func (q *Queries) GetShopByEmail(ctx context.Context, email string) (*models.Shop, error) {
	var s models.Shop
	err := q.pool.QueryRow(ctx, `
		SELECT id, email, shop_name, shop_type, push_token, telegram_chat_id, is_active, created_at, updated_at
		FROM shops WHERE email = $1
	`, email).Scan(&s.ID, &s.Email, &s.ShopName, &s.ShopType, &s.PushToken, &s.TelegramChatID, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrShopNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shop by email: %w", err)
	}
	return &s, nil
}

// LinkTelegramChat stores the Telegram chat id a shop's notifications go to.
func (q *Queries) LinkTelegramChat(ctx context.Context, shopID uuid.UUID, chatID string) error {
	tag, err := q.pool.Exec(ctx, `
		UPDATE shops SET telegram_chat_id = $2, updated_at = now() WHERE id = $1
	`, shopID, chatID)
	if err != nil {
		return fmt.Errorf("link telegram chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrShopNotFound
	}
	return nil
}

// Review operations

// ReviewExists reports whether this respondent already reviewed this shop.
func (q *Queries) ReviewExists(ctx context.Context, shopID uuid.UUID, email string) (bool, error) {
	var exists bool
	err := q.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM reviews WHERE shop_id = $1 AND respondent_email = $2)
	`, shopID, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check duplicate review: %w", err)
	}
	return exists, nil
}

// InsertReview persists a finished review document. A unique-index
// violation on (shop_id, respondent_email) means a concurrent webhook from
// the same respondent won the race; that surfaces as ErrDuplicateReview.
func (q *Queries) InsertReview(ctx context.Context, doc *models.ReviewDocument) error {
	source, err := json.Marshal(doc.Source)
	if err != nil {
		return fmt.Errorf("marshal source: %w", err)
	}
	processing, err := json.Marshal(doc.Processing)
	if err != nil {
		return fmt.Errorf("marshal processing: %w", err)
	}
	analysis, err := json.Marshal(doc.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	var generated []byte
	if doc.GeneratedContent != nil {
		generated, err = json.Marshal(doc.GeneratedContent)
		if err != nil {
			return fmt.Errorf("marshal generated content: %w", err)
		}
	}

	_, err = q.pool.Exec(ctx, `
		INSERT INTO reviews (id, shop_id, respondent_email, status, source, processing, analysis, generated_content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, doc.ID, doc.ShopID, doc.RespondentEmail, doc.Status, source, processing, analysis, generated, doc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrDuplicateReview
		}
		return fmt.Errorf("%w: insert review: %v", models.ErrPersistence, err)
	}
	return nil
}
