package adapter

import (
	"context"
	"errors"

	chat "spachat/internal/pkg/chat/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgMessageRepository persists the message log in the chat.message table,
// indexed on (staff_id, customer_id) for the pair range scans below.
type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) SaveMessage(ctx context.Context, m chat.Message) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgMessageRepository: nil pool")
	}
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat.message (staff_id, customer_id, sender_type, body, seen, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, m.StaffID, m.CustomerID, m.SenderType, m.Body, m.Seen, m.CreatedAt, m.UpdatedAt).Scan(&id)
	return id, err
}

func (r *PgMessageRepository) ListByPair(ctx context.Context, staffID, customerID string) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessageRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, staff_id, customer_id, sender_type, body, seen, created_at, updated_at
		FROM chat.message
		WHERE staff_id = $1 AND customer_id = $2
		ORDER BY created_at ASC, id ASC
	`, staffID, customerID)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func (r *PgMessageRepository) ListConversationHeads(ctx context.Context, staffID string) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessageRepository: nil pool")
	}
	// DISTINCT ON keeps the newest row per customer; the id tiebreak
	// matches commit order for equal timestamps.
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (customer_id)
		       id, staff_id, customer_id, sender_type, body, seen, created_at, updated_at
		FROM chat.message
		WHERE staff_id = $1
		ORDER BY customer_id, created_at DESC, id DESC
	`, staffID)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func collectMessages(rows pgx.Rows) ([]chat.Message, error) {
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.StaffID, &m.CustomerID, &m.SenderType, &m.Body, &m.Seen, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}
