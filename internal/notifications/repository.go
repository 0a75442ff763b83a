package notifications

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/platform/db"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/shared"
)

// Repository defines persistence operations for notifications.
type Repository interface {
	InsertBatch(ctx context.Context, ns []*Notification) error
	ListForUser(ctx context.Context, userID string, page shared.Pagination) ([]Notification, int, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// InsertBatch stores one fanout's rows in a single transaction, so a
// partially delivered event is retried whole instead of double-notifying
// the members who already got a row.
func (r *PGRepository) InsertBatch(ctx context.Context, ns []*Notification) error {
	if len(ns) == 0 {
		return nil
	}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, n := range ns {
			row := tx.QueryRow(ctx, `
				INSERT INTO notifications (id, user_id, kind, actor_id, post_id, message)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING created_at`,
				n.ID, n.UserID, n.Kind, n.ActorID, n.PostID, n.Message)
			if err := row.Scan(&n.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
	return shared.StoreError(err)
}

// ListForUser returns a page of the user's notifications, newest first.
func (r *PGRepository) ListForUser(ctx context.Context, userID string, page shared.Pagination) ([]Notification, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, shared.StoreError(err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, kind, actor_id, post_id, message, read_at, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, shared.StoreError(err)
	}
	defer rows.Close()
	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.ActorID, &n.PostID, &n.Message, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, 0, shared.StoreError(err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, shared.StoreError(err)
	}
	return out, total, nil
}

// MarkRead flags one notification. The user filter doubles as the
// ownership check: marking someone else's row is a NotFound, not a
// Forbidden, so the endpoint cannot confirm foreign ids exist.
func (r *PGRepository) MarkRead(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET read_at = now()
		WHERE id = $1 AND user_id = $2 AND read_at IS NULL`, id, userID)
	if err != nil {
		return shared.StoreError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("Notification not found")
	}
	return nil
}

// MarkAllRead flags every unread notification for the user.
func (r *PGRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET read_at = now() WHERE user_id = $1 AND read_at IS NULL`, userID)
	if err != nil {
		return 0, shared.StoreError(err)
	}
	return int(tag.RowsAffected()), nil
}

var _ Repository = (*PGRepository)(nil)
