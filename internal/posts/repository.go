package posts

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/shared"
)

// Repository defines persistence operations for the wall.
type Repository interface {
	CreatePost(ctx context.Context, post *Post) error
	GetPost(ctx context.Context, id string) (*Post, error)
	ListPosts(ctx context.Context, page shared.Pagination) ([]Post, int, error)
	UpdatePost(ctx context.Context, id, title, body string) (*Post, error)
	SetPinned(ctx context.Context, id string, pinned bool) (*Post, error)
	DeletePost(ctx context.Context, id string) error

	CreateComment(ctx context.Context, comment *Comment) error
	GetComment(ctx context.Context, id string) (*Comment, error)
	ListComments(ctx context.Context, postID string) ([]Comment, error)
	DeleteComment(ctx context.Context, id string) error
	CommenterIDs(ctx context.Context, postID string) ([]string, error)

	PutReaction(ctx context.Context, reaction *Reaction) error
	DeleteReaction(ctx context.Context, postID, userID string) error
	ListReactions(ctx context.Context, postID string) ([]Reaction, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const postColumns = `id, author_id, title, body, pinned, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (*Post, error) {
	var p Post
	if err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Body, &p.Pinned, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, shared.StoreError(err)
	}
	return &p, nil
}

// CreatePost inserts a wall entry.
func (r *PGRepository) CreatePost(ctx context.Context, post *Post) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO posts (id, author_id, title, body)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		post.ID, post.AuthorID, post.Title, post.Body)
	if err := row.Scan(&post.CreatedAt, &post.UpdatedAt); err != nil {
		return shared.StoreError(err)
	}
	return nil
}

// GetPost fetches one post.
func (r *PGRepository) GetPost(ctx context.Context, id string) (*Post, error) {
	return scanPost(r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
}

// ListPosts returns a page of posts, pinned first, newest first within
// each group, plus the total count for pagination metadata.
func (r *PGRepository) ListPosts(ctx context.Context, page shared.Pagination) ([]Post, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM posts`).Scan(&total); err != nil {
		return nil, 0, shared.StoreError(err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+` FROM posts
		ORDER BY pinned DESC, created_at DESC
		LIMIT $1 OFFSET $2`, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, shared.StoreError(err)
	}
	defer rows.Close()
	var out []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Body, &p.Pinned, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, shared.StoreError(err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, shared.StoreError(err)
	}
	return out, total, nil
}

// UpdatePost replaces title and body.
func (r *PGRepository) UpdatePost(ctx context.Context, id, title, body string) (*Post, error) {
	return scanPost(r.pool.QueryRow(ctx, `
		UPDATE posts SET title = $2, body = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+postColumns, id, title, body))
}

// SetPinned flips the pinned flag.
func (r *PGRepository) SetPinned(ctx context.Context, id string, pinned bool) (*Post, error) {
	return scanPost(r.pool.QueryRow(ctx, `
		UPDATE posts SET pinned = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+postColumns, id, pinned))
}

// DeletePost removes a post and, via cascading constraints, its comments
// and reactions.
func (r *PGRepository) DeletePost(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return shared.StoreError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("Post not found")
	}
	return nil
}

// CreateComment inserts a comment.
func (r *PGRepository) CreateComment(ctx context.Context, comment *Comment) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO comments (id, post_id, author_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		comment.ID, comment.PostID, comment.AuthorID, comment.Body)
	if err := row.Scan(&comment.CreatedAt); err != nil {
		return shared.StoreError(err)
	}
	return nil
}

// GetComment fetches one comment.
func (r *PGRepository) GetComment(ctx context.Context, id string) (*Comment, error) {
	var c Comment
	row := r.pool.QueryRow(ctx, `SELECT id, post_id, author_id, body, created_at FROM comments WHERE id = $1`, id)
	if err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
		return nil, shared.StoreError(err)
	}
	return &c, nil
}

// ListComments returns a post's comments oldest first.
func (r *PGRepository) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, post_id, author_id, body, created_at FROM comments
		WHERE post_id = $1 ORDER BY created_at`, postID)
	if err != nil {
		return nil, shared.StoreError(err)
	}
	defer rows.Close()
	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return nil, shared.StoreError(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.StoreError(err)
	}
	return out, nil
}

// DeleteComment removes a comment.
func (r *PGRepository) DeleteComment(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return shared.StoreError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("Comment not found")
	}
	return nil
}

// CommenterIDs lists the distinct authors who commented on a post. Used
// by the notification fanout.
func (r *PGRepository) CommenterIDs(ctx context.Context, postID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT author_id FROM comments WHERE post_id = $1`, postID)
	if err != nil {
		return nil, shared.StoreError(err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, shared.StoreError(err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.StoreError(err)
	}
	return out, nil
}

// PutReaction upserts the caller's reaction to a post.
func (r *PGRepository) PutReaction(ctx context.Context, reaction *Reaction) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO reactions (post_id, user_id, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, user_id) DO UPDATE SET kind = EXCLUDED.kind
		RETURNING created_at`,
		reaction.PostID, reaction.UserID, reaction.Kind)
	if err := row.Scan(&reaction.CreatedAt); err != nil {
		return shared.StoreError(err)
	}
	return nil
}

// DeleteReaction removes the caller's reaction.
func (r *PGRepository) DeleteReaction(ctx context.Context, postID, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reactions WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return shared.StoreError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("Reaction not found")
	}
	return nil
}

// ListReactions returns all reactions on a post.
func (r *PGRepository) ListReactions(ctx context.Context, postID string) ([]Reaction, error) {
	rows, err := r.pool.Query(ctx, `SELECT post_id, user_id, kind, created_at FROM reactions WHERE post_id = $1`, postID)
	if err != nil {
		return nil, shared.StoreError(err)
	}
	defer rows.Close()
	var out []Reaction
	for rows.Next() {
		var rx Reaction
		if err := rows.Scan(&rx.PostID, &rx.UserID, &rx.Kind, &rx.CreatedAt); err != nil {
			return nil, shared.StoreError(err)
		}
		out = append(out, rx)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.StoreError(err)
	}
	return out, nil
}

var _ Repository = (*PGRepository)(nil)
