package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/alumni-survey-api/internal/models"
)

const postSelect = `SELECT p.id, p.title, p.content, p.status, p.created_at,
        (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS likes_count,
        EXISTS (SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = $1) AS liked
        FROM posts p`

const commentColumns = `id, post_id, author_name, author_id, text, created_at`

// PostRepository provides database access for posts, comments and likes.
type PostRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

// List returns posts newest first. viewerID, when set, fills the liked flag.
func (r *PostRepository) List(ctx context.Context, viewerID *int64) ([]models.Post, error) {
	posts := []models.Post{}
	if err := r.db.SelectContext(ctx, &posts, postSelect+` ORDER BY p.created_at DESC, p.id DESC`, viewerID); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// FindByID returns a post with its like count.
func (r *PostRepository) FindByID(ctx context.Context, id int64, viewerID *int64) (*models.Post, error) {
	var post models.Post
	if err := r.db.GetContext(ctx, &post, postSelect+` WHERE p.id = $2`, viewerID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &post, nil
}

// Create inserts a post.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	const query = `INSERT INTO posts (title, content, status) VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, post.Title, post.Content, post.Status).Scan(&post.ID, &post.CreatedAt); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// Update persists title, content and status.
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	res, err := r.db.ExecContext(ctx, `UPDATE posts SET title = $1, content = $2, status = $3 WHERE id = $4`,
		post.Title, post.Content, post.Status, post.ID)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a post together with its comments and likes.
func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return requireAffected(res)
}

// ListComments returns comments newest first, optionally for one post.
func (r *PostRepository) ListComments(ctx context.Context, postID *int64) ([]models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments`
	var args []interface{}
	if postID != nil {
		query += ` WHERE post_id = $1`
		args = append(args, *postID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	comments := []models.Comment{}
	if err := r.db.SelectContext(ctx, &comments, query, args...); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// FindComment returns a comment by id.
func (r *PostRepository) FindComment(ctx context.Context, id int64) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.GetContext(ctx, &comment, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find comment: %w", err)
	}
	return &comment, nil
}

// CreateComment inserts a comment.
func (r *PostRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	const query = `INSERT INTO comments (post_id, author_name, author_id, text) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query, comment.PostID, comment.AuthorName, comment.AuthorID, comment.Text)
	if err := row.Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// DeleteComment removes a comment.
func (r *PostRepository) DeleteComment(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return requireAffected(res)
}

// ToggleLike removes the user's like when present and adds it otherwise. It
// reports whether the post is liked afterwards and the resulting like count.
func (r *PostRepository) ToggleLike(ctx context.Context, postID, userID int64) (bool, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, 0, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return false, 0, fmt.Errorf("remove like: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return false, 0, fmt.Errorf("remove like: %w", err)
	}

	liked := removed == 0
	if liked {
		if _, err := tx.ExecContext(ctx, `INSERT INTO likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT (post_id, user_id) DO NOTHING`, postID, userID); err != nil {
			tx.Rollback() //nolint:errcheck
			return false, 0, fmt.Errorf("add like: %w", err)
		}
	}

	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID); err != nil {
		tx.Rollback() //nolint:errcheck
		return false, 0, fmt.Errorf("count likes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("commit like toggle: %w", err)
	}
	return liked, count, nil
}
