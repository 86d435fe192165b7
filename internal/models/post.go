package models

import "time"

// Post is a moderated announcement with an optional status workflow.
type Post struct {
	ID         int64     `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	Content    string    `db:"content" json:"content"`
	Status     *string   `db:"status" json:"status,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	LikesCount int       `db:"likes_count" json:"likes_count"`
	Liked      bool      `db:"liked" json:"liked"`
}

// SupportsStatus reports whether the post participates in the status workflow.
func (p *Post) SupportsStatus() bool {
	return p != nil && p.Status != nil
}

// Comment is a reply attached to a post.
type Comment struct {
	ID         int64     `db:"id" json:"id"`
	PostID     int64     `db:"post_id" json:"post"`
	AuthorName *string   `db:"author_name" json:"author_name"`
	AuthorID   *int64    `db:"author_id" json:"author_id"`
	Text       string    `db:"text" json:"text"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Like records one user's like of a post.
type Like struct {
	ID        int64     `db:"id" json:"id"`
	PostID    int64     `db:"post_id" json:"post"`
	UserID    int64     `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
