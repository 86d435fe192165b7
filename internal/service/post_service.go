package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/alumni-survey-api/internal/authz"
	"github.com/noah-isme/alumni-survey-api/internal/models"
	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
)

type postRepository interface {
	List(ctx context.Context, viewerID *int64) ([]models.Post, error)
	FindByID(ctx context.Context, id int64, viewerID *int64) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id int64) error
	ListComments(ctx context.Context, postID *int64) ([]models.Comment, error)
	FindComment(ctx context.Context, id int64) (*models.Comment, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id int64) error
	ToggleLike(ctx context.Context, postID, userID int64) (bool, int, error)
}

// CreatePostRequest holds payload for creating posts.
type CreatePostRequest struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Status  *string `json:"status"`
}

// UpdatePostRequest holds a partial post update.
type UpdatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Status  *string `json:"status"`
}

// CreateCommentRequest holds payload for commenting on a post.
type CreateCommentRequest struct {
	AuthorName *string    `json:"author_name"`
	AuthorID   OptionalID `json:"author_id"`
	Text       string     `json:"text"`
}

// LikeToggleRequest carries the fallback user id of unauthenticated clients.
type LikeToggleRequest struct {
	UserID   OptionalID `json:"user_id"`
	AuthorID OptionalID `json:"author_id"`
}

// fallback returns user_id, else author_id.
func (r LikeToggleRequest) fallback() *int64 {
	if id := r.UserID.Ptr(); id != nil && *id != 0 {
		return id
	}
	return r.AuthorID.Ptr()
}

// LikeResult reports the like state of a post after a toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

// PostService manages posts, comments and likes.
type PostService struct {
	repo   postRepository
	logger *zap.Logger
}

// NewPostService constructs the post service.
func NewPostService(repo postRepository, logger *zap.Logger) *PostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostService{repo: repo, logger: logger}
}

func viewerOf(ac *authz.Context) *int64 {
	if ac == nil || ac.Identity == nil {
		return nil
	}
	id := ac.Identity.ID
	return &id
}

// List returns posts newest first with the like state of the requester.
func (s *PostService) List(ctx context.Context, ac *authz.Context) ([]models.Post, error) {
	posts, err := s.repo.List(ctx, viewerOf(ac))
	if err != nil {
		return nil, internalError(err, "failed to list posts")
	}
	return posts, nil
}

// Get returns a single post.
func (s *PostService) Get(ctx context.Context, ac *authz.Context, id int64) (*models.Post, error) {
	post, err := s.repo.FindByID(ctx, id, viewerOf(ac))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("Post not found")
		}
		return nil, internalError(err, "failed to load post")
	}
	return post, nil
}

// Create publishes a post. Title and content are required.
func (s *PostService) Create(ctx context.Context, req CreatePostRequest) (*models.Post, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Title and content are required")
	}
	post := &models.Post{Title: req.Title, Content: req.Content, Status: req.Status}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, internalError(err, "failed to create post")
	}
	return post, nil
}

// Update applies the part of the patch the requester is allowed to change.
func (s *PostService) Update(ctx context.Context, ac *authz.Context, id int64, req UpdatePostRequest) (*models.Post, error) {
	post, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	patch, err := authz.AuthorizePostUpdate(ac, post, authz.PostPatch{Title: req.Title, Content: req.Content, Status: req.Status})
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		post.Title = *patch.Title
	}
	if patch.Content != nil {
		post.Content = *patch.Content
	}
	if patch.Status != nil {
		post.Status = patch.Status
	}
	if err := s.repo.Update(ctx, post); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("Post not found")
		}
		return nil, internalError(err, "failed to update post")
	}
	return post, nil
}

// Delete removes a post after the delete guard passes.
func (s *PostService) Delete(ctx context.Context, ac *authz.Context, id int64) error {
	if err := authz.CanDeletePost(ac); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("Post not found")
		}
		return internalError(err, "failed to delete post")
	}
	return nil
}

// ListComments returns the comments of a post, or every comment when postID is nil.
func (s *PostService) ListComments(ctx context.Context, postID *int64) ([]models.Comment, error) {
	comments, err := s.repo.ListComments(ctx, postID)
	if err != nil {
		return nil, internalError(err, "failed to list comments")
	}
	return comments, nil
}

// GetComment returns a comment belonging to postID.
func (s *PostService) GetComment(ctx context.Context, postID, commentID int64) (*models.Comment, error) {
	comment, err := s.repo.FindComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("Comment not found")
		}
		return nil, internalError(err, "failed to load comment")
	}
	if comment.PostID != postID {
		return nil, notFound("Comment not found")
	}
	return comment, nil
}

// CreateComment adds a comment. A verified identity replaces any client
// supplied author attribution.
func (s *PostService) CreateComment(ctx context.Context, ac *authz.Context, postID int64, req CreateCommentRequest) (*models.Comment, error) {
	if _, err := s.Get(ctx, ac, postID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fieldError("text", "This field is required.")
	}

	comment := &models.Comment{PostID: postID, AuthorName: req.AuthorName, AuthorID: req.AuthorID.Ptr(), Text: req.Text}
	if ac != nil && ac.Identity != nil {
		id, name := ac.Identity.ID, ac.Identity.Username
		comment.AuthorID = &id
		comment.AuthorName = &name
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, internalError(err, "failed to create comment")
	}
	return comment, nil
}

// DeleteComment removes a comment after the comment delete guard passes.
func (s *PostService) DeleteComment(ctx context.Context, ac *authz.Context, postID, commentID int64, bodyAuthorID string) error {
	comment, err := s.GetComment(ctx, postID, commentID)
	if err != nil {
		return err
	}
	if err := authz.CanDeleteComment(ac, comment, bodyAuthorID); err != nil {
		return err
	}
	if err := s.repo.DeleteComment(ctx, commentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("Comment not found")
		}
		return internalError(err, "failed to delete comment")
	}
	return nil
}

// ToggleLike flips the like of the resolved user on a post.
func (s *PostService) ToggleLike(ctx context.Context, ac *authz.Context, postID int64, req LikeToggleRequest) (*LikeResult, error) {
	userID, err := authz.ResolveLikeUser(ac, req.fallback())
	if err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, ac, postID); err != nil {
		return nil, err
	}

	liked, count, err := s.repo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, internalError(err, "failed to toggle like")
	}
	s.logger.Debug("like toggled", zap.Int64("post_id", postID), zap.Int64("user_id", userID), zap.Bool("liked", liked))
	return &LikeResult{Liked: liked, LikesCount: count}, nil
}
