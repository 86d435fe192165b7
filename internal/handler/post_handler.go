package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/alumni-survey-api/internal/authz"
	"github.com/noah-isme/alumni-survey-api/internal/models"
	"github.com/noah-isme/alumni-survey-api/internal/service"
	"github.com/noah-isme/alumni-survey-api/pkg/response"
)

type postService interface {
	List(ctx context.Context, ac *authz.Context) ([]models.Post, error)
	Get(ctx context.Context, ac *authz.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, req service.CreatePostRequest) (*models.Post, error)
	Update(ctx context.Context, ac *authz.Context, id int64, req service.UpdatePostRequest) (*models.Post, error)
	Delete(ctx context.Context, ac *authz.Context, id int64) error
	ListComments(ctx context.Context, postID *int64) ([]models.Comment, error)
	GetComment(ctx context.Context, postID, commentID int64) (*models.Comment, error)
	CreateComment(ctx context.Context, ac *authz.Context, postID int64, req service.CreateCommentRequest) (*models.Comment, error)
	DeleteComment(ctx context.Context, ac *authz.Context, postID, commentID int64, bodyAuthorID string) error
	ToggleLike(ctx context.Context, ac *authz.Context, postID int64, req service.LikeToggleRequest) (*service.LikeResult, error)
}

// PostHandler exposes the alumni board: posts, comments and likes.
type PostHandler struct {
	service postService
}

// NewPostHandler constructs a post handler.
func NewPostHandler(svc postService) *PostHandler {
	return &PostHandler{service: svc}
}

// List godoc
// @Summary List posts
// @Description Newest first, with comment and like counts and the requester's like state.
// @Tags Posts
// @Produce json
// @Success 200 {array} models.Post
// @Router /posts/ [get]
func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.service.List(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts)
}

// Create godoc
// @Summary Create post
// @Tags Posts
// @Accept json
// @Produce json
// @Param payload body service.CreatePostRequest true "Post payload"
// @Success 201 {object} models.Post
// @Failure 400 {object} response.ErrorBody
// @Router /posts/ [post]
func (h *PostHandler) Create(c *gin.Context) {
	var req service.CreatePostRequest
	if err := bindBody(c, &req, "invalid post payload"); err != nil {
		response.Error(c, err)
		return
	}
	post, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}

// Get godoc
// @Summary Get post
// @Tags Posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} response.ErrorBody
// @Router /posts/{id}/ [get]
func (h *PostHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	post, err := h.service.Get(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, post)
}

// Update godoc
// @Summary Update post
// @Description Program heads may only change the status.
// @Tags Posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param payload body service.UpdatePostRequest true "Partial post"
// @Success 200 {object} models.Post
// @Failure 403 {object} response.ErrorBody
// @Router /posts/{id}/ [patch]
func (h *PostHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdatePostRequest
	if err := bindBody(c, &req, "invalid post payload"); err != nil {
		response.Error(c, err)
		return
	}
	post, err := h.service.Update(c.Request.Context(), actorFromContext(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, post)
}

// Delete godoc
// @Summary Delete post
// @Tags Posts
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} response.ErrorBody
// @Router /posts/{id}/ [delete]
func (h *PostHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListComments godoc
// @Summary List comments of a post
// @Tags Comments
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} models.Comment
// @Router /posts/{id}/comments/ [get]
func (h *PostHandler) ListComments(c *gin.Context) {
	postID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	comments, err := h.service.ListComments(c.Request.Context(), &postID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comments)
}

// CreateComment godoc
// @Summary Comment on a post
// @Description A verified token overrides author_id and author_name.
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param payload body service.CreateCommentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} response.ErrorBody
// @Router /posts/{id}/comments/ [post]
func (h *PostHandler) CreateComment(c *gin.Context) {
	postID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.CreateCommentRequest
	if err := bindBody(c, &req, "invalid comment payload"); err != nil {
		response.Error(c, err)
		return
	}
	comment, err := h.service.CreateComment(c.Request.Context(), actorFromContext(c), postID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// GetComment godoc
// @Summary Get comment
// @Tags Comments
// @Produce json
// @Param id path int true "Post ID"
// @Param cid path int true "Comment ID"
// @Success 200 {object} models.Comment
// @Failure 404 {object} response.ErrorBody
// @Router /posts/{id}/comments/{cid}/ [get]
func (h *PostHandler) GetComment(c *gin.Context) {
	postID, commentID, err := commentPath(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	comment, err := h.service.GetComment(c.Request.Context(), postID, commentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, comment)
}

// DeleteComment godoc
// @Summary Delete comment
// @Description Allowed for the verified author, an admin, or a body author_id matching the stored author.
// @Tags Comments
// @Param id path int true "Post ID"
// @Param cid path int true "Comment ID"
// @Success 204
// @Failure 403 {object} response.ErrorBody
// @Router /posts/{id}/comments/{cid}/ [delete]
func (h *PostHandler) DeleteComment(c *gin.Context) {
	postID, commentID, err := commentPath(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var body struct {
		AuthorID json.RawMessage `json:"author_id"`
	}
	_ = bindBody(c, &body, "")

	if err := h.service.DeleteComment(c.Request.Context(), actorFromContext(c), postID, commentID, scalarString(body.AuthorID)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ToggleLike godoc
// @Summary Like or unlike a post
// @Description Answers 201 when the post ends up liked and 200 when unliked.
// @Tags Likes
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param payload body service.LikeToggleRequest false "Fallback user"
// @Success 200 {object} service.LikeResult
// @Success 201 {object} service.LikeResult
// @Failure 401 {object} response.ErrorBody
// @Router /posts/{id}/likes/toggle/ [post]
func (h *PostHandler) ToggleLike(c *gin.Context) {
	postID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.LikeToggleRequest
	if err := bindBody(c, &req, "invalid like payload"); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.ToggleLike(c.Request.Context(), actorFromContext(c), postID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if result.Liked {
		status = http.StatusCreated
	}
	response.JSON(c, status, result)
}

func commentPath(c *gin.Context) (int64, int64, error) {
	postID, err := pathID(c, "id")
	if err != nil {
		return 0, 0, err
	}
	commentID, err := pathID(c, "cid")
	if err != nil {
		return 0, 0, err
	}
	return postID, commentID, nil
}

// scalarString renders a JSON number or string as text. Anything else is "".
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
