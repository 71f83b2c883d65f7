package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/meshvault/backend/internal/middleware"
	"github.com/meshvault/backend/internal/models"
	"github.com/meshvault/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	modelRepository   repositories.ModelRepository
	userRepository    repositories.UserRepository
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, modelRepo repositories.ModelRepository, userRepo repositories.UserRepository) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		modelRepository:   modelRepo,
		userRepository:    userRepo,
	}
}

// RegisterCommentRoutes registers comment-related routes, including the
// nested routes under models
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("/models/:modelId/comments", h.GetCommentsByModelID)
	g.POST("/models/:modelId/comments", h.AddComment, auth)

	g.GET("/comments", h.GetComments)
	g.GET("/comments/:id", h.GetComment)
	g.PUT("/comments/:id", h.UpdateComment, auth)
	g.DELETE("/comments/:id", h.DeleteComment, auth)
	g.POST("/comments/:id/like", h.LikeComment, auth)
	g.DELETE("/comments/:id/like", h.UnlikeComment, auth)
	g.POST("/comments/:id/reply", h.AddReply, auth)
}

// GetComments retrieves all comments with pagination
func (h *CommentHandler) GetComments(c echo.Context) error {
	ctx := c.Request().Context()

	comments, err := h.commentRepository.List(ctx, parseListOptions(c))
	if err != nil {
		return err
	}
	populated, err := populateComments(ctx, h.commentRepository, h.userRepository, comments, false)
	if err != nil {
		return err
	}
	return respondCollection(c, populated, len(populated))
}

// GetCommentsByModelID retrieves a model's top-level comments with their
// replies resolved
func (h *CommentHandler) GetCommentsByModelID(c echo.Context) error {
	ctx := c.Request().Context()
	modelID, err := parseObjectID(c, "modelId")
	if err != nil {
		return err
	}

	comments, err := h.commentRepository.ListTopLevelByModelID(ctx, modelID)
	if err != nil {
		return err
	}
	populated, err := populateComments(ctx, h.commentRepository, h.userRepository, comments, true)
	if err != nil {
		return err
	}
	return respondCollection(c, populated, len(populated))
}

// GetComment retrieves a comment by ID with its owner and replies resolved
func (h *CommentHandler) GetComment(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	comment, err := h.commentRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Comment not found")
	}
	populated, err := populateComment(ctx, h.commentRepository, h.userRepository, comment, true)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, populated)
}

// AddComment creates a new comment on a model
func (h *CommentHandler) AddComment(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	modelID, err := parseObjectID(c, "modelId")
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	// Verify model exists
	if _, err := h.modelRepository.GetByID(ctx, modelID); err != nil {
		return notFound(err, "Model not found")
	}

	comment := &models.Comment{
		Text:  req.Text,
		User:  user.ID,
		Model: modelID,
	}
	if err := h.commentRepository.Create(ctx, comment); err != nil {
		return err
	}
	return respondData(c, http.StatusCreated, comment)
}

// UpdateComment updates an existing comment
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	comment, err := h.commentRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Comment not found")
	}

	// Make sure comment belongs to user or user is admin
	if !middleware.CanMutate(user, comment.User) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to update comment")
	}

	if err := h.commentRepository.Update(ctx, id, bson.M{"text": req.Text}); err != nil {
		return notFound(err, "Comment not found")
	}

	comment, err = h.commentRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Comment not found")
	}
	populated, err := populateComment(ctx, h.commentRepository, h.userRepository, comment, false)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, populated)
}

// DeleteComment deletes a comment and all of its replies
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	comment, err := h.commentRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Comment not found")
	}

	// Make sure comment belongs to user or user is admin
	if !middleware.CanMutate(user, comment.User) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to delete comment")
	}

	if err := h.commentRepository.DeleteByParentID(ctx, id); err != nil {
		return err
	}
	if err := h.commentRepository.Delete(ctx, id); err != nil {
		return notFound(err, "Comment not found")
	}
	return respondData(c, http.StatusOK, map[string]interface{}{})
}

// LikeComment adds the caller to a comment's likes list
func (h *CommentHandler) LikeComment(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	comment, err := h.commentRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Comment not found")
	}
	if comment.HasLike(user.ID) {
		return echo.NewHTTPError(http.StatusBadRequest, "You have already liked this comment")
	}

	if err := h.commentRepository.AddLike(ctx, id, user.ID); err != nil {
		return notFound(err, "Comment not found")
	}
	comment, err = h.commentRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Comment not found")
	}
	return respondData(c, http.StatusOK, comment)
}

// UnlikeComment removes the caller from a comment's likes list
func (h *CommentHandler) UnlikeComment(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	comment, err := h.commentRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Comment not found")
	}
	if !comment.HasLike(user.ID) {
		return echo.NewHTTPError(http.StatusBadRequest, "You have not liked this comment")
	}

	if err := h.commentRepository.RemoveLike(ctx, id, user.ID); err != nil {
		return notFound(err, "Comment not found")
	}
	comment, err = h.commentRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Comment not found")
	}
	return respondData(c, http.StatusOK, comment)
}

// AddReply creates a reply to an existing comment. The reply targets the
// parent's model; replies cannot themselves be replied to.
func (h *CommentHandler) AddReply(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	parent, err := h.commentRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Comment not found")
	}

	reply := &models.Comment{
		Text:   req.Text,
		User:   user.ID,
		Model:  parent.Model,
		Parent: &parent.ID,
	}
	if err := h.commentRepository.Create(ctx, reply); err != nil {
		return err
	}

	populated, err := populateComment(ctx, h.commentRepository, h.userRepository, reply, false)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusCreated, populated)
}
