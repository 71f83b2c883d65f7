package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gosimple/slug"
	"github.com/labstack/echo/v4"
	"github.com/meshvault/backend/internal/middleware"
	"github.com/meshvault/backend/internal/models"
	"github.com/meshvault/backend/internal/repositories"
	"github.com/meshvault/backend/pkg/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TutorialHandler handles HTTP requests related to tutorials
type TutorialHandler struct {
	tutorialRepository repositories.TutorialRepository
	modelRepository    repositories.ModelRepository
	commentRepository  repositories.CommentRepository
	userRepository     repositories.UserRepository
	store              storage.FileStore
	maxFileUpload      int64
}

// NewTutorialHandler creates a new TutorialHandler
func NewTutorialHandler(tutorialRepo repositories.TutorialRepository, modelRepo repositories.ModelRepository, commentRepo repositories.CommentRepository, userRepo repositories.UserRepository, store storage.FileStore, maxFileUpload int64) *TutorialHandler {
	return &TutorialHandler{
		tutorialRepository: tutorialRepo,
		modelRepository:    modelRepo,
		commentRepository:  commentRepo,
		userRepository:     userRepo,
		store:              store,
		maxFileUpload:      maxFileUpload,
	}
}

// RegisterTutorialRoutes registers tutorial-related routes
func (h *TutorialHandler) RegisterTutorialRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	// Public routes
	g.GET("/tutorials", h.GetTutorials)
	g.GET("/tutorials/featured", h.GetFeaturedTutorials)
	g.GET("/tutorials/category/:category", h.GetTutorialsByCategory)
	g.GET("/tutorials/difficulty/:difficulty", h.GetTutorialsByDifficulty)
	g.GET("/tutorials/tag/:tag", h.GetTutorialsByTag)
	g.GET("/tutorials/:id", h.GetTutorial)
	g.PUT("/tutorials/:id/view", h.IncrementViewCount)

	// Protected routes
	g.POST("/tutorials", h.CreateTutorial, auth)
	g.PUT("/tutorials/:id", h.UpdateTutorial, auth)
	g.DELETE("/tutorials/:id", h.DeleteTutorial, auth)
	g.POST("/tutorials/:id/thumbnail", h.UploadTutorialThumbnail, auth)
}

// GetTutorials retrieves all tutorials with pagination and populated owners
func (h *TutorialHandler) GetTutorials(c echo.Context) error {
	ctx := c.Request().Context()

	list, err := h.tutorialRepository.List(ctx, parseListOptions(c))
	if err != nil {
		return err
	}
	populated, err := tutorialsWithOwners(ctx, h.userRepository, list)
	if err != nil {
		return err
	}
	return respondCollection(c, populated, len(populated))
}

// GetFeaturedTutorials retrieves all featured, published tutorials
func (h *TutorialHandler) GetFeaturedTutorials(c echo.Context) error {
	ctx := c.Request().Context()

	list, err := h.tutorialRepository.ListFeatured(ctx)
	if err != nil {
		return err
	}
	populated, err := tutorialsWithOwners(ctx, h.userRepository, list)
	if err != nil {
		return err
	}
	return respondCollection(c, populated, len(populated))
}

// GetTutorialsByCategory retrieves all published tutorials in a category
func (h *TutorialHandler) GetTutorialsByCategory(c echo.Context) error {
	ctx := c.Request().Context()

	list, err := h.tutorialRepository.ListByCategory(ctx, c.Param("category"))
	if err != nil {
		return err
	}
	populated, err := tutorialsWithOwners(ctx, h.userRepository, list)
	if err != nil {
		return err
	}
	return respondCollection(c, populated, len(populated))
}

// GetTutorialsByDifficulty retrieves all published tutorials at a difficulty
func (h *TutorialHandler) GetTutorialsByDifficulty(c echo.Context) error {
	ctx := c.Request().Context()

	list, err := h.tutorialRepository.ListByDifficulty(ctx, c.Param("difficulty"))
	if err != nil {
		return err
	}
	populated, err := tutorialsWithOwners(ctx, h.userRepository, list)
	if err != nil {
		return err
	}
	return respondCollection(c, populated, len(populated))
}

// GetTutorialsByTag retrieves all published tutorials carrying a tag
func (h *TutorialHandler) GetTutorialsByTag(c echo.Context) error {
	ctx := c.Request().Context()

	list, err := h.tutorialRepository.ListByTag(ctx, c.Param("tag"))
	if err != nil {
		return err
	}
	populated, err := tutorialsWithOwners(ctx, h.userRepository, list)
	if err != nil {
		return err
	}
	return respondCollection(c, populated, len(populated))
}

// GetTutorial retrieves a tutorial by ID with its owner, related models and
// comments resolved
func (h *TutorialHandler) GetTutorial(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	tutorial, err := h.tutorialRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Tutorial not found")
	}

	users, err := h.userRepository.GetPublicByIDs(ctx, []primitive.ObjectID{tutorial.User})
	if err != nil {
		return err
	}

	related, err := h.modelRepository.GetByIDs(ctx, tutorial.RelatedModels)
	if err != nil {
		return err
	}

	comments, err := h.commentRepository.ListByTutorialID(ctx, tutorial.ID)
	if err != nil {
		return err
	}
	populatedComments, err := populateComments(ctx, h.commentRepository, h.userRepository, comments, false)
	if err != nil {
		return err
	}

	return respondData(c, http.StatusOK, models.PopulatedTutorial{
		Tutorial:      *tutorial,
		User:          users[tutorial.User],
		RelatedModels: related,
		Comments:      populatedComments,
	})
}

// CreateTutorial creates a new tutorial. Restricted to creators and admins.
func (h *TutorialHandler) CreateTutorial(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	// Check if user is admin or creator
	if user.Role != models.RoleAdmin && user.Role != models.RoleCreator {
		return echo.NewHTTPError(http.StatusForbidden, "User role "+user.Role+" is not authorized to create a tutorial")
	}

	var req models.CreateTutorialRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	related, err := parseObjectIDList(req.RelatedModels)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid related model id")
	}

	thumbnail := req.Thumbnail
	if thumbnail == "" {
		thumbnail = "no-thumbnail.jpg"
	}
	published := true
	if req.Published != nil {
		published = *req.Published
	}

	tutorial := &models.Tutorial{
		Title:         req.Title,
		Slug:          slug.Make(req.Title),
		Description:   req.Description,
		Content:       req.Content,
		Thumbnail:     thumbnail,
		Category:      req.Category,
		Tags:          req.Tags,
		Difficulty:    req.Difficulty,
		Duration:      req.Duration,
		RelatedModels: related,
		User:          user.ID,
		Published:     published,
		CreatedAt:     time.Now(),
	}
	if err := h.tutorialRepository.Create(ctx, tutorial); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusBadRequest, "A tutorial with that title already exists")
		}
		return err
	}
	return respondData(c, http.StatusCreated, tutorial)
}

// UpdateTutorial applies a partial update to a tutorial
func (h *TutorialHandler) UpdateTutorial(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateTutorialRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tutorial, err := h.tutorialRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Tutorial not found")
	}

	// Make sure user is tutorial owner or admin
	if !middleware.CanMutate(user, tutorial.User) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to update this tutorial")
	}

	update := bson.M{}
	if req.Title != "" {
		update["title"] = req.Title
		update["slug"] = slug.Make(req.Title)
	}
	if req.Description != "" {
		update["description"] = req.Description
	}
	if req.Content != "" {
		update["content"] = req.Content
	}
	if req.Thumbnail != "" {
		update["thumbnail"] = req.Thumbnail
	}
	if req.Category != "" {
		update["category"] = req.Category
	}
	if req.Tags != nil {
		update["tags"] = req.Tags
	}
	if req.Difficulty != "" {
		update["difficulty"] = req.Difficulty
	}
	if req.Duration != nil {
		update["duration"] = *req.Duration
	}
	if req.RelatedModels != nil {
		related, err := parseObjectIDList(req.RelatedModels)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid related model id")
		}
		update["relatedModels"] = related
	}
	if req.Featured != nil {
		update["featured"] = *req.Featured
	}
	if req.Published != nil {
		update["published"] = *req.Published
	}

	if len(update) > 0 {
		if err := h.tutorialRepository.Update(ctx, id, update); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return echo.NewHTTPError(http.StatusBadRequest, "A tutorial with that title already exists")
			}
			return notFound(err, "Tutorial not found")
		}
	}

	tutorial, err = h.tutorialRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Tutorial not found")
	}
	return respondData(c, http.StatusOK, tutorial)
}

// DeleteTutorial deletes a tutorial after cascading delete of its comments
func (h *TutorialHandler) DeleteTutorial(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	tutorial, err := h.tutorialRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Tutorial not found")
	}

	// Make sure user is tutorial owner or admin
	if !middleware.CanMutate(user, tutorial.User) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to delete this tutorial")
	}

	if err := h.commentRepository.DeleteByTutorialID(ctx, id); err != nil {
		return err
	}
	if err := h.tutorialRepository.Delete(ctx, id); err != nil {
		return notFound(err, "Tutorial not found")
	}
	return respondData(c, http.StatusOK, map[string]interface{}{})
}

// UploadTutorialThumbnail validates and stores a thumbnail image
func (h *TutorialHandler) UploadTutorialThumbnail(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	tutorial, err := h.tutorialRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Tutorial not found")
	}
	if !middleware.CanMutate(user, tutorial.User) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to update this tutorial")
	}

	file, err := requireFile(c)
	if err != nil {
		return err
	}
	ext, err := validateImageFile(file, h.maxFileUpload)
	if err != nil {
		return err
	}

	name := "tutorial_" + tutorial.ID.Hex() + ext
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	if err := h.store.Save(ctx, "tutorials", name, src); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Problem with file upload")
	}

	if err := h.tutorialRepository.Update(ctx, id, bson.M{"thumbnail": name}); err != nil {
		return err
	}
	return respondData(c, http.StatusOK, name)
}

// IncrementViewCount increments the view counter and returns the new value
func (h *TutorialHandler) IncrementViewCount(c echo.Context) error {
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	count, err := h.tutorialRepository.IncrementViewCount(c.Request().Context(), id)
	if err != nil {
		return notFound(err, "Tutorial not found")
	}
	return respondData(c, http.StatusOK, map[string]int{"viewCount": count})
}

func parseObjectIDList(hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, hex := range hexes {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
