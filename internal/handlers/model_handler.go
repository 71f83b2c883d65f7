package handlers

import (
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

// ModelHandler handles HTTP requests related to 3D models
type ModelHandler struct {
	modelRepository   repositories.ModelRepository
	commentRepository repositories.CommentRepository
	ratingRepository  repositories.RatingRepository
	userRepository    repositories.UserRepository
	store             storage.FileStore
	maxFileUpload     int64
}

// NewModelHandler creates a new ModelHandler
func NewModelHandler(modelRepo repositories.ModelRepository, commentRepo repositories.CommentRepository, ratingRepo repositories.RatingRepository, userRepo repositories.UserRepository, store storage.FileStore, maxFileUpload int64) *ModelHandler {
	return &ModelHandler{
		modelRepository:   modelRepo,
		commentRepository: commentRepo,
		ratingRepository:  ratingRepo,
		userRepository:    userRepo,
		store:             store,
		maxFileUpload:     maxFileUpload,
	}
}

// RegisterModelRoutes registers model-related routes
func (h *ModelHandler) RegisterModelRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	// Public routes
	g.GET("/models", h.GetModels)
	g.GET("/models/featured", h.GetFeaturedModels)
	g.GET("/models/category/:category", h.GetModelsByCategory)
	g.GET("/models/tag/:tag", h.GetModelsByTag)
	g.GET("/models/:id", h.GetModel)
	g.PUT("/models/:id/view", h.IncrementViewCount)

	// Protected routes
	g.POST("/models", h.CreateModel, auth)
	g.PUT("/models/:id", h.UpdateModel, auth)
	g.DELETE("/models/:id", h.DeleteModel, auth)
	g.POST("/models/:id/upload", h.UploadModelFile, auth)
	g.POST("/models/:id/thumbnail", h.UploadModelThumbnail, auth)
	g.PUT("/models/:id/download", h.IncrementDownloadCount, auth)
}

// GetModels retrieves all models with pagination and populated owners
func (h *ModelHandler) GetModels(c echo.Context) error {
	ctx := c.Request().Context()

	list, err := h.modelRepository.List(ctx, parseListOptions(c))
	if err != nil {
		return err
	}
	populated, err := modelsWithOwners(ctx, h.userRepository, list)
	if err != nil {
		return err
	}
	return respondCollection(c, populated, len(populated))
}

// GetFeaturedModels retrieves all featured models
func (h *ModelHandler) GetFeaturedModels(c echo.Context) error {
	ctx := c.Request().Context()

	list, err := h.modelRepository.ListFeatured(ctx)
	if err != nil {
		return err
	}
	populated, err := modelsWithOwners(ctx, h.userRepository, list)
	if err != nil {
		return err
	}
	return respondCollection(c, populated, len(populated))
}

// GetModelsByCategory retrieves all models in a category
func (h *ModelHandler) GetModelsByCategory(c echo.Context) error {
	ctx := c.Request().Context()

	list, err := h.modelRepository.ListByCategory(ctx, c.Param("category"))
	if err != nil {
		return err
	}
	populated, err := modelsWithOwners(ctx, h.userRepository, list)
	if err != nil {
		return err
	}
	return respondCollection(c, populated, len(populated))
}

// GetModelsByTag retrieves all models carrying a tag
func (h *ModelHandler) GetModelsByTag(c echo.Context) error {
	ctx := c.Request().Context()

	list, err := h.modelRepository.ListByTag(ctx, c.Param("tag"))
	if err != nil {
		return err
	}
	populated, err := modelsWithOwners(ctx, h.userRepository, list)
	if err != nil {
		return err
	}
	return respondCollection(c, populated, len(populated))
}

// GetModel retrieves a model by ID with owner, comments and ratings resolved
func (h *ModelHandler) GetModel(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	model, err := h.modelRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Model not found")
	}

	users, err := h.userRepository.GetPublicByIDs(ctx, []primitive.ObjectID{model.User})
	if err != nil {
		return err
	}

	comments, err := h.commentRepository.ListTopLevelByModelID(ctx, model.ID)
	if err != nil {
		return err
	}
	populatedComments, err := populateComments(ctx, h.commentRepository, h.userRepository, comments, true)
	if err != nil {
		return err
	}

	ratings, err := h.ratingRepository.ListByModelID(ctx, model.ID)
	if err != nil {
		return err
	}
	populatedRatings, err := populateRatings(ctx, h.userRepository, ratings)
	if err != nil {
		return err
	}

	return respondData(c, http.StatusOK, models.PopulatedModel{
		Model:    *model,
		User:     users[model.User],
		Comments: populatedComments,
		Ratings:  populatedRatings,
	})
}

// CreateModel creates a new model owned by the caller
func (h *ModelHandler) CreateModel(c echo.Context) error {
	user := middleware.CurrentUser(c)

	var req models.CreateModelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	thumbnail := req.Thumbnail
	if thumbnail == "" {
		thumbnail = "no-thumbnail.jpg"
	}

	model := &models.Model{
		Name:         req.Name,
		Slug:         slug.Make(req.Name),
		Description:  req.Description,
		FilePath:     req.FilePath,
		FileFormat:   req.FileFormat,
		Thumbnail:    thumbnail,
		Category:     req.Category,
		Tags:         req.Tags,
		PolygonCount: req.PolygonCount,
		Textured:     req.Textured,
		Animated:     req.Animated,
		Rigged:       req.Rigged,
		User:         user.ID,
		CreatedAt:    time.Now(),
	}
	if err := h.modelRepository.Create(c.Request().Context(), model); err != nil {
		return err
	}

	return respondData(c, http.StatusCreated, model)
}

// UpdateModel applies a partial update to a model
func (h *ModelHandler) UpdateModel(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateModelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	model, err := h.modelRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Model not found")
	}

	// Make sure user is model owner or admin
	if !middleware.CanMutate(user, model.User) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to update this model")
	}

	update := bson.M{}
	if req.Name != "" {
		update["name"] = req.Name
		update["slug"] = slug.Make(req.Name)
	}
	if req.Description != "" {
		update["description"] = req.Description
	}
	if req.FilePath != "" {
		update["filePath"] = req.FilePath
	}
	if req.FileFormat != "" {
		update["fileFormat"] = req.FileFormat
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
	if req.PolygonCount != nil {
		update["polygonCount"] = *req.PolygonCount
	}
	if req.Textured != nil {
		update["textured"] = *req.Textured
	}
	if req.Animated != nil {
		update["animated"] = *req.Animated
	}
	if req.Rigged != nil {
		update["rigged"] = *req.Rigged
	}
	if req.Featured != nil {
		update["featured"] = *req.Featured
	}

	if len(update) > 0 {
		if err := h.modelRepository.Update(ctx, id, update); err != nil {
			return notFound(err, "Model not found")
		}
	}

	model, err = h.modelRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Model not found")
	}
	return respondData(c, http.StatusOK, model)
}

// DeleteModel deletes a model after cascading deletes of its comments and
// ratings. The three operations are sequential, not transactional.
func (h *ModelHandler) DeleteModel(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	model, err := h.modelRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Model not found")
	}

	// Make sure user is model owner or admin
	if !middleware.CanMutate(user, model.User) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to delete this model")
	}

	if err := h.commentRepository.DeleteByModelID(ctx, id); err != nil {
		return err
	}
	if err := h.ratingRepository.DeleteByModelID(ctx, id); err != nil {
		return err
	}
	if err := h.modelRepository.Delete(ctx, id); err != nil {
		return notFound(err, "Model not found")
	}

	return respondData(c, http.StatusOK, map[string]interface{}{})
}

// UploadModelFile validates and stores a 3D model file for an existing model
func (h *ModelHandler) UploadModelFile(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	model, err := h.modelRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Model not found")
	}
	if !middleware.CanMutate(user, model.User) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to update this model")
	}

	file, err := requireFile(c)
	if err != nil {
		return err
	}
	ext, err := validateModelFile(file, h.maxFileUpload)
	if err != nil {
		return err
	}

	name := "model_" + model.ID.Hex() + ext
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	if err := h.store.Save(ctx, "models", name, src); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Problem with file upload")
	}

	if err := h.modelRepository.Update(ctx, id, bson.M{"filePath": name, "fileFormat": ext[1:]}); err != nil {
		return err
	}
	return respondData(c, http.StatusOK, name)
}

// UploadModelThumbnail validates and stores a thumbnail image for a model
func (h *ModelHandler) UploadModelThumbnail(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	model, err := h.modelRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Model not found")
	}
	if !middleware.CanMutate(user, model.User) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to update this model")
	}

	file, err := requireFile(c)
	if err != nil {
		return err
	}
	ext, err := validateImageFile(file, h.maxFileUpload)
	if err != nil {
		return err
	}

	name := "thumbnail_" + model.ID.Hex() + ext
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	if err := h.store.Save(ctx, "thumbnails", name, src); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Problem with file upload")
	}

	if err := h.modelRepository.Update(ctx, id, bson.M{"thumbnail": name}); err != nil {
		return err
	}
	return respondData(c, http.StatusOK, name)
}

// IncrementDownloadCount increments the download counter and returns the new
// value. Requires authentication only, no ownership check.
func (h *ModelHandler) IncrementDownloadCount(c echo.Context) error {
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	count, err := h.modelRepository.IncrementDownloadCount(c.Request().Context(), id)
	if err != nil {
		return notFound(err, "Model not found")
	}
	return respondData(c, http.StatusOK, map[string]int{"downloadCount": count})
}

// IncrementViewCount increments the view counter and returns the new value
func (h *ModelHandler) IncrementViewCount(c echo.Context) error {
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	count, err := h.modelRepository.IncrementViewCount(c.Request().Context(), id)
	if err != nil {
		return notFound(err, "Model not found")
	}
	return respondData(c, http.StatusOK, map[string]int{"viewCount": count})
}
