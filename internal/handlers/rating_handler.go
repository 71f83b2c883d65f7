package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/meshvault/backend/internal/middleware"
	"github.com/meshvault/backend/internal/models"
	"github.com/meshvault/backend/internal/repositories"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
)

// RatingHandler handles HTTP requests related to ratings
type RatingHandler struct {
	ratingRepository repositories.RatingRepository
	modelRepository  repositories.ModelRepository
	userRepository   repositories.UserRepository
	log              zerolog.Logger
}

// NewRatingHandler creates a new RatingHandler
func NewRatingHandler(ratingRepo repositories.RatingRepository, modelRepo repositories.ModelRepository, userRepo repositories.UserRepository, log zerolog.Logger) *RatingHandler {
	return &RatingHandler{
		ratingRepository: ratingRepo,
		modelRepository:  modelRepo,
		userRepository:   userRepo,
		log:              log,
	}
}

// RegisterRatingRoutes registers rating-related routes, including the nested
// routes under models
func (h *RatingHandler) RegisterRatingRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("/models/:modelId/ratings", h.GetRatingsByModelID)
	g.POST("/models/:modelId/ratings", h.AddRating, auth)

	g.GET("/ratings", h.GetRatings)
	g.GET("/ratings/:id", h.GetRating)
	g.PUT("/ratings/:id", h.UpdateRating, auth)
	g.DELETE("/ratings/:id", h.DeleteRating, auth)
}

// GetRatings retrieves all ratings with pagination
func (h *RatingHandler) GetRatings(c echo.Context) error {
	ctx := c.Request().Context()

	ratings, err := h.ratingRepository.List(ctx, parseListOptions(c))
	if err != nil {
		return err
	}
	populated, err := populateRatings(ctx, h.userRepository, ratings)
	if err != nil {
		return err
	}
	return respondCollection(c, populated, len(populated))
}

// GetRatingsByModelID retrieves all ratings for a model
func (h *RatingHandler) GetRatingsByModelID(c echo.Context) error {
	ctx := c.Request().Context()
	modelID, err := parseObjectID(c, "modelId")
	if err != nil {
		return err
	}

	ratings, err := h.ratingRepository.ListByModelID(ctx, modelID)
	if err != nil {
		return err
	}
	populated, err := populateRatings(ctx, h.userRepository, ratings)
	if err != nil {
		return err
	}
	return respondCollection(c, populated, len(populated))
}

// GetRating retrieves a rating by ID with its owner resolved
func (h *RatingHandler) GetRating(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	rating, err := h.ratingRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Rating not found")
	}
	populated, err := populateRatings(ctx, h.userRepository, []models.Rating{*rating})
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, populated[0])
}

// AddRating creates a new rating on a model and recomputes the model's
// average rating. A user may rate a model at most once.
func (h *RatingHandler) AddRating(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	modelID, err := parseObjectID(c, "modelId")
	if err != nil {
		return err
	}

	var req models.CreateRatingRequest
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

	// Check if user has already rated this model
	if _, err := h.ratingRepository.FindByUserAndModel(ctx, user.ID, modelID); err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "You have already rated this model")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	rating := &models.Rating{
		Rating: req.Rating,
		Review: req.Review,
		User:   user.ID,
		Model:  modelID,
	}
	if err := h.ratingRepository.Create(ctx, rating); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusBadRequest, "You have already rated this model")
		}
		return err
	}

	if err := h.ratingRepository.RecalculateAverage(ctx, modelID); err != nil {
		h.log.Error().Err(err).Str("model", modelID.Hex()).Msg("failed to recalculate average rating")
	}

	return respondData(c, http.StatusCreated, rating)
}

// UpdateRating updates an existing rating. The model's average rating is not
// recomputed here; only create and delete trigger the recompute.
func (h *RatingHandler) UpdateRating(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateRatingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	rating, err := h.ratingRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Rating not found")
	}

	// Make sure rating belongs to user or user is admin
	if !middleware.CanMutate(user, rating.User) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to update rating")
	}

	update := bson.M{}
	if req.Rating != 0 {
		update["rating"] = req.Rating
	}
	if req.Review != "" {
		update["review"] = req.Review
	}
	if len(update) > 0 {
		if err := h.ratingRepository.Update(ctx, id, update); err != nil {
			return notFound(err, "Rating not found")
		}
	}

	rating, err = h.ratingRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Rating not found")
	}
	populated, err := populateRatings(ctx, h.userRepository, []models.Rating{*rating})
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, populated[0])
}

// DeleteRating deletes a rating and recomputes the model's average rating
func (h *RatingHandler) DeleteRating(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	rating, err := h.ratingRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Rating not found")
	}

	// Make sure rating belongs to user or user is admin
	if !middleware.CanMutate(user, rating.User) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to delete rating")
	}

	if err := h.ratingRepository.Delete(ctx, id); err != nil {
		return notFound(err, "Rating not found")
	}

	if err := h.ratingRepository.RecalculateAverage(ctx, rating.Model); err != nil {
		h.log.Error().Err(err).Str("model", rating.Model.Hex()).Msg("failed to recalculate average rating")
	}

	return respondData(c, http.StatusOK, map[string]interface{}{})
}
