package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/meshvault/backend/internal/middleware"
	"github.com/meshvault/backend/internal/models"
	"github.com/meshvault/backend/internal/repositories"
	"github.com/meshvault/backend/pkg/storage"
	"go.mongodb.org/mongo-driver/bson"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository  repositories.UserRepository
	modelRepository repositories.ModelRepository
	store           storage.FileStore
	maxFileUpload   int64
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, modelRepo repositories.ModelRepository, store storage.FileStore, maxFileUpload int64) *UserHandler {
	return &UserHandler{
		userRepository:  userRepo,
		modelRepository: modelRepo,
		store:           store,
		maxFileUpload:   maxFileUpload,
	}
}

// RegisterUserRoutes registers user-related routes. All of them require
// authentication; the collection-level routes are admin only.
func (h *UserHandler) RegisterUserRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.POST("/users/avatar", h.UploadAvatar, auth)
	g.GET("/users/favorites", h.GetFavorites, auth)
	g.POST("/users/favorites/:modelId", h.AddFavorite, auth)
	g.DELETE("/users/favorites/:modelId", h.RemoveFavorite, auth)
	g.PUT("/users/preferences", h.UpdatePreferences, auth)

	admin := middleware.RequireRoles(models.RoleAdmin)
	g.GET("/users", h.GetUsers, auth, admin)
	g.GET("/users/:id", h.GetUser, auth, admin)
	g.PUT("/users/:id", h.UpdateUser, auth, admin)
	g.DELETE("/users/:id", h.DeleteUser, auth, admin)
}

// GetUsers retrieves all users with pagination. Admin only.
func (h *UserHandler) GetUsers(c echo.Context) error {
	users, err := h.userRepository.List(c.Request().Context(), parseListOptions(c))
	if err != nil {
		return err
	}
	return respondCollection(c, users, len(users))
}

// GetUser retrieves a user by ID. Admin only.
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	user, err := h.userRepository.GetByID(c.Request().Context(), id)
	if err != nil {
		return notFound(err, "User not found")
	}
	return respondData(c, http.StatusOK, user)
}

// UpdateUser updates a user's name, email or role. Admin only.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	update := bson.M{}
	if req.Name != "" {
		update["name"] = req.Name
	}
	if req.Email != "" {
		update["email"] = req.Email
	}
	if req.Role != "" {
		update["role"] = req.Role
	}
	if len(update) > 0 {
		if err := h.userRepository.Update(ctx, id, update); err != nil {
			return notFound(err, "User not found")
		}
	}

	user, err := h.userRepository.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "User not found")
	}
	return respondData(c, http.StatusOK, user)
}

// DeleteUser deletes a user. Admin only.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	if err := h.userRepository.Delete(c.Request().Context(), id); err != nil {
		return notFound(err, "User not found")
	}
	return respondData(c, http.StatusOK, map[string]interface{}{})
}

// UploadAvatar validates and stores the caller's avatar image
func (h *UserHandler) UploadAvatar(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	file, err := requireFile(c)
	if err != nil {
		return err
	}
	ext, err := validateImageFile(file, h.maxFileUpload)
	if err != nil {
		return err
	}

	name := "avatar_" + user.ID.Hex() + ext
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	if err := h.store.Save(ctx, "avatars", name, src); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Problem with file upload")
	}

	if err := h.userRepository.Update(ctx, user.ID, bson.M{"avatar": name}); err != nil {
		return err
	}
	return respondData(c, http.StatusOK, name)
}

// GetFavorites retrieves the caller's favorited models
func (h *UserHandler) GetFavorites(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	favorites, err := h.modelRepository.GetByIDs(ctx, user.Favorites)
	if err != nil {
		return err
	}
	return respondCollection(c, favorites, len(favorites))
}

// AddFavorite adds a model to the caller's favorites
func (h *UserHandler) AddFavorite(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	modelID, err := parseObjectID(c, "modelId")
	if err != nil {
		return err
	}

	// Verify model exists
	if _, err := h.modelRepository.GetByID(ctx, modelID); err != nil {
		return notFound(err, "Model not found")
	}

	for _, id := range user.Favorites {
		if id == modelID {
			return echo.NewHTTPError(http.StatusBadRequest, "Model already in favorites")
		}
	}

	if err := h.userRepository.AddFavorite(ctx, user.ID, modelID); err != nil {
		return err
	}
	updated, err := h.userRepository.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, updated.Favorites)
}

// RemoveFavorite removes a model from the caller's favorites
func (h *UserHandler) RemoveFavorite(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)
	modelID, err := parseObjectID(c, "modelId")
	if err != nil {
		return err
	}

	found := false
	for _, id := range user.Favorites {
		if id == modelID {
			found = true
			break
		}
	}
	if !found {
		return echo.NewHTTPError(http.StatusBadRequest, "Model not in favorites")
	}

	if err := h.userRepository.RemoveFavorite(ctx, user.ID, modelID); err != nil {
		return err
	}
	updated, err := h.userRepository.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, updated.Favorites)
}

// UpdatePreferences shallow-merges the request body into the caller's
// preferences map
func (h *UserHandler) UpdatePreferences(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	var prefs map[string]interface{}
	if err := c.Bind(&prefs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	merged := make(map[string]interface{}, len(user.Preferences)+len(prefs))
	for k, v := range user.Preferences {
		merged[k] = v
	}
	for k, v := range prefs {
		merged[k] = v
	}

	if err := h.userRepository.Update(ctx, user.ID, bson.M{"preferences": merged}); err != nil {
		return err
	}
	return respondData(c, http.StatusOK, merged)
}
