package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/meshvault/backend/internal/repositories"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultPageSize = 25

type envelope struct {
	Success bool        `json:"success"`
	Count   *int        `json:"count,omitempty"`
	Data    interface{} `json:"data"`
}

func respondData(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

func respondCollection(c echo.Context, data interface{}, count int) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Count: &count, Data: data})
}

// NewHTTPErrorHandler shapes every error into the JSON error envelope.
// Unexpected failures are logged with detail and surfaced as a generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Server Error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(code)
			}
		}
		if code >= http.StatusInternalServerError {
			log.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
			message = "Server Error"
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, map[string]interface{}{"success": false, "error": message})
	}
}

// parseObjectID reads a path parameter as a Mongo ObjectID
func parseObjectID(c echo.Context, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

// parseListOptions reads page/limit/sort query parameters for list endpoints
func parseListOptions(c echo.Context) repositories.ListOptions {
	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit <= 0 {
		limit = defaultPageSize
	}
	var skip int64
	if page > 1 {
		skip = (page - 1) * limit
	}
	return repositories.ListOptions{Skip: skip, Limit: limit, Sort: c.QueryParam("sort")}
}

// notFound maps a repository not-found error to a 404, passing anything else
// through to the top-level handler
func notFound(err error, message string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, message)
	}
	return err
}
