package handlers

import (
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

// File extensions accepted for 3D model uploads. Uploads never accept the
// catch-all "other" format.
var modelFileExtensions = map[string]bool{
	".glb":  true,
	".gltf": true,
	".obj":  true,
	".fbx":  true,
	".stl":  true,
}

// requireFile reads the uploaded file from the multipart form
func requireFile(c echo.Context) (*multipart.FileHeader, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Please upload a file")
	}
	return file, nil
}

// validateModelFile checks a 3D model upload against the format allow-list
// and the size cap, returning the lowercased extension (with leading dot).
// Both checks run before any byte transfer is attempted.
func validateModelFile(file *multipart.FileHeader, maxSize int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !modelFileExtensions[ext] {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Please upload a valid 3D model file")
	}
	if file.Size > maxSize {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Please upload a file less than the size limit")
	}
	return ext, nil
}

// validateImageFile checks an image upload's MIME type and size, returning
// the lowercased extension (with leading dot)
func validateImageFile(file *multipart.FileHeader, maxSize int64) (string, error) {
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image") {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Please upload an image file")
	}
	if file.Size > maxSize {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Please upload an image less than the size limit")
	}
	return strings.ToLower(filepath.Ext(file.Filename)), nil
}
