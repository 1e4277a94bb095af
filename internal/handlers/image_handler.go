package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/civicworks/idlewatch/internal/errors"
	"github.com/civicworks/idlewatch/internal/imghost"
)

// ImageHoster is the image hosting surface the handler needs.
type ImageHoster interface {
	Upload(ctx context.Context, imageURL, filePath, title, description string) (imghost.UploadResult, error)
	Delete(ctx context.Context, deleteHash string) error
}

// ImageHandler handles report photo hosting requests.
type ImageHandler struct {
	host ImageHoster
}

// NewImageHandler creates a new ImageHandler instance.
func NewImageHandler(host ImageHoster) *ImageHandler {
	return &ImageHandler{host: host}
}

// UploadImageRequest represents an upload by URL or by server-local file
// path. Exactly one source must be present.
type UploadImageRequest struct {
	URL         string `json:"url" binding:"omitempty,url"`
	FilePath    string `json:"file_path" binding:"omitempty"`
	Title       string `json:"title" binding:"omitempty,max=255"`
	Description string `json:"description" binding:"omitempty,max=5000"`
}

// Upload handles POST /api/v1/images.
func (h *ImageHandler) Upload(c *gin.Context) {
	var req UploadImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	result, err := h.host.Upload(c.Request.Context(), req.URL, req.FilePath, req.Title, req.Description)
	if err != nil {
		if errors.Is(err, imghost.ErrNoImageSource) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to upload image", err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Delete handles DELETE /api/v1/images/:deletehash.
func (h *ImageHandler) Delete(c *gin.Context) {
	deleteHash := c.Param("deletehash")
	if deleteHash == "" {
		apierrors.BadRequest(c, "Missing deletehash", nil)
		return
	}

	if err := h.host.Delete(c.Request.Context(), deleteHash); err != nil {
		apierrors.InternalServerError(c, "Failed to delete image", err)
		return
	}

	c.Status(http.StatusNoContent)
}
