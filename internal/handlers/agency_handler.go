package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/civicworks/idlewatch/internal/errors"
	"github.com/civicworks/idlewatch/internal/middleware"
	"github.com/civicworks/idlewatch/internal/models"
	"github.com/civicworks/idlewatch/internal/repository"
)

// AgencyHandler handles agency reference-data HTTP requests.
type AgencyHandler struct {
	agencies repository.AgencyRepository
}

// NewAgencyHandler creates a new AgencyHandler instance.
func NewAgencyHandler(agencies repository.AgencyRepository) *AgencyHandler {
	return &AgencyHandler{agencies: agencies}
}

// ListAgenciesResponse represents the agency listing.
type ListAgenciesResponse struct {
	Agencies []models.Agency `json:"agencies"`
	Count    int             `json:"count"`
}

// List handles GET /api/v1/agencies. Administrators only; the listing
// backs the report filtering UI.
func (h *AgencyHandler) List(c *gin.Context) {
	user := middleware.GetCurrentUser(c)

	kind, err := user.RoleKind()
	if err != nil {
		apierrors.Forbidden(c, err.Error())
		return
	}
	if kind != models.RoleAdministrator {
		apierrors.Forbidden(c, "Only administrators may list agencies")
		return
	}

	agencies, err := h.agencies.List(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list agencies", err)
		return
	}

	c.JSON(http.StatusOK, ListAgenciesResponse{
		Agencies: agencies,
		Count:    len(agencies),
	})
}
