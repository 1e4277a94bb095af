package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/civicworks/idlewatch/internal/errors"
	"github.com/civicworks/idlewatch/internal/middleware"
	"github.com/civicworks/idlewatch/internal/models"
	"github.com/civicworks/idlewatch/internal/services"
	"github.com/civicworks/idlewatch/internal/textutil"
)

// ReportHandler handles incident report HTTP requests.
type ReportHandler struct {
	reports services.ReportService
	weather services.WeatherService
}

// NewReportHandler creates a new ReportHandler instance.
func NewReportHandler(reports services.ReportService, weather services.WeatherService) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		weather: weather,
	}
}

// CreateReportRequest represents the body of a report submission.
// Coordinates may come from a map picker; otherwise Address is geocoded.
type CreateReportRequest struct {
	VehicleID       string    `json:"vehicle_id" binding:"required,alphanum,min=2,max=10"`
	LicensePlate    string    `json:"license_plate" binding:"omitempty,alphanum,min=6,max=7"`
	Address         string    `json:"address" binding:"required_without_all=Latitude Longitude"`
	Latitude        string    `json:"latitude" binding:"omitempty,latitude"`
	Longitude       string    `json:"longitude" binding:"omitempty,longitude"`
	Date            time.Time `json:"date" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"omitempty,gte=0,lte=10000"`
	Duration        string    `json:"duration" binding:"omitempty"`
	AgencyID        uint      `json:"agency_id" binding:"required"`
	PictureURL      string    `json:"picture_url" binding:"omitempty,url"`
	Description     string    `json:"description" binding:"omitempty,max=5000"`
}

// UpdateReportRequest represents the body of a report edit. The picture
// is a direct URL here instead of an upload.
type UpdateReportRequest struct {
	VehicleID       string    `json:"vehicle_id" binding:"required,alphanum,min=2,max=10"`
	LicensePlate    string    `json:"license_plate" binding:"omitempty,alphanum,min=6,max=7"`
	Address         string    `json:"address" binding:"required_without_all=Latitude Longitude"`
	Latitude        string    `json:"latitude" binding:"omitempty,latitude"`
	Longitude       string    `json:"longitude" binding:"omitempty,longitude"`
	Date            time.Time `json:"date" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"omitempty,gte=0,lte=10000"`
	Duration        string    `json:"duration" binding:"omitempty"`
	AgencyID        uint      `json:"agency_id" binding:"required"`
	PictureURL      string    `json:"picture_url" binding:"omitempty,url"`
	Description     string    `json:"description" binding:"omitempty,max=5000"`
}

// ListReportsResponse is the role-scoped report listing. Agencies is
// present only for administrators.
type ListReportsResponse struct {
	Reports  []models.IncidentReport `json:"reports"`
	Agencies []models.Agency         `json:"agencies,omitempty"`
	Count    int                     `json:"count"`
}

// CreateReportResponse wraps a created report plus whether its address
// geocoded successfully.
type CreateReportResponse struct {
	Report   *models.IncidentReport `json:"report"`
	Geocoded bool                   `json:"geocoded"`
}

// WeatherResponse carries the formatted weather summary for a report.
type WeatherResponse struct {
	ReportID uint   `json:"report_id"`
	Summary  string `json:"summary"`
}

// List handles GET /api/v1/reports.
// It returns the reports the requester's role authorizes.
func (h *ReportHandler) List(c *gin.Context) {
	user := middleware.GetCurrentUser(c)

	visible, err := h.reports.ListVisibleReports(c.Request.Context(), user)
	if err != nil {
		if errors.Is(err, models.ErrUnknownRole) || errors.Is(err, services.ErrWorkerNoAgency) {
			apierrors.Forbidden(c, err.Error())
			return
		}
		apierrors.InternalServerError(c, "Failed to list reports", err)
		return
	}

	c.JSON(http.StatusOK, ListReportsResponse{
		Reports:  visible.Reports,
		Agencies: visible.Agencies,
		Count:    len(visible.Reports),
	})
}

// Create handles POST /api/v1/reports.
func (h *ReportHandler) Create(c *gin.Context) {
	user := middleware.GetCurrentUser(c)

	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	report, geocoded, err := h.reports.CreateReport(c.Request.Context(), user, services.CreateReportInput{
		VehicleID:       req.VehicleID,
		LicensePlate:    req.LicensePlate,
		Address:         req.Address,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		Date:            req.Date,
		DurationMinutes: req.DurationMinutes,
		DurationText:    req.Duration,
		AgencyID:        req.AgencyID,
		PictureURL:      req.PictureURL,
		Description:     req.Description,
	})
	if err != nil {
		h.writeReportError(c, err, "Failed to create report")
		return
	}

	c.JSON(http.StatusCreated, CreateReportResponse{
		Report:   report,
		Geocoded: geocoded,
	})
}

// Update handles PUT /api/v1/reports/:id.
func (h *ReportHandler) Update(c *gin.Context) {
	user := middleware.GetCurrentUser(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	report, err := h.reports.UpdateReport(c.Request.Context(), user, id, services.UpdateReportInput{
		VehicleID:       req.VehicleID,
		LicensePlate:    req.LicensePlate,
		Address:         req.Address,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		Date:            req.Date,
		DurationMinutes: req.DurationMinutes,
		DurationText:    req.Duration,
		AgencyID:        req.AgencyID,
		PictureURL:      req.PictureURL,
		Description:     req.Description,
	})
	if err != nil {
		h.writeReportError(c, err, "Failed to update report")
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// Get handles GET /api/v1/reports/:id.
func (h *ReportHandler) Get(c *gin.Context) {
	user := middleware.GetCurrentUser(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	report, err := h.reports.GetReport(c.Request.Context(), user, id)
	if err != nil {
		h.writeReportError(c, err, "Failed to load report")
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// Weather handles GET /api/v1/reports/:id/weather.
func (h *ReportHandler) Weather(c *gin.Context) {
	user := middleware.GetCurrentUser(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	summary, err := h.weather.SummaryForReport(c.Request.Context(), user, id)
	if err != nil {
		if errors.Is(err, services.ErrNoCoordinates) {
			apierrors.NotFound(c, "Report has no coordinates to look up weather for")
			return
		}
		h.writeReportError(c, err, "Failed to fetch weather")
		return
	}

	c.JSON(http.StatusOK, WeatherResponse{
		ReportID: id,
		Summary:  summary,
	})
}

// writeReportError maps service-level errors onto the API error envelope.
func (h *ReportHandler) writeReportError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrReportNotFound):
		apierrors.NotFound(c, "No report found with this ID")
	case errors.Is(err, services.ErrAgencyNotFound):
		apierrors.BadRequest(c, "Selected agency does not exist", nil)
	case errors.Is(err, services.ErrInvalidDuration):
		apierrors.BadRequest(c, err.Error(), nil)
	case errors.Is(err, textutil.ErrUnparsableDuration):
		apierrors.BadRequest(c, err.Error(), nil)
	case errors.Is(err, services.ErrForbidden):
		apierrors.Forbidden(c, "You are not authorized to access this report")
	case errors.Is(err, models.ErrUnknownRole):
		apierrors.Forbidden(c, err.Error())
	default:
		apierrors.InternalServerError(c, fallback, err)
	}
}

// parseIDParam reads the :id path parameter; on failure it writes a 400
// and reports false.
func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Report ID must be a positive integer", nil)
		return 0, false
	}
	return uint(id), true
}
