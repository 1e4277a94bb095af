package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/civicworks/idlewatch/internal/geocode"
	"github.com/civicworks/idlewatch/internal/logger"
	"github.com/civicworks/idlewatch/internal/models"
	"github.com/civicworks/idlewatch/internal/observability"
	"github.com/civicworks/idlewatch/internal/repository"
	"github.com/civicworks/idlewatch/internal/textutil"
)

// Duration bounds, in minutes, accepted on report forms.
const (
	MinDurationMinutes = 0
	MaxDurationMinutes = 10000
)

// Service-level errors
var (
	ErrReportNotFound  = errors.New("report not found")
	ErrAgencyNotFound  = errors.New("agency not found")
	ErrForbidden       = errors.New("not authorized to access this report")
	ErrInvalidDuration = fmt.Errorf("duration must be between %d and %d minutes", MinDurationMinutes, MaxDurationMinutes)
	ErrWorkerNoAgency  = errors.New("agency worker has no agency assigned")
)

// CreateReportInput carries the validated fields of a report submission.
// Coordinates may be supplied directly (picked on a map) or left empty,
// in which case Address is geocoded. Duration arrives either as whole
// minutes or as a free-text expression like "1:30:00".
type CreateReportInput struct {
	VehicleID       string
	LicensePlate    string
	Address         string
	Latitude        string
	Longitude       string
	Date            time.Time
	DurationMinutes int
	DurationText    string
	AgencyID        uint
	PictureURL      string
	Description     string
}

// UpdateReportInput carries the editable fields of an existing report.
// The picture is a direct URL here; uploads happen on creation only.
type UpdateReportInput struct {
	VehicleID       string
	LicensePlate    string
	Address         string
	Latitude        string
	Longitude       string
	Date            time.Time
	DurationMinutes int
	DurationText    string
	AgencyID        uint
	PictureURL      string
	Description     string
}

// VisibleReports is the result of the role-scoped listing. Agencies is
// populated only for administrators, who get the full agency list for
// their filtering UI.
type VisibleReports struct {
	Reports  []models.IncidentReport
	Agencies []models.Agency
}

// ReportService defines the business logic for incident reports.
type ReportService interface {
	// ListVisibleReports returns the reports the requesting user's role
	// authorizes: administrators see everything plus the agency list,
	// agency workers see their own agency's reports, general users see
	// their own submissions. An unrecognized role is models.ErrUnknownRole.
	ListVisibleReports(ctx context.Context, user *models.User) (*VisibleReports, error)

	// CreateReport runs the report creation workflow: resolve coordinates
	// (geocoding the address when none were supplied), normalize the
	// duration, and persist the report with its Location transactionally.
	// A failed geocode still creates the report, with nil coordinates;
	// the returned bool reports whether coordinates were resolved.
	CreateReport(ctx context.Context, user *models.User, input CreateReportInput) (*models.IncidentReport, bool, error)

	// UpdateReport applies an edit to a report the user may modify.
	UpdateReport(ctx context.Context, user *models.User, id uint, input UpdateReportInput) (*models.IncidentReport, error)

	// GetReport returns one report if the user's role may view it.
	GetReport(ctx context.Context, user *models.User, id uint) (*models.IncidentReport, error)
}

// reportService is the concrete implementation of ReportService.
type reportService struct {
	reports  repository.ReportRepository
	agencies repository.AgencyRepository
	geocoder geocode.Geocoder
	metrics  *observability.Metrics
	log      *logger.Logger
}

// NewReportService creates a new instance of ReportService.
func NewReportService(
	reports repository.ReportRepository,
	agencies repository.AgencyRepository,
	geocoder geocode.Geocoder,
	metrics *observability.Metrics,
	log *logger.Logger,
) ReportService {
	return &reportService{
		reports:  reports,
		agencies: agencies,
		geocoder: geocoder,
		metrics:  metrics,
		log:      log,
	}
}

// ListVisibleReports dispatches on the closed set of role kinds. There is
// no silent fallback: a role that classifies as none of the three kinds
// is an error, never an empty result.
func (s *reportService) ListVisibleReports(ctx context.Context, user *models.User) (*VisibleReports, error) {
	kind, err := user.RoleKind()
	if err != nil {
		s.log.Error("Rejecting request with unrecognized role", err, map[string]interface{}{
			"user_id": user.ID,
			"role":    user.Role.Name,
		})
		return nil, err
	}

	switch kind {
	case models.RoleAdministrator:
		reports, err := s.reports.FindAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", err)
		}
		agencies, err := s.agencies.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list agencies: %w", err)
		}
		return &VisibleReports{Reports: reports, Agencies: agencies}, nil

	case models.RoleAgencyWorker:
		if user.AgencyID == nil {
			return nil, ErrWorkerNoAgency
		}
		reports, err := s.reports.FindByAgency(ctx, *user.AgencyID)
		if err != nil {
			return nil, fmt.Errorf("failed to list agency reports: %w", err)
		}
		return &VisibleReports{Reports: reports}, nil

	case models.RoleGeneral:
		reports, err := s.reports.FindByUser(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list user reports: %w", err)
		}
		return &VisibleReports{Reports: reports}, nil

	default:
		// Kind() only produces the three cases above; keep the loud
		// failure anyway so a future kind cannot fall through silently.
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownRole, kind)
	}
}

func (s *reportService) CreateReport(ctx context.Context, user *models.User, input CreateReportInput) (*models.IncidentReport, bool, error) {
	duration, err := s.resolveDuration(input.DurationMinutes, input.DurationText)
	if err != nil {
		return nil, false, err
	}

	agency, err := s.agencies.FindByID(ctx, input.AgencyID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve agency: %w", err)
	}
	if agency == nil {
		return nil, false, ErrAgencyNotFound
	}

	location, geocoded := s.resolveLocation(ctx, input.Address, input.Latitude, input.Longitude)

	report := &models.IncidentReport{
		VehicleID:    input.VehicleID,
		LicensePlate: input.LicensePlate,
		Location:     location,
		Date:         input.Date,
		Duration:     duration,
		AgencyID:     agency.ID,
		UserID:       user.ID,
		PictureURL:   input.PictureURL,
		Description:  input.Description,
	}

	if err := s.reports.Create(ctx, report); err != nil {
		return nil, false, err
	}

	s.metrics.ReportsCreated.Inc()
	s.log.Info("Incident report created", map[string]interface{}{
		"report_id":  report.ID,
		"user_id":    user.ID,
		"agency_id":  agency.ID,
		"vehicle_id": report.VehicleID,
		"geocoded":   geocoded,
	})

	return report, geocoded, nil
}

func (s *reportService) UpdateReport(ctx context.Context, user *models.User, id uint, input UpdateReportInput) (*models.IncidentReport, error) {
	report, err := s.GetReport(ctx, user, id)
	if err != nil {
		return nil, err
	}

	duration, err := s.resolveDuration(input.DurationMinutes, input.DurationText)
	if err != nil {
		return nil, err
	}

	agency, err := s.agencies.FindByID(ctx, input.AgencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve agency: %w", err)
	}
	if agency == nil {
		return nil, ErrAgencyNotFound
	}

	// Re-geocode only when the address text actually changed.
	if input.Address != report.Location.OriginalUserText || input.Latitude != "" {
		location, _ := s.resolveLocation(ctx, input.Address, input.Latitude, input.Longitude)
		report.Location.Latitude = location.Latitude
		report.Location.Longitude = location.Longitude
		report.Location.OriginalUserText = location.OriginalUserText
	}

	report.VehicleID = input.VehicleID
	report.LicensePlate = input.LicensePlate
	report.Date = input.Date
	report.Duration = duration
	report.AgencyID = agency.ID
	report.PictureURL = input.PictureURL
	report.Description = input.Description

	if err := s.reports.Update(ctx, report); err != nil {
		return nil, err
	}

	s.metrics.ReportsUpdated.Inc()
	s.log.Info("Incident report updated", map[string]interface{}{
		"report_id": report.ID,
		"user_id":   user.ID,
	})

	return report, nil
}

// GetReport loads a report and applies the same role scoping as the
// listing: administrators may view any report, agency workers their own
// agency's, general users their own submissions.
func (s *reportService) GetReport(ctx context.Context, user *models.User, id uint) (*models.IncidentReport, error) {
	kind, err := user.RoleKind()
	if err != nil {
		return nil, err
	}

	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if report == nil {
		return nil, ErrReportNotFound
	}

	switch kind {
	case models.RoleAdministrator:
		return report, nil
	case models.RoleAgencyWorker:
		if user.AgencyID != nil && *user.AgencyID == report.AgencyID {
			return report, nil
		}
	case models.RoleGeneral:
		if report.UserID == user.ID {
			return report, nil
		}
	}
	return nil, ErrForbidden
}

// resolveDuration normalizes the two accepted duration inputs. Free-text
// wins when present; either way the result must fall inside the allowed
// minute range.
func (s *reportService) resolveDuration(minutes int, text string) (time.Duration, error) {
	var d time.Duration
	if text != "" {
		parsed, err := textutil.ParseDuration(text)
		if err != nil {
			return 0, err
		}
		d = parsed
	} else {
		d = textutil.MinutesToDuration(minutes)
	}

	if d < MinDurationMinutes*time.Minute || d > MaxDurationMinutes*time.Minute {
		return 0, ErrInvalidDuration
	}
	return d, nil
}

// resolveLocation builds the owned Location. Supplied coordinates are
// trusted as-is; otherwise the address is geocoded, and any upstream
// failure degrades to nil coordinates rather than failing the report.
func (s *reportService) resolveLocation(ctx context.Context, address, lat, lng string) (models.Location, bool) {
	location := models.Location{OriginalUserText: address}

	if lat != "" && lng != "" {
		location.Latitude = &lat
		location.Longitude = &lng
		return location, true
	}

	coords, err := s.geocoder.Lookup(ctx, address)
	if err != nil {
		s.log.Warn("Geocoding failed, creating report without coordinates", map[string]interface{}{
			"address": address,
			"error":   err.Error(),
		})
		return location, false
	}
	if coords == nil {
		s.log.Debug("Geocoding found no results", map[string]interface{}{
			"address": address,
		})
		return location, false
	}

	latStr := strconv.FormatFloat(coords.Lat, 'f', -1, 64)
	lngStr := strconv.FormatFloat(coords.Lng, 'f', -1, 64)
	location.Latitude = &latStr
	location.Longitude = &lngStr
	return location, true
}
