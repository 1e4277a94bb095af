package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/civicworks/idlewatch/internal/logger"
	"github.com/civicworks/idlewatch/internal/models"
	"github.com/civicworks/idlewatch/internal/weather"
)

// ErrNoCoordinates is returned when weather context is requested for a
// report whose geocoding never produced a point.
var ErrNoCoordinates = errors.New("report has no coordinates")

// ConditionsFetcher fetches current conditions at a coordinate pair.
type ConditionsFetcher interface {
	Current(ctx context.Context, lat, lng string) (weather.Conditions, error)
}

// WeatherService produces weather context for a report's location.
type WeatherService interface {
	// SummaryForReport returns the formatted current-weather summary for
	// the report's location, subject to the same role scoping as viewing
	// the report itself.
	SummaryForReport(ctx context.Context, user *models.User, reportID uint) (string, error)
}

type weatherService struct {
	reports ReportService
	fetcher ConditionsFetcher
	log     *logger.Logger
}

// NewWeatherService creates a new instance of WeatherService.
func NewWeatherService(reports ReportService, fetcher ConditionsFetcher, log *logger.Logger) WeatherService {
	return &weatherService{
		reports: reports,
		fetcher: fetcher,
		log:     log,
	}
}

func (s *weatherService) SummaryForReport(ctx context.Context, user *models.User, reportID uint) (string, error) {
	report, err := s.reports.GetReport(ctx, user, reportID)
	if err != nil {
		return "", err
	}

	if !report.HasCoordinates() {
		return "", ErrNoCoordinates
	}

	conditions, err := s.fetcher.Current(ctx, *report.Location.Latitude, *report.Location.Longitude)
	if err != nil {
		return "", fmt.Errorf("failed to fetch weather: %w", err)
	}

	return conditions.Summary(), nil
}
