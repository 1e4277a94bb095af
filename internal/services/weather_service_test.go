package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicworks/idlewatch/internal/logger"
	"github.com/civicworks/idlewatch/internal/models"
	"github.com/civicworks/idlewatch/internal/weather"
)

type stubFetcher struct {
	conditions weather.Conditions
	err        error
	gotLat     string
	gotLng     string
}

func (f *stubFetcher) Current(ctx context.Context, lat, lng string) (weather.Conditions, error) {
	f.gotLat, f.gotLng = lat, lng
	return f.conditions, f.err
}

func (f *fixtures) insertLocatedReport(t *testing.T, user models.User, lat, lng string) models.IncidentReport {
	t.Helper()
	report := models.IncidentReport{
		VehicleID: "BUS100",
		Location: models.Location{
			Latitude:         &lat,
			Longitude:        &lng,
			OriginalUserText: "3675 Market St",
		},
		Date:     time.Now().UTC(),
		Duration: 10 * time.Minute,
		AgencyID: f.agencyA.ID,
		UserID:   user.ID,
	}
	require.NoError(t, f.db.Gorm.Create(&report).Error)
	return report
}

func TestSummaryForReport(t *testing.T) {
	f := newFixtures(t)
	report := f.insertLocatedReport(t, f.general, "39.951021", "-75.197243")

	desc := "light rain"
	temp := 54.3
	fetcher := &stubFetcher{conditions: weather.Conditions{Description: &desc, Temp: &temp}}
	svc := NewWeatherService(f.service, fetcher, logger.Discard())

	summary, err := svc.SummaryForReport(context.Background(), &f.general, report.ID)

	require.NoError(t, err)
	assert.Equal(t, "Description: light rain\nTemperature: 54.3 degrees fahrenheit", summary)
	assert.Equal(t, "39.951021", fetcher.gotLat)
	assert.Equal(t, "-75.197243", fetcher.gotLng)
}

func TestSummaryForReportNoCoordinates(t *testing.T) {
	f := newFixtures(t)
	report := f.insertReport(t, f.general, f.agencyA, "BUS100")

	svc := NewWeatherService(f.service, &stubFetcher{}, logger.Discard())
	_, err := svc.SummaryForReport(context.Background(), &f.general, report.ID)

	assert.ErrorIs(t, err, ErrNoCoordinates)
}

func TestSummaryForReportScoped(t *testing.T) {
	f := newFixtures(t)
	report := f.insertLocatedReport(t, f.general, "39.95", "-75.19")

	svc := NewWeatherService(f.service, &stubFetcher{}, logger.Discard())
	_, err := svc.SummaryForReport(context.Background(), &f.general2, report.ID)

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSummaryForReportFetcherError(t *testing.T) {
	f := newFixtures(t)
	report := f.insertLocatedReport(t, f.general, "39.95", "-75.19")

	svc := NewWeatherService(f.service, &stubFetcher{err: errors.New("service down")}, logger.Discard())
	_, err := svc.SummaryForReport(context.Background(), &f.general, report.ID)

	require.Error(t, err)
}
