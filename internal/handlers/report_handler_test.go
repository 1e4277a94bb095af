package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicworks/idlewatch/internal/database"
	"github.com/civicworks/idlewatch/internal/geocode"
	"github.com/civicworks/idlewatch/internal/logger"
	"github.com/civicworks/idlewatch/internal/middleware"
	"github.com/civicworks/idlewatch/internal/models"
	"github.com/civicworks/idlewatch/internal/observability"
	"github.com/civicworks/idlewatch/internal/repository"
	"github.com/civicworks/idlewatch/internal/services"
	"github.com/civicworks/idlewatch/internal/weather"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGeocoder struct {
	coords *geocode.Coordinates
}

func (g *stubGeocoder) Lookup(ctx context.Context, address string) (*geocode.Coordinates, error) {
	return g.coords, nil
}

type stubFetcher struct {
	conditions weather.Conditions
}

func (f *stubFetcher) Current(ctx context.Context, lat, lng string) (weather.Conditions, error) {
	return f.conditions, nil
}

// testServer wires the full request path: identity middleware, handlers,
// services and repositories against an in-memory database.
type testServer struct {
	router *gin.Engine
	db     *database.Database
	geo    *stubGeocoder
	fetch  *stubFetcher

	agencyA models.Agency
	agencyB models.Agency
	admin   models.User
	worker  models.User
	general models.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.ConnectMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := &testServer{db: db, geo: &stubGeocoder{}, fetch: &stubFetcher{}}

	roles := models.DefaultRoles()
	require.NoError(t, db.Gorm.Create(&roles).Error)
	var generalRole, workerRole, adminRole models.Role
	for _, r := range roles {
		switch r.Permissions {
		case models.PermGeneral:
			generalRole = r
		case models.PermAgencyWorker:
			workerRole = r
		case models.PermAdminister:
			adminRole = r
		}
	}

	s.agencyA = models.Agency{Name: "SEPTA"}
	s.agencyB = models.Agency{Name: "PECO"}
	require.NoError(t, db.Gorm.Create(&s.agencyA).Error)
	require.NoError(t, db.Gorm.Create(&s.agencyB).Error)

	s.admin = models.User{Email: "admin@user.com", RoleID: adminRole.ID}
	s.worker = models.User{Email: "worker@user.com", RoleID: workerRole.ID, AgencyID: &s.agencyA.ID}
	s.general = models.User{Email: "general@user.com", RoleID: generalRole.ID}
	require.NoError(t, db.Gorm.Create(&s.admin).Error)
	require.NoError(t, db.Gorm.Create(&s.worker).Error)
	require.NoError(t, db.Gorm.Create(&s.general).Error)

	log := logger.Discard()
	metrics := observability.NewMetricsForTesting()

	reportRepo := repository.NewReportRepository(db)
	agencyRepo := repository.NewAgencyRepository(db)
	userRepo := repository.NewUserRepository(db)

	reportService := services.NewReportService(reportRepo, agencyRepo, s.geo, metrics, log)
	weatherService := services.NewWeatherService(reportService, s.fetch, log)

	reportHandler := NewReportHandler(reportService, weatherService)
	agencyHandler := NewAgencyHandler(agencyRepo)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Identity(userRepo))
	{
		v1.GET("/reports", reportHandler.List)
		v1.POST("/reports", reportHandler.Create)
		v1.GET("/reports/:id", reportHandler.Get)
		v1.PUT("/reports/:id", reportHandler.Update)
		v1.GET("/reports/:id/weather", reportHandler.Weather)
		v1.GET("/agencies", agencyHandler.List)
	}
	s.router = router
	return s
}

func (s *testServer) do(t *testing.T, method, path string, user *models.User, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set(middleware.UserIDHeader, fmt.Sprintf("%d", user.ID))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) insertReport(t *testing.T, user models.User, agency models.Agency, vehicleID string) models.IncidentReport {
	t.Helper()
	report := models.IncidentReport{
		VehicleID: vehicleID,
		Location:  models.Location{OriginalUserText: "3675 Market St"},
		Date:      time.Now().UTC(),
		Duration:  10 * time.Minute,
		AgencyID:  agency.ID,
		UserID:    user.ID,
	}
	require.NoError(t, s.db.Gorm.Create(&report).Error)
	return report
}

func createBody(agencyID uint) map[string]interface{} {
	return map[string]interface{}{
		"vehicle_id":       "BUS100",
		"license_plate":    "ABC1234",
		"address":          "3675 Market St",
		"date":             time.Now().UTC().Format(time.RFC3339),
		"duration_minutes": 15,
		"agency_id":        agencyID,
	}
}

func TestIdentityRequired(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/reports", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentityUnknownUser(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	req.Header.Set(middleware.UserIDHeader, "9999")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdentityMalformedHeader(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	req.Header.Set(middleware.UserIDHeader, "not-a-number")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListReportsByRole(t *testing.T) {
	s := newTestServer(t)
	s.insertReport(t, s.general, s.agencyA, "BUS100")
	s.insertReport(t, s.admin, s.agencyB, "TRK200")

	// Administrator: both reports plus the agency list.
	w := s.do(t, http.MethodGet, "/api/v1/reports", &s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var adminResp ListReportsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &adminResp))
	assert.Equal(t, 2, adminResp.Count)
	assert.Len(t, adminResp.Agencies, 2)

	// Agency worker: only agencyA's report, no agency list.
	w = s.do(t, http.MethodGet, "/api/v1/reports", &s.worker, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var workerResp ListReportsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &workerResp))
	assert.Equal(t, 1, workerResp.Count)
	assert.Empty(t, workerResp.Agencies)

	// General user: own submission only.
	w = s.do(t, http.MethodGet, "/api/v1/reports", &s.general, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var generalResp ListReportsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &generalResp))
	require.Equal(t, 1, generalResp.Count)
	assert.Equal(t, "BUS100", generalResp.Reports[0].VehicleID)
}

func TestCreateReport(t *testing.T) {
	s := newTestServer(t)
	s.geo.coords = &geocode.Coordinates{Lat: 39.951021, Lng: -75.197243}

	w := s.do(t, http.MethodPost, "/api/v1/reports", &s.general, createBody(s.agencyA.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp CreateReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Geocoded)
	require.NotNil(t, resp.Report)
	assert.Equal(t, "BUS100", resp.Report.VehicleID)
	assert.Equal(t, s.general.ID, resp.Report.UserID)
	require.NotNil(t, resp.Report.Location.Latitude)
	assert.Equal(t, "39.951021", *resp.Report.Location.Latitude)
}

func TestCreateReportValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		mutate func(body map[string]interface{})
	}{
		{
			name:   "missing vehicle id",
			mutate: func(b map[string]interface{}) { delete(b, "vehicle_id") },
		},
		{
			name:   "vehicle id too long",
			mutate: func(b map[string]interface{}) { b["vehicle_id"] = "ABCDEFGHIJK" },
		},
		{
			name:   "license plate with punctuation",
			mutate: func(b map[string]interface{}) { b["license_plate"] = "AB-123!" },
		},
		{
			name:   "missing address and coordinates",
			mutate: func(b map[string]interface{}) { delete(b, "address") },
		},
		{
			name:   "duration out of range",
			mutate: func(b map[string]interface{}) { b["duration_minutes"] = 20000 },
		},
		{
			name:   "bad picture url",
			mutate: func(b map[string]interface{}) { b["picture_url"] = "not a url" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := createBody(s.agencyA.ID)
			tt.mutate(body)

			w := s.do(t, http.MethodPost, "/api/v1/reports", &s.general, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestCreateReportUnknownAgency(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/reports", &s.general, createBody(9999))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetReport(t *testing.T) {
	s := newTestServer(t)
	report := s.insertReport(t, s.general, s.agencyA, "BUS100")

	w := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/reports/%d", report.ID), &s.general, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/reports/9999", &s.admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/reports/abc", &s.admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetReportForbidden(t *testing.T) {
	s := newTestServer(t)
	report := s.insertReport(t, s.admin, s.agencyB, "TRK200")

	w := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/reports/%d", report.ID), &s.general, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/reports/%d", report.ID), &s.worker, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateReport(t *testing.T) {
	s := newTestServer(t)
	report := s.insertReport(t, s.general, s.agencyA, "BUS100")

	body := createBody(s.agencyB.ID)
	body["description"] = "still idling"

	w := s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/reports/%d", report.ID), &s.general, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Report models.IncidentReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, s.agencyB.ID, resp.Report.AgencyID)
	assert.Equal(t, "still idling", resp.Report.Description)
}

func TestWeatherForReport(t *testing.T) {
	s := newTestServer(t)

	lat, lng := "39.951021", "-75.197243"
	report := models.IncidentReport{
		VehicleID: "BUS100",
		Location:  models.Location{Latitude: &lat, Longitude: &lng, OriginalUserText: "3675 Market St"},
		Date:      time.Now().UTC(),
		Duration:  10 * time.Minute,
		AgencyID:  s.agencyA.ID,
		UserID:    s.general.ID,
	}
	require.NoError(t, s.db.Gorm.Create(&report).Error)

	desc := "clear sky"
	s.fetch.conditions = weather.Conditions{Description: &desc}

	w := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/reports/%d/weather", report.ID), &s.general, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp WeatherResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, report.ID, resp.ReportID)
	assert.Equal(t, "Description: clear sky", resp.Summary)
}

func TestWeatherForReportWithoutCoordinates(t *testing.T) {
	s := newTestServer(t)
	report := s.insertReport(t, s.general, s.agencyA, "BUS100")

	w := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/reports/%d/weather", report.ID), &s.general, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAgenciesAdminOnly(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/agencies", &s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListAgenciesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)

	w = s.do(t, http.MethodGet, "/api/v1/agencies", &s.worker, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/agencies", &s.general, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
