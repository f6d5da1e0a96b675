package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"bloodbank/internal/config"
	"bloodbank/internal/entity"
	"bloodbank/internal/metrics"
	"bloodbank/internal/model"
	"bloodbank/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	engine *gin.Engine
	repo   model.Repository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	cfg := config.Config{
		DBType:                 model.DBTypeSQLite,
		DBPath:                 filepath.Join(dir, "api.db"),
		JWTSecret:              "api-test-secret",
		JWTIssuer:              "bloodbank",
		JWTExpirationMinutes:   60,
		SignupEnabled:          true,
		InventoryCriticalBelow: 5,
		InventoryMinThreshold:  10,
		InventoryMaxCapacity:   50,
	}
	repo, err := model.NewRepositoryFactory().CreateRepository(&cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	require.NoError(t, model.SeedInventory(context.Background(), repo, cfg.Thresholds(), time.Now()))

	store, err := storage.NewLocalStorage(filepath.Join(dir, "backups"))
	require.NoError(t, err)
	handler, err := NewHTTPHandler(cfg, repo, store, metrics.New(prometheus.NewRegistry()))
	require.NoError(t, err)

	engine := gin.New()
	handler.RegisterRoutes(engine)
	return &testServer{engine: engine, repo: repo}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) signup(t *testing.T, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/signup", "", entity.AuthSignupRequest{
		Email: email, Password: "secret-pass", DisplayName: email,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp entity.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	return apiErr
}

func TestUpdateStockEndpoint(t *testing.T) {
	srv := newTestServer(t)
	adminToken := srv.signup(t, "admin@example.com")
	staffToken := srv.signup(t, "staff@example.com")

	w := srv.do(t, http.MethodPost, "/api/update_stock", adminToken, entity.StockUpdateRequest{BloodGroup: "O-", Units: 5, Action: "add"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp entity.StockUpdateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 5, resp.UnitsAvailable)
	assert.Equal(t, entity.InventoryStatusLow, resp.Status)

	w = srv.do(t, http.MethodPost, "/api/update_stock", adminToken, entity.StockUpdateRequest{BloodGroup: "O-", Units: 10, Action: "remove"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrCodeInsufficientStock, decodeError(t, w).Code)

	w = srv.do(t, http.MethodPost, "/api/update_stock", adminToken, entity.StockUpdateRequest{BloodGroup: "Q+", Units: 1, Action: "add"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrCodeValidation, decodeError(t, w).Code)

	w = srv.do(t, http.MethodPost, "/api/update_stock", adminToken, entity.StockUpdateRequest{BloodGroup: "O-", Units: entity.MaxStockAdjustment + 1, Action: "add"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrCodeValidation, decodeError(t, w).Code)

	w = srv.do(t, http.MethodPost, "/api/update_stock", staffToken, entity.StockUpdateRequest{BloodGroup: "O-", Units: 1, Action: "add"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(t, http.MethodPost, "/api/update_stock", "", entity.StockUpdateRequest{BloodGroup: "O-", Units: 1, Action: "add"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	line, err := srv.repo.GetInventory(context.Background(), entity.BloodGroupONeg)
	require.NoError(t, err)
	assert.Equal(t, 5, line.UnitsAvailable)
}

func TestDonorAndDonationFlow(t *testing.T) {
	srv := newTestServer(t)
	adminToken := srv.signup(t, "admin@example.com")

	w := srv.do(t, http.MethodPost, "/api/donors", adminToken, entity.DonorCreateRequest{
		Name: "Asha", DateOfBirth: "1990-04-01", Gender: "Female", BloodGroup: "AB+",
		City: "Pune", Phone: "+91-9999999999",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reg entity.DonorRegistration
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))
	require.NotNil(t, reg.Donor)

	w = srv.do(t, http.MethodPost, "/api/donations", adminToken, entity.DonationCreateRequest{DonorID: reg.Donor.DonorID, UnitsDonated: 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = srv.do(t, http.MethodGet, "/api/inventory", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view entity.InventoryView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.Lines, len(entity.BloodGroups))
	assert.Equal(t, entity.BloodGroupABPos, view.Lines[7].BloodGroup)
	assert.Equal(t, 2, view.Lines[7].UnitsAvailable)

	w = srv.do(t, http.MethodGet, "/api/donors/"+reg.Donor.DonorID, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail entity.DonorDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Len(t, detail.Donations, 1)

	w = srv.do(t, http.MethodGet, "/api/donors/eligible?blood_group=AB%2B", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = srv.do(t, http.MethodGet, "/api/donors/DON00000000", adminToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(t, http.MethodPost, "/api/donations", adminToken, entity.DonationCreateRequest{DonorID: reg.Donor.DonorID, UnitsDonated: 5})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrCodeValidation, decodeError(t, w).Code)

	w = srv.do(t, http.MethodGet, "/api/dashboard", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodPost, "/api/admin/backups", adminToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestHealthAndLogout(t *testing.T) {
	srv := newTestServer(t)
	w := srv.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = srv.do(t, http.MethodGet, "/api/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, ErrCodeSessionExpired, decodeError(t, w).Code)
}
