package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/dental-api/internal/config"
	"github.com/jwalitptl/dental-api/internal/handler"
	"github.com/jwalitptl/dental-api/internal/handler/appointment"
	authHandler "github.com/jwalitptl/dental-api/internal/handler/auth"
	"github.com/jwalitptl/dental-api/internal/handler/dashboard"
	"github.com/jwalitptl/dental-api/internal/handler/event"
	"github.com/jwalitptl/dental-api/internal/handler/patient"
	"github.com/jwalitptl/dental-api/internal/middleware"
	"github.com/jwalitptl/dental-api/internal/model"
	"github.com/jwalitptl/dental-api/internal/repository"
	"github.com/jwalitptl/dental-api/internal/repository/memory"
	authService "github.com/jwalitptl/dental-api/internal/service/auth"
	"github.com/jwalitptl/dental-api/internal/store"
	"github.com/jwalitptl/dental-api/pkg/metrics"
	"github.com/jwalitptl/dental-api/pkg/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	store  *store.Store
}

func newTestServer(t *testing.T, cfg RouterConfig) *testServer {
	t.Helper()

	directory, err := authService.NewStaticDirectory([]config.AccountConfig{
		{ID: 1, Email: "admin@dental.com", Password: "admin123", Name: "Dr. Smith", Role: "admin"},
		{ID: 2, Email: "john@email.com", Password: "patient123", Name: "John Doe", Role: "patient"},
		{ID: 9, Email: "walkin@email.com", Password: "patient123", Name: "Walk In", Role: "patient"},
	}, security.NewBcryptHasher(bcrypt.MinCost))
	require.NoError(t, err)

	snapshots := repository.NewSnapshots(memory.NewStore(), "")
	st := store.New(snapshots, store.WithDirectory(directory), store.WithLogger(zerolog.Nop()))
	require.NoError(t, st.Load(context.Background()))

	tokens, err := authService.NewTokenService("router-test-secret", time.Hour)
	require.NoError(t, err)
	svc := authService.NewService(st, tokens, zerolog.Nop())

	reg := prometheus.NewRegistry()
	m := metrics.New("dental", reg)

	cfg.Logger = zerolog.Nop()
	if cfg.CORSConfig.AllowOrigins == nil {
		cfg.CORSConfig = middleware.DefaultCORSConfig()
	}
	if cfg.Security.MaxBodySize == 0 {
		cfg.Security = middleware.DefaultSecurityConfig()
	}

	r := NewRouter(middleware.NewAuthMiddleware(svc), Handlers{
		Auth:        authHandler.NewHandler(svc),
		Patient:     patient.NewHandler(st),
		Appointment: appointment.NewHandler(st),
		Dashboard:   dashboard.NewHandler(st, time.Now, time.UTC),
		Event:       event.NewHandler(st, time.Second),
		Health:      handler.NewHandler(snapshots, "memory", reg),
	}, m, cfg)

	return &testServer{t: t, engine: r.Engine(), store: st}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Email: email, Password: password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data model.TokenResponse `json:"data"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(s.t, resp.Data.AccessToken)
	return resp.Data.AccessToken
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Data
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, RouterConfig{MetricsEnabled: true})

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/health/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/health/ready", "", nil).Code)

	w := s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dental_requests_total")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	w := s.do(http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Email: "admin@dental.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, s.store.Session())

	w = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "admin@dental.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoleGate(t *testing.T) {
	s := newTestServer(t, RouterConfig{})

	w := s.do(http.MethodGet, "/api/v1/patients", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, middleware.LoginPath, w.Header().Get("Location"))

	patientToken := s.login("john@email.com", "patient123")
	w = s.do(http.MethodGet, "/api/v1/patients", patientToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, middleware.DefaultPath, w.Header().Get("Location"))

	w = s.do(http.MethodGet, "/api/v1/patient-view", patientToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	adminToken := s.login("admin@dental.com", "admin123")
	w = s.do(http.MethodGet, "/api/v1/patients", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/patient-view", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// the admin login replaced the patient's session
	w = s.do(http.MethodGet, "/api/v1/dashboard", patientToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutEndsSession(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	token := s.login("admin@dental.com", "admin123")

	w := s.do(http.MethodGet, "/api/v1/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin@dental.com", decode[model.Session](t, w).Email)

	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/auth/logout", token, nil).Code)
	assert.Nil(t, s.store.Session())
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/session", token, nil).Code)
}

func TestPatientCRUDAndCascade(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	token := s.login("admin@dental.com", "admin123")

	w := s.do(http.MethodPost, "/api/v1/patients", token, model.PatientFields{
		FullName: "Ada Lovelace",
		Email:    "ada@email.com",
		Phone:    "555-0100",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.Patient](t, w)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	w = s.do(http.MethodPost, "/api/v1/appointments", token, map[string]interface{}{
		"patientId":       created.ID,
		"title":           "Cleaning",
		"appointmentDate": "2030-01-15T10:00:00",
		"cost":            80,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	appt := decode[model.Appointment](t, w)
	assert.Equal(t, model.AppointmentStatusPending, appt.Status)

	w = s.do(http.MethodGet, "/api/v1/patients/"+itoa(created.ID)+"/appointments", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Appointment](t, w), 1)

	w = s.do(http.MethodPut, "/api/v1/patients/"+itoa(created.ID), token, model.PatientFields{
		FullName: "Ada King",
		Email:    "ada@email.com",
		Phone:    "555-0100",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[model.Patient](t, w)
	assert.Equal(t, "Ada King", updated.FullName)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	w = s.do(http.MethodDelete, "/api/v1/patients/"+itoa(created.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/patients/"+itoa(created.ID), token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/appointments/"+itoa(appt.ID), token, nil).Code)
}

func TestValidationErrorsListFields(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	token := s.login("admin@dental.com", "admin123")

	w := s.do(http.MethodPost, "/api/v1/appointments", token, map[string]interface{}{
		"patientId": 1,
		"cost":      -5,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp handler.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	fields := map[string]bool{}
	for _, f := range resp.Errors {
		fields[f.Field] = true
	}
	assert.True(t, fields["title"], resp.Errors)
	assert.True(t, fields["appointmentDate"], resp.Errors)
	assert.True(t, fields["cost"], resp.Errors)
}

func TestUnknownIDsAreNotFound(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	token := s.login("admin@dental.com", "admin123")
	before := len(s.store.Patients())

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/v1/patients/424242", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPut, "/api/v1/patients/424242", token, model.PatientFields{
		FullName: "Nobody", Email: "nobody@email.com", Phone: "1",
	}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/patients/abc", token, nil).Code)
	assert.Len(t, s.store.Patients(), before)
}

func TestAppointmentFilters(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	token := s.login("admin@dental.com", "admin123")

	w := s.do(http.MethodGet, "/api/v1/appointments?status=all", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]interface{}](t, w), len(s.store.Appointments()))

	w = s.do(http.MethodGet, "/api/v1/appointments?status=lost", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsAndCalendar(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	token := s.login("admin@dental.com", "admin123")

	w := s.do(http.MethodGet, "/api/v1/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[map[string]interface{}](t, w)
	assert.EqualValues(t, len(s.store.Patients()), stats["totalPatients"])

	w = s.do(http.MethodGet, "/api/v1/calendar?month=2030-02", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	month := decode[map[string]interface{}](t, w)
	days, ok := month["days"].([]interface{})
	require.True(t, ok, month)
	assert.Len(t, days, 28)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/v1/calendar?month=2030-13", token, nil).Code)
}

func TestPatientViewWithoutRecord(t *testing.T) {
	s := newTestServer(t, RouterConfig{})
	token := s.login("walkin@email.com", "patient123")

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/patient-view", token, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/dashboard", token, nil).Code)
}

func TestLoginRateLimit(t *testing.T) {
	s := newTestServer(t, RouterConfig{
		RateLimitEnabled: true,
		RateLimit:        1000,
		RateBurst:        1000,
		LoginPerMinute:   2,
	})

	bad := model.LoginRequest{Email: "admin@dental.com", Password: "wrong"}
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/v1/auth/login", "", bad).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/v1/auth/login", "", bad).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodPost, "/api/v1/auth/login", "", bad).Code)
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
