package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/apps/renovation"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/apps/society"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/session"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/uploads"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/validation"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/workspace"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type noUsers struct{}

func (noUsers) FindByEmail(context.Context, string, string) (*models.User, error) {
	return nil, services.ErrUserNotFound
}

func (noUsers) Create(context.Context, *models.User) error { return nil }

func hash(t *testing.T, s string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}

type server struct {
	app *fiber.App
}

func newServer(t *testing.T) *server {
	t.Helper()
	registry := tenant.NewRegistry()
	registry.Register(&tenant.TenantConfig{
		TenantID: "lakeview",
		Passcodes: tenant.PasscodeHashes{
			SuperAdmin:   hash(t, "1111"),
			SocietyAdmin: hash(t, "2222"),
			StepUp:       hash(t, "9999"),
		},
	})
	registry.Register(&tenant.TenantConfig{
		TenantID:  "plain",
		Passcodes: tenant.PasscodeHashes{SuperAdmin: hash(t, "1111")},
		Features:  map[string]bool{tenant.FeatureSociety: false},
	})

	cfg := &config.Config{JWTSecret: "routes-secret", JWTAccessExpiry: time.Hour}
	sessions := session.NewManager(30 * time.Minute)
	workspaces := workspace.NewManager(docstore.NewMemory(), workspace.ManagerConfig{Known: registry.Exists})
	t.Cleanup(workspaces.Close)

	validate := validation.New()
	authService := services.NewAuthService(noUsers{}, registry, sessions, workspaces, cfg)

	app := fiber.New()
	app.Use(middleware.TenantMiddleware(registry))
	Setup(app, apps.Deps{
		Config:     cfg,
		Registry:   registry,
		Workspaces: workspaces,
		Validator:  validate,
		Documents:  services.NewDocumentService(uploads.Policy{MaxBytes: 1024, PreviewRows: 10}, nil),
	}, sessions, Handlers{
		Auth:    handlers.NewAuthHandler(authService, validate),
		Health:  handlers.NewHealthHandler(registry, func() error { return nil }, docstore.DriverMemory),
		Session: handlers.NewSessionHandler(sessions, registry, validate),
	}, []apps.Plugin{renovation.New(), society.New()})

	return &server{app: app}
}

type call struct {
	method, path string
	tenantID     string
	token        string
	body         any
	headers      map[string]string
}

func (s *server) do(t *testing.T, c call) (int, []byte) {
	t.Helper()
	var body io.Reader
	if c.body != nil {
		raw, err := json.Marshal(c.body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tenantID != "" {
		req.Header.Set(middleware.HeaderTenantID, c.tenantID)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func (s *server) login(t *testing.T, tenantID, passcode string) string {
	t.Helper()
	status, body := s.do(t, call{method: http.MethodPost, path: "/api/auth/login", tenantID: tenantID, body: dto.LoginRequest{Passcode: passcode}})
	require.Equal(t, http.StatusOK, status, string(body))
	var resp dto.AuthResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.AccessToken
}

func TestHealthIsPublic(t *testing.T) {
	s := newServer(t)
	status, _ := s.do(t, call{method: http.MethodGet, path: "/api/health"})
	assert.Equal(t, http.StatusOK, status)
}

func TestWorkerLifecycle(t *testing.T) {
	s := newServer(t)
	token := s.login(t, "lakeview", "1111")

	status, body := s.do(t, call{method: http.MethodPost, path: "/api/workers", token: token,
		body: map[string]any{"name": "Raju", "phone": "12345"}})
	require.Equal(t, http.StatusBadRequest, status)
	var verr dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &verr))
	assert.Contains(t, verr.Details, "phone must be exactly 10 digits")

	status, body = s.do(t, call{method: http.MethodPost, path: "/api/workers", token: token,
		body: map[string]any{"name": "<b>Raju</b>", "phone": "9876543210", "rate": "500"}})
	require.Equal(t, http.StatusCreated, status, string(body))
	var w models.Worker
	require.NoError(t, json.Unmarshal(body, &w))
	require.NotEmpty(t, w.ID)
	assert.Equal(t, "bRaju/b", w.Name)
	assert.Equal(t, "500", w.Rate.String())

	status, body = s.do(t, call{method: http.MethodPatch, path: "/api/workers/" + w.ID, token: token,
		body: map[string]any{"profession": "Painter"}})
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &w))
	assert.Equal(t, "Painter", w.Profession)
	assert.Equal(t, "9876543210", w.Phone)

	status, _ = s.do(t, call{method: http.MethodPatch, path: "/api/workers/" + w.ID, token: token,
		body: map[string]any{"phone": "abc"}})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, call{method: http.MethodDelete, path: "/api/workers/" + w.ID, token: token})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, call{method: http.MethodDelete, path: "/api/workers/" + w.ID, token: token,
		headers: map[string]string{middleware.HeaderPasscode: "9999"}})
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = s.do(t, call{method: http.MethodGet, path: "/api/workers/" + w.ID, token: token})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPendingIDIsRejected(t *testing.T) {
	s := newServer(t)
	token := s.login(t, "lakeview", "1111")
	status, _ := s.do(t, call{method: http.MethodPut, path: "/api/materials/local-123", token: token,
		body: map[string]any{"name": "Tiles"}})
	assert.Equal(t, http.StatusConflict, status)
}

func TestBudgetPutUpsertsByKey(t *testing.T) {
	s := newServer(t)
	token := s.login(t, "lakeview", "1111")

	status, _ := s.do(t, call{method: http.MethodPut, path: "/api/budgets/Paint", token: token, body: dto.BudgetRequest{Allocated: models.NewAmount(250)}})
	assert.Equal(t, http.StatusCreated, status)
	status, _ = s.do(t, call{method: http.MethodPut, path: "/api/budgets/Paint", token: token, body: dto.BudgetRequest{Allocated: models.NewAmount(400)}})
	assert.Equal(t, http.StatusOK, status)

	status, body := s.do(t, call{method: http.MethodGet, path: "/api/budgets", token: token})
	require.Equal(t, http.StatusOK, status)
	var budgets []models.Budget
	require.NoError(t, json.Unmarshal(body, &budgets))
	require.Len(t, budgets, 1)
	assert.Equal(t, "400", budgets[0].Allocated.String())
}

func TestBudgetAcceptsStringAmounts(t *testing.T) {
	s := newServer(t)
	token := s.login(t, "lakeview", "1111")

	status, _ := s.do(t, call{method: http.MethodPut, path: "/api/budgets/Tiles", token: token,
		body: map[string]any{"allocated": "250.50"}})
	require.Equal(t, http.StatusCreated, status)
	status, _ = s.do(t, call{method: http.MethodPut, path: "/api/budgets/Tiles", token: token,
		body: map[string]any{"allocated": "1200.75"}})
	require.Equal(t, http.StatusOK, status)

	status, body := s.do(t, call{method: http.MethodGet, path: "/api/budgets", token: token})
	require.Equal(t, http.StatusOK, status)
	var budgets []models.Budget
	require.NoError(t, json.Unmarshal(body, &budgets))
	require.Len(t, budgets, 1)
	assert.Equal(t, "1200.75", budgets[0].Allocated.String())

	status, _ = s.do(t, call{method: http.MethodPut, path: "/api/budgets/Tiles", token: token,
		body: map[string]any{"allocated": "-5"}})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = s.do(t, call{method: http.MethodPut, path: "/api/budgets/Tiles", token: token,
		body: map[string]any{"allocated": "lots"}})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUploadReportsEachFile(t *testing.T) {
	s := newServer(t)
	token := s.login(t, "lakeview", "1111")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range map[string]string{"costs.csv": "item,amount\npaint,300\n", "empty.csv": ""} {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.WriteField("visibleToWorkers", "true"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out dto.UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 1, out.Uploaded)
	assert.Equal(t, 1, out.Failed)
	for _, r := range out.Results {
		if r.Name == "empty.csv" {
			assert.False(t, r.OK)
			assert.NotEmpty(t, r.Error)
		} else {
			assert.True(t, r.OK)
			assert.NotEmpty(t, r.ID)
		}
	}
}

func TestWorkerPortal(t *testing.T) {
	s := newServer(t)
	admin := s.login(t, "lakeview", "1111")
	status, _ := s.do(t, call{method: http.MethodPost, path: "/api/workers", token: admin,
		body: map[string]any{"name": "Sita", "phone": "9123456780"}})
	require.Equal(t, http.StatusCreated, status)

	status, body := s.do(t, call{method: http.MethodPost, path: "/api/auth/phone-login", tenantID: "lakeview",
		body: dto.PhoneLoginRequest{Phone: "9123456780"}})
	require.Equal(t, http.StatusOK, status, string(body))
	var auth dto.AuthResponse
	require.NoError(t, json.Unmarshal(body, &auth))
	assert.Equal(t, string(session.RoleWorker), auth.Role)

	status, _ = s.do(t, call{method: http.MethodGet, path: "/api/portal/me", token: auth.AccessToken})
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, call{method: http.MethodGet, path: "/api/workers", token: auth.AccessToken})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestSocietyRespectsFeatureAndRole(t *testing.T) {
	s := newServer(t)

	societyAdmin := s.login(t, "lakeview", "2222")
	status, _ := s.do(t, call{method: http.MethodPost, path: "/api/members", token: societyAdmin,
		body: map[string]any{"name": "Anil", "flat": "A-101", "phone": "9000000001", "role": "owner"}})
	assert.Equal(t, http.StatusCreated, status)
	status, _ = s.do(t, call{method: http.MethodGet, path: "/api/society/summary", token: societyAdmin})
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, call{method: http.MethodGet, path: "/api/workers", token: societyAdmin})
	assert.Equal(t, http.StatusForbidden, status)

	plain := s.login(t, "plain", "1111")
	status, _ = s.do(t, call{method: http.MethodGet, path: "/api/members", token: plain})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLogoutEndsAccess(t *testing.T) {
	s := newServer(t)
	token := s.login(t, "lakeview", "1111")

	status, _ := s.do(t, call{method: http.MethodPost, path: "/api/auth/logout", token: token})
	require.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, call{method: http.MethodGet, path: "/api/session", token: token})
	assert.Equal(t, http.StatusUnauthorized, status)
}
