package services

import (
	"context"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/session"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/workspace"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type fakeUsers struct {
	byEmail map[string]*models.User
}

func (f *fakeUsers) FindByEmail(_ context.Context, tenantID, email string) (*models.User, error) {
	u, ok := f.byEmail[tenantID+"/"+email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.byEmail[u.TenantID+"/"+u.Email] = u
	return nil
}

func mustHash(t *testing.T, s string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}

type fixture struct {
	svc        *AuthService
	users      *fakeUsers
	sessions   *session.Manager
	workspaces *workspace.Manager
	registry   *tenant.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	registry := tenant.NewRegistry()
	registry.Register(&tenant.TenantConfig{
		TenantID: "lakeview",
		Passcodes: tenant.PasscodeHashes{
			SuperAdmin:   mustHash(t, "1111"),
			SocietyAdmin: mustHash(t, "2222"),
			StepUp:       mustHash(t, "9999"),
		},
	})
	registry.Register(&tenant.TenantConfig{
		TenantID:  "plain",
		Passcodes: tenant.PasscodeHashes{SocietyAdmin: mustHash(t, "2222")},
		Features:  map[string]bool{tenant.FeatureSociety: false, tenant.FeatureMemberPortal: false},
	})

	sessions := session.NewManager(30 * time.Minute)
	workspaces := workspace.NewManager(docstore.NewMemory(), workspace.ManagerConfig{Known: registry.Exists})
	t.Cleanup(workspaces.Close)

	users := &fakeUsers{byEmail: map[string]*models.User{}}
	cfg := &config.Config{JWTSecret: testSecret, JWTAccessExpiry: time.Hour}
	return &fixture{
		svc:        NewAuthService(users, registry, sessions, workspaces, cfg),
		users:      users,
		sessions:   sessions,
		workspaces: workspaces,
		registry:   registry,
	}
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

func TestPasscodeLogin(t *testing.T) {
	tests := []struct {
		name     string
		tenant   string
		passcode string
		role     string
		err      error
	}{
		{"superadmin", "lakeview", "1111", "superadmin", nil},
		{"society admin", "lakeview", "2222", "societyadmin", nil},
		{"wrong passcode", "lakeview", "0000", "", ErrInvalidCredentials},
		{"step-up passcode does not log in", "lakeview", "9999", "", ErrInvalidCredentials},
		{"society switched off", "plain", "2222", "", ErrFeatureDisabled},
		{"unknown tenant", "nowhere", "1111", "", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			resp, err := f.svc.Login(t.Context(), tt.tenant, &dto.LoginRequest{Passcode: tt.passcode})
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Zero(t, f.sessions.Len())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.role, resp.Role)

			claims := parseClaims(t, resp.AccessToken)
			assert.Equal(t, tt.role, claims["role"])
			assert.Equal(t, tt.tenant, claims["tenant_id"])

			sid, _ := claims["sid"].(string)
			_, err = f.sessions.Touch(sid)
			assert.NoError(t, err)
		})
	}
}

func TestEmailLogin(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.CreateAdmin(t.Context(), "lakeview", &dto.CreateUserRequest{
		Email: " Site@Breeza.test ", Name: "Site Office", Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "site@breeza.test", created.Email)
	assert.Equal(t, "admin", created.Role)

	resp, err := f.svc.Login(t.Context(), "lakeview", &dto.LoginRequest{Email: "site@breeza.test", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "admin", resp.Role)
	assert.Equal(t, created.ID, resp.Subject)
	assert.Equal(t, []string{"management"}, resp.Sections)

	_, err = f.svc.Login(t.Context(), "lakeview", &dto.LoginRequest{Email: "site@breeza.test", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(t.Context(), "plain", &dto.LoginRequest{Email: "site@breeza.test", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials, "accounts belong to one tenant")

	_, err = f.svc.CreateAdmin(t.Context(), "lakeview", &dto.CreateUserRequest{Email: "site@breeza.test", Password: "another-pass"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestPhoneLogin(t *testing.T) {
	f := newFixture(t)
	ws, err := f.workspaces.Get(t.Context(), "lakeview")
	require.NoError(t, err)
	raju, err := ws.Workers.Create(t.Context(), models.Worker{Name: "Raju", Phone: "9876543210"})
	require.NoError(t, err)
	asha, err := ws.Members.Create(t.Context(), models.Member{Name: "Asha", Flat: "A-101", Phone: "9123456780", Role: "owner"})
	require.NoError(t, err)

	resp, err := f.svc.PhoneLogin(t.Context(), "lakeview", "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "worker", resp.Role)
	assert.Equal(t, raju.ID, resp.Subject)
	assert.Equal(t, "Raju", resp.Name)

	resp, err = f.svc.PhoneLogin(t.Context(), "lakeview", "9123456780")
	require.NoError(t, err)
	assert.Equal(t, "member", resp.Role)
	assert.Equal(t, asha.ID, resp.Subject)

	_, err = f.svc.PhoneLogin(t.Context(), "lakeview", "9000000000")
	assert.ErrorIs(t, err, ErrPhoneNotFound)
}

func TestPhoneLoginRespectsFeatures(t *testing.T) {
	f := newFixture(t)
	ws, err := f.workspaces.Get(t.Context(), "plain")
	require.NoError(t, err)
	_, err = ws.Members.Create(t.Context(), models.Member{Name: "Asha", Flat: "A-101", Phone: "9123456780", Role: "owner"})
	require.NoError(t, err)

	_, err = f.svc.PhoneLogin(t.Context(), "plain", "9123456780")
	assert.ErrorIs(t, err, ErrPhoneNotFound)
}

func TestLogoutEndsSession(t *testing.T) {
	f := newFixture(t)
	resp, err := f.svc.Login(t.Context(), "lakeview", &dto.LoginRequest{Passcode: "1111"})
	require.NoError(t, err)
	sid, _ := parseClaims(t, resp.AccessToken)["sid"].(string)

	f.svc.Logout(sid)
	_, err = f.sessions.Touch(sid)
	assert.ErrorIs(t, err, session.ErrUnknown)
}
