package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/session"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/tenant"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/workspace"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid passcode or credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrPhoneNotFound      = errors.New("no worker or member is registered with this phone number")
	ErrFeatureDisabled    = errors.New("this feature is disabled for the tenant")
)

// identity is who a successful login resolved to.
type identity struct {
	subject string
	name    string
	role    session.Role
}

type AuthService struct {
	users      UserRepository
	registry   *tenant.Registry
	sessions   *session.Manager
	workspaces *workspace.Manager
	secret     []byte
	expiry     time.Duration
	now        func() time.Time
}

func NewAuthService(users UserRepository, registry *tenant.Registry, sessions *session.Manager, workspaces *workspace.Manager, cfg *config.Config) *AuthService {
	return &AuthService{
		users:      users,
		registry:   registry,
		sessions:   sessions,
		workspaces: workspaces,
		secret:     []byte(cfg.JWTSecret),
		expiry:     cfg.JWTAccessExpiry,
		now:        time.Now,
	}
}

// Login accepts a tenant passcode (superadmin or society admin) or the email
// and password of an admin account. A passcode takes precedence.
func (s *AuthService) Login(ctx context.Context, tenantID string, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if req.Passcode != "" {
		role, ok := s.registry.PasscodeRole(tenantID, req.Passcode)
		if !ok {
			return nil, ErrInvalidCredentials
		}
		if role == tenant.PasscodeSocietyAdmin && !s.registry.HasFeature(tenantID, tenant.FeatureSociety) {
			return nil, ErrFeatureDisabled
		}
		return s.issue(tenantID, identity{subject: role, role: session.ParseRole(role)})
	}

	if req.Email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.FindByEmail(ctx, tenantID, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	role := session.ParseRole(user.Role)
	if role == session.RoleNone {
		role = session.RoleAdmin
	}
	return s.issue(tenantID, identity{subject: user.ID.String(), name: user.Name, role: role})
}

// PhoneLogin signs in a worker, or failing that a society member, by the
// phone number on their record.
func (s *AuthService) PhoneLogin(ctx context.Context, tenantID, phone string) (*dto.AuthResponse, error) {
	ws, err := s.workspaces.Get(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}
	phone = strings.TrimSpace(phone)

	if s.registry.HasFeature(tenantID, tenant.FeatureWorkerPortal) {
		if w, ok := ws.Workers.Find(func(w models.Worker) bool { return w.Phone == phone }); ok {
			return s.issue(tenantID, identity{subject: w.ID, name: w.Name, role: session.RoleWorker})
		}
	}
	if s.registry.HasFeature(tenantID, tenant.FeatureMemberPortal) {
		if m, ok := ws.Members.Find(func(m models.Member) bool { return m.Phone == phone }); ok {
			return s.issue(tenantID, identity{subject: m.ID, name: m.Name, role: session.RoleMember})
		}
	}
	return nil, ErrPhoneNotFound
}

func (s *AuthService) Logout(sessionID string) {
	s.sessions.End(sessionID)
}

// CreateAdmin adds an email login with the admin role.
func (s *AuthService) CreateAdmin(ctx context.Context, tenantID string, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	email := normalizeEmail(req.Email)
	if _, err := s.users.FindByEmail(ctx, tenantID, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:       uuid.New(),
		TenantID: tenantID,
		Email:    email,
		Name:     strings.TrimSpace(req.Name),
		Password: string(hash),
		Role:     string(session.RoleAdmin),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &dto.UserResponse{
		ID:    user.ID.String(),
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}, nil
}

func (s *AuthService) issue(tenantID string, id identity) (*dto.AuthResponse, error) {
	sess := s.sessions.Start(tenantID, id.subject, id.role)
	now := s.now()
	expires := now.Add(s.expiry)

	claims := jwt.MapClaims{
		"sub":       id.subject,
		"role":      string(id.role),
		"tenant_id": tenantID,
		"sid":       sess.ID,
		"iat":       now.Unix(),
		"exp":       expires.Unix(),
	}
	if id.name != "" {
		claims["name"] = id.name
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		s.sessions.End(sess.ID)
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &dto.AuthResponse{
		AccessToken: token,
		ExpiresAt:   expires,
		Role:        string(id.role),
		TenantID:    tenantID,
		Subject:     id.subject,
		Name:        id.name,
		Sections:    SectionNames(id.role),
	}, nil
}

// SectionNames lists the sections a role may open.
func SectionNames(role session.Role) []string {
	sections := role.Sections()
	out := make([]string, len(sections))
	for i, sec := range sections {
		out[i] = string(sec)
	}
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
