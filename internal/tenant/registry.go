package tenant

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Feature flags a tenant can switch off in tenants.json.
const (
	FeatureSociety      = "society"
	FeatureDocuments    = "documents"
	FeatureWorkerPortal = "worker_portal"
	FeatureMemberPortal = "member_portal"
)

// Login roles granted by a passcode login. They match session roles.
const (
	PasscodeSuperAdmin   = "superadmin"
	PasscodeSocietyAdmin = "societyadmin"
)

type TenantConfig struct {
	TenantID  string          `json:"tenant_id"`
	Name      string          `json:"name"`
	Passcodes PasscodeHashes  `json:"passcodes"`
	Features  map[string]bool `json:"features"`
}

// PasscodeHashes are bcrypt hashes; an empty hash disables that login.
type PasscodeHashes struct {
	SuperAdmin   string `json:"superadmin"`
	SocietyAdmin string `json:"societyadmin"`
	StepUp       string `json:"step_up"`
}

type TenantsFile struct {
	Tenants []TenantConfig `json:"tenants"`
}

type Registry struct {
	mu      sync.RWMutex
	tenants map[string]*TenantConfig
}

func NewRegistry() *Registry {
	return &Registry{
		tenants: make(map[string]*TenantConfig),
	}
}

func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tenants config: %w", err)
	}

	var file TenantsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tenants config: %w", err)
	}

	registry := NewRegistry()
	for i := range file.Tenants {
		if file.Tenants[i].TenantID == "" {
			return nil, fmt.Errorf("tenants config entry %d has no tenant_id", i)
		}
		registry.Register(&file.Tenants[i])
	}
	return registry, nil
}

func (r *Registry) Register(cfg *TenantConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[cfg.TenantID] = cfg
}

func (r *Registry) Get(tenantID string) *TenantConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tenants[tenantID]
}

func (r *Registry) Exists(tenantID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tenants[tenantID]
	return ok
}

// HasFeature treats a flag missing from the config as enabled.
func (r *Registry) HasFeature(tenantID, feature string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.tenants[tenantID]
	if !ok {
		return false
	}
	enabled, set := cfg.Features[feature]
	return !set || enabled
}

// All returns the tenants sorted by id.
func (r *Registry) All() []*TenantConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*TenantConfig, 0, len(r.tenants))
	for _, cfg := range r.tenants {
		result = append(result, cfg)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TenantID < result[j].TenantID })
	return result
}

// PasscodeRole returns the role unlocked by passcode, checking the
// superadmin passcode first.
func (r *Registry) PasscodeRole(tenantID, passcode string) (string, bool) {
	cfg := r.Get(tenantID)
	if cfg == nil {
		return "", false
	}
	if matches(cfg.Passcodes.SuperAdmin, passcode) {
		return PasscodeSuperAdmin, true
	}
	if matches(cfg.Passcodes.SocietyAdmin, passcode) {
		return PasscodeSocietyAdmin, true
	}
	return "", false
}

// VerifyStepUp checks the passcode guarding destructive actions.
func (r *Registry) VerifyStepUp(tenantID, passcode string) bool {
	cfg := r.Get(tenantID)
	if cfg == nil {
		return false
	}
	return matches(cfg.Passcodes.StepUp, passcode)
}

func matches(hash, passcode string) bool {
	if hash == "" || passcode == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode)) == nil
}
