package tenant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hash(t *testing.T, s string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}

func writeTenants(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tenants.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeTenants(t, `{"tenants":[
		{"tenant_id":"lakeview","name":"Lakeview"},
		{"tenant_id":"greenpark","name":"Green Park","features":{"society":false}}
	]}`)

	r, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.True(t, r.Exists("greenpark"))
	assert.False(t, r.Exists("nowhere"))
	assert.Equal(t, "Green Park", r.Get("greenpark").Name)
	assert.False(t, r.HasFeature("greenpark", FeatureSociety))
	assert.True(t, r.HasFeature("greenpark", FeatureDocuments), "unset flags default to on")
	assert.False(t, r.HasFeature("nowhere", FeatureDocuments))

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "greenpark", all[0].TenantID)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadFromFile(writeTenants(t, `{not json`))
	assert.Error(t, err)

	_, err = LoadFromFile(writeTenants(t, `{"tenants":[{"name":"no id"}]}`))
	assert.Error(t, err)
}

func TestPasscodes(t *testing.T) {
	r := NewRegistry()
	r.Register(&TenantConfig{
		TenantID: "greenpark",
		Passcodes: PasscodeHashes{
			SuperAdmin:   hash(t, "12321"),
			SocietyAdmin: hash(t, "4455"),
			StepUp:       hash(t, "2468"),
		},
	})
	r.Register(&TenantConfig{TenantID: "bare"})

	role, ok := r.PasscodeRole("greenpark", "12321")
	assert.True(t, ok)
	assert.Equal(t, PasscodeSuperAdmin, role)

	role, ok = r.PasscodeRole("greenpark", "4455")
	assert.True(t, ok)
	assert.Equal(t, PasscodeSocietyAdmin, role)

	_, ok = r.PasscodeRole("greenpark", "0000")
	assert.False(t, ok)
	_, ok = r.PasscodeRole("bare", "")
	assert.False(t, ok)
	_, ok = r.PasscodeRole("nowhere", "12321")
	assert.False(t, ok)

	assert.True(t, r.VerifyStepUp("greenpark", "2468"))
	assert.False(t, r.VerifyStepUp("greenpark", "12321"))
	assert.False(t, r.VerifyStepUp("bare", "2468"))
}
