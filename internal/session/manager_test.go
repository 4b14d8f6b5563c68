package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager() (*Manager, *clock) {
	c := &clock{t: time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)}
	m := NewManager(30 * time.Minute)
	m.now = c.now
	return m, c
}

func TestTouchKeepsActiveSessionsAlive(t *testing.T) {
	m, c := newTestManager()
	s := m.Start("greenpark", "admin", RoleSuperAdmin)

	for range 4 {
		c.advance(20 * time.Minute)
		got, err := m.Touch(s.ID)
		require.NoError(t, err)
		assert.Equal(t, c.t, got.LastActivity)
	}
	got, _ := m.Touch(s.ID)
	assert.Equal(t, s.StartedAt, got.StartedAt)
}

func TestIdleTimeoutClearsStepUp(t *testing.T) {
	m, c := newTestManager()
	s := m.Start("greenpark", "admin", RoleSuperAdmin)
	require.NoError(t, m.GrantStepUp(s.ID))

	got, err := m.Touch(s.ID)
	require.NoError(t, err)
	assert.True(t, got.StepUp)

	c.advance(31 * time.Minute)
	_, err = m.Touch(s.ID)
	assert.ErrorIs(t, err, ErrExpired)

	_, err = m.Touch(s.ID)
	assert.ErrorIs(t, err, ErrUnknown)
	assert.ErrorIs(t, m.GrantStepUp(s.ID), ErrUnknown)
}

func TestSweepRemovesOnlyIdleSessions(t *testing.T) {
	m, c := newTestManager()
	old := m.Start("greenpark", "w1", RoleWorker)
	c.advance(25 * time.Minute)
	fresh := m.Start("greenpark", "w2", RoleWorker)
	c.advance(10 * time.Minute)

	assert.Equal(t, 1, m.Sweep())
	_, err := m.Touch(old.ID)
	assert.ErrorIs(t, err, ErrUnknown)
	_, err = m.Touch(fresh.ID)
	assert.NoError(t, err)
}

func TestEnd(t *testing.T) {
	m, _ := newTestManager()
	s := m.Start("greenpark", "m1", RoleMember)
	m.End(s.ID)
	m.End(s.ID)
	assert.Zero(t, m.Len())
}

func TestRoleVisibility(t *testing.T) {
	tests := []struct {
		role    Role
		section Section
		want    bool
	}{
		{RoleWorker, SectionManagement, false},
		{RoleWorker, SectionPortal, true},
		{RoleMember, SectionMember, true},
		{RoleMember, SectionSociety, false},
		{RoleAdmin, SectionManagement, true},
		{RoleAdmin, SectionAccounts, false},
		{RoleSocietyAdmin, SectionSociety, true},
		{RoleSocietyAdmin, SectionManagement, false},
		{RoleSuperAdmin, SectionSociety, true},
		{RoleSuperAdmin, SectionAccounts, true},
		{RoleNone, SectionPortal, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.section), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.Can(tt.section))
		})
	}
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleWorker, ParseRole("worker"))
	assert.Equal(t, RoleNone, ParseRole("root"))
	assert.Equal(t, RoleNone, ParseRole(""))
}
