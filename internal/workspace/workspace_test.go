package workspace

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/reports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, client docstore.Client) *Manager {
	t.Helper()
	m := NewManager(client, ManagerConfig{
		Known: func(id string) bool { return id == "alpha" || id == "beta" },
	})
	t.Cleanup(m.Close)
	return m
}

func TestManagerRejectsUnknownTenant(t *testing.T) {
	m := newTestManager(t, docstore.NewMemory())

	_, err := m.Get(t.Context(), "gamma")
	assert.ErrorIs(t, err, ErrUnknownTenant)
}

func TestManagerReusesWorkspace(t *testing.T) {
	m := newTestManager(t, docstore.NewMemory())

	a, err := m.Get(t.Context(), "alpha")
	require.NoError(t, err)
	again, err := m.Get(t.Context(), "alpha")
	require.NoError(t, err)
	assert.Same(t, a, again)
	assert.Equal(t, "alpha", a.TenantID)
}

func TestTenantsDoNotShareRecords(t *testing.T) {
	m := newTestManager(t, docstore.NewMemory())
	require.NoError(t, m.Warm(t.Context(), []string{"alpha", "beta"}))

	alpha, _ := m.Get(t.Context(), "alpha")
	beta, _ := m.Get(t.Context(), "beta")

	_, err := alpha.Workers.Create(t.Context(), models.Worker{Name: "Raju", Phone: "9876543210"})
	require.NoError(t, err)

	assert.Equal(t, 1, alpha.Workers.Len())
	assert.Zero(t, beta.Workers.Len())
}

func TestRajuScenario(t *testing.T) {
	m := newTestManager(t, docstore.NewMemory())
	ws, err := m.Get(t.Context(), "alpha")
	require.NoError(t, err)
	ctx := t.Context()

	raju, err := ws.Workers.Create(ctx, models.Worker{Name: "Raju", Phone: "9876543210", Rate: models.NewAmount(500)})
	require.NoError(t, err)
	_, err = ws.Payments.Create(ctx, models.Payment{WorkerID: raju.ID, Amount: models.NewAmount(2000), Date: "2025-01-05"})
	require.NoError(t, err)

	rows := reports.WorkerPayments(ws.Payments.All(), ws.Workers.All())
	require.Len(t, rows, 1)
	assert.Equal(t, "Raju", rows[0].Name)
	assert.Equal(t, "2000", rows[0].Amount.String())

	require.NoError(t, ws.Workers.Delete(ctx, raju.ID))

	rows = reports.WorkerPayments(ws.Payments.All(), ws.Workers.All())
	require.Len(t, rows, 1)
	assert.Equal(t, models.UnknownWorker, rows[0].Name)
	assert.Equal(t, "2000", rows[0].Amount.String())
}

type failingClient struct {
	*docstore.Memory
	failOn string
}

func (f *failingClient) LoadAll(ctx context.Context, collection string) ([]docstore.Record, error) {
	if collection == f.failOn {
		return nil, errors.New("unavailable")
	}
	return f.Memory.LoadAll(ctx, collection)
}

func TestStartFailureIsNotCached(t *testing.T) {
	client := &failingClient{Memory: docstore.NewMemory(), failOn: "alpha__" + models.CollectionLedger}
	m := newTestManager(t, client)

	_, err := m.Get(t.Context(), "alpha")
	require.Error(t, err)

	client.failOn = ""
	ws, err := m.Get(t.Context(), "alpha")
	require.NoError(t, err)
	assert.NotNil(t, ws.Ledger)
}

// stallingClient holds every load of one tenant until released.
type stallingClient struct {
	*docstore.Memory
	prefix  string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *stallingClient) LoadAll(ctx context.Context, collection string) ([]docstore.Record, error) {
	if strings.HasPrefix(collection, s.prefix) {
		s.once.Do(func() { close(s.entered) })
		<-s.release
	}
	return s.Memory.LoadAll(ctx, collection)
}

func TestSlowTenantDoesNotBlockOthers(t *testing.T) {
	client := &stallingClient{
		Memory:  docstore.NewMemory(),
		prefix:  "alpha__",
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	m := newTestManager(t, client)

	alphaDone := make(chan error, 1)
	go func() {
		_, err := m.Get(context.Background(), "alpha")
		alphaDone <- err
	}()
	<-client.entered

	beta, err := m.Get(t.Context(), "beta")
	require.NoError(t, err)
	assert.Equal(t, "beta", beta.TenantID)

	select {
	case <-alphaDone:
		t.Fatal("alpha finished while its load was held")
	default:
	}

	close(client.release)
	require.NoError(t, <-alphaDone)

	alpha, err := m.Get(t.Context(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", alpha.TenantID)
}
