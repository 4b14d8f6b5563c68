// Package workspace owns the entity stores of every tenant.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/docstore"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/entity"
	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/models"
)

var ErrUnknownTenant = errors.New("unknown tenant")

// Workspace is the synchronized state of one tenant.
type Workspace struct {
	TenantID string

	Workers   *entity.Store[models.Worker]
	Tasks     *entity.Store[models.Task]
	Materials *entity.Store[models.Material]
	Payments  *entity.Store[models.Payment]
	Invoices  *entity.Store[models.Invoice]
	Schedules *entity.Store[models.Schedule]
	Ledger    *entity.Store[models.LedgerEntry]
	Budgets   *entity.Store[models.Budget]
	Documents *entity.Store[models.Document]
	Messages  *entity.Store[models.Message]

	Members     *entity.Store[models.Member]
	Parking     *entity.Store[models.ParkingSlot]
	Notices     *entity.Store[models.Notice]
	Complaints  *entity.Store[models.Complaint]
	Vendors     *entity.Store[models.Vendor]
	Maintenance *entity.Store[models.MaintenanceBill]

	lifecycles []lifecycle
}

type lifecycle interface {
	Start(ctx context.Context) error
	Close()
	Collection() string
}

func newStore[T any](w *Workspace, client docstore.Client, collection string, opts []entity.Option) *entity.Store[T] {
	s := entity.New[T](client, collection, opts...)
	w.lifecycles = append(w.lifecycles, s)
	return s
}

// New builds the stores of a tenant on top of a tenant-scoped client.
func New(tenantID string, client docstore.Client, opts ...entity.Option) *Workspace {
	w := &Workspace{TenantID: tenantID}

	w.Workers = newStore[models.Worker](w, client, models.CollectionWorkers, opts)
	w.Tasks = newStore[models.Task](w, client, models.CollectionTasks, opts)
	w.Materials = newStore[models.Material](w, client, models.CollectionMaterials, opts)
	w.Payments = newStore[models.Payment](w, client, models.CollectionPayments, opts)
	w.Invoices = newStore[models.Invoice](w, client, models.CollectionInvoices, opts)
	w.Schedules = newStore[models.Schedule](w, client, models.CollectionSchedules, opts)
	w.Ledger = newStore[models.LedgerEntry](w, client, models.CollectionLedger, opts)
	w.Budgets = newStore[models.Budget](w, client, models.CollectionBudgets, opts)
	w.Documents = newStore[models.Document](w, client, models.CollectionDocuments, opts)
	w.Messages = newStore[models.Message](w, client, models.CollectionMessages, opts)

	w.Members = newStore[models.Member](w, client, models.CollectionMembers, opts)
	w.Parking = newStore[models.ParkingSlot](w, client, models.CollectionParking, opts)
	w.Notices = newStore[models.Notice](w, client, models.CollectionNotices, opts)
	w.Complaints = newStore[models.Complaint](w, client, models.CollectionComplaints, opts)
	w.Vendors = newStore[models.Vendor](w, client, models.CollectionVendors, opts)
	w.Maintenance = newStore[models.MaintenanceBill](w, client, models.CollectionMaintenance, opts)

	return w
}

// Start loads and subscribes every store. Stores already started are closed
// again when a later one fails.
func (w *Workspace) Start(ctx context.Context) error {
	for i, s := range w.lifecycles {
		if err := s.Start(ctx); err != nil {
			for _, started := range w.lifecycles[:i] {
				started.Close()
			}
			return fmt.Errorf("tenant %s: %w", w.TenantID, err)
		}
	}
	return nil
}

func (w *Workspace) Close() {
	for _, s := range w.lifecycles {
		s.Close()
	}
}

// Manager starts workspaces on first use and keeps them until shutdown.
type Manager struct {
	client  docstore.Client
	known   func(tenantID string) bool
	timeout time.Duration
	options func(tenantID string) []entity.Option

	mu    sync.Mutex
	slots map[string]*slot
}

// slot serializes the start of one tenant's workspace.
type slot struct {
	mu sync.Mutex
	ws *Workspace
}

type ManagerConfig struct {
	// Known reports whether a tenant id is registered.
	Known   func(tenantID string) bool
	Timeout time.Duration
	// Options returns per-tenant store options such as a metrics observer.
	Options func(tenantID string) []entity.Option
}

func NewManager(client docstore.Client, cfg ManagerConfig) *Manager {
	if cfg.Known == nil {
		cfg.Known = func(string) bool { return true }
	}
	if cfg.Options == nil {
		cfg.Options = func(string) []entity.Option { return nil }
	}
	return &Manager{
		client:  client,
		known:   cfg.Known,
		timeout: cfg.Timeout,
		options: cfg.Options,
		slots:   make(map[string]*slot),
	}
}

// Get returns the started workspace of a tenant. The first call for a
// tenant performs the initial load; concurrent callers for the same tenant
// wait for it, callers for other tenants do not.
func (m *Manager) Get(ctx context.Context, tenantID string) (*Workspace, error) {
	if !m.known(tenantID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTenant, tenantID)
	}

	m.mu.Lock()
	sl, ok := m.slots[tenantID]
	if !ok {
		sl = &slot{}
		m.slots[tenantID] = sl
	}
	m.mu.Unlock()

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.ws != nil {
		return sl.ws, nil
	}

	opts := append([]entity.Option{
		entity.WithLogger(slog.Default().With("tenant_id", tenantID)),
	}, m.options(tenantID)...)
	if m.timeout > 0 {
		opts = append(opts, entity.WithTimeout(m.timeout))
	}

	w := New(tenantID, docstore.NewScoped(m.client, tenantID), opts...)
	if err := w.Start(context.WithoutCancel(ctx)); err != nil {
		return nil, err
	}
	sl.ws = w
	slog.Info("workspace started", "tenant_id", tenantID)
	return w, nil
}

// Warm starts the workspaces of the given tenants up front.
func (m *Manager) Warm(ctx context.Context, tenantIDs []string) error {
	for _, id := range tenantIDs {
		if _, err := m.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) Close() {
	m.mu.Lock()
	slots := m.slots
	m.slots = make(map[string]*slot)
	m.mu.Unlock()

	for _, sl := range slots {
		sl.mu.Lock()
		if sl.ws != nil {
			sl.ws.Close()
			sl.ws = nil
		}
		sl.mu.Unlock()
	}
}
