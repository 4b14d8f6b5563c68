package docstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openClients(t *testing.T) map[string]Client {
	t.Helper()

	lite, err := OpenSQLite(t.Context(), filepath.Join(t.TempDir(), "docs", "breeza.db"))
	require.NoError(t, err)

	clients := map[string]Client{
		"memory": NewMemory(),
		"sqlite": lite,
	}
	t.Cleanup(func() {
		for _, c := range clients {
			_ = c.Close()
		}
	})
	return clients
}

func TestClientContract(t *testing.T) {
	for name, c := range openClients(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()

			id, err := c.Add(ctx, "workers", Record{"id": "ignored", "name": "Raju", "rate": 800.0})
			require.NoError(t, err)
			require.NotEmpty(t, id)
			assert.NotEqual(t, "ignored", id)

			_, err = c.Add(ctx, "workers", Record{"name": "Sita"})
			require.NoError(t, err)

			all, err := c.LoadAll(ctx, "workers")
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, id, all[0].ID())
			assert.Equal(t, "Raju", all[0]["name"])

			require.NoError(t, c.Update(ctx, "workers", id, Record{"rate": 900.0}))
			all, err = c.LoadAll(ctx, "workers")
			require.NoError(t, err)
			assert.Equal(t, "Raju", all[0]["name"], "fields absent from the patch survive")
			assert.EqualValues(t, 900, all[0]["rate"])

			assert.ErrorIs(t, c.Update(ctx, "workers", "missing", Record{"rate": 1.0}), ErrNotFound)

			require.NoError(t, c.Delete(ctx, "workers", id))
			require.NoError(t, c.Delete(ctx, "workers", id), "deleting twice is not an error")

			all, err = c.LoadAll(ctx, "workers")
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, "Sita", all[0]["name"])

			empty, err := c.LoadAll(ctx, "nothing")
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestClientSubscribeSeesOwnWrites(t *testing.T) {
	for name, c := range openClients(t) {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()

			var mu sync.Mutex
			var snaps [][]Record
			unsubscribe, err := c.Subscribe(ctx, "tasks", func(records []Record) {
				mu.Lock()
				defer mu.Unlock()
				snaps = append(snaps, records)
			})
			require.NoError(t, err)

			id, err := c.Add(ctx, "tasks", Record{"title": "Tiling"})
			require.NoError(t, err)
			require.NoError(t, c.Update(ctx, "tasks", id, Record{"status": "Completed"}))
			_, err = c.Add(ctx, "materials", Record{"name": "Paint"})
			require.NoError(t, err)

			mu.Lock()
			require.Len(t, snaps, 2, "other collections do not notify")
			last := snaps[1]
			mu.Unlock()
			require.Len(t, last, 1)
			assert.Equal(t, "Completed", last[0]["status"])

			unsubscribe()
			unsubscribe()
			require.NoError(t, c.Delete(ctx, "tasks", id))

			mu.Lock()
			defer mu.Unlock()
			assert.Len(t, snaps, 2)
		})
	}
}

func TestMemorySnapshotsAreCopies(t *testing.T) {
	m := NewMemory()
	ctx := t.Context()

	id, err := m.Add(ctx, "notices", Record{"title": "Water cut"})
	require.NoError(t, err)

	all, err := m.LoadAll(ctx, "notices")
	require.NoError(t, err)
	all[0]["title"] = "changed"

	again, err := m.LoadAll(ctx, "notices")
	require.NoError(t, err)
	assert.Equal(t, "Water cut", again[0]["title"])
	assert.Equal(t, id, again[0].ID())
}

func TestMemoryClosedAndCancelled(t *testing.T) {
	m := NewMemory()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := m.LoadAll(ctx, "workers")
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, m.Close())
	_, err = m.Add(t.Context(), "workers", Record{"name": "x"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestScopedIsolatesTenants(t *testing.T) {
	shared := NewMemory()
	ctx := t.Context()
	a := NewScoped(shared, "greenpark")
	b := NewScoped(shared, "lakeview")

	_, err := a.Add(ctx, "members", Record{"name": "Anil"})
	require.NoError(t, err)

	fromB, err := b.LoadAll(ctx, "members")
	require.NoError(t, err)
	assert.Empty(t, fromB)

	raw, err := shared.LoadAll(ctx, "greenpark__members")
	require.NoError(t, err)
	assert.Len(t, raw, 1)

	require.NoError(t, a.Close())
	_, err = b.Add(ctx, "members", Record{"name": "Meera"})
	assert.NoError(t, err, "closing a scope leaves the shared client open")
}

func TestRecordMerge(t *testing.T) {
	base := Record{"id": "1", "name": "Cement", "qty": 10.0}
	merged := base.Merge(Record{"qty": 12.0})

	assert.Equal(t, Record{"id": "1", "name": "Cement", "qty": 12.0}, merged)
	assert.Equal(t, 10.0, base["qty"], "merge does not mutate the receiver")
	assert.Equal(t, "", Record{"name": "x"}.ID())
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := t.Context()

	c, err := Open(ctx, &config.Config{DocstoreDriver: DriverMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)

	c, err = Open(ctx, &config.Config{DocstoreDriver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "b.db")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, c)
	require.NoError(t, c.Close())

	_, err = Open(ctx, &config.Config{DocstoreDriver: DriverPostgres}, nil)
	assert.Error(t, err)

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	c, err = Open(ctx, &config.Config{DocstoreDriver: DriverSQLite, SQLitePath: filepath.Join(blocker, "b.db")}, nil)
	assert.Error(t, err)
	assert.Nil(t, c, "a failed open returns a nil client")

	c, err = Open(ctx, &config.Config{DocstoreDriver: "couch"}, nil)
	assert.Error(t, err)
	assert.Nil(t, c)
}
