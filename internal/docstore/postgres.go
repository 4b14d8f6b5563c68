package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const notifyChannel = "docstore_changes"

// DocumentRow is the postgres representation of a Record.
type DocumentRow struct {
	Collection string         `gorm:"primaryKey;size:120"`
	ID         string         `gorm:"primaryKey;size:64"`
	Data       datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time      `gorm:"index"`
	UpdatedAt  time.Time
}

func (DocumentRow) TableName() string { return "documents" }

// Postgres stores records as jsonb rows. Changes are broadcast with
// pg_notify so every server process sharing the database sees them.
type Postgres struct {
	db     *gorm.DB
	dsn    string
	hub    *hub
	cancel context.CancelFunc
	done   chan struct{}
}

// OpenPostgres migrates the documents table and starts the LISTEN loop.
func OpenPostgres(ctx context.Context, db *gorm.DB, dsn string) (*Postgres, error) {
	if err := db.WithContext(ctx).AutoMigrate(&DocumentRow{}); err != nil {
		return nil, fmt.Errorf("migrate documents: %w", err)
	}

	listenCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p := &Postgres{
		db:     db,
		dsn:    dsn,
		hub:    newHub(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go p.listen(listenCtx)
	return p, nil
}

func (p *Postgres) LoadAll(ctx context.Context, collection string) ([]Record, error) {
	var rows []DocumentRow
	if err := p.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}

	result := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeRecord(row.ID, row.Data)
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, row.ID, err)
		}
		result = append(result, rec)
	}
	return result, nil
}

func (p *Postgres) Add(ctx context.Context, collection string, fields Record) (string, error) {
	data, err := encodeRecord(fields)
	if err != nil {
		return "", err
	}
	row := DocumentRow{Collection: collection, ID: uuid.NewString(), Data: data}

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
		return notify(tx, collection)
	})
	if err != nil {
		return "", err
	}
	return row.ID, nil
}

func (p *Postgres) Update(ctx context.Context, collection, id string, patch Record) error {
	data, err := encodeRecord(patch)
	if err != nil {
		return err
	}

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&DocumentRow{}).
			Where("collection = ? AND id = ?", collection, id).
			Updates(map[string]any{
				"data":       gorm.Expr("data || ?::jsonb", string(data)),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("update document: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return notify(tx, collection)
	})
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("collection = ? AND id = ?", collection, id).Delete(&DocumentRow{})
		if res.Error != nil {
			return fmt.Errorf("delete document: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return notify(tx, collection)
	})
}

func (p *Postgres) Subscribe(_ context.Context, collection string, onChange func([]Record)) (func(), error) {
	return p.hub.add(collection, onChange), nil
}

func (p *Postgres) Close() error {
	p.cancel()
	<-p.done
	p.hub.clear()
	return nil
}

func notify(tx *gorm.DB, collection string) error {
	if err := tx.Exec("SELECT pg_notify(?, ?)", notifyChannel, collection).Error; err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// listen holds a dedicated connection on LISTEN and reconnects with a fixed
// backoff until the store is closed.
func (p *Postgres) listen(ctx context.Context) {
	defer close(p.done)

	for {
		err := p.listenOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		slog.Warn("docstore listener dropped", "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (p *Postgres) listenOnce(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, p.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		collection := n.Payload
		err = p.hub.refresh(collection, func() ([]Record, error) {
			return p.LoadAll(ctx, collection)
		})
		if errors.Is(err, context.Canceled) {
			return err
		}
		if err != nil {
			slog.Error("docstore reload failed", "collection", collection, "error", err)
		}
	}
}
