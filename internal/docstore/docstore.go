// Package docstore is the client side of the remote document database that
// holds the authoritative collections. Every backend exposes the same five
// operations; the entity stores only ever talk to the Client interface.
package docstore

import (
	"context"
	"errors"
	"maps"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrMissingID = errors.New("record has no id")
	ErrClosed    = errors.New("document store closed")
)

// IDField is the key under which a record carries its store-assigned id.
const IDField = "id"

// Record is one document: an id plus arbitrary domain fields.
type Record map[string]any

// ID returns the record id, or "" when it has none.
func (r Record) ID() string {
	id, _ := r[IDField].(string)
	return id
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// Merge returns a copy of r with every field of patch written over it.
// Fields absent from patch are preserved.
func (r Record) Merge(patch Record) Record {
	out := make(Record, len(r)+len(patch))
	maps.Copy(out, r)
	maps.Copy(out, patch)
	return out
}

// withoutID strips the id so it is never persisted as a document field.
func (r Record) withoutID() Record {
	out := r.Clone()
	if out == nil {
		out = Record{}
	}
	delete(out, IDField)
	return out
}

// Client is the remote document store.
type Client interface {
	// LoadAll returns every record of the collection.
	LoadAll(ctx context.Context, collection string) ([]Record, error)
	// Add stores a new record and returns its store-assigned id.
	Add(ctx context.Context, collection string, fields Record) (string, error)
	// Update shallow-merges patch into an existing record.
	Update(ctx context.Context, collection, id string, patch Record) error
	// Delete removes the record; deleting a missing record is not an error.
	Delete(ctx context.Context, collection, id string) error
	// Subscribe calls onChange with the full collection whenever it changes,
	// including changes made through this same client.
	Subscribe(ctx context.Context, collection string, onChange func([]Record)) (func(), error)
	Close() error
}
