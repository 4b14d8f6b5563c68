package entity

import (
	"encoding/json"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/docstore"
)

// ToRecord converts a typed entity into the untyped document shape.
func ToRecord[T any](v T) (docstore.Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode entity: %w", err)
	}
	rec := docstore.Record{}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("encode entity: %w", err)
	}
	return rec, nil
}

// FromRecord decodes a document into T. Unknown fields are ignored.
func FromRecord[T any](rec docstore.Record) (T, error) {
	var v T
	data, err := json.Marshal(rec)
	if err != nil {
		return v, fmt.Errorf("decode entity: %w", err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode entity: %w", err)
	}
	return v, nil
}
