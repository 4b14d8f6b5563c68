package docstore

import (
	"encoding/json"
	"fmt"
)

func encodeRecord(r Record) ([]byte, error) {
	data, err := json.Marshal(r.withoutID())
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

func decodeRecord(id string, data []byte) (Record, error) {
	rec := Record{}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	rec[IDField] = id
	return rec, nil
}
