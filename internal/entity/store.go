// Package entity keeps the in-memory mirror of one remote collection and
// applies user actions to it optimistically before the remote write lands.
package entity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/docstore"
	"github.com/google/uuid"
)

// LocalIDPrefix marks records created locally that the remote store has not
// acknowledged yet.
const LocalIDPrefix = "local-"

var ErrNotFound = docstore.ErrNotFound

// Observer receives store events. The metrics package implements it.
type Observer interface {
	SnapshotApplied(collection string, size int)
	Mutated(collection, action string)
	WriteFailed(collection, action string)
}

type nopObserver struct{}

func (nopObserver) SnapshotApplied(string, int) {}
func (nopObserver) Mutated(string, string)      {}
func (nopObserver) WriteFailed(string, string)  {}

type Option func(*options)

type options struct {
	timeout  time.Duration
	observer Observer
	logger   *slog.Logger
}

// WithTimeout bounds every remote call made by the store.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Store mirrors a collection as an ordered list of records with unique ids.
// Readers always see either the state before or after a mutation.
type Store[T any] struct {
	collection string
	client     docstore.Client
	opts       options

	mu      sync.RWMutex
	records []docstore.Record
	index   map[string]int
	gen     uint64

	unsubscribe func()
}

func New[T any](client docstore.Client, collection string, opts ...Option) *Store[T] {
	o := options{
		timeout:  10 * time.Second,
		observer: nopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		collection: collection,
		client:     client,
		opts:       o,
		index:      make(map[string]int),
	}
}

func (s *Store[T]) Collection() string { return s.collection }

// Start subscribes to the remote collection and loads its current contents.
// A snapshot that arrives while the initial load is in flight wins over it.
func (s *Store[T]) Start(ctx context.Context) error {
	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	unsubscribe, err := s.client.Subscribe(ctx, s.collection, s.ReplaceAll)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.collection, err)
	}

	loadCtx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()
	records, err := s.client.LoadAll(loadCtx, s.collection)
	if err != nil {
		unsubscribe()
		return fmt.Errorf("load %s: %w", s.collection, err)
	}

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	if s.gen == gen {
		s.replaceLocked(records)
	}
	size := len(s.records)
	s.mu.Unlock()

	s.opts.observer.SnapshotApplied(s.collection, size)
	return nil
}

// Close stops listening for remote snapshots. The mirrored state stays readable.
func (s *Store[T]) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// ReplaceAll swaps the whole collection for records. Duplicate ids keep the
// position of their first occurrence and the contents of the last one.
// Records without an id are dropped.
func (s *Store[T]) ReplaceAll(records []docstore.Record) {
	s.mu.Lock()
	s.replaceLocked(records)
	s.gen++
	size := len(s.records)
	s.mu.Unlock()

	s.opts.observer.SnapshotApplied(s.collection, size)
}

func (s *Store[T]) replaceLocked(records []docstore.Record) {
	next := make([]docstore.Record, 0, len(records))
	index := make(map[string]int, len(records))
	for _, rec := range records {
		id := rec.ID()
		if id == "" {
			continue
		}
		if i, ok := index[id]; ok {
			next[i] = rec.Clone()
			continue
		}
		index[id] = len(next)
		next = append(next, rec.Clone())
	}
	s.records = next
	s.index = index
}

// Upsert shallow-merges rec over the record with the same id, or appends it.
// It reports false when rec has no id.
func (s *Store[T]) Upsert(rec docstore.Record) bool {
	if rec.ID() == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertLocked(rec)
	return true
}

func (s *Store[T]) upsertLocked(rec docstore.Record) docstore.Record {
	id := rec.ID()
	if i, ok := s.index[id]; ok {
		s.records[i] = s.records[i].Merge(rec)
		return s.records[i]
	}
	s.index[id] = len(s.records)
	s.records = append(s.records, rec.Clone())
	return s.records[len(s.records)-1]
}

// Remove drops the record with id. Removing an unknown id is a no-op.
func (s *Store[T]) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

func (s *Store[T]) removeLocked(id string) (docstore.Record, int, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, -1, false
	}
	rec := s.records[i]
	s.records = append(s.records[:i:i], s.records[i+1:]...)
	s.reindexLocked()
	return rec, i, true
}

func (s *Store[T]) insertAtLocked(i int, rec docstore.Record) {
	if i < 0 || i > len(s.records) {
		i = len(s.records)
	}
	s.records = append(s.records[:i:i], append([]docstore.Record{rec}, s.records[i:]...)...)
	s.reindexLocked()
}

func (s *Store[T]) reindexLocked() {
	s.index = make(map[string]int, len(s.records))
	for i, rec := range s.records {
		s.index[rec.ID()] = i
	}
}

// MutateField merges the fields returned by patch into the record with id.
// It reports false when no such record exists.
func (s *Store[T]) MutateField(id string, patch func(current docstore.Record) docstore.Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false
	}
	fields := patch(s.records[i].Clone()).Clone()
	if fields == nil {
		fields = docstore.Record{}
	}
	fields[docstore.IDField] = id
	s.upsertLocked(fields)
	return true
}

// Snapshot returns a copy of the raw records in order.
func (s *Store[T]) Snapshot() []docstore.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]docstore.Record, len(s.records))
	for i, rec := range s.records {
		out[i] = rec.Clone()
	}
	return out
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// All decodes every record. Records that do not decode into T are skipped.
func (s *Store[T]) All() []T {
	return s.Where(nil)
}

// Where returns the records matching keep, in store order.
func (s *Store[T]) Where(keep func(T) bool) []T {
	snap := s.Snapshot()
	out := make([]T, 0, len(snap))
	for _, rec := range snap {
		v, err := FromRecord[T](rec)
		if err != nil {
			s.opts.logger.Warn("skipping undecodable record",
				"collection", s.collection, "id", rec.ID(), "error", err)
			continue
		}
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// Find returns the first record matching match.
func (s *Store[T]) Find(match func(T) bool) (T, bool) {
	for _, v := range s.Where(match) {
		return v, true
	}
	var zero T
	return zero, false
}

func (s *Store[T]) Get(id string) (T, bool) {
	var zero T
	s.mu.RLock()
	i, ok := s.index[id]
	var rec docstore.Record
	if ok {
		rec = s.records[i].Clone()
	}
	s.mu.RUnlock()
	if !ok {
		return zero, false
	}
	v, err := FromRecord[T](rec)
	if err != nil {
		return zero, false
	}
	return v, true
}

// Create inserts v under a temporary local id, writes it remotely and then
// swaps the local id for the one the remote store assigned. A failed write
// removes the local record again.
func (s *Store[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	rec, err := ToRecord(v)
	if err != nil {
		return zero, err
	}
	localID := LocalIDPrefix + uuid.NewString()
	rec[docstore.IDField] = localID

	s.mu.Lock()
	s.upsertLocked(rec)
	s.mu.Unlock()
	s.opts.observer.Mutated(s.collection, "create")

	writeCtx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()
	id, err := s.client.Add(writeCtx, s.collection, rec)
	if err != nil {
		s.Remove(localID)
		s.writeFailed("create", localID, err)
		return zero, fmt.Errorf("create %s: %w", s.collection, err)
	}

	s.mu.Lock()
	if _, echoed := s.index[id]; echoed {
		s.removeLocked(localID)
	} else if i, ok := s.index[localID]; ok {
		s.records[i] = s.records[i].Merge(docstore.Record{docstore.IDField: id})
		s.reindexLocked()
	} else {
		// A snapshot without the new record replaced the local one.
		stored := rec.Clone()
		stored[docstore.IDField] = id
		s.upsertLocked(stored)
	}
	s.mu.Unlock()

	created, ok := s.Get(id)
	if !ok {
		return zero, fmt.Errorf("create %s: record %s vanished", s.collection, id)
	}
	return created, nil
}

// Update applies patch locally, then remotely. On failure the previous
// record is restored unless a newer snapshot has already replaced it.
func (s *Store[T]) Update(ctx context.Context, id string, patch docstore.Record) (T, error) {
	var zero T
	if IsLocalID(id) {
		return zero, fmt.Errorf("update %s/%s: %w", s.collection, id, ErrPending)
	}
	fields := patch.Clone()
	if fields == nil {
		fields = docstore.Record{}
	}
	fields[docstore.IDField] = id

	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return zero, fmt.Errorf("update %s/%s: %w", s.collection, id, ErrNotFound)
	}
	previous := s.records[i]
	applied := s.upsertLocked(fields)
	s.mu.Unlock()
	s.opts.observer.Mutated(s.collection, "update")

	writeCtx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()
	if err := s.client.Update(writeCtx, s.collection, id, patch); err != nil {
		s.mu.Lock()
		if j, ok := s.index[id]; ok && reflect.DeepEqual(s.records[j], applied) {
			s.records[j] = previous
		}
		s.mu.Unlock()
		s.writeFailed("update", id, err)
		return zero, fmt.Errorf("update %s/%s: %w", s.collection, id, err)
	}

	updated, ok := s.Get(id)
	if !ok {
		return zero, fmt.Errorf("update %s/%s: %w", s.collection, id, ErrNotFound)
	}
	return updated, nil
}

// Delete removes the record locally, then remotely. On failure the record
// is put back at its old position unless a newer snapshot already decided.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if IsLocalID(id) {
		return fmt.Errorf("delete %s/%s: %w", s.collection, id, ErrPending)
	}
	s.mu.Lock()
	previous, pos, existed := s.removeLocked(id)
	gen := s.gen
	s.mu.Unlock()
	s.opts.observer.Mutated(s.collection, "delete")

	writeCtx, cancel := context.WithTimeout(ctx, s.opts.timeout)
	defer cancel()
	if err := s.client.Delete(writeCtx, s.collection, id); err != nil {
		if existed {
			s.mu.Lock()
			if _, back := s.index[id]; !back && s.gen == gen {
				s.insertAtLocked(pos, previous)
			}
			s.mu.Unlock()
		}
		s.writeFailed("delete", id, err)
		return fmt.Errorf("delete %s/%s: %w", s.collection, id, err)
	}
	return nil
}

// ErrPending is returned for actions on records the remote store has not
// acknowledged yet.
var ErrPending = errors.New("record not yet stored")

func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

func (s *Store[T]) writeFailed(action, id string, err error) {
	s.opts.observer.WriteFailed(s.collection, action)
	s.opts.logger.Error("remote write failed, local change rolled back",
		"collection", s.collection,
		"action", action,
		"id", id,
		"error", err.Error(),
	)
}
