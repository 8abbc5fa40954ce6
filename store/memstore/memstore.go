// Package memstore keeps a collection in memory. Records are listed in insertion order.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/saddemm/Projet-Badel/store"
)

type Store struct {
	mu         sync.RWMutex
	collection string
	order      []string
	records    map[string]*store.Record
	newID      func() string
}

type Option func(*Store)

// WithIDs replaces the uuid generator, mostly for tests that need predictable ids.
func WithIDs(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// Sequential generates prefix1, prefix2, ...
func Sequential(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func New(collection string, opts ...Option) *Store {
	s := &Store{
		collection: collection,
		records:    make(map[string]*store.Record),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) FindAll(ctx context.Context) ([]*store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.Fail("find", s.collection, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*store.Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].Clone())
	}
	return out, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*store.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, store.Fail("findById", s.collection, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, false, nil
	}
	return rec.Clone(), true, nil
}

func (s *Store) Create(ctx context.Context, fields *store.Document) (*store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.Fail("create", s.collection, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	if _, exists := s.records[id]; exists {
		return nil, store.Fail("create", s.collection, fmt.Errorf("duplicate id %q", id))
	}

	rec := &store.Record{ID: id, Fields: store.StripIdentity(fields.Clone())}
	s.records[id] = rec
	s.order = append(s.order, id)
	return rec.Clone(), nil
}

func (s *Store) MergeUpdate(ctx context.Context, existing *store.Record, fields *store.Document) (*store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.Fail("update", s.collection, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[existing.ID]
	if !ok {
		return nil, store.Fail("update", s.collection, store.ErrNotFound)
	}

	merged := current.Clone()
	merged.Fields.Merge(store.StripIdentity(fields.Clone()))
	s.records[existing.ID] = merged
	return merged.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, existing *store.Record) error {
	if err := ctx.Err(); err != nil {
		return store.Fail("delete", s.collection, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[existing.ID]; !ok {
		return store.Fail("delete", s.collection, store.ErrNotFound)
	}
	delete(s.records, existing.ID)
	for i, id := range s.order {
		if id == existing.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
