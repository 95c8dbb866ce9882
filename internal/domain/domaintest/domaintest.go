// Package domaintest provides in-memory doubles for the collaborators of
// domain.Service.  The Store double honours InTx semantics: a transaction
// holds the collection lock, works on a private copy, and commits only when
// fn returns nil.
package domaintest

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanizio/adept-domain/internal/domain"
)

//
// Store
//

// Store is an in-memory domain.Store.  The zero value is ready to use.
type Store struct {
	mu      sync.Mutex
	rows    map[string]*domain.Record
	saves   int
	deletes int

	// SaveErr, when set, fails every Save.
	SaveErr error
}

var _ domain.Store = (*Store)(nil)

// Seed inserts records verbatim, bypassing every invariant.
func (s *Store) Seed(recs ...*domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows == nil {
		s.rows = map[string]*domain.Record{}
	}
	for _, r := range recs {
		s.rows[r.ID] = r.Clone()
	}
}

// Saves returns the number of committed Save calls.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Deletes returns the number of committed Delete calls.
func (s *Store) Deletes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes
}

// Defaults returns the IDs flagged as default, sorted.
func (s *Store) Defaults() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, r := range s.rows {
		if r.IsDefault {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *Store) LoadAll(ctx context.Context) ([]*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return table(s.rows).loadAll(), nil
}

func (s *Store) Load(ctx context.Context, id string) (*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return table(s.rows).load(id)
}

func (s *Store) ByHostname(ctx context.Context, host string) (*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return table(s.rows).byHostname(host)
}

func (s *Store) LoadDefault(ctx context.Context) (*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return table(s.rows).loadDefault(), nil
}

func (s *Store) Save(ctx context.Context, r *domain.Record) error {
	return s.InTx(ctx, func(tx domain.Store) error { return tx.Save(ctx, r) })
}

func (s *Store) Delete(ctx context.Context, r *domain.Record) error {
	return s.InTx(ctx, func(tx domain.Store) error { return tx.Delete(ctx, r) })
}

// InTx runs fn against a private copy and swaps it in when fn succeeds.
func (s *Store) InTx(ctx context.Context, fn func(domain.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := make(table, len(s.rows))
	for id, r := range s.rows {
		work[id] = r.Clone()
	}
	tx := &txStore{rows: work, saveErr: s.SaveErr}
	if err := fn(tx); err != nil {
		return err
	}
	s.rows = work
	s.saves += tx.saves
	s.deletes += tx.deletes
	return nil
}

type txStore struct {
	rows    table
	saves   int
	deletes int
	saveErr error
}

func (t *txStore) LoadAll(context.Context) ([]*domain.Record, error) {
	return t.rows.loadAll(), nil
}

func (t *txStore) Load(_ context.Context, id string) (*domain.Record, error) {
	return t.rows.load(id)
}

func (t *txStore) ByHostname(_ context.Context, host string) (*domain.Record, error) {
	return t.rows.byHostname(host)
}

func (t *txStore) LoadDefault(context.Context) (*domain.Record, error) {
	return t.rows.loadDefault(), nil
}

func (t *txStore) Save(_ context.Context, r *domain.Record) error {
	if t.saveErr != nil {
		return t.saveErr
	}
	c := r.Clone()
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	t.rows[c.ID] = c
	t.saves++
	return nil
}

func (t *txStore) Delete(_ context.Context, r *domain.Record) error {
	if _, ok := t.rows[r.ID]; !ok {
		return domain.ErrNotFound
	}
	delete(t.rows, r.ID)
	t.deletes++
	return nil
}

func (t *txStore) InTx(_ context.Context, fn func(domain.Store) error) error {
	return fn(t)
}

// table holds the shared read logic.
type table map[string]*domain.Record

func (t table) loadAll() []*domain.Record {
	out := make([]*domain.Record, 0, len(t))
	for _, r := range t {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight < out[j].Weight
		}
		return out[i].DomainID < out[j].DomainID
	})
	return out
}

func (t table) load(id string) (*domain.Record, error) {
	r, ok := t[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.Clone(), nil
}

func (t table) byHostname(host string) (*domain.Record, error) {
	for _, r := range t {
		if r.Hostname == host {
			return r.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (t table) loadDefault() *domain.Record {
	for _, r := range t.loadAll() {
		if r.IsDefault {
			return r
		}
	}
	return nil
}

//
// Collaborators
//

// Sequence is a monotonically increasing IDGenerator starting at 1.
type Sequence struct {
	n   atomic.Int64
	Err error
}

func (q *Sequence) NextID(context.Context) (int64, error) {
	if q.Err != nil {
		return 0, q.Err
	}
	return q.n.Add(1), nil
}

// Negotiator returns Record (cloned) for every request.
type Negotiator struct {
	Record *domain.Record
	Err    error
	calls  atomic.Int64
}

func (n *Negotiator) Negotiate(context.Context, *http.Request) (*domain.Record, error) {
	n.calls.Add(1)
	if n.Err != nil {
		return nil, n.Err
	}
	return n.Record.Clone(), nil
}

// Calls returns the number of Negotiate invocations.
func (n *Negotiator) Calls() int64 { return n.calls.Load() }

// Validator stores Code on every checked record.
type Validator struct {
	Code  int
	Err   error
	calls atomic.Int64
}

func (v *Validator) Check(_ context.Context, r *domain.Record) (int, error) {
	v.calls.Add(1)
	if v.Err != nil {
		return 0, v.Err
	}
	r.SetResponse(v.Code)
	return v.Code, nil
}

// Calls returns the number of Check invocations.
func (v *Validator) Calls() int64 { return v.calls.Load() }

// Invalidator counts Purge calls.
type Invalidator struct{ purges atomic.Int64 }

func (i *Invalidator) Purge() { i.purges.Add(1) }

// Purges returns the number of Purge calls.
func (i *Invalidator) Purges() int64 { return i.purges.Load() }
