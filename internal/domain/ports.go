// internal/domain/ports.go
//
// Collaborator contracts consumed by Service.
//
// Context
// -------
// Service never reaches for ambient singletons.  Storage, ID assignment,
// request negotiation, and health probing are handed in through `Deps`
// so tests can swap in the doubles from `domaintest`.
//
//   - IDGenerator  ─ internal/sequence (MySQL or Redis).
//   - Store        ─ internal/store (sqlx/MySQL).
//   - Negotiator   ─ internal/negotiate.
//   - Validator    ─ internal/health.
//   - Invalidator  ─ optional; internal/negotiate purges its host cache.
package domain

import (
	"context"
	"net/http"
)

// IDGenerator hands out monotonically increasing numeric IDs.
type IDGenerator interface {
	NextID(ctx context.Context) (int64, error)
}

// Loader reads records.  Implementations return ErrNotFound for a missing
// single record and (nil, nil) from LoadDefault when no default exists.
// LoadAll orders by weight, then DomainID.
type Loader interface {
	LoadAll(ctx context.Context) ([]*Record, error)
	Load(ctx context.Context, id string) (*Record, error)
	ByHostname(ctx context.Context, hostname string) (*Record, error)
	LoadDefault(ctx context.Context) (*Record, error)
}

// Persister writes single records atomically.
type Persister interface {
	Save(ctx context.Context, r *Record) error
	Delete(ctx context.Context, r *Record) error
}

// Store combines reads and writes with a transactional scope.  Inside
// InTx the supplied Store serializes against every other InTx on the same
// collection, so multi-record writes (demote + promote) are atomic.  A
// Store that is already transactional runs fn inline.
type Store interface {
	Loader
	Persister
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// Negotiator maps an inbound request to the record that owns it.  A nil
// record with a nil error means no record matched.
type Negotiator interface {
	Negotiate(ctx context.Context, r *http.Request) (*Record, error)
}

// Validator performs a live health check and stores the status code on the
// record with SetResponse.
type Validator interface {
	Check(ctx context.Context, r *Record) (int, error)
}

// Invalidator is notified after every committed write.
type Invalidator interface {
	Purge()
}
