// internal/store/store.go
//
// sqlx/MySQL persistence for domain records.
//
// Context
// -------
// `Store` implements domain.Store against the `domain_record` table.
// Reads outside a transaction go straight to the pool.  `InTx` opens one
// transaction and first locks every row with `SELECT … FOR UPDATE`, so two
// concurrent writers (e.g., two promotions) serialize and the demote +
// promote pair commits or rolls back as a unit.
//
// The DDL lives in `Schema` and is applied by `domainctl migrate`.
//
// Notes
// -----
//   - Column list matches the fields in domain.Record; update both together.
//   - Errors are returned verbatim, except sql.ErrNoRows which maps to
//     domain.ErrNotFound.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/adept-domain/internal/domain"
)

const selectCols = `
        SELECT id, domain_id, uuid, name, hostname, status, weight,
               is_default, scheme, redirect, extra, created_at, updated_at
        FROM   domain_record`

const orderBy = `
        ORDER  BY weight, domain_id`

// Store is safe for concurrent use.  A transaction-bound Store returned
// through InTx must not outlive fn.
type Store struct {
	db  *sqlx.DB
	q   sqlx.ExtContext
	tx  *sqlx.Tx
	now func() time.Time
}

var _ domain.Store = (*Store)(nil)

// New wraps a connected pool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, q: db, now: func() time.Time { return time.Now().UTC() }}
}

// lockSuffix turns reads inside a transaction into locking reads.
func (s *Store) lockSuffix() string {
	if s.tx != nil {
		return ` FOR UPDATE`
	}
	return ``
}

// LoadAll returns every record ordered by weight, then domain_id.
func (s *Store) LoadAll(ctx context.Context) ([]*domain.Record, error) {
	var rows []*domain.Record
	if err := sqlx.SelectContext(ctx, s.q, &rows, selectCols+orderBy+s.lockSuffix()); err != nil {
		return nil, err
	}
	return rows, nil
}

// Load fetches one record by machine name.
func (s *Store) Load(ctx context.Context, id string) (*domain.Record, error) {
	return s.getOne(ctx, selectCols+`
        WHERE  id = ?
        LIMIT  1`+s.lockSuffix(), id)
}

// ByHostname fetches the record that owns hostname.
func (s *Store) ByHostname(ctx context.Context, hostname string) (*domain.Record, error) {
	return s.getOne(ctx, selectCols+`
        WHERE  hostname = ?
        LIMIT  1`+s.lockSuffix(), hostname)
}

// LoadDefault returns the lowest-weight default record, or (nil, nil).
func (s *Store) LoadDefault(ctx context.Context) (*domain.Record, error) {
	rec, err := s.getOne(ctx, selectCols+`
        WHERE  is_default = 1`+orderBy+`
        LIMIT  1`+s.lockSuffix())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

func (s *Store) getOne(ctx context.Context, q string, args ...any) (*domain.Record, error) {
	var rec domain.Record
	if err := sqlx.GetContext(ctx, s.q, &rec, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Save upserts r keyed by id.  Timestamps are stamped on r.
func (s *Store) Save(ctx context.Context, r *domain.Record) error {
	const q = `
        INSERT INTO domain_record
               (id, domain_id, uuid, name, hostname, status, weight,
                is_default, scheme, redirect, extra, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE
               name = VALUES(name), hostname = VALUES(hostname),
               status = VALUES(status), weight = VALUES(weight),
               is_default = VALUES(is_default), scheme = VALUES(scheme),
               redirect = VALUES(redirect), extra = VALUES(extra),
               updated_at = VALUES(updated_at)`

	now := s.now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	_, err := s.q.ExecContext(ctx, q,
		r.ID, r.DomainID, r.UUID, r.Name, r.Hostname, r.Status, r.Weight,
		r.IsDefault, r.Scheme, r.Redirect, r.Extra, r.CreatedAt, r.UpdatedAt)
	return err
}

// Delete removes r.  A missing row yields domain.ErrNotFound.
func (s *Store) Delete(ctx context.Context, r *domain.Record) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM domain_record WHERE id = ?`, r.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Schema creates the tables used by Store and sequence.SQL.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS domain_record (
	    id          VARCHAR(128) PRIMARY KEY,
	    domain_id   BIGINT       NOT NULL UNIQUE,
	    uuid        CHAR(36)     NOT NULL UNIQUE,
	    name        VARCHAR(255) NOT NULL,
	    hostname    VARCHAR(255) NOT NULL UNIQUE,
	    status      TINYINT(1)   NOT NULL DEFAULT 1,
	    weight      INT          NOT NULL DEFAULT 0,
	    is_default  TINYINT(1)   NOT NULL DEFAULT 0,
	    scheme      VARCHAR(8)   NOT NULL DEFAULT 'http',
	    redirect    SMALLINT     NULL,
	    extra       TEXT         NOT NULL,
	    created_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
	    updated_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS domain_sequence (
	    name     VARCHAR(64) PRIMARY KEY,
	    next_id  BIGINT      NOT NULL
	)`,
}

// Migrate applies Schema.  Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := s.q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// InTx runs fn inside one transaction that holds a lock on every row.
// Nested calls reuse the open transaction.
func (s *Store) InTx(ctx context.Context, fn func(domain.Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Lock the collection so concurrent writers queue here.
	rows, err := tx.QueryContext(ctx, `SELECT id FROM domain_record FOR UPDATE`)
	if err != nil {
		return fmt.Errorf("lock domain_record: %w", err)
	}
	if err = rows.Close(); err != nil {
		return fmt.Errorf("lock domain_record: %w", err)
	}

	if err = fn(&Store{db: s.db, q: tx, tx: tx, now: s.now}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
