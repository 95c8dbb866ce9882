// internal/sequence/sql.go
//
// MySQL-backed numeric ID sequence.
//
// Context
// -------
// Each domain record carries a numeric `domain_id` next to its machine
// name.  `SQL` hands those out from a one-row-per-sequence table:
//
//	CREATE TABLE domain_sequence (
//	    name     VARCHAR(64) PRIMARY KEY,
//	    next_id  BIGINT      NOT NULL
//	);
//
// `NextID` is a single upsert.  `LAST_INSERT_ID(expr)` makes the new value
// the connection's insert ID, so the driver returns it in the OK packet and
// no second SELECT is needed.  Two callers can never read the same value
// because the row lock is held by the UPDATE itself.
//
// Notes
// -----
//   - A missing row starts the sequence at 1.
//   - The sequence never rewinds, even when records are deleted.
package sequence

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DefaultName is the sequence row used for domain records.
const DefaultName = "domain_record"

// SQL implements domain.IDGenerator on top of MySQL.
type SQL struct {
	db   *sqlx.DB
	name string
}

// NewSQL binds a sequence row.  An empty name selects DefaultName.
func NewSQL(db *sqlx.DB, name string) *SQL {
	if name == "" {
		name = DefaultName
	}
	return &SQL{db: db, name: name}
}

// NextID returns the next value in one round trip.
func (s *SQL) NextID(ctx context.Context) (int64, error) {
	const q = `
        INSERT INTO domain_sequence (name, next_id)
        VALUES (?, LAST_INSERT_ID(1))
        ON DUPLICATE KEY UPDATE next_id = LAST_INSERT_ID(next_id + 1)`

	res, err := s.db.ExecContext(ctx, q, s.name)
	if err != nil {
		return 0, fmt.Errorf("sequence %s: %w", s.name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sequence %s: %w", s.name, err)
	}
	if id < 1 {
		return 0, fmt.Errorf("sequence %s: driver returned id %d", s.name, id)
	}
	return id, nil
}
