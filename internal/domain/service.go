// internal/domain/service.go
//
// Domain record operations.
//
// Context
// -------
// Service owns the default-record invariant: across a non-empty collection
// exactly one record carries IsDefault.  Every write runs inside
// Store.InTx, so the demote-then-promote pair commits as one unit and two
// concurrent promotions serialize instead of leaving zero or two defaults.
// Default() repairs a broken collection at read time.
//
// Refusals ("already default", "cannot disable default", …) come back as
// Result.Outcome values with a nil error.  Collaborator failures come back
// as wrapped errors and abort the transaction.
//
// Notes
// -----
//   - After each committed write the optional Invalidator is purged so the
//     negotiator never serves a stale default.
//   - Oxford commas, two spaces after periods.
package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/yanizio/adept-domain/internal/metrics"
)

// Deps bundles the collaborators a Service needs.  Store and IDs are
// required.
type Deps struct {
	Store       Store
	IDs         IDGenerator
	Negotiator  Negotiator
	Validator   Validator
	Invalidator Invalidator
	Log         *zap.SugaredLogger
}

// Service is safe for concurrent use.
type Service struct {
	store       Store
	ids         IDGenerator
	negotiator  Negotiator
	validator   Validator
	invalidator Invalidator
	log         *zap.SugaredLogger
}

// NewService panics when Store or IDs is missing.
func NewService(d Deps) *Service {
	if d.Store == nil || d.IDs == nil {
		panic("domain.NewService: Store and IDs are required")
	}
	if d.Log == nil {
		d.Log = zap.S()
	}
	return &Service{
		store:       d.Store,
		ids:         d.IDs,
		negotiator:  d.Negotiator,
		validator:   d.Validator,
		invalidator: d.Invalidator,
		log:         d.Log,
	}
}

//
// Reads
//

// List returns every record ordered by weight.
func (s *Service) List(ctx context.Context) ([]*Record, error) {
	return s.store.LoadAll(ctx)
}

// Get returns one record or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.store.Load(ctx, id)
}

// Default returns the default record, repairing the collection first when
// it holds zero or several defaults.  It returns (nil, nil) for an empty
// collection.
func (s *Service) Default(ctx context.Context) (*Record, error) {
	all, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	if countDefaults(all) == 1 {
		return findDefault(all), nil
	}
	if _, err := s.Repair(ctx); err != nil {
		return nil, err
	}
	return s.store.LoadDefault(ctx)
}

//
// Writes
//

// Create builds a record from d, assigns defaults and a numeric ID, and
// persists it.  secure reports whether the triggering request used TLS.
func (s *Service) Create(ctx context.Context, d Draft, secure bool) (Result, error) {
	var res Result
	err := s.store.InTx(ctx, func(tx Store) error {
		all, err := tx.LoadAll(ctx)
		if err != nil {
			return err
		}
		id, err := s.ids.NextID(ctx)
		if err != nil {
			return fmt.Errorf("next domain id: %w", err)
		}

		rec := BeforeCreate(d, all, secure, id)
		for _, r := range all {
			if r.ID == rec.ID {
				return fmt.Errorf("%w: %q", ErrExists, rec.ID)
			}
		}

		demoted, err := s.persist(ctx, tx, rec)
		if err != nil {
			return err
		}
		res = Result{Outcome: OutcomeCreated, Record: rec, Demoted: demoted}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	s.committed(res)
	return res, nil
}

// Save persists an existing or new record through the save pipeline.
func (s *Service) Save(ctx context.Context, rec *Record) (Result, error) {
	var res Result
	err := s.store.InTx(ctx, func(tx Store) error {
		demoted, err := s.persist(ctx, tx, rec)
		if err != nil {
			return err
		}
		res = Result{Outcome: OutcomeSaved, Record: rec, Demoted: demoted}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	s.committed(res)
	return res, nil
}

// Promote makes the record the default.  Promoting the current default is
// a no-op reported as OutcomeAlreadyDefault.
func (s *Service) Promote(ctx context.Context, id string) (Result, error) {
	return s.update(ctx, id, func(tx Store, rec *Record) (Result, error) {
		if rec.IsDefault {
			return Result{Outcome: OutcomeAlreadyDefault, Record: rec}, nil
		}
		rec.IsDefault = true
		demoted, err := s.persist(ctx, tx, rec)
		if err != nil {
			return Result{}, err
		}
		return Result{Outcome: OutcomePromoted, Record: rec, Demoted: demoted}, nil
	})
}

// Enable always persists Status = true.
func (s *Service) Enable(ctx context.Context, id string) (Result, error) {
	return s.update(ctx, id, func(tx Store, rec *Record) (Result, error) {
		rec.Status = true
		if _, err := s.persist(ctx, tx, rec); err != nil {
			return Result{}, err
		}
		return Result{Outcome: OutcomeEnabled, Record: rec}, nil
	})
}

// Disable persists Status = false unless the record is the default.
func (s *Service) Disable(ctx context.Context, id string) (Result, error) {
	return s.update(ctx, id, func(tx Store, rec *Record) (Result, error) {
		if rec.IsDefault {
			return Result{Outcome: OutcomeCannotDisableDefault, Record: rec}, nil
		}
		rec.Status = false
		if _, err := s.persist(ctx, tx, rec); err != nil {
			return Result{}, err
		}
		return Result{Outcome: OutcomeDisabled, Record: rec}, nil
	})
}

// SetProperty assigns value to the named field and persists immediately.
// Unset or unknown fields are refused with OutcomePropertyMissing.
func (s *Service) SetProperty(ctx context.Context, id, name, value string) (Result, error) {
	return s.update(ctx, id, func(tx Store, rec *Record) (Result, error) {
		return s.setProperty(ctx, tx, rec, name, value)
	})
}

// SetProperties applies several assignments in key order inside one
// transaction.  Refusals are reported per key and do not stop the batch.
// A hard error (taken hostname, store failure) rolls back every key.
func (s *Service) SetProperties(ctx context.Context, id string, props map[string]string) ([]Result, error) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var results []Result
	err := s.store.InTx(ctx, func(tx Store) error {
		results = make([]Result, 0, len(keys))
		rec, err := tx.Load(ctx, id)
		if err != nil {
			return err
		}
		for _, k := range keys {
			res, err := s.setProperty(ctx, tx, rec, k, props[k])
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			rec = res.Record
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		if !res.Outcome.Advisory() {
			s.committed(res)
			break
		}
	}
	return results, nil
}

func (s *Service) setProperty(ctx context.Context, tx Store, rec *Record, name, value string) (Result, error) {
	refuse := func(o Outcome) (Result, error) {
		return Result{Outcome: o, Record: rec, Key: name, Value: value}, nil
	}

	if _, ro := readOnlyFields[name]; ro {
		return refuse(OutcomeReadOnly)
	}
	if !rec.IsSet(name) {
		return refuse(OutcomePropertyMissing)
	}

	next := rec.Clone()
	if err := next.assign(name, value); err != nil {
		return refuse(OutcomeInvalidValue)
	}
	if rec.IsDefault {
		if name == FieldStatus && !next.Status {
			return refuse(OutcomeCannotDisableDefault)
		}
		if name == FieldIsDefault && !next.IsDefault {
			return refuse(OutcomeCannotUnsetDefault)
		}
	}

	demoted, err := s.persist(ctx, tx, next)
	if errors.Is(err, ErrInvalid) {
		return refuse(OutcomeInvalidValue)
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: OutcomePropertySet, Record: next, Key: name, Value: value, Demoted: demoted}, nil
}

// Delete removes the record and repairs the invariant in the same
// transaction.  Deleting the default promotes the next record by weight.
func (s *Service) Delete(ctx context.Context, id string) (Result, error) {
	return s.update(ctx, id, func(tx Store, rec *Record) (Result, error) {
		if err := tx.Delete(ctx, rec); err != nil {
			return Result{}, err
		}
		if _, err := s.repair(ctx, tx); err != nil {
			return Result{}, err
		}
		return Result{Outcome: OutcomeDeleted, Record: rec}, nil
	})
}

// Repair restores exactly one default.  With zero defaults it promotes the
// lowest-weight enabled record (or the lowest-weight record when none is
// enabled).  With several it keeps the lowest-weight one.
func (s *Service) Repair(ctx context.Context) (RepairReport, error) {
	var rep RepairReport
	err := s.store.InTx(ctx, func(tx Store) error {
		var err error
		rep, err = s.repair(ctx, tx)
		return err
	})
	if err != nil {
		return RepairReport{}, err
	}
	if rep.Changed() {
		s.committed(Result{Outcome: OutcomeRepaired})
	}
	return rep, nil
}

//
// Derived values backed by collaborators
//

// Health returns the cached health status or runs a live check that
// populates it.
func (s *Service) Health(ctx context.Context, rec *Record) (int, error) {
	if code, ok := rec.Response(); ok && code != 0 {
		return code, nil
	}
	if s.validator == nil {
		return 0, errors.New("domain: no health validator configured")
	}
	return s.validator.Check(ctx, rec)
}

// IsActive reports whether rec is the record negotiated for req.
func (s *Service) IsActive(ctx context.Context, rec *Record, req *http.Request) (bool, error) {
	if s.negotiator == nil {
		return false, errors.New("domain: no negotiator configured")
	}
	active, err := s.negotiator.Negotiate(ctx, req)
	if err != nil {
		return false, err
	}
	if active == nil {
		return false, nil
	}
	return active.ID == rec.ID, nil
}

//
// Internals
//

// update loads id inside a transaction and runs fn.  Advisory results skip
// the Invalidator.
func (s *Service) update(ctx context.Context, id string, fn func(Store, *Record) (Result, error)) (Result, error) {
	var res Result
	err := s.store.InTx(ctx, func(tx Store) error {
		rec, err := tx.Load(ctx, id)
		if err != nil {
			return err
		}
		res, err = fn(tx, rec)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	if !res.Outcome.Advisory() {
		s.committed(res)
	}
	return res, nil
}

// persist validates rec, enforces hostname uniqueness, applies BeforeSave,
// and writes the demoted default before rec.
func (s *Service) persist(ctx context.Context, tx Store, rec *Record) (*Record, error) {
	rec.Hostname = NormalizeHostname(rec.Hostname)
	if err := Validate(rec); err != nil {
		return nil, err
	}

	owner, err := tx.ByHostname(ctx, rec.Hostname)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, err
	case owner.ID != rec.ID:
		return nil, fmt.Errorf("%w: %s", ErrHostnameTaken, rec.Hostname)
	}

	current, err := tx.LoadDefault(ctx)
	if err != nil {
		return nil, err
	}
	demote := BeforeSave(rec, current)
	if demote != nil {
		if err := tx.Save(ctx, demote); err != nil {
			return nil, fmt.Errorf("demote %s: %w", demote.ID, err)
		}
		metrics.DefaultSwapsTotal.Inc()
		s.log.Infow("default domain moved", "from", demote.ID, "to", rec.ID)
	}
	if err := tx.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save %s: %w", rec.ID, err)
	}
	return demote, nil
}

func (s *Service) repair(ctx context.Context, tx Store) (RepairReport, error) {
	all, err := tx.LoadAll(ctx)
	if err != nil {
		return RepairReport{}, err
	}
	rep := RepairReport{Defaults: countDefaults(all)}
	if len(all) == 0 || rep.Defaults == 1 {
		return rep, nil
	}

	if rep.Defaults == 0 {
		pick := all[0]
		for _, r := range all {
			if r.Status {
				pick = r
				break
			}
		}
		pick.IsDefault = true
		if err := tx.Save(ctx, pick); err != nil {
			return RepairReport{}, fmt.Errorf("promote %s: %w", pick.ID, err)
		}
		rep.Promoted = pick.ID
	} else {
		keep := findDefault(all)
		for _, r := range all {
			if !r.IsDefault || r.ID == keep.ID {
				continue
			}
			r.IsDefault = false
			if err := tx.Save(ctx, r); err != nil {
				return RepairReport{}, fmt.Errorf("demote %s: %w", r.ID, err)
			}
			rep.Demoted = append(rep.Demoted, r.ID)
		}
	}

	metrics.InvariantRepairsTotal.Inc()
	s.log.Warnw("default domain repaired",
		"defaults_found", rep.Defaults,
		"promoted", rep.Promoted,
		"demoted", rep.Demoted,
	)
	return rep, nil
}

func (s *Service) committed(res Result) {
	if s.invalidator != nil {
		s.invalidator.Purge()
	}
	s.log.Debugw("domain write committed",
		"outcome", res.Outcome.String(),
		"hostname", res.Hostname(),
	)
}
