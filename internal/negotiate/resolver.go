// internal/negotiate/resolver.go
//
// Host → domain record negotiation.
//
// Context
// -------
// `Resolver` answers "which domain record owns this request?" for every
// inbound request, so it sits on the hot path.  Lookups are cached in a
// sync.Map keyed by the normalized host.  Concurrent misses for one host
// collapse into a single store query through singleflight, and a ticker
// driven evictor drops entries that sat idle longer than IdleTTL or that
// overflow MaxEntries (least recently used first).  Entries older than
// MaxAge are reloaded no matter how busy the host is, which bounds how
// long a write made by another process (domainctl) stays invisible.
//
// Misses are cached too (as a nil record) so a scanner spraying random
// Host headers costs one query per host until eviction.  Every committed
// write in domain.Service calls Purge, which bumps a generation counter so
// an in-flight load that started before the write never repopulates the
// cache with stale data.
//
// Notes
// -----
//   - Negotiate returns clones.  Callers may set derived values freely.
//   - When no record owns the host and FallbackDefault is set, the default
//     record is returned instead.
//   - Oxford commas, two spaces after periods.
package negotiate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/adept-domain/internal/domain"
	"github.com/yanizio/adept-domain/internal/metrics"
)

// Static defaults applied when Options leave a field at zero.
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 1000
	EvictInterval = 5 * time.Minute
	MaxAge        = time.Minute
)

// defaultKey caches the default record next to the host entries.  No
// normalized hostname can be empty.
const defaultKey = ""

// Options tune a Resolver.
type Options struct {
	IdleTTL         time.Duration
	MaxAge          time.Duration // absolute lifetime of an entry
	MaxEntries      int
	EvictInterval   time.Duration
	FallbackDefault bool   // serve the default record for unknown hosts
	LocalhostAlias  string // hostname looked up when the request says "localhost"
	StripWWW        bool   // retry "www.example.com" as "example.com"
}

// Resolver implements domain.Negotiator and domain.Invalidator.
type Resolver struct {
	store domain.Loader
	opts  Options
	log   *zap.SugaredLogger

	sfg  singleflight.Group
	m    sync.Map // key → *entry
	gen  atomic.Uint64
	size atomic.Int64

	evictTicker *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
}

var (
	_ domain.Negotiator  = (*Resolver)(nil)
	_ domain.Invalidator = (*Resolver)(nil)
)

// New constructs a Resolver and starts the background evictor.  Call Close
// to stop it.
func New(store domain.Loader, opts Options, log *zap.SugaredLogger) *Resolver {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = IdleTTL
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = MaxAge
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = MaxEntries
	}
	if opts.EvictInterval <= 0 {
		opts.EvictInterval = EvictInterval
	}
	if log == nil {
		log = zap.S()
	}
	r := &Resolver{
		store:       store,
		opts:        opts,
		log:         log,
		evictTicker: time.NewTicker(opts.EvictInterval),
		done:        make(chan struct{}),
	}
	go r.evictLoop()
	return r
}

// Close stops the evictor.  It is safe to call more than once.
func (r *Resolver) Close() {
	r.closeOnce.Do(func() {
		r.evictTicker.Stop()
		close(r.done)
	})
}

// Negotiate returns the record that owns req's host.  It returns
// (nil, nil) when nothing matches and no fallback applies.
func (r *Resolver) Negotiate(ctx context.Context, req *http.Request) (*domain.Record, error) {
	for _, host := range Candidates(req.Host, r.opts.LocalhostAlias, r.opts.StripWWW) {
		rec, err := r.lookup(ctx, host)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return rec.Clone(), nil
		}
	}
	if !r.opts.FallbackDefault {
		return nil, nil
	}
	rec, err := r.lookup(ctx, defaultKey)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// Lookup returns the record whose hostname equals host exactly (after
// normalization), bypassing aliases and fallback.
func (r *Resolver) Lookup(ctx context.Context, host string) (*domain.Record, error) {
	rec, err := r.lookup(ctx, domain.NormalizeHostname(host))
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// Purge drops every cached entry.  domain.Service calls it after each
// committed write.
func (r *Resolver) Purge() {
	r.gen.Add(1)
	r.m.Range(func(key, _ any) bool {
		r.remove(key)
		return true
	})
}

// Len reports the number of cached entries.
func (r *Resolver) Len() int { return int(r.size.Load()) }

//
// Internals
//

// cached returns a live entry for key, dropping it when it outlived MaxAge.
func (r *Resolver) cached(key string) (*entry, bool) {
	v, ok := r.m.Load(key)
	if !ok {
		return nil, false
	}
	ent := v.(*entry)
	if ent.expired(time.Now(), r.opts.MaxAge) {
		if r.m.CompareAndDelete(key, ent) {
			r.size.Add(-1)
			metrics.ActiveNegotiations.Dec()
			metrics.NegotiationEvictTotal.Inc()
		}
		return nil, false
	}
	ent.touch()
	return ent, true
}

func (r *Resolver) lookup(ctx context.Context, key string) (*domain.Record, error) {
	if ent, ok := r.cached(key); ok {
		return ent.rec, nil
	}

	gen := r.gen.Load()
	v, err, _ := r.sfg.Do(fmt.Sprintf("%d|%s", gen, key), func() (any, error) {
		// Double-check after singleflight barrier.
		if ent, ok := r.cached(key); ok {
			return ent.rec, nil
		}

		rec, err := r.load(ctx, key)
		if err != nil {
			metrics.NegotiationErrorsTotal.Inc()
			return nil, err
		}
		metrics.NegotiationLoadTotal.Inc()

		if r.gen.Load() == gen {
			if _, loaded := r.m.LoadOrStore(key, newEntry(rec)); !loaded {
				r.size.Add(1)
				metrics.ActiveNegotiations.Inc()
			}
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Record), nil
}

func (r *Resolver) load(ctx context.Context, key string) (*domain.Record, error) {
	if key == defaultKey {
		rec, err := r.store.LoadDefault(ctx)
		if err != nil {
			return nil, fmt.Errorf("negotiate default: %w", err)
		}
		return rec, nil
	}
	rec, err := r.store.ByHostname(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("negotiate %s: %w", key, err)
	}
	return rec, nil
}

func (r *Resolver) remove(key any) bool {
	if _, ok := r.m.LoadAndDelete(key); !ok {
		return false
	}
	r.size.Add(-1)
	metrics.ActiveNegotiations.Dec()
	return true
}
