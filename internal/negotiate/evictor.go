// evictor.go houses the eviction loop for Resolver.  Every EvictInterval it
// scans the map and removes:
//
//   - hosts idle longer than IdleTTL
//   - hosts loaded longer than MaxAge ago, however busy
//   - least-recently-used hosts when the map exceeds MaxEntries
//
// Each eviction is logged and counted in Prometheus.
package negotiate

import (
	"sort"
	"time"

	"github.com/yanizio/adept-domain/internal/metrics"
)

func (r *Resolver) evictLoop() {
	for {
		select {
		case <-r.done:
			return
		case now := <-r.evictTicker.C:
			r.evict(now)
		}
	}
}

func (r *Resolver) evict(now time.Time) {
	var count int

	// ----------------------------------------------------------------
	// Idle eviction pass
	// ----------------------------------------------------------------
	r.m.Range(func(key, value any) bool {
		count++
		ent := value.(*entry)
		idle := now.Sub(time.Unix(0, ent.lastSeen.Load()))
		stale := ent.expired(now, r.opts.MaxAge)
		if (idle > r.opts.IdleTTL || stale) && r.remove(key) {
			count--
			r.log.Debugw("negotiation entry evicted", "host", key, "idle", idle.Truncate(time.Second), "stale", stale)
			metrics.NegotiationEvictTotal.Inc()
		}
		return true
	})

	// ----------------------------------------------------------------
	// LRU eviction pass
	// ----------------------------------------------------------------
	if r.opts.MaxEntries <= 0 || count <= r.opts.MaxEntries {
		return
	}
	type kv struct {
		key string
		at  int64
	}
	all := make([]kv, 0, count)
	r.m.Range(func(key, value any) bool {
		all = append(all, kv{key: key.(string), at: value.(*entry).lastSeen.Load()})
		return true
	})
	sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
	for i := 0; i < len(all)-r.opts.MaxEntries; i++ {
		if r.remove(all[i].key) {
			r.log.Debugw("negotiation entry evicted (LRU pressure)", "host", all[i].key)
			metrics.NegotiationEvictTotal.Inc()
		}
	}
}
