package negotiate

import (
	"sync/atomic"
	"time"

	"github.com/yanizio/adept-domain/internal/domain"
)

// entry is one cached lookup.  rec is nil for a cached miss and is never
// mutated after the entry is stored.
type entry struct {
	rec      *domain.Record
	loadedAt int64        // UnixNano, fixed at load time
	lastSeen atomic.Int64 // UnixNano
}

func newEntry(rec *domain.Record) *entry {
	e := &entry{rec: rec, loadedAt: time.Now().UnixNano()}
	e.touch()
	return e
}

func (e *entry) touch() { e.lastSeen.Store(time.Now().UnixNano()) }

// expired reports whether the entry was loaded more than maxAge ago.  Hits
// do not extend it, so writes made by another process show up within
// maxAge even for hosts that never go idle.
func (e *entry) expired(now time.Time, maxAge time.Duration) bool {
	return maxAge > 0 && now.Sub(time.Unix(0, e.loadedAt)) > maxAge
}
