// internal/sequence/redis.go
//
// Redis-backed numeric ID sequence.
//
// Context
// -------
// `Redis` is the alternative IDGenerator for deployments that already run
// Redis and want ID assignment off the database.  A small Lua script runs
// INCR and lifts the counter above `floor` in the same atomic step, so a
// fresh or flushed Redis never hands out an ID that MySQL already holds.
//
// Notes
// -----
//   - Set `floor` to the highest persisted domain_id when migrating from the
//     SQL sequence.
package sequence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis key used when none is configured.
const DefaultKey = "adept:domain:sequence"

var nextScript = redis.NewScript(`
local v = redis.call('INCR', KEYS[1])
local floor = tonumber(ARGV[1])
if v <= floor then
  v = floor + 1
  redis.call('SET', KEYS[1], v)
end
return v
`)

// Redis implements domain.IDGenerator with a Lua INCR script.
type Redis struct {
	client redis.Scripter
	key    string
	floor  int64
}

// NewRedis binds key on client.  An empty key selects DefaultKey.
func NewRedis(client redis.Scripter, key string, floor int64) *Redis {
	if key == "" {
		key = DefaultKey
	}
	return &Redis{client: client, key: key, floor: floor}
}

// NextID returns the next value, never at or below the floor.
func (r *Redis) NextID(ctx context.Context) (int64, error) {
	id, err := nextScript.Run(ctx, r.client, []string{r.key}, r.floor).Int64()
	if err != nil {
		return 0, fmt.Errorf("sequence %s: %w", r.key, err)
	}
	return id, nil
}
