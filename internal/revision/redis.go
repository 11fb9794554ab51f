package revision

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyTTL = 24 * time.Hour

// RedisTracker stores per-draft write records in Redis so stale-write
// detection works across service instances.
type RedisTracker struct {
	client *redis.Client
}

// NewRedisTracker connects to Redis and verifies connectivity
func NewRedisTracker(address, password string) (*RedisTracker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       0,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisTracker{client: client}, nil
}

func draftKey(draftID string) string {
	return "draft:" + draftID + ":lastwrite"
}

// Observe implements Tracker. The previous writer and revision are swapped
// out atomically with a small Lua script so two racing writes cannot both
// miss each other.
func (t *RedisTracker) Observe(ctx context.Context, draftID, actorID string, rev int64) (bool, error) {
	const script = `
local prev = redis.call('HMGET', KEYS[1], 'actor', 'rev')
redis.call('HSET', KEYS[1], 'actor', ARGV[1], 'rev', ARGV[2])
redis.call('EXPIRE', KEYS[1], ARGV[3])
return prev
`
	res, err := t.client.Eval(ctx, script,
		[]string{draftKey(draftID)},
		actorID, rev, int(keyTTL.Seconds()),
	).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record draft write: %w", err)
	}

	prev, ok := res.([]interface{})
	if !ok || len(prev) < 2 || prev[0] == nil {
		return false, nil
	}

	prevActor, _ := prev[0].(string)
	var prevRev int64
	if s, ok := prev[1].(string); ok {
		fmt.Sscanf(s, "%d", &prevRev)
	}

	return prevActor != actorID && prevRev < rev, nil
}

// Forget implements Tracker
func (t *RedisTracker) Forget(ctx context.Context, draftID string) error {
	return t.client.Del(ctx, draftKey(draftID)).Err()
}

// Close implements Tracker
func (t *RedisTracker) Close() error {
	return t.client.Close()
}
