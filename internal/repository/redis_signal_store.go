package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

// appendScript pushes one record and trims to capacity in a single server-side step.
// KEYS: records list, ids list, id set. ARGV: id, payload, capacity.
// Returns the new length, or -1 when the id is already present.
var appendScript = redis.NewScript(`
if redis.call('SADD', KEYS[3], ARGV[1]) == 0 then
  return -1
end
redis.call('LPUSH', KEYS[1], ARGV[2])
redis.call('LPUSH', KEYS[2], ARGV[1])
local cap = tonumber(ARGV[3])
while redis.call('LLEN', KEYS[1]) > cap do
  redis.call('RPOP', KEYS[1])
  local old = redis.call('RPOP', KEYS[2])
  if old then
    redis.call('SREM', KEYS[3], old)
  end
end
return redis.call('LLEN', KEYS[1])
`)

// RedisSignalStore keeps a capped newest-first list in Redis. It survives process restarts
// and evicts like the in-memory ring.
type RedisSignalStore struct {
	cli      redis.UniversalClient
	capacity int
	keys     []string
}

func NewRedisSignalStore(cli redis.UniversalClient, prefix string, capacity int) *RedisSignalStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if prefix == "" {
		prefix = "signaldesk"
	}
	return &RedisSignalStore{
		cli:      cli,
		capacity: capacity,
		keys:     []string{prefix + ":signals", prefix + ":signal_ids", prefix + ":signal_idset"},
	}
}

func (s *RedisSignalStore) Append(ctx context.Context, sig *models.Signal) (int, error) {
	payload, err := json.Marshal(sig)
	if err != nil {
		return 0, fmt.Errorf("encode signal: %w", err)
	}
	n, err := appendScript.Run(ctx, s.cli, s.keys, sig.ID, payload, s.capacity).Int()
	if err != nil {
		return 0, fmt.Errorf("redis append: %w", err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s", repository.ErrDuplicateID, sig.ID)
	}
	return n, nil
}

func (s *RedisSignalStore) List(ctx context.Context, limit int) ([]*models.Signal, error) {
	if limit < 0 || limit > s.capacity {
		limit = s.capacity
	}
	if limit == 0 {
		return []*models.Signal{}, nil
	}
	raw, err := s.cli.LRange(ctx, s.keys[0], 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	out := make([]*models.Signal, 0, len(raw))
	for _, r := range raw {
		sig, err := models.DecodeSignal([]byte(r))
		if err != nil {
			return nil, fmt.Errorf("decode stored signal: %w", err)
		}
		out = append(out, sig)
	}
	return out, nil
}

func (s *RedisSignalStore) Health(ctx context.Context) error {
	return s.cli.Ping(ctx).Err()
}

// Close is a no-op; the client is owned by whoever created it.
func (s *RedisSignalStore) Close() error { return nil }

var _ repository.SignalStore = (*RedisSignalStore)(nil)
