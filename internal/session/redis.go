package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/playmatatu/pooltable/internal/game"
	tableredis "github.com/playmatatu/pooltable/internal/redis"
)

// RedisPublisher keeps the latest snapshot of a table under a key and
// publishes table updates on the shared events channel.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) SaveSnapshot(ctx context.Context, tableID string, snap game.Snapshot) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return p.rdb.SetEx(ctx, tableredis.StateKey(tableID), data, tableredis.StateTTL).Err()
}

func (p *RedisPublisher) PublishEvent(ctx context.Context, u Update) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	// Subscribers fetch the full table from the state key; keep events small.
	u.Snapshot = nil
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", u.Type, err)
	}
	return p.rdb.Publish(ctx, tableredis.EventsChannel, b).Err()
}

// LoadSnapshot reads the last snapshot a table process saved.
func (p *RedisPublisher) LoadSnapshot(ctx context.Context, tableID string) (*game.Snapshot, error) {
	if p == nil || p.rdb == nil {
		return nil, tableredis.ErrDisabled
	}
	data, err := p.rdb.Get(ctx, tableredis.StateKey(tableID)).Bytes()
	if err != nil {
		return nil, err
	}
	var snap game.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot for table %s: %w", tableID, err)
	}
	return &snap, nil
}
