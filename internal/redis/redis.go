package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrDisabled is returned when no REDIS_URL is configured.
var ErrDisabled = errors.New("redis disabled")

// Pub/sub channels shared by every table process.
const (
	EventsChannel   = "table_events"
	CommandsChannel = "table_commands"
)

// StateTTL bounds how long a table's last snapshot outlives the process.
const StateTTL = time.Hour

// StateKey is the key holding the latest snapshot of a table.
func StateKey(tableID string) string {
	return "table:" + tableID + ":state"
}

// Connect establishes a connection to Redis
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, ErrDisabled
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Verify connection
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
