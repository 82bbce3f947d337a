package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig configures RedisReporter.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	DSN     string `yaml:"dsn" json:"dsn"`
	Channel string `yaml:"channel" json:"channel"`
}

// DefaultChannel is used when RedisConfig.Channel is empty.
const DefaultChannel = "worldcities:status"

// RedisReporter mirrors status messages to a Redis Pub/Sub channel so a
// second terminal or dashboard can follow a session.
type RedisReporter struct {
	Client  *redis.Client
	Channel string
	Logger  *zap.SugaredLogger
}

// NewRedisReporter returns nil when the reporter is disabled.
func NewRedisReporter(c RedisConfig) (*RedisReporter, error) {
	if !c.Enabled || c.DSN == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(c.DSN)
	if err != nil {
		return nil, err
	}
	ch := c.Channel
	if ch == "" {
		ch = DefaultChannel
	}
	return &RedisReporter{Client: redis.NewClient(opt), Channel: ch}, nil
}

type published struct {
	Message
	At time.Time `json:"at"`
}

func (r *RedisReporter) Report(ctx context.Context, m Message) {
	if r == nil || r.Client == nil || m.Type == None {
		return
	}
	if err := r.Publish(ctx, m); err != nil && r.Logger != nil {
		r.Logger.Debugw("status publish failed", "err", err)
	}
}

// Publish sends m and returns the Redis error, if any.
func (r *RedisReporter) Publish(ctx context.Context, m Message) error {
	data, err := json.Marshal(published{Message: m, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	return r.Client.Publish(context.WithoutCancel(ctx), r.Channel, data).Err()
}

// Close releases the Redis connection.
func (r *RedisReporter) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
