package events

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is used when the config names none.
const DefaultChannel = "worldcities:events"

type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
	Channel string `yaml:"channel"`
	// ByEntity publishes each event on Channel:<collection>, e.g.
	// worldcities:events:cities, instead of the shared channel.
	ByEntity bool `yaml:"byEntity"`
}

// RedisSink publishes record changes on Redis Pub/Sub.
type RedisSink struct {
	Client   *redis.Client
	Channel  string
	ByEntity bool
}

// NewRedisSink connects to c.DSN. It returns nil when the sink is disabled.
func NewRedisSink(c RedisConfig) (*RedisSink, error) {
	if !c.Enabled || c.DSN == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(c.DSN)
	if err != nil {
		return nil, err
	}
	s := &RedisSink{Client: redis.NewClient(opt), Channel: c.Channel, ByEntity: c.ByEntity}
	if s.Channel == "" {
		s.Channel = DefaultChannel
	}
	return s, nil
}

// ChannelFor returns the channel e is published on.
func (s *RedisSink) ChannelFor(e Event) string {
	if !s.ByEntity {
		return s.Channel
	}
	collection, _, _ := strings.Cut(e.Name, ".")
	return s.Channel + ":" + collection
}

func (s *RedisSink) Emit(ctx context.Context, e Event) error {
	if s == nil || s.Client == nil {
		return nil
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.Client.Publish(ctx, s.ChannelFor(e), payload).Err()
}

func (s *RedisSink) Close() error {
	if s == nil || s.Client == nil {
		return nil
	}
	return s.Client.Close()
}
