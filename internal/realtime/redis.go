package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/verba/internal/logger"
)

// RedisConfig selects the pub/sub channel shared by all API instances.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	Channel  string `yaml:"channel"`
}

const defaultRedisChannel = "verba:refresh"

// RedisBus publishes through Redis so that every instance sees every event,
// and fans received events out to local subscribers.
type RedisBus struct {
	*MemoryBus

	rdb     *redis.Client
	channel string
	log     *logger.Logger
}

// NewRedisBus connects to Redis and starts forwarding the channel to local
// subscribers until ctx is done.
func NewRedisBus(ctx context.Context, cfg RedisConfig, log *logger.Logger) (*RedisBus, error) {
	if log == nil {
		log = logger.Nop()
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = defaultRedisChannel
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	b := &RedisBus{
		MemoryBus: NewMemoryBus(log),
		rdb:       rdb,
		channel:   channel,
		log:       log.With("component", "RedisBus"),
	}
	if err := b.startForwarder(ctx); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return b, nil
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (b *RedisBus) startForwarder(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("bad realtime payload", "error", err)
					continue
				}
				b.deliver(ev)
			}
		}
	}()
	return nil
}

func (b *RedisBus) Close() error {
	_ = b.MemoryBus.Close()
	return b.rdb.Close()
}
