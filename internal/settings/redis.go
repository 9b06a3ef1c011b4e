package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/mesh-intelligence/checklist/pkg/types"
	"github.com/mesh-intelligence/checklist/pkg/watch"
)

// eventsChannel is the pub/sub channel, under the key prefix, on which
// writers announce changed keys.
const eventsChannel = "events"

// Compile-time interface check.
var _ types.Settings = (*RedisStore)(nil)

// RedisStore keeps preferences in redis. Changes made by any process sharing
// the server and prefix reach every subscriber.
type RedisStore struct {
	client *redis.Client
	prefix string
	hub    *watch.Hub
	pubsub *redis.PubSub
	logger *slog.Logger
	done   chan struct{}
}

// NewRedisStore connects to addr and listens for changes under prefix.
func NewRedisStore(ctx context.Context, addr, prefix string, logger *slog.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}

	s := &RedisStore{
		client: client,
		prefix: prefix,
		hub:    watch.NewHub(),
		logger: logger,
		done:   make(chan struct{}),
	}

	s.pubsub = client.Subscribe(ctx, s.key(eventsChannel))
	// Wait for the subscription so no change published after return is lost.
	if _, err := s.pubsub.Receive(ctx); err != nil {
		s.pubsub.Close()
		client.Close()
		return nil, fmt.Errorf("subscribing to settings events: %w", err)
	}
	go s.listen()
	return s, nil
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

func (s *RedisStore) listen() {
	defer close(s.done)
	for msg := range s.pubsub.Channel() {
		s.logger.Debug("settings changed", "key", msg.Payload)
		s.hub.Publish(watch.TopicSettings)
	}
}

func (s *RedisStore) DarkMode(ctx context.Context) (*watch.Subscription[bool], error) {
	return watch.Watch(ctx, s.hub, s.darkMode, watch.TopicSettings), nil
}

func (s *RedisStore) darkMode(ctx context.Context) (bool, error) {
	v, err := s.client.Get(ctx, s.key(types.DarkModeKey)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", types.DarkModeKey, err)
	}
	on, err := strconv.ParseBool(v)
	if err != nil {
		s.logger.Warn("ignoring malformed setting", "key", types.DarkModeKey, "value", v)
		return false, nil
	}
	return on, nil
}

func (s *RedisStore) SetDarkMode(ctx context.Context, on bool) error {
	if err := s.client.Set(ctx, s.key(types.DarkModeKey), strconv.FormatBool(on), 0).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", types.DarkModeKey, err)
	}
	if err := s.client.Publish(ctx, s.key(eventsChannel), types.DarkModeKey).Err(); err != nil {
		return fmt.Errorf("announcing %s: %w", types.DarkModeKey, err)
	}
	s.hub.Publish(watch.TopicSettings)
	return nil
}

// Close stops listening, ends all subscriptions, and closes the connection.
func (s *RedisStore) Close() error {
	err := s.pubsub.Close()
	<-s.done
	s.hub.Close()
	if cerr := s.client.Close(); err == nil {
		err = cerr
	}
	return err
}
