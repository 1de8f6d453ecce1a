package segment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrFailedToParseRedisConnString indicates an invalid Redis URL.
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")

	// ErrRedisNotReady indicates that the Redis server could not be reached.
	ErrRedisNotReady = errors.New("redis server is not ready")
)

// RedisConfig holds Redis connection parameters for the assignment store.
type RedisConfig struct {
	ConnectionURL  string        `env:"SEGMENT_REDIS_URL,required" envDefault:"redis://localhost:6379/0"` // ConnectionURL should be in the format "redis://:password@localhost:6379/0"
	RetryAttempts  int           `env:"SEGMENT_REDIS_RETRY_ATTEMPTS" envDefault:"3"`                      // RetryAttempts is the number of connection attempts.
	RetryInterval  time.Duration `env:"SEGMENT_REDIS_RETRY_INTERVAL" envDefault:"5s"`                     // RetryInterval is the delay between connection attempts.
	ConnectTimeout time.Duration `env:"SEGMENT_REDIS_CONNECT_TIMEOUT" envDefault:"30s"`                   // ConnectTimeout bounds the whole connection phase.
	KeyPrefix      string        `env:"SEGMENT_REDIS_KEY_PREFIX" envDefault:"experimentkit:assignment:"`  // KeyPrefix namespaces assignment keys.
}

// ConnectRedis establishes a connection to a Redis server using the provided
// configuration, retrying per the config before giving up.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	for range cfg.RetryAttempts {
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrRedisNotReady
}

// RedisAssignmentStore persists sticky assignments in Redis as JSON values.
// Assignments have no expiry: stickiness must survive any session window.
type RedisAssignmentStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisAssignmentStore creates an assignment store backed by the given
// Redis client. An empty keyPrefix falls back to the default namespace.
func NewRedisAssignmentStore(client redis.UniversalClient, keyPrefix string) *RedisAssignmentStore {
	if client == nil {
		panic("segment: redis client cannot be nil")
	}
	if keyPrefix == "" {
		keyPrefix = "experimentkit:assignment:"
	}
	return &RedisAssignmentStore{client: client, keyPrefix: keyPrefix}
}

// Get returns the stored assignment for the user.
func (s *RedisAssignmentStore) Get(ctx context.Context, userID string) (Assignment, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return Assignment{}, ErrAssignmentNotFound
	}
	if err != nil {
		return Assignment{}, errors.Join(ErrStoreUnavailable, err)
	}

	var assignment Assignment
	if err := json.Unmarshal([]byte(raw), &assignment); err != nil {
		return Assignment{}, fmt.Errorf("failed to decode assignment for user %q: %w", userID, err)
	}
	return assignment, nil
}

// Put stores the assignment, replacing any existing one.
func (s *RedisAssignmentStore) Put(ctx context.Context, assignment Assignment) error {
	raw, err := json.Marshal(assignment)
	if err != nil {
		return fmt.Errorf("failed to encode assignment for user %q: %w", assignment.UserID, err)
	}

	if err := s.client.Set(ctx, s.key(assignment.UserID), raw, 0).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// Delete removes the assignment for the user.
func (s *RedisAssignmentStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// Healthcheck returns a function that verifies Redis connectivity, suitable
// for readiness probes.
func (s *RedisAssignmentStore) Healthcheck() func(context.Context) error {
	return func(ctx context.Context) error {
		if _, err := s.client.Ping(ctx).Result(); err != nil {
			return errors.Join(ErrStoreUnavailable, err)
		}
		return nil
	}
}

func (s *RedisAssignmentStore) key(userID string) string {
	return s.keyPrefix + userID
}
