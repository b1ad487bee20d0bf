package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/activitystats/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultRedisKey = "activitystats::snapshot"

type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{
		rdb: rdb,
		key: key,
	}
}

func (s *RedisStore) Load(ctx context.Context) (_ Snapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "snapshot.redis.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", s.key))

	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("redis get snapshot: %w", err)
	}

	return Unmarshal(data)
}

func (s *RedisStore) Save(ctx context.Context, snap Snapshot) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "snapshot.redis.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("key", s.key),
		attribute.Int("activities", len(snap.Activities)),
	)

	data, err := Marshal(snap)
	if err != nil {
		return err
	}

	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set snapshot: %w", err)
	}
	return nil
}
