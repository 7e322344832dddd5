package status

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "task:"
	redisTTL  = 24 * time.Hour
)

// Redis stores each Status as JSON under task:<id> with a one-day expiry, so several
// API processes can read the state of one runner.
type Redis struct {
	client *redis.Client
}

func NewRedis(addr, password string, db int) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis{client: rdb}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) Put(ctx context.Context, s Status) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, keyPrefix+s.TaskID, data, redisTTL).Err()
}

func (r *Redis) Get(ctx context.Context, id string) (Status, error) {
	val, err := r.client.Get(ctx, keyPrefix+id).Result()
	if err == redis.Nil {
		return Status{}, ErrNotFound
	}
	if err != nil {
		return Status{}, err
	}
	var s Status
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return Status{}, fmt.Errorf("decode %s: %w", keyPrefix+id, err)
	}
	return s, nil
}

func (r *Redis) List(ctx context.Context) ([]Status, error) {
	var out []Status
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		val, err := r.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			// expired between scan and get
			continue
		}
		var s Status
		if json.Unmarshal([]byte(val), &s) == nil {
			out = append(out, s)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sortRecent(out)
	return out, nil
}
