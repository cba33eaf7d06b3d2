package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/soyeahso/intentd/internal/domain"
	"github.com/soyeahso/intentd/internal/intent"
	"github.com/soyeahso/intentd/internal/version"
)

// RedisIndex stores donations in Redis so several processes share one
// index. Each group is a hash; each account has a sorted set of group IDs
// scored by last donation time.
type RedisIndex struct {
	client redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
}

// RedisOptions configures OpenRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// OpenRedis connects to Redis and verifies the connection.
func OpenRedis(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       opts.Addr,
		Password:   opts.Password,
		DB:         opts.DB,
		ClientName: version.Name,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

// NewRedisIndex wraps a client. Entries expire ttl after their last
// donation; ttl <= 0 keeps them forever.
func NewRedisIndex(client redis.UniversalClient, ttl time.Duration) *RedisIndex {
	return &RedisIndex{client: client, ttl: ttl, now: time.Now}
}

func intentKey(groupID string) string {
	return "intentd:intent:" + groupID
}

func recentKey(accountID string) string {
	return "intentd:recent:" + accountID
}

// Submit upserts the group's hash and moves it to the front of the
// account's recency list.
func (r *RedisIndex) Submit(ctx context.Context, d domain.Descriptor) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding descriptor: %w", err)
	}

	now := r.now().UnixMilli()
	key := intentKey(d.GroupID)
	recent := recentKey(d.AccountID)

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, "descriptor", payload, "donatedAt", now)
		p.HIncrBy(ctx, key, "count", 1)
		p.ZAdd(ctx, recent, redis.Z{Score: float64(now), Member: d.GroupID})
		if r.ttl > 0 {
			p.Expire(ctx, key, r.ttl)
			p.Expire(ctx, recent, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("submitting %s: %w", d.GroupID, err)
	}
	return nil
}

// Get loads a group's entry. A missing or expired group returns ok=false.
func (r *RedisIndex) Get(ctx context.Context, groupID string) (Entry, bool, error) {
	fields, err := r.client.HGetAll(ctx, intentKey(groupID)).Result()
	if err != nil {
		return Entry{}, false, fmt.Errorf("loading %s: %w", groupID, err)
	}
	if len(fields) == 0 {
		return Entry{}, false, nil
	}

	var e Entry
	if err := json.Unmarshal([]byte(fields["descriptor"]), &e.Descriptor); err != nil {
		return Entry{}, false, fmt.Errorf("decoding %s: %w", groupID, err)
	}
	if ms, err := strconv.ParseInt(fields["donatedAt"], 10, 64); err == nil {
		e.DonatedAt = time.UnixMilli(ms)
	}
	e.Count, _ = strconv.ParseInt(fields["count"], 10, 64)
	return e, true, nil
}

// Recent returns up to limit entries for an account, newest first.
func (r *RedisIndex) Recent(ctx context.Context, accountID string, limit int) ([]Entry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := r.client.ZRevRange(ctx, recentKey(accountID), 0, stop).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("listing recent for %s: %w", accountID, err)
	}

	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		e, ok, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// Forget removes a group's hash and its recency entry.
func (r *RedisIndex) Forget(ctx context.Context, groupID string) error {
	accountID, _, ok := intent.ParseGroupID(groupID)
	if !ok {
		return fmt.Errorf("malformed group id %q", groupID)
	}
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, intentKey(groupID))
		p.ZRem(ctx, recentKey(accountID), groupID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("forgetting %s: %w", groupID, err)
	}
	return nil
}
