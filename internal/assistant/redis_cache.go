package assistant

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache shares answers and budget versions between API instances.
type RedisCache struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
}

type redisEntry struct {
	Version uint64 `json:"version"`
	Answer  Answer `json:"answer"`
}

// NewRedisCache creates a RedisCache whose entries expire after ttl.
func NewRedisCache(rdb redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, prefix: "pennywise:assistant"}
}

func (c *RedisCache) versionKey(budgetID uint) string {
	return fmt.Sprintf("%s:version:%d", c.prefix, budgetID)
}

func (c *RedisCache) entryKey(budgetID uint, key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s:answer:%d:%s", c.prefix, budgetID, hex.EncodeToString(sum[:]))
}

func (c *RedisCache) Get(ctx context.Context, budgetID uint, key string) (*Answer, bool, error) {
	var versionCmd, entryCmd *redis.StringCmd
	_, err := c.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		versionCmd = p.Get(ctx, c.versionKey(budgetID))
		entryCmd = p.Get(ctx, c.entryKey(budgetID, key))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, false, fmt.Errorf("read cached answer: %w", err)
	}

	raw, err := entryCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached answer: %w", err)
	}
	current, err := parseVersion(versionCmd)
	if err != nil {
		return nil, false, err
	}

	var entry redisEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false, fmt.Errorf("decode cached answer: %w", err)
	}
	if entry.Version != current {
		return nil, false, nil
	}
	return &entry.Answer, true, nil
}

func (c *RedisCache) Put(ctx context.Context, budgetID uint, key string, answer *Answer, version uint64) error {
	raw, err := json.Marshal(redisEntry{Version: version, Answer: *answer})
	if err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}
	if err := c.rdb.Set(ctx, c.entryKey(budgetID, key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write cached answer: %w", err)
	}
	return nil
}

func (c *RedisCache) Version(ctx context.Context, budgetID uint) (uint64, error) {
	return parseVersion(c.rdb.Get(ctx, c.versionKey(budgetID)))
}

func (c *RedisCache) Invalidate(ctx context.Context, budgetID uint) error {
	if err := c.rdb.Incr(ctx, c.versionKey(budgetID)).Err(); err != nil {
		return fmt.Errorf("bump budget version: %w", err)
	}
	return nil
}

func parseVersion(cmd *redis.StringCmd) (uint64, error) {
	raw, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read budget version: %w", err)
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse budget version %q: %w", raw, err)
	}
	return v, nil
}
