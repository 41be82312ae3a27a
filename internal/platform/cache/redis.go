package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"code_arena/internal/domain/model"
)

const (
	problemKeyPrefix  = "problem:detail:"
	customProblemsKey = "problem:custom"
)

// Connect opens a Redis client and checks it answers.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", addr, err)
	}
	log.Info().Str("addr", addr).Msg("Successfully connected to Redis")
	return rdb, nil
}

// ProblemCache keeps problem details and the custom-problem list in Redis.
// A nil *ProblemCache is valid and caches nothing. Redis failures are logged
// and reported as misses so callers fall through to the store.
type ProblemCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProblemCache(client *redis.Client, ttl time.Duration) *ProblemCache {
	if client == nil {
		return nil
	}
	return &ProblemCache{client: client, ttl: ttl}
}

// GetProblem returns the cached problem, or (nil, nil) if not found.
func (c *ProblemCache) GetProblem(ctx context.Context, id int64) (*model.Problem, error) {
	if c == nil {
		return nil, nil
	}
	var p model.Problem
	if !c.get(ctx, problemKeyPrefix+strconv.FormatInt(id, 10), &p) {
		return nil, nil
	}
	return &p, nil
}

func (c *ProblemCache) SetProblem(ctx context.Context, p *model.Problem) {
	if c == nil || p == nil {
		return
	}
	c.set(ctx, problemKeyPrefix+strconv.FormatInt(p.ID, 10), p)
}

// GetCustomProblems returns the cached custom list, or nil on a miss.
func (c *ProblemCache) GetCustomProblems(ctx context.Context) ([]model.Problem, error) {
	if c == nil {
		return nil, nil
	}
	var problems []model.Problem
	if !c.get(ctx, customProblemsKey, &problems) {
		return nil, nil
	}
	if problems == nil {
		problems = []model.Problem{}
	}
	return problems, nil
}

func (c *ProblemCache) SetCustomProblems(ctx context.Context, problems []model.Problem) {
	if c == nil {
		return
	}
	c.set(ctx, customProblemsKey, problems)
}

// InvalidateCustomProblems drops the cached custom list.
func (c *ProblemCache) InvalidateCustomProblems(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, customProblemsKey).Err(); err != nil {
		log.Warn().Err(err).Str("key", customProblemsKey).Msg("cache invalidate failed")
	}
}

func (c *ProblemCache) get(ctx context.Context, key string, dst any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache entry corrupt")
		return false
	}
	return true
}

func (c *ProblemCache) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
