package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"code_arena/internal/domain/model"
)

func newTestCache(t *testing.T) (*ProblemCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewProblemCache(client, time.Minute), mr
}

func TestProblemRoundTripAndTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	got, err := c.GetProblem(ctx, 7)
	require.NoError(t, err)
	require.Nil(t, got)

	c.SetProblem(ctx, &model.Problem{ID: 7, Title: "Two Sum", TestCases: []model.TestCase{{Input: "1", ExpectedOutput: "2"}}})
	got, err = c.GetProblem(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "Two Sum", got.Title)
	require.Len(t, got.TestCases, 1)

	mr.FastForward(2 * time.Minute)
	got, err = c.GetProblem(ctx, 7)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestCustomProblemsInvalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	c.SetCustomProblems(ctx, []model.Problem{{ID: 1, Title: "Mine", IsCustom: true}})
	list, err := c.GetCustomProblems(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	c.InvalidateCustomProblems(ctx)
	list, err = c.GetCustomProblems(ctx)
	require.NoError(t, err)
	require.Nil(t, list)

	c.SetCustomProblems(ctx, []model.Problem{})
	list, err = c.GetCustomProblems(ctx)
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestRedisDownIsAMiss(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()
	c := NewProblemCache(client, time.Minute)

	c.SetProblem(ctx, &model.Problem{ID: 1})
	got, err := c.GetProblem(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestNilCacheIsDisabled(t *testing.T) {
	ctx := context.Background()
	var c *ProblemCache
	require.Nil(t, NewProblemCache(nil, time.Minute))

	c.SetProblem(ctx, &model.Problem{ID: 1})
	c.InvalidateCustomProblems(ctx)
	got, err := c.GetProblem(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, got)
	list, err := c.GetCustomProblems(ctx)
	require.NoError(t, err)
	require.Nil(t, list)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = Connect(context.Background(), "127.0.0.1:1", "", 0)
	require.Error(t, err)
}
