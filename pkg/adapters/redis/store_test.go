package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/canvasflow/pkg/adapters/redis"
	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_KeyLayout(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithPrefix("test:"))
	ctx := context.Background()

	state := domain.NewExecutionState(domain.ModeAutomatic)
	state.RunID = "r1"
	require.NoError(t, store.Save(ctx, "r1", state))

	assert.True(t, mr.Exists("test:r1"))
	members, err := mr.ZMembers("test:index")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, members)

	require.NoError(t, store.Delete(ctx, "r1"))
	assert.False(t, mr.Exists("test:r1"))
}

func TestRedisStore_TTL(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Minute))
	ctx := context.Background()

	state := domain.NewExecutionState(domain.ModeAutomatic)
	require.NoError(t, store.Save(ctx, "short-lived", state))
	assert.Equal(t, time.Minute, mr.TTL("canvasflow:run:short-lived"))

	mr.FastForward(2 * time.Minute)
	_, err := store.Load(ctx, "short-lived")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}
