package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/portal-cidadao/internal/config"
)

func TestNewClient(t *testing.T) {
	srv := miniredis.RunT(t)
	client, err := NewClient(context.Background(), config.RedisConfig{URL: "redis://" + srv.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	srv.CheckGet(t, "k", "v")
}

func TestNewClientBadURL(t *testing.T) {
	_, err := NewClient(context.Background(), config.RedisConfig{URL: "://nope"})
	assert.Error(t, err)
}
