package redis_db

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected *redis.Options
		wantErr  bool
	}{
		{
			name: "simple docker style",
			url:  "redis:6379",
			expected: &redis.Options{
				Addr: "redis:6379",
			},
			wantErr: false,
		},
		{
			name: "redis url with password",
			url:  "redis://:password123@localhost:6379",
			expected: &redis.Options{
				Addr:     "localhost:6379",
				Password: "password123",
			},
			wantErr: false,
		},
		{
			name: "hosted redis url",
			url:  "myinstance.cache.example.net:6380",
			expected: &redis.Options{
				Addr: "myinstance.cache.example.net:6380",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRedisURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected.Addr, got.Addr)
			assert.Equal(t, tt.expected.Password, got.Password)
		})
	}
}

func TestNewRedisClient_EmptyAddresses(t *testing.T) {
	_, err := NewRedisClient([]string{})
	assert.Error(t, err)
}

func TestNewRedisClient_SingleAddress(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient([]string{mr.Addr()})
	assert.NoError(t, err)
	assert.NotNil(t, client)
	assert.NotNil(t, client.Client())
}

func TestRedisRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient([]string{mr.Addr()})
	if err != nil {
		t.Fatalf("Failed to create Redis client: %v", err)
	}

	ctx := context.Background()
	key := "test_key"
	value := "test_value"

	// Test Set
	err = client.Client().Set(ctx, key, value, time.Minute).Err()
	assert.NoError(t, err)

	// Test Get
	got, err := client.Client().Get(ctx, key).Result()
	assert.NoError(t, err)
	assert.Equal(t, value, got)

	// Test Delete
	err = client.Client().Del(ctx, key).Err()
	assert.NoError(t, err)

	// Verify deletion
	_, err = client.Client().Get(ctx, key).Result()
	assert.Equal(t, redis.Nil, err)
}
