package publisher

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// This test requires a running Redis instance
// If Redis is not available, the test will be skipped
func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()
	pub := NewRedisPublisher(ctx, "localhost:6379", 0, "test_cellprotocols", 1, 100)
	defer pub.Close()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   0,
	})
	defer client.Close()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	err = client.XGroupCreateMkStream(ctx, "test_cellprotocols:0", "test_group", "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		t.Fatal(err)
	}

	messages := make(chan string, 1)

	go func() {
		message, err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Streams:  []string{"test_cellprotocols:0", ">"},
			Group:    "test_group",
			Consumer: "test_consumer",
			Block:    0,
		}).Result()
		assert.NoError(t, err)
		messages <- message[0].Messages[0].Values["HEK-293"].(string)
	}()

	time.Sleep(100 * time.Millisecond)

	err = pub.Publish("HEK-293", []byte(`{"ID": 1}`))
	assert.NoError(t, err)

	select {
	case msg := <-messages:
		// The payload should be base64 encoded
		assert.Equal(t, "eyJJRCI6IDF9", msg)
	case <-time.After(1 * time.Second):
		t.Error("Timed out waiting for message")
	}

	err = pub.TrimStreams()
	assert.NoError(t, err)
}
