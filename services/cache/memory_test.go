package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryService(t *testing.T) {
	m := NewMemoryService()

	// Miss before any write
	_, err := m.Get("missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Set and get
	err = m.Set("key", []byte("value"), time.Minute)
	assert.NoError(t, err)

	value, err := m.Get("key")
	assert.NoError(t, err)
	assert.Equal(t, "value", string(value))

	// Delete
	err = m.Delete("key")
	assert.NoError(t, err)
	_, err = m.Get("key")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryServiceExpiry(t *testing.T) {
	m := NewMemoryService()

	err := m.Set("short", []byte("v"), time.Nanosecond)
	assert.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	_, err = m.Get("short")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Zero expiration never expires
	err = m.Set("forever", []byte("v"), 0)
	assert.NoError(t, err)
	value, err := m.Get("forever")
	assert.NoError(t, err)
	assert.Equal(t, "v", string(value))
}
