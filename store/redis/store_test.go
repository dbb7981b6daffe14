package redis

import (
	"testing"
	"time"

	"github.com/gasparian/ipeval-go/store/storetest"
	guuid "github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBadURL(t *testing.T) {
	_, err := Open("not-a-url", "", time.Second)
	assert.Error(t, err)
	_, err = Open("redis://localhost:9999", "", time.Second)
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	// Skip if Redis not available
	s, err := Open("redis://localhost:6379/15", "ipeval:test:"+guuid.NewString()+":", time.Second)
	if err != nil {
		t.Skip("Redis not available:", err)
	}
	defer s.Close()
	defer func() {
		require.NoError(t, s.Clear())
	}()
	storetest.Run(t, s)
}
