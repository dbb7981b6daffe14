package kv

import (
	"testing"

	"github.com/gasparian/ipeval-go/store"
	"github.com/gasparian/ipeval-go/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKvStore(t *testing.T) {
	s := NewKVStore()
	storetest.Run(t, s)

	t.Run("Isolation", func(t *testing.T) {
		key := store.Key{Variant: "M16P", K: 10}
		e := storetest.Entry()
		require.NoError(t, s.Put(key, e, false))
		e.Recalls[0] = -1
		got, err := s.Get(key)
		require.NoError(t, err)
		assert.Equal(t, 1.0, got.Recalls[0])
	})

	t.Run("Clear", func(t *testing.T) {
		s.Clear()
		keys, err := s.Keys()
		require.NoError(t, err)
		assert.Empty(t, keys)
		require.NoError(t, s.Close())
	})
}
