// Package redis keeps result curves in redis hashes, one hash per variant and k
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gasparian/ipeval-go/store"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultPrefix of all keys written by the store
const DefaultPrefix = "ipeval:curves:"

const rowsField = "rows"

// Store is redis backed result store
type Store struct {
	client  *goredis.Client
	prefix  string
	timeout time.Duration
}

// Open connects to redis by url like redis://localhost:6379/0 and checks connection
func Open(url, prefix string, timeout time.Duration) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &Store{
		client:  client,
		prefix:  prefix,
		timeout: timeout,
	}, nil
}

func (s *Store) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *Store) entryKey(key store.Key) string {
	return s.prefix + key.String()
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Has checks entry presence
func (s *Store) Has(key store.Key) (bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	n, err := s.client.Exists(ctx, s.entryKey(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get reads entry hash back
func (s *Store) Get(key store.Key) (*store.Entry, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	fields, err := s.client.HGetAll(ctx, s.entryKey(key)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, store.ErrNotFound
	}
	arrays := make(map[string][]float64)
	for _, name := range []string{store.Thresholds, store.Recalls, store.Precisions, store.PercentPassed} {
		vals, err := store.DecodeFloats([]byte(fields[name]))
		if err != nil {
			return nil, fmt.Errorf("%v %s: %w", key, name, err)
		}
		arrays[name] = vals
	}
	e, err := store.FromArrays(arrays)
	if err != nil {
		return nil, err
	}
	if rows, err := strconv.Atoi(fields[rowsField]); err != nil || rows != e.Rows {
		return nil, fmt.Errorf("%v: %w", key, store.ErrBadEntry)
	}
	return e, nil
}

// Put writes entry hash and registers the key in the index set
func (s *Store) Put(key store.Key, e *store.Entry, force bool) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	if !force {
		has, err := s.Has(key)
		if err != nil {
			return err
		}
		if has {
			return store.ErrExists
		}
	}
	values := map[string]interface{}{
		rowsField: strconv.Itoa(e.Rows),
	}
	for name, arr := range e.Arrays() {
		values[name] = store.EncodeFloats(arr)
	}

	ctx, cancel := s.ctx()
	defer cancel()
	entryKey := s.entryKey(key)
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, entryKey)
		pipe.HSet(ctx, entryKey, values)
		pipe.SAdd(ctx, s.indexKey(), key.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving %v: %w", key, err)
	}
	return nil
}

// Keys lists entries registered in the index set
func (s *Store) Keys() ([]store.Key, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	members, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, err
	}
	keys := make([]store.Key, 0, len(members))
	for _, m := range members {
		key, err := store.ParseKey(m)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	store.SortKeys(keys)
	return keys, nil
}

// Clear removes all entries written under the store prefix
func (s *Store) Clear() error {
	keys, err := s.Keys()
	if err != nil {
		return err
	}
	ctx, cancel := s.ctx()
	defer cancel()
	toDelete := []string{s.indexKey()}
	for _, key := range keys {
		toDelete = append(toDelete, s.entryKey(key))
	}
	return s.client.Del(ctx, toDelete...).Err()
}

// Close closes redis client
func (s *Store) Close() error {
	return s.client.Close()
}
