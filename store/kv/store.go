// Package kv is in-memory result store, used for dry runs and tests
package kv

import (
	"strconv"
	"sync"

	"github.com/gasparian/ipeval-go/store"
)

// KVStore holds buckets per variant with entries per k
type KVStore struct {
	mx sync.RWMutex
	m  map[string]map[string]*store.Entry
}

// NewKVStore creates empty store
func NewKVStore() *KVStore {
	return &KVStore{
		m: make(map[string]map[string]*store.Entry),
	}
}

func copyEntry(e *store.Entry) *store.Entry {
	return &store.Entry{
		Rows:          e.Rows,
		Thresholds:    append([]float64(nil), e.Thresholds...),
		Recalls:       append([]float64(nil), e.Recalls...),
		Precisions:    append([]float64(nil), e.Precisions...),
		PercentPassed: append([]float64(nil), e.PercentPassed...),
	}
}

// Has checks entry presence
func (s *KVStore) Has(key store.Key) (bool, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()
	_, ok := s.m[key.Variant][strconv.Itoa(key.K)]
	return ok, nil
}

// Get returns copy of the entry
func (s *KVStore) Get(key store.Key) (*store.Entry, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()
	e, ok := s.m[key.Variant][strconv.Itoa(key.K)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyEntry(e), nil
}

// Put stores copy of the entry
func (s *KVStore) Put(key store.Key, e *store.Entry, force bool) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	bucket, ok := s.m[key.Variant]
	if !ok {
		bucket = make(map[string]*store.Entry)
		s.m[key.Variant] = bucket
	}
	k := strconv.Itoa(key.K)
	if _, ok := bucket[k]; ok && !force {
		return store.ErrExists
	}
	bucket[k] = copyEntry(e)
	return nil
}

// Keys lists all entries sorted
func (s *KVStore) Keys() ([]store.Key, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()
	keys := make([]store.Key, 0)
	for variant, bucket := range s.m {
		for k := range bucket {
			kInt, err := strconv.Atoi(k)
			if err != nil {
				return nil, err
			}
			keys = append(keys, store.Key{Variant: variant, K: kInt})
		}
	}
	store.SortKeys(keys)
	return keys, nil
}

// Clear drops everything
func (s *KVStore) Clear() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.m = make(map[string]map[string]*store.Entry)
}

// Close does nothing, data lives as long as the store object
func (s *KVStore) Close() error {
	return nil
}
