// Package purekv keeps result curves in pure-kv server, all entries in a single bucket
package purekv

import (
	"fmt"
	"sync"

	"github.com/gasparian/ipeval-go/store"
	pkv "github.com/gasparian/pure-kv-go/client"
)

// DefaultBucket holds all entries
const DefaultBucket = "curves"

// Config of pure-kv connection
type Config struct {
	Address string
	Timeout int
	Bucket  string
}

// PureKvStore is pure-kv backed result store
type PureKvStore struct {
	mx     sync.Mutex
	config Config
	client *pkv.Client
}

// Open connects to the server and creates the bucket
func Open(config Config) (*PureKvStore, error) {
	if config.Bucket == "" {
		config.Bucket = DefaultBucket
	}
	p := &PureKvStore{
		config: config,
		client: pkv.New(config.Address, config.Timeout),
	}
	err := p.client.Open()
	if err != nil {
		return nil, err
	}
	// bucket may be already there
	_ = p.client.Create(config.Bucket)
	return p, nil
}

// Has checks entry presence
func (p *PureKvStore) Has(key store.Key) (bool, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	_, ok := p.client.Get(p.config.Bucket, key.String())
	return ok, nil
}

// Get decodes stored entry
func (p *PureKvStore) Get(key store.Key) (*store.Entry, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	val, ok := p.client.Get(p.config.Bucket, key.String())
	if !ok {
		return nil, store.ErrNotFound
	}
	var raw interface{} = val
	buf, isBytes := raw.([]byte)
	if !isBytes {
		return nil, fmt.Errorf("%v: %w", key, store.ErrCodec)
	}
	return store.DecodeEntry(buf)
}

// Put encodes and sets entry
func (p *PureKvStore) Put(key store.Key, e *store.Entry, force bool) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	if !force {
		has, err := p.Has(key)
		if err != nil {
			return err
		}
		if has {
			return store.ErrExists
		}
	}
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.client.Set(p.config.Bucket, key.String(), store.EncodeEntry(e))
}

// Keys iterates over the bucket with a separate client, the same way it's done for hash buckets
func (p *PureKvStore) Keys() ([]store.Key, error) {
	p.mx.Lock()
	err := p.client.MakeIterator(p.config.Bucket)
	p.mx.Unlock()
	if err != nil {
		return nil, err
	}
	it := pkv.New(p.config.Address, p.config.Timeout)
	if err := it.Open(); err != nil {
		return nil, err
	}
	defer it.Close()

	keys := make([]store.Key, 0)
	for {
		k, val, err := it.Next(p.config.Bucket)
		if val == nil || err != nil {
			break
		}
		key, err := store.ParseKey(fmt.Sprint(k))
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	store.SortKeys(keys)
	return keys, nil
}

// Clear drops the store bucket, other buckets of the server stay untouched
func (p *PureKvStore) Clear() error {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.client.Destroy(p.config.Bucket)
}

// Close closes rpc client
func (p *PureKvStore) Close() error {
	p.client.Close()
	return nil
}
