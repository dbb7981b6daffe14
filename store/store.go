// Package store keeps precision/recall curves keyed by estimator variant and k
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Names of the arrays of a single entry
const (
	Recalls       = "recalls"
	Precisions    = "precisions"
	PercentPassed = "percent_passed"
	Thresholds    = "thresholds"
)

var (
	// ErrExists returned by Put when entry is there and overwrite is not forced
	ErrExists = errors.New("entry already exists")
	// ErrNotFound returned by Get for missing entry
	ErrNotFound = errors.New("entry not found")
	// ErrBadEntry returned when arrays don't agree with each other
	ErrBadEntry = errors.New("entry arrays are not aligned")
	// ErrBadKey returned when key can't be parsed or used as group name
	ErrBadKey = errors.New("bad entry key")
	// ErrCodec returned when stored bytes are not a float64 array
	ErrCodec = errors.New("can't decode float64 array")
)

// Key addresses entry by variant label and k
type Key struct {
	Variant string
	K       int
}

func (k Key) String() string {
	return k.Variant + "/" + strconv.Itoa(k.K)
}

// ParseKey is the inverse of Key.String
func ParseKey(s string) (Key, error) {
	i := strings.LastIndexByte(s, '/')
	if i <= 0 {
		return Key{}, fmt.Errorf("%w: %q", ErrBadKey, s)
	}
	k, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q", ErrBadKey, s)
	}
	return Key{Variant: s[:i], K: k}, nil
}

// Validate checks that key can be used as group name
func (k Key) Validate() error {
	if k.Variant == "" || strings.ContainsAny(k.Variant, "/.") || k.K <= 0 {
		return fmt.Errorf("%w: %v", ErrBadKey, k)
	}
	return nil
}

// Entry holds Rows x len(Thresholds) row-major curves
type Entry struct {
	Rows          int
	Thresholds    []float64
	Recalls       []float64
	Precisions    []float64
	PercentPassed []float64
}

// Validate checks arrays lengths
func (e *Entry) Validate() error {
	n := e.Rows * len(e.Thresholds)
	if e.Rows <= 0 || n == 0 || len(e.Recalls) != n || len(e.Precisions) != n || len(e.PercentPassed) != n {
		return ErrBadEntry
	}
	return nil
}

// Arrays returns entry curves by their stored names
func (e *Entry) Arrays() map[string][]float64 {
	return map[string][]float64{
		Recalls:       e.Recalls,
		Precisions:    e.Precisions,
		PercentPassed: e.PercentPassed,
		Thresholds:    e.Thresholds,
	}
}

// FromArrays builds entry back from the named arrays, rows are inferred from thresholds length
func FromArrays(arrays map[string][]float64) (*Entry, error) {
	e := &Entry{
		Thresholds:    arrays[Thresholds],
		Recalls:       arrays[Recalls],
		Precisions:    arrays[Precisions],
		PercentPassed: arrays[PercentPassed],
	}
	if len(e.Thresholds) == 0 {
		return nil, ErrBadEntry
	}
	e.Rows = len(e.Recalls) / len(e.Thresholds)
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Store persists entries; Put doesn't overwrite existing entry unless forced
type Store interface {
	Has(key Key) (bool, error)
	Get(key Key) (*Entry, error)
	Put(key Key, e *Entry, force bool) error
	Keys() ([]Key, error)
	Close() error
}

// SortKeys orders keys by variant, then by k
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Variant != keys[j].Variant {
			return keys[i].Variant < keys[j].Variant
		}
		return keys[i].K < keys[j].K
	})
}

// EncodeFloats packs values as little endian float64 bits
func EncodeFloats(vals []float64) []byte {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

// DecodeFloats is the inverse of EncodeFloats
func DecodeFloats(buf []byte) ([]float64, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrCodec, len(buf))
	}
	vals := make([]float64, len(buf)/8)
	for i := range vals {
		vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return vals, nil
}

// EncodeEntry packs rows, thresholds count and all arrays into a single blob
func EncodeEntry(e *Entry) []byte {
	vals := make([]float64, 0, 2+len(e.Thresholds)+3*len(e.Recalls))
	vals = append(vals, float64(e.Rows), float64(len(e.Thresholds)))
	vals = append(vals, e.Thresholds...)
	vals = append(vals, e.Recalls...)
	vals = append(vals, e.Precisions...)
	vals = append(vals, e.PercentPassed...)
	return EncodeFloats(vals)
}

// DecodeEntry is the inverse of EncodeEntry
func DecodeEntry(buf []byte) (*Entry, error) {
	vals, err := DecodeFloats(buf)
	if err != nil {
		return nil, err
	}
	if len(vals) < 2 {
		return nil, ErrBadEntry
	}
	rows, T := int(vals[0]), int(vals[1])
	n := rows * T
	if rows <= 0 || T <= 0 || len(vals) != 2+T+3*n {
		return nil, ErrBadEntry
	}
	vals = vals[2:]
	e := &Entry{
		Rows:          rows,
		Thresholds:    vals[:T],
		Recalls:       vals[T : T+n],
		Precisions:    vals[T+n : T+2*n],
		PercentPassed: vals[T+2*n:],
	}
	return e, nil
}
