// Package h5 keeps result curves in a single hdf5 file laid out as variant/k/array.
// The file is read fully on Open and rewritten on Close if anything has changed:
// the new content goes to a temporary file which then replaces the old one.
package h5

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gasparian/ipeval-go/annbench"
	"github.com/gasparian/ipeval-go/store"
	"github.com/gasparian/ipeval-go/store/kv"
	"gonum.org/v1/hdf5"
)

// Store is hdf5 backed result store
type Store struct {
	path  string
	mem   *kv.KVStore
	dirty bool
	// thresholds of the entries stored without them
	thresholds []float64
}

// Open loads existing file or starts the empty one
func Open(path string) (*Store, error) {
	return OpenWithThresholds(path, nil)
}

// OpenWithThresholds is Open for files whose groups may hold only recalls, precisions
// and percent_passed; such entries get the given thresholds when lengths agree
func OpenWithThresholds(path string, thresholds []float64) (*Store, error) {
	s := &Store{
		path:       path,
		mem:        kv.NewKVStore(),
		thresholds: thresholds,
	}
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("h5 store %s: %w", path, err)
	}
	return s, nil
}

func groupNames(g annbench.Container) ([]string, error) {
	n, err := g.NumObjects()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, n)
	for i := uint(0); i < n; i++ {
		name, err := g.ObjectNameByIndex(i)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func readEntry(g *hdf5.Group, thresholds []float64) (*store.Entry, error) {
	recalls, dims, err := annbench.GetArrayFromHDF5(g, store.Recalls)
	if err != nil {
		return nil, err
	}
	e := &store.Entry{Rows: 1, Recalls: recalls}
	T := len(recalls)
	switch len(dims) {
	case 1:
	case 2:
		e.Rows, T = int(dims[0]), int(dims[1])
	default:
		return nil, fmt.Errorf("%w: %s has %d dims", store.ErrBadEntry, store.Recalls, len(dims))
	}
	if e.Precisions, err = annbench.GetVectorFromHDF5(g, store.Precisions); err != nil {
		return nil, err
	}
	if e.PercentPassed, err = annbench.GetVectorFromHDF5(g, store.PercentPassed); err != nil {
		return nil, err
	}

	has, err := annbench.HasDataset(g, store.Thresholds)
	if err != nil {
		return nil, err
	}
	switch {
	case has:
		if e.Thresholds, err = annbench.GetVectorFromHDF5(g, store.Thresholds); err != nil {
			return nil, err
		}
	case len(thresholds) == T:
		e.Thresholds = append([]float64(nil), thresholds...)
	default:
		return nil, fmt.Errorf("%w: no thresholds for %d columns", store.ErrBadEntry, T)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) load() error {
	f, err := hdf5.OpenFile(s.path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return err
	}
	defer f.Close()

	variants, err := groupNames(f)
	if err != nil {
		return err
	}
	for _, variant := range variants {
		vg, err := f.OpenGroup(variant)
		if err != nil {
			return err
		}
		ks, err := groupNames(vg)
		if err != nil {
			vg.Close()
			return err
		}
		for _, kName := range ks {
			k, err := strconv.Atoi(kName)
			if err != nil {
				vg.Close()
				return fmt.Errorf("%w: %s/%s", store.ErrBadKey, variant, kName)
			}
			kg, err := vg.OpenGroup(kName)
			if err != nil {
				vg.Close()
				return err
			}
			e, err := readEntry(kg, s.thresholds)
			kg.Close()
			if err != nil {
				vg.Close()
				return fmt.Errorf("%s/%s: %w", variant, kName, err)
			}
			if err := s.mem.Put(store.Key{Variant: variant, K: k}, e, true); err != nil {
				vg.Close()
				return err
			}
		}
		vg.Close()
	}
	return nil
}

func writeArray(g *hdf5.Group, name string, dims []uint, vals []float64) error {
	dtype, err := hdf5.NewDatatypeFromValue(vals[0])
	if err != nil {
		return err
	}
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return err
	}
	defer space.Close()

	dset, err := g.CreateDataset(name, dtype, space)
	if err != nil {
		return err
	}
	defer dset.Close()
	return dset.Write(&vals)
}

func writeEntry(g *hdf5.Group, e *store.Entry) error {
	T := uint(len(e.Thresholds))
	if err := writeArray(g, store.Thresholds, []uint{T}, e.Thresholds); err != nil {
		return err
	}
	for _, name := range []string{store.Recalls, store.Precisions, store.PercentPassed} {
		if err := writeArray(g, name, []uint{uint(e.Rows), T}, e.Arrays()[name]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeFile(path string) (err error) {
	keys, err := s.mem.Keys()
	if err != nil {
		return err
	}
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	groups := make(map[string]*hdf5.Group)
	defer func() {
		for _, g := range groups {
			g.Close()
		}
	}()
	for _, key := range keys {
		vg, ok := groups[key.Variant]
		if !ok {
			vg, err = f.CreateGroup(key.Variant)
			if err != nil {
				return err
			}
			groups[key.Variant] = vg
		}
		kg, err := vg.CreateGroup(strconv.Itoa(key.K))
		if err != nil {
			return err
		}
		e, err := s.mem.Get(key)
		if err == nil {
			err = writeEntry(kg, e)
		}
		kg.Close()
		if err != nil {
			return fmt.Errorf("%v: %w", key, err)
		}
	}
	return nil
}

// flush writes everything next to the store file and swaps them, old file stays intact on failure
func (s *Store) flush() error {
	tmp := s.path + ".tmp"
	if err := s.writeFile(tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, s.path)
}

// Has checks entry presence
func (s *Store) Has(key store.Key) (bool, error) {
	return s.mem.Has(key)
}

// Get returns stored entry
func (s *Store) Get(key store.Key) (*store.Entry, error) {
	return s.mem.Get(key)
}

// Put stores entry in memory, it's written to disk on Close
func (s *Store) Put(key store.Key, e *store.Entry, force bool) error {
	if err := s.mem.Put(key, e, force); err != nil {
		return err
	}
	s.dirty = true
	return nil
}

// Keys lists stored entries
func (s *Store) Keys() ([]store.Key, error) {
	return s.mem.Keys()
}

// Close rewrites the file if there were any changes
func (s *Store) Close() error {
	if !s.dirty {
		return nil
	}
	if err := s.flush(); err != nil {
		return fmt.Errorf("h5 store %s: %w", s.path, err)
	}
	s.dirty = false
	return nil
}
