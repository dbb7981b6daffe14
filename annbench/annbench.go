// Package annbench reads and writes estimator result files in hdf5 format
package annbench

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gasparian/ipeval-go/common"
	"github.com/gasparian/ipeval-go/lsh"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/hdf5"
)

// Container is hdf5 file or group holding datasets
type Container interface {
	NumObjects() (uint, error)
	ObjectNameByIndex(idx uint) (string, error)
	OpenDataset(name string) (*hdf5.Dataset, error)
}

// HasDataset checks whether the file or group contains the object
func HasDataset(table Container, datasetName string) (bool, error) {
	n, err := table.NumObjects()
	if err != nil {
		return false, err
	}
	for i := uint(0); i < n; i++ {
		name, err := table.ObjectNameByIndex(i)
		if err != nil {
			return false, err
		}
		if name == datasetName {
			return true, nil
		}
	}
	return false, nil
}

func getDims(dataset *hdf5.Dataset) ([]uint, error) {
	space := dataset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, err
	}
	return dims, nil
}

// GetArrayFromHDF5 returns flattened dataset payload of any rank with its dims;
// hdf5 converts stored type into float64 on read
func GetArrayFromHDF5(table Container, datasetName string) ([]float64, []uint, error) {
	dataset, err := table.OpenDataset(datasetName)
	if err != nil {
		return nil, nil, err
	}
	defer dataset.Close()

	dims, err := getDims(dataset)
	if err != nil {
		return nil, nil, err
	}
	numTicks := uint(1)
	for _, d := range dims {
		numTicks *= d
	}
	vals := make([]float64, numTicks)
	err = dataset.Read(&vals)
	if err != nil {
		return nil, nil, err
	}
	return vals, dims, nil
}

// GetVectorFromHDF5 returns flattened dataset payload of any rank
func GetVectorFromHDF5(table Container, datasetName string) ([]float64, error) {
	vals, _, err := GetArrayFromHDF5(table, datasetName)
	return vals, err
}

// GetMatrixFromHDF5 reads 2-dimensional dataset into dense matrix
func GetMatrixFromHDF5(table Container, datasetName string) (*mat.Dense, error) {
	dataset, err := table.OpenDataset(datasetName)
	if err != nil {
		return nil, err
	}
	defer dataset.Close()

	dims, err := getDims(dataset)
	if err != nil {
		return nil, err
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("%w: %s has %d", ErrRank, datasetName, len(dims))
	}
	vals := make([]float64, dims[0]*dims[1])
	err = dataset.Read(&vals)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(int(dims[0]), int(dims[1]), vals), nil
}

// GetNeighborsFromHDF5 returns neighbors ids per query
func GetNeighborsFromHDF5(table Container, datasetName string) ([][]int, error) {
	dataset, err := table.OpenDataset(datasetName)
	if err != nil {
		return nil, err
	}
	defer dataset.Close()

	dims, err := getDims(dataset)
	if err != nil {
		return nil, err
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("%w: %s has %d", ErrRank, datasetName, len(dims))
	}
	rows, cols := int(dims[0]), int(dims[1])
	ids := make([]int32, rows*cols)
	err = dataset.Read(&ids)
	if err != nil {
		return nil, err
	}
	neighbors := make([][]int, rows)
	for i := range neighbors {
		neighbors[i] = common.ConvertToInt(ids[i*cols : (i+1)*cols])
	}
	return neighbors, nil
}

// readEstimates picks estimates array: pq estimates as is,
// lsh collisions turned into cosine estimates
func readEstimates(table Container, opts LoadOptions) (*mat.Dense, error) {
	for _, name := range []string{EstimatedInner, CollisionProb, Collisions} {
		has, err := HasDataset(table, name)
		if err != nil {
			return nil, err
		}
		if !has {
			continue
		}
		m, err := GetMatrixFromHDF5(table, name)
		if err != nil {
			return nil, err
		}
		switch name {
		case CollisionProb:
			return lsh.InferEstimates(m), nil
		case Collisions:
			return lsh.InferEstimates(lsh.CollisionRates(m, opts.HashBits)), nil
		}
		return m, nil
	}
	return nil, ErrNoEstimates
}

// CheckExists returns ErrMissingInput if there is no such file
func CheckExists(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrMissingInput, path)
	}
	return err
}

// LoadResultSet reads estimates, truth and optionally neighbors from the result file
func LoadResultSet(path string, opts LoadOptions) (*ResultSet, error) {
	if err := CheckExists(path); err != nil {
		return nil, err
	}
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rs := &ResultSet{Path: path}
	if v, err := ParseVariant(filepath.Base(path)); err == nil {
		rs.Variant = v
	}

	rs.Estimated, err = readEstimates(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	hasTruth, err := HasDataset(f, TrueInner)
	if err != nil {
		return nil, err
	}
	switch {
	case hasTruth:
		rs.True, err = GetMatrixFromHDF5(f, TrueInner)
		if err != nil {
			return nil, err
		}
	case opts.Truth != nil:
		rs.True = opts.Truth
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrNoTruth)
	}

	if opts.WithNeighbors {
		hasNeighbors, err := HasDataset(f, Neighbors)
		if err != nil {
			return nil, err
		}
		if hasNeighbors {
			rs.Neighbors, err = GetNeighborsFromHDF5(f, Neighbors)
			if err != nil {
				return nil, err
			}
		}
	}

	rs.Estimated = common.TruncateRows(rs.Estimated, opts.MaxRows)
	rs.True = common.TruncateRows(rs.True, opts.MaxRows)
	rs.Neighbors = common.TruncateNeighbors(rs.Neighbors, opts.MaxRows)
	if !common.SameShape(rs.Estimated, rs.True) {
		return nil, fmt.Errorf("%s: %w", path, ErrShapeMismatch)
	}
	return rs, nil
}

// LoadMatrix reads single named 2-dimensional array from the file
func LoadMatrix(path, datasetName string) (*mat.Dense, error) {
	if err := CheckExists(path); err != nil {
		return nil, err
	}
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return GetMatrixFromHDF5(f, datasetName)
}

// LoadVector reads single named array of any rank from the file, flattened
func LoadVector(path, datasetName string) ([]float64, error) {
	if err := CheckExists(path); err != nil {
		return nil, err
	}
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return GetVectorFromHDF5(f, datasetName)
}
