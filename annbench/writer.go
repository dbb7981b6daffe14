package annbench

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/hdf5"
)

// Writer creates result files in the same layout estimator pipeline does:
// float32 arrays in the root group
type Writer struct {
	file *hdf5.File
}

// CreateFile truncates or creates the hdf5 file at path
func CreateFile(path string) (*Writer, error) {
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, err
	}
	return &Writer{file: f}, nil
}

func (w *Writer) write(name string, dims []uint, vals interface{}, sample interface{}) error {
	dtype, err := hdf5.NewDatatypeFromValue(sample)
	if err != nil {
		return err
	}
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return err
	}
	defer space.Close()

	dset, err := w.file.CreateDataset(name, dtype, space)
	if err != nil {
		return err
	}
	defer dset.Close()
	return dset.Write(vals)
}

// WriteMatrix stores matrix as 2-dimensional float32 dataset
func (w *Writer) WriteMatrix(name string, m mat.Matrix) error {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return errEmptyWrite
	}
	vals := make([]float32, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			vals = append(vals, float32(m.At(i, j)))
		}
	}
	return w.write(name, []uint{uint(r), uint(c)}, &vals, vals[0])
}

// WriteVector stores 1-dimensional float32 dataset
func (w *Writer) WriteVector(name string, v []float64) error {
	if len(v) == 0 {
		return errEmptyWrite
	}
	vals := make([]float32, len(v))
	for i := range v {
		vals[i] = float32(v[i])
	}
	return w.write(name, []uint{uint(len(vals))}, &vals, vals[0])
}

// WriteNeighbors stores neighbors ids as int32 matrix, all rows must have the same length
func (w *Writer) WriteNeighbors(name string, neighbors [][]int) error {
	if len(neighbors) == 0 || len(neighbors[0]) == 0 {
		return errEmptyWrite
	}
	cols := len(neighbors[0])
	ids := make([]int32, 0, len(neighbors)*cols)
	for _, row := range neighbors {
		if len(row) != cols {
			return ErrShapeMismatch
		}
		for _, id := range row {
			ids = append(ids, int32(id))
		}
	}
	return w.write(name, []uint{uint(len(neighbors)), uint(cols)}, &ids, ids[0])
}

// Close flushes and closes the file
func (w *Writer) Close() error {
	return w.file.Close()
}
