package boostsearch

import (
	"encoding/csv"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
)

// A Dataset is an immutable table of labeled samples.
//
// Every row stores a binary label followed by one value
// per feature, in the order given by FeatureNames.
// Values are kept exactly as supplied; in particular,
// missing values (NaN) are preserved.
type Dataset struct {
	names    []string
	labels   []float64
	features [][]float64
}

// NewDataset creates a Dataset from a matrix whose first
// column is the label and whose remaining columns match
// featureNames.
//
// The matrix is copied, so the caller may reuse it.
func NewDataset(matrix [][]float64, featureNames []string) (*Dataset, error) {
	numCols := len(featureNames) + 1
	res := &Dataset{
		names:    append([]string{}, featureNames...),
		labels:   make([]float64, len(matrix)),
		features: make([][]float64, len(matrix)),
	}
	for i, row := range matrix {
		if len(row) != numCols {
			return nil, errors.Wrapf(ErrSchemaMismatch,
				"row %d has %d fields but the header names %d", i, len(row), numCols)
		}
		res.labels[i] = row[0]
		res.features[i] = append([]float64{}, row[1:]...)
	}
	return res, nil
}

// ReadDataset parses a comma-separated table with one
// header line.
// The first column is the label and the others are
// features.
//
// Empty cells and cells reading "NaN" are treated as
// missing values.
func ReadDataset(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrap(ErrSchemaMismatch, "missing header")
	} else if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	if len(header) < 2 {
		return nil, errors.Wrap(ErrSchemaMismatch, "header needs a label and at least one feature")
	}

	var matrix [][]float64
	for line := 2; true; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrapf(err, "read line %d", line)
		}
		if len(record) != len(header) {
			return nil, errors.Wrapf(ErrSchemaMismatch, "line %d has %d fields but the header has %d",
				line, len(record), len(header))
		}
		row := make([]float64, len(record))
		for i, cell := range record {
			row[i], err = parseCell(cell)
			if err != nil {
				return nil, errors.Wrapf(ErrSchemaMismatch, "line %d, column %q: %s",
					line, header[i], err)
			}
		}
		matrix = append(matrix, row)
	}

	return NewDataset(matrix, header[1:])
}

// LoadDataset reads a Dataset from a CSV file.
func LoadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, essentials.AddCtx("load dataset", err)
	}
	defer f.Close()
	res, err := ReadDataset(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return res, nil
}

func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.labels)
}

// NumFeatures returns the number of features per row.
func (d *Dataset) NumFeatures() int {
	return len(d.names)
}

// FeatureNames returns a copy of the feature names.
func (d *Dataset) FeatureNames() []string {
	return append([]string{}, d.names...)
}

// Label returns the label of row i.
func (d *Dataset) Label(i int) float64 {
	return d.labels[i]
}

// Row returns a copy of row i, label first.
func (d *Dataset) Row(i int) []float64 {
	return append([]float64{d.labels[i]}, d.features[i]...)
}

// Rows returns a copy of every row, label first.
func (d *Dataset) Rows() [][]float64 {
	res := make([][]float64, d.Len())
	for i := range res {
		res[i] = d.Row(i)
	}
	return res
}

// Split randomly partitions the rows into two datasets.
// The first receives floor(frac*Len()) rows.
//
// The split is determined entirely by seed.
func (d *Dataset) Split(frac float64, seed int64) (first, second *Dataset) {
	perm := rand.New(rand.NewSource(seed)).Perm(d.Len())
	count := int(math.Floor(frac * float64(d.Len())))
	return d.subset(perm[:count]), d.subset(perm[count:])
}

func (d *Dataset) subset(indices []int) *Dataset {
	res := &Dataset{
		names:    d.names,
		labels:   make([]float64, len(indices)),
		features: make([][]float64, len(indices)),
	}
	for i, j := range indices {
		res.labels[i] = d.labels[j]
		res.features[i] = d.features[j]
	}
	return res
}

// row returns the features of row i without copying.
func (d *Dataset) row(i int) []float64 {
	return d.features[i]
}
