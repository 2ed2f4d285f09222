package boostsearch

import (
	"math"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatasetRoundTrip(t *testing.T) {
	matrix := [][]float64{
		{1, 0.5, 3},
		{0, math.NaN(), -2},
		{1, 7, 0},
	}
	d, err := NewDataset(matrix, []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, 3, d.Len())
	assert.Equal(t, 2, d.NumFeatures())
	assert.Equal(t, []string{"a", "b"}, d.FeatureNames())

	rows := d.Rows()
	require.Len(t, rows, len(matrix))
	for i, row := range rows {
		require.Len(t, row, 3)
		for j, x := range row {
			if math.IsNaN(matrix[i][j]) {
				assert.True(t, math.IsNaN(x), "row %d field %d", i, j)
			} else {
				assert.Equal(t, matrix[i][j], x, "row %d field %d", i, j)
			}
		}
	}

	// The dataset must not alias the input.
	matrix[0][1] = 100
	assert.Equal(t, 0.5, d.Row(0)[1])
}

func TestNewDatasetMismatch(t *testing.T) {
	_, err := NewDataset([][]float64{{1, 2, 3}}, []string{"a"})
	assert.True(t, errors.Is(err, ErrSchemaMismatch))

	_, err = NewDataset([][]float64{{1, 2}, {1, 2, 3}}, []string{"a"})
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
}

func TestReadDataset(t *testing.T) {
	input := "roundWinner,aliveCt,aliveT\n" +
		"1,5,4\n" +
		"0,,3\n" +
		"0,NaN,2.5\n"
	d, err := ReadDataset(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"aliveCt", "aliveT"}, d.FeatureNames())
	require.Equal(t, 3, d.Len())
	assert.Equal(t, []float64{1, 5, 4}, d.Row(0))
	assert.True(t, math.IsNaN(d.Row(1)[1]))
	assert.True(t, math.IsNaN(d.Row(2)[1]))
	assert.Equal(t, 2.5, d.Row(2)[2])
}

func TestReadDatasetErrors(t *testing.T) {
	inputs := []string{
		"",
		"label\n1\n",
		"label,a\n1,2,3\n",
		"label,a\n1,abc\n",
	}
	for _, input := range inputs {
		_, err := ReadDataset(strings.NewReader(input))
		assert.True(t, errors.Is(err, ErrSchemaMismatch), "input %q: %v", input, err)
	}
}

func TestDatasetSplit(t *testing.T) {
	var matrix [][]float64
	for i := 0; i < 100; i++ {
		matrix = append(matrix, []float64{float64(i % 2), float64(i)})
	}
	d, err := NewDataset(matrix, []string{"x"})
	require.NoError(t, err)

	train, valid := d.Split(0.8, 1337)
	assert.Equal(t, 80, train.Len())
	assert.Equal(t, 20, valid.Len())

	seen := map[float64]bool{}
	for _, part := range []*Dataset{train, valid} {
		for i := 0; i < part.Len(); i++ {
			x := part.Row(i)[1]
			assert.False(t, seen[x], "duplicate row %v", x)
			seen[x] = true
		}
	}
	assert.Len(t, seen, 100)

	train2, _ := d.Split(0.8, 1337)
	assert.Equal(t, train.Rows(), train2.Rows())
}
