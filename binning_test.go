package boostsearch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinMapperDistinct(t *testing.T) {
	mapper := newBinMapper([]float64{3, 1, 2, 2, math.NaN(), 1}, DefaultMaxBin)
	assert.Equal(t, []float64{1.5, 2.5}, mapper.thresholds)
	assert.Equal(t, 4, mapper.NumBins())

	assert.Equal(t, 0, mapper.Bin(1))
	assert.Equal(t, 0, mapper.Bin(-10))
	assert.Equal(t, 1, mapper.Bin(2))
	assert.Equal(t, 2, mapper.Bin(3))
	assert.Equal(t, 2, mapper.Bin(100))
	assert.Equal(t, mapper.MissingBin(), mapper.Bin(math.NaN()))
}

func TestBinMapperConstant(t *testing.T) {
	mapper := newBinMapper([]float64{4, 4, math.NaN()}, DefaultMaxBin)
	assert.Empty(t, mapper.thresholds)
	assert.Equal(t, 2, mapper.NumBins())
}

func TestBinMapperMaxBin(t *testing.T) {
	var values []float64
	for i := 0; i < 1000; i++ {
		values = append(values, float64(i))
	}
	mapper := newBinMapper(values, 11)
	require.True(t, len(mapper.thresholds) <= 9, "too many thresholds: %d",
		len(mapper.thresholds))
	require.True(t, len(mapper.thresholds) >= 5, "too few thresholds: %d",
		len(mapper.thresholds))

	counts := make([]int, mapper.NumBins())
	for _, v := range values {
		counts[mapper.Bin(v)]++
	}
	for i, c := range counts[:len(counts)-1] {
		assert.True(t, c > 0, "bin %d is empty", i)
	}

	// Every threshold must agree with Bin().
	for i, thresh := range mapper.thresholds {
		assert.Equal(t, i, mapper.Bin(thresh))
		assert.Equal(t, i+1, mapper.Bin(math.Nextafter(thresh, math.Inf(1))))
	}
}

func TestBinnedDataPartition(t *testing.T) {
	d, err := NewDataset([][]float64{
		{0, 1},
		{1, math.NaN()},
		{0, 2},
		{1, 3},
	}, []string{"x"})
	require.NoError(t, err)
	data := newBinnedData(d, DefaultMaxBin)
	left, right := data.partition([]int{0, 1, 2, 3}, 0, 0)
	assert.Equal(t, []int{0, 1}, left)
	assert.Equal(t, []int{2, 3}, right)

	hist := data.histogram(0, []int{0, 1, 2, 3}, []float64{1, 2, 3, 4}, []float64{1, 1, 1, 1})
	require.Len(t, hist, 4)
	assert.Equal(t, 1.0, hist[0].Grad)
	assert.Equal(t, 3.0, hist[1].Grad)
	assert.Equal(t, 4.0, hist[2].Grad)
	assert.Equal(t, 2.0, hist[3].Grad)
}
