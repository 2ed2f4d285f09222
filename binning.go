package boostsearch

import (
	"math"
	"sort"

	"golang.org/x/exp/slices"
)

// DefaultMaxBin is the default maximum number of
// histogram bins per feature, including the missing
// value bin.
const DefaultMaxBin = 255

// A binMapper discretizes the values of one feature.
//
// Value bin i holds values v with
// thresholds[i-1] < v <= thresholds[i].
// Missing values get a dedicated bin after the value
// bins.
type binMapper struct {
	thresholds []float64
}

// newBinMapper picks bin boundaries from the observed
// values, aiming for bins of roughly equal counts.
func newBinMapper(values []float64, maxBin int) *binMapper {
	var sorted []float64
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	slices.Sort(sorted)

	var distinct []float64
	var counts []int
	for _, v := range sorted {
		if len(distinct) > 0 && distinct[len(distinct)-1] == v {
			counts[len(counts)-1]++
		} else {
			distinct = append(distinct, v)
			counts = append(counts, 1)
		}
	}

	numValueBins := maxBin - 1
	if numValueBins < 1 {
		numValueBins = 1
	}

	res := &binMapper{}
	if len(distinct) <= numValueBins {
		for i := 1; i < len(distinct); i++ {
			res.thresholds = append(res.thresholds, midpoint(distinct[i-1], distinct[i]))
		}
		return res
	}

	perBin := float64(len(sorted)) / float64(numValueBins)
	var inBin int
	for i := 0; i < len(distinct)-1; i++ {
		inBin += counts[i]
		if float64(inBin) >= perBin {
			res.thresholds = append(res.thresholds, midpoint(distinct[i], distinct[i+1]))
			inBin = 0
			if len(res.thresholds) == numValueBins-1 {
				break
			}
		}
	}
	return res
}

func midpoint(a, b float64) float64 {
	mid := a + (b-a)/2
	if math.IsNaN(mid) || mid >= b {
		return a
	}
	return mid
}

// NumBins returns the number of bins, including the
// missing value bin.
func (b *binMapper) NumBins() int {
	return len(b.thresholds) + 2
}

// MissingBin returns the bin reserved for NaN.
func (b *binMapper) MissingBin() int {
	return len(b.thresholds) + 1
}

// Bin finds the bin for a raw value.
func (b *binMapper) Bin(value float64) int {
	if math.IsNaN(value) {
		return b.MissingBin()
	}
	return sort.SearchFloat64s(b.thresholds, value)
}

// Threshold returns the raw threshold that sends the
// value bins 0 through bin to the left.
func (b *binMapper) Threshold(bin int) float64 {
	return b.thresholds[bin]
}

// binnedData is a column-major, discretized copy of a
// Dataset's features.
type binnedData struct {
	mappers []*binMapper
	bins    [][]uint16
	labels  []float64
}

func newBinnedData(d *Dataset, maxBin int) *binnedData {
	if maxBin <= 1 {
		maxBin = DefaultMaxBin
	}
	res := &binnedData{
		mappers: make([]*binMapper, d.NumFeatures()),
		bins:    make([][]uint16, d.NumFeatures()),
		labels:  append([]float64{}, d.labels...),
	}
	column := make([]float64, d.Len())
	for feature := range res.mappers {
		for i := range column {
			column[i] = d.row(i)[feature]
		}
		mapper := newBinMapper(column, maxBin)
		res.mappers[feature] = mapper
		bins := make([]uint16, len(column))
		for i, v := range column {
			bins[i] = uint16(mapper.Bin(v))
		}
		res.bins[feature] = bins
	}
	return res
}

func (b *binnedData) NumFeatures() int {
	return len(b.mappers)
}

func (b *binnedData) Len() int {
	return len(b.labels)
}

// histogram accumulates gradient statistics per bin of a
// feature for the given rows.
func (b *binnedData) histogram(feature int, rows []int, grads, hess []float64) []gradStats {
	res := make([]gradStats, b.mappers[feature].NumBins())
	column := b.bins[feature]
	for _, row := range rows {
		res[column[row]].AddSample(grads[row], hess[row])
	}
	return res
}

// partition splits rows into the rows sent left and the
// rows sent right by a split at the given bin.
func (b *binnedData) partition(rows []int, feature, bin int) (left, right []int) {
	column := b.bins[feature]
	missing := uint16(b.mappers[feature].MissingBin())
	for _, row := range rows {
		v := column[row]
		if v == missing || int(v) <= bin {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}
	return
}
