package boostsearch

import (
	"math"
	"runtime"
	"sync"
)

// A Builder grows a single regression tree on the
// gradients of a boosting round.
//
// Trees are grown leaf-wise: the leaf whose best split
// has the largest gain is split next, until the tree has
// Config.NumLeaves leaves or no leaf can be split.
type Builder struct {
	Config    Config
	Algorithm Algorithm
}

// buildLeaf tracks a leaf during growth.
type buildLeaf struct {
	node  *Tree
	rows  []int
	stats *gradStats
	depth int
	split *splitInfo
}

// Build builds a tree for the given rows, only splitting
// on the allowed features.
//
// The grads and hess slices are indexed by row.
// The resulting leaf values are scaled by the learning
// rate.
func (b *Builder) Build(data *binnedData, rows, features []int, grads, hess []float64) *Tree {
	if len(rows) == 0 {
		panic("cannot build tree with no data")
	}
	root := b.newLeaf(rows, sumStats(grads, hess, rows), 0)
	b.findSplit(data, root, features, grads, hess)

	leaves := []*buildLeaf{root}
	for len(leaves) < b.Config.NumLeaves {
		bestIdx := -1
		for i, leaf := range leaves {
			if leaf.split == nil {
				continue
			}
			if bestIdx < 0 || leaf.split.Gain > leaves[bestIdx].split.Gain {
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}

		leaf := leaves[bestIdx]
		split := leaf.split
		leftRows, rightRows := data.partition(leaf.rows, split.Feature, split.Bin)
		left := b.newLeaf(leftRows, split.Left.Copy(), leaf.depth+1)
		right := b.newLeaf(rightRows, split.Right.Copy(), leaf.depth+1)

		node := leaf.node
		node.Leaf = false
		node.Feature = split.Feature
		node.Threshold = split.Threshold
		node.Gain = split.Gain
		node.Left = left.node
		node.Right = right.node

		b.findSplit(data, left, features, grads, hess)
		b.findSplit(data, right, features, grads, hess)

		leaves[bestIdx] = left
		leaves = append(leaves, right)
	}

	return root.node
}

func (b *Builder) newLeaf(rows []int, stats *gradStats, depth int) *buildLeaf {
	value := b.Algorithm.leafValue(stats, b.Config.LambdaL1, b.Config.LambdaL2)
	return &buildLeaf{
		node: &Tree{
			Leaf:  true,
			Value: value * b.Config.LearningRate,
			Count: stats.Count,
		},
		rows:  rows,
		stats: stats,
		depth: depth,
	}
}

// findSplit sets leaf.split to the best split over all of
// the features, or to nil if the leaf cannot be split.
func (b *Builder) findSplit(data *binnedData, leaf *buildLeaf, features []int,
	grads, hess []float64) {
	leaf.split = nil
	if b.Config.MaxDepth > 0 && leaf.depth >= b.Config.MaxDepth {
		return
	}
	if len(leaf.rows) < 2*b.minChildSamples() {
		return
	}

	featureChan := make(chan int, len(features))
	for _, feature := range features {
		featureChan <- feature
	}
	close(featureChan)

	splitChan := make(chan *splitInfo, len(features))

	var wg sync.WaitGroup
	for i := 0; i < runtime.GOMAXPROCS(0); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for feature := range featureChan {
				splitChan <- b.optimalSplit(data, leaf, feature, grads, hess)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(splitChan)
	}()

	for split := range splitChan {
		leaf.split = betterSplit(leaf.split, split)
	}
}

// optimalSplit finds the optimal split for the given
// feature and leaf.
// It returns nil if no split is effective.
func (b *Builder) optimalSplit(data *binnedData, leaf *buildLeaf, feature int,
	grads, hess []float64) *splitInfo {
	mapper := data.mappers[feature]
	numThresholds := mapper.NumBins() - 2
	if numThresholds == 0 {
		return nil
	}
	hist := data.histogram(feature, leaf.rows, grads, hess)

	tracker := b.Algorithm.splitTracker(b.Config.LambdaL1, b.Config.LambdaL2)
	tracker.Reset(leaf.stats)
	baseline := tracker.Quality()

	// Missing values always go left.
	tracker.MoveToLeft(&hist[mapper.MissingBin()])

	minCount := b.minChildSamples()
	var bestSplit *splitInfo
	for bin := 0; bin < numThresholds; bin++ {
		tracker.MoveToLeft(&hist[bin])
		left, right := tracker.Left(), tracker.Right()
		if left.Count < minCount || right.Count < minCount {
			continue
		}
		if b.Algorithm.weight(left) < b.Config.MinSumHessianInLeaf ||
			b.Algorithm.weight(right) < b.Config.MinSumHessianInLeaf {
			continue
		}
		gain := tracker.Quality() - baseline
		if math.IsNaN(gain) || gain <= 0 {
			continue
		}
		if bestSplit == nil || gain > bestSplit.Gain {
			bestSplit = &splitInfo{
				Feature:   feature,
				Bin:       bin,
				Threshold: mapper.Threshold(bin),
				Gain:      gain,
				Left:      *left,
				Right:     *right,
			}
		}
	}

	return bestSplit
}

func (b *Builder) minChildSamples() int {
	if b.Config.MinChildSamples < 1 {
		return 1
	}
	return b.Config.MinChildSamples
}

// splitInfo stores information about a feature split.
//
// During training, many potential splitInfos are produced
// and the best ones are selected.
type splitInfo struct {
	Feature   int
	Bin       int
	Threshold float64
	Gain      float64

	Left  gradStats
	Right gradStats
}

// betterSplit selects the better of two splits.
// If a split is nil, the other split is chosen.
// Ties go to the lower feature index, so the result does
// not depend on the order splits are found in.
func betterSplit(s1, s2 *splitInfo) *splitInfo {
	if s1 == nil {
		return s2
	} else if s2 == nil {
		return s1
	} else if s1.Gain > s2.Gain {
		return s1
	} else if s2.Gain > s1.Gain {
		return s2
	} else if s1.Feature < s2.Feature {
		return s1
	} else {
		return s2
	}
}
