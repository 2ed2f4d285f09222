package boostsearch

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
)

// decisionType marks a numerical split whose missing
// values are NaN and go to the left child.
const decisionType = 10

// WriteLightGBM encodes the model in LightGBM's text model
// format, which LightGBM itself and compatible libraries
// can load for prediction.
//
// The base score is folded into the first tree, so the
// encoded trees sum to the raw score.
func (m *Model) WriteLightGBM(w io.Writer) error {
	trees := m.Trees
	if len(trees) == 0 {
		trees = []*Tree{{Leaf: true}}
	}

	var treeStrs []string
	for i, tree := range trees {
		if i == 0 {
			tree = tree.Copy()
			tree.Shift(m.BaseScore)
		}
		treeStrs = append(treeStrs, encodeTree(i, tree))
	}

	var treeSizes []string
	for _, s := range treeStrs {
		treeSizes = append(treeSizes, strconv.Itoa(len(s)))
	}

	names := make([]string, len(m.FeatureNames))
	infos := make([]string, len(m.FeatureNames))
	for i, name := range m.FeatureNames {
		names[i] = strings.Join(strings.Fields(name), "_")
		infos[i] = "none"
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "tree")
	fmt.Fprintln(bw, "version=v2")
	fmt.Fprintln(bw, "num_class=1")
	fmt.Fprintln(bw, "num_tree_per_iteration=1")
	fmt.Fprintln(bw, "label_index=0")
	fmt.Fprintf(bw, "max_feature_idx=%d\n", len(m.FeatureNames)-1)
	fmt.Fprintln(bw, "objective=binary sigmoid:1")
	fmt.Fprintf(bw, "feature_names=%s\n", strings.Join(names, " "))
	fmt.Fprintf(bw, "feature_infos=%s\n", strings.Join(infos, " "))
	fmt.Fprintf(bw, "tree_sizes=%s\n", strings.Join(treeSizes, " "))
	fmt.Fprintln(bw)
	for _, s := range treeStrs {
		bw.WriteString(s)
	}
	fmt.Fprintln(bw, "end of trees")
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "feature_importances:")
	for _, imp := range m.splitCounts() {
		fmt.Fprintf(bw, "%s=%d\n", names[imp.feature], imp.count)
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "parameters:")
	fmt.Fprintln(bw, "[boosting: gbdt]")
	fmt.Fprintln(bw, "[objective: binary]")
	params := m.Config.Params()
	for _, name := range sortedKeys(params) {
		fmt.Fprintf(bw, "[%s: %s]\n", name, formatFloat(params[name]))
	}
	fmt.Fprintf(bw, "[seed: %d]\n", m.Config.Seed)
	fmt.Fprintln(bw, "end of parameters")

	return errors.Wrap(bw.Flush(), "write lightgbm model")
}

// SaveLightGBM writes the model to a file in LightGBM's
// text model format.
func (m *Model) SaveLightGBM(path string) (err error) {
	defer essentials.AddCtxTo("save lightgbm model", &err)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.WriteLightGBM(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type featureImportance struct {
	feature int
	count   int
}

// splitCounts counts the splits on every used feature,
// most used first.
func (m *Model) splitCounts() []featureImportance {
	counts := make([]int, len(m.FeatureNames))
	var visit func(t *Tree)
	visit = func(t *Tree) {
		if t.Leaf {
			return
		}
		counts[t.Feature]++
		visit(t.Left)
		visit(t.Right)
	}
	for _, t := range m.Trees {
		visit(t)
	}
	var res []featureImportance
	for i, c := range counts {
		if c > 0 {
			res = append(res, featureImportance{feature: i, count: c})
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].count > res[j].count
	})
	return res
}

// flatTree stores a tree in LightGBM's array layout.
//
// Internal nodes and leaves are numbered separately, in
// depth-first order; child references to leaves are
// encoded as ^leafIndex.
type flatTree struct {
	splitFeature  []string
	splitGain     []string
	threshold     []string
	decisionType  []string
	leftChild     []string
	rightChild    []string
	internalValue []string
	internalCount []string
	leafValue     []string
	leafCount     []string
}

func (f *flatTree) add(t *Tree) int {
	if t.Leaf {
		idx := len(f.leafValue)
		f.leafValue = append(f.leafValue, formatFloat(t.Value))
		f.leafCount = append(f.leafCount, strconv.Itoa(t.Count))
		return ^idx
	}
	idx := len(f.splitFeature)
	f.splitFeature = append(f.splitFeature, strconv.Itoa(t.Feature))
	f.splitGain = append(f.splitGain, formatFloat(t.Gain))
	f.threshold = append(f.threshold, formatFloat(t.Threshold))
	f.decisionType = append(f.decisionType, strconv.Itoa(decisionType))
	f.internalValue = append(f.internalValue, formatFloat(t.Value))
	f.internalCount = append(f.internalCount, strconv.Itoa(t.Count))
	f.leftChild = append(f.leftChild, "")
	f.rightChild = append(f.rightChild, "")
	f.leftChild[idx] = strconv.Itoa(f.add(t.Left))
	f.rightChild[idx] = strconv.Itoa(f.add(t.Right))
	return idx
}

func encodeTree(index int, t *Tree) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Tree=%d\n", index)
	if t.Leaf {
		fmt.Fprintln(&buf, "num_leaves=1")
		fmt.Fprintln(&buf, "num_cat=0")
		fmt.Fprintf(&buf, "leaf_value=%s\n", formatFloat(t.Value))
		fmt.Fprintln(&buf, "shrinkage=1")
		fmt.Fprint(&buf, "\n\n")
		return buf.String()
	}

	var flat flatTree
	flat.add(t)
	fields := []struct {
		name   string
		values []string
	}{
		{"split_feature", flat.splitFeature},
		{"split_gain", flat.splitGain},
		{"threshold", flat.threshold},
		{"decision_type", flat.decisionType},
		{"left_child", flat.leftChild},
		{"right_child", flat.rightChild},
		{"leaf_value", flat.leafValue},
		{"leaf_count", flat.leafCount},
		{"internal_value", flat.internalValue},
		{"internal_count", flat.internalCount},
	}
	fmt.Fprintf(&buf, "num_leaves=%d\n", len(flat.leafValue))
	fmt.Fprintln(&buf, "num_cat=0")
	for _, field := range fields {
		fmt.Fprintf(&buf, "%s=%s\n", field.name, strings.Join(field.values, " "))
	}
	fmt.Fprintln(&buf, "shrinkage=1")
	fmt.Fprint(&buf, "\n\n")
	return buf.String()
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
