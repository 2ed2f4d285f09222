package boostsearch

// A Model is a boosted ensemble of regression trees.
//
// The raw score of a sample is BaseScore plus the sum of
// every tree's output. The raw score is a log-odds value;
// Predict maps it to a probability.
type Model struct {
	BaseScore    float64
	Trees        []*Tree
	Config       Config
	FeatureNames []string
}

// NewModel creates an empty model.
func NewModel(base float64, cfg Config, featureNames []string) *Model {
	return &Model{
		BaseScore:    base,
		Config:       cfg,
		FeatureNames: append([]string{}, featureNames...),
	}
}

// Add adds a tree to the model.
func (m *Model) Add(t *Tree) {
	m.Trees = append(m.Trees, t)
}

// Truncate removes the newest trees so that the model
// only contains the first n trees.
func (m *Model) Truncate(n int) {
	if n >= len(m.Trees) {
		return
	}
	m.Trees = append([]*Tree{}, m.Trees[:n]...)
}

// NumRounds returns the number of trees.
func (m *Model) NumRounds() int {
	return len(m.Trees)
}

// Score computes the raw log-odds for a feature vector.
func (m *Model) Score(features []float64) float64 {
	res := m.BaseScore
	for _, tree := range m.Trees {
		res += tree.Find(features)
	}
	return res
}

// Predict computes the probability that the label of a
// feature vector is 1.
func (m *Model) Predict(features []float64) float64 {
	return sigmoid(m.Score(features))
}
