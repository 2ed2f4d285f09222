package boostsearch

import "github.com/unixpickle/anyvec"

func vecToFloats(vec anyvec.Vector) []float64 {
	var res []float64
	switch data := vec.Data().(type) {
	case []float64:
		res = data
	case []float32:
		for _, x := range data {
			res = append(res, float64(x))
		}
	default:
		panic("unsupported numeric type")
	}
	return res
}

// gradStats accumulates first and second order statistics
// for a group of samples.
//
// Most gradStats methods return the receiver so that
// operations can be chained more easily.
type gradStats struct {
	Grad   float64
	Hess   float64
	GradSq float64
	Count  int
}

func (g *gradStats) AddSample(grad, hess float64) *gradStats {
	g.Grad += grad
	g.Hess += hess
	g.GradSq += grad * grad
	g.Count++
	return g
}

func (g *gradStats) Add(other *gradStats) *gradStats {
	g.Grad += other.Grad
	g.Hess += other.Hess
	g.GradSq += other.GradSq
	g.Count += other.Count
	return g
}

func (g *gradStats) Sub(other *gradStats) *gradStats {
	g.Grad -= other.Grad
	g.Hess -= other.Hess
	g.GradSq -= other.GradSq
	g.Count -= other.Count
	return g
}

func (g *gradStats) Copy() *gradStats {
	res := *g
	return &res
}

// sumStats sums the statistics for the given rows.
func sumStats(grads, hess []float64, rows []int) *gradStats {
	var res gradStats
	for _, row := range rows {
		res.AddSample(grads[row], hess[row])
	}
	return &res
}
