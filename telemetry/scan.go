package telemetry

import (
	"fmt"

	"github.com/sbwhitecap/tqdm"
	"github.com/sbwhitecap/tqdm/iterators"
)

// Limits on plausible game state values.
const (
	MaxAlive      = 5
	MaxMeanHealth = 100
	MaxBombTime   = 42
	MaxRoundTime  = 160
	MinRoundTime  = 0
)

const (
	implausibleHigh = "high"
	implausibleLow  = "low"
)

// A Finding reports the first implausible value in a
// demo, which usually indicates a corrupt file.
type Finding struct {
	Path  string
	Tick  int
	Field string
	Value float64
	Kind  string
}

func (f *Finding) String() string {
	return fmt.Sprintf("%s: unexpectedly %s %s of %g at tick %d", f.Path, f.Kind,
		f.Field, f.Value, f.Tick)
}

// Check returns the first implausible value in the demo,
// or nil.
func (d *Demo) Check() *Finding {
	for _, t := range d.Ticks {
		g := t.GameState
		checks := []struct {
			field string
			value float64
			bad   bool
			kind  string
		}{
			{"aliveCT", float64(g.AliveCT), g.AliveCT > MaxAlive, implausibleHigh},
			{"aliveT", float64(g.AliveT), g.AliveT > MaxAlive, implausibleHigh},
			{"meanHealthCT", g.MeanHealthCT, g.MeanHealthCT > MaxMeanHealth, implausibleHigh},
			{"meanHealthT", g.MeanHealthT, g.MeanHealthT > MaxMeanHealth, implausibleHigh},
			{"bombTime", g.BombTime, g.BombTime > MaxBombTime, implausibleHigh},
			{"roundTime", g.RoundTime, g.RoundTime < MinRoundTime, implausibleLow},
			{"roundTime", g.RoundTime, g.RoundTime > MaxRoundTime, implausibleHigh},
		}
		for _, c := range checks {
			if c.bad {
				return &Finding{Tick: t.Tick, Field: c.field, Value: c.value, Kind: c.kind}
			}
		}
	}
	return nil
}

// Scan checks every demo and returns one Finding per
// suspicious file, in order.
func Scan(paths []string) ([]*Finding, error) {
	var findings []*Finding
	var readErr error
	err := tqdm.With(iterators.Interval(0, len(paths)), "Checking files", func(v interface{}) (brk bool) {
		path := paths[v.(int)]
		demo, err := ReadDemo(path)
		if err != nil {
			readErr = err
			return true
		}
		if f := demo.Check(); f != nil {
			f.Path = path
			findings = append(findings, f)
		}
		return
	})
	if readErr != nil {
		return nil, readErr
	}
	return findings, err
}
