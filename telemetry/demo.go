// Package telemetry turns tagged match demos into labeled
// training tables.
package telemetry

import (
	"encoding/json"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
)

// DemoExt is the extension of tagged demo files.
const DemoExt = ".tagged.json"

// A Demo is a parsed tagged demo.
type Demo struct {
	Ticks []Tick `json:"ticks"`
}

// A Tick is a snapshot of a round.
type Tick struct {
	Tick        int       `json:"tick"`
	GameState   GameState `json:"gameState"`
	RoundWinner uint      `json:"roundWinner"`
}

// GameState is the part of a tick used as model input.
type GameState struct {
	AliveCT      int     `json:"aliveCT"`
	AliveT       int     `json:"aliveT"`
	MeanHealthCT float64 `json:"meanHealthCT"`
	MeanHealthT  float64 `json:"meanHealthT"`
	MeanValueCT  float64 `json:"meanValueCT"`
	MeanValueT   float64 `json:"meanValueT"`
	RoundTime    float64 `json:"roundTime"`
	BombTime     float64 `json:"bombTime"`
	BombDefused  bool    `json:"bombDefused"`
}

// ReadDemo decodes a tagged demo file.
func ReadDemo(path string) (demo *Demo, err error) {
	defer essentials.AddCtxTo("read demo", &err)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	demo = &Demo{}
	if err := json.NewDecoder(f).Decode(demo); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return demo, nil
}

// ExpandPaths replaces a single directory argument with
// the sorted demo files inside it.
// Other arguments are returned unchanged.
func ExpandPaths(args []string) ([]string, error) {
	if len(args) != 1 {
		return args, nil
	}
	info, err := os.Stat(args[0])
	if err != nil {
		return nil, essentials.AddCtx("expand paths", err)
	}
	if !info.IsDir() {
		return args, nil
	}
	matches, err := filepath.Glob(filepath.Join(args[0], "*"+DemoExt))
	if err != nil {
		return nil, essentials.AddCtx("expand paths", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// SplitFiles randomly partitions demo files into training
// and validation sets, so that no match contributes rows
// to both.
// The training set receives floor(frac*len(paths)) files.
func SplitFiles(paths []string, frac float64, seed int64) (train, valid []string) {
	perm := rand.New(rand.NewSource(seed)).Perm(len(paths))
	count := int(math.Floor(frac * float64(len(paths))))
	for i, j := range perm {
		if i < count {
			train = append(train, paths[j])
		} else {
			valid = append(valid, paths[j])
		}
	}
	return
}
