package telemetry

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/boostsearch"
)

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	demo := &Demo{Ticks: []Tick{
		{Tick: 1, RoundWinner: 1, GameState: GameState{AliveCT: 5, AliveT: 5,
			MeanHealthCT: 100, MeanHealthT: 100, RoundTime: 1.5}},
		{Tick: 2, RoundWinner: 1, GameState: GameState{AliveCT: 5, AliveT: 5,
			MeanHealthCT: 100, MeanHealthT: 100, RoundTime: 1.5}},
		{Tick: 3, RoundWinner: 1, GameState: GameState{AliveCT: 4, AliveT: 5,
			MeanHealthCT: 80, MeanHealthT: 100, MeanValueCT: 3100.25, RoundTime: 12,
			BombTime: 3, BombDefused: true}},
	}}
	path := writeDemo(t, dir, "a", demo)

	var buf bytes.Buffer
	n, err := Extract([]string{path}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	expected := "roundWinner,aliveCt,aliveT,meanHealthCt,meanHealthT,meanValueCT,meanValueT," +
		"roundTime,bombTime,bombDefused\n" +
		"1,5,5,100.0000,100.0000,0.0000,0.0000,1.5000,0.0000,0\n" +
		"1,4,5,80.0000,100.0000,3100.2500,0.0000,12.0000,3.0000,1\n"
	assert.Equal(t, expected, buf.String())

	data, err := boostsearch.ReadDataset(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, 2, data.Len())
	assert.Equal(t, 9, data.NumFeatures())
}

func TestExtractMissingFile(t *testing.T) {
	var buf bytes.Buffer
	_, err := Extract([]string{filepath.Join(t.TempDir(), "nope"+DemoExt)}, &buf)
	assert.Error(t, err)
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	good := writeDemo(t, dir, "good", &Demo{Ticks: []Tick{
		{Tick: 1, GameState: GameState{AliveCT: 5, AliveT: 5, MeanHealthCT: 100, RoundTime: 160}},
	}})
	bad := writeDemo(t, dir, "bad", &Demo{Ticks: []Tick{
		{Tick: 1, GameState: GameState{AliveCT: 5, AliveT: 5, RoundTime: 3}},
		{Tick: 7, GameState: GameState{AliveCT: 5, AliveT: 5, RoundTime: -2, BombTime: 50}},
		{Tick: 9, GameState: GameState{AliveCT: 6}},
	}})

	findings, err := Scan([]string{good, bad})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, bad, f.Path)
	assert.Equal(t, 7, f.Tick)
	assert.Equal(t, "bombTime", f.Field)
	assert.Equal(t, 50.0, f.Value)
	assert.Contains(t, f.String(), "unexpectedly high bombTime of 50 at tick 7")
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	b := writeDemo(t, dir, "b", &Demo{})
	a := writeDemo(t, dir, "a", &Demo{})
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))

	paths, err := ExpandPaths([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, paths)

	paths, err = ExpandPaths([]string{b, a})
	require.NoError(t, err)
	assert.Equal(t, []string{b, a}, paths)

	_, err = ExpandPaths([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestSplitFiles(t *testing.T) {
	var paths []string
	for i := 0; i < 10; i++ {
		paths = append(paths, string(rune('a'+i)))
	}
	train, valid := SplitFiles(paths, 0.8, 1337)
	assert.Len(t, train, 8)
	assert.Len(t, valid, 2)
	assert.ElementsMatch(t, paths, append(append([]string{}, train...), valid...))

	train2, valid2 := SplitFiles(paths, 0.8, 1337)
	assert.Equal(t, train, train2)
	assert.Equal(t, valid, valid2)
}

func writeDemo(t *testing.T, dir, name string, demo *Demo) string {
	data, err := json.Marshal(demo)
	require.NoError(t, err)
	path := filepath.Join(dir, name+DemoExt)
	require.NoError(t, ioutil.WriteFile(path, data, 0644))
	return path
}
