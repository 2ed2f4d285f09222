package telemetry

import (
	"io"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/sbwhitecap/tqdm"
	"github.com/sbwhitecap/tqdm/iterators"
)

// A Row is one line of an extracted table.
// The label comes first.
type Row struct {
	RoundWinner  uint    `csv:"roundWinner"`
	AliveCT      int     `csv:"aliveCt"`
	AliveT       int     `csv:"aliveT"`
	MeanHealthCT decimal `csv:"meanHealthCt"`
	MeanHealthT  decimal `csv:"meanHealthT"`
	MeanValueCT  decimal `csv:"meanValueCT"`
	MeanValueT   decimal `csv:"meanValueT"`
	RoundTime    decimal `csv:"roundTime"`
	BombTime     decimal `csv:"bombTime"`
	BombDefused  flag    `csv:"bombDefused"`
}

// NewRow flattens a tick.
func NewRow(t *Tick) Row {
	g := t.GameState
	return Row{
		RoundWinner:  t.RoundWinner,
		AliveCT:      g.AliveCT,
		AliveT:       g.AliveT,
		MeanHealthCT: decimal(g.MeanHealthCT),
		MeanHealthT:  decimal(g.MeanHealthT),
		MeanValueCT:  decimal(g.MeanValueCT),
		MeanValueT:   decimal(g.MeanValueT),
		RoundTime:    decimal(g.RoundTime),
		BombTime:     decimal(g.BombTime),
		BombDefused:  flag(g.BombDefused),
	}
}

// Rows flattens every tick of a demo, dropping rows that
// repeat the previous row.
func (d *Demo) Rows() []Row {
	var res []Row
	for i := range d.Ticks {
		row := NewRow(&d.Ticks[i])
		if len(res) > 0 && res[len(res)-1] == row {
			continue
		}
		res = append(res, row)
	}
	return res
}

// Extract writes the rows of every demo as one CSV table
// and returns the number of rows written.
func Extract(paths []string, w io.Writer) (int, error) {
	rows := []Row{}
	var readErr error
	err := tqdm.With(iterators.Interval(0, len(paths)), "Extracting", func(v interface{}) (brk bool) {
		demo, err := ReadDemo(paths[v.(int)])
		if err != nil {
			readErr = err
			return true
		}
		rows = append(rows, demo.Rows()...)
		return
	})
	if readErr != nil {
		return 0, readErr
	} else if err != nil {
		return 0, err
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// decimal is written with four decimal places.
type decimal float64

func (d decimal) MarshalCSV() (string, error) {
	return strconv.FormatFloat(float64(d), 'f', 4, 64), nil
}

// flag is written as 0 or 1.
type flag bool

func (f flag) MarshalCSV() (string, error) {
	if f {
		return "1", nil
	}
	return "0", nil
}
