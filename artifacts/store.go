// Package artifacts persists the models and metric tables
// produced by a study.
package artifacts

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/unixpickle/boostsearch"
	"github.com/unixpickle/boostsearch/search"
	"github.com/unixpickle/essentials"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ErrDuplicateArtifact is returned when an artifact would
// overwrite an existing one.
var ErrDuplicateArtifact = errors.New("artifact already exists")

const (
	modelDir   = "models"
	trialDir   = "trials"
	studyDir   = "studies"
	summaryCSV = "study.csv"

	// DefaultBestPath is where Promote copies models if
	// BestPath is empty.
	DefaultBestPath = "LightGBM_model.txt"
)

// A Store saves trial artifacts under a directory.
//
// Models and metric tables are write-once: saving the same
// index twice fails and leaves the first artifact intact.
type Store struct {
	Dir string

	// BestPath is the destination of Promote.
	// If empty, DefaultBestPath inside Dir is used.
	BestPath string
}

// ModelPath returns the path of a trial's model.
func (s *Store) ModelPath(index int) string {
	return filepath.Join(s.Dir, modelDir, fmt.Sprintf("model_%03d.txt", index))
}

// TrialPath returns the path of a trial's metric table.
func (s *Store) TrialPath(index int) string {
	return filepath.Join(s.Dir, trialDir, fmt.Sprintf("trial_%03d.csv", index))
}

// SummaryPath returns the path of the study summary.
func (s *Store) SummaryPath() string {
	return filepath.Join(s.Dir, summaryCSV)
}

func (s *Store) bestPath() string {
	if s.BestPath == "" {
		return filepath.Join(s.Dir, DefaultBestPath)
	}
	return s.BestPath
}

// Save writes the model (if non-nil) and the per-round
// metric table of a trial.
func (s *Store) Save(index int, model *boostsearch.Model, history []boostsearch.Evaluation) error {
	paths := []string{s.TrialPath(index)}
	if model != nil {
		paths = append(paths, s.ModelPath(index))
	}
	if err := checkVacant(paths); err != nil {
		return err
	}
	for _, p := range paths {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return essentials.AddCtx("save artifacts", err)
		}
	}

	if model != nil {
		if err := writeOnce(s.ModelPath(index), model.WriteLightGBM); err != nil {
			return err
		}
	}
	rows := history
	if rows == nil {
		rows = []boostsearch.Evaluation{}
	}
	return writeOnce(s.TrialPath(index), func(w io.Writer) error {
		return gocsv.Marshal(&rows, w)
	})
}

// Vacant returns an error wrapping ErrDuplicateArtifact if
// a model or metric table already exists for the index.
func (s *Store) Vacant(index int) error {
	return checkVacant([]string{s.TrialPath(index), s.ModelPath(index)})
}

func checkVacant(paths []string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return errors.Wrap(ErrDuplicateArtifact, p)
		} else if !os.IsNotExist(err) {
			return essentials.AddCtx("save artifacts", err)
		}
	}
	return nil
}

// Record saves the artifacts of a finished trial.
func (s *Store) Record(trial *search.Trial) error {
	return s.Save(trial.Number, trial.Model, trial.History)
}

// Promote copies the model of a trial to the best-model
// path, replacing any earlier promotion atomically.
func (s *Store) Promote(index int) (err error) {
	defer essentials.AddCtxTo("promote model", &err)

	src, err := os.Open(s.ModelPath(index))
	if err != nil {
		return err
	}
	defer src.Close()

	dest := s.bestPath()
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".promote-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

// Clear removes every model, metric table, the summary and
// the promoted model.
// Archived summaries are kept.
func (s *Store) Clear() error {
	for _, p := range []string{
		filepath.Join(s.Dir, modelDir),
		filepath.Join(s.Dir, trialDir),
		s.SummaryPath(),
		s.bestPath(),
	} {
		if err := os.RemoveAll(p); err != nil {
			return essentials.AddCtx("clear artifacts", err)
		}
	}
	return nil
}

// WriteSummary writes one row per trial to the summary
// file and to a timestamped copy under the archive
// directory.
func (s *Store) WriteSummary(trials []*search.Trial) error {
	archive := filepath.Join(s.Dir, studyDir,
		fmt.Sprintf("study_%s.csv", time.Now().Format("20060102-150405")))
	for _, p := range []string{s.SummaryPath(), archive} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return essentials.AddCtx("write summary", err)
		}
		if err := writeFile(p, func(w io.Writer) error {
			return writeSummary(w, trials)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(w io.Writer, trials []*search.Trial) error {
	names := map[string]bool{}
	for _, t := range trials {
		for name := range t.Params {
			names[name] = true
		}
	}
	paramNames := maps.Keys(names)
	slices.Sort(paramNames)

	writer := csv.NewWriter(w)
	header := []string{"number", "state", "value", "best_round", "duration"}
	for _, name := range paramNames {
		header = append(header, "params_"+name)
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, t := range trials {
		row := []string{
			strconv.Itoa(t.Number),
			t.State.String(),
			formatValue(t.Value),
			strconv.Itoa(t.BestRound),
			strconv.FormatFloat(t.Duration.Seconds(), 'f', 3, 64),
		}
		for _, name := range paramNames {
			if v, ok := t.Params[name]; ok {
				row = append(row, formatValue(v))
			} else {
				row = append(row, "")
			}
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatValue(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func writeOnce(path string, f func(w io.Writer) error) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if os.IsExist(err) {
		return errors.Wrap(ErrDuplicateArtifact, path)
	} else if err != nil {
		return essentials.AddCtx("write artifact", err)
	}
	return finishFile(path, file, f)
}

func writeFile(path string, f func(w io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return essentials.AddCtx("write artifact", err)
	}
	return finishFile(path, file, f)
}

func finishFile(path string, file *os.File, f func(w io.Writer) error) error {
	if err := f(file); err != nil {
		file.Close()
		os.Remove(path)
		return errors.Wrap(err, path)
	}
	return errors.Wrap(file.Close(), path)
}
