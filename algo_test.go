package boostsearch

import (
	"math"
	"testing"
)

func TestMSETracker(t *testing.T) {
	samples := []*gradStats{
		(&gradStats{}).AddSample(1, 0.25),
		(&gradStats{}).AddSample(3, 0.25),
		(&gradStats{}).AddSample(5, 0.25),
	}
	total := &gradStats{}
	for _, s := range samples {
		total.Add(s)
	}

	tracker := &mseTracker{}
	tracker.Reset(total)

	qualities := []float64{-8, -2, -2, -8}
	for i := 0; i <= len(samples); i++ {
		actual := tracker.Quality()
		expected := qualities[i]
		if math.Abs(actual-expected) > 1e-5 {
			t.Errorf("split %d: expected %f but got %f", i, expected, actual)
		}
		if i < len(samples) {
			tracker.MoveToLeft(samples[i])
		}
	}
}

func TestNewtonTracker(t *testing.T) {
	samples := []*gradStats{
		(&gradStats{}).AddSample(1, 1),
		(&gradStats{}).AddSample(-2, 2),
	}
	total := (&gradStats{}).Add(samples[0]).Add(samples[1])

	tracker := &newtonTracker{l2: 1}
	tracker.Reset(total)
	baseline := tracker.Quality()
	if expected := 1.0 / 4; math.Abs(baseline-expected) > 1e-8 {
		t.Errorf("expected baseline %f but got %f", expected, baseline)
	}

	tracker.MoveToLeft(samples[0])
	gain := tracker.Quality() - baseline
	if expected := 1.0/2 + 4.0/3 - 1.0/4; math.Abs(gain-expected) > 1e-8 {
		t.Errorf("expected gain %f but got %f", expected, gain)
	}
}

func TestLeafValue(t *testing.T) {
	stats := (&gradStats{}).AddSample(3, 1).AddSample(1, 1)
	if v := NewtonAlgorithm.leafValue(stats, 1, 1); math.Abs(v-1) > 1e-8 {
		t.Errorf("newton: expected 1 but got %f", v)
	}
	if v := MSEAlgorithm.leafValue(stats, 0, 0); math.Abs(v-2) > 1e-8 {
		t.Errorf("mse: expected 2 but got %f", v)
	}
	if v := NewtonAlgorithm.leafValue(stats, 10, 0); v != 0 {
		t.Errorf("expected L1 to zero the leaf, got %f", v)
	}
}

func TestParseAlgorithm(t *testing.T) {
	for _, a := range Algorithms {
		parsed, err := ParseAlgorithm(a.String())
		if err != nil {
			t.Fatal(err)
		}
		if parsed != a {
			t.Errorf("expected %v but got %v", a, parsed)
		}
	}
	if _, err := ParseAlgorithm("sign"); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}
