package mixer

import (
	"fmt"
	"sort"
)

// DBFix is a `[DecibelFix <alsa-name>]` table (§6): a strictly monotone set
// of (step, millibel) points, linearly interpolated into a table indexed by
// step-minStep, used when hardware doesn't report trustworthy dB values of
// its own.
type DBFix struct {
	MinStep int64
	MaxStep int64

	// table[i] is the millibel value for step MinStep+i.
	table []millibel
}

// NewDBFix builds a DBFix from the raw `<step>:<dB>` points in the config
// file (§6), keyed by step. It sorts the steps itself and rejects a table
// whose dB values are not strictly increasing with step (matching the
// reference parser's validation).
func NewDBFix(points map[int64]millibel) (*DBFix, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("decibel fix needs at least 2 points, got %d", len(points))
	}
	steps := make([]int64, 0, len(points))
	for s := range points {
		steps = append(steps, s)
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i] < steps[j] })

	for i := 1; i < len(steps); i++ {
		if points[steps[i]] <= points[steps[i-1]] {
			return nil, fmt.Errorf("decibel fix values must be strictly monotone increasing with step")
		}
	}

	f := &DBFix{MinStep: steps[0], MaxStep: steps[len(steps)-1]}
	f.table = make([]millibel, f.MaxStep-f.MinStep+1)
	for i := 0; i < len(steps)-1; i++ {
		s0, s1 := steps[i], steps[i+1]
		d0, d1 := points[s0], points[s1]
		for s := s0; s <= s1; s++ {
			frac := float64(s-s0) / float64(s1-s0)
			f.table[s-f.MinStep] = d0 + millibel(frac*float64(d1-d0))
		}
	}
	return f, nil
}

// At returns the dB value (millibel) for step, clamping to the table's
// range the way the reference does for out-of-range hardware readbacks.
func (f *DBFix) At(step int64) millibel {
	if step < f.MinStep {
		step = f.MinStep
	}
	if step > f.MaxStep {
		step = f.MaxStep
	}
	return f.table[step-f.MinStep]
}

// StepNearest returns the step whose dB is closest to target, used by the
// deferred-volume "nearest selectable dB" rule.
func (f *DBFix) StepNearest(target millibel) int64 {
	best := f.MinStep
	bestDiff := absMillibel(f.table[0] - target)
	for i, db := range f.table {
		if d := absMillibel(db - target); d < bestDiff {
			bestDiff = d
			best = f.MinStep + int64(i)
		}
	}
	return best
}

func absMillibel(v millibel) millibel {
	if v < 0 {
		return -v
	}
	return v
}
