package concvtk

import (
	"fmt"
)

// DefaultSkip is the default number of leading records which are never
// written. -1 means that no records are skipped.
const DefaultSkip = -1

// Sampler decides which trajectory records are turned into concentration
// fields. Records are identified by their index in the file, not by their
// simulation time.
type Sampler struct {
	Skip   int // Records with indices <= Skip are never selected.
	Sample int // Stride between selected records.
	Steps  int // Maximum number of records to read.
}

// NewSampler returns a Sampler which selects every sample-th record out of
// the first steps records.
func NewSampler(sample, steps int) Sampler {
	return Sampler{Skip: DefaultSkip, Sample: sample, Steps: steps}
}

// Check returns an error if the Sampler cannot be used.
func (s Sampler) Check() error {
	if s.Sample <= 0 {
		return fmt.Errorf("Sampling stride must be positive, but is %d.", s.Sample)
	} else if s.Steps < 0 {
		return fmt.Errorf("Step count must be non-negative, but is %d.", s.Steps)
	}
	return nil
}

// Selected returns true if a field should be written for the given record.
func (s Sampler) Selected(step int) bool {
	return step > s.Skip && step%s.Sample == 0
}

// Done returns true if the given record should not be read.
func (s Sampler) Done(step int) bool {
	return step >= s.Steps
}

// ParticleCount returns the number of particles which are binned in each
// record: npout if it is in the range (0, np] and np otherwise.
func ParticleCount(np, npout int) int {
	if npout > 0 && npout <= np {
		return npout
	}
	return np
}
