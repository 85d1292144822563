package io

import (
	"fmt"

	"gopkg.in/gcfg.v1"
)

const (
	ExampleConcentrationFile = `[Concentration]

#######################
# Required Parameters #
#######################

# Trajectory file containing the particle positions. Files ending in .zst are
# decompressed on the fly.
Input = run.particles
# Prefix of the output files. The concentration field of step i will be
# written to Output.i.concentration.vtk.
Output = path/to/output/run

# Size of the periodic box along each axis. The box is centered on the origin.
Lx = 32
Ly = 32

# Number of cells along each axis.
Mx = 64
My = 64

# Maximum number of trajectory records to read.
Steps = 1000

# Write a concentration file once every Sample records.
Sample = 10

#######################
# Optional Parameters #
#######################

# Only bin the first Npout particles of every record. Values which are not
# positive or which are larger than the particle count mean that every
# particle is used.
# Npout = 0

# Write BINARY instead of ASCII VTK files.
# Binary = false

# Number of threads used to bin and write fields. Records are always read in
# order by a single thread.
# Threads = 1

# Plots the concentration profile along the x-axis, averaged over y and over
# every written step, to the given image file. Requires python and matplotlib.
# ProfilePlot = profile.png

# Output files which are useful for profiling and debugging. Generally, there
# isn't a reason to use these unless something goes wrong.
# ProfileFile = prof.out
# LogFile = log.out`
)

type SharedConfig struct {
	// Required
	Input, Output string
	// Optional
	LogFile, ProfileFile string
}

func (con *SharedConfig) ValidInput() bool {
	return con.Input != ""
}
func (con *SharedConfig) ValidOutput() bool {
	return con.Output != ""
}
func (con *SharedConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *SharedConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

type ConcentrationConfig struct {
	SharedConfig

	// Required
	Lx, Ly float64
	Mx, My int
	Steps, Sample int

	// Optional
	Npout int
	Binary bool
	Threads int
	ProfilePlot string
}

type ConcentrationWrapper struct {
	Concentration ConcentrationConfig
}

func DefaultConcentrationWrapper() *ConcentrationWrapper {
	con := ConcentrationConfig{}
	con.Threads = 1
	return &ConcentrationWrapper{con}
}

// ReadConcentrationConfig reads a [Concentration] config file and checks that
// it is valid.
func ReadConcentrationConfig(fname string) (*ConcentrationConfig, error) {
	wrap := DefaultConcentrationWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	con := &wrap.Concentration
	if err := con.Check(); err != nil {
		return nil, err
	}
	return con, nil
}

// Check returns an error describing the first invalid parameter in con.
func (con *ConcentrationConfig) Check() error {
	switch {
	case !con.ValidInput():
		return fmt.Errorf("Invalid/non-existent 'Input' value.")
	case !con.ValidOutput():
		return fmt.Errorf("Invalid/non-existent 'Output' value.")
	case !con.ValidLx():
		return fmt.Errorf("'Lx' must be positive, but is %g.", con.Lx)
	case !con.ValidLy():
		return fmt.Errorf("'Ly' must be positive, but is %g.", con.Ly)
	case !con.ValidMx():
		return fmt.Errorf("'Mx' must be positive, but is %d.", con.Mx)
	case !con.ValidMy():
		return fmt.Errorf("'My' must be positive, but is %d.", con.My)
	case !con.ValidSteps():
		return fmt.Errorf("'Steps' must be non-negative, but is %d.", con.Steps)
	case !con.ValidSample():
		return fmt.Errorf("'Sample' must be positive, but is %d.", con.Sample)
	case !con.ValidThreads():
		return fmt.Errorf("'Threads' must be positive, but is %d.", con.Threads)
	}
	return nil
}

func (con *ConcentrationConfig) ValidLx() bool {
	return con.Lx > 0
}
func (con *ConcentrationConfig) ValidLy() bool {
	return con.Ly > 0
}
func (con *ConcentrationConfig) ValidMx() bool {
	return con.Mx > 0
}
func (con *ConcentrationConfig) ValidMy() bool {
	return con.My > 0
}
func (con *ConcentrationConfig) ValidSteps() bool {
	return con.Steps >= 0
}
func (con *ConcentrationConfig) ValidSample() bool {
	return con.Sample > 0
}
func (con *ConcentrationConfig) ValidThreads() bool {
	return con.Threads > 0
}
func (con *ConcentrationConfig) ValidProfilePlot() bool {
	return con.ProfilePlot != ""
}
