package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strconv"

	"github.com/phil-mansfield/concvtk"
	"github.com/phil-mansfield/concvtk/density"
	"github.com/phil-mansfield/concvtk/geom"
	"github.com/phil-mansfield/concvtk/io"
)

const usage = `Usage:
    concvtk [flags] run.particles outputname lx ly mx my nsteps sample [Npout]
    concvtk [flags] -Config concentration.cfg
    concvtk -ExampleConfig Concentration

run.particles: trajectory file. Files ending in .zst are decompressed.
outputname:    prefix of the output files, outputname.<step>.concentration.vtk
lx, ly:        size of the periodic box, which is centered on the origin.
mx, my:        number of cells along each axis.
nsteps:        maximum number of records to read.
sample:        write a concentration field once every sample records.
Npout:         only bin the first Npout particles (default: all of them).

Flags:
`

// FileGroup contains utility files for logging and writing profiles to.
type FileGroup struct {
	log, prof *os.File
}

// Close closes the files inside FileGroup.
func (fg *FileGroup) Close() {
	if fg.prof != nil {
		pprof.StopCPUProfile()
		if err := fg.prof.Close(); err != nil {
			log.Println(err.Error())
		}
		fg.prof = nil
	}

	if fg.log != nil {
		log.SetOutput(os.Stderr)
		if err := fg.log.Close(); err != nil {
			log.Println(err.Error())
		}
		fg.log = nil
	}
}

// fatal closes fg and exits after reporting an error.
func (fg *FileGroup) fatal(err error) {
	log.Println(err.Error())
	fg.Close()
	os.Exit(1)
}

func main() {
	var (
		configFile, exampleConfig string
		logFile, pprofFile, profilePlot string
		threads int
		binary bool
	)

	flag.StringVar(
		&configFile, "Config", "",
		"Configuration file for [Concentration] mode. Replaces the "+
			"positional arguments.",
	)
	flag.StringVar(
		&exampleConfig, "ExampleConfig", "",
		"Prints an example configuration file of the specified type to "+
			"stdout. The only accepted argument is 'Concentration'.",
	)
	flag.StringVar(&logFile, "Log", "",
		"Location to write log statements to. Default is stderr.")
	flag.StringVar(&pprofFile, "PProf", "",
		"Location to write a CPU profile to. Default is no profiling.")
	flag.StringVar(&profilePlot, "ProfilePlot", "",
		"Image file to plot the mean concentration profile along x to.")
	flag.IntVar(&threads, "Threads", 1,
		"Number of threads used to bin and write fields.")
	flag.BoolVar(&binary, "Binary", false,
		"Write BINARY VTK files instead of ASCII ones.")

	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if exampleConfig != "" {
		switch exampleConfig {
		case "Concentration":
			fmt.Println(io.ExampleConcentrationFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. The only " +
					"recognized argument is 'Concentration'.",
			)
		}
		return
	}

	var (
		con *io.ConcentrationConfig
		err error
	)
	if configFile != "" {
		if flag.NArg() != 0 {
			log.Fatal("Positional arguments cannot be used with -Config.")
		}
		if con, err = io.ReadConcentrationConfig(configFile); err != nil {
			log.Fatal(err.Error())
		}
	} else {
		if con, err = parseArgs(flag.Args()); err != nil {
			flag.Usage()
			log.Fatal(err.Error())
		}
	}

	// Flags given on the command line take precedence over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "Log":
			con.LogFile = logFile
		case "PProf":
			con.ProfileFile = pprofFile
		case "ProfilePlot":
			con.ProfilePlot = profilePlot
		case "Threads":
			con.Threads = threads
		case "Binary":
			con.Binary = binary
		}
	})

	if err = con.Check(); err != nil {
		log.Fatal(err.Error())
	}

	concentrationMain(con)
}

// parseArgs converts the positional arguments into a config.
func parseArgs(args []string) (*io.ConcentrationConfig, error) {
	if len(args) != 8 && len(args) != 9 {
		return nil, fmt.Errorf(
			"Expected 8 or 9 positional arguments, but got %d.", len(args),
		)
	}

	con := &io.DefaultConcentrationWrapper().Concentration
	con.Input, con.Output = args[0], args[1]

	floats := []*float64{&con.Lx, &con.Ly}
	for i, name := range []string{"lx", "ly"} {
		x, err := strconv.ParseFloat(args[2+i], 64)
		if err != nil {
			return nil, fmt.Errorf(
				"Could not parse '%s' argument, '%s'.", name, args[2+i],
			)
		}
		*floats[i] = x
	}

	ints := []*int{&con.Mx, &con.My, &con.Steps, &con.Sample, &con.Npout}
	names := []string{"mx", "my", "nsteps", "sample", "Npout"}
	for i := range args[4:] {
		n, err := strconv.Atoi(args[4+i])
		if err != nil {
			return nil, fmt.Errorf(
				"Could not parse '%s' argument, '%s'.", names[i], args[4+i],
			)
		}
		*ints[i] = n
	}

	return con, nil
}

// concentrationMain is the main function for converting trajectories.
func concentrationMain(con *io.ConcentrationConfig) {
	fg, err := setupIO(con)
	if err != nil {
		log.Fatal(err.Error())
	}
	defer fg.Close()

	rd, f, err := io.OpenTrajectory(con.Input)
	if err != nil {
		fg.fatal(err)
	}
	defer f.Close()
	log.Println(rd.Header())

	g, err := geom.NewGrid(con.Lx, con.Ly, con.Mx, con.My)
	if err != nil {
		fg.fatal(err)
	}

	man, err := concvtk.NewManager(rd, g, &concvtk.Config{
		Output:  con.Output,
		Sampler: concvtk.NewSampler(con.Sample, con.Steps),
		Npout:   con.Npout,
		Binary:  con.Binary,
		Threads: con.Threads,
	})
	if err != nil {
		fg.fatal(err)
	}
	man.Log(true)

	log.Printf("Outputting first %d particles only", man.Particles())
	log.Printf(
		"Grid: %d x %d cells of size %g x %g. Mean concentration: %g",
		g.Mx, g.My, g.Dx, g.Dy,
		float64(man.Particles())/(g.Lx*g.Ly),
	)

	sum, err := man.Run()
	if err != nil {
		fg.fatal(err)
	}

	log.Printf("Read %d records and wrote %d files.", sum.Read, sum.Written)
	if sum.Profile.Steps() > 0 {
		_, cs := sum.Profile.Values()
		log.Printf("Measured mean concentration: %g", density.Mean(cs))
	}

	if con.ValidProfilePlot() {
		if sum.Profile.Steps() == 0 {
			log.Println("No fields were written, skipping profile plot.")
		} else {
			log.Printf("Plotting profile to %s", con.ProfilePlot)
			plotProfile(con.ProfilePlot, sum.Profile, man.Particles(), g)
		}
	}
}

// setupIO sets up the log and CPU profile files requested by con. The
// returned FileGroup must be closed.
func setupIO(con *io.ConcentrationConfig) (*FileGroup, error) {
	var err error
	fg := new(FileGroup)

	if con.ValidLogFile() {
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			return nil, err
		}
		log.SetOutput(fg.log)
	}

	if con.ValidProfileFile() {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			fg.Close()
			return nil, err
		}
		if err = pprof.StartCPUProfile(fg.prof); err != nil {
			fg.prof.Close()
			fg.prof = nil
			fg.Close()
			return nil, err
		}
	}

	return fg, nil
}
