/*package concvtk converts particle trajectories into sequences of 2D
concentration fields which are written as VTK rectilinear grids.
*/
package concvtk

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	stdio "io"

	"github.com/phil-mansfield/concvtk/density"
	"github.com/phil-mansfield/concvtk/geom"
	"github.com/phil-mansfield/concvtk/io"
)

// Config describes how a Manager turns trajectory records into files.
type Config struct {
	Output  string // Prefix of every output file.
	Sampler Sampler
	Npout   int  // Number of leading particles to bin. See ParticleCount.
	Binary  bool // Write BINARY VTK files instead of ASCII ones.
	Threads int  // Number of workers which bin and write fields.
}

// Summary describes a completed run.
type Summary struct {
	Read, Written int
	Files         []string // Written files, in step order.
	Profile       *Profile
}

// Manager reads records from a trajectory and hands the selected ones off
// to a pool of workers. Records are always read in order by a single
// goroutine. Each worker owns its concentration buffer.
type Manager struct {
	rd  *io.TrajectoryReader
	g   *geom.Grid
	con Config
	np  int

	log        bool
	workspaces []workspace
}

type workspace struct {
	bin     *density.Binner
	buf     []float64
	profile *Profile
	files   map[int]string
	failed  bool
}

// job is a record which has been read and is waiting to be written.
type job struct {
	snap *io.Snapshot
}

// NewManager creates a Manager which reads from rd and bins onto g.
func NewManager(
	rd *io.TrajectoryReader, g *geom.Grid, con *Config,
) (*Manager, error) {
	if err := con.Sampler.Check(); err != nil {
		return nil, err
	} else if con.Threads <= 0 {
		return nil, fmt.Errorf(
			"Thread count must be positive, but is %d.", con.Threads,
		)
	} else if con.Output == "" {
		return nil, fmt.Errorf("No output prefix was given.")
	}

	man := &Manager{rd: rd, g: g, con: *con}
	man.np = ParticleCount(rd.Particles(), con.Npout)

	man.workspaces = make([]workspace, con.Threads)
	for i := range man.workspaces {
		man.workspaces[i] = workspace{
			bin:     density.NewBinner(g),
			buf:     make([]float64, g.Area),
			profile: NewProfile(g),
			files:   make(map[int]string),
		}
	}

	return man, nil
}

// Log turns progress logging on or off.
func (man *Manager) Log(flag bool) { man.log = flag }

// Particles returns the number of particles binned from every record.
func (man *Manager) Particles() int { return man.np }

// Run reads records until the Sampler's step limit or the end of the
// trajectory is reached. The first error from reading or writing is returned
// after all in-flight fields have been handled. Files which were written
// before an error are left in place.
func (man *Manager) Run() (*Summary, error) {
	workers := len(man.workspaces)

	jobs := make(chan job)
	// Every worker holds at most one snapshot, and the reader holds one more.
	free := make(chan *io.Snapshot, workers+1)
	for i := 0; i < workers+1; i++ {
		free <- &io.Snapshot{}
	}
	errs := make(chan error, workers)

	wg := &sync.WaitGroup{}
	wg.Add(workers)
	for id := 0; id < workers; id++ {
		go man.work(id, jobs, free, errs, wg)
	}

	sum := &Summary{}
	err := man.read(jobs, free, errs, sum)

	close(jobs)
	wg.Wait()
	close(errs)

	if err == stdio.EOF {
		err = nil
	}
	if err == nil {
		err = <-errs
	}

	man.summarize(sum)
	return sum, err
}

// read is the reading loop of Run. It returns io.EOF if the trajectory ended.
func (man *Manager) read(
	jobs chan<- job, free chan *io.Snapshot,
	errs <-chan error, sum *Summary,
) error {
	for step := 0; !man.con.Sampler.Done(step); step++ {
		snap := <-free
		if err := man.rd.Read(snap); err != nil {
			free <- snap
			return err
		}
		sum.Read++

		if man.log {
			log.Printf("Time t=%g step=%d", snap.Time, snap.Step)
		}

		if !man.con.Sampler.Selected(snap.Step) {
			free <- snap
			continue
		}

		select {
		case err := <-errs:
			free <- snap
			return err
		case jobs <- job{snap}:
		}
	}
	return nil
}

// work bins and writes every job it receives. After the first failure, the
// worker reports the error and only recycles the snapshots it is handed.
func (man *Manager) work(
	id int, jobs <-chan job, free chan<- *io.Snapshot,
	errs chan<- error, wg *sync.WaitGroup,
) {
	defer wg.Done()
	w := &man.workspaces[id]

	for j := range jobs {
		if !w.failed {
			if err := man.write(w, j.snap); err != nil {
				w.failed = true
				errs <- err
			}
		}
		free <- j.snap
	}
}

// write computes the concentration field of a single snapshot and writes it
// to disk.
func (man *Manager) write(w *workspace, snap *io.Snapshot) error {
	w.buf = w.bin.Bin(snap.Xs, man.np, w.buf)

	fname := io.OutputName(man.con.Output, snap.Step)
	if man.log {
		log.Printf("Writing %s", filepath.Base(fname))
	}

	m := io.ConcentrationMesh(man.g, w.buf, man.con.Binary)
	if err := io.WriteMeshFile(fname, m); err != nil {
		return err
	}

	w.profile.Add(w.buf)
	w.files[snap.Step] = fname
	return nil
}

// summarize merges the per-worker results into sum.
func (man *Manager) summarize(sum *Summary) {
	sum.Profile = NewProfile(man.g)
	files := map[int]string{}
	for i := range man.workspaces {
		w := &man.workspaces[i]
		sum.Profile.Merge(w.profile)
		for step, fname := range w.files {
			files[step] = fname
		}
	}

	sum.Written = len(files)
	for step := 0; step < sum.Read; step++ {
		if fname, ok := files[step]; ok {
			sum.Files = append(sum.Files, fname)
		}
	}
}
