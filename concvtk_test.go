package concvtk

import (
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/concvtk/density"
	"github.com/phil-mansfield/concvtk/geom"
	"github.com/phil-mansfield/concvtk/io"
)

// cellCenters are the centers of the four cells of a 2x2 grid over a 2x2 box.
var cellCenters = [][3]float64{
	{-0.5, -0.5, 0}, {0.5, -0.5, 0}, {-0.5, 0.5, 0}, {0.5, 0.5, 0},
}

// trajectory returns the text of a trajectory with the given records. Record
// i is shifted by i periodic images along x so that wrapping is exercised.
func trajectory(records int, xs [][3]float64) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "#NUMBER PARTICLES %d\n", len(xs))
	for i := 0; i < records; i++ {
		fmt.Fprintf(sb, "%g\n", 0.5*float64(i))
		for _, x := range xs {
			fmt.Fprintf(sb, "%g %g %g\n", x[0]+2*float64(i), x[1], x[2])
		}
	}
	return sb.String()
}

func newTestManager(
	t *testing.T, text string, con *Config,
) (*Manager, *geom.Grid) {
	rd, err := io.NewTrajectoryReader(strings.NewReader(text))
	require.NoError(t, err)
	g, err := geom.NewGrid(2, 2, 2, 2)
	require.NoError(t, err)
	man, err := NewManager(rd, g, con)
	require.NoError(t, err)
	return man, g
}

func TestRunSelection(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "run")

	con := &Config{Output: prefix, Sampler: NewSampler(3, 100), Threads: 1}
	man, _ := newTestManager(t, trajectory(10, cellCenters), con)

	sum, err := man.Run()
	require.NoError(t, err)
	assert.Equal(t, 10, sum.Read)
	assert.Equal(t, 4, sum.Written)

	expFiles := []string{}
	for _, step := range []int{0, 3, 6, 9} {
		expFiles = append(expFiles, io.OutputName(prefix, step))
	}
	assert.Equal(t, expFiles, sum.Files)

	infos, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, infos, 4)

	for _, fname := range sum.Files {
		text, err := ioutil.ReadFile(fname)
		require.NoError(t, err)
		assert.Contains(t, string(text), "DIMENSIONS 3 3 1\n")
		assert.Contains(t, string(text), "CELL_DATA 4\n")
		assert.Contains(t, string(text), "SCALARS concentration float\n")
	}
}

func TestRunOnePerCell(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "run")
	con := &Config{Output: prefix, Sampler: NewSampler(1, 1), Threads: 1}
	man, g := newTestManager(t, trajectory(3, cellCenters), con)

	sum, err := man.Run()
	require.NoError(t, err)
	require.Equal(t, 1, sum.Read)
	require.Len(t, sum.Files, 1)

	field := density.Concentration(g, cellCenters, 4)
	assert.Equal(t, []float64{1, 1, 1, 1}, field)

	exp := &bytes.Buffer{}
	require.NoError(t, io.WriteRectilinearMesh(
		exp, io.ConcentrationMesh(g, field, false),
	))
	text, err := ioutil.ReadFile(sum.Files[0])
	require.NoError(t, err)
	assert.Equal(t, exp.String(), string(text))

	xs, cs := sum.Profile.Values()
	assert.Equal(t, []float64{-0.5, 0.5}, xs)
	assert.Equal(t, []float64{1, 1}, cs)
	assert.Equal(t, 1, sum.Profile.Steps())
}

func TestRunStepLimit(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "run")
	con := &Config{Output: prefix, Sampler: NewSampler(2, 5), Threads: 2}
	man, _ := newTestManager(t, trajectory(7, cellCenters), con)

	sum, err := man.Run()
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Read)
	assert.Equal(t, []string{
		io.OutputName(prefix, 0),
		io.OutputName(prefix, 2),
		io.OutputName(prefix, 4),
	}, sum.Files)

	con.Sampler.Steps = 0
	man, _ = newTestManager(t, trajectory(7, cellCenters), con)
	sum, err = man.Run()
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Read)
	assert.Equal(t, 0, sum.Written)
}

func TestRunNpout(t *testing.T) {
	table := []struct {
		npout int
		exp   []float64
	}{
		{0, []float64{1, 1, 1, 1}},
		{-3, []float64{1, 1, 1, 1}},
		{5, []float64{1, 1, 1, 1}},
		{4, []float64{1, 1, 1, 1}},
		{2, []float64{1, 1, 0, 0}},
		{1, []float64{1, 0, 0, 0}},
	}

	for i, test := range table {
		prefix := filepath.Join(t.TempDir(), "run")
		con := &Config{
			Output: prefix, Sampler: NewSampler(1, 1),
			Npout: test.npout, Threads: 1,
		}
		man, g := newTestManager(t, trajectory(1, cellCenters), con)
		_, err := man.Run()
		require.NoError(t, err)

		exp := &bytes.Buffer{}
		require.NoError(t, io.WriteRectilinearMesh(
			exp, io.ConcentrationMesh(g, test.exp, false),
		))
		text, err := ioutil.ReadFile(io.OutputName(prefix, 0))
		require.NoError(t, err)
		if exp.String() != string(text) {
			t.Errorf("%d) Npout = %d gave the wrong field:\n%s",
				i, test.npout, string(text))
		}
	}
}

func TestRunThreadsAgree(t *testing.T) {
	xs := make([][3]float64, 50)
	for i := range xs {
		xs[i] = [3]float64{0.037 * float64(i*i%71), -0.11 * float64(i), 0}
	}
	text := trajectory(12, xs)

	outputs := [][]string{}
	for _, threads := range []int{1, 3, 8} {
		dir := t.TempDir()
		con := &Config{
			Output: filepath.Join(dir, "run"), Sampler: NewSampler(2, 12),
			Threads: threads, Binary: threads == 3,
		}
		man, _ := newTestManager(t, text, con)
		sum, err := man.Run()
		require.NoError(t, err)
		require.Equal(t, 6, sum.Written)

		contents := []string{}
		for _, fname := range sum.Files {
			b, err := ioutil.ReadFile(fname)
			require.NoError(t, err)
			contents = append(contents, string(b))
		}
		outputs = append(outputs, contents)
	}

	assert.Equal(t, outputs[0], outputs[2])
	assert.NotEqual(t, outputs[0], outputs[1], "binary output matched ASCII")
}

func TestRunTruncated(t *testing.T) {
	text := trajectory(3, cellCenters)
	text = strings.TrimSuffix(text, "4.5 0.5 0\n")

	dir := t.TempDir()
	prefix := filepath.Join(dir, "run")
	con := &Config{Output: prefix, Sampler: NewSampler(1, 10), Threads: 1}
	man, _ := newTestManager(t, text, con)

	sum, err := man.Run()
	var te *io.TruncatedRecordError
	require.True(t, errors.As(err, &te), "got error %v", err)
	assert.Equal(t, 2, te.Step)
	assert.Equal(t, 3, te.Got)
	assert.Equal(t, 2, sum.Read)

	_, err = os.Stat(io.OutputName(prefix, 0))
	assert.NoError(t, err)
	_, err = os.Stat(io.OutputName(prefix, 1))
	assert.NoError(t, err)
	_, err = os.Stat(io.OutputName(prefix, 2))
	assert.True(t, os.IsNotExist(err))
}

func TestRunWriteError(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "missing", "run")
	con := &Config{Output: prefix, Sampler: NewSampler(1, 10), Threads: 2}
	man, _ := newTestManager(t, trajectory(6, cellCenters), con)

	sum, err := man.Run()
	assert.Error(t, err)
	assert.Equal(t, 0, sum.Written)
}

func TestNewManagerErrors(t *testing.T) {
	text := trajectory(1, cellCenters)
	table := []*Config{
		{Output: "a", Sampler: NewSampler(0, 1), Threads: 1},
		{Output: "a", Sampler: NewSampler(1, -1), Threads: 1},
		{Output: "a", Sampler: NewSampler(1, 1), Threads: 0},
		{Output: "", Sampler: NewSampler(1, 1), Threads: 1},
	}

	for i, con := range table {
		rd, err := io.NewTrajectoryReader(strings.NewReader(text))
		require.NoError(t, err)
		g, err := geom.NewGrid(2, 2, 2, 2)
		require.NoError(t, err)

		if _, err := NewManager(rd, g, con); err == nil {
			t.Errorf("%d) Expected NewManager to fail for %+v.", i, con)
		}
	}
}
