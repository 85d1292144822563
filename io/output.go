package io

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/phil-mansfield/concvtk/geom"
)

/*
Meshes are written as legacy VTK rectilinear grids in the layout produced by
VisIt's visit_writer:

    # vtk DataFile Version 2.0
    Written using VisIt writer
    ASCII | BINARY
    DATASET RECTILINEAR_GRID
    DIMENSIONS nx ny nz
    X_COORDINATES nx float
    ...
    Y_COORDINATES ny float
    ...
    Z_COORDINATES nz float
    ...
    CELL_DATA ncells
    SCALARS <first zonal scalar> float
    LOOKUP_TABLE default
    ...
    VECTORS <first zonal vector> float
    ...
    FIELD FieldData <remaining zonal scalars>
    <name> 1 ncells float
    ...
    FIELD FieldData <remaining zonal vectors>
    <name> 3 ncells float
    ...
    POINT_DATA npts
    <the same for nodal variables>

ASCII values are written nine to a line. BINARY values are big endian
float32s, and each block of values is terminated by a newline.
*/

const (
	// ConcentrationName is the name of the concentration field.
	ConcentrationName = "concentration"
	// OutputSuffix ends the name of every concentration file.
	OutputSuffix = "concentration.vtk"

	valuesPerLine = 9
)

// Centering describes which part of the mesh a variable is associated with.
type Centering int

const (
	// Zonal variables have one value per cell.
	Zonal Centering = iota
	// Nodal variables have one value per grid node.
	Nodal
)

func (c Centering) String() string {
	switch c {
	case Zonal:
		return "Zonal"
	case Nodal:
		return "Nodal"
	}
	return fmt.Sprintf("Centering(%d)", int(c))
}

// Var is a scalar (Dim = 1) or vector (Dim = 3) field defined on a Mesh.
// Vector components are interleaved.
type Var struct {
	Name      string
	Dim       int
	Centering Centering
	Data      []float64
}

// Mesh is a rectilinear grid along with the variables defined on it. Dims
// gives the number of nodes along each axis. X, Y, and Z must contain at least
// Dims[0], Dims[1], and Dims[2] coordinates, respectively.
type Mesh struct {
	Dims    [3]int
	X, Y, Z []float64
	Vars    []Var
	Binary  bool
}

// Points returns the number of nodes in the mesh.
func (m *Mesh) Points() int { return m.Dims[0] * m.Dims[1] * m.Dims[2] }

// Cells returns the number of cells in the mesh. Axes with a single node are
// treated as being one cell wide.
func (m *Mesh) Cells() int {
	n := 1
	for _, d := range m.Dims {
		if d-1 > 1 {
			n *= d - 1
		}
	}
	return n
}

// Validate returns an error if the mesh cannot be written.
func (m *Mesh) Validate() error {
	axes := [][]float64{m.X, m.Y, m.Z}
	for i, d := range m.Dims {
		if d <= 0 {
			return fmt.Errorf("Mesh dimension %d is %d, must be positive.", i, d)
		} else if len(axes[i]) < d {
			return fmt.Errorf(
				"Mesh axis %d has %d coordinates, but %d are required.",
				i, len(axes[i]), d,
			)
		}
	}

	for _, v := range m.Vars {
		if v.Name == "" || strings.ContainsAny(v.Name, " \t\r\n") {
			return fmt.Errorf("Invalid variable name '%s'.", v.Name)
		} else if v.Dim != 1 && v.Dim != 3 {
			return fmt.Errorf(
				"Variable '%s' has dimension %d. Only 1 and 3 are supported.",
				v.Name, v.Dim,
			)
		}

		var n int
		switch v.Centering {
		case Zonal:
			n = m.Cells()
		case Nodal:
			n = m.Points()
		default:
			return fmt.Errorf(
				"Variable '%s' has unrecognized centering %v.",
				v.Name, v.Centering,
			)
		}

		if len(v.Data) != n*v.Dim {
			return fmt.Errorf(
				"Variable '%s' has %d values, but %d are required.",
				v.Name, len(v.Data), n*v.Dim,
			)
		}
	}

	return nil
}

// vtkWriter tracks the column state of the output stream and holds onto the
// first error encountered.
type vtkWriter struct {
	w      *bufio.Writer
	binary bool
	col    int
	buf    [4]byte
	err    error
}

func (vw *vtkWriter) writeString(s string) {
	if vw.err != nil {
		return
	}
	_, vw.err = vw.w.WriteString(s)
}

func (vw *vtkWriter) writef(format string, a ...interface{}) {
	vw.writeString(fmt.Sprintf(format, a...))
}

func (vw *vtkWriter) writeFloat(x float64) {
	if vw.err != nil {
		return
	}

	if vw.binary {
		binary.BigEndian.PutUint32(vw.buf[:], math.Float32bits(float32(x)))
		_, vw.err = vw.w.Write(vw.buf[:])
		vw.col++
		return
	}

	vw.writef("%20.12e ", x)
	vw.col++
	if vw.col%valuesPerLine == 0 {
		vw.writeString("\n")
		vw.col = 0
	}
}

func (vw *vtkWriter) writeFloats(xs []float64) {
	for _, x := range xs {
		vw.writeFloat(x)
	}
	vw.newSection()
}

// newSection ends the current line of values, if there is one.
func (vw *vtkWriter) newSection() {
	if vw.col != 0 {
		vw.writeString("\n")
	}
	vw.col = 0
}

// WriteRectilinearMesh writes m to wr as a legacy VTK rectilinear grid.
func WriteRectilinearMesh(wr io.Writer, m *Mesh) error {
	if err := m.Validate(); err != nil {
		return err
	}

	vw := &vtkWriter{w: bufio.NewWriter(wr), binary: m.Binary}

	vw.writeString("# vtk DataFile Version 2.0\n")
	vw.writeString("Written using VisIt writer\n")
	if m.Binary {
		vw.writeString("BINARY\n")
	} else {
		vw.writeString("ASCII\n")
	}

	vw.writeString("DATASET RECTILINEAR_GRID\n")
	vw.writef("DIMENSIONS %d %d %d\n", m.Dims[0], m.Dims[1], m.Dims[2])
	axes := [][]float64{m.X, m.Y, m.Z}
	for i, name := range []string{"X", "Y", "Z"} {
		vw.writef("%s_COORDINATES %d float\n", name, m.Dims[i])
		vw.writeFloats(axes[i][:m.Dims[i]])
	}

	writeVars(vw, m.Vars, Zonal, "CELL_DATA", m.Cells())
	writeVars(vw, m.Vars, Nodal, "POINT_DATA", m.Points())

	if vw.err != nil {
		return vw.err
	}
	return vw.w.Flush()
}

// writeVars writes all the variables with the given centering. The first
// scalar and first vector are written as primary attributes, the rest are
// grouped into FIELD blocks.
func writeVars(vw *vtkWriter, vars []Var, c Centering, section string, n int) {
	var scalars, vectors []*Var
	for i := range vars {
		if vars[i].Centering != c {
			continue
		}
		if vars[i].Dim == 1 {
			scalars = append(scalars, &vars[i])
		} else {
			vectors = append(vectors, &vars[i])
		}
	}
	if len(scalars) == 0 && len(vectors) == 0 {
		return
	}

	vw.writef("%s %d\n", section, n)

	if len(scalars) > 0 {
		vw.writef("SCALARS %s float\n", scalars[0].Name)
		vw.writeString("LOOKUP_TABLE default\n")
		vw.writeFloats(scalars[0].Data)
	}
	if len(vectors) > 0 {
		vw.writef("VECTORS %s float\n", vectors[0].Name)
		vw.writeFloats(vectors[0].Data)
	}

	for _, group := range [][]*Var{scalars, vectors} {
		if len(group) <= 1 {
			continue
		}
		vw.writef("FIELD FieldData %d\n", len(group)-1)
		for _, v := range group[1:] {
			vw.writef("%s %d %d float\n", v.Name, v.Dim, n)
			vw.writeFloats(v.Data)
		}
	}
}

// WriteMeshFile writes m to a new file at the given path.
func WriteMeshFile(path string, m *Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err = WriteRectilinearMesh(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ConcentrationMesh returns the mesh used to write the concentration field of
// g. The mesh is a single layer of cells with a degenerate z-axis.
func ConcentrationMesh(g *geom.Grid, field []float64, binary bool) *Mesh {
	return &Mesh{
		Dims: [3]int{g.Mx + 1, g.My + 1, 1},
		X:    g.XAxis(),
		Y:    g.YAxis(),
		Z:    []float64{0, 0},
		Vars: []Var{{
			Name: ConcentrationName, Dim: 1,
			Centering: Zonal, Data: field,
		}},
		Binary: binary,
	}
}

// OutputName returns the name of the file that the concentration field of the
// given step is written to.
func OutputName(prefix string, step int) string {
	return fmt.Sprintf("%s.%d.%s", prefix, step, OutputSuffix)
}
