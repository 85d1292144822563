/*package geom describes the periodic 2D lattice that particles are binned
onto.
*/
package geom

import (
	"fmt"
)

// Grid provides an interface for reasoning over a 1D slice as if it were a
// 2D grid of Mx by My cells covering a periodic Lx by Ly box which is centered
// on the origin. Cells are flattened in x-major order: jx + jy*Mx.
type Grid struct {
	Lx, Ly float64 // Width of the box along each axis.
	Mx, My int     // Number of cells along each axis.
	Dx, Dy float64 // Width of a single cell along each axis.

	Length, Area int
}

// NewGrid returns a new Grid instance.
func NewGrid(lx, ly float64, mx, my int) (*Grid, error) {
	g := &Grid{}
	if err := g.Init(lx, ly, mx, my); err != nil {
		return nil, err
	}
	return g, nil
}

// Init initializes a Grid instance.
func (g *Grid) Init(lx, ly float64, mx, my int) error {
	if !(lx > 0) || !(ly > 0) {
		return fmt.Errorf(
			"Box dimensions must be positive, but got lx = %g, ly = %g.",
			lx, ly,
		)
	} else if mx <= 0 || my <= 0 {
		return fmt.Errorf(
			"Cell counts must be positive, but got mx = %d, my = %d.", mx, my,
		)
	}

	g.Lx, g.Ly = lx, ly
	g.Mx, g.My = mx, my
	g.Dx, g.Dy = lx/float64(mx), ly/float64(my)

	g.Length = mx
	g.Area = mx * my

	return nil
}

// CellArea returns the area of a single cell, dx*dy.
func (g *Grid) CellArea() float64 { return g.Dx * g.Dy }

// Idx returns the grid index corresponding to a set of cell coordinates.
func (g *Grid) Idx(jx, jy int) int {
	return jx + jy*g.Length
}

// IdxCheck returns an index and true if the given coordinates are valid and
// false otherwise.
func (g *Grid) IdxCheck(jx, jy int) (idx int, ok bool) {
	if !g.BoundsCheck(jx, jy) {
		return -1, false
	}
	return g.Idx(jx, jy), true
}

// BoundsCheck returns true if the given cell coordinates are within the Grid
// and false otherwise.
func (g *Grid) BoundsCheck(jx, jy int) bool {
	return 0 <= jx && 0 <= jy && jx < g.Mx && jy < g.My
}

// Coords returns the cell coordinates of a cell from its grid index.
func (g *Grid) Coords(idx int) (jx, jy int) {
	return idx % g.Length, idx / g.Length
}

// Wrap maps x into the primary image of a periodic axis of width l, i.e.
// [-l/2, l/2) up to floating point effects at the edges. The multiple of l
// which is subtracted is x/l rounded half away from zero.
func Wrap(x, l float64) float64 {
	return x - float64(int(x/l+0.5*sign(x)))*l
}

// sign returns -1, 0, or +1.
func sign(x float64) float64 {
	switch {
	case x > 0:
		return +1
	case x < 0:
		return -1
	}
	return 0
}

// WrapX wraps x into the box along the x-axis.
func (g *Grid) WrapX(x float64) float64 { return Wrap(x, g.Lx) }

// WrapY wraps y into the box along the y-axis.
func (g *Grid) WrapY(y float64) float64 { return Wrap(y, g.Ly) }

// CellIndex returns the flattened index of the cell containing the point
// (x, y) after both coordinates have been wrapped into the box.
//
// A point exactly on the upper edge of the box wraps to the lower edge, and
// both edges land in cell 0 along that axis.
func (g *Grid) CellIndex(x, y float64) int {
	jx := g.cellX(g.WrapX(x))
	jy := g.cellY(g.WrapY(y))
	return g.Idx(jx, jy)
}

func (g *Grid) cellX(x float64) int {
	return pMod(int(x/g.Dx+0.5*float64(g.Mx)), g.Mx)
}

func (g *Grid) cellY(y float64) int {
	return pMod(int(y/g.Dy+0.5*float64(g.My)), g.My)
}

// pMod computes the positive modulo x % y.
func pMod(x, y int) int {
	m := x % y
	if m < 0 {
		m += y
	}
	return m
}

// XAxis returns the Mx + 1 node coordinates of the grid along the x-axis.
func (g *Grid) XAxis() []float64 { return axis(g.Mx, g.Dx, g.Lx) }

// YAxis returns the My + 1 node coordinates of the grid along the y-axis.
func (g *Grid) YAxis() []float64 { return axis(g.My, g.Dy, g.Ly) }

func axis(cells int, width, l float64) []float64 {
	xs := make([]float64, cells+1)
	for i := range xs {
		xs[i] = float64(i)*width - 0.5*l
	}
	return xs
}

// CellCenter returns the location of the center of the given cell.
func (g *Grid) CellCenter(idx int) (x, y float64) {
	jx, jy := g.Coords(idx)
	x = (float64(jx)+0.5)*g.Dx - 0.5*g.Lx
	y = (float64(jy)+0.5)*g.Dy - 0.5*g.Ly
	return x, y
}
