/*package density bins sequences of particle positions onto a concentration
grid.
*/
package density

import (
	"gonum.org/v1/gonum/floats"

	"github.com/phil-mansfield/concvtk/geom"
)

// Binner assigns particles to the cell of a periodic grid which contains them
// (nearest grid point binning) and accumulates a concentration of
// 1 / (dx*dy) per particle.
type Binner struct {
	g     *geom.Grid
	ptVal float64
}

// NewBinner returns a Binner for the given grid.
func NewBinner(g *geom.Grid) *Binner {
	return &Binner{g: g, ptVal: 1 / g.CellArea()}
}

// Grid returns the grid that the Binner writes to.
func (b *Binner) Grid() *geom.Grid { return b.g }

// Bin computes the concentration field of the first n particles in xs. The z
// coordinate is ignored. out is zeroed and reused if it has length Mx*My,
// otherwise a new field is allocated. The field is returned.
func (b *Binner) Bin(xs [][3]float64, n int, out []float64) []float64 {
	if len(out) != b.g.Area {
		out = make([]float64, b.g.Area)
	} else {
		for i := range out {
			out[i] = 0
		}
	}

	if n > len(xs) {
		n = len(xs)
	}
	for i := 0; i < n; i++ {
		out[b.g.CellIndex(xs[i][0], xs[i][1])] += b.ptVal
	}

	return out
}

// Concentration returns a newly allocated concentration field for the first
// n particles in xs.
func Concentration(g *geom.Grid, xs [][3]float64, n int) []float64 {
	return NewBinner(g).Bin(xs, n, nil)
}

// Mean returns the average concentration over the cells of a field. For a
// field made by a Binner this is n / (lx*ly).
func Mean(field []float64) float64 {
	if len(field) == 0 {
		return 0
	}
	return floats.Sum(field) / float64(len(field))
}

// Count returns the number of particles which were binned into a field.
func Count(g *geom.Grid, field []float64) float64 {
	return floats.Sum(field) * g.CellArea()
}
