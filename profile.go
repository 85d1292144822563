package concvtk

import (
	"gonum.org/v1/gonum/floats"

	"github.com/phil-mansfield/concvtk/geom"
)

// Profile accumulates the concentration profile along the x-axis. Each
// field is averaged over y and the profile is the mean of those averages
// across every field that has been added.
type Profile struct {
	g     *geom.Grid
	sum   []float64
	steps int
}

// NewProfile returns an empty Profile for fields defined on g.
func NewProfile(g *geom.Grid) *Profile {
	return &Profile{g: g, sum: make([]float64, g.Mx)}
}

// Add adds a concentration field to the profile.
func (p *Profile) Add(field []float64) {
	for jy := 0; jy < p.g.My; jy++ {
		start := p.g.Idx(0, jy)
		floats.Add(p.sum, field[start:start+p.g.Mx])
	}
	p.steps++
}

// Merge adds every field in q to p.
func (p *Profile) Merge(q *Profile) {
	floats.Add(p.sum, q.sum)
	p.steps += q.steps
}

// Steps returns the number of fields which have been added.
func (p *Profile) Steps() int { return p.steps }

// Values returns the x-coordinates of the cell centers and the profile at
// each of them. The profile is zero if no fields have been added.
func (p *Profile) Values() (xs, cs []float64) {
	xs = make([]float64, p.g.Mx)
	for jx := range xs {
		xs[jx], _ = p.g.CellCenter(jx)
	}

	cs = make([]float64, p.g.Mx)
	if p.steps > 0 {
		copy(cs, p.sum)
		floats.Scale(1/float64(p.steps*p.g.My), cs)
	}
	return xs, cs
}
