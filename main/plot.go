package main

import (
	"fmt"

	plt "github.com/phil-mansfield/pyplot"

	"github.com/phil-mansfield/concvtk"
	"github.com/phil-mansfield/concvtk/geom"
)

// plotProfile plots the mean concentration profile along x against the
// concentration of a uniform distribution of np particles.
func plotProfile(fname string, p *concvtk.Profile, np int, g *geom.Grid) {
	xs, cs := p.Values()
	mean := float64(np) / (g.Lx * g.Ly)

	plt.Reset()
	plt.Figure()
	plt.Plot(xs, cs, "k", plt.LW(2))
	plt.Plot(
		[]float64{-g.Lx / 2, g.Lx / 2}, []float64{mean, mean}, "r",
	)
	plt.Title(fmt.Sprintf("Mean of %d fields", p.Steps()))
	plt.XLabel(`$x$`, plt.FontSize(16))
	plt.YLabel(`$\langle c \rangle_y$`, plt.FontSize(16))
	plt.SaveFig(fname)
	plt.Execute()
}
