package main

import (
	"errors"
	"log"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// saveHistogram plots the distribution of vertex displacements.
func saveHistogram(path string, disp []float64) error {
	if len(disp) == 0 {
		return errors.New("no displacements to plot")
	}
	if slices.Min(disp) == slices.Max(disp) {
		log.Printf("all vertices moved by %.4g, skipping histogram", disp[0])
		return nil
	}
	p := plot.New()
	p.Title.Text = "Vertex displacement"
	p.X.Label.Text = "distance"
	p.Y.Label.Text = "vertices"
	h, err := plotter.NewHist(plotter.Values(disp), 32)
	if err != nil {
		return err
	}
	p.Add(h)
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
