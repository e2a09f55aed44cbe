package chem

import (
	"image/color"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
)

// depictionSeed fixes the 2D layout so the same molecule always renders
// identically.
const depictionSeed = 7

// Compute2DCoords lays the molecule out in the plane.  The layout reuses
// the 3D growth and relaxation machinery with all z components pinned to
// zero; a planar starting geometry has no out-of-plane gradient, so the
// descent stays flat.
func (m *Molecule) Compute2DCoords() {
	rng := rand.New(rand.NewSource(depictionSeed))
	coords := m.growCoords(rng)
	for i := range coords {
		coords[i].Z = 0
	}
	steepestDescent(m, coords, forceFieldParams(MMFF94), 300)
	m.coords2D = coords
}

// elementColors follows the CPK convention for the common heteroatoms.
var elementColors = map[string]color.RGBA{
	"N":  {R: 0x30, G: 0x50, B: 0xF8, A: 0xFF},
	"O":  {R: 0xFF, G: 0x0D, B: 0x0D, A: 0xFF},
	"S":  {R: 0xFF, G: 0xC8, B: 0x32, A: 0xFF},
	"P":  {R: 0xFF, G: 0x80, B: 0x00, A: 0xFF},
	"F":  {R: 0x20, G: 0xB0, B: 0x50, A: 0xFF},
	"Cl": {R: 0x1F, G: 0xF0, B: 0x1F, A: 0xFF},
	"Br": {R: 0xA6, G: 0x29, B: 0x29, A: 0xFF},
	"I":  {R: 0x94, G: 0x00, B: 0xD3, A: 0xFF},
}

// DrawPNG renders a 2D depiction to path with the given pixel dimensions.
// Hydrogens are left implicit; heteroatoms are labelled with their symbol.
func (m *Molecule) DrawPNG(path string, width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.InvalidParam("image dimensions must be positive")
	}
	if len(m.coords2D) == 0 {
		m.Compute2DCoords()
	}

	p := plot.New()
	p.HideAxes()
	p.BackgroundColor = color.White

	for _, b := range m.bonds {
		if m.atoms[b.A1].AtomicNumber == 1 || m.atoms[b.A2].AtomicNumber == 1 {
			continue
		}
		line, err := plotter.NewLine(bondXYs(m.coords2D[b.A1], m.coords2D[b.A2]))
		if err != nil {
			return errors.Wrap(err, errors.CodeInternal, "failed to build bond line")
		}
		line.LineStyle.Width = vg.Points(1.5)
		if b.Order >= 2 || b.Aromatic {
			line.LineStyle.Width = vg.Points(3)
		}
		line.LineStyle.Color = color.Black
		p.Add(line)
	}

	labels := plotter.XYLabels{}
	for i, a := range m.atoms {
		if a.AtomicNumber == 6 || a.AtomicNumber == 1 {
			continue
		}
		labels.XYs = append(labels.XYs, plotter.XY{X: m.coords2D[i].X, Y: m.coords2D[i].Y})
		labels.Labels = append(labels.Labels, a.Symbol)
	}
	if len(labels.Labels) > 0 {
		lbl, err := plotter.NewLabels(labels)
		if err != nil {
			return errors.Wrap(err, errors.CodeInternal, "failed to build atom labels")
		}
		for i := range lbl.TextStyle {
			if c, ok := elementColors[labels.Labels[i]]; ok {
				lbl.TextStyle[i].Color = c
			}
		}
		p.Add(lbl)
	}

	w := vg.Points(float64(width) * 72.0 / 96.0)
	h := vg.Points(float64(height) * 72.0 / 96.0)
	if err := p.Save(w, h, path); err != nil {
		return errors.Wrap(err, errors.CodeIO, "failed to write image").WithDetail(path)
	}
	return nil
}

func bondXYs(a, b r3.Vec) plotter.XYs {
	return plotter.XYs{
		{X: a.X, Y: a.Y},
		{X: b.X, Y: b.Y},
	}
}
