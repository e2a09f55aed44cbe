package chem

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
)

// DefaultEmbedSeed is the random seed used when a caller does not supply
// one, so that repeated runs generate identical geometries.
const DefaultEmbedSeed = 42

// AddHydrogens converts every implicit hydrogen into an explicit atom with
// a single bond to its parent.  Existing conformers and 2D layouts refer to
// the old atom list, so geometry state is discarded.  Calling it twice is a
// no-op.
func (m *Molecule) AddHydrogens() {
	if m.hydrogensAdded {
		return
	}
	heavy := len(m.atoms)
	for i := 0; i < heavy; i++ {
		for h := 0; h < m.atoms[i].ImplicitH; h++ {
			m.atoms = append(m.atoms, Atom{Symbol: "H", AtomicNumber: 1})
			m.adjacency = append(m.adjacency, nil)
			m.addBond(Bond{A1: i, A2: len(m.atoms) - 1, Order: 1})
		}
		m.atoms[i].ImplicitH = 0
	}
	m.conformers = nil
	m.coords2D = nil
	m.hydrogensAdded = true
}

// EmbedConformers generates n seeded 3D conformers, replacing any existing
// geometry.  Each conformer is grown atom by atom along the bond graph with
// ideal bond lengths and a randomized direction, then relaxed with a short
// force-field descent so rings close and clashes resolve.  The result is
// deterministic for a given (molecule, n, seed) triple.
func (m *Molecule) EmbedConformers(n int, seed int64) error {
	if n <= 0 {
		return errors.InvalidParam("conformer count must be positive")
	}
	m.conformers = make([]Conformer, 0, n)
	for id := 0; id < n; id++ {
		rng := rand.New(rand.NewSource(seed + int64(id)))
		coords := m.growCoords(rng)
		conf := Conformer{ID: id, Coords: coords}
		ff := forceFieldParams(MMFF94)
		steepestDescent(m, conf.Coords, ff, 150)
		m.conformers = append(m.conformers, conf)
	}
	return nil
}

// idealBondLength returns the target length for a bond, the sum of the
// covalent radii contracted for multiple and aromatic bonds.
func (m *Molecule) idealBondLength(b Bond) float64 {
	e1, _ := lookupElement(m.atoms[b.A1].Symbol)
	e2, _ := lookupElement(m.atoms[b.A2].Symbol)
	l := e1.CovalentRad + e2.CovalentRad
	switch {
	case b.Aromatic:
		return l * 0.93
	case b.Order == 2:
		return l * 0.87
	case b.Order == 3:
		return l * 0.78
	default:
		return l
	}
}

// growCoords places atoms breadth-first from atom 0.  Each atom lands at
// its parent plus a jittered unit direction scaled to the ideal bond
// length; disconnected fragments start at shifted origins.
func (m *Molecule) growCoords(rng *rand.Rand) []r3.Vec {
	coords := make([]r3.Vec, len(m.atoms))
	placed := make([]bool, len(m.atoms))

	fragmentOffset := 0.0
	for start := 0; start < len(m.atoms); start++ {
		if placed[start] {
			continue
		}
		coords[start] = r3.Vec{X: fragmentOffset}
		placed[start] = true
		fragmentOffset += 8.0

		queue := []int{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, bi := range m.adjacency[cur] {
				b := m.bonds[bi]
				next := b.A1
				if next == cur {
					next = b.A2
				}
				if placed[next] {
					continue
				}
				dir := randomUnit(rng)
				// Bias away from the parent's already-placed neighbours
				// so chains extend instead of folding onto themselves.
				for _, ni := range m.neighbors(cur) {
					if placed[ni] && ni != next {
						away := r3.Sub(coords[cur], coords[ni])
						if r3.Norm(away) > 1e-9 {
							dir = r3.Add(dir, r3.Scale(0.8, r3.Unit(away)))
						}
					}
				}
				dir = r3.Unit(dir)
				coords[next] = r3.Add(coords[cur], r3.Scale(m.idealBondLength(b), dir))
				placed[next] = true
				queue = append(queue, next)
			}
		}
	}
	return coords
}

func randomUnit(rng *rand.Rand) r3.Vec {
	for {
		v := r3.Vec{
			X: rng.NormFloat64(),
			Y: rng.NormFloat64(),
			Z: rng.NormFloat64(),
		}
		if n := r3.Norm(v); n > 1e-9 {
			return r3.Scale(1/n, v)
		}
	}
}
