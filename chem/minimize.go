package chem

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
)

// ForceField selects the parameter set used by geometry minimization.
type ForceField string

const (
	// MMFF94 is the default force field.
	MMFF94 ForceField = "MMFF94"
	// UFF is the universal fallback parameterization.
	UFF ForceField = "UFF"
)

// DefaultMinimizeIters bounds the descent when the caller passes a
// non-positive iteration count.
const DefaultMinimizeIters = 200

// MinimizeResult reports the outcome for one conformer.
type MinimizeResult struct {
	ConformerID int     `json:"conformer_id"`
	Converged   bool    `json:"converged"`
	Energy      float64 `json:"energy"`
}

// ffParams holds the spring constants of a parameter set.  Both sets share
// the same functional form; they differ in stiffness and in how strongly
// non-bonded overlap is penalized.
type ffParams struct {
	bondK     float64
	angleK    float64
	repulseK  float64
	vdwScale  float64
	gradTol   float64
	converged float64
}

func forceFieldParams(ff ForceField) ffParams {
	switch ff {
	case UFF:
		return ffParams{bondK: 350, angleK: 40, repulseK: 25, vdwScale: 0.85, gradTol: 1e-3, converged: 1e-6}
	default:
		return ffParams{bondK: 300, angleK: 50, repulseK: 30, vdwScale: 0.90, gradTol: 1e-3, converged: 1e-6}
	}
}

// MinimizeMMFF94 relaxes every conformer with the MMFF94-flavoured
// parameter set.  When the molecule has no conformers yet, a single seeded
// conformer is embedded first, mirroring the convenience behaviour of the
// property façade.
func (m *Molecule) MinimizeMMFF94(maxIters int) ([]MinimizeResult, error) {
	return m.minimize(MMFF94, maxIters)
}

// MinimizeUFF relaxes every conformer with the UFF-flavoured parameter set.
func (m *Molecule) MinimizeUFF(maxIters int) ([]MinimizeResult, error) {
	return m.minimize(UFF, maxIters)
}

// Minimize relaxes every conformer with the named force field.
func (m *Molecule) Minimize(ff ForceField, maxIters int) ([]MinimizeResult, error) {
	switch ff {
	case MMFF94, UFF:
		return m.minimize(ff, maxIters)
	default:
		return nil, errors.InvalidParam("unknown force field: " + string(ff))
	}
}

func (m *Molecule) minimize(ff ForceField, maxIters int) ([]MinimizeResult, error) {
	if maxIters <= 0 {
		maxIters = DefaultMinimizeIters
	}
	if len(m.conformers) == 0 {
		if err := m.EmbedConformers(1, DefaultEmbedSeed); err != nil {
			return nil, errors.Wrap(err, errors.CodeMinimizationError,
				"failed to embed a conformer before minimization")
		}
	}

	params := forceFieldParams(ff)
	results := make([]MinimizeResult, 0, len(m.conformers))
	for i := range m.conformers {
		conf := &m.conformers[i]
		energy, converged := steepestDescent(m, conf.Coords, params, maxIters)
		results = append(results, MinimizeResult{
			ConformerID: conf.ID,
			Converged:   converged,
			Energy:      energy,
		})
	}
	return results, nil
}

// ffTerm is a harmonic distance restraint between two atoms.  Bonds,
// angles (as 1-3 restraints) and steric repulsion all reduce to this form,
// which keeps the gradient analytic and cheap.
type ffTerm struct {
	i, j int
	r0   float64
	k    float64

	// repulsive terms only push atoms apart; they contribute nothing
	// beyond r0.
	repulsiveOnly bool
}

// buildTerms assembles the restraint list for the current graph.
func buildTerms(m *Molecule, p ffParams) []ffTerm {
	var terms []ffTerm

	// 1-2: bond stretches.
	excluded := make(map[[2]int]bool)
	key := func(i, j int) [2]int {
		if i > j {
			i, j = j, i
		}
		return [2]int{i, j}
	}
	for _, b := range m.bonds {
		terms = append(terms, ffTerm{i: b.A1, j: b.A2, r0: m.idealBondLength(b), k: p.bondK})
		excluded[key(b.A1, b.A2)] = true
	}

	// 1-3: angle bends expressed as distance restraints via the law of
	// cosines with an ideal angle from the apex atom's hybridization.
	for apex := range m.atoms {
		nbrs := m.neighbors(apex)
		if len(nbrs) < 2 {
			continue
		}
		theta := m.idealAngle(apex)
		for x := 0; x < len(nbrs); x++ {
			for y := x + 1; y < len(nbrs); y++ {
				i, j := nbrs[x], nbrs[y]
				bi := m.bondBetween(apex, i)
				bj := m.bondBetween(apex, j)
				li := m.idealBondLength(m.bonds[bi])
				lj := m.idealBondLength(m.bonds[bj])
				r13 := math.Sqrt(li*li + lj*lj - 2*li*lj*math.Cos(theta))
				terms = append(terms, ffTerm{i: i, j: j, r0: r13, k: p.angleK})
				excluded[key(i, j)] = true
			}
		}
	}

	// Non-bonded repulsion for every remaining pair closer than the scaled
	// van der Waals contact distance.
	for i := 0; i < len(m.atoms); i++ {
		ei, _ := lookupElement(m.atoms[i].Symbol)
		for j := i + 1; j < len(m.atoms); j++ {
			if excluded[key(i, j)] {
				continue
			}
			ej, _ := lookupElement(m.atoms[j].Symbol)
			contact := (ei.VdwRad + ej.VdwRad) * p.vdwScale
			terms = append(terms, ffTerm{i: i, j: j, r0: contact, k: p.repulseK, repulsiveOnly: true})
		}
	}
	return terms
}

// idealAngle returns the target bond angle at an atom in radians.
func (m *Molecule) idealAngle(i int) float64 {
	if m.hasTripleBond(i) {
		return math.Pi
	}
	if m.atoms[i].Aromatic || m.hasDoubleBond(i) {
		return 120.0 * math.Pi / 180.0
	}
	return 109.47 * math.Pi / 180.0
}

// steepestDescent minimizes the restraint energy in place with an adaptive
// step size.  Returns the final energy and whether the gradient norm fell
// below tolerance within maxIters.
func steepestDescent(m *Molecule, coords []r3.Vec, p ffParams, maxIters int) (float64, bool) {
	terms := buildTerms(m, p)
	grad := make([]r3.Vec, len(coords))

	energy := evalTerms(terms, coords, grad)
	step := 0.02
	converged := false

	for iter := 0; iter < maxIters; iter++ {
		gnorm := 0.0
		for _, g := range grad {
			gnorm += r3.Norm2(g)
		}
		gnorm = math.Sqrt(gnorm / float64(len(coords)))
		if gnorm < p.gradTol {
			converged = true
			break
		}

		trial := make([]r3.Vec, len(coords))
		for i := range coords {
			trial[i] = r3.Add(coords[i], r3.Scale(-step, grad[i]))
		}
		trialGrad := make([]r3.Vec, len(coords))
		trialEnergy := evalTerms(terms, trial, trialGrad)

		if trialEnergy < energy {
			if energy-trialEnergy < p.converged {
				copy(coords, trial)
				energy = trialEnergy
				converged = true
				break
			}
			copy(coords, trial)
			copy(grad, trialGrad)
			energy = trialEnergy
			step *= 1.2
		} else {
			step *= 0.5
			if step < 1e-8 {
				converged = true
				break
			}
		}
	}
	return energy, converged
}

// evalTerms computes the total energy and fills grad with its gradient.
func evalTerms(terms []ffTerm, coords []r3.Vec, grad []r3.Vec) float64 {
	for i := range grad {
		grad[i] = r3.Vec{}
	}
	var energy float64
	for _, t := range terms {
		d := r3.Sub(coords[t.i], coords[t.j])
		r := r3.Norm(d)
		if r < 1e-9 {
			// Coincident atoms have no defined direction; nudge along x.
			d = r3.Vec{X: 1e-4}
			r = 1e-4
		}
		diff := r - t.r0
		if t.repulsiveOnly && diff >= 0 {
			continue
		}
		energy += t.k * diff * diff
		// dE/dxi = 2k(r - r0) * (xi - xj)/r
		f := r3.Scale(2*t.k*diff/r, d)
		grad[t.i] = r3.Add(grad[t.i], f)
		grad[t.j] = r3.Sub(grad[t.j], f)
	}
	return energy
}
