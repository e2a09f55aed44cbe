// Package chem is a lightweight cheminformatics engine.  It parses SMILES
// into an explicit molecular graph, computes drug-likeness descriptors,
// generates and minimizes 3D conformers, and serializes molecules to SDF,
// PDB and PNG.
//
// The package is a façade in the same spirit as the rest of the library:
// construct a *Molecule once, then call the operation you need.
//
//	mol, err := chem.NewMolecule("CC(=O)OC1=CC=CC=C1C(=O)O")
//	if err != nil { ... }
//	props := mol.Properties()
//	profile := mol.Lipinski()
package chem

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
)

// Atom is a node of the molecular graph.
type Atom struct {
	// Symbol is the element symbol with standard capitalization ("Cl").
	Symbol string

	// AtomicNumber of the element.
	AtomicNumber int

	// Charge is the formal charge.
	Charge int

	// Aromatic marks atoms written in lowercase aromatic form.
	Aromatic bool

	// ImplicitH is the number of implicit hydrogens attached to this atom.
	// AddHydrogens converts these into explicit atoms and resets the count.
	ImplicitH int

	// Isotope is the mass number from a bracket atom, 0 when unspecified.
	Isotope int
}

// Bond is an edge of the molecular graph.  A1 and A2 index into the atom
// slice of the owning Molecule.
type Bond struct {
	A1, A2 int

	// Order is the integer bond order (1, 2 or 3).  Aromatic bonds carry
	// order 1 with Aromatic set.
	Order int

	Aromatic bool

	// InRing is true when the bond is part of a cycle.
	InRing bool
}

// Conformer is one 3D geometry of the molecule.  Coords is parallel to the
// molecule's atom slice.
type Conformer struct {
	ID     int
	Coords []r3.Vec
}

// Molecule is an immutable graph plus mutable geometry state.  The graph
// (atoms and bonds) is fixed at parse time except for AddHydrogens, which
// appends explicit hydrogen atoms.  Molecule is not safe for concurrent
// mutation; the batch helpers give each worker its own instance.
type Molecule struct {
	smiles string

	atoms []Atom
	bonds []Bond

	// adjacency[i] lists the bond indices incident to atom i.
	adjacency [][]int

	conformers []Conformer

	// coords2D holds the flat depiction layout, empty until
	// Compute2DCoords runs.
	coords2D []r3.Vec

	hydrogensAdded bool
}

// NewMolecule parses a SMILES string into a Molecule.  The parser accepts
// the organic subset, bracket atoms with isotope/charge/hydrogen counts,
// branches, ring closures (including %nn two-digit labels) and aromatic
// lowercase forms.  A malformed string yields a CodeInvalidStructure error.
func NewMolecule(smiles string) (*Molecule, error) {
	if smiles == "" {
		return nil, errors.InvalidStructure("empty SMILES string")
	}
	mol, err := parseSMILES(smiles)
	if err != nil {
		return nil, err
	}
	mol.markRingBonds()
	return mol, nil
}

// SMILES returns the input string the molecule was built from.
func (m *Molecule) SMILES() string { return m.smiles }

// NumAtoms returns the number of explicit atoms in the graph.
func (m *Molecule) NumAtoms() int { return len(m.atoms) }

// NumBonds returns the number of bonds in the graph.
func (m *Molecule) NumBonds() int { return len(m.bonds) }

// NumHeavyAtoms returns the count of non-hydrogen atoms.
func (m *Molecule) NumHeavyAtoms() int {
	n := 0
	for _, a := range m.atoms {
		if a.AtomicNumber != 1 {
			n++
		}
	}
	return n
}

// Atom returns a copy of the atom at index i.
func (m *Molecule) Atom(i int) Atom { return m.atoms[i] }

// Bond returns a copy of the bond at index i.
func (m *Molecule) Bond(i int) Bond { return m.bonds[i] }

// Conformers returns the molecule's conformers.  The slice is shared; do
// not mutate it while another operation is running.
func (m *Molecule) Conformers() []Conformer { return m.conformers }

// degree returns the number of explicit neighbours of atom i.
func (m *Molecule) degree(i int) int { return len(m.adjacency[i]) }

// neighbors returns the atom indices adjacent to atom i.
func (m *Molecule) neighbors(i int) []int {
	out := make([]int, 0, len(m.adjacency[i]))
	for _, bi := range m.adjacency[i] {
		b := m.bonds[bi]
		if b.A1 == i {
			out = append(out, b.A2)
		} else {
			out = append(out, b.A1)
		}
	}
	return out
}

// bondBetween returns the index of the bond joining atoms i and j, or -1.
func (m *Molecule) bondBetween(i, j int) int {
	for _, bi := range m.adjacency[i] {
		b := m.bonds[bi]
		if b.A1 == j || b.A2 == j {
			return bi
		}
	}
	return -1
}

// totalHydrogens returns implicit plus explicit hydrogens on atom i.
func (m *Molecule) totalHydrogens(i int) int {
	n := m.atoms[i].ImplicitH
	for _, ni := range m.neighbors(i) {
		if m.atoms[ni].AtomicNumber == 1 {
			n++
		}
	}
	return n
}

// addBond appends a bond and updates the adjacency lists.
func (m *Molecule) addBond(b Bond) {
	m.bonds = append(m.bonds, b)
	bi := len(m.bonds) - 1
	m.adjacency[b.A1] = append(m.adjacency[b.A1], bi)
	m.adjacency[b.A2] = append(m.adjacency[b.A2], bi)
}

// markRingBonds flags every bond that lies on a cycle.  A bond is a ring
// bond exactly when its endpoints stay connected after the bond is removed.
func (m *Molecule) markRingBonds() {
	for bi := range m.bonds {
		b := &m.bonds[bi]
		b.InRing = m.connectedWithout(b.A1, b.A2, bi)
	}
}

// connectedWithout reports whether atoms from and to are connected when
// bond skip is ignored.
func (m *Molecule) connectedWithout(from, to, skip int) bool {
	visited := make([]bool, len(m.atoms))
	stack := []int{from}
	visited[from] = true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == to {
			return true
		}
		for _, bi := range m.adjacency[cur] {
			if bi == skip {
				continue
			}
			b := m.bonds[bi]
			next := b.A1
			if next == cur {
				next = b.A2
			}
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// atomInRing reports whether atom i belongs to any ring.
func (m *Molecule) atomInRing(i int) bool {
	for _, bi := range m.adjacency[i] {
		if m.bonds[bi].InRing {
			return true
		}
	}
	return false
}
