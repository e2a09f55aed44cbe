package chem

// PropertyRecord is the fixed descriptor set computed for every molecule.
// The keys mirror the columns produced by the batch helpers and the CLI.
type PropertyRecord struct {
	MolecularWeight   float64 `json:"MolecularWeight"`
	LogP              float64 `json:"LogP"`
	TPSA              float64 `json:"TPSA"`
	NumHDonors        int     `json:"NumHDonors"`
	NumHAcceptors     int     `json:"NumHAcceptors"`
	NumRotatableBonds int     `json:"NumRotatableBonds"`
}

// PropertyColumns is the canonical column order for tabular output.
var PropertyColumns = []string{
	"MolecularWeight", "LogP", "TPSA",
	"NumHDonors", "NumHAcceptors", "NumRotatableBonds",
}

// Map returns the record as a name-to-value map in PropertyColumns terms.
func (p PropertyRecord) Map() map[string]float64 {
	return map[string]float64{
		"MolecularWeight":   p.MolecularWeight,
		"LogP":              p.LogP,
		"TPSA":              p.TPSA,
		"NumHDonors":        float64(p.NumHDonors),
		"NumHAcceptors":     float64(p.NumHAcceptors),
		"NumRotatableBonds": float64(p.NumRotatableBonds),
	}
}

// Properties computes the full descriptor record.  The computation is a pure
// function of the molecular graph, so repeated calls return identical
// values.
func (m *Molecule) Properties() PropertyRecord {
	return PropertyRecord{
		MolecularWeight:   m.MolecularWeight(),
		LogP:              m.LogP(),
		TPSA:              m.TPSA(),
		NumHDonors:        m.NumHDonors(),
		NumHAcceptors:     m.NumHAcceptors(),
		NumRotatableBonds: m.NumRotatableBonds(),
	}
}

// MolecularWeight returns the average molecular weight in Dalton, including
// implicit hydrogens.  Isotope-labelled atoms contribute their mass number.
func (m *Molecule) MolecularWeight() float64 {
	hMass := elements["H"].Mass
	var mw float64
	for _, a := range m.atoms {
		if a.Isotope > 0 {
			mw += float64(a.Isotope)
		} else if e, ok := lookupElement(a.Symbol); ok {
			mw += e.Mass
		}
		mw += float64(a.ImplicitH) * hMass
	}
	return mw
}

// LogP estimates the octanol/water partition coefficient with an
// atom-contribution scheme in the style of Wildman-Crippen.  The class
// table is compact, so values track the reference implementation to within
// roughly half a log unit on drug-like molecules.
func (m *Molecule) LogP() float64 {
	var logp float64
	for i, a := range m.atoms {
		logp += m.atomLogP(i)
		switch a.AtomicNumber {
		case 6:
			logp += 0.12 * float64(a.ImplicitH)
		case 7, 8:
			logp -= 0.06 * float64(a.ImplicitH)
		}
	}
	return logp
}

func (m *Molecule) atomLogP(i int) float64 {
	a := m.atoms[i]
	switch a.Symbol {
	case "C":
		if a.Aromatic {
			return 0.29
		}
		for _, ni := range m.neighbors(i) {
			n := m.atoms[ni].AtomicNumber
			if n != 6 && n != 1 {
				return -0.02
			}
		}
		return 0.14
	case "N":
		if a.Aromatic {
			return -0.26
		}
		return -0.60
	case "O":
		if a.Aromatic {
			return 0.11
		}
		if m.hasDoubleBond(i) {
			return -0.12
		}
		return -0.24
	case "S":
		if a.Aromatic {
			return 0.41
		}
		return 0.25
	case "P":
		return 0.16
	case "F":
		return 0.44
	case "Cl":
		return 0.65
	case "Br":
		return 0.86
	case "I":
		return 1.12
	case "H":
		return 0.12
	default:
		return 0.08
	}
}

func (m *Molecule) hasDoubleBond(i int) bool {
	for _, bi := range m.adjacency[i] {
		if m.bonds[bi].Order == 2 {
			return true
		}
	}
	return false
}

func (m *Molecule) hasTripleBond(i int) bool {
	for _, bi := range m.adjacency[i] {
		if m.bonds[bi].Order == 3 {
			return true
		}
	}
	return false
}

// TPSA computes the topological polar surface area from Ertl's published
// nitrogen and oxygen fragment contributions.  Sulfur and phosphorus are
// excluded, matching the common default.
func (m *Molecule) TPSA() float64 {
	var tpsa float64
	for i, a := range m.atoms {
		h := m.totalHydrogens(i)
		deg := m.degree(i) + h
		switch a.AtomicNumber {
		case 7:
			tpsa += nitrogenTPSA(a, h, deg, m.hasDoubleBond(i), m.hasTripleBond(i))
		case 8:
			tpsa += oxygenTPSA(a, h, m.hasDoubleBond(i))
		}
	}
	return tpsa
}

func nitrogenTPSA(a Atom, h, deg int, hasDouble, hasTriple bool) float64 {
	if a.Aromatic {
		switch {
		case h > 0:
			return 15.79
		case deg >= 3:
			return 4.41
		default:
			return 12.89
		}
	}
	if a.Charge > 0 && h == 0 {
		return 0.00
	}
	switch {
	case hasTriple:
		return 23.79
	case hasDouble && h > 0:
		return 23.85
	case hasDouble:
		return 12.36
	case h >= 2:
		return 26.02
	case h == 1:
		return 12.03
	default:
		return 3.24
	}
}

func oxygenTPSA(a Atom, h int, hasDouble bool) float64 {
	switch {
	case a.Aromatic:
		return 13.14
	case a.Charge < 0:
		return 23.06
	case hasDouble:
		return 17.07
	case h > 0:
		return 20.23
	default:
		return 9.23
	}
}

// NumHDonors counts nitrogen and oxygen atoms carrying at least one
// hydrogen.
func (m *Molecule) NumHDonors() int {
	n := 0
	for i, a := range m.atoms {
		if (a.AtomicNumber == 7 || a.AtomicNumber == 8) && m.totalHydrogens(i) > 0 {
			n++
		}
	}
	return n
}

// NumHAcceptors counts nitrogen and oxygen atoms, the classic Lipinski
// acceptor definition.
func (m *Molecule) NumHAcceptors() int {
	n := 0
	for _, a := range m.atoms {
		if a.AtomicNumber == 7 || a.AtomicNumber == 8 {
			n++
		}
	}
	return n
}

// NumRotatableBonds counts single, acyclic bonds between two non-terminal
// heavy atoms, excluding amide C-N bonds.
func (m *Molecule) NumRotatableBonds() int {
	n := 0
	for _, b := range m.bonds {
		if b.Order != 1 || b.Aromatic || b.InRing {
			continue
		}
		if m.heavyDegree(b.A1) < 2 || m.heavyDegree(b.A2) < 2 {
			continue
		}
		if m.isAmideBond(b) {
			continue
		}
		n++
	}
	return n
}

// heavyDegree counts non-hydrogen neighbours of atom i.
func (m *Molecule) heavyDegree(i int) int {
	n := 0
	for _, ni := range m.neighbors(i) {
		if m.atoms[ni].AtomicNumber != 1 {
			n++
		}
	}
	return n
}

// isAmideBond reports whether b joins a nitrogen to a carbonyl carbon.
func (m *Molecule) isAmideBond(b Bond) bool {
	c, nAtom := b.A1, b.A2
	if m.atoms[c].AtomicNumber == 7 {
		c, nAtom = nAtom, c
	}
	if m.atoms[nAtom].AtomicNumber != 7 || m.atoms[c].AtomicNumber != 6 {
		return false
	}
	for _, bi := range m.adjacency[c] {
		bb := m.bonds[bi]
		if bb.Order != 2 {
			continue
		}
		other := bb.A1
		if other == c {
			other = bb.A2
		}
		if m.atoms[other].AtomicNumber == 8 {
			return true
		}
	}
	return false
}
