package chem

import (
	"fmt"
	"os"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
)

// molBlockProgram is the program name stamped on line two of every
// molblock.  Downstream services that key on this field can rewrite it.
const molBlockProgram = "BioChem"

// outputCoords picks the geometry to serialize: the first 3D conformer if
// one exists, otherwise the 2D depiction layout (computed on demand).
func (m *Molecule) outputCoords() ([]r3.Vec, string) {
	if len(m.conformers) > 0 {
		return m.conformers[0].Coords, "3D"
	}
	if len(m.coords2D) == 0 {
		m.Compute2DCoords()
	}
	return m.coords2D, "2D"
}

// MolBlock renders the molecule as a V2000 connection table.  The ProTox
// and Molsoft clients submit this block as their structure payload.
func (m *Molecule) MolBlock() string {
	coords, dim := m.outputCoords()

	var sb strings.Builder
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "     %-10s          %s\n", molBlockProgram, dim)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%3d%3d  0  0  0  0  0  0  0  0999 V2000\n",
		len(m.atoms), len(m.bonds))

	for i, a := range m.atoms {
		c := r3.Vec{}
		if i < len(coords) {
			c = coords[i]
		}
		fmt.Fprintf(&sb, "%10.4f%10.4f%10.4f %-3s 0  0  0  0  0  0  0  0  0  0  0  0\n",
			c.X, c.Y, c.Z, a.Symbol)
	}
	for _, b := range m.bonds {
		order := b.Order
		if b.Aromatic {
			order = 4
		}
		fmt.Fprintf(&sb, "%3d%3d%3d  0\n", b.A1+1, b.A2+1, order)
	}

	var charged []int
	for i, a := range m.atoms {
		if a.Charge != 0 {
			charged = append(charged, i)
		}
	}
	if len(charged) > 0 {
		fmt.Fprintf(&sb, "M  CHG%3d", len(charged))
		for _, i := range charged {
			fmt.Fprintf(&sb, "%4d%4d", i+1, m.atoms[i].Charge)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("M  END\n")
	return sb.String()
}

// SDF renders the molecule as a single-record SD file, the molblock plus a
// SMILES data field and the record terminator.
func (m *Molecule) SDF() string {
	var sb strings.Builder
	sb.WriteString(m.MolBlock())
	fmt.Fprintf(&sb, ">  <SMILES>\n%s\n\n", m.smiles)
	sb.WriteString("$$$$\n")
	return sb.String()
}

// WriteSDF writes the molecule to path in SD format.  Failures surface
// immediately as CodeIO errors.
func (m *Molecule) WriteSDF(path string) error {
	if err := os.WriteFile(path, []byte(m.SDF()), 0o644); err != nil {
		return errors.Wrap(err, errors.CodeIO, "failed to write SDF file").WithDetail(path)
	}
	return nil
}

// PDB renders the molecule as a minimal PDB with HETATM and CONECT
// records, the layout ligand-docking tools expect for small molecules.
func (m *Molecule) PDB() string {
	coords, _ := m.outputCoords()

	var sb strings.Builder
	fmt.Fprintf(&sb, "COMPND    %s\n", m.smiles)
	counts := map[string]int{}
	for i, a := range m.atoms {
		c := r3.Vec{}
		if i < len(coords) {
			c = coords[i]
		}
		counts[a.Symbol]++
		name := fmt.Sprintf("%s%d", a.Symbol, counts[a.Symbol])
		fmt.Fprintf(&sb, "HETATM%5d %-4s %-3s %1s%4d    %8.3f%8.3f%8.3f%6.2f%6.2f          %2s\n",
			i+1, name, "UNL", "A", 1, c.X, c.Y, c.Z, 1.00, 0.00, strings.ToUpper(a.Symbol))
	}
	for i := range m.atoms {
		nbrs := m.neighbors(i)
		if len(nbrs) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "CONECT%5d", i+1)
		for _, n := range nbrs {
			fmt.Fprintf(&sb, "%5d", n+1)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("END\n")
	return sb.String()
}

// WritePDB writes the molecule to path in PDB format.  Failures surface
// immediately as CodeIO errors.
func (m *Molecule) WritePDB(path string) error {
	if err := os.WriteFile(path, []byte(m.PDB()), 0o644); err != nil {
		return errors.Wrap(err, errors.CodeIO, "failed to write PDB file").WithDetail(path)
	}
	return nil
}

// WriteFile dispatches on the format name ("sdf" or "pdb"), matching the
// string-driven save entry point of the CLI.
func (m *Molecule) WriteFile(path, format string) error {
	switch strings.ToLower(format) {
	case "sdf", "mol":
		return m.WriteSDF(path)
	case "pdb":
		return m.WritePDB(path)
	default:
		return errors.New(errors.CodeUnsupportedFormat,
			"unsupported output format: "+format)
	}
}
