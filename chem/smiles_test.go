package chem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
)

func TestParseLinearChain(t *testing.T) {
	mol, err := NewMolecule("CCO")
	require.NoError(t, err)

	assert.Equal(t, 3, mol.NumAtoms())
	assert.Equal(t, 2, mol.NumBonds())
	assert.Equal(t, "C", mol.Atom(0).Symbol)
	assert.Equal(t, "O", mol.Atom(2).Symbol)
	assert.Equal(t, 3, mol.Atom(0).ImplicitH)
	assert.Equal(t, 2, mol.Atom(1).ImplicitH)
	assert.Equal(t, 1, mol.Atom(2).ImplicitH)
}

func TestParseBranchesAndDoubleBonds(t *testing.T) {
	// Acetic acid.
	mol, err := NewMolecule("CC(=O)O")
	require.NoError(t, err)

	assert.Equal(t, 4, mol.NumAtoms())
	assert.Equal(t, 3, mol.NumBonds())

	carbonyl := mol.bondBetween(1, 2)
	require.GreaterOrEqual(t, carbonyl, 0)
	assert.Equal(t, 2, mol.Bond(carbonyl).Order)
	assert.Equal(t, 0, mol.Atom(1).ImplicitH)
	assert.Equal(t, 1, mol.Atom(3).ImplicitH)
}

func TestParseAromaticRing(t *testing.T) {
	mol, err := NewMolecule("c1ccccc1")
	require.NoError(t, err)

	assert.Equal(t, 6, mol.NumAtoms())
	assert.Equal(t, 6, mol.NumBonds())
	for i := 0; i < 6; i++ {
		assert.True(t, mol.Atom(i).Aromatic)
		assert.Equal(t, 1, mol.Atom(i).ImplicitH)
		assert.True(t, mol.atomInRing(i))
	}
	for i := 0; i < 6; i++ {
		assert.True(t, mol.Bond(i).InRing)
		assert.True(t, mol.Bond(i).Aromatic)
	}
}

func TestParsePyridineNitrogenHasNoHydrogen(t *testing.T) {
	mol, err := NewMolecule("c1ccncc1")
	require.NoError(t, err)

	for i := 0; i < mol.NumAtoms(); i++ {
		if mol.Atom(i).Symbol == "N" {
			assert.Equal(t, 0, mol.Atom(i).ImplicitH)
			return
		}
	}
	t.Fatal("no nitrogen found")
}

func TestParseBracketAtoms(t *testing.T) {
	tests := []struct {
		smiles  string
		symbol  string
		charge  int
		hcount  int
		isotope int
	}{
		{"[NH4+]", "N", 1, 4, 0},
		{"[O-]", "O", -1, 0, 0},
		{"[13CH4]", "C", 0, 4, 13},
		{"[Fe+3]", "Fe", 3, 0, 0},
		{"[nH]1cccc1", "N", 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.smiles, func(t *testing.T) {
			mol, err := NewMolecule(tt.smiles)
			require.NoError(t, err)
			a := mol.Atom(0)
			assert.Equal(t, tt.symbol, a.Symbol)
			assert.Equal(t, tt.charge, a.Charge)
			assert.Equal(t, tt.hcount, a.ImplicitH)
			assert.Equal(t, tt.isotope, a.Isotope)
		})
	}
}

func TestParseTwoDigitRingLabel(t *testing.T) {
	mol, err := NewMolecule("C%10CCCCC%10")
	require.NoError(t, err)

	assert.Equal(t, 6, mol.NumAtoms())
	assert.Equal(t, 6, mol.NumBonds())
	assert.True(t, mol.atomInRing(0))
}

func TestParseDisconnectedComponents(t *testing.T) {
	mol, err := NewMolecule("CCO.[Na+]")
	require.NoError(t, err)

	assert.Equal(t, 4, mol.NumAtoms())
	assert.Equal(t, 2, mol.NumBonds())
	assert.Equal(t, "Na", mol.Atom(3).Symbol)
}

func TestParseTwoLetterHalogens(t *testing.T) {
	mol, err := NewMolecule("ClCBr")
	require.NoError(t, err)

	assert.Equal(t, "Cl", mol.Atom(0).Symbol)
	assert.Equal(t, "Br", mol.Atom(2).Symbol)
}

func TestParseRejectsMalformedInput(t *testing.T) {
	bad := []string{
		"",
		"C1CC", // unclosed ring
		"C(CC", // unclosed branch
		"CC)",  // unmatched close
		"C==C", // doubled bond symbol
		"[Xx]", // unknown element
		"X",    // unknown organic atom
		"[C",   // unterminated bracket
		"=C",   // leading bond
		"C=",   // dangling bond
		"C11",  // ring bond to self
		"%1C",  // malformed percent label
		"[]",   // empty bracket
	}
	for _, smiles := range bad {
		t.Run(smiles, func(t *testing.T) {
			_, err := NewMolecule(smiles)
			require.Error(t, err, "expected %q to be rejected", smiles)
			assert.True(t, errors.IsCode(err, errors.CodeInvalidStructure))
		})
	}
}

func TestRingBondOrderFromEitherSide(t *testing.T) {
	// Cyclohexene written with the double bond on the ring closure digit.
	mol, err := NewMolecule("C=1CCCCC=1")
	require.NoError(t, err)

	closure := mol.bondBetween(0, 5)
	require.GreaterOrEqual(t, closure, 0)
	assert.Equal(t, 2, mol.Bond(closure).Order)
}

func TestAddHydrogens(t *testing.T) {
	mol, err := NewMolecule("CCO")
	require.NoError(t, err)

	mol.AddHydrogens()
	assert.Equal(t, 9, mol.NumAtoms())
	assert.Equal(t, 8, mol.NumBonds())
	assert.Equal(t, 0, mol.Atom(0).ImplicitH)
	assert.Equal(t, 1, mol.totalHydrogens(2))

	// Idempotent.
	mol.AddHydrogens()
	assert.Equal(t, 9, mol.NumAtoms())
}
