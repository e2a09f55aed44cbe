package chem

// Element holds the per-element constants used by the engine.  Masses are
// standard atomic weights in Dalton, radii in Angstrom.  Valence is the
// default bonding valence used to derive implicit hydrogen counts.
type Element struct {
	Symbol        string
	AtomicNumber  int
	Mass          float64
	CovalentRad   float64
	VdwRad        float64
	Valence       int
	Electroneg    float64
	OrganicSubset bool
}

// elements is indexed by symbol.  The set covers the elements that occur in
// drug-like small molecules plus the metals that show up as counter-ions in
// natural-product databases.
var elements = map[string]Element{
	"H":  {"H", 1, 1.008, 0.31, 1.10, 1, 2.20, false},
	"B":  {"B", 5, 10.811, 0.84, 1.92, 3, 2.04, true},
	"C":  {"C", 6, 12.011, 0.76, 1.70, 4, 2.55, true},
	"N":  {"N", 7, 14.007, 0.71, 1.55, 3, 3.04, true},
	"O":  {"O", 8, 15.999, 0.66, 1.52, 2, 3.44, true},
	"F":  {"F", 9, 18.998, 0.57, 1.47, 1, 3.98, true},
	"Na": {"Na", 11, 22.990, 1.66, 2.27, 1, 0.93, false},
	"Mg": {"Mg", 12, 24.305, 1.41, 1.73, 2, 1.31, false},
	"Si": {"Si", 14, 28.086, 1.11, 2.10, 4, 1.90, false},
	"P":  {"P", 15, 30.974, 1.07, 1.80, 3, 2.19, true},
	"S":  {"S", 16, 32.066, 1.05, 1.80, 2, 2.58, true},
	"Cl": {"Cl", 17, 35.453, 1.02, 1.75, 1, 3.16, true},
	"K":  {"K", 19, 39.098, 2.03, 2.75, 1, 0.82, false},
	"Ca": {"Ca", 20, 40.078, 1.76, 2.31, 2, 1.00, false},
	"Fe": {"Fe", 26, 55.845, 1.32, 2.05, 3, 1.83, false},
	"Cu": {"Cu", 29, 63.546, 1.32, 2.00, 2, 1.90, false},
	"Zn": {"Zn", 30, 65.380, 1.22, 2.10, 2, 1.65, false},
	"As": {"As", 33, 74.922, 1.19, 1.85, 3, 2.18, false},
	"Se": {"Se", 34, 78.971, 1.20, 1.90, 2, 2.55, false},
	"Br": {"Br", 35, 79.904, 1.20, 1.85, 1, 2.96, true},
	"I":  {"I", 53, 126.904, 1.39, 1.98, 1, 2.66, true},
}

// aromaticSymbols maps the lowercase aromatic atom tokens accepted inside
// and outside brackets to their element symbols.
var aromaticSymbols = map[string]string{
	"b":  "B",
	"c":  "C",
	"n":  "N",
	"o":  "O",
	"p":  "P",
	"s":  "S",
	"se": "Se",
	"as": "As",
}

// lookupElement returns the Element record for a symbol.
func lookupElement(symbol string) (Element, bool) {
	e, ok := elements[symbol]
	return e, ok
}

// defaultValence returns the bonding valence for an element adjusted by
// formal charge.  Charged nitrogen bonds like carbon, charged oxygen like
// nitrogen, and so on down the group.
func defaultValence(symbol string, charge int) int {
	e, ok := elements[symbol]
	if !ok {
		return 0
	}
	v := e.Valence
	switch symbol {
	case "N", "P":
		v += charge
	case "O", "S":
		v += charge
	case "B":
		v -= charge
	case "C":
		if charge != 0 {
			v -= 1
		}
	}
	if v < 0 {
		v = 0
	}
	return v
}
