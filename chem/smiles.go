package chem

import (
	"strings"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
)

// pendingBond carries the bond symbol seen since the last atom.
type pendingBond struct {
	order    int
	aromatic bool
	explicit bool
}

// ringRef records the first occurrence of a ring-closure label.
type ringRef struct {
	atom int
	bond pendingBond
}

type smilesParser struct {
	input string
	pos   int

	mol *Molecule

	// fromBracket marks atoms whose hydrogen count was given explicitly,
	// exempting them from implicit-H assignment.
	fromBracket []bool

	prev    int
	pending pendingBond
	stack   []int
	rings   map[int]ringRef
}

// parseSMILES builds the molecular graph for a SMILES string.
func parseSMILES(smiles string) (*Molecule, error) {
	p := &smilesParser{
		input: smiles,
		mol:   &Molecule{smiles: smiles},
		prev:  -1,
		rings: make(map[int]ringRef),
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	p.assignImplicitHydrogens()
	return p.mol, nil
}

func (p *smilesParser) fail(msg string) error {
	return errors.InvalidStructure("invalid SMILES string: " + msg).
		WithDetail(p.input)
}

func (p *smilesParser) run() error {
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch {
		case c == '(':
			if p.prev < 0 {
				return p.fail("branch before any atom")
			}
			p.stack = append(p.stack, p.prev)
			p.pos++
		case c == ')':
			if len(p.stack) == 0 {
				return p.fail("unmatched closing parenthesis")
			}
			p.prev = p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			p.pos++
		case c == '-' || c == '=' || c == '#' || c == ':' || c == '/' || c == '\\':
			if p.pending.explicit {
				return p.fail("consecutive bond symbols")
			}
			p.pending = bondFromSymbol(c)
			p.pos++
		case c == '.':
			if p.pending.explicit {
				return p.fail("bond symbol before dot")
			}
			p.prev = -1
			p.pos++
		case c >= '0' && c <= '9':
			if err := p.closeRing(int(c - '0')); err != nil {
				return err
			}
			p.pos++
		case c == '%':
			if p.pos+2 >= len(p.input) ||
				!isDigit(p.input[p.pos+1]) || !isDigit(p.input[p.pos+2]) {
				return p.fail("malformed %nn ring label")
			}
			label := int(p.input[p.pos+1]-'0')*10 + int(p.input[p.pos+2]-'0')
			if err := p.closeRing(label); err != nil {
				return err
			}
			p.pos += 3
		case c == '[':
			if err := p.parseBracketAtom(); err != nil {
				return err
			}
		default:
			if err := p.parseOrganicAtom(); err != nil {
				return err
			}
		}
	}
	if len(p.stack) != 0 {
		return p.fail("unclosed branch")
	}
	if len(p.rings) != 0 {
		return p.fail("unclosed ring bond")
	}
	if p.pending.explicit {
		return p.fail("dangling bond symbol")
	}
	if len(p.mol.atoms) == 0 {
		return p.fail("no atoms")
	}
	return nil
}

func bondFromSymbol(c byte) pendingBond {
	switch c {
	case '=':
		return pendingBond{order: 2, explicit: true}
	case '#':
		return pendingBond{order: 3, explicit: true}
	case ':':
		return pendingBond{order: 1, aromatic: true, explicit: true}
	default:
		// '-', '/', '\' are all single bonds here; cis/trans marks are
		// accepted but not interpreted.
		return pendingBond{order: 1, explicit: true}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

func isLower(c byte) bool { return c >= 'a' && c <= 'z' }

// addAtom appends the atom, bonds it to the previous atom and makes it the
// new chain head.
func (p *smilesParser) addAtom(a Atom, bracket bool) {
	p.mol.atoms = append(p.mol.atoms, a)
	p.mol.adjacency = append(p.mol.adjacency, nil)
	p.fromBracket = append(p.fromBracket, bracket)
	idx := len(p.mol.atoms) - 1

	if p.prev >= 0 {
		b := Bond{A1: p.prev, A2: idx, Order: 1}
		if p.pending.explicit {
			b.Order = p.pending.order
			b.Aromatic = p.pending.aromatic
		} else if p.mol.atoms[p.prev].Aromatic && a.Aromatic {
			b.Aromatic = true
		}
		p.mol.addBond(b)
	}
	p.pending = pendingBond{}
	p.prev = idx
}

func (p *smilesParser) closeRing(label int) error {
	if p.prev < 0 {
		return p.fail("ring label before any atom")
	}
	ref, open := p.rings[label]
	if !open {
		p.rings[label] = ringRef{atom: p.prev, bond: p.pending}
		p.pending = pendingBond{}
		return nil
	}
	delete(p.rings, label)
	if ref.atom == p.prev {
		return p.fail("ring bond to self")
	}
	bond := Bond{A1: ref.atom, A2: p.prev, Order: 1}
	switch {
	case ref.bond.explicit && p.pending.explicit:
		if ref.bond != p.pending {
			return p.fail("conflicting ring bond orders")
		}
		bond.Order = p.pending.order
		bond.Aromatic = p.pending.aromatic
	case ref.bond.explicit:
		bond.Order = ref.bond.order
		bond.Aromatic = ref.bond.aromatic
	case p.pending.explicit:
		bond.Order = p.pending.order
		bond.Aromatic = p.pending.aromatic
	default:
		if p.mol.atoms[ref.atom].Aromatic && p.mol.atoms[p.prev].Aromatic {
			bond.Aromatic = true
		}
	}
	if p.mol.bondBetween(ref.atom, p.prev) >= 0 {
		return p.fail("duplicate ring bond")
	}
	p.mol.addBond(bond)
	p.pending = pendingBond{}
	return nil
}

// parseOrganicAtom handles atoms written without brackets: B C N O P S F I
// plus the two-letter halogens and the aromatic lowercase forms.
func (p *smilesParser) parseOrganicAtom() error {
	c := p.input[p.pos]
	switch {
	case isUpper(c):
		symbol := string(c)
		if p.pos+1 < len(p.input) {
			two := p.input[p.pos : p.pos+2]
			if two == "Cl" || two == "Br" {
				symbol = two
			}
		}
		e, ok := lookupElement(symbol)
		if !ok || !e.OrganicSubset {
			return p.fail("unknown atom symbol " + symbol)
		}
		p.addAtom(Atom{Symbol: symbol, AtomicNumber: e.AtomicNumber}, false)
		p.pos += len(symbol)
		return nil
	case isLower(c):
		symbol, ok := aromaticSymbols[string(c)]
		if !ok {
			return p.fail("unknown aromatic atom " + string(c))
		}
		e, _ := lookupElement(symbol)
		if !e.OrganicSubset {
			return p.fail("aromatic " + symbol + " requires brackets")
		}
		p.addAtom(Atom{Symbol: symbol, AtomicNumber: e.AtomicNumber, Aromatic: true}, false)
		p.pos++
		return nil
	default:
		return p.fail("unexpected character " + string(c))
	}
}

// parseBracketAtom handles [isotope]symbol[chirality][Hn][charge][:map].
func (p *smilesParser) parseBracketAtom() error {
	end := strings.IndexByte(p.input[p.pos:], ']')
	if end < 0 {
		return p.fail("unterminated bracket atom")
	}
	body := p.input[p.pos+1 : p.pos+end]
	p.pos += end + 1
	if body == "" {
		return p.fail("empty bracket atom")
	}

	var a Atom
	i := 0

	for i < len(body) && isDigit(body[i]) {
		a.Isotope = a.Isotope*10 + int(body[i]-'0')
		i++
	}

	if i >= len(body) {
		return p.fail("bracket atom without element")
	}
	switch {
	case isUpper(body[i]):
		symbol := string(body[i])
		if i+1 < len(body) && isLower(body[i+1]) {
			if _, ok := lookupElement(symbol + string(body[i+1])); ok {
				symbol += string(body[i+1])
			}
		}
		e, ok := lookupElement(symbol)
		if !ok {
			return p.fail("unknown element " + symbol)
		}
		a.Symbol = symbol
		a.AtomicNumber = e.AtomicNumber
		i += len(symbol)
	case isLower(body[i]):
		sym := string(body[i])
		if i+1 < len(body) && isLower(body[i+1]) {
			if _, ok := aromaticSymbols[sym+string(body[i+1])]; ok {
				sym += string(body[i+1])
			}
		}
		mapped, ok := aromaticSymbols[sym]
		if !ok {
			return p.fail("unknown aromatic element " + sym)
		}
		e, _ := lookupElement(mapped)
		a.Symbol = mapped
		a.AtomicNumber = e.AtomicNumber
		a.Aromatic = true
		i += len(sym)
	default:
		return p.fail("bad bracket atom " + body)
	}

	// Chirality marks are accepted and discarded.
	for i < len(body) && body[i] == '@' {
		i++
	}

	if i < len(body) && body[i] == 'H' {
		i++
		a.ImplicitH = 1
		if i < len(body) && isDigit(body[i]) {
			a.ImplicitH = int(body[i] - '0')
			i++
		}
	}

	if i < len(body) && (body[i] == '+' || body[i] == '-') {
		sign := 1
		if body[i] == '-' {
			sign = -1
		}
		mark := body[i]
		n := 1
		i++
		for i < len(body) && body[i] == mark {
			n++
			i++
		}
		if i < len(body) && isDigit(body[i]) {
			if n != 1 {
				return p.fail("bad charge syntax in " + body)
			}
			n = 0
			for i < len(body) && isDigit(body[i]) {
				n = n*10 + int(body[i]-'0')
				i++
			}
		}
		a.Charge = sign * n
	}

	if i < len(body) && body[i] == ':' {
		i++
		if i >= len(body) || !isDigit(body[i]) {
			return p.fail("bad atom map in " + body)
		}
		for i < len(body) && isDigit(body[i]) {
			i++
		}
	}

	if i != len(body) {
		return p.fail("trailing characters in bracket atom " + body)
	}

	p.addAtom(a, true)
	return nil
}

// assignImplicitHydrogens fills ImplicitH for organic-subset atoms.  An
// aliphatic atom receives valence minus the sum of its bond orders; an
// aromatic atom additionally donates one electron to the ring system, so a
// two-connected aromatic carbon ends up with a single hydrogen.
func (p *smilesParser) assignImplicitHydrogens() {
	for i := range p.mol.atoms {
		if p.fromBracket[i] {
			continue
		}
		a := &p.mol.atoms[i]
		sum := 0
		for _, bi := range p.mol.adjacency[i] {
			sum += p.mol.bonds[bi].Order
		}
		h := defaultValence(a.Symbol, a.Charge) - sum
		if a.Aromatic {
			h--
		}
		if h < 0 {
			h = 0
		}
		a.ImplicitH = h
	}
}
