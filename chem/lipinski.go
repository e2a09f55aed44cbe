package chem

import "fmt"

// Lipinski rule-of-five thresholds.
const (
	lipinskiMaxWeight    = 500.0
	lipinskiMaxLogP      = 5.0
	lipinskiMaxDonors    = 5
	lipinskiMaxAcceptors = 10
)

// LipinskiProfile is the outcome of rule-of-five screening.
type LipinskiProfile struct {
	// Properties are the descriptor values the rules were evaluated on.
	Properties PropertyRecord `json:"properties"`

	// Violations counts the rules the molecule breaks (0 to 4).
	Violations int `json:"violations"`

	// Details describes each broken rule, one entry per violation.
	Details []string `json:"details"`

	// Passed is true when the molecule breaks at most one rule.
	Passed bool `json:"passed"`
}

// Conclusion returns "Pass" or "Fail" for report output.
func (p LipinskiProfile) Conclusion() string {
	if p.Passed {
		return "Pass"
	}
	return "Fail"
}

// Lipinski evaluates the rule of five against the molecule's descriptors.
// The evaluation is a pure function of Properties: identical descriptor
// values always yield the identical profile.
func (m *Molecule) Lipinski() LipinskiProfile {
	return EvaluateLipinski(m.Properties())
}

// EvaluateLipinski applies the rule of five to an existing descriptor
// record.  Exposed separately so callers holding scraped or precomputed
// property values can screen them without reparsing a structure.
func EvaluateLipinski(props PropertyRecord) LipinskiProfile {
	profile := LipinskiProfile{Properties: props}

	if props.MolecularWeight > lipinskiMaxWeight {
		profile.Details = append(profile.Details,
			fmt.Sprintf("molecular weight %.2f exceeds %.0f", props.MolecularWeight, lipinskiMaxWeight))
	}
	if props.LogP > lipinskiMaxLogP {
		profile.Details = append(profile.Details,
			fmt.Sprintf("LogP %.2f exceeds %.0f", props.LogP, lipinskiMaxLogP))
	}
	if props.NumHDonors > lipinskiMaxDonors {
		profile.Details = append(profile.Details,
			fmt.Sprintf("%d hydrogen bond donors exceed %d", props.NumHDonors, lipinskiMaxDonors))
	}
	if props.NumHAcceptors > lipinskiMaxAcceptors {
		profile.Details = append(profile.Details,
			fmt.Sprintf("%d hydrogen bond acceptors exceed %d", props.NumHAcceptors, lipinskiMaxAcceptors))
	}

	profile.Violations = len(profile.Details)
	profile.Passed = profile.Violations <= 1
	return profile
}
