package molecule

import (
	"fmt"
	"strings"
)

// Info is the descriptive block returned alongside property predictions:
// formula, molecular weight, and simple structural counts. When a fetched 3D
// structure is available its exact atom/bond counts take precedence over the
// SMILES heuristics.
type Info struct {
	Formula         string  `json:"formula"`
	MolecularWeight float64 `json:"molecular_weight"`
	NumAtoms        int     `json:"num_atoms"`
	NumBonds        int     `json:"num_bonds"`
	NumRings        int     `json:"num_rings"`
	Aromatic        bool    `json:"aromatic"`
}

// InfoFromIdentifier derives molecule metadata from a SMILES identifier using
// simplified character-count heuristics. This is not a cheminformatics
// engine; a production system would use RDKit or an equivalent library. The
// values are display metadata, matching the simplified descriptors the rest
// of the domain layer computes.
func InfoFromIdentifier(id Identifier) Info {
	smiles := id.String()

	cCount := strings.Count(smiles, "C") + strings.Count(smiles, "c") - strings.Count(smiles, "Cl")
	nCount := strings.Count(smiles, "N") + strings.Count(smiles, "n")
	oCount := strings.Count(smiles, "O") + strings.Count(smiles, "o")

	// Ring-closure digits come in pairs; each pair closes one ring.
	ringDigits := 0
	for _, ch := range smiles {
		if ch >= '1' && ch <= '9' {
			ringDigits++
		}
	}
	rings := ringDigits / 2

	aromatic := strings.ContainsAny(smiles, "cnos")

	atoms := cCount + nCount + oCount
	// Acyclic connected graph has atoms-1 bonds; each ring adds one.
	bonds := 0
	if atoms > 0 {
		bonds = atoms - 1 + rings
	}

	// C=12, N=14, O=16, matching the simplified molecular-weight estimate
	// used by the property layer.
	weight := float64(cCount)*12.0 + float64(nCount)*14.0 + float64(oCount)*16.0

	return Info{
		Formula:         buildFormula(cCount, nCount, oCount),
		MolecularWeight: weight,
		NumAtoms:        atoms,
		NumBonds:        bonds,
		NumRings:        rings,
		Aromatic:        aromatic,
	}
}

// WithStructure returns a copy of the Info with atom and bond counts replaced
// by the exact values from a fetched structure, when present.
func (i Info) WithStructure(s *Structure) Info {
	if s == nil {
		return i
	}
	if s.AtomCount > 0 {
		i.NumAtoms = s.AtomCount
	}
	if s.BondCount > 0 {
		i.NumBonds = s.BondCount
	}
	return i
}

// buildFormula renders a Hill-ordered formula string (C first, then the
// remaining elements alphabetically) from the element counts.
func buildFormula(c, n, o int) string {
	var sb strings.Builder
	appendElem := func(sym string, count int) {
		if count == 0 {
			return
		}
		sb.WriteString(sym)
		if count > 1 {
			fmt.Fprintf(&sb, "%d", count)
		}
	}
	appendElem("C", c)
	appendElem("N", n)
	appendElem("O", o)
	return sb.String()
}
