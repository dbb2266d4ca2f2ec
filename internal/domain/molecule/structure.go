package molecule

import (
	"strconv"
	"strings"

	"github.com/molvista/molvista/pkg/errors"
)

// minStructureLength is the minimum byte length a payload must have before
// it is considered a plausible CTAB file. Public sources occasionally return
// short error pages with a 200 status; the length floor rejects those.
const minStructureLength = 100

// ctabVersionMarkers are the recognized MDL connection-table format markers.
// A payload containing neither is treated as absent regardless of status code.
var ctabVersionMarkers = []string{"V2000", "V3000"}

// Structure is a validated 3D structure payload in MDL SDF/molfile format.
// Construct it only through NewStructure; a Structure value in circulation
// is always fully valid, never partially so.
type Structure struct {
	// Raw is the exact text returned by the source.
	Raw string

	// Source names the data source that produced the payload.
	Source string

	// AtomCount and BondCount come from the counts line of the CTAB header.
	// Zero when the counts line could not be parsed (V3000 payloads keep
	// counts elsewhere; they are not parsed here).
	AtomCount int
	BondCount int
}

// NewStructure validates raw payload text and returns a Structure.
// Validity is deliberately shallow: a minimum length and the presence of a
// recognized format-version marker. Anything failing either check is treated
// as absent, not as a partial result.
func NewStructure(raw, source string) (*Structure, error) {
	if len(raw) <= minStructureLength {
		return nil, errors.New(errors.ErrCodeStructureInvalid, "structure payload too short").
			WithDetail("len=" + strconv.Itoa(len(raw)))
	}

	marker := ""
	for _, m := range ctabVersionMarkers {
		if strings.Contains(raw, m) {
			marker = m
			break
		}
	}
	if marker == "" {
		return nil, errors.New(errors.ErrCodeStructureInvalid, "structure payload missing CTAB version marker")
	}

	s := &Structure{Raw: raw, Source: source}
	if marker == "V2000" {
		s.AtomCount, s.BondCount = parseCountsLine(raw)
	}
	return s, nil
}

// parseCountsLine extracts the atom and bond counts from a V2000 counts line
// (line 4 of the molfile header, fixed-width: columns 1-3 atoms, 4-6 bonds).
// Returns zeros on any shape mismatch; counts are display metadata only.
func parseCountsLine(raw string) (atoms, bonds int) {
	lines := strings.Split(raw, "\n")
	if len(lines) < 4 {
		return 0, 0
	}
	counts := lines[3]
	if len(counts) < 6 || !strings.Contains(counts, "V2000") {
		return 0, 0
	}
	a, err := strconv.Atoi(strings.TrimSpace(counts[0:3]))
	if err != nil {
		return 0, 0
	}
	b, err := strconv.Atoi(strings.TrimSpace(counts[3:6]))
	if err != nil {
		return a, 0
	}
	return a, b
}
