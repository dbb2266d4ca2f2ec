// Package molecule provides the core domain model for the MolVista service:
// SMILES identifiers, 3D structure payloads in MDL CTAB format, and the
// simplified molecule descriptors derived from them.
package molecule

import (
	"regexp"
	"strings"

	"github.com/molvista/molvista/pkg/errors"
)

// Identifier is a validated SMILES-like identifier. It is treated as an
// opaque token by the retrieval pipeline; only basic well-formedness is
// checked here.
type Identifier string

func (id Identifier) String() string { return string(id) }

// validSMILESChars defines the allowed character set for SMILES notation.
// This is a simplified check; full SMILES validation requires a parser.
var validSMILESChars = regexp.MustCompile(`^[A-Za-z0-9@+\-\[\]()=#/\\%.*]+$`)

// ParseIdentifier extracts and validates a molecule identifier from raw user
// input. Only the first whitespace-separated token is significant; anything
// after it is discarded. Empty or whitespace-only input is invalid.
func ParseIdentifier(raw string) (Identifier, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", errors.New(errors.ErrCodeMoleculeEmptyInput, "molecule identifier cannot be empty")
	}

	token := fields[0]
	if !validSMILESChars.MatchString(token) {
		return "", errors.New(errors.ErrCodeMoleculeInvalidSMILES, "SMILES contains invalid characters").
			WithDetail("input=" + token)
	}
	if err := validateBrackets(token); err != nil {
		return "", err
	}

	return Identifier(token), nil
}

// validateBrackets checks that all brackets in the SMILES string are balanced.
func validateBrackets(smiles string) error {
	var stack []rune
	closers := map[rune]rune{
		')': '(',
		']': '[',
	}

	for _, ch := range smiles {
		switch ch {
		case '(', '[':
			stack = append(stack, ch)
		case ')', ']':
			if len(stack) == 0 || stack[len(stack)-1] != closers[ch] {
				return errors.New(errors.ErrCodeMoleculeInvalidSMILES, "unmatched brackets in SMILES").
					WithDetail("input=" + smiles)
			}
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) != 0 {
		return errors.New(errors.ErrCodeMoleculeInvalidSMILES, "unclosed brackets in SMILES").
			WithDetail("input=" + smiles)
	}

	return nil
}
