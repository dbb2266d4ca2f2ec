package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/molvista/molvista/pkg/errors"
)

func TestParseIdentifierFirstTokenOnly(t *testing.T) {
	id, err := ParseIdentifier("CCO this is ignored")
	require.NoError(t, err)
	assert.Equal(t, Identifier("CCO"), id)
}

func TestParseIdentifierTrimsWhitespace(t *testing.T) {
	id, err := ParseIdentifier("  \tC1=CC=CC=C1\n")
	require.NoError(t, err)
	assert.Equal(t, Identifier("C1=CC=CC=C1"), id)
}

func TestParseIdentifierRejectsEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		_, err := ParseIdentifier(input)
		require.Error(t, err, "input %q", input)
		assert.True(t, errors.IsCode(err, errors.ErrCodeMoleculeEmptyInput))
	}
}

func TestParseIdentifierRejectsInvalidCharacters(t *testing.T) {
	_, err := ParseIdentifier("CC{O}")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMoleculeInvalidSMILES))
}

func TestParseIdentifierBracketBalance(t *testing.T) {
	valid := []string{"CC(=O)O", "C[NH4+]", "c1ccccc1", "CC(C)(C)O"}
	for _, s := range valid {
		_, err := ParseIdentifier(s)
		assert.NoError(t, err, "input %q", s)
	}

	invalid := []string{"CC(=O", "C[NH4+", "CC)O", "C]C", "C(O]"}
	for _, s := range invalid {
		_, err := ParseIdentifier(s)
		require.Error(t, err, "input %q", s)
		assert.True(t, errors.IsCode(err, errors.ErrCodeMoleculeInvalidSMILES))
	}
}
