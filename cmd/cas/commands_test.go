package cas

import (
	"github.com/ValentinKolb/dCAS/lib/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestParsePredicate(t *testing.T) {
	p, err := parsePredicate("older-version")
	require.NoError(t, err)
	assert.Equal(t, script.OlderVersion, p)

	p, err = parsePredicate("not-equal")
	require.NoError(t, err)
	assert.Equal(t, script.NotEqual, p)

	_, err = parsePredicate("newer")
	assert.Error(t, err)
}
