package serve

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestParseSeed(t *testing.T) {
	seed, err := parseSeed([]string{"goods1.number=100", " user.lock =owner=1", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"goods1.number": "100",
		"user.lock":     "owner=1",
		"empty":         "",
	}, seed)

	_, err = parseSeed([]string{"novalue"})
	assert.Error(t, err)

	_, err = parseSeed([]string{"=1"})
	assert.Error(t, err)
}
