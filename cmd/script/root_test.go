package script

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func TestFormatReply(t *testing.T) {
	assert.Equal(t, "(nil)", formatReply(nil))
	assert.Equal(t, "(integer) -1", formatReply(int64(-1)))
	assert.Equal(t, `"RELEASED"`, formatReply("RELEASED"))
	assert.Equal(t, "(empty array)", formatReply([]interface{}{}))
	assert.Equal(t, "1) \"a\"\n2) (integer) 2", formatReply([]interface{}{"a", int64(2)}))
}

func TestReadSource(t *testing.T) {
	src, err := readSource("return 1")
	require.NoError(t, err)
	assert.Equal(t, "return 1", src)

	path := filepath.Join(t.TempDir(), "release.lua")
	require.NoError(t, os.WriteFile(path, []byte("return KEYS[1]"), 0o600))

	src, err = readSource("@" + path)
	require.NoError(t, err)
	assert.Equal(t, "return KEYS[1]", src)

	_, err = readSource("@" + filepath.Join(t.TempDir(), "missing.lua"))
	assert.Error(t, err)
}
