package checksum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSidecarRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("workbook bytes"), 0644))

	sum, err := WriteSidecar(path)
	require.NoError(t, err)
	assert.Len(t, sum, 64)

	ok, err := Verify(path)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("tampered"), 0644))
	ok, err = Verify(path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyWithoutSidecar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("workbook bytes"), 0644))
	_, err := Verify(path)
	assert.Error(t, err)
}
