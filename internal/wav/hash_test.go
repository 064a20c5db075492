package wav

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashFileMatchesKnownDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.bin")
	require.NoError(t, os.WriteFile(path, []byte("shazoom"), 0o644))

	got, err := hashFile(path)
	require.NoError(t, err)
	// sha1("shazoom")
	require.Equal(t, "466b2344084c855167623c7dc3a861004c3946c5", got)
}

func TestHashFileIsDeterministic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 3*blockSize+17), 0o644))

	h1, err := hashFile(path)
	require.NoError(t, err)
	h2, err := hashFile(path)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}
