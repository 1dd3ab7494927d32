package walog_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/valori-dev/valori/pkg/walog"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")

	w, err := walog.Create(path, walog.Header{Encoding: walog.EncodingCommands, Dim: 4, ChecksumLen: walog.DefaultChecksumLen})
	require.NoError(t, err)

	require.NoError(t, w.Append([]byte("first batch")))
	require.NoError(t, w.Append([]byte("second batch")))
	require.NoError(t, w.Close())

	r, err := walog.Open(path)
	require.NoError(t, err)
	require.Equal(t, uint32(4), r.Header.Dim)

	frames, err := r.ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("first batch"), []byte("second batch")}, frames)
}

func TestRead_EmptyLogIsCleanEOF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")

	w, err := walog.Create(path, walog.Header{Encoding: walog.EncodingCommands, Dim: 1, ChecksumLen: walog.DefaultChecksumLen})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := walog.Open(path)
	require.NoError(t, err)

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestRead_TruncatedTrailingFrameIsIncompleteNotFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")

	w, err := walog.Create(path, walog.Header{Encoding: walog.EncodingCommands, Dim: 1, ChecksumLen: walog.DefaultChecksumLen})
	require.NoError(t, err)
	require.NoError(t, w.Append([]byte("complete")))
	require.NoError(t, w.Close())

	data, err := readAndTruncate(path, 3)
	require.NoError(t, err)

	r, err := walog.OpenBytes(data)
	require.NoError(t, err)

	frames, err := r.ReadAll()
	require.NoError(t, err, "a truncated trailing frame must not fail the whole replay")
	require.Empty(t, frames)
}

func TestRead_CorruptChecksumIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")

	w, err := walog.Create(path, walog.Header{Encoding: walog.EncodingCommands, Dim: 1, ChecksumLen: walog.DefaultChecksumLen})
	require.NoError(t, err)
	require.NoError(t, w.Append([]byte("payload")))
	require.NoError(t, w.Close())

	data, err := readAndTruncate(path, 0)
	require.NoError(t, err)

	data[len(data)-1] ^= 0xFF // flip a byte inside the checksum

	r, err := walog.OpenBytes(data)
	require.NoError(t, err)

	_, err = r.ReadAll()
	require.True(t, errors.Is(err, walog.ErrCorrupt))
}

func readAndTruncate(path string, cut int) ([]byte, error) {
	full, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if cut <= 0 {
		return full, nil
	}

	return full[:len(full)-cut], nil
}
