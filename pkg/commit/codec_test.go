package commit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/valori-dev/valori/pkg/commit"
	"github.com/valori-dev/valori/pkg/fxp"
	"github.com/valori-dev/valori/pkg/kernel"
	"github.com/valori-dev/valori/pkg/vecmath"
)

func TestEncodeDecodeBatch_RoundTrip(t *testing.T) {
	one, err := fxp.FromFloat32(1)
	require.NoError(t, err)

	cmds := []kernel.Command{
		kernel.InsertRecord{Vector: vecmath.Vector{one, 0}, Tag: 7, HasTag: true},
		kernel.SoftDeleteRecord{ID: 0},
		kernel.CreateNode{Kind: 3, Record: 1, HasRecord: true},
		kernel.DeleteNode{ID: 2},
		kernel.CreateEdge{Kind: 1, From: 0, To: 1},
		kernel.DeleteEdge{ID: 5},
		kernel.SetMetadata{ID: 0, Value: []byte("hello world")},
	}

	payload := commit.EncodeBatch(cmds)

	decoded, err := commit.DecodeBatch(payload)
	require.NoError(t, err)
	require.Equal(t, cmds, decoded)
}

func TestDecodeBatch_TruncatedIsCorrupt(t *testing.T) {
	cmds := []kernel.Command{kernel.SoftDeleteRecord{ID: 9}}
	payload := commit.EncodeBatch(cmds)

	_, err := commit.DecodeBatch(payload[:len(payload)-1])
	require.ErrorIs(t, err, kernel.ErrCorrupt)
}
