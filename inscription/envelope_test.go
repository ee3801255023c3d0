package inscription

import (
	"bytes"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

func samplePrefix(t *testing.T) []byte {
	t.Helper()
	return []byte{0x01, 0x02} // stand-in for "<pubkey> OP_CHECKSIG"; irrelevant to envelope parsing.
}

func TestBuildLeafScriptDecodeRoundTrip(t *testing.T) {
	parentTxid, err := chainhash.NewHashFromStr(strings.Repeat("11", 32))
	require.NoError(t, err)
	parent := Id{TxId: *parentTxid, Index: 1}

	body := bytes.Repeat([]byte("hello ordinals"), 50)
	ins := New("text/plain", body,
		WithContentEncoding("br"),
		WithMetaprotocol("brc-20"),
		WithParents(parent),
		WithPointer(12345),
	)

	script, err := BuildLeafScript(samplePrefix(t), []*Inscription{ins})
	require.NoError(t, err)

	decoded, err := Decode(script)
	require.NoError(t, err)
	require.Len(t, decoded, 1)

	got := decoded[0]
	require.Equal(t, "text/plain", got.ContentType())
	require.Equal(t, "br", got.ContentEncoding())
	require.Equal(t, "brc-20", got.Metaprotocol())
	require.Equal(t, body, got.Body())
	require.Len(t, got.Parents(), 1)
	require.Equal(t, parent, got.Parents()[0])
	require.NotNil(t, got.Pointer())
	require.Equal(t, uint64(12345), *got.Pointer())
}

func TestBuildLeafScriptChunksLargeBody(t *testing.T) {
	body := bytes.Repeat([]byte{0xAB}, MaxPushBytes*3+17)
	ins := New("application/octet-stream", body)

	script, err := BuildLeafScript(samplePrefix(t), []*Inscription{ins})
	require.NoError(t, err)

	decoded, err := Decode(script)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	require.Equal(t, body, decoded[0].Body())
}

func TestBuildLeafScriptMetadataDoesNotLeakIntoBody(t *testing.T) {
	metadata := bytes.Repeat([]byte{0xCD}, MaxPushBytes+5)
	body := []byte("actual body")
	ins := New("text/plain", body, WithMetadata(metadata))

	script, err := BuildLeafScript(samplePrefix(t), []*Inscription{ins})
	require.NoError(t, err)

	decoded, err := Decode(script)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	require.Equal(t, metadata, decoded[0].Metadata())
	require.Equal(t, body, decoded[0].Body())
}

func TestBuildLeafScriptMultipleInscriptions(t *testing.T) {
	a := New("text/plain", []byte("first"))
	b := New("text/plain", []byte("second"))

	script, err := BuildLeafScript(samplePrefix(t), []*Inscription{a, b})
	require.NoError(t, err)

	decoded, err := Decode(script)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	require.Equal(t, []byte("first"), decoded[0].Body())
	require.Equal(t, []byte("second"), decoded[1].Body())
}

func TestDecodeRejectsMalformedScript(t *testing.T) {
	_, err := Decode([]byte{0x00})
	require.ErrorIs(t, err, ErrMalformedEnvelope)
}

func TestRuneIdRoundTrip(t *testing.T) {
	r := RuneId{Block: 840000, Tx: 7}
	ins := New("text/plain", []byte("rune carrier"), WithRune(r))

	script, err := BuildLeafScript(samplePrefix(t), []*Inscription{ins})
	require.NoError(t, err)

	decoded, err := Decode(script)
	require.NoError(t, err)
	require.Equal(t, r, *decoded[0].Rune())
}
