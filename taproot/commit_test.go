package taproot

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"

	"github.com/ordtools/inscribe/inscription"
)

func sampleInscriptions() []*inscription.Inscription {
	return []*inscription.Inscription{
		inscription.New("text/plain", []byte("hello")),
	}
}

func TestBuildProducesVerifiableAddress(t *testing.T) {
	commitment, err := Build(&chaincfg.RegressionNetParams, sampleInscriptions())
	require.NoError(t, err)
	require.NotEmpty(t, commitment.Address.EncodeAddress())
	require.NotEmpty(t, commitment.RevealScript)
	require.NotEmpty(t, commitment.ControlBlock)

	err = commitment.VerifyAddress(
		&chaincfg.RegressionNetParams, commitment.Address.EncodeAddress())
	require.NoError(t, err)
}

func TestBuildWithKeyIsDeterministic(t *testing.T) {
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	a, err := BuildWithKey(&chaincfg.RegressionNetParams, key, sampleInscriptions())
	require.NoError(t, err)

	b, err := BuildWithKey(&chaincfg.RegressionNetParams, key, sampleInscriptions())
	require.NoError(t, err)

	require.Equal(t, a.Address.EncodeAddress(), b.Address.EncodeAddress())
	require.Equal(t, a.RevealScript, b.RevealScript)
	require.Equal(t, a.ControlBlock, b.ControlBlock)
}

func TestVerifyAddressDetectsMismatch(t *testing.T) {
	commitment, err := Build(&chaincfg.RegressionNetParams, sampleInscriptions())
	require.NoError(t, err)

	other, err := Build(&chaincfg.RegressionNetParams, sampleInscriptions())
	require.NoError(t, err)

	err = commitment.VerifyAddress(
		&chaincfg.RegressionNetParams, other.Address.EncodeAddress())
	require.Error(t, err)
}
