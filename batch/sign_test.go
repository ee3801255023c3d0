package batch

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/ordtools/inscribe/inscription"
)

func TestSignCommitInputProducesValidWitness(t *testing.T) {
	p, commitment := samplePlan(t)

	skeleton, err := BuildSkeleton(p, commitment, wire.OutPoint{Index: 1}, TargetPostage+5000)
	require.NoError(t, err)

	err = SignCommitInput(skeleton, commitment)
	require.NoError(t, err)

	witness := skeleton.Tx.TxIn[skeleton.CommitInputIndex].Witness
	require.Len(t, witness, 3)
	require.Equal(t, commitment.RevealScript, []byte(witness[1]))
	require.Equal(t, commitment.ControlBlock, []byte(witness[2]))

	sig, err := schnorr.ParseSignature(witness[0])
	require.NoError(t, err)

	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, in := range skeleton.Tx.TxIn {
		fetcher.AddPrevOut(in.PreviousOutPoint, skeleton.Prevouts[i])
	}
	sigHashes := txscript.NewTxSigHashes(skeleton.Tx, fetcher)
	leaf := txscript.NewBaseTapLeaf(commitment.RevealScript)
	sigHash, err := txscript.CalcTapscriptSignaturehash(
		sigHashes, txscript.SigHashDefault, skeleton.Tx,
		skeleton.CommitInputIndex, fetcher, leaf,
	)
	require.NoError(t, err)

	require.True(t, sig.Verify(sigHash, commitment.InternalKey.PubKey()))
}

func TestAuxiliaryPrevOutsExcludesCommitInput(t *testing.T) {
	p, commitment := samplePlan(t)
	p.ParentInfo = &ParentInfo{
		Satpoint:    inscription.SatPoint{Outpoint: wire.OutPoint{Index: 4}},
		TxOut:       wire.TxOut{Value: 10_000, PkScript: []byte{0x51}},
		Destination: mustAddress(t),
	}

	skeleton, err := BuildSkeleton(p, commitment, wire.OutPoint{Index: 2}, TargetPostage+5000)
	require.NoError(t, err)

	aux := AuxiliaryPrevOuts(skeleton)
	require.Len(t, aux, 1)
}
