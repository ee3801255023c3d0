package batch

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/ordtools/inscribe/errs"
	"github.com/ordtools/inscribe/taproot"
)

// SignCommitInput computes the BIP-341 script-path sighash for the
// reveal transaction's commit input and signs it with the commitment's
// untweaked internal key (§4.5: script-path spends sign with the
// internal key, never the tweaked one), then populates the witness
// stack in the required order.
func SignCommitInput(skeleton *Skeleton, commitment *taproot.Commitment) error {
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
	if err != nil {
		return errs.Wrap(errs.Cryptographic, fmt.Errorf(
			"computing reveal script-path sighash: %w", err))
	}

	sig, err := schnorrSign(commitment.InternalKey, sigHash)
	if err != nil {
		return errs.Wrap(errs.Cryptographic, err)
	}

	skeleton.Tx.TxIn[skeleton.CommitInputIndex].Witness = wire.TxWitness{
		sig.Serialize(),
		commitment.RevealScript,
		commitment.ControlBlock,
	}

	if Weight(skeleton.Tx) > MaxStandardTxWeight {
		return errs.Wrap(errs.Construction, fmt.Errorf(
			"signed reveal transaction weight %d exceeds %d WU",
			Weight(skeleton.Tx), MaxStandardTxWeight))
	}

	return nil
}

func schnorrSign(key *btcec.PrivateKey, hash []byte) (*schnorr.Signature, error) {
	return schnorr.Sign(key, hash)
}

// AuxiliaryPrevOuts returns the prevout table (excluding the commit
// input) that the external wallet needs to sign the parent/satpoint
// inputs via sign-raw-transaction-with-wallet (§4.5, second paragraph).
func AuxiliaryPrevOuts(skeleton *Skeleton) map[wire.OutPoint]*wire.TxOut {
	out := make(map[wire.OutPoint]*wire.TxOut, len(skeleton.Tx.TxIn)-1)
	for i, in := range skeleton.Tx.TxIn {
		if i == skeleton.CommitInputIndex {
			continue
		}
		out[in.PreviousOutPoint] = skeleton.Prevouts[i]
	}
	return out
}
