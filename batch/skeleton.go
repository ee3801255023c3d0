package batch

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/ordtools/inscribe/errs"
	"github.com/ordtools/inscribe/taproot"
)

// RevealTxVersion and RevealLocktime are fixed by the reveal skeleton
// contract (§4.3).
const (
	RevealTxVersion  = 2
	RevealLocktime   = 0
	rbfNoLockTime    = 0xfffffffd
	etchingMaturity  = CommitConfirmations - 1
	maxRunestoneSize = 82
)

// MaxStandardTxWeight is the standard relay policy weight ceiling for
// a reveal transaction. SignCommitInput enforces it on every signed
// reveal; the plan's NoLimit flag does not lift it.
const MaxStandardTxWeight = 400_000

// Skeleton is the reveal transaction template plus the bookkeeping
// the fee solver and signer need: which input is the commit input,
// and the full ordered prevout list for sighash computation.
type Skeleton struct {
	Tx               *wire.MsgTx
	Prevouts         []*wire.TxOut
	CommitInputIndex int
	RuneVout         *int
}

// commitPrevOutPlaceholder builds the commit input's prevout from the
// commitment's pkScript and the value the caller passed; during fee
// estimation that value is not yet the real one, and callers build a
// new skeleton once the commit transaction exists.
func commitPrevOutPlaceholder(pkScript []byte, value btcutil.Amount) *wire.TxOut {
	return &wire.TxOut{Value: int64(value), PkScript: pkScript}
}

// BuildSkeleton assembles the reveal transaction per the ordering
// rules in §4.3. commitOutpoint/commitValue describe the commit
// output this reveal spends; its pkScript always comes from
// commitment. During fee estimation the caller passes a zero outpoint
// and a zero value as stand-ins (neither changes the size), then
// rebuilds with the real values once known (§4.4 step 5-6).
func BuildSkeleton(
	p *Plan, commitment *taproot.Commitment,
	commitOutpoint wire.OutPoint, commitValue btcutil.Amount,
) (*Skeleton, error) {

	tx := wire.NewMsgTx(RevealTxVersion)
	tx.LockTime = RevealLocktime

	sequence := uint32(rbfNoLockTime)
	if p.Etching != nil {
		sequence = etchingMaturity
	}

	var prevouts []*wire.TxOut

	if p.ParentInfo != nil {
		tx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: p.ParentInfo.Satpoint.Outpoint,
			Sequence:         sequence,
		})
		prevouts = append(prevouts, &p.ParentInfo.TxOut)
	}

	if p.Mode == SatPoints {
		for _, rs := range p.RevealSatpoint {
			txOut := rs.TxOut
			tx.AddTxIn(&wire.TxIn{
				PreviousOutPoint: rs.Outpoint,
				Sequence:         sequence,
			})
			prevouts = append(prevouts, &txOut)
		}
	}

	commitInputIndex := len(tx.TxIn)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: commitOutpoint,
		Sequence:         sequence,
	})
	prevouts = append(prevouts, commitPrevOutPlaceholder(
		commitment.PkScript, commitValue,
	))

	if p.ParentInfo != nil {
		parentScript, err := txscript.PayToAddrScript(p.ParentInfo.Destination)
		if err != nil {
			return nil, errs.Wrapf(errs.Construction, err,
				"building parent destination script")
		}
		tx.AddTxOut(&wire.TxOut{
			Value:    p.ParentInfo.TxOut.Value,
			PkScript: parentScript,
		})
	}

	if err := addInscriptionOutputs(tx, p); err != nil {
		return nil, err
	}

	var runeVout *int
	if p.Etching != nil {
		if p.EtchingPremine != nil && p.EtchingPremine.Sign() > 0 {
			changeScript, err := txscript.PayToAddrScript(p.ChangeAddress)
			if err != nil {
				return nil, errs.Wrapf(errs.Construction, err,
					"building premine change script")
			}
			vout := len(tx.TxOut)
			runeVout = &vout
			tx.AddTxOut(&wire.TxOut{
				Value:    int64(TargetPostage),
				PkScript: changeScript,
			})
		}

		rs := etchingToRunestone(p)
		script, err := rs.IntoScript()
		if err != nil {
			return nil, errs.Wrap(errs.Construction, err)
		}
		if len(script) > maxRunestoneSize && !p.NoLimit {
			return nil, errs.Wrap(errs.Construction, fmt.Errorf(
				"runestone output is %d bytes, exceeds %d-byte limit",
				len(script), maxRunestoneSize))
		}
		tx.AddTxOut(&wire.TxOut{Value: 0, PkScript: script})
	}

	for i, out := range tx.TxOut {
		if out.Value == 0 {
			continue // OP_RETURN runestone, never dust-checked.
		}
		threshold := dustThreshold(out.PkScript)
		if btcutil.Amount(out.Value) < threshold {
			return nil, errs.Wrap(errs.Construction, fmt.Errorf(
				"output %d value %d below dust threshold %d",
				i, out.Value, threshold))
		}
	}

	return &Skeleton{
		Tx:               tx,
		Prevouts:         prevouts,
		CommitInputIndex: commitInputIndex,
		RuneVout:         runeVout,
	}, nil
}

func addInscriptionOutputs(tx *wire.MsgTx, p *Plan) error {
	switch p.Mode {
	case SeparateOutputs, SatPoints:
		for i, dest := range p.Destinations {
			script, err := txscript.PayToAddrScript(dest)
			if err != nil {
				return errs.Wrapf(errs.Construction, err,
					"building destination script for inscription %d", i)
			}
			tx.AddTxOut(&wire.TxOut{
				Value:    int64(p.postageFor(i)),
				PkScript: script,
			})
		}

	case SharedOutput:
		script, err := txscript.PayToAddrScript(p.Destinations[0])
		if err != nil {
			return errs.Wrapf(errs.Construction, err,
				"building shared destination script")
		}
		tx.AddTxOut(&wire.TxOut{
			Value:    int64(p.totalPostage()),
			PkScript: script,
		})

	case SameSat:
		script, err := txscript.PayToAddrScript(p.Destinations[0])
		if err != nil {
			return errs.Wrapf(errs.Construction, err,
				"building same-sat destination script")
		}
		tx.AddTxOut(&wire.TxOut{
			Value:    int64(p.postageFor(0)),
			PkScript: script,
		})
	}

	return nil
}

// dustThreshold reports the minimum economically relayable value for
// an output carrying pkScript, per the standard relay-policy
// constants for each output type at the default 3 sat/vb dust relay
// fee (no ecosystem library in the retrieval pack exposes this
// calculation, so it is reproduced directly from the published
// per-type constants rather than re-derived from first principles).
func dustThreshold(pkScript []byte) btcutil.Amount {
	switch {
	case txscript.IsPayToTaproot(pkScript), txscript.IsPayToWitnessScriptHash(pkScript):
		return 330
	case txscript.IsPayToWitnessPubKeyHash(pkScript):
		return 294
	case txscript.IsPayToScriptHash(pkScript):
		return 540
	default:
		return 546
	}
}

// Weight computes BIP-141 weight units for tx: (stripped size × 3) +
// total size.
func Weight(tx *wire.MsgTx) int64 {
	base := int64(tx.SerializeSizeStripped())
	total := int64(tx.SerializeSize())
	return base*3 + total
}

// VSize computes the virtual size (weight / 4, rounded up).
func VSize(tx *wire.MsgTx) int64 {
	return (Weight(tx) + 3) / 4
}
