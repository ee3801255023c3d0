package batch

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/ordtools/inscribe/taproot"
)

// dummySchnorrSig is a placeholder Schnorr signature; BIP-340
// signatures are fixed at 64 bytes regardless of message or key, so
// this stands in exactly for the real one during fee estimation
// (§4.4 step 1).
var dummySchnorrSig = make([]byte, 64)

// EstimateRevealFee builds a dummy reveal transaction with the plan's
// real topology and witness sizes, and returns its virtual size and
// fee at the plan's reveal fee rate.
func EstimateRevealFee(
	p *Plan, commitment *taproot.Commitment,
) (vsize int64, fee btcutil.Amount, err error) {

	skeleton, err := BuildSkeleton(
		p, commitment, wire.OutPoint{}, 0,
	)
	if err != nil {
		return 0, 0, err
	}

	applyDummyWitnesses(skeleton, commitment)

	vsize = VSize(skeleton.Tx)
	fee = btcutil.Amount(vsize) * p.RevealFeeRate
	return vsize, fee, nil
}

// applyDummyWitnesses populates every reveal input with a
// size-accurate placeholder witness: the commit input carries the
// real reveal script and control block (their sizes are known and
// fixed once the commitment exists), every other input carries a
// single dummy signature, standing in for whatever the external
// wallet will eventually produce there.
func applyDummyWitnesses(skeleton *Skeleton, commitment *taproot.Commitment) {
	for i, in := range skeleton.Tx.TxIn {
		if i == skeleton.CommitInputIndex {
			in.Witness = wire.TxWitness{
				dummySchnorrSig,
				commitment.RevealScript,
				commitment.ControlBlock,
			}
			continue
		}
		in.Witness = wire.TxWitness{dummySchnorrSig}
	}
}

// TargetValue computes the commit output's required value per §4.4
// step 3: the reveal fee, plus the postage total the commit must seed
// (zero when the plan spends its own satpoints), plus one target
// postage for the premine output when the etching mints a premine.
func TargetValue(p *Plan, revealFee btcutil.Amount) btcutil.Amount {
	target := revealFee + p.totalPostage()

	if p.Etching != nil && p.EtchingPremine != nil && p.EtchingPremine.Sign() > 0 {
		target += TargetPostage
	}

	return target
}
