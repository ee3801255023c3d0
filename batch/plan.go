// Package batch turns a BatchPlan into a signed, fee-accurate reveal
// transaction paired with the commit output it spends.
package batch

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/ordtools/inscribe/errs"
	"github.com/ordtools/inscribe/inscription"
	"github.com/ordtools/inscribe/rune"
)

// Mode is the closed set of reveal output layouts a plan may request.
// It is a sum type: each variant's arity rules are checked once, at
// construction, rather than scattered across every call site that
// touches a plan.
type Mode int

const (
	// SeparateOutputs gives every inscription its own reveal output.
	SeparateOutputs Mode = iota

	// SharedOutput gives every inscription the same single reveal
	// output, valued at the sum of their postages.
	SharedOutput

	// SameSat stacks every inscription on the same satoshi of a
	// single reveal output.
	SameSat

	// SatPoints spends explicit pre-existing satpoints as additional
	// reveal inputs, one per inscription, each with its own output.
	SatPoints
)

func (m Mode) String() string {
	switch m {
	case SeparateOutputs:
		return "separate-outputs"
	case SharedOutput:
		return "shared-output"
	case SameSat:
		return "same-sat"
	case SatPoints:
		return "satpoints"
	default:
		return "unknown"
	}
}

// TargetPostage is the original's fallback reveal-output value when a
// plan does not specify one explicitly.
const TargetPostage = btcutil.Amount(10_000)

// CommitConfirmations is the number of confirmations an etching
// commit must reach before the reveal is valid; it drives the
// sequence-number floor on etching reveal transactions.
const CommitConfirmations = 6

// ParentInfo links a batch of inscriptions to a parent inscription
// that must be resent alongside them.
type ParentInfo struct {
	Id          inscription.Id
	Satpoint    inscription.SatPoint
	TxOut       wire.TxOut
	Destination btcutil.Address
}

// RevealSatpoint is a UTXO that mode=SatPoints spends directly as a
// reveal input, bypassing the commit/reveal split for that position.
type RevealSatpoint struct {
	Outpoint wire.OutPoint
	TxOut    wire.TxOut
}

// Plan is the parameter set driving one inscribe flow.
type Plan struct {
	CommitFeeRate  btcutil.Amount
	RevealFeeRate  btcutil.Amount
	Destinations   []btcutil.Address
	Inscriptions   []*inscription.Inscription
	Postages       []btcutil.Amount
	Mode           Mode
	ParentInfo     *ParentInfo
	RevealSatpoint []RevealSatpoint
	Etching        *rune.Etching
	EtchingPremine *big.Int
	ChangeAddress  btcutil.Address
	Satpoint       *inscription.SatPoint

	Reinscribe bool
	NoBackup   bool
	NoLimit    bool
	DryRun     bool

	// DumpOutputPath is carried on the plan but read by no flow: no
	// PSBT is written to disk; DryRun only returns them in its Result.
	DumpOutputPath string
}

// Validate enforces the arity invariants for the plan's mode (§3).
func (p *Plan) Validate() error {
	if p.CommitFeeRate <= 0 || p.RevealFeeRate <= 0 {
		return errs.Wrap(errs.InputValidation,
			fmt.Errorf("fee rates must be strictly positive"))
	}

	switch p.Mode {
	case SeparateOutputs:
		if len(p.Destinations) != len(p.Inscriptions) ||
			len(p.Inscriptions) != len(p.Postages) {
			return errs.Wrap(errs.InputValidation, fmt.Errorf(
				"separate-outputs requires matching destinations, "+
					"inscriptions and postages counts"))
		}

	case SatPoints:
		if len(p.Destinations) != len(p.Inscriptions) ||
			len(p.Inscriptions) != len(p.Postages) {
			return errs.Wrap(errs.InputValidation, fmt.Errorf(
				"satpoints requires matching destinations, "+
					"inscriptions and postages counts"))
		}
		if len(p.RevealSatpoint) != len(p.Inscriptions) {
			return errs.Wrap(errs.InputValidation, fmt.Errorf(
				"satpoints requires one reveal satpoint per inscription"))
		}

	case SharedOutput:
		if len(p.Destinations) != 1 {
			return errs.Wrap(errs.InputValidation, fmt.Errorf(
				"shared-output requires exactly one destination"))
		}
		if len(p.Postages) != len(p.Inscriptions) {
			return errs.Wrap(errs.InputValidation, fmt.Errorf(
				"shared-output requires one postage per inscription"))
		}

	case SameSat:
		if len(p.Destinations) != 1 || len(p.Postages) != 1 {
			return errs.Wrap(errs.InputValidation, fmt.Errorf(
				"same-sat requires exactly one destination and one postage"))
		}

	default:
		return errs.Wrap(errs.InputValidation,
			fmt.Errorf("unknown batch mode %d", p.Mode))
	}

	if p.ParentInfo != nil {
		for i, ins := range p.Inscriptions {
			if !ins.HasParent(p.ParentInfo.Id) {
				return errs.Wrap(errs.StateConflict, fmt.Errorf(
					"inscription %d does not declare parent %s",
					i, p.ParentInfo.Id))
			}
		}
	}

	if p.Etching != nil && p.EtchingPremine != nil &&
		p.EtchingPremine.Sign() > 0 && p.ChangeAddress == nil {
		return errs.Wrap(errs.InputValidation, fmt.Errorf(
			"a premine etching requires a change address for the "+
				"premine output"))
	}

	return nil
}

// postageFor returns the configured postage for the i'th inscription,
// falling back to TargetPostage when the plan omits it (§3.1).
func (p *Plan) postageFor(i int) btcutil.Amount {
	if i < len(p.Postages) {
		return p.Postages[i]
	}
	return TargetPostage
}

// totalPostage sums the postages that the commit's target value must
// cover (mode ≠ SatPoints, since satpoint-spent value already exists
// on-chain).
func (p *Plan) totalPostage() btcutil.Amount {
	if p.Mode == SatPoints {
		return 0
	}

	switch p.Mode {
	case SharedOutput:
		var sum btcutil.Amount
		for i := range p.Inscriptions {
			sum += p.postageFor(i)
		}
		return sum
	case SameSat:
		return p.postageFor(0)
	default:
		var sum btcutil.Amount
		for i := range p.Inscriptions {
			sum += p.postageFor(i)
		}
		return sum
	}
}
