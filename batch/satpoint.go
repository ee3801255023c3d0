package batch

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"

	"github.com/ordtools/inscribe/errs"
	"github.com/ordtools/inscribe/inscription"
	"github.com/ordtools/inscribe/node"
)

// ResolveSatpoint returns the plan's explicit satpoint, or selects the
// first wallet UTXO that is nonzero, unlocked, uninscribed and
// rune-free (§4.3). Modes that bind their own reveal inputs explicitly
// (SatPoints) never need this.
func ResolveSatpoint(p *Plan, utxos []node.Utxo) (inscription.SatPoint, error) {
	if p.Satpoint != nil {
		return *p.Satpoint, nil
	}

	for _, u := range utxos {
		if u.Amount <= 0 || u.HasInscription || u.Locked || u.HasRune || !u.Spendable {
			continue
		}
		return inscription.SatPoint{Outpoint: u.Outpoint, Offset: 0}, nil
	}

	return inscription.SatPoint{}, errs.Wrap(errs.StateConflict,
		fmt.Errorf("wallet contains no cardinal utxos"))
}

// ExistingInscription is one inscription an indexer reports sitting at
// a given outpoint/offset, the input CheckReinscription needs to
// enforce the reinscription rules of §4.3.
type ExistingInscription struct {
	Id       string
	Outpoint wire.OutPoint
	Offset   uint64
}

// CheckReinscription enforces §4.3's reinscription rules against the
// inscriptions an indexer reports already sitting at satpoint's
// outpoint. Locating those inscriptions is an indexing-service
// responsibility this core does not provide (§1 Non-goals); a caller
// with no indexer available passes an empty slice, which accepts
// reinscribe=false unconditionally and rejects reinscribe=true
// unconditionally, matching the spec's stated failure mode for the
// case with no prior inscription found.
func CheckReinscription(
	satpoint inscription.SatPoint, existing []ExistingInscription, reinscribe bool,
) error {
	var atOffset, blocking []string
	for _, e := range existing {
		if e.Outpoint != satpoint.Outpoint {
			continue
		}
		if e.Offset == satpoint.Offset {
			atOffset = append(atOffset, e.Id)
		} else {
			blocking = append(blocking, e.Id)
		}
	}

	if len(blocking) > 0 {
		return errs.Wrap(errs.StateConflict, fmt.Errorf(
			"other inscriptions occupy this outpoint at a different "+
				"offset: %v", blocking))
	}

	switch {
	case len(atOffset) > 0 && !reinscribe:
		return errs.Wrap(errs.StateConflict, fmt.Errorf(
			"satpoint already inscribed with %v, use --reinscribe", atOffset))
	case len(atOffset) == 0 && reinscribe:
		return errs.Wrap(errs.StateConflict, fmt.Errorf(
			"--reinscribe set but no prior inscription found at this satpoint"))
	}

	return nil
}
