// Package store is the persistence gateway: a single embedded table
// mapping a commit address string to the reveal-time state needed to
// resign and broadcast the reveal transaction after the commit has
// been externally funded, signed, and broadcast.
package store

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/ordtools/inscribe/inscription"
)

// State is the record persisted at commit-preparation time, keyed by
// the commit address string (§3 TaprootRevealState).
type State struct {
	Inscriptions   []*inscription.Inscription
	RevealScript   []byte
	ControlBlock   []byte
	TaprootAddress string
	UntweakedKey   *btcec.PrivateKey
	TweakedKey     *btcec.PrivateKey
}
