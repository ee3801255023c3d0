package batch

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/ordtools/inscribe/inscription"
	"github.com/ordtools/inscribe/node"
)

func TestResolveSatpointPrefersExplicit(t *testing.T) {
	explicit := inscription.SatPoint{Outpoint: wire.OutPoint{Index: 9}}
	p := &Plan{Satpoint: &explicit}

	got, err := ResolveSatpoint(p, nil)
	require.NoError(t, err)
	require.Equal(t, explicit, got)
}

func TestResolveSatpointSkipsUnspendableUtxos(t *testing.T) {
	p := &Plan{}
	utxos := []node.Utxo{
		{Outpoint: wire.OutPoint{Index: 1}, Amount: 1000, HasInscription: true, Spendable: true},
		{Outpoint: wire.OutPoint{Index: 2}, Amount: 1000, Locked: true, Spendable: true},
		{Outpoint: wire.OutPoint{Index: 3}, Amount: 1000, HasRune: true, Spendable: true},
		{Outpoint: wire.OutPoint{Index: 4}, Amount: 1000, Spendable: false},
		{Outpoint: wire.OutPoint{Index: 5}, Amount: 1000, Spendable: true},
	}

	got, err := ResolveSatpoint(p, utxos)
	require.NoError(t, err)
	require.Equal(t, uint32(5), got.Outpoint.Index)
}

func TestResolveSatpointFailsWithNoCardinalUtxos(t *testing.T) {
	p := &Plan{}
	utxos := []node.Utxo{
		{Outpoint: wire.OutPoint{Index: 1}, Amount: 1000, HasInscription: true, Spendable: true},
	}

	_, err := ResolveSatpoint(p, utxos)
	require.Error(t, err)
}

func TestCheckReinscriptionAllowsFreshSatpoint(t *testing.T) {
	sp := inscription.SatPoint{Outpoint: wire.OutPoint{Index: 1}}
	err := CheckReinscription(sp, nil, false)
	require.NoError(t, err)
}

func TestCheckReinscriptionRejectsWithoutReinscribeFlag(t *testing.T) {
	sp := inscription.SatPoint{Outpoint: wire.OutPoint{Index: 1}, Offset: 0}
	existing := []ExistingInscription{
		{Id: "a", Outpoint: sp.Outpoint, Offset: 0},
	}

	err := CheckReinscription(sp, existing, false)
	require.Error(t, err)

	err = CheckReinscription(sp, existing, true)
	require.NoError(t, err)
}

func TestCheckReinscriptionRejectsReinscribeWithoutPrior(t *testing.T) {
	sp := inscription.SatPoint{Outpoint: wire.OutPoint{Index: 1}}
	err := CheckReinscription(sp, nil, true)
	require.Error(t, err)
}

func TestCheckReinscriptionRejectsBlockingOffset(t *testing.T) {
	sp := inscription.SatPoint{Outpoint: wire.OutPoint{Index: 1}, Offset: 5}
	existing := []ExistingInscription{
		{Id: "blocking", Outpoint: sp.Outpoint, Offset: 10},
	}

	err := CheckReinscription(sp, existing, true)
	require.Error(t, err)
}
