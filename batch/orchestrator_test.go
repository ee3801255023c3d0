package batch

import (
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/ordtools/inscribe/inscription"
	"github.com/ordtools/inscribe/node"
	"github.com/ordtools/inscribe/store"
	"github.com/ordtools/inscribe/taproot"
)

// fakeClient is a minimal in-memory node.Client good enough to drive
// the orchestrator flows end to end without a real bitcoind.
type fakeClient struct {
	utxos        []node.Utxo
	txs          map[chainhash.Hash]*wire.MsgTx
	importedDesc []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{txs: make(map[chainhash.Hash]*wire.MsgTx)}
}

func (f *fakeClient) GetRawTransaction(txid chainhash.Hash) (*wire.MsgTx, error) {
	tx, ok := f.txs[txid]
	if !ok {
		return nil, errNotFound
	}
	return tx, nil
}

func (f *fakeClient) SendRawTransaction(tx *wire.MsgTx) (*chainhash.Hash, error) {
	hash := tx.TxHash()
	f.txs[hash] = tx
	return &hash, nil
}

func (f *fakeClient) ListUnspent() ([]node.Utxo, error) {
	return f.utxos, nil
}

func (f *fakeClient) GetNewAddress() (btcutil.Address, error) {
	return nil, errNotFound
}

func (f *fakeClient) SignRawTransactionWithWallet(
	tx *wire.MsgTx, _ []node.PrevOut,
) (*wire.MsgTx, bool, error) {
	return tx, true, nil
}

func (f *fakeClient) WalletProcessPSBT(psbtBase64 string) (string, bool, error) {
	return psbtBase64, true, nil
}

func (f *fakeClient) ImportDescriptors(descriptors []string) error {
	f.importedDesc = append(f.importedDesc, descriptors...)
	return nil
}

func (f *fakeClient) LockUnspent(bool, []wire.OutPoint) error {
	return nil
}

var errNotFound = errUnavailable("transaction not found")

type errUnavailable string

func (e errUnavailable) Error() string { return string(e) }

// fakeTxBuilder returns a commit transaction spending one synthetic
// coin, paying exactly target to addr.
type fakeTxBuilder struct{}

func (fakeTxBuilder) BuildCommit(
	target btcutil.Amount, addr btcutil.Address, _ btcutil.Amount,
) (*wire.MsgTx, error) {

	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Index: 0}})

	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, err
	}
	tx.AddTxOut(&wire.TxOut{Value: int64(target), PkScript: script})

	return tx, nil
}

func newOrchestrator(t *testing.T, client node.Client, builder TxBuilder) *Orchestrator {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reveal.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return &Orchestrator{
		Net:     &chaincfg.RegressionNetParams,
		Node:    client,
		Store:   s,
		Builder: builder,
	}
}

func samplePlanForOrchestrator(t *testing.T) *Plan {
	t.Helper()
	ins := inscription.New("text/plain", []byte("hello world"))
	return &Plan{
		CommitFeeRate: 1,
		RevealFeeRate: 1,
		Mode:          SeparateOutputs,
		Destinations:  []btcutil.Address{mustAddress(t)},
		Inscriptions:  []*inscription.Inscription{ins},
		Postages:      []btcutil.Amount{TargetPostage},
		NoBackup:      true,
	}
}

func TestTwoPhaseFlowPrepareThenReveal(t *testing.T) {
	client := newFakeClient()
	client.utxos = []node.Utxo{
		{Outpoint: wire.OutPoint{Index: 1}, Amount: 100_000, Spendable: true},
	}
	o := newOrchestrator(t, client, fakeTxBuilder{})
	p := samplePlanForOrchestrator(t)

	address, target, err := o.PrepareCommit(p)
	require.NoError(t, err)
	require.NotEmpty(t, address)
	require.Greater(t, target, btcutil.Amount(0))

	commitAddr, err := btcutil.DecodeAddress(address, &chaincfg.RegressionNetParams)
	require.NoError(t, err)

	commitTx, err := fakeTxBuilder{}.BuildCommit(target, commitAddr, 1)
	require.NoError(t, err)

	signed, complete, err := client.SignRawTransactionWithWallet(commitTx, nil)
	require.NoError(t, err)
	require.True(t, complete)

	commitHash, err := client.SendRawTransaction(signed)
	require.NoError(t, err)

	result, err := o.Reveal(p, address, *commitHash)
	require.NoError(t, err)
	require.True(t, result.RevealBroadcast)
	require.NotEmpty(t, result.Reveal)
	require.Len(t, result.Inscriptions, 1)

	got, err := o.Store.Get(address)
	require.NoError(t, err)
	require.Nil(t, got)
}

// TestPhase2IsIdempotentBeforeBroadcast rebuilds the reveal skeleton
// twice from the same persisted state, the way two independent Phase 2
// invocations would before either one's wallet round trip touches the
// auxiliary inputs, and asserts they agree on topology byte for byte.
func TestPhase2IsIdempotentBeforeBroadcast(t *testing.T) {
	client := newFakeClient()
	client.utxos = []node.Utxo{
		{Outpoint: wire.OutPoint{Index: 1}, Amount: 100_000, Spendable: true},
	}
	o := newOrchestrator(t, client, fakeTxBuilder{})
	p := samplePlanForOrchestrator(t)

	address, target, err := o.PrepareCommit(p)
	require.NoError(t, err)

	commitAddr, err := btcutil.DecodeAddress(address, &chaincfg.RegressionNetParams)
	require.NoError(t, err)

	commitTx, err := fakeTxBuilder{}.BuildCommit(target, commitAddr, 1)
	require.NoError(t, err)

	commitHash, err := client.SendRawTransaction(commitTx)
	require.NoError(t, err)

	buildFromPersistedState := func() *Skeleton {
		state, err := o.Store.Get(address)
		require.NoError(t, err)
		require.NotNil(t, state)

		commitment, err := taproot.BuildWithKey(o.Net, state.UntweakedKey, state.Inscriptions)
		require.NoError(t, err)

		outpoint, txOut, err := findCommitOutput(commitTx, *commitHash, commitment.PkScript)
		require.NoError(t, err)

		skeleton, err := BuildSkeleton(p, commitment, outpoint, btcutil.Amount(txOut.Value))
		require.NoError(t, err)
		return skeleton
	}

	first := buildFromPersistedState()
	second := buildFromPersistedState()

	require.Equal(t, first.CommitInputIndex, second.CommitInputIndex)
	require.Equal(t, first.Tx.TxIn, second.Tx.TxIn)
	require.Equal(t, first.Tx.TxOut, second.Tx.TxOut)
	require.Equal(t, first.Tx.LockTime, second.Tx.LockTime)
}

func TestRevealFailsWithoutPriorPrepare(t *testing.T) {
	client := newFakeClient()
	o := newOrchestrator(t, client, fakeTxBuilder{})
	p := samplePlanForOrchestrator(t)

	_, err := o.Reveal(p, "bcrt1pnonexistent", chainhash.Hash{})
	require.Error(t, err)
}

func TestSinglePhaseFlowSignsAndBroadcastsBoth(t *testing.T) {
	client := newFakeClient()
	client.utxos = []node.Utxo{
		{Outpoint: wire.OutPoint{Index: 1}, Amount: 100_000, Spendable: true},
	}
	o := newOrchestrator(t, client, fakeTxBuilder{})
	p := samplePlanForOrchestrator(t)

	result, err := o.SinglePhase(p)
	require.NoError(t, err)
	require.True(t, result.RevealBroadcast)
	require.NotEmpty(t, result.Commit)
	require.NotEmpty(t, result.Reveal)
}

func TestSinglePhaseFailsWithoutTxBuilder(t *testing.T) {
	client := newFakeClient()
	client.utxos = []node.Utxo{
		{Outpoint: wire.OutPoint{Index: 1}, Amount: 100_000, Spendable: true},
	}
	o := newOrchestrator(t, client, nil)
	p := samplePlanForOrchestrator(t)

	_, err := o.SinglePhase(p)
	require.Error(t, err)
}

func TestResolvePlanSatpointSkipsSatPointsMode(t *testing.T) {
	client := newFakeClient()
	client.utxos = []node.Utxo{
		{Outpoint: wire.OutPoint{Index: 1}, Amount: 100_000, HasInscription: true, Spendable: true},
	}
	o := newOrchestrator(t, client, fakeTxBuilder{})
	p := samplePlanForOrchestrator(t)
	p.Mode = SatPoints

	// SatPoints mode binds its own inputs and must not consult
	// ListUnspent for satpoint resolution, so a wallet with no
	// cardinal utxos does not cause a failure here.
	err := o.resolvePlanSatpoint(p)
	require.NoError(t, err)
	require.Nil(t, p.Satpoint)
}

func TestResolvePlanSatpointFailsWithNoCardinalUtxos(t *testing.T) {
	client := newFakeClient()
	client.utxos = []node.Utxo{
		{Outpoint: wire.OutPoint{Index: 1}, Amount: 100_000, HasInscription: true, Spendable: true},
	}
	o := newOrchestrator(t, client, fakeTxBuilder{})
	p := samplePlanForOrchestrator(t)

	err := o.resolvePlanSatpoint(p)
	require.Error(t, err)
}

func TestDryRunProducesPSBTsWithoutBroadcast(t *testing.T) {
	client := newFakeClient()
	client.utxos = []node.Utxo{
		{Outpoint: wire.OutPoint{Index: 1}, Amount: 100_000, Spendable: true},
	}
	o := newOrchestrator(t, client, fakeTxBuilder{})
	p := samplePlanForOrchestrator(t)

	result, err := o.DryRun(p)
	require.NoError(t, err)
	require.False(t, result.RevealBroadcast)
	require.NotEmpty(t, result.CommitPSBT)
	require.NotEmpty(t, result.RevealPSBT)
	require.NotEmpty(t, result.Reveal)
	require.Greater(t, result.TotalFees, btcutil.Amount(0))
}
